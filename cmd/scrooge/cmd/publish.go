package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smallbiznis/scrooge/internal/publisher"
)

var (
	publishDateFrom string
	publishDateTo   string
	publishForecast bool
)

var publishCmd = &cobra.Command{
	Use:   "publish",
	Short: "Send accepted cost aggregates to the configured recipients",
	RunE:  runPublish,
}

func init() {
	publishCmd.Flags().StringVar(&publishDateFrom, "date-from", "", "first date of the range")
	publishCmd.Flags().StringVar(&publishDateTo, "date-to", "", "last date of the range")
	publishCmd.Flags().BoolVar(&publishForecast, "forecast", false, "publish the forecast variant")
	_ = publishCmd.MarkFlagRequired("date-from")
	_ = publishCmd.MarkFlagRequired("date-to")
}

func runPublish(cmd *cobra.Command, args []string) error {
	from, err := parseDate(publishDateFrom)
	if err != nil {
		return err
	}
	to, err := parseDate(publishDateTo)
	if err != nil {
		return err
	}
	if to.Before(from) {
		return fmt.Errorf("--date-to is before --date-from")
	}

	var pub *publisher.Publisher
	return withApp(func(ctx context.Context) error {
		delivered, err := pub.Publish(ctx, from, to, publishForecast)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "published to %d recipient(s)\n", delivered)
		return nil
	}, &pub)
}
