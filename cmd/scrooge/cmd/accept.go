package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/smallbiznis/scrooge/internal/collector"
)

var (
	acceptDateFrom string
	acceptDateTo   string
	acceptForecast bool
)

var acceptCmd = &cobra.Command{
	Use:   "accept",
	Short: "Accept calculated costs for a range",
	Long: `Mark the range's calculated costs as accepted and the underlying
rows as verified. Accepted dates can no longer be recalculated.`,
	RunE: runAccept,
}

func init() {
	acceptCmd.Flags().StringVar(&acceptDateFrom, "date-from", "", "first date of the range")
	acceptCmd.Flags().StringVar(&acceptDateTo, "date-to", "", "last date of the range")
	acceptCmd.Flags().BoolVar(&acceptForecast, "forecast", false, "accept the forecast variant")
	_ = acceptCmd.MarkFlagRequired("date-from")
	_ = acceptCmd.MarkFlagRequired("date-to")
}

func runAccept(cmd *cobra.Command, args []string) error {
	from, err := parseDate(acceptDateFrom)
	if err != nil {
		return err
	}
	to, err := parseDate(acceptDateTo)
	if err != nil {
		return err
	}
	if to.Before(from) {
		return fmt.Errorf("--date-to is before --date-from")
	}

	var coll *collector.Collector
	return withApp(func(ctx context.Context) error {
		if err := coll.Accept(ctx, from, to, acceptForecast); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "costs accepted for %s..%s\n",
			from.Format(dateLayout), to.Format(dateLayout))
		return nil
	}, &coll)
}
