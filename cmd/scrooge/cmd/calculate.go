package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/smallbiznis/scrooge/internal/clock"
	"github.com/smallbiznis/scrooge/internal/collector"
)

var (
	calculateDate     string
	calculateDateFrom string
	calculateDateTo   string
	calculateForecast bool
	calculateForce    bool
)

var calculateCmd = &cobra.Command{
	Use:   "calculate",
	Short: "Compute daily costs for a date or range",
	Long: `Validate the configuration for each date, run every cost plugin and
replace the date's daily cost rows. Already calculated dates are skipped
unless --force is given; accepted dates are never recalculated.`,
	RunE: runCalculate,
}

func init() {
	calculateCmd.Flags().StringVar(&calculateDate, "date", "", "single date to process (YYYY-MM-DD, default yesterday)")
	calculateCmd.Flags().StringVar(&calculateDateFrom, "date-from", "", "first date of the range")
	calculateCmd.Flags().StringVar(&calculateDateTo, "date-to", "", "last date of the range")
	calculateCmd.Flags().BoolVar(&calculateForecast, "forecast", false, "use forecast prices and costs")
	calculateCmd.Flags().BoolVar(&calculateForce, "force", false, "recalculate dates already calculated")
}

func runCalculate(cmd *cobra.Command, args []string) error {
	var (
		coll *collector.Collector
		clk  clock.Clock
	)
	return withApp(func(ctx context.Context) error {
		from, to, err := resolveRange(calculateDate, calculateDateFrom, calculateDateTo, clock.Yesterday(clk))
		if err != nil {
			return err
		}
		if err := coll.ProcessPeriod(ctx, from, to, calculateForecast, calculateForce); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "costs calculated for %s..%s\n",
			from.Format(dateLayout), to.Format(dateLayout))
		return nil
	}, &coll, &clk)
}

// resolveRange turns the flag combinations into an inclusive range. A bare
// --date (or nothing, falling back to the given default day) is a one day
// range.
func resolveRange(date, dateFrom, dateTo string, fallback time.Time) (from, to time.Time, err error) {
	switch {
	case dateFrom != "" || dateTo != "":
		if date != "" {
			return from, to, fmt.Errorf("--date cannot be combined with --date-from/--date-to")
		}
		if dateFrom == "" || dateTo == "" {
			return from, to, fmt.Errorf("--date-from and --date-to must be given together")
		}
		if from, err = parseDate(dateFrom); err != nil {
			return from, to, err
		}
		if to, err = parseDate(dateTo); err != nil {
			return from, to, err
		}
		if to.Before(from) {
			return from, to, fmt.Errorf("--date-to is before --date-from")
		}
		return from, to, nil
	default:
		if date == "" {
			return fallback, fallback, nil
		}
		if from, err = parseDate(date); err != nil {
			return from, to, err
		}
		return from, from, nil
	}
}
