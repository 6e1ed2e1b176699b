package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/smallbiznis/scrooge/internal/clock"
	psdomain "github.com/smallbiznis/scrooge/internal/pricingservice/domain"
)

var detectCyclesDate string

var detectCyclesCmd = &cobra.Command{
	Use:   "detect-cycles",
	Short: "Check the pricing service charge graph for cycles",
	Long: `Build the charge graph between pricing services for a date and
print every cycle found. A cyclic graph makes cost distribution undefined
and blocks calculation for the date.`,
	RunE: runDetectCycles,
}

func init() {
	detectCyclesCmd.Flags().StringVar(&detectCyclesDate, "date", "", "date to check (YYYY-MM-DD, default yesterday)")
}

func runDetectCycles(cmd *cobra.Command, args []string) error {
	var (
		svc psdomain.Service
		clk clock.Clock
	)
	return withApp(func(ctx context.Context) error {
		date := clock.Yesterday(clk)
		if detectCyclesDate != "" {
			var err error
			if date, err = parseDate(detectCyclesDate); err != nil {
				return err
			}
		}
		cycles, err := svc.DetectCycles(ctx, date)
		if err != nil {
			return err
		}
		if len(cycles) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No cycles!")
			return nil
		}
		for _, cycle := range cycles {
			fmt.Fprintln(cmd.OutOrStdout(), strings.Join(cycle, " -> "))
		}
		return fmt.Errorf("%d cycle(s) detected", len(cycles))
	}, &svc, &clk)
}
