package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/smallbiznis/scrooge/internal/clock"
	"github.com/smallbiznis/scrooge/internal/config"
	"github.com/smallbiznis/scrooge/internal/plugins"
	"github.com/smallbiznis/scrooge/internal/plugins/collect"
)

var (
	syncToday     string
	syncYesterday bool
	syncInput     string
	syncForecast  bool
	syncRunOnly   []string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run the collect chain for a date",
	Long: `Import external facts (service catalog, usage uploads, support
contracts) from a JSON file and imprint recurring extra costs for the date.
Plugins declaring requirements run after the plugins they depend on.`,
	RunE: runSync,
}

func init() {
	syncCmd.Flags().StringVar(&syncToday, "today", "", "date to process (YYYY-MM-DD, default today)")
	syncCmd.Flags().BoolVarP(&syncYesterday, "yesterday", "y", false, "process yesterday instead of today")
	syncCmd.Flags().StringVarP(&syncInput, "input", "i", "", "JSON file with services, usages and supports")
	syncCmd.Flags().BoolVar(&syncForecast, "forecast", false, "use forecast prices and costs")
	syncCmd.Flags().StringSliceVar(&syncRunOnly, "run-only", nil, "run only the named plugins, in order")
}

// syncInputFile is the shape of the --input document.
type syncInputFile struct {
	Services []collect.ServiceRecord   `json:"services"`
	Usages   []collect.UsageRecord     `json:"usages"`
	Supports []collect.SupportContract `json:"supports"`
}

func runSync(cmd *cobra.Command, args []string) error {
	if syncToday != "" && syncYesterday {
		return fmt.Errorf("--today cannot be combined with --yesterday")
	}

	params := map[string]any{}
	if syncInput != "" {
		raw, err := os.ReadFile(syncInput)
		if err != nil {
			return err
		}
		var input syncInputFile
		if err := json.Unmarshal(raw, &input); err != nil {
			return fmt.Errorf("parse %s: %w", syncInput, err)
		}
		params[collect.ParamServices] = input.Services
		params[collect.ParamUsages] = input.Usages
		params[collect.ParamSupports] = input.Supports
	}

	var (
		runner *plugins.Runner
		cfg    *config.Config
		clk    clock.Clock
	)
	return withApp(func(ctx context.Context) error {
		date := clock.Today(clk)
		switch {
		case syncYesterday:
			date = clock.Yesterday(clk)
		case syncToday != "":
			var err error
			if date, err = parseDate(syncToday); err != nil {
				return err
			}
		}
		rc := plugins.RunContext{Date: date, Forecast: syncForecast, Params: params}

		only := syncRunOnly
		if len(only) == 0 {
			only = cfg.CollectPlugins
		}
		if len(only) > 0 {
			for _, name := range only {
				result, err := runner.RunPlugin(ctx, plugins.ChainCollect, name, rc)
				if err != nil {
					return fmt.Errorf("plugin %s: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", name, result.Message)
			}
			return nil
		}

		report := runner.RunChain(ctx, plugins.ChainCollect, rc)
		for _, outcome := range report.Outcomes {
			status := "ok"
			if !outcome.Success {
				status = "failed"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s %s\n", outcome.Name, status, outcome.Message)
		}
		if failed := report.Failed(); len(failed) > 0 {
			return fmt.Errorf("%d plugin(s) failed: %v", len(failed), failed)
		}
		return nil
	}, &runner, &cfg, &clk)
}
