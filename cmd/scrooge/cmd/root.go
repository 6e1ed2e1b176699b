// Package cmd provides the CLI commands for scrooge.
package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/spf13/cobra"
	"go.uber.org/fx"

	"github.com/smallbiznis/scrooge/internal/catalog"
	"github.com/smallbiznis/scrooge/internal/clock"
	"github.com/smallbiznis/scrooge/internal/collector"
	"github.com/smallbiznis/scrooge/internal/config"
	"github.com/smallbiznis/scrooge/internal/cost"
	"github.com/smallbiznis/scrooge/internal/extracost"
	"github.com/smallbiznis/scrooge/internal/logger"
	"github.com/smallbiznis/scrooge/internal/migration"
	"github.com/smallbiznis/scrooge/internal/plugins"
	"github.com/smallbiznis/scrooge/internal/plugins/collect"
	"github.com/smallbiznis/scrooge/internal/plugins/costplugins"
	"github.com/smallbiznis/scrooge/internal/pricingservice"
	"github.com/smallbiznis/scrooge/internal/publisher"
	"github.com/smallbiznis/scrooge/internal/support"
	"github.com/smallbiznis/scrooge/internal/team"
	"github.com/smallbiznis/scrooge/internal/usage"
	"github.com/smallbiznis/scrooge/internal/validation"
	"github.com/smallbiznis/scrooge/pkg/db"
)

const dateLayout = "2006-01-02"

const startTimeout = 30 * time.Second

var rootCmd = &cobra.Command{
	Use:   "scrooge",
	Short: "Cost allocation and chargeback pipeline",
	Long: `scrooge collects usage and catalog facts, distributes infrastructure
and organizational costs over services day by day, and publishes accepted
cost aggregates downstream.

Examples:
  scrooge sync --today 2026-08-30 --input facts.json
  scrooge calculate --date 2026-08-30
  scrooge detect-cycles --date 2026-08-30
  scrooge accept --date-from 2026-08-01 --date-to 2026-08-31
  scrooge publish --date-from 2026-08-01 --date-to 2026-08-31`,
	SilenceUsage: true,
}

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.AddCommand(syncCmd)
	rootCmd.AddCommand(calculateCmd)
	rootCmd.AddCommand(detectCyclesCmd)
	rootCmd.AddCommand(acceptCmd)
	rootCmd.AddCommand(publishCmd)
	rootCmd.AddCommand(migrateCmd)
}

func newSnowflakeNode() (*snowflake.Node, error) {
	return snowflake.NewNode(1)
}

func baseOptions() []fx.Option {
	return []fx.Option{
		config.Module,
		logger.Module,
		fx.Provide(newSnowflakeNode),
		db.Module,
		clock.Module,
		migration.Module,

		catalog.Module,
		usage.Module,
		cost.Module,
		extracost.Module,
		team.Module,
		pricingservice.Module,
		support.Module,

		plugins.Module,
		collect.Module,
		costplugins.Module,
		validation.Module,
		collector.Module,
		publisher.Module,

		fx.NopLogger,
	}
}

// withApp boots the full dependency graph, populates targets and hands a
// signal-aware context to fn.
func withApp(fn func(ctx context.Context) error, targets ...any) error {
	opts := append(baseOptions(), fx.Populate(targets...))
	app := fx.New(opts...)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	startCtx, startCancel := context.WithTimeout(ctx, startTimeout)
	defer startCancel()
	if err := app.Start(startCtx); err != nil {
		return err
	}
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(context.Background(), startTimeout)
		defer stopCancel()
		_ = app.Stop(stopCtx)
	}()

	return fn(ctx)
}

func parseDate(raw string) (time.Time, error) {
	return time.ParseInLocation(dateLayout, raw, time.UTC)
}
