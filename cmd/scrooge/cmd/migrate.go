package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// Migrations run on every startup; this command exists to apply them without
// doing anything else, e.g. as a deploy step.
var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations and exit",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(func(ctx context.Context) error {
			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")
			return nil
		})
	},
}
