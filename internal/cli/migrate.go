package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"budgetbuddy/internal/storage"
)

func newMigrateCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending SQLite schema migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			out := cmd.OutOrStdout()
			if rt.cfg.Backend != "sqlite" {
				fmt.Fprint(out, pterm.Info.Sprintfln("Backend %q has no schema migrations", rt.cfg.Backend))
				return nil
			}
			if err := os.MkdirAll(filepath.Dir(rt.cfg.SQLiteDBPath), 0o755); err != nil {
				return fmt.Errorf("create db directory: %w", err)
			}
			status, err := storage.RunMigrations(rt.cfg.SQLiteDBPath)
			if err != nil {
				return err
			}
			if status.Changed {
				fmt.Fprint(out, pterm.Success.Sprintfln("Schema migrated to version %d", status.Version))
			} else {
				fmt.Fprint(out, pterm.Info.Sprintfln("Schema already at version %d", status.Version))
			}
			rt.logger.Info("Migrations applied",
				"db_path", rt.cfg.SQLiteDBPath,
				"version", status.Version,
				"changed", status.Changed)
			return nil
		},
	}
}
