package cli

import (
	"os"

	"github.com/spf13/cobra"

	"budgetbuddy/internal/config"
	"budgetbuddy/internal/log"
)

// runtime carries what the root command resolved for its subcommands.
type runtime struct {
	configPath string
	cfg        *config.Config
	logger     *log.Logger
}

// NewRootCommand builds the command tree.
func NewRootCommand(version string) *cobra.Command {
	rt := &runtime{}

	root := &cobra.Command{
		Use:           "budgetbuddy",
		Short:         "Personal finance tracker with a maintained balance ledger",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := LoadAndValidateConfig(rt.configPath)
			if err != nil {
				return err
			}
			rt.cfg = cfg
			rt.logger = SetupLogger(cfg, cmd.ErrOrStderr())
			return nil
		},
	}
	root.SetVersionTemplate(`{{printf "budgetbuddy version %s\n" .Version}}`)
	root.PersistentFlags().StringVarP(&rt.configPath, "config", "c", os.Getenv("CONFIG_FILE"),
		"Path to a YAML or TOML configuration file (environment variables take precedence)")

	root.AddCommand(
		newServeCommand(rt),
		newMigrateCommand(rt),
		newReconcileCommand(rt),
		newExportCommand(rt),
		newWorkerCommand(rt),
	)
	return root
}
