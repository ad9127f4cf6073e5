package cli

import (
	"errors"
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"budgetbuddy/internal/app"
	"budgetbuddy/internal/ledger"
)

func newReconcileCommand(rt *runtime) *cobra.Command {
	var (
		userID string
		fix    bool
	)
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Compare cached balances with the entry totals",
		Long: "Recomputes each balance as incomes minus expenses and reports the drift " +
			"from the cached total. With --fix the cache is overwritten. Exits non-zero " +
			"when drift remains.",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := app.New(ctx, rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			var (
				reports []ledger.Report
				runErr  error
			)
			if userID != "" {
				r, err := a.Services.Reconcile.User(ctx, userID, fix)
				if err != nil {
					return fmt.Errorf("reconcile %s: %w", userID, err)
				}
				reports = []ledger.Report{r}
			} else {
				reports, runErr = a.Services.Reconcile.All(ctx, fix)
			}

			out := cmd.OutOrStdout()
			if len(reports) == 0 {
				fmt.Fprint(out, pterm.Info.Sprintln("No users to reconcile"))
			} else {
				fmt.Fprintln(out, reportTable(reports))
			}

			if n := unfixedDrift(reports); n > 0 {
				runErr = errors.Join(runErr, fmt.Errorf("%d balance(s) drifting; rerun with --fix to repair", n))
			}
			return runErr
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "Reconcile a single user id (default: every user)")
	cmd.Flags().BoolVar(&fix, "fix", false, "Overwrite drifting caches with the entry total")
	return cmd
}
