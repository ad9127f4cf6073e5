package cli

import (
	"fmt"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"budgetbuddy/internal/app"
	"budgetbuddy/internal/export"
	"budgetbuddy/internal/export/pdf"
	"budgetbuddy/internal/export/sheets"
)

func newExportCommand(rt *runtime) *cobra.Command {
	var (
		userID string
		format string
		output string
	)
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Export a user's statement to PDF or Google Sheets",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			a, err := app.New(ctx, rt.cfg, rt.logger)
			if err != nil {
				return err
			}
			defer a.Close()

			var exporter export.Exporter
			switch format {
			case "pdf":
				if output == "" {
					output = fmt.Sprintf("extrato-%s.pdf", userID)
				}
				exporter = pdf.NewExporter(output, rt.logger)
			case "sheets":
				if err := rt.cfg.ValidateExport(); err != nil {
					return err
				}
				exporter, err = sheets.New(ctx, sheets.Config{
					SpreadsheetID:   rt.cfg.GoogleSpreadsheetID,
					SheetName:       rt.cfg.GoogleSheetName,
					CredentialsJSON: rt.cfg.GoogleServiceAccountJSON,
					CredentialsFile: rt.cfg.GoogleServiceAccountFile,
				}, rt.logger)
				if err != nil {
					return err
				}
			default:
				return fmt.Errorf("unknown export format %q: must be pdf or sheets", format)
			}

			st, err := export.BuildStatement(ctx, a.Store, userID, time.Now())
			if err != nil {
				return err
			}
			ref, err := exporter.Export(ctx, st)
			if err != nil {
				return fmt.Errorf("export %s: %w", format, err)
			}
			fmt.Fprint(cmd.OutOrStdout(), pterm.Success.Sprintfln("Exported %d transactions to %s", len(st.Transactions), ref))
			return nil
		},
	}
	cmd.Flags().StringVarP(&userID, "user", "u", "", "User id whose statement is exported")
	cmd.Flags().StringVarP(&format, "format", "f", "pdf", "Export format: pdf or sheets")
	cmd.Flags().StringVarP(&output, "out", "o", "", "PDF output path (default: extrato-<user>.pdf)")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}
