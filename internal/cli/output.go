package cli

import (
	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"budgetbuddy/internal/ledger"
)

var (
	green  = color.New(color.FgGreen, color.Bold).SprintFunc()
	yellow = color.New(color.FgYellow, color.Bold).SprintFunc()
	cyan   = color.New(color.FgCyan, color.Bold).SprintFunc()
)

func reportStatus(r ledger.Report) string {
	switch {
	case r.InSync():
		return green("in sync")
	case r.Fixed:
		return cyan("fixed")
	default:
		return yellow("drift")
	}
}

// reportTable renders reconcile reports as a boxed table.
func reportTable(reports []ledger.Report) string {
	data := pterm.TableData{{"User", "Cached", "Computed", "Drift", "Status"}}
	for _, r := range reports {
		data = append(data, []string{
			r.UserID,
			r.Cached.String(),
			r.Computed.String(),
			r.Drift.String(),
			reportStatus(r),
		})
	}
	table, _ := pterm.DefaultTable.
		WithHasHeader().
		WithBoxed().
		WithHeaderStyle(pterm.NewStyle(pterm.FgLightCyan)).
		WithData(data).
		Srender()
	return table
}

// unfixedDrift counts reports whose cache still differs from the entries.
func unfixedDrift(reports []ledger.Report) int {
	n := 0
	for _, r := range reports {
		if !r.InSync() && !r.Fixed {
			n++
		}
	}
	return n
}
