package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/pterm/pterm"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/app"
	"budgetbuddy/internal/config"
	"budgetbuddy/internal/core"
	"budgetbuddy/internal/ledger"
	"budgetbuddy/internal/log"
)

func init() {
	color.NoColor = true
	pterm.DisableColor()
}

// setEnv points the configuration at a temporary SQLite database.
func setEnv(t *testing.T) string {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "data", "cli.db")
	t.Setenv("BACKEND", "sqlite")
	t.Setenv("SQLITE_DB_PATH", dbPath)
	t.Setenv("JWT_SECRET", "0123456789abcdef0123")
	t.Setenv("AMQP_URL", "")
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("LOG_LEVEL", "error")
	return dbPath
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	root := NewRootCommand("test")
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

// seedDrift creates a user with one income and a cached balance that is off by 30.
func seedDrift(t *testing.T) string {
	t.Helper()
	cfg, err := config.Load("")
	if err != nil {
		t.Fatalf("load config: %v", err)
	}
	ctx := context.Background()
	a, err := app.New(ctx, cfg, nil)
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	defer a.Close()

	user, err := a.Services.Auth.Register(ctx, "Ana", "ana@example.com", "supersecret")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := a.Services.Incomes.Create(ctx, core.Income{
		UserID: user.ID, Label: "Salário", Amount: core.MustMoney("100"), Date: core.NewDate(2025, 1, 5),
	}); err != nil {
		t.Fatalf("create income: %v", err)
	}
	if err := a.Store.UpsertBalance(ctx, user.ID, core.MustMoney("70")); err != nil {
		t.Fatalf("upsert balance: %v", err)
	}
	return user.ID
}

func TestRootCommandTree(t *testing.T) {
	root := NewRootCommand("1.2.3")
	want := []string{"serve", "migrate", "reconcile", "export", "worker"}
	for _, name := range want {
		if cmd, _, err := root.Find([]string{name}); err != nil || cmd.Name() != name {
			t.Errorf("missing subcommand %q", name)
		}
	}
	if root.Version != "1.2.3" {
		t.Errorf("unexpected version %q", root.Version)
	}
}

func TestInvalidConfigFailsBeforeRunning(t *testing.T) {
	setEnv(t)
	t.Setenv("JWT_SECRET", "")
	_, err := run(t, "migrate")
	if err == nil || !strings.Contains(err.Error(), "JWT_SECRET is required") {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMigrate(t *testing.T) {
	dbPath := setEnv(t)
	out, err := run(t, "migrate")
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if !strings.Contains(out, "Schema migrated to version") {
		t.Errorf("unexpected output %q", out)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("database not created: %v", err)
	}

	out, err = run(t, "migrate")
	if err != nil || !strings.Contains(out, "already at version") {
		t.Fatalf("second migrate: %q %v", out, err)
	}
}

func TestMigrateOtherBackend(t *testing.T) {
	setEnv(t)
	t.Setenv("BACKEND", "memory")
	out, err := run(t, "migrate")
	if err != nil || !strings.Contains(out, "no schema migrations") {
		t.Fatalf("unexpected result %q %v", out, err)
	}
}

func TestReconcileReportsAndFixesDrift(t *testing.T) {
	setEnv(t)
	userID := seedDrift(t)

	out, err := run(t, "reconcile", "--user", userID)
	if err == nil || !strings.Contains(err.Error(), "rerun with --fix") {
		t.Fatalf("expected drift error, got %v", err)
	}
	for _, want := range []string{userID, "70.00", "100.00", "-30.00", "drift"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = run(t, "reconcile", "--fix")
	if err != nil {
		t.Fatalf("reconcile --fix: %v", err)
	}
	if !strings.Contains(out, "fixed") {
		t.Errorf("expected fixed status:\n%s", out)
	}

	out, err = run(t, "reconcile", "-u", userID)
	if err != nil || !strings.Contains(out, "in sync") {
		t.Fatalf("expected in sync after fix: %q %v", out, err)
	}
}

func TestReconcileWithoutUsers(t *testing.T) {
	setEnv(t)
	out, err := run(t, "reconcile")
	if err != nil || !strings.Contains(out, "No users to reconcile") {
		t.Fatalf("unexpected result %q %v", out, err)
	}
}

func TestExportPDF(t *testing.T) {
	setEnv(t)
	userID := seedDrift(t)
	path := filepath.Join(t.TempDir(), "out", "extrato.pdf")

	out, err := run(t, "export", "--user", userID, "--out", path)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if !strings.Contains(out, "Exported 1 transactions to "+path) {
		t.Errorf("unexpected output %q", out)
	}
	if info, err := os.Stat(path); err != nil || info.Size() == 0 {
		t.Fatalf("pdf not written: %v", err)
	}
}

func TestExportErrors(t *testing.T) {
	setEnv(t)
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing user flag", []string{"export"}, `required flag(s) "user" not set`},
		{"unknown format", []string{"export", "-u", "u1", "-f", "csv"}, "unknown export format"},
		{"sheets without settings", []string{"export", "-u", "u1", "-f", "sheets"}, "GOOGLE_SPREADSHEET_ID"},
		{"unknown user", []string{"export", "-u", "ghost", "-o", filepath.Join(t.TempDir(), "x.pdf")}, "not found"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := run(t, tt.args...)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("expected error containing %q, got %v", tt.want, err)
			}
		})
	}
}

func TestWorkerRequiresAMQP(t *testing.T) {
	setEnv(t)
	_, err := run(t, "worker")
	if err == nil || err.Error() != "worker requires AMQP_URL" {
		t.Fatalf("expected AMQP error, got %v", err)
	}
}

func TestLedgerEventHandler(t *testing.T) {
	setEnv(t)
	userID := seedDrift(t)
	cfg, err := config.Load("")
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	a, err := app.New(ctx, cfg, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer a.Close()

	handle := ledgerEventHandler(a.Services.Reconcile, true, log.Discard())
	ev := amqp.NewLedgerEvent(userID, "i1", core.KindIncome, core.OpCreate, core.MustMoney("100"))
	if err := handle(ctx, ev); err != nil {
		t.Fatalf("handle: %v", err)
	}
	total, err := a.Ledger.Balance(ctx, userID)
	if err != nil || total.String() != "100.00" {
		t.Fatalf("expected repaired balance 100.00, got %s %v", total, err)
	}
}

func TestReportHelpers(t *testing.T) {
	reports := []ledger.Report{
		{UserID: "a", Cached: core.MustMoney("10"), Computed: core.MustMoney("10"), Drift: core.Zero},
		{UserID: "b", Cached: core.MustMoney("10"), Computed: core.MustMoney("5"), Drift: core.MustMoney("5")},
		{UserID: "c", Cached: core.MustMoney("10"), Computed: core.MustMoney("5"), Drift: core.MustMoney("5"), Fixed: true},
	}
	if n := unfixedDrift(reports); n != 1 {
		t.Errorf("expected 1 unfixed drift, got %d", n)
	}
	table := reportTable(reports)
	for _, want := range []string{"User", "in sync", "drift", "fixed"} {
		if !strings.Contains(table, want) {
			t.Errorf("table missing %q:\n%s", want, table)
		}
	}
}

func TestNotifyShutdownCancels(t *testing.T) {
	parent, cancelParent := context.WithCancel(context.Background())
	ctx, stop := notifyShutdown(parent, log.Discard())
	defer stop()
	cancelParent()
	select {
	case <-ctx.Done():
		if !errors.Is(ctx.Err(), context.Canceled) {
			t.Fatalf("unexpected err %v", ctx.Err())
		}
	case <-time.After(time.Second):
		t.Fatal("context not cancelled with parent")
	}
}
