package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/auth"
	"budgetbuddy/internal/cache"
	"budgetbuddy/internal/core"
	"budgetbuddy/internal/ledger"
	"budgetbuddy/internal/ports"
	"budgetbuddy/internal/storage/memory"
)

// faultyStore wraps the memory store with switchable failures and hooks.
type faultyStore struct {
	*memory.Store
	failEntryWrite  bool
	failBalance     bool
	beforeIncrement func()
	slowGet         time.Duration
}

var errInjected = errors.New("injected failure")

// InTx hands the wrapper itself to the unit so that failures and hooks apply.
func (f *faultyStore) InTx(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	return f.Store.InTx(ctx, func(ctx context.Context, _ ports.Store) error { return fn(ctx, f) })
}

func (f *faultyStore) GetIncome(ctx context.Context, userID, id string) (core.Income, error) {
	in, err := f.Store.GetIncome(ctx, userID, id)
	time.Sleep(f.slowGet)
	return in, err
}

func (f *faultyStore) CreateIncome(ctx context.Context, in core.Income) error {
	if f.failEntryWrite {
		return errInjected
	}
	return f.Store.CreateIncome(ctx, in)
}

func (f *faultyStore) IncrementBalance(ctx context.Context, userID string, delta core.Money) (core.Money, error) {
	if f.failBalance {
		return core.Money{}, errInjected
	}
	if hook := f.beforeIncrement; hook != nil {
		f.beforeIncrement = nil
		hook()
	}
	return f.Store.IncrementBalance(ctx, userID, delta)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []*amqp.LedgerEvent
	err    error
}

func (p *recordingPublisher) PublishLedgerEvent(_ context.Context, ev *amqp.LedgerEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

type fixture struct {
	store     *faultyStore
	ledger    *ledger.Maintainer
	publisher *recordingPublisher
	incomes   *IncomeService
	expenses  *ExpenseService
	goals     *GoalService
	dues      *DueService
	dashboard *DashboardService
	reconcile *ReconcileService
	auth      *AuthService
}

var fixedNow = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := &faultyStore{Store: memory.New()}
	l := ledger.New(store)
	pub := &recordingPublisher{}
	seq := 0
	opts := []Option{
		WithPublisher(pub),
		WithClock(func() time.Time { return fixedNow }, time.UTC),
		WithIDGenerator(func() string { seq++; return fmt.Sprintf("id-%d", seq) }),
	}
	return &fixture{
		store:     store,
		ledger:    l,
		publisher: pub,
		incomes:   NewIncomeService(store, l, opts...),
		expenses:  NewExpenseService(store, l, opts...),
		goals:     NewGoalService(store, opts...),
		dues:      NewDueService(store, opts...),
		dashboard: NewDashboardService(store, l, opts...),
		reconcile: NewReconcileService(store, l, opts...),
		auth:      NewAuthService(store, store, auth.NewJWTManager("secret", time.Hour), opts...),
	}
}

func (f *fixture) balance(t *testing.T, userID string) string {
	t.Helper()
	b, err := f.ledger.Balance(context.Background(), userID)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	return b.String()
}

func TestLedgerScenarioThroughServices(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	salary, err := f.incomes.Create(ctx, core.Income{UserID: "u1", Label: "Salary", Amount: core.MustMoney("1000"), Date: core.NewDate(2025, 3, 1)})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}
	if got := f.balance(t, "u1"); got != "1000.00" {
		t.Fatalf("after salary: %s", got)
	}

	moradia, _ := core.CategoryByName("Moradia")
	rent, err := f.expenses.Create(ctx, core.Expense{UserID: "u1", Label: "Rent", Amount: core.MustMoney("400"), Date: core.NewDate(2025, 3, 5), CategoryID: moradia.ID})
	if err != nil {
		t.Fatalf("create expense: %v", err)
	}
	if got := f.balance(t, "u1"); got != "600.00" {
		t.Fatalf("after rent: %s", got)
	}

	rent.Amount = core.MustMoney("450")
	if _, err := f.expenses.Update(ctx, rent); err != nil {
		t.Fatalf("update expense: %v", err)
	}
	if got := f.balance(t, "u1"); got != "550.00" {
		t.Fatalf("after rent edit: %s", got)
	}

	if err := f.incomes.Delete(ctx, "u1", salary.ID); err != nil {
		t.Fatalf("delete income: %v", err)
	}
	if got := f.balance(t, "u1"); got != "-450.00" {
		t.Fatalf("after salary delete: %s", got)
	}

	if len(f.publisher.events) != 4 {
		t.Fatalf("expected 4 events, got %d", len(f.publisher.events))
	}
	last := f.publisher.events[3]
	if last.Kind != core.KindIncome || last.Op != core.OpDelete || last.Delta.String() != "-1000.00" {
		t.Fatalf("unexpected last event %+v", last)
	}

	d, err := f.dashboard.Build(ctx, "u1", 0, 0)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.Balance.String() != "-450.00" || !d.Drift.IsZero() {
		t.Fatalf("dashboard balance %s drift %s", d.Balance, d.Drift)
	}
}

func TestExpenseEditDeltaIsOldMinusNew(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	e, _ := f.expenses.Create(ctx, core.Expense{UserID: "u1", Label: "Luz", Amount: core.MustMoney("100"), Date: core.NewDate(2025, 3, 1), CategoryID: 7})
	e.Amount = core.MustMoney("70")
	f.expenses.Update(ctx, e)
	if got := f.balance(t, "u1"); got != "-70.00" {
		t.Fatalf("expected -70.00, got %s", got)
	}
	if err := f.expenses.Delete(ctx, "u1", e.ID); err != nil {
		t.Fatal(err)
	}
	if got := f.balance(t, "u1"); got != "0.00" {
		t.Fatalf("expected 0.00, got %s", got)
	}
}

func TestValidationMutatesNothing(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	tests := []struct {
		name string
		run  func() error
		want error
	}{
		{"blank label", func() error {
			_, err := f.incomes.Create(ctx, core.Income{UserID: "u1", Label: " ", Amount: core.MustMoney("1"), Date: core.NewDate(2025, 1, 1)})
			return err
		}, core.ErrEmptyLabel},
		{"zero amount", func() error {
			_, err := f.incomes.Create(ctx, core.Income{UserID: "u1", Label: "x", Amount: core.Zero, Date: core.NewDate(2025, 1, 1)})
			return err
		}, core.ErrInvalidAmount},
		{"unknown category", func() error {
			_, err := f.expenses.Create(ctx, core.Expense{UserID: "u1", Label: "x", Amount: core.MustMoney("1"), Date: core.NewDate(2025, 1, 1), CategoryID: 42})
			return err
		}, core.ErrInvalidCategory},
		{"missing user", func() error {
			_, err := f.incomes.Create(ctx, core.Income{Label: "x", Amount: core.MustMoney("1"), Date: core.NewDate(2025, 1, 1)})
			return err
		}, core.ErrMissingUser},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := tt.run(); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}
	list, _ := f.store.ListIncomes(ctx, "u1")
	if len(list) != 0 || f.balance(t, "u1") != "0.00" || len(f.publisher.events) != 0 {
		t.Fatalf("state mutated: %d incomes, balance %s", len(list), f.balance(t, "u1"))
	}
}

func TestCrossUserUpdateIsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in, _ := f.incomes.Create(ctx, core.Income{UserID: "u1", Label: "x", Amount: core.MustMoney("10"), Date: core.NewDate(2025, 1, 1)})

	in.UserID = "u2"
	in.Amount = core.MustMoney("99")
	if _, err := f.incomes.Update(ctx, in); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if err := f.incomes.Delete(ctx, "u2", in.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if f.balance(t, "u1") != "10.00" || f.balance(t, "u2") != "0.00" {
		t.Fatal("balances changed by a rejected mutation")
	}
}

func TestEntryWriteFailureLeavesBalance(t *testing.T) {
	f := newFixture(t)
	f.store.failEntryWrite = true
	_, err := f.incomes.Create(context.Background(), core.Income{UserID: "u1", Label: "x", Amount: core.MustMoney("10"), Date: core.NewDate(2025, 1, 1)})
	if !errors.Is(err, errInjected) || errors.Is(err, ledger.ErrLedgerDrift) {
		t.Fatalf("expected plain write failure, got %v", err)
	}
	if f.balance(t, "u1") != "0.00" || len(f.publisher.events) != 0 {
		t.Fatal("balance or events changed after failed entry write")
	}
}

func TestBalanceFailureDriftsAndReconciles(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.incomes.Create(ctx, core.Income{UserID: "u1", Label: "a", Amount: core.MustMoney("100"), Date: core.NewDate(2025, 1, 1)})

	f.store.failBalance = true
	in, err := f.incomes.Create(ctx, core.Income{UserID: "u1", Label: "b", Amount: core.MustMoney("50"), Date: core.NewDate(2025, 1, 2)})
	if !errors.Is(err, ledger.ErrLedgerDrift) || !errors.Is(err, errInjected) {
		t.Fatalf("expected ErrLedgerDrift wrapping the cause, got %v", err)
	}
	if in.ID == "" {
		t.Fatal("saved entry should be returned alongside the drift error")
	}
	f.store.failBalance = false

	d, _ := f.dashboard.Build(ctx, "u1", 0, 0)
	if d.Balance.String() != "150.00" || d.CachedBalance.String() != "100.00" || d.Drift.String() != "-50.00" {
		t.Fatalf("dashboard should surface drift: %+v", d)
	}

	rep, err := f.reconcile.User(ctx, "u1", true)
	if err != nil || !rep.Fixed || rep.Drift.String() != "-50.00" {
		t.Fatalf("reconcile: %+v %v", rep, err)
	}
	if f.balance(t, "u1") != "150.00" {
		t.Fatalf("expected fixed balance 150.00, got %s", f.balance(t, "u1"))
	}
}

func TestPublishFailureIsNotFatal(t *testing.T) {
	f := newFixture(t)
	f.publisher.err = errors.New("broker down")
	if _, err := f.incomes.Create(context.Background(), core.Income{UserID: "u1", Label: "x", Amount: core.MustMoney("5"), Date: core.NewDate(2025, 1, 1)}); err != nil {
		t.Fatalf("publish failure should not fail the request: %v", err)
	}
	if f.balance(t, "u1") != "5.00" {
		t.Fatal("balance not updated")
	}
}

func TestRegisterAndLogin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tests := []struct {
		name, uname, email, password string
		want                         error
	}{
		{"missing name", "", "a@example.com", "password1", core.ErrMissingFields},
		{"missing password", "Ana", "a@example.com", "", core.ErrMissingFields},
		{"bad email", "Ana", "not-an-email", "password1", core.ErrInvalidEmail},
		{"short password", "Ana", "a@example.com", "short", core.ErrWeakPassword},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.auth.Register(ctx, tt.uname, tt.email, tt.password); !errors.Is(err, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, err)
			}
		})
	}

	u, err := f.auth.Register(ctx, "Ana", " Ana@Example.com ", "password1")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.Email != "ana@example.com" || u.PasswordHash == "password1" {
		t.Fatalf("unexpected user %+v", u)
	}
	if _, err := f.store.GetBalance(ctx, u.ID); err != nil {
		t.Fatalf("register should create a balance row: %v", err)
	}
	if _, err := f.auth.Register(ctx, "Other", "ana@example.com", "password2"); !errors.Is(err, core.ErrEmailInUse) {
		t.Fatalf("expected ErrEmailInUse, got %v", err)
	}

	if _, _, err := f.auth.Login(ctx, "nobody@example.com", "password1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, _, err := f.auth.Login(ctx, "ana@example.com", "wrong-pass"); !errors.Is(err, core.ErrInvalidPassword) {
		t.Fatalf("expected ErrInvalidPassword, got %v", err)
	}
	if _, _, err := f.auth.Login(ctx, "", ""); !errors.Is(err, core.ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields, got %v", err)
	}
	_, token, err := f.auth.Login(ctx, "ANA@example.com", "password1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	claims, err := f.auth.Authenticate(token)
	if err != nil || claims.UserID != u.ID {
		t.Fatalf("authenticate: %+v %v", claims, err)
	}
	if _, err := f.auth.Authenticate("garbage"); !errors.Is(err, core.ErrUnauthenticated) {
		t.Fatalf("expected ErrUnauthenticated, got %v", err)
	}
}

func TestGoals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	g, err := f.goals.Create(ctx, core.Goal{UserID: "u1", Label: "Viagem", Target: core.MustMoney("100"), TargetDate: core.NewDate(2025, 12, 1)})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	if !g.Current.IsZero() || g.IsCompleted {
		t.Fatalf("new goal should be empty: %+v", g)
	}

	g, _ = f.goals.Accumulate(ctx, "u1", g.ID, core.MustMoney("60"))
	if g.IsCompleted {
		t.Fatal("60 of 100 is not complete")
	}
	g, _ = f.goals.Accumulate(ctx, "u1", g.ID, core.MustMoney("40"))
	if !g.IsCompleted || g.Current.String() != "100.00" {
		t.Fatalf("expected completion at target: %+v", g)
	}
	g, _ = f.goals.ToggleCompleted(ctx, "u1", g.ID)
	if g.IsCompleted || g.Current.String() != "100.00" {
		t.Fatalf("toggle should only flip the flag: %+v", g)
	}
	g, _ = f.goals.Accumulate(ctx, "u1", g.ID, core.MustMoney("-500"))
	if !g.Current.IsZero() || g.IsCompleted {
		t.Fatalf("withdrawal should floor at zero: %+v", g)
	}

	g.Target = core.MustMoney("0.01")
	if _, err := f.goals.Update(ctx, g); err != nil {
		t.Fatal(err)
	}
	if _, err := f.goals.Accumulate(ctx, "u1", g.ID, core.Zero); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := f.goals.ToggleCompleted(ctx, "u2", g.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDueItems(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	mk := func(label string, d core.Date) core.DueItem {
		it, err := f.dues.Create(ctx, core.DueItem{UserID: "u1", Label: label, DueDate: d, Amount: core.MustMoney("10")})
		if err != nil {
			t.Fatalf("create due: %v", err)
		}
		return it
	}
	past := mk("past", core.NewDate(2025, 3, 1))
	mk("later", core.NewDate(2025, 4, 10))
	today := mk("today", core.NewDate(2025, 3, 15))

	if _, err := f.dues.TogglePaid(ctx, "u1", today.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := f.dues.TogglePaid(ctx, "u1", past.ID); err != nil {
		t.Fatal(err)
	}

	upcoming, _ := f.dues.List(ctx, "u1", core.DueUpcoming)
	if len(upcoming) != 1 || upcoming[0].Label != "later" {
		t.Fatalf("unexpected upcoming %+v", upcoming)
	}
	paid, _ := f.dues.List(ctx, "u1", core.DuePaid)
	if len(paid) != 2 || paid[0].Label != "today" {
		t.Fatalf("paid should be newest first: %+v", paid)
	}
	days, _ := f.dues.Calendar(ctx, "u1", 2025, time.March)
	if len(days) != 2 || days[0].Day != 1 || days[1].Day != 15 {
		t.Fatalf("unexpected calendar %+v", days)
	}
}

func TestDashboardAggregates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.incomes.Create(ctx, core.Income{UserID: "u1", Label: "Salário", Amount: core.MustMoney("3000"), Date: core.NewDate(2025, 3, 1)})
	f.expenses.Create(ctx, core.Expense{UserID: "u1", Label: "Mercado", Amount: core.MustMoney("300"), Date: core.NewDate(2025, 3, 2), CategoryID: 1})
	f.expenses.Create(ctx, core.Expense{UserID: "u1", Label: "Aluguel", Amount: core.MustMoney("1200"), Date: core.NewDate(2025, 3, 3), CategoryID: 5})
	f.expenses.Create(ctx, core.Expense{UserID: "u1", Label: "Cinema", Amount: core.MustMoney("50"), Date: core.NewDate(2025, 2, 10), CategoryID: 4})
	for i := 0; i < 8; i++ {
		f.goals.Create(ctx, core.Goal{UserID: "u1", Label: fmt.Sprintf("g%d", i), Target: core.MustMoney("100"), TargetDate: core.NewDate(2025, 12, 1)})
		f.dues.Create(ctx, core.DueItem{UserID: "u1", Label: fmt.Sprintf("d%d", i), DueDate: core.NewDate(2025, 4, i+1), Amount: core.MustMoney("1")})
	}

	d, err := f.dashboard.Build(ctx, "u1", 0, 0)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.Balance.String() != "1450.00" || d.TotalIncome.String() != "3000.00" || d.TotalExpense.String() != "1550.00" {
		t.Fatalf("unexpected totals %+v", d)
	}
	if d.Year != 2025 || d.Month != 3 {
		t.Fatalf("default month should be the current one, got %d-%d", d.Year, d.Month)
	}
	if len(d.ExpensesByCategory) != 2 || d.ExpensesByCategory[0].Name != "Moradia" {
		t.Fatalf("unexpected categories %+v", d.ExpensesByCategory)
	}
	if len(d.MonthlyFlow) != 12 || d.MonthlyFlow[11].Expense.String() != "1500.00" || d.MonthlyFlow[10].Expense.String() != "50.00" {
		t.Fatalf("unexpected monthly flow %+v", d.MonthlyFlow)
	}
	if len(d.Statement) != 4 || d.Statement[0].Label != "Aluguel" {
		t.Fatalf("unexpected statement %+v", d.Statement)
	}
	if len(d.UpcomingDue) != 4 || len(d.Goals) != 6 {
		t.Fatalf("expected 4 dues and 6 goals, got %d and %d", len(d.UpcomingDue), len(d.Goals))
	}

	feb, _ := f.dashboard.Build(ctx, "u1", 2025, time.February)
	if len(feb.ExpensesByCategory) != 1 || feb.ExpensesByCategory[0].Name != "Lazer" {
		t.Fatalf("unexpected february categories %+v", feb.ExpensesByCategory)
	}
}

func TestReconcileAll(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	for _, id := range []string{"u1", "u2"} {
		f.store.CreateUser(ctx, core.User{ID: id, Email: id + "@example.com"})
		f.incomes.Create(ctx, core.Income{UserID: id, Label: "x", Amount: core.MustMoney("10"), Date: core.NewDate(2025, 1, 1)})
	}
	f.store.UpsertBalance(ctx, "u2", core.MustMoney("99"))

	reports, err := f.reconcile.All(ctx, false)
	if err != nil || len(reports) != 2 {
		t.Fatalf("reconcile all: %v %v", reports, err)
	}
	if !reports[0].InSync() || reports[1].InSync() || reports[1].Drift.String() != "89.00" {
		t.Fatalf("unexpected reports %+v", reports)
	}
}

func TestReconcileProcessorLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.CreateUser(ctx, core.User{ID: "u1", Email: "u1@example.com"})
	f.store.UpsertBalance(ctx, "u1", core.MustMoney("5"))

	p := NewReconcileProcessor(f.reconcile, ReconcileProcessorConfig{Interval: time.Hour, Fix: true})
	if err := p.Stop(ctx); err != nil {
		t.Fatalf("stop when idle: %v", err)
	}
	if err := p.Start(ctx); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := p.Start(ctx); err == nil {
		t.Fatal("second start should fail")
	}
	stopCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := p.Stop(stopCtx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	// the first sweep runs before the loop waits on the ticker
	if f.balance(t, "u1") != "0.00" {
		t.Fatalf("expected sweep to fix balance, got %s", f.balance(t, "u1"))
	}
}

func TestReconcileWaitsForInFlightMutation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.store.CreateUser(ctx, core.User{ID: "u1", Email: "u1@example.com"})

	type result struct {
		rep ledger.Report
		err error
	}
	done := make(chan result, 1)
	// the entry is written and the increment not yet applied
	f.store.beforeIncrement = func() {
		started := make(chan struct{})
		go func() {
			close(started)
			rep, err := f.reconcile.User(ctx, "u1", true)
			done <- result{rep, err}
		}()
		<-started
		time.Sleep(20 * time.Millisecond)
	}

	if _, err := f.incomes.Create(ctx, core.Income{UserID: "u1", Label: "Salary", Amount: core.MustMoney("100"), Date: core.NewDate(2025, 1, 1)}); err != nil {
		t.Fatalf("create income: %v", err)
	}
	res := <-done
	if res.err != nil || !res.rep.InSync() || res.rep.Fixed {
		t.Fatalf("reconcile should see the finished mutation: %+v %v", res.rep, res.err)
	}
	if got := f.balance(t, "u1"); got != "100.00" {
		t.Fatalf("expected 100.00, got %s", got)
	}
}

func TestConcurrentIdenticalEditsKeepBalance(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	in, err := f.incomes.Create(ctx, core.Income{UserID: "u1", Label: "Salary", Amount: core.MustMoney("1000"), Date: core.NewDate(2025, 1, 1)})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}

	f.store.slowGet = 10 * time.Millisecond
	edit := in
	edit.Amount = core.MustMoney("1200")
	var wg sync.WaitGroup
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := f.incomes.Update(ctx, edit); err != nil {
				t.Errorf("update: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := f.balance(t, "u1"); got != "1200.00" {
		t.Fatalf("double submission should apply one delta, got %s", got)
	}
	rep, err := f.reconcile.User(ctx, "u1", false)
	if err != nil || !rep.InSync() {
		t.Fatalf("expected cache in sync with entries: %+v %v", rep, err)
	}
}

func TestReconcileThroughSeparateCacheSeesOtherWriters(t *testing.T) {
	ctx := context.Background()
	backing := memory.New()
	backing.CreateUser(ctx, core.User{ID: "u1", Email: "u1@example.com"})

	// the HTTP process and the worker each wrap the backend in their own cache
	serveStore := cache.NewStore(backing, 16, time.Hour, nil)
	workerStore := cache.NewStore(backing, 16, time.Hour, nil)
	serveLedger := ledger.New(serveStore)
	incomes := NewIncomeService(serveStore, serveLedger)
	expenses := NewExpenseService(serveStore, serveLedger)
	worker := NewReconcileService(workerStore, ledger.New(workerStore))

	if _, err := incomes.Create(ctx, core.Income{UserID: "u1", Label: "Salary", Amount: core.MustMoney("100"), Date: core.NewDate(2025, 1, 1)}); err != nil {
		t.Fatalf("create income: %v", err)
	}
	if rep, err := worker.User(ctx, "u1", true); err != nil || !rep.InSync() {
		t.Fatalf("first reconcile: %+v %v", rep, err)
	}
	// the worker's cache now holds an empty expense list
	if list, _ := workerStore.ListExpenses(ctx, "u1"); len(list) != 0 {
		t.Fatalf("expected no expenses, got %d", len(list))
	}

	if _, err := expenses.Create(ctx, core.Expense{UserID: "u1", Label: "Luz", Amount: core.MustMoney("30"), Date: core.NewDate(2025, 1, 2), CategoryID: 7}); err != nil {
		t.Fatalf("create expense: %v", err)
	}
	rep, err := worker.User(ctx, "u1", true)
	if err != nil || !rep.InSync() || rep.Fixed {
		t.Fatalf("second reconcile should be in sync: %+v %v", rep, err)
	}
	b, _ := backing.GetBalance(ctx, "u1")
	if b.Total.String() != "70.00" {
		t.Fatalf("expected 70.00, got %s", b.Total)
	}
}

func TestEmptyDashboardEncodesArrays(t *testing.T) {
	f := newFixture(t)
	d, err := f.dashboard.Build(context.Background(), "u1", 0, 0)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"expenses_by_category", "monthly_flow", "statement", "upcoming_due", "goals"} {
		if _, ok := decoded[key].([]any); !ok {
			t.Errorf("%s encoded as %v, want an array", key, decoded[key])
		}
	}
}
