// Package memory is an in-process implementation of ports.Store, used for
// local runs with BACKEND=memory and as the fixture backend in tests.
package memory

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/ports"
)

var _ ports.Store = (*Store)(nil)

// table keeps rows per owner, preserving insertion order.
type table[T any] struct {
	rows  map[string]map[string]T
	order map[string][]string
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: map[string]map[string]T{}, order: map[string][]string{}}
}

func (t *table[T]) list(owner string) []T {
	out := make([]T, 0, len(t.order[owner]))
	for _, id := range t.order[owner] {
		out = append(out, t.rows[owner][id])
	}
	return out
}

func (t *table[T]) get(owner, id string) (T, bool) {
	v, ok := t.rows[owner][id]
	return v, ok
}

func (t *table[T]) put(owner, id string, v T) {
	if t.rows[owner] == nil {
		t.rows[owner] = map[string]T{}
	}
	if _, exists := t.rows[owner][id]; !exists {
		t.order[owner] = append(t.order[owner], id)
	}
	t.rows[owner][id] = v
}

func (t *table[T]) replace(owner, id string, v T) bool {
	if _, ok := t.rows[owner][id]; !ok {
		return false
	}
	t.rows[owner][id] = v
	return true
}

func (t *table[T]) remove(owner, id string) bool {
	if _, ok := t.rows[owner][id]; !ok {
		return false
	}
	delete(t.rows[owner], id)
	t.order[owner] = slices.DeleteFunc(t.order[owner], func(s string) bool { return s == id })
	return true
}

type Store struct {
	txMu     sync.Mutex
	mu       sync.Mutex
	users    map[string]core.User
	byEmail  map[string]string
	incomes  *table[core.Income]
	expenses *table[core.Expense]
	goals    *table[core.Goal]
	dues     *table[core.DueItem]
	balances map[string]core.Balance
}

func New() *Store {
	return &Store{
		users:    map[string]core.User{},
		byEmail:  map[string]string{},
		incomes:  newTable[core.Income](),
		expenses: newTable[core.Expense](),
		goals:    newTable[core.Goal](),
		dues:     newTable[core.DueItem](),
		balances: map[string]core.Balance{},
	}
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// InTx runs fn while holding the store's unit-of-work lock, so units never
// interleave. Writes made before fn fails are kept; there is no rollback.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx, txView{s})
}

// txView is the store as seen inside InTx; nested units run inline.
type txView struct{ *Store }

func (v txView) InTx(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	return fn(ctx, v)
}

func (s *Store) CreateUser(_ context.Context, u core.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.byEmail[u.Email]; taken {
		return core.ErrEmailInUse
	}
	s.users[u.ID] = u
	s.byEmail[u.Email] = u.ID
	return nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byEmail[email]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return s.users[id], nil
}

func (s *Store) GetUserByID(_ context.Context, id string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, core.ErrNotFound
	}
	return u, nil
}

// newestFirst orders by date descending, later insertions first on ties.
func newestFirst[T any](rows []T, date func(T) core.Date) []T {
	slices.Reverse(rows)
	slices.SortStableFunc(rows, func(a, b T) int { return date(b).Compare(date(a).Time) })
	return rows
}

func (s *Store) ListIncomes(_ context.Context, userID string) ([]core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newestFirst(s.incomes.list(userID), func(i core.Income) core.Date { return i.Date }), nil
}

func (s *Store) GetIncome(_ context.Context, userID, id string) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.incomes.get(userID, id)
	if !ok {
		return core.Income{}, core.ErrNotFound
	}
	return in, nil
}

func (s *Store) CreateIncome(_ context.Context, in core.Income) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.incomes.put(in.UserID, in.ID, in)
	return nil
}

func (s *Store) UpdateIncome(_ context.Context, in core.Income) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.incomes.replace(in.UserID, in.ID, in) {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteIncome(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.incomes.remove(userID, id) {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) ListExpenses(_ context.Context, userID string) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return newestFirst(s.expenses.list(userID), func(e core.Expense) core.Date { return e.Date }), nil
}

func (s *Store) GetExpense(_ context.Context, userID, id string) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses.get(userID, id)
	if !ok {
		return core.Expense{}, core.ErrNotFound
	}
	return e, nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.expenses.put(e.UserID, e.ID, e)
	return nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.expenses.replace(e.UserID, e.ID, e) {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteExpense(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.expenses.remove(userID, id) {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) ListGoals(_ context.Context, userID string) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	goals := s.goals.list(userID)
	slices.SortStableFunc(goals, func(a, b core.Goal) int { return a.TargetDate.Compare(b.TargetDate.Time) })
	return goals, nil
}

func (s *Store) GetGoal(_ context.Context, userID, id string) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.goals.get(userID, id)
	if !ok {
		return core.Goal{}, core.ErrNotFound
	}
	return g, nil
}

func (s *Store) CreateGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.goals.put(g.UserID, g.ID, g)
	return nil
}

func (s *Store) UpdateGoal(_ context.Context, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.goals.replace(g.UserID, g.ID, g) {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteGoal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.goals.remove(userID, id) {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) ListDueItems(_ context.Context, userID string) ([]core.DueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	items := s.dues.list(userID)
	slices.SortStableFunc(items, func(a, b core.DueItem) int { return a.DueDate.Compare(b.DueDate.Time) })
	return items, nil
}

func (s *Store) GetDueItem(_ context.Context, userID, id string) (core.DueItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.dues.get(userID, id)
	if !ok {
		return core.DueItem{}, core.ErrNotFound
	}
	return d, nil
}

func (s *Store) CreateDueItem(_ context.Context, d core.DueItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dues.put(d.UserID, d.ID, d)
	return nil
}

func (s *Store) UpdateDueItem(_ context.Context, d core.DueItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dues.replace(d.UserID, d.ID, d) {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteDueItem(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dues.remove(userID, id) {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) GetBalance(_ context.Context, userID string) (core.Balance, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.balances[userID]
	if !ok {
		return core.Balance{}, core.ErrNotFound
	}
	return b, nil
}

func (s *Store) UpsertBalance(_ context.Context, userID string, total core.Money) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.balances[userID] = core.Balance{UserID: userID, Total: total, UpdatedAt: time.Now().UTC()}
	return nil
}

func (s *Store) IncrementBalance(_ context.Context, userID string, delta core.Money) (core.Money, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b := s.balances[userID]
	b.UserID = userID
	b.Total = b.Total.Add(delta)
	b.UpdatedAt = time.Now().UTC()
	s.balances[userID] = b
	return b.Total, nil
}

func (s *Store) ListUserIDs(context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.users))
	for id := range s.users {
		ids = append(ids, id)
	}
	slices.SortFunc(ids, cmp.Compare[string])
	return ids, nil
}
