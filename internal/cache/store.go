package cache

import (
	"context"
	"sync"
	"time"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/metrics"
	"budgetbuddy/internal/ports"
)

var _ ports.Store = (*Store)(nil)

// Store memoizes the per-user entry lists of an underlying ports.Store.
// Any write for a user drops that user's cached lists. Balances are never
// cached; they always come from the underlying store.
//
// A list loaded while a write for the same user was in flight is returned
// to its caller but not cached: every invalidation bumps a per-user
// generation, and a load only fills the cache when the generation it
// started under is still current.
type Store struct {
	ports.Store
	incomes  *LRUCache[[]core.Income]
	expenses *LRUCache[[]core.Expense]
	goals    *LRUCache[[]core.Goal]
	dues     *LRUCache[[]core.DueItem]
	metrics  *metrics.Metrics

	mu   sync.Mutex
	gens map[string]uint64
}

func NewStore(next ports.Store, size int, ttl time.Duration, m *metrics.Metrics) *Store {
	return &Store{
		Store:    next,
		incomes:  NewLRUCache[[]core.Income](size, ttl),
		expenses: NewLRUCache[[]core.Expense](size, ttl),
		goals:    NewLRUCache[[]core.Goal](size, ttl),
		dues:     NewLRUCache[[]core.DueItem](size, ttl),
		metrics:  m,
		gens:     map[string]uint64{},
	}
}

// Caches returns the underlying caches for registration with a Manager.
func (s *Store) Caches() []Cleaner {
	return []Cleaner{s.incomes, s.expenses, s.goals, s.dues}
}

// Invalidate drops everything cached for userID, including lists still
// being loaded.
func (s *Store) Invalidate(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.gens[userID]++
	s.incomes.Delete(userID)
	s.expenses.Delete(userID)
	s.goals.Delete(userID)
	s.dues.Delete(userID)
}

func (s *Store) generation(userID string) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gens[userID]
}

func cachedList[T any](s *Store, c *LRUCache[[]T], name, userID string, load func() ([]T, error)) ([]T, error) {
	if v, ok := c.Get(userID); ok {
		s.metrics.CacheLookup(name, true)
		return clone(v), nil
	}
	s.metrics.CacheLookup(name, false)

	gen := s.generation(userID)
	v, err := load()
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	if s.gens[userID] == gen {
		c.Set(userID, clone(v))
	}
	s.mu.Unlock()
	return v, nil
}

func clone[T any](v []T) []T {
	if v == nil {
		return nil
	}
	return append(make([]T, 0, len(v)), v...)
}

// InTx runs fn in a unit of work of the underlying store. Reads inside fn
// bypass the cache, so they see what the unit sees. Users written by fn
// are invalidated once the unit ends.
func (s *Store) InTx(ctx context.Context, fn func(ctx context.Context, tx ports.Store) error) error {
	dirty := map[string]struct{}{}
	defer func() {
		for userID := range dirty {
			s.Invalidate(userID)
		}
	}()
	return s.Store.InTx(ctx, func(ctx context.Context, tx ports.Store) error {
		return fn(ctx, &txStore{Store: tx, dirty: dirty})
	})
}

func (s *Store) ListIncomes(ctx context.Context, userID string) ([]core.Income, error) {
	return cachedList(s, s.incomes, "incomes", userID, func() ([]core.Income, error) {
		return s.Store.ListIncomes(ctx, userID)
	})
}

func (s *Store) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	return cachedList(s, s.expenses, "expenses", userID, func() ([]core.Expense, error) {
		return s.Store.ListExpenses(ctx, userID)
	})
}

func (s *Store) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	return cachedList(s, s.goals, "goals", userID, func() ([]core.Goal, error) {
		return s.Store.ListGoals(ctx, userID)
	})
}

func (s *Store) ListDueItems(ctx context.Context, userID string) ([]core.DueItem, error) {
	return cachedList(s, s.dues, "dues", userID, func() ([]core.DueItem, error) {
		return s.Store.ListDueItems(ctx, userID)
	})
}

func (s *Store) CreateIncome(ctx context.Context, in core.Income) error {
	defer s.Invalidate(in.UserID)
	return s.Store.CreateIncome(ctx, in)
}

func (s *Store) UpdateIncome(ctx context.Context, in core.Income) error {
	defer s.Invalidate(in.UserID)
	return s.Store.UpdateIncome(ctx, in)
}

func (s *Store) DeleteIncome(ctx context.Context, userID, id string) error {
	defer s.Invalidate(userID)
	return s.Store.DeleteIncome(ctx, userID, id)
}

func (s *Store) CreateExpense(ctx context.Context, e core.Expense) error {
	defer s.Invalidate(e.UserID)
	return s.Store.CreateExpense(ctx, e)
}

func (s *Store) UpdateExpense(ctx context.Context, e core.Expense) error {
	defer s.Invalidate(e.UserID)
	return s.Store.UpdateExpense(ctx, e)
}

func (s *Store) DeleteExpense(ctx context.Context, userID, id string) error {
	defer s.Invalidate(userID)
	return s.Store.DeleteExpense(ctx, userID, id)
}

func (s *Store) CreateGoal(ctx context.Context, g core.Goal) error {
	defer s.Invalidate(g.UserID)
	return s.Store.CreateGoal(ctx, g)
}

func (s *Store) UpdateGoal(ctx context.Context, g core.Goal) error {
	defer s.Invalidate(g.UserID)
	return s.Store.UpdateGoal(ctx, g)
}

func (s *Store) DeleteGoal(ctx context.Context, userID, id string) error {
	defer s.Invalidate(userID)
	return s.Store.DeleteGoal(ctx, userID, id)
}

func (s *Store) CreateDueItem(ctx context.Context, d core.DueItem) error {
	defer s.Invalidate(d.UserID)
	return s.Store.CreateDueItem(ctx, d)
}

func (s *Store) UpdateDueItem(ctx context.Context, d core.DueItem) error {
	defer s.Invalidate(d.UserID)
	return s.Store.UpdateDueItem(ctx, d)
}

func (s *Store) DeleteDueItem(ctx context.Context, userID, id string) error {
	defer s.Invalidate(userID)
	return s.Store.DeleteDueItem(ctx, userID, id)
}

// txStore is the uncached view handed to InTx callbacks. It only records
// which users were written.
type txStore struct {
	ports.Store
	dirty map[string]struct{}
}

func (t *txStore) touch(userID string) { t.dirty[userID] = struct{}{} }

func (t *txStore) CreateIncome(ctx context.Context, in core.Income) error {
	t.touch(in.UserID)
	return t.Store.CreateIncome(ctx, in)
}

func (t *txStore) UpdateIncome(ctx context.Context, in core.Income) error {
	t.touch(in.UserID)
	return t.Store.UpdateIncome(ctx, in)
}

func (t *txStore) DeleteIncome(ctx context.Context, userID, id string) error {
	t.touch(userID)
	return t.Store.DeleteIncome(ctx, userID, id)
}

func (t *txStore) CreateExpense(ctx context.Context, e core.Expense) error {
	t.touch(e.UserID)
	return t.Store.CreateExpense(ctx, e)
}

func (t *txStore) UpdateExpense(ctx context.Context, e core.Expense) error {
	t.touch(e.UserID)
	return t.Store.UpdateExpense(ctx, e)
}

func (t *txStore) DeleteExpense(ctx context.Context, userID, id string) error {
	t.touch(userID)
	return t.Store.DeleteExpense(ctx, userID, id)
}

func (t *txStore) CreateGoal(ctx context.Context, g core.Goal) error {
	t.touch(g.UserID)
	return t.Store.CreateGoal(ctx, g)
}

func (t *txStore) UpdateGoal(ctx context.Context, g core.Goal) error {
	t.touch(g.UserID)
	return t.Store.UpdateGoal(ctx, g)
}

func (t *txStore) DeleteGoal(ctx context.Context, userID, id string) error {
	t.touch(userID)
	return t.Store.DeleteGoal(ctx, userID, id)
}

func (t *txStore) CreateDueItem(ctx context.Context, d core.DueItem) error {
	t.touch(d.UserID)
	return t.Store.CreateDueItem(ctx, d)
}

func (t *txStore) UpdateDueItem(ctx context.Context, d core.DueItem) error {
	t.touch(d.UserID)
	return t.Store.UpdateDueItem(ctx, d)
}

func (t *txStore) DeleteDueItem(ctx context.Context, userID, id string) error {
	t.touch(userID)
	return t.Store.DeleteDueItem(ctx, userID, id)
}
