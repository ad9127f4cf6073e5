// Package ledger maintains the cached per-user balance.
//
// After every create, edit or delete of an income or expense the services
// call Apply with the stored amounts; the maintainer turns that into a
// signed delta (see core.Delta) and adds it to the cached total without
// re-summing the user's entries. In atomic mode the services run the entry
// write and Apply in one store unit of work (ports.Transactor), bound with
// Bind; Reconcile is meant to run in such a unit too.
package ledger

import (
	"context"
	"errors"
	"fmt"

	"budgetbuddy/internal/core"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/metrics"
	"budgetbuddy/internal/ports"
)

// Mode selects how a delta reaches the store.
type Mode string

const (
	// ModeAtomic increments the stored total in a single store operation.
	ModeAtomic Mode = "atomic"
	// ModeNaive reads the total, adds the delta and upserts the result.
	// Concurrent updates for the same user can lose one of the deltas.
	ModeNaive Mode = "naive"
)

// ParseMode maps a configuration value to a Mode; empty means ModeAtomic.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeAtomic:
		return ModeAtomic, nil
	case ModeNaive:
		return ModeNaive, nil
	}
	return "", fmt.Errorf("unknown ledger mode %q", s)
}

// ErrLedgerDrift wraps a balance failure that happened after the entry
// write was committed. The cached total no longer matches the entries
// until Reconcile is run.
var ErrLedgerDrift = errors.New("entry saved but balance not updated")

// Store is the balance persistence the maintainer needs.
type Store interface {
	ports.BalanceStore
}

type Maintainer struct {
	store   Store
	inc     ports.BalanceIncrementer
	mode    Mode
	logger  *log.Logger
	metrics *metrics.Metrics
}

type Option func(*Maintainer)

func WithMode(mode Mode) Option {
	return func(m *Maintainer) { m.mode = mode }
}

func WithLogger(l *log.Logger) Option {
	return func(m *Maintainer) { m.logger = l.WithComponent(log.ComponentLedger) }
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Maintainer) { m.metrics = mt }
}

// New creates a maintainer over store. Atomic mode requires the store to
// implement ports.BalanceIncrementer; otherwise the maintainer falls back
// to naive mode.
func New(store Store, opts ...Option) *Maintainer {
	m := &Maintainer{
		store:  store,
		mode:   ModeAtomic,
		logger: log.Discard(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if inc, ok := store.(ports.BalanceIncrementer); ok {
		m.inc = inc
	}
	if m.mode == ModeAtomic && m.inc == nil {
		m.logger.Warn("store has no atomic increment, falling back to naive ledger mode")
		m.mode = ModeNaive
	}
	return m
}

// Bind returns a maintainer with the same settings over store, usually the
// view of an open unit of work.
func (m *Maintainer) Bind(store Store) *Maintainer {
	b := *m
	b.store = store
	b.inc, _ = store.(ports.BalanceIncrementer)
	if b.mode == ModeAtomic && b.inc == nil {
		b.mode = ModeNaive
	}
	return &b
}

// Mode reports the effective mode.
func (m *Maintainer) Mode() Mode { return m.mode }

// Balance returns the cached total, zero when the user has no balance row.
func (m *Maintainer) Balance(ctx context.Context, userID string) (core.Money, error) {
	b, err := m.store.GetBalance(ctx, userID)
	if errors.Is(err, core.ErrNotFound) {
		return core.Zero, nil
	}
	if err != nil {
		return core.Zero, fmt.Errorf("read balance: %w", err)
	}
	return b.Total, nil
}

// Apply adjusts the balance for one entry mutation. before is the amount
// stored prior to the mutation (ignored on create); after is the amount
// stored by it (ignored on delete).
func (m *Maintainer) Apply(ctx context.Context, userID string, kind core.EntryKind, op core.Op, before, after core.Money) (core.Money, error) {
	return m.ApplyDelta(ctx, userID, core.Delta(kind, op, before, after))
}

// ApplyDelta adds delta to the user's cached total and returns the new
// total. A missing balance row counts as zero. A zero delta writes nothing.
func (m *Maintainer) ApplyDelta(ctx context.Context, userID string, delta core.Money) (core.Money, error) {
	if userID == "" {
		return core.Zero, core.ErrMissingUser
	}
	if delta.IsZero() {
		return m.Balance(ctx, userID)
	}

	var (
		total core.Money
		err   error
	)
	if m.mode == ModeAtomic {
		total, err = m.inc.IncrementBalance(ctx, userID, delta)
		if err != nil {
			err = fmt.Errorf("increment balance: %w", err)
		}
	} else {
		total, err = m.readModifyWrite(ctx, userID, delta)
	}
	m.metrics.LedgerDelta(string(m.mode), err)
	if err != nil {
		m.logger.ErrorContext(ctx, "Balance update failed",
			log.FieldUserID, userID,
			log.FieldDelta, delta.String(),
			log.FieldLedgerMode, string(m.mode),
			log.FieldError, err.Error())
		return core.Zero, err
	}

	m.logger.DebugContext(ctx, "Balance updated",
		log.FieldUserID, userID,
		log.FieldDelta, delta.String(),
		log.FieldBalance, total.String(),
		log.FieldLedgerMode, string(m.mode))
	return total, nil
}

func (m *Maintainer) readModifyWrite(ctx context.Context, userID string, delta core.Money) (core.Money, error) {
	current, err := m.Balance(ctx, userID)
	if err != nil {
		return core.Zero, err
	}
	total := current.Add(delta)
	if err := m.store.UpsertBalance(ctx, userID, total); err != nil {
		return core.Zero, fmt.Errorf("upsert balance: %w", err)
	}
	return total, nil
}
