// Package services orchestrates the repositories, the balance ledger and
// the event publisher for each area of the application.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/core"
	"budgetbuddy/internal/ledger"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/metrics"
	"budgetbuddy/internal/ports"
)

// EventPublisher sends ledger events. *amqp.Client implements it.
type EventPublisher interface {
	PublishLedgerEvent(ctx context.Context, ev *amqp.LedgerEvent) error
}

type options struct {
	publisher EventPublisher
	logger    *log.Logger
	metrics   *metrics.Metrics
	clock     func() time.Time
	location  *time.Location
	newID     func() string
}

type Option func(*options)

// WithPublisher enables ledger events. A nil publisher disables them.
func WithPublisher(p EventPublisher) Option {
	return func(o *options) { o.publisher = p }
}

func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.logger = l }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithClock fixes "now" and the zone used to derive today's date.
func WithClock(now func() time.Time, loc *time.Location) Option {
	return func(o *options) {
		o.clock = now
		if loc != nil {
			o.location = loc
		}
	}
}

// WithIDGenerator replaces the UUID generator.
func WithIDGenerator(f func() string) Option {
	return func(o *options) { o.newID = f }
}

func buildOptions(component string, opts []Option) options {
	o := options{
		logger:   log.Discard(),
		clock:    time.Now,
		location: time.Local,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(&o)
	}
	o.logger = o.logger.WithComponent(component)
	return o
}

func (o options) today() core.Date {
	return core.Today(o.clock(), o.location)
}

// ledgerSync runs an entry mutation together with its balance side effect
// and announces it.
type ledgerSync struct {
	ledger *ledger.Maintainer
	store  ports.Store
	options
}

// entryWrite performs the entry write on tx and reports the amount stored
// before it (zero on create) and after it (zero on delete).
type entryWrite func(ctx context.Context, tx ports.Store) (before, after core.Money, err error)

// mutate runs write followed by the matching ledger delta. In atomic mode
// both run in one unit of work, so a reconcile or a concurrent edit of the
// same entry sees both or neither. Naive mode keeps the two steps apart.
// A balance failure keeps the entry and is returned wrapped in
// ledger.ErrLedgerDrift.
func (s ledgerSync) mutate(ctx context.Context, userID, entryID string, kind core.EntryKind, op core.Op, write entryWrite) error {
	var (
		delta      core.Money
		balanceErr error
	)
	run := func(ctx context.Context, tx ports.Store) error {
		before, after, err := write(ctx, tx)
		if err != nil {
			return err
		}
		delta = core.Delta(kind, op, before, after)
		_, balanceErr = s.ledger.Bind(tx).Apply(ctx, userID, kind, op, before, after)
		return nil
	}

	var err error
	if s.ledger.Mode() == ledger.ModeAtomic {
		err = s.store.InTx(ctx, run)
	} else {
		err = run(ctx, s.store)
	}
	if err != nil {
		return err
	}

	if balanceErr != nil {
		fields := log.NewFields().WithEntry(userID, entryID, string(kind)).WithOperation(string(op))
		fields[log.FieldDelta] = delta.String()
		log.NewStructuredLogger(s.logger).LogError(ctx, "Entry saved but balance not updated", balanceErr, log.ErrorTypeLedger, fields)
		return fmt.Errorf("%w: %w", ledger.ErrLedgerDrift, balanceErr)
	}
	if delta.IsZero() {
		return nil
	}
	s.publish(ctx, amqp.NewLedgerEvent(userID, entryID, kind, op, delta))
	return nil
}

// publish never fails the request; the event is only a hint for the worker.
func (s ledgerSync) publish(ctx context.Context, ev *amqp.LedgerEvent) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.PublishLedgerEvent(ctx, ev)
	s.metrics.EventPublished(err)
	if err != nil {
		s.logger.WarnContext(ctx, "Failed to publish ledger event",
			log.FieldUserID, ev.UserID,
			log.FieldEntryID, ev.EntryID,
			log.FieldError, err)
	}
}
