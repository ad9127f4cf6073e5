package services

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// ReconcileProcessorConfig tunes the periodic ledger sweep.
type ReconcileProcessorConfig struct {
	// Interval between sweeps over all users (default: 1h).
	Interval time.Duration

	// Fix overwrites drifting caches with the entry total.
	Fix bool
}

func DefaultReconcileProcessorConfig() ReconcileProcessorConfig {
	return ReconcileProcessorConfig{Interval: time.Hour, Fix: true}
}

// ReconcileProcessor runs ReconcileService.All on a ticker.
type ReconcileProcessor struct {
	reconciler *ReconcileService
	config     ReconcileProcessorConfig

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}
}

func NewReconcileProcessor(reconciler *ReconcileService, config ReconcileProcessorConfig) *ReconcileProcessor {
	if config.Interval <= 0 {
		config.Interval = DefaultReconcileProcessorConfig().Interval
	}
	return &ReconcileProcessor{reconciler: reconciler, config: config}
}

// Start begins the sweep loop. It fails if the processor is already running.
func (p *ReconcileProcessor) Start(ctx context.Context) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return fmt.Errorf("reconcile processor is already running")
	}
	p.running = true
	p.stopCh = make(chan struct{})
	p.doneCh = make(chan struct{})

	go p.runLoop(ctx, p.stopCh, p.doneCh)

	p.reconciler.logger.InfoContext(ctx, "Reconcile processor started",
		"interval", p.config.Interval, "fix", p.config.Fix)
	return nil
}

// Stop signals the loop and waits for the current sweep to finish.
func (p *ReconcileProcessor) Stop(ctx context.Context) error {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return nil
	}
	stopCh, doneCh := p.stopCh, p.doneCh
	p.running = false
	p.mu.Unlock()

	close(stopCh)
	select {
	case <-doneCh:
		p.reconciler.logger.InfoContext(ctx, "Reconcile processor stopped")
		return nil
	case <-ctx.Done():
		p.reconciler.logger.WarnContext(ctx, "Reconcile processor stop timed out")
		return ctx.Err()
	}
}

func (p *ReconcileProcessor) runLoop(ctx context.Context, stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	ticker := time.NewTicker(p.config.Interval)
	defer ticker.Stop()

	p.sweep(ctx)
	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			p.sweep(ctx)
		}
	}
}

func (p *ReconcileProcessor) sweep(ctx context.Context) {
	reports, err := p.reconciler.All(ctx, p.config.Fix)
	if err != nil {
		p.reconciler.logger.ErrorContext(ctx, "Reconcile sweep failed", "error", err)
	}
	drifting := 0
	for _, r := range reports {
		if !r.InSync() {
			drifting++
		}
	}
	p.reconciler.logger.DebugContext(ctx, "Reconcile sweep done", "users", len(reports), "drifting", drifting)
}
