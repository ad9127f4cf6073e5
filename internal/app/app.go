// Package app assembles the storage backend, the balance ledger, the
// event publisher and the services from configuration. Every command of
// the CLI starts from an App.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"budgetbuddy/internal/amqp"
	"budgetbuddy/internal/auth"
	"budgetbuddy/internal/backend"
	"budgetbuddy/internal/cache"
	"budgetbuddy/internal/config"
	apphttp "budgetbuddy/internal/http"
	"budgetbuddy/internal/ledger"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/metrics"
	"budgetbuddy/internal/ports"
	"budgetbuddy/internal/services"
)

type App struct {
	Config  *config.Config
	Logger  *log.Logger
	Metrics *metrics.Metrics
	Store   ports.Store
	Ledger  *ledger.Maintainer
	// Events is nil when AMQP is not configured.
	Events   *amqp.Client
	Services apphttp.Services

	caches  *cache.Manager
	cleanup backend.CleanupFunc
}

// NewLogger builds the process logger from the logging settings.
func NewLogger(cfg *config.Config, w io.Writer) *log.Logger {
	return log.New(log.Config{
		Level:     log.ParseLevel(cfg.LogLevel),
		Format:    log.Format(cfg.LogFormat),
		Component: log.ComponentApp,
		Output:    w,
	})
}

// New connects the backend and builds every service. Callers must Close
// the returned App.
func New(ctx context.Context, cfg *config.Config, logger *log.Logger) (*App, error) {
	if logger == nil {
		logger = log.Discard()
	}
	mode, err := ledger.ParseMode(cfg.LedgerMode)
	if err != nil {
		return nil, err
	}

	m := metrics.New()
	backendCfg, err := backend.FromAppConfig(cfg, logger, m)
	if err != nil {
		return nil, fmt.Errorf("backend config: %w", err)
	}
	result, err := backend.NewFactory().CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, fmt.Errorf("create backend: %w", err)
	}

	a := &App{
		Config:  cfg,
		Logger:  logger,
		Metrics: m,
		Store:   result.Store,
		cleanup: result.Cleanup,
		caches:  cache.NewManager(logger),
	}
	if result.Cache != nil {
		for _, c := range result.Cache.Caches() {
			a.caches.Register(c)
		}
	}

	opts := []services.Option{services.WithLogger(logger), services.WithMetrics(m)}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("connect AMQP: %w", err)
		}
		a.Events = client
		opts = append(opts, services.WithPublisher(client))
	} else {
		logger.InfoContext(ctx, "AMQP disabled - no AMQP_URL provided")
	}

	a.Ledger = ledger.New(a.Store, ledger.WithMode(mode), ledger.WithLogger(logger), ledger.WithMetrics(m))
	store := a.Store
	a.Services = apphttp.Services{
		Auth:      services.NewAuthService(store, store, auth.NewJWTManager(cfg.JWTSecret, cfg.JWTTTL), opts...),
		Incomes:   services.NewIncomeService(store, a.Ledger, opts...),
		Expenses:  services.NewExpenseService(store, a.Ledger, opts...),
		Goals:     services.NewGoalService(store, opts...),
		Dues:      services.NewDueService(store, opts...),
		Dashboard: services.NewDashboardService(store, a.Ledger, opts...),
		Reconcile: services.NewReconcileService(result.Direct, a.Ledger, opts...),
		Ledger:    a.Ledger,
		Ready:     store.Ping,
	}

	logger.InfoContext(ctx, "Application initialized",
		"backend", cfg.Backend,
		"ledger_mode", string(a.Ledger.Mode()),
		"events", a.Events != nil)
	return a, nil
}

// StartCacheSweeper evicts expired repository cache entries every CacheTTL.
func (a *App) StartCacheSweeper(ctx context.Context) {
	interval := a.Config.CacheTTL
	if interval < time.Second {
		interval = time.Minute
	}
	a.caches.StartCleanup(ctx, interval)
}

// ReconcileProcessor builds the periodic sweep configured by
// RECONCILE_INTERVAL and RECONCILE_FIX.
func (a *App) ReconcileProcessor() *services.ReconcileProcessor {
	return services.NewReconcileProcessor(a.Services.Reconcile, services.ReconcileProcessorConfig{
		Interval: a.Config.ReconcileInterval,
		Fix:      a.Config.ReconcileFix,
	})
}

// Close releases the event client and the backend, reporting every failure.
func (a *App) Close() error {
	a.caches.Stop()
	var errs []error
	if a.Events != nil {
		if err := a.Events.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close AMQP: %w", err))
		}
	}
	if a.cleanup != nil {
		if err := a.cleanup(); err != nil {
			errs = append(errs, fmt.Errorf("close backend: %w", err))
		}
	}
	return errors.Join(errs...)
}
