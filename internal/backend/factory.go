package backend

import (
	"context"
	"fmt"

	"budgetbuddy/internal/cache"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/ports"
	"budgetbuddy/internal/storage"
	"budgetbuddy/internal/storage/memory"
	"budgetbuddy/internal/storage/mongo"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct{}

// NewFactory creates a new backend factory
func NewFactory() Factory {
	return &DefaultFactory{}
}

// CreateBackend opens the configured store and, when CacheSize is positive,
// wraps it in a cache.Store.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	logger := config.Logger
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentBackend)

	var (
		store ports.Store
		err   error
	)
	switch config.Type {
	case SQLiteBackend:
		store, err = storage.NewSQLiteRepository(config.SQLiteDBPath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
		}
		logger.Info("Initialized SQLite backend", "db_path", config.SQLiteDBPath)
	case MongoBackend:
		store, err = mongo.Connect(ctx, config.MongoURI, config.MongoDatabase)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize MongoDB store: %w", err)
		}
		logger.Info("Initialized MongoDB backend", "database", config.MongoDatabase)
	case MemoryBackend:
		store = memory.New()
		logger.Warn("Initialized memory backend, data is lost on exit")
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	result := &BackendResult{Store: store, Direct: store, Cleanup: store.Close}
	if config.CacheSize > 0 {
		result.Cache = cache.NewStore(store, config.CacheSize, config.CacheTTL, config.Metrics)
		result.Store = result.Cache
		logger.Info("Repository cache enabled", "size", config.CacheSize, "ttl", config.CacheTTL)
	}
	return result, nil
}
