package backend

import (
	"fmt"

	"budgetbuddy/internal/config"
	"budgetbuddy/internal/log"
	"budgetbuddy/internal/metrics"
)

// FromAppConfig converts the application config to backend config
func FromAppConfig(appConfig *config.Config, logger *log.Logger, m *metrics.Metrics) (Config, error) {
	if appConfig == nil {
		return Config{}, fmt.Errorf("app config is nil")
	}

	backendType := BackendType(appConfig.Backend)
	if !backendType.IsValid() {
		return Config{}, fmt.Errorf("invalid backend type in config: %s", appConfig.Backend)
	}

	cfg := Config{
		Type:          backendType,
		SQLiteDBPath:  appConfig.SQLiteDBPath,
		MongoURI:      appConfig.MongoURI,
		MongoDatabase: appConfig.MongoDatabase,
		CacheSize:     appConfig.CacheSize,
		CacheTTL:      appConfig.CacheTTL,
		Metrics:       m,
		Logger:        logger,
	}
	return cfg, cfg.Validate()
}
