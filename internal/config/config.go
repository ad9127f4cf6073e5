// Package config loads service settings from the environment, optionally
// layered over a YAML or TOML file. Environment variables always win.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

var (
	validBackends    = []string{"sqlite", "mongo", "memory"}
	validLedgerModes = []string{"atomic", "naive"}
	validLogFormats  = []string{"text", "json", "pretty"}
	validLogLevels   = []string{"debug", "info", "warn", "error"}
)

type Config struct {
	// HTTP server
	Port               string
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	ShutdownTimeout    time.Duration
	RateLimitPerMinute int
	EnableH2C          bool

	// Storage
	Backend       string
	SQLiteDBPath  string
	MongoURI      string
	MongoDatabase string

	// Ledger
	LedgerMode        string
	ReconcileInterval time.Duration
	ReconcileFix      bool

	// Sessions
	JWTSecret string
	JWTTTL    time.Duration

	// AMQP; an empty URL disables ledger events
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Repository cache
	CacheTTL  time.Duration
	CacheSize int

	// Logging
	LogLevel  string
	LogFormat string

	// Google Sheets export
	GoogleSpreadsheetID      string
	GoogleSheetName          string
	GoogleServiceAccountFile string
	GoogleServiceAccountJSON string
}

// source resolves a key from the environment first, then from the file.
type source struct {
	file map[string]string
}

func (s source) lookup(key string) (string, bool) {
	if v := os.Getenv(key); v != "" {
		return v, true
	}
	v, ok := s.file[key]
	return v, ok && v != ""
}

func (s source) get(key, def string) string {
	if v, ok := s.lookup(key); ok {
		return v
	}
	return def
}

func (s source) getInt(key string, def int) int {
	if v, ok := s.lookup(key); ok {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func (s source) getDuration(key string, def time.Duration) time.Duration {
	if v, ok := s.lookup(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func (s source) getBool(key string, def bool) bool {
	if v, ok := s.lookup(key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// LoadDotEnv reads .env into the process environment when present.
func LoadDotEnv() {
	_ = godotenv.Load()
}

// Load builds the configuration from the environment over the optional
// config file at path. Unparseable numbers and durations keep their defaults.
func Load(path string) (*Config, error) {
	src := source{}
	if path != "" {
		file, err := readFile(path)
		if err != nil {
			return nil, err
		}
		src.file = file
	}

	return &Config{
		Port:               src.get("PORT", "8081"),
		ReadTimeout:        src.getDuration("READ_TIMEOUT", 15*time.Second),
		WriteTimeout:       src.getDuration("WRITE_TIMEOUT", 15*time.Second),
		ShutdownTimeout:    src.getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		RateLimitPerMinute: src.getInt("RATE_LIMIT_PER_MINUTE", 120),
		EnableH2C:          src.getBool("ENABLE_H2C", false),

		Backend:       src.get("BACKEND", "sqlite"),
		SQLiteDBPath:  src.get("SQLITE_DB_PATH", "./data/budgetbuddy.db"),
		MongoURI:      src.get("MONGO_URI", ""),
		MongoDatabase: src.get("MONGO_DATABASE", "budgetbuddy"),

		LedgerMode:        src.get("LEDGER_MODE", "atomic"),
		ReconcileInterval: src.getDuration("RECONCILE_INTERVAL", time.Hour),
		ReconcileFix:      src.getBool("RECONCILE_FIX", true),

		JWTSecret: src.get("JWT_SECRET", ""),
		JWTTTL:    src.getDuration("JWT_TTL", 24*time.Hour),

		AMQPURL:      src.get("AMQP_URL", ""),
		AMQPExchange: src.get("AMQP_EXCHANGE", "budgetbuddy"),
		AMQPQueue:    src.get("AMQP_QUEUE", "ledger_events"),

		CacheTTL:  src.getDuration("CACHE_TTL", 5*time.Minute),
		CacheSize: src.getInt("CACHE_SIZE", 256),

		LogLevel:  strings.ToLower(src.get("LOG_LEVEL", "info")),
		LogFormat: strings.ToLower(src.get("LOG_FORMAT", "text")),

		GoogleSpreadsheetID:      src.get("GOOGLE_SPREADSHEET_ID", ""),
		GoogleSheetName:          src.get("GOOGLE_SHEET_NAME", "Extrato"),
		GoogleServiceAccountFile: src.get("GOOGLE_SERVICE_ACCOUNT_FILE", ""),
		GoogleServiceAccountJSON: src.get("GOOGLE_SERVICE_ACCOUNT_JSON", ""),
	}, nil
}

// readFile flattens a YAML or TOML document into upper-cased keys, so that
// "ledger_mode: naive" overrides the same setting as LEDGER_MODE.
func readFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	raw := map[string]any{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("parse yaml config: %w", err)
		}
	case ".toml":
		tree, err := toml.LoadBytes(data)
		if err != nil {
			return nil, fmt.Errorf("parse toml config: %w", err)
		}
		raw = tree.ToMap()
	default:
		return nil, fmt.Errorf("unsupported config file extension %q", ext)
	}

	out := make(map[string]string, len(raw))
	for k, v := range raw {
		if v == nil {
			continue
		}
		out[strings.ToUpper(k)] = fmt.Sprint(v)
	}
	return out, nil
}

// Validate reports every problem at once.
func (c *Config) Validate() error {
	var errors []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errors = append(errors, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errors = append(errors, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if !slices.Contains(validBackends, c.Backend) {
		errors = append(errors, fmt.Sprintf("invalid backend '%s': must be one of %v", c.Backend, validBackends))
	}
	switch c.Backend {
	case "sqlite":
		if c.SQLiteDBPath == "" {
			errors = append(errors, "SQLite database path cannot be empty when using sqlite backend")
		}
	case "mongo":
		if c.MongoURI == "" {
			errors = append(errors, "MONGO_URI is required when using mongo backend")
		} else if u, err := url.Parse(c.MongoURI); err != nil || (u.Scheme != "mongodb" && u.Scheme != "mongodb+srv") {
			errors = append(errors, fmt.Sprintf("invalid MONGO_URI '%s': scheme must be 'mongodb' or 'mongodb+srv'", c.MongoURI))
		}
		if c.MongoDatabase == "" {
			errors = append(errors, "MONGO_DATABASE cannot be empty when using mongo backend")
		}
	}

	if !slices.Contains(validLedgerModes, c.LedgerMode) {
		errors = append(errors, fmt.Sprintf("invalid ledger mode '%s': must be one of %v", c.LedgerMode, validLedgerModes))
	}

	if c.JWTSecret == "" {
		errors = append(errors, "JWT_SECRET is required")
	} else if len(c.JWTSecret) < 16 {
		errors = append(errors, "JWT_SECRET must be at least 16 characters")
	}
	if c.JWTTTL < time.Minute {
		errors = append(errors, fmt.Sprintf("invalid JWT TTL %v: must be at least 1 minute", c.JWTTTL))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errors = append(errors, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errors = append(errors, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errors = append(errors, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.CacheSize < 1 {
		errors = append(errors, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL < time.Second {
		errors = append(errors, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}
	if c.RateLimitPerMinute < 1 {
		errors = append(errors, fmt.Sprintf("invalid rate limit %d: must be at least 1 per minute", c.RateLimitPerMinute))
	}
	if c.ReconcileInterval < time.Minute || c.ReconcileInterval > 24*time.Hour {
		errors = append(errors, fmt.Sprintf("invalid reconcile interval %v: must be between 1 minute and 24 hours", c.ReconcileInterval))
	}
	for name, d := range map[string]time.Duration{
		"read timeout":     c.ReadTimeout,
		"write timeout":    c.WriteTimeout,
		"shutdown timeout": c.ShutdownTimeout,
	} {
		if d <= 0 {
			errors = append(errors, fmt.Sprintf("invalid %s %v: must be positive", name, d))
		}
	}

	if !slices.Contains(validLogLevels, c.LogLevel) {
		errors = append(errors, fmt.Sprintf("invalid log level '%s': must be one of %v", c.LogLevel, validLogLevels))
	}
	if !slices.Contains(validLogFormats, c.LogFormat) {
		errors = append(errors, fmt.Sprintf("invalid log format '%s': must be one of %v", c.LogFormat, validLogFormats))
	}

	if c.GoogleServiceAccountFile != "" {
		if _, err := os.Stat(c.GoogleServiceAccountFile); os.IsNotExist(err) {
			errors = append(errors, fmt.Sprintf("Google service account file does not exist: %s", c.GoogleServiceAccountFile))
		}
	}

	if len(errors) > 0 {
		slices.Sort(errors)
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errors, "\n- "))
	}
	return nil
}

// ValidateExport checks the settings needed by the Google Sheets exporter.
func (c *Config) ValidateExport() error {
	var missing []string
	if c.GoogleSpreadsheetID == "" {
		missing = append(missing, "GOOGLE_SPREADSHEET_ID")
	}
	if c.GoogleServiceAccountFile == "" && c.GoogleServiceAccountJSON == "" {
		missing = append(missing, "GOOGLE_SERVICE_ACCOUNT_FILE or GOOGLE_SERVICE_ACCOUNT_JSON")
	}
	if len(missing) > 0 {
		return fmt.Errorf("sheets export requires %s", strings.Join(missing, ", "))
	}
	return nil
}

// Addr is the listen address for the HTTP server.
func (c *Config) Addr() string { return ":" + c.Port }
