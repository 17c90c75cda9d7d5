package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Legacy migration modes.
const (
	MigrationModeInProcess = "inprocess"
	MigrationModeRiver     = "river"
	MigrationModeDisabled  = "disabled"
)

// Config struct to hold the configuration settings
type Config struct {
	Postgres      PostgresConfig      `yaml:"postgres"`
	NATS          NATSConfig          `yaml:"nats"`
	HTTP          HTTPConfig          `yaml:"http"`
	Scores        ScoresConfig        `yaml:"scores"`
	Observability ObservabilityConfig `yaml:"observability"`
}

// PostgresConfig holds Postgres configuration.
type PostgresConfig struct {
	DSN string `yaml:"dsn"`
}

// NATSConfig holds NATS configuration.
type NATSConfig struct {
	URL string `yaml:"url"`
	// QueueGroupPrefix lets replicas share ingestion subjects. Empty means every replica
	// receives every message.
	QueueGroupPrefix string `yaml:"queue_group_prefix"`
	SubscribersCount int    `yaml:"subscribers_count"`
}

// HTTPConfig holds the read API settings. An empty address disables the API.
type HTTPConfig struct {
	Addr           string  `yaml:"addr"`
	RateLimitRPS   float64 `yaml:"rate_limit_rps"`
	RateLimitBurst int     `yaml:"rate_limit_burst"`
}

// ScoresConfig holds the score engine settings.
type ScoresConfig struct {
	DeckCatalogPath string `yaml:"deck_catalog_path"`
	// Transactional applies the sub-updates of one event in a single transaction instead
	// of concurrently.
	Transactional   bool                  `yaml:"transactional"`
	LegacyMigration LegacyMigrationConfig `yaml:"legacy_migration"`
}

// LegacyMigrationConfig controls the startup rebuild from the legacy score log.
type LegacyMigrationConfig struct {
	Mode          string        `yaml:"mode"`
	DataDir       string        `yaml:"data_dir"`
	StartupDelay  time.Duration `yaml:"startup_delay"`
	ProgressEvery int           `yaml:"progress_every"`
}

// ObservabilityConfig holds configuration for observability components
type ObservabilityConfig struct {
	LogLevel       string `yaml:"log_level"`
	MetricsAddress string `yaml:"metrics_address"`
	Environment    string `yaml:"environment"`
}

// LoadConfig loads the configuration from a YAML file. When the file does not exist the
// configuration comes from environment variables alone.
func LoadConfig(filename string) (*Config, error) {
	var cfg Config

	data, err := os.ReadFile(filename)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to unmarshal config: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Postgres.DSN = v
	}
	if v := os.Getenv("NATS_URL"); v != "" {
		cfg.NATS.URL = v
	}
	if v := os.Getenv("NATS_QUEUE_GROUP_PREFIX"); v != "" {
		cfg.NATS.QueueGroupPrefix = v
	}
	if v := os.Getenv("HTTP_ADDR"); v != "" {
		cfg.HTTP.Addr = v
	}
	if v := os.Getenv("METRICS_ADDRESS"); v != "" {
		cfg.Observability.MetricsAddress = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.Observability.LogLevel = v
	}
	if v := os.Getenv("ENV"); v != "" {
		cfg.Observability.Environment = v
	}
	if v := os.Getenv("DECK_CATALOG_PATH"); v != "" {
		cfg.Scores.DeckCatalogPath = v
	}
	if v := os.Getenv("SCORES_TRANSACTIONAL"); v != "" {
		cfg.Scores.Transactional = v == "true"
	}
	if v := os.Getenv("LEGACY_DATA_DIR"); v != "" {
		cfg.Scores.LegacyMigration.DataDir = v
	}
	if v := os.Getenv("LEGACY_MIGRATION_MODE"); v != "" {
		cfg.Scores.LegacyMigration.Mode = v
	}
	if v := os.Getenv("LEGACY_STARTUP_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("invalid LEGACY_STARTUP_DELAY value: %w", err)
		}
		cfg.Scores.LegacyMigration.StartupDelay = d
	}
	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid RATE_LIMIT_RPS value: %w", err)
		}
		cfg.HTTP.RateLimitRPS = f
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.NATS.SubscribersCount <= 0 {
		cfg.NATS.SubscribersCount = 1
	}
	if cfg.HTTP.RateLimitRPS <= 0 {
		cfg.HTTP.RateLimitRPS = 10
	}
	if cfg.HTTP.RateLimitBurst <= 0 {
		cfg.HTTP.RateLimitBurst = 20
	}
	if cfg.Observability.LogLevel == "" {
		cfg.Observability.LogLevel = "info"
	}

	lm := &cfg.Scores.LegacyMigration
	if lm.Mode == "" {
		lm.Mode = MigrationModeInProcess
	}
	if lm.StartupDelay <= 0 {
		lm.StartupDelay = 3 * time.Second
	}
	if lm.ProgressEvery <= 0 {
		lm.ProgressEvery = 1000
	}
}

// Validate reports settings the application cannot start with.
func (c *Config) Validate() error {
	if c.Postgres.DSN == "" {
		return errors.New("DATABASE_URL environment variable not set")
	}
	switch c.Scores.LegacyMigration.Mode {
	case MigrationModeInProcess, MigrationModeRiver, MigrationModeDisabled:
	default:
		return fmt.Errorf("unknown legacy migration mode %q", c.Scores.LegacyMigration.Mode)
	}
	if c.Scores.LegacyMigration.Mode != MigrationModeDisabled && c.Scores.LegacyMigration.DataDir == "" {
		return errors.New("scores.legacy_migration.data_dir is required unless the migration is disabled")
	}
	return nil
}
