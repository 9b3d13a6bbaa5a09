// Package config loads settings from a YAML file, a .env file and the
// environment, in increasing order of precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"lotofacil-lab/internal/ingestion"
	"lotofacil-lab/internal/model"
	"lotofacil-lab/internal/selector"
)

// Storage drivers.
const (
	DriverMemory   = "memory"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

const (
	defaultConfigPath     = "config.yaml"
	defaultSQLitePath     = "./lotofacil.db"
	defaultSyncSchedule   = "0 22 * * 1-6"
	defaultServerAddr     = ":9090"
	defaultRequestDelayMS = int(ingestion.DefaultRequestDelay / time.Millisecond)
	defaultTimeoutSeconds = int(ingestion.DefaultTimeout / time.Second)
)

// Config holds every runtime setting.
type Config struct {
	StorageDriver string `yaml:"storage_driver"`
	SQLitePath    string `yaml:"sqlite_path"`
	PostgresDSN   string `yaml:"postgres_dsn"`
	ClickhouseDSN string `yaml:"clickhouse_dsn"` // optional, enables backtest persistence
	ModelDir      string `yaml:"model_dir"`      // optional, stores artifacts on disk instead of the driver

	TrainL2        float64 `yaml:"train_l2"`
	TrainMaxIter   int     `yaml:"train_max_iter"`
	TrainTolerance float64 `yaml:"train_tolerance"`
	MinHistory     int     `yaml:"min_history"`
	UserID         int64   `yaml:"user_id"`

	ResultsAPIURL      string `yaml:"results_api_url"`
	SyncRequestDelayMS int    `yaml:"sync_request_delay_ms"` // negative disables the pause
	SyncTimeoutSeconds int    `yaml:"sync_timeout_seconds"`
	SyncMaxRetries     int    `yaml:"sync_max_retries"`
	SyncSchedule       string `yaml:"sync_schedule"`
	ServerAddr         string `yaml:"server_addr"`
	BacktestHorizon    int    `yaml:"backtest_horizon"`
}

// Path returns the config file location: explicit, then CONFIG_PATH, then the default.
func Path(explicit string) string {
	if explicit != "" {
		return explicit
	}
	if envPath := os.Getenv("CONFIG_PATH"); envPath != "" {
		return envPath
	}
	return defaultConfigPath
}

// Load reads path (a missing file is not an error), applies environment
// overrides and defaults, then validates.
func Load(path string) (Config, error) {
	var cfg Config

	if data, err := os.ReadFile(path); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse %s: %w", path, err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	var errs []error
	envOverride(&c.StorageDriver, "STORAGE_DRIVER")
	envOverride(&c.SQLitePath, "SQLITE_PATH")
	envOverride(&c.PostgresDSN, "POSTGRES_DSN")
	envOverride(&c.ClickhouseDSN, "CLICKHOUSE_DSN")
	envOverride(&c.ModelDir, "MODEL_DIR")
	errs = append(errs,
		envOverrideFloat(&c.TrainL2, "TRAIN_L2"),
		envOverrideInt(&c.TrainMaxIter, "TRAIN_MAX_ITER"),
		envOverrideFloat(&c.TrainTolerance, "TRAIN_TOLERANCE"),
		envOverrideInt(&c.MinHistory, "MIN_HISTORY"),
		envOverrideInt64(&c.UserID, "USER_ID"),
		envOverrideInt(&c.SyncRequestDelayMS, "SYNC_REQUEST_DELAY_MS"),
		envOverrideInt(&c.SyncTimeoutSeconds, "SYNC_TIMEOUT_SECONDS"),
		envOverrideInt(&c.SyncMaxRetries, "SYNC_MAX_RETRIES"),
		envOverrideInt(&c.BacktestHorizon, "BACKTEST_HORIZON"),
	)
	envOverride(&c.ResultsAPIURL, "RESULTS_API_URL")
	envOverride(&c.SyncSchedule, "SYNC_SCHEDULE")
	envOverride(&c.ServerAddr, "SERVER_ADDR")
	return errors.Join(errs...)
}

func (c *Config) applyDefaults() {
	defaults := model.DefaultTrainConfig()

	if c.StorageDriver == "" {
		c.StorageDriver = DriverMemory
	}
	c.StorageDriver = strings.ToLower(strings.TrimSpace(c.StorageDriver))
	if c.SQLitePath == "" {
		c.SQLitePath = defaultSQLitePath
	}
	if c.TrainL2 == 0 {
		c.TrainL2 = defaults.L2
	}
	if c.TrainMaxIter == 0 {
		c.TrainMaxIter = defaults.MaxIter
	}
	if c.TrainTolerance == 0 {
		c.TrainTolerance = defaults.Tolerance
	}
	if c.MinHistory == 0 {
		c.MinHistory = selector.DefaultMinHistory
	}
	if c.UserID == 0 {
		c.UserID = 1
	}
	if c.ResultsAPIURL == "" {
		c.ResultsAPIURL = ingestion.DefaultBaseURL
	}
	if c.SyncRequestDelayMS == 0 {
		c.SyncRequestDelayMS = defaultRequestDelayMS
	}
	if c.SyncTimeoutSeconds == 0 {
		c.SyncTimeoutSeconds = defaultTimeoutSeconds
	}
	if c.SyncMaxRetries == 0 {
		c.SyncMaxRetries = ingestion.DefaultMaxRetries
	}
	if c.SyncSchedule == "" {
		c.SyncSchedule = defaultSyncSchedule
	}
	if c.ServerAddr == "" {
		c.ServerAddr = defaultServerAddr
	}
	if c.BacktestHorizon == 0 {
		c.BacktestHorizon = 100
	}
}

// Validate rejects inconsistent settings.
func (c Config) Validate() error {
	switch c.StorageDriver {
	case DriverMemory:
	case DriverSQLite:
		if c.SQLitePath == "" {
			return fmt.Errorf("sqlite_path is required when storage_driver=%s", DriverSQLite)
		}
	case DriverPostgres:
		if c.PostgresDSN == "" {
			return fmt.Errorf("postgres_dsn is required when storage_driver=%s", DriverPostgres)
		}
	default:
		return fmt.Errorf("storage_driver must be one of memory, sqlite, postgres, got %q", c.StorageDriver)
	}

	if err := c.Train().Validate(); err != nil {
		return fmt.Errorf("invalid training settings: %w", err)
	}
	if c.MinHistory < 1 {
		return fmt.Errorf("invalid min_history %d: must be >= 1", c.MinHistory)
	}
	if c.UserID < 1 {
		return fmt.Errorf("invalid user_id %d: must be >= 1", c.UserID)
	}
	if c.SyncTimeoutSeconds < 1 {
		return fmt.Errorf("invalid sync_timeout_seconds %d: must be >= 1", c.SyncTimeoutSeconds)
	}
	if c.SyncMaxRetries < 0 {
		return fmt.Errorf("invalid sync_max_retries %d: must be >= 0", c.SyncMaxRetries)
	}
	if c.BacktestHorizon < 1 {
		return fmt.Errorf("invalid backtest_horizon %d: must be >= 1", c.BacktestHorizon)
	}
	if _, err := ParseSchedule(c.SyncSchedule); err != nil {
		return fmt.Errorf("invalid sync_schedule %q: %w", c.SyncSchedule, err)
	}
	return nil
}

// Train returns the classifier settings.
func (c Config) Train() model.TrainConfig {
	return model.TrainConfig{L2: c.TrainL2, MaxIter: c.TrainMaxIter, Tolerance: c.TrainTolerance}
}

// RequestDelay returns the pause between sync requests. A negative
// sync_request_delay_ms disables it.
func (c Config) RequestDelay() time.Duration {
	if c.SyncRequestDelayMS < 0 {
		return -1
	}
	return time.Duration(c.SyncRequestDelayMS) * time.Millisecond
}

// SyncTimeout returns the per-request HTTP timeout.
func (c Config) SyncTimeout() time.Duration {
	return time.Duration(c.SyncTimeoutSeconds) * time.Second
}

// ParseSchedule parses a standard 5-field cron expression
// (minute hour day-of-month month day-of-week).
func ParseSchedule(spec string) (cron.Schedule, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	return parser.Parse(spec)
}

func envOverride(field *string, envKey string) {
	if val := os.Getenv(envKey); val != "" {
		*field = val
	}
}

func envOverrideInt(field *int, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideInt64(field *int64, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseInt(val, 10, 64)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}

func envOverrideFloat(field *float64, envKey string) error {
	if val := os.Getenv(envKey); val != "" {
		parsed, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return fmt.Errorf("invalid %s '%s': %w", envKey, val, err)
		}
		*field = parsed
	}
	return nil
}
