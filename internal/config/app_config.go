package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"

	"github.com/shaharia-lab/testerpub/internal/logger"
	"github.com/shaharia-lab/testerpub/internal/transport/redis"
)

// Transport kinds accepted by TESTERPUB_TRANSPORT.
const (
	TransportRedis  = "redis"
	TransportMemory = "memory"
)

// AppConfig holds all application-level configuration loaded from environment variables.
type AppConfig struct {
	// Port is the HTTP relay port. Defaults to 8990.
	Port int `envconfig:"PORT" default:"8990"`

	// DataDir is the root data directory. Defaults to ~/.testerpub.
	DataDir string `envconfig:"TESTERPUB_DATA_DIR"`

	// LogLevel sets the minimum log level (debug, info, notice, warning, error, crit, alert, emerg).
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// LogStderr mirrors the system log to stderr.
	LogStderr bool `envconfig:"TESTERPUB_LOG_STDERR" default:"false"`

	// BaseChannel is the channel prefix; sessions publish to <BaseChannel>-<session>.
	BaseChannel string `envconfig:"TESTERPUB_BASE_CHANNEL" default:"tls"`

	// Transport selects the broker: "redis" or "memory".
	Transport string `envconfig:"TESTERPUB_TRANSPORT" default:"redis"`

	// TransportFile is an optional YAML file whose values override the REDIS_* variables.
	TransportFile string `envconfig:"TESTERPUB_TRANSPORT_FILE"`

	RedisURL            string        `envconfig:"REDIS_URL"`
	RedisHost           string        `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort           int           `envconfig:"REDIS_PORT" default:"6379"`
	RedisUsername       string        `envconfig:"REDIS_USERNAME"`
	RedisPassword       string        `envconfig:"REDIS_PASSWORD"`
	RedisDB             int           `envconfig:"REDIS_DB" default:"0"`
	RedisDialTimeout    time.Duration `envconfig:"REDIS_DIAL_TIMEOUT" default:"5s"`
	RedisHealthInterval time.Duration `envconfig:"REDIS_HEALTH_INTERVAL" default:"30s"`
}

// Load reads AppConfig from environment variables using envconfig.
// DataDir defaults to ~/.testerpub if not set.
func Load() (*AppConfig, error) {
	var c AppConfig
	if err := envconfig.Process("", &c); err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("resolving home directory: %w", err)
		}
		c.DataDir = filepath.Join(home, ".testerpub")
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

// Validate checks fields that envconfig cannot.
func (c *AppConfig) Validate() error {
	switch c.Transport {
	case TransportRedis, TransportMemory:
	default:
		return fmt.Errorf("loading config: unknown transport %q (want %q or %q)", c.Transport, TransportRedis, TransportMemory)
	}
	if c.BaseChannel == "" {
		return fmt.Errorf("loading config: TESTERPUB_BASE_CHANNEL must not be empty")
	}
	return nil
}

// SlogLevel converts the LogLevel string to a slog.Level.
// Unknown values default to slog.LevelInfo.
func (c *AppConfig) SlogLevel() slog.Level {
	lvl, err := logger.ParseLevel(c.LogLevel)
	if err != nil {
		return slog.LevelInfo
	}
	return lvl
}

// LogDir returns the path to the log directory (~/.testerpub/logs).
func (c *AppConfig) LogDir() string {
	return filepath.Join(c.DataDir, "logs")
}

// RedisOptions resolves the broker options: REDIS_* variables first, then
// the transport file when one is configured.
func (c *AppConfig) RedisOptions() (redis.Options, error) {
	opts := redis.Options{
		URL:            c.RedisURL,
		Host:           c.RedisHost,
		Port:           c.RedisPort,
		Username:       c.RedisUsername,
		Password:       c.RedisPassword,
		DB:             c.RedisDB,
		DialTimeout:    c.RedisDialTimeout,
		HealthInterval: c.RedisHealthInterval,
	}
	if c.TransportFile == "" {
		return opts, nil
	}
	f, err := LoadTransportFile(c.TransportFile)
	if err != nil {
		return redis.Options{}, err
	}
	return f.Apply(opts), nil
}
