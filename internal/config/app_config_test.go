package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shaharia-lab/testerpub/internal/logger"
)

// clearEnv resets every variable Load reads so the host environment cannot leak in.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"PORT", "TESTERPUB_DATA_DIR", "LOG_LEVEL", "TESTERPUB_LOG_STDERR",
		"TESTERPUB_BASE_CHANNEL", "TESTERPUB_TRANSPORT", "TESTERPUB_TRANSPORT_FILE",
		"REDIS_URL", "REDIS_HOST", "REDIS_PORT", "REDIS_USERNAME", "REDIS_PASSWORD",
		"REDIS_DB", "REDIS_DIAL_TIMEOUT", "REDIS_HEALTH_INTERVAL",
	} {
		t.Setenv(k, "")
		require.NoError(t, os.Unsetenv(k))
	}
}

func TestAppConfig_SlogLevel(t *testing.T) {
	tests := []struct {
		name     string
		logLevel string
		want     slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"notice", "notice", logger.LevelNotice},
		{"warn", "warn", slog.LevelWarn},
		{"warning", "warning", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"unknown defaults to info", "unknown", slog.LevelInfo},
		{"empty defaults to info", "", slog.LevelInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &AppConfig{LogLevel: tt.logLevel}
			assert.Equal(t, tt.want, c.SlogLevel())
		})
	}
}

func TestAppConfig_LogDir(t *testing.T) {
	c := &AppConfig{DataDir: "/data"}
	assert.Equal(t, "/data/logs", c.LogDir())
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("TESTERPUB_DATA_DIR", "/tmp/test-testerpub")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/test-testerpub", cfg.DataDir)
	assert.Equal(t, 8990, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "tls", cfg.BaseChannel)
	assert.Equal(t, TransportRedis, cfg.Transport)

	opts, err := cfg.RedisOptions()
	require.NoError(t, err)
	assert.Equal(t, "localhost:6379", opts.Addr())
	assert.Equal(t, 5*time.Second, opts.DialTimeout)
	assert.Equal(t, 30*time.Second, opts.HealthInterval)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("TESTERPUB_DATA_DIR", "/tmp/x")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TESTERPUB_BASE_CHANNEL", "progress")
	t.Setenv("TESTERPUB_TRANSPORT", "memory")
	t.Setenv("REDIS_HOST", "redis")
	t.Setenv("REDIS_PORT", "6380")
	t.Setenv("REDIS_DIAL_TIMEOUT", "1s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "progress", cfg.BaseChannel)
	assert.Equal(t, TransportMemory, cfg.Transport)

	opts, err := cfg.RedisOptions()
	require.NoError(t, err)
	assert.Equal(t, "redis:6380", opts.Addr())
	assert.Equal(t, time.Second, opts.DialTimeout)
}

func TestLoad_InvalidTransport(t *testing.T) {
	clearEnv(t)
	t.Setenv("TESTERPUB_DATA_DIR", "/tmp/x")
	t.Setenv("TESTERPUB_TRANSPORT", "kafka")

	_, err := Load()
	assert.Error(t, err)
}

func TestLoad_InvalidPort(t *testing.T) {
	clearEnv(t)
	t.Setenv("TESTERPUB_DATA_DIR", "/tmp/x")
	t.Setenv("REDIS_PORT", "not-a-number")

	_, err := Load()
	assert.Error(t, err)
}

func TestRedisOptions_TransportFileOverridesEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transport.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
redis:
  host: redis.internal
  password: s3cret
  db: 0
  dial_timeout: 2s
`), 0600))

	c := &AppConfig{
		RedisHost:        "localhost",
		RedisPort:        6380,
		RedisDB:          4,
		RedisDialTimeout: 5 * time.Second,
		TransportFile:    path,
	}
	opts, err := c.RedisOptions()
	require.NoError(t, err)
	assert.Equal(t, "redis.internal:6380", opts.Addr())
	assert.Equal(t, "s3cret", opts.Password)
	assert.Equal(t, 0, opts.DB, "explicit zero db in the file wins")
	assert.Equal(t, 2*time.Second, opts.DialTimeout)
}

func TestRedisOptions_MissingTransportFile(t *testing.T) {
	c := &AppConfig{TransportFile: filepath.Join(t.TempDir(), "nope.yaml")}
	_, err := c.RedisOptions()
	assert.Error(t, err)
}

func TestLoadTransportFile_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transport.yaml")
	require.NoError(t, os.WriteFile(path, []byte("redis: [unclosed"), 0600))

	_, err := LoadTransportFile(path)
	assert.Error(t, err)
}
