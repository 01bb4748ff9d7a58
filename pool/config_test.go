package pool

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig("postgres", "postgres://localhost/app")

	assert.Equal(t, "postgres", cfg.Kind)
	assert.Equal(t, "postgres://localhost/app", cfg.ConnString)
	assert.Equal(t, DefaultMinConnections, cfg.MinConnections)
	assert.Equal(t, DefaultMaxConnections, cfg.MaxConnections)
	assert.Equal(t, 300*time.Second, cfg.MaxIdleTime)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 3600*time.Second, cfg.MaxLifetime)
	assert.False(t, cfg.ValidateOnAcquire)
	assert.Equal(t, 3, cfg.MaxErrorCount)
}

func TestConfigValidate(t *testing.T) {
	valid := DefaultConfig("mock", "mock://test")
	valid.Backend = &mockBackend{}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing conn string", func(c *Config) { c.ConnString = "" }},
		{"missing backend", func(c *Config) { c.Backend = nil }},
		{"negative min", func(c *Config) { c.MinConnections = -1 }},
		{"zero max", func(c *Config) { c.MaxConnections = 0 }},
		{"min over max", func(c *Config) { c.MinConnections = 20; c.MaxConnections = 10 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pool.yaml")
	content := `
kind: sqlite
conn_string: file:test.db
min_connections: 2
max_connections: 8
max_idle_time_seconds: 60
connect_timeout_seconds: 5
max_lifetime_seconds: 0
validate_on_acquire: true
max_error_count: 5
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Kind)
	assert.Equal(t, "file:test.db", cfg.ConnString)
	assert.Equal(t, 2, cfg.MinConnections)
	assert.Equal(t, 8, cfg.MaxConnections)
	assert.Equal(t, 60*time.Second, cfg.MaxIdleTime)
	assert.Equal(t, 5*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, time.Duration(0), cfg.MaxLifetime, "explicit 0 means unbounded lifetime")
	assert.True(t, cfg.ValidateOnAcquire)
	assert.Equal(t, 5, cfg.MaxErrorCount)
}

func TestLoadConfigFilePartialKeepsDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "pool.yaml")
	require.NoError(t, os.WriteFile(path, []byte("kind: mysql\nconn_string: user@/db\n"), 0o644))

	cfg, err := LoadConfigFile(path)
	require.NoError(t, err)

	assert.Equal(t, DefaultMaxConnections, cfg.MaxConnections)
	assert.Equal(t, DefaultMaxIdleTime, cfg.MaxIdleTime)
	assert.Equal(t, DefaultMaxLifetime, cfg.MaxLifetime)
}

func TestLoadConfigFileErrors(t *testing.T) {
	_, err := LoadConfigFile("/nonexistent/pool.yaml")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0o644))
	_, err = LoadConfigFile(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestConfigApplyEnv(t *testing.T) {
	t.Setenv("DBPOOL_KIND", "mysql")
	t.Setenv("DBPOOL_CONN_STRING", "user@/db")
	t.Setenv("DBPOOL_MIN_CONNECTIONS", "3")
	t.Setenv("DBPOOL_MAX_CONNECTIONS", "7")
	t.Setenv("DBPOOL_CONNECT_TIMEOUT_MS", "1500")
	t.Setenv("DBPOOL_MAX_IDLE_TIME_MS", "60000")
	t.Setenv("DBPOOL_MAX_LIFETIME_MS", "0")
	t.Setenv("DBPOOL_VALIDATE_ON_ACQUIRE", "true")
	t.Setenv("DBPOOL_MAX_ERROR_COUNT", "9")

	cfg := DefaultConfig("postgres", "postgres://localhost/app").ApplyEnv()

	assert.Equal(t, "mysql", cfg.Kind)
	assert.Equal(t, "user@/db", cfg.ConnString)
	assert.Equal(t, 3, cfg.MinConnections)
	assert.Equal(t, 7, cfg.MaxConnections)
	assert.Equal(t, 1500*time.Millisecond, cfg.ConnectTimeout)
	assert.Equal(t, time.Minute, cfg.MaxIdleTime)
	assert.Equal(t, time.Duration(0), cfg.MaxLifetime)
	assert.True(t, cfg.ValidateOnAcquire)
	assert.Equal(t, 9, cfg.MaxErrorCount)
}

func TestConfigApplyEnvIgnoresInvalidValues(t *testing.T) {
	t.Setenv("DBPOOL_MAX_CONNECTIONS", "not-a-number")
	t.Setenv("DBPOOL_MIN_CONNECTIONS", "-4")

	cfg := DefaultConfig("postgres", "postgres://localhost/app").ApplyEnv()

	assert.Equal(t, DefaultMaxConnections, cfg.MaxConnections)
	assert.Equal(t, DefaultMinConnections, cfg.MinConnections)
}
