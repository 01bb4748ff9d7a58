package pool

import (
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Recommended defaults for pool configuration
const (
	DefaultMinConnections = 1
	DefaultMaxConnections = 10
	DefaultMaxIdleTime    = 300 * time.Second
	DefaultConnectTimeout = 30 * time.Second
	DefaultMaxLifetime    = 3600 * time.Second
	DefaultMaxErrorCount  = 3
)

// Config holds configuration for a connection pool. It is immutable once
// the pool is created.
type Config struct {
	// Kind names a backend preset ("postgres", "mysql", "sqlite") for
	// callers that resolve the Backend through the backend registry. The
	// pool itself only requires Backend to be set.
	Kind       string
	ConnString string

	MinConnections int
	MaxConnections int

	MaxIdleTime    time.Duration // idle age after which CloseIdle reaps a connection
	ConnectTimeout time.Duration // bound on how long Acquire blocks
	MaxLifetime    time.Duration // 0 = unbounded

	ValidateOnAcquire bool

	// MaxErrorCount is the execute-error threshold beyond which a
	// connection is destroyed on release instead of returning to idle.
	MaxErrorCount int

	Backend Backend
}

// DefaultConfig returns a Config with recommended defaults for the given
// backend kind and connection string.
func DefaultConfig(kind, connString string) Config {
	return Config{
		Kind:           kind,
		ConnString:     connString,
		MinConnections: DefaultMinConnections,
		MaxConnections: DefaultMaxConnections,
		MaxIdleTime:    DefaultMaxIdleTime,
		ConnectTimeout: DefaultConnectTimeout,
		MaxLifetime:    DefaultMaxLifetime,
		MaxErrorCount:  DefaultMaxErrorCount,
	}
}

// Validate checks the configuration invariants. Violations are fatal to
// pool creation; warm-up connect failures are not.
func (c Config) Validate() error {
	if c.ConnString == "" {
		return newPoolError(codeInvalidConfig, "connection string is required")
	}
	if c.Backend == nil {
		return newPoolError(codeInvalidConfig, "backend adapter is required")
	}
	if c.MinConnections < 0 {
		return newPoolError(codeInvalidConfig, "min_connections must not be negative, got %d", c.MinConnections)
	}
	if c.MaxConnections <= 0 {
		return newPoolError(codeInvalidConfig, "max_connections must be positive, got %d", c.MaxConnections)
	}
	if c.MinConnections > c.MaxConnections {
		return newPoolError(codeInvalidConfig, "min_connections %d exceeds max_connections %d", c.MinConnections, c.MaxConnections)
	}
	return nil
}

// applyDefaults fills zero-valued policy knobs. MaxLifetime is left
// untouched: zero means unbounded.
func (c *Config) applyDefaults() {
	if c.MaxIdleTime <= 0 {
		c.MaxIdleTime = DefaultMaxIdleTime
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = DefaultConnectTimeout
	}
	if c.MaxErrorCount <= 0 {
		c.MaxErrorCount = DefaultMaxErrorCount
	}
}

// fileConfig is the on-disk YAML form of Config. Durations are seconds.
type fileConfig struct {
	Kind                  string `yaml:"kind"`
	ConnString            string `yaml:"conn_string"`
	MinConnections        int    `yaml:"min_connections"`
	MaxConnections        int    `yaml:"max_connections"`
	MaxIdleTimeSeconds    int    `yaml:"max_idle_time_seconds"`
	ConnectTimeoutSeconds int    `yaml:"connect_timeout_seconds"`
	MaxLifetimeSeconds    *int   `yaml:"max_lifetime_seconds"`
	ValidateOnAcquire     bool   `yaml:"validate_on_acquire"`
	MaxErrorCount         int    `yaml:"max_error_count"`
}

// LoadConfigFile reads a YAML pool configuration. Absent fields keep the
// recommended defaults; max_lifetime_seconds may be set to 0 explicitly
// for an unbounded lifetime.
func LoadConfigFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, wrapPoolError(err, codeInvalidConfig, "read config file %s", path)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return Config{}, wrapPoolError(err, codeInvalidConfig, "parse config file %s", path)
	}

	config := DefaultConfig(fc.Kind, fc.ConnString)
	if fc.MinConnections > 0 {
		config.MinConnections = fc.MinConnections
	}
	if fc.MaxConnections > 0 {
		config.MaxConnections = fc.MaxConnections
	}
	if fc.MaxIdleTimeSeconds > 0 {
		config.MaxIdleTime = time.Duration(fc.MaxIdleTimeSeconds) * time.Second
	}
	if fc.ConnectTimeoutSeconds > 0 {
		config.ConnectTimeout = time.Duration(fc.ConnectTimeoutSeconds) * time.Second
	}
	if fc.MaxLifetimeSeconds != nil {
		config.MaxLifetime = time.Duration(*fc.MaxLifetimeSeconds) * time.Second
	}
	config.ValidateOnAcquire = fc.ValidateOnAcquire
	if fc.MaxErrorCount > 0 {
		config.MaxErrorCount = fc.MaxErrorCount
	}

	return config, nil
}

// ApplyEnv overlays DBPOOL_* environment variables onto the config and
// returns the result.
func (c Config) ApplyEnv() Config {
	if v := os.Getenv("DBPOOL_KIND"); v != "" {
		c.Kind = v
	}
	if v := os.Getenv("DBPOOL_CONN_STRING"); v != "" {
		c.ConnString = v
	}
	if v := os.Getenv("DBPOOL_MIN_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.MinConnections = n
		}
	}
	if v := os.Getenv("DBPOOL_MAX_CONNECTIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxConnections = n
		}
	}
	if v := os.Getenv("DBPOOL_MAX_IDLE_TIME_MS"); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil && ms > 0 {
			c.MaxIdleTime = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("DBPOOL_CONNECT_TIMEOUT_MS"); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil && ms > 0 {
			c.ConnectTimeout = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("DBPOOL_MAX_LIFETIME_MS"); v != "" {
		if ms, err := strconv.ParseInt(v, 10, 64); err == nil && ms >= 0 {
			c.MaxLifetime = time.Duration(ms) * time.Millisecond
		}
	}
	if v := os.Getenv("DBPOOL_VALIDATE_ON_ACQUIRE"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.ValidateOnAcquire = b
		}
	}
	if v := os.Getenv("DBPOOL_MAX_ERROR_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			c.MaxErrorCount = n
		}
	}
	return c
}
