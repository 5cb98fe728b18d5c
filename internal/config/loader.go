package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the path checked for YAML configuration.
const DefaultConfigFile = "vendalink.yaml"

// Load returns a Config using the hierarchy: defaults < YAML < ENV.
// YAML file is optional; missing file is not an error.
func Load() (*Config, error) {
	return LoadFrom(DefaultConfigFile)
}

// LoadFrom returns a Config loaded from the given YAML path using the
// hierarchy: defaults < YAML < ENV. The YAML file is optional.
func LoadFrom(yamlPath string) (*Config, error) {
	cfg := Defaults()

	if err := loadYAML(&cfg, yamlPath); err != nil {
		return nil, fmt.Errorf("config yaml: %w", err)
	}

	loadEnv(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config validate: %w", err)
	}

	return &cfg, nil
}

// loadYAML reads the YAML file and unmarshals it over cfg.
// Returns nil if the file does not exist.
func loadYAML(cfg *Config, path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path is validated by caller
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}

	return nil
}

// loadEnv overlays environment variables onto cfg.
// Only non-empty env values override the current config.
func loadEnv(cfg *Config) {
	setString(&cfg.Server.Port, "VENDALINK_PORT")
	setString(&cfg.Server.CORSOrigin, "VENDALINK_CORS_ORIGIN")

	setString(&cfg.Master.DSN, "DATABASE_URL")
	setInt32(&cfg.Master.MaxConns, "VENDALINK_MASTER_MAX_CONNS")
	setInt32(&cfg.Master.MinConns, "VENDALINK_MASTER_MIN_CONNS")
	setDuration(&cfg.Master.MaxConnLifetime, "VENDALINK_MASTER_MAX_CONN_LIFETIME")
	setDuration(&cfg.Master.MaxConnIdleTime, "VENDALINK_MASTER_MAX_CONN_IDLE_TIME")
	setDuration(&cfg.Master.HealthCheck, "VENDALINK_MASTER_HEALTH_CHECK")

	setInt32(&cfg.TenantPool.MaxConns, "VENDALINK_TENANT_MAX_CONNS")
	setInt32(&cfg.TenantPool.MinConns, "VENDALINK_TENANT_MIN_CONNS")
	setDuration(&cfg.TenantPool.DialTimeout, "VENDALINK_TENANT_DIAL_TIMEOUT")
	setDuration(&cfg.TenantPool.QueryTimeout, "VENDALINK_TENANT_QUERY_TIMEOUT")
	setInt(&cfg.TenantPool.MaxDials, "VENDALINK_TENANT_MAX_DIALS")

	setDuration(&cfg.Session.Timeout, "VENDALINK_SESSION_TIMEOUT")
	setDuration(&cfg.Session.HeartbeatTimeout, "VENDALINK_HEARTBEAT_TIMEOUT")
	setInt(&cfg.Session.DefaultQuota, "VENDALINK_SESSION_DEFAULT_QUOTA")
	setBool(&cfg.Session.StrictAdmission, "VENDALINK_STRICT_ADMISSION")

	setDuration(&cfg.Cache.DirectoryTTL, "VENDALINK_CACHE_DIRECTORY_TTL")
	setInt64(&cfg.Cache.MaxSizeMB, "VENDALINK_CACHE_SIZE_MB")

	setString(&cfg.NATS.URL, "NATS_URL")

	setFloat64(&cfg.Rate.RequestsPerSecond, "VENDALINK_RATE_RPS")
	setInt(&cfg.Rate.Burst, "VENDALINK_RATE_BURST")
	setDuration(&cfg.Rate.CleanupInterval, "VENDALINK_RATE_CLEANUP_INTERVAL")
	setDuration(&cfg.Rate.MaxIdleTime, "VENDALINK_RATE_MAX_IDLE_TIME")

	setInt(&cfg.Breaker.MaxFailures, "VENDALINK_BREAKER_MAX_FAILURES")
	setDuration(&cfg.Breaker.Timeout, "VENDALINK_BREAKER_TIMEOUT")

	setString(&cfg.Admin.KeyHash, "VENDALINK_ADMIN_KEY_HASH")

	setString(&cfg.Logging.Level, "VENDALINK_LOG_LEVEL")
	setString(&cfg.Logging.Service, "VENDALINK_LOG_SERVICE")

	setString(&cfg.Otel.Endpoint, "VENDALINK_OTEL_ENDPOINT")
	setBool(&cfg.Otel.Insecure, "VENDALINK_OTEL_INSECURE")
}

// validate checks that required fields are set.
func validate(cfg *Config) error {
	if cfg.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if cfg.Master.DSN == "" {
		return errors.New("master.dsn is required")
	}
	if cfg.Master.MaxConns < 1 {
		return errors.New("master.max_conns must be >= 1")
	}
	if cfg.TenantPool.MaxConns < 1 {
		return errors.New("tenant_pool.max_conns must be >= 1")
	}
	if cfg.TenantPool.MaxDials < 1 {
		return errors.New("tenant_pool.max_dials must be >= 1")
	}
	if cfg.Session.Timeout <= 0 {
		return errors.New("session.timeout must be positive")
	}
	if cfg.Session.HeartbeatTimeout <= 0 {
		return errors.New("session.heartbeat_timeout must be positive")
	}
	if cfg.Session.HeartbeatTimeout >= cfg.Session.Timeout {
		return errors.New("session.heartbeat_timeout must be shorter than session.timeout")
	}
	if cfg.Session.DefaultQuota < 1 {
		return errors.New("session.default_quota must be >= 1")
	}
	if cfg.Rate.Burst < 1 {
		return errors.New("rate.burst must be >= 1")
	}
	if cfg.Breaker.MaxFailures < 1 {
		return errors.New("breaker.max_failures must be >= 1")
	}
	return nil
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt32(dst *int32, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 32); err == nil {
			*dst = int32(n)
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setDuration(dst *time.Duration, key string) {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			*dst = d
		}
	}
}
