package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the wholesale service
type Config struct {
	App         AppConfig
	Database    DatabaseConfig
	Redis       RedisConfig
	Log         LogConfig
	Bookkeeping BookkeepingConfig
	Retry       RetryConfig
	Numbering   NumberingConfig
	Telemetry   TelemetryConfig
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string // debug, info, warn, error
	Format string // json, console
	Output string // stdout, stderr, or file path
}

// AppConfig holds application configuration
type AppConfig struct {
	Name string
	Env  string
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	DBName          string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime int // in minutes
	ConnMaxIdleTime int // in minutes
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	ChartTTL time.Duration // account mapping cache lifetime
}

// BookkeepingConfig holds ledger posting configuration
type BookkeepingConfig struct {
	VersionTag      string // stamped into journal idempotency keys
	DefaultTimezone string // used for date_completed when a request carries none
}

// RetryConfig holds retry limits for numbered creations
type RetryConfig struct {
	UniqueViolationAttempts int
}

// NumberingConfig holds document numbering configuration
type NumberingConfig struct {
	Backend        string // database or redis
	OrderPrefix    string
	ShipmentPrefix string
	PaymentPrefix  string
	Width          int
}

// TelemetryConfig holds OpenTelemetry configuration
type TelemetryConfig struct {
	Enabled           bool    // Whether to enable OpenTelemetry tracing
	MetricsEnabled    bool    // Whether to export metrics
	CollectorEndpoint string  // OTEL Collector endpoint (e.g., "localhost:4317")
	SamplingRatio     float64 // Sampling ratio (0.0-1.0, 1.0 = 100%)
	ServiceName       string
	Insecure          bool // Use insecure (non-TLS) connection (development only)
	ExportInterval    time.Duration

	DBTraceEnabled    bool          // Enable database query tracing (otelgorm)
	DBLogFullSQL      bool          // Log full SQL statements (dev only)
	DBSlowQueryThresh time.Duration // Slow query threshold for warnings (default: 200ms)
}

// EnvPrefix is the prefix for environment overrides, e.g. WHOLESALE_DATABASE_PASSWORD
const EnvPrefix = "WHOLESALE"

// Load loads configuration from .env, wholesale.toml and environment variables
// Priority (highest to lowest):
// 1. Environment variables with WHOLESALE_ prefix
// 2. Variables from a .env file in the working directory
// 3. wholesale.toml
// 4. Built-in defaults
func Load() (*Config, error) {
	// A missing .env is normal outside local development
	_ = godotenv.Load()
	return LoadFrom(viper.New(), ".", "/etc/wholesale")
}

// LoadFrom reads configuration with v, searching paths for wholesale.toml
func LoadFrom(v *viper.Viper, paths ...string) (*Config, error) {
	v.SetConfigName("wholesale")
	v.SetConfigType("toml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	cfg := &Config{
		App: AppConfig{
			Name: v.GetString("app.name"),
			Env:  v.GetString("app.env"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("database.host"),
			Port:            v.GetInt("database.port"),
			User:            v.GetString("database.user"),
			Password:        v.GetString("database.password"),
			DBName:          v.GetString("database.dbname"),
			SSLMode:         v.GetString("database.sslmode"),
			MaxOpenConns:    v.GetInt("database.max_open_conns"),
			MaxIdleConns:    v.GetInt("database.max_idle_conns"),
			ConnMaxLifetime: v.GetInt("database.conn_max_lifetime"),
			ConnMaxIdleTime: v.GetInt("database.conn_max_idle_time"),
		},
		Redis: RedisConfig{
			Enabled:  v.GetBool("redis.enabled"),
			Host:     v.GetString("redis.host"),
			Port:     v.GetInt("redis.port"),
			Password: v.GetString("redis.password"),
			DB:       v.GetInt("redis.db"),
			ChartTTL: v.GetDuration("redis.chart_ttl"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
			Output: v.GetString("log.output"),
		},
		Bookkeeping: BookkeepingConfig{
			VersionTag:      v.GetString("bookkeeping.version_tag"),
			DefaultTimezone: v.GetString("bookkeeping.default_timezone"),
		},
		Retry: RetryConfig{
			UniqueViolationAttempts: v.GetInt("retry.unique_violation_attempts"),
		},
		Numbering: NumberingConfig{
			Backend:        v.GetString("numbering.backend"),
			OrderPrefix:    v.GetString("numbering.order_prefix"),
			ShipmentPrefix: v.GetString("numbering.shipment_prefix"),
			PaymentPrefix:  v.GetString("numbering.payment_prefix"),
			Width:          v.GetInt("numbering.width"),
		},
		Telemetry: TelemetryConfig{
			Enabled:           v.GetBool("telemetry.enabled"),
			MetricsEnabled:    v.GetBool("telemetry.metrics_enabled"),
			CollectorEndpoint: v.GetString("telemetry.collector_endpoint"),
			SamplingRatio:     v.GetFloat64("telemetry.sampling_ratio"),
			ServiceName:       v.GetString("telemetry.service_name"),
			Insecure:          v.GetBool("telemetry.insecure"),
			ExportInterval:    v.GetDuration("telemetry.export_interval"),
			DBTraceEnabled:    v.GetBool("telemetry.db_trace_enabled"),
			DBLogFullSQL:      v.GetBool("telemetry.db_log_full_sql"),
			DBSlowQueryThresh: v.GetDuration("telemetry.db_slow_query_threshold"),
		},
	}

	applyDefaults(cfg)

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyDefaults sets default values for any empty config fields
func applyDefaults(cfg *Config) {
	if cfg.App.Name == "" {
		cfg.App.Name = "wholesale"
	}
	if cfg.App.Env == "" {
		cfg.App.Env = "development"
	}
	if cfg.Database.Host == "" {
		cfg.Database.Host = "localhost"
	}
	if cfg.Database.Port == 0 {
		cfg.Database.Port = 5432
	}
	if cfg.Database.User == "" {
		cfg.Database.User = "postgres"
	}
	if cfg.Database.DBName == "" {
		cfg.Database.DBName = "wholesale"
	}
	if cfg.Database.SSLMode == "" {
		cfg.Database.SSLMode = "disable"
	}
	if cfg.Database.MaxOpenConns == 0 {
		cfg.Database.MaxOpenConns = 25
	}
	if cfg.Database.MaxIdleConns == 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetime == 0 {
		cfg.Database.ConnMaxLifetime = 5
	}
	if cfg.Database.ConnMaxIdleTime == 0 {
		cfg.Database.ConnMaxIdleTime = 10
	}
	if cfg.Redis.Host == "" {
		cfg.Redis.Host = "localhost"
	}
	if cfg.Redis.Port == 0 {
		cfg.Redis.Port = 6379
	}
	if cfg.Redis.ChartTTL == 0 {
		cfg.Redis.ChartTTL = 10 * time.Minute
	}
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.Log.Format == "" {
		cfg.Log.Format = "json"
	}
	if cfg.Log.Output == "" {
		cfg.Log.Output = "stdout"
	}
	if cfg.Bookkeeping.VersionTag == "" {
		cfg.Bookkeeping.VersionTag = "v1"
	}
	if cfg.Bookkeeping.DefaultTimezone == "" {
		cfg.Bookkeeping.DefaultTimezone = "UTC"
	}
	if cfg.Retry.UniqueViolationAttempts == 0 {
		cfg.Retry.UniqueViolationAttempts = 3
	}
	if cfg.Numbering.Backend == "" {
		cfg.Numbering.Backend = "database"
	}
	if cfg.Numbering.OrderPrefix == "" {
		cfg.Numbering.OrderPrefix = "SO"
	}
	if cfg.Numbering.ShipmentPrefix == "" {
		cfg.Numbering.ShipmentPrefix = "SHP"
	}
	if cfg.Numbering.PaymentPrefix == "" {
		cfg.Numbering.PaymentPrefix = "PAY"
	}
	if cfg.Numbering.Width == 0 {
		cfg.Numbering.Width = 6
	}
	if cfg.Telemetry.CollectorEndpoint == "" {
		cfg.Telemetry.CollectorEndpoint = "localhost:4317"
	}
	if cfg.Telemetry.SamplingRatio == 0 && cfg.App.Env == "development" {
		cfg.Telemetry.SamplingRatio = 1.0
	}
	if cfg.Telemetry.ServiceName == "" {
		cfg.Telemetry.ServiceName = cfg.App.Name
	}
	if cfg.Telemetry.ExportInterval == 0 {
		cfg.Telemetry.ExportInterval = 60 * time.Second
	}
	if cfg.Telemetry.DBSlowQueryThresh == 0 {
		cfg.Telemetry.DBSlowQueryThresh = 200 * time.Millisecond
	}
}

// validate performs validation on the configuration
func (c *Config) validate() error {
	if c.Database.MaxOpenConns <= 0 {
		return fmt.Errorf("database.max_open_conns must be positive")
	}
	if c.Database.MaxIdleConns < 0 {
		return fmt.Errorf("database.max_idle_conns cannot be negative")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return fmt.Errorf("database.max_idle_conns (%d) cannot exceed database.max_open_conns (%d)",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.Retry.UniqueViolationAttempts < 1 {
		return fmt.Errorf("retry.unique_violation_attempts must be at least 1, got %d", c.Retry.UniqueViolationAttempts)
	}
	if c.Numbering.Width < 1 || c.Numbering.Width > 12 {
		return fmt.Errorf("numbering.width must be between 1 and 12, got %d", c.Numbering.Width)
	}
	switch c.Numbering.Backend {
	case "database":
	case "redis":
		if !c.Redis.Enabled {
			return fmt.Errorf("numbering.backend=redis requires redis.enabled=true")
		}
	default:
		return fmt.Errorf("numbering.backend must be database or redis, got %q", c.Numbering.Backend)
	}
	if _, err := time.LoadLocation(c.Bookkeeping.DefaultTimezone); err != nil {
		return fmt.Errorf("bookkeeping.default_timezone %q is invalid: %w", c.Bookkeeping.DefaultTimezone, err)
	}

	if c.App.Env == "production" {
		if c.Database.Password == "" {
			return fmt.Errorf("database.password is required in production")
		}
		if c.Database.SSLMode == "disable" {
			return fmt.Errorf("database.sslmode cannot be 'disable' in production")
		}
		if c.Telemetry.DBLogFullSQL {
			return fmt.Errorf("telemetry.db_log_full_sql must be false in production to prevent sensitive data exposure in traces")
		}
	}

	if c.Telemetry.SamplingRatio < 0.0 || c.Telemetry.SamplingRatio > 1.0 {
		return fmt.Errorf("telemetry.sampling_ratio must be between 0.0 and 1.0, got %f", c.Telemetry.SamplingRatio)
	}

	return nil
}

// DSN returns the database connection string with properly escaped values
func (d *DatabaseConfig) DSN() string {
	u := url.URL{
		Scheme: "postgres",
		User:   url.UserPassword(d.User, d.Password),
		Host:   fmt.Sprintf("%s:%d", d.Host, d.Port),
		Path:   d.DBName,
	}
	q := u.Query()
	q.Set("sslmode", d.SSLMode)
	u.RawQuery = q.Encode()
	return u.String()
}

// Addr returns the host:port Redis address
func (r *RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// Location resolves the default timezone; validate has already checked it
func (b *BookkeepingConfig) Location() *time.Location {
	loc, err := time.LoadLocation(b.DefaultTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
