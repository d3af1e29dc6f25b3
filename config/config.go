package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root application configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Log        LogConfig        `mapstructure:"log"`
	Compliance ComplianceConfig `mapstructure:"compliance"`
	Optimizer  OptimizerConfig  `mapstructure:"optimizer"`
	Scheduling SchedulingConfig `mapstructure:"scheduling"`
	Swap       SwapConfig       `mapstructure:"swap"`
}

// ServerConfig HTTP server settings.
type ServerConfig struct {
	Port      int             `mapstructure:"port"`
	BaseURL   string          `mapstructure:"base_url"`
	BodyLimit int64           `mapstructure:"body_limit"`
	CORS      CORSConfig      `mapstructure:"cors"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	// HSTSMaxAge 0 disables Strict-Transport-Security.
	HSTSMaxAge time.Duration `mapstructure:"hsts_max_age"`
}

// CORSConfig cross-origin settings.
type CORSConfig struct {
	AllowOrigins []string      `mapstructure:"allow_origins"`
	MaxAge       time.Duration `mapstructure:"max_age"`
}

// RateLimitConfig applies to the auth endpoints and the optimizer.
type RateLimitConfig struct {
	Limit  int           `mapstructure:"limit"`
	Window time.Duration `mapstructure:"window"`
}

// DatabaseConfig selects the gorm driver and its connection parameters.
// Driver "sqlite" uses Path and is intended for local runs.
type DatabaseConfig struct {
	Driver          string `mapstructure:"driver"` // postgres | sqlite
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	Name            string `mapstructure:"name"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	SSLMode         string `mapstructure:"sslmode"`
	Timezone        string `mapstructure:"timezone"`
	Path            string `mapstructure:"path"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"`  // minutes
	ConnMaxIdleTime int    `mapstructure:"conn_max_idle_time"` // minutes
}

// DSN builds the PostgreSQL connection string.
func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"host=%s port=%d user=%s password=%s dbname=%s sslmode=%s TimeZone=%s",
		c.Host, c.Port, c.User, c.Password, c.Name, c.SSLMode, c.Timezone,
	)
}

// RedisConfig Redis connection.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// AuthConfig JWT settings.
type AuthConfig struct {
	JWTSecret       string        `mapstructure:"jwt_secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
	// BootstrapAdmin* create the first admin on startup when no account
	// with that email exists. Both empty disables it.
	BootstrapAdminEmail    string `mapstructure:"bootstrap_admin_email"`
	BootstrapAdminPassword string `mapstructure:"bootstrap_admin_password"`
}

// LogConfig logger settings.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// BreakRule requires MinBreakMinutes once a shift spans at least MinSpanHours.
type BreakRule struct {
	MinSpanHours    float64 `mapstructure:"min_span_hours"`
	MinBreakMinutes int     `mapstructure:"min_break_minutes"`
}

// ComplianceConfig labor rule values.
type ComplianceConfig struct {
	MaxWeeklyHours   float64     `mapstructure:"max_weekly_hours"`
	MaxDailyHours    float64     `mapstructure:"max_daily_hours"`
	MaxDaysPerWindow int         `mapstructure:"max_days_per_window"`
	NearLimitBuffer  float64     `mapstructure:"near_limit_buffer"`
	BreakRules       []BreakRule `mapstructure:"break_rules"`
	StoreOpenHour    int         `mapstructure:"store_open_hour"`
	StoreCloseHour   int         `mapstructure:"store_close_hour"`
}

// OptimizerConfig solver defaults.
type OptimizerConfig struct {
	DefaultTimeout     time.Duration `mapstructure:"default_timeout"`
	PreviewTimeout     time.Duration `mapstructure:"preview_timeout"`
	MaxTimeout         time.Duration `mapstructure:"max_timeout"`
	MinCoveragePercent float64       `mapstructure:"min_coverage_percent"`
	UnderWeight        float64       `mapstructure:"under_weight"`
	OverWeight         float64       `mapstructure:"over_weight"`
	Restarts           int           `mapstructure:"restarts"`
	Seed               int64         `mapstructure:"seed"`
}

// SchedulingConfig call-out and locking settings.
type SchedulingConfig struct {
	RevertCutoff time.Duration `mapstructure:"revert_cutoff"`
	LockTTL      time.Duration `mapstructure:"lock_ttl"`
}

// SwapConfig swap workflow switches.
type SwapConfig struct {
	AcceptorCanCancel bool `mapstructure:"acceptor_can_cancel"`
}

// Load reads configuration. Precedence: env > file > defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("PICKER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.base_url", "http://localhost:8080")
	v.SetDefault("server.body_limit", 2<<20)
	v.SetDefault("server.cors.allow_origins", []string{"http://localhost:3000"})
	v.SetDefault("server.cors.max_age", "12h")
	v.SetDefault("server.hsts_max_age", "0s")
	v.SetDefault("server.rate_limit.limit", 30)
	v.SetDefault("server.rate_limit.window", "1m")

	v.SetDefault("db.driver", "postgres")
	v.SetDefault("db.host", "localhost")
	v.SetDefault("db.port", 5432)
	v.SetDefault("db.name", "picker_scheduler")
	v.SetDefault("db.user", "postgres")
	v.SetDefault("db.password", "")
	v.SetDefault("db.sslmode", "disable")
	v.SetDefault("db.timezone", "UTC")
	v.SetDefault("db.path", "picker_scheduler.db")
	v.SetDefault("db.max_open_conns", 25)
	v.SetDefault("db.max_idle_conns", 10)
	v.SetDefault("db.conn_max_lifetime", 60)
	v.SetDefault("db.conn_max_idle_time", 30)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.access_token_ttl", "15m")
	v.SetDefault("auth.refresh_token_ttl", "168h")
	v.SetDefault("auth.bootstrap_admin_email", "")
	v.SetDefault("auth.bootstrap_admin_password", "")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("compliance.max_weekly_hours", 44)
	v.SetDefault("compliance.max_daily_hours", 8)
	v.SetDefault("compliance.max_days_per_window", 6)
	v.SetDefault("compliance.near_limit_buffer", 4)
	v.SetDefault("compliance.break_rules", []map[string]interface{}{
		{"min_span_hours": 8, "min_break_minutes": 30},
		{"min_span_hours": 9, "min_break_minutes": 60},
	})
	v.SetDefault("compliance.store_open_hour", 8)
	v.SetDefault("compliance.store_close_hour", 22)

	v.SetDefault("optimizer.default_timeout", "60s")
	v.SetDefault("optimizer.preview_timeout", "30s")
	v.SetDefault("optimizer.max_timeout", "300s")
	v.SetDefault("optimizer.min_coverage_percent", 90)
	v.SetDefault("optimizer.under_weight", 10)
	v.SetDefault("optimizer.over_weight", 1)
	v.SetDefault("optimizer.restarts", 24)
	v.SetDefault("optimizer.seed", 1)

	v.SetDefault("scheduling.revert_cutoff", "2h")
	v.SetDefault("scheduling.lock_ttl", "30s")

	v.SetDefault("swap.acceptor_can_cancel", false)
}

// Validate rejects configurations the service cannot run with.
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("config: auth.jwt_secret is required")
	}
	if len(c.Auth.JWTSecret) < 16 {
		return fmt.Errorf("config: auth.jwt_secret must be at least 16 characters")
	}
	if c.Auth.BootstrapAdminEmail != "" && len(c.Auth.BootstrapAdminPassword) < 8 {
		return fmt.Errorf("config: auth.bootstrap_admin_password must be at least 8 characters")
	}
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("config: server.port must be within 1-65535")
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("config: unsupported db.driver %q", c.Database.Driver)
	}
	if c.Compliance.MaxWeeklyHours <= 0 || c.Compliance.MaxDailyHours <= 0 {
		return fmt.Errorf("config: compliance hour limits must be positive")
	}
	if c.Compliance.MaxDaysPerWindow < 1 || c.Compliance.MaxDaysPerWindow > 7 {
		return fmt.Errorf("config: compliance.max_days_per_window must be within 1-7")
	}
	if c.Compliance.StoreOpenHour < 0 || c.Compliance.StoreCloseHour > 24 ||
		c.Compliance.StoreOpenHour >= c.Compliance.StoreCloseHour {
		return fmt.Errorf("config: invalid store hours %d-%d", c.Compliance.StoreOpenHour, c.Compliance.StoreCloseHour)
	}
	if c.Optimizer.MinCoveragePercent < 0 || c.Optimizer.MinCoveragePercent > 100 {
		return fmt.Errorf("config: optimizer.min_coverage_percent must be within 0-100")
	}
	if c.Scheduling.RevertCutoff < 0 {
		return fmt.Errorf("config: scheduling.revert_cutoff must not be negative")
	}
	return nil
}
