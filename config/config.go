// Package config reads School Hub settings from the environment, with an
// optional .env file applied first.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/url"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Storage selects the repository implementation.
type Storage string

const (
	StoragePostgres Storage = "postgres"
	StorageMemory   Storage = "memory"
)

// Config is the complete process configuration.
type Config struct {
	App           AppConfig
	HTTP          HTTPConfig
	Database      DatabaseConfig
	Redis         RedisConfig
	Auth          AuthConfig
	Promotion     PromotionConfig
	Observability ObservabilityConfig
}

type AppConfig struct {
	Name            string
	Environment     Environment
	Debug           bool
	Version         string
	Storage         Storage
	ShutdownTimeout time.Duration
}

type HTTPConfig struct {
	Host           string
	Port           int
	ReadTimeout    time.Duration
	WriteTimeout   time.Duration
	IdleTimeout    time.Duration
	AllowedOrigins []string

	// RateLimitPerMinute is per client IP; 0 turns limiting off.
	RateLimitPerMinute int
}

type DatabaseConfig struct {
	// URL is either DATABASE_URL or assembled from the DB_* variables.
	URL string

	MaxConns        int
	MinConns        int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration

	ConnectAttempts int
	AutoMigrate     bool
}

// RedisConfig is only used when Enabled; it backs the promotion batch lock.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
	LockTTL  time.Duration
}

type AuthConfig struct {
	JWTSecret  string
	TokenTTL   time.Duration
	Issuer     string
	BcryptCost int
}

// PromotionConfig controls the background automatic promotion job.
type PromotionConfig struct {
	Enabled    bool
	Interval   time.Duration
	RunAtStart bool
}

type ObservabilityConfig struct {
	LogLevel  string // debug | info | warn | error
	LogFormat string // json | text
}

// Load reads .env (if present) and the process environment, then validates.
// Malformed values are reported rather than silently replaced by defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	e := &envReader{}
	env := Environment(e.str("APP_ENV", string(EnvDevelopment)))

	cfg := &Config{
		App: AppConfig{
			Name:            e.str("APP_NAME", "school-hub"),
			Environment:     env,
			Debug:           e.boolean("APP_DEBUG", false) || env == EnvDevelopment,
			Version:         e.str("APP_VERSION", "0.1.0"),
			Storage:         Storage(strings.ToLower(e.str("STORAGE", string(StoragePostgres)))),
			ShutdownTimeout: e.duration("APP_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		HTTP: HTTPConfig{
			Host:               e.str("HTTP_HOST", "0.0.0.0"),
			Port:               e.integer("PORT", 8080),
			ReadTimeout:        e.duration("HTTP_READ_TIMEOUT", 15*time.Second),
			WriteTimeout:       e.duration("HTTP_WRITE_TIMEOUT", time.Minute),
			IdleTimeout:        e.duration("HTTP_IDLE_TIMEOUT", time.Minute),
			AllowedOrigins:     e.list("HTTP_ALLOWED_ORIGINS", []string{"*"}),
			RateLimitPerMinute: e.integer("HTTP_RATE_LIMIT", 300),
		},
		Database: DatabaseConfig{
			URL:             databaseURL(e),
			MaxConns:        e.integer("DB_MAX_CONNS", 10),
			MinConns:        e.integer("DB_MIN_CONNS", 2),
			ConnMaxLifetime: e.duration("DB_CONN_MAX_LIFETIME", time.Hour),
			ConnMaxIdleTime: e.duration("DB_CONN_MAX_IDLE_TIME", 30*time.Minute),
			ConnectAttempts: e.integer("DB_CONNECT_ATTEMPTS", 5),
			AutoMigrate:     e.boolean("DB_AUTO_MIGRATE", true),
		},
		Redis: RedisConfig{
			Enabled:  e.boolean("REDIS_ENABLED", false),
			Host:     e.str("REDIS_HOST", "localhost"),
			Port:     e.integer("REDIS_PORT", 6379),
			Password: e.str("REDIS_PASSWORD", ""),
			DB:       e.integer("REDIS_DB", 0),
			LockTTL:  e.duration("REDIS_LOCK_TTL", 30*time.Minute),
		},
		Auth: AuthConfig{
			JWTSecret:  e.str("JWT_SECRET", ""),
			TokenTTL:   e.duration("JWT_TTL", 24*time.Hour),
			Issuer:     e.str("JWT_ISSUER", "school-hub"),
			BcryptCost: e.integer("BCRYPT_COST", 10),
		},
		Promotion: PromotionConfig{
			Enabled:    e.boolean("PROMOTION_JOB_ENABLED", true),
			Interval:   e.duration("PROMOTION_JOB_INTERVAL", 24*time.Hour),
			RunAtStart: e.boolean("PROMOTION_JOB_RUN_AT_START", true),
		},
		Observability: ObservabilityConfig{
			LogLevel:  e.str("LOG_LEVEL", "info"),
			LogFormat: e.str("LOG_FORMAT", "json"),
		},
	}

	problems := append(e.problems, cfg.problems()...)
	if len(problems) > 0 {
		return nil, fmt.Errorf("config validation: %w", joinProblems(problems))
	}
	return cfg, nil
}

// databaseURL prefers DATABASE_URL and falls back to DB_HOST/DB_USER/... parts.
func databaseURL(e *envReader) string {
	if u := e.str("DATABASE_URL", ""); u != "" {
		return u
	}

	host, user := e.str("DB_HOST", ""), e.str("DB_USER", "")
	if host == "" || user == "" {
		return ""
	}

	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(user, e.str("DB_PASSWORD", "")),
		Host:     net.JoinHostPort(host, e.str("DB_PORT", "5432")),
		Path:     "/" + e.str("DB_NAME", "school"),
		RawQuery: url.Values{"sslmode": {e.str("DB_SSLMODE", "disable")}}.Encode(),
	}
	return u.String()
}

// Validate reports every semantic problem in c at once.
func (c *Config) Validate() error {
	if p := c.problems(); len(p) > 0 {
		return joinProblems(p)
	}
	return nil
}

func (c *Config) problems() []string {
	var out []string

	if c.Auth.JWTSecret == "" {
		out = append(out, "JWT_SECRET is required")
	}

	switch c.App.Storage {
	case StoragePostgres:
		if c.Database.URL == "" {
			out = append(out, "DATABASE_URL is required when STORAGE=postgres")
		}
	case StorageMemory:
		if c.IsProduction() {
			out = append(out, "STORAGE=memory is not allowed in production")
		}
	default:
		out = append(out, fmt.Sprintf("STORAGE must be postgres or memory, got %q", c.App.Storage))
	}

	if c.HTTP.Port < 1 || c.HTTP.Port > 65535 {
		out = append(out, "PORT must be 1-65535")
	}
	if c.Promotion.Enabled && c.Promotion.Interval <= 0 {
		out = append(out, "PROMOTION_JOB_INTERVAL must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		out = append(out, "BCRYPT_COST must be 4-31")
	}

	return out
}

func joinProblems(p []string) error {
	return errors.New("configuration errors:\n  - " + strings.Join(p, "\n  - "))
}

func (c *Config) IsDevelopment() bool { return c.App.Environment == EnvDevelopment }

func (c *Config) IsProduction() bool { return c.App.Environment == EnvProduction }
