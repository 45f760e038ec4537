package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// Storage backends
const (
	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

const devJWTSecret = "dev-secret-change-me"

// Config holds all application configuration.
type Config struct {
	Env       string `env:"APP_ENV,default=production"`
	Port      string `env:"PORT,default=8080"`
	Storage   string `env:"STORAGE,default=memory"`
	Database  DatabaseConfig
	Redis     RedisConfig
	Auth      AuthConfig
	Decay     DecayConfig
	RateLimit RateLimitConfig
	Log       LogConfig
}

// DatabaseConfig contains PostgreSQL settings.
type DatabaseConfig struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DB_MAX_OPEN_CONNS,default=25"`
	MaxIdleConns    int           `env:"DB_MAX_IDLE_CONNS,default=5"`
	ConnMaxLifetime time.Duration `env:"DB_CONN_MAX_LIFETIME,default=5m"`
}

// RedisConfig contains Redis settings. An empty Addr disables Redis.
type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,default=0"`
	PoolSize int    `env:"REDIS_POOL_SIZE,default=10"`
}

// AuthConfig contains token settings.
type AuthConfig struct {
	JWTSecret       string        `env:"JWT_SECRET"`
	Issuer          string        `env:"JWT_ISSUER,default=virtualpet-api"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL,default=24h"`
	RefreshTokenTTL time.Duration `env:"REFRESH_TOKEN_TTL,default=168h"`
}

// DecayConfig controls the server-side decay job. An empty Schedule disables it.
type DecayConfig struct {
	Schedule string `env:"DECAY_SCHEDULE"`
}

// RateLimitConfig limits the unauthenticated auth endpoints per client IP.
type RateLimitConfig struct {
	RPS   float64 `env:"RATE_LIMIT_RPS,default=5"`
	Burst int     `env:"RATE_LIMIT_BURST,default=10"`
}

// LogConfig contains logger settings.
type LogConfig struct {
	Level  string `env:"LOG_LEVEL,default=info"`
	Format string `env:"LOG_FORMAT,default=json"`
}

// Load reads an optional .env file and decodes the environment into a Config.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode env: %w", err)
	}

	if err := cfg.finalize(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// IsDevelopment reports whether the service runs in development mode.
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

func (c *Config) finalize() error {
	c.Storage = strings.ToLower(strings.TrimSpace(c.Storage))

	switch c.Storage {
	case StorageMemory:
	case StoragePostgres:
		if c.Database.URL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE=%s", StoragePostgres)
		}
	default:
		return fmt.Errorf("invalid STORAGE %q: must be %s or %s", c.Storage, StorageMemory, StoragePostgres)
	}

	if c.Auth.JWTSecret == "" {
		if !c.IsDevelopment() {
			return fmt.Errorf("JWT_SECRET environment variable is not set; required outside development")
		}
		c.Auth.JWTSecret = devJWTSecret
	}

	if c.Auth.AccessTokenTTL <= 0 || c.Auth.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate limit must be positive")
	}
	return nil
}

// String returns a string representation of the config (sensitive values are masked).
func (c *Config) String() string {
	redis := "disabled"
	if c.Redis.Addr != "" {
		redis = c.Redis.Addr
	}
	decay := "disabled"
	if c.Decay.Schedule != "" {
		decay = c.Decay.Schedule
	}
	return fmt.Sprintf("Config{Env: %s, Port: %s, Storage: %s, Redis: %s, Decay: %s, Auth: *** (masked) ***}",
		c.Env, c.Port, c.Storage, redis, decay)
}
