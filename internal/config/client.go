package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

// ClientConfig configures the petctl command line client.
type ClientConfig struct {
	URL           string        `env:"PETCTL_URL,default=http://localhost:8080"`
	Username      string        `env:"PETCTL_USERNAME"`
	Password      string        `env:"PETCTL_PASSWORD"`
	Timeout       time.Duration `env:"PETCTL_TIMEOUT,default=10s"`
	DecayInterval time.Duration `env:"PETCTL_DECAY_INTERVAL,default=1m"`
	Log           LogConfig
}

// LoadClient reads an optional .env file and decodes the PETCTL_ variables.
func LoadClient() (*ClientConfig, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg ClientConfig
	if err := envdecode.Decode(&cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode env: %w", err)
	}
	if cfg.DecayInterval <= 0 {
		return nil, fmt.Errorf("PETCTL_DECAY_INTERVAL must be positive")
	}
	return &cfg, nil
}

// RequireCredentials reports a missing username or password.
func (c *ClientConfig) RequireCredentials() error {
	if c.Username == "" || c.Password == "" {
		return fmt.Errorf("PETCTL_USERNAME and PETCTL_PASSWORD are required")
	}
	return nil
}
