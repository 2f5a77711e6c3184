package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/yaml.v3"
)

// InsecureSecret is the built-in signing key, accepted only in development
// and test environments.
const InsecureSecret = "supersecretkey"

// EnvName selects the deployment environment (development, test, production).
const EnvName = "JOBLY_ENV"

type Config struct {
	Addr           string        `yaml:"addr" env:"JOBLY_ADDR,default=:3000"`
	JWTSecret      string        `yaml:"jwt_secret" env:"JOBLY_SECRET_KEY,default=supersecretkey"`
	APITimeout     time.Duration `yaml:"timeout" env:"JOBLY_TIMEOUT,default=15s"`
	DatabaseURL    string        `yaml:"database_url" env:"DATABASE_URL,default=postgres://localhost:5432/jobly?sslmode=disable"`
	TokenDuration  time.Duration `yaml:"token_duration" env:"JOBLY_TOKEN_DURATION,default=24h"`
	BcryptCost     int           `yaml:"bcrypt_cost" env:"JOBLY_BCRYPT_COST,default=12"`
	MigrateOnStart bool          `yaml:"migrate_on_start" env:"JOBLY_MIGRATE_ON_START,default=false"`
	LogLevel       string        `yaml:"log_level" env:"JOBLY_LOG_LEVEL,default=info"`
	Redis          RedisConfig   `yaml:"redis"`
}

// RedisConfig enables server-side logout when Addr is set.
type RedisConfig struct {
	Addr     string `yaml:"addr" env:"JOBLY_REDIS_ADDR"`
	Password string `yaml:"password" env:"JOBLY_REDIS_PASSWORD"`
	DB       int    `yaml:"db" env:"JOBLY_REDIS_DB,default=0"`
}

// LoadConfig reads the environment and then overlays the YAML file at path,
// when path is not empty.
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}
	if err := envdecode.Decode(cfg); err != nil && !errors.Is(err, envdecode.ErrNoTargetFieldsAreSet) {
		return nil, fmt.Errorf("decode env: %w", err)
	}

	if path != "" {
		f, err := os.Open(path)
		if err != nil {
			return nil, err
		}
		defer f.Close()

		dec := yaml.NewDecoder(f)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("decode %s: %w", path, err)
		}
	}

	return cfg, nil
}

// Validate checks the configuration before the server starts.
func (c *Config) Validate() error {
	if c.Addr == "" {
		return errors.New("addr is required")
	}
	if c.DatabaseURL == "" {
		return errors.New("database_url is required")
	}
	if c.JWTSecret == "" {
		return errors.New("jwt_secret is required")
	}
	if c.JWTSecret == InsecureSecret && !IsDevelopment() {
		return fmt.Errorf("jwt_secret uses the insecure default; set JOBLY_SECRET_KEY or %s=development", EnvName)
	}
	if c.TokenDuration <= 0 {
		return errors.New("token_duration must be positive")
	}
	if c.APITimeout <= 0 {
		return errors.New("timeout must be positive")
	}
	if c.BcryptCost < bcrypt.MinCost || c.BcryptCost > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt_cost must be between %d and %d", bcrypt.MinCost, bcrypt.MaxCost)
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

// IsDevelopment reports whether JOBLY_ENV allows development defaults.
func IsDevelopment() bool {
	switch strings.ToLower(os.Getenv(EnvName)) {
	case "development", "dev", "test":
		return true
	}
	return false
}

// ParseLevel maps a config log level to slog. Empty means info.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "", "info":
		return slog.LevelInfo, nil
	case "debug":
		return slog.LevelDebug, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log_level %q", s)
}
