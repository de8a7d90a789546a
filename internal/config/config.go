package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/coinalerts/server/internal/mail"
)

const (
	EnvConfigPath      = "CONFIG_PATH"
	EnvDBConnection    = "DB_CONNECTION"
	EnvJWTSecret       = "JWT_SECRET"
	EnvJWTExpiry       = "JWT_EXPIRY"
	EnvSMTPPassword    = "SMTP_PASSWORD"
	EnvCronSecret      = "CRON_SECRET"
	EnvRedisURL        = "REDIS_URL"
	EnvCoinGeckoAPIKey = "COINGECKO_API_KEY"
)

// AppConfig holds resolved application configuration values.
type AppConfig struct {
	ConfigPath string
}

// LoadFromEnv loads app config from environment variables.
func LoadFromEnv() (AppConfig, error) {
	return AppConfig{ConfigPath: ResolveConfigPath(os.Getenv(EnvConfigPath))}, nil
}

// ResolveConfigPath normalizes the config path and applies defaults.
func ResolveConfigPath(p string) string {
	trimmed := strings.TrimSpace(p)
	if trimmed == "" {
		trimmed = "./config.yaml"
	}
	if abs, err := filepath.Abs(trimmed); err == nil {
		return abs
	}
	return trimmed
}

// ErrMissingDatabaseDSN indicates no database DSN is present in the config file.
var ErrMissingDatabaseDSN = errors.New("missing database dsn (set `database-dsn` or `database.dsn` in config file)")

// JWTConfig holds JWT secret and expiry settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// LoadDatabaseDSN reads the database DSN from the YAML config file.
func LoadDatabaseDSN(configPath string) (string, error) {
	if dsn := strings.TrimSpace(os.Getenv(EnvDBConnection)); dsn != "" {
		return dsn, nil
	}

	// fileConfig maps the YAML fields needed for DSN resolution.
	type fileConfig struct {
		DatabaseDSN string `yaml:"database-dsn"`
		Database    struct {
			DSN string `yaml:"dsn"`
		} `yaml:"database"`
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return "", fmt.Errorf("read config file: %w", err)
	}

	var cfg fileConfig
	if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal != nil {
		return "", fmt.Errorf("parse config file: %w", errUnmarshal)
	}

	if dsn := strings.TrimSpace(cfg.DatabaseDSN); dsn != "" {
		return dsn, nil
	}
	if dsn := strings.TrimSpace(cfg.Database.DSN); dsn != "" {
		return dsn, nil
	}
	return "", ErrMissingDatabaseDSN
}

// defaultJWTExpiry matches the 10-day bearer token validity window.
const defaultJWTExpiry = 10 * 24 * time.Hour

// LoadJWTConfig loads JWT settings from the YAML config file.
func LoadJWTConfig(configPath string) (JWTConfig, error) {
	// fileConfig maps the YAML fields needed for JWT settings.
	type fileConfig struct {
		JWT JWTConfig `yaml:"jwt"`
	}

	result := JWTConfig{Expiry: defaultJWTExpiry}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.JWT
		}
	}

	if secret := strings.TrimSpace(os.Getenv(EnvJWTSecret)); secret != "" {
		result.Secret = secret
	}
	if expiryRaw := strings.TrimSpace(os.Getenv(EnvJWTExpiry)); expiryRaw != "" {
		if expiry, errParse := time.ParseDuration(expiryRaw); errParse == nil && expiry > 0 {
			result.Expiry = expiry
		}
	}

	if result.Expiry <= 0 {
		result.Expiry = defaultJWTExpiry
	}
	return result, nil
}

// LoadSMTPConfig loads SMTP transport settings from the YAML config file.
func LoadSMTPConfig(configPath string) (mail.SMTPConfig, error) {
	// fileConfig maps the YAML fields needed for SMTP settings.
	type fileConfig struct {
		SMTP mail.SMTPConfig `yaml:"smtp"`
	}

	var result mail.SMTPConfig

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.SMTP
		}
	}

	if password := strings.TrimSpace(os.Getenv(EnvSMTPPassword)); password != "" {
		result.Password = password
	}
	if result.Port <= 0 {
		result.Port = 465
	}
	return result, nil
}

// CoinGeckoConfig holds coin metadata service settings.
type CoinGeckoConfig struct {
	BaseURL     string        `yaml:"base-url"`
	APIKey      string        `yaml:"api-key"`
	Timeout     time.Duration `yaml:"timeout"`
	SyncOnStart bool          `yaml:"sync-on-start"`
}

// LoadCoinGeckoConfig loads coin metadata service settings.
func LoadCoinGeckoConfig(configPath string) (CoinGeckoConfig, error) {
	// fileConfig maps the YAML fields needed for CoinGecko settings.
	type fileConfig struct {
		CoinGecko CoinGeckoConfig `yaml:"coingecko"`
	}

	var result CoinGeckoConfig

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.CoinGecko
		}
	}

	if key := strings.TrimSpace(os.Getenv(EnvCoinGeckoAPIKey)); key != "" {
		result.APIKey = key
	}
	if result.Timeout <= 0 {
		result.Timeout = 10 * time.Second
	}
	return result, nil
}

// AuthRateLimit holds the auth endpoint rate limit settings.
type AuthRateLimit struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

// ServerConfig holds the remaining server settings.
type ServerConfig struct {
	CronSecret    string        `yaml:"cron-secret"`
	RedisURL      string        `yaml:"redis-url"`
	AuthRateLimit AuthRateLimit `yaml:"auth-rate-limit"`
}

// LoadServerConfig loads cron, redis, and rate limit settings.
func LoadServerConfig(configPath string) (ServerConfig, error) {
	var result ServerConfig

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg ServerConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg
		}
	}

	if secret := strings.TrimSpace(os.Getenv(EnvCronSecret)); secret != "" {
		result.CronSecret = secret
	}
	if redisURL := strings.TrimSpace(os.Getenv(EnvRedisURL)); redisURL != "" {
		result.RedisURL = redisURL
	}

	if result.AuthRateLimit.Requests <= 0 {
		result.AuthRateLimit.Requests = 20
	}
	if result.AuthRateLimit.Window <= 0 {
		result.AuthRateLimit.Window = time.Minute
	}
	return result, nil
}
