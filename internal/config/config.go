package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	EnvConfigPath        = "CONFIG_PATH"
	EnvDBConnection      = "DB_CONNECTION"
	EnvJWTSecret         = "JWT_SECRET"
	EnvJWTExpiry         = "JWT_EXPIRY"
	EnvWhoopClientID     = "WHOOP_CLIENT_ID"
	EnvWhoopClientSecret = "WHOOP_CLIENT_SECRET"
	EnvSyncSecret        = "SYNC_SECRET"
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

// JWTConfig holds JWT secret and expiry settings.
type JWTConfig struct {
	Secret string        `yaml:"secret"`
	Expiry time.Duration `yaml:"expiry"`
}

// defaultJWTExpiry is used when the config omits or invalidates JWT expiry.
const defaultJWTExpiry = 30 * 24 * time.Hour

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

// Whoop API defaults.
const (
	defaultWhoopAPIBaseURL = "https://api.prod.whoop.com/developer"
	defaultWhoopTokenURL   = "https://api.prod.whoop.com/oauth/oauth2/token"
	defaultWhoopAuthURL    = "https://api.prod.whoop.com/oauth/oauth2/auth"
)

// WhoopConfig holds Whoop OAuth and API settings.
type WhoopConfig struct {
	ClientID     string `yaml:"client-id"`
	ClientSecret string `yaml:"client-secret"`
	RedirectURL  string `yaml:"redirect-url"`
	APIBaseURL   string `yaml:"api-base-url"`
	TokenURL     string `yaml:"token-url"`
	AuthURL      string `yaml:"auth-url"`
}

// LoadWhoopConfig loads Whoop settings from the YAML config file.
func LoadWhoopConfig(configPath string) (WhoopConfig, error) {
	// fileConfig maps the YAML fields needed for Whoop settings.
	type fileConfig struct {
		Whoop WhoopConfig `yaml:"whoop"`
	}

	var result WhoopConfig

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result = cfg.Whoop
		}
	}

	if id := strings.TrimSpace(os.Getenv(EnvWhoopClientID)); id != "" {
		result.ClientID = id
	}
	if secret := strings.TrimSpace(os.Getenv(EnvWhoopClientSecret)); secret != "" {
		result.ClientSecret = secret
	}

	if strings.TrimSpace(result.APIBaseURL) == "" {
		result.APIBaseURL = defaultWhoopAPIBaseURL
	}
	if strings.TrimSpace(result.TokenURL) == "" {
		result.TokenURL = defaultWhoopTokenURL
	}
	if strings.TrimSpace(result.AuthURL) == "" {
		result.AuthURL = defaultWhoopAuthURL
	}
	return result, nil
}

// Sync defaults.
const (
	defaultSyncWindowDays = 7
)

// SyncConfig holds scheduled-sync settings.
type SyncConfig struct {
	Secret     string
	Interval   time.Duration
	WindowDays int
}

// LoadSyncConfig loads sync settings from the YAML config file.
func LoadSyncConfig(configPath string) (SyncConfig, error) {
	// fileConfig maps the YAML fields needed for sync settings. The interval
	// is a duration string ("30m", "1h").
	type fileConfig struct {
		Sync struct {
			Secret     string `yaml:"secret"`
			Interval   string `yaml:"interval"`
			WindowDays int    `yaml:"window-days"`
		} `yaml:"sync"`
	}

	var result SyncConfig

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil {
			result.Secret = cfg.Sync.Secret
			result.WindowDays = cfg.Sync.WindowDays
			if raw := strings.TrimSpace(cfg.Sync.Interval); raw != "" {
				if interval, errParse := time.ParseDuration(raw); errParse == nil {
					result.Interval = interval
				}
			}
		}
	}

	if secret := strings.TrimSpace(os.Getenv(EnvSyncSecret)); secret != "" {
		result.Secret = secret
	}
	if result.Interval < 0 {
		result.Interval = 0
	}
	if result.WindowDays <= 0 {
		result.WindowDays = defaultSyncWindowDays
	}
	return result, nil
}

// RateLimitConfig holds trigger-endpoint rate limit settings.
type RateLimitConfig struct {
	PerSecond     int    `yaml:"per-second"`
	RedisEnabled  bool   `yaml:"redis-enabled"`
	RedisAddr     string `yaml:"redis-addr"`
	RedisPassword string `yaml:"redis-password"`
	RedisDB       int    `yaml:"redis-db"`
	RedisPrefix   string `yaml:"redis-prefix"`
}

// defaultRateLimitPerSecond bounds manual sync triggers per user.
const defaultRateLimitPerSecond = 1

// LoadRateLimitConfig loads rate limit settings from the YAML config file.
func LoadRateLimitConfig(configPath string) (RateLimitConfig, error) {
	// fileConfig maps the YAML fields needed for rate limit settings.
	type fileConfig struct {
		RateLimit RateLimitConfig `yaml:"rate-limit"`
	}

	result := RateLimitConfig{PerSecond: defaultRateLimitPerSecond}

	data, errRead := os.ReadFile(configPath)
	if errRead == nil {
		var cfg fileConfig
		if errUnmarshal := yaml.Unmarshal(data, &cfg); errUnmarshal == nil && cfg.RateLimit != (RateLimitConfig{}) {
			result = cfg.RateLimit
		}
	}

	result.RedisAddr = strings.TrimSpace(result.RedisAddr)
	result.RedisPassword = strings.TrimSpace(result.RedisPassword)
	result.RedisPrefix = strings.TrimSpace(result.RedisPrefix)
	if result.RedisPrefix == "" {
		result.RedisPrefix = "vitalsync:ratelimit"
	}
	if result.RedisDB < 0 {
		result.RedisDB = 0
	}
	if result.PerSecond < 0 {
		result.PerSecond = 0
	}
	return result, nil
}
