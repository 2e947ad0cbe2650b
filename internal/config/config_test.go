package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if errWrite := os.WriteFile(path, []byte(content), 0o600); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}
	return path
}

func TestLoadDatabaseDSN_EnvOverridesFile(t *testing.T) {
	path := writeConfigFile(t, "database-dsn: \"file:file.db\"\n")

	dsn, errLoad := LoadDatabaseDSN(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if dsn != "file:file.db" {
		t.Fatalf("unexpected dsn: %q", dsn)
	}

	t.Setenv(EnvDBConnection, "file:env.db")
	dsn, errLoad = LoadDatabaseDSN(path)
	if errLoad != nil {
		t.Fatalf("load with env: %v", errLoad)
	}
	if dsn != "file:env.db" {
		t.Fatalf("expected env dsn to win, got %q", dsn)
	}
}

func TestLoadDatabaseDSN_Missing(t *testing.T) {
	path := writeConfigFile(t, "jwt:\n  secret: abc\n")

	if _, errLoad := LoadDatabaseDSN(path); errLoad != ErrMissingDatabaseDSN {
		t.Fatalf("expected ErrMissingDatabaseDSN, got %v", errLoad)
	}
}

func TestLoadJWTConfig_Defaults(t *testing.T) {
	path := writeConfigFile(t, "jwt:\n  secret: abc\n")

	cfg, errLoad := LoadJWTConfig(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.Secret != "abc" {
		t.Fatalf("unexpected secret: %q", cfg.Secret)
	}
	if cfg.Expiry != 30*24*time.Hour {
		t.Fatalf("expected default expiry, got %v", cfg.Expiry)
	}
}

func TestLoadWhoopConfig_Defaults(t *testing.T) {
	path := writeConfigFile(t, "whoop:\n  client-id: id\n  client-secret: sec\n")

	cfg, errLoad := LoadWhoopConfig(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.ClientID != "id" || cfg.ClientSecret != "sec" {
		t.Fatalf("unexpected credentials: %+v", cfg)
	}
	if cfg.APIBaseURL == "" || cfg.TokenURL == "" || cfg.AuthURL == "" {
		t.Fatal("expected endpoint defaults filled in")
	}
}

func TestLoadSyncConfig(t *testing.T) {
	path := writeConfigFile(t, "sync:\n  secret: batch-secret\n  interval: 1h\n  window-days: 14\n")

	cfg, errLoad := LoadSyncConfig(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.Secret != "batch-secret" || cfg.Interval != time.Hour || cfg.WindowDays != 14 {
		t.Fatalf("unexpected config: %+v", cfg)
	}

	t.Setenv(EnvSyncSecret, "env-secret")
	cfg, _ = LoadSyncConfig(path)
	if cfg.Secret != "env-secret" {
		t.Fatalf("expected env secret to win, got %q", cfg.Secret)
	}
}

func TestLoadSyncConfig_WindowDefault(t *testing.T) {
	path := writeConfigFile(t, "sync:\n  secret: s\n")

	cfg, _ := LoadSyncConfig(path)
	if cfg.WindowDays != 7 {
		t.Fatalf("expected default window of 7 days, got %d", cfg.WindowDays)
	}
}

func TestLoadRateLimitConfig_Defaults(t *testing.T) {
	path := writeConfigFile(t, "jwt:\n  secret: abc\n")

	cfg, errLoad := LoadRateLimitConfig(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.PerSecond != 1 {
		t.Fatalf("expected default per-second limit of 1, got %d", cfg.PerSecond)
	}
	if cfg.RedisPrefix == "" {
		t.Fatal("expected default redis prefix")
	}
}
