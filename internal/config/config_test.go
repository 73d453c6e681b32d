package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadFromYAMLWithDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
server:
  port: 9090
database:
  dsn: data/app.db
jwt:
  secret: yaml-secret
`
	if errWrite := os.WriteFile(path, []byte(content), 0o644); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}

	cfg, errLoad := Load(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.Server.Port != 9090 {
		t.Fatalf("expected port 9090, got %d", cfg.Server.Port)
	}
	if cfg.JWT.ExpiryHours != 24 {
		t.Fatalf("expected default expiry 24h, got %d", cfg.JWT.ExpiryHours)
	}
	if cfg.Log.Level != "info" {
		t.Fatalf("expected default log level info, got %s", cfg.Log.Level)
	}
	if cfg.Server.Addr() != ":9090" {
		t.Fatalf("unexpected addr: %s", cfg.Server.Addr())
	}
}

func TestEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
database:
  dsn: data/app.db
jwt:
  secret: yaml-secret
`
	if errWrite := os.WriteFile(path, []byte(content), 0o644); errWrite != nil {
		t.Fatalf("write config: %v", errWrite)
	}
	t.Setenv("DATABASE_DSN", "postgres://localhost/eventhub")
	t.Setenv("JWT_SECRET", "env-secret")
	t.Setenv("SERVER_PORT", "7000")

	cfg, errLoad := Load(path)
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.Database.DSN != "postgres://localhost/eventhub" {
		t.Fatalf("expected env dsn, got %s", cfg.Database.DSN)
	}
	if cfg.JWT.Secret != "env-secret" {
		t.Fatalf("expected env secret, got %s", cfg.JWT.Secret)
	}
	if cfg.Server.Port != 7000 {
		t.Fatalf("expected env port 7000, got %d", cfg.Server.Port)
	}
}

func TestLoadMissingFileUsesEnvironment(t *testing.T) {
	t.Setenv("DATABASE_DSN", ":memory:")
	t.Setenv("JWT_SECRET", "env-only")

	cfg, errLoad := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if errLoad != nil {
		t.Fatalf("load: %v", errLoad)
	}
	if cfg.Database.DSN != ":memory:" || cfg.JWT.Secret != "env-only" {
		t.Fatalf("unexpected config: %+v", cfg)
	}
}

func TestLoadRequiresSecretAndDSN(t *testing.T) {
	t.Setenv("DATABASE_DSN", "")
	t.Setenv("JWT_SECRET", "")
	if _, errLoad := Load(filepath.Join(t.TempDir(), "missing.yaml")); errLoad == nil {
		t.Fatal("expected error when dsn and secret are absent")
	}
}

func TestResolveConfigPath(t *testing.T) {
	if got := ResolveConfigPath("explicit.yaml"); got != "explicit.yaml" {
		t.Fatalf("explicit path must win, got %s", got)
	}
	t.Setenv("CONFIG_PATH", "from-env.yaml")
	if got := ResolveConfigPath(""); got != "from-env.yaml" {
		t.Fatalf("expected env path, got %s", got)
	}
	os.Unsetenv("CONFIG_PATH")
	if got := ResolveConfigPath(""); got != "config.yaml" {
		t.Fatalf("expected default, got %s", got)
	}
}
