package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Server.Addr != ":8080" {
		t.Errorf("unexpected server addr %q", cfg.Server.Addr)
	}
	if cfg.Migrations.Dir != "migrations" {
		t.Errorf("unexpected migrations dir %q", cfg.Migrations.Dir)
	}
	if cfg.Migrations.AutoApply {
		t.Errorf("auto apply should default to false")
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("unexpected logging level %q", cfg.Logging.Level)
	}
	if cfg.Database.Host != "localhost" || cfg.Database.Port != 5432 {
		t.Errorf("unexpected database defaults %+v", cfg.Database)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	contents := `database:
  host: db.internal
  port: 5433
server:
  addr: ":9090"
migrations:
  dir: /srv/migrations
  auto_apply: true
logging:
  level: debug
  development: true
`
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(contents), 0o600); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := Load(dir)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	if cfg.Database.Host != "db.internal" {
		t.Errorf("unexpected database host %q", cfg.Database.Host)
	}
	if cfg.Database.Port != 5433 {
		t.Errorf("unexpected database port %d", cfg.Database.Port)
	}
	if cfg.Server.Addr != ":9090" {
		t.Errorf("unexpected server addr %q", cfg.Server.Addr)
	}
	if cfg.Migrations.Dir != "/srv/migrations" {
		t.Errorf("unexpected migrations dir %q", cfg.Migrations.Dir)
	}
	if !cfg.Migrations.AutoApply {
		t.Errorf("expected auto apply enabled")
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.Development {
		t.Errorf("unexpected logging config %+v", cfg.Logging)
	}

	// Keys missing from the file keep their defaults.
	if cfg.Database.User != "postgres" {
		t.Errorf("unexpected database user %q", cfg.Database.User)
	}
	if cfg.Database.SSLMode != "disable" {
		t.Errorf("unexpected sslmode %q", cfg.Database.SSLMode)
	}
}
