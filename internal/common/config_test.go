package common

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Dirs.Requests != "requests" || cfg.Dirs.Responses != "responses" || cfg.Dirs.Receipts != "receipts" || cfg.Dirs.Logs != "logs" {
		t.Errorf("unexpected default dirs: %+v", cfg.Dirs)
	}
	if cfg.Poll.Interval != 2*time.Second {
		t.Errorf("Poll.Interval = %v, want 2s", cfg.Poll.Interval)
	}
	if cfg.Store.Driver != StoreDriverFile {
		t.Errorf("Store.Driver = %q, want %q", cfg.Store.Driver, StoreDriverFile)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
	if got, want := cfg.AuditLogPath(), filepath.Join("logs", "payment_log.txt"); got != want {
		t.Errorf("AuditLogPath = %q, want %q", got, want)
	}
}

func TestLoadConfigFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "paymentd.yaml")
	yaml := "dirs:\n  requests: /srv/in\npoll:\n  interval: 250ms\nstore:\n  driver: sqlite\n  dsn: file:test.db\n"
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PAYMENTD_DIRS_RESPONSES", "/srv/out")

	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Dirs.Requests != "/srv/in" {
		t.Errorf("Dirs.Requests = %q, want /srv/in", cfg.Dirs.Requests)
	}
	if cfg.Dirs.Responses != "/srv/out" {
		t.Errorf("Dirs.Responses = %q, want /srv/out (env override)", cfg.Dirs.Responses)
	}
	if cfg.Poll.Interval != 250*time.Millisecond {
		t.Errorf("Poll.Interval = %v, want 250ms", cfg.Poll.Interval)
	}
	if cfg.Store.Driver != StoreDriverSQLite || cfg.Store.DSN != "file:test.db" {
		t.Errorf("unexpected store config: %+v", cfg.Store)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	var appErr *AppError
	if !errors.As(err, &appErr) || appErr.Code != "CONFIG_ERROR" {
		t.Fatalf("expected CONFIG_ERROR AppError, got %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := LoadConfig("")
		if err != nil {
			t.Fatal(err)
		}
		return cfg
	}

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty requests dir", func(c *Config) { c.Dirs.Requests = "" }},
		{"zero poll interval", func(c *Config) { c.Poll.Interval = 0 }},
		{"unknown driver", func(c *Config) { c.Store.Driver = "mongo" }},
		{"sqlite without dsn", func(c *Config) { c.Store.Driver = StoreDriverSQLite; c.Store.DSN = "" }},
		{"bad log level", func(c *Config) { c.Log.Level = "loud" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base()
			tt.mutate(cfg)
			err := cfg.Validate()
			var appErr *AppError
			if !errors.As(err, &appErr) || appErr.Code != "CONFIG_ERROR" {
				t.Fatalf("expected CONFIG_ERROR, got %v", err)
			}
		})
	}
}

func TestEnsureDirs(t *testing.T) {
	root := t.TempDir()
	cfg := &Config{Dirs: DirsConfig{
		Requests:  filepath.Join(root, "requests"),
		Responses: filepath.Join(root, "responses"),
		Receipts:  filepath.Join(root, "receipts"),
		Logs:      filepath.Join(root, "logs"),
	}}
	if err := cfg.EnsureDirs(); err != nil {
		t.Fatalf("EnsureDirs: %v", err)
	}
	for _, d := range []string{cfg.Dirs.Requests, cfg.Dirs.Responses, cfg.Dirs.Receipts, cfg.Dirs.Logs} {
		if fi, err := os.Stat(d); err != nil || !fi.IsDir() {
			t.Errorf("%s not created: %v", d, err)
		}
	}
}
