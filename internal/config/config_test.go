package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("expected defaults for missing file, got %v", err)
	}
	if cfg.Port != "8080" || cfg.RetentionDays != 30 || cfg.SweepIntervalHours != 12 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := "port: \"9000\"\nretention_days: 7\nnats_url: nats://localhost:4222\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Port != "9000" || cfg.RetentionDays != 7 || cfg.NatsURL != "nats://localhost:4222" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.SweepIntervalHours != 12 {
		t.Fatalf("unset keys must keep defaults: %+v", cfg)
	}
}

func TestLoadRejectsBadValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("retention_days: -1\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := Load(path); err == nil {
		t.Fatalf("expected error for non-positive retention")
	}
}
