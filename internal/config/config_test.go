package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Addr == "" || cfg.IdleTimeoutMS <= 0 || cfg.MaxFrameBytes <= 0 || cfg.MaxExpirationsPerTick <= 0 ||
		cfg.RehashBatch <= 0 || cfg.ListenBacklog <= 0 {
		t.Fatalf("DefaultConfig has a zero/empty field: %+v", cfg)
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := "addr = \"127.0.0.1:9999\"\nidle_timeout_ms = 1234\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Addr != "127.0.0.1:9999" {
		t.Fatalf("Addr = %q, want 127.0.0.1:9999", cfg.Addr)
	}
	if cfg.IdleTimeoutMS != 1234 {
		t.Fatalf("IdleTimeoutMS = %d, want 1234", cfg.IdleTimeoutMS)
	}
	// Untouched fields keep their defaults.
	def := DefaultConfig()
	if cfg.MaxFrameBytes != def.MaxFrameBytes {
		t.Fatalf("MaxFrameBytes = %d, want default %d", cfg.MaxFrameBytes, def.MaxFrameBytes)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("Load of a missing file returned nil error")
	}
}
