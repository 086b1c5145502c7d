package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	if cfg.SlugRegex == "" {
		t.Fatalf("default slug regex empty")
	}
	if cfg.Persist.DebounceMs != 200 {
		t.Fatalf("debounce default: %d", cfg.Persist.DebounceMs)
	}
	if cfg.Realtime.SendBuffer != 64 {
		t.Fatalf("send buffer default: %d", cfg.Realtime.SendBuffer)
	}
	if cfg.Debounce() != 200*time.Millisecond {
		t.Fatalf("debounce duration: %v", cfg.Debounce())
	}
}

func TestLoadJSON(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cronache.json")
	data := []byte(`{"slugRegex":"[a-z]{1,8}","persist":{"debounceMs":50},"realtime":{"sendBuffer":16}}`)
	if err := os.WriteFile(file, data, 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cfg, err := Load(file)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.SlugRegex != "[a-z]{1,8}" {
		t.Fatalf("slug regex: %s", cfg.SlugRegex)
	}
	if cfg.Persist.DebounceMs != 50 {
		t.Fatalf("debounce: %d", cfg.Persist.DebounceMs)
	}
	if cfg.Realtime.SendBuffer != 16 {
		t.Fatalf("send buffer: %d", cfg.Realtime.SendBuffer)
	}
	// Fields absent from the file keep their defaults.
	if cfg.Realtime.PingIntervalMs != 30_000 {
		t.Fatalf("ping interval lost default: %d", cfg.Realtime.PingIntervalMs)
	}
}

func TestLoadEmptyPathIsDefault(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Persist.DebounceMs != Default().Persist.DebounceMs {
		t.Fatalf("not defaults: %+v", cfg)
	}
}

func TestLoadYAMLRejected(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "cronache.yaml")
	if err := os.WriteFile(file, []byte("slugRegex: x"), 0644); err != nil {
		t.Fatalf("write: %v", err)
	}
	if _, err := Load(file); err == nil {
		t.Fatalf("expected yaml rejection")
	}
}

func TestFromEnv(t *testing.T) {
	cfg := Default()
	t.Setenv("CRONACHE_SLUG_REGEX", "[a-z]+")
	t.Setenv("CRONACHE_PERSIST_DEBOUNCE_MS", "75")
	t.Setenv("CRONACHE_REALTIME_SEND_BUFFER", "8")
	if err := FromEnv(&cfg); err != nil {
		t.Fatalf("from env: %v", err)
	}
	if cfg.SlugRegex != "[a-z]+" {
		t.Fatalf("env override regex: %s", cfg.SlugRegex)
	}
	if cfg.Persist.DebounceMs != 75 {
		t.Fatalf("env override debounce: %d", cfg.Persist.DebounceMs)
	}
	if cfg.Realtime.SendBuffer != 8 {
		t.Fatalf("env override buffer: %d", cfg.Realtime.SendBuffer)
	}
}
