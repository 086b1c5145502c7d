package config

import (
	"os"
	"testing"
)

func TestDefaultDataDirXDGOverride(t *testing.T) {
	t.Setenv("XDG_DATA_HOME", "/custom/data")
	if got := DefaultDataDir(); got != "/custom/data/cronache" {
		t.Fatalf("xdg override: %s", got)
	}
}

func TestDefaultDataDirNoHome(t *testing.T) {
	orig := os.Getenv("HOME")
	os.Unsetenv("HOME")
	t.Cleanup(func() {
		if orig != "" {
			os.Setenv("HOME", orig)
		}
	})
	if got := DefaultDataDir(); got != "./data" {
		t.Fatalf("fallback: %s", got)
	}
}

func TestDefaultDataDirConsistency(t *testing.T) {
	if DefaultDataDir() != DefaultDataDir() {
		t.Fatalf("DefaultDataDir not stable across calls")
	}
}

func TestIsDir(t *testing.T) {
	if !isDir(".") {
		t.Fatalf("cwd should be a dir")
	}
	if isDir("/non/existent/path/that/does/not/exist") {
		t.Fatalf("missing path reported as dir")
	}
}
