package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config is the top-level configuration loaded from file/env.
type Config struct {
	// SlugRegex validates document slugs; a slug is also the room name and
	// the on-disk file name, so the pattern doubles as path hygiene.
	SlugRegex string         `json:"slugRegex" env:"CRONACHE_SLUG_REGEX"`
	Persist   PersistConfig  `json:"persist"`
	Realtime  RealtimeConfig `json:"realtime"`
}

// PersistConfig tunes the debounced persistence scheduler.
type PersistConfig struct {
	// DebounceMs is the quiet period before a document's pending state is
	// written to disk.
	DebounceMs int `json:"debounceMs" env:"CRONACHE_PERSIST_DEBOUNCE_MS"`
}

// RealtimeConfig tunes the websocket gateway.
type RealtimeConfig struct {
	// SendBuffer is the per-session outbound queue length. A session that
	// cannot drain its queue is dropped.
	SendBuffer int `json:"sendBuffer" env:"CRONACHE_REALTIME_SEND_BUFFER"`
	// PingIntervalMs is the keepalive ping cadence.
	PingIntervalMs int `json:"pingIntervalMs" env:"CRONACHE_REALTIME_PING_INTERVAL_MS"`
	// WriteTimeoutMs bounds each websocket write.
	WriteTimeoutMs int `json:"writeTimeoutMs" env:"CRONACHE_REALTIME_WRITE_TIMEOUT_MS"`
	// MaxMessageBytes bounds inbound message size.
	MaxMessageBytes int64 `json:"maxMessageBytes" env:"CRONACHE_REALTIME_MAX_MESSAGE_BYTES"`
}

// Default returns built-in defaults.
func Default() Config {
	return Config{
		SlugRegex: "[a-z0-9-_]{1,64}",
		Persist: PersistConfig{
			DebounceMs: 200,
		},
		Realtime: RealtimeConfig{
			SendBuffer:      64,
			PingIntervalMs:  30_000,
			WriteTimeoutMs:  10_000,
			MaxMessageBytes: 1 << 20,
		},
	}
}

// Debounce returns the persistence quiet period as a duration.
func (c Config) Debounce() time.Duration {
	return time.Duration(c.Persist.DebounceMs) * time.Millisecond
}

// Load reads configuration from a JSON file. If path is empty, returns
// defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}
	cfg := Default()
	if ext := filepath.Ext(path); ext == ".yaml" || ext == ".yml" {
		return Config{}, errors.New("yaml config not supported; use JSON")
	}
	if err := json.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// FromEnv overlays CRONACHE_* environment variables onto cfg.
func FromEnv(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
