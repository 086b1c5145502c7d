package runtime

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	cfgpkg "github.com/LuigiLanza93/cronache-trama-e-fato/internal/config"
	"github.com/LuigiLanza93/cronache-trama-e-fato/internal/persist"
	filestore "github.com/LuigiLanza93/cronache-trama-e-fato/internal/storage/file"
	logpkg "github.com/LuigiLanza93/cronache-trama-e-fato/pkg/log"
)

// Options for building the Runtime.
type Options struct {
	// DataDir is the instance data directory; documents live under
	// DataDir/characters.
	DataDir string
	Config  cfgpkg.Config
	// Logger is the process logger. Defaults to a plain text logger.
	Logger logpkg.Logger
}

// Runtime owns the document store and the persistence scheduler for a
// single-node instance.
type Runtime struct {
	store  *filestore.Store
	sched  *persist.Scheduler
	config cfgpkg.Config
	logger logpkg.Logger
}

// Open initializes storage and the persistence scheduler and returns a
// Runtime. The data directory is created eagerly so a misconfigured path
// fails at startup rather than on the first debounced write.
func Open(opts Options) (*Runtime, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logpkg.NewLogger()
	}
	charDir := filepath.Join(opts.DataDir, "characters")
	if err := os.MkdirAll(charDir, 0o755); err != nil {
		return nil, fmt.Errorf("create data dir: %w", err)
	}
	store := filestore.New(filestore.Options{Dir: charDir, Logger: logger})
	sched := persist.New(store, persist.Options{
		QuietPeriod: opts.Config.Debounce(),
		Logger:      logger,
	})
	return &Runtime{store: store, sched: sched, config: opts.Config, logger: logger}, nil
}

// Close flushes pending document writes and releases resources.
func (r *Runtime) Close() error {
	if r.sched != nil {
		r.sched.Close()
	}
	return nil
}

// CheckHealth performs a simple health check.
func (r *Runtime) CheckHealth(ctx context.Context) error {
	if r.store == nil {
		return errors.New("store not open")
	}
	info, err := os.Stat(r.store.Dir())
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("%s is not a directory", r.store.Dir())
	}
	return nil
}

// Store exposes the document store.
func (r *Runtime) Store() *filestore.Store { return r.store }

// Scheduler exposes the debounced persistence scheduler.
func (r *Runtime) Scheduler() *persist.Scheduler { return r.sched }

// Config returns the runtime configuration.
func (r *Runtime) Config() cfgpkg.Config { return r.config }

// Logger returns the process logger.
func (r *Runtime) Logger() logpkg.Logger { return r.logger }
