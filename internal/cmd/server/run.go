package serverrun

import (
	"context"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	cfgpkg "github.com/LuigiLanza93/cronache-trama-e-fato/internal/config"
	"github.com/LuigiLanza93/cronache-trama-e-fato/internal/runtime"
	httpserver "github.com/LuigiLanza93/cronache-trama-e-fato/internal/server/http"
	docsvc "github.com/LuigiLanza93/cronache-trama-e-fato/internal/services/documents"
	presencesvc "github.com/LuigiLanza93/cronache-trama-e-fato/internal/services/presence"
	logpkg "github.com/LuigiLanza93/cronache-trama-e-fato/pkg/log"
)

func getenvDefault(key, def string) string {
	if v := getenv(key); v != "" {
		return v
	}
	return def
}

// small wrapper to allow testing; replaced by os.Getenv at build time
var getenv = func(key string) string { return os.Getenv(key) }

type Options struct {
	DataDir  string
	HTTPAddr string
	Config   cfgpkg.Config
}

// Run starts the HTTP/websocket server and blocks until ctx is cancelled.
func Run(ctx context.Context, opts Options) error {
	// Be robust to callers that don't pass a signal-aware context; layer a
	// local signal context over the provided one.
	sctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	if opts.DataDir == "" {
		opts.DataDir = cfgpkg.DefaultDataDir()
	}
	storeDir := filepath.Join(opts.DataDir, "store")

	// Build process-wide logger using env/ApplyConfig; defaults: level=info, format=text
	cfg := &logpkg.Config{
		Level:  getenvDefault("CRONACHE_LOG_LEVEL", "info"),
		Format: getenvDefault("CRONACHE_LOG_FORMAT", "text"),
	}
	procLogger, err := logpkg.ApplyConfig(cfg)
	if err != nil {
		lvl := logpkg.InfoLevel
		if l, e := logpkg.ParseLevel(cfg.Level); e == nil {
			lvl = l
		}
		procLogger = logpkg.NewLogger(logpkg.WithLevel(lvl), logpkg.WithFormatter(&logpkg.TextFormatter{}))
	}

	// Redirect stdlib logs (e.g., net/http) to our logger
	logpkg.RedirectStdLog(procLogger)

	rt, err := runtime.Open(runtime.Options{DataDir: storeDir, Config: opts.Config, Logger: procLogger})
	if err != nil {
		return err
	}
	defer rt.Close()

	procLogger.Info("Starting cronache server",
		logpkg.Str("http", opts.HTTPAddr),
		logpkg.Str("data_dir", opts.DataDir),
		logpkg.Str("level", cfg.Level),
		logpkg.Str("format", cfg.Format),
		logpkg.Int("debounce_ms", opts.Config.Persist.DebounceMs),
	)

	// Shared service instances: the gateway and the REST API see the same
	// live room state.
	docsSvc := docsvc.NewWithLogger(rt, procLogger.With(logpkg.Component("documents")))
	presSvc := presencesvc.New(procLogger.With(logpkg.Component("presence")))
	hsrv := httpserver.NewWithServices(rt, docsSvc, presSvc, procLogger)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := hsrv.ListenAndServe(sctx, opts.HTTPAddr); err != nil && sctx.Err() == nil {
			log.Printf("http error: %v", err)
		}
	}()

	<-sctx.Done()
	// Shut the server down before closing the runtime so in-flight mutations
	// still reach the scheduler; rt.Close then flushes pending writes.
	hsrv.Close()
	wg.Wait()
	return nil
}
