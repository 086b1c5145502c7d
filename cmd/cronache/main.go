package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	clientcmd "github.com/LuigiLanza93/cronache-trama-e-fato/internal/cmd/client"
	serverrun "github.com/LuigiLanza93/cronache-trama-e-fato/internal/cmd/server"
	cfgpkg "github.com/LuigiLanza93/cronache-trama-e-fato/internal/config"
	logpkg "github.com/LuigiLanza93/cronache-trama-e-fato/pkg/log"
	"github.com/spf13/cobra"
)

func main() {
	// initialize logger for CLI
	// Respect CRONACHE_LOG_LEVEL for both CLI and server start output
	level := os.Getenv("CRONACHE_LOG_LEVEL")
	parsed, err := logpkg.ParseLevel(level)
	if err != nil || level == "" {
		parsed = logpkg.InfoLevel
	}
	logger := logpkg.NewLogger(
		logpkg.WithLevel(parsed),
		logpkg.WithFormatter(&logpkg.TextFormatter{}),
		logpkg.WithOutput(logpkg.NewConsoleOutput()),
	)

	// Redirect standard library logs (used by net/http) to our logger
	logpkg.RedirectStdLog(logger)

	rootCmd := &cobra.Command{
		Use:   "cronache",
		Short: "Cronache di Trama e Fato CLI",
		Long:  "Cronache is a collaborative character-sheet server. This CLI manages the server and basic sheet operations.",
	}

	// server start
	serverCmd := &cobra.Command{Use: "server", Short: "Server commands"}
	serverStartCmd := &cobra.Command{
		Use:     "start",
		Short:   "Start cronache server (HTTP + websocket)",
		Aliases: []string{"run"},
		RunE: func(cmd *cobra.Command, args []string) error {
			dataDir, _ := cmd.Flags().GetString("data-dir")
			httpAddr, _ := cmd.Flags().GetString("http")
			configPath, _ := cmd.Flags().GetString("config")
			debounceMs, _ := cmd.Flags().GetInt("debounce-ms")
			logLevel, _ := cmd.Flags().GetString("log-level")
			logFormat, _ := cmd.Flags().GetString("log-format")

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			cfg, err := cfgpkg.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if err := cfgpkg.FromEnv(&cfg); err != nil {
				return err
			}
			if debounceMs > 0 {
				cfg.Persist.DebounceMs = debounceMs
			}
			if logLevel != "" {
				_ = os.Setenv("CRONACHE_LOG_LEVEL", logLevel)
			}
			if logFormat != "" {
				_ = os.Setenv("CRONACHE_LOG_FORMAT", logFormat)
			}
			if err := serverrun.Run(ctx, serverrun.Options{
				DataDir:  dataDir,
				HTTPAddr: httpAddr,
				Config:   cfg,
			}); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			// brief delay to allow logs flush
			time.Sleep(100 * time.Millisecond)
			return nil
		},
	}
	serverStartCmd.Flags().String("data-dir", "", "Data directory (if not specified, uses OS-specific application data directory)")
	serverStartCmd.Flags().String("http", ":8080", "HTTP listen address (REST API + websocket)")
	serverStartCmd.Flags().String("config", os.Getenv("CRONACHE_CONFIG"), "Path to JSON config file")
	serverStartCmd.Flags().Int("debounce-ms", 0, "Persistence quiet period in ms (overrides config)")
	serverStartCmd.Flags().String("log-level", os.Getenv("CRONACHE_LOG_LEVEL"), "Log level: debug|info|warn|error")
	serverStartCmd.Flags().String("log-format", os.Getenv("CRONACHE_LOG_FORMAT"), "Log format: text|json (default text)")
	serverCmd.AddCommand(serverStartCmd)
	rootCmd.AddCommand(serverCmd)

	// character commands
	rootCmd.AddCommand(clientcmd.NewCharacterCommand(apiURL))

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func apiURL() string {
	if v := os.Getenv("CRONACHE_HTTP"); v != "" {
		return v
	}
	return "http://127.0.0.1:8080"
}
