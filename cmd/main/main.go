package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/CTAG07/Ebooks/pkg/bot"
	"github.com/CTAG07/Ebooks/pkg/config"
	"github.com/CTAG07/Ebooks/pkg/corpus"
)

var (
	Version   = "dev"
	Commit    = "none"
	BuildDate = "unknown"
)

func main() {
	configPath := flag.String("config", "./config.json", "path to the configuration file (.json, .yaml or .yml)")
	flag.Parse()

	baseLogger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	actionChan := make(chan string, 1)

	go func() {
		osSignalChan := make(chan os.Signal, 1)
		signal.Notify(osSignalChan, syscall.SIGINT, syscall.SIGTERM)
		<-osSignalChan // Wait for a signal
		baseLogger.Info("OS signal received, initiating shutdown.")
		actionChan <- actionShutdown
	}()

	for {
		action, err := run(*configPath, actionChan)
		if err != nil {
			baseLogger.Error("An error occurred during server run, shutting down.", "error", err)
			os.Exit(1)
		}

		if action != actionRestart {
			break
		}
		baseLogger.Info("--- Server Restarting ---")
	}

	baseLogger.Info("Ebooks has shut down.")
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// run hosts the API server and the scheduler, and returns whenever the
// service is shut down or restarted.
func run(configPath string, actionChan chan string) (string, error) {
	cm, err := config.NewManager(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to load configuration: %w", err)
	}
	cfg := cm.Get()
	if err = cfg.Validate(); err != nil {
		return "", fmt.Errorf("invalid configuration: %w", err)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: parseLogLevel(cfg.Server.LogLevel)}))
	cm.SetLogger(logger)
	logger.Info("Starting server cycle...", "version", Version, "config", configPath)

	if err = os.MkdirAll(cfg.Server.DataDir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := initDB(cfg.Server.DatabasePath)
	if err != nil {
		return "", fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		logger.Info("Closing database connection.")
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}()

	if err = corpus.SetupSchema(db); err != nil {
		return "", fmt.Errorf("failed to setup corpus schema: %w", err)
	}
	if err = bot.SetupHistorySchema(db); err != nil {
		return "", fmt.Errorf("failed to setup history schema: %w", err)
	}
	if err = setupAuthSchema(db); err != nil {
		return "", fmt.Errorf("failed to setup auth schema: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	server, err := NewServer(ctx, cm, logger, db, actionChan)
	if err != nil {
		return "", fmt.Errorf("failed to create server object: %w", err)
	}
	defer server.Close()

	apiHttpServer := &http.Server{
		Addr:              cfg.Server.ApiAddr,
		Handler:           server.apiMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("Starting api server", "address", apiHttpServer.Addr)
		if err := apiHttpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Api server failed", "error", err)
		}
	}()

	if cfg.Server.EnableScheduler {
		interval := time.Duration(cfg.Server.ScheduleIntervalSec) * time.Second
		go server.runScheduler(ctx, interval)
	}

	if cfg.Server.WatchConfig {
		go func() {
			err := cm.Watch(ctx, config.DefaultDebounce, func(*config.Config) {
				logger.Info("Configuration changed on disk, restarting.")
				select {
				case actionChan <- actionRestart:
				default:
				}
			})
			if err != nil {
				logger.Error("Config watcher stopped", "error", err)
			}
		}()
	}

	action := <-actionChan // Block here until API, watcher or OS signal sends an action.

	logger.Info("Stopping server for " + action + "...")
	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err = apiHttpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("Api server shutdown failed", "error", err)
	}
	logger.Info("HTTP server stopped.")

	return action, nil
}
