package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/CTAG07/Ebooks/pkg/bot"
	"github.com/CTAG07/Ebooks/pkg/config"
	"github.com/CTAG07/Ebooks/pkg/corpus"
)

type Server struct {
	cm         *config.Manager
	db         *sql.DB
	logger     *slog.Logger
	store      corpus.Manager
	closeStore func()
	bot        *bot.Bot
	history    *bot.History
	registry   *prometheus.Registry
	authAPI    *AuthAPI
	corpusAPI  *CorpusAPI
	botAPI     *BotAPI
	serverAPI  *ServerAPI
	apiMux     *http.ServeMux
}

// NewServer builds the store, bot and API handlers from the current
// configuration. ctx bounds the connection attempt to an external store.
func NewServer(ctx context.Context, cm *config.Manager, logger *slog.Logger, db *sql.DB, actionChan chan string) (*Server, error) {
	cfg := cm.Get().Resolved()

	store, closeStore, err := cfg.OpenStore(ctx, db)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s corpus store: %w", cfg.Storage.Backend, err)
	}
	if s, ok := store.(*corpus.SQLiteStore); ok {
		s.SetLogger(logger)
	}
	logger.Info("Corpus store ready", "backend", cfg.Storage.Backend)

	filter, err := cfg.Filter()
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("invalid exclude pattern: %w", err)
	}

	history, err := bot.NewHistory(db)
	if err != nil {
		closeStore()
		return nil, fmt.Errorf("error creating post history: %w", err)
	}

	// A fresh registry per server cycle; the default one would reject the
	// collectors when the service restarts in-process.
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	b, err := bot.New(*cfg.Bot, cfg.Providers(store),
		bot.WithPublishers(cfg.Publishers()...),
		bot.WithFilter(filter),
		bot.WithHistory(history),
		bot.WithMetrics(bot.NewMetrics(registry)),
	)
	if err != nil {
		history.Close()
		closeStore()
		return nil, err
	}
	b.SetLogger(logger)

	server := &Server{
		cm:         cm,
		db:         db,
		logger:     logger,
		store:      store,
		closeStore: closeStore,
		bot:        b,
		history:    history,
		registry:   registry,
		authAPI:    NewAuthAPI(db, logger),
		corpusAPI:  NewCorpusAPI(store, b, logger),
		botAPI:     NewBotAPI(b, history, logger),
		serverAPI:  NewServerAPI(cm, actionChan, logger),
		apiMux:     http.NewServeMux(),
	}

	apiMux := http.NewServeMux()
	server.authAPI.RegisterRoutes(apiMux)
	server.corpusAPI.RegisterRoutes(apiMux)
	server.botAPI.RegisterRoutes(apiMux)
	server.serverAPI.RegisterRoutes(apiMux)

	// Make sure api functions must pass through authentication first
	authedAPI := server.authAPI.Authenticate(apiMux)
	// ... except for the health check and metrics, which are scraped without a key
	server.apiMux.HandleFunc("/api/health", server.serverAPI.handleHealthCheck)
	server.apiMux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	server.apiMux.Handle("/api/", authedAPI)

	return server, nil
}

// Close releases the prepared statements and the store connection.
func (s *Server) Close() {
	s.history.Close()
	s.closeStore()
}

// runScheduler calls Bot.Run every interval until ctx is done.
func (s *Server) runScheduler(ctx context.Context, interval time.Duration) {
	s.logger.Info("Scheduler started", "interval", interval.String())
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Scheduler stopped")
			return
		case <-ticker.C:
			s.scheduledRun(ctx)
		}
	}
}

func (s *Server) scheduledRun(ctx context.Context) {
	post, ran, err := s.bot.Run(ctx)
	switch {
	case errors.Is(err, context.Canceled):
		return
	case errors.Is(err, bot.ErrNoValidPost), errors.Is(err, bot.ErrEmptyCorpus):
		s.logger.Warn("Scheduled run produced no post", "error", err)
	case err != nil:
		s.logger.Error("Scheduled run failed", "error", err)
	case ran:
		s.logger.Info("Scheduled post done",
			"id", post.ID,
			"published", len(post.Published),
			"failed", len(post.Failed),
		)
	}
}
