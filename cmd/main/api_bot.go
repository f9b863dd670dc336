package main

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/CTAG07/Ebooks/pkg/bot"
)

// BotAPI holds the dependencies for the generation and history handlers.
type BotAPI struct {
	bot     *bot.Bot
	history *bot.History
	logger  *slog.Logger
}

func NewBotAPI(b *bot.Bot, history *bot.History, logger *slog.Logger) *BotAPI {
	return &BotAPI{
		bot:     b,
		history: history,
		logger:  logger,
	}
}

func (b *BotAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/bot/generate", b.handleGenerate)
	mux.HandleFunc("POST /api/bot/post", b.handlePost)
	mux.HandleFunc("GET /api/bot/history", b.handleHistory)
	mux.HandleFunc("GET /api/bot/history/{id}", b.handleHistoryByID)
	mux.HandleFunc("GET /api/bot/stats", b.handleStats)
	mux.HandleFunc("GET /api/bot/chain", b.handleChain)
}

// generationStatus maps generation failures onto response codes. Running out
// of attempts is not a server fault; the corpus just can't support the style.
func generationStatus(err error) int {
	switch {
	case errors.Is(err, bot.ErrEmptyCorpus), errors.Is(err, bot.ErrNoValidPost):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// handleGenerate previews a post. Nothing is published or recorded.
func (b *BotAPI) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeBotGenerate) {
		return
	}
	post, err := b.bot.Generate(r.Context())
	if err != nil {
		respondWithError(w, generationStatus(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, post)
}

// handlePost generates and publishes a post now, bypassing the odds gate.
func (b *BotAPI) handlePost(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeBotPost) {
		return
	}
	post, err := b.bot.Post(r.Context())
	if err != nil {
		respondWithError(w, generationStatus(err), err.Error())
		return
	}
	b.logger.Info("Post triggered via API", "id", post.ID, "dry_run", post.DryRun)
	respondWithJSON(w, http.StatusCreated, post)
}

func (b *BotAPI) handleHistory(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeStatsRead) {
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 500 {
			respondWithError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	posts, err := b.history.Recent(r.Context(), limit)
	if err != nil {
		b.logger.Error("Failed to read post history", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Database error: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, posts)
}

func (b *BotAPI) handleHistoryByID(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeStatsRead) {
		return
	}
	post, err := b.history.Get(r.Context(), r.PathValue("id"))
	if errors.Is(err, bot.ErrPostNotFound) {
		respondWithError(w, http.StatusNotFound, "Post not found")
		return
	}
	if err != nil {
		b.logger.Error("Failed to read post", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Database error: %v", err))
		return
	}
	respondWithJSON(w, http.StatusOK, post)
}

// StatsSummary combines the post history with the chain cache counters.
type StatsSummary struct {
	History     bot.HistoryStats `json:"history"`
	CachedChain int              `json:"cached_chains"`
	CacheHits   int              `json:"cache_hits"`
	CacheMisses int              `json:"cache_misses"`
}

func (b *BotAPI) handleStats(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeStatsRead) {
		return
	}
	history, err := b.history.Stats(r.Context())
	if err != nil {
		b.logger.Error("Failed to summarize post history", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Database error: %v", err))
		return
	}
	size, hits, misses := b.bot.CacheStats()
	respondWithJSON(w, http.StatusOK, StatsSummary{
		History:     history,
		CachedChain: size,
		CacheHits:   hits,
		CacheMisses: misses,
	})
}

// handleChain builds (or reuses) the chain for the current corpus and
// reports its shape.
func (b *BotAPI) handleChain(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeStatsRead) {
		return
	}
	stats, err := b.bot.ChainStats(r.Context())
	if err != nil {
		respondWithError(w, generationStatus(err), err.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, stats)
}
