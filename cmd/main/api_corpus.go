package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/CTAG07/Ebooks/pkg/bot"
	"github.com/CTAG07/Ebooks/pkg/corpus"
	"github.com/CTAG07/Ebooks/pkg/textclean"
)

// maxImportBytes bounds the size of an uploaded archive or static file.
const maxImportBytes = 64 << 20

// CorpusAPI holds the dependencies for the corpus store handlers.
type CorpusAPI struct {
	store  corpus.Manager
	bot    *bot.Bot
	logger *slog.Logger
}

// NewCorpusAPI creates a new instance of the CorpusAPI.
func NewCorpusAPI(store corpus.Manager, b *bot.Bot, logger *slog.Logger) *CorpusAPI {
	return &CorpusAPI{
		store:  store,
		bot:    b,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/corpus endpoints.
func (c *CorpusAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/corpus", c.handleList)
	mux.HandleFunc("POST /api/corpus", c.handleAppend)
	mux.HandleFunc("DELETE /api/corpus", c.handleClear)
	mux.HandleFunc("POST /api/corpus/import", c.handleImport)
	mux.HandleFunc("GET /api/corpus/sources", c.handleSources)
}

type AppendRequest struct {
	Texts []string `json:"texts"`
}

type ImportResponse struct {
	Added           int `json:"added"`
	Tweets          int `json:"tweets,omitempty"`
	RetweetsIgnored int `json:"retweets_ignored,omitempty"`
}

func (c *CorpusAPI) handleList(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeCorpusRead) {
		return
	}
	texts, err := c.store.Get(r.Context())
	if err != nil {
		c.logger.Error("Failed to read corpus", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Failed to read corpus: %v", err))
		return
	}
	if texts == nil {
		texts = []string{}
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"count": len(texts),
		"texts": texts,
	})
}

// handleAppend stores the cleaned form of every submitted text.
func (c *CorpusAPI) handleAppend(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeCorpusWrite) {
		return
	}
	var req AppendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	if len(req.Texts) == 0 {
		respondWithError(w, http.StatusBadRequest, "At least one text is required")
		return
	}

	added, err := c.store.AppendMany(r.Context(), textclean.CleanAll(req.Texts))
	if err != nil {
		c.logger.Error("Failed to append corpus texts", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Append failed: %v", err))
		return
	}
	respondWithJSON(w, http.StatusCreated, ImportResponse{Added: added})
}

// handleImport loads a Twitter archive CSV (format=archive, the default,
// optionally xz or gzip compressed) or a static corpus file (format=lines).
func (c *CorpusAPI) handleImport(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeCorpusWrite) {
		return
	}
	body := http.MaxBytesReader(w, r.Body, maxImportBytes)

	var (
		resp  ImportResponse
		texts []string
		err   error
	)
	switch format := r.URL.Query().Get("format"); format {
	case "", "archive":
		ignoreRetweets := true
		if v := r.URL.Query().Get("ignore_retweets"); v != "" {
			if ignoreRetweets, err = strconv.ParseBool(v); err != nil {
				respondWithError(w, http.StatusBadRequest, "ignore_retweets must be a boolean")
				return
			}
		}
		var result corpus.ArchiveResult
		if result, err = corpus.ReadArchive(body, ignoreRetweets); err == nil {
			texts = result.Texts
			resp.Tweets = result.Tweets
			resp.RetweetsIgnored = result.Retweets
		}
	case "lines":
		texts, err = corpus.ReadLines(body)
	default:
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unknown import format %q", format))
		return
	}
	if err != nil {
		respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Could not read upload: %v", err))
		return
	}

	if resp.Added, err = c.store.AppendMany(r.Context(), textclean.CleanAll(texts)); err != nil {
		c.logger.Error("Failed to import corpus texts", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Import failed: %v", err))
		return
	}
	c.logger.Info("Corpus import finished",
		"added", resp.Added,
		"tweets", resp.Tweets,
		"retweets_ignored", resp.RetweetsIgnored,
	)
	respondWithJSON(w, http.StatusCreated, resp)
}

func (c *CorpusAPI) handleClear(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeCorpusWrite) {
		return
	}
	if err := c.store.Clear(r.Context()); err != nil {
		c.logger.Error("Failed to clear corpus", "error", err)
		respondWithError(w, http.StatusInternalServerError, fmt.Sprintf("Clear failed: %v", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleSources gathers from every configured provider and reports what
// each contributed, without generating anything.
func (c *CorpusAPI) handleSources(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeCorpusRead) {
		return
	}
	texts, results, err := c.bot.Corpus(r.Context())
	if err != nil {
		respondWithError(w, http.StatusServiceUnavailable, fmt.Sprintf("Gather cancelled: %v", err))
		return
	}
	stored, err := c.store.Count(r.Context())
	if err != nil {
		c.logger.Error("Failed to count corpus", "error", err)
	}
	respondWithJSON(w, http.StatusOK, map[string]any{
		"total":   len(texts),
		"stored":  stored,
		"sources": results,
	})
}
