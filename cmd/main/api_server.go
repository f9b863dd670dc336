package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/CTAG07/Ebooks/pkg/config"
)

const (
	actionShutdown = "shutdown"
	actionRestart  = "restart"
)

// ServerAPI holds the dependencies for the service control handlers.
type ServerAPI struct {
	cm         *config.Manager
	actionChan chan string
	logger     *slog.Logger
}

// VersionInfo defines the structure for build/version information.
type VersionInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildDate string `json:"build_date"`
}

// NewServerAPI creates a new instance of the ServerAPI.
func NewServerAPI(cm *config.Manager, actionChan chan string, logger *slog.Logger) *ServerAPI {
	return &ServerAPI{
		cm:         cm,
		actionChan: actionChan,
		logger:     logger,
	}
}

// RegisterRoutes sets up the routing for all /api/server endpoints.
func (a *ServerAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/server/config", a.handleGetConfig)
	mux.HandleFunc("PUT /api/server/config", a.handlePutConfig)
	mux.HandleFunc("GET /api/server/version", a.handleVersion)
	mux.HandleFunc("POST /api/server/shutdown", a.handleAction(actionShutdown))
	mux.HandleFunc("POST /api/server/restart", a.handleAction(actionRestart))
}

// handleGetConfig returns the stored configuration. Secrets given as ${ENV}
// references are returned unexpanded.
func (a *ServerAPI) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeServerConfig) {
		return
	}
	respondWithJSON(w, http.StatusOK, a.cm.Get())
}

// handlePutConfig validates and saves a new configuration. It takes effect
// on the next restart.
func (a *ServerAPI) handlePutConfig(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeServerConfig) {
		return
	}
	newConfig := config.Default()
	if err := json.NewDecoder(r.Body).Decode(newConfig); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	if err := a.cm.Update(newConfig); err != nil {
		a.logger.Warn("Rejected configuration update", "error", err)
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	a.logger.Info("Application configuration updated and saved via API. Changes apply after a restart.")
	respondWithJSON(w, http.StatusOK, a.cm.Get())
}

// handleVersion returns the application's build information.
func (a *ServerAPI) handleVersion(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeStatsRead) {
		return
	}
	respondWithJSON(w, http.StatusOK, VersionInfo{
		Version:   Version,
		Commit:    Commit,
		BuildDate: BuildDate,
	})
}

// handleAction returns a handler that sends action to the run loop.
func (a *ServerAPI) handleAction(action string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !requireScope(w, r, scopeServerControl) {
			return
		}
		a.logger.Warn("Server "+action+" initiated via API", "remote_addr", r.RemoteAddr)
		respondWithJSON(w, http.StatusAccepted, map[string]string{"message": "Server is going to " + action + "..."})

		go func() {
			a.actionChan <- action
		}()
	}
}

// handleHealthCheck is unauthenticated so container health checks can use it.
func (a *ServerAPI) handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok", "version": Version})
}
