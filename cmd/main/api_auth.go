package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"
)

// authHeader carries the raw API key.
const authHeader = "ebooks-auth"

// Scopes granted to API keys. "*" grants every scope.
const (
	scopeMaster        = "*"
	scopeCorpusRead    = "corpus:read"
	scopeCorpusWrite   = "corpus:write"
	scopeBotGenerate   = "bot:generate"
	scopeBotPost       = "bot:post"
	scopeStatsRead     = "stats:read"
	scopeServerConfig  = "server:config"
	scopeServerControl = "server:control"
	scopeAuthManage    = "auth:manage"
)

var knownScopes = []string{
	scopeMaster, scopeCorpusRead, scopeCorpusWrite, scopeBotGenerate, scopeBotPost,
	scopeStatsRead, scopeServerConfig, scopeServerControl, scopeAuthManage,
}

const authSchema = `
CREATE TABLE IF NOT EXISTS api_keys (
    id            INTEGER   PRIMARY KEY,
    key_hash      TEXT      NOT NULL UNIQUE,
    scopes        TEXT      NOT NULL,
    description   TEXT      NOT NULL,
    created_at    INTEGER   NOT NULL DEFAULT 0
);
`

type contextKey string

const contextKeyPermissions = contextKey("permissions")

// Permissions holds the authentication info for a request.
type Permissions struct {
	KeyID    int
	ScopeSet map[string]struct{}
}

// AuthAPI holds the dependencies for the authentication API handlers.
type AuthAPI struct {
	db     *sql.DB
	logger *slog.Logger
}

func setupAuthSchema(db *sql.DB) error {
	_, err := db.Exec(authSchema)
	return err
}

func NewAuthAPI(db *sql.DB, logger *slog.Logger) *AuthAPI {
	return &AuthAPI{
		db:     db,
		logger: logger,
	}
}

// RegisterRoutes sets up the routing for all /api/auth endpoints.
func (a *AuthAPI) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/auth/me", a.handleCheckMe)
	mux.HandleFunc("GET /api/auth/keys", a.listKeys)
	mux.HandleFunc("POST /api/auth/keys", a.createKey)
	mux.HandleFunc("DELETE /api/auth/keys/{id}", a.deleteKey)
}

// APIKeyInfo is the structure returned when listing keys.
type APIKeyInfo struct {
	ID          int       `json:"id"`
	Scopes      []string  `json:"scopes"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateKeyRequest is the expected JSON body for creating a new key.
type CreateKeyRequest struct {
	Scopes      []string `json:"scopes"`
	Description string   `json:"description"`
}

// CreateKeyResponse is the JSON response after creating a key. RawKey is
// only ever returned here.
type CreateKeyResponse struct {
	ID     int      `json:"id"`
	RawKey string   `json:"raw_key"`
	Scopes []string `json:"scopes"`
}

func (a *AuthAPI) keyCount(ctx context.Context) (int, error) {
	var n int
	err := a.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM api_keys").Scan(&n)
	return n, err
}

// Authenticate checks for a valid key in the ebooks-auth header. While no
// key exists the API is open with every scope, so the first key can be made.
func (a *AuthAPI) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		keyCount, err := a.keyCount(r.Context())
		if err != nil {
			a.logger.Error("Authenticate failed to count keys", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		if keyCount == 0 {
			perms := &Permissions{ScopeSet: map[string]struct{}{scopeMaster: {}}}
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKeyPermissions, perms)))
			return
		}

		apiKey := r.Header.Get(authHeader)
		if apiKey == "" {
			respondWithError(w, http.StatusUnauthorized, "Missing "+authHeader+" header")
			return
		}

		perms := &Permissions{}
		var scopesStr string
		err = a.db.QueryRowContext(r.Context(),
			"SELECT id, scopes FROM api_keys WHERE key_hash = ?", hashAPIKey(apiKey),
		).Scan(&perms.KeyID, &scopesStr)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				a.logger.Warn("Rejected unknown API key", "remote_addr", r.RemoteAddr, "path", r.URL.Path)
				respondWithError(w, http.StatusUnauthorized, "Invalid API key")
				return
			}
			a.logger.Error("Authenticate failed to query API key", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
			return
		}

		perms.ScopeSet = make(map[string]struct{})
		for _, s := range strings.Fields(scopesStr) {
			perms.ScopeSet[s] = struct{}{}
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), contextKeyPermissions, perms)))
	})
}

func (a *AuthAPI) handleCheckMe(w http.ResponseWriter, r *http.Request) {
	perms, ok := r.Context().Value(contextKeyPermissions).(*Permissions)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "Invalid or missing token")
		return
	}

	scopes := make([]string, 0, len(perms.ScopeSet))
	for s := range perms.ScopeSet {
		scopes = append(scopes, s)
	}
	slices.Sort(scopes)

	respondWithJSON(w, http.StatusOK, map[string]any{
		"key_id": perms.KeyID,
		"scopes": scopes,
	})
}

func (a *AuthAPI) listKeys(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeAuthManage) {
		return
	}

	rows, err := a.db.QueryContext(r.Context(), `SELECT id, description, scopes, created_at FROM api_keys ORDER BY id`)
	if err != nil {
		a.logger.Error("Failed to query API keys", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Database query failed")
		return
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	keys := make([]APIKeyInfo, 0)
	for rows.Next() {
		var (
			key       APIKeyInfo
			scopesStr string
			created   int64
		)
		if err = rows.Scan(&key.ID, &key.Description, &scopesStr, &created); err != nil {
			a.logger.Error("Failed to scan API key row", "error", err)
			respondWithError(w, http.StatusInternalServerError, "Failed to process database results")
			return
		}
		key.Scopes = strings.Fields(scopesStr)
		key.CreatedAt = time.Unix(created, 0).UTC()
		keys = append(keys, key)
	}
	respondWithJSON(w, http.StatusOK, keys)
}

func (a *AuthAPI) createKey(w http.ResponseWriter, r *http.Request) {
	keyCount, err := a.keyCount(r.Context())
	if err != nil {
		a.logger.Error("Failed to count API keys", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Database query failed")
		return
	}
	// Only the very first key may be created without auth:manage.
	if keyCount > 0 && !requireScope(w, r, scopeAuthManage) {
		return
	}

	var req CreateKeyRequest
	if err = json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid JSON request body")
		return
	}
	for _, s := range req.Scopes {
		if !slices.Contains(knownScopes, s) {
			respondWithError(w, http.StatusBadRequest, fmt.Sprintf("Unknown scope %q", s))
			return
		}
	}

	rawKey, err := generateAPIKey()
	if err != nil {
		a.logger.Error("Failed to generate new API key", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Key generation failed")
		return
	}

	scopesStr := strings.Join(req.Scopes, " ")
	// The first key is always a master key so the API cannot be locked out.
	if keyCount == 0 {
		scopesStr = scopeMaster
	}

	var newID int
	err = a.db.QueryRowContext(r.Context(),
		`INSERT INTO api_keys (key_hash, description, scopes, created_at) VALUES (?, ?, ?, ?) RETURNING id`,
		hashAPIKey(rawKey), req.Description, scopesStr, time.Now().Unix()).Scan(&newID)
	if err != nil {
		a.logger.Error("Failed to insert new API key", "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to save new key")
		return
	}

	a.logger.Info("API key created", "id", newID, "scopes", scopesStr)
	respondWithJSON(w, http.StatusCreated, CreateKeyResponse{
		ID:     newID,
		RawKey: rawKey,
		Scopes: strings.Fields(scopesStr),
	})
}

func (a *AuthAPI) deleteKey(w http.ResponseWriter, r *http.Request) {
	if !requireScope(w, r, scopeAuthManage) {
		return
	}
	id, err := strconv.Atoi(r.PathValue("id"))
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid key ID format in URL")
		return
	}
	if id == 1 {
		respondWithError(w, http.StatusBadRequest, "Cannot delete the primary master key (ID 1)")
		return
	}

	res, err := a.db.ExecContext(r.Context(), "DELETE FROM api_keys WHERE id = ?", id)
	if err != nil {
		a.logger.Error("Failed to delete API key", "id", id, "error", err)
		respondWithError(w, http.StatusInternalServerError, "Failed to delete key")
		return
	}
	if rowsAffected, _ := res.RowsAffected(); rowsAffected == 0 {
		respondWithError(w, http.StatusNotFound, "Key not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// hasScope checks if the permission set in the request context includes a required scope.
func hasScope(r *http.Request, requiredScope string) bool {
	perms, ok := r.Context().Value(contextKeyPermissions).(*Permissions)
	if !ok {
		return false
	}
	if _, isMaster := perms.ScopeSet[scopeMaster]; isMaster {
		return true
	}
	_, has := perms.ScopeSet[requiredScope]
	return has
}

// requireScope writes a 403 and returns false when the request lacks scope.
func requireScope(w http.ResponseWriter, r *http.Request, scope string) bool {
	if hasScope(r, scope) {
		return true
	}
	respondWithError(w, http.StatusForbidden, fmt.Sprintf("Forbidden: requires '%s' scope", scope))
	return false
}

func generateAPIKey() (string, error) {
	raw := make([]byte, 32)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return "ebk_" + hex.EncodeToString(raw), nil
}

func hashAPIKey(key string) string {
	hash := sha256.Sum256([]byte(key))
	return hex.EncodeToString(hash[:])
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			slog.Error("Failed to encode JSON response", "error", err)
		}
	}
}
