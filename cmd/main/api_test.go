package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/CTAG07/Ebooks/pkg/bot"
	"github.com/CTAG07/Ebooks/pkg/config"
	"github.com/CTAG07/Ebooks/pkg/corpus"
	"github.com/CTAG07/Ebooks/pkg/markov"
)

const foxSentence = "the quick fox jumps over the lazy dog and runs away fast every single morning before sunrise arrives"

type testService struct {
	*httptest.Server
	actions chan string
	key     string
}

// setupTestService starts the API over a fresh database and config file.
func setupTestService(t *testing.T) *testService {
	t.Helper()
	dir := t.TempDir()

	cm, err := config.NewManager(filepath.Join(dir, "config.json"))
	if err != nil {
		t.Fatalf("NewManager() error = %v", err)
	}
	cfg := cm.Get()
	cfg.Server.DataDir = dir
	cfg.Bot.Style = "technical"
	cfg.Bot.DryRun = true
	if err = cm.Update(cfg); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	db, err := initDB(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatalf("initDB() error = %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	for _, setup := range []func() error{
		func() error { return corpus.SetupSchema(db) },
		func() error { return bot.SetupHistorySchema(db) },
		func() error { return setupAuthSchema(db) },
	} {
		if err = setup(); err != nil {
			t.Fatalf("schema setup failed: %v", err)
		}
	}

	actions := make(chan string, 1)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	server, err := NewServer(context.Background(), cm, logger, db, actions)
	if err != nil {
		t.Fatalf("NewServer() error = %v", err)
	}
	t.Cleanup(server.Close)

	ts := httptest.NewServer(server.apiMux)
	t.Cleanup(ts.Close)
	return &testService{Server: ts, actions: actions}
}

func (s *testService) do(t *testing.T, method, path string, body io.Reader, out any) int {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, body)
	if err != nil {
		t.Fatal(err)
	}
	if s.key != "" {
		req.Header.Set(authHeader, s.key)
	}
	resp, err := s.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s failed: %v", method, path, err)
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)
	if out != nil && resp.StatusCode < 300 && resp.StatusCode != http.StatusNoContent {
		if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("could not decode %s %s response: %v", method, path, err)
		}
	}
	return resp.StatusCode
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	data, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(data)
}

func TestAuthFlow(t *testing.T) {
	svc := setupTestService(t)

	var master CreateKeyResponse
	if code := svc.do(t, http.MethodPost, "/api/auth/keys", jsonBody(t, CreateKeyRequest{Description: "admin", Scopes: []string{scopeCorpusRead}}), &master); code != http.StatusCreated {
		t.Fatalf("expected 201 for the first key, got %d", code)
	}
	if len(master.Scopes) != 1 || master.Scopes[0] != scopeMaster || !strings.HasPrefix(master.RawKey, "ebk_") {
		t.Fatalf("first key should be a master key, got %+v", master)
	}

	if code := svc.do(t, http.MethodGet, "/api/corpus", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("expected 401 without a key, got %d", code)
	}
	svc.key = "ebk_wrong"
	if code := svc.do(t, http.MethodGet, "/api/corpus", nil, nil); code != http.StatusUnauthorized {
		t.Errorf("expected 401 for an unknown key, got %d", code)
	}

	svc.key = master.RawKey
	var reader CreateKeyResponse
	if code := svc.do(t, http.MethodPost, "/api/auth/keys", jsonBody(t, CreateKeyRequest{Description: "reader", Scopes: []string{scopeCorpusRead}}), &reader); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if code := svc.do(t, http.MethodPost, "/api/auth/keys", jsonBody(t, CreateKeyRequest{Scopes: []string{"everything"}}), nil); code != http.StatusBadRequest {
		t.Errorf("expected 400 for an unknown scope, got %d", code)
	}

	svc.key = reader.RawKey
	if code := svc.do(t, http.MethodGet, "/api/corpus", nil, nil); code != http.StatusOK {
		t.Errorf("expected 200 with corpus:read, got %d", code)
	}
	if code := svc.do(t, http.MethodDelete, "/api/corpus", nil, nil); code != http.StatusForbidden {
		t.Errorf("expected 403 without corpus:write, got %d", code)
	}
	if code := svc.do(t, http.MethodGet, "/api/auth/keys", nil, nil); code != http.StatusForbidden {
		t.Errorf("expected 403 without auth:manage, got %d", code)
	}

	svc.key = master.RawKey
	if code := svc.do(t, http.MethodDelete, "/api/auth/keys/1", nil, nil); code != http.StatusBadRequest {
		t.Errorf("expected the master key to be protected, got %d", code)
	}
	var keys []APIKeyInfo
	if code := svc.do(t, http.MethodGet, "/api/auth/keys", nil, &keys); code != http.StatusOK || len(keys) != 2 {
		t.Errorf("expected 2 keys, got %d (status %d)", len(keys), code)
	}
}

func TestHealthAndMetricsAreOpen(t *testing.T) {
	svc := setupTestService(t)
	var created CreateKeyResponse
	svc.do(t, http.MethodPost, "/api/auth/keys", jsonBody(t, CreateKeyRequest{}), &created)

	var health map[string]string
	if code := svc.do(t, http.MethodGet, "/api/health", nil, &health); code != http.StatusOK || health["status"] != "ok" {
		t.Errorf("unexpected health response %d %v", code, health)
	}
	if code := svc.do(t, http.MethodGet, "/metrics", nil, nil); code != http.StatusOK {
		t.Errorf("expected metrics to be served, got %d", code)
	}
}

func TestCorpusAndGenerate(t *testing.T) {
	svc := setupTestService(t)

	var generated bot.Post
	if code := svc.do(t, http.MethodPost, "/api/bot/generate", nil, nil); code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 on an empty corpus, got %d", code)
	}
	if code := svc.do(t, http.MethodGet, "/api/bot/chain", nil, nil); code != http.StatusUnprocessableEntity {
		t.Errorf("expected 422 for chain stats on an empty corpus, got %d", code)
	}

	texts := make([]string, 20)
	for i := range texts {
		texts[i] = foxSentence + " https://example.com/" + strings.Repeat("x", i)
	}
	var added ImportResponse
	if code := svc.do(t, http.MethodPost, "/api/corpus", jsonBody(t, AppendRequest{Texts: texts}), &added); code != http.StatusCreated || added.Added != 20 {
		t.Fatalf("expected 20 texts added, got %+v (status %d)", added, code)
	}

	var listed struct {
		Count int      `json:"count"`
		Texts []string `json:"texts"`
	}
	svc.do(t, http.MethodGet, "/api/corpus", nil, &listed)
	if listed.Count != 20 || listed.Texts[0] != foxSentence {
		t.Errorf("texts should be stored cleaned, got %d texts, first %q", listed.Count, listed.Texts[0])
	}

	if code := svc.do(t, http.MethodPost, "/api/bot/generate", nil, &generated); code != http.StatusOK {
		t.Fatalf("expected 200 from generate, got %d", code)
	}
	if len([]rune(generated.Text)) < 100 || generated.Style != "technical" {
		t.Errorf("unexpected generated post %+v", generated)
	}

	var posted bot.Post
	if code := svc.do(t, http.MethodPost, "/api/bot/post", nil, &posted); code != http.StatusCreated {
		t.Fatalf("expected 201 from post, got %d", code)
	}
	if !posted.DryRun || len(posted.Published) != 1 || posted.Published[0] != "dry-run" {
		t.Errorf("expected a dry-run post, got %+v", posted)
	}

	var stored bot.Post
	if code := svc.do(t, http.MethodGet, "/api/bot/history/"+posted.ID, nil, &stored); code != http.StatusOK || stored.Text != posted.Text {
		t.Errorf("expected the post in history, got %+v (status %d)", stored, code)
	}
	if code := svc.do(t, http.MethodGet, "/api/bot/history/missing", nil, nil); code != http.StatusNotFound {
		t.Errorf("expected 404 for an unknown post, got %d", code)
	}

	var chain markov.ChainStats
	if code := svc.do(t, http.MethodGet, "/api/bot/chain", nil, &chain); code != http.StatusOK || chain.Order != 2 || chain.Contexts == 0 {
		t.Errorf("unexpected chain stats %+v (status %d)", chain, code)
	}

	var stats StatsSummary
	svc.do(t, http.MethodGet, "/api/bot/stats", nil, &stats)
	if stats.History.Total != 1 || stats.History.DryRuns != 1 || stats.CacheMisses != 1 {
		t.Errorf("unexpected stats %+v", stats)
	}

	if code := svc.do(t, http.MethodDelete, "/api/corpus", nil, nil); code != http.StatusNoContent {
		t.Errorf("expected 204 from clear, got %d", code)
	}
}

func TestCorpusImport(t *testing.T) {
	svc := setupTestService(t)

	archive := "id,full_text\n1,hello there @friend\n2,RT @someone: not mine\n3,\"quoted, with a comma\"\n"
	var resp ImportResponse
	if code := svc.do(t, http.MethodPost, "/api/corpus/import", strings.NewReader(archive), &resp); code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", code)
	}
	if resp.Added != 2 || resp.Tweets != 2 || resp.RetweetsIgnored != 1 {
		t.Errorf("unexpected archive import result %+v", resp)
	}

	lines := "'first line',\n'it\\'s the second',\n"
	resp = ImportResponse{}
	if code := svc.do(t, http.MethodPost, "/api/corpus/import?format=lines", strings.NewReader(lines), &resp); code != http.StatusCreated || resp.Added != 2 {
		t.Errorf("unexpected lines import result %+v (status %d)", resp, code)
	}

	if code := svc.do(t, http.MethodPost, "/api/corpus/import?format=pdf", strings.NewReader("x"), nil); code != http.StatusBadRequest {
		t.Errorf("expected 400 for an unknown format, got %d", code)
	}

	var listed struct {
		Texts []string `json:"texts"`
	}
	svc.do(t, http.MethodGet, "/api/corpus", nil, &listed)
	want := []string{"hello there", "quoted, with a comma", "first line", "it's the second"}
	if strings.Join(listed.Texts, "|") != strings.Join(want, "|") {
		t.Errorf("expected %q, got %q", want, listed.Texts)
	}
}

func TestServerConfigAndActions(t *testing.T) {
	svc := setupTestService(t)

	var cfg config.Config
	if code := svc.do(t, http.MethodGet, "/api/server/config", nil, &cfg); code != http.StatusOK || cfg.Bot.Style != "technical" {
		t.Fatalf("unexpected config response %d %+v", code, cfg.Bot)
	}

	cfg.Bot.Style = "nonsense"
	if code := svc.do(t, http.MethodPut, "/api/server/config", jsonBody(t, cfg), nil); code != http.StatusBadRequest {
		t.Errorf("expected 400 for an invalid style, got %d", code)
	}
	cfg.Bot.Style = "casual"
	var updated config.Config
	if code := svc.do(t, http.MethodPut, "/api/server/config", jsonBody(t, cfg), &updated); code != http.StatusOK || updated.Bot.Style != "casual" {
		t.Errorf("expected the update to be saved, got %d %+v", code, updated.Bot)
	}

	if code := svc.do(t, http.MethodPost, "/api/server/restart", nil, nil); code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", code)
	}
	if action := <-svc.actions; action != actionRestart {
		t.Errorf("expected %q, got %q", actionRestart, action)
	}
}
