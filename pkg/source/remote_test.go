package source

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/CTAG07/Ebooks/pkg/corpus"
)

func writeJSON(t *testing.T, w http.ResponseWriter, v any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		t.Errorf("failed to encode response: %v", err)
	}
}

func TestMastodonSource(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/accounts/lookup", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("acct"); got != "alice@example.social" {
			t.Errorf("unexpected acct %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer secret" {
			t.Errorf("unexpected Authorization header %q", got)
		}
		writeJSON(t, w, map[string]string{"id": "42"})
	})
	mux.HandleFunc("/api/v1/accounts/42/statuses", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("limit"); got != "40" {
			t.Errorf("unexpected limit %q", got)
		}
		writeJSON(t, w, []map[string]string{
			{"content": "<p>Hello from the fediverse</p>"},
			{"content": "<p>i &lt;3 go</p><p>second<br>line</p>"},
			{"content": "<p></p>"},
			{"content": ""},
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	src := &MastodonSource{BaseURL: server.URL + "/", Account: "@alice@example.social", Token: "secret"}
	if src.Name() != "mastodon:alice@example.social" {
		t.Errorf("unexpected name %q", src.Name())
	}
	got, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	want := []string{"Hello from the fediverse", "i <3 go second line"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Fetch() mismatch (-want +got):\n%s", diff)
	}
}

func TestMastodonSourceLookupFailure(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(server.Close)

	src := &MastodonSource{BaseURL: server.URL, Account: "ghost"}
	if _, err := src.Fetch(context.Background()); err == nil {
		t.Error("expected an error for a missing account")
	}
}

func TestMastodonSourceNoBaseURL(t *testing.T) {
	if _, err := (&MastodonSource{Account: "alice"}).Fetch(context.Background()); err == nil {
		t.Error("expected an error without a base URL")
	}
}

func TestBlueskySource(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/xrpc/com.atproto.identity.resolveHandle", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("handle"); got != "bob.bsky.social" {
			t.Errorf("unexpected handle %q", got)
		}
		writeJSON(t, w, map[string]string{"did": "did:plc:abc123"})
	})
	mux.HandleFunc("/xrpc/app.bsky.feed.getAuthorFeed", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("actor") != "did:plc:abc123" || q.Get("limit") != "100" || q.Get("filter") != "posts_no_replies" {
			t.Errorf("unexpected query %v", q)
		}
		writeJSON(t, w, map[string]any{
			"feed": []any{
				map[string]any{"post": map[string]any{"record": map[string]any{"text": "first skeet"}}},
				map[string]any{"post": map[string]any{"record": map[string]any{}}},
				map[string]any{"post": map[string]any{"record": map[string]any{"text": "second skeet"}}},
			},
		})
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	src := &BlueskySource{Handle: "bob.bsky.social", AppViewURL: server.URL}
	got, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if diff := cmp.Diff([]string{"first skeet", "second skeet"}, got); diff != "" {
		t.Errorf("Fetch() mismatch (-want +got):\n%s", diff)
	}
}

const testRSS = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Blog</title>
<item><title>First title</title><description>First &lt;b&gt;body&lt;/b&gt;</description></item>
<item><title>Only a title</title></item>
</channel></rss>`

const testAtom = `<?xml version="1.0" encoding="utf-8"?>
<feed xmlns="http://www.w3.org/2005/Atom"><title>Atom</title>
<entry><title>Entry title</title><summary>Entry summary</summary></entry>
<entry><title>  </title></entry>
</feed>`

func TestParseFeed(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "RSS", input: testRSS, expected: []string{"First body", "Only a title"}},
		{name: "Atom", input: testAtom, expected: []string{"Entry summary"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseFeed(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("parseFeed() error = %v", err)
			}
			if diff := cmp.Diff(tc.expected, got); diff != "" {
				t.Errorf("parseFeed() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFeedSourceFetch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(testRSS))
	}))
	t.Cleanup(server.Close)

	got, err := (&FeedSource{URL: server.URL}).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if len(got) != 2 {
		t.Errorf("expected 2 entries, got %v", got)
	}
}

func TestPageSource(t *testing.T) {
	const page = `<html><body>
<div class="post big">Hello <b>there</b></div>
<div class="other">not a post</div>
<span class="post">wrong element</span>
<div class="post"><script>var x;</script>Second post</div>
</body></html>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(server.Close)

	src := &PageSource{URL: server.URL, Element: "div", Attributes: map[string]string{"class": "post"}}
	got, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if diff := cmp.Diff([]string{"Hello there", "Second post"}, got); diff != "" {
		t.Errorf("Fetch() mismatch (-want +got):\n%s", diff)
	}
}

func TestFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tweets.txt")
	if err := os.WriteFile(path, []byte("'one',\n'two',\n"), 0o644); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	got, err := (&FileSource{Path: path}).Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if diff := cmp.Diff([]string{"one", "two"}, got); diff != "" {
		t.Errorf("Fetch() mismatch (-want +got):\n%s", diff)
	}

	if _, err := (&FileSource{Path: path + ".missing"}).Fetch(context.Background()); err == nil {
		t.Error("expected an error for a missing file")
	}
}

type memoryStore struct{ texts []string }

func (m *memoryStore) Get(context.Context) ([]string, error) { return m.texts, nil }

func (m *memoryStore) Append(_ context.Context, text string) error {
	m.texts = append(m.texts, text)
	return nil
}

var _ corpus.Store = (*memoryStore)(nil)

func TestStoreSource(t *testing.T) {
	store := &memoryStore{}
	_ = store.Append(context.Background(), "stored text")

	src := &StoreSource{Store: store, Label: "sqlite"}
	if src.Name() != "store:sqlite" {
		t.Errorf("unexpected name %q", src.Name())
	}
	got, err := src.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if diff := cmp.Diff([]string{"stored text"}, got); diff != "" {
		t.Errorf("Fetch() mismatch (-want +got):\n%s", diff)
	}
}
