package publish

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"
)

// Mastodon posts statuses through the Mastodon REST API.
type Mastodon struct {
	BaseURL    string
	Token      string
	Visibility string // public, unlisted, private or direct; empty uses the account default
	Client     *http.Client
}

func (m *Mastodon) Name() string { return "mastodon" }

func (m *Mastodon) Publish(ctx context.Context, text string) error {
	base := strings.TrimRight(m.BaseURL, "/")
	if base == "" || m.Token == "" {
		return fmt.Errorf("mastodon base URL and access token must be configured")
	}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+m.Token)
	// Lets the server drop a resend of the same request after a timeout.
	header.Set("Idempotency-Key", uuid.NewString())

	body := map[string]string{"status": text}
	if m.Visibility != "" {
		body["visibility"] = m.Visibility
	}
	if err := postJSON(ctx, m.Client, base+"/api/v1/statuses", header, body, nil); err != nil {
		return fmt.Errorf("mastodon post failed: %w", err)
	}
	return nil
}
