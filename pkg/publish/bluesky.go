package publish

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"
)

// DefaultPDSURL is the Bluesky PDS used when none is configured.
const DefaultPDSURL = "https://bsky.social"

const blueskyPostCollection = "app.bsky.feed.post"

// Bluesky posts records to a Bluesky PDS using an app password. The session
// is created on first use and reused until the PDS rejects it.
type Bluesky struct {
	PDSURL     string
	Identifier string // handle or DID
	Password   string // app password
	Client     *http.Client

	mu      sync.Mutex
	session *blueskySession
	now     func() time.Time
}

type blueskySession struct {
	AccessJWT string `json:"accessJwt"`
	DID       string `json:"did"`
}

func (b *Bluesky) Name() string { return "bluesky" }

func (b *Bluesky) Publish(ctx context.Context, text string) error {
	if b.Identifier == "" || b.Password == "" {
		return fmt.Errorf("bluesky credentials must be configured")
	}

	b.mu.Lock()
	hadSession := b.session != nil
	b.mu.Unlock()

	err := b.createPost(ctx, text)
	var status *StatusError
	if hadSession && errors.As(err, &status) && (status.Code == http.StatusUnauthorized || status.Code == http.StatusBadRequest) {
		// Expired tokens surface as 400 ExpiredToken or 401; log in again once.
		b.resetSession()
		err = b.createPost(ctx, text)
	}
	if err != nil {
		return fmt.Errorf("bluesky post failed: %w", err)
	}
	return nil
}

func (b *Bluesky) createPost(ctx context.Context, text string) error {
	sess, err := b.login(ctx)
	if err != nil {
		return err
	}

	now := time.Now
	if b.now != nil {
		now = b.now
	}
	body := map[string]any{
		"repo":       sess.DID,
		"collection": blueskyPostCollection,
		"record": map[string]any{
			"$type":     blueskyPostCollection,
			"text":      text,
			"createdAt": now().UTC().Format(time.RFC3339),
			"langs":     []string{"en"},
		},
	}
	header := http.Header{}
	header.Set("Authorization", "Bearer "+sess.AccessJWT)
	return postJSON(ctx, b.Client, b.baseURL()+"/xrpc/com.atproto.repo.createRecord", header, body, nil)
}

func (b *Bluesky) login(ctx context.Context) (*blueskySession, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.session != nil {
		return b.session, nil
	}

	var sess blueskySession
	body := map[string]string{"identifier": b.Identifier, "password": b.Password}
	if err := postJSON(ctx, b.Client, b.baseURL()+"/xrpc/com.atproto.server.createSession", nil, body, &sess); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	b.session = &sess
	return b.session, nil
}

func (b *Bluesky) resetSession() {
	b.mu.Lock()
	b.session = nil
	b.mu.Unlock()
}

func (b *Bluesky) baseURL() string {
	if base := strings.TrimRight(b.PDSURL, "/"); base != "" {
		return base
	}
	return DefaultPDSURL
}
