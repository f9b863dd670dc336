package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// DefaultAppViewURL is the public Bluesky AppView used for unauthenticated reads.
const DefaultAppViewURL = "https://public.api.bsky.app"

// blueskyFeedLimit is the largest page getAuthorFeed allows.
const blueskyFeedLimit = 100

// BlueskySource fetches the recent posts of one account, excluding replies.
type BlueskySource struct {
	Handle     string // e.g. user.bsky.social
	AppViewURL string
	Client     *http.Client
}

func (s *BlueskySource) Name() string { return "bluesky:" + normalizeHandle(s.Handle) }

func (s *BlueskySource) Fetch(ctx context.Context) ([]string, error) {
	base := strings.TrimRight(s.AppViewURL, "/")
	if base == "" {
		base = DefaultAppViewURL
	}
	handle := normalizeHandle(s.Handle)
	if handle == "" {
		return nil, fmt.Errorf("bluesky handle is empty")
	}

	var resolved struct {
		DID string `json:"did"`
	}
	resolveURL := base + "/xrpc/com.atproto.identity.resolveHandle?handle=" + url.QueryEscape(handle)
	if err := getJSON(ctx, s.Client, resolveURL, nil, &resolved); err != nil {
		return nil, fmt.Errorf("handle resolution failed: %w", err)
	}

	query := url.Values{}
	query.Set("actor", resolved.DID)
	query.Set("limit", fmt.Sprint(blueskyFeedLimit))
	query.Set("filter", "posts_no_replies")

	var feed struct {
		Feed []struct {
			Post struct {
				Record struct {
					Text string `json:"text"`
				} `json:"record"`
			} `json:"post"`
		} `json:"feed"`
	}
	feedURL := base + "/xrpc/app.bsky.feed.getAuthorFeed?" + query.Encode()
	if err := getJSON(ctx, s.Client, feedURL, nil, &feed); err != nil {
		return nil, fmt.Errorf("author feed fetch failed: %w", err)
	}

	texts := make([]string, 0, len(feed.Feed))
	for _, item := range feed.Feed {
		if text := item.Post.Record.Text; text != "" {
			texts = append(texts, text)
		}
	}
	return texts, nil
}
