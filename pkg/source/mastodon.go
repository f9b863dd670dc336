package source

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// DefaultMastodonLimit is the number of statuses requested per account.
const DefaultMastodonLimit = 40

// MastodonSource fetches the recent public statuses of one account.
type MastodonSource struct {
	BaseURL string // instance URL, e.g. https://mastodon.social
	Account string // user@instance or user
	Token   string // optional access token
	Limit   int
	Client  *http.Client
}

func (s *MastodonSource) Name() string { return "mastodon:" + normalizeHandle(s.Account) }

func (s *MastodonSource) Fetch(ctx context.Context) ([]string, error) {
	base := strings.TrimRight(s.BaseURL, "/")
	if base == "" {
		return nil, fmt.Errorf("mastodon base URL is not configured")
	}
	header := http.Header{}
	if s.Token != "" {
		header.Set("Authorization", "Bearer "+s.Token)
	}

	var account struct {
		ID string `json:"id"`
	}
	lookup := base + "/api/v1/accounts/lookup?acct=" + url.QueryEscape(normalizeHandle(s.Account))
	if err := getJSON(ctx, s.Client, lookup, header, &account); err != nil {
		return nil, fmt.Errorf("account lookup failed: %w", err)
	}
	if account.ID == "" {
		return nil, fmt.Errorf("account %s not found", s.Account)
	}

	limit := s.Limit
	if limit <= 0 {
		limit = DefaultMastodonLimit
	}
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	query.Set("exclude_reblogs", "true")

	var statuses []struct {
		Content string `json:"content"`
	}
	statusURL := base + "/api/v1/accounts/" + url.PathEscape(account.ID) + "/statuses?" + query.Encode()
	if err := getJSON(ctx, s.Client, statusURL, header, &statuses); err != nil {
		return nil, fmt.Errorf("statuses fetch failed: %w", err)
	}

	texts := make([]string, 0, len(statuses))
	for _, status := range statuses {
		if text := htmlText(status.Content); text != "" {
			texts = append(texts, text)
		}
	}
	return texts, nil
}
