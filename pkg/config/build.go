package config

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/CTAG07/Ebooks/pkg/corpus"
	"github.com/CTAG07/Ebooks/pkg/publish"
	"github.com/CTAG07/Ebooks/pkg/source"
	"github.com/CTAG07/Ebooks/pkg/textclean"
)

func clientWithTimeout(sec int) *http.Client {
	if sec <= 0 {
		sec = 30
	}
	return &http.Client{Timeout: time.Duration(sec) * time.Second}
}

// Filter compiles the exclusion pattern of the sources section.
func (c *Config) Filter() (*textclean.Filter, error) {
	return textclean.NewFilter(c.Sources.Exclude)
}

// Providers builds one provider per configured source. store is used when
// use_store is set; it may be nil otherwise. Call it on a Resolved config.
func (c *Config) Providers(store corpus.Store) []source.Provider {
	s := c.Sources
	client := clientWithTimeout(s.TimeoutSec)

	var providers []source.Provider
	if s.StaticFile != "" {
		providers = append(providers, &source.FileSource{Path: s.StaticFile})
	}
	if s.UseStore && store != nil {
		providers = append(providers, &source.StoreSource{Store: store, Label: c.Storage.Backend})
	}
	if m := s.Mastodon; m != nil {
		for _, account := range m.Accounts {
			providers = append(providers, &source.MastodonSource{
				BaseURL: m.BaseURL,
				Account: account,
				Token:   m.Token,
				Limit:   m.Limit,
				Client:  client,
			})
		}
	}
	if b := s.Bluesky; b != nil {
		for _, handle := range b.Handles {
			providers = append(providers, &source.BlueskySource{
				Handle:     handle,
				AppViewURL: b.AppViewURL,
				Client:     client,
			})
		}
	}
	for _, feed := range s.Feeds {
		providers = append(providers, &source.FeedSource{URL: feed, Client: client})
	}
	for _, page := range s.Pages {
		providers = append(providers, &source.PageSource{
			URL:        page.URL,
			Element:    page.Element,
			Attributes: page.Attributes,
			Client:     client,
		})
	}
	return providers
}

// Publishers builds the enabled publishers. Call it on a Resolved config.
func (c *Config) Publishers() []publish.Publisher {
	p := c.Publish
	client := clientWithTimeout(p.TimeoutSec)

	var publishers []publish.Publisher
	if m := p.Mastodon; m != nil && m.Enabled {
		publishers = append(publishers, &publish.Mastodon{
			BaseURL:    m.BaseURL,
			Token:      m.Token,
			Visibility: m.Visibility,
			Client:     client,
		})
	}
	if b := p.Bluesky; b != nil && b.Enabled {
		publishers = append(publishers, &publish.Bluesky{
			PDSURL:     b.PDSURL,
			Identifier: b.Identifier,
			Password:   b.Password,
			Client:     client,
		})
	}
	return publishers
}

// OpenStore opens the configured corpus store. The SQLite backend uses db,
// which must already carry the corpus schema; the Redis backend dials and
// pings the server. The returned func releases the store.
func (c *Config) OpenStore(ctx context.Context, db *sql.DB) (corpus.Manager, func(), error) {
	s := c.Storage
	if s.Backend == BackendRedis {
		dialCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		rdb, err := corpus.DialRedis(dialCtx, s.RedisAddr, s.RedisPassword, s.RedisDB)
		if err != nil {
			return nil, nil, err
		}
		return corpus.NewRedisStore(rdb, s.RedisKey), func() { _ = rdb.Close() }, nil
	}

	store, err := corpus.NewSQLiteStore(db)
	if err != nil {
		return nil, nil, err
	}
	return store, store.Close, nil
}
