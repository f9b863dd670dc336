/*
Package source collects the texts a bot learns from.

Each Provider fetches posts from one place: a static file, a corpus store, a
Mastodon or Bluesky account, an RSS/Atom feed or elements of a web page.
Gather runs every provider concurrently, cleans what they return and merges
the results in provider order. A provider that fails is logged and
contributes nothing; a bot with one unreachable account still posts from
the others.
*/
package source

import (
	"context"
	"io"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/CTAG07/Ebooks/pkg/textclean"
)

// DefaultConcurrency bounds how many providers Gather runs at once.
const DefaultConcurrency = 4

// Provider supplies source texts.
type Provider interface {
	// Name identifies the provider in logs and API responses.
	Name() string
	// Fetch returns the provider's texts. They are cleaned by Gather.
	Fetch(ctx context.Context) ([]string, error)
}

// Result reports what a single provider contributed to a Gather call.
type Result struct {
	Provider string        `json:"provider"`
	Texts    int           `json:"texts"`
	Err      string        `json:"error,omitempty"`
	Duration time.Duration `json:"duration"`
}

// Gather fetches every provider concurrently, cleans and filters the texts
// and returns them merged in provider order. It only fails when ctx is done.
func Gather(ctx context.Context, providers []Provider, filter *textclean.Filter, logger *slog.Logger) ([]string, error) {
	texts, _, err := GatherWithResults(ctx, providers, filter, logger)
	return texts, err
}

// GatherWithResults is Gather that also reports per-provider outcomes.
func GatherWithResults(ctx context.Context, providers []Provider, filter *textclean.Filter, logger *slog.Logger) ([]string, []Result, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	fetched := make([][]string, len(providers))
	results := make([]Result, len(providers))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(DefaultConcurrency)
	for i, p := range providers {
		g.Go(func() error {
			start := time.Now()
			raw, err := p.Fetch(gctx)
			results[i] = Result{Provider: p.Name(), Duration: time.Since(start)}
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				results[i].Err = err.Error()
				logger.WarnContext(gctx, "Source fetch failed",
					slog.String("provider", p.Name()),
					slog.String("error", err.Error()),
				)
				return nil
			}

			texts := filter.Apply(textclean.CleanAll(raw))
			fetched[i] = texts
			results[i].Texts = len(texts)
			logger.InfoContext(gctx, "Source fetched",
				slog.String("provider", p.Name()),
				slog.Int("raw", len(raw)),
				slog.Int("kept", len(texts)),
			)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	total := 0
	for _, texts := range fetched {
		total += len(texts)
	}
	merged := make([]string, 0, total)
	for _, texts := range fetched {
		merged = append(merged, texts...)
	}
	return merged, results, nil
}
