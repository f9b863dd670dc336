/*
Package bot ties the pipeline together: gather source texts, build a Markov
chain, sample candidates, style them and publish the first one that passes.

A Bot holds no per-run state beyond its chain cache; Generate and Run may be
called concurrently. Every generated post can be recorded in a History and
counted in Metrics.
*/
package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/CTAG07/Ebooks/pkg/markov"
	"github.com/CTAG07/Ebooks/pkg/publish"
	"github.com/CTAG07/Ebooks/pkg/source"
	"github.com/CTAG07/Ebooks/pkg/style"
	"github.com/CTAG07/Ebooks/pkg/textclean"
)

var (
	// ErrEmptyCorpus is returned when no provider supplied any text.
	ErrEmptyCorpus = errors.New("no source texts found")
	// ErrNoValidPost is returned when every attempt was rejected.
	ErrNoValidPost = errors.New("no valid post within the attempt budget")
)

// Post is a generated post and what happened to it.
type Post struct {
	ID         string            `json:"id"`
	Text       string            `json:"text"`
	Style      string            `json:"style"`
	Attempts   int               `json:"attempts"`
	CorpusSize int               `json:"corpus_size"`
	DryRun     bool              `json:"dry_run"`
	Published  []string          `json:"published,omitempty"`
	Failed     map[string]string `json:"failed,omitempty"`
	CreatedAt  time.Time         `json:"created_at"`
}

// Bot generates and publishes posts.
type Bot struct {
	cfg        Config
	providers  []source.Provider
	filter     *textclean.Filter
	publishers []publish.Publisher
	cache      *markov.ChainCache
	history    *History
	metrics    *Metrics
	logger     *slog.Logger

	rngMu sync.Mutex
	rng   *rand.Rand
}

// Option configures a Bot.
type Option func(*Bot)

// WithPublishers sets the destinations posts are published to.
func WithPublishers(publishers ...publish.Publisher) Option {
	return func(b *Bot) { b.publishers = publishers }
}

// WithFilter drops source texts matching f.
func WithFilter(f *textclean.Filter) Option {
	return func(b *Bot) { b.filter = f }
}

// WithHistory records every generated post in h.
func WithHistory(h *History) Option {
	return func(b *Bot) { b.history = h }
}

// WithMetrics counts generation and publishing outcomes in m.
func WithMetrics(m *Metrics) Option {
	return func(b *Bot) { b.metrics = m }
}

// WithRand makes every random decision draw from r. Calls are serialized
// while r is in use.
func WithRand(r *rand.Rand) Option {
	return func(b *Bot) { b.rng = r }
}

// New creates a Bot reading from providers.
func New(cfg Config, providers []source.Provider, opts ...Option) (*Bot, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid bot config: %w", err)
	}
	b := &Bot{
		cfg:       cfg,
		providers: providers,
		cache:     markov.NewChainCache(cfg.ChainCacheSize),
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		opt(b)
	}
	return b, nil
}

// SetLogger sets the logger for the Bot. By default, all logs are discarded.
func (b *Bot) SetLogger(logger *slog.Logger) {
	if logger != nil {
		b.logger = logger
	}
}

// Config returns the Bot's configuration.
func (b *Bot) Config() Config { return b.cfg }

// CacheStats returns the chain cache's size and hit/miss counts.
func (b *Bot) CacheStats() (size, hits, misses int) {
	hits, misses = b.cache.Counts()
	return b.cache.Len(), hits, misses
}

// ChainStats gathers the corpus and describes the chain built from it.
func (b *Bot) ChainStats(ctx context.Context) (markov.ChainStats, error) {
	corpus, _, err := b.Corpus(ctx)
	if err != nil {
		return markov.ChainStats{}, err
	}
	if len(corpus) == 0 {
		return markov.ChainStats{}, ErrEmptyCorpus
	}
	return b.cache.Get(corpus, b.cfg.Order).Stats(), nil
}

// Corpus gathers and returns the current source texts.
func (b *Bot) Corpus(ctx context.Context) ([]string, []source.Result, error) {
	texts, results, err := source.GatherWithResults(ctx, b.providers, b.filter, b.logger)
	if err != nil {
		return nil, nil, err
	}
	b.metrics.setCorpusSize(len(texts))
	return texts, results, nil
}

// Generate gathers the corpus and returns the first candidate that passes
// post-processing. It does not publish.
func (b *Bot) Generate(ctx context.Context) (Post, error) {
	corpus, _, err := b.Corpus(ctx)
	if err != nil {
		b.metrics.observeOutcome(outcomeError)
		return Post{}, fmt.Errorf("could not gather sources: %w", err)
	}
	return b.GenerateFrom(ctx, corpus)
}

// GenerateFrom is Generate over an explicit corpus.
func (b *Bot) GenerateFrom(ctx context.Context, corpus []string) (Post, error) {
	if len(corpus) == 0 {
		b.metrics.observeOutcome(outcomeEmptyCorpus)
		return Post{}, ErrEmptyCorpus
	}
	fixed, isFixed, err := b.cfg.fixedStyle()
	if err != nil {
		return Post{}, err
	}

	if b.rng != nil {
		b.rngMu.Lock()
		defer b.rngMu.Unlock()
	}

	start := time.Now()
	chain := b.cache.Get(corpus, b.cfg.Order)
	genOpts := []markov.GenerateOption{
		markov.WithMaxWords(b.cfg.MaxWords),
		markov.WithTargetLength(b.cfg.TargetMinChars, b.cfg.TargetMaxChars),
		markov.WithMaxAttempts(b.cfg.SampleAttempts),
	}
	var styleOpts []style.Option
	if b.rng != nil {
		genOpts = append(genOpts, markov.WithRand(b.rng))
		styleOpts = append(styleOpts, style.WithRand(b.rng))
	}

	for attempt := 1; attempt <= b.cfg.PostAttempts; attempt++ {
		if err = ctx.Err(); err != nil {
			b.metrics.observeOutcome(outcomeError)
			return Post{}, err
		}

		candidate := chain.Generate(genOpts...)
		s := fixed
		if !isFixed {
			s = style.Select(b.rng)
		}
		text, ok := style.PostProcess(candidate, style.ProfileFor(s), styleOpts...)
		if !ok {
			b.logger.DebugContext(ctx, "Candidate rejected",
				slog.Int("attempt", attempt),
				slog.String("style", s.String()),
				slog.String("candidate", candidate),
			)
			continue
		}

		post := Post{
			ID:         uuid.NewString(),
			Text:       text,
			Style:      s.String(),
			Attempts:   attempt,
			CorpusSize: len(corpus),
			DryRun:     b.cfg.DryRun,
			CreatedAt:  time.Now().UTC(),
		}
		b.metrics.observeGenerated(post, time.Since(start))
		b.logger.InfoContext(ctx, "Post generated",
			slog.String("id", post.ID),
			slog.String("style", post.Style),
			slog.Int("attempts", attempt),
		)
		return post, nil
	}

	b.metrics.observeOutcome(outcomeNoValidPost)
	b.logger.WarnContext(ctx, "No valid post generated",
		slog.Int("attempts", b.cfg.PostAttempts),
		slog.Int("corpus_size", len(corpus)),
	)
	return Post{}, ErrNoValidPost
}

// Post generates a post and publishes it, ignoring the odds gate. In dry-run
// mode the post is only logged. Publish failures are reported in the
// returned Post, not as an error.
func (b *Bot) Post(ctx context.Context) (Post, error) {
	post, err := b.Generate(ctx)
	if err != nil {
		return Post{}, err
	}

	publishers := b.publishers
	if b.cfg.DryRun {
		publishers = []publish.Publisher{&publish.DryRun{Logger: b.logger}}
	}
	failures := publish.PublishAll(ctx, publishers, post.Text, b.logger)
	for _, p := range publishers {
		if err, failed := failures[p.Name()]; failed {
			if post.Failed == nil {
				post.Failed = make(map[string]string)
			}
			post.Failed[p.Name()] = err.Error()
			b.metrics.observePublish(p.Name(), false)
			continue
		}
		post.Published = append(post.Published, p.Name())
		b.metrics.observePublish(p.Name(), true)
	}

	if b.history != nil {
		if err = b.history.Record(ctx, post); err != nil {
			b.logger.ErrorContext(ctx, "Failed to record post history",
				slog.String("id", post.ID),
				slog.String("error", err.Error()),
			)
		}
	}
	return post, nil
}

// Run is one scheduled tick: roll the odds and, if they hit, Post. The
// boolean reports whether the odds allowed a post. Dry-run mode always runs.
func (b *Bot) Run(ctx context.Context) (Post, bool, error) {
	if !b.rollOdds() {
		b.metrics.observeOutcome(outcomeSkipped)
		b.logger.InfoContext(ctx, "Not running this time", slog.Int("odds", b.cfg.Odds))
		return Post{}, false, nil
	}
	post, err := b.Post(ctx)
	return post, true, err
}

func (b *Bot) rollOdds() bool {
	if b.cfg.DryRun || b.cfg.Odds <= 1 {
		return true
	}
	if b.rng != nil {
		b.rngMu.Lock()
		defer b.rngMu.Unlock()
		return b.rng.IntN(b.cfg.Odds) == 0
	}
	return rand.IntN(b.cfg.Odds) == 0
}
