package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/CTAG07/Ebooks/pkg/bot"
	"github.com/CTAG07/Ebooks/pkg/config"
	"github.com/CTAG07/Ebooks/pkg/corpus"
	"github.com/CTAG07/Ebooks/pkg/source"
	"github.com/CTAG07/Ebooks/pkg/textclean"
)

// stdout receives command output; tests replace it.
var stdout io.Writer = os.Stdout

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// GenerateCmd previews posts without touching any store or publisher.
type GenerateCmd struct {
	Path    string `arg:"" help:"Corpus file in the quoted one-post-per-line format." type:"existingfile"`
	Order   int    `help:"Markov chain order." default:"2"`
	Style   string `help:"Style profile (professional, casual, technical) or random." default:"random"`
	Count   int    `help:"Number of posts to generate." default:"1" short:"n"`
	Seed    uint64 `help:"Seed for reproducible output. 0 draws a fresh seed."`
	Exclude string `help:"Regular expression of source texts to drop." default:"^$"`
}

func (c *GenerateCmd) Run(g *Globals) error {
	ctx, cancel := signalContext()
	defer cancel()

	cfg := bot.DefaultConfig()
	cfg.Order = c.Order
	cfg.Style = c.Style
	filter, err := textclean.NewFilter(c.Exclude)
	if err != nil {
		return fmt.Errorf("invalid exclude pattern: %w", err)
	}
	opts := []bot.Option{bot.WithFilter(filter)}
	if c.Seed != 0 {
		opts = append(opts, bot.WithRand(rand.New(rand.NewPCG(c.Seed, c.Seed))))
	}

	b, err := bot.New(cfg, []source.Provider{&source.FileSource{Path: c.Path}}, opts...)
	if err != nil {
		return err
	}
	b.SetLogger(g.Logger())

	texts, _, err := b.Corpus(ctx)
	if err != nil {
		return err
	}
	for i := 0; i < c.Count; i++ {
		post, err := b.GenerateFrom(ctx, texts)
		if errors.Is(err, bot.ErrNoValidPost) {
			_, _ = fmt.Fprintf(stdout, "-- no valid post after %d attempts\n", cfg.PostAttempts)
			continue
		}
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout, "[%s] %s\n", post.Style, post.Text)
	}
	return nil
}

// ImportArchiveCmd converts a Twitter archive export.
type ImportArchiveCmd struct {
	Path         string `arg:"" help:"Archive CSV, optionally xz or gzip compressed." type:"existingfile"`
	Out          string `help:"Write the texts to this corpus file instead of the configured store." type:"path" short:"o"`
	KeepRetweets bool   `help:"Keep rows starting with RT @."`
}

func (c *ImportArchiveCmd) Run(g *Globals) error {
	f, err := os.Open(c.Path)
	if err != nil {
		return err
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	result, err := corpus.ReadArchive(f, !c.KeepRetweets)
	if err != nil {
		return err
	}

	if c.Out != "" {
		if err = corpus.WriteLinesFile(c.Out, result.Texts); err != nil {
			return fmt.Errorf("could not write %s: %w", c.Out, err)
		}
		_, _ = fmt.Fprintf(stdout, "Wrote %d tweets to %s (%d retweets ignored)\n", result.Tweets, c.Out, result.Retweets)
		return nil
	}

	ctx, cancel := signalContext()
	defer cancel()
	return withStore(ctx, g, func(store corpus.Manager) error {
		added, err := store.AppendMany(ctx, textclean.CleanAll(result.Texts))
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout, "Imported %d of %d tweets (%d retweets ignored)\n", added, result.Tweets, result.Retweets)
		return nil
	})
}

// UploadCmd appends a corpus file to the configured store.
type UploadCmd struct {
	Path string `arg:"" help:"Corpus file in the quoted one-post-per-line format." type:"existingfile"`
}

func (c *UploadCmd) Run(g *Globals) error {
	texts, err := corpus.ReadLinesFile(c.Path)
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()
	return withStore(ctx, g, func(store corpus.Manager) error {
		added, err := store.AppendMany(ctx, textclean.CleanAll(texts))
		if err != nil {
			return err
		}
		total, err := store.Count(ctx)
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout, "Added %d texts, store now holds %d\n", added, total)
		return nil
	})
}

// PostCmd is the cron entry point: one scheduled tick, then exit.
type PostCmd struct {
	Force  bool `help:"Ignore the odds gate."`
	DryRun bool `help:"Log the post instead of publishing it."`
}

func (c *PostCmd) Run(g *Globals) error {
	ctx, cancel := signalContext()
	defer cancel()
	logger := g.Logger()

	cfg, err := loadConfig(g.Config)
	if err != nil {
		return err
	}
	if c.DryRun {
		cfg.Bot.DryRun = true
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()
	if err = bot.SetupHistorySchema(db); err != nil {
		return fmt.Errorf("failed to setup history schema: %w", err)
	}

	store, closeStore, err := cfg.OpenStore(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to open %s corpus store: %w", cfg.Storage.Backend, err)
	}
	defer closeStore()

	filter, err := cfg.Filter()
	if err != nil {
		return fmt.Errorf("invalid exclude pattern: %w", err)
	}
	history, err := bot.NewHistory(db)
	if err != nil {
		return err
	}
	defer history.Close()

	b, err := bot.New(*cfg.Bot, cfg.Providers(store),
		bot.WithPublishers(cfg.Publishers()...),
		bot.WithFilter(filter),
		bot.WithHistory(history),
	)
	if err != nil {
		return err
	}
	b.SetLogger(logger)

	var post bot.Post
	ran := true
	if c.Force {
		post, err = b.Post(ctx)
	} else {
		post, ran, err = b.Run(ctx)
	}
	if err != nil {
		return err
	}
	if !ran {
		_, _ = fmt.Fprintf(stdout, "Not posting this time (odds 1/%d)\n", cfg.Bot.Odds)
		return nil
	}

	_, _ = fmt.Fprintln(stdout, post.Text)
	if len(post.Published) > 0 {
		_, _ = fmt.Fprintf(stdout, "Published to %s\n", strings.Join(post.Published, ", "))
	}
	if len(post.Failed) > 0 {
		for name, reason := range post.Failed {
			_, _ = fmt.Fprintf(stdout, "Failed on %s: %s\n", name, reason)
		}
		return fmt.Errorf("%d of %d publishers failed", len(post.Failed), len(post.Failed)+len(post.Published))
	}
	return nil
}

// VersionCmd prints build information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	_, _ = fmt.Fprintf(stdout, "ebooksctl %s (commit %s, built %s)\n", Version, Commit, BuildDate)
	return nil
}

// loadConfig loads, validates and resolves the configuration file.
func loadConfig(path string) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg.Resolved(), nil
}

// withStore opens the configured corpus store for the duration of fn.
func withStore(ctx context.Context, g *Globals, fn func(corpus.Manager) error) error {
	cfg, err := loadConfig(g.Config)
	if err != nil {
		return err
	}
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer func() {
		_ = db.Close()
	}()

	store, closeStore, err := cfg.OpenStore(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to open %s corpus store: %w", cfg.Storage.Backend, err)
	}
	defer closeStore()
	if s, ok := store.(*corpus.SQLiteStore); ok {
		s.SetLogger(g.Logger())
	}
	return fn(store)
}
