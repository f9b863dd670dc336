package bot

import (
	"fmt"
	"strings"

	"github.com/CTAG07/Ebooks/pkg/markov"
	"github.com/CTAG07/Ebooks/pkg/style"
)

// RandomStyle selects a style per attempt with style.Select.
const RandomStyle = "random"

// Config holds the generation settings of a Bot.
type Config struct {
	// Order is the Markov chain order. Values below 1 fall back to markov.DefaultOrder.
	Order int `json:"order" yaml:"order"`

	// Odds gives each scheduled run a 1/Odds chance of posting. 0 and 1 post every time.
	Odds int `json:"odds" yaml:"odds"`

	// PostAttempts bounds how many candidates are sampled and styled before giving up.
	PostAttempts int `json:"post_attempts" yaml:"post_attempts"`

	// Style fixes the style profile; empty or "random" draws one per attempt.
	Style string `json:"style" yaml:"style"`

	// DryRun logs posts instead of publishing them and disables the odds gate.
	DryRun bool `json:"dry_run" yaml:"dry_run"`

	// MaxWords bounds the number of words sampled per candidate.
	MaxWords int `json:"max_words" yaml:"max_words"`

	// TargetMinChars and TargetMaxChars are the candidate length window.
	TargetMinChars int `json:"target_min_chars" yaml:"target_min_chars"`
	TargetMaxChars int `json:"target_max_chars" yaml:"target_max_chars"`

	// SampleAttempts is the sampler's own retry budget per candidate.
	SampleAttempts int `json:"sample_attempts" yaml:"sample_attempts"`

	// ChainCacheSize is the number of built chains kept for reuse.
	ChainCacheSize int `json:"chain_cache_size" yaml:"chain_cache_size"`
}

// DefaultConfig returns a Config with the stock settings.
func DefaultConfig() Config {
	return Config{
		Order:          markov.DefaultOrder,
		Odds:           8,
		PostAttempts:   10,
		Style:          RandomStyle,
		DryRun:         true,
		MaxWords:       markov.DefaultMaxWords,
		TargetMinChars: markov.DefaultTargetMinChars,
		TargetMaxChars: markov.DefaultTargetMaxChars,
		SampleAttempts: markov.DefaultMaxAttempts,
		ChainCacheSize: markov.DefaultCacheSize,
	}
}

// Validate reports the first invalid setting.
func (c Config) Validate() error {
	if _, _, err := c.fixedStyle(); err != nil {
		return err
	}
	if c.Odds < 0 {
		return fmt.Errorf("odds must not be negative, got %d", c.Odds)
	}
	if c.PostAttempts < 1 {
		return fmt.Errorf("post_attempts must be at least 1, got %d", c.PostAttempts)
	}
	if c.MaxWords < 1 {
		return fmt.Errorf("max_words must be at least 1, got %d", c.MaxWords)
	}
	if c.TargetMinChars < 0 || c.TargetMaxChars < c.TargetMinChars {
		return fmt.Errorf("invalid target length window [%d, %d]", c.TargetMinChars, c.TargetMaxChars)
	}
	return nil
}

// fixedStyle returns the configured style, or false when styles are drawn
// per attempt.
func (c Config) fixedStyle() (style.Style, bool, error) {
	name := strings.TrimSpace(c.Style)
	if name == "" || strings.EqualFold(name, RandomStyle) {
		return 0, false, nil
	}
	s, err := style.ParseStyle(name)
	if err != nil {
		return 0, false, err
	}
	return s, true, nil
}
