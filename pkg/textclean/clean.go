// Package textclean normalizes source posts before they reach the Markov
// chain: links and mentions are stripped, entities unescaped and whitespace
// collapsed. Markup is removed by the sources that serve HTML, not here.
package textclean

import (
	"html"
	"regexp"
	"strings"
)

// Cleaner strips unwanted fragments from post text. Its behavior can be
// customized with functional options.
type Cleaner struct {
	urlRegex     *regexp.Regexp
	mentionRegex *regexp.Regexp
	spaceRegex   *regexp.Regexp
	keepMentions bool
}

// Option configures a Cleaner.
type Option func(*Cleaner)

// withURLRegex replaces the link pattern. Default: `https?://\S+`
func withURLRegex(re *regexp.Regexp) Option {
	return func(c *Cleaner) {
		c.urlRegex = re
	}
}

// WithKeepMentions leaves mentions in place.
func WithKeepMentions() Option {
	return func(c *Cleaner) {
		c.keepMentions = true
	}
}

// NewCleaner creates a Cleaner with default settings, which can be overridden
// by providing one or more Option functions.
func NewCleaner(opts ...Option) *Cleaner {
	c := &Cleaner{
		urlRegex:     regexp.MustCompile(`https?://\S+`),
		mentionRegex: regexp.MustCompile(`@\w+`),
		spaceRegex:   regexp.MustCompile(`\s+`),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Clean returns text with entities unescaped, links and mentions dropped and
// all whitespace runs collapsed to a single space. Angle brackets are plain
// text.
func (c *Cleaner) Clean(text string) string {
	text = html.UnescapeString(text)
	text = c.urlRegex.ReplaceAllString(text, "")
	if !c.keepMentions {
		text = c.mentionRegex.ReplaceAllString(text, "")
	}
	return strings.TrimSpace(c.spaceRegex.ReplaceAllString(text, " "))
}

// CleanAll cleans every text and drops the ones left empty.
func (c *Cleaner) CleanAll(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, text := range texts {
		if cleaned := c.Clean(text); cleaned != "" {
			out = append(out, cleaned)
		}
	}
	return out
}

var defaultCleaner = NewCleaner()

// Clean cleans text with the default Cleaner.
func Clean(text string) string {
	return defaultCleaner.Clean(text)
}

// CleanAll cleans texts with the default Cleaner.
func CleanAll(texts []string) []string {
	return defaultCleaner.CleanAll(texts)
}

// IsRetweet reports whether text is a Twitter-style retweet.
func IsRetweet(text string) bool {
	return strings.HasPrefix(text, "RT @")
}
