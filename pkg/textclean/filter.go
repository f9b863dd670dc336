package textclean

import (
	"fmt"
	"regexp"
)

// Filter drops source texts matching an exclusion pattern. A nil Filter
// keeps everything.
type Filter struct {
	exclude *regexp.Regexp
}

// NewFilter compiles pattern into a Filter. An empty pattern excludes nothing.
func NewFilter(pattern string) (*Filter, error) {
	if pattern == "" {
		return &Filter{}, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
	}
	return &Filter{exclude: re}, nil
}

// Keep reports whether text survives the filter.
func (f *Filter) Keep(text string) bool {
	if f == nil || f.exclude == nil {
		return true
	}
	return !f.exclude.MatchString(text)
}

// Apply returns the texts that survive the filter, preserving order.
func (f *Filter) Apply(texts []string) []string {
	out := make([]string, 0, len(texts))
	for _, text := range texts {
		if f.Keep(text) {
			out = append(out, text)
		}
	}
	return out
}

// String returns the exclusion pattern.
func (f *Filter) String() string {
	if f == nil || f.exclude == nil {
		return ""
	}
	return f.exclude.String()
}
