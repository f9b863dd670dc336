package textclean

import (
	"reflect"
	"regexp"
	"testing"
)

func TestClean(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "Plain text", input: "just a normal post", expected: "just a normal post"},
		{name: "URL removed", input: "read this https://example.com/a?b=c now", expected: "read this now"},
		{name: "Mention removed", input: "@alice thanks for the tip", expected: "thanks for the tip"},
		{name: "Whitespace collapsed", input: "  lots \n of\t\tspace  ", expected: "lots of space"},
		{name: "Entities unescaped", input: "first &amp; second", expected: "first & second"},
		{name: "Angle brackets kept", input: "i <3 go and x > y is true", expected: "i <3 go and x > y is true"},
		{name: "Comparison kept", input: "x < y and a > b", expected: "x < y and a > b"},
		{name: "Only noise", input: "@bob http://x.y", expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Clean(tc.input); got != tc.expected {
				t.Errorf("Clean(%q) = %q, want %q", tc.input, got, tc.expected)
			}
		})
	}
}

func TestCleanerOptions(t *testing.T) {
	c := NewCleaner(WithKeepMentions(), withURLRegex(regexp.MustCompile(`www\.\S+`)))
	got := c.Clean("@alice see www.example.com and https://kept.example")
	want := "@alice see and https://kept.example"
	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestCleanAllDropsEmpty(t *testing.T) {
	got := CleanAll([]string{"one", "   ", "@nobody", "two  words"})
	want := []string{"one", "two words"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestIsRetweet(t *testing.T) {
	if !IsRetweet("RT @someone: hello") {
		t.Error("expected retweet prefix to be detected")
	}
	if IsRetweet("ART @gallery opening") {
		t.Error("expected prefix match only")
	}
}

func TestFilter(t *testing.T) {
	testCases := []struct {
		name     string
		pattern  string
		input    []string
		expected []string
	}{
		{name: "Empty pattern keeps all", pattern: "", input: []string{"a", ""}, expected: []string{"a", ""}},
		{name: "Default drops empties", pattern: "^$", input: []string{"a", "", "b"}, expected: []string{"a", "b"}},
		{name: "Word filter", pattern: `(?i)\bspoiler\b`, input: []string{"no Spoiler here", "fine"}, expected: []string{"fine"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			f, err := NewFilter(tc.pattern)
			if err != nil {
				t.Fatalf("NewFilter() error = %v", err)
			}
			if got := f.Apply(tc.input); !reflect.DeepEqual(got, tc.expected) {
				t.Errorf("expected %v, got %v", tc.expected, got)
			}
		})
	}
}

func TestFilterInvalidPattern(t *testing.T) {
	if _, err := NewFilter("(unclosed"); err == nil {
		t.Error("expected an error for an invalid pattern")
	}
}

func TestNilFilterKeepsAll(t *testing.T) {
	var f *Filter
	if !f.Keep("anything") {
		t.Error("expected nil filter to keep text")
	}
}
