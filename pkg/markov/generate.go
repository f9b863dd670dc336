package markov

import (
	"math/rand/v2"
	"strings"
	"unicode/utf8"
)

const (
	// DefaultMaxWords is the number of sampling steps taken per attempt.
	DefaultMaxWords = 50
	// DefaultTargetMinChars is the lower bound of the accepted length window.
	DefaultTargetMinChars = 100
	// DefaultTargetMaxChars is the upper bound of the accepted length window.
	DefaultTargetMaxChars = 280
	// DefaultMaxAttempts is the number of candidates sampled before repairing the last one.
	DefaultMaxAttempts = 10

	// minPaddingWords is the smallest word stream that short candidates are padded from.
	minPaddingWords = 5
)

// generateOptions Is used by Generate to configure default options.
type generateOptions struct {
	maxWords       int
	targetMinChars int
	targetMaxChars int
	maxAttempts    int
	rng            *rand.Rand
}

// GenerateOption is a function that configures generation parameters. It's used
// as a variadic argument to Generate and BuildAndGenerate.
type GenerateOption func(*generateOptions)

// WithMaxWords sets the maximum number of words appended to the starting window
// in a single attempt. Sampling may stop earlier at a chain dead-end.
func WithMaxWords(n int) GenerateOption {
	return func(o *generateOptions) { o.maxWords = n }
}

// WithTargetLength sets the accepted character-length window [minChars, maxChars].
func WithTargetLength(minChars, maxChars int) GenerateOption {
	return func(o *generateOptions) {
		o.targetMinChars = minChars
		o.targetMaxChars = maxChars
	}
}

// WithMaxAttempts sets how many candidates are sampled before the last one is
// repaired to fit the length window.
func WithMaxAttempts(n int) GenerateOption {
	return func(o *generateOptions) { o.maxAttempts = n }
}

// WithRand makes generation draw from r instead of the global source.
// A *rand.Rand is not safe for concurrent use, so r must not be shared
// between concurrent calls.
func WithRand(r *rand.Rand) GenerateOption {
	return func(o *generateOptions) { o.rng = r }
}

func newGenerateOptions(opts []GenerateOption) *generateOptions {
	options := &generateOptions{
		maxWords:       DefaultMaxWords,
		targetMinChars: DefaultTargetMinChars,
		targetMaxChars: DefaultTargetMaxChars,
		maxAttempts:    DefaultMaxAttempts,
	}
	for _, opt := range opts {
		opt(options)
	}
	if options.maxAttempts < 1 {
		options.maxAttempts = 1
	}
	return options
}

func (o *generateOptions) intN(n int) int {
	if o.rng != nil {
		return o.rng.IntN(n)
	}
	return rand.IntN(n)
}

// BuildAndGenerate builds a chain from corpus and samples one candidate from it.
// A corpus too small for the order yields the (possibly empty) word stream
// joined by spaces instead of an error.
func BuildAndGenerate(corpus []string, order, maxWords int, opts ...GenerateOption) string {
	opts = append([]GenerateOption{WithMaxWords(maxWords)}, opts...)
	return NewChain(corpus, order).Generate(opts...)
}

// Generate samples candidates until one falls within the target length window,
// returning the first fit. When every attempt misses, the last attempt is
// repaired: truncated at a word boundary if too long, or padded with random
// words from the stream if too short and the stream has enough words.
func (c *Chain) Generate(opts ...GenerateOption) string {
	options := newGenerateOptions(opts)

	if len(c.words) < c.order {
		return strings.Join(c.words, " ")
	}

	var candidate string
	for attempt := 0; attempt < options.maxAttempts; attempt++ {
		candidate = c.sample(options)
		length := utf8.RuneCountInString(candidate)
		if length >= options.targetMinChars && length <= options.targetMaxChars {
			return candidate
		}
	}

	return c.repair(candidate, options)
}

// sample performs one walk of the chain from a random window of the word stream.
func (c *Chain) sample(options *generateOptions) string {
	start := options.intN(len(c.words) - c.order + 1)

	output := make([]string, c.order, c.order+max(options.maxWords, 0))
	copy(output, c.words[start:start+c.order])

	for step := 0; step < options.maxWords; step++ {
		choices, ok := c.transitions[Key(output[len(output)-c.order:])]
		if !ok {
			break
		}
		output = append(output, choices[options.intN(len(choices))])
	}

	return strings.Join(output, " ")
}

func (c *Chain) repair(candidate string, options *generateOptions) string {
	length := utf8.RuneCountInString(candidate)

	switch {
	case length > options.targetMaxChars:
		return truncateWords(candidate, options.targetMaxChars)
	case length < options.targetMinChars && len(c.words) >= minPaddingWords:
		var builder strings.Builder
		builder.WriteString(candidate)
		for length < options.targetMinChars {
			word := c.words[options.intN(len(c.words))]
			builder.WriteByte(' ')
			builder.WriteString(word)
			length += 1 + utf8.RuneCountInString(word)
		}
		return builder.String()
	default:
		return candidate
	}
}

// truncateWords cuts s to at most maxChars characters without leaving a
// partial word at the end. A single word longer than maxChars is hard-cut.
func truncateWords(s string, maxChars int) string {
	if maxChars <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}

	cut := string(runes[:maxChars])
	if runes[maxChars] == ' ' {
		return strings.TrimRight(cut, " ")
	}
	if idx := strings.LastIndexByte(cut, ' '); idx > 0 {
		return strings.TrimRight(cut[:idx], " ")
	}
	return cut
}
