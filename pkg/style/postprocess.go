package style

import (
	"math/rand/v2"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// MinPostChars is the shortest post PostProcess will return.
	MinPostChars = 100
	// minDecorateChars is the length a post needs before hashtags or emoji are added.
	minDecorateChars = 50

	minPhraseWords = 3
	maxPhraseWords = 5
)

type options struct {
	rng *rand.Rand
}

// Option configures a PostProcess call.
type Option func(*options)

// WithRand makes PostProcess draw from r instead of the global source.
func WithRand(r *rand.Rand) Option {
	return func(o *options) { o.rng = r }
}

func (o *options) intN(n int) int {
	if o.rng != nil {
		return o.rng.IntN(n)
	}
	return rand.IntN(n)
}

func (o *options) chance(p float64) bool {
	if p <= 0 {
		return false
	}
	if o.rng != nil {
		return o.rng.Float64() < p
	}
	return rand.Float64() < p
}

// PostProcess shapes a candidate into a post following profile p. The boolean
// is false when the result would be shorter than MinPostChars; the caller is
// expected to resample rather than treat that as an error.
func PostProcess(candidate string, p Profile, opts ...Option) (string, bool) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	text := strings.Join(DedupePhrases(strings.Fields(candidate)), " ")

	if !hasTerminal(text) {
		text += o.pick(p.Endings, ".")
	}
	text = NormalizePunctuation(text)
	text = FilterSentences(text, p.MinSentenceWords, p.MaxSentenceWords)

	if utf8.RuneCountInString(text) >= minDecorateChars {
		if len(p.Hashtags) > 0 && o.chance(p.HashtagProbability) {
			text += " " + p.Hashtags[o.intN(len(p.Hashtags))]
		}
		if len(p.Emojis) > 0 && o.chance(p.EmojiProbability) {
			emoji := p.Emojis[o.intN(len(p.Emojis))]
			if o.intN(2) == 0 {
				text = emoji + " " + text
			} else {
				text = text + " " + emoji
			}
		}
	}

	if !hasTerminal(text) {
		if len(p.Endings) > 0 {
			text += p.Endings[0]
		} else {
			text += "."
		}
	}

	if utf8.RuneCountInString(text) < MinPostChars {
		return "", false
	}
	return text, true
}

func (o *options) pick(choices []string, fallback string) string {
	if len(choices) == 0 {
		return fallback
	}
	return choices[o.intN(len(choices))]
}

func hasTerminal(text string) bool {
	return strings.HasSuffix(text, ".") || strings.HasSuffix(text, "!") || strings.HasSuffix(text, "?")
}

// DedupePhrases drops every word that starts a 3 to 5 word phrase which
// occurs again later in the text. It is a single greedy pass over the
// original words; removals never trigger a re-scan.
func DedupePhrases(words []string) []string {
	out := make([]string, 0, len(words))
	for i := range words {
		duplicate := false
		for length := minPhraseWords; length <= maxPhraseWords && i+length <= len(words); length++ {
			if occursFrom(words, words[i:i+length], i+length) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			out = append(out, words[i])
		}
	}
	return out
}

// occursFrom reports whether phrase appears in words at an index >= from.
func occursFrom(words, phrase []string, from int) bool {
	for j := from; j+len(phrase) <= len(words); j++ {
		match := true
		for k, word := range phrase {
			if words[j+k] != word {
				match = false
				break
			}
		}
		if match {
			return true
		}
	}
	return false
}

func isPunctuation(r rune) bool {
	switch r {
	case '.', ',', '!', '?', ';', ':':
		return true
	}
	return false
}

// NormalizePunctuation collapses runs of an identical punctuation mark into
// one and leaves exactly one space after every mark.
func NormalizePunctuation(text string) string {
	runes := []rune(text)
	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		b.WriteRune(r)
		if !isPunctuation(r) {
			continue
		}
		for i+1 < len(runes) && runes[i+1] == r {
			i++
		}
		for i+1 < len(runes) && unicode.IsSpace(runes[i+1]) {
			i++
		}
		b.WriteByte(' ')
	}
	return strings.TrimSpace(b.String())
}

// SplitSentences splits on '.', '!' or '?' followed by whitespace. The
// separating mark is consumed; the final sentence keeps whatever it ends with.
func SplitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		switch text[i] {
		case '.', '!', '?':
		default:
			continue
		}
		j := i + 1
		for j < len(text) && isASCIISpace(text[j]) {
			j++
		}
		if j == i+1 {
			continue
		}
		sentences = append(sentences, text[start:i])
		start = j
		i = j - 1
	}
	return append(sentences, text[start:])
}

func isASCIISpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\v' || c == '\f'
}

// FilterSentences keeps the sentences whose word count lies within
// [minWords, maxWords] and joins them with ". ".
func FilterSentences(text string, minWords, maxWords int) string {
	var kept []string
	for _, sentence := range SplitSentences(text) {
		n := len(strings.Fields(sentence))
		if n >= minWords && n <= maxWords {
			kept = append(kept, sentence)
		}
	}
	return strings.TrimSpace(strings.Join(kept, ". "))
}
