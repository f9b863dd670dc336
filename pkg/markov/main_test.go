package markov

import (
	"math/rand/v2"
	"strings"
	"testing"
	"unicode/utf8"
)

const foxSentence = "the quick fox jumps over the lazy dog and runs away fast every single morning before sunrise arrives"

// foxCorpus returns n copies of a single 18-word sentence.
func foxCorpus(n int) []string {
	corpus := make([]string, n)
	for i := range corpus {
		corpus[i] = foxSentence
	}
	return corpus
}

// cycleCorpus returns a text whose chain never dead-ends, so every sample
// runs for the full number of steps.
func cycleCorpus(repeats int) []string {
	return []string{strings.Repeat("alpha bravo charlie delta ", repeats)}
}

// newTestRand returns a deterministic source for tests that need reproducible draws.
func newTestRand(t *testing.T, seed uint64) *rand.Rand {
	t.Helper()
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// vocabulary returns the set of words in the corpus.
func vocabulary(corpus []string) map[string]struct{} {
	vocab := make(map[string]struct{})
	for _, text := range corpus {
		for _, word := range strings.Fields(text) {
			vocab[word] = struct{}{}
		}
	}
	return vocab
}

// assertVocabulary fails when output contains a token that is not a whole corpus word.
func assertVocabulary(t *testing.T, output string, vocab map[string]struct{}) {
	t.Helper()
	for _, word := range strings.Fields(output) {
		if _, ok := vocab[word]; !ok {
			t.Errorf("output contains %q, which is not a corpus word (output %q)", word, output)
		}
	}
}

func charLen(s string) int {
	return utf8.RuneCountInString(s)
}
