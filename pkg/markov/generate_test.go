package markov

import (
	"strings"
	"testing"
)

func TestGenerateDegenerateEcho(t *testing.T) {
	testCases := []struct {
		name   string
		corpus []string
		order  int
	}{
		{name: "Empty corpus", corpus: nil, order: 2},
		{name: "Only short texts", corpus: []string{"hello world", "hi"}, order: 2},
		{name: "Order larger than every text", corpus: []string{"one two three"}, order: 4},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			chain := NewChain(tc.corpus, tc.order)
			want := strings.Join(chain.Words(), " ")
			if got := chain.Generate(); got != want {
				t.Errorf("Generate() = %q, want echo %q", got, want)
			}
			if got := BuildAndGenerate(tc.corpus, tc.order, 60); got != want {
				t.Errorf("BuildAndGenerate() = %q, want echo %q", got, want)
			}
		})
	}
}

func TestGenerateFirstFitWins(t *testing.T) {
	corpus := foxCorpus(20)
	chain := NewChain(corpus, 2)

	// A window that any walk satisfies returns the first sample untouched.
	output := chain.Generate(WithMaxWords(60), WithTargetLength(0, 1000), WithRand(newTestRand(t, 1)))
	// The starting window may straddle two copies of the sentence.
	if !strings.Contains(foxSentence+" "+foxSentence, output) {
		t.Errorf("expected a contiguous run of the source sentence, got %q", output)
	}
}

func TestGenerateLengthWindow(t *testing.T) {
	corpus := foxCorpus(20)
	vocab := vocabulary(corpus)

	for i := 0; i < 200; i++ {
		output := BuildAndGenerate(corpus, 2, 60)
		if n := charLen(output); n < DefaultTargetMinChars || n > DefaultTargetMaxChars {
			t.Fatalf("iteration %d: length %d outside [%d, %d]: %q", i, n, DefaultTargetMinChars, DefaultTargetMaxChars, output)
		}
		assertVocabulary(t, output, vocab)
	}
}

func TestGenerateTruncatesAtWordBoundary(t *testing.T) {
	corpus := cycleCorpus(40)
	chain := NewChain(corpus, 2)
	vocab := vocabulary(corpus)

	for seed := uint64(0); seed < 50; seed++ {
		// Every sample is far longer than the window, forcing the repair path.
		output := chain.Generate(WithMaxWords(200), WithRand(newTestRand(t, seed)))
		if n := charLen(output); n > DefaultTargetMaxChars {
			t.Fatalf("seed %d: truncated output still %d chars", seed, n)
		}
		if strings.HasSuffix(output, " ") {
			t.Errorf("seed %d: output ends with a space: %q", seed, output)
		}
		assertVocabulary(t, output, vocab)
	}
}

func TestGeneratePadsShortCandidates(t *testing.T) {
	// Every text dead-ends after a few words, so no sample reaches 100 chars.
	corpus := []string{
		"red fish blue fish",
		"one fish two fish",
		"old fish new fish",
	}
	chain := NewChain(corpus, 2)
	vocab := vocabulary(corpus)

	for seed := uint64(0); seed < 50; seed++ {
		output := chain.Generate(WithMaxWords(60), WithRand(newTestRand(t, seed)))
		if n := charLen(output); n < DefaultTargetMinChars {
			t.Fatalf("seed %d: padded output only %d chars: %q", seed, n, output)
		}
		assertVocabulary(t, output, vocab)
	}
}

func TestGenerateTooFewWordsToPad(t *testing.T) {
	corpus := []string{"one two three four"}
	chain := NewChain(corpus, 2)

	for seed := uint64(0); seed < 20; seed++ {
		output := chain.Generate(WithRand(newTestRand(t, seed)))
		if !strings.Contains(corpus[0], output) {
			t.Errorf("seed %d: expected an unmodified run of the text, got %q", seed, output)
		}
		if charLen(output) >= DefaultTargetMinChars {
			t.Errorf("seed %d: output unexpectedly padded: %q", seed, output)
		}
	}
}

func TestGenerateSeededIsReproducible(t *testing.T) {
	chain := NewChain(foxCorpus(5), 2)
	first := chain.Generate(WithRand(newTestRand(t, 42)))
	second := chain.Generate(WithRand(newTestRand(t, 42)))
	if first != second {
		t.Errorf("expected identical output for identical seeds, got %q and %q", first, second)
	}
}

func TestTruncateWords(t *testing.T) {
	testCases := []struct {
		name     string
		input    string
		maxChars int
		expected string
	}{
		{name: "Fits", input: "red fish", maxChars: 10, expected: "red fish"},
		{name: "Cut inside a word", input: "red fish blue", maxChars: 11, expected: "red fish"},
		{name: "Cut on a space", input: "red fish blue", maxChars: 8, expected: "red fish"},
		{name: "Cut after a space", input: "red fish blue", maxChars: 9, expected: "red fish"},
		{name: "Single long word", input: "supercalifragilistic", maxChars: 5, expected: "super"},
		{name: "Multibyte", input: "héllo wörld again", maxChars: 13, expected: "héllo wörld"},
		{name: "Zero window", input: "red fish", maxChars: 0, expected: ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if got := truncateWords(tc.input, tc.maxChars); got != tc.expected {
				t.Errorf("truncateWords(%q, %d) = %q, want %q", tc.input, tc.maxChars, got, tc.expected)
			}
		})
	}
}

func BenchmarkGenerate(b *testing.B) {
	corpus := foxCorpus(200)
	corpus = append(corpus, cycleCorpus(50)...)
	chain := NewChain(corpus, 2)

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		s := chain.Generate(WithMaxWords(60))
		b.SetBytes(int64(len(s)))
	}
}
