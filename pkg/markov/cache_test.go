package markov

import (
	"sync"
	"testing"
)

func TestCorpusKey(t *testing.T) {
	base := CorpusKey([]string{"ab", "c"}, 2)

	if base != CorpusKey([]string{"ab", "c"}, 2) {
		t.Error("expected identical corpora to produce identical keys")
	}
	if base == CorpusKey([]string{"a", "bc"}, 2) {
		t.Error("expected different text splits to produce different keys")
	}
	if base == CorpusKey([]string{"ab", "c"}, 3) {
		t.Error("expected different orders to produce different keys")
	}
	if len(base) != 64 {
		t.Errorf("expected a 64-char hex digest, got %d chars", len(base))
	}
}

func TestChainCacheGet(t *testing.T) {
	cache := NewChainCache(2)
	corpus := foxCorpus(3)

	first := cache.Get(corpus, 2)
	second := cache.Get(corpus, 2)
	if first != second {
		t.Error("expected the second lookup to return the cached chain")
	}
	hits, misses := cache.Counts()
	if hits != 1 || misses != 1 {
		t.Errorf("expected 1 hit and 1 miss, got %d and %d", hits, misses)
	}

	// Filling past capacity evicts the oldest entry.
	cache.Get([]string{"a b c"}, 2)
	cache.Get([]string{"d e f"}, 2)
	if cache.Len() != 2 {
		t.Errorf("expected cache to hold 2 chains, got %d", cache.Len())
	}
	if cache.Get(corpus, 2) == first {
		t.Error("expected the oldest chain to have been evicted")
	}
}

func TestChainCacheConcurrent(t *testing.T) {
	cache := NewChainCache(4)
	corpora := [][]string{foxCorpus(2), cycleCorpus(3), {"red fish blue fish"}}

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			chain := cache.Get(corpora[i%len(corpora)], 2)
			_ = chain.Generate(WithMaxWords(20))
		}(i)
	}
	wg.Wait()

	if cache.Len() != len(corpora) {
		t.Errorf("expected %d cached chains, got %d", len(corpora), cache.Len())
	}
}
