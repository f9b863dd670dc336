package markov

import (
	"encoding/binary"
	"encoding/hex"
	"sync"

	"github.com/zeebo/blake3"
)

// DefaultCacheSize is the number of chains a ChainCache keeps when no size is given.
const DefaultCacheSize = 8

// ChainCache memoizes chains by the content of their corpus and order.
// Chains are immutable, so a cached chain is indistinguishable from a freshly
// built one. The oldest entry is evicted once the cache is full.
// All methods are concurrent-safe.
type ChainCache struct {
	mu      sync.Mutex
	size    int
	entries map[string]*Chain
	order   []string
	hits    int
	misses  int
}

// NewChainCache creates a cache holding at most size chains.
func NewChainCache(size int) *ChainCache {
	if size < 1 {
		size = DefaultCacheSize
	}
	return &ChainCache{
		size:    size,
		entries: make(map[string]*Chain, size),
	}
}

// CorpusKey returns the hex BLAKE3-256 digest identifying a (corpus, order) pair.
// Every text is length-prefixed so that different splits of the same bytes
// never collide.
func CorpusKey(corpus []string, order int) string {
	h := blake3.New()
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], uint64(order))
	_, _ = h.Write(buf[:])
	for _, text := range corpus {
		binary.LittleEndian.PutUint64(buf[:], uint64(len(text)))
		_, _ = h.Write(buf[:])
		_, _ = h.Write([]byte(text))
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns the chain for corpus and order, building and storing it on a miss.
func (cc *ChainCache) Get(corpus []string, order int) *Chain {
	if order < 1 {
		order = DefaultOrder
	}
	key := CorpusKey(corpus, order)

	cc.mu.Lock()
	if chain, ok := cc.entries[key]; ok {
		cc.hits++
		cc.mu.Unlock()
		return chain
	}
	cc.misses++
	cc.mu.Unlock()

	// Build outside the lock; a concurrent miss on the same key builds an equal chain.
	chain := NewChain(corpus, order)

	cc.mu.Lock()
	defer cc.mu.Unlock()
	if existing, ok := cc.entries[key]; ok {
		return existing
	}
	if len(cc.order) >= cc.size {
		oldest := cc.order[0]
		cc.order = cc.order[1:]
		delete(cc.entries, oldest)
	}
	cc.entries[key] = chain
	cc.order = append(cc.order, key)
	return chain
}

// Len returns the number of cached chains.
func (cc *ChainCache) Len() int {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return len(cc.entries)
}

// Counts returns the number of cache hits and misses so far.
func (cc *ChainCache) Counts() (hits, misses int) {
	cc.mu.Lock()
	defer cc.mu.Unlock()
	return cc.hits, cc.misses
}
