package markov

import (
	"strings"
)

// DefaultOrder is the chain order used when a non-positive order is requested.
const DefaultOrder = 2

// Chain is an immutable order-N transition table built from a corpus.
// It holds the flattened word stream of every text that was long enough to
// contribute transitions, and for every context key the ordered list of words
// observed after it. Duplicates in those lists are kept, which is what makes
// uniform picks frequency-weighted.
type Chain struct {
	order       int
	words       []string
	transitions map[string][]string
}

// Key joins a context window into the string used to index the transition table.
func Key(context []string) string {
	return strings.Join(context, " ")
}

// NewChain tokenizes every text on runs of whitespace and builds the
// transition table. Texts with `order` tokens or fewer contribute nothing,
// not even to the flat word stream.
func NewChain(texts []string, order int) *Chain {
	if order < 1 {
		order = DefaultOrder
	}

	c := &Chain{
		order:       order,
		transitions: make(map[string][]string),
	}

	for _, text := range texts {
		tokens := strings.Fields(text)
		if len(tokens) <= order {
			continue
		}
		c.words = append(c.words, tokens...)

		for i := 0; i+order < len(tokens); i++ {
			key := Key(tokens[i : i+order])
			c.transitions[key] = append(c.transitions[key], tokens[i+order])
		}
	}

	return c
}

// Order returns the number of context words used to predict the next one.
func (c *Chain) Order() int {
	return c.order
}

// Words returns a copy of the flattened word stream.
func (c *Chain) Words() []string {
	out := make([]string, len(c.words))
	copy(out, c.words)
	return out
}

// Len returns the number of distinct context keys in the table.
func (c *Chain) Len() int {
	return len(c.transitions)
}

// Next returns a copy of the words observed after the given context key.
// The boolean is false when the key has no known continuation.
func (c *Chain) Next(key string) ([]string, bool) {
	next, ok := c.transitions[key]
	if !ok {
		return nil, false
	}
	out := make([]string, len(next))
	copy(out, next)
	return out, true
}
