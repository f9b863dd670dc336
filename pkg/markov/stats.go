package markov

// ChainStats holds aggregated statistics for a single Chain.
type ChainStats struct {
	Order        int `json:"order"`         // The number of context words per key
	Words        int `json:"words"`         // The length of the flattened word stream
	Contexts     int `json:"contexts"`      // The number of distinct context keys
	Transitions  int `json:"transitions"`   // The number of observed context -> word links, duplicates included
	MaxBranching int `json:"max_branching"` // The largest number of distinct successors of one context
	DeadEnds     int `json:"dead_ends"`     // Contexts where every successor window has no continuation
}

// Stats returns a snapshot of statistics for the chain.
func (c *Chain) Stats() ChainStats {
	stats := ChainStats{
		Order:    c.order,
		Words:    len(c.words),
		Contexts: len(c.transitions),
	}

	window := make([]string, c.order)
	for key, next := range c.transitions {
		stats.Transitions += len(next)

		distinct := make(map[string]struct{}, len(next))
		for _, word := range next {
			distinct[word] = struct{}{}
		}
		if len(distinct) > stats.MaxBranching {
			stats.MaxBranching = len(distinct)
		}

		// The successor window drops the first context word and appends the pick.
		context := splitKey(key, c.order)
		copy(window, context[1:])
		deadEnd := true
		for word := range distinct {
			window[c.order-1] = word
			if _, ok := c.transitions[Key(window)]; ok {
				deadEnd = false
				break
			}
		}
		if deadEnd {
			stats.DeadEnds++
		}
	}

	return stats
}

// splitKey recovers the context words of a key. Tokens never contain spaces,
// so splitting on single spaces is exact.
func splitKey(key string, order int) []string {
	out := make([]string, 0, order)
	start := 0
	for i := 0; i < len(key); i++ {
		if key[i] == ' ' {
			out = append(out, key[start:i])
			start = i + 1
		}
	}
	return append(out, key[start:])
}
