/*
Package markov builds order-N word chains from a corpus of short texts and
samples length-bounded candidate posts from them.

A Chain is built once per corpus and is immutable afterwards, so a single
Chain can be sampled from many goroutines. Nothing is persisted: callers
rebuild the chain from their own corpus on every invocation, optionally
through a ChainCache keyed by the corpus content.

	chain := markov.NewChain(texts, 2)
	candidate := chain.Generate(markov.WithMaxWords(60))
*/
package markov
