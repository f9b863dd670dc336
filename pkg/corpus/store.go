/*
Package corpus holds the source posts a bot learns from.

A Store is an append-only list of cleaned texts. SQLiteStore keeps them in a
local database table and RedisStore in a Redis list, so several bot
processes can share one corpus. The package also reads the two offline
formats a corpus is seeded from: Twitter archive CSV exports (optionally
xz- or gzip-compressed) and the quoted one-post-per-line static file.
*/
package corpus

import "context"

// Store is an ordered, append-only collection of source texts.
type Store interface {
	// Get returns every stored text in insertion order.
	Get(ctx context.Context) ([]string, error)
	// Append adds a single text.
	Append(ctx context.Context, text string) error
}

// Manager is a Store that can also be bulk-loaded, counted and emptied.
type Manager interface {
	Store
	// AppendMany adds every non-empty text and returns how many were stored.
	AppendMany(ctx context.Context, texts []string) (int, error)
	// Count returns the number of stored texts.
	Count(ctx context.Context) (int, error)
	// Clear removes every text.
	Clear(ctx context.Context) error
}

var (
	_ Manager = (*SQLiteStore)(nil)
	_ Manager = (*RedisStore)(nil)
)
