package bot

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrPostNotFound is returned by History.Get for unknown ids.
var ErrPostNotFound = errors.New("post not found")

// SetupHistorySchema creates the post_history table. It is idempotent.
func SetupHistorySchema(db *sql.DB) error {
	const (
		schemaHistory = `
CREATE TABLE IF NOT EXISTS post_history (
    post_id TEXT PRIMARY KEY,
    text TEXT NOT NULL,
    style TEXT NOT NULL,
    attempts INTEGER NOT NULL,
    corpus_size INTEGER NOT NULL,
    dry_run INTEGER NOT NULL DEFAULT 0,
    published TEXT NOT NULL DEFAULT '[]',
    failed TEXT NOT NULL DEFAULT '{}',
    created_at INTEGER NOT NULL
);
`
		indexCreated = `CREATE INDEX IF NOT EXISTS idx_post_history_created ON post_history (created_at);`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaHistory); err != nil {
		return fmt.Errorf("could not create history schema: %w", err)
	}
	if _, err = tx.Exec(indexCreated); err != nil {
		return fmt.Errorf("could not create history index: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// HistoryStats summarizes recorded posts.
type HistoryStats struct {
	Total      int            `json:"total"`
	DryRuns    int            `json:"dry_runs"`
	ByStyle    map[string]int `json:"by_style"`
	LastPostAt *time.Time     `json:"last_post_at,omitempty"`
}

// History stores generated posts in SQLite.
type History struct {
	db         *sql.DB
	stmtInsert *sql.Stmt
	stmtRecent *sql.Stmt
	stmtGet    *sql.Stmt
}

const historyColumns = `post_id, text, style, attempts, corpus_size, dry_run, published, failed, created_at`

// NewHistory prepares the statements used by History. SetupHistorySchema
// must have been called on db first.
func NewHistory(db *sql.DB) (*History, error) {
	stmtInsert, err := db.Prepare(`INSERT INTO post_history (` + historyColumns + `) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?);`)
	if err != nil {
		return nil, err
	}

	stmtRecent, err := db.Prepare(`SELECT ` + historyColumns + ` FROM post_history ORDER BY created_at DESC, rowid DESC LIMIT ?;`)
	if err != nil {
		return nil, err
	}

	stmtGet, err := db.Prepare(`SELECT ` + historyColumns + ` FROM post_history WHERE post_id = ?;`)
	if err != nil {
		return nil, err
	}

	return &History{db: db, stmtInsert: stmtInsert, stmtRecent: stmtRecent, stmtGet: stmtGet}, nil
}

// Close releases the prepared statements.
func (h *History) Close() {
	_ = h.stmtInsert.Close()
	_ = h.stmtRecent.Close()
	_ = h.stmtGet.Close()
}

// Record stores post.
func (h *History) Record(ctx context.Context, post Post) error {
	published, err := json.Marshal(nonNilSlice(post.Published))
	if err != nil {
		return err
	}
	failed, err := json.Marshal(nonNilMap(post.Failed))
	if err != nil {
		return err
	}
	_, err = h.stmtInsert.ExecContext(ctx,
		post.ID, post.Text, post.Style, post.Attempts, post.CorpusSize,
		post.DryRun, string(published), string(failed), post.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("could not record post %s: %w", post.ID, err)
	}
	return nil
}

// Recent returns up to limit posts, newest first.
func (h *History) Recent(ctx context.Context, limit int) ([]Post, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.stmtRecent.QueryContext(ctx, limit)
	if err != nil {
		return nil, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	posts := make([]Post, 0, limit)
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return posts, nil
}

// Get returns the post with the given id.
func (h *History) Get(ctx context.Context, id string) (Post, error) {
	post, err := scanPost(h.stmtGet.QueryRowContext(ctx, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrPostNotFound
	}
	return post, err
}

// Stats summarizes every recorded post.
func (h *History) Stats(ctx context.Context) (HistoryStats, error) {
	stats := HistoryStats{ByStyle: make(map[string]int)}

	rows, err := h.db.QueryContext(ctx, "SELECT style, COUNT(*), SUM(dry_run), MAX(created_at) FROM post_history GROUP BY style")
	if err != nil {
		return stats, err
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var last int64
	for rows.Next() {
		var (
			styleName string
			count     int
			dryRuns   int
			newest    int64
		)
		if err = rows.Scan(&styleName, &count, &dryRuns, &newest); err != nil {
			return stats, err
		}
		stats.ByStyle[styleName] = count
		stats.Total += count
		stats.DryRuns += dryRuns
		last = max(last, newest)
	}
	if err = rows.Err(); err != nil {
		return stats, err
	}
	if stats.Total > 0 {
		t := time.UnixMilli(last).UTC()
		stats.LastPostAt = &t
	}
	return stats, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPost(row rowScanner) (Post, error) {
	var (
		post      Post
		published string
		failed    string
		created   int64
	)
	err := row.Scan(&post.ID, &post.Text, &post.Style, &post.Attempts, &post.CorpusSize,
		&post.DryRun, &published, &failed, &created)
	if err != nil {
		return Post{}, err
	}
	if err = json.Unmarshal([]byte(published), &post.Published); err != nil {
		return Post{}, fmt.Errorf("corrupt published list for %s: %w", post.ID, err)
	}
	if err = json.Unmarshal([]byte(failed), &post.Failed); err != nil {
		return Post{}, fmt.Errorf("corrupt failure map for %s: %w", post.ID, err)
	}
	if len(post.Published) == 0 {
		post.Published = nil
	}
	if len(post.Failed) == 0 {
		post.Failed = nil
	}
	post.CreatedAt = time.UnixMilli(created).UTC()
	return post, nil
}

func nonNilSlice(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func nonNilMap(m map[string]string) map[string]string {
	if m == nil {
		return map[string]string{}
	}
	return m
}
