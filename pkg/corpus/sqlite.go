package corpus

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"time"
)

// SetupSchema creates the corpus table in db. It is idempotent and safe to
// call on an already-initialized database.
func SetupSchema(db *sql.DB) error {
	const schemaTexts = `
CREATE TABLE IF NOT EXISTS corpus_texts (
    text_id INTEGER PRIMARY KEY,
    text TEXT NOT NULL,
    added_at INTEGER NOT NULL
);
`
	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	if _, err = tx.Exec(schemaTexts); err != nil {
		return fmt.Errorf("could not create corpus schema: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// SQLiteStore is a Store backed by the corpus_texts table.
type SQLiteStore struct {
	db         *sql.DB
	stmtGet    *sql.Stmt
	stmtAppend *sql.Stmt
	stmtCount  *sql.Stmt
	logger     *slog.Logger
}

// NewSQLiteStore prepares the statements used by the store. SetupSchema must
// have been called on db first.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	stmtGet, err := db.Prepare(`SELECT text FROM corpus_texts ORDER BY text_id;`)
	if err != nil {
		return nil, err
	}

	stmtAppend, err := db.Prepare(`INSERT INTO corpus_texts (text, added_at) VALUES (?, ?);`)
	if err != nil {
		return nil, err
	}

	stmtCount, err := db.Prepare(`SELECT COUNT(*) FROM corpus_texts;`)
	if err != nil {
		return nil, err
	}

	return &SQLiteStore{
		db:         db,
		stmtGet:    stmtGet,
		stmtAppend: stmtAppend,
		stmtCount:  stmtCount,
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}, nil
}

// Close releases the prepared statements. The database itself stays open.
func (s *SQLiteStore) Close() {
	_ = s.stmtGet.Close()
	_ = s.stmtAppend.Close()
	_ = s.stmtCount.Close()
}

// SetLogger sets the logger for the store. By default, all logs are discarded.
func (s *SQLiteStore) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// Get returns every stored text in insertion order.
func (s *SQLiteStore) Get(ctx context.Context) ([]string, error) {
	rows, err := s.stmtGet.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("could not query corpus: %w", err)
	}
	defer func(rows *sql.Rows) {
		_ = rows.Close()
	}(rows)

	var texts []string
	for rows.Next() {
		var text string
		if err = rows.Scan(&text); err != nil {
			return nil, err
		}
		texts = append(texts, text)
	}
	if err = rows.Err(); err != nil {
		return nil, err
	}
	return texts, nil
}

// Append adds a single text.
func (s *SQLiteStore) Append(ctx context.Context, text string) error {
	if _, err := s.stmtAppend.ExecContext(ctx, text, time.Now().Unix()); err != nil {
		return fmt.Errorf("could not append text: %w", err)
	}
	return nil
}

// AppendMany adds texts in a single transaction and returns how many were
// written. Empty texts are skipped.
func (s *SQLiteStore) AppendMany(ctx context.Context, texts []string) (int, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	stmt := tx.StmtContext(ctx, s.stmtAppend)
	now := time.Now().Unix()
	written := 0
	for _, text := range texts {
		if text == "" {
			continue
		}
		if _, err = stmt.ExecContext(ctx, text, now); err != nil {
			return 0, fmt.Errorf("could not append text %d: %w", written, err)
		}
		written++
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("could not commit transaction: %w", err)
	}

	s.logger.InfoContext(ctx, "Corpus texts appended",
		slog.Int("written", written),
		slog.Int("skipped", len(texts)-written),
	)
	return written, nil
}

// Count returns the number of stored texts.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.stmtCount.QueryRowContext(ctx).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

// Clear removes every stored text.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM corpus_texts")
	if err != nil {
		return fmt.Errorf("could not clear corpus: %w", err)
	}
	removed, _ := res.RowsAffected()
	s.logger.InfoContext(ctx, "Corpus cleared", slog.Int64("removed", removed))
	return nil
}
