package main

import (
	"database/sql"
	"fmt"
	"os"

	_ "modernc.org/sqlite"

	"github.com/CTAG07/Ebooks/pkg/config"
	"github.com/CTAG07/Ebooks/pkg/corpus"
)

// openDB opens the service database with the pure-Go driver, so the CLI
// builds without cgo, and makes sure the corpus table exists.
func openDB(cfg *config.Config) (*sql.DB, error) {
	if err := os.MkdirAll(cfg.Server.DataDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	db, err := sql.Open("sqlite", cfg.Server.DatabasePath)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not open %s: %w", cfg.Server.DatabasePath, err)
	}
	if err = corpus.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to setup corpus schema: %w", err)
	}
	return db, nil
}
