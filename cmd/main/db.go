package main

import (
	"database/sql"
	"fmt"
)

// openSQLite opens and pings the database.
func openSQLite(driver, dataSource string) (*sql.DB, error) {
	db, err := sql.Open(driver, dataSource)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(4)
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("could not reach %s database: %w", driver, err)
	}
	return db, nil
}
