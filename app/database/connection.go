package database

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite connection pool
type DB struct {
	*sql.DB
}

// Open opens (or creates) the SQLite database at path. WAL mode plus a busy
// timeout lets refresh workers read while one writer commits; synchronous is
// relaxed to NORMAL since feed content is re-fetchable.
func Open(path string) (*DB, error) {
	dsn := path + "?_pragma=busy_timeout(60000)&_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=foreign_keys(1)"

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	return &DB{DB: db}, nil
}

// Close closes the underlying connection pool
func (db *DB) Close() error {
	return db.DB.Close()
}
