package storage

import (
	"context"
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite" // SQLite driver

	"corpuscrawler/pkg/types"
)

const pagesSchema = `
CREATE TABLE IF NOT EXISTS pages (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	url TEXT NOT NULL,
	final_url TEXT NOT NULL,
	status_code INTEGER NOT NULL,
	token_count INTEGER NOT NULL,
	link_count INTEGER NOT NULL,
	fetched_at TIMESTAMP NOT NULL,
	latency_ms INTEGER NOT NULL
)`

// SQLiteStore records one row per successfully fetched page in a
// SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// OpenSQLite opens or creates the record database at path and applies
// the schema.
func OpenSQLite(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open record db: %w", err)
	}

	// Single sequential writer; one connection avoids locked-database
	// errors from the connection pool.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := db.Exec(pagesSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// SavePage inserts one audit row.
func (s *SQLiteStore) SavePage(ctx context.Context, rec types.PageRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO pages (url, final_url, status_code, token_count, link_count, fetched_at, latency_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.URL, rec.FinalURL, rec.StatusCode, rec.TokenCount, rec.LinkCount,
		rec.FetchedAt.UTC(), rec.Latency.Milliseconds())
	if err != nil {
		return fmt.Errorf("insert page record: %w", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
