package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// MetadataStore is the local SQLite database holding connections, migration
// history, sync runs and schedules.
// Note: sql.DB is already thread-safe and manages its own connection pool.
// We do NOT wrap it with additional mutexes.
type MetadataStore struct {
	db *sql.DB
}

var (
	instance *MetadataStore
	once     sync.Once
	initErr  error
)

// GetInstance returns the singleton metadata store
func GetInstance() (*MetadataStore, error) {
	once.Do(func() {
		instance, initErr = newStore()
	})
	return instance, initErr
}

// newStore opens (creating if necessary) the metadata database file
func newStore() (*MetadataStore, error) {
	path := os.Getenv("DBNAV_METADATA_PATH")
	if path == "" {
		path = filepath.Join("data", "dbnavigator.db")
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create metadata directory: %w", err)
		}
	}

	// busy_timeout avoids SQLITE_BUSY when a sync run and an API call touch
	// the store at the same time
	dsn := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL&_foreign_keys=on", path)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata store: %w", err)
	}

	// SQLite allows one writer at a time; a single connection sidesteps
	// write contention entirely
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping metadata store: %w", err)
	}

	return &MetadataStore{db: db}, nil
}

// Query executes a SELECT query and returns rows
func (s *MetadataStore) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return s.db.Query(query, args...)
}

// QueryContext executes a SELECT query with context
func (s *MetadataStore) QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error) {
	return s.db.QueryContext(ctx, query, args...)
}

// QueryRow executes a SELECT query that returns at most one row
func (s *MetadataStore) QueryRow(query string, args ...interface{}) *sql.Row {
	return s.db.QueryRow(query, args...)
}

// Exec executes an INSERT, UPDATE, or DELETE query
func (s *MetadataStore) Exec(query string, args ...interface{}) (sql.Result, error) {
	return s.db.Exec(query, args...)
}

// ExecContext executes an INSERT, UPDATE, or DELETE query with context
func (s *MetadataStore) ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error) {
	return s.db.ExecContext(ctx, query, args...)
}

// DB returns the underlying *sql.DB connection
func (s *MetadataStore) DB() *sql.DB {
	return s.db
}

// Close closes the metadata store
func (s *MetadataStore) Close() error {
	return s.db.Close()
}
