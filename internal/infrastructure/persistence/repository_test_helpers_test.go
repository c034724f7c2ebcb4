package persistence

import (
	"database/sql"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// newTestDB opens an in-memory SQLite database carrying the metadata tables
func newTestDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	ddl := []string{
		`CREATE TABLE connections (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL UNIQUE,
			engine TEXT NOT NULL,
			host TEXT NOT NULL DEFAULT '',
			port INTEGER NOT NULL DEFAULT 0,
			username TEXT NOT NULL DEFAULT '',
			password TEXT NOT NULL DEFAULT '',
			database_name TEXT NOT NULL DEFAULT '',
			file_path TEXT NOT NULL DEFAULT '',
			created_date TIMESTAMP NOT NULL,
			last_modified_date TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE migration_history (
			id TEXT PRIMARY KEY,
			source_connection_id TEXT NOT NULL,
			target_connection_id TEXT NOT NULL,
			source_schema TEXT NOT NULL,
			target_schema TEXT NOT NULL,
			migration_sql TEXT NOT NULL,
			success INTEGER NOT NULL,
			error TEXT NOT NULL DEFAULT '',
			created_date TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE sync_runs (
			id TEXT PRIMARY KEY,
			source_connection_id TEXT NOT NULL,
			target_connection_id TEXT NOT NULL,
			schema_name TEXT NOT NULL,
			table_name TEXT NOT NULL,
			status TEXT NOT NULL,
			inserted INTEGER NOT NULL DEFAULT 0,
			updated INTEGER NOT NULL DEFAULT 0,
			deleted INTEGER NOT NULL DEFAULT 0,
			errors TEXT NOT NULL DEFAULT '[]',
			created_date TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE sync_schedules (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL,
			cron_expr TEXT NOT NULL,
			source_connection_id TEXT NOT NULL,
			target_connection_id TEXT NOT NULL,
			schema_name TEXT NOT NULL DEFAULT '',
			table_name TEXT NOT NULL,
			pk_columns TEXT NOT NULL,
			options TEXT NOT NULL DEFAULT '{}',
			enabled INTEGER NOT NULL DEFAULT 1,
			created_date TIMESTAMP NOT NULL
		)`,
	}
	for _, stmt := range ddl {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return db
}
