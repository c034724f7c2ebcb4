package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/dbnavigator/backend/internal/domain/schema"
	"github.com/dbnavigator/backend/internal/infrastructure/connector"
	"github.com/dbnavigator/backend/internal/infrastructure/persistence"
	"github.com/dbnavigator/backend/pkg/constants"
	_ "github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/require"
)

// fakeConnector is an in-memory Connector for service tests. Query answers
// the shapes the services actually issue (COUNT, existence probe, full table
// scan); Execute records statements and optionally fails on a substring.
type fakeConnector struct {
	dialect connector.Dialect
	tables  []string
	schemas map[string]*schema.TableSchema
	rows    map[string][]schema.Row
	pk      []string

	executed []string
	failOn   string
}

func newFakeConnector(t *testing.T, engine constants.Engine) *fakeConnector {
	dialect, err := connector.DialectFor(engine)
	require.NoError(t, err)
	return &fakeConnector{
		dialect: dialect,
		schemas: make(map[string]*schema.TableSchema),
		rows:    make(map[string][]schema.Row),
	}
}

func (f *fakeConnector) addTable(ts *schema.TableSchema, rows ...schema.Row) {
	f.tables = append(f.tables, ts.Name)
	f.schemas[ts.Name] = ts
	f.rows[ts.Name] = rows
}

func (f *fakeConnector) GetSchemas(context.Context) ([]string, error) { return []string{"main"}, nil }

func (f *fakeConnector) GetTables(context.Context, string) ([]string, error) {
	return f.tables, nil
}

func (f *fakeConnector) GetTableSchema(_ context.Context, _, table string) (*schema.TableSchema, error) {
	ts, ok := f.schemas[table]
	if !ok {
		return nil, errors.New("no such table: " + table)
	}
	return ts, nil
}

func (f *fakeConnector) GetServerVersion(context.Context) (string, error) { return "fake 1.0", nil }

func (f *fakeConnector) Query(_ context.Context, query string, params ...interface{}) ([]schema.Row, error) {
	table := f.tableFor(query)
	switch {
	case strings.HasPrefix(query, "SELECT COUNT"):
		return []schema.Row{{"cnt": int64(len(f.rows[table]))}}, nil
	case strings.HasPrefix(query, "SELECT 1"):
		for _, row := range f.rows[table] {
			match := len(f.pk) > 0
			for i, col := range f.pk {
				if i >= len(params) || row[col] != params[i] {
					match = false
					break
				}
			}
			if match {
				return []schema.Row{{"present": int64(1)}}, nil
			}
		}
		return nil, nil
	default:
		return f.rows[table], nil
	}
}

func (f *fakeConnector) Execute(_ context.Context, query string, _ ...interface{}) (int64, error) {
	f.executed = append(f.executed, query)
	if f.failOn != "" && strings.Contains(query, f.failOn) {
		return 0, errors.New("forced failure")
	}
	return 1, nil
}

func (f *fakeConnector) Ping(context.Context) error { return nil }

func (f *fakeConnector) Dialect() connector.Dialect { return f.dialect }

func (f *fakeConnector) Close() error { return nil }

func (f *fakeConnector) tableFor(query string) string {
	for name := range f.schemas {
		if strings.Contains(query, f.dialect.QuoteIdentifier(name)) {
			return name
		}
	}
	return ""
}

// executedMatching returns the executed statements containing the substring
func (f *fakeConnector) executedMatching(substr string) []string {
	var out []string
	for _, stmt := range f.executed {
		if strings.Contains(stmt, substr) {
			out = append(out, stmt)
		}
	}
	return out
}

// fakeConnections builds a ConnectionService whose connector cache is
// pre-seeded, so no metadata store lookup happens
func fakeConnections(conns map[string]connector.Connector) *ConnectionService {
	return &ConnectionService{connectors: conns}
}

// newTestConnectionService backs a ConnectionService with an empty in-memory
// connections table, for tests exercising the unknown-connection path
func newTestConnectionService(t *testing.T) *ConnectionService {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE connections (
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
	)`)
	require.NoError(t, err)
	return NewConnectionService(persistence.NewConnectionRepository(db))
}

// newTestHistoryRepo backs a HistoryRepository with an in-memory SQLite
// database carrying the real metadata tables
func newTestHistoryRepo(t *testing.T) *persistence.HistoryRepository {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	ddl := []string{
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
	}
	for _, stmt := range ddl {
		_, err := db.Exec(stmt)
		require.NoError(t, err)
	}
	return persistence.NewHistoryRepository(db)
}

// newTestScheduleRepo backs a ScheduleRepository with an in-memory SQLite
// schedules table
func newTestScheduleRepo(t *testing.T) *persistence.ScheduleRepository {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`CREATE TABLE sync_schedules (
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
	)`)
	require.NoError(t, err)
	return persistence.NewScheduleRepository(db)
}
