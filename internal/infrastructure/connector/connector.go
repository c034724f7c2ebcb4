package connector

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dbnavigator/backend/internal/domain/models"
	"github.com/dbnavigator/backend/internal/domain/schema"
	"github.com/dbnavigator/backend/pkg/constants"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
)

// Connector is the per-engine adapter for one open connection: schema
// introspection plus raw SQL execution. Implementations share a *sql.DB,
// which manages its own pool and is safe for concurrent use.
type Connector interface {
	GetSchemas(ctx context.Context) ([]string, error)
	GetTables(ctx context.Context, schemaName string) ([]string, error)
	GetTableSchema(ctx context.Context, schemaName, table string) (*schema.TableSchema, error)
	GetServerVersion(ctx context.Context) (string, error)
	// Query runs a parameterized SELECT and returns rows as column-name maps
	Query(ctx context.Context, query string, params ...interface{}) ([]schema.Row, error)
	// Execute runs a parameterized statement and returns rows affected
	Execute(ctx context.Context, query string, params ...interface{}) (int64, error)
	Ping(ctx context.Context) error
	Dialect() Dialect
	Close() error
}

// Open connects to the database described by a stored connection and returns
// the matching connector. The pool settings mirror what we use for the
// metadata store: idle count equal to open count so connections are not
// churned under load.
func Open(conn *models.Connection) (Connector, error) {
	dialect, err := DialectFor(conn.Engine)
	if err != nil {
		return nil, err
	}

	driver, dsn := driverDSN(conn)
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection '%s': %w", conn.Engine, conn.Name, err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)

	base := baseConnector{db: db, dialect: dialect}
	switch conn.Engine {
	case constants.EngineMySQL, constants.EngineMariaDB:
		return &mysqlConnector{baseConnector: base}, nil
	case constants.EnginePostgres:
		return &postgresConnector{baseConnector: base}, nil
	case constants.EngineSQLite:
		return &sqliteConnector{baseConnector: base}, nil
	}
	// Unreachable: DialectFor already rejected unknown engines
	return nil, fmt.Errorf("unsupported engine: %s", conn.Engine)
}

func driverDSN(conn *models.Connection) (driver, dsn string) {
	switch conn.Engine {
	case constants.EngineMySQL, constants.EngineMariaDB:
		return "mysql", fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
			conn.Username, conn.Password, conn.Host, conn.Port, conn.DatabaseName)
	case constants.EnginePostgres:
		return "postgres", fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=disable",
			conn.Host, conn.Port, conn.Username, conn.Password, conn.DatabaseName)
	case constants.EngineSQLite:
		return "sqlite3", conn.FilePath
	}
	return "", ""
}

// baseConnector carries the shared query/execute plumbing; the per-engine
// types add introspection on top.
type baseConnector struct {
	db      *sql.DB
	dialect Dialect
}

func (c *baseConnector) Query(ctx context.Context, query string, params ...interface{}) ([]schema.Row, error) {
	rows, err := c.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return ScanRows(rows)
}

func (c *baseConnector) Execute(ctx context.Context, query string, params ...interface{}) (int64, error) {
	res, err := c.db.ExecContext(ctx, query, params...)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		// Some drivers cannot report affected rows; the statement still ran
		return 0, nil
	}
	return affected, nil
}

func (c *baseConnector) Dialect() Dialect { return c.dialect }

func (c *baseConnector) Close() error { return c.db.Close() }

// Ping verifies the connection is usable
func (c *baseConnector) Ping(ctx context.Context) error {
	return c.db.PingContext(ctx)
}
