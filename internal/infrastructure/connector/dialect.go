package connector

import (
	"fmt"
	"strings"

	"github.com/dbnavigator/backend/pkg/constants"
)

// Dialect abstracts the engine-specific pieces of SQL generation: identifier
// quoting, parameter placeholder style, and schema-qualified table
// references. One implementation per engine family, injected once, so the
// generation code never branches on an engine tag string.
type Dialect interface {
	// Name returns the engine tag this dialect serves
	Name() constants.Engine
	// QuoteIdentifier quotes a table or column name
	QuoteIdentifier(name string) string
	// Placeholder returns the parameter placeholder for 1-based index i
	Placeholder(i int) string
	// TableRef returns a fully quoted table reference. SQLite omits the
	// schema qualifier.
	TableRef(schema, table string) string
}

// DialectFor returns the dialect for an engine tag. MariaDB shares the MySQL
// dialect.
func DialectFor(engine constants.Engine) (Dialect, error) {
	switch engine {
	case constants.EngineMySQL, constants.EngineMariaDB:
		return mysqlDialect{engine: engine}, nil
	case constants.EnginePostgres:
		return postgresDialect{}, nil
	case constants.EngineSQLite:
		return sqliteDialect{}, nil
	default:
		return nil, fmt.Errorf("unsupported engine: %s", engine)
	}
}

type mysqlDialect struct {
	engine constants.Engine
}

func (d mysqlDialect) Name() constants.Engine { return d.engine }

func (d mysqlDialect) QuoteIdentifier(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}

func (d mysqlDialect) Placeholder(int) string { return "?" }

func (d mysqlDialect) TableRef(schema, table string) string {
	if schema == "" {
		return d.QuoteIdentifier(table)
	}
	return d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(table)
}

type postgresDialect struct{}

func (postgresDialect) Name() constants.Engine { return constants.EnginePostgres }

func (postgresDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (postgresDialect) Placeholder(i int) string { return fmt.Sprintf("$%d", i) }

func (d postgresDialect) TableRef(schema, table string) string {
	if schema == "" {
		return d.QuoteIdentifier(table)
	}
	return d.QuoteIdentifier(schema) + "." + d.QuoteIdentifier(table)
}

type sqliteDialect struct{}

func (sqliteDialect) Name() constants.Engine { return constants.EngineSQLite }

func (sqliteDialect) QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func (sqliteDialect) Placeholder(i int) string { return fmt.Sprintf("$%d", i) }

// TableRef for SQLite ignores the schema qualifier: a connection is a single
// database file.
func (d sqliteDialect) TableRef(_, table string) string {
	return d.QuoteIdentifier(table)
}
