package services

import (
	"fmt"
	"strings"

	"github.com/dbnavigator/backend/internal/domain/schema"
	"github.com/dbnavigator/backend/internal/infrastructure/connector"
	"github.com/dbnavigator/backend/pkg/constants"
)

// sqlGenerator renders migration DDL for one target dialect. Type and DDL
// generation is template-based; introspected type strings and default-value
// expressions are carried through verbatim rather than parsed.
type sqlGenerator struct {
	dialect connector.Dialect
}

func newSQLGenerator(d connector.Dialect) *sqlGenerator {
	return &sqlGenerator{dialect: d}
}

func (g *sqlGenerator) engine() constants.Engine {
	return g.dialect.Name()
}

// CreateTable renders a full CREATE TABLE plus secondary indexes and foreign
// keys for a table that only exists on the source side.
func (g *sqlGenerator) CreateTable(schemaName string, ts *schema.TableSchema) []string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("CREATE TABLE %s (\n", g.dialect.TableRef(schemaName, ts.Name)))

	for i, col := range ts.Columns {
		b.WriteString("  ")
		b.WriteString(g.columnDef(col))
		if i < len(ts.Columns)-1 || len(ts.PrimaryKey) > 0 {
			b.WriteString(",")
		}
		b.WriteString("\n")
	}
	if len(ts.PrimaryKey) > 0 {
		b.WriteString(fmt.Sprintf("  PRIMARY KEY (%s)\n", g.quoteList(ts.PrimaryKey)))
	}
	b.WriteString(")")

	stmts := []string{b.String()}
	for _, idx := range ts.Indexes {
		if idx.IsPrimary {
			continue
		}
		stmts = append(stmts, g.CreateIndex(schemaName, ts.Name, idx))
	}
	for _, fk := range ts.ForeignKeys {
		stmts = append(stmts, g.AddForeignKey(schemaName, ts.Name, fk))
	}
	return stmts
}

// DropTable renders a drop for a table that only exists on the target side.
// Cascade behavior is left to the engine default.
func (g *sqlGenerator) DropTable(schemaName, table string) string {
	return fmt.Sprintf("DROP TABLE IF EXISTS %s", g.dialect.TableRef(schemaName, table))
}

// AddColumn renders an ALTER TABLE ... ADD COLUMN
func (g *sqlGenerator) AddColumn(schemaName, table string, col schema.Column) string {
	return fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s",
		g.dialect.TableRef(schemaName, table), g.columnDef(col))
}

// DropColumn renders an ALTER TABLE ... DROP COLUMN
func (g *sqlGenerator) DropColumn(schemaName, table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP COLUMN %s",
		g.dialect.TableRef(schemaName, table), g.dialect.QuoteIdentifier(column))
}

// AlterColumn renders the statements that reshape a target column to match
// the source. Only Postgres supports the full ALTER COLUMN family; every
// other dialect gets a comment placeholder signaling a manual migration.
// This is a known limitation, not a defect.
func (g *sqlGenerator) AlterColumn(schemaName, table string, source, target schema.Column) []string {
	if g.engine() != constants.EnginePostgres {
		return []string{fmt.Sprintf("-- Cannot alter column %s.%s on %s; manual migration required",
			table, source.Name, g.engine())}
	}

	ref := g.dialect.TableRef(schemaName, table)
	col := g.dialect.QuoteIdentifier(source.Name)
	var stmts []string

	if !strings.EqualFold(source.DataType, target.DataType) {
		stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s TYPE %s", ref, col, source.DataType))
	}
	if source.Nullable != target.Nullable {
		if source.Nullable {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP NOT NULL", ref, col))
		} else {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET NOT NULL", ref, col))
		}
	}
	if !defaultsEqual(source.DefaultValue, target.DefaultValue) {
		if source.DefaultValue == nil {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s DROP DEFAULT", ref, col))
		} else {
			stmts = append(stmts, fmt.Sprintf("ALTER TABLE %s ALTER COLUMN %s SET DEFAULT %s", ref, col, *source.DefaultValue))
		}
	}
	return stmts
}

// CreateIndex renders a CREATE [UNIQUE] INDEX
func (g *sqlGenerator) CreateIndex(schemaName, table string, idx schema.Index) string {
	unique := ""
	if idx.IsUnique {
		unique = "UNIQUE "
	}
	return fmt.Sprintf("CREATE %sINDEX %s ON %s (%s)",
		unique, g.dialect.QuoteIdentifier(idx.Name),
		g.dialect.TableRef(schemaName, table), g.quoteList(idx.Columns))
}

// DropIndex renders a DROP INDEX. MySQL scopes index names to the table;
// Postgres scopes them to the schema; SQLite to the database.
func (g *sqlGenerator) DropIndex(schemaName, table, index string) string {
	switch g.engine() {
	case constants.EngineMySQL, constants.EngineMariaDB:
		return fmt.Sprintf("DROP INDEX %s ON %s",
			g.dialect.QuoteIdentifier(index), g.dialect.TableRef(schemaName, table))
	case constants.EnginePostgres:
		if schemaName != "" {
			return fmt.Sprintf("DROP INDEX IF EXISTS %s.%s",
				g.dialect.QuoteIdentifier(schemaName), g.dialect.QuoteIdentifier(index))
		}
		return fmt.Sprintf("DROP INDEX IF EXISTS %s", g.dialect.QuoteIdentifier(index))
	default:
		return fmt.Sprintf("DROP INDEX IF EXISTS %s", g.dialect.QuoteIdentifier(index))
	}
}

// AddForeignKey renders an ALTER TABLE ... ADD CONSTRAINT ... FOREIGN KEY
func (g *sqlGenerator) AddForeignKey(schemaName, table string, fk schema.ForeignKey) string {
	if g.engine() == constants.EngineSQLite {
		// SQLite cannot add constraints to an existing table
		return fmt.Sprintf("-- Cannot add foreign key %s on sqlite; manual migration required", fk.Name)
	}
	stmt := fmt.Sprintf("ALTER TABLE %s ADD CONSTRAINT %s FOREIGN KEY (%s) REFERENCES %s (%s)",
		g.dialect.TableRef(schemaName, table),
		g.dialect.QuoteIdentifier(fk.Name),
		g.quoteList(fk.Columns),
		g.dialect.TableRef(fk.ReferencedSchema, fk.ReferencedTable),
		g.quoteList(fk.ReferencedColumns))
	if fk.OnDelete != "" {
		stmt += " ON DELETE " + fk.OnDelete
	}
	if fk.OnUpdate != "" {
		stmt += " ON UPDATE " + fk.OnUpdate
	}
	return stmt
}

// DropForeignKey renders the dialect-correct constraint drop
func (g *sqlGenerator) DropForeignKey(schemaName, table, name string) string {
	switch g.engine() {
	case constants.EngineMySQL, constants.EngineMariaDB:
		return fmt.Sprintf("ALTER TABLE %s DROP FOREIGN KEY %s",
			g.dialect.TableRef(schemaName, table), g.dialect.QuoteIdentifier(name))
	case constants.EnginePostgres:
		return fmt.Sprintf("ALTER TABLE %s DROP CONSTRAINT %s",
			g.dialect.TableRef(schemaName, table), g.dialect.QuoteIdentifier(name))
	default:
		return fmt.Sprintf("-- Cannot drop foreign key %s on %s; manual migration required", name, g.engine())
	}
}

// columnDef renders one column definition. The introspected data type and
// default expression are emitted verbatim.
func (g *sqlGenerator) columnDef(col schema.Column) string {
	var b strings.Builder
	b.WriteString(g.dialect.QuoteIdentifier(col.Name))
	b.WriteString(" ")
	b.WriteString(col.DataType)
	if !col.Nullable {
		b.WriteString(" NOT NULL")
	}
	if col.DefaultValue != nil {
		b.WriteString(" DEFAULT ")
		b.WriteString(*col.DefaultValue)
	}
	return b.String()
}

func (g *sqlGenerator) quoteList(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = g.dialect.QuoteIdentifier(n)
	}
	return strings.Join(quoted, ", ")
}

func defaultsEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// isCommentOnly reports whether a statement is a placeholder comment that
// should be skipped during apply
func isCommentOnly(stmt string) bool {
	return strings.HasPrefix(strings.TrimSpace(stmt), "--")
}
