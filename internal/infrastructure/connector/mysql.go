package connector

import (
	"context"
	"database/sql"

	"github.com/dbnavigator/backend/internal/domain/schema"
)

// mysqlConnector serves both MySQL and MariaDB; introspection goes through
// INFORMATION_SCHEMA, which both expose identically for our purposes.
type mysqlConnector struct {
	baseConnector
}

func (c *mysqlConnector) GetSchemas(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT SCHEMA_NAME
		FROM INFORMATION_SCHEMA.SCHEMATA
		WHERE SCHEMA_NAME NOT IN ('information_schema', 'performance_schema', 'mysql', 'sys')
		ORDER BY SCHEMA_NAME
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanStrings(rows)
}

func (c *mysqlConnector) GetTables(ctx context.Context, schemaName string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT TABLE_NAME
		FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = ? AND TABLE_TYPE = 'BASE TABLE'
		ORDER BY TABLE_NAME
	`, schemaName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanStrings(rows)
}

func (c *mysqlConnector) GetServerVersion(ctx context.Context) (string, error) {
	var version string
	err := c.db.QueryRowContext(ctx, "SELECT VERSION()").Scan(&version)
	return version, err
}

func (c *mysqlConnector) GetTableSchema(ctx context.Context, schemaName, table string) (*schema.TableSchema, error) {
	ts := &schema.TableSchema{Schema: schemaName, Name: table}

	if err := c.loadColumns(ctx, ts); err != nil {
		return nil, err
	}
	if err := c.loadIndexes(ctx, ts); err != nil {
		return nil, err
	}
	if err := c.loadForeignKeys(ctx, ts); err != nil {
		return nil, err
	}
	return ts, nil
}

func (c *mysqlConnector) loadColumns(ctx context.Context, ts *schema.TableSchema) error {
	rows, err := c.db.QueryContext(ctx, `
		SELECT COLUMN_NAME, COLUMN_TYPE, IS_NULLABLE, COLUMN_DEFAULT, COLUMN_KEY
		FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION
	`, ts.Schema, ts.Name)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var col schema.Column
		var nullable, key string
		var defaultValue sql.NullString
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &defaultValue, &key); err != nil {
			return err
		}
		col.Nullable = nullable == "YES"
		if defaultValue.Valid {
			col.DefaultValue = &defaultValue.String
		}
		col.IsPrimaryKey = key == "PRI"
		col.IsUnique = key == "UNI"
		if col.IsPrimaryKey {
			ts.PrimaryKey = append(ts.PrimaryKey, col.Name)
		}
		ts.Columns = append(ts.Columns, col)
	}
	return rows.Err()
}

func (c *mysqlConnector) loadIndexes(ctx context.Context, ts *schema.TableSchema) error {
	rows, err := c.db.QueryContext(ctx, `
		SELECT INDEX_NAME, COLUMN_NAME, NON_UNIQUE
		FROM INFORMATION_SCHEMA.STATISTICS
		WHERE TABLE_SCHEMA = ? AND TABLE_NAME = ?
		ORDER BY INDEX_NAME, SEQ_IN_INDEX
	`, ts.Schema, ts.Name)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	byName := make(map[string]*schema.Index)
	var order []string
	for rows.Next() {
		var name, column string
		var nonUnique int
		if err := rows.Scan(&name, &column, &nonUnique); err != nil {
			return err
		}
		idx, ok := byName[name]
		if !ok {
			idx = &schema.Index{
				Name:      name,
				IsUnique:  nonUnique == 0,
				IsPrimary: name == "PRIMARY",
			}
			byName[name] = idx
			order = append(order, name)
		}
		idx.Columns = append(idx.Columns, column)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, name := range order {
		ts.Indexes = append(ts.Indexes, *byName[name])
	}
	return nil
}

func (c *mysqlConnector) loadForeignKeys(ctx context.Context, ts *schema.TableSchema) error {
	rows, err := c.db.QueryContext(ctx, `
		SELECT kcu.CONSTRAINT_NAME, kcu.COLUMN_NAME,
		       kcu.REFERENCED_TABLE_SCHEMA, kcu.REFERENCED_TABLE_NAME, kcu.REFERENCED_COLUMN_NAME,
		       rc.DELETE_RULE, rc.UPDATE_RULE
		FROM INFORMATION_SCHEMA.KEY_COLUMN_USAGE kcu
		JOIN INFORMATION_SCHEMA.REFERENTIAL_CONSTRAINTS rc
		  ON rc.CONSTRAINT_SCHEMA = kcu.CONSTRAINT_SCHEMA
		 AND rc.CONSTRAINT_NAME = kcu.CONSTRAINT_NAME
		WHERE kcu.TABLE_SCHEMA = ? AND kcu.TABLE_NAME = ?
		  AND kcu.REFERENCED_TABLE_NAME IS NOT NULL
		ORDER BY kcu.CONSTRAINT_NAME, kcu.ORDINAL_POSITION
	`, ts.Schema, ts.Name)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	byName := make(map[string]*schema.ForeignKey)
	var order []string
	for rows.Next() {
		var name, column, refSchema, refTable, refColumn, onDelete, onUpdate string
		if err := rows.Scan(&name, &column, &refSchema, &refTable, &refColumn, &onDelete, &onUpdate); err != nil {
			return err
		}
		fk, ok := byName[name]
		if !ok {
			fk = &schema.ForeignKey{
				Name:             name,
				ReferencedSchema: refSchema,
				ReferencedTable:  refTable,
				OnDelete:         onDelete,
				OnUpdate:         onUpdate,
			}
			byName[name] = fk
			order = append(order, name)
		}
		fk.Columns = append(fk.Columns, column)
		fk.ReferencedColumns = append(fk.ReferencedColumns, refColumn)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, name := range order {
		ts.ForeignKeys = append(ts.ForeignKeys, *byName[name])
	}
	return nil
}

// scanStrings drains a single-column string result set
func scanStrings(rows *sql.Rows) ([]string, error) {
	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
