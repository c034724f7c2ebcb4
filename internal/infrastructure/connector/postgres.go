package connector

import (
	"context"
	"database/sql"

	"github.com/dbnavigator/backend/internal/domain/schema"
)

type postgresConnector struct {
	baseConnector
}

func (c *postgresConnector) GetSchemas(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT schema_name
		FROM information_schema.schemata
		WHERE schema_name NOT IN ('information_schema', 'pg_catalog', 'pg_toast')
		ORDER BY schema_name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanStrings(rows)
}

func (c *postgresConnector) GetTables(ctx context.Context, schemaName string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT table_name
		FROM information_schema.tables
		WHERE table_schema = $1 AND table_type = 'BASE TABLE'
		ORDER BY table_name
	`, schemaName)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanStrings(rows)
}

func (c *postgresConnector) GetServerVersion(ctx context.Context) (string, error) {
	var version string
	err := c.db.QueryRowContext(ctx, "SHOW server_version").Scan(&version)
	return version, err
}

func (c *postgresConnector) GetTableSchema(ctx context.Context, schemaName, table string) (*schema.TableSchema, error) {
	ts := &schema.TableSchema{Schema: schemaName, Name: table}

	if err := c.loadColumns(ctx, ts); err != nil {
		return nil, err
	}
	if err := c.loadPrimaryKey(ctx, ts); err != nil {
		return nil, err
	}
	if err := c.loadIndexes(ctx, ts); err != nil {
		return nil, err
	}
	if err := c.loadForeignKeys(ctx, ts); err != nil {
		return nil, err
	}

	markUniqueColumns(ts)
	return ts, nil
}

func (c *postgresConnector) loadColumns(ctx context.Context, ts *schema.TableSchema) error {
	rows, err := c.db.QueryContext(ctx, `
		SELECT column_name, data_type, is_nullable, column_default
		FROM information_schema.columns
		WHERE table_schema = $1 AND table_name = $2
		ORDER BY ordinal_position
	`, ts.Schema, ts.Name)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var col schema.Column
		var nullable string
		var defaultValue sql.NullString
		if err := rows.Scan(&col.Name, &col.DataType, &nullable, &defaultValue); err != nil {
			return err
		}
		col.Nullable = nullable == "YES"
		if defaultValue.Valid {
			col.DefaultValue = &defaultValue.String
		}
		ts.Columns = append(ts.Columns, col)
	}
	return rows.Err()
}

func (c *postgresConnector) loadPrimaryKey(ctx context.Context, ts *schema.TableSchema) error {
	rows, err := c.db.QueryContext(ctx, `
		SELECT kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON kcu.constraint_name = tc.constraint_name
		 AND kcu.table_schema = tc.table_schema
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND tc.table_schema = $1 AND tc.table_name = $2
		ORDER BY kcu.ordinal_position
	`, ts.Schema, ts.Name)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	pk, err := scanStrings(rows)
	if err != nil {
		return err
	}
	ts.PrimaryKey = pk
	for _, name := range pk {
		if col := ts.FindColumn(name); col != nil {
			col.IsPrimaryKey = true
		}
	}
	return nil
}

func (c *postgresConnector) loadIndexes(ctx context.Context, ts *schema.TableSchema) error {
	rows, err := c.db.QueryContext(ctx, `
		SELECT i.relname AS index_name, a.attname AS column_name,
		       ix.indisunique, ix.indisprimary
		FROM pg_class t
		JOIN pg_namespace n ON n.oid = t.relnamespace
		JOIN pg_index ix ON ix.indrelid = t.oid
		JOIN pg_class i ON i.oid = ix.indexrelid
		JOIN pg_attribute a ON a.attrelid = t.oid AND a.attnum = ANY(ix.indkey)
		WHERE t.relkind = 'r' AND n.nspname = $1 AND t.relname = $2
		ORDER BY i.relname, array_position(ix.indkey, a.attnum)
	`, ts.Schema, ts.Name)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	byName := make(map[string]*schema.Index)
	var order []string
	for rows.Next() {
		var name, column string
		var isUnique, isPrimary bool
		if err := rows.Scan(&name, &column, &isUnique, &isPrimary); err != nil {
			return err
		}
		idx, ok := byName[name]
		if !ok {
			idx = &schema.Index{Name: name, IsUnique: isUnique, IsPrimary: isPrimary}
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

func (c *postgresConnector) loadForeignKeys(ctx context.Context, ts *schema.TableSchema) error {
	rows, err := c.db.QueryContext(ctx, `
		SELECT tc.constraint_name, kcu.column_name,
		       ccu.table_schema AS referenced_schema,
		       ccu.table_name AS referenced_table,
		       ccu.column_name AS referenced_column,
		       rc.delete_rule, rc.update_rule
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON kcu.constraint_name = tc.constraint_name
		 AND kcu.table_schema = tc.table_schema
		JOIN information_schema.constraint_column_usage ccu
		  ON ccu.constraint_name = tc.constraint_name
		 AND ccu.table_schema = tc.table_schema
		JOIN information_schema.referential_constraints rc
		  ON rc.constraint_name = tc.constraint_name
		 AND rc.constraint_schema = tc.table_schema
		WHERE tc.constraint_type = 'FOREIGN KEY'
		  AND tc.table_schema = $1 AND tc.table_name = $2
		ORDER BY tc.constraint_name, kcu.ordinal_position
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

// markUniqueColumns sets IsUnique on columns covered by a single-column
// unique non-primary index. Engines without a direct per-column unique flag
// (Postgres, SQLite) derive it this way.
func markUniqueColumns(ts *schema.TableSchema) {
	for _, idx := range ts.Indexes {
		if idx.IsUnique && !idx.IsPrimary && len(idx.Columns) == 1 {
			if col := ts.FindColumn(idx.Columns[0]); col != nil {
				col.IsUnique = true
			}
		}
	}
}
