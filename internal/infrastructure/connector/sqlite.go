package connector

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dbnavigator/backend/internal/domain/schema"
)

// sqliteConnector introspects via PRAGMA statements. PRAGMAs cannot be
// parameterized, so table and index names are interpolated quoted.
type sqliteConnector struct {
	baseConnector
}

// GetSchemas returns the single implicit schema of a SQLite database file
func (c *sqliteConnector) GetSchemas(context.Context) ([]string, error) {
	return []string{"main"}, nil
}

func (c *sqliteConnector) GetTables(ctx context.Context, _ string) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name
	`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	return scanStrings(rows)
}

func (c *sqliteConnector) GetServerVersion(ctx context.Context) (string, error) {
	var version string
	err := c.db.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version)
	return version, err
}

func (c *sqliteConnector) GetTableSchema(ctx context.Context, schemaName, table string) (*schema.TableSchema, error) {
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

	markUniqueColumns(ts)
	return ts, nil
}

func (c *sqliteConnector) loadColumns(ctx context.Context, ts *schema.TableSchema) error {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", c.dialect.QuoteIdentifier(ts.Name)))
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	// pk is the 1-based position within the primary key, 0 for non-key columns
	type pkColumn struct {
		name string
		pos  int
	}
	var pkCols []pkColumn

	for rows.Next() {
		var cid, notNull, pk int
		var name, dataType string
		var defaultValue sql.NullString
		if err := rows.Scan(&cid, &name, &dataType, &notNull, &defaultValue, &pk); err != nil {
			return err
		}
		col := schema.Column{
			Name:         name,
			DataType:     dataType,
			Nullable:     notNull == 0,
			IsPrimaryKey: pk > 0,
		}
		if defaultValue.Valid {
			col.DefaultValue = &defaultValue.String
		}
		if pk > 0 {
			pkCols = append(pkCols, pkColumn{name: name, pos: pk})
		}
		ts.Columns = append(ts.Columns, col)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	// Preserve composite-key order, which PRAGMA reports via the pk position
	for len(pkCols) > 0 {
		minIdx := 0
		for i, p := range pkCols {
			if p.pos < pkCols[minIdx].pos {
				minIdx = i
			}
		}
		ts.PrimaryKey = append(ts.PrimaryKey, pkCols[minIdx].name)
		pkCols = append(pkCols[:minIdx], pkCols[minIdx+1:]...)
	}
	return nil
}

func (c *sqliteConnector) loadIndexes(ctx context.Context, ts *schema.TableSchema) error {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_list(%s)", c.dialect.QuoteIdentifier(ts.Name)))
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	type indexEntry struct {
		name   string
		unique int
		origin string
	}
	var entries []indexEntry
	for rows.Next() {
		var seq, unique, partial int
		var name, origin string
		if err := rows.Scan(&seq, &name, &unique, &origin, &partial); err != nil {
			return err
		}
		entries = append(entries, indexEntry{name: name, unique: unique, origin: origin})
	}
	if err := rows.Err(); err != nil {
		return err
	}

	for _, entry := range entries {
		idx := schema.Index{
			Name:      entry.name,
			IsUnique:  entry.unique == 1,
			IsPrimary: entry.origin == "pk",
		}
		colRows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA index_info(%s)", c.dialect.QuoteIdentifier(entry.name)))
		if err != nil {
			return err
		}
		for colRows.Next() {
			var seqno, cid int
			var colName string
			if err := colRows.Scan(&seqno, &cid, &colName); err != nil {
				_ = colRows.Close()
				return err
			}
			idx.Columns = append(idx.Columns, colName)
		}
		if err := colRows.Err(); err != nil {
			_ = colRows.Close()
			return err
		}
		_ = colRows.Close()
		ts.Indexes = append(ts.Indexes, idx)
	}
	return nil
}

func (c *sqliteConnector) loadForeignKeys(ctx context.Context, ts *schema.TableSchema) error {
	rows, err := c.db.QueryContext(ctx, fmt.Sprintf("PRAGMA foreign_key_list(%s)", c.dialect.QuoteIdentifier(ts.Name)))
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	byID := make(map[int]*schema.ForeignKey)
	var order []int
	for rows.Next() {
		var id, seq int
		var refTable, from, to, onUpdate, onDelete, match string
		if err := rows.Scan(&id, &seq, &refTable, &from, &to, &onUpdate, &onDelete, &match); err != nil {
			return err
		}
		fk, ok := byID[id]
		if !ok {
			fk = &schema.ForeignKey{
				// SQLite does not name foreign keys; synthesize a stable one
				Name:             fmt.Sprintf("fk_%s_%d", ts.Name, id),
				ReferencedSchema: ts.Schema,
				ReferencedTable:  refTable,
				OnDelete:         onDelete,
				OnUpdate:         onUpdate,
			}
			byID[id] = fk
			order = append(order, id)
		}
		fk.Columns = append(fk.Columns, from)
		fk.ReferencedColumns = append(fk.ReferencedColumns, to)
	}
	if err := rows.Err(); err != nil {
		return err
	}
	for _, id := range order {
		ts.ForeignKeys = append(ts.ForeignKeys, *byID[id])
	}
	return nil
}
