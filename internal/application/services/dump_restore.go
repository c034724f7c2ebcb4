package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/dbnavigator/backend/internal/domain/schema"
	"github.com/dbnavigator/backend/internal/infrastructure/connector"
	"github.com/dbnavigator/backend/pkg/constants"
)

// insertBatchSize caps the row count of one multi-row INSERT so parameter
// limits (notably SQLite's 999 default) are not exceeded on wide tables.
const insertBatchSize = 500

// DumpAndRestore bulk-copies table data from source to target. Tables must
// already exist on the target; only data moves. A per-table failure is
// recorded and the run continues with the next table.
func (s *DataSyncService) DumpAndRestore(ctx context.Context, sourceConnID, targetConnID, sourceSchema, targetSchema string, opts schema.DumpRestoreOptions) (*schema.DumpRestoreResult, error) {
	sourceConn, err := s.connections.Connector(ctx, sourceConnID)
	if err != nil {
		return nil, err
	}
	targetConn, err := s.connections.Connector(ctx, targetConnID)
	if err != nil {
		return nil, err
	}

	tables := opts.Tables
	if len(tables) == 0 {
		tables, err = sourceConn.GetTables(ctx, sourceSchema)
		if err != nil {
			return nil, err
		}
	}

	result := &schema.DumpRestoreResult{Schema: targetSchema}
	for _, table := range tables {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		copied, err := s.copyTable(ctx, sourceConn, targetConn, sourceSchema, targetSchema, table, opts.TruncateTarget)
		entry := schema.TableCopyResult{Table: table, RowCount: copied}
		if err != nil {
			entry.Error = err.Error()
			result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", table, err))
			log.Printf("Warning: dump-and-restore of %s failed after %d rows: %v", table, copied, err)
		}
		result.Tables = append(result.Tables, entry)
	}
	return result, nil
}

func (s *DataSyncService) copyTable(ctx context.Context, sourceConn, targetConn connector.Connector, sourceSchema, targetSchema, table string, truncate bool) (int, error) {
	dialect := targetConn.Dialect()
	targetRef := dialect.TableRef(targetSchema, table)

	if truncate {
		stmt := fmt.Sprintf("TRUNCATE TABLE %s", targetRef)
		if dialect.Name() == constants.EngineSQLite {
			stmt = fmt.Sprintf("DELETE FROM %s", targetRef)
		}
		if _, err := targetConn.Execute(ctx, stmt); err != nil {
			return 0, fmt.Errorf("failed to clear target table: %w", err)
		}
	}

	sourceDialect := sourceConn.Dialect()
	rows, err := sourceConn.Query(ctx, fmt.Sprintf("SELECT * FROM %s", sourceDialect.TableRef(sourceSchema, table)))
	if err != nil {
		return 0, fmt.Errorf("failed to read source table: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	// Column order comes from the source table definition so every batch
	// lines up even when driver maps iterate differently
	ts, err := sourceConn.GetTableSchema(ctx, sourceSchema, table)
	if err != nil {
		return 0, fmt.Errorf("failed to read source table schema: %w", err)
	}
	cols := ts.ColumnNames()

	copied := 0
	for start := 0; start < len(rows); start += insertBatchSize {
		if err := ctx.Err(); err != nil {
			return copied, err
		}
		end := start + insertBatchSize
		if end > len(rows) {
			end = len(rows)
		}
		batch := rows[start:end]
		if err := insertBatch(ctx, targetConn, dialect, targetRef, cols, batch); err != nil {
			return copied, err
		}
		copied += len(batch)
	}
	return copied, nil
}

func insertBatch(ctx context.Context, conn connector.Connector, dialect connector.Dialect, tableRef string, cols []string, batch []schema.Row) error {
	quoted := make([]string, len(cols))
	for i, col := range cols {
		quoted[i] = dialect.QuoteIdentifier(col)
	}

	valueGroups := make([]string, len(batch))
	params := make([]interface{}, 0, len(batch)*len(cols))
	n := 0
	for i, row := range batch {
		placeholders := make([]string, len(cols))
		for j, col := range cols {
			n++
			placeholders[j] = dialect.Placeholder(n)
			params = append(params, row[col])
		}
		valueGroups[i] = "(" + strings.Join(placeholders, ", ") + ")"
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES %s",
		tableRef, strings.Join(quoted, ", "), strings.Join(valueGroups, ", "))
	_, err := conn.Execute(ctx, query, params...)
	return err
}
