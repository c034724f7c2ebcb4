package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"
	"time"

	"github.com/dbnavigator/backend/internal/domain/models"
	"github.com/dbnavigator/backend/internal/domain/schema"
	"github.com/dbnavigator/backend/internal/infrastructure/connector"
	"github.com/dbnavigator/backend/internal/infrastructure/persistence"
	"github.com/dbnavigator/backend/pkg/constants"
	apperrors "github.com/dbnavigator/backend/pkg/errors"
	"github.com/dbnavigator/backend/pkg/utils"
)

// DataSyncService compares and reconciles table data between two connections.
// Rows are identified by the "|"-joined stringified values of the chosen
// primary-key columns and compared through JSON serialization, so both sides
// of a table pair are held in memory for the duration of a diff.
type DataSyncService struct {
	connections *ConnectionService
	introspect  *IntrospectionService
	history     *persistence.HistoryRepository
}

// NewDataSyncService creates a new DataSyncService
func NewDataSyncService(connections *ConnectionService, introspect *IntrospectionService, history *persistence.HistoryRepository) *DataSyncService {
	return &DataSyncService{connections: connections, introspect: introspect, history: history}
}

// TableRowCounts produces a count-level summary for every table present on
// both sides of a schema pair. A count failure on one table logs a warning
// and skips that table; the remaining tables still report.
func (s *DataSyncService) TableRowCounts(ctx context.Context, sourceConnID, targetConnID, sourceSchema, targetSchema string) ([]schema.TableDataDiff, error) {
	sourceConn, err := s.connections.Connector(ctx, sourceConnID)
	if err != nil {
		return nil, err
	}
	targetConn, err := s.connections.Connector(ctx, targetConnID)
	if err != nil {
		return nil, err
	}

	sourceTables, err := sourceConn.GetTables(ctx, sourceSchema)
	if err != nil {
		return nil, err
	}
	targetTables, err := targetConn.GetTables(ctx, targetSchema)
	if err != nil {
		return nil, err
	}
	targetSet := make(map[string]bool, len(targetTables))
	for _, t := range targetTables {
		targetSet[t] = true
	}

	var diffs []schema.TableDataDiff
	for _, table := range sourceTables {
		if !targetSet[table] {
			continue
		}
		sourceCount, err := countRows(ctx, sourceConn, sourceSchema, table)
		if err != nil {
			log.Printf("Warning: failed to count %s.%s on source: %v", sourceSchema, table, err)
			continue
		}
		targetCount, err := countRows(ctx, targetConn, targetSchema, table)
		if err != nil {
			log.Printf("Warning: failed to count %s.%s on target: %v", targetSchema, table, err)
			continue
		}
		diff := schema.TableDataDiff{
			Table:       table,
			Schema:      sourceSchema,
			SourceCount: sourceCount,
			TargetCount: targetCount,
		}
		if sourceCount > targetCount {
			diff.MissingInTarget = sourceCount - targetCount
		} else {
			diff.MissingInSource = targetCount - sourceCount
		}
		diffs = append(diffs, diff)
	}
	return diffs, nil
}

// TableDataDiff fetches every row of one table from both connections and
// classifies them by primary-key presence and serialized equality. An empty
// pkColumns falls back to the source table's introspected primary key.
func (s *DataSyncService) TableDataDiff(ctx context.Context, sourceConnID, targetConnID, sourceSchema, targetSchema, table string, pkColumns []string) (*schema.RowDiff, error) {
	sourceConn, err := s.connections.Connector(ctx, sourceConnID)
	if err != nil {
		return nil, err
	}
	targetConn, err := s.connections.Connector(ctx, targetConnID)
	if err != nil {
		return nil, err
	}

	pkColumns, err = s.resolvePKColumns(ctx, sourceConnID, sourceSchema, table, pkColumns)
	if err != nil {
		return nil, err
	}

	sourceRows, err := fetchAllRows(ctx, sourceConn, sourceSchema, table, pkColumns)
	if err != nil {
		return nil, err
	}
	targetRows, err := fetchAllRows(ctx, targetConn, targetSchema, table, pkColumns)
	if err != nil {
		return nil, err
	}

	sourceByKey := indexByKey(sourceRows, pkColumns)
	targetByKey := indexByKey(targetRows, pkColumns)

	diff := &schema.RowDiff{}
	for _, row := range sourceRows {
		key := rowKey(row, pkColumns)
		targetRow, exists := targetByKey[key]
		if !exists {
			diff.MissingInTarget = append(diff.MissingInTarget, row)
			continue
		}
		if !rowsEqual(row, targetRow) {
			diff.Different = append(diff.Different, schema.RowPair{Source: row, Target: targetRow})
		}
	}
	for _, row := range targetRows {
		if _, exists := sourceByKey[rowKey(row, pkColumns)]; !exists {
			diff.MissingInSource = append(diff.MissingInSource, row)
		}
	}
	return diff, nil
}

// SyncTableData reconciles one table from source to target according to the
// options: insert rows missing in target, update rows that differ, delete
// rows present only in target. Operations run row by row with no
// transaction; a failed row is recorded in Errors and the run continues.
// Counts reflect successes only. Every run is persisted, first as running
// and then with its terminal status.
func (s *DataSyncService) SyncTableData(ctx context.Context, sourceConnID, targetConnID, sourceSchema, targetSchema, table string, pkColumns []string, opts schema.SyncOptions) (*schema.DataSyncResult, error) {
	targetConn, err := s.connections.Connector(ctx, targetConnID)
	if err != nil {
		return nil, err
	}
	pkColumns, err = s.resolvePKColumns(ctx, sourceConnID, sourceSchema, table, pkColumns)
	if err != nil {
		return nil, err
	}

	run := newSyncRun(sourceConnID, targetConnID, sourceSchema, table)
	if err := s.history.RecordSyncRun(ctx, run); err != nil {
		log.Printf("Warning: failed to record sync run: %v", err)
	}

	diff, err := s.TableDataDiff(ctx, sourceConnID, targetConnID, sourceSchema, targetSchema, table, pkColumns)
	if err != nil {
		s.finishRun(run, nil, err)
		return nil, err
	}

	result := &schema.DataSyncResult{Table: table, Schema: targetSchema}
	dialect := targetConn.Dialect()

	if opts.InsertMissing {
		for _, row := range diff.MissingInTarget {
			if err := ctx.Err(); err != nil {
				s.finishRun(run, result, err)
				return result, err
			}
			if err := insertRow(ctx, targetConn, dialect, targetSchema, table, row); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("insert %s: %v", rowKey(row, pkColumns), err))
				continue
			}
			result.Inserted++
		}
	}
	if opts.UpdateDifferent {
		for _, pair := range diff.Different {
			if err := ctx.Err(); err != nil {
				s.finishRun(run, result, err)
				return result, err
			}
			if err := updateRow(ctx, targetConn, dialect, targetSchema, table, pair.Source, pkColumns); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("update %s: %v", rowKey(pair.Source, pkColumns), err))
				continue
			}
			result.Updated++
		}
	}
	if opts.DeleteExtra {
		for _, row := range diff.MissingInSource {
			if err := ctx.Err(); err != nil {
				s.finishRun(run, result, err)
				return result, err
			}
			if err := deleteRow(ctx, targetConn, dialect, targetSchema, table, row, pkColumns); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("delete %s: %v", rowKey(row, pkColumns), err))
				continue
			}
			result.Deleted++
		}
	}

	s.finishRun(run, result, nil)
	return result, nil
}

// SyncRows pushes an explicit set of rows into a target table. Mode "upsert"
// probes for each key and updates or inserts accordingly; mode "insert"
// always inserts. Per-row failures are isolated.
func (s *DataSyncService) SyncRows(ctx context.Context, targetConnID, targetSchema, table string, rows []schema.Row, pkColumns []string, mode string) (*schema.DataSyncResult, error) {
	if mode != constants.SyncModeUpsert && mode != constants.SyncModeInsert {
		return nil, apperrors.NewValidationError("mode", fmt.Sprintf("unknown sync mode: %s", mode))
	}
	if mode == constants.SyncModeUpsert && len(pkColumns) == 0 {
		return nil, apperrors.NewValidationError("pkColumns", "upsert mode requires primary-key columns")
	}
	targetConn, err := s.connections.Connector(ctx, targetConnID)
	if err != nil {
		return nil, err
	}
	dialect := targetConn.Dialect()

	result := &schema.DataSyncResult{Table: table, Schema: targetSchema}
	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if mode == constants.SyncModeInsert {
			if err := insertRow(ctx, targetConn, dialect, targetSchema, table, row); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("insert %s: %v", rowKey(row, pkColumns), err))
				continue
			}
			result.Inserted++
			continue
		}

		exists, err := rowExists(ctx, targetConn, dialect, targetSchema, table, row, pkColumns)
		if err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("probe %s: %v", rowKey(row, pkColumns), err))
			continue
		}
		if exists {
			if err := updateRow(ctx, targetConn, dialect, targetSchema, table, row, pkColumns); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("update %s: %v", rowKey(row, pkColumns), err))
				continue
			}
			result.Updated++
		} else {
			if err := insertRow(ctx, targetConn, dialect, targetSchema, table, row); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("insert %s: %v", rowKey(row, pkColumns), err))
				continue
			}
			result.Inserted++
		}
	}
	return result, nil
}

func newSyncRun(sourceConnID, targetConnID, schemaName, table string) *models.SyncRunEntry {
	return &models.SyncRunEntry{
		ID:                 utils.GenerateID(),
		SourceConnectionID: sourceConnID,
		TargetConnectionID: targetConnID,
		Schema:             schemaName,
		Table:              table,
		Status:             constants.SyncStatusRunning,
		CreatedDate:        time.Now(),
	}
}

func (s *DataSyncService) finishRun(run *models.SyncRunEntry, result *schema.DataSyncResult, runErr error) {
	switch {
	case errors.Is(runErr, context.Canceled) || errors.Is(runErr, context.DeadlineExceeded):
		run.Status = constants.SyncStatusCancelled
	case runErr != nil:
		run.Status = constants.SyncStatusFailed
		run.Errors = append(run.Errors, runErr.Error())
	default:
		run.Status = constants.SyncStatusCompleted
	}
	if result != nil {
		run.Inserted = result.Inserted
		run.Updated = result.Updated
		run.Deleted = result.Deleted
		run.Errors = append(run.Errors, result.Errors...)
	}
	// A run that finished its pass but accumulated row errors is failed, not completed
	if run.Status == constants.SyncStatusCompleted && len(run.Errors) > 0 {
		run.Status = constants.SyncStatusFailed
	}
	// The run context may already be cancelled; record with a fresh one
	if err := s.history.UpdateSyncRun(context.Background(), run); err != nil {
		log.Printf("Warning: failed to update sync run %s: %v", run.ID, err)
	}
}

func (s *DataSyncService) resolvePKColumns(ctx context.Context, sourceConnID, sourceSchema, table string, pkColumns []string) ([]string, error) {
	if len(pkColumns) > 0 {
		return pkColumns, nil
	}
	ts, err := s.introspect.GetTableSchema(ctx, sourceConnID, sourceSchema, table)
	if err != nil {
		return nil, err
	}
	if len(ts.PrimaryKey) == 0 {
		return nil, apperrors.NewValidationError("pkColumns", fmt.Sprintf("table %s has no primary key; key columns must be supplied", table))
	}
	return ts.PrimaryKey, nil
}

func countRows(ctx context.Context, conn connector.Connector, schemaName, table string) (int, error) {
	dialect := conn.Dialect()
	rows, err := conn.Query(ctx, fmt.Sprintf("SELECT COUNT(*) AS cnt FROM %s", dialect.TableRef(schemaName, table)))
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, fmt.Errorf("count query returned no rows")
	}
	return toInt(rows[0]["cnt"]), nil
}

func fetchAllRows(ctx context.Context, conn connector.Connector, schemaName, table string, pkColumns []string) ([]schema.Row, error) {
	dialect := conn.Dialect()
	ordered := make([]string, len(pkColumns))
	for i, col := range pkColumns {
		ordered[i] = dialect.QuoteIdentifier(col)
	}
	query := fmt.Sprintf("SELECT * FROM %s ORDER BY %s",
		dialect.TableRef(schemaName, table), strings.Join(ordered, ", "))
	return conn.Query(ctx, query)
}

// rowKey builds the composite key: each primary-key value stringified with
// %v, joined by "|". NULLs stringify to "<nil>" and can collide.
func rowKey(row schema.Row, pkColumns []string) string {
	parts := make([]string, len(pkColumns))
	for i, col := range pkColumns {
		parts[i] = fmt.Sprintf("%v", row[col])
	}
	return strings.Join(parts, "|")
}

func indexByKey(rows []schema.Row, pkColumns []string) map[string]schema.Row {
	out := make(map[string]schema.Row, len(rows))
	for _, row := range rows {
		out[rowKey(row, pkColumns)] = row
	}
	return out
}

// rowsEqual compares two rows by their JSON serialization. Map keys are
// sorted during marshaling, so the comparison is deterministic, but type
// representation differences between drivers count as differences.
func rowsEqual(a, b schema.Row) bool {
	aJSON, errA := json.Marshal(a)
	bJSON, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(aJSON) == string(bJSON)
}

// sortedColumns returns the row's column names in sorted order so generated
// statements are stable
func sortedColumns(row schema.Row) []string {
	cols := make([]string, 0, len(row))
	for col := range row {
		cols = append(cols, col)
	}
	sort.Strings(cols)
	return cols
}

func insertRow(ctx context.Context, conn connector.Connector, dialect connector.Dialect, schemaName, table string, row schema.Row) error {
	cols := sortedColumns(row)
	quoted := make([]string, len(cols))
	placeholders := make([]string, len(cols))
	params := make([]interface{}, len(cols))
	for i, col := range cols {
		quoted[i] = dialect.QuoteIdentifier(col)
		placeholders[i] = dialect.Placeholder(i + 1)
		params[i] = row[col]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		dialect.TableRef(schemaName, table), strings.Join(quoted, ", "), strings.Join(placeholders, ", "))
	_, err := conn.Execute(ctx, query, params...)
	return err
}

func updateRow(ctx context.Context, conn connector.Connector, dialect connector.Dialect, schemaName, table string, row schema.Row, pkColumns []string) error {
	pkSet := make(map[string]bool, len(pkColumns))
	for _, col := range pkColumns {
		pkSet[col] = true
	}

	var assignments []string
	var params []interface{}
	n := 0
	for _, col := range sortedColumns(row) {
		if pkSet[col] {
			continue
		}
		n++
		assignments = append(assignments, fmt.Sprintf("%s = %s", dialect.QuoteIdentifier(col), dialect.Placeholder(n)))
		params = append(params, row[col])
	}
	if len(assignments) == 0 {
		// Key-only table, nothing to update
		return nil
	}

	where := make([]string, len(pkColumns))
	for i, col := range pkColumns {
		n++
		where[i] = fmt.Sprintf("%s = %s", dialect.QuoteIdentifier(col), dialect.Placeholder(n))
		params = append(params, row[col])
	}
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s",
		dialect.TableRef(schemaName, table), strings.Join(assignments, ", "), strings.Join(where, " AND "))
	_, err := conn.Execute(ctx, query, params...)
	return err
}

func deleteRow(ctx context.Context, conn connector.Connector, dialect connector.Dialect, schemaName, table string, row schema.Row, pkColumns []string) error {
	where := make([]string, len(pkColumns))
	params := make([]interface{}, len(pkColumns))
	for i, col := range pkColumns {
		where[i] = fmt.Sprintf("%s = %s", dialect.QuoteIdentifier(col), dialect.Placeholder(i+1))
		params[i] = row[col]
	}
	query := fmt.Sprintf("DELETE FROM %s WHERE %s",
		dialect.TableRef(schemaName, table), strings.Join(where, " AND "))
	_, err := conn.Execute(ctx, query, params...)
	return err
}

func rowExists(ctx context.Context, conn connector.Connector, dialect connector.Dialect, schemaName, table string, row schema.Row, pkColumns []string) (bool, error) {
	where := make([]string, len(pkColumns))
	params := make([]interface{}, len(pkColumns))
	for i, col := range pkColumns {
		where[i] = fmt.Sprintf("%s = %s", dialect.QuoteIdentifier(col), dialect.Placeholder(i+1))
		params[i] = row[col]
	}
	query := fmt.Sprintf("SELECT 1 AS present FROM %s WHERE %s LIMIT 1",
		dialect.TableRef(schemaName, table), strings.Join(where, " AND "))
	rows, err := conn.Query(ctx, query, params...)
	if err != nil {
		return false, err
	}
	return len(rows) > 0, nil
}

func toInt(v interface{}) int {
	switch n := v.(type) {
	case int64:
		return int(n)
	case int:
		return n
	case float64:
		return int(n)
	case string:
		var i int
		fmt.Sscanf(n, "%d", &i)
		return i
	default:
		return 0
	}
}
