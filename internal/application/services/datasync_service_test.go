package services

import (
	"context"
	"fmt"
	"testing"

	"github.com/dbnavigator/backend/internal/domain/schema"
	"github.com/dbnavigator/backend/internal/infrastructure/connector"
	"github.com/dbnavigator/backend/pkg/constants"
	apperrors "github.com/dbnavigator/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSyncFixture(t *testing.T) (*DataSyncService, *fakeConnector, *fakeConnector) {
	source := newFakeConnector(t, constants.EnginePostgres)
	target := newFakeConnector(t, constants.EnginePostgres)
	connections := fakeConnections(map[string]connector.Connector{
		"src": source,
		"tgt": target,
	})
	introspect := NewIntrospectionService(connections)
	svc := NewDataSyncService(connections, introspect, newTestHistoryRepo(t))
	return svc, source, target
}

func syncItemsTable() *schema.TableSchema {
	return &schema.TableSchema{
		Name: "items",
		Columns: []schema.Column{
			{Name: "id", DataType: "integer", IsPrimaryKey: true},
			{Name: "name", DataType: "varchar(50)", Nullable: true},
			{Name: "value", DataType: "integer", Nullable: true},
		},
		PrimaryKey: []string{"id"},
	}
}

// seedItems fills both sides with the canonical fixture: id 3 only on the
// source, id 4 only on the target, id 2 differing in value
func seedItems(source, target *fakeConnector) {
	ts := syncItemsTable()
	source.addTable(ts,
		schema.Row{"id": int64(1), "name": "apple", "value": int64(10)},
		schema.Row{"id": int64(2), "name": "banana", "value": int64(20)},
		schema.Row{"id": int64(3), "name": "cherry", "value": int64(30)},
	)
	target.addTable(ts,
		schema.Row{"id": int64(1), "name": "apple", "value": int64(10)},
		schema.Row{"id": int64(2), "name": "banana", "value": int64(25)},
		schema.Row{"id": int64(4), "name": "dates", "value": int64(40)},
	)
	source.pk = []string{"id"}
	target.pk = []string{"id"}
}

func TestTableDataDiff(t *testing.T) {
	svc, source, target := newSyncFixture(t)
	seedItems(source, target)

	diff, err := svc.TableDataDiff(context.Background(), "src", "tgt", "public", "public", "items", []string{"id"})
	require.NoError(t, err)

	require.Len(t, diff.MissingInTarget, 1)
	assert.Equal(t, int64(3), diff.MissingInTarget[0]["id"])
	require.Len(t, diff.MissingInSource, 1)
	assert.Equal(t, int64(4), diff.MissingInSource[0]["id"])
	require.Len(t, diff.Different, 1)
	assert.Equal(t, int64(2), diff.Different[0].Source["id"])
	assert.Equal(t, int64(25), diff.Different[0].Target["value"])
}

func TestTableDataDiff_FallsBackToIntrospectedPK(t *testing.T) {
	svc, source, target := newSyncFixture(t)
	seedItems(source, target)

	// No key columns supplied; the source table's primary key is used
	diff, err := svc.TableDataDiff(context.Background(), "src", "tgt", "public", "public", "items", nil)
	require.NoError(t, err)
	assert.Len(t, diff.MissingInTarget, 1)
	assert.Len(t, diff.MissingInSource, 1)
	assert.Len(t, diff.Different, 1)
}

func TestSyncTableData_InsertAndDeleteOnly(t *testing.T) {
	svc, source, target := newSyncFixture(t)
	seedItems(source, target)

	opts := schema.SyncOptions{InsertMissing: true, DeleteExtra: true}
	result, err := svc.SyncTableData(context.Background(), "src", "tgt", "public", "public", "items", []string{"id"}, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 0, result.Updated)
	assert.Equal(t, 1, result.Deleted)
	assert.Empty(t, result.Errors)

	assert.Len(t, target.executedMatching("INSERT INTO"), 1)
	assert.Len(t, target.executedMatching("DELETE FROM"), 1)
	assert.Empty(t, target.executedMatching("UPDATE"))

	runs, err := svc.history.ListSyncRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, constants.SyncStatusCompleted, runs[0].Status)
	assert.Equal(t, 1, runs[0].Inserted)
	assert.Equal(t, 1, runs[0].Deleted)
}

func TestSyncTableData_AllOptions(t *testing.T) {
	svc, source, target := newSyncFixture(t)
	seedItems(source, target)

	opts := schema.SyncOptions{InsertMissing: true, UpdateDifferent: true, DeleteExtra: true}
	result, err := svc.SyncTableData(context.Background(), "src", "tgt", "public", "public", "items", []string{"id"}, opts)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Inserted)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Deleted)

	updates := target.executedMatching("UPDATE")
	require.Len(t, updates, 1)
	// Key columns never appear in the SET clause
	assert.NotContains(t, updates[0], `SET "id"`)
	assert.Contains(t, updates[0], `WHERE "id" = `)
}

func TestSyncTableData_RowFailureDoesNotAbort(t *testing.T) {
	svc, source, target := newSyncFixture(t)
	seedItems(source, target)
	target.failOn = "INSERT"

	opts := schema.SyncOptions{InsertMissing: true, DeleteExtra: true}
	result, err := svc.SyncTableData(context.Background(), "src", "tgt", "public", "public", "items", []string{"id"}, opts)
	require.NoError(t, err)

	// The failed insert is counted as an error, the delete still ran
	assert.Equal(t, 0, result.Inserted)
	assert.Equal(t, 1, result.Deleted)
	require.Len(t, result.Errors, 1)
	assert.Contains(t, result.Errors[0], "insert 3")

	// A run with any row error is recorded as failed, never completed
	runs, err := svc.history.ListSyncRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, constants.SyncStatusFailed, runs[0].Status)
	assert.Len(t, runs[0].Errors, 1)
	assert.Equal(t, 1, runs[0].Deleted)
}

func TestFinishRun_WrappedCancellation(t *testing.T) {
	svc, _, _ := newSyncFixture(t)

	run := newSyncRun("src", "tgt", "public", "items")
	require.NoError(t, svc.history.RecordSyncRun(context.Background(), run))

	svc.finishRun(run, nil, fmt.Errorf("query rows: %w", context.Canceled))

	runs, err := svc.history.ListSyncRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, constants.SyncStatusCancelled, runs[0].Status)
}

func TestSyncRows_Upsert(t *testing.T) {
	svc, _, target := newSyncFixture(t)
	target.addTable(syncItemsTable(),
		schema.Row{"id": int64(1), "name": "apple", "value": int64(10)},
	)
	target.pk = []string{"id"}

	rows := []schema.Row{
		{"id": int64(1), "name": "apple", "value": int64(11)},
		{"id": int64(9), "name": "fig", "value": int64(90)},
	}
	result, err := svc.SyncRows(context.Background(), "tgt", "public", "items", rows, []string{"id"}, constants.SyncModeUpsert)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Inserted)
	assert.Empty(t, result.Errors)
}

func TestSyncRows_InvalidMode(t *testing.T) {
	svc, _, _ := newSyncFixture(t)
	_, err := svc.SyncRows(context.Background(), "tgt", "public", "items", nil, []string{"id"}, "merge")
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestSyncRows_UpsertRequiresKeyColumns(t *testing.T) {
	svc, _, _ := newSyncFixture(t)
	_, err := svc.SyncRows(context.Background(), "tgt", "public", "items", nil, nil, constants.SyncModeUpsert)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestTableRowCounts(t *testing.T) {
	svc, source, target := newSyncFixture(t)
	seedItems(source, target)
	// A source-only table never shows up in the count summary
	source.addTable(&schema.TableSchema{Name: "staging", Columns: []schema.Column{{Name: "id", DataType: "integer"}}})

	diffs, err := svc.TableRowCounts(context.Background(), "src", "tgt", "public", "public")
	require.NoError(t, err)
	require.Len(t, diffs, 1)
	assert.Equal(t, "items", diffs[0].Table)
	assert.Equal(t, 3, diffs[0].SourceCount)
	assert.Equal(t, 3, diffs[0].TargetCount)
	assert.Equal(t, 0, diffs[0].MissingInTarget)
	assert.Equal(t, 0, diffs[0].MissingInSource)
}

func TestDumpAndRestore(t *testing.T) {
	svc, source, target := newSyncFixture(t)
	seedItems(source, target)

	opts := schema.DumpRestoreOptions{TruncateTarget: true}
	result, err := svc.DumpAndRestore(context.Background(), "src", "tgt", "public", "public", opts)
	require.NoError(t, err)

	require.Len(t, result.Tables, 1)
	assert.Equal(t, "items", result.Tables[0].Table)
	assert.Equal(t, 3, result.Tables[0].RowCount)
	assert.Empty(t, result.Errors)

	require.Len(t, target.executedMatching("TRUNCATE TABLE"), 1)
	inserts := target.executedMatching("INSERT INTO")
	require.Len(t, inserts, 1)
	// All three rows travel in one batched statement
	assert.Contains(t, inserts[0], "($1, $2, $3), ($4, $5, $6), ($7, $8, $9)")
}

func TestDumpAndRestore_TableFailureContinues(t *testing.T) {
	svc, source, target := newSyncFixture(t)
	seedItems(source, target)
	target.failOn = "TRUNCATE"

	opts := schema.DumpRestoreOptions{TruncateTarget: true}
	result, err := svc.DumpAndRestore(context.Background(), "src", "tgt", "public", "public", opts)
	require.NoError(t, err)
	require.Len(t, result.Tables, 1)
	assert.NotEmpty(t, result.Tables[0].Error)
	assert.Len(t, result.Errors, 1)
}
