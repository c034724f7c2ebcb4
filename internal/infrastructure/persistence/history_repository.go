package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dbnavigator/backend/internal/domain/models"
	"github.com/dbnavigator/backend/pkg/constants"
)

// HistoryRepository persists the audit trail: applied schema migrations and
// data-sync runs.
type HistoryRepository struct {
	db *sql.DB
}

// NewHistoryRepository creates a new HistoryRepository
func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// RecordMigration stores one migration application, successful or not.
// The SQL list is serialized as a JSON array.
func (r *HistoryRepository) RecordMigration(ctx context.Context, entry *models.MigrationHistoryEntry) error {
	sqlJSON, err := json.Marshal(entry.MigrationSQL)
	if err != nil {
		return fmt.Errorf("failed to serialize migration SQL: %w", err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableMigrationHistory,
		constants.FieldID, constants.FieldMigSourceConnID, constants.FieldMigTargetConnID,
		constants.FieldMigSourceSchema, constants.FieldMigTargetSchema, constants.FieldMigSQL,
		constants.FieldMigSuccess, constants.FieldMigError, constants.FieldCreatedDate)
	_, err = r.db.ExecContext(ctx, query,
		entry.ID, entry.SourceConnectionID, entry.TargetConnectionID,
		entry.SourceSchema, entry.TargetSchema, string(sqlJSON),
		entry.Success, entry.Error, entry.CreatedDate)
	return err
}

// ListMigrations returns migration history, most recent first
func (r *HistoryRepository) ListMigrations(ctx context.Context, limit int) ([]*models.MigrationHistoryEntry, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s FROM %s ORDER BY %s DESC LIMIT ?`,
		constants.FieldID, constants.FieldMigSourceConnID, constants.FieldMigTargetConnID,
		constants.FieldMigSourceSchema, constants.FieldMigTargetSchema, constants.FieldMigSQL,
		constants.FieldMigSuccess, constants.FieldMigError, constants.FieldCreatedDate,
		constants.TableMigrationHistory, constants.FieldCreatedDate)
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*models.MigrationHistoryEntry, 0)
	for rows.Next() {
		var entry models.MigrationHistoryEntry
		var sqlJSON string
		if err := rows.Scan(&entry.ID, &entry.SourceConnectionID, &entry.TargetConnectionID,
			&entry.SourceSchema, &entry.TargetSchema, &sqlJSON,
			&entry.Success, &entry.Error, &entry.CreatedDate); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(sqlJSON), &entry.MigrationSQL); err != nil {
			return nil, fmt.Errorf("corrupt migration SQL for entry %s: %w", entry.ID, err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

// RecordSyncRun stores one sync-run record with its terminal status
func (r *HistoryRepository) RecordSyncRun(ctx context.Context, entry *models.SyncRunEntry) error {
	errsJSON, err := json.Marshal(entry.Errors)
	if err != nil {
		return fmt.Errorf("failed to serialize sync errors: %w", err)
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableSyncRun,
		constants.FieldID, constants.FieldRunSourceConnID, constants.FieldRunTargetConnID,
		constants.FieldRunSchema, constants.FieldRunTable, constants.FieldRunStatus,
		constants.FieldRunInserted, constants.FieldRunUpdated, constants.FieldRunDeleted,
		constants.FieldRunErrors, constants.FieldCreatedDate)
	_, err = r.db.ExecContext(ctx, query,
		entry.ID, entry.SourceConnectionID, entry.TargetConnectionID,
		entry.Schema, entry.Table, entry.Status,
		entry.Inserted, entry.Updated, entry.Deleted,
		string(errsJSON), entry.CreatedDate)
	return err
}

// UpdateSyncRun moves a run out of the running state, writing its terminal
// status and final counts
func (r *HistoryRepository) UpdateSyncRun(ctx context.Context, entry *models.SyncRunEntry) error {
	errsJSON, err := json.Marshal(entry.Errors)
	if err != nil {
		return fmt.Errorf("failed to serialize sync errors: %w", err)
	}
	query := fmt.Sprintf(`UPDATE %s SET %s = ?, %s = ?, %s = ?, %s = ?, %s = ? WHERE %s = ?`,
		constants.TableSyncRun,
		constants.FieldRunStatus, constants.FieldRunInserted, constants.FieldRunUpdated,
		constants.FieldRunDeleted, constants.FieldRunErrors, constants.FieldID)
	_, err = r.db.ExecContext(ctx, query,
		entry.Status, entry.Inserted, entry.Updated, entry.Deleted,
		string(errsJSON), entry.ID)
	return err
}

// ListSyncRuns returns sync-run history, most recent first
func (r *HistoryRepository) ListSyncRuns(ctx context.Context, limit int) ([]*models.SyncRunEntry, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s FROM %s ORDER BY %s DESC LIMIT ?`,
		constants.FieldID, constants.FieldRunSourceConnID, constants.FieldRunTargetConnID,
		constants.FieldRunSchema, constants.FieldRunTable, constants.FieldRunStatus,
		constants.FieldRunInserted, constants.FieldRunUpdated, constants.FieldRunDeleted,
		constants.FieldRunErrors, constants.FieldCreatedDate,
		constants.TableSyncRun, constants.FieldCreatedDate)
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	entries := make([]*models.SyncRunEntry, 0)
	for rows.Next() {
		var entry models.SyncRunEntry
		var errsJSON string
		if err := rows.Scan(&entry.ID, &entry.SourceConnectionID, &entry.TargetConnectionID,
			&entry.Schema, &entry.Table, &entry.Status,
			&entry.Inserted, &entry.Updated, &entry.Deleted,
			&errsJSON, &entry.CreatedDate); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(errsJSON), &entry.Errors); err != nil {
			return nil, fmt.Errorf("corrupt error list for run %s: %w", entry.ID, err)
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}
