package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/dbnavigator/backend/internal/domain/models"
	"github.com/dbnavigator/backend/pkg/constants"
)

// scheduleOptions is the JSON shape stored in the options column
type scheduleOptions struct {
	InsertMissing   bool `json:"insertMissing"`
	UpdateDifferent bool `json:"updateDifferent"`
	DeleteExtra     bool `json:"deleteExtra"`
}

// ScheduleRepository persists saved sync schedules
type ScheduleRepository struct {
	db *sql.DB
}

// NewScheduleRepository creates a new ScheduleRepository
func NewScheduleRepository(db *sql.DB) *ScheduleRepository {
	return &ScheduleRepository{db: db}
}

// Insert stores a new schedule
func (r *ScheduleRepository) Insert(ctx context.Context, sched *models.SyncSchedule) error {
	pkJSON, err := json.Marshal(sched.PKColumns)
	if err != nil {
		return err
	}
	optsJSON, err := json.Marshal(scheduleOptions{
		InsertMissing:   sched.InsertMissing,
		UpdateDifferent: sched.UpdateDifferent,
		DeleteExtra:     sched.DeleteExtra,
	})
	if err != nil {
		return err
	}
	query := fmt.Sprintf(`INSERT INTO %s (%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		constants.TableSyncSchedule,
		constants.FieldID, constants.FieldSchedName, constants.FieldSchedCron,
		constants.FieldSchedSourceConnID, constants.FieldSchedTargetConnID,
		constants.FieldSchedSchema, constants.FieldSchedTable, constants.FieldSchedPKColumns,
		constants.FieldSchedOptions, constants.FieldSchedEnabled, constants.FieldCreatedDate)
	_, err = r.db.ExecContext(ctx, query,
		sched.ID, sched.Name, sched.CronExpr,
		sched.SourceConnectionID, sched.TargetConnectionID,
		sched.Schema, sched.Table, string(pkJSON),
		string(optsJSON), sched.Enabled, sched.CreatedDate)
	return err
}

// Delete removes a schedule
func (r *ScheduleRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TableSyncSchedule, constants.FieldID)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return err
}

// SetEnabled toggles a schedule on or off
func (r *ScheduleRepository) SetEnabled(ctx context.Context, id string, enabled bool) error {
	query := fmt.Sprintf("UPDATE %s SET %s = ? WHERE %s = ?",
		constants.TableSyncSchedule, constants.FieldSchedEnabled, constants.FieldID)
	res, err := r.db.ExecContext(ctx, query, enabled, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return err
}

// List returns all schedules. Pass enabledOnly to restrict to active ones.
func (r *ScheduleRepository) List(ctx context.Context, enabledOnly bool) ([]*models.SyncSchedule, error) {
	query := fmt.Sprintf(`SELECT %s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s FROM %s`,
		constants.FieldID, constants.FieldSchedName, constants.FieldSchedCron,
		constants.FieldSchedSourceConnID, constants.FieldSchedTargetConnID,
		constants.FieldSchedSchema, constants.FieldSchedTable, constants.FieldSchedPKColumns,
		constants.FieldSchedOptions, constants.FieldSchedEnabled, constants.FieldCreatedDate,
		constants.TableSyncSchedule)
	if enabledOnly {
		query += fmt.Sprintf(" WHERE %s = 1", constants.FieldSchedEnabled)
	}
	query += fmt.Sprintf(" ORDER BY %s", constants.FieldSchedName)

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	scheds := make([]*models.SyncSchedule, 0)
	for rows.Next() {
		var sched models.SyncSchedule
		var pkJSON, optsJSON string
		if err := rows.Scan(&sched.ID, &sched.Name, &sched.CronExpr,
			&sched.SourceConnectionID, &sched.TargetConnectionID,
			&sched.Schema, &sched.Table, &pkJSON,
			&optsJSON, &sched.Enabled, &sched.CreatedDate); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(pkJSON), &sched.PKColumns); err != nil {
			return nil, fmt.Errorf("corrupt pk columns for schedule %s: %w", sched.ID, err)
		}
		var opts scheduleOptions
		if err := json.Unmarshal([]byte(optsJSON), &opts); err != nil {
			return nil, fmt.Errorf("corrupt options for schedule %s: %w", sched.ID, err)
		}
		sched.InsertMissing = opts.InsertMissing
		sched.UpdateDifferent = opts.UpdateDifferent
		sched.DeleteExtra = opts.DeleteExtra
		scheds = append(scheds, &sched)
	}
	return scheds, rows.Err()
}
