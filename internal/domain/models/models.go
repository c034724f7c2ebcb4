package models

import (
	"time"

	"github.com/dbnavigator/backend/pkg/constants"
)

// Connection is a stored database connection. Password is persisted as-is in
// the local metadata store; credential encryption is handled by the desktop
// shell, not this backend.
type Connection struct {
	ID           string           `json:"id"`
	Name         string           `json:"name" binding:"required"`
	Engine       constants.Engine `json:"engine" binding:"required"`
	Host         string           `json:"host"`
	Port         int              `json:"port"`
	Username     string           `json:"username"`
	Password     string           `json:"password"`
	DatabaseName string           `json:"database"`
	FilePath     string           `json:"filePath"` // SQLite only
	CreatedDate  time.Time        `json:"createdDate"`
	ModifiedDate time.Time        `json:"modifiedDate"`
}

// MigrationHistoryEntry records one schema-migration application, including
// the exact SQL that was planned and whether it ran to completion.
type MigrationHistoryEntry struct {
	ID                 string    `json:"id"`
	SourceConnectionID string    `json:"sourceConnectionId"`
	TargetConnectionID string    `json:"targetConnectionId"`
	SourceSchema       string    `json:"sourceSchema"`
	TargetSchema       string    `json:"targetSchema"`
	MigrationSQL       []string  `json:"migrationSql"`
	Success            bool      `json:"success"`
	Error              string    `json:"error,omitempty"`
	CreatedDate        time.Time `json:"createdDate"`
}

// SyncRunEntry records one data-sync run. Status follows
// running -> completed | failed | cancelled.
type SyncRunEntry struct {
	ID                 string    `json:"id"`
	SourceConnectionID string    `json:"sourceConnectionId"`
	TargetConnectionID string    `json:"targetConnectionId"`
	Schema             string    `json:"schema"`
	Table              string    `json:"table"`
	Status             string    `json:"status"`
	Inserted           int       `json:"inserted"`
	Updated            int       `json:"updated"`
	Deleted            int       `json:"deleted"`
	Errors             []string  `json:"errors"`
	CreatedDate        time.Time `json:"createdDate"`
}

// SyncSchedule is a saved sync job executed on a cron expression.
type SyncSchedule struct {
	ID                 string    `json:"id"`
	Name               string    `json:"name" binding:"required"`
	CronExpr           string    `json:"cronExpr" binding:"required"`
	SourceConnectionID string    `json:"sourceConnectionId" binding:"required"`
	TargetConnectionID string    `json:"targetConnectionId" binding:"required"`
	Schema             string    `json:"schema"`
	Table              string    `json:"table" binding:"required"`
	PKColumns          []string  `json:"pkColumns" binding:"required"`
	InsertMissing      bool      `json:"insertMissing"`
	UpdateDifferent    bool      `json:"updateDifferent"`
	DeleteExtra        bool      `json:"deleteExtra"`
	Enabled            bool      `json:"enabled"`
	CreatedDate        time.Time `json:"createdDate"`
}
