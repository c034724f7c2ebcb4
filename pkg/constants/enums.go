package constants

// Engine identifies the database engine family of a stored connection.
type Engine string

const (
	EnginePostgres Engine = "postgres"
	EngineMySQL    Engine = "mysql"
	EngineMariaDB  Engine = "mariadb"
	EngineSQLite   Engine = "sqlite"
)

// IsValidEngine reports whether the engine tag is one we can open
func IsValidEngine(e Engine) bool {
	switch e {
	case EnginePostgres, EngineMySQL, EngineMariaDB, EngineSQLite:
		return true
	}
	return false
}

// Sync run lifecycle states. A run moves running -> completed when the error
// list is empty, running -> failed when it is not, or running -> cancelled.
const (
	SyncStatusRunning   = "running"
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
	SyncStatusCancelled = "cancelled"
)

// Sync modes for explicit row-set syncs
const (
	SyncModeUpsert = "upsert"
	SyncModeInsert = "insert"
)
