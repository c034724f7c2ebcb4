package constants

// Metadata store tables. These live in the local SQLite metadata database,
// never in a managed target connection.
const (
	TableConnection       = "connections"
	TableMigrationHistory = "migration_history"
	TableSyncRun          = "sync_runs"
	TableSyncSchedule     = "sync_schedules"
)

// Common metadata fields
const (
	FieldID               = "id"
	FieldCreatedDate      = "created_date"
	FieldLastModifiedDate = "last_modified_date"
)

// Connection fields
const (
	FieldConnName     = "name"
	FieldConnEngine   = "engine"
	FieldConnHost     = "host"
	FieldConnPort     = "port"
	FieldConnUsername = "username"
	FieldConnPassword = "password"
	FieldConnDatabase = "database_name"
	FieldConnFilePath = "file_path"
)

// Migration history fields
const (
	FieldMigSourceConnID = "source_connection_id"
	FieldMigTargetConnID = "target_connection_id"
	FieldMigSourceSchema = "source_schema"
	FieldMigTargetSchema = "target_schema"
	FieldMigSQL          = "migration_sql"
	FieldMigSuccess      = "success"
	FieldMigError        = "error"
)

// Sync run fields
const (
	FieldRunSourceConnID = "source_connection_id"
	FieldRunTargetConnID = "target_connection_id"
	FieldRunSchema       = "schema_name"
	FieldRunTable        = "table_name"
	FieldRunStatus       = "status"
	FieldRunInserted     = "inserted"
	FieldRunUpdated      = "updated"
	FieldRunDeleted      = "deleted"
	FieldRunErrors       = "errors"
)

// Sync schedule fields
const (
	FieldSchedName         = "name"
	FieldSchedCron         = "cron_expr"
	FieldSchedSourceConnID = "source_connection_id"
	FieldSchedTargetConnID = "target_connection_id"
	FieldSchedSchema       = "schema_name"
	FieldSchedTable        = "table_name"
	FieldSchedPKColumns    = "pk_columns"
	FieldSchedOptions      = "options"
	FieldSchedEnabled      = "enabled"
)

// Response keys
const (
	ResponseError = "error"
	FieldMessage  = "message"
)
