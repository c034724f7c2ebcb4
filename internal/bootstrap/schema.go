package bootstrap

import (
	"fmt"
	"log"

	"github.com/dbnavigator/backend/internal/infrastructure/database"
	"github.com/dbnavigator/backend/pkg/constants"
)

// metadataDDL creates the metadata store tables. Statements are idempotent
// so startup can run them unconditionally.
var metadataDDL = []string{
	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL UNIQUE,
		engine TEXT NOT NULL,
		host TEXT NOT NULL DEFAULT '',
		port INTEGER NOT NULL DEFAULT 0,
		username TEXT NOT NULL DEFAULT '',
		password TEXT NOT NULL DEFAULT '',
		database_name TEXT NOT NULL DEFAULT '',
		file_path TEXT NOT NULL DEFAULT '',
		created_date TIMESTAMP NOT NULL,
		last_modified_date TIMESTAMP NOT NULL
	)`, constants.TableConnection),

	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		source_connection_id TEXT NOT NULL,
		target_connection_id TEXT NOT NULL,
		source_schema TEXT NOT NULL,
		target_schema TEXT NOT NULL,
		migration_sql TEXT NOT NULL,
		success INTEGER NOT NULL,
		error TEXT NOT NULL DEFAULT '',
		created_date TIMESTAMP NOT NULL
	)`, constants.TableMigrationHistory),

	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		source_connection_id TEXT NOT NULL,
		target_connection_id TEXT NOT NULL,
		schema_name TEXT NOT NULL,
		table_name TEXT NOT NULL,
		status TEXT NOT NULL,
		inserted INTEGER NOT NULL DEFAULT 0,
		updated INTEGER NOT NULL DEFAULT 0,
		deleted INTEGER NOT NULL DEFAULT 0,
		errors TEXT NOT NULL DEFAULT '[]',
		created_date TIMESTAMP NOT NULL
	)`, constants.TableSyncRun),

	fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		cron_expr TEXT NOT NULL,
		source_connection_id TEXT NOT NULL,
		target_connection_id TEXT NOT NULL,
		schema_name TEXT NOT NULL DEFAULT '',
		table_name TEXT NOT NULL,
		pk_columns TEXT NOT NULL,
		options TEXT NOT NULL DEFAULT '{}',
		enabled INTEGER NOT NULL DEFAULT 1,
		created_date TIMESTAMP NOT NULL
	)`, constants.TableSyncSchedule),
}

// InitializeSchema ensures the metadata store tables exist
func InitializeSchema(store *database.MetadataStore) error {
	for _, ddl := range metadataDDL {
		if _, err := store.Exec(ddl); err != nil {
			return fmt.Errorf("failed to initialize metadata schema: %w", err)
		}
	}
	log.Println("Metadata store schema ready")
	return nil
}
