package services

import (
	"context"

	"github.com/dbnavigator/backend/internal/infrastructure/database"
	"github.com/dbnavigator/backend/internal/infrastructure/persistence"
)

// ServiceManager orchestrates all services with dependency injection
type ServiceManager struct {
	store *database.MetadataStore

	// Repositories, exposed for the history and schedule read endpoints
	History   *persistence.HistoryRepository
	Schedules *persistence.ScheduleRepository

	// Core services
	Connections   *ConnectionService
	Introspection *IntrospectionService
	SchemaDiff    *SchemaDiffService
	DataSync      *DataSyncService
	Scheduler     *SchedulerService
}

// NewServiceManager creates a new service manager with all dependencies wired
func NewServiceManager(store *database.MetadataStore) *ServiceManager {
	sm := &ServiceManager{
		store: store,
	}

	db := store.DB()
	connRepo := persistence.NewConnectionRepository(db)
	sm.History = persistence.NewHistoryRepository(db)
	sm.Schedules = persistence.NewScheduleRepository(db)

	// Initialize services in dependency order
	sm.Connections = NewConnectionService(connRepo)
	sm.Introspection = NewIntrospectionService(sm.Connections)
	sm.SchemaDiff = NewSchemaDiffService(sm.Connections, sm.Introspection, sm.History)
	sm.DataSync = NewDataSyncService(sm.Connections, sm.Introspection, sm.History)
	sm.Scheduler = NewSchedulerService(sm.Schedules, sm.DataSync)

	return sm
}

// StartScheduler loads enabled schedules and starts the cron runner. Call
// this during server startup.
func (sm *ServiceManager) StartScheduler(ctx context.Context) error {
	return sm.Scheduler.Start(ctx)
}

// Shutdown stops the scheduler and closes every cached database connection.
// Call this during server shutdown.
func (sm *ServiceManager) Shutdown() {
	sm.Scheduler.Stop()
	sm.Connections.CloseAll()
}
