package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/dbnavigator/backend/internal/domain/models"
	"github.com/dbnavigator/backend/internal/domain/schema"
	"github.com/dbnavigator/backend/internal/infrastructure/persistence"
	apperrors "github.com/dbnavigator/backend/pkg/errors"
	"github.com/dbnavigator/backend/pkg/utils"
)

// scheduledRunTimeout bounds one scheduled sync so a hung connection cannot
// pile up overlapping runs forever.
const scheduledRunTimeout = 30 * time.Minute

// SchedulerService runs saved sync schedules on their cron expressions.
// Entries are registered with the cron runner on Start and kept in step with
// the repository on every create, delete and enable toggle.
type SchedulerService struct {
	schedules *persistence.ScheduleRepository
	sync      *DataSyncService

	cron    *cron.Cron
	mu      sync.Mutex
	entries map[string]cron.EntryID
}

// NewSchedulerService creates a new SchedulerService
func NewSchedulerService(schedules *persistence.ScheduleRepository, syncService *DataSyncService) *SchedulerService {
	return &SchedulerService{
		schedules: schedules,
		sync:      syncService,
		cron:      cron.New(),
		entries:   make(map[string]cron.EntryID),
	}
}

// Start loads every enabled schedule and begins the cron runner
func (s *SchedulerService) Start(ctx context.Context) error {
	enabled, err := s.schedules.List(ctx, true)
	if err != nil {
		return err
	}
	for _, sched := range enabled {
		if err := s.register(sched); err != nil {
			log.Printf("Warning: skipping schedule %s (%s): %v", sched.ID, sched.Name, err)
		}
	}
	s.cron.Start()
	log.Printf("Scheduler started with %d schedule(s)", len(s.entries))
	return nil
}

// Stop halts the cron runner and waits for in-flight jobs to finish
func (s *SchedulerService) Stop() {
	<-s.cron.Stop().Done()
	log.Printf("Scheduler stopped")
}

// Create validates the cron expression, persists the schedule and, if it is
// enabled, registers it with the running cron
func (s *SchedulerService) Create(ctx context.Context, sched *models.SyncSchedule) error {
	if _, err := cron.ParseStandard(sched.CronExpr); err != nil {
		return apperrors.NewValidationError("cronExpr", err.Error())
	}
	sched.ID = utils.GenerateID()
	sched.CreatedDate = time.Now()
	if err := s.schedules.Insert(ctx, sched); err != nil {
		return err
	}
	if sched.Enabled {
		if err := s.register(sched); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a schedule from the store and unregisters its cron entry
func (s *SchedulerService) Delete(ctx context.Context, id string) error {
	if err := s.schedules.Delete(ctx, id); err != nil {
		return err
	}
	s.unregister(id)
	return nil
}

// SetEnabled toggles a schedule. Enabling re-registers the cron entry;
// disabling removes it.
func (s *SchedulerService) SetEnabled(ctx context.Context, id string, enabled bool) error {
	if err := s.schedules.SetEnabled(ctx, id, enabled); err != nil {
		return err
	}
	if !enabled {
		s.unregister(id)
		return nil
	}
	all, err := s.schedules.List(ctx, false)
	if err != nil {
		return err
	}
	for _, sched := range all {
		if sched.ID == id {
			return s.register(sched)
		}
	}
	return apperrors.NewNotFoundError("Schedule", id)
}

// List returns every saved schedule
func (s *SchedulerService) List(ctx context.Context) ([]*models.SyncSchedule, error) {
	return s.schedules.List(ctx, false)
}

func (s *SchedulerService) register(sched *models.SyncSchedule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.entries[sched.ID]; ok {
		s.cron.Remove(existing)
	}

	// Capture a copy so later edits to the loaded slice cannot race the job
	job := *sched
	entryID, err := s.cron.AddFunc(sched.CronExpr, func() {
		s.runScheduled(&job)
	})
	if err != nil {
		return apperrors.NewValidationError("cronExpr", err.Error())
	}
	s.entries[sched.ID] = entryID
	return nil
}

func (s *SchedulerService) unregister(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if entryID, ok := s.entries[id]; ok {
		s.cron.Remove(entryID)
		delete(s.entries, id)
	}
}

func (s *SchedulerService) runScheduled(sched *models.SyncSchedule) {
	ctx, cancel := context.WithTimeout(context.Background(), scheduledRunTimeout)
	defer cancel()

	opts := schema.SyncOptions{
		InsertMissing:   sched.InsertMissing,
		UpdateDifferent: sched.UpdateDifferent,
		DeleteExtra:     sched.DeleteExtra,
	}
	result, err := s.sync.SyncTableData(ctx, sched.SourceConnectionID, sched.TargetConnectionID,
		sched.Schema, sched.Schema, sched.Table, sched.PKColumns, opts)
	if err != nil {
		log.Printf("Scheduled sync %s (%s) failed: %v", sched.ID, sched.Name, err)
		return
	}
	log.Printf("Scheduled sync %s (%s): inserted=%d updated=%d deleted=%d errors=%d",
		sched.ID, sched.Name, result.Inserted, result.Updated, result.Deleted, len(result.Errors))
}
