package services

import (
	"context"
	"testing"

	"github.com/dbnavigator/backend/internal/domain/models"
	apperrors "github.com/dbnavigator/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSchedulerFixture(t *testing.T) *SchedulerService {
	syncSvc, _, _ := newSyncFixture(t)
	return NewSchedulerService(newTestScheduleRepo(t), syncSvc)
}

func nightlySchedule(name string) *models.SyncSchedule {
	return &models.SyncSchedule{
		Name:               name,
		CronExpr:           "30 2 * * *",
		SourceConnectionID: "src",
		TargetConnectionID: "tgt",
		Schema:             "public",
		Table:              "items",
		PKColumns:          []string{"id"},
		InsertMissing:      true,
		Enabled:            true,
	}
}

func TestSchedulerService_CreateAssignsIDAndRegisters(t *testing.T) {
	svc := newSchedulerFixture(t)
	ctx := context.Background()

	sched := nightlySchedule("nightly items")
	require.NoError(t, svc.Create(ctx, sched))
	assert.NotEmpty(t, sched.ID)

	svc.mu.Lock()
	_, registered := svc.entries[sched.ID]
	svc.mu.Unlock()
	assert.True(t, registered)

	scheds, err := svc.List(ctx)
	require.NoError(t, err)
	require.Len(t, scheds, 1)
}

func TestSchedulerService_CreateRejectsBadCron(t *testing.T) {
	svc := newSchedulerFixture(t)

	sched := nightlySchedule("broken")
	sched.CronExpr = "every tuesday"
	err := svc.Create(context.Background(), sched)
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestSchedulerService_DisableUnregisters(t *testing.T) {
	svc := newSchedulerFixture(t)
	ctx := context.Background()

	sched := nightlySchedule("nightly items")
	require.NoError(t, svc.Create(ctx, sched))

	require.NoError(t, svc.SetEnabled(ctx, sched.ID, false))
	svc.mu.Lock()
	_, registered := svc.entries[sched.ID]
	svc.mu.Unlock()
	assert.False(t, registered)

	require.NoError(t, svc.SetEnabled(ctx, sched.ID, true))
	svc.mu.Lock()
	_, registered = svc.entries[sched.ID]
	svc.mu.Unlock()
	assert.True(t, registered)
}

func TestSchedulerService_DeleteRemovesEntry(t *testing.T) {
	svc := newSchedulerFixture(t)
	ctx := context.Background()

	sched := nightlySchedule("nightly items")
	require.NoError(t, svc.Create(ctx, sched))
	require.NoError(t, svc.Delete(ctx, sched.ID))

	svc.mu.Lock()
	count := len(svc.entries)
	svc.mu.Unlock()
	assert.Zero(t, count)

	scheds, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, scheds)
}
