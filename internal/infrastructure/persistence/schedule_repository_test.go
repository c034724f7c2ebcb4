package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dbnavigator/backend/internal/domain/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSchedule(id, name string, enabled bool) *models.SyncSchedule {
	return &models.SyncSchedule{
		ID:                 id,
		Name:               name,
		CronExpr:           "0 2 * * *",
		SourceConnectionID: "src",
		TargetConnectionID: "tgt",
		Schema:             "public",
		Table:              "items",
		PKColumns:          []string{"id"},
		InsertMissing:      true,
		DeleteExtra:        true,
		Enabled:            enabled,
		CreatedDate:        time.Now().UTC().Truncate(time.Second),
	}
}

func TestScheduleRepository_OptionsRoundTrip(t *testing.T) {
	repo := NewScheduleRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, sampleSchedule("s1", "nightly", true)))

	scheds, err := repo.List(ctx, false)
	require.NoError(t, err)
	require.Len(t, scheds, 1)
	got := scheds[0]
	assert.Equal(t, "0 2 * * *", got.CronExpr)
	assert.Equal(t, []string{"id"}, got.PKColumns)
	assert.True(t, got.InsertMissing)
	assert.False(t, got.UpdateDifferent)
	assert.True(t, got.DeleteExtra)
}

func TestScheduleRepository_EnabledFilter(t *testing.T) {
	repo := NewScheduleRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, sampleSchedule("s1", "active", true)))
	require.NoError(t, repo.Insert(ctx, sampleSchedule("s2", "paused", false)))

	enabled, err := repo.List(ctx, true)
	require.NoError(t, err)
	require.Len(t, enabled, 1)
	assert.Equal(t, "active", enabled[0].Name)

	all, err := repo.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestScheduleRepository_SetEnabledAndDelete(t *testing.T) {
	repo := NewScheduleRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, sampleSchedule("s1", "nightly", true)))
	require.NoError(t, repo.SetEnabled(ctx, "s1", false))

	enabled, err := repo.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, enabled)

	assert.ErrorIs(t, repo.SetEnabled(ctx, "missing", true), sql.ErrNoRows)
	require.NoError(t, repo.Delete(ctx, "s1"))
	assert.ErrorIs(t, repo.Delete(ctx, "s1"), sql.ErrNoRows)
}
