package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/dbnavigator/backend/internal/domain/models"
	"github.com/dbnavigator/backend/pkg/constants"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleConnection(id, name string) *models.Connection {
	now := time.Now().UTC().Truncate(time.Second)
	return &models.Connection{
		ID:           id,
		Name:         name,
		Engine:       constants.EnginePostgres,
		Host:         "localhost",
		Port:         5432,
		Username:     "app",
		Password:     "secret",
		DatabaseName: "appdb",
		CreatedDate:  now,
		ModifiedDate: now,
	}
}

func TestConnectionRepository_InsertAndGet(t *testing.T) {
	repo := NewConnectionRepository(newTestDB(t))
	ctx := context.Background()

	conn := sampleConnection("c1", "local pg")
	require.NoError(t, repo.Insert(ctx, conn))

	got, err := repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "local pg", got.Name)
	assert.Equal(t, constants.EnginePostgres, got.Engine)
	assert.Equal(t, 5432, got.Port)
	assert.Equal(t, "secret", got.Password)
}

func TestConnectionRepository_GetMissing(t *testing.T) {
	repo := NewConnectionRepository(newTestDB(t))

	_, err := repo.GetByID(context.Background(), "nope")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestConnectionRepository_UpdateAndDelete(t *testing.T) {
	repo := NewConnectionRepository(newTestDB(t))
	ctx := context.Background()

	conn := sampleConnection("c1", "local pg")
	require.NoError(t, repo.Insert(ctx, conn))

	conn.Name = "renamed"
	conn.Port = 5433
	require.NoError(t, repo.Update(ctx, conn))

	got, err := repo.GetByID(ctx, "c1")
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Name)
	assert.Equal(t, 5433, got.Port)

	require.NoError(t, repo.Delete(ctx, "c1"))
	assert.ErrorIs(t, repo.Delete(ctx, "c1"), sql.ErrNoRows)
}

func TestConnectionRepository_List(t *testing.T) {
	repo := NewConnectionRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, sampleConnection("c2", "zeta")))
	require.NoError(t, repo.Insert(ctx, sampleConnection("c1", "alpha")))

	conns, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, conns, 2)
	// Ordered by name
	assert.Equal(t, "alpha", conns[0].Name)
	assert.Equal(t, "zeta", conns[1].Name)
}

func TestConnectionRepository_CheckNameConflict(t *testing.T) {
	repo := NewConnectionRepository(newTestDB(t))
	ctx := context.Background()

	require.NoError(t, repo.Insert(ctx, sampleConnection("c1", "local pg")))

	conflict, err := repo.CheckNameConflict(ctx, "local pg", "")
	require.NoError(t, err)
	assert.True(t, conflict)

	// The record itself is excluded on update
	conflict, err = repo.CheckNameConflict(ctx, "local pg", "c1")
	require.NoError(t, err)
	assert.False(t, conflict)
}
