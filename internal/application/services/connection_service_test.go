package services

import (
	"context"
	"testing"

	"github.com/dbnavigator/backend/internal/domain/models"
	"github.com/dbnavigator/backend/pkg/constants"
	apperrors "github.com/dbnavigator/backend/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectionService_Create(t *testing.T) {
	svc := newTestConnectionService(t)
	ctx := context.Background()

	conn := &models.Connection{
		Name:         "local pg",
		Engine:       constants.EnginePostgres,
		Host:         "localhost",
		Port:         5432,
		Username:     "app",
		DatabaseName: "appdb",
	}
	require.NoError(t, svc.Create(ctx, conn))
	assert.NotEmpty(t, conn.ID)
	assert.False(t, conn.CreatedDate.IsZero())

	got, err := svc.Get(ctx, conn.ID)
	require.NoError(t, err)
	assert.Equal(t, "local pg", got.Name)
}

func TestConnectionService_CreateRejectsUnknownEngine(t *testing.T) {
	svc := newTestConnectionService(t)

	err := svc.Create(context.Background(), &models.Connection{Name: "x", Engine: "oracle"})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))
}

func TestConnectionService_CreateSQLiteRequiresFilePath(t *testing.T) {
	svc := newTestConnectionService(t)

	err := svc.Create(context.Background(), &models.Connection{Name: "x", Engine: constants.EngineSQLite})
	require.Error(t, err)
	assert.True(t, apperrors.IsValidation(err))

	err = svc.Create(context.Background(), &models.Connection{
		Name: "x", Engine: constants.EngineSQLite, FilePath: "/tmp/app.db",
	})
	assert.NoError(t, err)
}

func TestConnectionService_CreateRejectsDuplicateName(t *testing.T) {
	svc := newTestConnectionService(t)
	ctx := context.Background()

	first := &models.Connection{Name: "local pg", Engine: constants.EnginePostgres}
	require.NoError(t, svc.Create(ctx, first))

	err := svc.Create(ctx, &models.Connection{Name: "local pg", Engine: constants.EngineMySQL})
	require.Error(t, err)
	assert.True(t, apperrors.IsConflict(err))
}

func TestConnectionService_GetMissing(t *testing.T) {
	svc := newTestConnectionService(t)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestConnectionService_DeleteMissing(t *testing.T) {
	svc := newTestConnectionService(t)

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}
