package services

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/dbnavigator/backend/internal/domain/models"
	"github.com/dbnavigator/backend/internal/infrastructure/connector"
	"github.com/dbnavigator/backend/internal/infrastructure/persistence"
	"github.com/dbnavigator/backend/pkg/constants"
	apperrors "github.com/dbnavigator/backend/pkg/errors"
	"github.com/dbnavigator/backend/pkg/utils"
)

// ConnectionService manages stored connections and hands out open connectors.
// Connectors are cached per connection ID; mutating or deleting a connection
// evicts its cached connector.
type ConnectionService struct {
	repo *persistence.ConnectionRepository

	mu         sync.Mutex
	connectors map[string]connector.Connector
}

// NewConnectionService creates a new ConnectionService
func NewConnectionService(repo *persistence.ConnectionRepository) *ConnectionService {
	return &ConnectionService{
		repo:       repo,
		connectors: make(map[string]connector.Connector),
	}
}

// Create validates and stores a new connection
func (s *ConnectionService) Create(ctx context.Context, conn *models.Connection) error {
	if !constants.IsValidEngine(conn.Engine) {
		return apperrors.NewValidationError("engine", "unsupported engine: "+string(conn.Engine))
	}
	if conn.Engine == constants.EngineSQLite && conn.FilePath == "" {
		return apperrors.NewValidationError("filePath", "SQLite connections require a file path")
	}
	conflict, err := s.repo.CheckNameConflict(ctx, conn.Name, "")
	if err != nil {
		return apperrors.NewInternalError("failed to check connection name", err)
	}
	if conflict {
		return apperrors.NewConflictError("Connection", "name", conn.Name)
	}

	conn.ID = utils.GenerateID()
	conn.CreatedDate = time.Now()
	conn.ModifiedDate = conn.CreatedDate
	if err := s.repo.Insert(ctx, conn); err != nil {
		return apperrors.NewInternalError("failed to store connection", err)
	}
	return nil
}

// Update overwrites a stored connection and evicts its cached connector
func (s *ConnectionService) Update(ctx context.Context, conn *models.Connection) error {
	if !constants.IsValidEngine(conn.Engine) {
		return apperrors.NewValidationError("engine", "unsupported engine: "+string(conn.Engine))
	}
	conflict, err := s.repo.CheckNameConflict(ctx, conn.Name, conn.ID)
	if err != nil {
		return apperrors.NewInternalError("failed to check connection name", err)
	}
	if conflict {
		return apperrors.NewConflictError("Connection", "name", conn.Name)
	}

	if err := s.repo.Update(ctx, conn); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NewNotFoundError("Connection", conn.ID)
		}
		return apperrors.NewInternalError("failed to update connection", err)
	}
	s.evict(conn.ID)
	return nil
}

// Delete removes a stored connection and closes its cached connector
func (s *ConnectionService) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NewNotFoundError("Connection", id)
		}
		return apperrors.NewInternalError("failed to delete connection", err)
	}
	s.evict(id)
	return nil
}

// Get returns one stored connection
func (s *ConnectionService) Get(ctx context.Context, id string) (*models.Connection, error) {
	conn, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NewNotFoundError("Connection", id)
		}
		return nil, apperrors.NewInternalError("failed to load connection", err)
	}
	return conn, nil
}

// List returns all stored connections
func (s *ConnectionService) List(ctx context.Context) ([]*models.Connection, error) {
	conns, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list connections", err)
	}
	return conns, nil
}

// Connector returns an open connector for a stored connection. Unknown IDs
// fail fast with a NotFoundError before anything touches the target.
func (s *ConnectionService) Connector(ctx context.Context, id string) (connector.Connector, error) {
	s.mu.Lock()
	if c, ok := s.connectors[id]; ok {
		s.mu.Unlock()
		return c, nil
	}
	s.mu.Unlock()

	conn, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	c, err := connector.Open(conn)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to open connection '"+conn.Name+"'", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	// Another caller may have opened it while we did; keep the first one
	if existing, ok := s.connectors[id]; ok {
		_ = c.Close()
		return existing, nil
	}
	s.connectors[id] = c
	return c, nil
}

// Test opens the connection and pings it
func (s *ConnectionService) Test(ctx context.Context, id string) error {
	c, err := s.Connector(ctx, id)
	if err != nil {
		return err
	}
	if err := c.Ping(ctx); err != nil {
		// A dead cached connector should not poison later attempts
		s.evict(id)
		return apperrors.NewInternalError("connection test failed", err)
	}
	return nil
}

func (s *ConnectionService) evict(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c, ok := s.connectors[id]; ok {
		if err := c.Close(); err != nil {
			log.Printf("Warning: failed to close connector %s: %v", id, err)
		}
		delete(s.connectors, id)
	}
}

// CloseAll closes every cached connector. Called on shutdown.
func (s *ConnectionService) CloseAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, c := range s.connectors {
		if err := c.Close(); err != nil {
			log.Printf("Warning: failed to close connector %s: %v", id, err)
		}
		delete(s.connectors, id)
	}
}
