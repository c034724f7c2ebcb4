package services

import (
	"context"

	"github.com/dbnavigator/backend/internal/domain/schema"
	apperrors "github.com/dbnavigator/backend/pkg/errors"
)

// IntrospectionService is a thin pass-through from connection IDs to
// connector introspection calls. It adds nothing beyond connector lookup and
// error wrapping, which keeps the diff and sync engines free of connection
// plumbing.
type IntrospectionService struct {
	connections *ConnectionService
}

// NewIntrospectionService creates a new IntrospectionService
func NewIntrospectionService(connections *ConnectionService) *IntrospectionService {
	return &IntrospectionService{connections: connections}
}

// GetSchemas lists the schemas visible on a connection
func (s *IntrospectionService) GetSchemas(ctx context.Context, connID string) ([]string, error) {
	c, err := s.connections.Connector(ctx, connID)
	if err != nil {
		return nil, err
	}
	schemas, err := c.GetSchemas(ctx)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list schemas", err)
	}
	return schemas, nil
}

// GetTables lists the base tables of one schema
func (s *IntrospectionService) GetTables(ctx context.Context, connID, schemaName string) ([]string, error) {
	c, err := s.connections.Connector(ctx, connID)
	if err != nil {
		return nil, err
	}
	tables, err := c.GetTables(ctx, schemaName)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list tables", err)
	}
	return tables, nil
}

// GetTableSchema returns the full structure of one table
func (s *IntrospectionService) GetTableSchema(ctx context.Context, connID, schemaName, table string) (*schema.TableSchema, error) {
	c, err := s.connections.Connector(ctx, connID)
	if err != nil {
		return nil, err
	}
	ts, err := c.GetTableSchema(ctx, schemaName, table)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to introspect table "+table, err)
	}
	return ts, nil
}

// GetServerVersion returns the engine version string of a connection
func (s *IntrospectionService) GetServerVersion(ctx context.Context, connID string) (string, error) {
	c, err := s.connections.Connector(ctx, connID)
	if err != nil {
		return "", err
	}
	version, err := c.GetServerVersion(ctx)
	if err != nil {
		return "", apperrors.NewInternalError("failed to read server version", err)
	}
	return version, nil
}
