package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/dbnavigator/backend/internal/domain/models"
	"github.com/dbnavigator/backend/pkg/constants"
)

// ConnectionRepository persists stored connections in the metadata store
type ConnectionRepository struct {
	db *sql.DB
}

// NewConnectionRepository creates a new ConnectionRepository
func NewConnectionRepository(db *sql.DB) *ConnectionRepository {
	return &ConnectionRepository{db: db}
}

var connectionColumns = fmt.Sprintf("%s, %s, %s, %s, %s, %s, %s, %s, %s, %s, %s",
	constants.FieldID, constants.FieldConnName, constants.FieldConnEngine,
	constants.FieldConnHost, constants.FieldConnPort, constants.FieldConnUsername,
	constants.FieldConnPassword, constants.FieldConnDatabase, constants.FieldConnFilePath,
	constants.FieldCreatedDate, constants.FieldLastModifiedDate)

// Insert stores a new connection
func (r *ConnectionRepository) Insert(ctx context.Context, conn *models.Connection) error {
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		constants.TableConnection, connectionColumns)
	_, err := r.db.ExecContext(ctx, query,
		conn.ID, conn.Name, string(conn.Engine), conn.Host, conn.Port,
		conn.Username, conn.Password, conn.DatabaseName, conn.FilePath,
		conn.CreatedDate, conn.ModifiedDate)
	return err
}

// Update overwrites a stored connection
func (r *ConnectionRepository) Update(ctx context.Context, conn *models.Connection) error {
	query := fmt.Sprintf(`UPDATE %s SET %s = ?, %s = ?, %s = ?, %s = ?, %s = ?, %s = ?, %s = ?, %s = ?, %s = ? WHERE %s = ?`,
		constants.TableConnection,
		constants.FieldConnName, constants.FieldConnEngine, constants.FieldConnHost,
		constants.FieldConnPort, constants.FieldConnUsername, constants.FieldConnPassword,
		constants.FieldConnDatabase, constants.FieldConnFilePath, constants.FieldLastModifiedDate,
		constants.FieldID)
	res, err := r.db.ExecContext(ctx, query,
		conn.Name, string(conn.Engine), conn.Host, conn.Port, conn.Username,
		conn.Password, conn.DatabaseName, conn.FilePath, time.Now(), conn.ID)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return err
}

// Delete removes a stored connection
func (r *ConnectionRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = ?", constants.TableConnection, constants.FieldID)
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err == nil && affected == 0 {
		return sql.ErrNoRows
	}
	return err
}

// GetByID returns one stored connection, or sql.ErrNoRows
func (r *ConnectionRepository) GetByID(ctx context.Context, id string) (*models.Connection, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s = ?",
		connectionColumns, constants.TableConnection, constants.FieldID)
	return scanConnection(r.db.QueryRowContext(ctx, query, id))
}

// List returns all stored connections ordered by name
func (r *ConnectionRepository) List(ctx context.Context) ([]*models.Connection, error) {
	query := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s",
		connectionColumns, constants.TableConnection, constants.FieldConnName)
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	conns := make([]*models.Connection, 0)
	for rows.Next() {
		conn, err := scanConnection(rows)
		if err != nil {
			return nil, err
		}
		conns = append(conns, conn)
	}
	return conns, rows.Err()
}

// CheckNameConflict reports whether another connection already uses a name
func (r *ConnectionRepository) CheckNameConflict(ctx context.Context, name, excludeID string) (bool, error) {
	query := fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE %s = ? AND %s != ?)",
		constants.TableConnection, constants.FieldConnName, constants.FieldID)
	var exists bool
	err := r.db.QueryRowContext(ctx, query, name, excludeID).Scan(&exists)
	return exists, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanConnection(row rowScanner) (*models.Connection, error) {
	var conn models.Connection
	var engine string
	if err := row.Scan(&conn.ID, &conn.Name, &engine, &conn.Host, &conn.Port,
		&conn.Username, &conn.Password, &conn.DatabaseName, &conn.FilePath,
		&conn.CreatedDate, &conn.ModifiedDate); err != nil {
		return nil, err
	}
	conn.Engine = constants.Engine(engine)
	return &conn, nil
}
