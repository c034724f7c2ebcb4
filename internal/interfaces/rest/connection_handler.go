package rest

import (
	"net/http"

	"github.com/dbnavigator/backend/internal/application/services"
	"github.com/dbnavigator/backend/internal/domain/models"
	"github.com/dbnavigator/backend/pkg/constants"
	"github.com/gin-gonic/gin"
)

// ConnectionHandler serves the stored-connection CRUD plus live connectivity
// tests and schema browsing
type ConnectionHandler struct {
	svcMgr *services.ServiceManager
}

// NewConnectionHandler creates a new ConnectionHandler
func NewConnectionHandler(svcMgr *services.ServiceManager) *ConnectionHandler {
	return &ConnectionHandler{svcMgr: svcMgr}
}

// GetConnections handles GET /api/connections
func (h *ConnectionHandler) GetConnections(c *gin.Context) {
	HandleGetEnvelope(c, "connections", func() (interface{}, error) {
		return h.svcMgr.Connections.List(c.Request.Context())
	})
}

// GetConnection handles GET /api/connections/:id
func (h *ConnectionHandler) GetConnection(c *gin.Context) {
	HandleGetEnvelope(c, "connection", func() (interface{}, error) {
		return h.svcMgr.Connections.Get(c.Request.Context(), c.Param("id"))
	})
}

// CreateConnection handles POST /api/connections
func (h *ConnectionHandler) CreateConnection(c *gin.Context) {
	var conn models.Connection
	HandleCreateEnvelope(c, "connection", "Connection created", &conn, func() error {
		return h.svcMgr.Connections.Create(c.Request.Context(), &conn)
	})
}

// UpdateConnection handles PUT /api/connections/:id
func (h *ConnectionHandler) UpdateConnection(c *gin.Context) {
	var conn models.Connection
	HandleUpdateEnvelope(c, "connection", "Connection updated", &conn, func() error {
		// The path parameter wins over any id in the body
		conn.ID = c.Param("id")
		return h.svcMgr.Connections.Update(c.Request.Context(), &conn)
	})
}

// DeleteConnection handles DELETE /api/connections/:id
func (h *ConnectionHandler) DeleteConnection(c *gin.Context) {
	HandleDeleteEnvelope(c, "Connection deleted", func() error {
		return h.svcMgr.Connections.Delete(c.Request.Context(), c.Param("id"))
	})
}

// TestConnection handles POST /api/connections/:id/test
func (h *ConnectionHandler) TestConnection(c *gin.Context) {
	if err := h.svcMgr.Connections.Test(c.Request.Context(), c.Param("id")); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: "Connection successful"})
}

// GetSchemas handles GET /api/connections/:id/schemas
func (h *ConnectionHandler) GetSchemas(c *gin.Context) {
	HandleGetEnvelope(c, "schemas", func() (interface{}, error) {
		return h.svcMgr.Introspection.GetSchemas(c.Request.Context(), c.Param("id"))
	})
}

// GetTables handles GET /api/connections/:id/schemas/:schema/tables
func (h *ConnectionHandler) GetTables(c *gin.Context) {
	HandleGetEnvelope(c, "tables", func() (interface{}, error) {
		return h.svcMgr.Introspection.GetTables(c.Request.Context(), c.Param("id"), c.Param("schema"))
	})
}

// GetTableSchema handles GET /api/connections/:id/schemas/:schema/tables/:table
func (h *ConnectionHandler) GetTableSchema(c *gin.Context) {
	HandleGetEnvelope(c, "table", func() (interface{}, error) {
		return h.svcMgr.Introspection.GetTableSchema(c.Request.Context(), c.Param("id"), c.Param("schema"), c.Param("table"))
	})
}

// GetServerVersion handles GET /api/connections/:id/version
func (h *ConnectionHandler) GetServerVersion(c *gin.Context) {
	HandleGetEnvelope(c, "version", func() (interface{}, error) {
		return h.svcMgr.Introspection.GetServerVersion(c.Request.Context(), c.Param("id"))
	})
}
