package rest

import (
	"net/http"

	"github.com/dbnavigator/backend/internal/application/services"
	"github.com/dbnavigator/backend/internal/domain/schema"
	"github.com/dbnavigator/backend/pkg/constants"
	"github.com/dbnavigator/backend/pkg/errors"
	"github.com/gin-gonic/gin"
)

// DiffHandler serves schema comparison, migration SQL generation and
// migration application
type DiffHandler struct {
	svcMgr *services.ServiceManager
}

// NewDiffHandler creates a new DiffHandler
func NewDiffHandler(svcMgr *services.ServiceManager) *DiffHandler {
	return &DiffHandler{svcMgr: svcMgr}
}

type compareRequest struct {
	SourceConnectionID string `json:"sourceConnectionId" binding:"required"`
	TargetConnectionID string `json:"targetConnectionId" binding:"required"`
	SourceSchema       string `json:"sourceSchema"`
	TargetSchema       string `json:"targetSchema"`
}

// CompareSchemas handles POST /api/diff/schema
func (h *DiffHandler) CompareSchemas(c *gin.Context) {
	var req compareRequest
	if !BindJSON(c, &req) {
		return
	}
	diff, err := h.svcMgr.SchemaDiff.CompareSchemas(c.Request.Context(),
		req.SourceConnectionID, req.TargetConnectionID, req.SourceSchema, req.TargetSchema)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"diff": diff})
}

// GetMigrationSQL handles POST /api/diff/sql. The client posts back a diff it
// received from CompareSchemas and gets the flattened statement list.
func (h *DiffHandler) GetMigrationSQL(c *gin.Context) {
	var diff schema.SchemaDiff
	if !BindJSON(c, &diff) {
		return
	}
	c.JSON(http.StatusOK, gin.H{"sql": h.svcMgr.SchemaDiff.MigrationSQL(&diff)})
}

// ApplyMigration handles POST /api/diff/apply. A statement failure returns the
// statement error status along with the recorded history entry so the client
// can show how far the migration got.
func (h *DiffHandler) ApplyMigration(c *gin.Context) {
	var diff schema.SchemaDiff
	if !BindJSON(c, &diff) {
		return
	}
	entry, err := h.svcMgr.SchemaDiff.ApplyMigration(c.Request.Context(), &diff)
	if err != nil {
		if entry == nil {
			RespondAppError(c, err)
			return
		}
		c.JSON(errors.GetHTTPStatus(err), gin.H{
			constants.ResponseError: err.Error(),
			"code":                  errors.GetErrorCode(err),
			"history":               entry,
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: "Migration applied", "history": entry})
}
