package rest

import (
	"net/http"

	"github.com/dbnavigator/backend/internal/application/services"
	"github.com/dbnavigator/backend/internal/domain/schema"
	"github.com/gin-gonic/gin"
)

// SyncHandler serves the data comparison and reconciliation endpoints. Sync
// calls respond 200 even when individual rows failed; the result's errors
// list carries the partial-failure detail.
type SyncHandler struct {
	svcMgr *services.ServiceManager
}

// NewSyncHandler creates a new SyncHandler
func NewSyncHandler(svcMgr *services.ServiceManager) *SyncHandler {
	return &SyncHandler{svcMgr: svcMgr}
}

type syncPairRequest struct {
	SourceConnectionID string `json:"sourceConnectionId" binding:"required"`
	TargetConnectionID string `json:"targetConnectionId" binding:"required"`
	SourceSchema       string `json:"sourceSchema"`
	TargetSchema       string `json:"targetSchema"`
}

type tableDiffRequest struct {
	syncPairRequest
	Table     string   `json:"table" binding:"required"`
	PKColumns []string `json:"pkColumns"`
}

type syncTableRequest struct {
	tableDiffRequest
	Options schema.SyncOptions `json:"options"`
}

type syncRowsRequest struct {
	TargetConnectionID string       `json:"targetConnectionId" binding:"required"`
	TargetSchema       string       `json:"targetSchema"`
	Table              string       `json:"table" binding:"required"`
	Rows               []schema.Row `json:"rows" binding:"required"`
	PKColumns          []string     `json:"pkColumns"`
	Mode               string       `json:"mode" binding:"required"`
}

type dumpRestoreRequest struct {
	syncPairRequest
	Options schema.DumpRestoreOptions `json:"options"`
}

// GetTableRowCounts handles POST /api/sync/counts
func (h *SyncHandler) GetTableRowCounts(c *gin.Context) {
	var req syncPairRequest
	if !BindJSON(c, &req) {
		return
	}
	diffs, err := h.svcMgr.DataSync.TableRowCounts(c.Request.Context(),
		req.SourceConnectionID, req.TargetConnectionID, req.SourceSchema, req.TargetSchema)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"tables": diffs})
}

// GetTableDataDiff handles POST /api/sync/diff
func (h *SyncHandler) GetTableDataDiff(c *gin.Context) {
	var req tableDiffRequest
	if !BindJSON(c, &req) {
		return
	}
	diff, err := h.svcMgr.DataSync.TableDataDiff(c.Request.Context(),
		req.SourceConnectionID, req.TargetConnectionID, req.SourceSchema, req.TargetSchema,
		req.Table, req.PKColumns)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"diff": diff})
}

// SyncTable handles POST /api/sync/table
func (h *SyncHandler) SyncTable(c *gin.Context) {
	var req syncTableRequest
	if !BindJSON(c, &req) {
		return
	}
	result, err := h.svcMgr.DataSync.SyncTableData(c.Request.Context(),
		req.SourceConnectionID, req.TargetConnectionID, req.SourceSchema, req.TargetSchema,
		req.Table, req.PKColumns, req.Options)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// SyncRows handles POST /api/sync/rows
func (h *SyncHandler) SyncRows(c *gin.Context) {
	var req syncRowsRequest
	if !BindJSON(c, &req) {
		return
	}
	result, err := h.svcMgr.DataSync.SyncRows(c.Request.Context(),
		req.TargetConnectionID, req.TargetSchema, req.Table, req.Rows, req.PKColumns, req.Mode)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}

// DumpAndRestore handles POST /api/sync/dump
func (h *SyncHandler) DumpAndRestore(c *gin.Context) {
	var req dumpRestoreRequest
	if !BindJSON(c, &req) {
		return
	}
	result, err := h.svcMgr.DataSync.DumpAndRestore(c.Request.Context(),
		req.SourceConnectionID, req.TargetConnectionID, req.SourceSchema, req.TargetSchema, req.Options)
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"result": result})
}
