package rest

import (
	"strconv"

	"github.com/dbnavigator/backend/internal/application/services"
	"github.com/gin-gonic/gin"
)

const defaultHistoryLimit = 50

// HistoryHandler serves the migration and sync-run history read endpoints
type HistoryHandler struct {
	svcMgr *services.ServiceManager
}

// NewHistoryHandler creates a new HistoryHandler
func NewHistoryHandler(svcMgr *services.ServiceManager) *HistoryHandler {
	return &HistoryHandler{svcMgr: svcMgr}
}

// GetMigrations handles GET /api/history/migrations?limit=n
func (h *HistoryHandler) GetMigrations(c *gin.Context) {
	HandleGetEnvelope(c, "migrations", func() (interface{}, error) {
		return h.svcMgr.History.ListMigrations(c.Request.Context(), limitParam(c))
	})
}

// GetSyncRuns handles GET /api/history/syncs?limit=n
func (h *HistoryHandler) GetSyncRuns(c *gin.Context) {
	HandleGetEnvelope(c, "syncs", func() (interface{}, error) {
		return h.svcMgr.History.ListSyncRuns(c.Request.Context(), limitParam(c))
	})
}

func limitParam(c *gin.Context) int {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", ""))
	if err != nil || limit <= 0 {
		return defaultHistoryLimit
	}
	return limit
}
