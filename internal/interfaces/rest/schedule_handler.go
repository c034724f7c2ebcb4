package rest

import (
	"net/http"

	"github.com/dbnavigator/backend/internal/application/services"
	"github.com/dbnavigator/backend/internal/domain/models"
	"github.com/dbnavigator/backend/pkg/constants"
	"github.com/gin-gonic/gin"
)

// ScheduleHandler serves the saved sync-schedule endpoints
type ScheduleHandler struct {
	svcMgr *services.ServiceManager
}

// NewScheduleHandler creates a new ScheduleHandler
func NewScheduleHandler(svcMgr *services.ServiceManager) *ScheduleHandler {
	return &ScheduleHandler{svcMgr: svcMgr}
}

// GetSchedules handles GET /api/schedules
func (h *ScheduleHandler) GetSchedules(c *gin.Context) {
	HandleGetEnvelope(c, "schedules", func() (interface{}, error) {
		return h.svcMgr.Scheduler.List(c.Request.Context())
	})
}

// CreateSchedule handles POST /api/schedules
func (h *ScheduleHandler) CreateSchedule(c *gin.Context) {
	var sched models.SyncSchedule
	HandleCreateEnvelope(c, "schedule", "Schedule created", &sched, func() error {
		return h.svcMgr.Scheduler.Create(c.Request.Context(), &sched)
	})
}

// DeleteSchedule handles DELETE /api/schedules/:id
func (h *ScheduleHandler) DeleteSchedule(c *gin.Context) {
	HandleDeleteEnvelope(c, "Schedule deleted", func() error {
		return h.svcMgr.Scheduler.Delete(c.Request.Context(), c.Param("id"))
	})
}

// SetScheduleEnabled handles PUT /api/schedules/:id/enabled
func (h *ScheduleHandler) SetScheduleEnabled(c *gin.Context) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if !BindJSON(c, &req) {
		return
	}
	if err := h.svcMgr.Scheduler.SetEnabled(c.Request.Context(), c.Param("id"), req.Enabled); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: "Schedule updated"})
}
