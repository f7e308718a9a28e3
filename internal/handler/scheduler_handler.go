package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/adpulse/reports-api/internal/service"
	"github.com/adpulse/reports-api/pkg/response"
)

type jobStatusProvider interface {
	Status() []service.JobStatus
}

// SchedulerHandler exposes scheduler introspection endpoints.
type SchedulerHandler struct {
	scheduler jobStatusProvider
}

// NewSchedulerHandler builds a new handler.
func NewSchedulerHandler(scheduler jobStatusProvider) *SchedulerHandler {
	return &SchedulerHandler{scheduler: scheduler}
}

// Status godoc
// @Summary List currently armed report jobs
// @Tags Jobs
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /jobs/status [get]
func (h *SchedulerHandler) Status(c *gin.Context) {
	response.JSON(c, http.StatusOK, h.scheduler.Status(), nil)
}
