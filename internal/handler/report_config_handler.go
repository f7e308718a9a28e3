package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/adpulse/reports-api/internal/dto"
	"github.com/adpulse/reports-api/internal/models"
	appErrors "github.com/adpulse/reports-api/pkg/errors"
	"github.com/adpulse/reports-api/pkg/response"
)

type reportConfigService interface {
	Create(ctx context.Context, req dto.ReportConfigRequest) (*models.ReportConfig, error)
	Get(ctx context.Context, id string) (*models.ReportConfig, error)
	List(ctx context.Context, page, pageSize int) ([]models.ReportConfig, *models.Pagination, error)
	Update(ctx context.Context, id string, req dto.ReportConfigRequest) (*models.ReportConfig, error)
	Delete(ctx context.Context, id string) error
}

type reportRunner interface {
	RunNow(ctx context.Context, configID string) (*models.GeneratedReport, error)
}

// ReportConfigHandler exposes report configuration endpoints.
type ReportConfigHandler struct {
	service reportConfigService
	runner  reportRunner
}

// NewReportConfigHandler builds a new handler.
func NewReportConfigHandler(service reportConfigService, runner reportRunner) *ReportConfigHandler {
	return &ReportConfigHandler{service: service, runner: runner}
}

// Create godoc
// @Summary Create a report configuration
// @Tags ReportConfigs
// @Accept json
// @Produce json
// @Param payload body dto.ReportConfigRequest true "Report configuration payload"
// @Success 201 {object} response.Envelope
// @Router /report-configs [post]
func (h *ReportConfigHandler) Create(c *gin.Context) {
	var req dto.ReportConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report configuration payload"))
		return
	}
	cfg, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, cfg)
}

// List godoc
// @Summary List report configurations
// @Tags ReportConfigs
// @Produce json
// @Param page query int false "Page number"
// @Param pageSize query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /report-configs [get]
func (h *ReportConfigHandler) List(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("pageSize", "20"))
	configs, pagination, err := h.service.List(c.Request.Context(), page, pageSize)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, configs, pagination)
}

// Get godoc
// @Summary Get a report configuration
// @Tags ReportConfigs
// @Produce json
// @Param id path string true "Report configuration id"
// @Success 200 {object} response.Envelope
// @Router /report-configs/{id} [get]
func (h *ReportConfigHandler) Get(c *gin.Context) {
	cfg, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// Update godoc
// @Summary Update a report configuration
// @Tags ReportConfigs
// @Accept json
// @Produce json
// @Param id path string true "Report configuration id"
// @Param payload body dto.ReportConfigRequest true "Report configuration payload"
// @Success 200 {object} response.Envelope
// @Router /report-configs/{id} [put]
func (h *ReportConfigHandler) Update(c *gin.Context) {
	var req dto.ReportConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid report configuration payload"))
		return
	}
	cfg, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, cfg, nil)
}

// Delete godoc
// @Summary Delete a report configuration
// @Tags ReportConfigs
// @Param id path string true "Report configuration id"
// @Success 204
// @Router /report-configs/{id} [delete]
func (h *ReportConfigHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// RunNow godoc
// @Summary Run a report configuration immediately
// @Tags ReportConfigs
// @Produce json
// @Param id path string true "Report configuration id"
// @Success 200 {object} response.Envelope
// @Router /report-configs/{id}/run [post]
func (h *ReportConfigHandler) RunNow(c *gin.Context) {
	report, err := h.runner.RunNow(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, dto.RunNowResponse{ReportID: report.ID, Summary: report.Summary}, nil)
}
