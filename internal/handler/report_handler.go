package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/adpulse/reports-api/internal/dto"
	"github.com/adpulse/reports-api/internal/models"
	"github.com/adpulse/reports-api/pkg/response"
)

type generatedReportService interface {
	Get(ctx context.Context, id string) (*models.GeneratedReport, error)
	GetSigned(ctx context.Context, id, expires, signature string) (*models.GeneratedReport, error)
	SignedLink(ctx context.Context, id string) (*dto.SignedLinkResponse, error)
	ListByConfig(ctx context.Context, configID string, limit int) ([]models.GeneratedReport, error)
}

// ReportHandler exposes generated report endpoints.
type ReportHandler struct {
	service generatedReportService
}

// NewReportHandler builds a new handler.
func NewReportHandler(service generatedReportService) *ReportHandler {
	return &ReportHandler{service: service}
}

// Get godoc
// @Summary View a generated report
// @Tags Reports
// @Produce json
// @Param id path string true "Report id"
// @Param expires query string false "Link expiry (unix millis)"
// @Param signature query string false "Link signature"
// @Success 200 {object} response.Envelope
// @Router /reports/{id} [get]
func (h *ReportHandler) Get(c *gin.Context) {
	id := c.Param("id")
	expires := c.Query("expires")
	signature := c.Query("signature")

	var (
		report *models.GeneratedReport
		err    error
	)
	if expires != "" || signature != "" {
		report, err = h.service.GetSigned(c.Request.Context(), id, expires, signature)
	} else {
		report, err = h.service.Get(c.Request.Context(), id)
	}
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// ListByConfig godoc
// @Summary List reports generated for a configuration
// @Tags Reports
// @Produce json
// @Param id path string true "Report configuration id"
// @Param limit query int false "Maximum number of reports"
// @Success 200 {object} response.Envelope
// @Router /report-configs/{id}/reports [get]
func (h *ReportHandler) ListByConfig(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	reports, err := h.service.ListByConfig(c.Request.Context(), c.Param("id"), limit)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, reports, nil)
}

// SignedLink godoc
// @Summary Mint a signed link for a generated report
// @Tags Reports
// @Produce json
// @Param id path string true "Report id"
// @Success 200 {object} response.Envelope
// @Router /reports/{id}/signed-link [get]
func (h *ReportHandler) SignedLink(c *gin.Context) {
	link, err := h.service.SignedLink(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, link, nil)
}
