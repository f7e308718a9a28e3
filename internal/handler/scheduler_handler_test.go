package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adpulse/reports-api/internal/models"
	"github.com/adpulse/reports-api/internal/service"
)

type jobStatusProviderMock struct {
	statuses []service.JobStatus
}

func (m *jobStatusProviderMock) Status() []service.JobStatus {
	return m.statuses
}

func TestSchedulerHandlerStatus(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSchedulerHandler(&jobStatusProviderMock{statuses: []service.JobStatus{
		{ConfigID: "cfg-1", Cadence: models.CadenceDaily, Running: true},
	}})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/jobs/status", nil)
	c.Request = req

	handler.Status(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"configId":"cfg-1"`)
	assert.Contains(t, w.Body.String(), `"isRunning":true`)
}

func TestSchedulerHandlerStatusEmpty(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewSchedulerHandler(&jobStatusProviderMock{})
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodGet, "/jobs/status", nil)
	c.Request = req

	handler.Status(c)
	require.Equal(t, http.StatusOK, w.Code)
}
