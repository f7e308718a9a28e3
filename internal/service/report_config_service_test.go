package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adpulse/reports-api/internal/dto"
	"github.com/adpulse/reports-api/internal/models"
	appErrors "github.com/adpulse/reports-api/pkg/errors"
)

type configRepoMock struct {
	stored    map[string]*models.ReportConfig
	deleteErr error
}

func newConfigRepoMock() *configRepoMock {
	return &configRepoMock{stored: map[string]*models.ReportConfig{}}
}

func (m *configRepoMock) Create(ctx context.Context, cfg *models.ReportConfig) error {
	if cfg.ID == "" {
		cfg.ID = fmt.Sprintf("cfg-%d", len(m.stored)+1)
	}
	m.stored[cfg.ID] = cfg
	return nil
}

func (m *configRepoMock) GetByID(ctx context.Context, id string) (*models.ReportConfig, error) {
	cfg, ok := m.stored[id]
	if !ok {
		return nil, fmt.Errorf("get report config: %w", sql.ErrNoRows)
	}
	copied := *cfg
	return &copied, nil
}

func (m *configRepoMock) List(ctx context.Context, page, pageSize int) ([]models.ReportConfig, int, error) {
	var configs []models.ReportConfig
	for _, cfg := range m.stored {
		configs = append(configs, *cfg)
	}
	return configs, len(configs), nil
}

func (m *configRepoMock) Update(ctx context.Context, cfg *models.ReportConfig) error {
	if _, ok := m.stored[cfg.ID]; !ok {
		return fmt.Errorf("update report config %s: %w", cfg.ID, sql.ErrNoRows)
	}
	m.stored[cfg.ID] = cfg
	return nil
}

func (m *configRepoMock) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	if _, ok := m.stored[id]; !ok {
		return fmt.Errorf("delete report config %s: %w", id, sql.ErrNoRows)
	}
	delete(m.stored, id)
	return nil
}

type schedulerMock struct {
	scheduled []string
	stopped   []string
}

func (m *schedulerMock) ScheduleJob(ctx context.Context, configID string) error {
	m.scheduled = append(m.scheduled, configID)
	return nil
}

func (m *schedulerMock) StopJob(configID string) {
	m.stopped = append(m.stopped, configID)
}

type invalidatorMock struct {
	invalidated []string
	err         error
}

func (m *invalidatorMock) InvalidateForConfig(ctx context.Context, configID string) error {
	m.invalidated = append(m.invalidated, configID)
	return m.err
}

func validRequest() dto.ReportConfigRequest {
	return dto.ReportConfigRequest{
		Platform:      "meta",
		Metrics:       []string{"spend", "impressions"},
		Level:         "campaign",
		DateRangeEnum: "last7",
		Cadence:       "daily",
		Delivery:      "link",
	}
}

func newConfigService() (*ReportConfigService, *configRepoMock, *schedulerMock) {
	repo := newConfigRepoMock()
	scheduler := &schedulerMock{}
	return NewReportConfigService(repo, scheduler, nil, nil, nil), repo, scheduler
}

func TestReportConfigServiceCreateSchedulesNonManual(t *testing.T) {
	svc, repo, scheduler := newConfigService()

	cfg, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	assert.Len(t, repo.stored, 1)
	assert.Equal(t, []string{cfg.ID}, scheduler.scheduled)
}

func TestReportConfigServiceCreateManualSkipsScheduling(t *testing.T) {
	svc, _, scheduler := newConfigService()

	req := validRequest()
	req.Cadence = "manual"
	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Empty(t, scheduler.scheduled)
}

func TestReportConfigServiceCreateValidation(t *testing.T) {
	svc, _, _ := newConfigService()

	cases := []struct {
		name   string
		mutate func(*dto.ReportConfigRequest)
		code   string
	}{
		{"unsupported platform", func(r *dto.ReportConfigRequest) { r.Platform = "snapchat" }, appErrors.ErrValidation.Code},
		{"no metrics", func(r *dto.ReportConfigRequest) { r.Metrics = nil }, appErrors.ErrValidation.Code},
		{"missing level", func(r *dto.ReportConfigRequest) { r.Level = "" }, appErrors.ErrValidation.Code},
		{"bad date range", func(r *dto.ReportConfigRequest) { r.DateRangeEnum = "yesterday" }, appErrors.ErrValidation.Code},
		{"custom without window", func(r *dto.ReportConfigRequest) { r.DateRangeEnum = "custom" }, appErrors.ErrValidation.Code},
		{"window without custom", func(r *dto.ReportConfigRequest) {
			r.CustomDateRange = &dto.CustomDateRange{From: "2026-01-01", To: "2026-01-07"}
		}, appErrors.ErrValidation.Code},
		{"inverted window", func(r *dto.ReportConfigRequest) {
			r.DateRangeEnum = "custom"
			r.CustomDateRange = &dto.CustomDateRange{From: "2026-01-07", To: "2026-01-01"}
		}, appErrors.ErrValidation.Code},
		{"unknown cadence", func(r *dto.ReportConfigRequest) { r.Cadence = "weekly" }, appErrors.ErrInvalidCadence.Code},
		{"email delivery without address", func(r *dto.ReportConfigRequest) { r.Delivery = "email" }, appErrors.ErrValidation.Code},
		{"invalid email", func(r *dto.ReportConfigRequest) {
			r.Delivery = "email"
			r.Email = "not-an-email"
		}, appErrors.ErrValidation.Code},
		{"email with link delivery", func(r *dto.ReportConfigRequest) { r.Email = "ops@example.com" }, appErrors.ErrValidation.Code},
		{"unknown delivery", func(r *dto.ReportConfigRequest) { r.Delivery = "carrier-pigeon" }, appErrors.ErrValidation.Code},
	}

	for _, tc := range cases {
		req := validRequest()
		tc.mutate(&req)
		_, err := svc.Create(context.Background(), req)
		require.Error(t, err, tc.name)
		assert.Equal(t, tc.code, appErrors.FromError(err).Code, tc.name)
	}
}

func TestReportConfigServiceCreateCustomWindow(t *testing.T) {
	svc, _, _ := newConfigService()

	req := validRequest()
	req.DateRangeEnum = "custom"
	req.CustomDateRange = &dto.CustomDateRange{From: "2026-01-01", To: "2026-01-07"}

	cfg, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, cfg.CustomDateFrom)
	require.NotNil(t, cfg.CustomDateTo)
	assert.True(t, cfg.CustomDateFrom.Before(*cfg.CustomDateTo))
}

func TestReportConfigServiceGetNotFound(t *testing.T) {
	svc, _, _ := newConfigService()

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportConfigServiceUpdatePreservesMetadata(t *testing.T) {
	svc, repo, scheduler := newConfigService()

	cfg, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	lastErr := "previous failure"
	repo.stored[cfg.ID].Metadata = models.ConfigMetadata{LastError: &lastErr}

	req := validRequest()
	req.Cadence = "hourly"
	updated, err := svc.Update(context.Background(), cfg.ID, req)
	require.NoError(t, err)

	assert.Equal(t, models.CadenceHourly, updated.Cadence)
	require.NotNil(t, updated.Metadata.LastError)
	assert.Equal(t, lastErr, *updated.Metadata.LastError)
	// create + update both reconcile the registry
	assert.Equal(t, []string{cfg.ID, cfg.ID}, scheduler.scheduled)
}

func TestReportConfigServiceUpdateToManualStillReconciles(t *testing.T) {
	svc, _, scheduler := newConfigService()

	cfg, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	req := validRequest()
	req.Cadence = "manual"
	_, err = svc.Update(context.Background(), cfg.ID, req)
	require.NoError(t, err)
	// The scheduler reloads the row and sees manual, so the reconcile call
	// is still made; disarming is its decision.
	assert.Len(t, scheduler.scheduled, 2)
}

func TestReportConfigServiceDeleteStopsJobFirst(t *testing.T) {
	svc, repo, scheduler := newConfigService()

	cfg, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), cfg.ID))
	assert.Equal(t, []string{cfg.ID}, scheduler.stopped)
	assert.Empty(t, repo.stored)
}

func TestReportConfigServiceDeleteInvalidatesCachedReports(t *testing.T) {
	repo := newConfigRepoMock()
	scheduler := &schedulerMock{}
	invalidator := &invalidatorMock{}
	svc := NewReportConfigService(repo, scheduler, invalidator, nil, nil)

	cfg, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), cfg.ID))
	assert.Equal(t, []string{cfg.ID}, invalidator.invalidated)
	assert.Empty(t, repo.stored)
}

func TestReportConfigServiceDeleteToleratesInvalidationFailure(t *testing.T) {
	repo := newConfigRepoMock()
	invalidator := &invalidatorMock{err: errors.New("redis unavailable")}
	svc := NewReportConfigService(repo, &schedulerMock{}, invalidator, nil, nil)

	cfg, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)

	// The row still goes away; the cached copies just age out on their TTL.
	require.NoError(t, svc.Delete(context.Background(), cfg.ID))
	assert.Empty(t, repo.stored)
}

func TestReportConfigServiceDeleteNotFound(t *testing.T) {
	svc, _, scheduler := newConfigService()

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	// stop happens before the store delete, even for unknown ids
	assert.Equal(t, []string{"missing"}, scheduler.stopped)
}
