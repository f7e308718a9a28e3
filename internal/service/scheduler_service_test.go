package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adpulse/reports-api/internal/models"
	appErrors "github.com/adpulse/reports-api/pkg/errors"
)

type schedulerStoreMock struct {
	configs map[string]*models.ReportConfig
	meta    map[string]models.ConfigMetadata
}

func newSchedulerStoreMock(configs ...*models.ReportConfig) *schedulerStoreMock {
	store := &schedulerStoreMock{
		configs: map[string]*models.ReportConfig{},
		meta:    map[string]models.ConfigMetadata{},
	}
	for _, cfg := range configs {
		store.configs[cfg.ID] = cfg
	}
	return store
}

func (m *schedulerStoreMock) GetByID(ctx context.Context, id string) (*models.ReportConfig, error) {
	cfg, ok := m.configs[id]
	if !ok {
		return nil, fmt.Errorf("get report config: %w", sql.ErrNoRows)
	}
	copied := *cfg
	return &copied, nil
}

func (m *schedulerStoreMock) ListScheduled(ctx context.Context) ([]models.ReportConfig, error) {
	var scheduled []models.ReportConfig
	for _, cfg := range m.configs {
		if cfg.IsScheduled() {
			scheduled = append(scheduled, *cfg)
		}
	}
	return scheduled, nil
}

func (m *schedulerStoreMock) UpdateMetadata(ctx context.Context, id string, meta models.ConfigMetadata) error {
	m.meta[id] = meta
	return nil
}

type pipelineRunnerMock struct {
	report *models.GeneratedReport
	err    error
	calls  int
}

func (m *pipelineRunnerMock) Generate(ctx context.Context, cfg *models.ReportConfig) (*models.GeneratedReport, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.report, nil
}

func schedulerConfig(id string, cadence models.Cadence) *models.ReportConfig {
	return &models.ReportConfig{
		ID:        id,
		Platform:  models.PlatformMeta,
		Metrics:   models.MetricList{"spend"},
		Level:     "campaign",
		DateRange: models.DateRangeLast7,
		Cadence:   cadence,
		Delivery:  models.DeliveryLink,
	}
}

func newTestScheduler(t *testing.T, store *schedulerStoreMock, runner pipelineRunner) *SchedulerService {
	t.Helper()
	registry := NewJobRegistry(nil)
	t.Cleanup(registry.Shutdown)
	return NewSchedulerService(store, runner, registry, nil, nil)
}

func TestSchedulerInitializeOnBootArmsScheduledConfigs(t *testing.T) {
	store := newSchedulerStoreMock(
		schedulerConfig("cfg-manual", models.CadenceManual),
		schedulerConfig("cfg-hourly", models.CadenceHourly),
		schedulerConfig("cfg-daily", models.CadenceDaily),
	)
	scheduler := newTestScheduler(t, store, &pipelineRunnerMock{})

	require.NoError(t, scheduler.InitializeOnBoot(context.Background()))

	status := scheduler.Status()
	require.Len(t, status, 2)
	assert.Equal(t, "cfg-daily", status[0].ConfigID)
	assert.Equal(t, "cfg-hourly", status[1].ConfigID)
}

func TestSchedulerScheduleJobUnknownConfig(t *testing.T) {
	scheduler := newTestScheduler(t, newSchedulerStoreMock(), &pipelineRunnerMock{})

	err := scheduler.ScheduleJob(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSchedulerRescheduleToManualDisarms(t *testing.T) {
	cfg := schedulerConfig("cfg-1", models.CadenceHourly)
	store := newSchedulerStoreMock(cfg)
	scheduler := newTestScheduler(t, store, &pipelineRunnerMock{})

	require.NoError(t, scheduler.ScheduleJob(context.Background(), "cfg-1"))
	require.Len(t, scheduler.Status(), 1)

	cfg.Cadence = models.CadenceManual
	require.NoError(t, scheduler.ScheduleJob(context.Background(), "cfg-1"))
	assert.Empty(t, scheduler.Status())
}

func TestSchedulerRunNowDoesNotTouchRegistry(t *testing.T) {
	store := newSchedulerStoreMock(schedulerConfig("cfg-1", models.CadenceManual))
	runner := &pipelineRunnerMock{report: &models.GeneratedReport{ID: "rep-1", Summary: "done"}}
	scheduler := newTestScheduler(t, store, runner)

	report, err := scheduler.RunNow(context.Background(), "cfg-1")
	require.NoError(t, err)
	assert.Equal(t, "rep-1", report.ID)
	assert.Equal(t, 1, runner.calls)
	assert.Empty(t, scheduler.Status())
}

func TestSchedulerRunNowUnknownConfig(t *testing.T) {
	scheduler := newTestScheduler(t, newSchedulerStoreMock(), &pipelineRunnerMock{})

	_, err := scheduler.RunNow(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestSchedulerRunNowFullPipeline(t *testing.T) {
	cfg := schedulerConfig("cfg-1", models.CadenceManual)
	email := "ops@example.com"
	cfg.Delivery = models.DeliveryEmail
	cfg.Email = &email
	store := newSchedulerStoreMock(cfg)

	fetcher := &fetcherMock{rows: models.ReportRows{
		{"age": "25-34", "date_start": "2026-01-01", "date_stop": "2026-01-07", "spend": 100},
		{"age": "25-34", "date_start": "2026-01-01", "date_stop": "2026-01-07", "spend": 100},
	}}
	mail := &mailerMock{}
	reports := &reportStoreMock{}
	pipeline := NewPipelineService(store, reports, fetcher, &summarizerMock{summary: "Weekly spend summary."}, mail, NewEmailRenderer("http://localhost:8080"), nil, nil)
	scheduler := newTestScheduler(t, store, pipeline)

	report, err := scheduler.RunNow(context.Background(), "cfg-1")
	require.NoError(t, err)

	assert.Len(t, report.Data, 1)
	assert.NotEmpty(t, report.Summary)
	assert.Equal(t, []string{"ops@example.com"}, mail.sends)
	require.Len(t, mail.bodies, 1)
	assert.Contains(t, mail.bodies[0], "Weekly spend summary.")
	require.NotNil(t, store.meta["cfg-1"].LastRun)
}

func TestSchedulerStopJobDisarms(t *testing.T) {
	store := newSchedulerStoreMock(schedulerConfig("cfg-1", models.CadenceDaily))
	scheduler := newTestScheduler(t, store, &pipelineRunnerMock{})

	require.NoError(t, scheduler.ScheduleJob(context.Background(), "cfg-1"))
	scheduler.StopJob("cfg-1")
	assert.Empty(t, scheduler.Status())
}
