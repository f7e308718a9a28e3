package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adpulse/reports-api/internal/models"
	appErrors "github.com/adpulse/reports-api/pkg/errors"
)

type fetcherMock struct {
	rows models.ReportRows
	err  error
}

func (m *fetcherMock) Fetch(ctx context.Context, cfg *models.ReportConfig) (models.ReportRows, error) {
	return m.rows, m.err
}

type summarizerMock struct {
	summary string
	err     error
	calls   int
}

func (m *summarizerMock) Summarize(ctx context.Context, rows models.ReportRows) (string, error) {
	m.calls++
	if m.err != nil {
		return "", m.err
	}
	return m.summary, nil
}

type mailerMock struct {
	err    error
	sends  []string
	bodies []string
}

func (m *mailerMock) Send(to, subject, html string) error {
	if m.err != nil {
		return m.err
	}
	m.sends = append(m.sends, to)
	m.bodies = append(m.bodies, html)
	return nil
}

type configStoreMock struct {
	meta map[string]models.ConfigMetadata
}

func (m *configStoreMock) UpdateMetadata(ctx context.Context, id string, meta models.ConfigMetadata) error {
	if m.meta == nil {
		m.meta = map[string]models.ConfigMetadata{}
	}
	m.meta[id] = meta
	return nil
}

type reportStoreMock struct {
	created []*models.GeneratedReport
	err     error
}

func (m *reportStoreMock) Create(ctx context.Context, report *models.GeneratedReport) error {
	if m.err != nil {
		return m.err
	}
	report.ID = "rep-1"
	m.created = append(m.created, report)
	return nil
}

func emailConfig() *models.ReportConfig {
	email := "ops@example.com"
	return &models.ReportConfig{
		ID:        "cfg-1",
		Platform:  models.PlatformMeta,
		Metrics:   models.MetricList{"spend", "impressions"},
		Level:     "campaign",
		DateRange: models.DateRangeLast7,
		Cadence:   models.CadenceDaily,
		Delivery:  models.DeliveryEmail,
		Email:     &email,
	}
}

func newTestPipeline(fetcher *fetcherMock, summarizer *summarizerMock, mail *mailerMock, configs *configStoreMock, reports *reportStoreMock) *PipelineService {
	return NewPipelineService(configs, reports, fetcher, summarizer, mail, NewEmailRenderer("http://localhost:8080"), nil, nil)
}

func TestPipelineGenerateEmailsDeduplicatedReport(t *testing.T) {
	fetcher := &fetcherMock{rows: models.ReportRows{
		{"age": "25-34", "date_start": "2026-01-01", "date_stop": "2026-01-07", "spend": 100},
		{"age": "25-34", "date_start": "2026-01-01", "date_stop": "2026-01-07", "spend": 999},
	}}
	summarizer := &summarizerMock{summary: "Spend concentrated in the 25-34 bucket."}
	mail := &mailerMock{}
	configs := &configStoreMock{}
	reports := &reportStoreMock{}

	svc := newTestPipeline(fetcher, summarizer, mail, configs, reports)
	report, err := svc.Generate(context.Background(), emailConfig())
	require.NoError(t, err)

	require.Len(t, reports.created, 1)
	assert.Len(t, report.Data, 1)
	assert.Equal(t, 100, report.Data[0]["spend"])
	assert.Equal(t, summarizer.summary, report.Summary)
	assert.Equal(t, []string{"ops@example.com"}, mail.sends)
	require.Len(t, mail.bodies, 1)
	assert.Contains(t, mail.bodies[0], summarizer.summary)

	meta := configs.meta["cfg-1"]
	require.NotNil(t, meta.LastRun)
	assert.Nil(t, meta.LastError)
}

func TestPipelineGenerateFetchFailureRecordsError(t *testing.T) {
	fetcher := &fetcherMock{err: errors.New("upstream 500")}
	summarizer := &summarizerMock{}
	configs := &configStoreMock{}
	reports := &reportStoreMock{}

	svc := newTestPipeline(fetcher, summarizer, &mailerMock{}, configs, reports)
	_, err := svc.Generate(context.Background(), emailConfig())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrFetchFailed.Code, appErrors.FromError(err).Code)

	assert.Empty(t, reports.created)
	assert.Equal(t, 0, summarizer.calls)

	meta := configs.meta["cfg-1"]
	require.NotNil(t, meta.LastError)
	assert.Contains(t, *meta.LastError, "upstream 500")
	assert.Nil(t, meta.LastRun)
}

func TestPipelineGenerateSummarizeFailureSkipsPersist(t *testing.T) {
	fetcher := &fetcherMock{rows: models.ReportRows{{"age": "25-34", "spend": 1}}}
	summarizer := &summarizerMock{err: errors.New("model unavailable")}
	configs := &configStoreMock{}
	reports := &reportStoreMock{}

	svc := newTestPipeline(fetcher, summarizer, &mailerMock{}, configs, reports)
	_, err := svc.Generate(context.Background(), emailConfig())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrSummarize.Code, appErrors.FromError(err).Code)
	assert.Empty(t, reports.created)
}

func TestPipelineGenerateMailFailureStillSucceeds(t *testing.T) {
	fetcher := &fetcherMock{rows: models.ReportRows{{"age": "25-34", "spend": 1}}}
	summarizer := &summarizerMock{summary: "ok"}
	mail := &mailerMock{err: errors.New("smtp refused")}
	configs := &configStoreMock{}
	reports := &reportStoreMock{}

	svc := newTestPipeline(fetcher, summarizer, mail, configs, reports)
	report, err := svc.Generate(context.Background(), emailConfig())
	require.NoError(t, err)
	require.NotNil(t, report)
	require.Len(t, reports.created, 1)

	meta := configs.meta["cfg-1"]
	require.NotNil(t, meta.LastRun)
	assert.Nil(t, meta.LastError)
}

func TestPipelineGenerateLinkDeliverySendsNoMail(t *testing.T) {
	fetcher := &fetcherMock{rows: models.ReportRows{{"age": "25-34", "spend": 1}}}
	mail := &mailerMock{}
	cfg := emailConfig()
	cfg.Delivery = models.DeliveryLink
	cfg.Email = nil

	svc := newTestPipeline(fetcher, &summarizerMock{summary: "ok"}, mail, &configStoreMock{}, &reportStoreMock{})
	report, err := svc.Generate(context.Background(), cfg)
	require.NoError(t, err)
	assert.NotEmpty(t, report.ID)
	assert.Empty(t, mail.sends)
}
