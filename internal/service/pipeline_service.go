package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/adpulse/reports-api/internal/models"
	appErrors "github.com/adpulse/reports-api/pkg/errors"
	"github.com/adpulse/reports-api/pkg/mailer"
)

type pipelineConfigStore interface {
	UpdateMetadata(ctx context.Context, id string, meta models.ConfigMetadata) error
}

type generatedReportStore interface {
	Create(ctx context.Context, report *models.GeneratedReport) error
}

// PipelineService executes one report generation: fetch, dedupe, summarize,
// persist, deliver. A single call performs exactly one attempt; retrying is
// the scheduler's concern at recurrence granularity.
type PipelineService struct {
	configs    pipelineConfigStore
	reports    generatedReportStore
	fetcher    AnalyticsFetcher
	summarizer Summarizer
	mailer     mailer.Mailer
	renderer   *EmailRenderer
	metrics    *MetricsService
	logger     *zap.Logger
}

// NewPipelineService constructs the pipeline.
func NewPipelineService(
	configs pipelineConfigStore,
	reports generatedReportStore,
	fetcher AnalyticsFetcher,
	summarizer Summarizer,
	mail mailer.Mailer,
	renderer *EmailRenderer,
	metrics *MetricsService,
	logger *zap.Logger,
) *PipelineService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PipelineService{
		configs:    configs,
		reports:    reports,
		fetcher:    fetcher,
		summarizer: summarizer,
		mailer:     mail,
		renderer:   renderer,
		metrics:    metrics,
		logger:     logger,
	}
}

// Generate runs the pipeline for a freshly loaded config. Fetch and summarize
// failures abort before anything is persisted and are recorded in the
// config's metadata. Once the generated report row exists the run counts as
// produced: a subsequent email delivery failure is logged but does not fail
// the result.
func (s *PipelineService) Generate(ctx context.Context, cfg *models.ReportConfig) (*models.GeneratedReport, error) {
	start := time.Now()

	rows, err := s.fetcher.Fetch(ctx, cfg)
	if err != nil {
		s.recordFailure(ctx, cfg, err)
		s.metrics.ObservePipelineRun(string(cfg.Platform), false, time.Since(start))
		return nil, appErrors.Wrap(err, appErrors.ErrFetchFailed.Code, appErrors.ErrFetchFailed.Status, "analytics fetch failed")
	}

	deduped := DedupeRows(rows)
	if removed := len(rows) - len(deduped); removed > 0 {
		s.logger.Sugar().Infow("removed duplicate rows", "config_id", cfg.ID, "removed", removed)
	}

	summary, err := s.summarizer.Summarize(ctx, deduped)
	if err != nil {
		s.recordFailure(ctx, cfg, err)
		s.metrics.ObservePipelineRun(string(cfg.Platform), false, time.Since(start))
		return nil, appErrors.Wrap(err, appErrors.ErrSummarize.Code, appErrors.ErrSummarize.Status, "summary generation failed")
	}

	report := &models.GeneratedReport{
		ReportConfigID: cfg.ID,
		Data:           deduped,
		Summary:        summary,
		Platform:       cfg.Platform,
		DateRange:      cfg.DateRange,
	}
	if err := s.reports.Create(ctx, report); err != nil {
		s.recordFailure(ctx, cfg, err)
		s.metrics.ObservePipelineRun(string(cfg.Platform), false, time.Since(start))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to persist generated report")
	}

	now := time.Now().UTC()
	if err := s.configs.UpdateMetadata(ctx, cfg.ID, models.ConfigMetadata{LastRun: &now}); err != nil {
		s.logger.Sugar().Warnw("failed to update config metadata", "config_id", cfg.ID, "error", err)
	}

	s.deliver(cfg, report)
	s.metrics.ObservePipelineRun(string(cfg.Platform), true, time.Since(start))
	return report, nil
}

// deliver dispatches the persisted report. Email delivery is best-effort:
// the report row already exists, so a send failure never rolls it back.
func (s *PipelineService) deliver(cfg *models.ReportConfig, report *models.GeneratedReport) {
	switch cfg.Delivery {
	case models.DeliveryEmail:
		if cfg.Email == nil || *cfg.Email == "" {
			s.logger.Sugar().Warnw("email delivery requested without address", "config_id", cfg.ID)
			return
		}
		html, err := s.renderer.Render(report)
		if err != nil {
			s.logger.Sugar().Errorw("failed to render report email", "config_id", cfg.ID, "error", err)
			return
		}
		if err := s.mailer.Send(*cfg.Email, s.renderer.Subject(report), html); err != nil {
			s.logger.Sugar().Errorw("failed to send report email", "config_id", cfg.ID, "to", *cfg.Email, "error", err)
			return
		}
		s.logger.Sugar().Infow("report emailed", "config_id", cfg.ID, "report_id", report.ID, "to", *cfg.Email)
	case models.DeliveryLink:
		s.logger.Sugar().Infow("report available by link", "config_id", cfg.ID, "report_id", report.ID, "path", "/view-report/"+report.ID)
	}
}

// recordFailure stores the error message on the config, leaving lastRun as it
// was. Metadata write failures are logged; the original pipeline error is
// what callers see.
func (s *PipelineService) recordFailure(ctx context.Context, cfg *models.ReportConfig, cause error) {
	msg := cause.Error()
	meta := models.ConfigMetadata{
		LastRun:   cfg.Metadata.LastRun,
		LastError: &msg,
	}
	if err := s.configs.UpdateMetadata(ctx, cfg.ID, meta); err != nil {
		s.logger.Sugar().Warnw("failed to record pipeline error", "config_id", cfg.ID, "error", err)
	}
}
