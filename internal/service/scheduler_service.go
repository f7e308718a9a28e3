package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/adpulse/reports-api/internal/models"
	appErrors "github.com/adpulse/reports-api/pkg/errors"
)

type schedulerConfigStore interface {
	GetByID(ctx context.Context, id string) (*models.ReportConfig, error)
	ListScheduled(ctx context.Context) ([]models.ReportConfig, error)
}

type pipelineRunner interface {
	Generate(ctx context.Context, cfg *models.ReportConfig) (*models.GeneratedReport, error)
}

// SchedulerService ties the job registry and the pipeline to the backing
// store. The store is the source of truth; the registry is only a cache of
// what is currently armed in this process.
type SchedulerService struct {
	configs  schedulerConfigStore
	pipeline pipelineRunner
	registry *JobRegistry
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewSchedulerService constructs the scheduler.
func NewSchedulerService(configs schedulerConfigStore, pipeline pipelineRunner, registry *JobRegistry, metrics *MetricsService, logger *zap.Logger) *SchedulerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SchedulerService{
		configs:  configs,
		pipeline: pipeline,
		registry: registry,
		metrics:  metrics,
		logger:   logger,
	}
}

// ScheduleJob loads the config and arms (or disarms) its recurring trigger. A
// manual cadence guarantees no registry entry remains; any other cadence is
// resolved and installed, replacing an existing trigger for the same config.
func (s *SchedulerService) ScheduleJob(ctx context.Context, configID string) error {
	cfg, err := s.configs.GetByID(ctx, configID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "report config not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report config")
	}

	if !cfg.IsScheduled() {
		s.registry.Stop(configID)
		s.metrics.SetArmedJobs(s.registry.Len())
		return nil
	}

	spec, err := ResolveCadence(cfg.Cadence)
	if err != nil {
		return err
	}

	if err := s.registry.Schedule(configID, cfg.Cadence, spec, func() {
		s.fire(configID)
	}); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to install recurring trigger")
	}
	s.metrics.SetArmedJobs(s.registry.Len())
	return nil
}

// fire runs the pipeline for one recurrence tick. The config is reloaded on
// every fire rather than captured at schedule time: cadence, delivery and
// metadata may all have changed since the trigger was installed. A NotFound
// on reload means the config was deleted mid-schedule and is a normal abort.
// Errors never propagate past here, so one config's failure cannot reach
// another config's timer.
func (s *SchedulerService) fire(configID string) {
	ctx := context.Background()

	cfg, err := s.configs.GetByID(ctx, configID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			s.logger.Sugar().Infow("config removed, skipping fire", "config_id", configID)
			s.registry.Stop(configID)
			s.metrics.SetArmedJobs(s.registry.Len())
			return
		}
		s.logger.Sugar().Errorw("failed to reload config on fire", "config_id", configID, "error", err)
		return
	}

	if _, err := s.pipeline.Generate(ctx, cfg); err != nil {
		s.logger.Sugar().Errorw("scheduled report run failed", "config_id", configID, "error", err)
		return
	}
	s.logger.Sugar().Infow("scheduled report run completed", "config_id", configID)
}

// StopJob disarms the config's trigger. Unknown configs are a no-op.
func (s *SchedulerService) StopJob(configID string) {
	s.registry.Stop(configID)
	s.metrics.SetArmedJobs(s.registry.Len())
}

// RunNow executes the pipeline once, synchronously, bypassing the registry.
func (s *SchedulerService) RunNow(ctx context.Context, configID string) (*models.GeneratedReport, error) {
	cfg, err := s.configs.GetByID(ctx, configID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report config not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report config")
	}
	return s.pipeline.Generate(ctx, cfg)
}

// InitializeOnBoot rebuilds the registry from the store after a process
// start. A config that fails to schedule is logged and skipped; it never
// aborts initialization of the rest.
func (s *SchedulerService) InitializeOnBoot(ctx context.Context) error {
	configs, err := s.configs.ListScheduled(ctx)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list scheduled configs")
	}

	armed := 0
	for _, cfg := range configs {
		if err := s.ScheduleJob(ctx, cfg.ID); err != nil {
			s.logger.Sugar().Warnw("failed to schedule config on boot", "config_id", cfg.ID, "cadence", cfg.Cadence, "error", err)
			continue
		}
		armed++
	}
	s.logger.Sugar().Infow("scheduler initialized", "configs", len(configs), "armed", armed)
	return nil
}

// Status reports the currently armed jobs.
func (s *SchedulerService) Status() []JobStatus {
	return s.registry.Status()
}

// Shutdown stops the registry's cron runner.
func (s *SchedulerService) Shutdown() {
	s.registry.Shutdown()
}
