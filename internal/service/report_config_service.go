package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/adpulse/reports-api/internal/dto"
	"github.com/adpulse/reports-api/internal/models"
	appErrors "github.com/adpulse/reports-api/pkg/errors"
)

type reportConfigRepository interface {
	Create(ctx context.Context, cfg *models.ReportConfig) error
	GetByID(ctx context.Context, id string) (*models.ReportConfig, error)
	List(ctx context.Context, page, pageSize int) ([]models.ReportConfig, int, error)
	Update(ctx context.Context, cfg *models.ReportConfig) error
	Delete(ctx context.Context, id string) error
}

type jobScheduler interface {
	ScheduleJob(ctx context.Context, configID string) error
	StopJob(configID string)
}

type reportCacheInvalidator interface {
	InvalidateForConfig(ctx context.Context, configID string) error
}

// ReportConfigService manages recurring report definitions and keeps the job
// registry consistent with every create, update and delete.
type ReportConfigService struct {
	repo        reportConfigRepository
	scheduler   jobScheduler
	reportCache reportCacheInvalidator
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewReportConfigService constructs the service. reportCache may be nil when
// no report view cache is in play.
func NewReportConfigService(repo reportConfigRepository, scheduler jobScheduler, reportCache reportCacheInvalidator, validate *validator.Validate, logger *zap.Logger) *ReportConfigService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportConfigService{repo: repo, scheduler: scheduler, reportCache: reportCache, validator: validate, logger: logger}
}

// Create validates and persists a new config, then arms its trigger when the
// cadence is not manual. Scheduling failure does not roll the row back: the
// config exists and stays Unscheduled until an explicit re-schedule.
func (s *ReportConfigService) Create(ctx context.Context, req dto.ReportConfigRequest) (*models.ReportConfig, error) {
	cfg, err := s.buildConfig(req)
	if err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, cfg); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create report config")
	}

	if cfg.IsScheduled() {
		if err := s.scheduler.ScheduleJob(ctx, cfg.ID); err != nil {
			s.logger.Sugar().Errorw("failed to schedule new config", "config_id", cfg.ID, "error", err)
		}
	}
	return cfg, nil
}

// Get returns a single config.
func (s *ReportConfigService) Get(ctx context.Context, id string) (*models.ReportConfig, error) {
	cfg, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report config not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report config")
	}
	return cfg, nil
}

// List returns configs newest first with pagination metadata.
func (s *ReportConfigService) List(ctx context.Context, page, pageSize int) ([]models.ReportConfig, *models.Pagination, error) {
	configs, total, err := s.repo.List(ctx, page, pageSize)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list report configs")
	}
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	return configs, &models.Pagination{Page: page, PageSize: pageSize, TotalCount: total}, nil
}

// Update validates and persists the new field set, then reconciles the
// registry synchronously: a cadence change reschedules, a switch to manual
// disarms.
func (s *ReportConfigService) Update(ctx context.Context, id string, req dto.ReportConfigRequest) (*models.ReportConfig, error) {
	existing, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	cfg, err := s.buildConfig(req)
	if err != nil {
		return nil, err
	}
	cfg.ID = existing.ID
	cfg.Metadata = existing.Metadata
	cfg.CreatedAt = existing.CreatedAt

	if err := s.repo.Update(ctx, cfg); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report config not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update report config")
	}

	// ScheduleJob reloads the stored row, so it both arms non-manual
	// cadences and disarms a switch to manual.
	if err := s.scheduler.ScheduleJob(ctx, cfg.ID); err != nil {
		s.logger.Sugar().Errorw("failed to reschedule updated config", "config_id", cfg.ID, "error", err)
	}
	return cfg, nil
}

// Delete stops the job first and then removes the row, so a recurrence can
// never fire against a config the store has already dropped. When the store
// delete fails after the stop, the entry is not resurrected; the caller sees
// the error and must re-schedule explicitly. Cached view copies of the
// config's reports are invalidated before the rows cascade away; a failed
// invalidation is logged, the worst case being a stale entry until its TTL.
func (s *ReportConfigService) Delete(ctx context.Context, id string) error {
	s.scheduler.StopJob(id)
	if s.reportCache != nil {
		if err := s.reportCache.InvalidateForConfig(ctx, id); err != nil {
			s.logger.Sugar().Warnw("failed to invalidate cached reports", "config_id", id, "error", err)
		}
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "report config not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete report config")
	}
	return nil
}

// buildConfig validates the request and maps it onto a model, enforcing the
// paired invariants: custom window bounds iff dateRangeEnum=custom, email
// address iff delivery=email.
func (s *ReportConfigService) buildConfig(req dto.ReportConfigRequest) (*models.ReportConfig, error) {
	platform := models.Platform(req.Platform)
	switch platform {
	case models.PlatformMeta, models.PlatformTikTok:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported platform")
	}

	if len(req.Metrics) == 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one metric is required")
	}
	if req.Level == "" {
		return nil, appErrors.Clone(appErrors.ErrValidation, "level is required")
	}

	dateRange := models.DateRange(req.DateRangeEnum)
	switch dateRange {
	case models.DateRangeLast7, models.DateRangeLast14, models.DateRangeLast30, models.DateRangeLifetime, models.DateRangeCustom:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported date range")
	}

	var from, to *time.Time
	if dateRange == models.DateRangeCustom {
		if req.CustomDateRange == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "custom date range requires from and to dates")
		}
		parsedFrom, err := time.Parse("2006-01-02", req.CustomDateRange.From)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid custom date from")
		}
		parsedTo, err := time.Parse("2006-01-02", req.CustomDateRange.To)
		if err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid custom date to")
		}
		if parsedFrom.After(parsedTo) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "custom date from must not be after to")
		}
		from, to = &parsedFrom, &parsedTo
	} else if req.CustomDateRange != nil {
		return nil, appErrors.Clone(appErrors.ErrValidation, "custom date range only allowed with dateRangeEnum=custom")
	}

	cadence := models.Cadence(req.Cadence)
	if !ValidCadence(cadence) {
		return nil, appErrors.Clone(appErrors.ErrInvalidCadence, "unknown cadence: "+req.Cadence)
	}

	delivery := models.Delivery(req.Delivery)
	var email *string
	switch delivery {
	case models.DeliveryEmail:
		if req.Email == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "email is required when delivery method is email")
		}
		if err := s.validator.Var(req.Email, "email"); err != nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "invalid email address")
		}
		addr := req.Email
		email = &addr
	case models.DeliveryLink:
		if req.Email != "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "email only allowed with delivery=email")
		}
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported delivery method")
	}

	return &models.ReportConfig{
		Platform:       platform,
		Metrics:        models.MetricList(req.Metrics),
		Level:          req.Level,
		DateRange:      dateRange,
		CustomDateFrom: from,
		CustomDateTo:   to,
		Cadence:        cadence,
		Delivery:       delivery,
		Email:          email,
	}, nil
}
