package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"go.uber.org/zap"

	"github.com/adpulse/reports-api/internal/dto"
	"github.com/adpulse/reports-api/internal/models"
	appErrors "github.com/adpulse/reports-api/pkg/errors"
	"github.com/adpulse/reports-api/pkg/signing"
)

type generatedReportReader interface {
	GetByID(ctx context.Context, id string) (*models.GeneratedReport, error)
	ListByConfig(ctx context.Context, configID string, limit int) ([]models.GeneratedReport, error)
	ListIDsByConfig(ctx context.Context, configID string) ([]string, error)
}

func reportCacheKey(id string) string {
	return "report:" + id
}

// GeneratedReportService serves persisted reports to the view endpoint,
// read-through cached, and mints signed capability links for them.
type GeneratedReportService struct {
	repo    generatedReportReader
	cache   *CacheService
	signer  *signing.ReportLinkSigner
	baseURL string
	logger  *zap.Logger
}

// NewGeneratedReportService constructs the service.
func NewGeneratedReportService(repo generatedReportReader, cache *CacheService, signer *signing.ReportLinkSigner, baseURL string, logger *zap.Logger) *GeneratedReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeneratedReportService{
		repo:    repo,
		cache:   cache,
		signer:  signer,
		baseURL: strings.TrimRight(baseURL, "/"),
		logger:  logger,
	}
}

// Get returns a generated report by id.
func (s *GeneratedReportService) Get(ctx context.Context, id string) (*models.GeneratedReport, error) {
	cacheKey := reportCacheKey(id)
	var cached models.GeneratedReport
	if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
		return &cached, nil
	}

	report, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "report not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load report")
	}

	// Report rows never change after insert; the only eviction path is
	// InvalidateForConfig when the owning config is removed.
	if err := s.cache.Set(ctx, cacheKey, report, 0); err != nil {
		s.logger.Sugar().Warnw("failed to cache report", "report_id", id, "error", err)
	}
	return report, nil
}

// InvalidateForConfig drops the cached view copies of every report owned by
// the config. It must run before the rows cascade out of the store, since the
// owned ids come from the store itself.
func (s *GeneratedReportService) InvalidateForConfig(ctx context.Context, configID string) error {
	if !s.cache.Enabled() {
		return nil
	}
	ids, err := s.repo.ListIDsByConfig(ctx, configID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports for invalidation")
	}
	for _, id := range ids {
		if err := s.cache.InvalidateByPattern(ctx, reportCacheKey(id)); err != nil {
			return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to invalidate cached report")
		}
	}
	return nil
}

// GetSigned validates a capability link before returning the report.
func (s *GeneratedReportService) GetSigned(ctx context.Context, id, expires, signature string) (*models.GeneratedReport, error) {
	valid, expired := s.signer.Verify(id, expires, signature)
	if !valid {
		return nil, appErrors.ErrLinkInvalid
	}
	if expired {
		return nil, appErrors.ErrLinkExpired
	}
	return s.Get(ctx, id)
}

// SignedLink mints a time-limited view URL for an existing report.
func (s *GeneratedReportService) SignedLink(ctx context.Context, id string) (*dto.SignedLinkResponse, error) {
	if _, err := s.Get(ctx, id); err != nil {
		return nil, err
	}
	path, expiresAt, err := s.signer.Sign(id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign report link")
	}
	return &dto.SignedLinkResponse{URL: s.baseURL + path, ExpiresAt: expiresAt}, nil
}

// ListByConfig returns the reports produced for one config, newest first.
func (s *GeneratedReportService) ListByConfig(ctx context.Context, configID string, limit int) ([]models.GeneratedReport, error) {
	reports, err := s.repo.ListByConfig(ctx, configID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list reports")
	}
	return reports, nil
}
