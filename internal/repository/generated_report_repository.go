package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/adpulse/reports-api/internal/models"
)

const generatedReportColumns = `id, report_config_id, data, summary, platform, date_range, created_at`

// GeneratedReportRepository persists pipeline outputs. Rows are append-only.
type GeneratedReportRepository struct {
	db *sqlx.DB
}

// NewGeneratedReportRepository constructs the repository.
func NewGeneratedReportRepository(db *sqlx.DB) *GeneratedReportRepository {
	return &GeneratedReportRepository{db: db}
}

// Create inserts a new generated report row.
func (r *GeneratedReportRepository) Create(ctx context.Context, report *models.GeneratedReport) error {
	if report.ID == "" {
		report.ID = uuid.NewString()
	}
	if report.CreatedAt.IsZero() {
		report.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO generated_reports (id, report_config_id, data, summary, platform, date_range, created_at)
VALUES (:id, :report_config_id, :data, :summary, :platform, :date_range, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, report); err != nil {
		return fmt.Errorf("create generated report: %w", err)
	}
	return nil
}

// GetByID returns a generated report by its identifier.
func (r *GeneratedReportRepository) GetByID(ctx context.Context, id string) (*models.GeneratedReport, error) {
	query := `SELECT ` + generatedReportColumns + ` FROM generated_reports WHERE id = $1`
	var report models.GeneratedReport
	if err := r.db.GetContext(ctx, &report, query, id); err != nil {
		return nil, fmt.Errorf("get generated report: %w", err)
	}
	return &report, nil
}

// ListIDsByConfig returns the ids of every report produced for a config.
func (r *GeneratedReportRepository) ListIDsByConfig(ctx context.Context, configID string) ([]string, error) {
	const query = `SELECT id FROM generated_reports WHERE report_config_id = $1`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, configID); err != nil {
		return nil, fmt.Errorf("list generated report ids: %w", err)
	}
	return ids, nil
}

// ListByConfig returns reports produced for a config, newest first.
func (r *GeneratedReportRepository) ListByConfig(ctx context.Context, configID string, limit int) ([]models.GeneratedReport, error) {
	if limit <= 0 {
		limit = 20
	}
	query := `SELECT ` + generatedReportColumns + ` FROM generated_reports WHERE report_config_id = $1 ORDER BY created_at DESC LIMIT $2`
	var reports []models.GeneratedReport
	if err := r.db.SelectContext(ctx, &reports, query, configID, limit); err != nil {
		return nil, fmt.Errorf("list generated reports: %w", err)
	}
	return reports, nil
}
