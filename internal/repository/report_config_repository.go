package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/adpulse/reports-api/internal/models"
)

const reportConfigColumns = `id, platform, metrics, level, date_range, custom_date_from, custom_date_to, cadence, delivery, email, metadata, created_at`

// ReportConfigRepository persists recurring report definitions.
type ReportConfigRepository struct {
	db *sqlx.DB
}

// NewReportConfigRepository constructs the repository.
func NewReportConfigRepository(db *sqlx.DB) *ReportConfigRepository {
	return &ReportConfigRepository{db: db}
}

// Create inserts a new report config row with generated defaults.
func (r *ReportConfigRepository) Create(ctx context.Context, cfg *models.ReportConfig) error {
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	if cfg.CreatedAt.IsZero() {
		cfg.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO report_configs (id, platform, metrics, level, date_range, custom_date_from, custom_date_to, cadence, delivery, email, metadata, created_at)
VALUES (:id, :platform, :metrics, :level, :date_range, :custom_date_from, :custom_date_to, :cadence, :delivery, :email, :metadata, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cfg); err != nil {
		return fmt.Errorf("create report config: %w", err)
	}
	return nil
}

// GetByID returns a config row by its identifier.
func (r *ReportConfigRepository) GetByID(ctx context.Context, id string) (*models.ReportConfig, error) {
	query := `SELECT ` + reportConfigColumns + ` FROM report_configs WHERE id = $1`
	var cfg models.ReportConfig
	if err := r.db.GetContext(ctx, &cfg, query, id); err != nil {
		return nil, fmt.Errorf("get report config: %w", err)
	}
	return &cfg, nil
}

// List returns configs ordered newest first.
func (r *ReportConfigRepository) List(ctx context.Context, page, pageSize int) ([]models.ReportConfig, int, error) {
	if page <= 0 {
		page = 1
	}
	if pageSize <= 0 {
		pageSize = 20
	}
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM report_configs`); err != nil {
		return nil, 0, fmt.Errorf("count report configs: %w", err)
	}
	query := `SELECT ` + reportConfigColumns + ` FROM report_configs ORDER BY created_at DESC LIMIT $1 OFFSET $2`
	var configs []models.ReportConfig
	if err := r.db.SelectContext(ctx, &configs, query, pageSize, (page-1)*pageSize); err != nil {
		return nil, 0, fmt.Errorf("list report configs: %w", err)
	}
	return configs, total, nil
}

// ListScheduled returns every config with a non-manual cadence. Used to
// rebuild the job registry on process start.
func (r *ReportConfigRepository) ListScheduled(ctx context.Context) ([]models.ReportConfig, error) {
	query := `SELECT ` + reportConfigColumns + ` FROM report_configs WHERE cadence <> 'manual' ORDER BY created_at ASC`
	var configs []models.ReportConfig
	if err := r.db.SelectContext(ctx, &configs, query); err != nil {
		return nil, fmt.Errorf("list scheduled report configs: %w", err)
	}
	return configs, nil
}

// Update persists the full mutable field set of a config.
func (r *ReportConfigRepository) Update(ctx context.Context, cfg *models.ReportConfig) error {
	const query = `UPDATE report_configs
SET platform = :platform, metrics = :metrics, level = :level, date_range = :date_range,
    custom_date_from = :custom_date_from, custom_date_to = :custom_date_to,
    cadence = :cadence, delivery = :delivery, email = :email
WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, cfg)
	if err != nil {
		return fmt.Errorf("update report config: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("update report config %s: %w", cfg.ID, sql.ErrNoRows)
	}
	return nil
}

// UpdateMetadata replaces the run-tracking metadata blob.
func (r *ReportConfigRepository) UpdateMetadata(ctx context.Context, id string, meta models.ConfigMetadata) error {
	const query = `UPDATE report_configs SET metadata = $1 WHERE id = $2`
	if _, err := r.db.ExecContext(ctx, query, meta, id); err != nil {
		return fmt.Errorf("update report config metadata: %w", err)
	}
	return nil
}

// Delete removes a config row. Generated reports cascade at the schema level.
func (r *ReportConfigRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM report_configs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete report config: %w", err)
	}
	if rows, err := res.RowsAffected(); err == nil && rows == 0 {
		return fmt.Errorf("delete report config %s: %w", id, sql.ErrNoRows)
	}
	return nil
}
