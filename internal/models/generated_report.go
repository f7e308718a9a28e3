package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// ReportRow is one row returned by the analytics API. The shape is
// platform-dependent: meta returns flat rows, tiktok nests metric values under
// "metrics" and breakdowns under "dimensions".
type ReportRow map[string]interface{}

// ReportRows is the JSONB-persisted deduplicated row set of a report.
type ReportRows []ReportRow

// Value marshals the row set for persistence.
func (r ReportRows) Value() (driver.Value, error) {
	if r == nil {
		r = ReportRows{}
	}
	data, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal report rows: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSON payload into the row set.
func (r *ReportRows) Scan(value interface{}) error {
	if value == nil {
		*r = nil
		return nil
	}
	data, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("report rows: %w", err)
	}
	if len(data) == 0 {
		*r = nil
		return nil
	}
	if err := json.Unmarshal(data, r); err != nil {
		return fmt.Errorf("unmarshal report rows: %w", err)
	}
	return nil
}

// GeneratedReport is one pipeline execution's output. Rows are immutable once
// persisted; only created and read.
type GeneratedReport struct {
	ID             string     `db:"id" json:"id"`
	ReportConfigID string     `db:"report_config_id" json:"reportConfigId"`
	Data           ReportRows `db:"data" json:"data"`
	Summary        string     `db:"summary" json:"summary"`
	Platform       Platform   `db:"platform" json:"platform"`
	DateRange      DateRange  `db:"date_range" json:"dateRangeEnum"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}
