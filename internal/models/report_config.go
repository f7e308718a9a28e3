package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Platform enumerates the supported ad platforms.
type Platform string

const (
	PlatformMeta   Platform = "meta"
	PlatformTikTok Platform = "tiktok"
)

// DateRange enumerates reporting windows.
type DateRange string

const (
	DateRangeLast7    DateRange = "last7"
	DateRangeLast14   DateRange = "last14"
	DateRangeLast30   DateRange = "last30"
	DateRangeLifetime DateRange = "lifetime"
	DateRangeCustom   DateRange = "custom"
)

// Cadence enumerates recurrence labels a user can pick.
type Cadence string

const (
	CadenceManual      Cadence = "manual"
	CadenceEveryMinute Cadence = "every_minute"
	CadenceHourly      Cadence = "hourly"
	CadenceEvery12h    Cadence = "every12h"
	CadenceDaily       Cadence = "daily"

	// CadenceTestMinute is an accepted alias of every_minute used by
	// integration checks against the sample API.
	CadenceTestMinute Cadence = "test-minute"
)

// Delivery enumerates how a generated report reaches the user.
type Delivery string

const (
	DeliveryEmail Delivery = "email"
	DeliveryLink  Delivery = "link"
)

// MetricList is a JSONB-persisted list of metric names.
type MetricList []string

// Value marshals the list for persistence.
func (m MetricList) Value() (driver.Value, error) {
	if m == nil {
		m = MetricList{}
	}
	data, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("marshal metric list: %w", err)
	}
	return data, nil
}

// Scan unmarshals a JSON payload into the list.
func (m *MetricList) Scan(value interface{}) error {
	if value == nil {
		*m = nil
		return nil
	}
	data, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("metric list: %w", err)
	}
	if len(data) == 0 {
		*m = nil
		return nil
	}
	if err := json.Unmarshal(data, m); err != nil {
		return fmt.Errorf("unmarshal metric list: %w", err)
	}
	return nil
}

// ConfigMetadata tracks the outcome of the most recent pipeline run.
type ConfigMetadata struct {
	LastRun   *time.Time `json:"lastRun,omitempty"`
	LastError *string    `json:"lastError,omitempty"`
}

// Value marshals metadata to JSON for persistence.
func (c ConfigMetadata) Value() (driver.Value, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal config metadata: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the metadata struct.
func (c *ConfigMetadata) Scan(value interface{}) error {
	if value == nil {
		*c = ConfigMetadata{}
		return nil
	}
	data, err := jsonBytes(value)
	if err != nil {
		return fmt.Errorf("config metadata: %w", err)
	}
	if len(data) == 0 {
		*c = ConfigMetadata{}
		return nil
	}
	if err := json.Unmarshal(data, c); err != nil {
		return fmt.Errorf("unmarshal config metadata: %w", err)
	}
	return nil
}

// ReportConfig is a user's recurring report definition.
type ReportConfig struct {
	ID             string         `db:"id" json:"id"`
	Platform       Platform       `db:"platform" json:"platform"`
	Metrics        MetricList     `db:"metrics" json:"metrics"`
	Level          string         `db:"level" json:"level"`
	DateRange      DateRange      `db:"date_range" json:"dateRangeEnum"`
	CustomDateFrom *time.Time     `db:"custom_date_from" json:"customDateFrom,omitempty"`
	CustomDateTo   *time.Time     `db:"custom_date_to" json:"customDateTo,omitempty"`
	Cadence        Cadence        `db:"cadence" json:"cadence"`
	Delivery       Delivery       `db:"delivery" json:"delivery"`
	Email          *string        `db:"email" json:"email,omitempty"`
	Metadata       ConfigMetadata `db:"metadata" json:"metadata"`
	CreatedAt      time.Time      `db:"created_at" json:"createdAt"`
}

// IsScheduled reports whether the config participates in recurring scheduling.
func (c *ReportConfig) IsScheduled() bool {
	return c.Cadence != CadenceManual
}

func jsonBytes(value interface{}) ([]byte, error) {
	switch v := value.(type) {
	case []byte:
		return v, nil
	case string:
		return []byte(v), nil
	default:
		return nil, fmt.Errorf("unsupported type %T", value)
	}
}
