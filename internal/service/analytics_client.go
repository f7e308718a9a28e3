package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/adpulse/reports-api/internal/models"
	"github.com/adpulse/reports-api/pkg/config"
)

// AnalyticsFetcher retrieves raw metric rows from the external ad-platform
// analytics API.
type AnalyticsFetcher interface {
	Fetch(ctx context.Context, cfg *models.ReportConfig) (models.ReportRows, error)
}

// AnalyticsClient calls the sample-data analytics endpoint over HTTP.
type AnalyticsClient struct {
	baseURL   string
	authToken string
	client    *http.Client
}

// NewAnalyticsClient constructs a client from analytics settings.
func NewAnalyticsClient(cfg config.AnalyticsConfig) *AnalyticsClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &AnalyticsClient{
		baseURL:   cfg.BaseURL,
		authToken: cfg.AuthToken,
		client:    &http.Client{Timeout: timeout},
	}
}

// customDateRange mirrors the API's custom window shape.
type customDateRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// metaPayload is the request shape for the meta platform.
type metaPayload struct {
	Metrics         []string         `json:"metrics"`
	Level           string           `json:"level"`
	Breakdowns      []string         `json:"breakdowns"`
	TimeIncrement   string           `json:"timeIncrement"`
	DateRangeEnum   string           `json:"dateRangeEnum,omitempty"`
	CustomDateRange *customDateRange `json:"dateRange,omitempty"`
}

// tiktokPayload is the request shape for the tiktok platform.
type tiktokPayload struct {
	Metrics         []string         `json:"metrics"`
	Dimensions      []string         `json:"dimensions"`
	Level           string           `json:"level"`
	ReportType      string           `json:"reportType"`
	DateRangeEnum   string           `json:"dateRangeEnum,omitempty"`
	CustomDateRange *customDateRange `json:"dateRange,omitempty"`
}

type analyticsResponse struct {
	Data models.ReportRows `json:"data"`
}

// Fetch translates the config into the platform request shape, posts it, and
// returns the response's data rows.
func (c *AnalyticsClient) Fetch(ctx context.Context, cfg *models.ReportConfig) (models.ReportRows, error) {
	payload, err := translateConfig(cfg)
	if err != nil {
		return nil, err
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal analytics payload: %w", err)
	}

	url := fmt.Sprintf("%s/%s", c.baseURL, cfg.Platform)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build analytics request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.authToken != "" {
		req.Header.Set("Authorization", c.authToken)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analytics request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("analytics request: status %d: %s", resp.StatusCode, snippet)
	}

	var parsed analyticsResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode analytics response: %w", err)
	}
	return parsed.Data, nil
}

// translateConfig maps a stored config to the platform-specific request shape.
// The custom window and the enum window are mutually exclusive in the outgoing
// request, mirroring the stored invariant.
func translateConfig(cfg *models.ReportConfig) (interface{}, error) {
	var window *customDateRange
	var enum string
	if cfg.DateRange == models.DateRangeCustom {
		if cfg.CustomDateFrom == nil || cfg.CustomDateTo == nil {
			return nil, fmt.Errorf("custom date range missing bounds for config %s", cfg.ID)
		}
		window = &customDateRange{
			From: cfg.CustomDateFrom.Format("2006-01-02"),
			To:   cfg.CustomDateTo.Format("2006-01-02"),
		}
	} else {
		enum = string(cfg.DateRange)
	}

	switch cfg.Platform {
	case models.PlatformTikTok:
		return tiktokPayload{
			Metrics:         cfg.Metrics,
			Dimensions:      []string{"stat_time_day"},
			Level:           cfg.Level,
			ReportType:      "BASIC",
			DateRangeEnum:   enum,
			CustomDateRange: window,
		}, nil
	case models.PlatformMeta:
		return metaPayload{
			Metrics:         cfg.Metrics,
			Level:           cfg.Level,
			Breakdowns:      []string{"age"},
			TimeIncrement:   "7",
			DateRangeEnum:   enum,
			CustomDateRange: window,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported platform %q", cfg.Platform)
	}
}
