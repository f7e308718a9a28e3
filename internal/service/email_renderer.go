package service

import (
	"bytes"
	"fmt"
	"html/template"
	"sort"
	"strconv"
	"strings"

	"github.com/adpulse/reports-api/internal/models"
)

// chartMetrics are candidates for the email visualization, in preference
// order. Spend is the default; the first metric with nonzero values wins when
// spend is absent or flat.
var chartMetrics = []string{
	"spend", "clicks", "impressions", "reach", "conversions",
	"cost_per_conversion", "conversion_rate", "ctr", "cpc", "frequency",
}

// chartEntry is one bar of the email visualization.
type chartEntry struct {
	Label    string
	Value    float64
	BarWidth int
}

type emailData struct {
	Summary    string
	Platform   models.Platform
	DateRange  models.DateRange
	Metric     string
	Entries    []chartEntry
	ViewURL    string
	HasEntries bool
}

// EmailRenderer produces the HTML body of a report email.
type EmailRenderer struct {
	baseURL string
	tmpl    *template.Template
}

// NewEmailRenderer constructs a renderer. Links in the rendered mail are
// rooted at baseURL.
func NewEmailRenderer(baseURL string) *EmailRenderer {
	return &EmailRenderer{
		baseURL: strings.TrimRight(baseURL, "/"),
		tmpl:    template.Must(template.New("report_email").Parse(reportEmailTemplate)),
	}
}

// Render builds the email HTML for a generated report.
func (r *EmailRenderer) Render(report *models.GeneratedReport) (string, error) {
	metric, entries := buildChart(report.Data)
	data := emailData{
		Summary:    report.Summary,
		Platform:   report.Platform,
		DateRange:  report.DateRange,
		Metric:     metric,
		Entries:    entries,
		ViewURL:    fmt.Sprintf("%s/view-report/%s", r.baseURL, report.ID),
		HasEntries: len(entries) > 0,
	}
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render report email: %w", err)
	}
	return buf.String(), nil
}

// Subject returns the email subject line for a report.
func (r *EmailRenderer) Subject(report *models.GeneratedReport) string {
	return fmt.Sprintf("Your %s Report - %s", report.Platform, report.CreatedAt.Format("Jan 2, 2006"))
}

// buildChart picks the primary metric and aggregates its value per age bucket.
func buildChart(rows models.ReportRows) (string, []chartEntry) {
	for _, metric := range chartMetrics {
		totals := map[string]float64{}
		nonzero := false
		for _, row := range rows {
			if row == nil {
				continue
			}
			value, ok := metricValue(row, metric)
			if !ok {
				continue
			}
			totals[ageBucket(row)] += value
			if value != 0 {
				nonzero = true
			}
		}
		if !nonzero {
			continue
		}

		labels := make([]string, 0, len(totals))
		maxValue := 0.0
		for label, v := range totals {
			labels = append(labels, label)
			if v > maxValue {
				maxValue = v
			}
		}
		sort.Strings(labels)

		entries := make([]chartEntry, 0, len(labels))
		for _, label := range labels {
			width := 5
			if maxValue > 0 {
				if pct := int(totals[label] / maxValue * 100); pct > width {
					width = pct
				}
			}
			entries = append(entries, chartEntry{Label: label, Value: totals[label], BarWidth: width})
		}
		return metric, entries
	}
	return "", nil
}

// metricValue reads a metric from a row, handling the nested tiktok shape.
func metricValue(row models.ReportRow, metric string) (float64, bool) {
	if v, ok := row[metric]; ok {
		return toFloat(v)
	}
	if nested, ok := row["metrics"].(map[string]interface{}); ok {
		if v, ok := nested[metric]; ok {
			return toFloat(v)
		}
	}
	return 0, false
}

func ageBucket(row models.ReportRow) string {
	if age := rowString(row, "age"); age != "" {
		return age
	}
	if dims, ok := row["dimensions"].(map[string]interface{}); ok {
		if age := valueString(dims["age"]); age != "" {
			return age
		}
	}
	return "Unknown"
}

func toFloat(v interface{}) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

const reportEmailTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="utf-8">
  <title>Your Scheduled Report</title>
</head>
<body style="font-family: -apple-system, 'Segoe UI', Roboto, Helvetica, Arial, sans-serif; color: #333; background-color: #f8f9fa; margin: 0; padding: 0;">
  <div style="max-width: 600px; margin: 0 auto; background-color: #ffffff; border-radius: 8px; overflow: hidden;">
    <div style="background-color: #667eea; color: white; padding: 32px 24px; text-align: center;">
      <h1 style="margin: 0 0 8px 0; font-size: 24px;">Your Scheduled Report</h1>
      <p style="margin: 0; opacity: 0.9;">Here's your automated insight report.</p>
    </div>
    <div style="padding: 32px 24px;">
      <h2 style="color: #2c3e50; font-size: 18px;">Summary</h2>
      <div style="background-color: #e3f2fd; border-left: 4px solid #2196f3; padding: 16px; border-radius: 8px;">
        <p style="margin: 0; line-height: 1.6;">{{.Summary}}</p>
      </div>
      {{if .HasEntries}}
      <h2 style="color: #2c3e50; font-size: 18px; margin-top: 28px;">{{.Metric}} by Age Group</h2>
      <table style="width: 100%; border-collapse: collapse; font-size: 14px;">
        <thead>
          <tr style="background-color: #f9fafb;">
            <th style="padding: 10px; text-align: left; border-bottom: 2px solid #e5e7eb;">Age Group</th>
            <th style="padding: 10px; text-align: left; border-bottom: 2px solid #e5e7eb;">{{.Metric}}</th>
            <th style="padding: 10px; text-align: right; border-bottom: 2px solid #e5e7eb;">Amount</th>
          </tr>
        </thead>
        <tbody>
          {{range .Entries}}
          <tr>
            <td style="padding: 8px 10px; border-bottom: 1px solid #e5e7eb; font-weight: 500;">{{.Label}}</td>
            <td style="padding: 8px 10px; border-bottom: 1px solid #e5e7eb; width: 200px;">
              <div style="background-color: #f3f4f6; border-radius: 4px; height: 18px;">
                <div style="background-color: #3b82f6; height: 100%; width: {{.BarWidth}}%; border-radius: 4px;"></div>
              </div>
            </td>
            <td style="padding: 8px 10px; border-bottom: 1px solid #e5e7eb; text-align: right; font-weight: 600;">{{printf "%.2f" .Value}}</td>
          </tr>
          {{end}}
        </tbody>
      </table>
      {{else}}
      <p style="text-align: center; color: #6c7280; font-style: italic;">No data available for visualization</p>
      {{end}}
      <table style="width: 100%; margin-top: 28px;">
        <tr>
          <td style="background-color: #f8f9fa; padding: 16px; border-radius: 8px;">
            <h4 style="margin: 0 0 6px 0; font-size: 12px; color: #6c757d; text-transform: uppercase;">Platform</h4>
            <p style="margin: 0; font-weight: 500;">{{.Platform}}</p>
          </td>
          <td style="background-color: #f8f9fa; padding: 16px; border-radius: 8px;">
            <h4 style="margin: 0 0 6px 0; font-size: 12px; color: #6c757d; text-transform: uppercase;">Date Range</h4>
            <p style="margin: 0; font-weight: 500;">{{.DateRange}}</p>
          </td>
        </tr>
      </table>
      <div style="text-align: center; margin-top: 32px;">
        <a href="{{.ViewURL}}" style="display: inline-block; background-color: #007bff; color: white; padding: 14px 28px; text-decoration: none; border-radius: 8px; font-weight: 600;">View Full Report</a>
      </div>
    </div>
    <div style="background-color: #f8f9fa; padding: 16px 24px; text-align: center; border-top: 1px solid #e9ecef;">
      <p style="margin: 0; font-size: 12px; color: #6c757d;">Generated by Scheduled Reports</p>
    </div>
  </div>
</body>
</html>`
