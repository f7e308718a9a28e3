package service

import (
	"fmt"
	"strings"

	"github.com/adpulse/reports-api/internal/models"
)

// DedupeRows removes duplicate analytics rows, keeping the first occurrence of
// each (age bucket, date_start, date_stop) key. Metric values of later
// duplicates are discarded, not merged. The pass is stable, order-preserving
// and idempotent; nil rows pass through untouched.
func DedupeRows(rows models.ReportRows) models.ReportRows {
	if len(rows) == 0 {
		return rows
	}

	seen := make(map[string]struct{}, len(rows))
	cleaned := make(models.ReportRows, 0, len(rows))
	for _, row := range rows {
		if row == nil {
			cleaned = append(cleaned, row)
			continue
		}
		key := dedupeKey(row)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		cleaned = append(cleaned, row)
	}

	return cleaned
}

// dedupeKey builds the composite identity of a row. The age bucket is read
// from the flat "age" field first and falls back to the nested
// "dimensions.age" shape tiktok rows use; both normalise to one rule.
func dedupeKey(row models.ReportRow) string {
	age := rowString(row, "age")
	if age == "" {
		if dims, ok := row["dimensions"].(map[string]interface{}); ok {
			age = valueString(dims["age"])
		}
	}
	if age == "" {
		age = "Unknown"
	}

	dateStart := rowString(row, "date_start")
	dateStop := rowString(row, "date_stop")

	return strings.Join([]string{age, dateStart, dateStop}, "_")
}

func rowString(row models.ReportRow, key string) string {
	return valueString(row[key])
}

func valueString(v interface{}) string {
	switch val := v.(type) {
	case nil:
		return ""
	case string:
		return val
	default:
		return fmt.Sprintf("%v", val)
	}
}
