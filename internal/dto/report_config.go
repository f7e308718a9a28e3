package dto

// CustomDateRange carries explicit window bounds as YYYY-MM-DD strings.
type CustomDateRange struct {
	From string `json:"from" binding:"required"`
	To   string `json:"to" binding:"required"`
}

// ReportConfigRequest captures create and update payloads for a recurring
// report definition.
type ReportConfigRequest struct {
	Platform        string           `json:"platform" binding:"required"`
	Metrics         []string         `json:"metrics" binding:"required,min=1"`
	Level           string           `json:"level" binding:"required"`
	DateRangeEnum   string           `json:"dateRangeEnum" binding:"required"`
	CustomDateRange *CustomDateRange `json:"customDateRange,omitempty"`
	Cadence         string           `json:"cadence" binding:"required"`
	Delivery        string           `json:"delivery" binding:"required"`
	Email           string           `json:"email,omitempty"`
}
