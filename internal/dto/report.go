package dto

import "time"

// RunNowResponse is returned after an on-demand pipeline run.
type RunNowResponse struct {
	ReportID string `json:"reportId"`
	Summary  string `json:"summary"`
}

// SignedLinkResponse carries a minted capability URL for a generated report.
type SignedLinkResponse struct {
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expiresAt"`
}
