package signing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// ReportLinkSigner mints and validates capability URLs for generated reports.
// A signed link embeds an expiry and an HMAC over "reportID:expiry"; holding a
// valid link grants time-limited read access without any session.
type ReportLinkSigner struct {
	secret []byte
	ttl    time.Duration
}

// NewReportLinkSigner constructs a signer with the provided secret and TTL.
func NewReportLinkSigner(secret string, ttl time.Duration) *ReportLinkSigner {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ReportLinkSigner{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Sign returns the signed view path for a report and its expiry.
func (s *ReportLinkSigner) Sign(reportID string) (string, time.Time, error) {
	if reportID == "" {
		return "", time.Time{}, fmt.Errorf("reportID required")
	}
	if len(s.secret) == 0 {
		return "", time.Time{}, fmt.Errorf("signing secret missing")
	}
	expiresAt := time.Now().Add(s.ttl)
	expires := strconv.FormatInt(expiresAt.UnixMilli(), 10)
	signature := s.signature(reportID, expires)

	q := url.Values{}
	q.Set("expires", expires)
	q.Set("signature", signature)
	return fmt.Sprintf("/view-report/%s?%s", reportID, q.Encode()), expiresAt, nil
}

// Verify checks a link's signature and expiry for the given report.
// Returned booleans distinguish a bad signature from a merely expired link.
func (s *ReportLinkSigner) Verify(reportID, expires, signature string) (valid bool, expired bool) {
	if len(s.secret) == 0 {
		return false, false
	}
	expMilli, err := strconv.ParseInt(expires, 10, 64)
	if err != nil {
		return false, false
	}
	expected := s.signature(reportID, expires)
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return false, false
	}
	if time.Now().After(time.UnixMilli(expMilli)) {
		return true, true
	}
	return true, false
}

func (s *ReportLinkSigner) signature(reportID, expires string) string {
	mac := hmac.New(sha256.New, s.secret)
	_, _ = mac.Write([]byte(reportID + ":" + expires))
	return hex.EncodeToString(mac.Sum(nil))
}
