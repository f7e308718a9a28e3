package service

import (
	"github.com/robfig/cron/v3"

	"github.com/adpulse/reports-api/internal/models"
	appErrors "github.com/adpulse/reports-api/pkg/errors"
)

// Cron specs per cadence. All recurrence is evaluated in UTC regardless of
// caller locale so fire times stay deterministic.
const (
	specEveryMinute = "* * * * *"
	specHourly      = "0 * * * *"
	specEvery12h    = "0 */12 * * *"
	specDaily       = "0 0 * * *"
)

// cronParser matches the standard five-field layout used by the specs above.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ResolveCadence maps a cadence label to its cron spec. A manual cadence
// resolves to the empty spec, meaning no recurrence is installed. Unknown
// labels fail with ErrInvalidCadence so callers never arm a job for them.
func ResolveCadence(cadence models.Cadence) (string, error) {
	switch cadence {
	case models.CadenceManual:
		return "", nil
	case models.CadenceEveryMinute, models.CadenceTestMinute:
		return specEveryMinute, nil
	case models.CadenceHourly:
		return specHourly, nil
	case models.CadenceEvery12h:
		return specEvery12h, nil
	case models.CadenceDaily:
		return specDaily, nil
	default:
		return "", appErrors.Clone(appErrors.ErrInvalidCadence, "unknown cadence: "+string(cadence))
	}
}

// ValidCadence reports whether the label maps to a known cadence.
func ValidCadence(cadence models.Cadence) bool {
	_, err := ResolveCadence(cadence)
	return err == nil
}
