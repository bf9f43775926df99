package dosing

import (
	"github.com/jwalitptl/medtrack-api/internal/model"
)

// ValidateRegimen checks a medication's regimen invariant: an as-needed
// medication must carry a complete safety envelope (positive max daily
// doses and positive minimum hours between doses), and a scheduled
// medication must not carry one. Run before every medication create and
// update.
func (e *Engine) ValidateRegimen(med *model.Medication) error {
	if med.AsNeeded {
		if med.MaxDailyDoses == nil || *med.MaxDailyDoses <= 0 {
			return reject(KindMissingSafetyEnvelope, "max daily doses required for as-needed medications")
		}
		if med.DosePeriodHours == nil || *med.DosePeriodHours <= 0 {
			return reject(KindMissingSafetyEnvelope, "minimum hours between doses required for as-needed medications")
		}
		return nil
	}

	if med.MaxDailyDoses != nil || med.DosePeriodHours != nil {
		return reject(KindUnexpectedSafetyEnvelope, "safety envelope fields only apply to as-needed medications")
	}
	return nil
}
