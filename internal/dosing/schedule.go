package dosing

import (
	"github.com/jwalitptl/medtrack-api/internal/model"
)

// ValidateSchedule checks a proposed schedule against its medication's
// regimen and returns the normalized schedule to persist. The input is not
// mutated.
//
// An as-needed schedule always has days_interval and weekly_days cleared in
// the returned copy; that is a normalization, not a failure. Monthly
// schedules are accepted without a day-of-month parameter check.
func (e *Engine) ValidateSchedule(sched *model.MedicationSchedule, med *model.Medication) (*model.MedicationSchedule, error) {
	out := *sched

	if sched.FrequencyType == model.FrequencyAsNeeded {
		if !med.AsNeeded {
			return nil, reject(KindRegimenMismatch, "as-needed frequency requires an as-needed medication")
		}
		out.DaysInterval = nil
		out.WeeklyDays = nil
		return &out, nil
	}

	if med.AsNeeded {
		return nil, reject(KindRegimenMismatch, "as-needed medications only accept the as-needed frequency")
	}

	if sched.EndDate != nil && sched.EndDate.Before(sched.StartDate) {
		return nil, reject(KindInvalidDateRange, "end date must not be before start date")
	}

	if sched.FrequencyType == model.FrequencyDaysInterval && (sched.DaysInterval == nil || *sched.DaysInterval <= 0) {
		return nil, reject(KindMissingInterval, "days interval required for interval schedules")
	}

	if sched.FrequencyType == model.FrequencyWeekly && len(sched.WeeklyDays) == 0 {
		return nil, reject(KindMissingWeeklyDays, "weekday selection required for weekly schedules")
	}

	return &out, nil
}
