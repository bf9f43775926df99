package dosing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medtrack-api/internal/model"
)

// DoseHistory exposes the prior-dose reads the engine needs, scoped to one
// schedule. The persistence layer supplies the implementation; for update
// re-validation it must exclude the record identified by excludeID.
type DoseHistory interface {
	// CountTakenOnDate counts this schedule's logs whose taken_datetime
	// falls on the given calendar date, regardless of status.
	CountTakenOnDate(ctx context.Context, scheduleID uuid.UUID, day time.Time, excludeID uuid.UUID) (int, error)

	// MostRecentTakenBefore returns this schedule's latest log with status
	// "taken" and taken_datetime strictly before instant, or nil.
	MostRecentTakenBefore(ctx context.Context, scheduleID uuid.UUID, instant time.Time, excludeID uuid.UUID) (*model.DoseLog, error)
}

// ValidateDoseLog decides whether a proposed dose event is legal. Checks
// run in a fixed order and stop at the first violation.
//
// For as-needed schedules the daily-limit check compares the count of
// existing history rows against the maximum with >=; the record being
// validated is not counted, so the limit-th dose is admitted and the
// (limit+1)-th is the first to be rejected.
func (e *Engine) ValidateDoseLog(ctx context.Context, log *model.DoseLog, sched *model.MedicationSchedule, med *model.Medication, history DoseHistory) error {
	if sched.FrequencyType != model.FrequencyAsNeeded {
		if log.ScheduledDatetime == nil {
			return reject(KindMissingScheduledTime, "scheduled time required for scheduled medications")
		}
		return nil
	}

	if log.TakenDatetime == nil {
		return reject(KindMissingTakenTime, "taken date and time required for as-needed medications")
	}
	if log.Reason == "" {
		return reject(KindMissingReason, "reason required for as-needed medications")
	}

	if med.MaxDailyDoses != nil {
		n, err := history.CountTakenOnDate(ctx, sched.ID, e.day(*log.TakenDatetime), log.ID)
		if err != nil {
			return fmt.Errorf("count doses on date: %w", err)
		}
		if n >= *med.MaxDailyDoses {
			return reject(KindDailyLimitExceeded,
				fmt.Sprintf("maximum of %d doses per day already reached", *med.MaxDailyDoses))
		}
	}

	if med.DosePeriodHours != nil {
		prior, err := history.MostRecentTakenBefore(ctx, sched.ID, *log.TakenDatetime, log.ID)
		if err != nil {
			return fmt.Errorf("look up most recent dose: %w", err)
		}
		if prior != nil && prior.TakenDatetime != nil {
			minGap := time.Duration(*med.DosePeriodHours) * time.Hour
			elapsed := log.TakenDatetime.Sub(*prior.TakenDatetime)
			if elapsed < minGap {
				return reject(KindMinimumSpacingViolated,
					fmt.Sprintf("minimum time between doses not yet met, next dose allowed in %s",
						(minGap - elapsed).Round(time.Minute)))
			}
		}
	}

	return nil
}
