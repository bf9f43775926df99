package dosing

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medtrack-api/internal/model"
)

// fixtureHistory is an in-memory DoseHistory over a fixed set of logs,
// all belonging to one schedule.
type fixtureHistory struct {
	logs []*model.DoseLog
}

func (h *fixtureHistory) CountTakenOnDate(_ context.Context, _ uuid.UUID, day time.Time, excludeID uuid.UUID) (int, error) {
	n := 0
	for _, l := range h.logs {
		if l.ID == excludeID || l.TakenDatetime == nil {
			continue
		}
		lt := l.TakenDatetime.In(day.Location())
		if lt.Year() == day.Year() && lt.YearDay() == day.YearDay() {
			n++
		}
	}
	return n, nil
}

func (h *fixtureHistory) MostRecentTakenBefore(_ context.Context, _ uuid.UUID, instant time.Time, excludeID uuid.UUID) (*model.DoseLog, error) {
	var best *model.DoseLog
	for _, l := range h.logs {
		if l.ID == excludeID || l.Status != model.DoseLogStatusTaken || l.TakenDatetime == nil {
			continue
		}
		if !l.TakenDatetime.Before(instant) {
			continue
		}
		if best == nil || l.TakenDatetime.After(*best.TakenDatetime) {
			best = l
		}
	}
	return best, nil
}

func takenLog(at time.Time) *model.DoseLog {
	return &model.DoseLog{
		Base:          model.Base{ID: uuid.New()},
		Status:        model.DoseLogStatusTaken,
		TakenDatetime: &at,
		Reason:        "headache",
	}
}

func asNeededSchedule() *model.MedicationSchedule {
	return &model.MedicationSchedule{
		Base:          model.Base{ID: uuid.New()},
		FrequencyType: model.FrequencyAsNeeded,
		IsActive:      true,
	}
}

func TestValidateDoseLogScheduledBranch(t *testing.T) {
	engine := NewEngine(nil)
	sched := &model.MedicationSchedule{Base: model.Base{ID: uuid.New()}, FrequencyType: model.FrequencyDaily}
	med := scheduledMed()

	t.Run("missing scheduled time rejected", func(t *testing.T) {
		err := engine.ValidateDoseLog(context.Background(), &model.DoseLog{Status: model.DoseLogStatusPending}, sched, med, &fixtureHistory{})
		kind, ok := KindOf(err)
		require.True(t, ok)
		assert.Equal(t, KindMissingScheduledTime, kind)
	})

	t.Run("scheduled time present accepted", func(t *testing.T) {
		at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
		log := &model.DoseLog{Status: model.DoseLogStatusPending, ScheduledDatetime: &at}
		assert.NoError(t, engine.ValidateDoseLog(context.Background(), log, sched, med, &fixtureHistory{}))
	})
}

func TestValidateDoseLogRequiredFields(t *testing.T) {
	engine := NewEngine(nil)
	sched := asNeededSchedule()
	med := asNeededMed()
	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

	t.Run("missing taken time", func(t *testing.T) {
		log := &model.DoseLog{Status: model.DoseLogStatusTaken, Reason: "pain"}
		err := engine.ValidateDoseLog(context.Background(), log, sched, med, &fixtureHistory{})
		kind, ok := KindOf(err)
		require.True(t, ok)
		assert.Equal(t, KindMissingTakenTime, kind)
	})

	t.Run("missing reason", func(t *testing.T) {
		log := &model.DoseLog{Status: model.DoseLogStatusTaken, TakenDatetime: &at}
		err := engine.ValidateDoseLog(context.Background(), log, sched, med, &fixtureHistory{})
		kind, ok := KindOf(err)
		require.True(t, ok)
		assert.Equal(t, KindMissingReason, kind)
	})
}

func TestValidateDoseLogDailyLimitBoundary(t *testing.T) {
	engine := NewEngine(nil)
	sched := asNeededSchedule()
	med := &model.Medication{AsNeeded: true, MaxDailyDoses: intPtr(2), DosePeriodHours: intPtr(1)}
	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	attempt := func(hist *fixtureHistory, at time.Time) error {
		log := &model.DoseLog{
			Base:          model.Base{ID: uuid.New()},
			Status:        model.DoseLogStatusTaken,
			TakenDatetime: &at,
			Reason:        "breakthrough pain",
		}
		return engine.ValidateDoseLog(context.Background(), log, sched, med, hist)
	}

	t.Run("one prior dose, second admitted", func(t *testing.T) {
		hist := &fixtureHistory{logs: []*model.DoseLog{takenLog(day.Add(8 * time.Hour))}}
		assert.NoError(t, attempt(hist, day.Add(12*time.Hour)))
	})

	t.Run("two prior doses, third rejected", func(t *testing.T) {
		hist := &fixtureHistory{logs: []*model.DoseLog{
			takenLog(day.Add(8 * time.Hour)),
			takenLog(day.Add(12 * time.Hour)),
		}}
		err := attempt(hist, day.Add(16*time.Hour))
		kind, ok := KindOf(err)
		require.True(t, ok)
		assert.Equal(t, KindDailyLimitExceeded, kind)
	})

	t.Run("prior doses on another day do not count", func(t *testing.T) {
		hist := &fixtureHistory{logs: []*model.DoseLog{
			takenLog(day.Add(-16 * time.Hour)),
			takenLog(day.Add(-12 * time.Hour)),
		}}
		assert.NoError(t, attempt(hist, day.Add(12*time.Hour)))
	})
}

func TestValidateDoseLogMinimumSpacing(t *testing.T) {
	engine := NewEngine(nil)
	sched := asNeededSchedule()
	med := &model.Medication{AsNeeded: true, MaxDailyDoses: intPtr(10), DosePeriodHours: intPtr(6)}
	prior := time.Date(2026, 5, 1, 6, 0, 0, 0, time.UTC)
	hist := &fixtureHistory{logs: []*model.DoseLog{takenLog(prior)}}

	attempt := func(at time.Time) error {
		log := &model.DoseLog{
			Base:          model.Base{ID: uuid.New()},
			Status:        model.DoseLogStatusTaken,
			TakenDatetime: &at,
			Reason:        "nausea",
		}
		return engine.ValidateDoseLog(context.Background(), log, sched, med, hist)
	}

	t.Run("one minute early rejected", func(t *testing.T) {
		err := attempt(prior.Add(5*time.Hour + 59*time.Minute))
		kind, ok := KindOf(err)
		require.True(t, ok)
		assert.Equal(t, KindMinimumSpacingViolated, kind)
	})

	t.Run("exactly at the gap admitted", func(t *testing.T) {
		assert.NoError(t, attempt(prior.Add(6*time.Hour)))
	})

	t.Run("no prior taken dose admitted", func(t *testing.T) {
		empty := &fixtureHistory{logs: []*model.DoseLog{
			// pending rows never constrain spacing
			{Base: model.Base{ID: uuid.New()}, Status: model.DoseLogStatusPending, TakenDatetime: &prior},
		}}
		at := prior.Add(30 * time.Minute)
		log := &model.DoseLog{Base: model.Base{ID: uuid.New()}, Status: model.DoseLogStatusTaken, TakenDatetime: &at, Reason: "nausea"}
		assert.NoError(t, engine.ValidateDoseLog(context.Background(), log, sched, med, empty))
	})
}

// Three doses at 08:00, 12:00 and 16:00 fill a limit of three; a fourth at
// 17:00 violates both the daily limit and the 4h spacing, and the daily
// limit must be the error reported.
func TestValidateDoseLogCheckOrder(t *testing.T) {
	engine := NewEngine(nil)
	sched := asNeededSchedule()
	med := &model.Medication{AsNeeded: true, MaxDailyDoses: intPtr(3), DosePeriodHours: intPtr(4)}
	day := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	hist := &fixtureHistory{}
	for _, hour := range []int{8, 12, 16} {
		at := day.Add(time.Duration(hour) * time.Hour)
		log := &model.DoseLog{
			Base:          model.Base{ID: uuid.New()},
			Status:        model.DoseLogStatusTaken,
			TakenDatetime: &at,
			Reason:        "migraine",
		}
		require.NoError(t, engine.ValidateDoseLog(context.Background(), log, sched, med, hist))
		hist.logs = append(hist.logs, log)
	}

	at := day.Add(17 * time.Hour)
	fourth := &model.DoseLog{
		Base:          model.Base{ID: uuid.New()},
		Status:        model.DoseLogStatusTaken,
		TakenDatetime: &at,
		Reason:        "migraine",
	}
	err := engine.ValidateDoseLog(context.Background(), fourth, sched, med, hist)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindDailyLimitExceeded, kind)
}

// Re-validating an already committed record against history that contains
// it must succeed: the history queries exclude the record's own ID.
func TestValidateDoseLogRevalidationExcludesSelf(t *testing.T) {
	engine := NewEngine(nil)
	sched := asNeededSchedule()
	med := &model.Medication{AsNeeded: true, MaxDailyDoses: intPtr(1), DosePeriodHours: intPtr(4)}

	at := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	committed := &model.DoseLog{
		Base:          model.Base{ID: uuid.New()},
		Status:        model.DoseLogStatusTaken,
		TakenDatetime: &at,
		Reason:        "flare-up",
	}
	hist := &fixtureHistory{logs: []*model.DoseLog{committed}}

	assert.NoError(t, engine.ValidateDoseLog(context.Background(), committed, sched, med, hist))
}

// The daily window follows the engine's configured location, not the
// timestamp's own zone.
func TestValidateDoseLogTimezonePolicy(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*3600)
	engine := NewEngine(loc)
	sched := asNeededSchedule()
	med := &model.Medication{AsNeeded: true, MaxDailyDoses: intPtr(1), DosePeriodHours: intPtr(1)}

	// 03:00 UTC on May 2nd is 22:00 May 1st in the configured zone.
	prior := time.Date(2026, 5, 2, 3, 0, 0, 0, time.UTC)
	hist := &fixtureHistory{logs: []*model.DoseLog{takenLog(prior)}}

	// 15:00 UTC May 2nd is 10:00 May 2nd locally: different local date,
	// so the single-dose daily limit is not exceeded.
	at := time.Date(2026, 5, 2, 15, 0, 0, 0, time.UTC)
	log := &model.DoseLog{Base: model.Base{ID: uuid.New()}, Status: model.DoseLogStatusTaken, TakenDatetime: &at, Reason: "cramps"}
	assert.NoError(t, engine.ValidateDoseLog(context.Background(), log, sched, med, hist))

	// 01:00 UTC May 2nd is 20:00 May 1st locally: same local date as the
	// prior dose, so the limit fires.
	at2 := time.Date(2026, 5, 2, 1, 0, 0, 0, time.UTC)
	log2 := &model.DoseLog{Base: model.Base{ID: uuid.New()}, Status: model.DoseLogStatusTaken, TakenDatetime: &at2, Reason: "cramps"}
	err := engine.ValidateDoseLog(context.Background(), log2, sched, med, hist)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, KindDailyLimitExceeded, kind)
}
