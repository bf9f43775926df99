package doselog

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medtrack-api/internal/dosing"
	"github.com/jwalitptl/medtrack-api/internal/model"
	"github.com/jwalitptl/medtrack-api/internal/repository"
	"github.com/jwalitptl/medtrack-api/pkg/logger"
)

type fakeDoseLogRepo struct {
	logs        map[uuid.UUID]*model.DoseLog
	atomicCalls int
}

func newFakeDoseLogRepo() *fakeDoseLogRepo {
	return &fakeDoseLogRepo{logs: make(map[uuid.UUID]*model.DoseLog)}
}

func (f *fakeDoseLogRepo) Create(_ context.Context, log *model.DoseLog) error {
	cp := *log
	f.logs[log.ID] = &cp
	return nil
}

func (f *fakeDoseLogRepo) Get(_ context.Context, id uuid.UUID) (*model.DoseLog, error) {
	log, ok := f.logs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *log
	return &cp, nil
}

func (f *fakeDoseLogRepo) Update(_ context.Context, log *model.DoseLog) error {
	if _, ok := f.logs[log.ID]; !ok {
		return repository.ErrNotFound
	}
	cp := *log
	f.logs[log.ID] = &cp
	return nil
}

func (f *fakeDoseLogRepo) Delete(_ context.Context, id uuid.UUID) error {
	if _, ok := f.logs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.logs, id)
	return nil
}

func (f *fakeDoseLogRepo) List(_ context.Context, _ *model.DoseLogFilters) ([]*model.DoseLog, error) {
	var out []*model.DoseLog
	for _, log := range f.logs {
		cp := *log
		out = append(out, &cp)
	}
	return out, nil
}

func (f *fakeDoseLogRepo) CountTakenOnDate(_ context.Context, scheduleID uuid.UUID, day time.Time, excludeID uuid.UUID) (int, error) {
	end := day.Add(24 * time.Hour)
	n := 0
	for _, log := range f.logs {
		if log.MedicationScheduleID != scheduleID || log.ID == excludeID {
			continue
		}
		if log.TakenDatetime == nil {
			continue
		}
		if !log.TakenDatetime.Before(day) && log.TakenDatetime.Before(end) {
			n++
		}
	}
	return n, nil
}

func (f *fakeDoseLogRepo) MostRecentTakenBefore(_ context.Context, scheduleID uuid.UUID, instant time.Time, excludeID uuid.UUID) (*model.DoseLog, error) {
	var best *model.DoseLog
	for _, log := range f.logs {
		if log.MedicationScheduleID != scheduleID || log.ID == excludeID {
			continue
		}
		if log.Status != model.DoseLogStatusTaken || log.TakenDatetime == nil {
			continue
		}
		if !log.TakenDatetime.Before(instant) {
			continue
		}
		if best == nil || log.TakenDatetime.After(*best.TakenDatetime) {
			best = log
		}
	}
	if best == nil {
		return nil, nil
	}
	cp := *best
	return &cp, nil
}

func (f *fakeDoseLogRepo) Atomic(_ context.Context, _ uuid.UUID, fn func(txRepo repository.DoseLogRepository) error) error {
	f.atomicCalls++
	return fn(f)
}

type fakeScheduleRepo struct {
	scheds map[uuid.UUID]*model.MedicationSchedule
}

func (f *fakeScheduleRepo) Create(_ context.Context, s *model.MedicationSchedule) error { return nil }
func (f *fakeScheduleRepo) Update(_ context.Context, s *model.MedicationSchedule) error { return nil }
func (f *fakeScheduleRepo) Delete(_ context.Context, _ uuid.UUID) error                 { return nil }
func (f *fakeScheduleRepo) SetActive(_ context.Context, _ uuid.UUID, _ bool) error      { return nil }
func (f *fakeScheduleRepo) List(_ context.Context, _ *model.ScheduleFilters) ([]*model.MedicationSchedule, error) {
	return nil, nil
}
func (f *fakeScheduleRepo) Get(_ context.Context, id uuid.UUID) (*model.MedicationSchedule, error) {
	s, ok := f.scheds[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return s, nil
}

type fakeMedRepo struct {
	meds map[uuid.UUID]*model.Medication
}

func (f *fakeMedRepo) Create(_ context.Context, _ *model.Medication) error { return nil }
func (f *fakeMedRepo) Update(_ context.Context, _ *model.Medication) error { return nil }
func (f *fakeMedRepo) Delete(_ context.Context, _ uuid.UUID) error         { return nil }
func (f *fakeMedRepo) List(_ context.Context, _ *model.MedicationFilters) ([]*model.Medication, error) {
	return nil, nil
}
func (f *fakeMedRepo) Get(_ context.Context, id uuid.UUID) (*model.Medication, error) {
	m, ok := f.meds[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return m, nil
}

type recordingEmitter struct {
	types []string
}

func (e *recordingEmitter) Emit(_ context.Context, eventType string, _ interface{}) error {
	e.types = append(e.types, eventType)
	return nil
}

func intPtr(n int) *int { return &n }

func timePtr(t time.Time) *time.Time { return &t }

type fixture struct {
	svc     *Service
	repo    *fakeDoseLogRepo
	emitter *recordingEmitter
	sched   *model.MedicationSchedule
	med     *model.Medication
}

func newFixture(t *testing.T, asNeeded bool) *fixture {
	t.Helper()

	med := &model.Medication{
		PrescriptionName: "Painkiller 50mg",
		GenericName:      "acetaminophen",
		AsNeeded:         asNeeded,
	}
	med.ID = uuid.New()
	if asNeeded {
		med.MaxDailyDoses = intPtr(3)
		med.DosePeriodHours = intPtr(6)
	}

	sched := &model.MedicationSchedule{
		MedicationID:  med.ID,
		StartDate:     time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
		DoseAmount:    1,
		FrequencyType: model.FrequencyDaily,
		IsActive:      true,
	}
	if asNeeded {
		sched.FrequencyType = model.FrequencyAsNeeded
	}
	sched.ID = uuid.New()

	repo := newFakeDoseLogRepo()
	emitter := &recordingEmitter{}
	svc := NewService(
		repo,
		&fakeScheduleRepo{scheds: map[uuid.UUID]*model.MedicationSchedule{sched.ID: sched}},
		&fakeMedRepo{meds: map[uuid.UUID]*model.Medication{med.ID: med}},
		dosing.NewEngine(time.UTC),
		emitter,
		nil,
		logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard}),
	)

	return &fixture{svc: svc, repo: repo, emitter: emitter, sched: sched, med: med}
}

func TestCreateDoseLogAsNeeded(t *testing.T) {
	fx := newFixture(t, true)
	taken := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	log, err := fx.svc.CreateDoseLog(context.Background(), &model.CreateDoseLogRequest{
		MedicationScheduleID: fx.sched.ID,
		TakenDatetime:        timePtr(taken),
		DoseTaken:            1,
		Reason:               "headache",
	})
	require.NoError(t, err)

	assert.Equal(t, model.DoseLogStatusTaken, log.Status)
	assert.Equal(t, 1, fx.repo.atomicCalls)
	assert.Equal(t, []string{"dose_log.taken"}, fx.emitter.types)

	stored, err := fx.repo.Get(context.Background(), log.ID)
	require.NoError(t, err)
	assert.Equal(t, taken, *stored.TakenDatetime)
}

func TestCreateDoseLogDailyLimit(t *testing.T) {
	fx := newFixture(t, true)
	base := time.Date(2026, 3, 10, 0, 0, 0, 0, time.UTC)

	for _, hour := range []int{0, 7, 14} {
		_, err := fx.svc.CreateDoseLog(context.Background(), &model.CreateDoseLogRequest{
			MedicationScheduleID: fx.sched.ID,
			TakenDatetime:        timePtr(base.Add(time.Duration(hour) * time.Hour)),
			DoseTaken:            1,
			Reason:               "pain",
		})
		require.NoError(t, err)
	}

	_, err := fx.svc.CreateDoseLog(context.Background(), &model.CreateDoseLogRequest{
		MedicationScheduleID: fx.sched.ID,
		TakenDatetime:        timePtr(base.Add(21 * time.Hour)),
		DoseTaken:            1,
		Reason:               "pain",
	})
	require.Error(t, err)
	kind, ok := dosing.KindOf(err)
	require.True(t, ok)
	assert.Equal(t, dosing.KindDailyLimitExceeded, kind)

	logs, _ := fx.repo.List(context.Background(), nil)
	assert.Len(t, logs, 3, "rejected dose must not be persisted")
	assert.Len(t, fx.emitter.types, 3)
}

func TestCreateDoseLogSpacing(t *testing.T) {
	fx := newFixture(t, true)
	first := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	_, err := fx.svc.CreateDoseLog(context.Background(), &model.CreateDoseLogRequest{
		MedicationScheduleID: fx.sched.ID,
		TakenDatetime:        timePtr(first),
		DoseTaken:            1,
		Reason:               "pain",
	})
	require.NoError(t, err)

	_, err = fx.svc.CreateDoseLog(context.Background(), &model.CreateDoseLogRequest{
		MedicationScheduleID: fx.sched.ID,
		TakenDatetime:        timePtr(first.Add(4 * time.Hour)),
		DoseTaken:            1,
		Reason:               "pain",
	})
	require.Error(t, err)
	kind, _ := dosing.KindOf(err)
	assert.Equal(t, dosing.KindMinimumSpacingViolated, kind)
}

func TestCreateDoseLogScheduledDefaultsPending(t *testing.T) {
	fx := newFixture(t, false)

	log, err := fx.svc.CreateDoseLog(context.Background(), &model.CreateDoseLogRequest{
		MedicationScheduleID: fx.sched.ID,
		ScheduledDatetime:    timePtr(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)),
		DoseTaken:            1,
	})
	require.NoError(t, err)
	assert.Equal(t, model.DoseLogStatusPending, log.Status)
	assert.Equal(t, []string{"dose_log.pending"}, fx.emitter.types)
}

func TestCreateDoseLogScheduledRequiresTime(t *testing.T) {
	fx := newFixture(t, false)

	_, err := fx.svc.CreateDoseLog(context.Background(), &model.CreateDoseLogRequest{
		MedicationScheduleID: fx.sched.ID,
		DoseTaken:            1,
	})
	require.Error(t, err)
	kind, _ := dosing.KindOf(err)
	assert.Equal(t, dosing.KindMissingScheduledTime, kind)
}

func TestUpdateDoseLogExcludesSelf(t *testing.T) {
	fx := newFixture(t, true)
	taken := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)

	log, err := fx.svc.CreateDoseLog(context.Background(), &model.CreateDoseLogRequest{
		MedicationScheduleID: fx.sched.ID,
		TakenDatetime:        timePtr(taken),
		DoseTaken:            1,
		Reason:               "headache",
	})
	require.NoError(t, err)

	// Correcting the reason must not trip the spacing check against the
	// record's own prior version.
	updated, err := fx.svc.UpdateDoseLog(context.Background(), log.ID, &model.UpdateDoseLogRequest{
		Reason: strPtr("migraine"),
	})
	require.NoError(t, err)
	assert.Equal(t, "migraine", updated.Reason)
	assert.Contains(t, fx.emitter.types, "dose_log.updated")
}

func TestUpdateDoseLogRevalidates(t *testing.T) {
	fx := newFixture(t, true)
	base := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)

	first, err := fx.svc.CreateDoseLog(context.Background(), &model.CreateDoseLogRequest{
		MedicationScheduleID: fx.sched.ID,
		TakenDatetime:        timePtr(base),
		DoseTaken:            1,
		Reason:               "pain",
	})
	require.NoError(t, err)

	second, err := fx.svc.CreateDoseLog(context.Background(), &model.CreateDoseLogRequest{
		MedicationScheduleID: fx.sched.ID,
		TakenDatetime:        timePtr(base.Add(7 * time.Hour)),
		DoseTaken:            1,
		Reason:               "pain",
	})
	require.NoError(t, err)
	_ = first

	// Moving the second dose to 2h after the first violates spacing.
	_, err = fx.svc.UpdateDoseLog(context.Background(), second.ID, &model.UpdateDoseLogRequest{
		TakenDatetime: timePtr(base.Add(2 * time.Hour)),
	})
	require.Error(t, err)
	kind, _ := dosing.KindOf(err)
	assert.Equal(t, dosing.KindMinimumSpacingViolated, kind)
}

func TestDeleteDoseLog(t *testing.T) {
	fx := newFixture(t, true)

	log, err := fx.svc.CreateDoseLog(context.Background(), &model.CreateDoseLogRequest{
		MedicationScheduleID: fx.sched.ID,
		TakenDatetime:        timePtr(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)),
		DoseTaken:            1,
		Reason:               "pain",
	})
	require.NoError(t, err)

	require.NoError(t, fx.svc.DeleteDoseLog(context.Background(), log.ID))
	_, err = fx.svc.GetDoseLog(context.Background(), log.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
	assert.Contains(t, fx.emitter.types, "dose_log.deleted")
}

func strPtr(s string) *string { return &s }
