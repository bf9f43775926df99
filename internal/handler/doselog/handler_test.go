package doselog

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/medtrack-api/internal/dosing"
	"github.com/jwalitptl/medtrack-api/internal/model"
	"github.com/jwalitptl/medtrack-api/internal/repository"
	"github.com/jwalitptl/medtrack-api/internal/service/doselog"
	"github.com/jwalitptl/medtrack-api/pkg/logger"
)

type stubDoseLogRepo struct {
	logs map[uuid.UUID]*model.DoseLog
}

func (s *stubDoseLogRepo) Create(_ context.Context, log *model.DoseLog) error {
	s.logs[log.ID] = log
	return nil
}

func (s *stubDoseLogRepo) Get(_ context.Context, id uuid.UUID) (*model.DoseLog, error) {
	log, ok := s.logs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return log, nil
}

func (s *stubDoseLogRepo) Update(_ context.Context, log *model.DoseLog) error {
	s.logs[log.ID] = log
	return nil
}

func (s *stubDoseLogRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(s.logs, id)
	return nil
}

func (s *stubDoseLogRepo) List(_ context.Context, _ *model.DoseLogFilters) ([]*model.DoseLog, error) {
	return nil, nil
}

func (s *stubDoseLogRepo) CountTakenOnDate(_ context.Context, scheduleID uuid.UUID, day time.Time, excludeID uuid.UUID) (int, error) {
	end := day.Add(24 * time.Hour)
	n := 0
	for _, log := range s.logs {
		if log.MedicationScheduleID != scheduleID || log.ID == excludeID || log.TakenDatetime == nil {
			continue
		}
		if !log.TakenDatetime.Before(day) && log.TakenDatetime.Before(end) {
			n++
		}
	}
	return n, nil
}

func (s *stubDoseLogRepo) MostRecentTakenBefore(_ context.Context, scheduleID uuid.UUID, instant time.Time, excludeID uuid.UUID) (*model.DoseLog, error) {
	var best *model.DoseLog
	for _, log := range s.logs {
		if log.MedicationScheduleID != scheduleID || log.ID == excludeID {
			continue
		}
		if log.Status != model.DoseLogStatusTaken || log.TakenDatetime == nil || !log.TakenDatetime.Before(instant) {
			continue
		}
		if best == nil || log.TakenDatetime.After(*best.TakenDatetime) {
			best = log
		}
	}
	return best, nil
}

func (s *stubDoseLogRepo) Atomic(_ context.Context, _ uuid.UUID, fn func(txRepo repository.DoseLogRepository) error) error {
	return fn(s)
}

type stubScheduleRepo struct {
	sched *model.MedicationSchedule
}

func (s *stubScheduleRepo) Create(_ context.Context, _ *model.MedicationSchedule) error { return nil }
func (s *stubScheduleRepo) Update(_ context.Context, _ *model.MedicationSchedule) error { return nil }
func (s *stubScheduleRepo) Delete(_ context.Context, _ uuid.UUID) error                 { return nil }
func (s *stubScheduleRepo) SetActive(_ context.Context, _ uuid.UUID, _ bool) error      { return nil }
func (s *stubScheduleRepo) List(_ context.Context, _ *model.ScheduleFilters) ([]*model.MedicationSchedule, error) {
	return nil, nil
}
func (s *stubScheduleRepo) Get(_ context.Context, id uuid.UUID) (*model.MedicationSchedule, error) {
	if s.sched == nil || s.sched.ID != id {
		return nil, repository.ErrNotFound
	}
	return s.sched, nil
}

type stubMedRepo struct {
	med *model.Medication
}

func (s *stubMedRepo) Create(_ context.Context, _ *model.Medication) error { return nil }
func (s *stubMedRepo) Update(_ context.Context, _ *model.Medication) error { return nil }
func (s *stubMedRepo) Delete(_ context.Context, _ uuid.UUID) error         { return nil }
func (s *stubMedRepo) List(_ context.Context, _ *model.MedicationFilters) ([]*model.Medication, error) {
	return nil, nil
}
func (s *stubMedRepo) Get(_ context.Context, id uuid.UUID) (*model.Medication, error) {
	if s.med == nil || s.med.ID != id {
		return nil, repository.ErrNotFound
	}
	return s.med, nil
}

func intPtr(n int) *int { return &n }

func newTestRouter(t *testing.T) (*gin.Engine, *model.MedicationSchedule) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	med := &model.Medication{
		PrescriptionName: "Painkiller 50mg",
		GenericName:      "acetaminophen",
		AsNeeded:         true,
		MaxDailyDoses:    intPtr(2),
		DosePeriodHours:  intPtr(6),
	}
	med.ID = uuid.New()

	sched := &model.MedicationSchedule{
		MedicationID:  med.ID,
		FrequencyType: model.FrequencyAsNeeded,
		IsActive:      true,
	}
	sched.ID = uuid.New()

	svc := doselog.NewService(
		&stubDoseLogRepo{logs: make(map[uuid.UUID]*model.DoseLog)},
		&stubScheduleRepo{sched: sched},
		&stubMedRepo{med: med},
		dosing.NewEngine(time.UTC),
		nil,
		nil,
		logger.NewLogger(&logger.Config{Level: logger.ErrorLevel, Output: io.Discard}),
	)

	r := gin.New()
	NewHandler(svc).RegisterRoutes(r.Group("/api/v1"))
	return r, sched
}

func postJSON(t *testing.T, r *gin.Engine, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(raw))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateDoseLogAccepted(t *testing.T) {
	r, sched := newTestRouter(t)

	w := postJSON(t, r, "/api/v1/dose-logs", gin.H{
		"medication_schedule_id": sched.ID,
		"taken_datetime":         time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		"dose_taken":             1,
		"reason":                 "headache",
	})

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var resp struct {
		Status string        `json:"status"`
		Data   model.DoseLog `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, model.DoseLogStatusTaken, resp.Data.Status)
}

func TestCreateDoseLogRejectedWithKind(t *testing.T) {
	r, sched := newTestRouter(t)

	// No reason on an as-needed dose.
	w := postJSON(t, r, "/api/v1/dose-logs", gin.H{
		"medication_schedule_id": sched.ID,
		"taken_datetime":         time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		"dose_taken":             1,
	})

	require.Equal(t, http.StatusUnprocessableEntity, w.Code, w.Body.String())

	var resp struct {
		Status string `json:"status"`
		Kind   string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, string(dosing.KindMissingReason), resp.Kind)
}

func TestCreateDoseLogUnknownSchedule(t *testing.T) {
	r, _ := newTestRouter(t)

	w := postJSON(t, r, "/api/v1/dose-logs", gin.H{
		"medication_schedule_id": uuid.New(),
		"taken_datetime":         time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC),
		"dose_taken":             1,
		"reason":                 "pain",
	})

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateDoseLogMalformedBody(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/dose-logs", bytes.NewReader([]byte("{")))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}
