package schedule

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medtrack-api/internal/dosing"
	"github.com/jwalitptl/medtrack-api/internal/model"
	"github.com/jwalitptl/medtrack-api/internal/repository"
	"github.com/jwalitptl/medtrack-api/internal/service/event"
	"github.com/jwalitptl/medtrack-api/pkg/logger"
)

// Service manages dosing schedules. Proposed schedules are checked against
// their medication's regimen by the dosing engine, and the engine's
// normalized copy is what gets persisted.
type Service struct {
	repo    repository.ScheduleRepository
	medRepo repository.MedicationRepository
	engine  *dosing.Engine
	events  event.Emitter
	logger  *logger.Logger
}

func NewService(repo repository.ScheduleRepository, medRepo repository.MedicationRepository, engine *dosing.Engine, events event.Emitter, logger *logger.Logger) *Service {
	return &Service{
		repo:    repo,
		medRepo: medRepo,
		engine:  engine,
		events:  events,
		logger:  logger,
	}
}

func (s *Service) CreateSchedule(ctx context.Context, req *model.CreateScheduleRequest) (*model.MedicationSchedule, error) {
	med, err := s.medRepo.Get(ctx, req.MedicationID)
	if err != nil {
		return nil, err
	}

	weeklyDays, err := model.ParseWeekdaySet(req.WeeklyDays)
	if err != nil {
		return nil, fmt.Errorf("invalid weekly days: %w", err)
	}

	sched := &model.MedicationSchedule{
		MedicationID:  req.MedicationID,
		StartDate:     req.StartDate,
		EndDate:       req.EndDate,
		DoseAmount:    req.DoseAmount,
		DoseUnitID:    req.DoseUnitID,
		FrequencyType: model.FrequencyType(req.FrequencyType),
		DaysInterval:  req.DaysInterval,
		WeeklyDays:    weeklyDays,
		IsActive:      true,
	}

	normalized, err := s.engine.ValidateSchedule(sched, med)
	if err != nil {
		return nil, err
	}

	normalized.ID = uuid.New()
	normalized.CreatedAt = time.Now()
	normalized.UpdatedAt = normalized.CreatedAt

	if err := s.repo.Create(ctx, normalized); err != nil {
		return nil, fmt.Errorf("failed to create schedule: %w", err)
	}

	s.emit(ctx, event.TypeScheduleCreated, normalized)
	return normalized, nil
}

func (s *Service) GetSchedule(ctx context.Context, id uuid.UUID) (*model.MedicationSchedule, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListSchedules(ctx context.Context, filters *model.ScheduleFilters) ([]*model.MedicationSchedule, error) {
	return s.repo.List(ctx, filters)
}

// UpdateSchedule merges the partial update and re-validates the result
// against the medication's current regimen.
func (s *Service) UpdateSchedule(ctx context.Context, id uuid.UUID, req *model.UpdateScheduleRequest) (*model.MedicationSchedule, error) {
	sched, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	med, err := s.medRepo.Get(ctx, sched.MedicationID)
	if err != nil {
		return nil, err
	}

	if req.StartDate != nil {
		sched.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		sched.EndDate = req.EndDate
	}
	if req.DoseAmount != nil {
		sched.DoseAmount = *req.DoseAmount
	}
	if req.DoseUnitID != nil {
		sched.DoseUnitID = *req.DoseUnitID
	}
	if req.FrequencyType != nil {
		sched.FrequencyType = model.FrequencyType(*req.FrequencyType)
	}
	if req.DaysInterval != nil {
		sched.DaysInterval = req.DaysInterval
	}
	if req.WeeklyDays != nil {
		weeklyDays, err := model.ParseWeekdaySet(*req.WeeklyDays)
		if err != nil {
			return nil, fmt.Errorf("invalid weekly days: %w", err)
		}
		sched.WeeklyDays = weeklyDays
	}

	normalized, err := s.engine.ValidateSchedule(sched, med)
	if err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, normalized); err != nil {
		return nil, fmt.Errorf("failed to update schedule: %w", err)
	}

	s.emit(ctx, event.TypeScheduleUpdated, normalized)
	return normalized, nil
}

// DeactivateSchedule retires the schedule without touching its dose history.
func (s *Service) DeactivateSchedule(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.SetActive(ctx, id, false); err != nil {
		return err
	}

	s.emit(ctx, event.TypeScheduleDeactivated, map[string]interface{}{"id": id})
	return nil
}

// DeleteSchedule removes the schedule and its dose logs.
func (s *Service) DeleteSchedule(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.emit(ctx, event.TypeScheduleDeleted, map[string]interface{}{"id": id})
	return nil
}

func (s *Service) emit(ctx context.Context, eventType string, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Emit(ctx, eventType, payload); err != nil {
		s.logger.Error(err, "failed to emit event", "event_type", eventType)
	}
}
