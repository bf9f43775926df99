package medication

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

// Service manages the medication catalog. Every create and update passes
// through the dosing engine's regimen check before touching storage.
type Service struct {
	repo   repository.MedicationRepository
	engine *dosing.Engine
	events event.Emitter
	logger *logger.Logger
}

func NewService(repo repository.MedicationRepository, engine *dosing.Engine, events event.Emitter, logger *logger.Logger) *Service {
	return &Service{
		repo:   repo,
		engine: engine,
		events: events,
		logger: logger,
	}
}

func (s *Service) CreateMedication(ctx context.Context, req *model.CreateMedicationRequest) (*model.Medication, error) {
	med := &model.Medication{
		PrescriptionName: req.PrescriptionName,
		GenericName:      req.GenericName,
		AsNeeded:         req.AsNeeded,
		MaxDailyDoses:    req.MaxDailyDoses,
		DosePeriodHours:  req.DosePeriodHours,
	}
	if err := s.engine.ValidateRegimen(med); err != nil {
		return nil, err
	}

	med.ID = uuid.New()
	med.CreatedAt = time.Now()
	med.UpdatedAt = med.CreatedAt

	if err := s.repo.Create(ctx, med); err != nil {
		return nil, fmt.Errorf("failed to create medication: %w", err)
	}

	s.emit(ctx, event.TypeMedicationCreated, med)
	return med, nil
}

func (s *Service) GetMedication(ctx context.Context, id uuid.UUID) (*model.Medication, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListMedications(ctx context.Context, filters *model.MedicationFilters) ([]*model.Medication, error) {
	return s.repo.List(ctx, filters)
}

// UpdateMedication applies the partial update and re-runs the regimen check
// on the merged record, so an update can never leave an as-needed medication
// without its safety envelope.
func (s *Service) UpdateMedication(ctx context.Context, id uuid.UUID, req *model.UpdateMedicationRequest) (*model.Medication, error) {
	med, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.PrescriptionName != nil {
		med.PrescriptionName = *req.PrescriptionName
	}
	if req.GenericName != nil {
		med.GenericName = *req.GenericName
	}
	if req.AsNeeded != nil {
		med.AsNeeded = *req.AsNeeded
	}
	if req.MaxDailyDoses != nil {
		med.MaxDailyDoses = req.MaxDailyDoses
	}
	if req.DosePeriodHours != nil {
		med.DosePeriodHours = req.DosePeriodHours
	}

	if err := s.engine.ValidateRegimen(med); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, med); err != nil {
		return nil, fmt.Errorf("failed to update medication: %w", err)
	}

	s.emit(ctx, event.TypeMedicationUpdated, med)
	return med, nil
}

// DeleteMedication removes the medication together with its schedules and
// dose logs.
func (s *Service) DeleteMedication(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.emit(ctx, event.TypeMedicationDeleted, map[string]interface{}{"id": id})
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
