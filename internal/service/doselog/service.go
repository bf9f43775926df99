package doselog

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medtrack-api/internal/dosing"
	"github.com/jwalitptl/medtrack-api/internal/model"
	"github.com/jwalitptl/medtrack-api/internal/repository"
	"github.com/jwalitptl/medtrack-api/internal/service/event"
	"github.com/jwalitptl/medtrack-api/pkg/logger"
	"github.com/jwalitptl/medtrack-api/pkg/metrics"
)

// Service records dose events. Writes run inside a transaction that locks
// the owning schedule row, and the dosing engine re-reads history through
// that transaction, so two concurrent submissions cannot both pass the
// daily-limit or spacing checks.
type Service struct {
	repo      repository.DoseLogRepository
	schedRepo repository.ScheduleRepository
	medRepo   repository.MedicationRepository
	engine    *dosing.Engine
	events    event.Emitter
	metrics   *metrics.Metrics
	logger    *logger.Logger
}

func NewService(
	repo repository.DoseLogRepository,
	schedRepo repository.ScheduleRepository,
	medRepo repository.MedicationRepository,
	engine *dosing.Engine,
	events event.Emitter,
	metrics *metrics.Metrics,
	logger *logger.Logger,
) *Service {
	return &Service{
		repo:      repo,
		schedRepo: schedRepo,
		medRepo:   medRepo,
		engine:    engine,
		events:    events,
		metrics:   metrics,
		logger:    logger,
	}
}

func (s *Service) CreateDoseLog(ctx context.Context, req *model.CreateDoseLogRequest) (*model.DoseLog, error) {
	sched, err := s.schedRepo.Get(ctx, req.MedicationScheduleID)
	if err != nil {
		return nil, err
	}
	med, err := s.medRepo.Get(ctx, sched.MedicationID)
	if err != nil {
		return nil, err
	}

	log := &model.DoseLog{
		MedicationScheduleID: req.MedicationScheduleID,
		Status:               model.DoseLogStatus(req.Status),
		ScheduledDatetime:    req.ScheduledDatetime,
		TakenDatetime:        req.TakenDatetime,
		DoseTaken:            req.DoseTaken,
		Reason:               req.Reason,
	}
	if log.Status == "" {
		if log.TakenDatetime != nil {
			log.Status = model.DoseLogStatusTaken
		} else {
			log.Status = model.DoseLogStatusPending
		}
	}
	log.ID = uuid.New()
	log.CreatedAt = time.Now()
	log.UpdatedAt = log.CreatedAt

	err = s.repo.Atomic(ctx, sched.ID, func(txRepo repository.DoseLogRepository) error {
		if err := s.engine.ValidateDoseLog(ctx, log, sched, med, txRepo); err != nil {
			return err
		}
		return txRepo.Create(ctx, log)
	})
	if err != nil {
		s.countRejection(err)
		return nil, err
	}

	s.emit(ctx, event.DoseLogType(log.Status), log)
	if s.metrics != nil {
		s.metrics.DoseLogsRecorded.Inc()
	}
	return log, nil
}

func (s *Service) GetDoseLog(ctx context.Context, id uuid.UUID) (*model.DoseLog, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) ListDoseLogs(ctx context.Context, filters *model.DoseLogFilters) ([]*model.DoseLog, error) {
	return s.repo.List(ctx, filters)
}

// UpdateDoseLog merges the partial update and re-validates the merged
// record under the same schedule lock. History queries exclude the record
// itself, so an unchanged submission always re-validates cleanly.
func (s *Service) UpdateDoseLog(ctx context.Context, id uuid.UUID, req *model.UpdateDoseLogRequest) (*model.DoseLog, error) {
	log, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	sched, err := s.schedRepo.Get(ctx, log.MedicationScheduleID)
	if err != nil {
		return nil, err
	}
	med, err := s.medRepo.Get(ctx, sched.MedicationID)
	if err != nil {
		return nil, err
	}

	if req.Status != nil {
		log.Status = model.DoseLogStatus(*req.Status)
	}
	if req.ScheduledDatetime != nil {
		log.ScheduledDatetime = req.ScheduledDatetime
	}
	if req.TakenDatetime != nil {
		log.TakenDatetime = req.TakenDatetime
	}
	if req.DoseTaken != nil {
		log.DoseTaken = *req.DoseTaken
	}
	if req.Reason != nil {
		log.Reason = *req.Reason
	}

	err = s.repo.Atomic(ctx, sched.ID, func(txRepo repository.DoseLogRepository) error {
		if err := s.engine.ValidateDoseLog(ctx, log, sched, med, txRepo); err != nil {
			return err
		}
		return txRepo.Update(ctx, log)
	})
	if err != nil {
		s.countRejection(err)
		return nil, err
	}

	s.emit(ctx, event.TypeDoseLogUpdated, log)
	return log, nil
}

func (s *Service) DeleteDoseLog(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.emit(ctx, event.TypeDoseLogDeleted, map[string]interface{}{"id": id})
	return nil
}

func (s *Service) countRejection(err error) {
	if s.metrics == nil {
		return
	}
	if kind, ok := dosing.KindOf(err); ok {
		s.metrics.DoseRejections.WithLabelValues(string(kind)).Inc()
	}
}

func (s *Service) emit(ctx context.Context, eventType string, payload interface{}) {
	if s.events == nil {
		return
	}
	if err := s.events.Emit(ctx, eventType, payload); err != nil {
		s.logger.Error(err, "failed to emit event", "event_type", eventType)
	}
}

// The engine reads history through the transactional repository handed to
// it inside Atomic.
var _ dosing.DoseHistory = (repository.DoseLogRepository)(nil)
