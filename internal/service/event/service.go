package event

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jwalitptl/medtrack-api/internal/model"
	"github.com/jwalitptl/medtrack-api/internal/repository"
)

// Event types published on the dose lifecycle.
const (
	TypeMedicationCreated   = "medication.created"
	TypeMedicationUpdated   = "medication.updated"
	TypeMedicationDeleted   = "medication.deleted"
	TypeScheduleCreated     = "schedule.created"
	TypeScheduleUpdated     = "schedule.updated"
	TypeScheduleDeactivated = "schedule.deactivated"
	TypeScheduleDeleted     = "schedule.deleted"
	TypeDoseLogUpdated      = "dose_log.updated"
	TypeDoseLogDeleted      = "dose_log.deleted"
)

// DoseLogType maps a dose log status to its event type, e.g. a taken dose
// publishes "dose_log.taken" and a missed one "dose_log.missed".
func DoseLogType(status model.DoseLogStatus) string {
	return "dose_log." + string(status)
}

// Emitter records domain events for asynchronous delivery.
type Emitter interface {
	Emit(ctx context.Context, eventType string, payload interface{}) error
}

// Service writes events to the transactional outbox. A separate worker
// publishes them to the broker, so emitting never blocks on Redis.
type Service struct {
	outboxRepo repository.OutboxRepository
}

func NewService(outboxRepo repository.OutboxRepository) *Service {
	return &Service{outboxRepo: outboxRepo}
}

func (s *Service) Emit(ctx context.Context, eventType string, payload interface{}) error {
	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}

	event := &model.OutboxEvent{
		EventType: eventType,
		Payload:   payloadJSON,
	}
	if err := s.outboxRepo.Create(ctx, event); err != nil {
		return fmt.Errorf("failed to create outbox event: %w", err)
	}
	return nil
}
