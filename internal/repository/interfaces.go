package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medtrack-api/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// ErrUnitInUse is returned when deleting a dose unit still referenced by a
// schedule.
var ErrUnitInUse = errors.New("dose unit is referenced by a schedule")

// All repository interfaces in one file
type (
	MedicationRepository interface {
		Create(ctx context.Context, med *model.Medication) error
		Get(ctx context.Context, id uuid.UUID) (*model.Medication, error)
		Update(ctx context.Context, med *model.Medication) error
		// Delete removes the medication together with its schedules and
		// their dose logs in one transaction.
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.MedicationFilters) ([]*model.Medication, error)
	}

	DoseUnitRepository interface {
		Create(ctx context.Context, unit *model.DoseUnit) error
		Get(ctx context.Context, id uuid.UUID) (*model.DoseUnit, error)
		Update(ctx context.Context, unit *model.DoseUnit) error
		// Delete fails with ErrUnitInUse while any schedule references the
		// unit.
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context) ([]*model.DoseUnit, error)
	}

	ScheduleRepository interface {
		Create(ctx context.Context, sched *model.MedicationSchedule) error
		Get(ctx context.Context, id uuid.UUID) (*model.MedicationSchedule, error)
		Update(ctx context.Context, sched *model.MedicationSchedule) error
		// Delete removes the schedule and cascades to its dose logs.
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.ScheduleFilters) ([]*model.MedicationSchedule, error)
		SetActive(ctx context.Context, id uuid.UUID, active bool) error
	}

	DoseLogRepository interface {
		Create(ctx context.Context, log *model.DoseLog) error
		Get(ctx context.Context, id uuid.UUID) (*model.DoseLog, error)
		Update(ctx context.Context, log *model.DoseLog) error
		Delete(ctx context.Context, id uuid.UUID) error
		List(ctx context.Context, filters *model.DoseLogFilters) ([]*model.DoseLog, error)

		// History reads consumed by the dosing engine. A zero excludeID
		// excludes nothing.
		CountTakenOnDate(ctx context.Context, scheduleID uuid.UUID, day time.Time, excludeID uuid.UUID) (int, error)
		MostRecentTakenBefore(ctx context.Context, scheduleID uuid.UUID, instant time.Time, excludeID uuid.UUID) (*model.DoseLog, error)

		// Atomic runs fn inside a transaction that holds a row lock on the
		// owning schedule, serializing concurrent dose submissions for one
		// schedule. The repository passed to fn reads and writes through
		// the transaction.
		Atomic(ctx context.Context, scheduleID uuid.UUID, fn func(txRepo DoseLogRepository) error) error
	}

	OutboxRepository interface {
		Create(ctx context.Context, event *model.OutboxEvent) error
		GetPendingEventsWithLock(ctx context.Context, limit int) ([]*model.OutboxEvent, error)
		UpdateStatus(ctx context.Context, id uuid.UUID, status model.OutboxStatus, errMsg *string, retryAt *time.Time) error
		MoveToDeadLetter(ctx context.Context, event *model.OutboxEvent) error
		DeleteProcessedBefore(ctx context.Context, before time.Time) (int64, error)
	}
)
