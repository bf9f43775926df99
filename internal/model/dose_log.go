package model

import (
	"time"

	"github.com/google/uuid"
)

type DoseLogStatus string

const (
	DoseLogStatusPending DoseLogStatus = "pending"
	DoseLogStatusTaken   DoseLogStatus = "taken"
	DoseLogStatusMissed  DoseLogStatus = "missed"
	DoseLogStatusSkipped DoseLogStatus = "skipped"
)

func (s DoseLogStatus) Valid() bool {
	switch s {
	case DoseLogStatusPending, DoseLogStatusTaken, DoseLogStatusMissed, DoseLogStatusSkipped:
		return true
	}
	return false
}

// DoseLog is one concrete dose event tied to a schedule: taken, skipped,
// or a scheduled occurrence that is pending or was missed.
type DoseLog struct {
	Base
	MedicationScheduleID uuid.UUID     `db:"medication_schedule_id" json:"medication_schedule_id"`
	Status               DoseLogStatus `db:"status" json:"status"`
	ScheduledDatetime    *time.Time    `db:"scheduled_datetime" json:"scheduled_datetime,omitempty"`
	TakenDatetime        *time.Time    `db:"taken_datetime" json:"taken_datetime,omitempty"`
	DoseTaken            float64       `db:"dose_taken" json:"dose_taken"`
	Reason               string        `db:"reason" json:"reason,omitempty"`
}

type CreateDoseLogRequest struct {
	MedicationScheduleID uuid.UUID  `json:"medication_schedule_id" binding:"required"`
	Status               string     `json:"status" binding:"omitempty,oneof=pending taken missed skipped"`
	ScheduledDatetime    *time.Time `json:"scheduled_datetime"`
	TakenDatetime        *time.Time `json:"taken_datetime"`
	DoseTaken            float64    `json:"dose_taken" binding:"omitempty,gte=0"`
	Reason               string     `json:"reason"`
}

// UpdateDoseLogRequest covers status/reason corrections. The updated record
// is re-validated against history with its final field values.
type UpdateDoseLogRequest struct {
	Status            *string    `json:"status" binding:"omitempty,oneof=pending taken missed skipped"`
	ScheduledDatetime *time.Time `json:"scheduled_datetime"`
	TakenDatetime     *time.Time `json:"taken_datetime"`
	DoseTaken         *float64   `json:"dose_taken" binding:"omitempty,gte=0"`
	Reason            *string    `json:"reason"`
}

type DoseLogFilters struct {
	MedicationScheduleID uuid.UUID
	Status               DoseLogStatus
	TakenFrom            *time.Time
	TakenTo              *time.Time
}
