package model

// Medication is a drug in the patient's catalog. Scheduled medications
// follow a calendar pattern; as-needed medications carry a safety envelope
// (max doses per day, minimum hours between doses) instead.
type Medication struct {
	Base
	PrescriptionName string `db:"prescription_name" json:"prescription_name"`
	GenericName      string `db:"generic_name" json:"generic_name"`
	AsNeeded         bool   `db:"as_needed" json:"as_needed"`
	MaxDailyDoses    *int   `db:"max_daily_doses" json:"max_daily_doses,omitempty"`
	DosePeriodHours  *int   `db:"dose_period_hours" json:"dose_period_hours,omitempty"`
}

type CreateMedicationRequest struct {
	PrescriptionName string `json:"prescription_name" binding:"required,max=255"`
	GenericName      string `json:"generic_name" binding:"required,max=255"`
	AsNeeded         bool   `json:"as_needed"`
	MaxDailyDoses    *int   `json:"max_daily_doses"`
	DosePeriodHours  *int   `json:"dose_period_hours"`
}

type UpdateMedicationRequest struct {
	PrescriptionName *string `json:"prescription_name" binding:"omitempty,max=255"`
	GenericName      *string `json:"generic_name" binding:"omitempty,max=255"`
	AsNeeded         *bool   `json:"as_needed"`
	MaxDailyDoses    *int    `json:"max_daily_doses"`
	DosePeriodHours  *int    `json:"dose_period_hours"`
}

type MedicationFilters struct {
	SearchTerm string `form:"search"`
	AsNeeded   *bool  `form:"as_needed"`
}
