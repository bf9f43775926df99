package model

// DoseUnit is static reference data (e.g. mg, mL, capsules). Units are
// referenced by schedules for display; a unit in use cannot be deleted.
type DoseUnit struct {
	Base
	Name   string `db:"name" json:"name"`
	Symbol string `db:"symbol" json:"symbol"`
}

type CreateDoseUnitRequest struct {
	Name   string `json:"name" binding:"required,max=50"`
	Symbol string `json:"symbol" binding:"required,max=10"`
}

type UpdateDoseUnitRequest struct {
	Name   *string `json:"name" binding:"omitempty,max=50"`
	Symbol *string `json:"symbol" binding:"omitempty,max=10"`
}
