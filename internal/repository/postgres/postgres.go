package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/medtrack-api/internal/repository"
)

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx so the dose log
// repository can run its history queries inside or outside a transaction.
type queryer interface {
	sqlx.ExtContext
	GetContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
	SelectContext(ctx context.Context, dest interface{}, query string, args ...interface{}) error
}

type medicationRepository struct {
	db *sqlx.DB
}

type doseUnitRepository struct {
	db *sqlx.DB
}

type scheduleRepository struct {
	db *sqlx.DB
}

type doseLogRepository struct {
	db   queryer
	pool *sqlx.DB
}

type outboxRepository struct {
	db *sqlx.DB
}

func NewMedicationRepository(db *sqlx.DB) repository.MedicationRepository {
	return &medicationRepository{db: db}
}

func NewDoseUnitRepository(db *sqlx.DB) repository.DoseUnitRepository {
	return &doseUnitRepository{db: db}
}

func NewScheduleRepository(db *sqlx.DB) repository.ScheduleRepository {
	return &scheduleRepository{db: db}
}

func NewDoseLogRepository(db *sqlx.DB) repository.DoseLogRepository {
	return &doseLogRepository{db: db, pool: db}
}

func NewOutboxRepository(db *sqlx.DB) repository.OutboxRepository {
	return &outboxRepository{db: db}
}
