package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/medtrack-api/internal/model"
	"github.com/jwalitptl/medtrack-api/internal/repository"
)

func (r *medicationRepository) Create(ctx context.Context, med *model.Medication) error {
	query := `
		INSERT INTO medications (
			id, prescription_name, generic_name, as_needed,
			max_daily_doses, dose_period_hours, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.db.ExecContext(ctx, query,
		med.ID,
		med.PrescriptionName,
		med.GenericName,
		med.AsNeeded,
		med.MaxDailyDoses,
		med.DosePeriodHours,
		med.CreatedAt,
		med.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create medication: %w", err)
	}
	return nil
}

func (r *medicationRepository) Get(ctx context.Context, id uuid.UUID) (*model.Medication, error) {
	query := `
		SELECT id, prescription_name, generic_name, as_needed,
			   max_daily_doses, dose_period_hours, created_at, updated_at
		FROM medications
		WHERE id = $1
	`
	var med model.Medication
	err := r.db.GetContext(ctx, &med, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get medication: %w", err)
	}
	return &med, nil
}

func (r *medicationRepository) Update(ctx context.Context, med *model.Medication) error {
	query := `
		UPDATE medications
		SET prescription_name = $1, generic_name = $2, as_needed = $3,
			max_daily_doses = $4, dose_period_hours = $5, updated_at = $6
		WHERE id = $7
	`
	med.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		med.PrescriptionName,
		med.GenericName,
		med.AsNeeded,
		med.MaxDailyDoses,
		med.DosePeriodHours,
		med.UpdatedAt,
		med.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update medication: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

// Delete cascades through the medication's schedules and their logs.
func (r *medicationRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM dose_logs
		WHERE medication_schedule_id IN (
			SELECT id FROM medication_schedules WHERE medication_id = $1
		)
	`, id); err != nil {
		return fmt.Errorf("failed to delete dose logs: %w", err)
	}

	if _, err := tx.ExecContext(ctx, `
		DELETE FROM medication_schedules WHERE medication_id = $1
	`, id); err != nil {
		return fmt.Errorf("failed to delete schedules: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM medications WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete medication: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func (r *medicationRepository) List(ctx context.Context, filters *model.MedicationFilters) ([]*model.Medication, error) {
	query := `
		SELECT id, prescription_name, generic_name, as_needed,
			   max_daily_doses, dose_period_hours, created_at, updated_at
		FROM medications
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.SearchTerm != "" {
			query += fmt.Sprintf(" AND (prescription_name ILIKE $%d OR generic_name ILIKE $%d)", argCount, argCount)
			args = append(args, "%"+filters.SearchTerm+"%")
			argCount++
		}
		if filters.AsNeeded != nil {
			query += fmt.Sprintf(" AND as_needed = $%d", argCount)
			args = append(args, *filters.AsNeeded)
			argCount++
		}
	}

	query += " ORDER BY prescription_name ASC"

	var meds []*model.Medication
	if err := r.db.SelectContext(ctx, &meds, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}
	return meds, nil
}
