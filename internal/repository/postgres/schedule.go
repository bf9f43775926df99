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

func (r *scheduleRepository) Create(ctx context.Context, sched *model.MedicationSchedule) error {
	query := `
		INSERT INTO medication_schedules (
			id, medication_id, start_date, end_date, dose_amount,
			dose_unit_id, frequency_type, days_interval, weekly_days,
			is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := r.db.ExecContext(ctx, query,
		sched.ID,
		sched.MedicationID,
		sched.StartDate,
		sched.EndDate,
		sched.DoseAmount,
		sched.DoseUnitID,
		sched.FrequencyType,
		sched.DaysInterval,
		sched.WeeklyDays,
		sched.IsActive,
		sched.CreatedAt,
		sched.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create schedule: %w", err)
	}
	return nil
}

func (r *scheduleRepository) Get(ctx context.Context, id uuid.UUID) (*model.MedicationSchedule, error) {
	query := `
		SELECT id, medication_id, start_date, end_date, dose_amount,
			   dose_unit_id, frequency_type, days_interval, weekly_days,
			   is_active, created_at, updated_at
		FROM medication_schedules
		WHERE id = $1
	`
	var sched model.MedicationSchedule
	err := r.db.GetContext(ctx, &sched, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get schedule: %w", err)
	}
	return &sched, nil
}

func (r *scheduleRepository) Update(ctx context.Context, sched *model.MedicationSchedule) error {
	query := `
		UPDATE medication_schedules
		SET start_date = $1, end_date = $2, dose_amount = $3,
			dose_unit_id = $4, frequency_type = $5, days_interval = $6,
			weekly_days = $7, is_active = $8, updated_at = $9
		WHERE id = $10
	`
	sched.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		sched.StartDate,
		sched.EndDate,
		sched.DoseAmount,
		sched.DoseUnitID,
		sched.FrequencyType,
		sched.DaysInterval,
		sched.WeeklyDays,
		sched.IsActive,
		sched.UpdatedAt,
		sched.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update schedule: %w", err)
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

// Delete cascades to the schedule's dose logs.
func (r *scheduleRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM dose_logs WHERE medication_schedule_id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete dose logs: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM medication_schedules WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete schedule: %w", err)
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

func (r *scheduleRepository) List(ctx context.Context, filters *model.ScheduleFilters) ([]*model.MedicationSchedule, error) {
	query := `
		SELECT id, medication_id, start_date, end_date, dose_amount,
			   dose_unit_id, frequency_type, days_interval, weekly_days,
			   is_active, created_at, updated_at
		FROM medication_schedules
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.MedicationID != uuid.Nil {
			query += fmt.Sprintf(" AND medication_id = $%d", argCount)
			args = append(args, filters.MedicationID)
			argCount++
		}
		if filters.FrequencyType != "" {
			query += fmt.Sprintf(" AND frequency_type = $%d", argCount)
			args = append(args, filters.FrequencyType)
			argCount++
		}
		if filters.ActiveOnly {
			query += " AND is_active = true"
		}
	}

	query += " ORDER BY start_date ASC"

	var scheds []*model.MedicationSchedule
	if err := r.db.SelectContext(ctx, &scheds, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list schedules: %w", err)
	}
	return scheds, nil
}

func (r *scheduleRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	result, err := r.db.ExecContext(ctx, `
		UPDATE medication_schedules SET is_active = $1, updated_at = $2 WHERE id = $3
	`, active, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set schedule active flag: %w", err)
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
