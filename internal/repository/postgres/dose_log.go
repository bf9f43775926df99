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

func (r *doseLogRepository) Create(ctx context.Context, log *model.DoseLog) error {
	query := `
		INSERT INTO dose_logs (
			id, medication_schedule_id, status, scheduled_datetime,
			taken_datetime, dose_taken, reason, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.MedicationScheduleID,
		log.Status,
		log.ScheduledDatetime,
		log.TakenDatetime,
		log.DoseTaken,
		log.Reason,
		log.CreatedAt,
		log.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create dose log: %w", err)
	}
	return nil
}

func (r *doseLogRepository) Get(ctx context.Context, id uuid.UUID) (*model.DoseLog, error) {
	query := `
		SELECT id, medication_schedule_id, status, scheduled_datetime,
			   taken_datetime, dose_taken, reason, created_at, updated_at
		FROM dose_logs
		WHERE id = $1
	`
	var log model.DoseLog
	err := r.db.GetContext(ctx, &log, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dose log: %w", err)
	}
	return &log, nil
}

func (r *doseLogRepository) Update(ctx context.Context, log *model.DoseLog) error {
	query := `
		UPDATE dose_logs
		SET status = $1, scheduled_datetime = $2, taken_datetime = $3,
			dose_taken = $4, reason = $5, updated_at = $6
		WHERE id = $7
	`
	log.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query,
		log.Status,
		log.ScheduledDatetime,
		log.TakenDatetime,
		log.DoseTaken,
		log.Reason,
		log.UpdatedAt,
		log.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update dose log: %w", err)
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

func (r *doseLogRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM dose_logs WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dose log: %w", err)
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

func (r *doseLogRepository) List(ctx context.Context, filters *model.DoseLogFilters) ([]*model.DoseLog, error) {
	query := `
		SELECT id, medication_schedule_id, status, scheduled_datetime,
			   taken_datetime, dose_taken, reason, created_at, updated_at
		FROM dose_logs
		WHERE 1=1
	`
	args := []interface{}{}
	argCount := 1

	if filters != nil {
		if filters.MedicationScheduleID != uuid.Nil {
			query += fmt.Sprintf(" AND medication_schedule_id = $%d", argCount)
			args = append(args, filters.MedicationScheduleID)
			argCount++
		}
		if filters.Status != "" {
			query += fmt.Sprintf(" AND status = $%d", argCount)
			args = append(args, filters.Status)
			argCount++
		}
		if filters.TakenFrom != nil {
			query += fmt.Sprintf(" AND taken_datetime >= $%d", argCount)
			args = append(args, *filters.TakenFrom)
			argCount++
		}
		if filters.TakenTo != nil {
			query += fmt.Sprintf(" AND taken_datetime < $%d", argCount)
			args = append(args, *filters.TakenTo)
			argCount++
		}
	}

	query += " ORDER BY COALESCE(taken_datetime, scheduled_datetime) DESC"

	var logs []*model.DoseLog
	if err := r.db.SelectContext(ctx, &logs, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list dose logs: %w", err)
	}
	return logs, nil
}

// CountTakenOnDate counts logs with taken_datetime inside the 24h window
// starting at day (midnight in the validation timezone). Status is not
// filtered. A uuid.Nil excludeID matches no row.
func (r *doseLogRepository) CountTakenOnDate(ctx context.Context, scheduleID uuid.UUID, day time.Time, excludeID uuid.UUID) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM dose_logs
		WHERE medication_schedule_id = $1
		AND taken_datetime >= $2
		AND taken_datetime < $3
		AND id != $4
	`
	var n int
	err := r.db.GetContext(ctx, &n, query, scheduleID, day, day.Add(24*time.Hour), excludeID)
	if err != nil {
		return 0, fmt.Errorf("failed to count doses on date: %w", err)
	}
	return n, nil
}

func (r *doseLogRepository) MostRecentTakenBefore(ctx context.Context, scheduleID uuid.UUID, instant time.Time, excludeID uuid.UUID) (*model.DoseLog, error) {
	query := `
		SELECT id, medication_schedule_id, status, scheduled_datetime,
			   taken_datetime, dose_taken, reason, created_at, updated_at
		FROM dose_logs
		WHERE medication_schedule_id = $1
		AND status = 'taken'
		AND taken_datetime < $2
		AND id != $3
		ORDER BY taken_datetime DESC
		LIMIT 1
	`
	var log model.DoseLog
	err := r.db.GetContext(ctx, &log, query, scheduleID, instant, excludeID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get most recent dose: %w", err)
	}
	return &log, nil
}

// Atomic locks the owning schedule row for the duration of fn, so the
// read-count-then-insert sequence cannot interleave with another writer on
// the same schedule.
func (r *doseLogRepository) Atomic(ctx context.Context, scheduleID uuid.UUID, fn func(txRepo repository.DoseLogRepository) error) error {
	if r.pool == nil {
		return fmt.Errorf("nested transactions are not supported")
	}

	tx, err := r.pool.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var locked uuid.UUID
	err = tx.GetContext(ctx, &locked, `SELECT id FROM medication_schedules WHERE id = $1 FOR UPDATE`, scheduleID)
	if errors.Is(err, sql.ErrNoRows) {
		return repository.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock schedule: %w", err)
	}

	if err := fn(&doseLogRepository{db: tx}); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
