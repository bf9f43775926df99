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

func (r *doseUnitRepository) Create(ctx context.Context, unit *model.DoseUnit) error {
	query := `
		INSERT INTO dose_units (id, name, symbol, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.db.ExecContext(ctx, query,
		unit.ID,
		unit.Name,
		unit.Symbol,
		unit.CreatedAt,
		unit.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create dose unit: %w", err)
	}
	return nil
}

func (r *doseUnitRepository) Get(ctx context.Context, id uuid.UUID) (*model.DoseUnit, error) {
	query := `
		SELECT id, name, symbol, created_at, updated_at
		FROM dose_units
		WHERE id = $1
	`
	var unit model.DoseUnit
	err := r.db.GetContext(ctx, &unit, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get dose unit: %w", err)
	}
	return &unit, nil
}

func (r *doseUnitRepository) Update(ctx context.Context, unit *model.DoseUnit) error {
	query := `
		UPDATE dose_units
		SET name = $1, symbol = $2, updated_at = $3
		WHERE id = $4
	`
	unit.UpdatedAt = time.Now()

	result, err := r.db.ExecContext(ctx, query, unit.Name, unit.Symbol, unit.UpdatedAt, unit.ID)
	if err != nil {
		return fmt.Errorf("failed to update dose unit: %w", err)
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

func (r *doseUnitRepository) Delete(ctx context.Context, id uuid.UUID) error {
	var inUse bool
	err := r.db.GetContext(ctx, &inUse, `
		SELECT EXISTS (SELECT 1 FROM medication_schedules WHERE dose_unit_id = $1)
	`, id)
	if err != nil {
		return fmt.Errorf("failed to check dose unit references: %w", err)
	}
	if inUse {
		return repository.ErrUnitInUse
	}

	result, err := r.db.ExecContext(ctx, `DELETE FROM dose_units WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete dose unit: %w", err)
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

func (r *doseUnitRepository) List(ctx context.Context) ([]*model.DoseUnit, error) {
	query := `
		SELECT id, name, symbol, created_at, updated_at
		FROM dose_units
		ORDER BY name ASC
	`
	var units []*model.DoseUnit
	if err := r.db.SelectContext(ctx, &units, query); err != nil {
		return nil, fmt.Errorf("failed to list dose units: %w", err)
	}
	return units, nil
}
