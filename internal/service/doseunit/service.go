package doseunit

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/jwalitptl/medtrack-api/internal/model"
	"github.com/jwalitptl/medtrack-api/internal/repository"
)

const listCacheKey = "dose_units:all"

// Service manages dose units. Units are near-static reference data read on
// every schedule render, so reads go through an in-process cache that is
// invalidated on any write.
type Service struct {
	repo  repository.DoseUnitRepository
	cache *cache.Cache
}

func NewService(repo repository.DoseUnitRepository) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(15*time.Minute, 30*time.Minute),
	}
}

func (s *Service) CreateDoseUnit(ctx context.Context, req *model.CreateDoseUnitRequest) (*model.DoseUnit, error) {
	unit := &model.DoseUnit{
		Name:   req.Name,
		Symbol: req.Symbol,
	}
	unit.ID = uuid.New()
	unit.CreatedAt = time.Now()
	unit.UpdatedAt = unit.CreatedAt

	if err := s.repo.Create(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to create dose unit: %w", err)
	}

	s.cache.Delete(listCacheKey)
	return unit, nil
}

func (s *Service) GetDoseUnit(ctx context.Context, id uuid.UUID) (*model.DoseUnit, error) {
	if cached, ok := s.cache.Get(id.String()); ok {
		return cached.(*model.DoseUnit), nil
	}

	unit, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(id.String(), unit)
	return unit, nil
}

func (s *Service) ListDoseUnits(ctx context.Context) ([]*model.DoseUnit, error) {
	if cached, ok := s.cache.Get(listCacheKey); ok {
		return cached.([]*model.DoseUnit), nil
	}

	units, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	s.cache.SetDefault(listCacheKey, units)
	return units, nil
}

func (s *Service) UpdateDoseUnit(ctx context.Context, id uuid.UUID, req *model.UpdateDoseUnitRequest) (*model.DoseUnit, error) {
	unit, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		unit.Name = *req.Name
	}
	if req.Symbol != nil {
		unit.Symbol = *req.Symbol
	}

	if err := s.repo.Update(ctx, unit); err != nil {
		return nil, fmt.Errorf("failed to update dose unit: %w", err)
	}

	s.cache.Delete(id.String())
	s.cache.Delete(listCacheKey)
	return unit, nil
}

// DeleteDoseUnit fails with repository.ErrUnitInUse while any schedule still
// references the unit.
func (s *Service) DeleteDoseUnit(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.cache.Delete(id.String())
	s.cache.Delete(listCacheKey)
	return nil
}
