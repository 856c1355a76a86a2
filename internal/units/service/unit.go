package service

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"

	unitserrors "kosbook/internal/units/errors"
	"kosbook/internal/units/repository"
	"kosbook/internal/units/validator"
	"kosbook/pkg/auth"
	"kosbook/pkg/config"
	apperrors "kosbook/pkg/errors"
	"kosbook/pkg/model"
	"kosbook/pkg/sanitizer"
)

type UnitService interface {
	Create(ctx context.Context, identity auth.Identity, unit *model.Unit) error
	GetByID(ctx context.Context, id string) (*model.Unit, error)
	GetAll(ctx context.Context, filter *model.UnitFilter, limit int, offset int64) ([]*model.Unit, int64, error)
	Update(ctx context.Context, identity auth.Identity, id string, updates *model.UnitUpdate) error
	Delete(ctx context.Context, identity auth.Identity, id string) error
}

type unitService struct {
	repo      repository.UnitRepository
	validator *validator.UnitValidator
	cfg       *config.Config
}

func NewUnitService(repo repository.UnitRepository, validator *validator.UnitValidator, cfg *config.Config) UnitService {
	return &unitService{
		repo:      repo,
		validator: validator,
		cfg:       cfg,
	}
}

func (s *unitService) Create(ctx context.Context, identity auth.Identity, unit *model.Unit) error {
	unit.ID = uuid.NewString()
	unit.OwnerID = identity.UserID
	s.sanitize(unit)

	if err := s.validator.Validate(unit); err != nil {
		s.cfg.Log.Warn("Unit validation failed", "error", err)
		return apperrors.Validation("Unit validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Create(ctx, unit); err != nil {
		s.cfg.Log.Error("Failed to create unit", "error", err)
		return storeError("Failed to create unit", err)
	}

	s.cfg.Log.Info("Unit created successfully",
		"id", unit.ID,
		"owner_id", unit.OwnerID,
		"city", unit.City,
	)
	return nil
}

func (s *unitService) GetByID(ctx context.Context, id string) (*model.Unit, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Unit ID cannot be empty")
	}

	unit, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, unitserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Unit", id)
		}
		return nil, storeError("Failed to retrieve unit", err)
	}

	return unit, nil
}

func (s *unitService) GetAll(ctx context.Context, filter *model.UnitFilter, limit int, offset int64) ([]*model.Unit, int64, error) {
	if filter != nil && filter.City != "" {
		filter.City = sanitizer.NormalizeCity(filter.City)
	}

	var count int64
	var units []*model.Unit
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx, filter)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count units", "error", errCount)
			errCount = storeError("Failed to count units", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		units, errFind = s.repo.FindAll(ctx, filter, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list units", "error", errFind)
			errFind = storeError("Failed to retrieve units", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return units, count, nil
}

func (s *unitService) Update(ctx context.Context, identity auth.Identity, id string, updates *model.UnitUpdate) error {
	if id == "" {
		return apperrors.InvalidInput("Unit ID cannot be empty")
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if existing.OwnerID != identity.UserID {
		return apperrors.Forbidden("Only the unit owner may modify it")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Unit update validation failed", "id", id, "error", err)
		return apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged := s.mergeUpdates(existing, updates)
	s.sanitize(merged)
	if err := s.validator.Validate(merged); err != nil {
		return apperrors.Validation("Unit validation failed", map[string]any{"error": err.Error()})
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, unitserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Unit", id)
		}
		s.cfg.Log.Error("Failed to update unit", "id", id, "error", err)
		return storeError("Failed to update unit", err)
	}

	s.cfg.Log.Info("Unit updated successfully", "id", id)
	return nil
}

func (s *unitService) Delete(ctx context.Context, identity auth.Identity, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Unit ID cannot be empty")
	}

	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}

	if existing.OwnerID != identity.UserID && !identity.IsAdmin() {
		return apperrors.Forbidden("Only the unit owner or an admin may delete it")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, unitserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Unit", id)
		}
		return storeError("Failed to delete unit", err)
	}

	s.cfg.Log.Info("Unit deleted successfully", "id", id, "actor", identity.UserID)
	return nil
}

// --- Helpers ---

func (s *unitService) sanitize(u *model.Unit) {
	u.Name = sanitizer.CleanText(u.Name)
	u.Address = sanitizer.CleanText(u.Address)
	u.City = sanitizer.NormalizeCity(u.City)
}

func (s *unitService) mergeUpdates(existing *model.Unit, updates *model.UnitUpdate) *model.Unit {
	merged := *existing

	if updates.Name != "" {
		merged.Name = updates.Name
	}
	if updates.Address != "" {
		merged.Address = updates.Address
	}
	if updates.City != "" {
		merged.City = updates.City
	}
	if updates.PricePerMonth != nil {
		merged.PricePerMonth = *updates.PricePerMonth
	}
	if updates.GenderPolicy != "" {
		merged.GenderPolicy = updates.GenderPolicy
	}
	if updates.RoomCount != nil {
		merged.RoomCount = *updates.RoomCount
	}

	return &merged
}

// storeError surfaces transient store failures as retryable, everything else
// as internal.
func storeError(message string, err error) *apperrors.AppError {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Unavailable(message, err)
	}
	return apperrors.Internal(message, err)
}
