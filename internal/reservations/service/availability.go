package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/karlseguin/ccache/v3"

	"kosbook/internal/reservations/repository"
	unitserrors "kosbook/internal/units/errors"
	"kosbook/pkg/config"
	apperrors "kosbook/pkg/errors"
	"kosbook/pkg/model"
)

// AvailabilityService serves the per-month availability calendar. Responses
// are cached briefly: availability is read far more often than it changes, and
// every status transition invalidates the months it touches.
type AvailabilityService interface {
	GetMonthAvailability(ctx context.Context, unitID string, year int, month time.Month) (*model.MonthAvailability, error)
	InvalidateRange(unitID string, start, end time.Time)
}

type availabilityService struct {
	repo  repository.ReservationRepository
	units UnitReader
	cache *ccache.Cache[*model.MonthAvailability]
	cfg   *config.Config
}

func NewAvailabilityService(repo repository.ReservationRepository, units UnitReader, cfg *config.Config) AvailabilityService {
	return &availabilityService{
		repo:  repo,
		units: units,
		cache: ccache.New(ccache.Configure[*model.MonthAvailability]().MaxSize(cfg.AvailabilityCacheSize)),
		cfg:   cfg,
	}
}

func (s *availabilityService) GetMonthAvailability(ctx context.Context, unitID string, year int, month time.Month) (*model.MonthAvailability, error) {
	// The existence check runs on every request, cached calendar or not.
	// Unit deletion happens in another process, so a cached month would
	// otherwise keep serving a deleted unit until its TTL lapsed.
	if _, err := s.units.FindByID(ctx, unitID); err != nil {
		if errors.Is(err, unitserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Unit", unitID)
		}
		return nil, storeError("Failed to verify unit", err)
	}

	key := cacheKey(unitID, year, month)
	if item := s.cache.Get(key); item != nil && !item.Expired() {
		return item.Value(), nil
	}

	first, last := model.MonthBounds(year, month)
	active, err := s.repo.FindOverlapping(ctx, unitID, first, last, model.ActiveStatuses, "")
	if err != nil {
		s.cfg.Log.Error("Failed to load reservations for availability",
			"unit_id", unitID, "year", year, "month", int(month), "error", err)
		return nil, storeError("Failed to compute availability", err)
	}

	availability := model.BuildMonthAvailability(unitID, year, month, active)
	s.cache.Set(key, availability, s.cfg.AvailabilityCacheTTL)
	return availability, nil
}

// InvalidateRange drops the cached calendar of every month the closed interval
// [start, end] touches.
func (s *availabilityService) InvalidateRange(unitID string, start, end time.Time) {
	cursor := time.Date(start.Year(), start.Month(), 1, 0, 0, 0, 0, time.UTC)
	for !cursor.After(end) {
		s.cache.Delete(cacheKey(unitID, cursor.Year(), cursor.Month()))
		cursor = cursor.AddDate(0, 1, 0)
	}
}

func cacheKey(unitID string, year int, month time.Month) string {
	return fmt.Sprintf("%s|%04d-%02d", unitID, year, month)
}
