package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/mongo"

	reserrors "kosbook/internal/reservations/errors"
	"kosbook/internal/reservations/repository"
	"kosbook/internal/reservations/validator"
	unitserrors "kosbook/internal/units/errors"
	"kosbook/pkg/aggregate"
	"kosbook/pkg/auth"
	"kosbook/pkg/clock"
	"kosbook/pkg/config"
	apperrors "kosbook/pkg/errors"
	"kosbook/pkg/model"
)

// expiredSweepBatch bounds one CompleteExpired pass so the sweep never holds a
// cursor over the whole collection.
const expiredSweepBatch = 500

// UnitReader is the slice of the units repository the reservation engine needs:
// existence and ownership checks.
type UnitReader interface {
	FindByID(ctx context.Context, id string) (*model.Unit, error)
}

// AvailabilityInvalidator drops cached availability for the months a
// reservation's date range touches. Every status transition that changes
// whether days are blocked must call it.
type AvailabilityInvalidator interface {
	InvalidateRange(unitID string, start, end time.Time)
}

// Notifier announces confirmed and cancelled transitions. It matches
// notifications.Notifier without importing it, so tests can stub it locally.
type Notifier interface {
	ReservationConfirmed(reservation *model.Reservation, ownerID string)
	ReservationCancelled(reservation *model.Reservation, ownerID string)
}

// UnitStats summarizes a unit's reservations for the owner dashboard.
type UnitStats struct {
	UnitID       string                           `json:"unit_id"`
	Total        int64                            `json:"total"`
	ByStatus     []aggregate.Entry[string, int64] `json:"by_status"`
	DaysByStatus []aggregate.Entry[string, int64] `json:"days_by_status"`
}

type ReservationService interface {
	Create(ctx context.Context, identity auth.Identity, unitID string, start, end time.Time) (*model.Reservation, error)
	GetByID(ctx context.Context, identity auth.Identity, id string) (*model.Reservation, error)
	GetByRequester(ctx context.Context, identity auth.Identity, limit int, offset int64) ([]*model.Reservation, int64, error)
	Confirm(ctx context.Context, identity auth.Identity, id string) (*model.Reservation, error)
	Cancel(ctx context.Context, identity auth.Identity, id string) (*model.Reservation, error)
	Complete(ctx context.Context, identity auth.Identity, id string) (*model.Reservation, error)
	CompleteExpired(ctx context.Context) (int, error)
	Purge(ctx context.Context, identity auth.Identity, id string) error
	Stats(ctx context.Context, identity auth.Identity, unitID string) (*UnitStats, error)
	HasConflict(ctx context.Context, unitID string, start, end time.Time, excludeID string) (bool, error)
}

type reservationService struct {
	repo         repository.ReservationRepository
	locks        repository.ReservationLockRepository
	units        UnitReader
	validator    *validator.ReservationValidator
	notifier     Notifier
	availability AvailabilityInvalidator
	clock        clock.Clock
	cfg          *config.Config
}

func NewReservationService(
	repo repository.ReservationRepository,
	locks repository.ReservationLockRepository,
	units UnitReader,
	validator *validator.ReservationValidator,
	notifier Notifier,
	availability AvailabilityInvalidator,
	clk clock.Clock,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:         repo,
		locks:        locks,
		units:        units,
		validator:    validator,
		notifier:     notifier,
		availability: availability,
		clock:        clk,
		cfg:          cfg,
	}
}

// Create places a pending hold on [start, end] for the unit. The check-then-
// insert runs under a per-unit advisory lock and inside a transaction, so two
// concurrent requests for overlapping ranges cannot both succeed.
func (s *reservationService) Create(ctx context.Context, identity auth.Identity, unitID string, start, end time.Time) (*model.Reservation, error) {
	start, end = model.Day(start), model.Day(end)

	if end.Before(start) {
		return nil, apperrors.InvalidRange("end_date must not be before start_date")
	}
	today := model.Day(s.clock.Now())
	if start.Before(today) {
		return nil, apperrors.InvalidRange("start_date must not be in the past")
	}

	if _, err := s.units.FindByID(ctx, unitID); err != nil {
		if errors.Is(err, unitserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Unit", unitID)
		}
		return nil, storeError("Failed to verify unit", err)
	}

	reservation := &model.Reservation{
		ID:          uuid.NewString(),
		UnitID:      unitID,
		RequesterID: identity.UserID,
		StartDate:   start,
		EndDate:     end,
		Status:      model.StatusPending,
	}

	if err := s.validator.Validate(reservation); err != nil {
		s.cfg.Log.Warn("Reservation validation failed", "error", err)
		return nil, apperrors.Validation("Reservation validation failed", map[string]any{"error": err.Error()})
	}

	lockID, err := s.acquireLock(ctx, unitID)
	if err != nil {
		return nil, err
	}
	defer s.releaseLock(lockID)

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		conflicting, err := s.repo.FindOverlapping(sessCtx, unitID, start, end, model.ActiveStatuses, "")
		if err != nil {
			return fmt.Errorf("conflict check failed: %w", err)
		}
		if len(conflicting) > 0 {
			return conflictError(conflicting)
		}
		return s.repo.Create(sessCtx, reservation)
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, apperrors.AsAppError(err)
		}
		s.cfg.Log.Error("Failed to create reservation", "unit_id", unitID, "error", err)
		return nil, storeError("Failed to create reservation", err)
	}

	s.availability.InvalidateRange(unitID, start, end)
	s.cfg.Log.Info("Reservation created",
		"id", reservation.ID,
		"unit_id", unitID,
		"requester_id", identity.UserID,
		"start_date", start.Format(model.DateLayout),
		"end_date", end.Format(model.DateLayout),
	)
	return reservation, nil
}

// GetByID returns the reservation to its requester, the unit's owner, or an
// admin. A confirmed reservation whose end date has passed is lazily moved to
// completed before it is returned.
func (s *reservationService) GetByID(ctx context.Context, identity auth.Identity, id string) (*model.Reservation, error) {
	reservation, unit, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if reservation.RequesterID != identity.UserID && unit.OwnerID != identity.UserID && !identity.IsAdmin() {
		return nil, apperrors.Forbidden("Not allowed to view this reservation")
	}

	s.lazyComplete(ctx, reservation)
	return reservation, nil
}

func (s *reservationService) GetByRequester(ctx context.Context, identity auth.Identity, limit int, offset int64) ([]*model.Reservation, int64, error) {
	count, err := s.repo.CountByRequester(ctx, identity.UserID)
	if err != nil {
		s.cfg.Log.Error("Failed to count reservations", "requester_id", identity.UserID, "error", err)
		return nil, 0, storeError("Failed to count reservations", err)
	}

	reservations, err := s.repo.FindByRequester(ctx, identity.UserID, limit, offset)
	if err != nil {
		s.cfg.Log.Error("Failed to list reservations", "requester_id", identity.UserID, "error", err)
		return nil, 0, storeError("Failed to retrieve reservations", err)
	}

	for _, reservation := range reservations {
		s.lazyComplete(ctx, reservation)
	}
	return reservations, count, nil
}

// Confirm moves a pending reservation to confirmed. Only the unit owner or an
// admin may confirm. The transition re-checks overlap against other CONFIRMED
// reservations under the unit lock: pending competitors do not block a
// confirmation, but two confirmed stays can never overlap.
func (s *reservationService) Confirm(ctx context.Context, identity auth.Identity, id string) (*model.Reservation, error) {
	reservation, unit, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if unit.OwnerID != identity.UserID && !identity.IsAdmin() {
		return nil, apperrors.Forbidden("Only the unit owner may confirm a reservation")
	}
	if !reservation.CanTransitionTo(model.StatusConfirmed) {
		return nil, apperrors.InvalidState(fmt.Sprintf("Cannot confirm a %s reservation", reservation.Status))
	}

	lockID, err := s.acquireLock(ctx, reservation.UnitID)
	if err != nil {
		return nil, err
	}
	defer s.releaseLock(lockID)

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		confirmed, err := s.repo.FindOverlapping(sessCtx, reservation.UnitID,
			reservation.StartDate, reservation.EndDate,
			[]string{model.StatusConfirmed}, reservation.ID)
		if err != nil {
			return fmt.Errorf("conflict check failed: %w", err)
		}
		if len(confirmed) > 0 {
			return conflictError(confirmed)
		}
		return s.repo.UpdateStatus(sessCtx, reservation.ID, reservation.Status, model.StatusConfirmed)
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, apperrors.AsAppError(err)
		}
		if errors.Is(err, reserrors.ErrStaleStatus) {
			return nil, staleStatusError("confirm")
		}
		s.cfg.Log.Error("Failed to confirm reservation", "id", id, "error", err)
		return nil, storeError("Failed to confirm reservation", err)
	}

	reservation.Status = model.StatusConfirmed
	s.availability.InvalidateRange(reservation.UnitID, reservation.StartDate, reservation.EndDate)
	s.notifier.ReservationConfirmed(reservation, unit.OwnerID)
	s.cfg.Log.Info("Reservation confirmed", "id", id, "unit_id", reservation.UnitID)
	return reservation, nil
}

// Cancel is available to the requester, the unit owner, and admins, from any
// non-terminal status. Cancelling frees the blocked days immediately.
func (s *reservationService) Cancel(ctx context.Context, identity auth.Identity, id string) (*model.Reservation, error) {
	reservation, unit, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if reservation.RequesterID != identity.UserID && unit.OwnerID != identity.UserID && !identity.IsAdmin() {
		return nil, apperrors.Forbidden("Not allowed to cancel this reservation")
	}
	if !reservation.CanTransitionTo(model.StatusCancelled) {
		return nil, apperrors.InvalidState(fmt.Sprintf("Cannot cancel a %s reservation", reservation.Status))
	}

	if err := s.repo.UpdateStatus(ctx, id, reservation.Status, model.StatusCancelled); err != nil {
		if errors.Is(err, reserrors.ErrStaleStatus) {
			return nil, staleStatusError("cancel")
		}
		s.cfg.Log.Error("Failed to cancel reservation", "id", id, "error", err)
		return nil, storeError("Failed to cancel reservation", err)
	}

	reservation.Status = model.StatusCancelled
	s.availability.InvalidateRange(reservation.UnitID, reservation.StartDate, reservation.EndDate)
	s.notifier.ReservationCancelled(reservation, unit.OwnerID)
	s.cfg.Log.Info("Reservation cancelled", "id", id, "unit_id", reservation.UnitID, "actor", identity.UserID)
	return reservation, nil
}

// Complete marks a confirmed reservation whose stay has ended as completed.
// Completing an already completed reservation is a no-op.
func (s *reservationService) Complete(ctx context.Context, identity auth.Identity, id string) (*model.Reservation, error) {
	reservation, unit, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if unit.OwnerID != identity.UserID && !identity.IsAdmin() {
		return nil, apperrors.Forbidden("Only the unit owner may complete a reservation")
	}

	if reservation.Status == model.StatusCompleted {
		return reservation, nil
	}
	if !reservation.CanTransitionTo(model.StatusCompleted) {
		return nil, apperrors.InvalidState(fmt.Sprintf("Cannot complete a %s reservation", reservation.Status))
	}
	today := model.Day(s.clock.Now())
	if !reservation.EndDate.Before(today) {
		return nil, apperrors.InvalidState("Cannot complete a reservation before its end date has passed")
	}

	if err := s.repo.UpdateStatus(ctx, id, reservation.Status, model.StatusCompleted); err != nil {
		if errors.Is(err, reserrors.ErrStaleStatus) {
			return nil, staleStatusError("complete")
		}
		return nil, storeError("Failed to complete reservation", err)
	}

	reservation.Status = model.StatusCompleted
	s.availability.InvalidateRange(reservation.UnitID, reservation.StartDate, reservation.EndDate)
	s.cfg.Log.Info("Reservation completed", "id", id, "unit_id", reservation.UnitID)
	return reservation, nil
}

// CompleteExpired sweeps confirmed reservations whose end date has passed and
// marks them completed. It returns how many were transitioned, and the first
// store failure so the caller can tell an empty sweep from a degraded one.
func (s *reservationService) CompleteExpired(ctx context.Context) (int, error) {
	today := model.Day(s.clock.Now())

	expired, err := s.repo.FindExpiredConfirmed(ctx, today, expiredSweepBatch)
	if err != nil {
		s.cfg.Log.Error("Failed to find expired reservations", "error", err)
		return 0, storeError("Failed to find expired reservations", err)
	}

	completed := 0
	var firstErr error
	for _, reservation := range expired {
		if err := s.repo.UpdateStatus(ctx, reservation.ID, model.StatusConfirmed, model.StatusCompleted); err != nil {
			if errors.Is(err, reserrors.ErrStaleStatus) {
				// Cancelled or already completed since the batch was read.
				continue
			}
			s.cfg.Log.Error("Failed to complete expired reservation", "id", reservation.ID, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		s.availability.InvalidateRange(reservation.UnitID, reservation.StartDate, reservation.EndDate)
		completed++
	}

	if completed > 0 {
		s.cfg.Log.Info("Expired reservations completed", "count", completed)
	}
	if firstErr != nil {
		return completed, storeError("Failed to complete some expired reservations", firstErr)
	}
	return completed, nil
}

// Purge permanently deletes a terminal reservation. Admin only; active
// reservations must be cancelled first.
func (s *reservationService) Purge(ctx context.Context, identity auth.Identity, id string) error {
	if !identity.IsAdmin() {
		return apperrors.Forbidden("Only admins may purge reservations")
	}

	reservation, _, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if !reservation.IsTerminal() {
		return apperrors.InvalidState(fmt.Sprintf("Cannot purge a %s reservation", reservation.Status))
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, reserrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Reservation", id)
		}
		return storeError("Failed to purge reservation", err)
	}

	s.cfg.Log.Info("Reservation purged", "id", id, "actor", identity.UserID)
	return nil
}

// Stats aggregates a unit's reservations by status for the owner dashboard.
func (s *reservationService) Stats(ctx context.Context, identity auth.Identity, unitID string) (*UnitStats, error) {
	unit, err := s.units.FindByID(ctx, unitID)
	if err != nil {
		if errors.Is(err, unitserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Unit", unitID)
		}
		return nil, storeError("Failed to verify unit", err)
	}
	if unit.OwnerID != identity.UserID && !identity.IsAdmin() {
		return nil, apperrors.Forbidden("Only the unit owner may view its stats")
	}

	reservations, err := s.repo.FindByUnit(ctx, unitID)
	if err != nil {
		s.cfg.Log.Error("Failed to list unit reservations", "unit_id", unitID, "error", err)
		return nil, storeError("Failed to retrieve reservations", err)
	}

	statusOf := func(r *model.Reservation) string { return r.Status }
	return &UnitStats{
		UnitID:   unitID,
		Total:    int64(len(reservations)),
		ByStatus: aggregate.CountBy(reservations, statusOf),
		DaysByStatus: aggregate.SumBy(reservations, statusOf, func(r *model.Reservation) int64 {
			return int64(r.EndDate.Sub(r.StartDate)/(24*time.Hour)) + 1
		}),
	}, nil
}

// HasConflict reports whether any active reservation for the unit overlaps
// the closed interval [start, end], excluding excludeID when non-empty.
func (s *reservationService) HasConflict(ctx context.Context, unitID string, start, end time.Time, excludeID string) (bool, error) {
	start, end = model.Day(start), model.Day(end)
	if end.Before(start) {
		return false, apperrors.InvalidRange("end_date must not be before start_date")
	}

	overlapping, err := s.repo.FindOverlapping(ctx, unitID, start, end, model.ActiveStatuses, excludeID)
	if err != nil {
		return false, storeError("Failed to check conflicts", err)
	}
	return len(overlapping) > 0, nil
}

// --- Helpers ---

// load fetches a reservation and its unit in one place so every operation
// shares the same not-found mapping and has ownership data for authorization.
func (s *reservationService) load(ctx context.Context, id string) (*model.Reservation, *model.Unit, error) {
	if id == "" {
		return nil, nil, apperrors.InvalidInput("Reservation ID cannot be empty")
	}

	reservation, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reserrors.ErrNotFound) {
			return nil, nil, apperrors.NotFoundWithID("Reservation", id)
		}
		return nil, nil, storeError("Failed to retrieve reservation", err)
	}

	unit, err := s.units.FindByID(ctx, reservation.UnitID)
	if err != nil {
		if errors.Is(err, unitserrors.ErrNotFound) {
			// The unit was deleted out from under its reservations.
			return nil, nil, apperrors.NotFoundWithID("Unit", reservation.UnitID)
		}
		return nil, nil, storeError("Failed to retrieve unit", err)
	}

	return reservation, unit, nil
}

// lazyComplete transitions a confirmed reservation whose stay has ended. Best
// effort: a store failure here only delays completion until the next read or
// sweep.
func (s *reservationService) lazyComplete(ctx context.Context, reservation *model.Reservation) {
	if reservation.Status != model.StatusConfirmed {
		return
	}
	today := model.Day(s.clock.Now())
	if !reservation.EndDate.Before(today) {
		return
	}

	if err := s.repo.UpdateStatus(ctx, reservation.ID, model.StatusConfirmed, model.StatusCompleted); err != nil {
		if !errors.Is(err, reserrors.ErrStaleStatus) {
			s.cfg.Log.Warn("Failed to lazily complete reservation", "id", reservation.ID, "error", err)
		}
		return
	}
	reservation.Status = model.StatusCompleted
	s.availability.InvalidateRange(reservation.UnitID, reservation.StartDate, reservation.EndDate)
}

func lockID(unitID string) string {
	return "unit_lock_" + unitID
}

func (s *reservationService) acquireLock(ctx context.Context, unitID string) (string, error) {
	id := lockID(unitID)
	lock := &model.ReservationLock{
		ID:        id,
		ExpiresAt: s.clock.Now().Add(s.cfg.ReservationLockTTL),
	}

	if _, err := s.locks.Create(ctx, lock); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			s.cfg.Log.Warn("Unit lock held by concurrent request", "unit_id", unitID)
			return "", apperrors.Conflict("Unit is locked by a concurrent reservation request")
		}
		return "", storeError("Failed to acquire unit lock", err)
	}
	return id, nil
}

// releaseLock uses a fresh context so the lock is still released when the
// request context is already cancelled.
func (s *reservationService) releaseLock(id string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
	defer cancel()

	if err := s.locks.Delete(ctx, id); err != nil {
		s.cfg.Log.Warn("Failed to release unit lock", "lock_id", id, "error", err)
	}
}

// staleStatusError maps a lost compare-and-swap on the status field: the
// reservation was transitioned by a concurrent request after this one loaded
// it, so the attempted transition no longer applies.
func staleStatusError(action string) *apperrors.AppError {
	return apperrors.InvalidState(fmt.Sprintf("Cannot %s the reservation: its status was changed by a concurrent request", action))
}

func conflictError(conflicting []*model.Reservation) *apperrors.AppError {
	ids := make([]string, 0, len(conflicting))
	for _, r := range conflicting {
		ids = append(ids, r.ID)
	}
	return apperrors.Conflict("Requested dates overlap an existing reservation").
		WithDetails(map[string]any{"conflicting_ids": ids})
}

// storeError surfaces transient store failures as retryable, everything else
// as internal.
func storeError(message string, err error) *apperrors.AppError {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Unavailable(message, err)
	}
	return apperrors.Internal(message, err)
}
