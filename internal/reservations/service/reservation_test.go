package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo"

	reserrors "kosbook/internal/reservations/errors"
	"kosbook/internal/reservations/repository"
	"kosbook/internal/reservations/validator"
	unitserrors "kosbook/internal/units/errors"
	"kosbook/pkg/auth"
	"kosbook/pkg/clock"
	"kosbook/pkg/config"
	mongotx "kosbook/pkg/db/mongo"
	apperrors "kosbook/pkg/errors"
	"kosbook/pkg/logger"
	"kosbook/pkg/model"
)

// --- In-memory fakes ---

type memReservationRepo struct {
	reservations map[string]*model.Reservation
}

func newMemReservationRepo() *memReservationRepo {
	return &memReservationRepo{reservations: make(map[string]*model.Reservation)}
}

func (m *memReservationRepo) Create(_ context.Context, r *model.Reservation) error {
	clone := *r
	m.reservations[r.ID] = &clone
	return nil
}

func (m *memReservationRepo) FindByID(_ context.Context, id string) (*model.Reservation, error) {
	r, ok := m.reservations[id]
	if !ok {
		return nil, reserrors.ErrNotFound
	}
	clone := *r
	return &clone, nil
}

func (m *memReservationRepo) FindOverlapping(_ context.Context, unitID string, start, end time.Time, statuses []string, excludeID string) ([]*model.Reservation, error) {
	var out []*model.Reservation
	for _, r := range m.reservations {
		if r.UnitID != unitID || r.ID == excludeID {
			continue
		}
		if !containsStatus(statuses, r.Status) {
			continue
		}
		if model.DaysOverlap(r.StartDate, r.EndDate, start, end) {
			clone := *r
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memReservationRepo) FindByUnit(_ context.Context, unitID string) ([]*model.Reservation, error) {
	var out []*model.Reservation
	for _, r := range m.reservations {
		if r.UnitID == unitID {
			clone := *r
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memReservationRepo) FindByRequester(_ context.Context, requesterID string, _ int, _ int64) ([]*model.Reservation, error) {
	var out []*model.Reservation
	for _, r := range m.reservations {
		if r.RequesterID == requesterID {
			clone := *r
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memReservationRepo) CountByRequester(_ context.Context, requesterID string) (int64, error) {
	var count int64
	for _, r := range m.reservations {
		if r.RequesterID == requesterID {
			count++
		}
	}
	return count, nil
}

func (m *memReservationRepo) FindExpiredConfirmed(_ context.Context, before time.Time, limit int) ([]*model.Reservation, error) {
	var out []*model.Reservation
	for _, r := range m.reservations {
		if r.Status == model.StatusConfirmed && r.EndDate.Before(before) {
			clone := *r
			out = append(out, &clone)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *memReservationRepo) UpdateStatus(_ context.Context, id string, from, to string) error {
	r, ok := m.reservations[id]
	if !ok || r.Status != from {
		return reserrors.ErrStaleStatus
	}
	r.Status = to
	return nil
}

func (m *memReservationRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.reservations[id]; !ok {
		return reserrors.ErrNotFound
	}
	delete(m.reservations, id)
	return nil
}

func (m *memReservationRepo) ExecuteTransaction(_ context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

func containsStatus(statuses []string, status string) bool {
	for _, s := range statuses {
		if s == status {
			return true
		}
	}
	return false
}

type memLockRepo struct {
	locks map[string]*model.ReservationLock
}

func newMemLockRepo() *memLockRepo {
	return &memLockRepo{locks: make(map[string]*model.ReservationLock)}
}

func (m *memLockRepo) Create(_ context.Context, lock *model.ReservationLock) (*model.ReservationLock, error) {
	if _, held := m.locks[lock.ID]; held {
		return nil, mongo.WriteException{WriteErrors: []mongo.WriteError{{Code: 11000}}}
	}
	m.locks[lock.ID] = lock
	return lock, nil
}

func (m *memLockRepo) Delete(_ context.Context, lockID string) error {
	delete(m.locks, lockID)
	return nil
}

type memUnitReader struct {
	units map[string]*model.Unit
}

func (m *memUnitReader) FindByID(_ context.Context, id string) (*model.Unit, error) {
	u, ok := m.units[id]
	if !ok {
		return nil, unitserrors.ErrNotFound
	}
	return u, nil
}

type recordingNotifier struct {
	confirmed []string
	cancelled []string
}

func (n *recordingNotifier) ReservationConfirmed(r *model.Reservation, _ string) {
	n.confirmed = append(n.confirmed, r.ID)
}

func (n *recordingNotifier) ReservationCancelled(r *model.Reservation, _ string) {
	n.cancelled = append(n.cancelled, r.ID)
}

type recordingInvalidator struct {
	calls int
}

func (i *recordingInvalidator) InvalidateRange(string, time.Time, time.Time) {
	i.calls++
}

// --- Fixture ---

type fixture struct {
	svc         ReservationService
	repo        *memReservationRepo
	locks       *memLockRepo
	units       *memUnitReader
	notifier    *recordingNotifier
	invalidator *recordingInvalidator
}

const (
	testUnitID  = "0b6a5e3e-8a3f-4e5b-9c2d-1f4a7b8c9d0e"
	testOwnerID = "owner-1"
)

var (
	tenant   = auth.Identity{UserID: "tenant-1", Role: auth.RoleTenant}
	tenant2  = auth.Identity{UserID: "tenant-2", Role: auth.RoleTenant}
	owner    = auth.Identity{UserID: testOwnerID, Role: auth.RoleOwner}
	admin    = auth.Identity{UserID: "admin-1", Role: auth.RoleAdmin}
	stranger = auth.Identity{UserID: "stranger-1", Role: auth.RoleTenant}
)

func newFixture(t *testing.T) *fixture {
	t.Helper()

	f := &fixture{
		repo:        newMemReservationRepo(),
		locks:       newMemLockRepo(),
		units:       &memUnitReader{units: map[string]*model.Unit{testUnitID: {ID: testUnitID, OwnerID: testOwnerID}}},
		notifier:    &recordingNotifier{},
		invalidator: &recordingInvalidator{},
	}
	f.svc = f.service(f.repo)
	return f
}

// service wires a ReservationService around repo, sharing the fixture's other
// fakes. Tests that interleave a competing write mid-operation wrap f.repo and
// rebuild the service around the wrapper. The clock is frozen at 2024-06-01.
func (f *fixture) service(repo repository.ReservationRepository) ReservationService {
	cfg := &config.Config{
		Log:                logger.Discard(),
		ReservationLockTTL: 10 * time.Second,
		WriteTimeout:       time.Second,
		ReadTimeout:        time.Second,
	}
	return NewReservationService(
		repo,
		f.locks,
		f.units,
		validator.NewReservationValidator(logger.Discard()),
		f.notifier,
		f.invalidator,
		clock.Fixed(time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC)),
		cfg,
	)
}

// raceReservationRepo wraps the in-memory repo to run a competing write right
// before a status update, and to fail updates for chosen reservations.
type raceReservationRepo struct {
	*memReservationRepo
	beforeStatusUpdate func()
	failStatusFor      map[string]error
}

func (r *raceReservationRepo) UpdateStatus(ctx context.Context, id string, from, to string) error {
	if r.beforeStatusUpdate != nil {
		hook := r.beforeStatusUpdate
		r.beforeStatusUpdate = nil
		hook()
	}
	if err, ok := r.failStatusFor[id]; ok {
		return err
	}
	return r.memReservationRepo.UpdateStatus(ctx, id, from, to)
}

func day(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := model.ParseDay(s)
	require.NoError(t, err)
	return d
}

func (f *fixture) seed(t *testing.T, requesterID, status, start, end string) *model.Reservation {
	t.Helper()
	r := &model.Reservation{
		ID:          uuid.NewString(),
		UnitID:      testUnitID,
		RequesterID: requesterID,
		StartDate:   day(t, start),
		EndDate:     day(t, end),
		Status:      status,
	}
	f.repo.reservations[r.ID] = r
	return r
}

// --- Create ---

func TestCreate_Success(t *testing.T) {
	f := newFixture(t)

	r, err := f.svc.Create(context.Background(), tenant, testUnitID, day(t, "2024-06-10"), day(t, "2024-06-15"))
	require.NoError(t, err)

	assert.Equal(t, model.StatusPending, r.Status)
	assert.Equal(t, tenant.UserID, r.RequesterID)
	assert.NotEmpty(t, r.ID)
	assert.Empty(t, f.locks.locks, "lock should be released")
	assert.Equal(t, 1, f.invalidator.calls)
}

func TestCreate_SingleDay(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), tenant, testUnitID, day(t, "2024-06-10"), day(t, "2024-06-10"))
	require.NoError(t, err)
}

func TestCreate_SharedBoundaryDayConflicts(t *testing.T) {
	f := newFixture(t)
	f.seed(t, tenant.UserID, model.StatusPending, "2024-06-10", "2024-06-15")

	// The end day is occupied: a stay starting on it overlaps.
	_, err := f.svc.Create(context.Background(), tenant2, testUnitID, day(t, "2024-06-15"), day(t, "2024-06-20"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	// The day after is free.
	r, err := f.svc.Create(context.Background(), tenant2, testUnitID, day(t, "2024-06-16"), day(t, "2024-06-20"))
	require.NoError(t, err)
	assert.Equal(t, model.StatusPending, r.Status)
}

func TestCreate_IgnoresInactiveReservations(t *testing.T) {
	f := newFixture(t)
	f.seed(t, tenant.UserID, model.StatusCancelled, "2024-06-10", "2024-06-15")
	f.seed(t, tenant.UserID, model.StatusCompleted, "2024-06-12", "2024-06-18")

	_, err := f.svc.Create(context.Background(), tenant2, testUnitID, day(t, "2024-06-10"), day(t, "2024-06-20"))
	require.NoError(t, err)
}

func TestCreate_EndBeforeStart(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), tenant, testUnitID, day(t, "2024-06-15"), day(t, "2024-06-10"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidRange))
}

func TestCreate_PastStartDate(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), tenant, testUnitID, day(t, "2024-05-31"), day(t, "2024-06-05"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidRange))
}

func TestCreate_StartingTodayAllowed(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), tenant, testUnitID, day(t, "2024-06-01"), day(t, "2024-06-05"))
	require.NoError(t, err)
}

func TestCreate_UnknownUnit(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Create(context.Background(), tenant, uuid.NewString(), day(t, "2024-06-10"), day(t, "2024-06-15"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestCreate_LockHeldByConcurrentRequest(t *testing.T) {
	f := newFixture(t)
	f.locks.locks[lockID(testUnitID)] = &model.ReservationLock{ID: lockID(testUnitID)}

	_, err := f.svc.Create(context.Background(), tenant, testUnitID, day(t, "2024-06-10"), day(t, "2024-06-15"))
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))
}

// --- Confirm ---

func TestConfirm_Success(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tenant.UserID, model.StatusPending, "2024-06-10", "2024-06-15")

	confirmed, err := f.svc.Confirm(context.Background(), owner, r.ID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusConfirmed, confirmed.Status)
	assert.Equal(t, []string{r.ID}, f.notifier.confirmed)
	assert.Empty(t, f.locks.locks)
}

func TestConfirm_NotOwnerForbidden(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tenant.UserID, model.StatusPending, "2024-06-10", "2024-06-15")

	_, err := f.svc.Confirm(context.Background(), tenant, r.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	stored, _ := f.repo.FindByID(context.Background(), r.ID)
	assert.Equal(t, model.StatusPending, stored.Status, "status must not change on a forbidden confirm")
	assert.Empty(t, f.notifier.confirmed)
}

func TestConfirm_AdminAllowed(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tenant.UserID, model.StatusPending, "2024-06-10", "2024-06-15")

	_, err := f.svc.Confirm(context.Background(), admin, r.ID)
	require.NoError(t, err)
}

func TestConfirm_PendingCompetitorDoesNotBlock(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tenant.UserID, model.StatusPending, "2024-06-10", "2024-06-15")
	f.seed(t, tenant2.UserID, model.StatusPending, "2024-06-12", "2024-06-18")

	_, err := f.svc.Confirm(context.Background(), owner, r.ID)
	require.NoError(t, err)
}

func TestConfirm_ConfirmedOverlapConflicts(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tenant.UserID, model.StatusPending, "2024-06-10", "2024-06-15")
	f.seed(t, tenant2.UserID, model.StatusConfirmed, "2024-06-15", "2024-06-18")

	_, err := f.svc.Confirm(context.Background(), owner, r.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeConflict))

	stored, _ := f.repo.FindByID(context.Background(), r.ID)
	assert.Equal(t, model.StatusPending, stored.Status)
}

// A cancellation landing between Confirm's load and its status write must win:
// the reservation stays cancelled and the confirmation is rejected.
func TestConfirm_ConcurrentCancelNotOverwritten(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tenant.UserID, model.StatusPending, "2024-06-10", "2024-06-15")

	race := &raceReservationRepo{memReservationRepo: f.repo}
	svc := f.service(race)
	race.beforeStatusUpdate = func() {
		_, err := svc.Cancel(context.Background(), tenant, r.ID)
		require.NoError(t, err)
	}

	_, err := svc.Confirm(context.Background(), owner, r.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))

	stored, _ := f.repo.FindByID(context.Background(), r.ID)
	assert.Equal(t, model.StatusCancelled, stored.Status, "the cancellation must survive")
	assert.Empty(t, f.notifier.confirmed, "a failed confirm must not notify")
	assert.Equal(t, []string{r.ID}, f.notifier.cancelled)
	assert.Empty(t, f.locks.locks)
}

func TestConfirm_TerminalStateRejected(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tenant.UserID, model.StatusCancelled, "2024-06-10", "2024-06-15")

	_, err := f.svc.Confirm(context.Background(), owner, r.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))
}

// --- Cancel ---

func TestCancel_ByRequester(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tenant.UserID, model.StatusPending, "2024-06-10", "2024-06-15")

	cancelled, err := f.svc.Cancel(context.Background(), tenant, r.ID)
	require.NoError(t, err)

	assert.Equal(t, model.StatusCancelled, cancelled.Status)
	assert.Equal(t, []string{r.ID}, f.notifier.cancelled)
}

func TestCancel_ByOwner(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tenant.UserID, model.StatusConfirmed, "2024-06-10", "2024-06-15")

	_, err := f.svc.Cancel(context.Background(), owner, r.ID)
	require.NoError(t, err)
}

func TestCancel_StrangerForbidden(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tenant.UserID, model.StatusPending, "2024-06-10", "2024-06-15")

	_, err := f.svc.Cancel(context.Background(), stranger, r.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestCancel_TerminalStateRejected(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tenant.UserID, model.StatusCompleted, "2024-05-01", "2024-05-10")

	_, err := f.svc.Cancel(context.Background(), tenant, r.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))
}

func TestCancel_FreesDatesForNewReservation(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tenant.UserID, model.StatusConfirmed, "2024-06-10", "2024-06-15")

	_, err := f.svc.Cancel(context.Background(), tenant, r.ID)
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), tenant2, testUnitID, day(t, "2024-06-10"), day(t, "2024-06-15"))
	require.NoError(t, err)
}

// --- Complete ---

func TestComplete_Success(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tenant.UserID, model.StatusConfirmed, "2024-05-01", "2024-05-10")

	completed, err := f.svc.Complete(context.Background(), owner, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, completed.Status)
}

func TestComplete_Idempotent(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tenant.UserID, model.StatusCompleted, "2024-05-01", "2024-05-10")

	completed, err := f.svc.Complete(context.Background(), owner, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, completed.Status)
}

func TestComplete_BeforeEndDateRejected(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tenant.UserID, model.StatusConfirmed, "2024-06-10", "2024-06-15")

	_, err := f.svc.Complete(context.Background(), owner, r.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))
}

func TestComplete_PendingRejected(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tenant.UserID, model.StatusPending, "2024-05-01", "2024-05-10")

	_, err := f.svc.Complete(context.Background(), owner, r.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))
}

func TestCompleteExpired_Sweep(t *testing.T) {
	f := newFixture(t)
	expired := f.seed(t, tenant.UserID, model.StatusConfirmed, "2024-05-01", "2024-05-10")
	current := f.seed(t, tenant2.UserID, model.StatusConfirmed, "2024-06-01", "2024-06-10")

	count, err := f.svc.CompleteExpired(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	stored, _ := f.repo.FindByID(context.Background(), expired.ID)
	assert.Equal(t, model.StatusCompleted, stored.Status)
	stored, _ = f.repo.FindByID(context.Background(), current.ID)
	assert.Equal(t, model.StatusConfirmed, stored.Status)
}

// A reservation cancelled after the sweep read its batch must not be marked
// completed.
func TestCompleteExpired_SkipsConcurrentlyCancelled(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tenant.UserID, model.StatusConfirmed, "2024-05-01", "2024-05-10")

	race := &raceReservationRepo{memReservationRepo: f.repo}
	svc := f.service(race)
	race.beforeStatusUpdate = func() {
		f.repo.reservations[r.ID].Status = model.StatusCancelled
	}

	count, err := svc.CompleteExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, count)

	stored, _ := f.repo.FindByID(context.Background(), r.ID)
	assert.Equal(t, model.StatusCancelled, stored.Status)
}

// A sweep that fails to persist some transitions still reports the ones that
// succeeded, alongside the failure.
func TestCompleteExpired_ReportsStoreFailure(t *testing.T) {
	f := newFixture(t)
	f.seed(t, tenant.UserID, model.StatusConfirmed, "2024-05-01", "2024-05-10")
	broken := f.seed(t, tenant2.UserID, model.StatusConfirmed, "2024-04-01", "2024-04-10")

	race := &raceReservationRepo{
		memReservationRepo: f.repo,
		failStatusFor:      map[string]error{broken.ID: context.DeadlineExceeded},
	}
	svc := f.service(race)

	count, err := svc.CompleteExpired(context.Background())
	assert.Equal(t, 1, count)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeUnavailable))
}

// --- Reads ---

func TestGetByID_LazyCompletion(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tenant.UserID, model.StatusConfirmed, "2024-05-01", "2024-05-10")

	got, err := f.svc.GetByID(context.Background(), tenant, r.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusCompleted, got.Status)

	stored, _ := f.repo.FindByID(context.Background(), r.ID)
	assert.Equal(t, model.StatusCompleted, stored.Status, "lazy completion must be persisted")
}

func TestGetByID_StrangerForbidden(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tenant.UserID, model.StatusPending, "2024-06-10", "2024-06-15")

	_, err := f.svc.GetByID(context.Background(), stranger, r.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

func TestGetByID_NotFound(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.GetByID(context.Background(), tenant, uuid.NewString())
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

// --- Purge ---

func TestPurge_AdminOnly(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tenant.UserID, model.StatusCancelled, "2024-06-10", "2024-06-15")

	err := f.svc.Purge(context.Background(), owner, r.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	require.NoError(t, f.svc.Purge(context.Background(), admin, r.ID))
	_, err = f.repo.FindByID(context.Background(), r.ID)
	assert.Error(t, err)
}

func TestPurge_ActiveRejected(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tenant.UserID, model.StatusConfirmed, "2024-06-10", "2024-06-15")

	err := f.svc.Purge(context.Background(), admin, r.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidState))
}

// --- Stats ---

func TestStats_CountsByStatus(t *testing.T) {
	f := newFixture(t)
	f.seed(t, tenant.UserID, model.StatusPending, "2024-06-10", "2024-06-15")
	f.seed(t, tenant2.UserID, model.StatusConfirmed, "2024-07-01", "2024-07-05")
	f.seed(t, tenant2.UserID, model.StatusCancelled, "2024-06-20", "2024-06-25")

	stats, err := f.svc.Stats(context.Background(), owner, testUnitID)
	require.NoError(t, err)

	assert.Equal(t, int64(3), stats.Total)
	counts := make(map[string]int64)
	for _, e := range stats.ByStatus {
		counts[e.Key] = e.Value
	}
	assert.Equal(t, int64(1), counts[model.StatusPending])
	assert.Equal(t, int64(1), counts[model.StatusConfirmed])
	assert.Equal(t, int64(1), counts[model.StatusCancelled])

	days := make(map[string]int64)
	for _, e := range stats.DaysByStatus {
		days[e.Key] = e.Value
	}
	assert.Equal(t, int64(6), days[model.StatusPending], "2024-06-10..15 inclusive is six days")
	assert.Equal(t, int64(5), days[model.StatusConfirmed])
}

func TestStats_TenantForbidden(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Stats(context.Background(), tenant, testUnitID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))
}

// --- HasConflict ---

func TestHasConflict_Boundaries(t *testing.T) {
	f := newFixture(t)
	f.seed(t, tenant.UserID, model.StatusConfirmed, "2024-06-10", "2024-06-15")

	cases := []struct {
		name       string
		start, end string
		want       bool
	}{
		{"disjoint before", "2024-06-01", "2024-06-09", false},
		{"touching start", "2024-06-05", "2024-06-10", true},
		{"contained", "2024-06-11", "2024-06-14", true},
		{"touching end", "2024-06-15", "2024-06-20", true},
		{"disjoint after", "2024-06-16", "2024-06-20", false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := f.svc.HasConflict(context.Background(), testUnitID, day(t, tc.start), day(t, tc.end), "")
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestHasConflict_ExcludesSelf(t *testing.T) {
	f := newFixture(t)
	r := f.seed(t, tenant.UserID, model.StatusConfirmed, "2024-06-10", "2024-06-15")

	got, err := f.svc.HasConflict(context.Background(), testUnitID, day(t, "2024-06-10"), day(t, "2024-06-15"), r.ID)
	require.NoError(t, err)
	assert.False(t, got)
}

// A day shows as blocked on the calendar iff a single-day conflict check for it
// reports a conflict.
func TestHasConflict_ConsistentWithMonthAvailability(t *testing.T) {
	f := newFixture(t)
	f.seed(t, tenant.UserID, model.StatusConfirmed, "2024-06-10", "2024-06-15")
	f.seed(t, tenant2.UserID, model.StatusPending, "2024-06-20", "2024-06-22")
	f.seed(t, tenant.UserID, model.StatusCancelled, "2024-06-25", "2024-06-28")

	availability := model.BuildMonthAvailability(testUnitID, 2024, time.June, mustOverlapping(t, f, 2024, time.June))

	for _, d := range availability.Days {
		conflict, err := f.svc.HasConflict(context.Background(), testUnitID, day(t, d.Date), day(t, d.Date), "")
		require.NoError(t, err)
		assert.Equal(t, d.Blocked, conflict, "day %s", d.Date)
	}
}

func mustOverlapping(t *testing.T, f *fixture, year int, month time.Month) []*model.Reservation {
	t.Helper()
	first, last := model.MonthBounds(year, month)
	active, err := f.repo.FindOverlapping(context.Background(), testUnitID, first, last, model.ActiveStatuses, "")
	require.NoError(t, err)
	return active
}
