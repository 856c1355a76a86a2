package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	unitserrors "kosbook/internal/units/errors"
	"kosbook/internal/units/validator"
	"kosbook/pkg/auth"
	"kosbook/pkg/config"
	mongotx "kosbook/pkg/db/mongo"
	apperrors "kosbook/pkg/errors"
	"kosbook/pkg/logger"
	"kosbook/pkg/model"
)

type memUnitRepo struct {
	units map[string]*model.Unit
}

func newMemUnitRepo() *memUnitRepo {
	return &memUnitRepo{units: make(map[string]*model.Unit)}
}

func (m *memUnitRepo) Create(_ context.Context, unit *model.Unit) error {
	clone := *unit
	m.units[unit.ID] = &clone
	return nil
}

func (m *memUnitRepo) FindByID(_ context.Context, id string) (*model.Unit, error) {
	u, ok := m.units[id]
	if !ok {
		return nil, unitserrors.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

func (m *memUnitRepo) FindAll(_ context.Context, filter *model.UnitFilter, _ int, _ int64) ([]*model.Unit, error) {
	var out []*model.Unit
	for _, u := range m.units {
		if matchesFilter(u, filter) {
			clone := *u
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (m *memUnitRepo) Count(_ context.Context, filter *model.UnitFilter) (int64, error) {
	var count int64
	for _, u := range m.units {
		if matchesFilter(u, filter) {
			count++
		}
	}
	return count, nil
}

func matchesFilter(u *model.Unit, filter *model.UnitFilter) bool {
	if filter == nil {
		return true
	}
	if filter.City != "" && u.City != filter.City {
		return false
	}
	if filter.GenderPolicy != "" && u.GenderPolicy != filter.GenderPolicy {
		return false
	}
	if filter.MaxPrice > 0 && u.PricePerMonth > filter.MaxPrice {
		return false
	}
	return true
}

func (m *memUnitRepo) Update(_ context.Context, id string, unit *model.Unit) error {
	if _, ok := m.units[id]; !ok {
		return unitserrors.ErrNotFound
	}
	clone := *unit
	clone.ID = id
	m.units[id] = &clone
	return nil
}

func (m *memUnitRepo) Delete(_ context.Context, id string) error {
	if _, ok := m.units[id]; !ok {
		return unitserrors.ErrNotFound
	}
	delete(m.units, id)
	return nil
}

func (m *memUnitRepo) ExecuteTransaction(_ context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

var (
	ownerIdentity  = auth.Identity{UserID: "owner-1", Role: auth.RoleOwner}
	otherIdentity  = auth.Identity{UserID: "owner-2", Role: auth.RoleOwner}
	adminIdentity  = auth.Identity{UserID: "admin-1", Role: auth.RoleAdmin}
	tenantIdentity = auth.Identity{UserID: "tenant-1", Role: auth.RoleTenant}
)

func newTestService() (UnitService, *memUnitRepo) {
	repo := newMemUnitRepo()
	cfg := &config.Config{Log: logger.Discard()}
	return NewUnitService(repo, validator.NewUnitValidator(logger.Discard()), cfg), repo
}

func validUnit() *model.Unit {
	return &model.Unit{
		Name:          "Kos Melati",
		Address:       "Jl. Sudirman No. 12",
		City:          "Jakarta Selatan",
		PricePerMonth: 1500000,
		GenderPolicy:  model.GenderAny,
		RoomCount:     10,
	}
}

func TestCreate_AssignsIDAndOwner(t *testing.T) {
	svc, repo := newTestService()

	unit := validUnit()
	require.NoError(t, svc.Create(context.Background(), ownerIdentity, unit))

	assert.NotEmpty(t, unit.ID)
	assert.Equal(t, ownerIdentity.UserID, unit.OwnerID)
	assert.Equal(t, "jakarta_selatan", unit.City, "city is normalized")
	assert.Contains(t, repo.units, unit.ID)
}

func TestCreate_InvalidUnit(t *testing.T) {
	svc, _ := newTestService()

	unit := validUnit()
	unit.PricePerMonth = 0

	err := svc.Create(context.Background(), ownerIdentity, unit)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeValidation))
}

func TestGetByID_NotFound(t *testing.T) {
	svc, _ := newTestService()

	_, err := svc.GetByID(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeNotFound))
}

func TestUpdate_OwnerOnly(t *testing.T) {
	svc, _ := newTestService()

	unit := validUnit()
	require.NoError(t, svc.Create(context.Background(), ownerIdentity, unit))

	newName := "Kos Mawar"
	err := svc.Update(context.Background(), otherIdentity, unit.ID, &model.UnitUpdate{Name: newName})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	require.NoError(t, svc.Update(context.Background(), ownerIdentity, unit.ID, &model.UnitUpdate{Name: newName}))
	updated, err := svc.GetByID(context.Background(), unit.ID)
	require.NoError(t, err)
	assert.Equal(t, newName, updated.Name)
}

func TestUpdate_MergeKeepsUnsetFields(t *testing.T) {
	svc, _ := newTestService()

	unit := validUnit()
	require.NoError(t, svc.Create(context.Background(), ownerIdentity, unit))

	price := int64(2000000)
	require.NoError(t, svc.Update(context.Background(), ownerIdentity, unit.ID, &model.UnitUpdate{PricePerMonth: &price}))

	updated, err := svc.GetByID(context.Background(), unit.ID)
	require.NoError(t, err)
	assert.Equal(t, price, updated.PricePerMonth)
	assert.Equal(t, unit.Name, updated.Name)
	assert.Equal(t, unit.RoomCount, updated.RoomCount)
}

func TestDelete_OwnerOrAdmin(t *testing.T) {
	svc, repo := newTestService()

	unit := validUnit()
	require.NoError(t, svc.Create(context.Background(), ownerIdentity, unit))

	err := svc.Delete(context.Background(), tenantIdentity, unit.ID)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeForbidden))

	require.NoError(t, svc.Delete(context.Background(), adminIdentity, unit.ID))
	assert.NotContains(t, repo.units, unit.ID)
}

func TestGetAll_FilterByCity(t *testing.T) {
	svc, _ := newTestService()

	jakarta := validUnit()
	require.NoError(t, svc.Create(context.Background(), ownerIdentity, jakarta))

	bandung := validUnit()
	bandung.City = "Bandung"
	require.NoError(t, svc.Create(context.Background(), ownerIdentity, bandung))

	// The browse filter normalizes the city the same way Create does.
	units, total, err := svc.GetAll(context.Background(), &model.UnitFilter{City: "Jakarta Selatan"}, 10, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, units, 1)
	assert.Equal(t, "jakarta_selatan", units[0].City)
}
