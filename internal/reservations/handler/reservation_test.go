package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kosbook/internal/reservations/service"
	"kosbook/pkg/auth"
	"kosbook/pkg/logger"
	"kosbook/pkg/model"
)

// stubService lets each test provide only the methods its route exercises.
type stubService struct {
	createFn func(ctx context.Context, identity auth.Identity, unitID string, start, end time.Time) (*model.Reservation, error)
}

func (s *stubService) Create(ctx context.Context, identity auth.Identity, unitID string, start, end time.Time) (*model.Reservation, error) {
	return s.createFn(ctx, identity, unitID, start, end)
}

func (s *stubService) GetByID(context.Context, auth.Identity, string) (*model.Reservation, error) {
	panic("not stubbed")
}

func (s *stubService) GetByRequester(context.Context, auth.Identity, int, int64) ([]*model.Reservation, int64, error) {
	panic("not stubbed")
}

func (s *stubService) Confirm(context.Context, auth.Identity, string) (*model.Reservation, error) {
	panic("not stubbed")
}

func (s *stubService) Cancel(context.Context, auth.Identity, string) (*model.Reservation, error) {
	panic("not stubbed")
}

func (s *stubService) Complete(context.Context, auth.Identity, string) (*model.Reservation, error) {
	panic("not stubbed")
}

func (s *stubService) CompleteExpired(context.Context) (int, error) { panic("not stubbed") }

func (s *stubService) Purge(context.Context, auth.Identity, string) error { panic("not stubbed") }

func (s *stubService) Stats(context.Context, auth.Identity, string) (*service.UnitStats, error) {
	panic("not stubbed")
}

func (s *stubService) HasConflict(context.Context, string, time.Time, time.Time, string) (bool, error) {
	panic("not stubbed")
}

type stubAvailability struct {
	getFn func(ctx context.Context, unitID string, year int, month time.Month) (*model.MonthAvailability, error)
}

func (s *stubAvailability) GetMonthAvailability(ctx context.Context, unitID string, year int, month time.Month) (*model.MonthAvailability, error) {
	return s.getFn(ctx, unitID, year, month)
}

func (s *stubAvailability) InvalidateRange(string, time.Time, time.Time) {}

func newRouter(svc service.ReservationService, availability service.AvailabilityService) *httprouter.Router {
	router := httprouter.New()
	NewReservationHandler(svc, availability, logger.Discard()).RegisterRoutes(router)
	return router
}

func authed(req *http.Request, identity auth.Identity) *http.Request {
	return req.WithContext(auth.WithIdentity(req.Context(), identity))
}

func TestCreate_RequiresIdentity(t *testing.T) {
	router := newRouter(&stubService{}, &stubAvailability{})

	body := `{"unit_id":"u-1","start_date":"2024-06-10","end_date":"2024-06-15"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body))
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreate_MalformedDate(t *testing.T) {
	router := newRouter(&stubService{}, &stubAvailability{})

	body := `{"unit_id":"u-1","start_date":"10/06/2024","end_date":"2024-06-15"}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body)),
		auth.Identity{UserID: "tenant-1", Role: auth.RoleTenant})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	var resp struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "INVALID_RANGE", resp.Code)
}

func TestCreate_PassesParsedDays(t *testing.T) {
	var gotUnitID string
	var gotStart, gotEnd time.Time
	svc := &stubService{
		createFn: func(_ context.Context, identity auth.Identity, unitID string, start, end time.Time) (*model.Reservation, error) {
			gotUnitID = unitID
			gotStart, gotEnd = start, end
			return &model.Reservation{
				ID:          "r-1",
				UnitID:      unitID,
				RequesterID: identity.UserID,
				StartDate:   start,
				EndDate:     end,
				Status:      model.StatusPending,
			}, nil
		},
	}
	router := newRouter(svc, &stubAvailability{})

	body := `{"unit_id":"u-1","start_date":"2024-06-10","end_date":"2024-06-15"}`
	req := authed(httptest.NewRequest(http.MethodPost, "/api/v1/reservations", strings.NewReader(body)),
		auth.Identity{UserID: "tenant-1", Role: auth.RoleTenant})
	rec := httptest.NewRecorder()

	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	assert.Equal(t, "u-1", gotUnitID)
	assert.Equal(t, time.Date(2024, time.June, 10, 0, 0, 0, 0, time.UTC), gotStart)
	assert.Equal(t, time.Date(2024, time.June, 15, 0, 0, 0, 0, time.UTC), gotEnd)

	var resp struct {
		Data model.Reservation `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "r-1", resp.Data.ID)
	assert.Equal(t, model.StatusPending, resp.Data.Status)
}

func TestAvailability_MonthParam(t *testing.T) {
	availability := &stubAvailability{
		getFn: func(_ context.Context, unitID string, year int, month time.Month) (*model.MonthAvailability, error) {
			return model.BuildMonthAvailability(unitID, year, month, nil), nil
		},
	}
	router := newRouter(&stubService{}, availability)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/units/id/u-1/availability?month=2024-06", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data model.MonthAvailability `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "u-1", resp.Data.UnitID)
	assert.Len(t, resp.Data.Days, 30)
}

func TestAvailability_BadMonthParam(t *testing.T) {
	router := newRouter(&stubService{}, &stubAvailability{})

	for _, raw := range []string{"", "June-2024", "2024-13"} {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/units/id/u-1/availability?month="+raw, nil)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusBadRequest, rec.Code, "month=%q", raw)
	}
}
