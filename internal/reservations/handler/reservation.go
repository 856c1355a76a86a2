package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"kosbook/internal/reservations/service"
	"kosbook/pkg/auth"
	apperrors "kosbook/pkg/errors"
	httputil "kosbook/pkg/http"
	"kosbook/pkg/logger"
	"kosbook/pkg/model"
)

type ReservationHandler struct {
	service      service.ReservationService
	availability service.AvailabilityService
	log          *logger.Logger
}

func NewReservationHandler(svc service.ReservationService, availability service.AvailabilityService, log *logger.Logger) *ReservationHandler {
	return &ReservationHandler{
		service:      svc,
		availability: availability,
		log:          log,
	}
}

// CreateRequest is the payload for placing a hold. Dates are calendar days in
// YYYY-MM-DD form and the range is inclusive on both ends.
type CreateRequest struct {
	UnitID    string `json:"unit_id"`
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
}

func (h *ReservationHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, "Create", apperrors.Unauthorized("Authentication required"))
		return
	}

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	start, err := model.ParseDay(req.StartDate)
	if err != nil {
		h.writeError(w, "Create", apperrors.InvalidRange("invalid start_date: expected YYYY-MM-DD"))
		return
	}
	end, err := model.ParseDay(req.EndDate)
	if err != nil {
		h.writeError(w, "Create", apperrors.InvalidRange("invalid end_date: expected YYYY-MM-DD"))
		return
	}

	reservation, err := h.service.Create(r.Context(), identity, req.UnitID, start, end)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, reservation); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *ReservationHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, "GetByID", apperrors.Unauthorized("Authentication required"))
		return
	}

	reservation, err := h.service.GetByID(r.Context(), identity, ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

// GetMine lists the caller's own reservations, newest first.
func (h *ReservationHandler) GetMine(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, "GetMine", apperrors.Unauthorized("Authentication required"))
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetMine", err)
		return
	}

	reservations, total, err := h.service.GetByRequester(r.Context(), identity, limit, offset)
	if err != nil {
		h.writeError(w, "GetMine", err)
		return
	}

	if err := httputil.WritePaginated(w, reservations, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetMine", "error", err)
	}
}

func (h *ReservationHandler) Confirm(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "Confirm", h.service.Confirm)
}

func (h *ReservationHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "Cancel", h.service.Cancel)
}

func (h *ReservationHandler) Complete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "Complete", h.service.Complete)
}

func (h *ReservationHandler) Purge(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, "Purge", apperrors.Unauthorized("Authentication required"))
		return
	}

	if err := h.service.Purge(r.Context(), identity, ps.ByName("id")); err != nil {
		h.writeError(w, "Purge", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *ReservationHandler) Stats(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, "Stats", apperrors.Unauthorized("Authentication required"))
		return
	}

	unitID := r.URL.Query().Get("unit_id")
	if unitID == "" {
		h.writeError(w, "Stats", apperrors.InvalidInput("'unit_id' query parameter is required"))
		return
	}

	stats, err := h.service.Stats(r.Context(), identity, unitID)
	if err != nil {
		h.writeError(w, "Stats", err)
		return
	}

	if err := httputil.WriteSuccess(w, stats); err != nil {
		h.log.Error("failed to write success response", "handler", "Stats", "error", err)
	}
}

// Availability serves the month calendar for a unit. It needs no
// authentication context beyond what the router middleware enforces.
func (h *ReservationHandler) Availability(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	year, month, err := httputil.ExtractYearMonth(r)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	availability, err := h.availability.GetMonthAvailability(r.Context(), ps.ByName("id"), year, month)
	if err != nil {
		h.writeError(w, "Availability", err)
		return
	}

	if err := httputil.WriteSuccess(w, availability); err != nil {
		h.log.Error("failed to write success response", "handler", "Availability", "error", err)
	}
}

// transition runs one status-changing operation identified by the path id.
func (h *ReservationHandler) transition(
	w http.ResponseWriter,
	r *http.Request,
	ps httprouter.Params,
	handlerName string,
	op func(ctx context.Context, identity auth.Identity, id string) (*model.Reservation, error),
) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, handlerName, apperrors.Unauthorized("Authentication required"))
		return
	}

	reservation, err := op(r.Context(), identity, ps.ByName("id"))
	if err != nil {
		h.writeError(w, handlerName, err)
		return
	}

	if err := httputil.WriteSuccess(w, reservation); err != nil {
		h.log.Error("failed to write success response", "handler", handlerName, "error", err)
	}
}

func (h *ReservationHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *ReservationHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/reservations", h.Create)
	router.GET("/api/v1/reservations", h.GetMine)
	router.GET("/api/v1/reservations/stats", h.Stats)
	router.GET("/api/v1/reservations/id/:id", h.GetByID)
	router.POST("/api/v1/reservations/id/:id/confirm", h.Confirm)
	router.POST("/api/v1/reservations/id/:id/cancel", h.Cancel)
	router.POST("/api/v1/reservations/id/:id/complete", h.Complete)
	router.DELETE("/api/v1/reservations/id/:id", h.Purge)
	router.GET("/api/v1/units/id/:id/availability", h.Availability)
}
