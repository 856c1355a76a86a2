package handler

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"kosbook/internal/units/service"
	"kosbook/pkg/auth"
	apperrors "kosbook/pkg/errors"
	httputil "kosbook/pkg/http"
	"kosbook/pkg/logger"
	"kosbook/pkg/model"
)

type UnitHandler struct {
	service service.UnitService
	log     *logger.Logger
}

func NewUnitHandler(service service.UnitService, log *logger.Logger) *UnitHandler {
	return &UnitHandler{
		service: service,
		log:     log,
	}
}

func (h *UnitHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, "Create", apperrors.Unauthorized("Authentication required"))
		return
	}

	var unit model.Unit
	if err := json.NewDecoder(r.Body).Decode(&unit); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.Create(r.Context(), identity, &unit); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, unit); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *UnitHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	unit, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, unit); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *UnitHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	filter, err := extractBrowseFilter(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	units, total, err := h.service.GetAll(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if err := httputil.WritePaginated(w, units, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "error", err)
	}
}

func (h *UnitHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, "Update", apperrors.Unauthorized("Authentication required"))
		return
	}

	var updates model.UnitUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	if err := h.service.Update(r.Context(), identity, ps.ByName("id"), &updates); err != nil {
		h.writeError(w, "Update", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *UnitHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	identity, ok := auth.FromContext(r.Context())
	if !ok {
		h.writeError(w, "Delete", apperrors.Unauthorized("Authentication required"))
		return
	}

	if err := h.service.Delete(r.Context(), identity, ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *UnitHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func extractBrowseFilter(r *http.Request) (*model.UnitFilter, error) {
	query := r.URL.Query()
	filter := &model.UnitFilter{
		City:         query.Get("city"),
		GenderPolicy: query.Get("gender_policy"),
	}

	switch filter.GenderPolicy {
	case "", model.GenderAny, model.GenderMale, model.GenderFemale:
	default:
		return nil, apperrors.InvalidInput("invalid gender_policy parameter: " + filter.GenderPolicy)
	}

	if s := query.Get("max_price"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil || v < 0 {
			return nil, apperrors.InvalidInput("invalid max_price parameter: " + s)
		}
		filter.MaxPrice = v
	}

	return filter, nil
}

func (h *UnitHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/units", h.Create)
	router.GET("/api/v1/units", h.GetAll)
	router.GET("/api/v1/units/id/:id", h.GetByID)
	router.PATCH("/api/v1/units/id/:id", h.Update)
	router.DELETE("/api/v1/units/id/:id", h.Delete)
}
