package tariffs

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/m04kA/SMC-FacilityService/internal/api/handlers"
	tariffsService "github.com/m04kA/SMC-FacilityService/internal/service/tariffs"
	"github.com/m04kA/SMC-FacilityService/internal/service/tariffs/models"
)

const (
	msgInvalidTariffID  = "некорректный ID тарифа"
	msgInvalidQuery     = "некорректные параметры запроса"
	msgTariffNotFound   = "тариф не найден"
	msgCourtNotFound    = "один из указанных кортов не найден"
	msgSegmentTaken     = "для сегмента уже есть активный тариф"
	msgTariffInUse      = "по тарифу есть заявки, тариф можно только деактивировать"
	msgInvalidInput     = "некорректные данные тарифа"
	msgConcurrentUpdate = "тариф изменён параллельно, повторите запрос"
)

type Handler struct {
	service TariffService
	logger  Logger
}

func NewHandler(service TariffService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Create POST /api/v1/admin/tariffs
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const route = "POST /admin/tariffs"

	var req CreateTariffRequest
	if !handlers.DecodeAndValidate(w, r, &req) {
		h.logger.Warn("%s - Invalid request", route)
		return
	}

	result, err := h.service.Create(r.Context(), req.ToServiceRequest())
	if err != nil {
		h.respondError(w, route, 0, err)
		return
	}

	h.logger.Info("%s - Tariff created: tariff_id=%d, segment=%s", route, result.ID, result.Segment)
	handlers.RespondJSON(w, http.StatusCreated, result)
}

// Update PUT /api/v1/admin/tariffs/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const route = "PUT /admin/tariffs/{id}"
	id, ok := h.pathID(w, r, route)
	if !ok {
		return
	}

	var req UpdateTariffRequest
	if !handlers.DecodeAndValidate(w, r, &req) {
		h.logger.Warn("%s - Invalid request: tariff_id=%d", route, id)
		return
	}

	result, err := h.service.Update(r.Context(), id, req.ToServiceRequest())
	if err != nil {
		h.respondError(w, route, id, err)
		return
	}

	h.logger.Info("%s - Tariff updated: tariff_id=%d", route, id)
	handlers.RespondJSON(w, http.StatusOK, result)
}

// Delete DELETE /api/v1/admin/tariffs/{id}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	const route = "DELETE /admin/tariffs/{id}"
	id, ok := h.pathID(w, r, route)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.respondError(w, route, id, err)
		return
	}

	h.logger.Info("%s - Tariff deleted: tariff_id=%d", route, id)
	w.WriteHeader(http.StatusNoContent)
}

// Get GET /api/v1/tariffs/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const route = "GET /tariffs/{id}"
	id, ok := h.pathID(w, r, route)
	if !ok {
		return
	}

	result, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.respondError(w, route, id, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// List GET /api/v1/tariffs?segment=&activeOnly=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const route = "GET /tariffs"

	req := &models.ListRequest{Segment: handlers.QueryStringPtr(r, "segment")}
	if raw := r.URL.Query().Get("activeOnly"); raw != "" {
		activeOnly, err := strconv.ParseBool(raw)
		if err != nil {
			h.logger.Warn("%s - Invalid activeOnly: %v", route, err)
			handlers.RespondBadRequest(w, msgInvalidQuery)
			return
		}
		req.ActiveOnly = activeOnly
	}

	result, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, route, 0, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, route string) (int64, bool) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		h.logger.Warn("%s - Invalid tariff ID: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidTariffID)
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, route string, id int64, err error) {
	switch {
	case errors.Is(err, tariffsService.ErrTariffNotFound):
		h.logger.Warn("%s - Tariff not found: tariff_id=%d", route, id)
		handlers.RespondNotFound(w, msgTariffNotFound)

	case errors.Is(err, tariffsService.ErrCourtNotFound):
		h.logger.Warn("%s - Court not found: tariff_id=%d", route, id)
		handlers.RespondNotFound(w, msgCourtNotFound)

	case errors.Is(err, tariffsService.ErrInvalidInput):
		h.logger.Warn("%s - Invalid input: tariff_id=%d, error=%v", route, id, err)
		handlers.RespondBadRequest(w, msgInvalidInput)

	case errors.Is(err, tariffsService.ErrSegmentTaken):
		h.logger.Warn("%s - Segment taken: tariff_id=%d", route, id)
		handlers.RespondConflict(w, msgSegmentTaken)

	case errors.Is(err, tariffsService.ErrTariffInUse):
		h.logger.Warn("%s - Tariff in use: tariff_id=%d", route, id)
		handlers.RespondConflict(w, msgTariffInUse)

	case errors.Is(err, tariffsService.ErrConcurrentUpdate):
		h.logger.Warn("%s - Concurrent update: tariff_id=%d", route, id)
		handlers.RespondConflict(w, msgConcurrentUpdate)

	default:
		h.logger.Error("%s - Failed: tariff_id=%d, error=%v", route, id, err)
		handlers.RespondInternalError(w)
	}
}
