package maintenance

import (
	"net/http"

	"github.com/m04kA/SMC-FacilityService/internal/api/handlers"
	"github.com/m04kA/SMC-FacilityService/internal/service/maintenance/models"
)

// Get GET /api/v1/maintenance/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const route = "GET /maintenance/{id}"
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

// List GET /api/v1/maintenance?courtId=&status=&type=&priority=&page=&limit=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const route = "GET /maintenance"

	req, err := parseListQuery(r)
	if err != nil {
		h.logger.Warn("%s - Invalid query: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidQuery)
		return
	}

	result, err := h.service.List(r.Context(), req)
	if err != nil {
		h.respondError(w, route, 0, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Stats GET /api/v1/maintenance/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Stats(r.Context())
	if err != nil {
		h.respondError(w, "GET /maintenance/stats", 0, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func parseListQuery(r *http.Request) (*models.ListRequest, error) {
	courtID, err := handlers.QueryInt64Ptr(r, "courtId")
	if err != nil {
		return nil, err
	}
	page, err := handlers.QueryInt(r, "page", 1)
	if err != nil {
		return nil, err
	}
	limit, err := handlers.QueryInt(r, "limit", 0)
	if err != nil {
		return nil, err
	}

	return &models.ListRequest{
		CourtID:  courtID,
		Status:   handlers.QueryStringPtr(r, "status"),
		Type:     handlers.QueryStringPtr(r, "type"),
		Priority: handlers.QueryStringPtr(r, "priority"),
		Page:     page,
		Limit:    limit,
	}, nil
}
