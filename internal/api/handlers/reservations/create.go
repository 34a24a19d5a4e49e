package reservations

import (
	"net/http"

	"github.com/m04kA/SMC-FacilityService/internal/api/handlers"
)

// Create POST /api/v1/reservations
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var req CreateReservationRequest
	if !handlers.DecodeAndValidate(w, r, &req) {
		h.logger.Warn("POST /reservations - Invalid request: user_id=%d", actor.UserID)
		return
	}

	result, err := h.createUC.Execute(r.Context(), req.ToUseCaseRequest(actor.UserID))
	if err != nil {
		h.respondCreateError(w, actor.UserID, req.CourtID, err)
		return
	}

	h.logger.Info("POST /reservations - Reservation created: reservation_id=%d, user_id=%d, court_id=%d",
		result.ID, actor.UserID, req.CourtID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}

// Get GET /api/v1/reservations/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	const route = "GET /reservations/{id}"
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, route)
	if !ok {
		return
	}

	result, err := h.service.GetByID(r.Context(), id, actor)
	if err != nil {
		h.respondError(w, route, id, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// History GET /api/v1/reservations/{id}/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	const route = "GET /reservations/{id}/history"
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, route)
	if !ok {
		return
	}

	result, err := h.service.GetHistory(r.Context(), id, actor)
	if err != nil {
		h.respondError(w, route, id, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}
