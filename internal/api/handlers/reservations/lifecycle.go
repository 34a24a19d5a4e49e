package reservations

import (
	"context"
	"net/http"

	"github.com/m04kA/SMC-FacilityService/internal/api/handlers"
	"github.com/m04kA/SMC-FacilityService/internal/service/reservations/models"
)

type transition func(ctx context.Context, id int64, actor models.Actor) (*models.ReservationResponse, error)

// CheckIn POST /api/v1/reservations/{id}/check-in
func (h *Handler) CheckIn(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "POST /reservations/{id}/check-in", h.service.CheckIn)
}

// CheckOut POST /api/v1/reservations/{id}/check-out
func (h *Handler) CheckOut(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "POST /reservations/{id}/check-out", h.service.CheckOut)
}

// ConfirmPayment POST /api/v1/reservations/{id}/confirm-payment
func (h *Handler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "POST /reservations/{id}/confirm-payment", h.service.ConfirmPayment)
}

// NoShow POST /api/v1/reservations/{id}/no-show
func (h *Handler) NoShow(w http.ResponseWriter, r *http.Request) {
	h.handleTransition(w, r, "POST /reservations/{id}/no-show", h.service.MarkNoShow)
}

// Cancel POST /api/v1/reservations/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	const route = "POST /reservations/{id}/cancel"
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, route)
	if !ok {
		return
	}

	var req CancelRequest
	if err := handlers.DecodeOptionalJSON(r, &req); err != nil {
		h.logger.Warn("%s - Invalid request body: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidInput)
		return
	}
	if err := handlers.Validate(&req); err != nil {
		handlers.RespondValidationError(w, err)
		return
	}

	result, err := h.service.Cancel(r.Context(), id, actor, req.Reason)
	if err != nil {
		h.respondError(w, route, id, err)
		return
	}

	h.logger.Info("%s - Reservation cancelled: reservation_id=%d, actor_id=%d", route, id, actor.UserID)
	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleTransition(w http.ResponseWriter, r *http.Request, route string, fn transition) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, route)
	if !ok {
		return
	}

	result, err := fn(r.Context(), id, actor)
	if err != nil {
		h.respondError(w, route, id, err)
		return
	}

	h.logger.Info("%s - Reservation updated: reservation_id=%d, status=%s, actor_id=%d",
		route, id, result.Status, actor.UserID)
	handlers.RespondJSON(w, http.StatusOK, result)
}
