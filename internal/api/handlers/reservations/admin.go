package reservations

import (
	"net/http"

	"github.com/m04kA/SMC-FacilityService/internal/api/handlers"
)

// SetStatus PATCH /api/v1/admin/reservations/{id}/status
func (h *Handler) SetStatus(w http.ResponseWriter, r *http.Request) {
	const route = "PATCH /admin/reservations/{id}/status"
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, route)
	if !ok {
		return
	}

	var req AdminStatusRequest
	if !handlers.DecodeAndValidate(w, r, &req) {
		h.logger.Warn("%s - Invalid request: reservation_id=%d", route, id)
		return
	}

	result, err := h.service.AdminSetStatus(r.Context(), id, actor, req.ToServiceRequest())
	if err != nil {
		h.respondError(w, route, id, err)
		return
	}

	h.logger.Info("%s - Status overridden: reservation_id=%d, status=%s, admin_id=%d",
		route, id, result.Status, actor.UserID)
	handlers.RespondJSON(w, http.StatusOK, result)
}

// Refund POST /api/v1/admin/reservations/{id}/refund
func (h *Handler) Refund(w http.ResponseWriter, r *http.Request) {
	const route = "POST /admin/reservations/{id}/refund"
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, route)
	if !ok {
		return
	}

	var req RefundRequest
	if err := handlers.DecodeOptionalJSON(r, &req); err != nil {
		h.logger.Warn("%s - Invalid request body: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidInput)
		return
	}
	if err := handlers.Validate(&req); err != nil {
		handlers.RespondValidationError(w, err)
		return
	}

	result, err := h.service.Refund(r.Context(), id, actor, req.Reason)
	if err != nil {
		h.respondError(w, route, id, err)
		return
	}

	h.logger.Info("%s - Reservation refunded: reservation_id=%d, admin_id=%d", route, id, actor.UserID)
	handlers.RespondJSON(w, http.StatusOK, result)
}

// ResendConfirmation POST /api/v1/admin/reservations/{id}/resend-confirmation
func (h *Handler) ResendConfirmation(w http.ResponseWriter, r *http.Request) {
	const route = "POST /admin/reservations/{id}/resend-confirmation"
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, route)
	if !ok {
		return
	}

	if err := h.service.ResendConfirmation(r.Context(), id, actor); err != nil {
		h.respondError(w, route, id, err)
		return
	}

	h.logger.Info("%s - Confirmation queued: reservation_id=%d", route, id)
	handlers.RespondJSON(w, http.StatusAccepted, MessageResponse{Message: msgConfirmationSent})
}

// PaymentLink POST /api/v1/admin/reservations/{id}/payment-link
func (h *Handler) PaymentLink(w http.ResponseWriter, r *http.Request) {
	const route = "POST /admin/reservations/{id}/payment-link"
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}
	id, ok := h.pathID(w, r, route)
	if !ok {
		return
	}

	if err := h.service.SendPaymentLink(r.Context(), id, actor); err != nil {
		h.respondError(w, route, id, err)
		return
	}

	h.logger.Info("%s - Payment link queued: reservation_id=%d", route, id)
	handlers.RespondJSON(w, http.StatusAccepted, MessageResponse{Message: msgPaymentLinkSent})
}
