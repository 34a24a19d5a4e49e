package maintenance

import (
	"net/http"

	"github.com/m04kA/SMC-FacilityService/internal/api/handlers"
	"github.com/m04kA/SMC-FacilityService/internal/api/middleware"
)

// Create POST /api/v1/maintenance
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const route = "POST /maintenance"
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	var req CreateMaintenanceRequest
	if !handlers.DecodeAndValidate(w, r, &req) {
		h.logger.Warn("%s - Invalid request: actor_id=%d", route, actorID)
		return
	}

	result, err := h.service.Create(r.Context(), actorID, req.ToServiceRequest())
	if err != nil {
		h.respondError(w, route, 0, err)
		return
	}

	h.logger.Info("%s - Maintenance scheduled: maintenance_id=%d, court_id=%d, actor_id=%d",
		route, result.ID, result.CourtID, actorID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}

// Update PUT /api/v1/maintenance/{id}
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	const route = "PUT /maintenance/{id}"
	id, ok := h.pathID(w, r, route)
	if !ok {
		return
	}

	var req UpdateMaintenanceRequest
	if !handlers.DecodeAndValidate(w, r, &req) {
		h.logger.Warn("%s - Invalid request: maintenance_id=%d", route, id)
		return
	}

	result, err := h.service.Update(r.Context(), id, req.ToServiceRequest())
	if err != nil {
		h.respondError(w, route, id, err)
		return
	}

	h.logger.Info("%s - Maintenance updated: maintenance_id=%d", route, id)
	handlers.RespondJSON(w, http.StatusOK, result)
}

// Start POST /api/v1/maintenance/{id}/start
func (h *Handler) Start(w http.ResponseWriter, r *http.Request) {
	const route = "POST /maintenance/{id}/start"
	id, ok := h.pathID(w, r, route)
	if !ok {
		return
	}

	result, err := h.service.Start(r.Context(), id)
	if err != nil {
		h.respondError(w, route, id, err)
		return
	}

	h.logger.Info("%s - Maintenance started: maintenance_id=%d", route, id)
	handlers.RespondJSON(w, http.StatusOK, result)
}

// Complete POST /api/v1/maintenance/{id}/complete
func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	const route = "POST /maintenance/{id}/complete"
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}
	id, ok := h.pathID(w, r, route)
	if !ok {
		return
	}

	var req CompleteMaintenanceRequest
	if err := handlers.DecodeOptionalJSON(r, &req); err != nil {
		h.logger.Warn("%s - Invalid request body: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.Validate(&req); err != nil {
		handlers.RespondValidationError(w, err)
		return
	}

	result, err := h.service.Complete(r.Context(), actorID, id, req.ToServiceRequest())
	if err != nil {
		h.respondError(w, route, id, err)
		return
	}

	h.logger.Info("%s - Maintenance completed: maintenance_id=%d, follow_up=%t",
		route, id, result.FollowUp != nil)
	handlers.RespondJSON(w, http.StatusOK, result)
}

// Cancel POST /api/v1/maintenance/{id}/cancel
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	const route = "POST /maintenance/{id}/cancel"
	id, ok := h.pathID(w, r, route)
	if !ok {
		return
	}

	var req CancelMaintenanceRequest
	if err := handlers.DecodeOptionalJSON(r, &req); err != nil {
		h.logger.Warn("%s - Invalid request body: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if err := handlers.Validate(&req); err != nil {
		handlers.RespondValidationError(w, err)
		return
	}

	result, err := h.service.Cancel(r.Context(), id, req.Reason)
	if err != nil {
		h.respondError(w, route, id, err)
		return
	}

	h.logger.Info("%s - Maintenance cancelled: maintenance_id=%d", route, id)
	handlers.RespondJSON(w, http.StatusOK, result)
}
