package enrollments

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-FacilityService/internal/api/handlers"
	"github.com/m04kA/SMC-FacilityService/internal/api/middleware"
	enrollmentsService "github.com/m04kA/SMC-FacilityService/internal/service/enrollments"
	"github.com/m04kA/SMC-FacilityService/internal/service/enrollments/models"
)

const (
	msgInvalidEnrollmentID = "некорректный ID заявки"
	msgInvalidQuery        = "некорректные параметры запроса"
	msgUnauthorized        = "требуется авторизация"
	msgEnrollmentNotFound  = "заявка не найдена"
	msgTariffNotFound      = "тариф не найден"
	msgUserNotFound        = "пользователь не найден"
	msgMissingData         = "в профиле не указана дата рождения"
	msgTariffInactive      = "тариф сейчас не действует"
	msgDuplicateRequest    = "по этому тарифу уже есть действующая заявка"
	msgAgeIneligible       = "возраст не подходит под условия тарифа"
	msgInvalidInput        = "некорректные данные заявки"
	msgConcurrentUpdate    = "заявка изменена параллельно, повторите запрос"
)

type Handler struct {
	service EnrollmentService
	logger  Logger
}

func NewHandler(service EnrollmentService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Create POST /api/v1/enrollments
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	const route = "POST /enrollments"
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}

	var req CreateEnrollmentRequest
	if !handlers.DecodeAndValidate(w, r, &req) {
		h.logger.Warn("%s - Invalid request: user_id=%d", route, userID)
		return
	}

	result, err := h.service.Create(r.Context(), req.ToServiceRequest(userID))
	if err != nil {
		h.respondError(w, route, 0, err)
		return
	}

	h.logger.Info("%s - Enrollment requested: enrollment_id=%d, user_id=%d, tariff_id=%d",
		route, result.ID, userID, req.TariffID)
	handlers.RespondJSON(w, http.StatusCreated, result)
}

// Approve POST /api/v1/admin/enrollments/{id}/approve
func (h *Handler) Approve(w http.ResponseWriter, r *http.Request) {
	const route = "POST /admin/enrollments/{id}/approve"
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}
	id, ok := h.pathID(w, r, route)
	if !ok {
		return
	}

	result, err := h.service.Approve(r.Context(), id, actorID)
	if err != nil {
		h.respondError(w, route, id, err)
		return
	}

	h.logger.Info("%s - Enrollment approved: enrollment_id=%d, admin_id=%d", route, id, actorID)
	handlers.RespondJSON(w, http.StatusOK, result)
}

// Reject POST /api/v1/admin/enrollments/{id}/reject
func (h *Handler) Reject(w http.ResponseWriter, r *http.Request) {
	const route = "POST /admin/enrollments/{id}/reject"
	actorID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return
	}
	id, ok := h.pathID(w, r, route)
	if !ok {
		return
	}

	var req RejectEnrollmentRequest
	if !handlers.DecodeAndValidate(w, r, &req) {
		h.logger.Warn("%s - Invalid request: enrollment_id=%d", route, id)
		return
	}

	result, err := h.service.Reject(r.Context(), id, actorID, req.Reason)
	if err != nil {
		h.respondError(w, route, id, err)
		return
	}

	h.logger.Info("%s - Enrollment rejected: enrollment_id=%d, admin_id=%d", route, id, actorID)
	handlers.RespondJSON(w, http.StatusOK, result)
}

// List GET /api/v1/admin/enrollments?status=&userId=&segment=&page=&limit=
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	const route = "GET /admin/enrollments"

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

// History GET /api/v1/admin/enrollments/{id}/history
func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	const route = "GET /admin/enrollments/{id}/history"
	id, ok := h.pathID(w, r, route)
	if !ok {
		return
	}

	result, err := h.service.History(r.Context(), id)
	if err != nil {
		h.respondError(w, route, id, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func parseListQuery(r *http.Request) (*models.ListRequest, error) {
	userID, err := handlers.QueryInt64Ptr(r, "userId")
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
		Status:  handlers.QueryStringPtr(r, "status"),
		UserID:  userID,
		Segment: handlers.QueryStringPtr(r, "segment"),
		Page:    page,
		Limit:   limit,
	}, nil
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, route string) (int64, bool) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		h.logger.Warn("%s - Invalid enrollment ID: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidEnrollmentID)
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, route string, id int64, err error) {
	switch {
	case errors.Is(err, enrollmentsService.ErrEnrollmentNotFound):
		h.logger.Warn("%s - Enrollment not found: enrollment_id=%d", route, id)
		handlers.RespondNotFound(w, msgEnrollmentNotFound)

	case errors.Is(err, enrollmentsService.ErrTariffNotFound):
		h.logger.Warn("%s - Tariff not found", route)
		handlers.RespondNotFound(w, msgTariffNotFound)

	case errors.Is(err, enrollmentsService.ErrUserNotFound):
		h.logger.Warn("%s - User not found", route)
		handlers.RespondNotFound(w, msgUserNotFound)

	case errors.Is(err, enrollmentsService.ErrInvalidInput):
		h.logger.Warn("%s - Invalid input: enrollment_id=%d, error=%v", route, id, err)
		handlers.RespondBadRequest(w, msgInvalidInput)

	case errors.Is(err, enrollmentsService.ErrDuplicateRequest):
		h.logger.Warn("%s - Duplicate request", route)
		handlers.RespondConflict(w, msgDuplicateRequest)

	case errors.Is(err, enrollmentsService.ErrConcurrentUpdate):
		h.logger.Warn("%s - Concurrent update: enrollment_id=%d", route, id)
		handlers.RespondConflict(w, msgConcurrentUpdate)

	case errors.Is(err, enrollmentsService.ErrMissingData):
		h.logger.Warn("%s - Missing date of birth", route)
		handlers.RespondUnprocessable(w, msgMissingData)

	case errors.Is(err, enrollmentsService.ErrTariffInactive):
		h.logger.Warn("%s - Tariff inactive", route)
		handlers.RespondUnprocessable(w, msgTariffInactive)

	case errors.Is(err, enrollmentsService.ErrAgeIneligible):
		h.logger.Warn("%s - Age ineligible", route)
		handlers.RespondUnprocessable(w, msgAgeIneligible)

	default:
		h.logger.Error("%s - Failed: enrollment_id=%d, error=%v", route, id, err)
		handlers.RespondInternalError(w)
	}
}
