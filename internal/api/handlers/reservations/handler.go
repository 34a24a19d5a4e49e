package reservations

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-FacilityService/internal/api/handlers"
	"github.com/m04kA/SMC-FacilityService/internal/api/middleware"
	reservationsService "github.com/m04kA/SMC-FacilityService/internal/service/reservations"
	"github.com/m04kA/SMC-FacilityService/internal/service/reservations/models"
	createReservation "github.com/m04kA/SMC-FacilityService/internal/usecase/create_reservation"
)

const (
	msgInvalidReservationID  = "некорректный ID бронирования"
	msgUnauthorized          = "требуется авторизация"
	msgReservationNotFound   = "бронирование не найдено"
	msgAccessDenied          = "нет доступа к бронированию"
	msgInvalidStatus         = "некорректный статус бронирования"
	msgInvalidState          = "операция недоступна в текущем статусе бронирования"
	msgWindowViolation       = "check-in возможен только в допустимом окне"
	msgConcurrentUpdate      = "бронирование изменено параллельно, повторите запрос"
	msgCourtNotFound         = "корт не найден"
	msgCourtInactive         = "корт недоступен для бронирования"
	msgUserNotFound          = "пользователь не найден"
	msgInvalidTimeRange      = "некорректный интервал бронирования"
	msgStartInPast           = "нельзя забронировать время в прошлом"
	msgSlotNotAvailable      = "выбранный интервал уже занят"
	msgCourtUnderMaintenance = "на выбранный интервал запланировано обслуживание корта"
	msgInsufficientFunds     = "недостаточно средств на кошельке"
	msgInvalidInput          = "некорректные данные запроса"
	msgConfirmationSent      = "подтверждение отправлено"
	msgPaymentLinkSent       = "ссылка на оплату отправлена"
)

type Handler struct {
	service  ReservationService
	createUC CreateReservationUseCase
	logger   Logger
}

func NewHandler(service ReservationService, createUC CreateReservationUseCase, logger Logger) *Handler {
	return &Handler{
		service:  service,
		createUC: createUC,
		logger:   logger,
	}
}

// actor пользователь из контекста, false - ответ 401 уже отправлен
func (h *Handler) actor(w http.ResponseWriter, r *http.Request) (models.Actor, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		handlers.RespondUnauthorized(w, msgUnauthorized)
		return models.Actor{}, false
	}
	role, _ := middleware.GetRole(r.Context())
	return models.Actor{UserID: userID, Role: role}, true
}

// pathID ID бронирования из пути, false - ответ 400 уже отправлен
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, route string) (int64, bool) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		h.logger.Warn("%s - Invalid reservation ID: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidReservationID)
		return 0, false
	}
	return id, true
}

// respondError переводит ошибки сервиса в HTTP ответ
func (h *Handler) respondError(w http.ResponseWriter, route string, id int64, err error) {
	var window *reservationsService.WindowViolationError

	switch {
	case errors.Is(err, reservationsService.ErrReservationNotFound):
		h.logger.Warn("%s - Reservation not found: reservation_id=%d", route, id)
		handlers.RespondNotFound(w, msgReservationNotFound)

	case errors.Is(err, reservationsService.ErrAccessDenied):
		h.logger.Warn("%s - Access denied: reservation_id=%d", route, id)
		handlers.RespondForbidden(w, msgAccessDenied)

	case errors.Is(err, reservationsService.ErrInvalidStatus):
		h.logger.Warn("%s - Invalid status: reservation_id=%d", route, id)
		handlers.RespondBadRequest(w, msgInvalidStatus)

	case errors.As(err, &window):
		h.logger.Warn("%s - Check-in outside window: reservation_id=%d", route, id)
		handlers.RespondErrorWithDetails(w, http.StatusUnprocessableEntity, msgWindowViolation,
			WindowDetails{AllowedFrom: window.From, AllowedTo: window.To})

	case errors.Is(err, reservationsService.ErrInvalidState):
		h.logger.Warn("%s - Invalid state: reservation_id=%d", route, id)
		handlers.RespondConflict(w, msgInvalidState)

	case errors.Is(err, reservationsService.ErrConcurrentUpdate):
		h.logger.Warn("%s - Concurrent update: reservation_id=%d", route, id)
		handlers.RespondConflict(w, msgConcurrentUpdate)

	default:
		h.logger.Error("%s - Failed: reservation_id=%d, error=%v", route, id, err)
		handlers.RespondInternalError(w)
	}
}

// respondCreateError ошибки создания бронирования
func (h *Handler) respondCreateError(w http.ResponseWriter, userID, courtID int64, err error) {
	const route = "POST /reservations"

	switch {
	case errors.Is(err, createReservation.ErrCourtNotFound):
		h.logger.Warn("%s - Court not found: court_id=%d", route, courtID)
		handlers.RespondNotFound(w, msgCourtNotFound)

	case errors.Is(err, createReservation.ErrUserNotFound):
		h.logger.Warn("%s - User not found: user_id=%d", route, userID)
		handlers.RespondNotFound(w, msgUserNotFound)

	case errors.Is(err, createReservation.ErrCourtInactive):
		h.logger.Warn("%s - Court inactive: court_id=%d", route, courtID)
		handlers.RespondConflict(w, msgCourtInactive)

	case errors.Is(err, createReservation.ErrInvalidTimeRange):
		h.logger.Warn("%s - Invalid time range: user_id=%d, court_id=%d", route, userID, courtID)
		handlers.RespondBadRequest(w, msgInvalidTimeRange)

	case errors.Is(err, createReservation.ErrStartInPast):
		h.logger.Warn("%s - Start in past: user_id=%d, court_id=%d", route, userID, courtID)
		handlers.RespondBadRequest(w, msgStartInPast)

	case errors.Is(err, createReservation.ErrInvalidInput):
		h.logger.Warn("%s - Invalid input: user_id=%d, court_id=%d, error=%v", route, userID, courtID, err)
		handlers.RespondBadRequest(w, msgInvalidInput)

	case errors.Is(err, createReservation.ErrSlotNotAvailable):
		h.logger.Warn("%s - Slot not available: user_id=%d, court_id=%d", route, userID, courtID)
		handlers.RespondConflict(w, msgSlotNotAvailable)

	case errors.Is(err, createReservation.ErrCourtUnderMaintenance):
		h.logger.Warn("%s - Court under maintenance: user_id=%d, court_id=%d", route, userID, courtID)
		handlers.RespondConflict(w, msgCourtUnderMaintenance)

	case errors.Is(err, createReservation.ErrConcurrentUpdate):
		h.logger.Warn("%s - Concurrent update: user_id=%d, court_id=%d", route, userID, courtID)
		handlers.RespondConflict(w, msgConcurrentUpdate)

	case errors.Is(err, createReservation.ErrInsufficientFunds):
		h.logger.Warn("%s - Insufficient funds: user_id=%d", route, userID)
		handlers.RespondUnprocessable(w, msgInsufficientFunds)

	default:
		h.logger.Error("%s - Failed to create reservation: user_id=%d, court_id=%d, error=%v",
			route, userID, courtID, err)
		handlers.RespondInternalError(w)
	}
}
