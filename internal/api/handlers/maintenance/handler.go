package maintenance

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-FacilityService/internal/api/handlers"
	maintenanceService "github.com/m04kA/SMC-FacilityService/internal/service/maintenance"
)

const (
	msgInvalidMaintenanceID = "некорректный ID работ"
	msgInvalidRequestBody   = "некорректное тело запроса"
	msgInvalidQuery         = "некорректные параметры запроса"
	msgUnauthorized         = "требуется авторизация"
	msgMaintenanceNotFound  = "работы не найдены"
	msgCourtNotFound        = "корт не найден"
	msgAssigneeInvalid      = "исполнитель должен быть сотрудником"
	msgSchedulingConflict   = "окно работ пересекается с другими работами на корте"
	msgImmutableState       = "завершённые работы изменять нельзя"
	msgInvalidState         = "операция недоступна в текущем статусе работ"
	msgInvalidInput         = "некорректные данные работ"
	msgConcurrentUpdate     = "работы изменены параллельно, повторите запрос"
)

type Handler struct {
	service MaintenanceService
	logger  Logger
}

func NewHandler(service MaintenanceService, logger Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, route string) (int64, bool) {
	id, err := handlers.PathID(r, "id")
	if err != nil {
		h.logger.Warn("%s - Invalid maintenance ID: %v", route, err)
		handlers.RespondBadRequest(w, msgInvalidMaintenanceID)
		return 0, false
	}
	return id, true
}

func (h *Handler) respondError(w http.ResponseWriter, route string, id int64, err error) {
	switch {
	case errors.Is(err, maintenanceService.ErrMaintenanceNotFound):
		h.logger.Warn("%s - Maintenance not found: maintenance_id=%d", route, id)
		handlers.RespondNotFound(w, msgMaintenanceNotFound)

	case errors.Is(err, maintenanceService.ErrCourtNotFound):
		h.logger.Warn("%s - Court not found: maintenance_id=%d", route, id)
		handlers.RespondNotFound(w, msgCourtNotFound)

	case errors.Is(err, maintenanceService.ErrInvalidInput):
		h.logger.Warn("%s - Invalid input: maintenance_id=%d, error=%v", route, id, err)
		handlers.RespondBadRequest(w, msgInvalidInput)

	case errors.Is(err, maintenanceService.ErrAssigneeInvalid):
		h.logger.Warn("%s - Invalid assignee: maintenance_id=%d", route, id)
		handlers.RespondUnprocessable(w, msgAssigneeInvalid)

	case errors.Is(err, maintenanceService.ErrSchedulingConflict):
		h.logger.Warn("%s - Scheduling conflict: maintenance_id=%d", route, id)
		handlers.RespondConflict(w, msgSchedulingConflict)

	case errors.Is(err, maintenanceService.ErrImmutableState):
		h.logger.Warn("%s - Immutable state: maintenance_id=%d", route, id)
		handlers.RespondConflict(w, msgImmutableState)

	case errors.Is(err, maintenanceService.ErrInvalidState):
		h.logger.Warn("%s - Invalid state: maintenance_id=%d", route, id)
		handlers.RespondConflict(w, msgInvalidState)

	case errors.Is(err, maintenanceService.ErrConcurrentUpdate):
		h.logger.Warn("%s - Concurrent update: maintenance_id=%d", route, id)
		handlers.RespondConflict(w, msgConcurrentUpdate)

	default:
		h.logger.Error("%s - Failed: maintenance_id=%d, error=%v", route, id, err)
		handlers.RespondInternalError(w)
	}
}
