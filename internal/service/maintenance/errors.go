package maintenance

import "errors"

var (
	// ErrMaintenanceNotFound возвращается, когда работы не найдены
	ErrMaintenanceNotFound = errors.New("maintenance not found")

	// ErrCourtNotFound возвращается, когда корт не найден
	ErrCourtNotFound = errors.New("court not found")

	// ErrAssigneeInvalid возвращается, когда исполнитель не найден или не является сотрудником
	ErrAssigneeInvalid = errors.New("assignee must be an existing STAFF or ADMIN user")

	// ErrSchedulingConflict возвращается при пересечении с активным окном работ на корте
	ErrSchedulingConflict = errors.New("maintenance window conflicts with existing maintenance")

	// ErrImmutableState возвращается при изменении завершённых работ
	ErrImmutableState = errors.New("completed maintenance cannot be modified")

	// ErrInvalidState возвращается, когда операция недопустима в текущем статусе
	ErrInvalidState = errors.New("operation not allowed in current maintenance status")

	// ErrInvalidInput возвращается при невалидных входных данных
	ErrInvalidInput = errors.New("invalid input")

	// ErrConcurrentUpdate возвращается при конфликте сериализуемых транзакций
	ErrConcurrentUpdate = errors.New("maintenance was modified concurrently")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
