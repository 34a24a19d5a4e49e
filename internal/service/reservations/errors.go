package reservations

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrReservationNotFound возвращается, когда бронирование не найдено
	ErrReservationNotFound = errors.New("reservation not found")

	// ErrAccessDenied возвращается, когда пользователь не владелец и не сотрудник
	ErrAccessDenied = errors.New("access denied")

	// ErrInvalidStatus возвращается при значении статуса вне перечисления
	ErrInvalidStatus = errors.New("invalid reservation status")

	// ErrInvalidState возвращается, когда операция недопустима в текущем состоянии
	ErrInvalidState = errors.New("operation not allowed in current reservation state")

	// ErrWindowViolation возвращается при check-in вне допустимого окна
	ErrWindowViolation = errors.New("check-in outside allowed window")

	// ErrConcurrentUpdate возвращается при конфликте сериализуемых транзакций
	ErrConcurrentUpdate = errors.New("reservation was modified concurrently")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)

// WindowViolationError check-in вне окна, содержит допустимый диапазон
type WindowViolationError struct {
	From time.Time
	To   time.Time
}

func (e *WindowViolationError) Error() string {
	return fmt.Sprintf("%s: allowed from %s to %s",
		ErrWindowViolation, e.From.Format(time.RFC3339), e.To.Format(time.RFC3339))
}

func (e *WindowViolationError) Is(target error) bool {
	return target == ErrWindowViolation
}
