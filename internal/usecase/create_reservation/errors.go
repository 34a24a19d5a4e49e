package create_reservation

import "errors"

var (
	// ErrCourtNotFound возвращается, когда корт не найден
	ErrCourtNotFound = errors.New("create_reservation: court not found")

	// ErrCourtInactive возвращается, когда корт выведен из эксплуатации
	ErrCourtInactive = errors.New("create_reservation: court is not active")

	// ErrUserNotFound возвращается, когда пользователь не найден
	ErrUserNotFound = errors.New("create_reservation: user not found")

	// ErrInvalidTimeRange возвращается, когда конец раньше начала или интервал слишком длинный
	ErrInvalidTimeRange = errors.New("create_reservation: invalid time range")

	// ErrStartInPast возвращается при попытке забронировать время в прошлом
	ErrStartInPast = errors.New("create_reservation: start time is in the past")

	// ErrSlotNotAvailable возвращается, когда интервал пересекается с другим бронированием
	ErrSlotNotAvailable = errors.New("create_reservation: slot is not available")

	// ErrCourtUnderMaintenance возвращается, когда на интервал запланировано обслуживание корта
	ErrCourtUnderMaintenance = errors.New("create_reservation: court is under maintenance")

	// ErrInsufficientFunds возвращается, когда на кошельке не хватает средств
	ErrInsufficientFunds = errors.New("create_reservation: insufficient wallet balance")

	// ErrConcurrentUpdate возвращается при конфликте сериализуемых транзакций
	ErrConcurrentUpdate = errors.New("create_reservation: concurrent update, retry the request")

	// ErrInvalidInput возвращается при некорректных входных данных
	ErrInvalidInput = errors.New("create_reservation: invalid input data")

	// ErrInternal возвращается при внутренних ошибках usecase
	ErrInternal = errors.New("create_reservation: internal error")
)
