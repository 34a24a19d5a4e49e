package enrollments

import "errors"

var (
	// ErrEnrollmentNotFound возвращается, когда заявка не найдена
	ErrEnrollmentNotFound = errors.New("enrollment not found")

	// ErrTariffNotFound возвращается, когда тариф не найден
	ErrTariffNotFound = errors.New("tariff not found")

	// ErrUserNotFound возвращается, когда пользователь не найден
	ErrUserNotFound = errors.New("user not found")

	// ErrMissingData возвращается, когда у пользователя не указана дата рождения
	ErrMissingData = errors.New("user date of birth is required")

	// ErrTariffInactive возвращается, когда тариф неактивен или вне срока действия
	ErrTariffInactive = errors.New("tariff is not active")

	// ErrDuplicateRequest возвращается при наличии PENDING или APPROVED заявки на тот же тариф
	ErrDuplicateRequest = errors.New("active enrollment for this tariff already exists")

	// ErrAgeIneligible возвращается, когда возраст вне диапазона тарифа
	ErrAgeIneligible = errors.New("user age is outside tariff age band")

	// ErrInvalidInput возвращается при невалидных входных данных
	ErrInvalidInput = errors.New("invalid input")

	// ErrConcurrentUpdate возвращается при конфликте сериализуемых транзакций
	ErrConcurrentUpdate = errors.New("enrollment was modified concurrently")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
