package tariffs

import "errors"

var (
	// ErrTariffNotFound возвращается, когда тариф не найден
	ErrTariffNotFound = errors.New("tariff not found")

	// ErrSegmentTaken возвращается, когда у сегмента уже есть активный тариф
	ErrSegmentTaken = errors.New("active tariff for this segment already exists")

	// ErrCourtNotFound возвращается, когда в списке кортов есть несуществующий корт
	ErrCourtNotFound = errors.New("court not found")

	// ErrTariffInUse возвращается при удалении тарифа, на который ссылаются заявки
	ErrTariffInUse = errors.New("tariff has enrollments and cannot be deleted")

	// ErrInvalidInput возвращается при невалидных входных данных
	ErrInvalidInput = errors.New("invalid input")

	// ErrConcurrentUpdate возвращается при конфликте сериализуемых транзакций
	ErrConcurrentUpdate = errors.New("tariff was modified concurrently")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("service: internal error")
)
