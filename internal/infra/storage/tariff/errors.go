package tariff

import "errors"

var (
	// ErrTariffNotFound возвращается, когда тариф не найден
	ErrTariffNotFound = errors.New("tariff.repository: tariff not found")

	// ErrSegmentTaken возвращается при нарушении уникальности активного тарифа сегмента
	ErrSegmentTaken = errors.New("tariff.repository: active tariff for segment already exists")

	// ErrTariffReferenced возвращается, когда на тариф ссылаются заявки
	ErrTariffReferenced = errors.New("tariff.repository: tariff is referenced by enrollments")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("tariff.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("tariff.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("tariff.repository: failed to scan row")
)
