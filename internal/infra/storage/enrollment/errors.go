package enrollment

import "errors"

var (
	// ErrEnrollmentNotFound возвращается, когда заявка не найдена
	ErrEnrollmentNotFound = errors.New("enrollment.repository: enrollment not found")

	// ErrDuplicateEnrollment возвращается при нарушении уникальности активной заявки
	ErrDuplicateEnrollment = errors.New("enrollment.repository: active enrollment already exists")

	// ErrBuildQuery возвращается при ошибке построения SQL запроса
	ErrBuildQuery = errors.New("enrollment.repository: failed to build query")

	// ErrExecQuery возвращается при ошибке выполнения SQL запроса
	ErrExecQuery = errors.New("enrollment.repository: failed to execute query")

	// ErrScanRow возвращается при ошибке сканирования результата запроса
	ErrScanRow = errors.New("enrollment.repository: failed to scan row")
)
