package pgerrors

import (
	"errors"
	"strings"

	"github.com/lib/pq"
)

// SQLSTATE коды, которые обрабатываются явно
const (
	CodeUniqueViolation      = "23505"
	CodeForeignKeyViolation  = "23503"
	CodeSerializationFailure = "40001"
)

// Code возвращает SQLSTATE из цепочки ошибок или пустую строку
func Code(err error) string {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return string(pqErr.Code)
	}
	return ""
}

// IsUniqueViolation нарушение уникального индекса
func IsUniqueViolation(err error) bool {
	return err != nil && Code(err) == CodeUniqueViolation
}

// IsForeignKeyViolation на строку ещё ссылаются другие таблицы
func IsForeignKeyViolation(err error) bool {
	return err != nil && Code(err) == CodeForeignKeyViolation
}

// IsSerializationFailure конфликт сериализуемых транзакций
// Репозитории оборачивают ошибки через %v, поэтому дополнительно проверяется текст
func IsSerializationFailure(err error) bool {
	if err == nil {
		return false
	}
	if code := Code(err); code != "" {
		return code == CodeSerializationFailure
	}
	return strings.Contains(err.Error(), "could not serialize access")
}
