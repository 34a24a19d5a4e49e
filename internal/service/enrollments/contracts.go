package enrollments

import (
	"context"
	"time"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
)

// EnrollmentRepository интерфейс репозитория заявок
type EnrollmentRepository interface {
	Create(ctx context.Context, e *domain.TariffEnrollment) (*domain.TariffEnrollment, error)
	GetByID(ctx context.Context, id int64) (*domain.TariffEnrollment, error)
	HasActive(ctx context.Context, userID, tariffID int64) (bool, error)
	UpdateStatus(ctx context.Context, e *domain.TariffEnrollment) error
	AddAudit(ctx context.Context, a *domain.EnrollmentAudit) error
	GetAudit(ctx context.Context, enrollmentID int64) ([]*domain.EnrollmentAudit, error)
	List(ctx context.Context, filter domain.EnrollmentFilter) ([]*domain.TariffEnrollment, int, error)
}

// TariffRepository интерфейс репозитория тарифов
type TariffRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.AgeBasedTariff, error)
}

// UserRepository интерфейс репозитория пользователей
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
}

// Notifier постановка уведомлений в outbox
type Notifier interface {
	Enqueue(ctx context.Context, template domain.NotificationTemplate, recipientID *int64, data interface{}) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
	DoReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
