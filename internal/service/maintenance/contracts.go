package maintenance

import (
	"context"
	"time"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
)

// MaintenanceRepository интерфейс репозитория работ по обслуживанию
type MaintenanceRepository interface {
	Create(ctx context.Context, m *domain.Maintenance) (*domain.Maintenance, error)
	GetByID(ctx context.Context, id int64) (*domain.Maintenance, error)
	GetConflictCandidates(ctx context.Context, courtID int64, start, searchEnd time.Time, excludeID *int64) ([]*domain.Maintenance, error)
	Update(ctx context.Context, m *domain.Maintenance) error
	List(ctx context.Context, filter domain.MaintenanceFilter) ([]*domain.Maintenance, int, error)
	GetStats(ctx context.Context, now time.Time) (*domain.MaintenanceStats, error)
}

// CourtRepository интерфейс репозитория кортов
type CourtRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Court, error)
}

// UserRepository интерфейс репозитория пользователей (проверка исполнителя)
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
