package create_reservation

import (
	"context"
	"time"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	Create(ctx context.Context, res *domain.Reservation) (*domain.Reservation, error)
	GetActiveOverlapping(ctx context.Context, courtID int64, start, end time.Time) ([]*domain.Reservation, error)
	AddStatusChange(ctx context.Context, change *domain.ReservationStatusChange) error
}

// MaintenanceRepository интерфейс репозитория работ по обслуживанию
type MaintenanceRepository interface {
	GetConflictCandidates(ctx context.Context, courtID int64, start, searchEnd time.Time, excludeID *int64) ([]*domain.Maintenance, error)
}

// CourtRepository интерфейс репозитория кортов
type CourtRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Court, error)
}

// UserRepository интерфейс репозитория пользователей
type UserRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	AdjustWalletBalance(ctx context.Context, userID int64, delta float64) error
	AddWalletTransaction(ctx context.Context, tx *domain.WalletTransaction) error
}

// Notifier постановка уведомлений в outbox
type Notifier interface {
	Enqueue(ctx context.Context, template domain.NotificationTemplate, recipientID *int64, data interface{}) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
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
