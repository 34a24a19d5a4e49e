package reservations

import (
	"context"
	"time"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
)

// ReservationRepository интерфейс репозитория бронирований
type ReservationRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Reservation, error)
	Update(ctx context.Context, res *domain.Reservation) error
	AddStatusChange(ctx context.Context, change *domain.ReservationStatusChange) error
	GetStatusHistory(ctx context.Context, reservationID int64) ([]*domain.ReservationStatusChange, error)
}

// CourtRepository интерфейс репозитория кортов
type CourtRepository interface {
	GetByID(ctx context.Context, id int64) (*domain.Court, error)
}

// WalletRepository операции с кошельком пользователя
type WalletRepository interface {
	AdjustWalletBalance(ctx context.Context, userID int64, delta float64) error
	AddWalletTransaction(ctx context.Context, tx *domain.WalletTransaction) error
}

// Notifier постановка уведомлений в outbox
type Notifier interface {
	Enqueue(ctx context.Context, template domain.NotificationTemplate, recipientID *int64, data interface{}) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
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
