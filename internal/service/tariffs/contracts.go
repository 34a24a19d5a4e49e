package tariffs

import (
	"context"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
)

// TariffRepository интерфейс репозитория тарифов
type TariffRepository interface {
	Create(ctx context.Context, t *domain.AgeBasedTariff) (*domain.AgeBasedTariff, error)
	GetByID(ctx context.Context, id int64) (*domain.AgeBasedTariff, error)
	GetActiveBySegment(ctx context.Context, segment domain.TariffSegment, excludeID *int64) (*domain.AgeBasedTariff, error)
	List(ctx context.Context, filter domain.TariffFilter) ([]*domain.AgeBasedTariff, error)
	Update(ctx context.Context, t *domain.AgeBasedTariff) error
	Delete(ctx context.Context, id int64) error
	ReplaceCourts(ctx context.Context, tariffID int64, courtIDs []int64) error
}

// CourtRepository проверка существования кортов
type CourtRepository interface {
	CountExisting(ctx context.Context, ids []int64) (int, error)
}

// EnrollmentRepository подсчёт действующих заявок на тариф
type EnrollmentRepository interface {
	CountActiveByTariff(ctx context.Context, tariffID int64) (int, error)
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
	DoSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
