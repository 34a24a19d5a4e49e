package notifier

import (
	"context"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
)

// OutboxRepository интерфейс репозитория outbox
type OutboxRepository interface {
	Insert(ctx context.Context, n *domain.Notification) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
