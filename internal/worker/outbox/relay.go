package outbox

import (
	"context"
	"fmt"
	"time"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
	"github.com/m04kA/SMC-FacilityService/pkg/metrics"
)

// Repository интерфейс репозитория outbox
type Repository interface {
	FetchPending(ctx context.Context, limit, maxAttempts int) ([]*domain.Notification, error)
	MarkPublished(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

// Publisher интерфейс брокера сообщений
type Publisher interface {
	PublishJSON(ctx context.Context, key string, messageID string, v any) error
}

// TransactionManager интерфейс для управления транзакциями
type TransactionManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Config параметры реле
type Config struct {
	PollInterval time.Duration
	BatchSize    int
	MaxAttempts  int
}

// Relay периодически публикует сообщения из outbox в RabbitMQ (at-least-once)
type Relay struct {
	repo      Repository
	publisher Publisher
	txManager TransactionManager
	metrics   *metrics.Metrics
	logger    Logger
	cfg       Config
}

func NewRelay(repo Repository, publisher Publisher, txManager TransactionManager, m *metrics.Metrics, logger Logger, cfg Config) *Relay {
	return &Relay{
		repo:      repo,
		publisher: publisher,
		txManager: txManager,
		metrics:   m,
		logger:    logger,
		cfg:       cfg,
	}
}

// Run крутит цикл публикации до отмены контекста
func (r *Relay) Run(ctx context.Context) {
	r.logger.Info("OutboxRelay: started, interval=%s batch=%d", r.cfg.PollInterval, r.cfg.BatchSize)

	ticker := time.NewTicker(r.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("OutboxRelay: stopped")
			return
		case <-ticker.C:
			if _, err := r.RunOnce(ctx); err != nil {
				r.logger.Error("OutboxRelay: batch failed: %v", err)
			}
		}
	}
}

// RunOnce публикует одну пачку сообщений и возвращает число опубликованных
// Ошибка публикации отдельного сообщения не прерывает пачку
func (r *Relay) RunOnce(ctx context.Context) (int, error) {
	published := 0

	err := r.txManager.Do(ctx, func(txCtx context.Context) error {
		batch, err := r.repo.FetchPending(txCtx, r.cfg.BatchSize, r.cfg.MaxAttempts)
		if err != nil {
			return fmt.Errorf("fetch pending: %w", err)
		}

		for _, msg := range batch {
			key := "notification." + string(msg.Template)

			if err := r.publisher.PublishJSON(txCtx, key, msg.ID, msg.Payload); err != nil {
				r.logger.Warn("OutboxRelay: publish id=%s template=%s attempt=%d failed: %v",
					msg.ID, msg.Template, msg.Attempts+1, err)
				if r.metrics != nil {
					r.metrics.OutboxFailedTotal.WithLabelValues(string(msg.Template)).Inc()
				}
				if err := r.repo.MarkFailed(txCtx, msg.ID, err.Error()); err != nil {
					return fmt.Errorf("mark failed id=%s: %w", msg.ID, err)
				}
				continue
			}

			if err := r.repo.MarkPublished(txCtx, msg.ID); err != nil {
				return fmt.Errorf("mark published id=%s: %w", msg.ID, err)
			}
			if r.metrics != nil {
				r.metrics.OutboxPublishedTotal.WithLabelValues(string(msg.Template)).Inc()
			}
			published++
		}

		return nil
	})
	if err != nil {
		return 0, err
	}

	if published > 0 {
		r.logger.Info("OutboxRelay: published %d notifications", published)
	}
	return published, nil
}
