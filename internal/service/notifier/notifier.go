package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
)

// Notifier кладёт уведомления в outbox. Доставкой занимается worker/outbox
type Notifier struct {
	repo   OutboxRepository
	logger Logger
	newID  func() string
}

func NewNotifier(repo OutboxRepository, logger Logger) *Notifier {
	return &Notifier{
		repo:   repo,
		logger: logger,
		newID:  func() string { return uuid.NewString() },
	}
}

// Enqueue записывает уведомление в outbox
// Если в контексте есть транзакция, запись попадает в неё и фиксируется вместе с изменением состояния
func (n *Notifier) Enqueue(ctx context.Context, template domain.NotificationTemplate, recipientID *int64, data interface{}) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrEncodePayload, template, err)
	}

	msg := &domain.Notification{
		ID:          n.newID(),
		Template:    template,
		RecipientID: recipientID,
		Payload:     payload,
	}

	if err := n.repo.Insert(ctx, msg); err != nil {
		n.logger.Error("Enqueue: failed to store notification template=%s: %v", template, err)
		return fmt.Errorf("%w: %v", ErrEnqueue, err)
	}

	n.logger.Info("Enqueue: notification id=%s template=%s queued", msg.ID, template)
	return nil
}
