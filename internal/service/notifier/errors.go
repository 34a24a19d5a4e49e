package notifier

import "errors"

var (
	// ErrEncodePayload возвращается, если данные уведомления не сериализуются в JSON
	ErrEncodePayload = errors.New("notifier: failed to encode payload")

	// ErrEnqueue возвращается при ошибке записи в outbox
	ErrEnqueue = errors.New("notifier: failed to enqueue notification")
)
