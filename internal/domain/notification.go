package domain

import (
	"encoding/json"
	"time"
)

// NotificationTemplate имя шаблона уведомления
type NotificationTemplate string

const (
	TemplateReservationCreated      NotificationTemplate = "reservation_created"
	TemplateReservationConfirmation NotificationTemplate = "reservation_confirmation"
	TemplatePaymentLink             NotificationTemplate = "payment_link"
	TemplateReservationCancelled    NotificationTemplate = "reservation_cancelled"
	TemplateReservationRefunded     NotificationTemplate = "reservation_refunded"
	TemplateReservationStatus       NotificationTemplate = "reservation_status_changed"
	TemplateMaintenanceScheduled    NotificationTemplate = "maintenance_scheduled"
	TemplateMaintenanceCompleted    NotificationTemplate = "maintenance_completed"
	TemplateEnrollmentApproved      NotificationTemplate = "enrollment_approved"
	TemplateEnrollmentRejected      NotificationTemplate = "enrollment_rejected"
)

// Notification сообщение в outbox
type Notification struct {
	ID          string // uuid, он же MessageId в AMQP
	Template    NotificationTemplate
	RecipientID *int64
	Payload     json.RawMessage
	Attempts    int
	LastError   *string
	PublishedAt *time.Time
	CreatedAt   time.Time
}
