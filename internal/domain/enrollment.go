package domain

import (
	"fmt"
	"time"
)

// EnrollmentStatus статус заявки на тариф
type EnrollmentStatus string

const (
	EnrollmentPending  EnrollmentStatus = "PENDING"
	EnrollmentApproved EnrollmentStatus = "APPROVED"
	EnrollmentRejected EnrollmentStatus = "REJECTED"
)

func ParseEnrollmentStatus(s string) (EnrollmentStatus, error) {
	switch st := EnrollmentStatus(s); st {
	case EnrollmentPending, EnrollmentApproved, EnrollmentRejected:
		return st, nil
	}
	return "", fmt.Errorf("unknown enrollment status %q", s)
}

// TariffEnrollment заявка пользователя на возрастной тариф
type TariffEnrollment struct {
	ID          int64
	UserID      int64
	TariffID    int64
	Status      EnrollmentStatus
	RequestedAt time.Time
	ApprovedAt  *time.Time
	ApprovedBy  *int64
	Notes       *string

	// Заполняются при выборке списка
	Segment *TariffSegment

	CreatedAt time.Time
	UpdatedAt time.Time
}

// EnrollmentAudit неизменяемая запись об изменении статуса заявки
type EnrollmentAudit struct {
	ID           int64
	EnrollmentID int64
	OldStatus    *EnrollmentStatus // nil для создания заявки
	NewStatus    EnrollmentStatus
	ActorID      *int64
	Notes        *string // снимок notes на момент изменения
	CreatedAt    time.Time
}

// EnrollmentFilter фильтр списка заявок
type EnrollmentFilter struct {
	Status  *EnrollmentStatus
	UserID  *int64
	Segment *TariffSegment
	Page    int
	Limit   int
}
