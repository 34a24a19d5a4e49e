package models

import (
	"time"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
)

// CreateRequest заявка текущего пользователя на тариф
type CreateRequest struct {
	UserID   int64
	TariffID int64
	Notes    *string
}

// ListRequest фильтры и пагинация списка заявок
type ListRequest struct {
	Status  *string
	UserID  *int64
	Segment *string
	Page    int
	Limit   int
}

// EnrollmentResponse ответ с данными заявки
type EnrollmentResponse struct {
	ID          int64      `json:"id"`
	UserID      int64      `json:"userId"`
	TariffID    int64      `json:"tariffId"`
	Segment     *string    `json:"segment,omitempty"`
	Status      string     `json:"status"`
	RequestedAt time.Time  `json:"requestedAt"`
	ApprovedAt  *time.Time `json:"approvedAt,omitempty"`
	ApprovedBy  *int64     `json:"approvedBy,omitempty"`
	Notes       *string    `json:"notes,omitempty"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ListResponse страница заявок
type ListResponse struct {
	Items []*EnrollmentResponse `json:"items"`
	Total int                   `json:"total"`
	Page  int                   `json:"page"`
	Limit int                   `json:"limit"`
	Pages int                   `json:"pages"`
}

// AuditResponse запись истории заявки
type AuditResponse struct {
	OldStatus *string   `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
	ActorID   *int64    `json:"actorId,omitempty"`
	Notes     *string   `json:"notes,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromDomainEnrollment конвертирует domain модель в DTO
func FromDomainEnrollment(e *domain.TariffEnrollment) *EnrollmentResponse {
	if e == nil {
		return nil
	}

	resp := &EnrollmentResponse{
		ID:          e.ID,
		UserID:      e.UserID,
		TariffID:    e.TariffID,
		Status:      string(e.Status),
		RequestedAt: e.RequestedAt,
		ApprovedAt:  e.ApprovedAt,
		ApprovedBy:  e.ApprovedBy,
		Notes:       e.Notes,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
	}
	if e.Segment != nil {
		seg := string(*e.Segment)
		resp.Segment = &seg
	}

	return resp
}

// FromDomainAudit конвертирует историю заявки
func FromDomainAudit(rows []*domain.EnrollmentAudit) []AuditResponse {
	out := make([]AuditResponse, 0, len(rows))
	for _, a := range rows {
		item := AuditResponse{
			NewStatus: string(a.NewStatus),
			ActorID:   a.ActorID,
			Notes:     a.Notes,
			CreatedAt: a.CreatedAt,
		}
		if a.OldStatus != nil {
			old := string(*a.OldStatus)
			item.OldStatus = &old
		}
		out = append(out, item)
	}
	return out
}
