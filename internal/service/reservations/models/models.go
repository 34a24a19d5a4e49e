package models

import (
	"time"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
)

// Actor пользователь, выполняющий операцию
type Actor struct {
	UserID int64
	Role   domain.Role
}

// IsStaff STAFF или ADMIN
func (a Actor) IsStaff() bool {
	return a.Role == domain.RoleStaff || a.Role == domain.RoleAdmin
}

// AdminStatusRequest запрос на ручную смену статуса
type AdminStatusRequest struct {
	Status string
	Reason *string
}

// Response модели

// ReservationResponse ответ с данными бронирования
type ReservationResponse struct {
	ID            int64      `json:"id"`
	CourtID       int64      `json:"courtId"`
	UserID        int64      `json:"userId"`
	StartTime     time.Time  `json:"startTime"`
	EndTime       time.Time  `json:"endTime"`
	Status        string     `json:"status"`
	PaymentStatus string     `json:"paymentStatus"`
	TotalPrice    float64    `json:"totalPrice"`
	WalletAmount  float64    `json:"walletAmount"`
	CheckInAt     *time.Time `json:"checkInAt,omitempty"`
	CheckOutAt    *time.Time `json:"checkOutAt,omitempty"`
	Notes         *string    `json:"notes,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

// StatusChangeResponse строка истории статусов
type StatusChangeResponse struct {
	OldStatus *string   `json:"oldStatus"`
	NewStatus string    `json:"newStatus"`
	ActorID   *int64    `json:"actorId,omitempty"`
	Override  bool      `json:"override"`
	Reason    *string   `json:"reason,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}

// FromDomainReservation конвертирует domain модель в DTO
func FromDomainReservation(r *domain.Reservation) *ReservationResponse {
	if r == nil {
		return nil
	}

	return &ReservationResponse{
		ID:            r.ID,
		CourtID:       r.CourtID,
		UserID:        r.UserID,
		StartTime:     r.StartTime,
		EndTime:       r.EndTime,
		Status:        string(r.Status),
		PaymentStatus: string(r.PaymentStatus),
		TotalPrice:    r.TotalPrice,
		WalletAmount:  r.WalletAmount,
		CheckInAt:     r.CheckInAt,
		CheckOutAt:    r.CheckOutAt,
		Notes:         r.Notes,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

// FromDomainHistory конвертирует историю статусов
func FromDomainHistory(changes []*domain.ReservationStatusChange) []StatusChangeResponse {
	resp := make([]StatusChangeResponse, 0, len(changes))
	for _, c := range changes {
		item := StatusChangeResponse{
			NewStatus: string(c.NewStatus),
			ActorID:   c.ActorID,
			Override:  c.Override,
			Reason:    c.Reason,
			CreatedAt: c.CreatedAt,
		}
		if c.OldStatus != nil {
			old := string(*c.OldStatus)
			item.OldStatus = &old
		}
		resp = append(resp, item)
	}
	return resp
}
