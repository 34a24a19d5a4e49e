package reservations

import (
	"time"

	"github.com/m04kA/SMC-FacilityService/internal/service/reservations/models"
	createReservation "github.com/m04kA/SMC-FacilityService/internal/usecase/create_reservation"
)

// CreateReservationRequest тело POST /reservations
type CreateReservationRequest struct {
	CourtID      int64     `json:"courtId" validate:"required,gt=0"`
	StartTime    time.Time `json:"startTime" validate:"required"`
	EndTime      time.Time `json:"endTime" validate:"required,gtfield=StartTime"`
	TotalPrice   float64   `json:"totalPrice" validate:"gte=0"`
	WalletAmount float64   `json:"walletAmount" validate:"gte=0,ltefield=TotalPrice"`
	Notes        *string   `json:"notes,omitempty" validate:"omitempty,max=1000"`
}

// ToUseCaseRequest владелец берётся из токена, а не из тела
func (r *CreateReservationRequest) ToUseCaseRequest(userID int64) *createReservation.Request {
	return &createReservation.Request{
		UserID:       userID,
		CourtID:      r.CourtID,
		StartTime:    r.StartTime,
		EndTime:      r.EndTime,
		TotalPrice:   r.TotalPrice,
		WalletAmount: r.WalletAmount,
		Notes:        r.Notes,
	}
}

// CancelRequest тело POST /reservations/{id}/cancel, можно не передавать
type CancelRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// AdminStatusRequest тело PATCH /admin/reservations/{id}/status
type AdminStatusRequest struct {
	Status string  `json:"status" validate:"required"`
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

func (r *AdminStatusRequest) ToServiceRequest() *models.AdminStatusRequest {
	return &models.AdminStatusRequest{Status: r.Status, Reason: r.Reason}
}

// RefundRequest тело POST /admin/reservations/{id}/refund
type RefundRequest struct {
	Reason *string `json:"reason,omitempty" validate:"omitempty,max=500"`
}

// WindowDetails допустимое окно check-in в ответе 422
type WindowDetails struct {
	AllowedFrom time.Time `json:"allowedFrom"`
	AllowedTo   time.Time `json:"allowedTo"`
}

// MessageResponse ответ для операций без тела ресурса
type MessageResponse struct {
	Message string `json:"message"`
}
