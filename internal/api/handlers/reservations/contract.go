package reservations

import (
	"context"

	"github.com/m04kA/SMC-FacilityService/internal/service/reservations/models"
	createReservation "github.com/m04kA/SMC-FacilityService/internal/usecase/create_reservation"
)

type ReservationService interface {
	GetByID(ctx context.Context, id int64, actor models.Actor) (*models.ReservationResponse, error)
	GetHistory(ctx context.Context, id int64, actor models.Actor) ([]models.StatusChangeResponse, error)
	CheckIn(ctx context.Context, id int64, actor models.Actor) (*models.ReservationResponse, error)
	CheckOut(ctx context.Context, id int64, actor models.Actor) (*models.ReservationResponse, error)
	ConfirmPayment(ctx context.Context, id int64, actor models.Actor) (*models.ReservationResponse, error)
	Cancel(ctx context.Context, id int64, actor models.Actor, reason string) (*models.ReservationResponse, error)
	MarkNoShow(ctx context.Context, id int64, actor models.Actor) (*models.ReservationResponse, error)
	AdminSetStatus(ctx context.Context, id int64, actor models.Actor, req *models.AdminStatusRequest) (*models.ReservationResponse, error)
	Refund(ctx context.Context, id int64, actor models.Actor, reason *string) (*models.ReservationResponse, error)
	ResendConfirmation(ctx context.Context, id int64, actor models.Actor) error
	SendPaymentLink(ctx context.Context, id int64, actor models.Actor) error
}

type CreateReservationUseCase interface {
	Execute(ctx context.Context, req *createReservation.Request) (*models.ReservationResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
