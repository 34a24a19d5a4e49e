package create_reservation

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
)

// validateRequest валидирует входные данные запроса
func validateRequest(req *Request) error {
	if req.UserID <= 0 {
		return fmt.Errorf("%w: userID must be positive", ErrInvalidInput)
	}

	if req.CourtID <= 0 {
		return fmt.Errorf("%w: courtID must be positive", ErrInvalidInput)
	}

	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		return fmt.Errorf("%w: startTime and endTime are required", ErrInvalidInput)
	}

	if req.TotalPrice < 0 {
		return fmt.Errorf("%w: totalPrice must not be negative", ErrInvalidInput)
	}

	if req.WalletAmount < 0 || req.WalletAmount > req.TotalPrice {
		return fmt.Errorf("%w: walletAmount must be between 0 and totalPrice", ErrInvalidInput)
	}

	if req.Notes != nil && len(*req.Notes) > domain.MaxNotesLength {
		return fmt.Errorf("%w: notes too long", ErrInvalidInput)
	}

	return nil
}

// validateTimeRange проверяет интервал бронирования относительно текущего времени
func validateTimeRange(start, end, now time.Time) error {
	if !end.After(start) {
		return fmt.Errorf("%w: endTime must be after startTime", ErrInvalidTimeRange)
	}

	if end.Sub(start) > domain.MaxReservationMinutes*time.Minute {
		return fmt.Errorf("%w: reservation longer than %d minutes", ErrInvalidTimeRange, domain.MaxReservationMinutes)
	}

	if start.Before(now) {
		return ErrStartInPast
	}

	return nil
}
