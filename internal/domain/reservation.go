package domain

import (
	"fmt"
	"time"
)

// ReservationStatus статус бронирования корта
type ReservationStatus string

const (
	ReservationPending    ReservationStatus = "PENDING"
	ReservationPaid       ReservationStatus = "PAID"
	ReservationInProgress ReservationStatus = "IN_PROGRESS"
	ReservationCompleted  ReservationStatus = "COMPLETED"
	ReservationCancelled  ReservationStatus = "CANCELLED"
	ReservationNoShow     ReservationStatus = "NO_SHOW"
)

// PaymentStatus статус оплаты бронирования
type PaymentStatus string

const (
	PaymentPending  PaymentStatus = "PENDING"
	PaymentPaid     PaymentStatus = "PAID"
	PaymentRefunded PaymentStatus = "REFUNDED"
	PaymentFailed   PaymentStatus = "FAILED"
)

// reservationTransitions штатные переходы статусов
// Админская правка статуса может выйти за пределы графа, такой переход помечается override
var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationPending:    {ReservationPaid, ReservationInProgress, ReservationCancelled},
	ReservationPaid:       {ReservationInProgress, ReservationCancelled, ReservationNoShow},
	ReservationInProgress: {ReservationCompleted},
	ReservationCompleted:  {},
	ReservationCancelled:  {},
	ReservationNoShow:     {},
}

// ParseReservationStatus принимает только шесть известных значений
func ParseReservationStatus(s string) (ReservationStatus, error) {
	status := ReservationStatus(s)
	if _, ok := reservationTransitions[status]; !ok {
		return "", fmt.Errorf("unknown reservation status %q", s)
	}
	return status, nil
}

// CanTransitionTo проверяет, есть ли переход в графе статусов
func (s ReservationStatus) CanTransitionTo(next ReservationStatus) bool {
	for _, allowed := range reservationTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// IsTerminal true для COMPLETED, CANCELLED, NO_SHOW
func (s ReservationStatus) IsTerminal() bool {
	return len(reservationTransitions[s]) == 0
}

// ActiveReservationStatuses статусы, занимающие корт
var ActiveReservationStatuses = []ReservationStatus{
	ReservationPending,
	ReservationPaid,
	ReservationInProgress,
}

// Reservation бронирование корта
type Reservation struct {
	ID            int64
	CourtID       int64
	UserID        int64
	StartTime     time.Time
	EndTime       time.Time
	Status        ReservationStatus
	PaymentStatus PaymentStatus
	TotalPrice    float64
	WalletAmount  float64 // часть цены, оплаченная с кошелька
	CheckInAt     *time.Time
	CheckOutAt    *time.Time
	Notes         *string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// CheckInWindow допустимый интервал check-in вокруг начала бронирования, границы включены
type CheckInWindow struct {
	From time.Time
	To   time.Time
}

// NewCheckInWindow строит окно ±tolerance вокруг start
func NewCheckInWindow(start time.Time, tolerance time.Duration) CheckInWindow {
	return CheckInWindow{From: start.Add(-tolerance), To: start.Add(tolerance)}
}

// Contains true, если t внутри окна
func (w CheckInWindow) Contains(t time.Time) bool {
	return !t.Before(w.From) && !t.After(w.To)
}

// CanCheckIn check-in возможен из PENDING и PAID, и только один раз
func (r *Reservation) CanCheckIn() bool {
	if r.CheckInAt != nil {
		return false
	}
	return r.Status.CanTransitionTo(ReservationInProgress)
}

// CanCheckOut check-out возможен только из IN_PROGRESS
func (r *Reservation) CanCheckOut() bool {
	return r.Status == ReservationInProgress
}

// CanRefund возврат возможен только для оплаченного бронирования
func (r *Reservation) CanRefund() bool {
	return r.PaymentStatus == PaymentPaid
}

// Overlaps пересечение полуоткрытых интервалов [start, end)
func (r *Reservation) Overlaps(start, end time.Time) bool {
	return r.StartTime.Before(end) && start.Before(r.EndTime)
}

// ReservationStatusChange строка истории статусов бронирования
type ReservationStatusChange struct {
	ID            int64
	ReservationID int64
	OldStatus     *ReservationStatus
	NewStatus     ReservationStatus
	ActorID       *int64
	Override      bool
	Reason        *string
	CreatedAt     time.Time
}

// WalletTransactionKind тип движения по кошельку
type WalletTransactionKind string

const (
	WalletDebit  WalletTransactionKind = "DEBIT"
	WalletRefund WalletTransactionKind = "REFUND"
)

// WalletTransaction движение по кошельку пользователя
type WalletTransaction struct {
	ID            int64
	UserID        int64
	ReservationID *int64
	Kind          WalletTransactionKind
	Amount        float64
	CreatedAt     time.Time
}
