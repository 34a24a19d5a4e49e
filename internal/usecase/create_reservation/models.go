package create_reservation

import "time"

// Request модель запроса на создание бронирования
type Request struct {
	UserID       int64     // владелец бронирования
	CourtID      int64     // корт
	StartTime    time.Time // начало, включительно
	EndTime      time.Time // конец, не включительно
	TotalPrice   float64   // полная стоимость
	WalletAmount float64   // часть стоимости, списываемая с кошелька
	Notes        *string
}
