package domain

import "time"

// Court корт площадки
type Court struct {
	ID       int64
	VenueID  int64
	Name     string
	IsActive bool

	// Допуск check-in площадки в минутах, nil - значение из конфигурации
	CheckInToleranceMinutes *int

	CreatedAt time.Time
	UpdatedAt time.Time
}
