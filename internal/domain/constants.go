package domain

// Business validation constants
const (
	MaxTitleLength        = 255
	MaxNotesLength        = 2000
	MaxReasonLength       = 500
	MaxMaintenanceMinutes = 7 * 24 * 60 // неделя
	MaxReservationMinutes = 12 * 60
	DefaultPageLimit      = 20
	MaxPageLimit          = 100
)

// Page нормализованные параметры пагинации
type Page struct {
	Page  int
	Limit int
}

// NormalizePage page >= 1, 1 <= limit <= MaxPageLimit
func NormalizePage(page, limit int) Page {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageLimit
	}
	if limit > MaxPageLimit {
		limit = MaxPageLimit
	}
	return Page{Page: page, Limit: limit}
}

// Offset смещение для LIMIT/OFFSET
func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// Pages количество страниц с округлением вверх
func (p Page) Pages(total int) int {
	if total == 0 {
		return 0
	}
	return (total + p.Limit - 1) / p.Limit
}
