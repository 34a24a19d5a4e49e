package models

import (
	"time"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
)

// CreateRequest запрос на создание тарифа
// Discount принимается долей (0..1) или процентом (до 100)
type CreateRequest struct {
	Segment    string
	Name       string
	MinAge     int
	MaxAge     *int
	Discount   float64
	IsActive   *bool // по умолчанию true
	ValidFrom  *time.Time
	ValidUntil *time.Time
	CourtIDs   []int64
}

// UpdateRequest частичное обновление тарифа
// CourtIDs: nil - не менять, пустой список - тариф на всех кортах
type UpdateRequest struct {
	Segment    *string
	Name       *string
	MinAge     *int
	MaxAge     *int
	ClearMax   bool // снять верхнюю границу возраста
	Discount   *float64
	IsActive   *bool
	ValidFrom  *time.Time
	ValidUntil *time.Time
	CourtIDs   *[]int64
}

// ListRequest фильтры списка тарифов
type ListRequest struct {
	Segment    *string
	ActiveOnly bool
}

// TariffResponse ответ с данными тарифа
type TariffResponse struct {
	ID         int64      `json:"id"`
	Segment    string     `json:"segment"`
	Name       string     `json:"name"`
	MinAge     int        `json:"minAge"`
	MaxAge     *int       `json:"maxAge"`
	Discount   float64    `json:"discount"`
	IsActive   bool       `json:"isActive"`
	ValidFrom  *time.Time `json:"validFrom,omitempty"`
	ValidUntil *time.Time `json:"validUntil,omitempty"`
	CourtIDs   []int64    `json:"courtIds"`
	CreatedAt  time.Time  `json:"createdAt"`
	UpdatedAt  time.Time  `json:"updatedAt"`
}

// FromDomainTariff конвертирует domain модель в DTO
func FromDomainTariff(t *domain.AgeBasedTariff) *TariffResponse {
	if t == nil {
		return nil
	}

	courts := t.CourtIDs
	if courts == nil {
		courts = []int64{}
	}

	return &TariffResponse{
		ID:         t.ID,
		Segment:    string(t.Segment),
		Name:       t.Name,
		MinAge:     t.MinAge,
		MaxAge:     t.MaxAge,
		Discount:   t.Discount,
		IsActive:   t.IsActive,
		ValidFrom:  t.ValidFrom,
		ValidUntil: t.ValidUntil,
		CourtIDs:   courts,
		CreatedAt:  t.CreatedAt,
		UpdatedAt:  t.UpdatedAt,
	}
}
