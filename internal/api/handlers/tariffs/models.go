package tariffs

import (
	"time"

	"github.com/m04kA/SMC-FacilityService/internal/service/tariffs/models"
)

// CreateTariffRequest тело POST /admin/tariffs
// discount: доля 0..1 или процент до 100
type CreateTariffRequest struct {
	Segment    string     `json:"segment" validate:"required"`
	Name       string     `json:"name" validate:"required,max=255"`
	MinAge     int        `json:"minAge" validate:"gte=0"`
	MaxAge     *int       `json:"maxAge,omitempty" validate:"omitempty,gte=0"`
	Discount   float64    `json:"discount" validate:"gte=0,lte=100"`
	IsActive   *bool      `json:"isActive,omitempty"`
	ValidFrom  *time.Time `json:"validFrom,omitempty"`
	ValidUntil *time.Time `json:"validUntil,omitempty"`
	CourtIDs   []int64    `json:"courtIds,omitempty" validate:"omitempty,dive,gt=0"`
}

func (r *CreateTariffRequest) ToServiceRequest() *models.CreateRequest {
	return &models.CreateRequest{
		Segment:    r.Segment,
		Name:       r.Name,
		MinAge:     r.MinAge,
		MaxAge:     r.MaxAge,
		Discount:   r.Discount,
		IsActive:   r.IsActive,
		ValidFrom:  r.ValidFrom,
		ValidUntil: r.ValidUntil,
		CourtIDs:   r.CourtIDs,
	}
}

// UpdateTariffRequest тело PUT /admin/tariffs/{id}
// courtIds: отсутствует - не менять, [] - тариф на всех кортах
type UpdateTariffRequest struct {
	Segment     *string    `json:"segment,omitempty"`
	Name        *string    `json:"name,omitempty" validate:"omitempty,max=255"`
	MinAge      *int       `json:"minAge,omitempty" validate:"omitempty,gte=0"`
	MaxAge      *int       `json:"maxAge,omitempty" validate:"omitempty,gte=0"`
	ClearMaxAge bool       `json:"clearMaxAge,omitempty"`
	Discount    *float64   `json:"discount,omitempty" validate:"omitempty,gte=0,lte=100"`
	IsActive    *bool      `json:"isActive,omitempty"`
	ValidFrom   *time.Time `json:"validFrom,omitempty"`
	ValidUntil  *time.Time `json:"validUntil,omitempty"`
	CourtIDs    *[]int64   `json:"courtIds,omitempty"`
}

func (r *UpdateTariffRequest) ToServiceRequest() *models.UpdateRequest {
	return &models.UpdateRequest{
		Segment:    r.Segment,
		Name:       r.Name,
		MinAge:     r.MinAge,
		MaxAge:     r.MaxAge,
		ClearMax:   r.ClearMaxAge,
		Discount:   r.Discount,
		IsActive:   r.IsActive,
		ValidFrom:  r.ValidFrom,
		ValidUntil: r.ValidUntil,
		CourtIDs:   r.CourtIDs,
	}
}
