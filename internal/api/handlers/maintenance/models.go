package maintenance

import (
	"time"

	"github.com/m04kA/SMC-FacilityService/internal/service/maintenance/models"
)

// CreateMaintenanceRequest тело POST /maintenance
// Допустимые значения type и priority проверяет сервис
type CreateMaintenanceRequest struct {
	CourtID         int64     `json:"courtId" validate:"required,gt=0"`
	Type            string    `json:"type" validate:"required"`
	Title           string    `json:"title" validate:"required,max=255"`
	Description     *string   `json:"description,omitempty"`
	ScheduledStart  time.Time `json:"scheduledStart" validate:"required"`
	DurationMinutes int       `json:"durationMinutes" validate:"gt=0"`
	Priority        string    `json:"priority,omitempty"`
	AssigneeID      *int64    `json:"assigneeId,omitempty" validate:"omitempty,gt=0"`
	Materials       []string  `json:"materials,omitempty" validate:"omitempty,dive,required"`
	Notes           *string   `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

func (r *CreateMaintenanceRequest) ToServiceRequest() *models.CreateRequest {
	return &models.CreateRequest{
		CourtID:         r.CourtID,
		Type:            r.Type,
		Title:           r.Title,
		Description:     r.Description,
		ScheduledStart:  r.ScheduledStart,
		DurationMinutes: r.DurationMinutes,
		Priority:        r.Priority,
		AssigneeID:      r.AssigneeID,
		Materials:       r.Materials,
		Notes:           r.Notes,
	}
}

// UpdateMaintenanceRequest тело PUT /maintenance/{id}, все поля необязательны
type UpdateMaintenanceRequest struct {
	Type            *string    `json:"type,omitempty"`
	Title           *string    `json:"title,omitempty" validate:"omitempty,max=255"`
	Description     *string    `json:"description,omitempty"`
	ScheduledStart  *time.Time `json:"scheduledStart,omitempty"`
	DurationMinutes *int       `json:"durationMinutes,omitempty" validate:"omitempty,gt=0"`
	Priority        *string    `json:"priority,omitempty"`
	AssigneeID      *int64     `json:"assigneeId,omitempty" validate:"omitempty,gt=0"`
	Materials       []string   `json:"materials,omitempty" validate:"omitempty,dive,required"`
	Notes           *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

func (r *UpdateMaintenanceRequest) ToServiceRequest() *models.UpdateRequest {
	return &models.UpdateRequest{
		Type:            r.Type,
		Title:           r.Title,
		Description:     r.Description,
		ScheduledStart:  r.ScheduledStart,
		DurationMinutes: r.DurationMinutes,
		Priority:        r.Priority,
		AssigneeID:      r.AssigneeID,
		Materials:       r.Materials,
		Notes:           r.Notes,
	}
}

// CompleteMaintenanceRequest тело POST /maintenance/{id}/complete, можно не передавать
type CompleteMaintenanceRequest struct {
	ActualDuration      *int       `json:"actualDuration,omitempty" validate:"omitempty,gt=0"`
	Cost                *float64   `json:"cost,omitempty" validate:"omitempty,gte=0"`
	Notes               *string    `json:"notes,omitempty" validate:"omitempty,max=2000"`
	NextMaintenanceDate *time.Time `json:"nextMaintenanceDate,omitempty"`
}

func (r *CompleteMaintenanceRequest) ToServiceRequest() *models.CompleteRequest {
	return &models.CompleteRequest{
		ActualDuration:      r.ActualDuration,
		Cost:                r.Cost,
		Notes:               r.Notes,
		NextMaintenanceDate: r.NextMaintenanceDate,
	}
}

// CancelMaintenanceRequest тело POST /maintenance/{id}/cancel
type CancelMaintenanceRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}
