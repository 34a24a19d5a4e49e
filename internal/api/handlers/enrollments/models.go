package enrollments

import "github.com/m04kA/SMC-FacilityService/internal/service/enrollments/models"

// CreateEnrollmentRequest тело POST /enrollments, заявка всегда от текущего пользователя
type CreateEnrollmentRequest struct {
	TariffID int64   `json:"tariffId" validate:"required,gt=0"`
	Notes    *string `json:"notes,omitempty" validate:"omitempty,max=2000"`
}

func (r *CreateEnrollmentRequest) ToServiceRequest(userID int64) *models.CreateRequest {
	return &models.CreateRequest{
		UserID:   userID,
		TariffID: r.TariffID,
		Notes:    r.Notes,
	}
}

// RejectEnrollmentRequest тело POST /admin/enrollments/{id}/reject
type RejectEnrollmentRequest struct {
	Reason string `json:"reason" validate:"required,max=500"`
}
