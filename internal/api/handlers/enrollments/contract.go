package enrollments

import (
	"context"

	"github.com/m04kA/SMC-FacilityService/internal/service/enrollments/models"
)

type EnrollmentService interface {
	Create(ctx context.Context, req *models.CreateRequest) (*models.EnrollmentResponse, error)
	Approve(ctx context.Context, id, actorID int64) (*models.EnrollmentResponse, error)
	Reject(ctx context.Context, id, actorID int64, reason string) (*models.EnrollmentResponse, error)
	List(ctx context.Context, req *models.ListRequest) (*models.ListResponse, error)
	History(ctx context.Context, id int64) ([]models.AuditResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
