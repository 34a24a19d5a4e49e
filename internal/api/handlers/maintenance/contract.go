package maintenance

import (
	"context"

	"github.com/m04kA/SMC-FacilityService/internal/service/maintenance/models"
)

type MaintenanceService interface {
	Create(ctx context.Context, actorID int64, req *models.CreateRequest) (*models.MaintenanceResponse, error)
	Update(ctx context.Context, id int64, req *models.UpdateRequest) (*models.MaintenanceResponse, error)
	Start(ctx context.Context, id int64) (*models.MaintenanceResponse, error)
	Complete(ctx context.Context, actorID, id int64, req *models.CompleteRequest) (*models.CompleteResponse, error)
	Cancel(ctx context.Context, id int64, reason string) (*models.MaintenanceResponse, error)
	GetByID(ctx context.Context, id int64) (*models.MaintenanceResponse, error)
	List(ctx context.Context, req *models.ListRequest) (*models.ListResponse, error)
	Stats(ctx context.Context) (*models.StatsResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
