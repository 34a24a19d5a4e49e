package tariffs

import (
	"context"

	"github.com/m04kA/SMC-FacilityService/internal/service/tariffs/models"
)

type TariffService interface {
	Create(ctx context.Context, req *models.CreateRequest) (*models.TariffResponse, error)
	Update(ctx context.Context, id int64, req *models.UpdateRequest) (*models.TariffResponse, error)
	Delete(ctx context.Context, id int64) error
	GetByID(ctx context.Context, id int64) (*models.TariffResponse, error)
	List(ctx context.Context, req *models.ListRequest) ([]*models.TariffResponse, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
