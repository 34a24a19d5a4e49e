package maintenance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-FacilityService/internal/api/middleware"
	"github.com/m04kA/SMC-FacilityService/internal/domain"
	maintenanceService "github.com/m04kA/SMC-FacilityService/internal/service/maintenance"
	"github.com/m04kA/SMC-FacilityService/internal/service/maintenance/models"
	"github.com/m04kA/SMC-FacilityService/pkg/logger"
)

type fakeService struct {
	MaintenanceService
	err          error
	lastActor    int64
	lastCreate   *models.CreateRequest
	lastComplete *models.CompleteRequest
	lastList     *models.ListRequest
	lastReason   string
}

func (f *fakeService) Create(_ context.Context, actorID int64, req *models.CreateRequest) (*models.MaintenanceResponse, error) {
	f.lastActor = actorID
	f.lastCreate = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.MaintenanceResponse{ID: 11, CourtID: req.CourtID, Status: "SCHEDULED"}, nil
}

func (f *fakeService) Complete(_ context.Context, actorID, id int64, req *models.CompleteRequest) (*models.CompleteResponse, error) {
	f.lastActor = actorID
	f.lastComplete = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.CompleteResponse{Maintenance: &models.MaintenanceResponse{ID: id, Status: "COMPLETED"}}, nil
}

func (f *fakeService) Cancel(_ context.Context, id int64, reason string) (*models.MaintenanceResponse, error) {
	f.lastReason = reason
	if f.err != nil {
		return nil, f.err
	}
	return &models.MaintenanceResponse{ID: id, Status: "CANCELLED"}, nil
}

func (f *fakeService) List(_ context.Context, req *models.ListRequest) (*models.ListResponse, error) {
	f.lastList = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.ListResponse{Items: []*models.MaintenanceResponse{}, Page: req.Page, Limit: req.Limit}, nil
}

func newRouter(svc *fakeService) *mux.Router {
	h := NewHandler(svc, logger.Nop())
	r := mux.NewRouter()
	r.HandleFunc("/maintenance", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/maintenance", h.List).Methods(http.MethodGet)
	r.HandleFunc("/maintenance/{id}/complete", h.Complete).Methods(http.MethodPost)
	r.HandleFunc("/maintenance/{id}/cancel", h.Cancel).Methods(http.MethodPost)
	return r
}

func do(router http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	r = r.WithContext(middleware.WithUser(r.Context(), 2, domain.RoleStaff))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

const createBody = `{"courtId":1,"type":"CLEANING","title":"Deep clean","scheduledStart":"2030-01-01T10:00:00Z","durationMinutes":120}`

func TestCreate(t *testing.T) {
	svc := &fakeService{}
	w := do(newRouter(svc), http.MethodPost, "/maintenance", createBody)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, int64(2), svc.lastActor)
	assert.Equal(t, 120, svc.lastCreate.DurationMinutes)
	assert.Equal(t, "CLEANING", svc.lastCreate.Type)
}

func TestCreate_MissingFields(t *testing.T) {
	svc := &fakeService{}
	w := do(newRouter(svc), http.MethodPost, "/maintenance", `{"courtId":1,"durationMinutes":0}`)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.lastCreate)
}

func TestCreate_ErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "conflict", err: maintenanceService.ErrSchedulingConflict, status: http.StatusConflict},
		{name: "court not found", err: maintenanceService.ErrCourtNotFound, status: http.StatusNotFound},
		{name: "bad enum", err: maintenanceService.ErrInvalidInput, status: http.StatusBadRequest},
		{name: "assignee", err: maintenanceService.ErrAssigneeInvalid, status: http.StatusUnprocessableEntity},
		{name: "concurrent", err: maintenanceService.ErrConcurrentUpdate, status: http.StatusConflict},
		{name: "internal", err: maintenanceService.ErrInternal, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(newRouter(&fakeService{err: tt.err}), http.MethodPost, "/maintenance", createBody)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestComplete_EmptyBody(t *testing.T) {
	svc := &fakeService{}
	w := do(newRouter(svc), http.MethodPost, "/maintenance/4/complete", "")

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastComplete)
	assert.Nil(t, svc.lastComplete.NextMaintenanceDate)
}

func TestComplete_ImmutableAndInvalidState(t *testing.T) {
	w := do(newRouter(&fakeService{err: maintenanceService.ErrInvalidState}), http.MethodPost, "/maintenance/4/complete", "")
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(newRouter(&fakeService{err: maintenanceService.ErrImmutableState}), http.MethodPost, "/maintenance/4/cancel", `{"reason":"x"}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCancel_PassesReason(t *testing.T) {
	svc := &fakeService{}
	w := do(newRouter(svc), http.MethodPost, "/maintenance/4/cancel", `{"reason":"rain"}`)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rain", svc.lastReason)
}

func TestList_ParsesQuery(t *testing.T) {
	svc := &fakeService{}
	w := do(newRouter(svc), http.MethodGet, "/maintenance?courtId=3&status=SCHEDULED&page=2&limit=5", "")

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastList.CourtID)
	assert.Equal(t, int64(3), *svc.lastList.CourtID)
	assert.Equal(t, "SCHEDULED", *svc.lastList.Status)
	assert.Nil(t, svc.lastList.Type)
	assert.Equal(t, 2, svc.lastList.Page)
	assert.Equal(t, 5, svc.lastList.Limit)

	w = do(newRouter(svc), http.MethodGet, "/maintenance?courtId=abc", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
