package reservations

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-FacilityService/internal/api/middleware"
	"github.com/m04kA/SMC-FacilityService/internal/domain"
	reservationsService "github.com/m04kA/SMC-FacilityService/internal/service/reservations"
	"github.com/m04kA/SMC-FacilityService/internal/service/reservations/models"
	createReservation "github.com/m04kA/SMC-FacilityService/internal/usecase/create_reservation"
	"github.com/m04kA/SMC-FacilityService/pkg/logger"
)

type fakeService struct {
	ReservationService
	err        error
	lastActor  models.Actor
	lastReason string
	lastStatus *models.AdminStatusRequest
}

func (f *fakeService) result(id int64, status domain.ReservationStatus) (*models.ReservationResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &models.ReservationResponse{ID: id, Status: string(status)}, nil
}

func (f *fakeService) GetByID(_ context.Context, id int64, actor models.Actor) (*models.ReservationResponse, error) {
	f.lastActor = actor
	return f.result(id, domain.ReservationPaid)
}

func (f *fakeService) CheckIn(_ context.Context, id int64, actor models.Actor) (*models.ReservationResponse, error) {
	f.lastActor = actor
	return f.result(id, domain.ReservationInProgress)
}

func (f *fakeService) Cancel(_ context.Context, id int64, actor models.Actor, reason string) (*models.ReservationResponse, error) {
	f.lastActor = actor
	f.lastReason = reason
	return f.result(id, domain.ReservationCancelled)
}

func (f *fakeService) AdminSetStatus(_ context.Context, id int64, actor models.Actor, req *models.AdminStatusRequest) (*models.ReservationResponse, error) {
	f.lastStatus = req
	return f.result(id, domain.ReservationStatus(req.Status))
}

func (f *fakeService) ResendConfirmation(context.Context, int64, models.Actor) error {
	return f.err
}

type fakeCreateUseCase struct {
	err  error
	last *createReservation.Request
}

func (f *fakeCreateUseCase) Execute(_ context.Context, req *createReservation.Request) (*models.ReservationResponse, error) {
	f.last = req
	if f.err != nil {
		return nil, f.err
	}
	return &models.ReservationResponse{ID: 100, CourtID: req.CourtID, UserID: req.UserID, Status: "PENDING"}, nil
}

func newRouter(svc *fakeService, uc *fakeCreateUseCase) *mux.Router {
	h := NewHandler(svc, uc, logger.Nop())
	r := mux.NewRouter()
	r.HandleFunc("/reservations", h.Create).Methods(http.MethodPost)
	r.HandleFunc("/reservations/{id}", h.Get).Methods(http.MethodGet)
	r.HandleFunc("/reservations/{id}/check-in", h.CheckIn).Methods(http.MethodPost)
	r.HandleFunc("/reservations/{id}/cancel", h.Cancel).Methods(http.MethodPost)
	r.HandleFunc("/admin/reservations/{id}/status", h.SetStatus).Methods(http.MethodPatch)
	r.HandleFunc("/admin/reservations/{id}/resend-confirmation", h.ResendConfirmation).Methods(http.MethodPost)
	return r
}

func do(router http.Handler, method, path, body string, userID int64, role domain.Role) *httptest.ResponseRecorder {
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
	}
	if userID > 0 {
		r = r.WithContext(middleware.WithUser(r.Context(), userID, role))
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, r)
	return w
}

func TestCreate_UsesOwnerFromToken(t *testing.T) {
	uc := &fakeCreateUseCase{}
	router := newRouter(&fakeService{}, uc)

	start := time.Now().Add(24 * time.Hour).UTC().Truncate(time.Second)
	body := `{"courtId":3,"startTime":"` + start.Format(time.RFC3339) + `","endTime":"` +
		start.Add(time.Hour).Format(time.RFC3339) + `","totalPrice":50,"walletAmount":20}`

	w := do(router, http.MethodPost, "/reservations", body, 9, domain.RoleUser)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	require.NotNil(t, uc.last)
	assert.Equal(t, int64(9), uc.last.UserID)
	assert.Equal(t, int64(3), uc.last.CourtID)
	assert.Equal(t, 20.0, uc.last.WalletAmount)
}

func TestCreate_Validation(t *testing.T) {
	uc := &fakeCreateUseCase{}
	router := newRouter(&fakeService{}, uc)

	w := do(router, http.MethodPost, "/reservations",
		`{"courtId":3,"startTime":"2030-01-01T11:00:00Z","endTime":"2030-01-01T10:00:00Z"}`, 9, domain.RoleUser)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"endTime"`)
	assert.Nil(t, uc.last)
}

func TestCreate_ErrorMapping(t *testing.T) {
	body := `{"courtId":3,"startTime":"2030-01-01T10:00:00Z","endTime":"2030-01-01T11:00:00Z","totalPrice":10}`

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "court not found", err: createReservation.ErrCourtNotFound, status: http.StatusNotFound},
		{name: "slot taken", err: createReservation.ErrSlotNotAvailable, status: http.StatusConflict},
		{name: "maintenance", err: createReservation.ErrCourtUnderMaintenance, status: http.StatusConflict},
		{name: "insufficient funds", err: createReservation.ErrInsufficientFunds, status: http.StatusUnprocessableEntity},
		{name: "start in past", err: createReservation.ErrStartInPast, status: http.StatusBadRequest},
		{name: "internal", err: createReservation.ErrInternal, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&fakeService{}, &fakeCreateUseCase{err: tt.err})
			w := do(router, http.MethodPost, "/reservations", body, 9, domain.RoleUser)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestCreate_Unauthorized(t *testing.T) {
	router := newRouter(&fakeService{}, &fakeCreateUseCase{})
	w := do(router, http.MethodPost, "/reservations", `{}`, 0, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestGet_PassesActor(t *testing.T) {
	svc := &fakeService{}
	router := newRouter(svc, &fakeCreateUseCase{})

	w := do(router, http.MethodGet, "/reservations/5", "", 4, domain.RoleStaff)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.Actor{UserID: 4, Role: domain.RoleStaff}, svc.lastActor)
}

func TestGet_InvalidID(t *testing.T) {
	router := newRouter(&fakeService{}, &fakeCreateUseCase{})
	w := do(router, http.MethodGet, "/reservations/abc", "", 4, domain.RoleUser)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestServiceErrorMapping(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
	}{
		{name: "not found", err: reservationsService.ErrReservationNotFound, status: http.StatusNotFound},
		{name: "foreign reservation", err: reservationsService.ErrAccessDenied, status: http.StatusForbidden},
		{name: "wrong state", err: reservationsService.ErrInvalidState, status: http.StatusConflict},
		{name: "concurrent update", err: reservationsService.ErrConcurrentUpdate, status: http.StatusConflict},
		{name: "internal", err: reservationsService.ErrInternal, status: http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router := newRouter(&fakeService{err: tt.err}, &fakeCreateUseCase{})
			w := do(router, http.MethodPost, "/reservations/5/check-in", "", 4, domain.RoleUser)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func TestCheckIn_WindowViolationDetails(t *testing.T) {
	from := time.Date(2030, 1, 1, 9, 45, 0, 0, time.UTC)
	to := time.Date(2030, 1, 1, 10, 15, 0, 0, time.UTC)
	svc := &fakeService{err: &reservationsService.WindowViolationError{From: from, To: to}}
	router := newRouter(svc, &fakeCreateUseCase{})

	w := do(router, http.MethodPost, "/reservations/5/check-in", "", 4, domain.RoleUser)

	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Success bool          `json:"success"`
		Details WindowDetails `json:"details"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.False(t, body.Success)
	assert.True(t, from.Equal(body.Details.AllowedFrom))
	assert.True(t, to.Equal(body.Details.AllowedTo))
}

func TestCancel_OptionalBody(t *testing.T) {
	svc := &fakeService{}
	router := newRouter(svc, &fakeCreateUseCase{})

	w := do(router, http.MethodPost, "/reservations/5/cancel", "", 4, domain.RoleUser)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, svc.lastReason)

	w = do(router, http.MethodPost, "/reservations/5/cancel", `{"reason":"rain"}`, 4, domain.RoleUser)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "rain", svc.lastReason)
}

func TestSetStatus(t *testing.T) {
	svc := &fakeService{}
	router := newRouter(svc, &fakeCreateUseCase{})

	w := do(router, http.MethodPatch, "/admin/reservations/5/status",
		`{"status":"COMPLETED","reason":"manual fix"}`, 1, domain.RoleAdmin)

	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastStatus)
	assert.Equal(t, "COMPLETED", svc.lastStatus.Status)

	svc.err = reservationsService.ErrInvalidStatus
	w = do(router, http.MethodPatch, "/admin/reservations/5/status", `{"status":"BOGUS"}`, 1, domain.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestResendConfirmation(t *testing.T) {
	router := newRouter(&fakeService{}, &fakeCreateUseCase{})
	w := do(router, http.MethodPost, "/admin/reservations/5/resend-confirmation", "", 1, domain.RoleStaff)
	assert.Equal(t, http.StatusAccepted, w.Code)
}
