package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-FacilityService/internal/domain"
	"github.com/m04kA/SMC-FacilityService/pkg/auth"
	"github.com/m04kA/SMC-FacilityService/pkg/metrics"
)

func echoUser(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := GetUserID(r.Context())
		require.True(t, ok)
		role, _ := GetRole(r.Context())
		w.Header().Set("X-User", string(role))
		assert.Equal(t, int64(7), id)
		w.WriteHeader(http.StatusNoContent)
	})
}

func TestAuth(t *testing.T) {
	signer := auth.NewSigner("secret")
	valid, err := signer.CreateAccessToken(7, "staff", time.Hour)
	require.NoError(t, err)
	foreign, err := auth.NewSigner("other").CreateAccessToken(7, "STAFF", time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "valid token", header: "Bearer " + valid, status: http.StatusNoContent},
		{name: "no header", header: "", status: http.StatusUnauthorized},
		{name: "no bearer prefix", header: valid, status: http.StatusUnauthorized},
		{name: "foreign signature", header: "Bearer " + foreign, status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.header != "" {
				r.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			Auth(signer)(echoUser(t)).ServeHTTP(w, r)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusNoContent {
				assert.Equal(t, "STAFF", w.Header().Get("X-User"))
			}
		})
	}
}

func TestRequireRole(t *testing.T) {
	ok := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	h := RequireRole(domain.RoleStaff, domain.RoleAdmin)(ok)

	tests := []struct {
		name   string
		role   *domain.Role
		status int
	}{
		{name: "staff", role: rolePtr(domain.RoleStaff), status: http.StatusOK},
		{name: "admin", role: rolePtr(domain.RoleAdmin), status: http.StatusOK},
		{name: "user", role: rolePtr(domain.RoleUser), status: http.StatusForbidden},
		{name: "anonymous", role: nil, status: http.StatusUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.role != nil {
				r = r.WithContext(WithUser(r.Context(), 1, *tt.role))
			}
			w := httptest.NewRecorder()
			h.ServeHTTP(w, r)
			assert.Equal(t, tt.status, w.Code)
		})
	}
}

func rolePtr(r domain.Role) *domain.Role { return &r }

func TestRequestID(t *testing.T) {
	var seen string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = requestIDFromContext(r.Context())
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	_, err := uuid.Parse(seen)
	require.NoError(t, err)
	assert.Equal(t, seen, w.Header().Get(HeaderRequestID))

	given := uuid.NewString()
	r := httptest.NewRequest(http.MethodGet, "/", nil)
	r.Header.Set(HeaderRequestID, given)
	h.ServeHTTP(httptest.NewRecorder(), r)
	assert.Equal(t, given, seen)
}

func TestMetrics_UsesRouteTemplate(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewWithRegistry(reg, "test")

	router := mux.NewRouter()
	router.Use(Metrics(m))
	router.HandleFunc("/reservations/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
	})

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/reservations/15", nil))

	families, err := reg.Gather()
	require.NoError(t, err)

	found := map[string]bool{}
	for _, f := range families {
		for _, metric := range f.GetMetric() {
			for _, l := range metric.GetLabel() {
				if l.GetName() == "route" {
					assert.Equal(t, "/reservations/{id}", l.GetValue())
					found[f.GetName()] = true
				}
			}
		}
	}
	assert.True(t, found["http_requests_total"])
	assert.True(t, found["business_rejections_total"])
}
