package middleware

import (
	"context"
	"net/http"
	"slices"
	"strings"

	"github.com/m04kA/SMC-FacilityService/internal/api/handlers"
	"github.com/m04kA/SMC-FacilityService/internal/domain"
	"github.com/m04kA/SMC-FacilityService/pkg/auth"
)

const (
	msgMissingToken = "требуется авторизация"
	msgInvalidToken = "недействительный токен"
	msgForbidden    = "недостаточно прав"
)

type ctxKey int

const (
	userIDKey ctxKey = iota
	roleKey
)

// TokenParser проверяет access-токен
type TokenParser interface {
	ParseValidate(token string) (*auth.Claims, error)
}

// Auth проверяет Bearer-токен и кладёт ID пользователя и роль в контекст
func Auth(parser TokenParser) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, ok := strings.CutPrefix(header, "Bearer ")
			if !ok || strings.TrimSpace(token) == "" {
				handlers.RespondUnauthorized(w, msgMissingToken)
				return
			}

			claims, err := parser.ParseValidate(strings.TrimSpace(token))
			if err != nil {
				handlers.RespondUnauthorized(w, msgInvalidToken)
				return
			}
			userID, err := claims.UserID()
			if err != nil {
				handlers.RespondUnauthorized(w, msgInvalidToken)
				return
			}

			role := domain.Role(strings.ToUpper(claims.Role))
			if role == "" {
				role = domain.RoleUser
			}

			ctx := WithUser(r.Context(), userID, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireRole пропускает запрос, только если роль пользователя в списке
func RequireRole(roles ...domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			role, ok := GetRole(r.Context())
			if !ok {
				handlers.RespondUnauthorized(w, msgMissingToken)
				return
			}
			if !slices.Contains(roles, role) {
				handlers.RespondForbidden(w, msgForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// WithUser кладёт пользователя в контекст
func WithUser(ctx context.Context, userID int64, role domain.Role) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	return context.WithValue(ctx, roleKey, role)
}

// GetUserID ID пользователя из контекста
func GetUserID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(userIDKey).(int64)
	return id, ok
}

// GetRole роль пользователя из контекста
func GetRole(ctx context.Context) (domain.Role, bool) {
	role, ok := ctx.Value(roleKey).(domain.Role)
	return role, ok
}
