package middleware

import (
	"context"
	"errors"
	"net/http"

	"eterna/internal/domain"
	"eterna/internal/service"

	"go.uber.org/zap"
)

const AdminKey contextKey = "admin"

// AdminResolver loads the admin a token was issued to
type AdminResolver interface {
	CurrentAdmin(ctx context.Context, claims *service.Claims) (*domain.Admin, error)
}

// RequireAdmin ensures the authenticated admin still exists. It must run
// after AuthMiddleware.
func RequireAdmin(admins AdminResolver, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			adminID, ok := GetAdminID(r.Context())
			if !ok {
				logger.Warn("Admin id not found in context")
				RespondWithError(w, http.StatusUnauthorized, msgInvalidToken)
				return
			}
			email, _ := GetAdminEmail(r.Context())

			admin, err := admins.CurrentAdmin(r.Context(), &service.Claims{AdminID: adminID, Email: email})
			if err != nil {
				if errors.Is(err, service.ErrAdminNotFound) {
					logger.Warn("Token belongs to an unknown admin", zap.String("admin_id", adminID.String()))
					RespondWithError(w, http.StatusUnauthorized, msgInvalidToken)
					return
				}
				logger.Error("Failed to resolve admin", zap.Error(err))
				RespondWithError(w, http.StatusInternalServerError, ServerErrorMessage)
				return
			}

			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), AdminKey, admin)))
		})
	}
}

// GetAdmin returns the admin resolved by RequireAdmin
func GetAdmin(ctx context.Context) (*domain.Admin, bool) {
	admin, ok := ctx.Value(AdminKey).(*domain.Admin)
	return admin, ok
}
