package middleware

import (
	"context"
	"net/http"
	"strings"

	"eterna/internal/service"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type contextKey string

const (
	AdminIDKey    contextKey = "admin_id"
	AdminEmailKey contextKey = "admin_email"
)

const (
	msgNoToken      = "No token provided"
	msgInvalidToken = "Invalid token"
)

// TokenValidator verifies bearer tokens
type TokenValidator interface {
	ValidateToken(tokenString string) (*service.Claims, error)
}

// AuthMiddleware validates JWT tokens and puts the admin claims on the context
func AuthMiddleware(tokens TokenValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := strings.TrimSpace(r.Header.Get("Authorization"))
			if authHeader == "" {
				logger.Debug("Missing authorization header")
				RespondWithError(w, http.StatusUnauthorized, msgNoToken)
				return
			}

			scheme, tokenString, found := strings.Cut(authHeader, " ")
			if !strings.EqualFold(scheme, "Bearer") {
				logger.Debug("Invalid authorization header format")
				RespondWithError(w, http.StatusUnauthorized, msgInvalidToken)
				return
			}
			tokenString = strings.TrimSpace(tokenString)
			if !found || tokenString == "" {
				RespondWithError(w, http.StatusUnauthorized, msgNoToken)
				return
			}

			claims, err := tokens.ValidateToken(tokenString)
			if err != nil {
				logger.Debug("Token validation failed", zap.Error(err))
				RespondWithError(w, http.StatusUnauthorized, msgInvalidToken)
				return
			}

			ctx := context.WithValue(r.Context(), AdminIDKey, claims.AdminID)
			ctx = context.WithValue(ctx, AdminEmailKey, claims.Email)

			logger.Debug("Admin authenticated", zap.String("admin_id", claims.AdminID.String()))

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetAdminID extracts the admin id from request context
func GetAdminID(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(AdminIDKey).(uuid.UUID)
	return id, ok
}

// GetAdminEmail extracts the admin email from request context
func GetAdminEmail(ctx context.Context) (string, bool) {
	email, ok := ctx.Value(AdminEmailKey).(string)
	return email, ok
}
