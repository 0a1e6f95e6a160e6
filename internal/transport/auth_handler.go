package transport

import (
	"net/http"

	"eterna/internal/domain"
	"eterna/internal/middleware"
	"eterna/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// LoginRequest represents the login request payload
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

func (r *LoginRequest) normalize() {
	r.Email = service.NormalizeEmail(r.Email)
}

// UpdateCredentialsRequest replaces the signed-in admin's email and password
type UpdateCredentialsRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

func (r *UpdateCredentialsRequest) normalize() {
	r.Email = service.NormalizeEmail(r.Email)
}

// LoginResponse represents the login response
type LoginResponse struct {
	Success bool                `json:"success"`
	Token   string              `json:"token"`
	Admin   domain.AdminSummary `json:"admin"`
}

// AdminResponse carries the current admin
type AdminResponse struct {
	Success bool                `json:"success"`
	Message string              `json:"message,omitempty"`
	Admin   domain.AdminSummary `json:"admin"`
}

// AuthHandler handles HTTP requests for admin authentication
type AuthHandler struct {
	authService service.AuthService
	logger      *zap.Logger
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(authService service.AuthService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		logger:      logger,
	}
}

// RegisterRoutes registers all auth routes. limit guards the login endpoint.
func (h *AuthHandler) RegisterRoutes(r chi.Router, requireAuth, limit func(http.Handler) http.Handler) {
	r.Route("/api/auth", func(r chi.Router) {
		r.With(limit).Post("/login", h.Login)

		r.Group(func(r chi.Router) {
			r.Use(requireAuth)
			r.Get("/verify", h.Verify)
			r.Put("/credentials", h.UpdateCredentials)
		})
	})
}

// Login handles admin authentication
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	token, admin, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, h.logger, err, "Login failed", zap.String("email", req.Email))
		return
	}

	h.logger.Info("Admin logged in", zap.String("admin_id", admin.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, LoginResponse{
		Success: true,
		Token:   token,
		Admin:   admin.Summary(),
	})
}

// Verify returns the admin the bearer token belongs to
func (h *AuthHandler) Verify(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.GetAdmin(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, AdminResponse{Success: true, Admin: admin.Summary()})
}

// UpdateCredentials changes the signed-in admin's email and password
func (h *AuthHandler) UpdateCredentials(w http.ResponseWriter, r *http.Request) {
	admin, ok := middleware.GetAdmin(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "Invalid token")
		return
	}

	var req UpdateCredentialsRequest
	if !decodeRequest(w, r, h.logger, &req) {
		return
	}

	updated, err := h.authService.UpdateCredentials(r.Context(), admin.ID, req.Email, req.Password)
	if err != nil {
		respondServiceError(w, h.logger, err, "Credential update failed", zap.String("admin_id", admin.ID.String()))
		return
	}

	h.logger.Info("Admin credentials updated", zap.String("admin_id", updated.ID.String()))
	middleware.RespondWithJSON(w, http.StatusOK, AdminResponse{
		Success: true,
		Message: "Credentials updated successfully",
		Admin:   updated.Summary(),
	})
}
