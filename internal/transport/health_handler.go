package transport

import (
	"context"
	"net/http"
	"time"

	"eterna/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

// HealthChecker reports database health
type HealthChecker interface {
	Health() map[string]string
}

// HealthResponse describes the API and its dependencies
type HealthResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Database string `json:"database"`
	Cache    string `json:"cache"`
}

// HealthHandler serves the liveness endpoint
type HealthHandler struct {
	db    HealthChecker
	redis *redis.Client
}

// NewHealthHandler creates a new HealthHandler. redis may be nil when the
// cache is disabled.
func NewHealthHandler(db HealthChecker, redis *redis.Client) *HealthHandler {
	return &HealthHandler{db: db, redis: redis}
}

// RegisterRoutes registers the health route
func (h *HealthHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/health", h.Health)
}

// Health always answers 200 while the process is serving; dependency state
// is reported in the body.
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Success: true, Message: "ok", Database: "unknown", Cache: "disabled"}

	if h.db != nil {
		if status, ok := h.db.Health()["status"]; ok {
			resp.Database = status
		}
	}

	if h.redis != nil {
		ctx, cancel := context.WithTimeout(r.Context(), time.Second)
		defer cancel()
		resp.Cache = "up"
		if err := h.redis.Ping(ctx).Err(); err != nil {
			resp.Cache = "down"
		}
	}

	middleware.RespondWithJSON(w, http.StatusOK, resp)
}
