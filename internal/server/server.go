package server

import (
	"fmt"
	"net/http"
	"time"

	"eterna/internal/cache"
	"eterna/internal/config"
	"eterna/internal/database"
	custommiddleware "eterna/internal/middleware"
	"eterna/internal/repository"
	"eterna/internal/service"
	"eterna/internal/storage"
	"eterna/internal/telemetry"
	"eterna/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const listingCachePrefix = "eterna:listings"

type Server struct {
	*http.Server
	config *config.Config
	logger *zap.Logger
	db     database.Service
	redis  *redis.Client
}

// NewServer wires repositories, services and handlers into a router.
// redisClient may be nil, in which case listings are not cached and rate
// limiting is off.
func NewServer(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client, images *storage.LocalImageStore) *Server {
	server := &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      NewRouter(cfg, logger, db, redisClient, images),
			IdleTimeout:  time.Minute,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
	}

	return server
}

// NewRouter builds the HTTP handler for the whole API.
func NewRouter(cfg *config.Config, logger *zap.Logger, db database.Service, redisClient *redis.Client, images *storage.LocalImageStore) http.Handler {
	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack(logger) {
		router.Use(mw)
	}
	router.Use(custommiddleware.CORSMiddleware(cfg.Server.AllowedOrigins, cfg.IsDevelopment()))

	// Initialize repositories
	adminRepo := repository.NewAdminRepository(db.DB())
	categoryRepo := repository.NewCategoryRepository(db.DB())
	productRepo := repository.NewProductRepository(db.DB())
	contactRepo := repository.NewContactRepository(db.DB())

	listings := cache.NewNoop()
	if redisClient != nil {
		listings = cache.NewRedisListingCache(redisClient, listingCachePrefix, cfg.Redis.CacheTTL)
	}

	// Initialize services
	authOpts := []service.AuthOption{service.WithTokenExpiry(cfg.JWT.Expiry)}
	if cfg.Demo.Enabled {
		authOpts = append(authOpts, service.WithDemoAdmin(&service.DemoAdmin{
			Email:        cfg.Demo.Email,
			PasswordHash: cfg.Demo.PasswordHash,
			Name:         cfg.Demo.Name,
		}))
	}
	authService := service.NewAuthService(adminRepo, cfg.JWT.Secret, authOpts...)
	categoryService := service.NewCategoryService(categoryRepo, listings, logger)
	productService := service.NewProductService(productRepo, categoryRepo, images, listings, logger)
	contactService := service.NewContactService(contactRepo)

	// Create auth middleware
	authenticate := custommiddleware.AuthMiddleware(authService, logger)
	requireAdmin := custommiddleware.RequireAdmin(authService, logger)
	requireAuth := func(next http.Handler) http.Handler {
		return authenticate(requireAdmin(next))
	}

	loginLimit := rateLimiter(cfg, redisClient, "ratelimit:login", logger)
	contactLimit := rateLimiter(cfg, redisClient, "ratelimit:contact", logger)

	// Register routes
	transport.NewHealthHandler(db, redisClient).RegisterRoutes(router)
	transport.NewAuthHandler(authService, logger).RegisterRoutes(router, requireAuth, loginLimit)
	transport.NewCategoryHandler(categoryService, logger).RegisterRoutes(router, requireAuth)
	transport.NewProductHandler(productService, cfg.Upload.MaxFileBytes, logger).RegisterRoutes(router, requireAuth)
	transport.NewContactHandler(contactService, logger).RegisterRoutes(router, requireAuth, contactLimit)
	transport.NewUploadHandler(images, cfg.Upload.MaxFiles, cfg.Upload.MaxFileBytes, logger).RegisterRoutes(router, requireAuth)

	fileServer := http.StripPrefix(storage.PublicPrefix, http.FileServer(http.Dir(images.Root())))
	router.Get(storage.PublicPrefix+"/*", fileServer.ServeHTTP)

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithError(w, http.StatusNotFound, "API not found")
	})

	return telemetry.Middleware(cfg.Telemetry.ServiceName)(router)
}

func rateLimiter(cfg *config.Config, redisClient *redis.Client, prefix string, logger *zap.Logger) func(http.Handler) http.Handler {
	if redisClient == nil || !cfg.RateLimit.Enabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return custommiddleware.RateLimitMiddleware(redisClient, custommiddleware.RateLimitConfig{
		RequestsPerWindow: cfg.RateLimit.Requests,
		Window:            cfg.RateLimit.Window,
		KeyPrefix:         prefix,
	}, logger)
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	// Close database connection
	if s.db != nil {
		if err := s.db.Close(); err != nil {
			s.logger.Error("Failed to close database connection", zap.Error(err))
		}
	}

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	s.logger.Sync()
	return nil
}
