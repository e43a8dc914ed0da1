package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"path/filepath"
	"time"

	"autek/internal/asset"
	"autek/internal/config"
	custommiddleware "autek/internal/middleware"
	"autek/internal/service"
	"autek/internal/transport"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

type Server struct {
	*http.Server
	config  *config.Config
	logger  *zap.Logger
	storage *Storage
	redis   *redis.Client
}

// Dependencies are the collaborators the router is built from. Redis is
// optional; without it writes are not rate limited.
type Dependencies struct {
	Storage *Storage
	Assets  asset.Store
	Redis   *redis.Client
}

// NewServer opens storage, assets and redis and wires the HTTP server
func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	storage, err := OpenStorage(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	assets, err := OpenAssets(ctx, cfg, logger)
	if err != nil {
		storage.Close()
		return nil, err
	}

	redisClient := connectRedis(ctx, cfg.Redis, logger)

	router, err := NewRouter(ctx, cfg, logger, Dependencies{
		Storage: storage,
		Assets:  assets,
		Redis:   redisClient,
	})
	if err != nil {
		storage.Close()
		if redisClient != nil {
			redisClient.Close()
		}
		return nil, err
	}

	return &Server{
		Server: &http.Server{
			Addr:         fmt.Sprintf(":%s", cfg.Server.Port),
			Handler:      router,
			IdleTimeout:  time.Minute,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 30 * time.Second,
		},
		config:  cfg,
		logger:  logger,
		storage: storage,
		redis:   redisClient,
	}, nil
}

// NewRouter builds the services and mounts every route. The showcase
// singleton is seeded here when storage holds none.
func NewRouter(ctx context.Context, cfg *config.Config, logger *zap.Logger, deps Dependencies) (http.Handler, error) {
	showcaseService := service.NewShowcaseService(deps.Storage.Showcases, deps.Assets, logger)
	categoryService := service.NewCategoryService(deps.Storage.Categories, deps.Storage.Products, deps.Assets, logger)
	popularProductService := service.NewPopularProductService(deps.Storage.PopularProducts, deps.Assets, logger)
	productService := service.NewProductService(deps.Storage.Products, deps.Assets, logger)

	if _, err := showcaseService.EnsureSingleton(ctx); err != nil {
		return nil, err
	}

	router := chi.NewRouter()

	for _, mw := range custommiddleware.DefaultMiddlewareStack() {
		router.Use(mw)
	}
	router.Use(custommiddleware.LoggingMiddleware(logger))
	router.Use(custommiddleware.ErrorHandlingMiddleware(logger))
	router.Use(custommiddleware.CORSMiddleware(allowedOrigins(cfg)))

	// Health check endpoint
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		custommiddleware.RespondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	if cfg.Assets.Driver == config.AssetLocal {
		uploads := filepath.Join(cfg.Assets.PublicDir, filepath.FromSlash(asset.URLPrefix))
		router.Handle(asset.URLPrefix+"*", http.StripPrefix(asset.URLPrefix, http.FileServer(http.Dir(uploads))))
	}

	router.Group(func(r chi.Router) {
		if deps.Redis != nil && cfg.RateLimit.Requests > 0 {
			r.Use(custommiddleware.RateLimitMiddleware(deps.Redis, custommiddleware.RateLimitConfig{
				RequestsPerWindow: cfg.RateLimit.Requests,
				Window:            cfg.RateLimit.Window,
				KeyPrefix:         "autek:ratelimit",
				Methods:           []string{http.MethodPost, http.MethodPut, http.MethodDelete},
			}, logger))
		}

		maxUpload := cfg.Assets.MaxUploadSize
		transport.NewShowcaseHandler(showcaseService, maxUpload, logger).RegisterRoutes(r)
		transport.NewCategoryHandler(categoryService, maxUpload, logger).RegisterRoutes(r)
		transport.NewPopularProductHandler(popularProductService, maxUpload, logger).RegisterRoutes(r)
		transport.NewProductHandler(productService, maxUpload, logger).RegisterRoutes(r)
	})

	return router, nil
}

// allowedOrigins opens CORS to any origin during development; the configured
// list only binds production
func allowedOrigins(cfg *config.Config) []string {
	if cfg.IsDevelopment() {
		return nil
	}
	return cfg.Server.AllowedOrigins
}

// connectRedis returns nil when redis is not configured or unreachable
func connectRedis(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) *redis.Client {
	if cfg.Host == "" {
		logger.Info("REDIS_HOST not set, rate limiting disabled")
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     net.JoinHostPort(cfg.Host, cfg.Port),
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if err := client.Ping(pingCtx).Err(); err != nil {
		logger.Warn("Redis unreachable, rate limiting disabled", zap.Error(err))
		client.Close()
		return nil
	}
	return client
}

func (s *Server) Close() error {
	s.logger.Info("Closing server resources")

	if s.redis != nil {
		if err := s.redis.Close(); err != nil {
			s.logger.Error("Failed to close redis connection", zap.Error(err))
		}
	}

	if err := s.storage.Close(); err != nil {
		s.logger.Error("Failed to close database connection", zap.Error(err))
	}

	s.logger.Sync()
	return nil
}
