// Package server sets up the HTTP server, router, and all route definitions.
//
// New is the composition root: it opens the Record Store and the metrics
// cache from config, builds the service and handlers on top of them, and
// wires the routes. Nothing below this package reaches for a global.
//
// DEPENDENCY FLOW:
//
//	config.Config ─┬─ openStore → sqlite.DB | postgres.DB ─┐
//	               └─ openCache → cache.Redis | cache.Nop ─┴→ MealService → MealHandler
//
// The store and cache are owned by Server and closed by Close, also on the
// error paths of New.
package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/Robson16/daily-diet-api/internal/auth"
	"github.com/Robson16/daily-diet-api/internal/cache"
	"github.com/Robson16/daily-diet-api/internal/config"
	"github.com/Robson16/daily-diet-api/internal/handler"
	"github.com/Robson16/daily-diet-api/internal/middleware"
	"github.com/Robson16/daily-diet-api/internal/repository"
	"github.com/Robson16/daily-diet-api/internal/repository/postgres"
	sqliteRepo "github.com/Robson16/daily-diet-api/internal/repository/sqlite"
	"github.com/Robson16/daily-diet-api/internal/service"
)

// limiterSweepInterval is how often idle per-IP limiters are dropped.
const limiterSweepInterval = 5 * time.Minute

// Server owns the store and cache connections and closes them on shutdown.
type Server struct {
	router  *chi.Mux
	config  *config.Config
	logger  *slog.Logger
	store   repository.Store
	cache   cache.MetricsCache
	limiter *middleware.RateLimiter
}

// New opens the configured store and cache and builds the router. If the
// cache cannot be opened the already opened store is closed again.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	store, err := openStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	metricsCache, err := openCache(ctx, cfg)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("opening cache: %w", err)
	}

	return newServer(cfg, logger, store, metricsCache), nil
}

// newServer wires an already opened store and cache.
func newServer(cfg *config.Config, logger *slog.Logger, store repository.Store, metricsCache cache.MetricsCache) *Server {
	s := &Server{
		router:  chi.NewRouter(),
		config:  cfg,
		logger:  logger,
		store:   store,
		cache:   metricsCache,
		limiter: middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst, 30*time.Minute),
	}
	s.setupRoutes()
	return s
}

// openStore picks the Record Store from DB_DRIVER. Validate has already
// rejected unknown drivers, so the default branch is sqlite.
func openStore(ctx context.Context, cfg *config.Config) (repository.Store, error) {
	switch cfg.DBDriver {
	case config.DriverPostgres:
		return postgres.New(ctx, cfg.DatabaseURL)
	default:
		return sqliteRepo.New(cfg.DBPath)
	}
}

// openCache returns Redis when REDIS_URL is set and Nop otherwise. An
// unreachable Redis fails startup rather than silently running uncached.
func openCache(ctx context.Context, cfg *config.Config) (cache.MetricsCache, error) {
	if cfg.RedisURL == "" {
		return cache.Nop{}, nil
	}
	return cache.NewRedis(ctx, cfg.RedisURL, cfg.MetricsCacheTTL)
}

// setupRoutes configures all middleware and route handlers.
//
// ROUTES:
// GET    /health          → store ping, unguarded
// POST   /meals           → create, token optional (minted if absent)
// GET    /meals           → list            ┐
// GET    /meals/metrics   → metrics         │
// GET    /meals/{id}      → one meal        │ Access Guard
// PUT    /meals/{id}      → partial update  │
// DELETE /meals/{id}      → delete          ┘
//
// Middleware order: RequestID → [RealIP] → Logger → Recoverer → CORS.
// /meals additionally runs the per-IP rate limiter.
//
// TRUSTED PROXY:
// RealIP copies X-Forwarded-For / X-Real-IP into r.RemoteAddr without
// checking who sent them. It only runs when TRUST_PROXY is set, i.e. when a
// proxy in front of us overwrites those headers. Without it the limiter keys
// on the TCP peer address, which a client cannot forge.
func (s *Server) setupRoutes() {
	s.router.Use(chimiddleware.RequestID)
	if s.config.TrustProxy {
		s.router.Use(chimiddleware.RealIP)
	}
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.config.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	healthHandler := handler.NewHealthHandler(s.store, s.logger)
	s.router.Get("/health", healthHandler.HandleHealth)

	mealService := service.NewMealService(s.store, s.cache, s.logger)
	mealHandler := handler.NewMealHandler(mealService, auth.CookieOptions{Secure: s.config.CookieSecure}, s.logger)

	s.router.Route("/meals", func(r chi.Router) {
		r.Use(s.limiter.Handler)

		r.With(auth.OptionalToken).Post("/", mealHandler.HandleCreate)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireToken)
			r.Get("/", mealHandler.HandleList)
			r.Get("/metrics", mealHandler.HandleMetrics)
			r.Get("/{id}", mealHandler.HandleGetByID)
			r.Put("/{id}", mealHandler.HandleUpdate)
			r.Delete("/{id}", mealHandler.HandleDelete)
		})
	})
}

// Handler returns the fully wired router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Close releases the cache and store connections.
func (s *Server) Close() error {
	return errors.Join(s.cache.Close(), s.store.Close())
}

// Start serves HTTP until SIGINT or SIGTERM, then drains in-flight requests
// for up to 30 seconds and closes the store and cache.
func (s *Server) Start() error {
	defer func() {
		if err := s.Close(); err != nil {
			s.logger.Error("failed to close resources", slog.String("error", err.Error()))
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	stopSweep := make(chan struct{})
	defer close(stopSweep)
	go s.sweepLimiters(stopSweep)

	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("env", s.config.Environment),
			slog.String("driver", s.config.DBDriver),
			slog.Bool("metrics_cache", s.config.RedisURL != ""),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}

// sweepLimiters drops idle limiters every limiterSweepInterval until stop
// is closed.
func (s *Server) sweepLimiters(stop <-chan struct{}) {
	ticker := time.NewTicker(limiterSweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.limiter.Sweep()
		case <-stop:
			return
		}
	}
}
