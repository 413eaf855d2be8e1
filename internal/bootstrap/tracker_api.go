package bootstrap

import (
	"context"
	"strings"
	"time"

	"tracker_server/adapter/in/http"
	"tracker_server/config"
	"tracker_server/infra/middleware"
	"tracker_server/pkg/logger"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewAPI builds the HTTP server and starts its background loops. The returned
// cleanup stops the loops and closes storage.
func NewAPI(ctx context.Context, cfg *config.Config) (*fiber.App, func(), error) {
	deps, closeDeps, err := NewDependencies(ctx, cfg)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize dependencies")
		return nil, nil, err
	}

	app := newApp(cfg, deps)

	bg := NewBackground(deps)
	bg.Start()

	cleanup := func() {
		bg.Stop()
		closeDeps()
	}

	logger.Info("API server initialized (filter strategy: %s)", deps.FilterConfig.Strategy)
	return app, cleanup, nil
}

const catalogMaxAge = 5 * time.Minute

func newApp(cfg *config.Config, deps *Dependencies) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler:          middleware.ErrorHandler(),
		DisableStartupMessage: cfg.IsProduction(),
		StrictRouting:         false,
		CaseSensitive:         false,

		// go-json: drop-in encoder, faster than encoding/json
		JSONEncoder: json.Marshal,
		JSONDecoder: json.Unmarshal,

		BodyLimit:    1 * 1024 * 1024,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  2 * time.Minute,
	})

	// Global middleware stack (order matters)
	app.Use(middleware.Recover())                           // 1. Panic recovery
	app.Use(middleware.RequestID())                         // 2. Request ID
	app.Use(middleware.SecurityHeaders(cfg.IsProduction())) // 3. Security headers
	app.Use(middleware.RequestLogger(deps.Metrics))         // 4. Request logging and metrics
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))

	// AllowCredentials requires explicit origins (not "*")
	allowOrigins := strings.Join(cfg.AllowedOrigins, ",")
	allowCredentials := allowOrigins != "" && allowOrigins != "*"
	if allowOrigins == "" {
		allowOrigins = "*"
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,PATCH,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization,X-Request-ID",
		ExposeHeaders:    "X-Request-ID,X-RateLimit-Limit,X-RateLimit-Remaining,X-RateLimit-Reset,Retry-After",
		AllowCredentials: allowCredentials,
		MaxAge:           86400,
	}))

	// Probes and metrics (no auth, no rate limit)
	http.NewHealthHandler(deps.CatalogService, healthDeps(deps)).Register(app)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{})))

	// Public catalog gateway, limited per client IP. Registered before the
	// /api auth group so the group middleware never runs for these routes.
	http.NewCatalogHandler(deps.CatalogService).Register(app,
		middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute),
		middleware.PublicCache(catalogMaxAge))

	// Authenticated movie lists, limited per user
	if deps.MovieService != nil {
		api := app.Group("/api", middleware.JWTAuth(middleware.AuthConfig{
			Secret:      cfg.JWTSecret,
			Revocations: deps.Revocations,
		}), middleware.RateLimit(cfg.RateLimitPerMinute, time.Minute), middleware.NoCache())
		http.NewMovieHandler(deps.MovieService, deps.Revocations).Register(api)
		if cfg.JWTSecret == "" {
			logger.Warn("JWT_SECRET not set, movie list routes will reject every request")
		}
	}

	return app
}

// healthDeps lists configured dependencies for the readiness probe.
func healthDeps(deps *Dependencies) map[string]http.Pinger {
	checks := map[string]http.Pinger{"postgres": nil, "redis": nil}
	if deps.Postgres != nil {
		checks["postgres"] = deps.Postgres
	}
	if deps.Revocations != nil {
		checks["redis"] = deps.Revocations
	}
	return checks
}
