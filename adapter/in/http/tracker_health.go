package http

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

// Pinger is a dependency with a liveness probe.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadinessChecker reports whether the gateway can enforce filtering.
type ReadinessChecker interface {
	Ready() bool
}

type HealthHandler struct {
	gateway ReadinessChecker
	deps    map[string]Pinger
}

// NewHealthHandler creates a HealthHandler. Nil entries in deps are reported
// as not configured.
func NewHealthHandler(gateway ReadinessChecker, deps map[string]Pinger) *HealthHandler {
	return &HealthHandler{gateway: gateway, deps: deps}
}

func (h *HealthHandler) Register(app fiber.Router) {
	app.Get("/health", h.Health)
	app.Get("/ready", h.Ready)
}

func (h *HealthHandler) Health(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":    "ok",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// Ready fails while the unsafe keyword registry is loading or a configured
// dependency does not answer.
func (h *HealthHandler) Ready(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.deps)+1)
	allHealthy := true

	if h.gateway != nil && !h.gateway.Ready() {
		checks["registry"] = "initializing"
		allHealthy = false
	} else {
		checks["registry"] = "ready"
	}

	for name, dep := range h.deps {
		if dep == nil {
			checks[name] = "not configured"
			continue
		}
		if err := dep.Ping(ctx); err != nil {
			checks[name] = "unhealthy: " + err.Error()
			allHealthy = false
		} else {
			checks[name] = "healthy"
		}
	}

	status := "ready"
	statusCode := fiber.StatusOK
	if !allHealthy {
		status = "not ready"
		statusCode = fiber.StatusServiceUnavailable
	}

	return c.Status(statusCode).JSON(fiber.Map{
		"status":    status,
		"checks":    checks,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
