package http

import (
	"context"
	"errors"

	"tracker_server/core/port/in"
	"tracker_server/core/service/catalog"
	"tracker_server/pkg/apperr"
	"tracker_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// CatalogHandler serves filtered search and detail lookups.
type CatalogHandler struct {
	service in.CatalogService
}

func NewCatalogHandler(service in.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// Register mounts the gateway routes, each behind mw. The unprefixed paths
// are kept for clients that predate the /api prefix.
func (h *CatalogHandler) Register(app fiber.Router, mw ...fiber.Handler) {
	route := func(handler fiber.Handler) []fiber.Handler {
		return append(append([]fiber.Handler{}, mw...), handler)
	}
	for _, prefix := range []string{"/api", ""} {
		app.Get(prefix+"/search", route(h.Search)...)
		app.Get(prefix+"/item/:id", route(h.Get)...)
	}
	app.Get("/api/movie/:id", route(h.Get)...)
}

// Search returns the safe subset of provider results.
// @Summary Search movies
// @Tags Catalog
// @Produce json
// @Param q query string true "Search text"
// @Router /api/search [get]
func (h *CatalogHandler) Search(c *fiber.Ctx) error {
	q := c.Query("q")
	if q == "" {
		q = c.Query("query")
	}

	items, err := h.service.Search(c.UserContext(), q)
	if err != nil {
		return catalogError(err)
	}
	return response.OKList(c, items)
}

// Get returns one movie when it passes every check.
// @Summary Movie detail
// @Tags Catalog
// @Produce json
// @Param id path int true "Provider movie id"
// @Router /api/item/{id} [get]
func (h *CatalogHandler) Get(c *fiber.Ctx) error {
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	item, err := h.service.GetByID(c.UserContext(), id)
	if err != nil {
		return catalogError(err)
	}
	return response.OK(c, item)
}

func catalogError(err error) error {
	switch {
	case errors.Is(err, catalog.ErrNotReady):
		return apperr.ServiceInitializing("")
	case errors.Is(err, catalog.ErrEmptyQuery):
		return apperr.MissingField("q")
	case errors.Is(err, catalog.ErrContentUnavailable):
		return apperr.ContentUnavailable("")
	case errors.Is(err, context.DeadlineExceeded):
		return apperr.Timeout("catalog provider request")
	default:
		return apperr.UpstreamError("catalog provider request failed", err)
	}
}
