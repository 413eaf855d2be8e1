package http

import (
	"errors"

	"tracker_server/core/domain"
	"tracker_server/core/port/in"
	"tracker_server/core/port/out"
	"tracker_server/infra/middleware"
	"tracker_server/pkg/apperr"
	"tracker_server/pkg/response"

	"github.com/gofiber/fiber/v2"
)

// MovieHandler serves the authenticated movie list routes.
type MovieHandler struct {
	service     in.MovieService
	revocations out.TokenRevocationStore
}

// NewMovieHandler creates a MovieHandler. revocations may be nil, which
// disables logout.
func NewMovieHandler(service in.MovieService, revocations out.TokenRevocationStore) *MovieHandler {
	return &MovieHandler{service: service, revocations: revocations}
}

// Register mounts the list routes on an authenticated router.
func (h *MovieHandler) Register(router fiber.Router) {
	movies := router.Group("/movies")
	movies.Get("/", h.List)
	movies.Post("/", h.Add)
	movies.Delete("/", h.ClearList)
	movies.Put("/:id", h.Move)
	movies.Patch("/:id/review", h.Rate)
	movies.Delete("/:id", h.Delete)

	router.Post("/auth/logout", h.Logout)
}

// List returns the user's entries, optionally for one list.
// @Summary List saved movies
// @Tags Movies
// @Param list query string false "watchlist, watched or favorites"
// @Router /api/movies [get]
func (h *MovieHandler) List(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var list *domain.ListName
	if v := c.Query("list"); v != "" {
		ln := domain.ListName(v)
		list = &ln
	}

	entries, err := h.service.List(c.UserContext(), userID, list)
	if err != nil {
		return movieError(err)
	}
	return response.OKList(c, entries)
}

// Add saves a movie into a list.
// @Summary Save movie
// @Tags Movies
// @Accept json
// @Router /api/movies [post]
func (h *MovieHandler) Add(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}

	var req in.AddMovieRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	entry, err := h.service.Add(c.UserContext(), userID, &req)
	if err != nil {
		return movieError(err)
	}
	return response.Created(c, entry)
}

// Move switches an entry to another list.
// @Summary Move movie
// @Tags Movies
// @Router /api/movies/{id} [put]
func (h *MovieHandler) Move(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req in.MoveMovieRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	entry, err := h.service.Move(c.UserContext(), userID, id, &req)
	if err != nil {
		return movieError(err)
	}
	return response.OK(c, entry)
}

// Rate sets the rating and review of an entry.
// @Summary Review movie
// @Tags Movies
// @Router /api/movies/{id}/review [patch]
func (h *MovieHandler) Rate(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	var req in.RateMovieRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	entry, err := h.service.Rate(c.UserContext(), userID, id, &req)
	if err != nil {
		return movieError(err)
	}
	return response.OK(c, entry)
}

// Delete removes one entry.
// @Summary Delete movie
// @Tags Movies
// @Router /api/movies/{id} [delete]
func (h *MovieHandler) Delete(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	id, err := paramID(c, "id")
	if err != nil {
		return err
	}

	if err := h.service.Delete(c.UserContext(), userID, id); err != nil {
		return movieError(err)
	}
	return response.NoContent(c)
}

// ClearList removes every entry of one list.
// @Summary Clear list
// @Tags Movies
// @Param list query string true "watchlist, watched or favorites"
// @Router /api/movies [delete]
func (h *MovieHandler) ClearList(c *fiber.Ctx) error {
	userID, err := GetUserID(c)
	if err != nil {
		return err
	}
	list := c.Query("list")
	if list == "" {
		return apperr.MissingField("list")
	}

	n, err := h.service.ClearList(c.UserContext(), userID, domain.ListName(list))
	if err != nil {
		return movieError(err)
	}
	return response.OK(c, fiber.Map{"deleted": n})
}

// Logout revokes the presented access token.
func (h *MovieHandler) Logout(c *fiber.Ctx) error {
	if h.revocations == nil {
		return apperr.ConfigError("token revocation is not configured")
	}
	if err := middleware.RevokeCurrent(c, h.revocations); err != nil {
		return err
	}
	return response.NoContent(c)
}

func movieError(err error) error {
	if apperr.IsAppError(err) {
		return err
	}
	switch {
	case errors.Is(err, out.ErrMovieEntryNotFound):
		return apperr.NotFound("movie")
	case errors.Is(err, out.ErrMovieEntryDuplicate):
		return apperr.AlreadyExists("movie in this list")
	default:
		return apperr.DatabaseError("movies", err)
	}
}
