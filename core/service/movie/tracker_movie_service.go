// Package movie manages a user's watchlist, watched and favorites lists.
package movie

import (
	"context"
	"fmt"
	"strings"

	"tracker_server/core/domain"
	"tracker_server/core/port/in"
	"tracker_server/core/port/out"
	"tracker_server/pkg/apperr"

	"github.com/google/uuid"
)

const (
	maxTitleLength  = 500
	maxReviewLength = 5000
	defaultLimit    = 200
)

// Service implements in.MovieService
type Service struct {
	repo out.MovieRepository
}

// NewService creates a new MovieService
func NewService(repo out.MovieRepository) *Service {
	return &Service{repo: repo}
}

var _ in.MovieService = (*Service)(nil)

// List returns the user's entries, newest first. A nil list returns all lists.
func (s *Service) List(ctx context.Context, userID uuid.UUID, list *domain.ListName) ([]*domain.MovieEntry, error) {
	if list != nil && !list.IsValid() {
		return nil, apperr.InvalidInput("list", "must be watchlist, watched or favorites")
	}
	entries, err := s.repo.List(ctx, &domain.MovieEntryFilter{
		UserID:   userID,
		ListName: list,
		Limit:    defaultLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("list movies: %w", err)
	}
	return entries, nil
}

// Add saves a movie into one of the user's lists.
func (s *Service) Add(ctx context.Context, userID uuid.UUID, req *in.AddMovieRequest) (*domain.MovieEntry, error) {
	if req == nil {
		return nil, apperr.BadRequest("request body is required")
	}
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, apperr.MissingField("title")
	}
	if len(title) > maxTitleLength {
		return nil, apperr.InvalidInput("title", "too long")
	}
	if req.TMDBID <= 0 {
		return nil, apperr.MissingField("tmdb_id")
	}
	if !req.ListName.IsValid() {
		return nil, apperr.InvalidInput("list_name", "must be watchlist, watched or favorites")
	}
	if req.TimesWatched < 0 {
		return nil, apperr.InvalidInput("no_of_times_watched", "must not be negative")
	}
	if err := validateReview(req.UserRating, req.UserReview); err != nil {
		return nil, err
	}

	entry := &domain.MovieEntry{
		UserID:       userID,
		TMDBID:       req.TMDBID,
		Title:        title,
		Director:     strings.TrimSpace(req.Director),
		Actors:       strings.TrimSpace(req.Actors),
		Description:  req.Description,
		GenreIDs:     req.GenreIDs,
		ListName:     req.ListName,
		TimesWatched: watchedCount(req.ListName, req.TimesWatched),
		UserRating:   req.UserRating,
		UserReview:   req.UserReview,
		PosterPath:   req.PosterPath,
		ReleaseDate:  blankToNil(req.ReleaseDate),
	}
	if err := s.repo.Create(ctx, entry); err != nil {
		return nil, fmt.Errorf("add movie: %w", err)
	}
	return entry, nil
}

// Move puts an entry into another list.
func (s *Service) Move(ctx context.Context, userID uuid.UUID, id int64, req *in.MoveMovieRequest) (*domain.MovieEntry, error) {
	if req == nil || !req.ListName.IsValid() {
		return nil, apperr.InvalidInput("list_name", "must be watchlist, watched or favorites")
	}
	if req.TimesWatched < 0 {
		return nil, apperr.InvalidInput("no_of_times_watched", "must not be negative")
	}
	if err := s.repo.UpdateList(ctx, userID, id, req.ListName, watchedCount(req.ListName, req.TimesWatched)); err != nil {
		return nil, fmt.Errorf("move movie %d: %w", id, err)
	}
	entry, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("move movie %d: %w", id, err)
	}
	return entry, nil
}

// Rate sets the rating and review of an entry.
func (s *Service) Rate(ctx context.Context, userID uuid.UUID, id int64, req *in.RateMovieRequest) (*domain.MovieEntry, error) {
	if req == nil {
		return nil, apperr.BadRequest("request body is required")
	}
	if err := validateReview(req.UserRating, req.UserReview); err != nil {
		return nil, err
	}
	if err := s.repo.UpdateReview(ctx, userID, id, req.UserRating, req.UserReview); err != nil {
		return nil, fmt.Errorf("rate movie %d: %w", id, err)
	}
	entry, err := s.repo.Get(ctx, userID, id)
	if err != nil {
		return nil, fmt.Errorf("rate movie %d: %w", id, err)
	}
	return entry, nil
}

func (s *Service) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	if err := s.repo.Delete(ctx, userID, id); err != nil {
		return fmt.Errorf("delete movie %d: %w", id, err)
	}
	return nil
}

// ClearList removes every entry in one list.
func (s *Service) ClearList(ctx context.Context, userID uuid.UUID, list domain.ListName) (int64, error) {
	if !list.IsValid() {
		return 0, apperr.InvalidInput("list", "must be watchlist, watched or favorites")
	}
	n, err := s.repo.DeleteList(ctx, userID, list)
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", list, err)
	}
	return n, nil
}

func validateReview(rating *float64, review string) error {
	if rating != nil && (*rating < domain.MinUserRating || *rating > domain.MaxUserRating) {
		return apperr.InvalidInput("user_rating", "must be between 0 and 10")
	}
	if len(review) > maxReviewLength {
		return apperr.InvalidInput("user_review", "too long")
	}
	return nil
}

// watchedCount records at least one viewing for entries in the watched list.
func watchedCount(list domain.ListName, n int) int {
	if list == domain.ListWatched && n == 0 {
		return 1
	}
	return n
}

func blankToNil(s *string) *string {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil
	}
	return s
}
