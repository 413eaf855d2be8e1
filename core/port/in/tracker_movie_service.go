package in

import (
	"context"

	"tracker_server/core/domain"

	"github.com/google/uuid"
)

// MovieService manages a user's saved movie lists.
type MovieService interface {
	List(ctx context.Context, userID uuid.UUID, list *domain.ListName) ([]*domain.MovieEntry, error)
	Add(ctx context.Context, userID uuid.UUID, req *AddMovieRequest) (*domain.MovieEntry, error)
	Move(ctx context.Context, userID uuid.UUID, id int64, req *MoveMovieRequest) (*domain.MovieEntry, error)
	Rate(ctx context.Context, userID uuid.UUID, id int64, req *RateMovieRequest) (*domain.MovieEntry, error)
	Delete(ctx context.Context, userID uuid.UUID, id int64) error
	ClearList(ctx context.Context, userID uuid.UUID, list domain.ListName) (int64, error)
}

// AddMovieRequest saves a catalog movie into a list.
type AddMovieRequest struct {
	TMDBID       int64           `json:"tmdb_id"`
	Title        string          `json:"title"`
	Director     string          `json:"director,omitempty"`
	Actors       string          `json:"actors,omitempty"`
	Description  string          `json:"description,omitempty"`
	GenreIDs     []int64         `json:"genre_ids,omitempty"`
	ListName     domain.ListName `json:"list_name"`
	TimesWatched int             `json:"no_of_times_watched"`
	UserRating   *float64        `json:"user_rating,omitempty"`
	UserReview   string          `json:"user_review,omitempty"`
	PosterPath   string          `json:"poster_path,omitempty"`
	ReleaseDate  *string         `json:"release_date,omitempty"`
}

// MoveMovieRequest moves an entry between lists.
type MoveMovieRequest struct {
	ListName     domain.ListName `json:"list_name"`
	TimesWatched int             `json:"no_of_times_watched"`
}

// RateMovieRequest sets the rating and review of an entry.
type RateMovieRequest struct {
	UserRating *float64 `json:"user_rating"`
	UserReview string   `json:"user_review"`
}
