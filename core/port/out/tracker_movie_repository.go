package out

import (
	"context"
	"errors"

	"tracker_server/core/domain"

	"github.com/google/uuid"
)

var (
	ErrMovieEntryNotFound  = errors.New("movie entry not found")
	ErrMovieEntryDuplicate = errors.New("movie entry already in list")
)

// MovieRepository defines the interface for saved movie list persistence.
// Every method is scoped to the owning user.
type MovieRepository interface {
	List(ctx context.Context, filter *domain.MovieEntryFilter) ([]*domain.MovieEntry, error)
	Get(ctx context.Context, userID uuid.UUID, id int64) (*domain.MovieEntry, error)
	Create(ctx context.Context, entry *domain.MovieEntry) error

	// UpdateList moves an entry to another list.
	UpdateList(ctx context.Context, userID uuid.UUID, id int64, list domain.ListName, timesWatched int) error

	// UpdateReview sets the user's rating and review on an entry.
	UpdateReview(ctx context.Context, userID uuid.UUID, id int64, rating *float64, review string) error

	Delete(ctx context.Context, userID uuid.UUID, id int64) error

	// DeleteList removes every entry in one list and reports how many were removed.
	DeleteList(ctx context.Context, userID uuid.UUID, list domain.ListName) (int64, error)
}
