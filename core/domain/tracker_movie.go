package domain

import (
	"time"

	"github.com/google/uuid"
)

// ListName identifies which personal list a saved movie belongs to.
type ListName string

const (
	ListWatchlist ListName = "watchlist"
	ListWatched   ListName = "watched"
	ListFavorites ListName = "favorites"
)

// IsValid reports whether l is a known list.
func (l ListName) IsValid() bool {
	switch l {
	case ListWatchlist, ListWatched, ListFavorites:
		return true
	}
	return false
}

// Rating bounds for user ratings.
const (
	MinUserRating = 0.0
	MaxUserRating = 10.0
)

// MovieEntry is a catalog movie saved into one of a user's lists.
type MovieEntry struct {
	ID           int64     `json:"id"`
	UserID       uuid.UUID `json:"user_id"`
	TMDBID       int64     `json:"tmdb_id"`
	Title        string    `json:"title"`
	Director     string    `json:"director,omitempty"`
	Actors       string    `json:"actors,omitempty"`
	Description  string    `json:"description,omitempty"`
	GenreIDs     []int64   `json:"genre_ids,omitempty"`
	ListName     ListName  `json:"list_name"`
	TimesWatched int       `json:"no_of_times_watched"`
	UserRating   *float64  `json:"user_rating,omitempty"`
	UserReview   string    `json:"user_review,omitempty"`
	PosterPath   string    `json:"poster_path,omitempty"`
	ReleaseDate  *string   `json:"release_date,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// MovieEntryFilter narrows a list query.
type MovieEntryFilter struct {
	UserID   uuid.UUID
	ListName *ListName
	Limit    int
	Offset   int
}
