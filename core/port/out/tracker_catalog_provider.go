package out

import (
	"context"
	"errors"
	"fmt"

	"tracker_server/core/domain"
)

// ErrCatalogNotFound is returned when the provider has no record for an id.
var ErrCatalogNotFound = errors.New("catalog item not found")

// ProviderStatusError reports a non-2xx provider response.
type ProviderStatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *ProviderStatusError) Error() string {
	return fmt.Sprintf("catalog provider %s: unexpected status %d", e.Endpoint, e.StatusCode)
}

// CatalogProvider defines the outbound port to the external movie catalog.
type CatalogProvider interface {
	// SearchMovies runs a free-text search with adult titles excluded at the provider.
	SearchMovies(ctx context.Context, query string, page int) (*domain.SearchPage, error)

	// GetMovie fetches one detail record.
	GetMovie(ctx context.Context, id int64) (*domain.CatalogItem, error)

	// GetReleaseDates fetches the per-region certification records of a movie.
	GetReleaseDates(ctx context.Context, id int64) ([]domain.CountryReleases, error)

	// GetKeywords fetches the keyword tags of a movie.
	GetKeywords(ctx context.Context, id int64) ([]domain.Keyword, error)

	// SearchKeyword looks up keyword candidates for a phrase.
	SearchKeyword(ctx context.Context, phrase string) ([]domain.Keyword, error)
}
