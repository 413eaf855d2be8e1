package in

import (
	"context"

	"tracker_server/core/domain"
)

// CatalogService is the filtered search and detail gateway.
type CatalogService interface {
	// Search returns the safe subset of provider results for query, in provider order.
	Search(ctx context.Context, query string) ([]domain.CatalogItem, error)

	// GetByID returns one item, or an unavailable error when it fails any check.
	GetByID(ctx context.Context, id int64) (*domain.CatalogItem, error)

	// Ready reports whether filtering can be enforced.
	Ready() bool
}
