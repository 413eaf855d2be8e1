// Package catalog implements the filtered search and detail gateway.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tracker_server/core/domain"
	"tracker_server/core/port/in"
	"tracker_server/core/port/out"
	"tracker_server/core/service/safety"
	"tracker_server/pkg/logger"
)

var (
	// ErrNotReady is returned until filtering can be enforced.
	ErrNotReady = errors.New("catalog: filter initializing")

	// ErrContentUnavailable is returned for a missing or excluded item.
	ErrContentUnavailable = errors.New("catalog: content unavailable")

	// ErrEmptyQuery is returned for a blank search query.
	ErrEmptyQuery = errors.New("catalog: empty query")
)

// Filter classifies catalog items.
type Filter interface {
	Filter(ctx context.Context, items []domain.CatalogItem) []domain.CatalogItem
	Evaluate(ctx context.Context, item *domain.CatalogItem) safety.Verdict
}

// ReadinessProbe reports whether the unsafe keyword set is loaded.
type ReadinessProbe interface {
	Ready() bool
}

// Service is the gateway between clients and the catalog provider.
type Service struct {
	provider     out.CatalogProvider
	filter       Filter
	registry     ReadinessProbe
	needRegistry bool
}

var _ in.CatalogService = (*Service)(nil)

// NewService creates a gateway. registry may be nil when strategy does not use keywords.
func NewService(provider out.CatalogProvider, filter Filter, registry ReadinessProbe, strategy safety.Strategy) *Service {
	return &Service{
		provider:     provider,
		filter:       filter,
		registry:     registry,
		needRegistry: strategy.UsesKeywords(),
	}
}

// Ready reports whether the gateway may serve traffic.
func (s *Service) Ready() bool {
	// Certification-only deployments have no keyword registry to wait for.
	if !s.needRegistry {
		return true
	}
	return s.registry != nil && s.registry.Ready()
}

// Search returns the safe provider results for query.
func (s *Service) Search(ctx context.Context, query string) ([]domain.CatalogItem, error) {
	if !s.Ready() {
		return nil, ErrNotReady
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}

	page, err := s.provider.SearchMovies(ctx, query, 1)
	if err != nil {
		logger.WithContext(ctx).WithError(err).Error("catalog search failed for %q", query)
		return nil, fmt.Errorf("search movies: %w", err)
	}
	if page == nil || len(page.Results) == 0 {
		return []domain.CatalogItem{}, nil
	}

	return s.filter.Filter(ctx, page.Results), nil
}

// GetByID returns one item when it passes every check.
func (s *Service) GetByID(ctx context.Context, id int64) (*domain.CatalogItem, error) {
	if !s.Ready() {
		return nil, ErrNotReady
	}

	item, err := s.provider.GetMovie(ctx, id)
	if errors.Is(err, out.ErrCatalogNotFound) {
		return nil, ErrContentUnavailable
	}
	if err != nil {
		logger.WithContext(ctx).WithError(err).Error("catalog get movie %d failed", id)
		return nil, fmt.Errorf("get movie %d: %w", id, err)
	}

	if v := s.filter.Evaluate(ctx, item); !v.Allowed {
		return nil, ErrContentUnavailable
	}
	return item, nil
}
