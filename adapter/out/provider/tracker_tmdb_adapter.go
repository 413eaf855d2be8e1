package provider

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"tracker_server/core/domain"
	"tracker_server/core/port/out"
	"tracker_server/pkg/httputil"
	"tracker_server/pkg/ratelimit"
	"tracker_server/pkg/resilience"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
)

// =============================================================================
// TMDB Adapter
// =============================================================================

const (
	DefaultTMDBBaseURL = "https://api.themoviedb.org/3"

	endpointSearchMovie   = "search_movie"
	endpointMovie         = "movie"
	endpointReleaseDates  = "movie_release_dates"
	endpointMovieKeywords = "movie_keywords"
	endpointSearchKeyword = "search_keyword"
)

// TMDBConfig holds TMDB configuration.
type TMDBConfig struct {
	APIKey            string
	BaseURL           string
	RequestsPerSecond float64
	Burst             int

	// Timeout applies when the caller's context has no deadline.
	Timeout time.Duration
}

// RequestObserver receives one observation per outbound call.
type RequestObserver interface {
	ObserveProviderRequest(endpoint, outcome string, d time.Duration)
}

// TMDBAdapter implements out.CatalogProvider for The Movie Database.
type TMDBAdapter struct {
	apiKey   string
	baseURL  string
	timeout  time.Duration
	client   *http.Client
	limiter  *ratelimit.Limiter
	cb       *gobreaker.CircuitBreaker
	observer RequestObserver
	log      zerolog.Logger
}

var _ out.CatalogProvider = (*TMDBAdapter)(nil)

// TMDBOption configures a TMDBAdapter.
type TMDBOption func(*TMDBAdapter)

// WithHTTPClient replaces the HTTP client.
func WithHTTPClient(c *http.Client) TMDBOption {
	return func(a *TMDBAdapter) { a.client = c }
}

// WithObserver sets the request observer.
func WithObserver(o RequestObserver) TMDBOption {
	return func(a *TMDBAdapter) { a.observer = o }
}

// WithBreaker replaces the circuit breaker configuration.
func WithBreaker(cfg *resilience.BreakerConfig) TMDBOption {
	return func(a *TMDBAdapter) {
		cfg.IsSuccessful = countsAsSuccess
		a.cb = resilience.NewBreaker(cfg, a.log)
	}
}

// NewTMDBAdapter creates a new TMDB adapter.
func NewTMDBAdapter(cfg *TMDBConfig, log zerolog.Logger, opts ...TMDBOption) *TMDBAdapter {
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	if baseURL == "" {
		baseURL = DefaultTMDBBaseURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	a := &TMDBAdapter{
		apiKey:  cfg.APIKey,
		baseURL: baseURL,
		timeout: timeout,
		client:  httputil.NewClient(httputil.CatalogClientConfig()),
		limiter: ratelimit.New(&ratelimit.Config{
			RequestsPerSecond: cfg.RequestsPerSecond,
			Burst:             cfg.Burst,
		}),
		log: log,
	}

	breaker := resilience.DefaultBreakerConfig("tmdb-api")
	breaker.IsSuccessful = countsAsSuccess
	a.cb = resilience.NewBreaker(breaker, log)

	for _, opt := range opts {
		opt(a)
	}
	return a
}

// countsAsSuccess keeps missing records and caller cancellations out of the failure counts.
func countsAsSuccess(err error) bool {
	return err == nil ||
		errors.Is(err, out.ErrCatalogNotFound) ||
		errors.Is(err, context.Canceled)
}

// =============================================================================
// Catalog Operations
// =============================================================================

// SearchMovies runs a text search with adult titles excluded.
func (a *TMDBAdapter) SearchMovies(ctx context.Context, query string, page int) (*domain.SearchPage, error) {
	if page < 1 {
		page = 1
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("include_adult", "false")
	params.Set("page", strconv.Itoa(page))

	var result domain.SearchPage
	if err := a.get(ctx, endpointSearchMovie, "/search/movie", params, &result); err != nil {
		return nil, err
	}
	if result.Results == nil {
		result.Results = []domain.CatalogItem{}
	}
	return &result, nil
}

// GetMovie fetches one movie.
func (a *TMDBAdapter) GetMovie(ctx context.Context, id int64) (*domain.CatalogItem, error) {
	var item domain.CatalogItem
	if err := a.get(ctx, endpointMovie, moviePath(id, ""), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

// GetReleaseDates fetches the per-region release records of a movie.
func (a *TMDBAdapter) GetReleaseDates(ctx context.Context, id int64) ([]domain.CountryReleases, error) {
	var result struct {
		ID      int64                    `json:"id"`
		Results []domain.CountryReleases `json:"results"`
	}
	if err := a.get(ctx, endpointReleaseDates, moviePath(id, "/release_dates"), nil, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// GetKeywords fetches the keyword tags of a movie.
func (a *TMDBAdapter) GetKeywords(ctx context.Context, id int64) ([]domain.Keyword, error) {
	var result struct {
		ID       int64            `json:"id"`
		Keywords []domain.Keyword `json:"keywords"`
	}
	if err := a.get(ctx, endpointMovieKeywords, moviePath(id, "/keywords"), nil, &result); err != nil {
		return nil, err
	}
	return result.Keywords, nil
}

// SearchKeyword looks up keyword candidates for a phrase.
func (a *TMDBAdapter) SearchKeyword(ctx context.Context, phrase string) ([]domain.Keyword, error) {
	params := url.Values{}
	params.Set("query", phrase)

	var result struct {
		Results []domain.Keyword `json:"results"`
	}
	if err := a.get(ctx, endpointSearchKeyword, "/search/keyword", params, &result); err != nil {
		return nil, err
	}
	return result.Results, nil
}

// IsCircuitOpen reports whether the breaker currently rejects calls.
func (a *TMDBAdapter) IsCircuitOpen() bool {
	return a.cb.State() == gobreaker.StateOpen
}

// =============================================================================
// Transport
// =============================================================================

func moviePath(id int64, suffix string) string {
	return "/movie/" + strconv.FormatInt(id, 10) + suffix
}

func (a *TMDBAdapter) get(ctx context.Context, endpoint, path string, params url.Values, dst any) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	if err := a.limiter.Wait(ctx); err != nil {
		a.observe(endpoint, "throttled", 0)
		return err
	}

	start := time.Now()
	_, err := a.cb.Execute(func() (any, error) {
		return nil, a.do(ctx, path, params, dst)
	})
	a.observe(endpoint, outcomeOf(err), time.Since(start))

	if err != nil && !errors.Is(err, out.ErrCatalogNotFound) {
		a.log.Debug().Err(err).Str("endpoint", endpoint).Msg("tmdb request failed")
	}
	return err
}

func (a *TMDBAdapter) do(ctx context.Context, path string, params url.Values, dst any) error {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("api_key", a.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return fmt.Errorf("tmdb: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		// url.Error carries the full URL, including the api key.
		var uerr *url.Error
		if errors.As(err, &uerr) {
			err = uerr.Err
		}
		return fmt.Errorf("tmdb %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return out.ErrCatalogNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return &out.ProviderStatusError{Endpoint: path, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("tmdb %s: decode: %w", path, err)
	}
	return nil
}

func (a *TMDBAdapter) observe(endpoint, outcome string, d time.Duration) {
	if a.observer != nil {
		a.observer.ObserveProviderRequest(endpoint, outcome, d)
	}
}

func outcomeOf(err error) string {
	var statusErr *out.ProviderStatusError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, out.ErrCatalogNotFound):
		return "not_found"
	case resilience.IsRejected(err):
		return "rejected"
	case errors.As(err, &statusErr):
		return "status_" + strconv.Itoa(statusErr.StatusCode)
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}
