package safety

import (
	"context"
	"strconv"
	"time"

	"tracker_server/core/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

// KeywordSource fetches the keyword tags of a movie.
type KeywordSource interface {
	GetKeywords(ctx context.Context, id int64) ([]domain.Keyword, error)
}

// KeywordClassifier tests a movie's keywords against the registry.
// Successful lookups are cached; failures are not.
type KeywordClassifier struct {
	source   KeywordSource
	registry *Registry
	cache    *VerdictCache
	policy   FailurePolicy
	timeout  time.Duration
	log      zerolog.Logger

	inflight singleflight.Group
}

// NewKeywordClassifier creates a classifier over registry and cache.
func NewKeywordClassifier(source KeywordSource, registry *Registry, cache *VerdictCache, cfg *Config, log zerolog.Logger) *KeywordClassifier {
	cfg = cfg.normalized()
	if cache == nil {
		cache = NewVerdictCache(cfg.CacheTTL)
	}
	return &KeywordClassifier{
		source:   source,
		registry: registry,
		cache:    cache,
		policy:   cfg.KeywordFailurePolicy,
		timeout:  cfg.CallTimeout,
		log:      log,
	}
}

// HasUnsafeKeyword reports whether the movie carries any unsafe keyword.
// Cache hits make no network call. Concurrent misses for the same id share one lookup.
func (c *KeywordClassifier) HasUnsafeKeyword(ctx context.Context, id int64) (bool, error) {
	if unsafe, ok := c.cache.Get(id); ok {
		return unsafe, nil
	}

	v, err, _ := c.inflight.Do(strconv.FormatInt(id, 10), func() (any, error) {
		if unsafe, ok := c.cache.Get(id); ok {
			return unsafe, nil
		}

		lookupCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		keywords, err := c.source.GetKeywords(lookupCtx, id)
		if err != nil {
			return false, err
		}
		unsafe := c.registry.AnyUnsafe(keywords)
		c.cache.Set(id, unsafe)
		return unsafe, nil
	})
	if err != nil {
		return false, err
	}
	return v.(bool), nil
}

// Check classifies a movie, applying the failure policy when the lookup fails.
func (c *KeywordClassifier) Check(ctx context.Context, id int64) Verdict {
	unsafe, err := c.HasUnsafeKeyword(ctx, id)
	if err != nil {
		c.log.Warn().Err(err).
			Int64("movie_id", id).
			Str("policy", string(c.policy)).
			Msg("keyword lookup failed")
		if c.policy == FailureAllow {
			return Verdict{Allowed: true, Stage: StageKeyword, Reason: ReasonKeywordLookupFailed}
		}
		return deny(StageKeyword, ReasonKeywordLookupFailed)
	}
	if unsafe {
		return deny(StageKeyword, ReasonKeywordMatch)
	}
	return allow(StageKeyword)
}
