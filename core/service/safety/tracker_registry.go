package safety

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"sync/atomic"

	"tracker_server/core/domain"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

// ErrRegistryEmpty is returned when no phrase resolved to a keyword id.
var ErrRegistryEmpty = errors.New("keyword registry: no phrase resolved")

const registryLookupConcurrency = 4

// KeywordSearcher resolves a phrase into provider keyword candidates.
type KeywordSearcher interface {
	SearchKeyword(ctx context.Context, phrase string) ([]domain.Keyword, error)
}

type keywordSet struct {
	ids      map[int64]struct{}
	resolved map[string][]int64
}

// Registry holds the provider keyword ids treated as unsafe.
// The set is published once and is read-only afterwards.
type Registry struct {
	searcher KeywordSearcher
	log      zerolog.Logger

	mu  sync.Mutex // serializes Initialize
	set atomic.Pointer[keywordSet]
}

// NewRegistry creates an empty, unpublished registry.
func NewRegistry(searcher KeywordSearcher, log zerolog.Logger) *Registry {
	return &Registry{searcher: searcher, log: log}
}

// Initialize resolves phrases and publishes the resulting id set.
// Phrases that fail to resolve are logged and skipped. When nothing resolves
// the registry stays unpublished and ErrRegistryEmpty is returned, so the
// caller may retry. Once published, further calls return the current size.
func (r *Registry) Initialize(ctx context.Context, phrases []string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if s := r.set.Load(); s != nil {
		return len(s.ids), nil
	}

	phrases = normalizePhrases(phrases)
	if len(phrases) == 0 {
		return 0, ErrRegistryEmpty
	}

	matches := make([][]int64, len(phrases))
	g := new(errgroup.Group)
	g.SetLimit(registryLookupConcurrency)
	for i, phrase := range phrases {
		i, phrase := i, phrase
		g.Go(func() error {
			if ctx.Err() != nil {
				return nil
			}
			candidates, err := r.searcher.SearchKeyword(ctx, phrase)
			if err != nil {
				r.log.Warn().Err(err).Str("phrase", phrase).Msg("keyword phrase lookup failed")
				return nil
			}
			matches[i] = exactMatches(phrase, candidates)
			if len(matches[i]) == 0 {
				r.log.Warn().Str("phrase", phrase).Msg("keyword phrase has no exact match")
			}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return 0, err
	}

	set := &keywordSet{
		ids:      make(map[int64]struct{}),
		resolved: make(map[string][]int64),
	}
	for i, phrase := range phrases {
		if len(matches[i]) == 0 {
			continue
		}
		set.resolved[phrase] = matches[i]
		for _, id := range matches[i] {
			set.ids[id] = struct{}{}
		}
	}
	if len(set.ids) == 0 {
		return 0, ErrRegistryEmpty
	}

	r.set.Store(set)
	r.log.Info().
		Int("phrases", len(phrases)).
		Int("resolved", len(set.resolved)).
		Int("keyword_ids", len(set.ids)).
		Msg("keyword registry published")
	return len(set.ids), nil
}

// Ready reports whether a non-empty set has been published.
func (r *Registry) Ready() bool {
	return r.set.Load() != nil
}

// Size returns the number of unsafe keyword ids.
func (r *Registry) Size() int {
	if s := r.set.Load(); s != nil {
		return len(s.ids)
	}
	return 0
}

// Contains reports whether id is an unsafe keyword.
func (r *Registry) Contains(id int64) bool {
	s := r.set.Load()
	if s == nil {
		return false
	}
	_, ok := s.ids[id]
	return ok
}

// AnyUnsafe reports whether any keyword in the list is unsafe.
func (r *Registry) AnyUnsafe(keywords []domain.Keyword) bool {
	s := r.set.Load()
	if s == nil {
		return false
	}
	for _, kw := range keywords {
		if _, ok := s.ids[kw.ID]; ok {
			return true
		}
	}
	return false
}

// Resolved returns a copy of the phrase to ids mapping.
func (r *Registry) Resolved() map[string][]int64 {
	s := r.set.Load()
	if s == nil {
		return map[string][]int64{}
	}
	out := make(map[string][]int64, len(s.resolved))
	for phrase, ids := range s.resolved {
		out[phrase] = append([]int64(nil), ids...)
	}
	return out
}

func normalizePhrases(phrases []string) []string {
	seen := make(map[string]struct{}, len(phrases))
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		if _, dup := seen[p]; dup {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}

// exactMatches returns the ids of candidates whose name equals phrase ignoring case.
func exactMatches(phrase string, candidates []domain.Keyword) []int64 {
	var ids []int64
	for _, c := range candidates {
		if strings.EqualFold(strings.TrimSpace(c.Name), phrase) {
			ids = append(ids, c.ID)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
