package safety

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"tracker_server/core/domain"
)

var errLookup = errors.New("lookup failed")

// fakeCatalog serves canned provider data and counts calls.
type fakeCatalog struct {
	mu sync.Mutex

	keywordSearch map[string][]domain.Keyword
	searchErr     map[string]error
	releases      map[int64][]domain.CountryReleases
	releaseErr    map[int64]error
	keywords      map[int64][]domain.Keyword
	keywordErr    map[int64]error

	// delay is applied to every per-movie lookup.
	delay time.Duration

	keywordCalls map[int64]int
	releaseCalls map[int64]int

	inflight    atomic.Int32
	maxInflight atomic.Int32
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{
		keywordSearch: map[string][]domain.Keyword{},
		searchErr:     map[string]error{},
		releases:      map[int64][]domain.CountryReleases{},
		releaseErr:    map[int64]error{},
		keywords:      map[int64][]domain.Keyword{},
		keywordErr:    map[int64]error{},
		keywordCalls:  map[int64]int{},
		releaseCalls:  map[int64]int{},
	}
}

func (f *fakeCatalog) enter() func() {
	n := f.inflight.Add(1)
	for {
		cur := f.maxInflight.Load()
		if n <= cur || f.maxInflight.CompareAndSwap(cur, n) {
			break
		}
	}
	return func() { f.inflight.Add(-1) }
}

func (f *fakeCatalog) wait(ctx context.Context) error {
	if f.delay <= 0 {
		return nil
	}
	select {
	case <-time.After(f.delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (f *fakeCatalog) SearchKeyword(ctx context.Context, phrase string) ([]domain.Keyword, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.searchErr[phrase]; err != nil {
		return nil, err
	}
	return f.keywordSearch[phrase], nil
}

func (f *fakeCatalog) GetReleaseDates(ctx context.Context, id int64) ([]domain.CountryReleases, error) {
	defer f.enter()()
	f.mu.Lock()
	f.releaseCalls[id]++
	rel, err := f.releases[id], f.releaseErr[id]
	f.mu.Unlock()

	if werr := f.wait(ctx); werr != nil {
		return nil, werr
	}
	if err != nil {
		return nil, err
	}
	return rel, nil
}

func (f *fakeCatalog) GetKeywords(ctx context.Context, id int64) ([]domain.Keyword, error) {
	defer f.enter()()
	f.mu.Lock()
	f.keywordCalls[id]++
	kws, err := f.keywords[id], f.keywordErr[id]
	f.mu.Unlock()

	if werr := f.wait(ctx); werr != nil {
		return nil, werr
	}
	if err != nil {
		return nil, err
	}
	return kws, nil
}

func (f *fakeCatalog) keywordCallCount(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.keywordCalls[id]
}

func (f *fakeCatalog) releaseCallCount(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.releaseCalls[id]
}

func usRelease(certs ...string) []domain.CountryReleases {
	rd := make([]domain.ReleaseRecord, 0, len(certs))
	for _, c := range certs {
		rd = append(rd, domain.ReleaseRecord{Certification: c})
	}
	return []domain.CountryReleases{{Region: "US", ReleaseDates: rd}}
}

func kws(ids ...int64) []domain.Keyword {
	out := make([]domain.Keyword, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.Keyword{ID: id})
	}
	return out
}

// recorder collects verdicts.
type recorder struct {
	mu       sync.Mutex
	verdicts []Verdict
}

func (r *recorder) RecordVerdict(v Verdict) {
	r.mu.Lock()
	r.verdicts = append(r.verdicts, v)
	r.mu.Unlock()
}

func (r *recorder) count(reason Reason) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, v := range r.verdicts {
		if v.Reason == reason {
			n++
		}
	}
	return n
}
