package movie

import (
	"context"
	"sort"
	"testing"

	"tracker_server/core/domain"
	"tracker_server/core/port/in"
	"tracker_server/core/port/out"
	"tracker_server/pkg/apperr"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memRepo is an in-memory MovieRepository.
type memRepo struct {
	nextID  int64
	entries map[int64]*domain.MovieEntry
}

func newMemRepo() *memRepo {
	return &memRepo{entries: map[int64]*domain.MovieEntry{}}
}

func (r *memRepo) List(_ context.Context, f *domain.MovieEntryFilter) ([]*domain.MovieEntry, error) {
	var out []*domain.MovieEntry
	for _, e := range r.entries {
		if e.UserID != f.UserID {
			continue
		}
		if f.ListName != nil && e.ListName != *f.ListName {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}

func (r *memRepo) Get(_ context.Context, userID uuid.UUID, id int64) (*domain.MovieEntry, error) {
	e, ok := r.entries[id]
	if !ok || e.UserID != userID {
		return nil, out.ErrMovieEntryNotFound
	}
	return e, nil
}

func (r *memRepo) Create(_ context.Context, entry *domain.MovieEntry) error {
	for _, e := range r.entries {
		if e.UserID == entry.UserID && e.TMDBID == entry.TMDBID && e.ListName == entry.ListName {
			return out.ErrMovieEntryDuplicate
		}
	}
	r.nextID++
	entry.ID = r.nextID
	r.entries[entry.ID] = entry
	return nil
}

func (r *memRepo) UpdateList(ctx context.Context, userID uuid.UUID, id int64, list domain.ListName, n int) error {
	e, err := r.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	e.ListName = list
	e.TimesWatched = n
	return nil
}

func (r *memRepo) UpdateReview(ctx context.Context, userID uuid.UUID, id int64, rating *float64, review string) error {
	e, err := r.Get(ctx, userID, id)
	if err != nil {
		return err
	}
	e.UserRating = rating
	e.UserReview = review
	return nil
}

func (r *memRepo) Delete(ctx context.Context, userID uuid.UUID, id int64) error {
	if _, err := r.Get(ctx, userID, id); err != nil {
		return err
	}
	delete(r.entries, id)
	return nil
}

func (r *memRepo) DeleteList(_ context.Context, userID uuid.UUID, list domain.ListName) (int64, error) {
	var n int64
	for id, e := range r.entries {
		if e.UserID == userID && e.ListName == list {
			delete(r.entries, id)
			n++
		}
	}
	return n, nil
}

func ptr[T any](v T) *T { return &v }

func TestAddValidation(t *testing.T) {
	svc := NewService(newMemRepo())
	user := uuid.New()

	tests := []struct {
		name string
		req  *in.AddMovieRequest
	}{
		{"nil request", nil},
		{"missing title", &in.AddMovieRequest{TMDBID: 1, ListName: domain.ListWatchlist}},
		{"missing tmdb id", &in.AddMovieRequest{Title: "Dune", ListName: domain.ListWatchlist}},
		{"unknown list", &in.AddMovieRequest{TMDBID: 1, Title: "Dune", ListName: "later"}},
		{"negative watches", &in.AddMovieRequest{TMDBID: 1, Title: "Dune", ListName: domain.ListWatched, TimesWatched: -1}},
		{"rating too high", &in.AddMovieRequest{TMDBID: 1, Title: "Dune", ListName: domain.ListWatched, UserRating: ptr(10.5)}},
		{"rating negative", &in.AddMovieRequest{TMDBID: 1, Title: "Dune", ListName: domain.ListWatched, UserRating: ptr(-1.0)}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Add(context.Background(), user, tt.req)
			require.Error(t, err)
			assert.Equal(t, 400, apperr.GetHTTPStatus(err))
		})
	}
}

func TestAddDefaultsWatchedCount(t *testing.T) {
	svc := NewService(newMemRepo())
	user := uuid.New()

	watched, err := svc.Add(context.Background(), user, &in.AddMovieRequest{TMDBID: 1, Title: " Dune ", ListName: domain.ListWatched})
	require.NoError(t, err)
	assert.Equal(t, 1, watched.TimesWatched)
	assert.Equal(t, "Dune", watched.Title)

	later, err := svc.Add(context.Background(), user, &in.AddMovieRequest{TMDBID: 1, Title: "Dune", ListName: domain.ListWatchlist, ReleaseDate: ptr("")})
	require.NoError(t, err)
	assert.Zero(t, later.TimesWatched)
	assert.Nil(t, later.ReleaseDate)
}

func TestAddDuplicate(t *testing.T) {
	svc := NewService(newMemRepo())
	user := uuid.New()
	req := &in.AddMovieRequest{TMDBID: 7, Title: "Heat", ListName: domain.ListWatchlist}

	_, err := svc.Add(context.Background(), user, req)
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), user, req)
	assert.ErrorIs(t, err, out.ErrMovieEntryDuplicate)
}

func TestOwnershipScoping(t *testing.T) {
	repo := newMemRepo()
	svc := NewService(repo)
	alice, bob := uuid.New(), uuid.New()

	entry, err := svc.Add(context.Background(), alice, &in.AddMovieRequest{TMDBID: 7, Title: "Heat", ListName: domain.ListWatchlist})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(context.Background(), bob, entry.ID), out.ErrMovieEntryNotFound)
	_, err = svc.Move(context.Background(), bob, entry.ID, &in.MoveMovieRequest{ListName: domain.ListWatched})
	assert.ErrorIs(t, err, out.ErrMovieEntryNotFound)
	_, err = svc.Rate(context.Background(), bob, entry.ID, &in.RateMovieRequest{UserRating: ptr(5.0)})
	assert.ErrorIs(t, err, out.ErrMovieEntryNotFound)

	bobs, err := svc.List(context.Background(), bob, nil)
	require.NoError(t, err)
	assert.Empty(t, bobs)

	alices, err := svc.List(context.Background(), alice, nil)
	require.NoError(t, err)
	assert.Len(t, alices, 1)
}

func TestMoveRateAndClear(t *testing.T) {
	svc := NewService(newMemRepo())
	user := uuid.New()

	a, err := svc.Add(context.Background(), user, &in.AddMovieRequest{TMDBID: 1, Title: "A", ListName: domain.ListWatchlist})
	require.NoError(t, err)
	_, err = svc.Add(context.Background(), user, &in.AddMovieRequest{TMDBID: 2, Title: "B", ListName: domain.ListWatchlist})
	require.NoError(t, err)

	moved, err := svc.Move(context.Background(), user, a.ID, &in.MoveMovieRequest{ListName: domain.ListWatched})
	require.NoError(t, err)
	assert.Equal(t, a.ID, moved.ID)
	assert.Equal(t, domain.ListWatched, moved.ListName)
	assert.Equal(t, 1, moved.TimesWatched)

	rated, err := svc.Rate(context.Background(), user, a.ID, &in.RateMovieRequest{UserRating: ptr(8.5), UserReview: "great"})
	require.NoError(t, err)
	require.NotNil(t, rated.UserRating)
	assert.Equal(t, 8.5, *rated.UserRating)
	assert.Equal(t, "great", rated.UserReview)

	_, err = svc.Rate(context.Background(), user, a.ID, &in.RateMovieRequest{UserRating: ptr(11.0)})
	assert.Equal(t, 400, apperr.GetHTTPStatus(err))

	watchlist := domain.ListWatchlist
	n, err := svc.ClearList(context.Background(), user, watchlist)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	rest, err := svc.List(context.Background(), user, &watchlist)
	require.NoError(t, err)
	assert.Empty(t, rest)

	_, err = svc.ClearList(context.Background(), user, "archive")
	assert.Equal(t, 400, apperr.GetHTTPStatus(err))
}
