package safety

import (
	"context"
	"testing"

	"tracker_server/core/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryInitialize(t *testing.T) {
	fc := newFakeCatalog()
	fc.keywordSearch["sex"] = []domain.Keyword{{ID: 42, Name: "Sex"}, {ID: 43, Name: "sex comedy"}}
	fc.keywordSearch["nudity"] = []domain.Keyword{{ID: 7, Name: "nudity"}, {ID: 8, Name: "NUDITY"}}
	fc.searchErr["violence"] = errLookup

	r := NewRegistry(fc, zerolog.Nop())
	assert.False(t, r.Ready())

	n, err := r.Initialize(context.Background(), []string{" Sex ", "nudity", "violence", "sex", ""})
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.True(t, r.Ready())

	assert.True(t, r.Contains(42))
	assert.True(t, r.Contains(7))
	assert.True(t, r.Contains(8))
	assert.False(t, r.Contains(43), "partial name match must not be enforced")

	resolved := r.Resolved()
	assert.Equal(t, []int64{42}, resolved["sex"])
	assert.Equal(t, []int64{7, 8}, resolved["nudity"])
	_, ok := resolved["violence"]
	assert.False(t, ok)
}

func TestRegistryEmptyStaysUnpublished(t *testing.T) {
	fc := newFakeCatalog()
	fc.searchErr["gore"] = errLookup

	r := NewRegistry(fc, zerolog.Nop())
	n, err := r.Initialize(context.Background(), []string{"gore", "unknown phrase"})
	assert.ErrorIs(t, err, ErrRegistryEmpty)
	assert.Zero(t, n)
	assert.False(t, r.Ready())
	assert.False(t, r.AnyUnsafe(kws(1, 2, 3)))

	// A later run that resolves publishes the set.
	fc.mu.Lock()
	delete(fc.searchErr, "gore")
	fc.keywordSearch["gore"] = []domain.Keyword{{ID: 99, Name: "gore"}}
	fc.mu.Unlock()

	n, err = r.Initialize(context.Background(), []string{"gore"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.True(t, r.Ready())
}

func TestRegistryPublishesOnce(t *testing.T) {
	fc := newFakeCatalog()
	fc.keywordSearch["gore"] = []domain.Keyword{{ID: 99, Name: "gore"}}
	fc.keywordSearch["incest"] = []domain.Keyword{{ID: 100, Name: "incest"}}

	r := NewRegistry(fc, zerolog.Nop())
	_, err := r.Initialize(context.Background(), []string{"gore"})
	require.NoError(t, err)

	n, err := r.Initialize(context.Background(), []string{"gore", "incest"})
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.False(t, r.Contains(100))
}

func TestRegistryCanceledContext(t *testing.T) {
	fc := newFakeCatalog()
	fc.keywordSearch["gore"] = []domain.Keyword{{ID: 99, Name: "gore"}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := NewRegistry(fc, zerolog.Nop())
	_, err := r.Initialize(ctx, []string{"gore"})
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, r.Ready())
}
