package safety

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func TestVerdictCacheExpiry(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewVerdictCache(24*time.Hour, WithClock(clock.Now))

	c.Set(1, true)
	c.Set(2, false)

	unsafe, ok := c.Get(1)
	assert.True(t, ok)
	assert.True(t, unsafe)

	unsafe, ok = c.Get(2)
	assert.True(t, ok)
	assert.False(t, unsafe)

	clock.Advance(24*time.Hour - time.Second)
	_, ok = c.Get(1)
	assert.True(t, ok)

	clock.Advance(time.Second)
	_, ok = c.Get(1)
	assert.False(t, ok, "entry at expiry is a miss")
	assert.Equal(t, 1, c.Len(), "expired entry is removed on read")
}

func TestVerdictCacheReplace(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := NewVerdictCache(time.Hour, WithClock(clock.Now))

	c.Set(5, false)
	clock.Advance(50 * time.Minute)
	c.Set(5, true)
	clock.Advance(50 * time.Minute)

	unsafe, ok := c.Get(5)
	assert.True(t, ok)
	assert.True(t, unsafe)
}

func TestVerdictCacheSweep(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := NewVerdictCache(time.Hour, WithClock(clock.Now))

	c.Set(1, true)
	c.Set(2, false)
	clock.Advance(30 * time.Minute)
	c.Set(3, true)
	clock.Advance(45 * time.Minute)

	assert.Equal(t, 2, c.Sweep())
	assert.Equal(t, 1, c.Len())
	_, ok := c.Get(3)
	assert.True(t, ok)
}

func TestVerdictCacheSweeper(t *testing.T) {
	clock := &fakeClock{now: time.Unix(0, 0)}
	c := NewVerdictCache(time.Minute, WithClock(clock.Now))
	c.Set(1, true)
	clock.Advance(2 * time.Minute)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	c.StartSweeper(ctx, 5*time.Millisecond)

	assert.Eventually(t, func() bool { return c.Len() == 0 }, time.Second, 5*time.Millisecond)
}
