package cache

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 2, 15, 0, 0, 0, time.UTC)}
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

func TestMemoryStore_GetSet(t *testing.T) {
	store := NewMemoryStore()

	_, ok := store.Get("missing")
	assert.False(t, ok)

	store.Set("ownership:AAPL", []byte("61.2"), time.Hour)
	got, ok := store.Get("ownership:AAPL")
	require.True(t, ok)
	assert.Equal(t, "61.2", string(got))
}

func TestMemoryStore_ExpiresLazily(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStoreWithClock(clock.Now)

	store.Set("k", []byte("v"), time.Minute)

	clock.Advance(59 * time.Second)
	_, ok := store.Get("k")
	assert.True(t, ok, "entry should be visible before expiry")

	// Visible only while now < expiresAt
	clock.Advance(time.Second)
	_, ok = store.Get("k")
	assert.False(t, ok, "entry must not be returned at expiresAt")
	assert.Equal(t, 0, store.Len(), "expired entry should be dropped on read")
}

func TestMemoryStore_SetOverwrites(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStoreWithClock(clock.Now)

	store.Set("k", []byte("first"), time.Minute)
	clock.Advance(30 * time.Second)
	store.Set("k", []byte("second"), time.Minute)

	// The replacement carries its own expiry
	clock.Advance(45 * time.Second)
	got, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, "second", string(got))
}

func TestMemoryStore_NonPositiveTTLStoresNothing(t *testing.T) {
	store := NewMemoryStore()

	store.Set("zero", []byte("v"), 0)
	store.Set("negative", []byte("v"), -time.Second)

	_, ok := store.Get("zero")
	assert.False(t, ok)
	_, ok = store.Get("negative")
	assert.False(t, ok)
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStore_ValuesAreCopied(t *testing.T) {
	store := NewMemoryStore()

	value := []byte("abc")
	store.Set("k", value, time.Hour)
	value[0] = 'X'

	got, ok := store.Get("k")
	require.True(t, ok)
	assert.Equal(t, "abc", string(got))

	got[1] = 'Y'
	again, _ := store.Get("k")
	assert.Equal(t, "abc", string(again))
}

func TestMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewMemoryStore()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := "k" + string(rune('a'+i%5))
			store.Set(key, []byte{byte(i)}, time.Hour)
			store.Get(key)
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, store.Len())
}

func TestRemember_LoadsOnceWithinTTL(t *testing.T) {
	clock := newFakeClock()
	store := NewMemoryStoreWithClock(clock.Now)

	calls := 0
	load := func() (float64, error) {
		calls++
		return 42.5, nil
	}

	v, cached, err := Remember(store, "ownership:AAPL", time.Hour, load)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 42.5, v)

	v, cached, err = Remember(store, "ownership:AAPL", time.Hour, load)
	require.NoError(t, err)
	assert.True(t, cached)
	assert.Equal(t, 42.5, v)
	assert.Equal(t, 1, calls)

	clock.Advance(time.Hour)
	_, cached, err = Remember(store, "ownership:AAPL", time.Hour, load)
	require.NoError(t, err)
	assert.False(t, cached)
	assert.Equal(t, 2, calls)
}

func TestRemember_FailedLoadNotCached(t *testing.T) {
	store := NewMemoryStore()

	boom := errors.New("upstream down")
	_, _, err := Remember(store, "k", time.Hour, func() (int, error) { return 0, boom })
	require.ErrorIs(t, err, boom)

	_, ok := store.Get("k")
	assert.False(t, ok)
}

func TestGetJSON_UndecodableIsMiss(t *testing.T) {
	store := NewMemoryStore()
	store.Set("k", []byte("{not json"), time.Hour)

	_, ok := GetJSON[map[string]int](store, "k")
	assert.False(t, ok)
}
