package cache

import (
	"encoding/json"
	"time"

	"github.com/ternarybob/tickerscope/internal/interfaces"
)

// GetJSON reads and decodes a cached value. A value that no longer decodes is a miss.
func GetJSON[T any](store interfaces.CacheStore, key string) (T, bool) {
	var zero T
	raw, ok := store.Get(key)
	if !ok {
		return zero, false
	}

	var v T
	if err := json.Unmarshal(raw, &v); err != nil {
		return zero, false
	}
	return v, true
}

// SetJSON encodes and stores v. Values that cannot be encoded are not cached.
func SetJSON(store interfaces.CacheStore, key string, v any, ttl time.Duration) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	store.Set(key, raw, ttl)
}

// Remember returns the cached value for key, or calls load and caches its result.
// Failed loads are not cached. The bool reports whether the value came from the cache.
func Remember[T any](store interfaces.CacheStore, key string, ttl time.Duration, load func() (T, error)) (T, bool, error) {
	if v, ok := GetJSON[T](store, key); ok {
		return v, true, nil
	}

	v, err := load()
	if err != nil {
		var zero T
		return zero, false, err
	}

	SetJSON(store, key, v, ttl)
	return v, false, nil
}
