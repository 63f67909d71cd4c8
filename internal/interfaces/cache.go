// Package interfaces provides service interfaces for dependency injection.
package interfaces

import "time"

// CacheStore is a keyed byte store with per-entry expiry.
// Get never returns an expired entry. Set replaces any prior entry for the key;
// a non-positive ttl stores nothing. Misses are normal control flow, so there are no errors.
type CacheStore interface {
	Get(key string) ([]byte, bool)
	Set(key string, value []byte, ttl time.Duration)
}
