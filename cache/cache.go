package cache

import "time"

// Cache is the key/value store behind the send cooldowns. The interface is
// shaped after Ristretto, which backs it in production; tests substitute a
// plain map.
type Cache[K comparable, V any] interface {
	Get(key K) (V, bool)

	// Set stores a value with the given cost. A false return means the
	// entry was dropped, which callers must tolerate.
	Set(key K, value V, cost int64) bool

	// SetWithTTL is Set with an expiry; the entry lapses after ttl.
	SetWithTTL(key K, value V, cost int64, ttl time.Duration) bool
}
