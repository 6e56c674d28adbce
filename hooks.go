package fetchcache

import "time"

// Hooks lightweight callbacks for high-signal events.
// Implementations MUST be cheap and non-blocking.
// The fetcher calls them on hot paths.
type Hooks interface {
	// Content was served from the store. age is time since it was fetched.
	CacheHit(storageKey string, age time.Duration)

	// No usable entry; the origin will be consulted.
	CacheMiss(storageKey string)

	// An unreadable entry was deleted on read.
	// reason ∈ {"corrupt", "value_decode"}
	SelfHeal(storageKey, reason string)

	// The origin failed (including cancellation/timeout).
	OriginError(key string, err error)

	// A store operation failed. op ∈ {"get", "setex", "incr", "del"}
	StoreError(op, storageKey string, err error)

	// A caller received a result shared with concurrent misses.
	Coalesced(storageKey string)
}

// NopHooks is the default no-op
type NopHooks struct{}

func (NopHooks) CacheHit(string, time.Duration)   {}
func (NopHooks) CacheMiss(string)                 {}
func (NopHooks) SelfHeal(string, string)          {}
func (NopHooks) OriginError(string, error)        {}
func (NopHooks) StoreError(string, string, error) {}
func (NopHooks) Coalesced(string)                 {}
