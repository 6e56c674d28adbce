package fetchcache

import (
	"context"
	"time"

	c "github.com/unkn0wn-root/fetchcache/codec"
	"github.com/unkn0wn-root/fetchcache/store"
)

// Origin produces the authoritative content for key. It is called on cache
// miss only and should honor ctx cancellation.
type Origin[V any] func(ctx context.Context, key string) (V, error)

// Fetcher is the cache-aside API. V is the content type; serialization is
// handled by a pluggable Codec[V].
type Fetcher[V any] interface {
	// Fetch returns content for key from the store, or from the origin on miss.
	// Each successful call increments the key's access counter exactly once.
	Fetch(ctx context.Context, key string) (V, error)

	// AccessCount returns the current counter for key; 0 if never fetched.
	AccessCount(ctx context.Context, key string) (int64, error)

	Close(ctx context.Context) error
}

// Options tune a Fetcher. Store, Origin and Codec are required.
type Options[V any] struct {
	// Required
	Store  store.Store
	Origin Origin[V]
	Codec  c.Codec[V]

	TTL            time.Duration // content lifetime; 0 => 10s. Never applied to counters
	ContentPrefix  string        // "" => "result:"
	CounterPrefix  string        // "" => "count:". Neither prefix may start with the other
	CollapseMisses bool          // share one origin call between concurrent misses of a key
	OriginTimeout  time.Duration // 0 => bounded by the caller's ctx only
	CloseStore     bool          // Close also closes Store; set only if the fetcher owns it

	Logger Logger // nil => NopLogger
	Hooks  Hooks  // nil => NopHooks
}

func New[V any](opts Options[V]) (Fetcher[V], error) {
	return newFetcher[V](opts)
}
