package fetchcache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/singleflight"

	c "github.com/unkn0wn-root/fetchcache/codec"
	"github.com/unkn0wn-root/fetchcache/internal/keys"
	"github.com/unkn0wn-root/fetchcache/internal/wire"
	"github.com/unkn0wn-root/fetchcache/store"
)

type fetcher[V any] struct {
	store  store.Store
	origin Origin[V]
	codec  c.Codec[V]
	log    Logger
	hooks  Hooks

	ttl           time.Duration
	contentPrefix string
	counterPrefix string
	originTimeout time.Duration
	closeStore    bool

	collapse bool
	group    singleflight.Group

	now func() time.Time
}

func newFetcher[V any](opts Options[V]) (*fetcher[V], error) {
	if opts.Store == nil {
		return nil, fmt.Errorf("fetchcache: store is required")
	}
	if opts.Origin == nil {
		return nil, fmt.Errorf("fetchcache: origin is required")
	}
	if opts.Codec == nil {
		return nil, fmt.Errorf("fetchcache: codec is required")
	}
	if opts.TTL < 0 {
		return nil, fmt.Errorf("fetchcache: negative ttl %s", opts.TTL)
	}
	if opts.OriginTimeout < 0 {
		return nil, fmt.Errorf("fetchcache: negative origin timeout %s", opts.OriginTimeout)
	}

	f := &fetcher[V]{
		store:         opts.Store,
		origin:        opts.Origin,
		codec:         opts.Codec,
		originTimeout: opts.OriginTimeout,
		closeStore:    opts.CloseStore,
		collapse:      opts.CollapseMisses,
		now:           time.Now,
	}

	// defaults
	f.log = coalesce[Logger](opts.Logger, NopLogger{})
	f.hooks = coalesce[Hooks](opts.Hooks, NopHooks{})
	f.ttl = coalesce(opts.TTL, defaultTTL)
	f.contentPrefix = coalesce(opts.ContentPrefix, defaultContentPrefix)
	f.counterPrefix = coalesce(opts.CounterPrefix, defaultCounterPrefix)
	if strings.HasPrefix(f.contentPrefix, f.counterPrefix) || strings.HasPrefix(f.counterPrefix, f.contentPrefix) {
		return nil, fmt.Errorf("fetchcache: content prefix %q and counter prefix %q overlap", f.contentPrefix, f.counterPrefix)
	}

	return f, nil
}

func (f *fetcher[V]) Close(ctx context.Context) error {
	if f.closeStore {
		return f.store.Close(ctx)
	}
	return nil
}

func (f *fetcher[V]) Fetch(ctx context.Context, key string) (V, error) {
	var zero V
	if err := validateKey(key); err != nil {
		return zero, err
	}

	v, ok, err := f.lookup(ctx, key)
	if err != nil {
		return zero, err
	}
	countCtx := ctx
	if !ok {
		f.hooks.CacheMiss(f.contentKey(key))
		if f.collapse {
			v, err = f.fillShared(ctx, key)
		} else {
			v, err = f.fill(ctx, key)
		}
		if err != nil {
			return zero, err
		}
		// the content is written; cancelling now must not drop the count
		countCtx = context.WithoutCancel(ctx)
	}

	if err := f.count(countCtx, key); err != nil {
		return zero, err
	}
	return v, nil
}

func (f *fetcher[V]) AccessCount(ctx context.Context, key string) (int64, error) {
	if err := validateKey(key); err != nil {
		return 0, err
	}
	k := f.counterKey(key)
	raw, ok, err := f.store.Get(ctx, k)
	if err != nil {
		f.hooks.StoreError("get", k, err)
		return 0, &StoreError{Op: "get", Key: k, Err: err}
	}
	if !ok {
		return 0, nil
	}
	n, err := strconv.ParseInt(strings.TrimSpace(string(raw)), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("fetchcache: counter %q: %w", k, err)
	}
	return n, nil
}

// lookup reads and decodes the cached entry. Unreadable entries are deleted
// and reported as a miss.
func (f *fetcher[V]) lookup(ctx context.Context, key string) (V, bool, error) {
	var zero V
	k := f.contentKey(key)
	raw, ok, err := f.store.Get(ctx, k)
	if err != nil {
		f.hooks.StoreError("get", k, err)
		return zero, false, &StoreError{Op: "get", Key: k, Err: err}
	}
	if !ok {
		return zero, false, nil
	}
	fetchedAt, payload, err := wire.Decode(raw)
	if err != nil {
		f.heal(ctx, k, "corrupt")
		return zero, false, nil
	}
	v, err := f.codec.Decode(payload)
	if err != nil {
		f.heal(ctx, k, "value_decode")
		return zero, false, nil
	}
	age := f.now().Sub(fetchedAt)
	f.hooks.CacheHit(k, age)
	f.log.Debug("served from store", Fields{"key": key, "age": age})
	return v, true, nil
}

func (f *fetcher[V]) heal(ctx context.Context, storageKey, reason string) {
	f.hooks.SelfHeal(storageKey, reason)
	if err := f.store.Del(ctx, storageKey); err != nil {
		f.hooks.StoreError("del", storageKey, err)
	}
}

// fill calls the origin and writes the result back with the fetcher's TTL.
// Nothing is written when the origin fails or ctx ends first.
func (f *fetcher[V]) fill(ctx context.Context, key string) (V, error) {
	var zero V
	v, err := f.callOrigin(ctx, key)
	if err != nil {
		f.hooks.OriginError(key, err)
		return zero, &OriginError{Key: key, Err: err}
	}

	payload, err := f.codec.Encode(v)
	if err != nil {
		return zero, fmt.Errorf("fetchcache: encode %q: %w", key, err)
	}
	if err := ctx.Err(); err != nil {
		f.hooks.OriginError(key, err)
		return zero, &OriginError{Key: key, Err: err}
	}
	k := f.contentKey(key)
	if err := f.store.SetEx(ctx, k, wire.Encode(f.now(), payload), f.ttl); err != nil {
		f.hooks.StoreError("setex", k, err)
		return zero, &StoreError{Op: "setex", Key: k, Err: err}
	}
	f.log.Debug("populated from origin", Fields{"key": key, "ttl": f.ttl, "bytes": len(payload)})
	return v, nil
}

// abandonedFill marks a shared fill that failed after the ctx it ran under
// ended. Waiters with a live ctx fill again instead of inheriting the error.
type abandonedFill struct{ err error }

func (e *abandonedFill) Error() string { return e.err.Error() }
func (e *abandonedFill) Unwrap() error { return e.err }

// fillShared collapses concurrent misses for key into one fill. The fill runs
// under the ctx of the caller that started it; a waiter whose own ctx ends
// gives up without counting.
func (f *fetcher[V]) fillShared(ctx context.Context, key string) (V, error) {
	var zero V
	for {
		ch := f.group.DoChan(key, func() (any, error) {
			v, err := f.fill(ctx, key)
			if err != nil && ctx.Err() != nil {
				return nil, &abandonedFill{err: err}
			}
			return v, err
		})
		select {
		case res := <-ch:
			var gone *abandonedFill
			if errors.As(res.Err, &gone) {
				if ctx.Err() == nil {
					continue
				}
				return zero, gone.err
			}
			if res.Err != nil {
				return zero, res.Err
			}
			if res.Shared {
				f.hooks.Coalesced(f.contentKey(key))
			}
			v, _ := res.Val.(V)
			return v, nil
		case <-ctx.Done():
			err := ctx.Err()
			f.hooks.OriginError(key, err)
			return zero, &OriginError{Key: key, Err: err}
		}
	}
}

func (f *fetcher[V]) callOrigin(ctx context.Context, key string) (V, error) {
	if f.originTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.originTimeout)
		defer cancel()
	}
	v, err := f.origin(ctx, key)
	if err != nil {
		return v, err
	}
	// an origin that ignores ctx must not get its late result cached
	if err := ctx.Err(); err != nil {
		var zero V
		return zero, err
	}
	return v, nil
}

// count bumps the access counter with the store's atomic increment, which
// creates the key at 0 when absent.
func (f *fetcher[V]) count(ctx context.Context, key string) error {
	k := f.counterKey(key)
	n, err := f.store.Incr(ctx, k)
	if err != nil {
		f.hooks.StoreError("incr", k, err)
		return &StoreError{Op: "incr", Key: k, Err: err}
	}
	f.log.Debug("access counted", Fields{"key": key, "count": n})
	return nil
}

func (f *fetcher[V]) contentKey(key string) string {
	return keys.Join(f.contentPrefix, key)
}

func (f *fetcher[V]) counterKey(key string) string {
	return keys.Join(f.counterPrefix, key)
}

func validateKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: empty", ErrInvalidKey)
	}
	if !utf8.ValidString(key) {
		return fmt.Errorf("%w: not valid UTF-8", ErrInvalidKey)
	}
	for i, r := range key {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: control character at byte %d", ErrInvalidKey, i)
		}
	}
	return nil
}
