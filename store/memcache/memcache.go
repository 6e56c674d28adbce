package memcache

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"

	"github.com/unkn0wn-root/fetchcache/internal/keys"
	"github.com/unkn0wn-root/fetchcache/store"
)

var (
	ErrNilClient = errors.New("memcache store: nil client")

	// ErrIncrContended is returned when every Increment/Add round lost a race
	// against concurrent deletes of the counter.
	ErrIncrContended = errors.New("memcache store: counter create contended")
)

// memcached treats expirations above 30 days as absolute unix timestamps
const maxRelativeExpiry = 30 * 24 * 60 * 60

// incrAttempts bounds the Increment/Add race when two clients create the
// same counter concurrently. One of them always wins the Add.
const incrAttempts = 4

// Memcache stores keys in memcached. Keys memcached cannot carry verbatim
// (long URLs, spaces) are replaced by a sha256 digest.
//
// gomemcache has no context support; ctx is checked before each call and
// network deadlines come from the client's Timeout.
type Memcache struct {
	c           client
	closeClient bool
}

// client is the subset of *memcache.Client the store calls.
type client interface {
	Get(key string) (*memcache.Item, error)
	Set(item *memcache.Item) error
	Add(item *memcache.Item) error
	Increment(key string, delta uint64) (uint64, error)
	Delete(key string) error
	Close() error
}

var _ store.Store = (*Memcache)(nil)

type Config struct {
	Client      *memcache.Client
	CloseClient bool
}

func New(cfg Config) (*Memcache, error) {
	if cfg.Client == nil {
		return nil, ErrNilClient
	}
	return &Memcache{c: cfg.Client, closeClient: cfg.CloseClient}, nil
}

func (s *Memcache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	it, err := s.c.Get(keys.Memcache(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return it.Value, true, nil
}

func (s *Memcache) SetEx(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return s.c.Set(&memcache.Item{
		Key:        keys.Memcache(key),
		Value:      value,
		Expiration: expiry(ttl),
	})
}

// Incr increments an existing counter, or creates it at "1" with Add, which
// memcached applies only when the key is absent. Losing the Add race means
// another client created it first; increment again.
func (s *Memcache) Incr(ctx context.Context, key string) (int64, error) {
	k := keys.Memcache(key)
	for i := 0; i < incrAttempts; i++ {
		if err := ctx.Err(); err != nil {
			return 0, err
		}
		n, err := s.c.Increment(k, 1)
		if err == nil {
			return int64(n), nil
		}
		if !errors.Is(err, memcache.ErrCacheMiss) {
			if strings.Contains(err.Error(), "non-numeric") {
				return 0, store.ErrNotInteger
			}
			return 0, err
		}
		err = s.c.Add(&memcache.Item{Key: k, Value: []byte("1")})
		if err == nil {
			return 1, nil
		}
		if !errors.Is(err, memcache.ErrNotStored) {
			return 0, err
		}
	}
	return 0, ErrIncrContended
}

func (s *Memcache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.Get(ctx, key)
	return ok, err
}

func (s *Memcache) Del(ctx context.Context, key string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	err := s.c.Delete(keys.Memcache(key))
	if errors.Is(err, memcache.ErrCacheMiss) {
		return nil
	}
	return err
}

func (s *Memcache) Close(context.Context) error {
	if s.closeClient {
		return s.c.Close()
	}
	return nil
}

// expiry converts ttl to memcached seconds: 0 is no expiry, sub-second TTLs
// round up to 1s, and anything past 30 days is clamped to 30 days minus a minute.
func expiry(ttl time.Duration) int32 {
	if ttl <= 0 {
		return 0
	}
	secs := int64((ttl + time.Second - 1) / time.Second)
	if secs > maxRelativeExpiry {
		return maxRelativeExpiry - 60
	}
	return int32(secs)
}
