package ristretto

import (
	"context"
	"errors"
	"time"

	rc "github.com/dgraph-io/ristretto"

	"github.com/unkn0wn-root/fetchcache/store"
	"github.com/unkn0wn-root/fetchcache/store/internal/counters"
)

// Store keeps content in Ristretto with per-entry TTLs. Ristretto may refuse
// or evict entries under cost pressure; both read back as a miss. Counters
// live in a separate table Ristretto cannot evict.
type Store struct {
	c        *rc.Cache
	counters *counters.Table
}

var _ store.Store = (*Store)(nil)

type Config struct {
	NumCounters int64
	MaxCost     int64 // total bytes of cached content
	BufferItems int64
	Metrics     bool
}

func New(cfg Config) (*Store, error) {
	if cfg.NumCounters <= 0 || cfg.MaxCost <= 0 || cfg.BufferItems <= 0 {
		return nil, errors.New("ristretto: invalid config")
	}
	c, err := rc.NewCache(&rc.Config{
		NumCounters: cfg.NumCounters,
		MaxCost:     cfg.MaxCost,
		BufferItems: cfg.BufferItems,
		Metrics:     cfg.Metrics,
	})
	if err != nil {
		return nil, err
	}
	return &Store{c: c, counters: counters.New()}, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	if b, ok := s.counters.Get(key); ok {
		return b, true, nil
	}
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	b, _ := v.([]byte)
	if b == nil {
		// self-heal: drop unexpected entry shape
		s.c.Del(key)
		return nil, false, nil
	}
	return b, true, nil
}

// SetEx is cost-weighted by value length and waits for Ristretto's buffered
// write so the entry is visible to the next Get.
func (s *Store) SetEx(_ context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	s.counters.Del(key)
	b := append([]byte(nil), value...)
	s.c.SetWithTTL(key, b, int64(len(b)), ttl)
	s.c.Wait()
	return nil
}

func (s *Store) Incr(_ context.Context, key string) (int64, error) {
	if _, ok := s.c.Get(key); ok {
		return 0, store.ErrNotInteger
	}
	return s.counters.Incr(key), nil
}

func (s *Store) Exists(ctx context.Context, key string) (bool, error) {
	_, ok, err := s.Get(ctx, key)
	return ok, err
}

func (s *Store) Del(_ context.Context, key string) error {
	s.counters.Del(key)
	s.c.Del(key)
	return nil
}

func (s *Store) Close(_ context.Context) error {
	s.c.Wait()
	s.c.Close()
	return nil
}

// Metrics exposes Ristretto's counters (nil unless Config.Metrics).
func (s *Store) Metrics() *rc.Metrics { return s.c.Metrics }
