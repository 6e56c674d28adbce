package bigcache

import (
	"context"
	"errors"
	"time"

	bc "github.com/allegro/bigcache/v3"

	"github.com/unkn0wn-root/fetchcache/store"
	"github.com/unkn0wn-root/fetchcache/store/internal/counters"
)

// Store keeps content in BigCache. BigCache has no per-entry TTL: every
// entry lives for LifeWindow, so configure LifeWindow to the fetcher's TTL.
// Counters live in a separate table so they never expire.
type Store struct {
	c        *bc.BigCache
	counters *counters.Table
}

var _ store.Store = (*Store)(nil)

type Config struct {
	LifeWindow         time.Duration // content TTL; match fetchcache Options.TTL
	CleanWindow        time.Duration
	MaxEntriesInWindow int
	MaxEntrySize       int
	HardMaxCacheSizeMB int // ~ memory limit; 0 = unlimited
}

func New(cfg Config) (*Store, error) {
	if cfg.LifeWindow <= 0 {
		return nil, errors.New("bigcache: life window is required")
	}
	conf := bc.DefaultConfig(cfg.LifeWindow)
	conf.Verbose = false
	if cfg.CleanWindow > 0 {
		conf.CleanWindow = cfg.CleanWindow
	}
	if cfg.MaxEntriesInWindow > 0 {
		conf.MaxEntriesInWindow = cfg.MaxEntriesInWindow
	}
	if cfg.MaxEntrySize > 0 {
		conf.MaxEntrySize = cfg.MaxEntrySize
	}
	if cfg.HardMaxCacheSizeMB > 0 {
		conf.HardMaxCacheSize = cfg.HardMaxCacheSizeMB
	}
	c, err := bc.New(context.Background(), conf)
	if err != nil {
		return nil, err
	}
	return &Store{c: c, counters: counters.New()}, nil
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	if b, ok := s.counters.Get(key); ok {
		return b, true, nil
	}
	b, err := s.c.Get(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return b, true, nil
}

// SetEx ignores ttl; entries expire after the configured LifeWindow.
func (s *Store) SetEx(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.counters.Del(key)
	return s.c.Set(key, value)
}

func (s *Store) Incr(_ context.Context, key string) (int64, error) {
	if _, err := s.c.Get(key); err == nil {
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
	err := s.c.Delete(key)
	if errors.Is(err, bc.ErrEntryNotFound) {
		return nil
	}
	return err
}

func (s *Store) Close(_ context.Context) error {
	return s.c.Close()
}
