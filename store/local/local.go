package local

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/unkn0wn-root/fetchcache/store"
)

type entry struct {
	v   []byte
	exp time.Time // zero => no TTL
}

// Store keeps keys in-process (default for tests and single-replica use).
// Expired keys are dropped lazily on access and by an optional sweep loop.
type Store struct {
	mu  sync.Mutex
	m   map[string]entry
	now func() time.Time

	ticker    *time.Ticker
	stopCh    chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

var _ store.Store = (*Store)(nil)

type Config struct {
	CleanupInterval time.Duration    // 0 = no background sweep
	Now             func() time.Time // nil = time.Now
}

func New(cfg Config) *Store {
	s := &Store{
		m:   make(map[string]entry),
		now: cfg.Now,
	}
	if s.now == nil {
		s.now = time.Now
	}
	if cfg.CleanupInterval > 0 {
		s.ticker = time.NewTicker(cfg.CleanupInterval)
		s.stopCh = make(chan struct{})
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			for {
				select {
				case <-s.ticker.C:
					s.sweep()
				case <-s.stopCh:
					return
				}
			}
		}()
	}
	return s
}

// live returns the entry for k, dropping it if expired. Caller holds mu.
func (s *Store) live(k string) (entry, bool) {
	e, ok := s.m[k]
	if !ok {
		return entry{}, false
	}
	if !e.exp.IsZero() && !s.now().Before(e.exp) {
		delete(s.m, k)
		return entry{}, false
	}
	return e, true
}

func (s *Store) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	e, ok := s.live(key)
	s.mu.Unlock()
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), e.v...), true, nil
}

func (s *Store) SetEx(_ context.Context, key string, value []byte, ttl time.Duration) error {
	e := entry{v: append([]byte(nil), value...)}
	if ttl > 0 {
		e.exp = s.now().Add(ttl)
	}
	s.mu.Lock()
	s.m[key] = e
	s.mu.Unlock()
	return nil
}

func (s *Store) Incr(_ context.Context, key string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.live(key)
	var n int64
	if ok {
		var err error
		n, err = strconv.ParseInt(string(e.v), 10, 64)
		if err != nil {
			return 0, store.ErrNotInteger
		}
	}
	n++
	e.v = strconv.AppendInt(nil, n, 10)
	s.m[key] = e
	return n, nil
}

func (s *Store) Exists(_ context.Context, key string) (bool, error) {
	s.mu.Lock()
	_, ok := s.live(key)
	s.mu.Unlock()
	return ok, nil
}

func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.m, key)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored keys, including expired ones not yet swept.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.m)
}

func (s *Store) sweep() {
	now := s.now()
	s.mu.Lock()
	for k, e := range s.m {
		if !e.exp.IsZero() && !now.Before(e.exp) {
			delete(s.m, k)
		}
	}
	s.mu.Unlock()
}

func (s *Store) Close(_ context.Context) error {
	s.closeOnce.Do(func() {
		if s.stopCh != nil {
			close(s.stopCh)
			s.ticker.Stop()
			s.wg.Wait()
		}
	})
	return nil
}
