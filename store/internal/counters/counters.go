// Package counters holds access counters for in-process stores whose
// backends cannot increment atomically or would evict/expire them.
package counters

import (
	"strconv"
	"sync"
)

type Table struct {
	mu sync.Mutex
	m  map[string]int64
}

func New() *Table {
	return &Table{m: make(map[string]int64)}
}

// Incr creates key at 0 if absent, adds one and returns the new value.
func (t *Table) Incr(key string) int64 {
	t.mu.Lock()
	n := t.m[key] + 1
	t.m[key] = n
	t.mu.Unlock()
	return n
}

// Get returns the counter as base-10 bytes, the way Get on a Redis counter reads.
func (t *Table) Get(key string) ([]byte, bool) {
	t.mu.Lock()
	n, ok := t.m[key]
	t.mu.Unlock()
	if !ok {
		return nil, false
	}
	return strconv.AppendInt(nil, n, 10), true
}

func (t *Table) Has(key string) bool {
	t.mu.Lock()
	_, ok := t.m[key]
	t.mu.Unlock()
	return ok
}

func (t *Table) Del(key string) {
	t.mu.Lock()
	delete(t.m, key)
	t.mu.Unlock()
}
