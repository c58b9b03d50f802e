// Package viewtable holds an agent's orders keyed by id in arrival order.
// Inserts are idempotent: a key already present is never overwritten.
package viewtable

import (
	"errors"
	"sync"
)

var (
	ErrAbsent  = errors.New("viewtable: key not tracked")
	ErrClaimed = errors.New("viewtable: key already claimed")
)

type Table[K comparable, V any] struct {
	mu      sync.RWMutex
	keys    []K
	rows    map[K]V
	claimed map[K]struct{}
}

func New[K comparable, V any]() *Table[K, V] {
	return &Table[K, V]{rows: make(map[K]V), claimed: make(map[K]struct{})}
}

// Insert adds v under k unless k is already tracked; it reports whether the
// row was added.
func (t *Table[K, V]) Insert(k K, v V) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[k]; ok {
		return false
	}
	t.rows[k] = v
	t.keys = append(t.keys, k)
	return true
}

func (t *Table[K, V]) Get(k K) (V, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.rows[k]
	return v, ok
}

func (t *Table[K, V]) Remove(k K) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.rows[k]; !ok {
		return false
	}
	delete(t.rows, k)
	delete(t.claimed, k)
	for i, key := range t.keys {
		if key == k {
			t.keys = append(t.keys[:i], t.keys[i+1:]...)
			break
		}
	}
	return true
}

// Claim marks k as in flight and returns its row. Only one claim per key is
// held at a time; Release or Remove ends it.
func (t *Table[K, V]) Claim(k K) (V, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.rows[k]
	if !ok {
		var zero V
		return zero, ErrAbsent
	}
	if _, busy := t.claimed[k]; busy {
		var zero V
		return zero, ErrClaimed
	}
	t.claimed[k] = struct{}{}
	return v, nil
}

func (t *Table[K, V]) Release(k K) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.claimed, k)
}

func (t *Table[K, V]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.rows)
}

// Snapshot returns the rows oldest first.
func (t *Table[K, V]) Snapshot() []V {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]V, 0, len(t.keys))
	for _, k := range t.keys {
		out = append(out, t.rows[k])
	}
	return out
}
