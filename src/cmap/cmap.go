// Package cmap contains a thread-safe concurrent map, sharded to reduce
// contention under the access pattern of the registry and dependency graph:
// many lookups of a target by label, comparatively few insertions, each
// label inserted exactly once during ingestion.
//
// It also supports awaiting an item entering the map without having to poll
// it, for callers that look up a key some other goroutine is still about to
// produce.
package cmap

import (
	"fmt"
	"sync"
)

// DefaultShardCount is a reasonable default shard count for large maps.
const DefaultShardCount = 1 << 8

// A Map is the top-level map type. All functions on it are threadsafe.
// It should be constructed via New() rather than creating an instance directly.
type Map[K comparable, V any] struct {
	shards []shard[K, V]
	hasher func(K) uint64
	mask   uint64
}

// New creates a new Map using the given hasher to hash items in it.
// The shard count must be a power of 2; it will panic if not.
// Higher shard counts will improve concurrency but consume more memory.
// The DefaultShardCount of 256 is reasonable for a large map.
func New[K comparable, V any](shardCount uint64, hasher func(K) uint64) *Map[K, V] {
	mask := shardCount - 1
	if (shardCount & mask) != 0 {
		panic(fmt.Sprintf("shard count %d is not a power of 2", shardCount))
	}
	m := &Map[K, V]{
		shards: make([]shard[K, V], shardCount),
		mask:   mask,
		hasher: hasher,
	}
	for i := range m.shards {
		m.shards[i].m = map[K]awaitableValue[V]{}
	}
	return m
}

func (m *Map[K, V]) shardFor(key K) *shard[K, V] {
	return &m.shards[m.hasher(key)&m.mask]
}

// Set is the equivalent of `map[key] = val`, overwriting any existing value.
func (m *Map[K, V]) Set(key K, val V) {
	m.shardFor(key).set(key, val)
}

// Add is the equivalent of `map[key] = val`, but only if key isn't already present.
// It returns true if the item was inserted, false if it already existed (in which case
// it won't be overwritten).
func (m *Map[K, V]) Add(key K, val V) bool {
	return m.shardFor(key).add(key, val)
}

// Get returns the value for a key, or the zero value if it's not present.
func (m *Map[K, V]) Get(key K) V {
	val, _, _ := m.shardFor(key).get(key)
	return val
}

// GetOrWait returns the current value for key if one has been Set/Add'd, or
// a channel that will be closed once some goroutine does so. `first` is true
// if the caller is the one that should now go and produce the value (no one
// else is already waiting).
func (m *Map[K, V]) GetOrWait(key K) (val V, wait <-chan struct{}, first bool) {
	return m.shardFor(key).get(key)
}

// Values returns a slice of all the current, fully-set values in the map.
// No particular consistency or ordering guarantees are made.
func (m *Map[K, V]) Values() []V {
	ret := []V{}
	for i := range m.shards {
		ret = append(ret, m.shards[i].values()...)
	}
	return ret
}

// Len returns the number of fully-set values currently in the map.
func (m *Map[K, V]) Len() int {
	n := 0
	for i := range m.shards {
		n += m.shards[i].len()
	}
	return n
}

// An awaitableValue represents a value in the map & an awaitable channel for it to exist.
type awaitableValue[V any] struct {
	Val     V
	Present bool
	Wait    chan struct{}
}

// A shard is one of the individual shards of a map.
type shard[K comparable, V any] struct {
	m map[K]awaitableValue[V]
	l sync.Mutex
}

func (s *shard[K, V]) set(key K, val V) {
	s.l.Lock()
	defer s.l.Unlock()
	existing, present := s.m[key]
	s.m[key] = awaitableValue[V]{Val: val, Present: true}
	if present && existing.Wait != nil {
		close(existing.Wait)
	}
}

func (s *shard[K, V]) add(key K, val V) bool {
	s.l.Lock()
	defer s.l.Unlock()
	if existing, present := s.m[key]; present {
		if existing.Present {
			return false // already added
		}
		s.m[key] = awaitableValue[V]{Val: val, Present: true}
		if existing.Wait != nil {
			close(existing.Wait)
		}
		return true
	}
	s.m[key] = awaitableValue[V]{Val: val, Present: true}
	return true
}

func (s *shard[K, V]) get(key K) (val V, wait chan struct{}, first bool) {
	s.l.Lock()
	defer s.l.Unlock()
	if v, ok := s.m[key]; ok {
		if v.Present {
			return v.Val, nil, false
		}
		return v.Val, v.Wait, false
	}
	ch := make(chan struct{})
	s.m[key] = awaitableValue[V]{Wait: ch}
	return val, ch, true
}

// Values returns a copy of all the fully-set values currently in this shard.
func (s *shard[K, V]) values() []V {
	s.l.Lock()
	defer s.l.Unlock()
	ret := make([]V, 0, len(s.m))
	for _, v := range s.m {
		if v.Present {
			ret = append(ret, v.Val)
		}
	}
	return ret
}

// len returns the number of fully-set values currently in this shard.
func (s *shard[K, V]) len() int {
	s.l.Lock()
	defer s.l.Unlock()
	n := 0
	for _, v := range s.m {
		if v.Present {
			n++
		}
	}
	return n
}
