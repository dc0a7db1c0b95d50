package memory

import "sync"

// uuidKey is satisfied by every domain identifier (they all wrap uuid.UUID).
type uuidKey interface{ ~[16]byte }

// shard is one independently locked partition of a shardedMap.
type shard[K uuidKey, V any] struct {
	mu    sync.RWMutex
	items map[K]V
}

// shardedMap partitions keys over a fixed number of shards so that writers of
// unrelated keys rarely contend. All access goes through the methods below
// so that no caller can touch a shard without holding its lock.
type shardedMap[K uuidKey, V any] struct {
	shards []*shard[K, V]
}

func newShardedMap[K uuidKey, V any](n int) *shardedMap[K, V] {
	if n <= 0 {
		n = 1
	}

	m := &shardedMap[K, V]{shards: make([]*shard[K, V], n)}
	for i := range m.shards {
		m.shards[i] = &shard[K, V]{items: make(map[K]V)}
	}

	return m
}

// shardFor picks the shard of key using FNV-1a over the 16 key bytes.
func (m *shardedMap[K, V]) shardFor(key K) *shard[K, V] {
	b := [16]byte(key)

	var h uint64 = 14695981039346656037
	for _, c := range b {
		h ^= uint64(c)
		h *= 1099511628211
	}

	return m.shards[h%uint64(len(m.shards))]
}

// get returns the value stored for key.
func (m *shardedMap[K, V]) get(key K) (V, bool) {
	s := m.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[key]

	return v, ok
}

// view runs fn with the value stored for key while holding the shard read
// lock. fn must not retain v beyond the call if V contains slices or maps.
func (m *shardedMap[K, V]) view(key K, fn func(v V, ok bool)) {
	s := m.shardFor(key)
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.items[key]
	fn(v, ok)
}

// insert stores v under key unless key is already present.
func (m *shardedMap[K, V]) insert(key K, v V) bool {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.items[key]; ok {
		return false
	}
	s.items[key] = v

	return true
}

// upsert runs fn with the current value (zero value and false when absent)
// under the shard write lock and stores whatever it returns.
func (m *shardedMap[K, V]) upsert(key K, fn func(cur V, ok bool) V) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items[key]
	s.items[key] = fn(cur, ok)
}

// update runs fn with the current value under the shard write lock. The value
// returned by fn replaces the stored one only if fn returns a nil error.
// found is false, and fn is not called, when key is absent.
func (m *shardedMap[K, V]) update(key K, fn func(cur V) (V, error)) (updated V, found bool, err error) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok := s.items[key]
	if !ok {
		return updated, false, nil
	}

	next, err := fn(cur)
	if err != nil {
		return updated, true, err
	}
	s.items[key] = next

	return next, true, nil
}

// remove deletes key.
func (m *shardedMap[K, V]) remove(key K) {
	s := m.shardFor(key)
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.items, key)
}
