package memory

import (
	"context"
	"sync"
	"time"

	"github.com/kailas-cloud/genesis/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

type entry struct {
	value     []byte
	expiresAt time.Time
}

func (e entry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && !now.Before(e.expiresAt)
}

// Store is a process-local db.Store for development and tests.
// Expired keys are dropped lazily on access.
type Store struct {
	mu    sync.RWMutex
	kv    map[string]entry
	lists map[string][]string
	now   func() time.Time
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		kv:    make(map[string]entry),
		lists: make(map[string][]string),
		now:   time.Now,
	}
}

// Ping always succeeds.
func (s *Store) Ping(_ context.Context) error { return nil }

// Close is a no-op for the in-memory store.
func (s *Store) Close() {}

// WaitForReady returns immediately.
func (s *Store) WaitForReady(_ context.Context, _ time.Duration) error { return nil }

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	e, ok := s.kv[key]
	s.mu.RUnlock()
	if !ok {
		return nil, db.ErrKeyNotFound
	}
	if e.expired(s.now()) {
		s.mu.Lock()
		if cur, ok := s.kv[key]; ok && cur.expired(s.now()) {
			delete(s.kv, key)
		}
		s.mu.Unlock()
		return nil, db.ErrKeyNotFound
	}
	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Set stores a value at the given key.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	return s.SetWithTTL(ctx, key, value, 0)
}

// SetWithTTL stores a value with an expiration. A non-positive ttl never expires.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	v := make([]byte, len(value))
	copy(v, value)
	e := entry{value: v}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.kv[key] = e
	return nil
}

// Del removes a key from both the value and list namespaces.
func (s *Store) Del(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.kv, key)
	delete(s.lists, key)
	return nil
}

// LPush prepends values to the list at key; the last value ends up first.
func (s *Store) LPush(_ context.Context, key string, values ...string) error {
	if len(values) == 0 {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.lists[key]
	next := make([]string, 0, len(cur)+len(values))
	for i := len(values) - 1; i >= 0; i-- {
		next = append(next, values[i])
	}
	s.lists[key] = append(next, cur...)
	return nil
}

// LTrim keeps only the elements in [start, stop].
func (s *Store) LTrim(_ context.Context, key string, start, stop int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.lists[key]
	lo, hi, ok := bounds(len(cur), start, stop)
	if !ok {
		delete(s.lists, key)
		return nil
	}
	trimmed := make([]string, hi-lo)
	copy(trimmed, cur[lo:hi])
	s.lists[key] = trimmed
	return nil
}

// LRem removes every occurrence of value from the list at key.
func (s *Store) LRem(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.lists[key]
	kept := make([]string, 0, len(cur))
	for _, v := range cur {
		if v != value {
			kept = append(kept, v)
		}
	}
	if len(kept) == 0 {
		delete(s.lists, key)
		return nil
	}
	s.lists[key] = kept
	return nil
}

// LRange returns the elements in [start, stop].
func (s *Store) LRange(_ context.Context, key string, start, stop int64) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	cur := s.lists[key]
	lo, hi, ok := bounds(len(cur), start, stop)
	if !ok {
		return []string{}, nil
	}
	out := make([]string, hi-lo)
	copy(out, cur[lo:hi])
	return out, nil
}

// bounds resolves Redis-style inclusive indexes (negative counts from the
// tail) into a half-open slice range.
func bounds(n int, start, stop int64) (lo, hi int, ok bool) {
	size := int64(n)
	if start < 0 {
		start += size
	}
	if stop < 0 {
		stop += size
	}
	if start < 0 {
		start = 0
	}
	if stop >= size {
		stop = size - 1
	}
	if start > stop || start >= size {
		return 0, 0, false
	}
	return int(start), int(stop) + 1, true
}
