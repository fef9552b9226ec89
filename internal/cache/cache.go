// Package cache memoizes completed committee evaluations and reflection
// analyses by canonical input key. The in-memory tier is authoritative;
// an optional Redis tier survives restarts and degrades gracefully.
package cache

import (
	"context"
	"crypto/md5"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// item is a cached entry with expiration. Entries are replaced wholesale
// on recomputation, never mutated in place.
type item struct {
	Data      []byte    `json:"data"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (i *item) expired() bool {
	return time.Now().After(i.ExpiresAt)
}

// Store provides thread-safe caching with TTL and in-flight coalescing of
// concurrent identical requests.
type Store struct {
	mu     sync.RWMutex
	items  map[string]*item
	ttl    time.Duration
	redis  *RedisTier
	flight singleflight.Group
}

// New creates a store with the specified TTL. A nil redis tier disables
// the second tier.
func New(ttl time.Duration, redis *RedisTier) *Store {
	s := &Store{
		items: make(map[string]*item),
		ttl:   ttl,
		redis: redis,
	}

	go s.cleanup()

	return s
}

// Key derives a canonical cache key from the given parts.
func Key(parts ...string) string {
	hash := md5.Sum([]byte(strings.Join(parts, "\x1f")))
	return fmt.Sprintf("%x", hash)
}

// cleanup removes expired items periodically.
func (s *Store) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		s.mu.Lock()
		for key, it := range s.items {
			if it.expired() {
				delete(s.items, key)
			}
		}
		s.mu.Unlock()
	}
}

// Get retrieves an item from the memory tier.
func (s *Store) Get(key string) ([]byte, bool) {
	s.mu.RLock()
	it, exists := s.items[key]
	s.mu.RUnlock()

	if !exists || it.expired() {
		return nil, false
	}

	return it.Data, true
}

// Set stores an item in the memory tier and, when configured, the Redis
// tier. Writes replace the whole entry atomically per key.
func (s *Store) Set(ctx context.Context, key string, data []byte) {
	s.mu.Lock()
	s.items[key] = &item{
		Data:      data,
		ExpiresAt: time.Now().Add(s.ttl),
	}
	s.mu.Unlock()

	if s.redis != nil {
		s.redis.Set(ctx, key, data, s.ttl)
	}
}

// Fetch returns the cached value for key or computes, caches, and returns
// it. Concurrent identical requests coalesce onto one computation. The
// hit result reports whether the value came from a cache tier.
func (s *Store) Fetch(ctx context.Context, key string, compute func() ([]byte, error)) ([]byte, bool, error) {
	if data, ok := s.Get(key); ok {
		return data, true, nil
	}

	v, err, _ := s.flight.Do(key, func() (interface{}, error) {
		// Re-check under the flight: a coalesced leader may have filled
		// the entry between our miss and this call.
		if data, ok := s.Get(key); ok {
			return data, nil
		}

		if s.redis != nil {
			if data, ok := s.redis.Get(ctx, key); ok {
				s.mu.Lock()
				s.items[key] = &item{Data: data, ExpiresAt: time.Now().Add(s.ttl)}
				s.mu.Unlock()
				return data, nil
			}
		}

		data, err := compute()
		if err != nil {
			return nil, err
		}

		s.Set(ctx, key, data)
		return data, nil
	})
	if err != nil {
		return nil, false, err
	}

	return v.([]byte), false, nil
}

// Delete removes an item from both tiers.
func (s *Store) Delete(ctx context.Context, key string) {
	s.mu.Lock()
	delete(s.items, key)
	s.mu.Unlock()

	if s.redis != nil {
		s.redis.Delete(ctx, key)
	}
}

// Clear removes all items from the memory tier.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = make(map[string]*item)
}

// Size returns the number of items in the memory tier.
func (s *Store) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return len(s.items)
}

// Stats returns cache statistics for the metrics endpoint.
func (s *Store) Stats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	totalItems := len(s.items)
	expiredItems := 0
	for _, it := range s.items {
		if it.expired() {
			expiredItems++
		}
	}

	return map[string]interface{}{
		"total_items":   totalItems,
		"expired_items": expiredItems,
		"active_items":  totalItems - expiredItems,
		"ttl_seconds":   s.ttl.Seconds(),
		"redis_enabled": s.redis != nil && s.redis.Enabled(),
	}
}
