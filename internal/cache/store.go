// Package cache implements the profile cache: a cache-aside layer over a
// byte-oriented key/value store. Redis is the production store; an
// in-process LRU takes over when Redis is not reachable at startup.
package cache

import (
	"context"
	"errors"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
)

// Store is the key/value contract the profile cache needs.
type Store interface {
	// Get returns the value and true on a hit, or false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Set stores val for ttl.
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	// Delete removes keys; absent keys are not an error.
	Delete(ctx context.Context, keys ...string) error
}

// RedisStore keeps entries in Redis under an optional key prefix.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	bs, err := s.rdb.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return bs, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return s.rdb.SetEx(ctx, s.prefix+key, val, ttl).Err()
}

// Take reads and deletes key in one GETDEL round trip.
func (s *RedisStore) Take(ctx context.Context, key string) ([]byte, bool, error) {
	bs, err := s.rdb.GetDel(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return bs, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = s.prefix + k
	}
	return s.rdb.Del(ctx, full...).Err()
}

type memEntry struct {
	val       []byte
	expiresAt time.Time
}

// MemoryStore is a size-bounded in-process store. The LRU enforces an upper
// bound on entry age; each entry also carries its own expiry so shorter
// per-call TTLs are honoured.
type MemoryStore struct {
	mu  sync.Mutex
	lru *lru.LRU[string, memEntry]
	now func() time.Time
}

// NewMemoryStore returns a store holding at most size entries, none older
// than maxTTL.
func NewMemoryStore(size int, maxTTL time.Duration) *MemoryStore {
	if size < 10 {
		size = 10
	}
	return &MemoryStore{
		lru: lru.NewLRU[string, memEntry](size, nil, maxTTL),
		now: time.Now,
	}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !s.now().Before(e.expiresAt) {
		s.lru.Remove(key)
		return nil, false, nil
	}
	return e.val, true, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := append([]byte(nil), val...)
	s.lru.Add(key, memEntry{val: cp, expiresAt: s.now().Add(ttl)})
	return nil
}

func (s *MemoryStore) Take(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.lru.Peek(key)
	if !ok {
		return nil, false, nil
	}
	s.lru.Remove(key)
	if !s.now().Before(e.expiresAt) {
		return nil, false, nil
	}
	return e.val, true, nil
}

func (s *MemoryStore) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range keys {
		s.lru.Remove(k)
	}
	return nil
}
