package server

import (
	"context"
	"fmt"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// Cache stores rendered JSON responses between writes.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, data []byte)
	Flush(ctx context.Context)
	Name() string
}

// MemoryCache is an in-process Cache backed by go-cache.
type MemoryCache struct {
	c   *gocache.Cache
	ttl time.Duration
}

// NewMemoryCache returns an in-process cache with the given entry lifetime.
func NewMemoryCache(ttl time.Duration) *MemoryCache {
	return &MemoryCache{c: gocache.New(ttl, 2*ttl), ttl: ttl}
}

func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	v, ok := m.c.Get(key)
	if !ok {
		return nil, false
	}
	data, ok := v.([]byte)
	return data, ok
}

func (m *MemoryCache) Set(_ context.Context, key string, data []byte) {
	m.c.Set(key, data, m.ttl)
}

func (m *MemoryCache) Flush(context.Context) {
	m.c.Flush()
}

func (m *MemoryCache) Name() string { return "memory" }

const redisPrefix = "thriftify:"

// RedisCache is a Cache shared through Redis.
type RedisCache struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisCache connects to the Redis server at rawURL and verifies it answers.
// A bare host:port is accepted as well as a redis:// URL.
func NewRedisCache(ctx context.Context, rawURL string, ttl time.Duration) (*RedisCache, error) {
	if !strings.Contains(rawURL, "://") {
		rawURL = "redis://" + rawURL
	}
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisCache{rdb: rdb, ttl: ttl}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	data, err := r.rdb.Get(ctx, redisPrefix+key).Bytes()
	if err != nil {
		return nil, false
	}
	return data, true
}

func (r *RedisCache) Set(ctx context.Context, key string, data []byte) {
	r.rdb.SetEx(ctx, redisPrefix+key, data, r.ttl)
}

// Flush deletes every key under the thriftify prefix.
func (r *RedisCache) Flush(ctx context.Context) {
	iter := r.rdb.Scan(ctx, 0, redisPrefix+"*", 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if iter.Err() != nil {
		return
	}
	if len(keys) > 0 {
		r.rdb.Del(ctx, keys...)
	}
}

func (r *RedisCache) Name() string { return "redis" }

// Close releases the Redis connection pool.
func (r *RedisCache) Close() error {
	return r.rdb.Close()
}
