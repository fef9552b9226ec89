package cache

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisTier is the optional second cache tier. Any backend failure is
// logged and swallowed: evaluation must never block on the cache.
type RedisTier struct {
	client  *redis.Client
	enabled bool
}

// NewRedisTier creates a Redis tier. An empty address or a failed ping
// yields a disabled tier rather than an error.
func NewRedisTier(addr, password string, db int) *RedisTier {
	if addr == "" {
		slog.Info("Redis not configured, evaluation cache is memory-only")
		return &RedisTier{enabled: false}
	}

	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		slog.Warn("Redis ping failed, evaluation cache degrades to memory-only", "addr", addr, "error", err)
		return &RedisTier{enabled: false}
	}

	slog.Info("Redis cache tier connected", "addr", addr, "db", db)

	return &RedisTier{client: client, enabled: true}
}

// Enabled reports whether the tier is usable.
func (r *RedisTier) Enabled() bool {
	return r != nil && r.enabled
}

// Get retrieves a value, reporting a miss on any backend error.
func (r *RedisTier) Get(ctx context.Context, key string) ([]byte, bool) {
	if !r.Enabled() {
		return nil, false
	}

	data, err := r.client.Get(ctx, "eval:"+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			slog.Warn("Redis get failed", "error", err)
		}
		return nil, false
	}

	return data, true
}

// Set stores a value with the given TTL, swallowing backend errors.
func (r *RedisTier) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	if !r.Enabled() {
		return
	}

	if err := r.client.Set(ctx, "eval:"+key, data, ttl).Err(); err != nil {
		slog.Warn("Redis set failed", "error", err)
	}
}

// Delete removes a value, swallowing backend errors.
func (r *RedisTier) Delete(ctx context.Context, key string) {
	if !r.Enabled() {
		return
	}

	if err := r.client.Del(ctx, "eval:"+key).Err(); err != nil {
		slog.Warn("Redis delete failed", "error", err)
	}
}

// Close closes the underlying connection.
func (r *RedisTier) Close() error {
	if r.Enabled() && r.client != nil {
		return r.client.Close()
	}
	return nil
}
