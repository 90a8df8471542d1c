package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisKV implements KV using a Redis server. Keys share the memcached prefix and never expire.
type RedisKV struct {
	client  *redis.Client
	timeout time.Duration
}

// NewRedisKV connects to addr and verifies the connection with a PING.
func NewRedisKV(ctx context.Context, addr, password string, db int, timeout time.Duration) (*RedisKV, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  timeout,
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	s := &RedisKV{client: client, timeout: timeout}
	if err := s.ping(ctx); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis storage: connect %s: %w", addr, err)
	}
	return s, nil
}

// Get implements KV.Get. redis.Nil is reported as a miss.
func (s *RedisKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	val, err := s.client.Get(ctx, prefixed(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis storage: get %s: %w", key, err)
	}
	return val, true, nil
}

// Set implements KV.Set.
func (s *RedisKV) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, prefixed(key), value, 0).Err(); err != nil {
		return fmt.Errorf("redis storage: set %s: %w", key, err)
	}
	return nil
}

// Ping checks if redis is reachable. Used for health checks.
func (s *RedisKV) Ping() error {
	return s.ping(context.Background())
}

func (s *RedisKV) ping(ctx context.Context) error {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.client.Ping(ctx).Err()
}

// Close closes the redis client. Call during shutdown.
func (s *RedisKV) Close() error {
	return s.client.Close()
}
