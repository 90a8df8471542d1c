package storage

import (
	"context"
	"strings"
	"time"

	"github.com/bradfitz/gomemcache/memcache"
)

const keyPrefix = "weather-search:"

// MemcachedKV implements KV using memcached. Items are stored without expiration.
type MemcachedKV struct {
	client *memcache.Client
}

// NewMemcachedKV creates a MemcachedKV. addrs is a comma-separated list
// (e.g. "localhost:11211" or "host1:11211,host2:11211"). timeout and maxIdleConns
// configure the client; both use package defaults if zero.
func NewMemcachedKV(addrs string, timeout time.Duration, maxIdleConns int) (*MemcachedKV, error) {
	servers := parseAddrs(addrs)
	if len(servers) == 0 {
		servers = []string{"localhost:11211"}
	}
	client := memcache.New(servers...)
	if timeout > 0 {
		client.Timeout = timeout
	}
	if maxIdleConns > 0 {
		client.MaxIdleConns = maxIdleConns
	}
	return &MemcachedKV{client: client}, nil
}

func parseAddrs(s string) []string {
	var out []string
	for _, a := range strings.Split(s, ",") {
		a = strings.TrimSpace(a)
		if a != "" {
			out = append(out, a)
		}
	}
	return out
}

func prefixed(k string) string {
	return keyPrefix + k
}

// Get implements KV.Get. Returns false, nil on cache miss; false, err on error.
func (s *MemcachedKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if ctx.Err() != nil {
		return nil, false, ctx.Err()
	}
	item, err := s.client.Get(prefixed(key))
	if err != nil {
		if err == memcache.ErrCacheMiss {
			return nil, false, nil
		}
		return nil, false, err
	}
	return item.Value, true, nil
}

// Set implements KV.Set.
func (s *MemcachedKV) Set(ctx context.Context, key string, value []byte) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return s.client.Set(&memcache.Item{
		Key:   prefixed(key),
		Value: value,
	})
}

// Ping checks if memcached is reachable. Used for health checks.
func (s *MemcachedKV) Ping() error {
	return s.client.Ping()
}

// Close closes the memcached client connections. Call during shutdown.
func (s *MemcachedKV) Close() error {
	return s.client.Close()
}
