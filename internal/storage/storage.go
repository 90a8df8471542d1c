package storage

import (
	"context"
	"sync"
)

// KV defines the durable key-value storage used to persist client-side state.
// Get returns (value, true, nil) when the key exists and (nil, false, nil) when it does not.
// Set overwrites any previous value.
type KV interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
}

// InMemoryKV implements KV with a map. Contents do not survive a restart.
type InMemoryKV struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewInMemoryKV creates an empty in-memory store.
func NewInMemoryKV() *InMemoryKV {
	return &InMemoryKV{
		data: make(map[string][]byte),
	}
}

// Get returns a copy of the stored value for key.
func (s *InMemoryKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	if ctx.Err() != nil {
		return nil, false, ctx.Err()
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.data[key]
	if !ok {
		return nil, false, nil
	}
	return append([]byte(nil), v...), true, nil
}

// Set stores a copy of value under key.
func (s *InMemoryKV) Set(ctx context.Context, key string, value []byte) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[key] = append([]byte(nil), value...)
	return nil
}
