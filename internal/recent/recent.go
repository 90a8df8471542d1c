// Package recent maintains the bounded, most-recent-first list of searched cities.
package recent

import (
	"context"
	"encoding/json"
	"sync"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-search/internal/observability"
	"github.com/kjstillabower/weather-search/internal/storage"
)

// StorageKey is the key holding the JSON-encoded list.
const StorageKey = "recentSearches"

// MaxEntries bounds the list length.
const MaxEntries = 5

// Record returns city followed by prev with every exact match of city removed,
// truncated to MaxEntries. prev is not modified.
func Record(prev []string, city string) []string {
	next := make([]string, 0, MaxEntries)
	next = append(next, city)
	for _, c := range prev {
		if len(next) == MaxEntries {
			break
		}
		if c == city {
			continue
		}
		next = append(next, c)
	}
	return next
}

// Store owns the recent-search list and its persisted copy.
// Persistence failures are logged and counted but never returned: the in-memory list stays authoritative.
type Store struct {
	kv     storage.KV
	logger *zap.Logger

	mu   sync.Mutex
	list []string

	// writeMu is taken while mu is held so writes land in Record order without blocking List.
	writeMu sync.Mutex
}

// NewStore returns an empty Store backed by kv. Call Load to rehydrate it.
func NewStore(kv storage.KV, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{kv: kv, logger: logger, list: []string{}}
}

// Load reads the persisted list. Absent, empty or malformed data yields an empty list.
func (s *Store) Load(ctx context.Context) []string {
	list := s.read(ctx)

	s.mu.Lock()
	s.list = list
	s.mu.Unlock()
	return clone(list)
}

func (s *Store) read(ctx context.Context) []string {
	raw, ok, err := s.kv.Get(ctx, StorageKey)
	if err != nil {
		observability.RecentStoreErrorsTotal.WithLabelValues("load").Inc()
		s.logger.Warn("recent searches load failed", zap.Error(err))
		return []string{}
	}
	if !ok || len(raw) == 0 {
		return []string{}
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err != nil {
		s.logger.Warn("recent searches malformed, starting empty", zap.Error(err))
		return []string{}
	}
	if list == nil {
		return []string{}
	}
	if len(list) > MaxEntries {
		list = list[:MaxEntries]
	}
	return list
}

// Record puts city at the front of the list and persists the result synchronously.
// It returns the new list.
func (s *Store) Record(ctx context.Context, city string) []string {
	s.mu.Lock()
	s.list = Record(s.list, city)
	list := clone(s.list)
	s.writeMu.Lock()
	s.mu.Unlock()
	defer s.writeMu.Unlock()

	raw, err := json.Marshal(list)
	if err == nil {
		err = s.kv.Set(ctx, StorageKey, raw)
	}
	if err != nil {
		observability.RecentStoreErrorsTotal.WithLabelValues("persist").Inc()
		s.logger.Warn("recent searches persist failed", zap.String("city", city), zap.Error(err))
	}
	return list
}

// List returns a copy of the current list.
func (s *Store) List() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return clone(s.list)
}

func clone(list []string) []string {
	return append([]string{}, list...)
}
