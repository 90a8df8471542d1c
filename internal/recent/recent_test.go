package recent

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/kjstillabower/weather-search/internal/storage"
)

func TestRecord_Properties(t *testing.T) {
	lists := [][]string{
		{},
		{"Paris"},
		{"Tokyo", "Paris"},
		{"A", "B", "C", "D"},
		{"A", "B", "C", "D", "E"},
		{"E", "D", "C", "B", "A"},
	}
	cities := []string{"Paris", "A", "E", "Oslo", "paris", ""}

	for _, prev := range lists {
		for _, city := range cities {
			t.Run(fmt.Sprintf("%v+%q", prev, city), func(t *testing.T) {
				before := append([]string{}, prev...)
				got := Record(prev, city)

				require.NotEmpty(t, got)
				assert.Equal(t, city, got[0])
				assert.LessOrEqual(t, len(got), MaxEntries)
				assert.NotContains(t, got[1:], city)
				assert.Equal(t, before, prev, "prev must not be mutated")

				// Remaining entries keep their relative order from prev.
				var rest []string
				for _, c := range prev {
					if c != city {
						rest = append(rest, c)
					}
				}
				if len(rest) > MaxEntries-1 {
					rest = rest[:MaxEntries-1]
				}
				assert.Equal(t, len(rest), len(got)-1)
				for i, c := range rest {
					assert.Equal(t, c, got[i+1])
				}

				assert.Equal(t, got, Record(got, city), "recording the same city twice is idempotent")
			})
		}
	}
}

func TestRecord_RecencyOrdering(t *testing.T) {
	l := Record([]string{"Berlin"}, "Paris")
	l = Record(l, "Tokyo")
	assert.Equal(t, []string{"Tokyo", "Paris", "Berlin"}, l)
}

func TestRecord_TruncatesOldest(t *testing.T) {
	full := []string{"E", "D", "C", "B", "A"}
	assert.Equal(t, []string{"F", "E", "D", "C", "B"}, Record(full, "F"))
}

func TestRecord_MovesExistingToFront(t *testing.T) {
	full := []string{"E", "D", "C", "B", "A"}
	assert.Equal(t, []string{"B", "E", "D", "C", "A"}, Record(full, "B"))
}

func TestRecord_CaseSensitive(t *testing.T) {
	assert.Equal(t, []string{"paris", "Paris"}, Record([]string{"Paris"}, "paris"))
}

func TestStore_RoundTripAcrossRestart(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewInMemoryKV()

	s := NewStore(kv, nil)
	assert.Empty(t, s.Load(ctx))
	s.Record(ctx, "Paris")
	s.Record(ctx, "Tokyo")
	last := s.Record(ctx, "Paris")

	restarted := NewStore(kv, nil)
	assert.Equal(t, last, restarted.Load(ctx))
	assert.Equal(t, []string{"Paris", "Tokyo"}, restarted.List())

	raw, ok, err := kv.Get(ctx, StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `["Paris","Tokyo"]`, string(raw))
}

func TestStore_Load_MalformedData(t *testing.T) {
	tests := map[string]string{
		"empty":          ``,
		"not json":       `not json`,
		"object":         `{"a":1}`,
		"numbers":        `[1,2,3]`,
		"mixed":          `["Paris", 3]`,
		"null":           `null`,
		"string literal": `"Paris"`,
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			kv := storage.NewInMemoryKV()
			require.NoError(t, kv.Set(ctx, StorageKey, []byte(raw)))

			s := NewStore(kv, nil)
			got := s.Load(ctx)
			assert.NotNil(t, got)
			assert.Empty(t, got)
		})
	}
}

func TestStore_Load_TruncatesOversizedList(t *testing.T) {
	ctx := context.Background()
	kv := storage.NewInMemoryKV()
	require.NoError(t, kv.Set(ctx, StorageKey, []byte(`["A","B","C","D","E","F","G"]`)))

	s := NewStore(kv, nil)
	assert.Equal(t, []string{"A", "B", "C", "D", "E"}, s.Load(ctx))
}

type failingKV struct {
	getErr error
	setErr error
}

func (f *failingKV) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return nil, false, f.getErr
}

func (f *failingKV) Set(ctx context.Context, key string, value []byte) error {
	return f.setErr
}

func TestStore_StorageErrorsAreSwallowed(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	kv := &failingKV{getErr: errors.New("storage unavailable"), setErr: errors.New("quota exceeded")}
	s := NewStore(kv, zap.New(core))

	ctx := context.Background()
	assert.Empty(t, s.Load(ctx))
	assert.Equal(t, []string{"Paris"}, s.Record(ctx, "Paris"))
	assert.Equal(t, []string{"Paris"}, s.List())

	assert.Equal(t, 1, logs.FilterMessage("recent searches load failed").Len())
	assert.Equal(t, 1, logs.FilterMessage("recent searches persist failed").Len())
}

func TestStore_ListReturnsCopy(t *testing.T) {
	s := NewStore(storage.NewInMemoryKV(), nil)
	s.Record(context.Background(), "Paris")

	l := s.List()
	l[0] = "mutated"
	assert.Equal(t, []string{"Paris"}, s.List())
}

// blockingKV holds every Set until release is closed.
type blockingKV struct {
	*storage.InMemoryKV
	entered chan struct{}
	release chan struct{}
}

func (b *blockingKV) Set(ctx context.Context, key string, value []byte) error {
	b.entered <- struct{}{}
	<-b.release
	return b.InMemoryKV.Set(ctx, key, value)
}

func TestStore_ListNotBlockedBySlowPersist(t *testing.T) {
	kv := &blockingKV{InMemoryKV: storage.NewInMemoryKV(), entered: make(chan struct{}, 1), release: make(chan struct{})}
	store := NewStore(kv, nil)

	done := make(chan struct{})
	go func() {
		store.Record(context.Background(), "Paris")
		close(done)
	}()
	<-kv.entered

	listed := make(chan []string)
	go func() { listed <- store.List() }()
	select {
	case got := <-listed:
		assert.Equal(t, []string{"Paris"}, got)
	case <-time.After(time.Second):
		t.Fatal("List() blocked while Set was in progress")
	}

	close(kv.release)
	<-done
	raw, ok, err := kv.Get(context.Background(), StorageKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `["Paris"]`, string(raw))
}
