//go:build integration
// +build integration

package testhelpers

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"github.com/kjstillabower/weather-search/internal/client"
	"github.com/kjstillabower/weather-search/internal/controller"
	"github.com/kjstillabower/weather-search/internal/models"
	"github.com/kjstillabower/weather-search/internal/recent"
	"github.com/kjstillabower/weather-search/internal/storage"
)

// IntegrationTestConfig holds configuration for integration tests.
type IntegrationTestConfig struct {
	APIKey         string
	APIURL         string
	StorageBackend string // "file", "memcached" or "redis"
	MemcachedAddr  string
	RedisAddr      string
}

// GetIntegrationConfig loads integration test configuration from environment.
// Skips test if WEATHER_API_KEY is not set.
func GetIntegrationConfig(t *testing.T) IntegrationTestConfig {
	apiKey := os.Getenv("WEATHER_API_KEY")
	if apiKey == "" {
		t.Skip("WEATHER_API_KEY not set, skipping integration test")
	}

	cfg := IntegrationTestConfig{
		APIKey:         apiKey,
		APIURL:         os.Getenv("WEATHER_API_URL"),
		StorageBackend: os.Getenv("INTEGRATION_STORAGE_BACKEND"),
		MemcachedAddr:  os.Getenv("MEMCACHED_ADDRS"),
		RedisAddr:      os.Getenv("REDIS_ADDR"),
	}
	if cfg.APIURL == "" {
		cfg.APIURL = "https://api.openweathermap.org/data/2.5/weather"
	}
	if cfg.MemcachedAddr == "" {
		cfg.MemcachedAddr = "localhost:11211"
	}
	if cfg.RedisAddr == "" {
		cfg.RedisAddr = "localhost:6379"
	}
	return cfg
}

// SetupIntegrationStorage opens the configured backend, falling back to a file
// under t.TempDir() when the remote server is unavailable.
func SetupIntegrationStorage(t *testing.T, cfg IntegrationTestConfig) storage.KV {
	switch cfg.StorageBackend {
	case "memcached":
		mc, err := storage.NewMemcachedKV(cfg.MemcachedAddr, 500*time.Millisecond, 2)
		if err == nil && mc.Ping() == nil {
			t.Cleanup(func() { _ = mc.Close() })
			t.Logf("Using Memcached storage at %s", cfg.MemcachedAddr)
			return mc
		}
		t.Logf("Memcached not available, using file storage")
	case "redis":
		rc, err := storage.NewRedisKV(context.Background(), cfg.RedisAddr, "", 0, 500*time.Millisecond)
		if err == nil {
			t.Cleanup(func() { _ = rc.Close() })
			t.Logf("Using Redis storage at %s", cfg.RedisAddr)
			return rc
		}
		t.Logf("Redis not available (%v), using file storage", err)
	}
	fk, err := storage.NewFileKV(filepath.Join(t.TempDir(), "recent.json"))
	if err != nil {
		t.Fatalf("NewFileKV() error = %v", err)
	}
	return fk
}

// SetupIntegrationController wires a real client and a recent store loaded from kv.
func SetupIntegrationController(t *testing.T, cfg IntegrationTestConfig, kv storage.KV) (*controller.Controller, *recent.Store) {
	logger := zaptest.NewLogger(t)
	weatherClient, err := client.NewOpenWeatherClient(cfg.APIKey, cfg.APIURL, 5*time.Second)
	if err != nil {
		t.Fatalf("NewOpenWeatherClient() error = %v", err)
	}
	store := recent.NewStore(kv, logger)
	store.Load(context.Background())
	ctrl := controller.New(weatherClient, store, models.UnitMetric, logger)
	t.Cleanup(ctrl.Close)
	return ctrl, store
}
