package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/kjstillabower/weather-search/internal/client"
	"github.com/kjstillabower/weather-search/internal/config"
	"github.com/kjstillabower/weather-search/internal/controller"
	httphandler "github.com/kjstillabower/weather-search/internal/http"
	"github.com/kjstillabower/weather-search/internal/observability"
	"github.com/kjstillabower/weather-search/internal/recent"
	"github.com/kjstillabower/weather-search/internal/storage"
)

type remoteKV interface {
	storage.KV
	Ping() error
	Close() error
}

func main() {
	logger, err := observability.NewLogger(os.Getenv("LOG_LEVEL"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	weatherClient, err := client.NewOpenWeatherClient(cfg.WeatherAPIKey, cfg.WeatherAPIURL, cfg.WeatherAPITimeout)
	if err != nil {
		logger.Fatal("weather client", zap.Error(err))
	}

	var kv storage.KV
	var remote remoteKV
	switch cfg.StorageBackend {
	case "memcached":
		mc, err := storage.NewMemcachedKV(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached storage", zap.Error(err))
		}
		kv, remote = mc, mc
		logger.Info("storage backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	case "redis":
		rc, err := storage.NewRedisKV(context.Background(), cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.RedisTimeout)
		if err != nil {
			logger.Fatal("redis storage", zap.Error(err))
		}
		kv, remote = rc, rc
		logger.Info("storage backend: redis", zap.String("addr", cfg.RedisAddr))
	case "in_memory":
		kv = storage.NewInMemoryKV()
		logger.Warn("storage backend: in_memory; recent searches will not survive a restart")
	default:
		fk, err := storage.NewFileKV(cfg.StoragePath)
		if err != nil {
			logger.Fatal("file storage", zap.Error(err))
		}
		kv = fk
		logger.Info("storage backend: file", zap.String("path", cfg.StoragePath))
	}

	store := recent.NewStore(kv, logger)
	loadCtx, loadCancel := context.WithTimeout(context.Background(), 5*time.Second)
	loaded := store.Load(loadCtx)
	loadCancel()
	logger.Info("recent searches loaded", zap.Int("count", len(loaded)))

	ctrl := controller.New(weatherClient, store, cfg.DefaultUnit, logger)

	var storagePing func() error
	if remote != nil {
		storagePing = remote.Ping
	}
	handler := httphandler.NewHandler(ctrl, logger, storagePing)
	router := httphandler.NewRouter(handler, logger, cfg.RequestTimeout)

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort), zap.String("default_unit", string(cfg.DefaultUnit)))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	handler.SetShuttingDown(true)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	logger.Info("waiting for in-flight requests", zap.Int64("count", httphandler.InFlightCount()))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	ctrl.Close()
	if remote != nil {
		if err := remote.Close(); err != nil {
			logger.Error("storage close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
