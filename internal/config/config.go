package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"github.com/kjstillabower/weather-search/internal/models"
)

// Config holds application configuration loaded from YAML and env.
type Config struct {
	ServerPort string

	WeatherAPIKey     string
	WeatherAPIURL     string
	WeatherAPITimeout time.Duration

	RequestTimeout time.Duration
	DefaultUnit    models.Unit

	StorageBackend string // "file", "in_memory", "memcached" or "redis"
	StoragePath    string

	MemcachedAddrs        string
	MemcachedTimeout      time.Duration
	MemcachedMaxIdleConns int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisTimeout  time.Duration

	ShutdownTimeout               time.Duration
	ShutdownInFlightTimeout       time.Duration
	ShutdownInFlightCheckInterval time.Duration
}

type fileConfig struct {
	Server struct {
		Port string `yaml:"port"`
	} `yaml:"server"`

	WeatherAPI struct {
		URL     string `yaml:"url"`
		Timeout string `yaml:"timeout"`
	} `yaml:"weather_api"`

	Request struct {
		Timeout string `yaml:"timeout"`
	} `yaml:"request"`

	Search struct {
		DefaultUnit string `yaml:"default_unit"`
	} `yaml:"search"`

	Storage struct {
		Backend   string `yaml:"backend"`
		Path      string `yaml:"path"`
		Memcached struct {
			Addrs        string `yaml:"addrs"`
			Timeout      string `yaml:"timeout"`
			MaxIdleConns int    `yaml:"max_idle_conns"`
		} `yaml:"memcached"`
		Redis struct {
			Addr    string `yaml:"addr"`
			DB      int    `yaml:"db"`
			Timeout string `yaml:"timeout"`
		} `yaml:"redis"`
	} `yaml:"storage"`

	Shutdown struct {
		Timeout               string `yaml:"timeout"`
		InFlightTimeout       string `yaml:"in_flight_timeout"`
		InFlightCheckInterval string `yaml:"in_flight_check_interval"`
	} `yaml:"shutdown"`
}

type secretsFile struct {
	WeatherAPIKey string `yaml:"weather_api_key"`
	RedisPassword string `yaml:"redis_password"`
}

// envOverrides are applied after the YAML file; empty values leave the file setting alone.
type envOverrides struct {
	ServerPort     string `envconfig:"SERVER_PORT"`
	WeatherAPIKey  string `envconfig:"WEATHER_API_KEY"`
	DefaultUnit    string `envconfig:"DEFAULT_UNIT"`
	StorageBackend string `envconfig:"STORAGE_BACKEND"`
	StoragePath    string `envconfig:"STORAGE_PATH"`
	MemcachedAddrs string `envconfig:"MEMCACHED_ADDRS"`
	RedisAddr      string `envconfig:"REDIS_ADDR"`
	RedisPassword  string `envconfig:"REDIS_PASSWORD"`
}

// Load reads configuration from config/{ENV_NAME}.yaml (default dev) and config/secrets.yaml,
// then applies environment overrides. The API key comes from WEATHER_API_KEY or the secrets
// file and is required. Call from project root.
func Load() (*Config, error) {
	env := os.Getenv("ENV_NAME")
	if env == "" {
		env = "dev"
	}

	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("config: get working directory: %w", err)
	}
	configPath := filepath.Join(cwd, "config", env+".yaml")
	data, err := os.ReadFile(configPath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("config file not found: %s", configPath)
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	var eo envOverrides
	if err := envconfig.Process("", &eo); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}

	sec, err := loadSecrets(filepath.Join(cwd, "config", "secrets.yaml"))
	if err != nil {
		return nil, err
	}

	cfg := &Config{}

	cfg.ServerPort = firstNonEmpty(eo.ServerPort, fc.Server.Port, "8080")

	cfg.WeatherAPIKey = firstNonEmpty(eo.WeatherAPIKey, sec.WeatherAPIKey)
	if cfg.WeatherAPIKey == "" {
		return nil, fmt.Errorf("WEATHER_API_KEY required (set env or config/secrets.yaml weather_api_key)")
	}
	cfg.WeatherAPIURL = firstNonEmpty(fc.WeatherAPI.URL, "https://api.openweathermap.org/data/2.5/weather")
	cfg.WeatherAPITimeout = parseDurationOrZero(fc.WeatherAPI.Timeout, 5*time.Second)
	cfg.RequestTimeout = parseDuration(fc.Request.Timeout, 10*time.Second)

	unit := firstNonEmpty(eo.DefaultUnit, fc.Search.DefaultUnit, string(models.DefaultUnit))
	cfg.DefaultUnit, err = models.ParseUnit(unit)
	if err != nil {
		return nil, fmt.Errorf("search.default_unit: %w", err)
	}

	cfg.StorageBackend = strings.ToLower(firstNonEmpty(eo.StorageBackend, fc.Storage.Backend, "file"))
	cfg.StoragePath = firstNonEmpty(eo.StoragePath, fc.Storage.Path, filepath.Join("data", "recent.json"))

	cfg.MemcachedAddrs = firstNonEmpty(eo.MemcachedAddrs, fc.Storage.Memcached.Addrs, "localhost:11211")
	cfg.MemcachedTimeout = parseDuration(fc.Storage.Memcached.Timeout, 500*time.Millisecond)
	cfg.MemcachedMaxIdleConns = fc.Storage.Memcached.MaxIdleConns
	if cfg.MemcachedMaxIdleConns <= 0 {
		cfg.MemcachedMaxIdleConns = 2
	}

	cfg.RedisAddr = firstNonEmpty(eo.RedisAddr, fc.Storage.Redis.Addr, "localhost:6379")
	cfg.RedisPassword = firstNonEmpty(eo.RedisPassword, sec.RedisPassword)
	cfg.RedisDB = fc.Storage.Redis.DB
	cfg.RedisTimeout = parseDuration(fc.Storage.Redis.Timeout, 500*time.Millisecond)

	cfg.ShutdownTimeout = parseDuration(fc.Shutdown.Timeout, 10*time.Second)
	cfg.ShutdownInFlightTimeout = parseDuration(fc.Shutdown.InFlightTimeout, 10*time.Second)
	cfg.ShutdownInFlightCheckInterval = parseDuration(fc.Shutdown.InFlightCheckInterval, 100*time.Millisecond)

	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadSecrets reads the optional secrets file. A missing file yields empty secrets.
func loadSecrets(path string) (secretsFile, error) {
	var sec secretsFile
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return sec, nil
		}
		return sec, fmt.Errorf("read secrets file: %w", err)
	}
	if err := yaml.Unmarshal(data, &sec); err != nil {
		return sec, fmt.Errorf("parse secrets file: %w", err)
	}
	return sec, nil
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// parseDuration parses a duration string and returns defaultVal if parsing fails or result is <= 0.
func parseDuration(s string, defaultVal time.Duration) time.Duration {
	d := parseDurationOrZero(s, defaultVal)
	if d <= 0 {
		return defaultVal
	}
	return d
}

// parseDurationOrZero parses a duration string, returning defaultVal on empty string or parse error.
// Returns zero or negative durations as-is (caller should handle fallback).
func parseDurationOrZero(s string, defaultVal time.Duration) time.Duration {
	s = strings.TrimSpace(s)
	if s == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return defaultVal
	}
	return d
}

// validate performs post-load validation. RequestTimeout is raised above WeatherAPITimeout
// so the upstream timeout, not the request deadline, decides a slow lookup.
func validate(cfg *Config) error {
	if cfg.WeatherAPITimeout <= 0 {
		return fmt.Errorf("weather_api.timeout must be positive")
	}
	if cfg.RequestTimeout <= cfg.WeatherAPITimeout {
		cfg.RequestTimeout = cfg.WeatherAPITimeout + time.Second
	}
	switch cfg.StorageBackend {
	case "file":
		if cfg.StoragePath == "" {
			return fmt.Errorf("storage.path is required for the file backend")
		}
	case "in_memory", "memcached", "redis":
	default:
		return fmt.Errorf("storage.backend must be file, in_memory, memcached or redis, got %q", cfg.StorageBackend)
	}
	return nil
}
