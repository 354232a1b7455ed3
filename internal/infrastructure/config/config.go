package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all configuration for the application
type Config struct {
	Environment string          `mapstructure:"environment"`
	LogLevel    string          `mapstructure:"log_level"`
	Server      ServerConfig    `mapstructure:"server"`
	Redis       RedisConfig     `mapstructure:"redis"`
	BridgeAPI   BridgeAPIConfig `mapstructure:"bridge_api"`
	Cache       CacheConfig     `mapstructure:"cache"`
	Quotes      QuotesConfig    `mapstructure:"quotes"`
	Tracing     TracingConfig   `mapstructure:"tracing"`
}

type ServerConfig struct {
	Port            int      `mapstructure:"port"`
	Host            string   `mapstructure:"host"`
	ReadTimeout     int      `mapstructure:"read_timeout"`
	WriteTimeout    int      `mapstructure:"write_timeout"`
	AllowedOrigins  []string `mapstructure:"allowed_origins"`
	RateLimitPerMin int      `mapstructure:"rate_limit_per_min"`
	// AdminTokenSecret signs operator tokens for cache maintenance; empty leaves it open
	AdminTokenSecret string `mapstructure:"admin_token_secret"`
}

type RedisConfig struct {
	URL        string `mapstructure:"url"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Password   string `mapstructure:"password"`
	DB         int    `mapstructure:"db"`
	MaxRetries int    `mapstructure:"max_retries"`
	PoolSize   int    `mapstructure:"pool_size"`
}

// Addr returns host:port for the Redis server
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// BridgeAPIConfig contains bridge token API configuration
type BridgeAPIConfig struct {
	BaseURL           string `mapstructure:"base_url"`
	ClientID          string `mapstructure:"client_id"`
	ClientVersion     string `mapstructure:"client_version"`
	Timeout           int    `mapstructure:"timeout"`     // Request timeout in seconds
	MaxRetries        int    `mapstructure:"max_retries"` // Maximum retry attempts
	RequestsPerSecond int    `mapstructure:"requests_per_second"`
}

// CacheConfig contains response cache configuration
type CacheConfig struct {
	Store         string `mapstructure:"store"` // "memory" or "redis"
	KeyPrefix     string `mapstructure:"key_prefix"`
	TTLMinutes    int    `mapstructure:"ttl_minutes"`
	SweepSchedule string `mapstructure:"sweep_schedule"` // cron spec, empty disables
}

// TTL returns the staleness window of a cache entry
func (c CacheConfig) TTL() time.Duration {
	return time.Duration(c.TTLMinutes) * time.Minute
}

// QuotesConfig contains quote evaluation settings
type QuotesConfig struct {
	MaxReturnDifference    float64 `mapstructure:"max_return_difference"`
	RefreshIntervalSeconds int     `mapstructure:"refresh_interval_seconds"`
}

type TracingConfig struct {
	Enabled      bool    `mapstructure:"enabled"`
	CollectorURL string  `mapstructure:"collector_url"`
	SampleRate   float64 `mapstructure:"sample_rate"`
	Insecure     bool    `mapstructure:"insecure"`
}

// Load loads configuration from environment variables and config files
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors if file doesn't exist)
	godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath("./configs")
	v.AddConfigPath(".")

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	overrideFromEnv(v)

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := validate(&config); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &config, nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("environment", "development")
	v.SetDefault("log_level", "info")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.read_timeout", 30)
	v.SetDefault("server.write_timeout", 30)
	v.SetDefault("server.rate_limit_per_min", 300)

	// Redis defaults
	v.SetDefault("redis.host", "localhost")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.max_retries", 3)
	v.SetDefault("redis.pool_size", 10)

	// Bridge API defaults
	v.SetDefault("bridge_api.base_url", "https://bridge.api.cx.metamask.io")
	v.SetDefault("bridge_api.client_id", "extension")
	v.SetDefault("bridge_api.timeout", 30)
	v.SetDefault("bridge_api.max_retries", 3)
	v.SetDefault("bridge_api.requests_per_second", 10)

	// Cache defaults
	v.SetDefault("cache.store", "memory")
	v.SetDefault("cache.key_prefix", "bridgeCache")
	v.SetDefault("cache.ttl_minutes", 15)
	v.SetDefault("cache.sweep_schedule", "@every 15m")

	// Quote defaults
	v.SetDefault("quotes.max_return_difference", 0.35)
	v.SetDefault("quotes.refresh_interval_seconds", 30)

	// Tracing defaults
	v.SetDefault("tracing.enabled", false)
	v.SetDefault("tracing.collector_url", "localhost:4317")
	v.SetDefault("tracing.sample_rate", 1.0)
}

func overrideFromEnv(v *viper.Viper) {
	// Server
	if port := os.Getenv("PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			v.Set("server.port", p)
		}
	}

	if secret := os.Getenv("ADMIN_TOKEN_SECRET"); secret != "" {
		v.Set("server.admin_token_secret", secret)
	}

	// Redis
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		v.Set("redis.url", redisURL)
		v.Set("cache.store", "redis")
	}

	// Bridge API
	if baseURL := os.Getenv("BRIDGE_API_BASE_URL"); baseURL != "" {
		v.Set("bridge_api.base_url", baseURL)
	}
	if clientID := os.Getenv("BRIDGE_CLIENT_ID"); clientID != "" {
		v.Set("bridge_api.client_id", clientID)
	}
	if clientVersion := os.Getenv("BRIDGE_CLIENT_VERSION"); clientVersion != "" {
		v.Set("bridge_api.client_version", clientVersion)
	}
	if timeout := os.Getenv("BRIDGE_API_TIMEOUT"); timeout != "" {
		if t, err := strconv.Atoi(timeout); err == nil {
			v.Set("bridge_api.timeout", t)
		}
	}
}

func validate(config *Config) error {
	if config.BridgeAPI.BaseURL == "" {
		return fmt.Errorf("bridge API base URL is required")
	}

	if config.BridgeAPI.ClientID == "" {
		return fmt.Errorf("bridge API client id is required")
	}

	switch config.Cache.Store {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache store %q", config.Cache.Store)
	}

	if config.Cache.TTLMinutes <= 0 {
		return fmt.Errorf("cache ttl must be positive")
	}

	if config.Quotes.MaxReturnDifference < 0 || config.Quotes.MaxReturnDifference >= 1 {
		return fmt.Errorf("quotes max return difference must be in [0, 1)")
	}

	return nil
}
