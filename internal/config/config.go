// Package config loads the service configuration from config.yml, .env and
// the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	CacheBackendNone  = ""
	CacheBackendMongo = "mongo"
	CacheBackendRedis = "redis"
)

// Config holds application configuration values loaded from file or environment variables.
type Config struct {
	Port           int           `mapstructure:"PORT"`
	Env            string        `mapstructure:"APP_ENV"`
	MongoURI       string        `mapstructure:"MONGO_ACCESS_URI"`
	MongoDatabase  string        `mapstructure:"MONGO_DATABASE"`
	WeatherAPIKey  string        `mapstructure:"API_KEY"`
	WeatherBaseURL string        `mapstructure:"WEATHER_BASE_URL"`
	WeatherTimeout time.Duration `mapstructure:"WEATHER_TIMEOUT"`
	PoweredBy      string        `mapstructure:"POWERED_BY"`
	EchoUnmatched  bool          `mapstructure:"ECHO_UNMATCHED"`
	AllowedOrigins string        `mapstructure:"ALLOWED_ORIGINS"`
	TrustedProxies string        `mapstructure:"TRUSTED_PROXIES"`
	CacheBackend   string        `mapstructure:"CACHE_BACKEND"`
	CacheTTL       time.Duration `mapstructure:"CACHE_TTL"`
	RedisURL       string        `mapstructure:"REDIS_URL"`
	LambdaRuntime  bool          `mapstructure:"LAMBDA_RUNTIME"`
}

var keys = []string{
	"PORT", "APP_ENV", "MONGO_ACCESS_URI", "MONGO_DATABASE", "API_KEY",
	"WEATHER_BASE_URL", "WEATHER_TIMEOUT", "POWERED_BY", "ECHO_UNMATCHED",
	"ALLOWED_ORIGINS", "TRUSTED_PROXIES", "CACHE_BACKEND", "CACHE_TTL",
	"REDIS_URL", "LAMBDA_RUNTIME",
}

// LoadConfig reads .env (if present), config.yml (if present) and the
// environment, in increasing order of precedence.
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err == nil {
		slog.Info("loaded environment from .env")
	}

	v := viper.New()
	v.AddConfigPath(".")
	v.SetConfigName("config")
	v.SetConfigType("yml")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	setDefaults(v)

	// Unmarshal only sees env vars for keys viper already knows about.
	for _, key := range keys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("bind %s: %w", key, err)
		}
	}

	var config Config
	if err := v.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("unable to decode config into struct: %w", err)
	}
	config.CacheBackend = strings.ToLower(strings.TrimSpace(config.CacheBackend))

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &config, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", 3000)
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("MONGO_DATABASE", "restblog")
	v.SetDefault("WEATHER_BASE_URL", "https://api.openweathermap.org")
	v.SetDefault("WEATHER_TIMEOUT", 10*time.Second)
	v.SetDefault("POWERED_BY", "restblog")
	v.SetDefault("ECHO_UNMATCHED", false)
	v.SetDefault("ALLOWED_ORIGINS", "*")
	v.SetDefault("TRUSTED_PROXIES", "")
	v.SetDefault("CACHE_BACKEND", CacheBackendNone)
	v.SetDefault("CACHE_TTL", time.Minute)
	v.SetDefault("REDIS_URL", "localhost:6379")
	v.SetDefault("LAMBDA_RUNTIME", false)
}

// Validate ensures that required configuration values are present.
func (c *Config) Validate() error {
	if c.MongoURI == "" {
		return errors.New("MONGO_ACCESS_URI is required")
	}
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("PORT %d is out of range", c.Port)
	}
	switch c.CacheBackend {
	case CacheBackendNone, CacheBackendMongo, CacheBackendRedis:
	default:
		return fmt.Errorf("unknown CACHE_BACKEND %q", c.CacheBackend)
	}
	if c.CacheBackend != CacheBackendNone && c.CacheTTL <= 0 {
		return errors.New("CACHE_TTL must be positive when caching is enabled")
	}
	if c.WeatherAPIKey == "" {
		slog.Warn("API_KEY is not set; weather lookups will be rejected by the provider")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production" || c.Env == "prod"
}

// Origins splits ALLOWED_ORIGINS; nil means any origin.
func (c *Config) Origins() []string {
	return splitList(c.AllowedOrigins, "*")
}

func (c *Config) Proxies() []string {
	return splitList(c.TrustedProxies, "")
}

func splitList(raw, wildcard string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" || (wildcard != "" && raw == wildcard) {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
