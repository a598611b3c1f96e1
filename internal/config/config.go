// Package config loads and validates service configuration via Viper.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvironmentProduction hides raw upstream error text from API responses.
const EnvironmentProduction = "production"

// Config captures all service configuration knobs loaded via Viper.
type Config struct {
	Environment string          `mapstructure:"environment"`
	Server      ServerConfig    `mapstructure:"server"`
	CORS        CORSConfig      `mapstructure:"cors"`
	RateLimit   RateLimitConfig `mapstructure:"rate_limit"`
	YouTube     YouTubeConfig   `mapstructure:"youtube"`
	Search      SearchConfig    `mapstructure:"search"`
	Logging     LoggingConfig   `mapstructure:"logging"`
	Security    SecurityConfig  `mapstructure:"security"`
}

// ServerConfig controls HTTP server behavior.
type ServerConfig struct {
	Port                  int    `mapstructure:"port"`
	Host                  string `mapstructure:"host"`
	HandlerTimeoutSeconds int    `mapstructure:"handler_timeout_seconds"`
	TrustProxyHeaders     bool   `mapstructure:"trust_proxy_headers"`
	StaticDir             string `mapstructure:"static_dir"`
}

// CORSConfig configures cross-origin access for browser clients.
type CORSConfig struct {
	Origin      string `mapstructure:"origin"`
	Credentials bool   `mapstructure:"credentials"`
}

// RateLimitConfig governs the per-client request limiter.
type RateLimitConfig struct {
	WindowMs             int    `mapstructure:"window_ms"`
	Max                  int    `mapstructure:"max"`
	Message              string `mapstructure:"message"`
	Backend              string `mapstructure:"backend"`
	RedisURL             string `mapstructure:"redis_url"`
	RedisPrefix          string `mapstructure:"redis_prefix"`
	SweepIntervalSeconds int    `mapstructure:"sweep_interval_seconds"`
}

// YouTubeConfig tunes upstream platform calls and response shaping.
type YouTubeConfig struct {
	MaxVideoFormats     int     `mapstructure:"max_video_formats"`
	MaxAudioFormats     int     `mapstructure:"max_audio_formats"`
	DefaultVideoQuality string  `mapstructure:"default_video_quality"`
	DefaultAudioQuality string  `mapstructure:"default_audio_quality"`
	DefaultContainer    string  `mapstructure:"default_container"`
	RequestTimeoutMs    int     `mapstructure:"request_timeout_ms"`
	UpstreamRPS         float64 `mapstructure:"upstream_rps"`
	UpstreamBurst       int     `mapstructure:"upstream_burst"`
	CacheTTLSeconds     int     `mapstructure:"cache_ttl_seconds"`
}

// SearchConfig bounds keyword search results.
type SearchConfig struct {
	DefaultLimit int `mapstructure:"default_limit"`
	MaxLimit     int `mapstructure:"max_limit"`
}

// LoggingConfig toggles zap development features.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
	Requests    bool   `mapstructure:"requests"`
}

// SecurityConfig restricts which hosts are accepted as video URLs.
type SecurityConfig struct {
	ValidateURLs   bool     `mapstructure:"validate_urls"`
	AllowedDomains []string `mapstructure:"allowed_domains"`
}

// Load builds a Config from disk/environment.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("YTPROXY")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)
	if err := bindLegacyEnv(v); err != nil {
		return Config{}, err
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	// Development logging follows the environment unless set explicitly.
	if !v.IsSet("logging.development") {
		v.SetDefault("logging.development", v.GetString("environment") != EnvironmentProduction)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("environment", "development")
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.host", "")
	v.SetDefault("server.handler_timeout_seconds", 60)
	v.SetDefault("server.trust_proxy_headers", false)
	v.SetDefault("server.static_dir", "")
	v.SetDefault("cors.origin", "*")
	v.SetDefault("cors.credentials", true)
	v.SetDefault("rate_limit.window_ms", 60000)
	v.SetDefault("rate_limit.max", 10)
	v.SetDefault("rate_limit.message", "Too many requests. Please try again later.")
	v.SetDefault("rate_limit.backend", "memory")
	v.SetDefault("rate_limit.redis_url", "")
	v.SetDefault("rate_limit.redis_prefix", "ytproxy:ratelimit:")
	v.SetDefault("rate_limit.sweep_interval_seconds", 300)
	v.SetDefault("youtube.max_video_formats", 6)
	v.SetDefault("youtube.max_audio_formats", 3)
	v.SetDefault("youtube.default_video_quality", "highest")
	v.SetDefault("youtube.default_audio_quality", "highestaudio")
	v.SetDefault("youtube.default_container", "mp4")
	v.SetDefault("youtube.request_timeout_ms", 15000)
	v.SetDefault("youtube.upstream_rps", 0)
	v.SetDefault("youtube.upstream_burst", 5)
	v.SetDefault("youtube.cache_ttl_seconds", 30)
	v.SetDefault("search.default_limit", 10)
	v.SetDefault("search.max_limit", 20)
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.requests", true)
	v.SetDefault("security.validate_urls", true)
	v.SetDefault("security.allowed_domains", []string{
		"youtube.com",
		"www.youtube.com",
		"youtu.be",
		"m.youtube.com",
	})
}

// bindLegacyEnv keeps the unprefixed variable names used by existing deployments working.
func bindLegacyEnv(v *viper.Viper) error {
	bindings := map[string][]string{
		"environment":          {"YTPROXY_ENVIRONMENT", "ENVIRONMENT"},
		"server.port":          {"YTPROXY_SERVER_PORT", "PORT"},
		"server.host":          {"YTPROXY_SERVER_HOST", "HOST"},
		"cors.origin":          {"YTPROXY_CORS_ORIGIN", "CORS_ORIGIN"},
		"rate_limit.window_ms": {"YTPROXY_RATE_LIMIT_WINDOW_MS", "RATE_LIMIT_WINDOW"},
		"rate_limit.max":       {"YTPROXY_RATE_LIMIT_MAX", "RATE_LIMIT_MAX"},
		"rate_limit.redis_url": {"YTPROXY_RATE_LIMIT_REDIS_URL", "REDIS_URL"},
		"logging.level":        {"YTPROXY_LOGGING_LEVEL", "LOG_LEVEL"},
	}
	for key, envs := range bindings {
		if err := v.BindEnv(append([]string{key}, envs...)...); err != nil {
			return fmt.Errorf("bind env %s: %w", key, err)
		}
	}
	return nil
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	if c.Server.Port <= 0 {
		return fmt.Errorf("server.port must be > 0")
	}
	if c.RateLimit.WindowMs <= 0 {
		return fmt.Errorf("rate_limit.window_ms must be > 0")
	}
	if c.RateLimit.Max <= 0 {
		return fmt.Errorf("rate_limit.max must be > 0")
	}
	switch c.RateLimit.Backend {
	case "memory":
	case "redis":
		if c.RateLimit.RedisURL == "" {
			return fmt.Errorf("rate_limit.redis_url must be set when rate_limit.backend is redis")
		}
	default:
		return fmt.Errorf("rate_limit.backend must be memory or redis, got %q", c.RateLimit.Backend)
	}
	if c.YouTube.MaxVideoFormats <= 0 || c.YouTube.MaxAudioFormats <= 0 {
		return fmt.Errorf("youtube.max_video_formats and youtube.max_audio_formats must be > 0")
	}
	if c.YouTube.RequestTimeoutMs <= 0 {
		return fmt.Errorf("youtube.request_timeout_ms must be > 0")
	}
	if c.Search.DefaultLimit <= 0 {
		return fmt.Errorf("search.default_limit must be > 0")
	}
	if c.Search.MaxLimit < c.Search.DefaultLimit {
		return fmt.Errorf("search.max_limit must be >= search.default_limit")
	}
	if c.Security.ValidateURLs && len(c.Security.AllowedDomains) == 0 {
		return fmt.Errorf("security.allowed_domains must not be empty when url validation is enabled")
	}
	return nil
}

// IsProduction reports whether raw upstream errors must be withheld from clients.
func (c Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}

// Addr returns the listen address for http.Server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

// RateLimitWindow converts the configured window to a duration.
func (c Config) RateLimitWindow() time.Duration {
	return time.Duration(c.RateLimit.WindowMs) * time.Millisecond
}

// UpstreamTimeout is the budget for a single metadata, format, or search fetch.
func (c Config) UpstreamTimeout() time.Duration {
	return time.Duration(c.YouTube.RequestTimeoutMs) * time.Millisecond
}

// HandlerTimeout bounds JSON handlers; downloads are exempt.
func (c Config) HandlerTimeout() time.Duration {
	return time.Duration(c.Server.HandlerTimeoutSeconds) * time.Second
}
