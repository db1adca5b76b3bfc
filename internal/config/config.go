// Package config handles loading and validating the habla configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the root configuration for the habla server.
type Config struct {
	Server     ServerConfig             `mapstructure:"server"`
	Transports TransportsConfig         `mapstructure:"transports"`
	Realtime   RealtimeConfig           `mapstructure:"realtime"`
	News       NewsConfig               `mapstructure:"news"`
	Coach      CoachConfig              `mapstructure:"coach"`
	TTS        TTSConfig                `mapstructure:"tts"`
	Cache      CacheConfig              `mapstructure:"cache"`
	Sessions   SessionsConfig           `mapstructure:"sessions"`
	RateLimit  RateLimitConfig          `mapstructure:"rate_limit"`
	Personas   map[string]PersonaConfig `mapstructure:"personas"`
	Redis      RedisConfig              `mapstructure:"redis"`
	Logging    LoggingConfig            `mapstructure:"logging"`
}

// ServerConfig holds the health check server settings.
type ServerConfig struct {
	HealthPort int `mapstructure:"health_port"`
}

// TransportsConfig holds the configuration for each transport layer.
type TransportsConfig struct {
	GRPC GRPCConfig `mapstructure:"grpc"`
	HTTP HTTPConfig `mapstructure:"http"`
}

// GRPCConfig configures the gRPC transport (health + reflection).
type GRPCConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port"`
}

// HTTPConfig configures the HTTP API transport.
type HTTPConfig struct {
	Enabled        bool     `mapstructure:"enabled"`
	Port           int      `mapstructure:"port"`
	AllowedOrigins []string `mapstructure:"allowed_origins"`
}

// RealtimeConfig holds the realtime voice-session settings.
type RealtimeConfig struct {
	APIKey  Secret `mapstructure:"api_key"`
	BaseURL string `mapstructure:"base_url"`
	Model   string `mapstructure:"model"`
	Voice   string `mapstructure:"voice"`
}

// NewsConfig holds the news provider settings.
type NewsConfig struct {
	APIKey          Secret        `mapstructure:"api_key"`
	BaseURL         string        `mapstructure:"base_url"`
	Language        string        `mapstructure:"language"`
	SourceCountries []string      `mapstructure:"source_countries"`
	Number          int           `mapstructure:"number"`
	Timeout         time.Duration `mapstructure:"timeout"`
}

// CoachConfig holds pronunciation coaching settings.
type CoachConfig struct {
	APIKey             Secret `mapstructure:"api_key"`
	BaseURL            string `mapstructure:"base_url"`
	TranscriptionModel string `mapstructure:"transcription_model"`
	FeedbackModel      string `mapstructure:"feedback_model"`
	Language           string `mapstructure:"language"`
}

// TTSConfig selects and configures the text-to-speech backend.
type TTSConfig struct {
	Enabled bool        `mapstructure:"enabled"`
	Backend string      `mapstructure:"backend"` // "piper"
	Piper   PiperConfig `mapstructure:"piper"`
}

// PiperConfig holds Piper TTS settings (Wyoming protocol).
type PiperConfig struct {
	Endpoint string `mapstructure:"endpoint"` // host:port
	Voice    string `mapstructure:"voice"`    // overrides the default Spanish voice
}

// CacheConfig selects the article content cache backend.
type CacheConfig struct {
	Backend string        `mapstructure:"backend"` // "none", "memory" or "redis"
	TTL     time.Duration `mapstructure:"ttl"`
}

// SessionsConfig selects the practice session store.
type SessionsConfig struct {
	Backend string        `mapstructure:"backend"` // "memory" or "redis"
	TTL     time.Duration `mapstructure:"ttl"`
}

// RateLimitConfig bounds how often one client may mint realtime tokens.
type RateLimitConfig struct {
	TokensPerMinute float64 `mapstructure:"tokens_per_minute"`
	Burst           int     `mapstructure:"burst"`

	// TrustedProxies lists the IPs or CIDRs whose X-Forwarded-For and
	// X-Real-IP headers are believed. Empty limits by connection address.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

// PersonaConfig overrides a built-in persona.
type PersonaConfig struct {
	Instructions string `mapstructure:"instructions"`
}

// RedisConfig holds the shared redis connection settings.
type RedisConfig struct {
	URL string `mapstructure:"url"`
}

// LoggingConfig holds structured logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`  // debug, info, warn, error
	Format string `mapstructure:"format"` // json, text
}

// Load reads the configuration from file, environment variables, and defaults.
// If configFile is non-empty it is used directly; otherwise the standard
// search order applies: ./habla.yaml, ./configs/habla.yaml, /etc/habla/habla.yaml.
func Load(configFile string) (*Config, error) {
	v := viper.New()

	// Defaults
	v.SetDefault("server.health_port", 8081)
	v.SetDefault("transports.grpc.enabled", false)
	v.SetDefault("transports.grpc.port", 50051)
	v.SetDefault("transports.http.enabled", true)
	v.SetDefault("transports.http.port", 8080)
	v.SetDefault("transports.http.allowed_origins", []string{"http://localhost:3000"})
	v.SetDefault("realtime.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("realtime.base_url", "https://api.openai.com/v1")
	v.SetDefault("realtime.model", "gpt-realtime-mini-2025-12-15")
	v.SetDefault("realtime.voice", "verse")
	v.SetDefault("news.api_key", "${WORLDNEWS_API_KEY}")
	v.SetDefault("news.base_url", "https://api.worldnewsapi.com")
	v.SetDefault("news.language", "es")
	v.SetDefault("news.source_countries", []string{"mx", "ar", "co"})
	v.SetDefault("news.number", 15)
	v.SetDefault("news.timeout", 15*time.Second)
	v.SetDefault("coach.api_key", "${OPENAI_API_KEY}")
	v.SetDefault("coach.base_url", "")
	v.SetDefault("coach.transcription_model", "gpt-4o-transcribe")
	v.SetDefault("coach.feedback_model", "gpt-4o-mini")
	v.SetDefault("coach.language", "es")
	v.SetDefault("tts.enabled", false)
	v.SetDefault("tts.backend", "piper")
	v.SetDefault("tts.piper.endpoint", "localhost:10200")
	v.SetDefault("cache.backend", "none")
	v.SetDefault("cache.ttl", 6*time.Hour)
	v.SetDefault("sessions.backend", "memory")
	v.SetDefault("sessions.ttl", 2*time.Hour)
	v.SetDefault("rate_limit.tokens_per_minute", 6.0)
	v.SetDefault("rate_limit.burst", 3)
	v.SetDefault("rate_limit.trusted_proxies", []string{})
	v.SetDefault("redis.url", "redis://localhost:6379/0")
	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	// Config file
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("habla")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		v.AddConfigPath("/etc/habla")
	}

	// Environment variables: HABLA_SERVER_HEALTH_PORT, HABLA_NEWS_NUMBER, etc.
	v.SetEnvPrefix("HABLA")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Read config file (optional, env vars and defaults are sufficient)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config: %w", err)
		}
		slog.Info("no config file found, using defaults and environment variables")
	} else {
		slog.Info("loaded config file", "path", v.ConfigFileUsed())
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshalling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate rejects backend names and limits the server cannot act on.
// API keys are not checked here; they are resolved per request.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case "none", "memory", "redis":
	default:
		return fmt.Errorf("unknown cache backend %q", c.Cache.Backend)
	}
	switch c.Sessions.Backend {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown sessions backend %q", c.Sessions.Backend)
	}
	if c.TTS.Enabled && c.TTS.Backend != "piper" {
		return fmt.Errorf("unknown tts backend %q", c.TTS.Backend)
	}
	if c.News.Number <= 0 {
		return fmt.Errorf("news.number must be positive, got %d", c.News.Number)
	}
	if c.RateLimit.TokensPerMinute <= 0 || c.RateLimit.Burst <= 0 {
		return fmt.Errorf("rate_limit values must be positive")
	}
	return nil
}

// Secret is a configured credential. It may be a literal value or a
// "${VAR_NAME}" reference that is looked up every time Value is called.
type Secret string

// Value returns the credential, resolving env var references at call time.
// An unset reference yields "".
func (s Secret) Value() string {
	return resolveEnvRef(string(s))
}

// resolveEnvRef replaces "${VAR_NAME}" patterns with the corresponding env var value.
func resolveEnvRef(val string) string {
	if strings.HasPrefix(val, "${") && strings.HasSuffix(val, "}") {
		return os.Getenv(val[2 : len(val)-1])
	}
	return val
}

// SetupLogging configures the global slog logger based on config.
func SetupLogging(cfg LoggingConfig) {
	var level slog.Level
	switch strings.ToLower(cfg.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	if strings.ToLower(cfg.Format) == "text" {
		handler = slog.NewTextHandler(os.Stdout, opts)
	} else {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	slog.SetDefault(slog.New(handler))
}
