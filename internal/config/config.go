// Package config loads service settings from the environment, an optional
// .env file and built-in defaults.
package config

import (
	"log/slog"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const defaultJWTSecret = "dev-jwt-secret-not-for-production-use"

// Config holds every setting the service reads at startup.
type Config struct {
	Env      string
	Version  string
	HTTPAddr string
	BaseURL  string
	Language string

	DatabaseDSN string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	JWTSecret string

	AssistantAPIKey  string
	AssistantBaseURL string
	AssistantTimeout time.Duration

	MediaAcquireTimeout time.Duration
	STUNURL             string
}

// Load reads configuration. A missing .env file is not an error.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file loaded", "err", err)
	}
	return FromViper(newViper())
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetDefault("APP_ENV", "dev")
	v.SetDefault("APP_VERSION", "dev")
	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("BASE_URL", "http://localhost:8080/")
	v.SetDefault("LANG", "en")
	v.SetDefault("DATABASE_DSN", "file:meet.db")
	v.SetDefault("REDIS_ADDR", "")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("JWT_SECRET", defaultJWTSecret)
	v.SetDefault("GEMINI_API_KEY", "")
	v.SetDefault("API_KEY", "")
	v.SetDefault("GEMINI_BASE_URL", DefaultAssistantBaseURL)
	v.SetDefault("ASSISTANT_TIMEOUT", DefaultAssistantTimeout)
	v.SetDefault("MEDIA_ACQUIRE_TIMEOUT", DefaultMediaAcquireTimeout)
	v.SetDefault("STUN_URL", DefaultSTUNURL)
	v.AutomaticEnv()
	return v
}

// FromViper builds a Config from an already-populated viper instance.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Env:                 strings.ToLower(v.GetString("APP_ENV")),
		Version:             v.GetString("APP_VERSION"),
		HTTPAddr:            v.GetString("HTTP_ADDR"),
		BaseURL:             v.GetString("BASE_URL"),
		Language:            languageTag(v.GetString("LANG")),
		DatabaseDSN:         v.GetString("DATABASE_DSN"),
		RedisAddr:           v.GetString("REDIS_ADDR"),
		RedisPassword:       v.GetString("REDIS_PASSWORD"),
		RedisDB:             v.GetInt("REDIS_DB"),
		JWTSecret:           v.GetString("JWT_SECRET"),
		AssistantAPIKey:     v.GetString("GEMINI_API_KEY"),
		AssistantBaseURL:    strings.TrimRight(v.GetString("GEMINI_BASE_URL"), "/"),
		AssistantTimeout:    v.GetDuration("ASSISTANT_TIMEOUT"),
		MediaAcquireTimeout: v.GetDuration("MEDIA_ACQUIRE_TIMEOUT"),
		STUNURL:             v.GetString("STUN_URL"),
	}
	if cfg.AssistantAPIKey == "" {
		cfg.AssistantAPIKey = v.GetString("API_KEY")
	}

	if cfg.DatabaseDSN == "" {
		return nil, errors.New("DATABASE_DSN must not be empty")
	}
	if cfg.AssistantTimeout <= 0 {
		return nil, errors.Errorf("ASSISTANT_TIMEOUT must be positive, got %s", cfg.AssistantTimeout)
	}
	if cfg.MediaAcquireTimeout <= 0 {
		return nil, errors.Errorf("MEDIA_ACQUIRE_TIMEOUT must be positive, got %s", cfg.MediaAcquireTimeout)
	}
	if cfg.IsProduction() && (cfg.JWTSecret == "" || cfg.JWTSecret == defaultJWTSecret) {
		return nil, errors.New("JWT_SECRET must be set in production")
	}
	return cfg, nil
}

// IsProduction reports whether the service runs in the prod environment.
func (c *Config) IsProduction() bool {
	return c.Env == "prod" || c.Env == "production"
}

// languageTag reduces values such as "uk_UA.UTF-8" to "uk".
func languageTag(raw string) string {
	raw = strings.ToLower(strings.TrimSpace(raw))
	for i, r := range raw {
		if r == '_' || r == '-' || r == '.' {
			raw = raw[:i]
			break
		}
	}
	if raw == "" || raw == "c" || raw == "posix" {
		return "en"
	}
	return raw
}
