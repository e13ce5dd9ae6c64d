package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port      string
	LogLevel  string
	LogFormat string

	FetchTimeout    time.Duration
	MaxContentBytes int64
	FollowRedirects bool

	AdminUsername string
	AdminPassword string

	RedisEnabled  bool
	RedisAddress  string
	RedisPassword string
	RedisDB       int

	NATSEnabled bool
	NATSURLs    []string
	NATSSubject string
	NATSToken   string

	SinkConnectAttempts int
}

// Load reads config.yaml from the working directory if present, then applies
// environment overrides on top of the defaults.
func Load() (*Config, error) {
	return load(".")
}

func load(paths ...string) (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	for _, p := range paths {
		v.AddConfigPath(p)
	}
	v.AutomaticEnv()

	v.SetDefault("PORT", "8000")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "text")
	v.SetDefault("FETCH_TIMEOUT", "5s")
	v.SetDefault("MAX_CONTENT_BYTES", 10_000_000)
	v.SetDefault("FOLLOW_REDIRECTS", false)
	v.SetDefault("ADMIN_USERNAME", "admin")
	v.SetDefault("ADMIN_PASSWORD", "admin123")
	v.SetDefault("REDIS_ENABLED", false)
	v.SetDefault("REDIS_ADDRESS", "localhost:6379")
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("NATS_ENABLED", false)
	v.SetDefault("NATS_URLS", "nats://localhost:4222")
	v.SetDefault("NATS_SUBJECT", "relay.display")
	v.SetDefault("NATS_TOKEN", "")
	v.SetDefault("SINK_CONNECT_ATTEMPTS", 3)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg := &Config{
		Port:                v.GetString("PORT"),
		LogLevel:            v.GetString("LOG_LEVEL"),
		LogFormat:           v.GetString("LOG_FORMAT"),
		FetchTimeout:        v.GetDuration("FETCH_TIMEOUT"),
		MaxContentBytes:     v.GetInt64("MAX_CONTENT_BYTES"),
		FollowRedirects:     v.GetBool("FOLLOW_REDIRECTS"),
		AdminUsername:       v.GetString("ADMIN_USERNAME"),
		AdminPassword:       v.GetString("ADMIN_PASSWORD"),
		RedisEnabled:        v.GetBool("REDIS_ENABLED"),
		RedisAddress:        v.GetString("REDIS_ADDRESS"),
		RedisPassword:       v.GetString("REDIS_PASSWORD"),
		RedisDB:             v.GetInt("REDIS_DB"),
		NATSEnabled:         v.GetBool("NATS_ENABLED"),
		NATSURLs:            splitList(v.GetString("NATS_URLS")),
		NATSSubject:         v.GetString("NATS_SUBJECT"),
		NATSToken:           v.GetString("NATS_TOKEN"),
		SinkConnectAttempts: v.GetInt("SINK_CONNECT_ATTEMPTS"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT must be positive, got %s", c.FetchTimeout)
	}
	if c.MaxContentBytes <= 0 {
		return fmt.Errorf("MAX_CONTENT_BYTES must be positive, got %d", c.MaxContentBytes)
	}
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	if c.NATSEnabled && len(c.NATSURLs) == 0 {
		return fmt.Errorf("NATS_URLS must be set when NATS is enabled")
	}
	return nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
