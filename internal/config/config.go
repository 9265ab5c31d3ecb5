package config

import (
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port        string `envconfig:"PORT" default:"8080"`
	Environment string `envconfig:"ENVIRONMENT" default:"development"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	MongoDBURI      string `envconfig:"MONGODB_URI" required:"true"`
	MongoDBPassword string `envconfig:"MONGODB_PASSWORD"`
	MongoDBDatabase string `envconfig:"MONGODB_DATABASE" default:"handyhub"`

	JWTSecret string `envconfig:"JWT_SECRET"`
	JWKSURL   string `envconfig:"JWKS_URL"`

	SupabaseURL     string `envconfig:"SUPABASE_URL"`
	SupabaseAnonKey string `envconfig:"SUPABASE_ANON_KEY"`

	RedisAddr        string        `envconfig:"REDIS_ADDR"`
	RedisPassword    string        `envconfig:"REDIS_PASSWORD"`
	RedisDB          int           `envconfig:"REDIS_DB" default:"0"`
	ProviderCacheTTL time.Duration `envconfig:"PROVIDER_CACHE_TTL" default:"5m"`

	KafkaBrokers      []string `envconfig:"KAFKA_BROKERS"`
	KafkaBookingTopic string   `envconfig:"KAFKA_BOOKING_TOPIC" default:"booking-events"`

	CORSOrigins     []string `envconfig:"CORS_ORIGINS" default:"http://localhost:3000"`
	ChatHistorySize int      `envconfig:"CHAT_HISTORY_SIZE" default:"30"`
	WSSendBuffer    int      `envconfig:"WS_SEND_BUFFER" default:"32"`
}

func LoadConfig() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read configuration: %v", err)
	}

	if cfg.MongoDBURI == "" {
		return nil, fmt.Errorf("MONGODB_URI is required")
	}
	if cfg.JWTSecret == "" && cfg.JWKSURL == "" {
		return nil, fmt.Errorf("JWT_SECRET or JWKS_URL is required")
	}
	if cfg.SupabaseURL != "" && cfg.SupabaseAnonKey == "" {
		return nil, fmt.Errorf("SUPABASE_ANON_KEY is required when SUPABASE_URL is set")
	}
	if cfg.ChatHistorySize <= 0 {
		return nil, fmt.Errorf("CHAT_HISTORY_SIZE must be positive")
	}
	if cfg.WSSendBuffer <= 0 {
		return nil, fmt.Errorf("WS_SEND_BUFFER must be positive")
	}
	cfg.KafkaBrokers = compact(cfg.KafkaBrokers)
	cfg.CORSOrigins = compact(cfg.CORSOrigins)

	return &cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func compact(values []string) []string {
	out := values[:0]
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
