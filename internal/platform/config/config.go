package config

import (
	"os"
	"strconv"
	"strings"
)

// Server captures everything main needs to wire the service.
type Server struct {
	Addr string

	DatabaseURL string
	RedisURL    string

	KafkaBrokers  []string
	KafkaLogTopic string

	// SettingsPassphrase/Salt derive the tenant-settings cipher key.
	SettingsPassphrase string
	SettingsSalt       string

	// Client-credentials endpoint for the analytics store bearer token.
	TokenURL          string
	TokenClientID     string
	TokenClientSecret string

	// Regions allowed to sync to the marketing platform.
	MarketingRegions []string

	SyncQueueSize int
}

// FromEnv builds a Server config from environment variables so main stays
// lean.
func FromEnv() Server {
	return Server{
		Addr:               envOr("UNIFY_ADDR", ":8080"),
		DatabaseURL:        os.Getenv("UNIFY_DATABASE_URL"),
		RedisURL:           os.Getenv("UNIFY_REDIS_URL"),
		KafkaBrokers:       splitList(os.Getenv("UNIFY_KAFKA_BROKERS")),
		KafkaLogTopic:      envOr("UNIFY_KAFKA_LOG_TOPIC", "unify.logs"),
		SettingsPassphrase: os.Getenv("UNIFY_SETTINGS_PASSPHRASE"),
		SettingsSalt:       envOr("UNIFY_SETTINGS_SALT", "unify-tenant-settings"),
		TokenURL:           os.Getenv("UNIFY_TOKEN_URL"),
		TokenClientID:      os.Getenv("UNIFY_TOKEN_CLIENT_ID"),
		TokenClientSecret:  os.Getenv("UNIFY_TOKEN_CLIENT_SECRET"),
		MarketingRegions:   splitList(envOr("UNIFY_MARKETING_REGIONS", "DE,FR,GB")),
		SyncQueueSize:      envIntOr("UNIFY_SYNC_QUEUE_SIZE", 256),
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envIntOr(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func splitList(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := parts[:0]
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
