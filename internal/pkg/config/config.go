package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/FACorreiaa/go-tripwatch/internal/app/domain/risk"
)

type PostgresConfig struct {
	Host     string
	Port     string
	DB       string
	Username string
	Password string
	SSLMode  string
	MaxConns int32
	MinConns int32
}

type RepositoriesConfig struct {
	Postgres PostgresConfig
}

// ProvidersConfig holds the external channel credentials. Empty or
// "demo_key" values switch the corresponding client into demo mode.
type ProvidersConfig struct {
	UnwiredLabsAPIKey string
	Fast2SMSAPIKey    string
	FCMServerKey      string
}

type AlertsConfig struct {
	ChannelTimeout time.Duration
}

type Config struct {
	Repositories RepositoriesConfig
	Providers    ProvidersConfig
	Alerts       AlertsConfig
	Risk         risk.Config
	ServerPort   string
}

func Load() (*Config, error) {
	cfg := &Config{
		Repositories: RepositoriesConfig{
			Postgres: PostgresConfig{
				Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
				Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
				DB:       getEnvOrDefault("POSTGRES_DB", "tripwatch"),
				Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
				Password: getEnvOrDefault("POSTGRES_PASSWORD", ""),
				SSLMode:  getEnvOrDefault("POSTGRES_SSLMODE", "disable"),
				MaxConns: 30,
				MinConns: 5,
			},
		},
		Providers: ProvidersConfig{
			UnwiredLabsAPIKey: os.Getenv("UNWIRED_LABS_API_KEY"),
			Fast2SMSAPIKey:    os.Getenv("FAST2SMS_API_KEY"),
			FCMServerKey:      os.Getenv("FCM_SERVER_KEY"),
		},
		Alerts: AlertsConfig{
			ChannelTimeout: getDurationOrDefault("ALERT_CHANNEL_TIMEOUT", 10*time.Second),
		},
		Risk:       risk.DefaultConfig(),
		ServerPort: getEnvOrDefault("SERVER_PORT", "8091"),
	}

	if cfg.Repositories.Postgres.Password == "" {
		return nil, fmt.Errorf("POSTGRES_PASSWORD environment variable is required")
	}

	return cfg, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		return time.Duration(seconds) * time.Second
	}
	if d, err := time.ParseDuration(value); err == nil {
		return d
	}
	return defaultValue
}
