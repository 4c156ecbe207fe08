package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds the application configuration
type Config struct {
	DataDir         string
	APIBaseURL      string
	SiteBaseURL     string
	StatusAddr      string
	ProbeInterval   time.Duration
	ProbeTimeout    time.Duration
	DeliveryTimeout time.Duration
	SyncMaxAttempts int
	PhotoMaxWidth   uint
}

// LoadConfig loads configuration from environment variables or defaults
func LoadConfig() *Config {
	return &Config{
		DataDir:         getEnv("GUESTSYNC_DATA_DIR", "data"),
		APIBaseURL:      getEnv("GUESTSYNC_API_URL", "http://localhost:8080"),
		SiteBaseURL:     getEnv("GUESTSYNC_SITE_URL", "https://wedding.example.com"),
		StatusAddr:      getEnv("GUESTSYNC_STATUS_ADDR", "127.0.0.1:9182"),
		ProbeInterval:   getEnvDuration("GUESTSYNC_PROBE_INTERVAL", 30*time.Second),
		ProbeTimeout:    getEnvDuration("GUESTSYNC_PROBE_TIMEOUT", 5*time.Second),
		DeliveryTimeout: getEnvDuration("GUESTSYNC_DELIVERY_TIMEOUT", 30*time.Second),
		SyncMaxAttempts: getEnvInt("GUESTSYNC_MAX_ATTEMPTS", 0),
		PhotoMaxWidth:   uint(getEnvInt("GUESTSYNC_PHOTO_MAX_WIDTH", 2048)),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
