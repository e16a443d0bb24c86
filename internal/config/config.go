package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	// Chat transport
	BotToken    string
	AdminUserID string

	// Ops HTTP server
	OpsPort        int
	OpsAPIKey      string
	TrustedProxies []string

	// Logging
	LogLevel    string
	LogFormat   string
	ServiceName string
	Version     string
	Environment string

	// Database
	DBUser     string
	DBPassword string
	DBHost     string
	DBPort     string
	DBName     string

	// Provider account (optional; can also be configured at runtime via
	// the admin session-upload flow)
	ProviderUsername string
	ProviderPassword string

	// File layout
	SessionDir  string
	DownloadDir string

	// Pipeline tuning
	DownloadCooldown time.Duration
	ProbeTimeout     time.Duration
	FetchTimeout     time.Duration
	BroadcastDelay   time.Duration

	// Worker pool
	Workers   int
	QueueSize int
}

// Load loads the configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists, but don't fail if it doesn't (could be real env vars)
	_ = godotenv.Load()

	cfg := &Config{
		BotToken:         getEnv("BOT_TOKEN", ""),
		AdminUserID:      getEnv("ADMIN_USER_ID", ""),
		LogLevel:         getEnv("LOG_LEVEL", "info"),
		LogFormat:        getEnv("LOG_FORMAT", "text"),
		ServiceName:      getEnv("SERVICE_NAME", "mx-bot"),
		Version:          getEnv("VERSION", "dev"),
		Environment:      getEnv("ENVIRONMENT", "dev"),
		DBUser:           getEnv("DB_USER", "postgres"),
		DBPassword:       getEnv("DB_PASSWORD", "postgres"),
		DBHost:           getEnv("DB_HOST", "localhost"),
		DBPort:           getEnv("DB_PORT", "5432"),
		DBName:           getEnv("DB_NAME", "mxbot"),
		ProviderUsername: getEnv("PROVIDER_USERNAME", ""),
		ProviderPassword: getEnv("PROVIDER_PASSWORD", ""),
		SessionDir:       getEnv("SESSION_DIR", "sessions"),
		DownloadDir:      getEnv("DOWNLOAD_DIR", "downloads"),
		DownloadCooldown: getEnvAsDuration("DOWNLOAD_COOLDOWN", 5*time.Second),
		ProbeTimeout:     getEnvAsDuration("PROBE_TIMEOUT", 30*time.Second),
		FetchTimeout:     getEnvAsDuration("FETCH_TIMEOUT", 10*time.Minute),
		BroadcastDelay:   getEnvAsDuration("BROADCAST_DELAY", 50*time.Millisecond),
		Workers:          getEnvAsInt("WORKERS", 4),
		QueueSize:        getEnvAsInt("QUEUE_SIZE", 64),
	}

	opsPort, err := strconv.Atoi(getEnv("OPS_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid OPS_PORT value: %w", err)
	}
	cfg.OpsPort = opsPort
	cfg.OpsAPIKey = getEnv("OPS_API_KEY", "")

	if proxies := getEnv("TRUSTED_PROXIES", ""); proxies != "" {
		for _, p := range strings.Split(proxies, ",") {
			if trimmed := strings.TrimSpace(p); trimmed != "" {
				cfg.TrustedProxies = append(cfg.TrustedProxies, trimmed)
			}
		}
	}

	if cfg.BotToken == "" {
		return nil, fmt.Errorf("BOT_TOKEN environment variable must be set")
	}
	if cfg.AdminUserID == "" {
		return nil, fmt.Errorf("ADMIN_USER_ID environment variable must be set")
	}
	if cfg.OpsAPIKey == "" {
		return nil, fmt.Errorf("OPS_API_KEY environment variable must be set")
	}

	return cfg, nil
}

// HasProviderCredentials reports whether a fresh provider login is possible
// from configuration alone.
func (c *Config) HasProviderCredentials() bool {
	return c.ProviderUsername != "" && c.ProviderPassword != ""
}

// GetDBConnString returns the PostgreSQL connection string
func (c *Config) GetDBConnString() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable",
		c.DBUser,
		c.DBPassword,
		c.DBHost,
		c.DBPort,
		c.DBName,
	)
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an integer environment variable or returns the default
func getEnvAsInt(key string, defaultValue int) int {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

// getEnvAsDuration retrieves a duration environment variable or returns the default
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists {
		return defaultValue
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}
