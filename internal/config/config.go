package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config holds all application configuration.
type Config struct {
	// Server settings
	Env               string
	Port              string
	ReadTimeout       time.Duration
	ReadHeaderTimeout time.Duration
	WriteTimeout      time.Duration
	IdleTimeout       time.Duration
	MaxHeaderBytes    int

	// Redis settings
	RedisURL          string
	RedisPoolSize     int
	RedisMinIdle      int
	RedisDialTimeout  time.Duration
	RedisReadTimeout  time.Duration
	RedisWriteTimeout time.Duration
	RedisPoolTimeout  time.Duration

	// Encryption settings. MasterKey is required; the AES key is
	// derived from it once at startup and neither is ever logged.
	MasterKey string
	KeySalt   string

	// Receipt settings
	ReceiptWebhookBaseURL string
	ReceiptEmailEndpoint  string
	ReceiptSMSEndpoint    string
	ReceiptAPIKey         string

	// Shutdown settings
	ShutdownTimeout time.Duration

	// Security settings
	RequireHTTPS bool // enforce HTTPS with HSTS header (disable with NO_HTTPS=1)
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Env:               "development",
		Port:              "8080",
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB

		RedisURL:          "redis://localhost:6379/0",
		RedisPoolSize:     10,
		RedisMinIdle:      2,
		RedisDialTimeout:  5 * time.Second,
		RedisReadTimeout:  3 * time.Second,
		RedisWriteTimeout: 3 * time.Second,
		RedisPoolTimeout:  4 * time.Second,

		KeySalt: "secretlink-key-salt",

		ReceiptWebhookBaseURL: "https://ntfy.sh",

		ShutdownTimeout: 5 * time.Second,

		RequireHTTPS: true, // secure default: enforce HTTPS
	}
}

// Load reads configuration from environment variables and validates it.
func Load() (Config, error) {
	cfg := DefaultConfig()

	// Server settings
	if env := os.Getenv("ENV"); env != "" {
		cfg.Env = env
	}
	if port := os.Getenv("PORT"); port != "" {
		if _, err := strconv.Atoi(port); err != nil {
			return Config{}, fmt.Errorf("PORT must be a valid number: %w", err)
		}
		cfg.Port = port
	}

	// Redis settings
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		cfg.RedisURL = redisURL
	}

	if poolSize := os.Getenv("REDIS_POOL_SIZE"); poolSize != "" {
		size, err := strconv.Atoi(poolSize)
		if err != nil || size < 1 {
			return Config{}, errors.New("REDIS_POOL_SIZE must be a positive integer")
		}
		cfg.RedisPoolSize = size
	}

	if minIdle := os.Getenv("REDIS_MIN_IDLE"); minIdle != "" {
		idle, err := strconv.Atoi(minIdle)
		if err != nil || idle < 0 {
			return Config{}, errors.New("REDIS_MIN_IDLE must be a non-negative integer")
		}
		cfg.RedisMinIdle = idle
	}

	// Encryption settings
	cfg.MasterKey = os.Getenv("MASTER_KEY")
	if cfg.MasterKey == "" {
		return Config{}, errors.New("MASTER_KEY is required")
	}
	if salt := os.Getenv("KEY_SALT"); salt != "" {
		cfg.KeySalt = salt
	}

	// Receipt settings
	if base := os.Getenv("RECEIPT_WEBHOOK_BASE_URL"); base != "" {
		cfg.ReceiptWebhookBaseURL = base
	}
	cfg.ReceiptEmailEndpoint = os.Getenv("RECEIPT_EMAIL_ENDPOINT")
	cfg.ReceiptSMSEndpoint = os.Getenv("RECEIPT_SMS_ENDPOINT")
	cfg.ReceiptAPIKey = os.Getenv("RECEIPT_API_KEY")

	// Shutdown settings
	if timeout := os.Getenv("SHUTDOWN_TIMEOUT"); timeout != "" {
		dur, err := time.ParseDuration(timeout)
		if err != nil {
			return Config{}, fmt.Errorf(
				"SHUTDOWN_TIMEOUT must be a valid duration: %w", err)
		}
		cfg.ShutdownTimeout = dur
	}

	// Security settings
	if noHTTPS := os.Getenv("NO_HTTPS"); noHTTPS == "1" || noHTTPS == "true" {
		cfg.RequireHTTPS = false
	}

	return cfg, nil
}

// ListenAddr returns the address string for the HTTP server.
func (c Config) ListenAddr() string {
	return ":" + c.Port
}
