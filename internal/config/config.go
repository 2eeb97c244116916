// Package config provides application configuration.
package config

import (
	"fmt"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all application configuration.
type Config struct {
	Port        string
	FrontendURL string
	LogLevel    string
	Backend     BackendConfig
	AuditDBPath string
	Notify      NotifyConfig
	Views       ViewsConfig
}

// BackendConfig describes how to reach the hospital backend.
type BackendConfig struct {
	BaseURL        string
	CookieName     string // session cookie attached to every request
	SessionToken   string
	RequestTimeout time.Duration
}

// NotifyConfig controls the per-tab notification replay queue.
type NotifyConfig struct {
	QueueSize int
}

// ViewsConfig controls how long an unused tab keeps its view.
type ViewsConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	queueSize := getEnvInt("NOTIFY_QUEUE_SIZE", 100)
	if queueSize <= 0 {
		queueSize = 100
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", ""),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		Backend: BackendConfig{
			BaseURL:        strings.TrimRight(getEnv("BACKEND_URL", "https://hms-backend-deployment-gx72.vercel.app"), "/"),
			CookieName:     getEnv("SESSION_COOKIE_NAME", "adminToken"),
			SessionToken:   getEnv("SESSION_TOKEN", ""),
			RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 30*time.Second),
		},
		AuditDBPath: getEnv("AUDIT_DB_PATH", "./data/audit.db"),
		Notify: NotifyConfig{
			QueueSize: queueSize,
		},
		Views: ViewsConfig{
			IdleTTL:       getEnvDuration("VIEW_IDLE_TTL", 30*time.Minute),
			SweepInterval: getEnvDuration("VIEW_SWEEP_INTERVAL", 5*time.Minute),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration fields are set.
func (c *Config) Validate() error {
	if c.Port == "" {
		return fmt.Errorf("PORT cannot be empty")
	}
	if c.Backend.BaseURL == "" {
		return fmt.Errorf("BACKEND_URL cannot be empty")
	}
	u, err := url.Parse(c.Backend.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("BACKEND_URL must be an absolute URL, got %q", c.Backend.BaseURL)
	}
	if c.Backend.CookieName == "" {
		return fmt.Errorf("SESSION_COOKIE_NAME cannot be empty")
	}
	if c.Backend.RequestTimeout <= 0 {
		return fmt.Errorf("REQUEST_TIMEOUT must be > 0")
	}
	if c.AuditDBPath == "" {
		return fmt.Errorf("AUDIT_DB_PATH cannot be empty")
	}
	if c.Notify.QueueSize <= 0 {
		return fmt.Errorf("NOTIFY_QUEUE_SIZE must be > 0")
	}
	if c.Views.IdleTTL <= 0 || c.Views.SweepInterval <= 0 {
		return fmt.Errorf("VIEW_IDLE_TTL and VIEW_SWEEP_INTERVAL must be > 0")
	}
	return nil
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.FrontendURL == "" ||
		strings.Contains(c.FrontendURL, "localhost") ||
		strings.Contains(c.FrontendURL, "127.0.0.1")
}

// AllowedOrigins returns the origins accepted by the CORS middleware.
func (c *Config) AllowedOrigins() []string {
	if c.FrontendURL == "" {
		return []string{"*"}
	}
	return []string{c.FrontendURL}
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, ok := os.LookupEnv(key)
	if !ok {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		return fallback
	}
	return d
}
