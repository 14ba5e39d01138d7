// Package config provides environment-based configuration for the application.
// This is part of the platform layer and contains no business logic.
//
// Modules depend on the narrow capability interfaces below instead of the full
// Config struct, so each module declares exactly which settings it reads.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// DatabaseConfig exposes database connection settings.
type DatabaseConfig interface {
	GetDatabaseURL() string
}

// HTTPConfig exposes HTTP server settings.
type HTTPConfig interface {
	GetHTTPAddr() string
	GetCORSAllowAll() bool
	GetCORSOrigins() []string
	GetRateLimitRPS() float64
	GetRateLimitBurst() int
}

// SchedulerConfig exposes settings for the asynq-backed job scheduler.
type SchedulerConfig interface {
	GetRedisURL() string
	GetRedisTLSInsecure() bool
	GetAsynqQueueName() string
	GetAsynqConcurrency() int
}

// AutomationConfig exposes settings for the automation rule engine.
type AutomationConfig interface {
	GetAutomationTickInterval() time.Duration
}

// HistoryConfig exposes audit history retention settings.
type HistoryConfig interface {
	GetHistoryRetentionDays() int
	GetHistoryCleanupInterval() time.Duration
}

// EmailConfig exposes SMTP settings for the email notification channel.
type EmailConfig interface {
	GetEmailEnabled() bool
	GetSMTPHost() string
	GetSMTPPort() int
	GetSMTPUsername() string
	GetSMTPPassword() string
	GetEmailFromAddress() string
}

// NotificationConfig exposes settings for the in-app notification flusher.
type NotificationConfig interface {
	GetNotificationFlushInterval() time.Duration
}

type Config struct {
	Env         string
	HTTPAddr    string
	DatabaseURL string

	CORSAllowAll bool
	CORSOrigins  []string

	RateLimitRPS   float64
	RateLimitBurst int

	RedisURL         string
	RedisTLSInsecure bool
	AsynqQueueName   string
	AsynqConcurrency int

	AutomationTickInterval time.Duration

	HistoryRetentionDays   int
	HistoryCleanupInterval time.Duration

	EmailEnabled     bool
	SMTPHost         string
	SMTPPort         int
	SMTPUsername     string
	SMTPPassword     string
	EmailFromAddress string

	NotificationFlushInterval time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	corsOrigins := splitCSV(getEnv("CORS_ORIGINS", "http://localhost:4200"))
	corsAllowAll := strings.EqualFold(getEnv("CORS_ALLOW_ALL", "false"), "true")
	if containsWildcard(corsOrigins) {
		corsAllowAll = true
	}

	emailEnabled := strings.EqualFold(getEnv("EMAIL_ENABLED", "false"), "true")

	cfg := &Config{
		Env:          getEnv("APP_ENV", "development"),
		HTTPAddr:     getEnv("HTTP_ADDR", ":8080"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),
		CORSAllowAll: corsAllowAll,
		CORSOrigins:  corsOrigins,

		RateLimitRPS:   getFloat("RATE_LIMIT_RPS", 50),
		RateLimitBurst: getInt("RATE_LIMIT_BURST", 100),

		RedisURL:         getEnv("REDIS_URL", ""),
		RedisTLSInsecure: strings.EqualFold(getEnv("REDIS_TLS_INSECURE", "false"), "true"),
		AsynqQueueName:   getEnv("ASYNQ_QUEUE", "crm"),
		AsynqConcurrency: getInt("ASYNQ_CONCURRENCY", 10),

		AutomationTickInterval: mustDuration(getEnv("AUTOMATION_TICK_INTERVAL", "60s")),

		HistoryRetentionDays:   getInt("HISTORY_RETENTION_DAYS", 365),
		HistoryCleanupInterval: mustDuration(getEnv("HISTORY_CLEANUP_INTERVAL", "24h")),

		EmailEnabled:     emailEnabled,
		SMTPHost:         getEnv("SMTP_HOST", ""),
		SMTPPort:         getInt("SMTP_PORT", 587),
		SMTPUsername:     getEnv("SMTP_USERNAME", ""),
		SMTPPassword:     getEnv("SMTP_PASSWORD", ""),
		EmailFromAddress: getEnv("EMAIL_FROM_ADDRESS", ""),

		NotificationFlushInterval: mustDuration(getEnv("NOTIFICATION_FLUSH_INTERVAL", "5s")),
	}

	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}
	if cfg.AutomationTickInterval <= 0 {
		return nil, fmt.Errorf("AUTOMATION_TICK_INTERVAL must be a positive duration")
	}
	if cfg.EmailEnabled && (cfg.SMTPHost == "" || cfg.EmailFromAddress == "") {
		return nil, fmt.Errorf("SMTP_HOST and EMAIL_FROM_ADDRESS are required when EMAIL_ENABLED is true")
	}

	return cfg, nil
}

// Database getters
func (c *Config) GetDatabaseURL() string { return c.DatabaseURL }

// HTTP getters
func (c *Config) GetHTTPAddr() string      { return c.HTTPAddr }
func (c *Config) GetCORSAllowAll() bool    { return c.CORSAllowAll }
func (c *Config) GetCORSOrigins() []string { return c.CORSOrigins }
func (c *Config) GetRateLimitRPS() float64 { return c.RateLimitRPS }
func (c *Config) GetRateLimitBurst() int   { return c.RateLimitBurst }

// Scheduler getters
func (c *Config) GetRedisURL() string       { return c.RedisURL }
func (c *Config) GetRedisTLSInsecure() bool { return c.RedisTLSInsecure }
func (c *Config) GetAsynqQueueName() string { return c.AsynqQueueName }
func (c *Config) GetAsynqConcurrency() int  { return c.AsynqConcurrency }

// Automation getters
func (c *Config) GetAutomationTickInterval() time.Duration { return c.AutomationTickInterval }

// History getters
func (c *Config) GetHistoryRetentionDays() int             { return c.HistoryRetentionDays }
func (c *Config) GetHistoryCleanupInterval() time.Duration { return c.HistoryCleanupInterval }

// Email getters
func (c *Config) GetEmailEnabled() bool       { return c.EmailEnabled }
func (c *Config) GetSMTPHost() string         { return c.SMTPHost }
func (c *Config) GetSMTPPort() int            { return c.SMTPPort }
func (c *Config) GetSMTPUsername() string     { return c.SMTPUsername }
func (c *Config) GetSMTPPassword() string     { return c.SMTPPassword }
func (c *Config) GetEmailFromAddress() string { return c.EmailFromAddress }

// Notification getters
func (c *Config) GetNotificationFlushInterval() time.Duration { return c.NotificationFlushInterval }

func getEnv(key, fallback string) string {
	if val, ok := os.LookupEnv(key); ok {
		return val
	}
	return fallback
}

func getInt(key string, fallback int) int {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return parsed
}

func getFloat(key string, fallback float64) float64 {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return fallback
	}
	return parsed
}

func mustDuration(value string) time.Duration {
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0
	}
	return d
}

func splitCSV(value string) []string {
	parts := strings.Split(value, ",")
	results := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			results = append(results, trimmed)
		}
	}
	return results
}

func containsWildcard(values []string) bool {
	for _, value := range values {
		if value == "*" {
			return true
		}
	}
	return false
}
