package config

import (
	"time"

	"github.com/spf13/viper"
)

type AuthMode string

const (
	AuthModeNone  AuthMode = "none"  // No authentication, single default user (dev only)
	AuthModeLocal AuthMode = "local" // Local user database with sessions and API tokens
)

type (
	Config struct {
		HTTP
		Global
		Database
		Auth
		Downloads
		Tasks
		Scheduler
	}

	HTTP struct {
		Port int32
		Host string
	}

	Global struct {
		ShutdownTimeoutInSeconds int
	}

	Database struct {
		Path string
	}

	Auth struct {
		Mode            AuthMode
		SessionSecret   string
		SessionLifetime time.Duration
		TokenExpiry     time.Duration
		BcryptCost      int
		SecureCookies   bool // Set to false for local dev without HTTPS

		// Rate limiting configuration for login attempts
		MaxLoginAttempts int
		RateLimitWindow  time.Duration
		LockoutDuration  time.Duration
	}

	// Downloads controls the quota and time window stamped onto new
	// purchases. Both values are frozen onto the purchase at creation;
	// changing them later affects only future purchases.
	Downloads struct {
		MaxDownloads  int
		WindowHours   int
		RetentionDays int // Days to keep download history (0 = keep forever)
	}

	Tasks struct {
		Enabled           bool
		Workers           int
		MaxRetries        int
		RetryDelay        time.Duration
		TaskTimeout       time.Duration
		ReleaseAfter      time.Duration
		CleanupInterval   time.Duration
		RetentionDuration time.Duration
	}

	Scheduler struct {
		Enabled               bool
		ExpiryReminderEnabled bool
		Schedule              string // Cron format: "0 * * * *" = hourly
		ExpiryReminderWindow  time.Duration
		CleanupSchedule       string // When the retention cleanup task is enqueued
	}
)

func NewConfig() *Config {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("port", 8288)
	v.SetDefault("host", "0.0.0.0")
	v.SetDefault("shutdown_timeout_in_seconds", 2)
	v.SetDefault("database_path", DefaultDatabasePath)

	// Auth defaults
	v.SetDefault("auth_mode", "none")
	v.SetDefault("auth_session_secret", "")      // Auto-generated if empty
	v.SetDefault("auth_session_lifetime", "24h") // 24 hours
	v.SetDefault("auth_token_expiry", "720h")    // 30 days
	v.SetDefault("auth_bcrypt_cost", 12)
	v.SetDefault("auth_secure_cookies", true)
	v.SetDefault("auth_max_login_attempts", 5)
	v.SetDefault("auth_rate_limit_window", "15m")
	v.SetDefault("auth_lockout_duration", "30m")

	// Download entitlement defaults
	v.SetDefault("downloads_max", DefaultMaxDownloads)
	v.SetDefault("downloads_window_hours", DefaultDownloadWindowHours)
	v.SetDefault("downloads_retention_days", 0)

	// Task queue defaults
	v.SetDefault("tasks_enabled", true)
	v.SetDefault("task_workers", 2)
	v.SetDefault("task_max_retries", 3)
	v.SetDefault("task_retry_delay", "1m")
	v.SetDefault("task_timeout", "5m")
	v.SetDefault("task_release_after", "15m")
	v.SetDefault("task_cleanup_interval", "1h")
	v.SetDefault("task_retention_duration", "24h")

	// Scheduler defaults
	v.SetDefault("scheduler_enabled", true)
	v.SetDefault("scheduler_expiry_reminder_enabled", true)
	v.SetDefault("scheduler_schedule", "0 * * * *") // Hourly at :00
	v.SetDefault("scheduler_expiry_reminder_window", "2h")
	v.SetDefault("scheduler_cleanup_schedule", "0 3 * * *") // Daily at 03:00

	return &Config{
		HTTP: HTTP{
			Port: v.GetInt32("PORT"),
			Host: v.GetString("HOST"),
		},
		Global: Global{
			ShutdownTimeoutInSeconds: v.GetInt("SHUTDOWN_TIMEOUT_IN_SECONDS"),
		},
		Database: Database{
			Path: v.GetString("DATABASE_PATH"),
		},
		Auth: Auth{
			Mode:             AuthMode(v.GetString("AUTH_MODE")),
			SessionSecret:    v.GetString("AUTH_SESSION_SECRET"),
			SessionLifetime:  v.GetDuration("AUTH_SESSION_LIFETIME"),
			TokenExpiry:      v.GetDuration("AUTH_TOKEN_EXPIRY"),
			BcryptCost:       v.GetInt("AUTH_BCRYPT_COST"),
			SecureCookies:    v.GetBool("AUTH_SECURE_COOKIES"),
			MaxLoginAttempts: v.GetInt("AUTH_MAX_LOGIN_ATTEMPTS"),
			RateLimitWindow:  v.GetDuration("AUTH_RATE_LIMIT_WINDOW"),
			LockoutDuration:  v.GetDuration("AUTH_LOCKOUT_DURATION"),
		},
		Downloads: Downloads{
			MaxDownloads:  v.GetInt("DOWNLOADS_MAX"),
			WindowHours:   v.GetInt("DOWNLOADS_WINDOW_HOURS"),
			RetentionDays: v.GetInt("DOWNLOADS_RETENTION_DAYS"),
		},
		Tasks: Tasks{
			Enabled:           v.GetBool("TASKS_ENABLED"),
			Workers:           v.GetInt("TASK_WORKERS"),
			MaxRetries:        v.GetInt("TASK_MAX_RETRIES"),
			RetryDelay:        v.GetDuration("TASK_RETRY_DELAY"),
			TaskTimeout:       v.GetDuration("TASK_TIMEOUT"),
			ReleaseAfter:      v.GetDuration("TASK_RELEASE_AFTER"),
			CleanupInterval:   v.GetDuration("TASK_CLEANUP_INTERVAL"),
			RetentionDuration: v.GetDuration("TASK_RETENTION_DURATION"),
		},
		Scheduler: Scheduler{
			Enabled:               v.GetBool("SCHEDULER_ENABLED"),
			ExpiryReminderEnabled: v.GetBool("SCHEDULER_EXPIRY_REMINDER_ENABLED"),
			Schedule:              v.GetString("SCHEDULER_SCHEDULE"),
			ExpiryReminderWindow:  v.GetDuration("SCHEDULER_EXPIRY_REMINDER_WINDOW"),
			CleanupSchedule:       v.GetString("SCHEDULER_CLEANUP_SCHEDULE"),
		},
	}
}
