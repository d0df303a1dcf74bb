package app

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	Issuer string // Required: issuer claim for session tokens

	DatabaseFile string // Optional: path to SQLite database file (default: ./authd.db)
	PepperFile   string // Optional: path to file containing pepper for password hashing (default: ./pepper)

	Env       string // Environment (dev, staging, prod) (default: dev)
	LogLevel  string // Log level (debug, info, warn, error) (default: info)
	LogFormat string // Log format (json, text) (default: json)

	Port                int           // HTTP server port (default: 8080)
	ShutdownGracePeriod time.Duration // Graceful shutdown timeout (default: 10s)

	// Bot-filter gate
	CaptchaSecret    string  // Required in prod: server-side reCAPTCHA secret
	CaptchaThreshold float64 // Minimum admissible score (default: 0.5)

	// SMTP delivery for OTP codes and reset notices
	SMTPHost     string
	SMTPPort     int
	SMTPUsername string
	SMTPPassword string
	SMTPFrom     string

	// First-run bootstrap admin, created only when the store is empty
	BootstrapEmail    string
	BootstrapPassword string

	// Admission policy
	LockoutThreshold     int           // Failures before OTP escalation (default: 3)
	LockoutWindow        time.Duration // Rolling window for counting failures (default: 15m)
	OtpTTL               time.Duration // Emailed code lifetime (default: 5m)
	OtpMaxAttempts       int           // Wrong codes before blocked (default: 5)
	MFAWindow            time.Duration // TOTP admission window (default: 24h)
	SessionTTL           time.Duration // Session token lifetime (default: 12h)
	HousekeepingInterval time.Duration // Housekeeping interval (default: 1h)
}

func LoadConfig() Config {
	cfg := Config{
		Issuer:       getEnvOrDefault("AUTHD_ISSUER", "authd"),
		DatabaseFile: getEnvOrDefault("AUTHD_DATABASE_FILE", "authd.db"),
		PepperFile:   getEnvOrDefault("AUTHD_PEPPER_FILE", "pepper"),

		Env:       getEnvOrDefault("ENV", "dev"),
		LogLevel:  getEnvOrDefault("LOG_LEVEL", "info"),
		LogFormat: getEnvOrDefault("LOG_FORMAT", "json"),

		Port:                getEnvIntOrDefault("PORT", 8080),
		ShutdownGracePeriod: getEnvDurationOrDefault("SHUTDOWN_GRACE_PERIOD", 10*time.Second),

		CaptchaSecret:    os.Getenv("AUTHD_CAPTCHA_SECRET"),
		CaptchaThreshold: getEnvFloatOrDefault("AUTHD_CAPTCHA_THRESHOLD", 0.5),

		SMTPHost:     os.Getenv("AUTHD_SMTP_HOST"),
		SMTPPort:     getEnvIntOrDefault("AUTHD_SMTP_PORT", 587),
		SMTPUsername: os.Getenv("AUTHD_SMTP_USERNAME"),
		SMTPPassword: os.Getenv("AUTHD_SMTP_PASSWORD"),
		SMTPFrom:     getEnvOrDefault("AUTHD_SMTP_FROM", "no-reply@localhost"),

		BootstrapEmail:    os.Getenv("AUTHD_BOOTSTRAP_EMAIL"),
		BootstrapPassword: os.Getenv("AUTHD_BOOTSTRAP_PASSWORD"),

		LockoutThreshold:     getEnvIntOrDefault("AUTHD_LOCKOUT_THRESHOLD", 3),
		LockoutWindow:        getEnvDurationOrDefault("AUTHD_LOCKOUT_WINDOW", 15*time.Minute),
		OtpTTL:               getEnvDurationOrDefault("AUTHD_OTP_TTL", 5*time.Minute),
		OtpMaxAttempts:       getEnvIntOrDefault("AUTHD_OTP_MAX_ATTEMPTS", 5),
		MFAWindow:            getEnvDurationOrDefault("AUTHD_MFA_WINDOW", 24*time.Hour),
		SessionTTL:           getEnvDurationOrDefault("AUTHD_SESSION_TTL", 12*time.Hour),
		HousekeepingInterval: getEnvDurationOrDefault("HOUSEKEEPING_INTERVAL", 1*time.Hour),
	}

	// Sessions must not outlive the MFA admission window.
	if cfg.SessionTTL > cfg.MFAWindow {
		cfg.SessionTTL = cfg.MFAWindow
	}

	return cfg
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if intValue, err := strconv.Atoi(value); err == nil {
		return intValue
	}

	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	if f, err := strconv.ParseFloat(value, 64); err == nil {
		return f
	}

	return defaultValue
}

func getEnvDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	// Try parsing as duration (e.g., "1h", "30m", "90s")
	if duration, err := time.ParseDuration(value); err == nil {
		return duration
	}

	// Try parsing as integer minutes (for backwards compatibility)
	if minutes, err := strconv.Atoi(value); err == nil {
		return time.Duration(minutes) * time.Minute
	}

	return defaultValue
}
