// Package config loads and validates all environment variables at startup.
// Every other package receives typed values; nothing reads os.Getenv directly.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is the fully-parsed application configuration.
type Config struct {
	// ── Server ────────────────────────────────────────────────────────────────
	Port string // default "8080"
	Env  string // "development" | "staging" | "production"

	// ── Gemini ────────────────────────────────────────────────────────────────
	// GeminiAPIKey may be empty. The report endpoint then always serves the
	// fallback dataset and image generation fails with an invalid-credential
	// error until a key is configured.
	GeminiAPIKey     string
	GeminiBaseURL    string // optional proxy / regional endpoint
	GeminiTextModel  string // default "gemini-2.5-flash"
	GeminiImageModel string // default "gemini-3-pro-image-preview"

	// ── Report fetch ──────────────────────────────────────────────────────────
	ReportTimeout         time.Duration // default 12s
	ReportCancelOnTimeout bool          // default true

	// ── Infographics ──────────────────────────────────────────────────────────
	ImageAspectRatio string        // default "16:9"
	ImageSize        string        // default "2K"
	ImageWorkers     int           // default 2
	ImageJobTimeout  time.Duration // default 3m
	ImageRPM         int           // default 10

	// ── Sessions ──────────────────────────────────────────────────────────────
	SessionTTL time.Duration // default 2h

	// ── Database ──────────────────────────────────────────────────────────────
	// Optional. When set, fetch and generation outcomes are written to the
	// audit tables.
	DatabaseURL string
}

// Load reads all environment variables and returns a validated Config.
// A .env file in the working directory is loaded first when present; real
// environment variables always take precedence over .env values.
func Load() (*Config, error) {
	// Missing file is fine. godotenv.Load never overrides variables that are
	// already set.
	_ = godotenv.Load(".env")

	c := &Config{
		Port:                  getEnv("PORT", "8080"),
		Env:                   getEnv("ENV", "development"),
		GeminiAPIKey:          strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		GeminiBaseURL:         strings.TrimSpace(os.Getenv("GEMINI_BASE_URL")),
		GeminiTextModel:       getEnv("GEMINI_TEXT_MODEL", "gemini-2.5-flash"),
		GeminiImageModel:      getEnv("GEMINI_IMAGE_MODEL", "gemini-3-pro-image-preview"),
		ReportTimeout:         getEnvAsDuration("REPORT_TIMEOUT", 12*time.Second),
		ReportCancelOnTimeout: getEnvAsBool("REPORT_CANCEL_ON_TIMEOUT", true),
		ImageAspectRatio:      getEnv("IMAGE_ASPECT_RATIO", "16:9"),
		ImageSize:             getEnv("IMAGE_SIZE", "2K"),
		ImageWorkers:          getEnvAsInt("IMAGE_WORKERS", 2),
		ImageJobTimeout:       getEnvAsDuration("IMAGE_JOB_TIMEOUT", 3*time.Minute),
		ImageRPM:              getEnvAsInt("IMAGE_RPM", 10),
		SessionTTL:            getEnvAsDuration("SESSION_TTL", 2*time.Hour),
		DatabaseURL:           os.Getenv("DATABASE_URL"),
	}

	return c, c.validate()
}

// HasGeminiKey reports whether a Gemini API key is configured.
func (c *Config) HasGeminiKey() bool {
	return c.GeminiAPIKey != ""
}

func (c *Config) validate() error {
	var errs []error

	if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("PORT must be numeric, got %q", c.Port))
	}
	if c.ReportTimeout <= 0 {
		errs = append(errs, errors.New("REPORT_TIMEOUT must be positive"))
	}
	if c.ImageWorkers <= 0 {
		errs = append(errs, errors.New("IMAGE_WORKERS must be positive"))
	}
	if c.ImageJobTimeout <= 0 {
		errs = append(errs, errors.New("IMAGE_JOB_TIMEOUT must be positive"))
	}
	if c.ImageRPM <= 0 {
		errs = append(errs, errors.New("IMAGE_RPM must be positive"))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, errors.New("SESSION_TTL must be positive"))
	}
	if c.GeminiTextModel == "" || c.GeminiImageModel == "" {
		errs = append(errs, errors.New("GEMINI_TEXT_MODEL and GEMINI_IMAGE_MODEL must not be empty"))
	}

	return errors.Join(errs...)
}

// ─── HELPERS ─────────────────────────────────────────────────────────────────

func getEnv(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, err := strconv.Atoi(os.Getenv(key)); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	// A plain integer is seconds, unless the name says otherwise.
	if value, err := strconv.Atoi(valueStr); err == nil {
		switch {
		case strings.Contains(key, "HOURS"):
			return time.Duration(value) * time.Hour
		case strings.Contains(key, "MINUTES"):
			return time.Duration(value) * time.Minute
		default:
			return time.Duration(value) * time.Second
		}
	}
	if duration, err := time.ParseDuration(valueStr); err == nil {
		return duration
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
