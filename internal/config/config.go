package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

// PlaceholderAPIKey is the value shipped in .env.example. A deployment that
// still carries it is treated as unconfigured.
const PlaceholderAPIKey = "YOUR_PRIMER_API_KEY"

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	Version            string
	CORSAllowedOrigins []string

	PrimerAPIBaseURL     string
	PrimerAPIKey         string
	PrimerAPIVersion     string
	PrimerWebhookSecret  string
	WebhookVerifyDisable bool

	RetryMaxAttempts int
	RetryBaseDelay   time.Duration
	RequestTimeout   time.Duration

	RateLimitRPM int
	MaxBodyBytes int64
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("PORT"), "8080"),
		Version:            valueOrDefault(k.String("APP_VERSION"), "dev"),
		CORSAllowedOrigins: splitAndTrim(k.String("CORS_ALLOWED_ORIGINS")),

		PrimerAPIBaseURL:     valueOrDefault(k.String("PRIMER_API_BASE_URL"), "https://api.sandbox.primer.io"),
		PrimerAPIKey:         strings.TrimSpace(k.String("PRIMER_API_KEY")),
		PrimerAPIVersion:     valueOrDefault(k.String("PRIMER_API_VERSION"), "2.4"),
		PrimerWebhookSecret:  strings.TrimSpace(k.String("PRIMER_WEBHOOK_SECRET")),
		WebhookVerifyDisable: parseBool(k.String("WEBHOOK_VERIFY_DISABLED")),

		RetryMaxAttempts: intOrDefault(k.Int("PRIMER_RETRY_MAX_ATTEMPTS"), 3),
		RetryBaseDelay:   millisOrDefault(k.Int("PRIMER_RETRY_BASE_DELAY_MS"), 1000),
		RequestTimeout:   millisOrDefault(k.Int("PRIMER_REQUEST_TIMEOUT_MS"), 10000),

		RateLimitRPM: intOrDefault(k.Int("RATE_LIMIT_RPM"), 60),
		MaxBodyBytes: int64(intOrDefault(k.Int("MAX_BODY_BYTES"), 1<<20)),
	}

	return cfg, nil
}

// IsProduction reports whether the process runs with production hardening.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(strings.TrimSpace(c.AppEnv), "production")
}

// APIKeyConfigured reports whether a usable Primer API key is present.
// The key is deliberately not required at startup: the deployment fault is
// detected per request so the rest of the surface (health, webhook) keeps
// working.
func (c *Config) APIKeyConfigured() bool {
	key := strings.TrimSpace(c.PrimerAPIKey)
	return key != "" && key != PlaceholderAPIKey
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func intOrDefault(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}

func millisOrDefault(value, fallback int) time.Duration {
	if value <= 0 {
		value = fallback
	}
	return time.Duration(value) * time.Millisecond
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
