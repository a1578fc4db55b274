package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	Logging    LoggingConfig
	Completion CompletionConfig
	Billing    BillingConfig
	Plan       PlanConfig
	RateLimit  RateLimitConfig
}

// ServerConfig contains HTTP server configuration
type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	ShutdownTimeout time.Duration
	FrontendURL     string
	Environment     string
}

// DatabaseConfig contains database configuration
type DatabaseConfig struct {
	Driver          string
	Host            string
	Port            int
	Name            string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	// For SQLite
	Path string
}

// AuthConfig contains token verification configuration
type AuthConfig struct {
	JWTSecret         string
	AccessTokenExpiry time.Duration
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string
	Format     string // json or console
	OutputPath string
}

// CompletionConfig selects and tunes the language model gateway
type CompletionConfig struct {
	Provider      string // openai or gemini
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	GeminiAPIKey  string
	GeminiModel   string
	MaxTokens     int
	Timeout       time.Duration
	HistoryWindow int
}

// BillingConfig contains Stripe configuration
type BillingConfig struct {
	StripeSecretKey     string
	StripeWebhookSecret string
	PremiumPriceID      string
	CheckoutSuccessURL  string
	CheckoutCancelURL   string
	Timeout             time.Duration
}

// PlanConfig contains the tier policy
type PlanConfig struct {
	FreeDailyLimit     int
	TrialPeriod        time.Duration
	Timezone           string
	UsageRetentionDays int
	PruneSchedule      string
}

// RateLimitConfig contains HTTP rate limiting configuration
type RateLimitConfig struct {
	RequestsPerSecond     float64
	Burst                 int
	UserRequestsPerSecond float64
	UserBurst             int
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors as it's optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 90*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:5173"),
			Environment:     getEnv("ENVIRONMENT", "development"),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "sqlite"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "dialekt"),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			Path:            getEnv("DB_PATH", "./dialekt.db"),
		},
		Auth: AuthConfig{
			JWTSecret:         getEnv("JWT_SECRET", ""),
			AccessTokenExpiry: getEnvAsDuration("JWT_ACCESS_EXPIRY", time.Hour),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
		Completion: CompletionConfig{
			Provider:      strings.ToLower(getEnv("COMPLETION_PROVIDER", "openai")),
			OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
			OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
			GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
			MaxTokens:     getEnvAsInt("COMPLETION_MAX_TOKENS", 800),
			Timeout:       getEnvAsDuration("COMPLETION_TIMEOUT", 45*time.Second),
			HistoryWindow: getEnvAsInt("CHAT_HISTORY_WINDOW", 20),
		},
		Billing: BillingConfig{
			StripeSecretKey:     getEnv("STRIPE_SECRET_KEY", ""),
			StripeWebhookSecret: getEnv("STRIPE_WEBHOOK_SECRET", ""),
			PremiumPriceID:      getEnv("STRIPE_PREMIUM_PRICE_ID", ""),
			CheckoutSuccessURL:  getEnv("CHECKOUT_SUCCESS_URL", "http://localhost:5173/billing/success"),
			CheckoutCancelURL:   getEnv("CHECKOUT_CANCEL_URL", "http://localhost:5173/billing/cancel"),
			Timeout:             getEnvAsDuration("BILLING_TIMEOUT", 15*time.Second),
		},
		Plan: PlanConfig{
			FreeDailyLimit:     getEnvAsInt("FREE_DAILY_LIMIT", 5),
			TrialPeriod:        getEnvAsDuration("TRIAL_PERIOD", 7*24*time.Hour),
			Timezone:           getEnv("QUOTA_TIMEZONE", "UTC"),
			UsageRetentionDays: getEnvAsInt("USAGE_RETENTION_DAYS", 30),
			PruneSchedule:      getEnv("USAGE_PRUNE_SCHEDULE", "15 3 * * *"),
		},
		RateLimit: RateLimitConfig{
			RequestsPerSecond:     getEnvAsFloat("RATE_LIMIT_RPS", 50),
			Burst:                 getEnvAsInt("RATE_LIMIT_BURST", 100),
			UserRequestsPerSecond: getEnvAsFloat("USER_RATE_LIMIT_RPS", 2),
			UserBurst:             getEnvAsInt("USER_RATE_LIMIT_BURST", 10),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET must be set")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	if c.Database.Driver != "sqlite" && c.Database.Driver != "postgres" {
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	if c.Completion.Provider != "openai" && c.Completion.Provider != "gemini" {
		return fmt.Errorf("unsupported completion provider: %s", c.Completion.Provider)
	}

	if c.Completion.HistoryWindow < 1 {
		return fmt.Errorf("CHAT_HISTORY_WINDOW must be positive, got %d", c.Completion.HistoryWindow)
	}

	if c.Plan.FreeDailyLimit < 0 {
		return fmt.Errorf("FREE_DAILY_LIMIT must not be negative, got %d", c.Plan.FreeDailyLimit)
	}

	if c.Plan.TrialPeriod <= 0 {
		return fmt.Errorf("TRIAL_PERIOD must be positive")
	}

	if _, err := time.LoadLocation(c.Plan.Timezone); err != nil {
		return fmt.Errorf("invalid QUOTA_TIMEZONE %q: %w", c.Plan.Timezone, err)
	}

	return nil
}

// Location returns the reference timezone used for daily quota keys
func (c PlanConfig) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Addr returns the listen address
func (c ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
