package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Database   DatabaseConfig
	Auth       AuthConfig
	Quota      QuotaConfig
	Billing    BillingConfig
	Generation GenerationConfig
	TTS        TTSConfig
	Logging    LoggingConfig
	Worker     WorkerConfig
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
	RateLimitRPS    float64
	RateLimitBurst  int
}

// DatabaseConfig contains database configuration.
// Driver "memory" keeps everything in a process-local store.
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

// AuthConfig contains authentication configuration
type AuthConfig struct {
	JWTSecret     string
	TokenExpiry   time.Duration
	SessionExpiry time.Duration
}

// QuotaConfig tunes admission control
type QuotaConfig struct {
	// StrictAdmission folds the check and the commit into one atomic reservation.
	StrictAdmission bool
	// TTSComputeEstimate is the compute-seconds estimate checked before speech synthesis.
	TTSComputeEstimate int64
}

// BillingConfig contains billing provider configuration
type BillingConfig struct {
	StripeAPIKey   string
	WebhookSecret  string
	MonthlyPriceID string
	YearlyPriceID  string
	SuccessPath    string
	CancelPath     string
}

// GenerationConfig contains text generation provider configuration
type GenerationConfig struct {
	Provider      string // modal or openai
	BaseURL       string
	HealthURL     string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	Timeout       time.Duration
}

// TTSConfig contains speech synthesis configuration
type TTSConfig struct {
	Enabled         bool
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	DefaultVoice    string
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level      string
	Format     string // json or console
	OutputPath string
}

// WorkerConfig contains background worker configuration
type WorkerConfig struct {
	UsageSnapshotSchedule string
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists (ignore errors as it's optional)
	_ = godotenv.Load()

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnv("SERVER_HOST", "0.0.0.0"),
			Port:            getEnvAsInt("SERVER_PORT", 8787),
			ReadTimeout:     getEnvAsDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvAsDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvAsDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
			FrontendURL:     getEnv("FRONTEND_URL", "http://localhost:5173"),
			Environment:     getEnv("ENVIRONMENT", "development"),
			RateLimitRPS:    getEnvAsFloat("RATE_LIMIT_RPS", 20),
			RateLimitBurst:  getEnvAsInt("RATE_LIMIT_BURST", 40),
		},
		Database: DatabaseConfig{
			Driver:          getEnv("DB_DRIVER", "memory"),
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Name:            getEnv("DB_NAME", "parlour"),
			User:            getEnv("DB_USER", ""),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSLMODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute),
			Path:            getEnv("DB_PATH", "./parlour.db"),
		},
		Auth: AuthConfig{
			JWTSecret:     getEnv("JWT_SECRET", ""),
			TokenExpiry:   getEnvAsDuration("JWT_EXPIRY", 24*time.Hour),
			SessionExpiry: getEnvAsDuration("SESSION_EXPIRY", 24*time.Hour),
		},
		Quota: QuotaConfig{
			StrictAdmission:    getEnvAsBool("QUOTA_STRICT_ADMISSION", false),
			TTSComputeEstimate: int64(getEnvAsInt("QUOTA_TTS_COMPUTE_ESTIMATE", 5)),
		},
		Billing: BillingConfig{
			StripeAPIKey:   getEnv("STRIPE_SECRET_KEY", ""),
			WebhookSecret:  getEnv("STRIPE_WEBHOOK_SECRET", ""),
			MonthlyPriceID: getEnv("STRIPE_PRICE_MONTHLY", "price_monthly_parlour"),
			YearlyPriceID:  getEnv("STRIPE_PRICE_YEARLY", "price_yearly_parlour"),
			SuccessPath:    getEnv("CHECKOUT_SUCCESS_PATH", "/success?session_id={CHECKOUT_SESSION_ID}"),
			CancelPath:     getEnv("CHECKOUT_CANCEL_PATH", "/cancel"),
		},
		Generation: GenerationConfig{
			Provider:      getEnv("LLM_PROVIDER", "modal"),
			BaseURL:       getEnv("MODAL_BASE_URL", ""),
			HealthURL:     getEnv("MODAL_HEALTH_URL", ""),
			OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
			OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
			Timeout:       getEnvAsDuration("LLM_TIMEOUT", 45*time.Second),
		},
		TTS: TTSConfig{
			Enabled:         getEnvAsBool("TTS_ENABLED", true),
			Region:          getEnv("AWS_REGION", "us-east-1"),
			AccessKeyID:     getEnv("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey: getEnv("AWS_SECRET_ACCESS_KEY", ""),
			DefaultVoice:    getEnv("TTS_DEFAULT_VOICE", "Joanna"),
		},
		Logging: LoggingConfig{
			Level:      getEnv("LOG_LEVEL", "info"),
			Format:     getEnv("LOG_FORMAT", "json"),
			OutputPath: getEnv("LOG_OUTPUT", "stdout"),
		},
		Worker: WorkerConfig{
			UsageSnapshotSchedule: getEnv("USAGE_SNAPSHOT_SCHEDULE", "@every 5m"),
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

	if c.Auth.TokenExpiry <= 0 {
		return fmt.Errorf("JWT_EXPIRY must be positive")
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}

	switch c.Database.Driver {
	case "memory", "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", c.Database.Driver)
	}

	switch c.Generation.Provider {
	case "modal":
		if c.Generation.BaseURL == "" {
			return fmt.Errorf("MODAL_BASE_URL must be set when LLM_PROVIDER=modal")
		}
	case "openai":
		if c.Generation.OpenAIAPIKey == "" {
			return fmt.Errorf("OPENAI_API_KEY must be set when LLM_PROVIDER=openai")
		}
	default:
		return fmt.Errorf("unsupported LLM provider: %s", c.Generation.Provider)
	}

	if c.BillingEnabled() && c.Billing.WebhookSecret == "" {
		return fmt.Errorf("STRIPE_WEBHOOK_SECRET must be set when STRIPE_SECRET_KEY is set")
	}

	if c.Quota.TTSComputeEstimate < 0 {
		return fmt.Errorf("QUOTA_TTS_COMPUTE_ESTIMATE must not be negative")
	}

	return nil
}

// BillingEnabled reports whether a billing provider key is configured
func (c *Config) BillingEnabled() bool {
	return c.Billing.StripeAPIKey != ""
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
