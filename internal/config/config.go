package config

import (
	"errors"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Store drivers accepted by STORE_DRIVER.
const (
	StoreDriverFirestore = "firestore"
	StoreDriverMemory    = "memory"
)

// Config holds all configuration for the application.
type Config struct {
	Port                             string `mapstructure:"PORT"`
	GinMode                          string `mapstructure:"GIN_MODE"`
	LogFormat                        string `mapstructure:"LOG_FORMAT"` // "development" or "production"
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	ClientURL                        string `mapstructure:"CLIENT_URL"`
	StoreDriver                      string `mapstructure:"STORE_DRIVER"`
	AdminEmail                       string `mapstructure:"ADMIN_EMAIL"`

	RedisAddr     string `mapstructure:"REDIS_ADDR"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	RateLimitEnabled        bool          `mapstructure:"RATE_LIMIT_ENABLED"`
	RateLimitCapacity       int           `mapstructure:"RATE_LIMIT_CAPACITY"`
	RateLimitRefillTokens   int           `mapstructure:"RATE_LIMIT_REFILL_TOKENS"`
	RateLimitRefillInterval time.Duration `mapstructure:"RATE_LIMIT_REFILL_INTERVAL"`
	ReviewsCacheTTL         time.Duration `mapstructure:"REVIEWS_CACHE_TTL"`

	RabbitMQURL string `mapstructure:"RABBITMQ_URL"`
	EventsQueue string `mapstructure:"EVENTS_QUEUE"`

	SMTPHost string `mapstructure:"SMTP_HOST"`
	SMTPPort string `mapstructure:"SMTP_PORT"`
	SMTPUser string `mapstructure:"SMTP_USER"`
	SMTPPass string `mapstructure:"SMTP_PASS"`
	MailFrom string `mapstructure:"MAIL_FROM"`

	ExpirySweepInterval time.Duration `mapstructure:"EXPIRY_SWEEP_INTERVAL"`
}

var appConfig *Config

var envKeys = []string{
	"PORT", "GIN_MODE", "LOG_FORMAT",
	"FIREBASE_PROJECT_ID", "GOOGLE_APPLICATION_CREDENTIALS", "FIREBASE_SERVICE_ACCOUNT_JSON_BASE64",
	"CLIENT_URL", "STORE_DRIVER", "ADMIN_EMAIL",
	"REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
	"RATE_LIMIT_ENABLED", "RATE_LIMIT_CAPACITY", "RATE_LIMIT_REFILL_TOKENS", "RATE_LIMIT_REFILL_INTERVAL",
	"REVIEWS_CACHE_TTL",
	"RABBITMQ_URL", "EVENTS_QUEUE",
	"SMTP_HOST", "SMTP_PORT", "SMTP_USER", "SMTP_PASS", "MAIL_FROM",
	"EXPIRY_SWEEP_INTERVAL",
}

// LoadConfig loads configuration from environment variables using Viper.
// Outside release mode a local .env file is read first, if present.
func LoadConfig() (*Config, error) {
	if os.Getenv("GIN_MODE") != "release" {
		_ = godotenv.Load()
	}

	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("LOG_FORMAT", "development")
	viper.SetDefault("STORE_DRIVER", StoreDriverFirestore)
	viper.SetDefault("ADMIN_EMAIL", "admin@eatlens.com")
	viper.SetDefault("REDIS_DB", 0)
	viper.SetDefault("RATE_LIMIT_ENABLED", true)
	viper.SetDefault("RATE_LIMIT_CAPACITY", 30)
	viper.SetDefault("RATE_LIMIT_REFILL_TOKENS", 1)
	viper.SetDefault("RATE_LIMIT_REFILL_INTERVAL", "2s")
	viper.SetDefault("REVIEWS_CACHE_TTL", "5m")
	viper.SetDefault("EVENTS_QUEUE", "plan.events")
	viper.SetDefault("SMTP_PORT", "587")
	viper.SetDefault("MAIL_FROM", "EatLens <no-reply@eatlens.com>")
	viper.SetDefault("EXPIRY_SWEEP_INTERVAL", "1h")

	for _, key := range envKeys {
		_ = viper.BindEnv(key)
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	appConfig = &cfg
	return appConfig, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.FirebaseProjectID == "" {
		return errors.New("FIREBASE_PROJECT_ID is required")
	}
	switch c.StoreDriver {
	case StoreDriverFirestore, StoreDriverMemory:
	default:
		return errors.New("STORE_DRIVER must be 'firestore' or 'memory'")
	}
	if c.AdminEmail == "" {
		return errors.New("ADMIN_EMAIL is required")
	}
	if c.RateLimitEnabled && (c.RateLimitCapacity <= 0 || c.RateLimitRefillInterval <= 0) {
		return errors.New("RATE_LIMIT_CAPACITY and RATE_LIMIT_REFILL_INTERVAL must be positive when rate limiting is enabled")
	}
	if c.ExpirySweepInterval <= 0 {
		return errors.New("EXPIRY_SWEEP_INTERVAL must be positive")
	}
	return nil
}

// MailEnabled reports whether SMTP delivery is configured.
func (c *Config) MailEnabled() bool {
	return c.SMTPHost != "" && c.SMTPUser != "" && c.SMTPPass != ""
}

// GetConfig returns the loaded application configuration.
// It will panic if LoadConfig has not been called successfully.
func GetConfig() *Config {
	if appConfig == nil {
		panic("config not loaded; call LoadConfig first")
	}
	return appConfig
}
