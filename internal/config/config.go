package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultJWTSecret = "your-secret-key-change-in-production"

	StorageMemory   = "memory"
	StoragePostgres = "postgres"
)

// Config holds the whole application configuration, populated from the
// environment
type Config struct {
	App      AppConfig
	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	Kafka    KafkaConfig
	Checkout CheckoutConfig
	Payment  PaymentConfig
	Job      JobConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
	LogLevel    string
	MetricsPort string // worker only
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
	MaxConns int
	MinConns int
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type KafkaConfig struct {
	Brokers string // comma separated, empty disables the relay
	Topic   string
}

// =====================================================
// CHECKOUT CONFIGURATION
// =====================================================

type CheckoutConfig struct {
	SessionTTL       time.Duration
	Currency         string
	StorageDriver    string // postgres or memory
	RunMigrations    bool
	ResolverCacheTTL time.Duration // review page only
	// PublishVia selects the post-commit publisher: asynq, kafka or both
	PublishVia string
}

type PaymentConfig struct {
	Providers   []string
	RedirectURL string
}

// JobConfig drives the worker schedule
type JobConfig struct {
	ExpireSweepCron string
	ExpireBatchSize int
	Concurrency     int
}

// Load reads the config from environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Checkout API"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
			MetricsPort: getEnv("WORKER_METRICS_PORT", "9999"),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			Database: getEnv("DB_NAME", "checkout"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
			MaxConns: getEnvInt("DB_MAX_CONNS", 25),
			MinConns: getEnvInt("DB_MIN_CONNS", 5),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", defaultJWTSecret),
		},
		Kafka: KafkaConfig{
			Brokers: getEnv("KAFKA_BROKERS", ""),
			Topic:   getEnv("KAFKA_CHECKOUT_TOPIC", "checkout-events"),
		},
		Checkout: CheckoutConfig{
			SessionTTL:       getEnvDuration("CHECKOUT_SESSION_TTL", 30*time.Minute),
			Currency:         strings.ToUpper(getEnv("CHECKOUT_CURRENCY", "EUR")),
			StorageDriver:    strings.ToLower(getEnv("CHECKOUT_STORAGE", StoragePostgres)),
			RunMigrations:    getEnvBool("CHECKOUT_RUN_MIGRATIONS", true),
			ResolverCacheTTL: getEnvDuration("CHECKOUT_RESOLVER_CACHE_TTL", 5*time.Second),
			PublishVia:       strings.ToLower(getEnv("CHECKOUT_PUBLISH_VIA", "asynq")),
		},
		Payment: PaymentConfig{
			Providers:   getEnvList("PAYMENT_PROVIDERS", []string{"mock_card", "mock_wallet", "cod"}),
			RedirectURL: getEnv("PAYMENT_REDIRECT_URL", "http://localhost:3000/payment"),
		},
		Job: JobConfig{
			ExpireSweepCron: getEnv("JOB_EXPIRE_SWEEP_CRON", "*/5 * * * *"),
			ExpireBatchSize: getEnvInt("JOB_EXPIRE_BATCH_SIZE", 200),
			Concurrency:     getEnvInt("WORKER_CONCURRENCY", 10),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate rejects configs the binaries cannot run with
func (c *Config) Validate() error {
	var errs []error

	switch c.Checkout.StorageDriver {
	case StoragePostgres, StorageMemory:
	default:
		errs = append(errs, fmt.Errorf("CHECKOUT_STORAGE must be %q or %q, got %q",
			StoragePostgres, StorageMemory, c.Checkout.StorageDriver))
	}
	switch c.Checkout.PublishVia {
	case "asynq", "kafka", "both":
	default:
		errs = append(errs, fmt.Errorf("CHECKOUT_PUBLISH_VIA must be asynq, kafka or both, got %q", c.Checkout.PublishVia))
	}
	if c.Checkout.PublishVia != "asynq" && c.Kafka.Brokers == "" {
		errs = append(errs, fmt.Errorf("KAFKA_BROKERS must be set when publishing via %s", c.Checkout.PublishVia))
	}
	if c.Checkout.SessionTTL <= 0 {
		errs = append(errs, errors.New("CHECKOUT_SESSION_TTL must be positive"))
	}
	if len(c.Checkout.Currency) != 3 {
		errs = append(errs, fmt.Errorf("CHECKOUT_CURRENCY must be an ISO 4217 code, got %q", c.Checkout.Currency))
	}
	if len(c.Payment.Providers) == 0 {
		errs = append(errs, errors.New("PAYMENT_PROVIDERS must list at least one provider"))
	}

	if c.App.Environment == "production" {
		if c.JWT.Secret == defaultJWTSecret {
			errs = append(errs, errors.New("JWT_SECRET must be set in production"))
		}
		if c.Checkout.StorageDriver == StoragePostgres && c.Database.Password == "" {
			errs = append(errs, errors.New("DB_PASSWORD must be set in production"))
		}
		if c.Checkout.StorageDriver == StorageMemory {
			errs = append(errs, errors.New("memory storage is not allowed in production"))
		}
	}

	return errors.Join(errs...)
}

// IsDevelopment reports whether the app runs in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
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

func getEnvBool(key string, defaultValue bool) bool {
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

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
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

func getEnvList(key string, defaultValue []string) []string {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	var out []string
	for _, part := range strings.Split(valueStr, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
