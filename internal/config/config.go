package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	HTTPPort           string
	RequestTimeout     time.Duration
	ShutdownTimeout    time.Duration
	MaxWebhookBodySize int64

	DBHost         string
	DBPort         int
	DBUser         string
	DBPassword     string
	DBName         string
	MigrationsPath string

	CatalogDBPath         string
	CatalogMigrationsPath string
	RedisAddr             string
	CatalogCacheTTL       time.Duration

	KafkaBrokers        []string
	OutboxTopic         string
	OutboxPollInterval  time.Duration
	RecoveryInterval    time.Duration
	StuckBookingTimeout time.Duration

	StripeSecretKey     string
	StripeWebhookSecret string
	StripeTimeout       time.Duration
	Currency            string
	PublicBaseURL       string

	AuthJWTSecret     string
	AuthSessionCookie string

	LogLevel string
	LogFile  string
}

// Load reads an optional .env file and then the process environment.
func Load(envFiles ...string) (*Config, error) {
	if len(envFiles) == 0 {
		envFiles = []string{".env"}
	}
	for _, f := range envFiles {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", f, err)
		}
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	cfg := &Config{
		HTTPPort:           getEnv("HTTP_PORT", "8080"),
		RequestTimeout:     getDuration("REQUEST_TIMEOUT", 30*time.Second),
		ShutdownTimeout:    getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
		MaxWebhookBodySize: 65536,

		DBHost:         getEnv("DB_HOST", "localhost"),
		DBPort:         dbPort,
		DBUser:         getEnv("DB_USER", "postgres"),
		DBPassword:     getEnv("DB_PASSWORD", "postgres"),
		DBName:         getEnv("DB_NAME", "hotel"),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./internal/repository/migrations"),

		CatalogDBPath:         getEnv("CATALOG_DB_PATH", "./catalog.db"),
		CatalogMigrationsPath: getEnv("CATALOG_MIGRATIONS_PATH", "./internal/catalog/migrations"),
		RedisAddr:             getEnv("REDIS_ADDR", "localhost:6379"),
		CatalogCacheTTL:       getDuration("CATALOG_CACHE_TTL", 15*time.Minute),

		KafkaBrokers:        strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
		OutboxTopic:         getEnv("OUTBOX_TOPIC", "booking-outbox"),
		OutboxPollInterval:  getDuration("OUTBOX_POLL_INTERVAL", time.Second),
		RecoveryInterval:    getDuration("RECOVERY_INTERVAL", 30*time.Second),
		StuckBookingTimeout: getDuration("STUCK_BOOKING_TIMEOUT", 2*time.Minute),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		StripeTimeout:       getDuration("STRIPE_TIMEOUT", 10*time.Second),
		Currency:            getEnv("CHECKOUT_CURRENCY", "usd"),
		PublicBaseURL:       getEnv("PUBLIC_BASE_URL", "http://localhost:3000"),

		AuthJWTSecret:     os.Getenv("AUTH_JWT_SECRET"),
		AuthSessionCookie: getEnv("AUTH_SESSION_COOKIE", "session_token"),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  os.Getenv("LOG_FILE"),
	}
	return cfg, nil
}

// Validate checks the settings the serve command cannot run without.
func (c *Config) Validate() error {
	var missing []string
	if c.StripeSecretKey == "" {
		missing = append(missing, "STRIPE_SECRET_KEY")
	}
	if c.StripeWebhookSecret == "" {
		missing = append(missing, "STRIPE_WEBHOOK_SECRET")
	}
	if c.AuthJWTSecret == "" {
		missing = append(missing, "AUTH_JWT_SECRET")
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %s", strings.Join(missing, ", "))
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	d, err := time.ParseDuration(getEnv(key, ""))
	if err != nil {
		return defaultValue
	}
	return d
}
