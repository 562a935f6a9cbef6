package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StorageDriverPostgres = "postgres"
	StorageDriverMemory   = "memory"

	devJWTSecret = "dev-secret-change-me"
)

// Config holds the application configuration
type Config struct {
	Environment string
	ServerPort  int
	LogLevel    string

	StorageDriver   string
	DatabaseURL     string
	DBHost          string
	DBPort          int
	DBUser          string
	DBPassword      string
	DBName          string
	DBSSLMode       string
	DBMaxOpenConns  int
	DBMaxIdleConns  int
	RedisURL        string
	HouseCacheTTL   time.Duration
	JWTSecret       string
	JWTTTL          time.Duration
	RateLimitRPS    float64
	RateLimitBurst  int
	DefaultPageSize int
	MaxPageSize     int

	CORSAllowedOrigins []string

	// OTLPEndpoint enables trace export when set (host:port of an OTLP/HTTP collector)
	OTLPEndpoint string

	// cron expressions (robfig/cron, seconds optional)
	ReminderDispatchSchedule string
	OverdueSweepSchedule     string
}

// IsProduction reports whether the service runs in production
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

// Load reads configuration from environment variables. A .env file in the
// working directory is loaded first when present; real env vars win.
func Load() (*Config, error) {
	_ = godotenv.Load()

	port, err := strconv.Atoi(getEnv("SERVER_PORT", "8080"))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_PORT: %w", err)
	}

	dbPort, err := strconv.Atoi(getEnv("DB_PORT", "5432"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_PORT: %w", err)
	}

	maxOpen, err := strconv.Atoi(getEnv("DB_MAX_OPEN_CONNS", "25"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_OPEN_CONNS: %w", err)
	}

	maxIdle, err := strconv.Atoi(getEnv("DB_MAX_IDLE_CONNS", "5"))
	if err != nil {
		return nil, fmt.Errorf("invalid DB_MAX_IDLE_CONNS: %w", err)
	}

	cacheTTL, err := strconv.Atoi(getEnv("HOUSE_CACHE_TTL_SECONDS", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid HOUSE_CACHE_TTL_SECONDS: %w", err)
	}

	jwtTTL, err := strconv.Atoi(getEnv("JWT_TTL_MINUTES", "60"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_TTL_MINUTES: %w", err)
	}

	rps, err := strconv.ParseFloat(getEnv("RATE_LIMIT_RPS", "10"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_RPS: %w", err)
	}

	burst, err := strconv.Atoi(getEnv("RATE_LIMIT_BURST", "20"))
	if err != nil {
		return nil, fmt.Errorf("invalid RATE_LIMIT_BURST: %w", err)
	}

	defaultPage, err := strconv.Atoi(getEnv("DEFAULT_PAGE_LIMIT", "10"))
	if err != nil {
		return nil, fmt.Errorf("invalid DEFAULT_PAGE_LIMIT: %w", err)
	}

	maxPage, err := strconv.Atoi(getEnv("MAX_PAGE_LIMIT", "100"))
	if err != nil {
		return nil, fmt.Errorf("invalid MAX_PAGE_LIMIT: %w", err)
	}

	cfg := &Config{
		Environment:     getEnv("ENVIRONMENT", "development"),
		ServerPort:      port,
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		StorageDriver:   strings.ToLower(getEnv("STORAGE_DRIVER", StorageDriverPostgres)),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		DBHost:          getEnv("DB_HOST", "localhost"),
		DBPort:          dbPort,
		DBUser:          getEnv("DB_USER", "rentdesk"),
		DBPassword:      getEnv("DB_PASSWORD", "dev"),
		DBName:          getEnv("DB_NAME", "rentdesk"),
		DBSSLMode:       getEnv("DB_SSLMODE", "disable"),
		DBMaxOpenConns:  maxOpen,
		DBMaxIdleConns:  maxIdle,
		RedisURL:        os.Getenv("REDIS_URL"),
		HouseCacheTTL:   time.Duration(cacheTTL) * time.Second,
		JWTSecret:       getEnv("JWT_SECRET", devJWTSecret),
		JWTTTL:          time.Duration(jwtTTL) * time.Minute,
		RateLimitRPS:    rps,
		RateLimitBurst:  burst,
		DefaultPageSize: defaultPage,
		MaxPageSize:     maxPage,
		CORSAllowedOrigins: parseCSVEnv("CORS_ALLOWED_ORIGINS", []string{
			"http://localhost:5173",
			"http://localhost:3000",
		}),
		OTLPEndpoint:             os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"),
		ReminderDispatchSchedule: getEnv("REMINDER_DISPATCH_SCHEDULE", "@every 1m"),
		OverdueSweepSchedule:     getEnv("OVERDUE_SWEEP_SCHEDULE", "@hourly"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.StorageDriver {
	case StorageDriverPostgres, StorageDriverMemory:
	default:
		return fmt.Errorf("invalid STORAGE_DRIVER %q: want postgres or memory", c.StorageDriver)
	}
	if c.IsProduction() && c.JWTSecret == devJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}
	if c.JWTTTL <= 0 {
		return fmt.Errorf("JWT_TTL_MINUTES must be positive")
	}
	if c.DefaultPageSize < 1 || c.MaxPageSize < c.DefaultPageSize || c.MaxPageSize > 100 {
		return fmt.Errorf("page limits must satisfy 1 <= DEFAULT_PAGE_LIMIT <= MAX_PAGE_LIMIT <= 100")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst < 1 {
		return fmt.Errorf("rate limit must be positive")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func parseCSVEnv(key string, defaultValue []string) []string {
	if value := os.Getenv(key); value != "" {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			trimmed := strings.TrimSpace(p)
			if trimmed != "" {
				out = append(out, trimmed)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return defaultValue
}
