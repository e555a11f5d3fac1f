package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

type Config struct {
	Port    int
	BaseURL string

	Environment string
	LogLevel    string

	DatabaseURL string
	RedisURL    string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
	MinIORegion    string

	// Convert service configuration
	ConvertAPIURL         string
	ConvertAPIKey         string
	ConvertCallbackSecret string
	SignedURLTTL          time.Duration

	// Sweep configuration
	SweepPerTenantCap int
	SweepGlobalCap    int
	SweepLookBack     time.Duration
	SweepPacing       time.Duration
	RetentionWindow   time.Duration

	WorkerConcurrency int
	JobTimeout        time.Duration

	TracingEnabled  bool
	OTLPEndpoint    string
	TraceSampleRate float64
}

func Load() (*Config, error) {
	cfg := &Config{}
	var err error

	cfg.Port = getEnvInt("PORT", 8080)
	cfg.BaseURL = getEnvString("BASE_URL", "http://localhost:8080")

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	cfg.RedisURL = os.Getenv("REDIS_URL")
	if cfg.RedisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required")
	}

	cfg.MinIOEndpoint = os.Getenv("MINIO_ENDPOINT")
	if cfg.MinIOEndpoint == "" {
		return nil, fmt.Errorf("MINIO_ENDPOINT is required")
	}

	cfg.MinIOAccessKey = os.Getenv("MINIO_ACCESS_KEY")
	if cfg.MinIOAccessKey == "" {
		return nil, fmt.Errorf("MINIO_ACCESS_KEY is required")
	}

	cfg.MinIOSecretKey = os.Getenv("MINIO_SECRET_KEY")
	if cfg.MinIOSecretKey == "" {
		return nil, fmt.Errorf("MINIO_SECRET_KEY is required")
	}

	cfg.MinIOBucket = getEnvString("MINIO_BUCKET", "slides")
	cfg.MinIOUseSSL = getEnvBool("MINIO_USE_SSL", false)
	cfg.MinIORegion = getEnvString("MINIO_REGION", "us-east-1")

	cfg.ConvertAPIURL = os.Getenv("CONVERT_API_URL")
	if cfg.ConvertAPIURL == "" {
		return nil, fmt.Errorf("CONVERT_API_URL is required")
	}

	cfg.ConvertAPIKey = os.Getenv("CONVERT_API_KEY")
	if cfg.ConvertAPIKey == "" {
		return nil, fmt.Errorf("CONVERT_API_KEY is required")
	}

	cfg.ConvertCallbackSecret = os.Getenv("CONVERT_CALLBACK_SECRET")
	if cfg.ConvertCallbackSecret == "" {
		return nil, fmt.Errorf("CONVERT_CALLBACK_SECRET is required")
	}

	cfg.SignedURLTTL, err = getEnvDuration("SIGNED_URL_TTL", "1h")
	if err != nil {
		return nil, fmt.Errorf("invalid SIGNED_URL_TTL: %w", err)
	}

	cfg.SweepPerTenantCap = getEnvInt("SWEEP_PER_TENANT_CAP", 10)
	cfg.SweepGlobalCap = getEnvInt("SWEEP_GLOBAL_CAP", 50)
	cfg.SweepLookBack, err = getEnvDuration("SWEEP_LOOKBACK", "720h")
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_LOOKBACK: %w", err)
	}
	cfg.SweepPacing, err = getEnvDuration("SWEEP_PACING", "2s")
	if err != nil {
		return nil, fmt.Errorf("invalid SWEEP_PACING: %w", err)
	}
	cfg.RetentionWindow, err = getEnvDuration("RETENTION_WINDOW", "48h")
	if err != nil {
		return nil, fmt.Errorf("invalid RETENTION_WINDOW: %w", err)
	}

	cfg.WorkerConcurrency = getEnvInt("WORKER_CONCURRENCY", 2)
	cfg.JobTimeout, err = getEnvDuration("JOB_TIMEOUT", "30m")
	if err != nil {
		return nil, fmt.Errorf("invalid JOB_TIMEOUT: %w", err)
	}

	cfg.Environment = getEnvString("ENVIRONMENT", "development")
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")

	cfg.TracingEnabled = getEnvBool("TRACING_ENABLED", false)
	cfg.OTLPEndpoint = getEnvString("OTLP_ENDPOINT", "localhost:4317")
	cfg.TraceSampleRate = getEnvFloat("TRACE_SAMPLE_RATE", 0.1)

	return cfg, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvDuration(key, defaultValue string) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		value = defaultValue
	}
	return time.ParseDuration(value)
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port: %d", c.Port)
	}

	if c.SweepPerTenantCap < 1 {
		return fmt.Errorf("invalid sweep per-tenant cap: %d", c.SweepPerTenantCap)
	}

	if c.SweepGlobalCap < c.SweepPerTenantCap {
		return fmt.Errorf("sweep global cap %d must be >= per-tenant cap %d", c.SweepGlobalCap, c.SweepPerTenantCap)
	}

	if c.WorkerConcurrency < 1 {
		return fmt.Errorf("invalid worker concurrency: %d", c.WorkerConcurrency)
	}

	return nil
}
