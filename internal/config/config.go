package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"

	ExtractionSync  = "sync"
	ExtractionAsync = "async"
)

type Config struct {
	// Server
	AppHost     string
	AppPort     string
	Debug       bool
	GinMode     string
	CORSOrigins []string
	MaxBodySize int64

	// Keyword store
	StoreDriver string
	MongoURI    string
	DatabaseURL string
	DBUser      string
	DBPassword  string
	DBHost      string
	DBPort      int
	DBName      string

	// Gemini
	GeminiAPIKey  string
	GeminiModel   string
	GeminiTier    string
	GeminiTimeout int // seconds

	// Redis (rate limiting + asynq broker)
	RedisURL        string
	RedisPassword   string
	RedisDB         int
	RateLimitReqs   int
	RateLimitWindow int

	// Extraction pipeline
	ExtractionMode      string
	WorkerConcurrency   int
	KeywordIDMaxRetries int

	// Telemetry
	OTelEnabled        bool
	OTelEndpoint       string
	OTelSampleRatio    float64
	StoreProbeInterval int // seconds
}

// LoadConfig reads and validates the configuration for the API server and
// the worker.
func LoadConfig() (*Config, error) {
	cfg, err := Load()
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Load reads the configuration without validating it. Tools that never call
// Gemini (migrations) use it directly.
func Load() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		AppHost:     getEnv("APP_HOST", "0.0.0.0"),
		AppPort:     getEnv("APP_PORT", "8000"),
		Debug:       getEnvBool("DEBUG", false),
		GinMode:     getEnv("GIN_MODE", "release"),
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:3000")),
		MaxBodySize: getEnvInt64("MAX_BODY_SIZE", 1<<20), // 1MB of transcript text is plenty

		StoreDriver: strings.ToLower(getEnv("STORE_DRIVER", StoreMongo)),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017/?replicaSet=rs0"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		DBUser:      getEnv("DB_USER", "gamo"),
		DBPassword:  getEnv("DB_PASSWORD", ""),
		DBHost:      getEnv("DB_HOST", "localhost"),
		DBPort:      getEnvInt("DB_PORT", 5432),
		DBName:      getEnv("DB_NAME", "gamo"),

		GeminiAPIKey:  getEnv("GEMINI_API_KEY", ""),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GeminiTier:    getEnv("GEMINI_TIER", "free"),
		GeminiTimeout: getEnvInt("GEMINI_TIMEOUT", 30),

		RedisURL:        getEnv("REDIS_URL", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisDB:         getEnvInt("REDIS_DB", 0),
		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 60),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		ExtractionMode:      strings.ToLower(getEnv("EXTRACTION_MODE", ExtractionSync)),
		WorkerConcurrency:   getEnvInt("WORKER_CONCURRENCY", 10),
		KeywordIDMaxRetries: getEnvInt("KEYWORD_ID_MAX_RETRIES", 5),

		OTelEnabled:        getEnvBool("OTEL_ENABLED", false),
		OTelEndpoint:       getEnv("OTEL_EXPORTER_ENDPOINT", "localhost:4317"),
		OTelSampleRatio:    getEnvFloat64("OTEL_SAMPLE_RATIO", 0.1),
		StoreProbeInterval: getEnvInt("STORE_PROBE_INTERVAL", 30),
	}

	if cfg.Debug {
		cfg.GinMode = "debug"
	}

	return cfg, nil
}

// Validate checks the combinations that would otherwise fail late at runtime.
func (c *Config) Validate() error {
	switch c.StoreDriver {
	case StoreMongo, StorePostgres, StoreMemory:
	default:
		return fmt.Errorf("STORE_DRIVER must be one of mongo, postgres, memory (got %q)", c.StoreDriver)
	}

	switch c.ExtractionMode {
	case ExtractionSync:
	case ExtractionAsync:
		if c.RedisURL == "" {
			return fmt.Errorf("REDIS_URL is required when EXTRACTION_MODE=async")
		}
	default:
		return fmt.Errorf("EXTRACTION_MODE must be sync or async (got %q)", c.ExtractionMode)
	}

	if c.GeminiAPIKey == "" {
		return fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	switch c.GinMode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("GIN_MODE must be debug, release or test (got %q)", c.GinMode)
	}

	if c.KeywordIDMaxRetries < 1 {
		return fmt.Errorf("KEYWORD_ID_MAX_RETRIES must be at least 1")
	}

	if c.GeminiTimeout < 1 {
		return fmt.Errorf("GEMINI_TIMEOUT must be a positive number of seconds (got %d)", c.GeminiTimeout)
	}

	if c.StoreProbeInterval < 1 {
		return fmt.Errorf("STORE_PROBE_INTERVAL must be a positive number of seconds (got %d)", c.StoreProbeInterval)
	}

	return nil
}

// Addr is the listen address of the HTTP server.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.AppHost, c.AppPort)
}

// PostgresURL returns DATABASE_URL, or builds one from the DB_* settings.
func (c *Config) PostgresURL() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DBUser, c.DBPassword),
		Host:     net.JoinHostPort(c.DBHost, strconv.Itoa(c.DBPort)),
		Path:     "/" + c.DBName,
		RawQuery: "sslmode=disable",
	}
	return u.String()
}

func (c *Config) GeminiCallTimeout() time.Duration {
	return time.Duration(c.GeminiTimeout) * time.Second
}

func (c *Config) ProbeInterval() time.Duration {
	return time.Duration(c.StoreProbeInterval) * time.Second
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.ParseInt(value, 10, 64); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
