// Package config provides configuration management for the course matcher.
// It loads configuration from environment variables with sensible defaults
// and validates it so the application starts safely.
//
// Environment Variables:
//
// Application Settings:
//   - PORT: Server port (default: 8000)
//   - LOG_LEVEL: Logging level (default: INFO)
//   - LOG_FILE: Rotating log file path (default: app.log)
//   - LOG_MAX_BYTES: Size at which the log file rotates (default: 5242880)
//   - LOG_BACKUP_COUNT: Number of rotated files kept (default: 5)
//
// Cache Store:
//   - CACHE_BACKEND: "redis" or "memory" (default: redis)
//   - REDIS_HOST / REDIS_PORT: Redis location (default: localhost:6379)
//   - REDIS_ADDRESS: host:port, overrides REDIS_HOST and REDIS_PORT
//   - REDIS_DB: Redis database number 0-15 (default: 0)
//   - REDIS_PASSWORD: Redis password
//   - REDIS_POOL_SIZE: Redis connection pool size (default: 10)
//   - CACHE_KEY_PREFIX: Prefix prepended to page cache keys (default: none)
//
// Comparison Oracle:
//   - OPENAI_API_KEY, OPENAI_BASE_URL, OPENAI_MODEL (default: gpt-4o-mini)
//   - AZURE_OPENAI_KEY, AZURE_OPENAI_ENDPOINT, AZURE_OPENAI_API_VERSION
//   - ORACLE_RPS: Outbound oracle calls per second, 0 disables pacing (default: 0)
//   - ORACLE_BREAKER_ENABLED: Guard the oracle with a circuit breaker (default: true)
//   - ORACLE_ESTIMATE_TOKENS: Log a prompt token estimate at debug level (default: false)
//
// Renderer:
//   - BROWSER_EXEC_PATH: Chrome/Chromium binary (default: auto-detect)
//   - BROWSER_MAX_SESSIONS: Concurrent tabs (default: 8)
//   - BROWSER_NO_SANDBOX: Disable the Chrome sandbox, needed in some containers
//   - CONTENT_FORMAT: html, text or markdown (default: html)
//
// Rate Limiting:
//   - RATE_LIMIT_ENABLED: Enable rate limiting (default: true)
//
// Match Records:
//   - DATABASE_TYPE: sqlite, postgres or none (default: sqlite)
//   - DATABASE_PATH: SQLite database file (default: ./course_matches.db)
//   - DATABASE_URL: PostgreSQL connection string
//
// Events:
//   - PUBLISH_EVENTS: Publish comparison events on Redis pub/sub (default: false)
package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
)

// Config holds all configuration values for the course matcher.
type Config struct {
	// Application settings
	Port           string
	LogLevel       string
	LogFile        string
	LogMaxBytes    int64
	LogBackupCount int

	// Cache store
	CacheBackend   string
	RedisAddress   string
	RedisPassword  string
	RedisDB        int
	RedisPoolSize  int
	CacheKeyPrefix string

	// Comparison oracle
	OpenAIAPIKey          string
	OpenAIBaseURL         string
	OpenAIModel           string
	AzureOpenAIKey        string
	AzureOpenAIEndpoint   string
	AzureOpenAIAPIVersion string
	OracleRPS             float64
	OracleBreakerEnabled  bool
	OracleEstimateTokens  bool

	// Renderer
	BrowserExecPath    string
	BrowserMaxSessions int
	BrowserNoSandbox   bool
	ContentFormat      string

	// Rate limiting
	RateLimitEnabled bool

	// Match records
	DatabaseType string
	DatabasePath string
	DatabaseURL  string

	// Events
	PublishEvents bool
}

// Load creates a new Config with values loaded from environment variables.
// Call Validate on the result before use.
func Load() *Config {
	redisAddress := getEnv("REDIS_ADDRESS", "")
	if redisAddress == "" {
		redisAddress = net.JoinHostPort(getEnv("REDIS_HOST", "localhost"), getEnv("REDIS_PORT", "6379"))
	}

	return &Config{
		Port:           getEnv("PORT", "8000"),
		LogLevel:       getEnv("LOG_LEVEL", "INFO"),
		LogFile:        getEnv("LOG_FILE", "app.log"),
		LogMaxBytes:    getInt64Env("LOG_MAX_BYTES", 5*1024*1024),
		LogBackupCount: getIntEnv("LOG_BACKUP_COUNT", 5),

		CacheBackend:   strings.ToLower(getEnv("CACHE_BACKEND", "redis")),
		RedisAddress:   redisAddress,
		RedisPassword:  getEnv("REDIS_PASSWORD", ""),
		RedisDB:        getIntEnv("REDIS_DB", 0),
		RedisPoolSize:  getIntEnv("REDIS_POOL_SIZE", 10),
		CacheKeyPrefix: getEnv("CACHE_KEY_PREFIX", ""),

		OpenAIAPIKey:          getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL:         getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:           getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		AzureOpenAIKey:        getEnv("AZURE_OPENAI_KEY", ""),
		AzureOpenAIEndpoint:   getEnv("AZURE_OPENAI_ENDPOINT", ""),
		AzureOpenAIAPIVersion: getEnv("AZURE_OPENAI_API_VERSION", "2024-06-01"),
		OracleRPS:             getFloatEnv("ORACLE_RPS", 0),
		OracleBreakerEnabled:  getBoolEnv("ORACLE_BREAKER_ENABLED", true),
		OracleEstimateTokens:  getBoolEnv("ORACLE_ESTIMATE_TOKENS", false),

		BrowserExecPath:    getEnv("BROWSER_EXEC_PATH", ""),
		BrowserMaxSessions: getIntEnv("BROWSER_MAX_SESSIONS", 8),
		BrowserNoSandbox:   getBoolEnv("BROWSER_NO_SANDBOX", false),
		ContentFormat:      strings.ToLower(getEnv("CONTENT_FORMAT", "html")),

		RateLimitEnabled: getBoolEnv("RATE_LIMIT_ENABLED", true),

		DatabaseType: strings.ToLower(getEnv("DATABASE_TYPE", "sqlite")),
		DatabasePath: getEnv("DATABASE_PATH", "./course_matches.db"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		PublishEvents: getBoolEnv("PUBLISH_EVENTS", false),
	}
}

// UsesRedis reports whether the cache store and rate limiter are backed by Redis
func (c *Config) UsesRedis() bool {
	return c.CacheBackend == "redis"
}

// UsesAzure reports whether the oracle is reached through an Azure OpenAI deployment
func (c *Config) UsesAzure() bool {
	return c.AzureOpenAIEndpoint != ""
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if port, err := strconv.Atoi(c.Port); err != nil || port < 1 || port > 65535 {
		return fmt.Errorf("PORT must be a valid port number between 1 and 65535")
	}

	switch c.CacheBackend {
	case "redis":
		if c.RedisAddress == "" {
			return fmt.Errorf("REDIS_ADDRESS or REDIS_HOST is required when CACHE_BACKEND is redis")
		}
		if c.RedisDB < 0 || c.RedisDB > 15 {
			return fmt.Errorf("REDIS_DB must be a number between 0 and 15")
		}
		if c.RedisPoolSize < 1 {
			return fmt.Errorf("REDIS_POOL_SIZE must be a positive number")
		}
	case "memory":
	default:
		return fmt.Errorf("CACHE_BACKEND must be 'redis' or 'memory'")
	}

	if c.UsesAzure() {
		if c.AzureOpenAIKey == "" {
			return fmt.Errorf("AZURE_OPENAI_KEY is required when AZURE_OPENAI_ENDPOINT is set")
		}
	} else if c.OpenAIAPIKey == "" {
		return fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	if c.OracleRPS < 0 {
		return fmt.Errorf("ORACLE_RPS must not be negative")
	}

	if c.BrowserMaxSessions < 1 {
		return fmt.Errorf("BROWSER_MAX_SESSIONS must be a positive number")
	}

	switch c.ContentFormat {
	case "html", "text", "markdown":
	default:
		return fmt.Errorf("CONTENT_FORMAT must be 'html', 'text' or 'markdown'")
	}

	switch c.DatabaseType {
	case "sqlite":
		if c.DatabasePath == "" {
			return fmt.Errorf("DATABASE_PATH is required when using SQLite")
		}
	case "postgres", "postgresql":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when using PostgreSQL")
		}
	case "none":
	default:
		return fmt.Errorf("DATABASE_TYPE must be 'sqlite', 'postgres' or 'none'")
	}

	if c.PublishEvents && !c.UsesRedis() {
		return fmt.Errorf("PUBLISH_EVENTS requires CACHE_BACKEND=redis")
	}

	if c.LogFile == "" {
		return fmt.Errorf("LOG_FILE must not be empty")
	}
	if c.LogBackupCount < 0 {
		return fmt.Errorf("LOG_BACKUP_COUNT must not be negative")
	}

	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getBoolEnv accepts the representations understood by strconv.ParseBool;
// anything else yields the default.
func getBoolEnv(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getInt64Env(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
