// Package config loads service configuration from the environment and
// validates it before wiring.
package config

import (
	"os"
	"strconv"
	"time"
)

// Config is the full service configuration.
type Config struct {
	// Provider selects the generation backend: openai, claude, or gemini.
	Provider string
	APIKey   string
	BaseURL  string
	Model    string

	// EmbedModel and EmbedDimension configure the OpenAI embedder used by
	// the retrieval pipeline regardless of the generation provider.
	EmbedModel     string
	EmbedDimension int

	// SQLDriver is sqlite3 or postgres; SQLDSN is the driver DSN.
	SQLDriver string
	SQLDSN    string

	// VectorBackend is memory or pgvector.
	VectorBackend string
	PGVectorDSN   string

	// MongoURI enables the classification diagnostic sink when set.
	MongoURI string

	// RedisAddr enables the response cache when set.
	RedisAddr string
	CacheTTL  time.Duration

	HTTPPort   int
	MCPEnabled bool
}

// Load reads configuration from RAGALYTICS_* environment variables with
// defaults suitable for local development.
func Load() *Config {
	return &Config{
		Provider:       getEnv("RAGALYTICS_PROVIDER", "openai"),
		APIKey:         getEnv("RAGALYTICS_API_KEY", os.Getenv("OPENAI_API_KEY")),
		BaseURL:        getEnv("RAGALYTICS_BASE_URL", ""),
		Model:          getEnv("RAGALYTICS_MODEL", "gpt-4o-mini"),
		EmbedModel:     getEnv("RAGALYTICS_EMBED_MODEL", "text-embedding-3-small"),
		EmbedDimension: getEnvInt("RAGALYTICS_EMBED_DIMENSION", 1536),
		SQLDriver:      getEnv("RAGALYTICS_SQL_DRIVER", "sqlite3"),
		SQLDSN:         getEnv("RAGALYTICS_SQL_DSN", "file:ragalytics.db?cache=shared"),
		VectorBackend:  getEnv("RAGALYTICS_VECTOR_BACKEND", "memory"),
		PGVectorDSN:    getEnv("RAGALYTICS_PGVECTOR_DSN", ""),
		MongoURI:       getEnv("RAGALYTICS_MONGO_URI", ""),
		RedisAddr:      getEnv("RAGALYTICS_REDIS_ADDR", ""),
		CacheTTL:       getEnvDuration("RAGALYTICS_CACHE_TTL", 10*time.Minute),
		HTTPPort:       getEnvInt("RAGALYTICS_HTTP_PORT", 8080),
		MCPEnabled:     getEnvBool("RAGALYTICS_MCP_ENABLED", false),
	}
}

// Validate checks the configuration for wiring mistakes.
func (c *Config) Validate() error {
	return NewValidator().
		RequireNonEmpty("api_key", c.APIKey).
		RequireNonEmpty("model", c.Model).
		ValidateOneOf("provider", c.Provider, "openai", "claude", "gemini").
		ValidateOneOf("sql_driver", c.SQLDriver, "sqlite3", "postgres").
		ValidateOneOf("vector_backend", c.VectorBackend, "memory", "pgvector").
		RequirePositive("embed_dimension", c.EmbedDimension).
		ValidatePort("http_port", c.HTTPPort).
		Validate()
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
