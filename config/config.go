package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all app configuration
type Config struct {
	// Server
	Env      string
	HTTPPort string

	// Redis (profile store)
	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// Postgres (alternative profile store backend)
	PostgresDSN string

	// Profile store backend: "redis", "postgres" or "memory"
	ProfileStoreBackend string

	// ClickHouse (audit trail)
	ClickhouseAddr     string
	ClickhouseUsername string
	ClickhousePassword string
	ClickhouseTimeout  int

	// Kafka
	KafkaBrokers         []string
	KafkaTopic           string
	ProfileConsumerGroup string
	AuditConsumerGroup   string
	KafkaBatchSize       int
	KafkaBatchTimeout    int // milliseconds

	// Scoring service
	ScoringURL         string
	ScoringTimeout     time.Duration
	ScoringMaxInflight int

	// App settings
	EventBufferSize   int
	PublishBufferSize int
	UpdaterShards     int
	DedupWindowSize   int
	ProfileCacheTTL   time.Duration
	Debug             bool
}

// LoadConfig loads configuration from environment variables, with optional .env file
func LoadConfig() *Config {
	// A missing .env file is not an error
	_ = godotenv.Load()

	cfg := &Config{
		// Server
		Env:      getEnv("APP_ENV", "local"),
		HTTPPort: getEnv("HTTP_PORT", "8080"),

		// Redis
		RedisAddr:     getEnv("REDIS_ADDR", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvAsInt("REDIS_DB", 0),

		// Postgres
		PostgresDSN: getEnv("POSTGRES_DSN", "postgres://localhost:5432/frauddetector?sslmode=disable"),

		ProfileStoreBackend: getEnv("PROFILE_STORE", "redis"),

		// ClickHouse
		ClickhouseAddr:     getEnv("CLICKHOUSE_ADDR", "localhost:9000"),
		ClickhouseUsername: getEnv("CLICKHOUSE_USERNAME", ""),
		ClickhousePassword: getEnv("CLICKHOUSE_PASSWORD", ""),
		ClickhouseTimeout:  getEnvAsInt("CLICKHOUSE_TIMEOUT", 10),

		// Kafka
		KafkaBrokers:         getEnvAsSlice("KAFKA_BROKERS", []string{"localhost:9092"}, ","),
		KafkaTopic:           getEnv("KAFKA_TOPIC", "transaction-events"),
		ProfileConsumerGroup: getEnv("KAFKA_PROFILE_GROUP", "profile-updater"),
		AuditConsumerGroup:   getEnv("KAFKA_AUDIT_GROUP", "audit-writer"),
		KafkaBatchSize:       getEnvAsInt("KAFKA_BATCH_SIZE", 500),
		KafkaBatchTimeout:    getEnvAsInt("KAFKA_BATCH_TIMEOUT", 3000),

		// Scoring
		ScoringURL:         getEnv("SCORING_URL", "http://localhost:50052"),
		ScoringTimeout:     getEnvAsDuration("SCORING_TIMEOUT", 5*time.Second),
		ScoringMaxInflight: getEnvAsInt("SCORING_MAX_INFLIGHT", 64),

		// App settings
		EventBufferSize:   getEnvAsInt("EVENT_BUFFER_SIZE", 10000),
		PublishBufferSize: getEnvAsInt("PUBLISH_BUFFER_SIZE", 4096),
		UpdaterShards:     getEnvAsInt("UPDATER_SHARDS", 16),
		DedupWindowSize:   getEnvAsInt("DEDUP_WINDOW_SIZE", 8192),
		ProfileCacheTTL:   getEnvAsDuration("PROFILE_CACHE_TTL", 5*time.Minute),
		Debug:             getEnvAsBool("DEBUG", false),
	}

	return cfg
}

// Helper functions for parsing environment variables
func getEnv(key, defaultVal string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultVal
}

func getEnvAsBool(key string, defaultVal bool) bool {
	valStr := getEnv(key, "")
	if val, err := strconv.ParseBool(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsDuration(key string, defaultVal time.Duration) time.Duration {
	valStr := getEnv(key, "")
	if val, err := time.ParseDuration(valStr); err == nil {
		return val
	}
	return defaultVal
}

func getEnvAsSlice(key string, defaultVal []string, sep string) []string {
	valStr := getEnv(key, "")
	if valStr == "" {
		return defaultVal
	}
	return strings.Split(valStr, sep)
}
