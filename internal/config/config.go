package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	GinMode     string
	CORSOrigins []string

	// MongoDB (metadata mirror + query analytics)
	MongoURI string
	DBName   string

	// Redis (embedding cache, rate limiting)
	RedisURL      string
	RedisPassword string
	RedisDB       int

	// Gemini
	GeminiAPIKey          string
	GeminiModel           string
	GoogleEmbeddingsModel string
	GeminiTemperature     float64
	GeminiMaxRetries      int

	// Vector index
	VectorDim int
	TopK      int

	// Chunking
	MaxChunkSize int
	ChunkOverlap int

	// Storage
	DataDir        string
	FileStorageDir string
	MaxFileSize    int64

	// Rate limiting
	RateLimitReqs   int
	RateLimitWindow int

	// External call bounds
	EmbedTimeoutSecs    int
	GenerateTimeoutSecs int

	// Telemetry
	TracingEnabled bool
	OTLPEndpoint   string
}

func LoadConfig() (*Config, error) {
	// Load .env file if exists
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("error loading .env file: %v", err)
		}
	}

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		GinMode:     getEnv("GIN_MODE", "debug"),
		CORSOrigins: strings.Split(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8080"), ","),

		MongoURI: getEnv("MONGO_URI", "mongodb://localhost:27017/notes_qa"),
		DBName:   getEnv("DB_NAME", "notes_qa"),

		RedisURL:      getEnv("REDIS_URL", "localhost:6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		GeminiAPIKey:          getEnv("GEMINI_API_KEY", ""),
		GeminiModel:           getEnv("GEMINI_MODEL", "gemini-2.0-flash"),
		GoogleEmbeddingsModel: getEnv("GOOGLE_EMBEDDINGS_MODEL", "text-embedding-004"),
		GeminiTemperature:     getEnvFloat64("GEMINI_TEMPERATURE", 0.7),
		GeminiMaxRetries:      getEnvInt("GEMINI_MAX_RETRIES", 3),

		VectorDim: getEnvInt("VECTOR_DIM", 768),
		TopK:      getEnvInt("RETRIEVAL_TOP_K", 5),

		MaxChunkSize: getEnvInt("MAX_CHUNK_SIZE", 1000),
		ChunkOverlap: getEnvInt("CHUNK_OVERLAP", 200),

		DataDir:        getEnv("DATA_DIR", "./data"),
		FileStorageDir: getEnv("FILE_STORAGE_DIR", "./storage"),
		MaxFileSize:    getEnvInt64("MAX_FILE_SIZE", 20971520), // 20MB per upload

		RateLimitReqs:   getEnvInt("RATE_LIMIT_REQUESTS", 100),
		RateLimitWindow: getEnvInt("RATE_LIMIT_WINDOW", 60),

		EmbedTimeoutSecs:    getEnvInt("EMBED_TIMEOUT", 30),
		GenerateTimeoutSecs: getEnvInt("GENERATE_TIMEOUT", 60),

		TracingEnabled: getEnvBool("TRACING_ENABLED", false),
		OTLPEndpoint:   getEnv("OTLP_ENDPOINT", "localhost:4317"),
	}

	// Validate required fields
	if cfg.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required - set it in .env file")
	}

	if cfg.VectorDim <= 0 {
		return nil, fmt.Errorf("VECTOR_DIM must be positive, got %d", cfg.VectorDim)
	}

	return cfg, nil
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
