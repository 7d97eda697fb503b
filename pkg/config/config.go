package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	JWT      JWTConfig
	Gemini   GeminiConfig
	RAG      RAGConfig
	Ingest   IngestConfig
	Logger   LoggerConfig
}

type LoggerConfig struct {
	Level string
}

type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type JWTConfig struct {
	SecretKey  string
	Expiration time.Duration
	RefreshExp time.Duration
}

type GeminiConfig struct {
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	// EmbeddingDim is the requested output dimensionality; the documents
	// table's vector column must match it.
	EmbeddingDim int
	// RequestsPerSecond throttles outbound provider calls across the process.
	RequestsPerSecond float64
}

type RAGConfig struct {
	// SearchThreshold applies to the public semantic-search endpoint.
	SearchThreshold float64
	// ComposeThreshold applies to knowledge retrieval during reply generation.
	ComposeThreshold float64
	TopK             int
	HistoryTurns     int
}

type IngestConfig struct {
	ChunkSize    int
	ChunkOverlap int
	// EmbedWorkers bounds parallel embedding calls within one document.
	EmbedWorkers int
	// MaxUploadBytes caps accepted document uploads.
	MaxUploadBytes int64
	// PoolWorkers sizes the background pool that runs webhook and ingestion tasks.
	PoolWorkers int
}

func Load() (*Config, error) {
	// The .env file is optional; environment variables win either way
	// (useful for Docker/K8s).
	envFiles := []string{".env", "../.env", "../../.env"}
	for _, envFile := range envFiles {
		if err := godotenv.Load(envFile); err == nil {
			break
		}
	}

	readTimeout, _ := strconv.Atoi(getEnv("SERVER_READ_TIMEOUT", "30"))
	writeTimeout, _ := strconv.Atoi(getEnv("SERVER_WRITE_TIMEOUT", "30"))
	jwtExp, _ := strconv.Atoi(getEnv("JWT_EXPIRATION_HOURS", "24"))
	refreshExp, _ := strconv.Atoi(getEnv("JWT_REFRESH_EXPIRATION_HOURS", "168"))
	embeddingDim, _ := strconv.Atoi(getEnv("GEMINI_EMBEDDING_DIM", "768"))
	rps, _ := strconv.ParseFloat(getEnv("GEMINI_REQUESTS_PER_SECOND", "5"), 64)
	searchThreshold, _ := strconv.ParseFloat(getEnv("RAG_SEARCH_THRESHOLD", "0.5"), 64)
	composeThreshold, _ := strconv.ParseFloat(getEnv("RAG_COMPOSE_THRESHOLD", "0.7"), 64)
	topK, _ := strconv.Atoi(getEnv("RAG_TOP_K", "5"))
	historyTurns, _ := strconv.Atoi(getEnv("RAG_HISTORY_TURNS", "10"))
	chunkSize, _ := strconv.Atoi(getEnv("INGEST_CHUNK_SIZE", "1000"))
	chunkOverlap, _ := strconv.Atoi(getEnv("INGEST_CHUNK_OVERLAP", "200"))
	embedWorkers, _ := strconv.Atoi(getEnv("INGEST_EMBED_WORKERS", "4"))
	maxUpload, _ := strconv.ParseInt(getEnv("INGEST_MAX_UPLOAD_BYTES", strconv.FormatInt(50*1024*1024, 10)), 10, 64)
	poolWorkers, _ := strconv.Atoi(getEnv("INGEST_POOL_WORKERS", "8"))

	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			ReadTimeout:  time.Duration(readTimeout) * time.Second,
			WriteTimeout: time.Duration(writeTimeout) * time.Second,
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", "postgres"),
			DBName:   getEnv("DB_NAME", "nexa"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		JWT: JWTConfig{
			SecretKey:  getEnv("JWT_SECRET_KEY", "your-secret-key-change-in-production"),
			Expiration: time.Duration(jwtExp) * time.Hour,
			RefreshExp: time.Duration(refreshExp) * time.Hour,
		},
		Gemini: GeminiConfig{
			APIKey:            getEnv("GEMINI_API_KEY", ""),
			ChatModel:         getEnv("GEMINI_CHAT_MODEL", "gemini-2.0-flash"),
			EmbeddingModel:    getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
			EmbeddingDim:      embeddingDim,
			RequestsPerSecond: rps,
		},
		RAG: RAGConfig{
			SearchThreshold:  searchThreshold,
			ComposeThreshold: composeThreshold,
			TopK:             topK,
			HistoryTurns:     historyTurns,
		},
		Ingest: IngestConfig{
			ChunkSize:      chunkSize,
			ChunkOverlap:   chunkOverlap,
			EmbedWorkers:   embedWorkers,
			MaxUploadBytes: maxUpload,
			PoolWorkers:    poolWorkers,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
