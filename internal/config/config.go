package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Database  DatabaseConfig
	Ai        AIConfig
	Retrieval RetrievalConfig
	Ingestion IngestionConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	LLMProvider        string // "nim" or "ollama"
	LLMModel           string
	LLMBaseURL         string
	LLMAPIKey          string
	EmbeddingProvider  string // "nim" or "ollama"
	EmbeddingModel     string
	EmbeddingBaseURL   string
	EmbeddingAPIKey    string
	EmbeddingDimension int
	RerankerModel      string
	RerankerBaseURL    string
	RerankerAPIKey     string
	Temperature        float64
	MaxTokens          int
}

type RetrievalConfig struct {
	TopK                int
	ConfidenceThreshold float64
	RecursionDepth      int
	EnableReranker      bool
	EnableCitations     bool
	RerankTopK          int
}

type IngestionConfig struct {
	ChunkSize    int
	ChunkOverlap int
	IngestTopic  string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "8081"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log.csv"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "*"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			LLMProvider:        getEnv("LLM_PROVIDER", "nim"),
			LLMModel:           getEnv("LLM_MODEL", "nvidia/llama-3.3-nemotron-super-49b-v1"),
			LLMBaseURL:         getEnv("LLM_BASE_URL", "https://integrate.api.nvidia.com"),
			LLMAPIKey:          getEnv("LLM_API_KEY", ""),
			EmbeddingProvider:  getEnv("EMBEDDING_PROVIDER", "nim"),
			EmbeddingModel:     getEnv("EMBEDDING_MODEL", "nvidia/llama-3.2-nv-embedqa-1b-v2"),
			EmbeddingBaseURL:   getEnv("EMBEDDING_BASE_URL", "https://integrate.api.nvidia.com"),
			EmbeddingAPIKey:    getEnv("EMBEDDING_API_KEY", ""),
			EmbeddingDimension: getEnvAsInt("EMBEDDING_DIMENSION", 1024),
			RerankerModel:      getEnv("RERANKER_MODEL", "nvidia/llama-3.2-nv-rerankqa-1b-v2"),
			RerankerBaseURL:    getEnv("RERANKER_BASE_URL", "https://ai.api.nvidia.com"),
			RerankerAPIKey:     getEnv("RERANKER_API_KEY", ""),
			Temperature:        getEnvAsFloat("LLM_TEMPERATURE", 0.2),
			MaxTokens:          getEnvAsInt("LLM_MAX_TOKENS", 1024),
		},
		Retrieval: RetrievalConfig{
			TopK:                getEnvAsInt("RETRIEVAL_TOP_K", 10),
			ConfidenceThreshold: getEnvAsFloat("CONFIDENCE_THRESHOLD", 0),
			RecursionDepth:      getEnvAsInt("QUERY_DECOMPOSITION_RECURSION_DEPTH", 2),
			EnableReranker:      getEnvAsBool("ENABLE_RERANKER", true),
			EnableCitations:     getEnvAsBool("ENABLE_CITATIONS", true),
			RerankTopK:          getEnvAsInt("RERANK_TOP_K", 10),
		},
		Ingestion: IngestionConfig{
			ChunkSize:    getEnvAsInt("CHUNK_SIZE", 1000),
			ChunkOverlap: getEnvAsInt("CHUNK_OVERLAP", 200),
			IngestTopic:  getEnv("DOC_INGEST_TOPIC_NAME", "DOC_INGEST"),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
