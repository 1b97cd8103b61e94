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
	Content   ContentConfig
	Keys      APIKeys
	Ai        AIConfig
	Retrieval RetrievalConfig
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

// ContentConfig controls where full document text lives. BlobDir is the
// primary backend; Redis acts as the key/value fallback for reads.
type ContentConfig struct {
	BlobDir string
}

type APIKeys struct {
	GoogleGemini string
	IndexTopic   string // embedding job topic
}

type AIConfig struct {
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaBaseURL     string
	OllamaModel       string
	LLMProvider       string
	LLMModel          string
	Temperature       float64
	MaxTokens         int
}

// RetrievalConfig carries the retrieval pipeline tunables. The defaults come
// from empirical tuning; they are configuration, not invariants.
type RetrievalConfig struct {
	SimilarityTopK  int // candidates requested from the vector index
	LexicalTopK     int // candidates returned by the lexical fallback
	DedupPrefixLen  int // content prefix compared for duplicate detection
	InlineThreshold int // documents at or below this length are included whole
	ExtractCap      int // hard cap on extracted excerpt length
	ExtractWindow   int // lines kept on each side of a scoring line
	HistoryCap      int // messages retained per session
	PromptHistory   int // trailing messages included in the prompt
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Content: ContentConfig{
			BlobDir: getEnv("CONTENT_BLOB_DIR", "blobs"),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			IndexTopic:   getEnv("INDEX_DOCUMENT_TOPIC_NAME", "INDEX_DOCUMENT"),
		},
		Ai: AIConfig{
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "ollama"),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:       getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:          getEnv("LLM_MODEL", "llama3"),
			Temperature:       getEnvAsFloat("LLM_TEMPERATURE", 0.1),
			MaxTokens:         getEnvAsInt("LLM_MAX_TOKENS", 2048),
		},
		Retrieval: RetrievalConfig{
			SimilarityTopK:  getEnvAsInt("RETRIEVAL_SIMILARITY_TOP_K", 3),
			LexicalTopK:     getEnvAsInt("RETRIEVAL_LEXICAL_TOP_K", 2),
			DedupPrefixLen:  getEnvAsInt("RETRIEVAL_DEDUP_PREFIX_LEN", 200),
			InlineThreshold: getEnvAsInt("RETRIEVAL_INLINE_THRESHOLD", 8000),
			ExtractCap:      getEnvAsInt("RETRIEVAL_EXTRACT_CAP", 6000),
			ExtractWindow:   getEnvAsInt("RETRIEVAL_EXTRACT_WINDOW", 10),
			HistoryCap:      getEnvAsInt("RETRIEVAL_HISTORY_CAP", 10),
			PromptHistory:   getEnvAsInt("RETRIEVAL_PROMPT_HISTORY", 2),
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
