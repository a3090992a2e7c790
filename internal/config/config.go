package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// ErrMissingAPIKey is returned by Validate when no Gemini key is configured.
var ErrMissingAPIKey = errors.New("missing GEMINI_API_KEY or GOOGLE_API_KEY")

type Config struct {
	Port           string
	AllowedOrigins []string
	RequestTimeout time.Duration

	LogLevel string
	LogFile  string

	GeminiAPIKey   string
	ChatModel      string
	EmbeddingModel string
	EmbeddingDim   int
	AnswerLang     string
	EmbedCacheTTL  time.Duration

	VectorBackend   string
	QdrantURL       string
	QdrantAPIKey    string
	QdrantGRPCPort  int
	Collection      string
	DatabaseURL     string
	RetrievalLimit  int
	MaxContextChars int
}

func Load() *Config {
	_ = godotenv.Load()

	apiKey := getEnv("GEMINI_API_KEY", "")
	if apiKey == "" {
		apiKey = getEnv("GOOGLE_API_KEY", "")
	}

	cfg := &Config{
		Port:           getEnv("PORT", "8000"),
		AllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 60*time.Second),

		LogLevel: getEnv("LOG_LEVEL", "info"),
		LogFile:  getEnv("LOG_FILE", ""),

		GeminiAPIKey:   apiKey,
		ChatModel:      getEnv("GEMINI_MODEL", ""),
		EmbeddingModel: getEnv("GEMINI_EMBEDDING_MODEL", "text-embedding-004"),
		EmbeddingDim:   getEnvInt("EMBEDDING_DIM", 768),
		AnswerLang:     getEnv("ANSWER_LANG", "auto"),
		EmbedCacheTTL:  getEnvDuration("EMBED_CACHE_TTL", 10*time.Minute),

		VectorBackend:   strings.ToLower(getEnv("VECTOR_BACKEND", "qdrant")),
		QdrantURL:       getEnv("QDRANT_URL", ""),
		QdrantAPIKey:    getEnv("QDRANT_API_KEY", ""),
		QdrantGRPCPort:  getEnvInt("QDRANT_GRPC_PORT", 6334),
		Collection:      getEnv("QDRANT_COLLECTION", "physical-ai-book"),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		RetrievalLimit:  getEnvInt("RETRIEVAL_LIMIT", 4),
		MaxContextChars: getEnvInt("MAX_CONTEXT_CHARS", 8000),
	}

	return cfg
}

// Validate reports settings the process cannot start without.
func (c *Config) Validate() error {
	if c.GeminiAPIKey == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// VectorStoreConfigured reports whether the selected backend has what it
// needs to connect. An unconfigured store disables retrieval.
func (c *Config) VectorStoreConfigured() bool {
	switch c.VectorBackend {
	case "qdrant":
		return c.QdrantURL != "" && c.QdrantAPIKey != ""
	case "pgvector":
		return c.DatabaseURL != ""
	case "memory":
		return true
	default:
		return false
	}
}

func getEnv(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	if v == "0" {
		return 0
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return def
	}
	return d
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
