package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config carries everything the service needs from the environment. Only the
// listen port is mandatory-with-default; cloud collaborators degrade to
// in-process fallbacks when their settings are absent.
type Config struct {
	Port           string
	GeminiModel    string
	EmbeddingModel string

	BigQueryProject      string
	BigQueryDataset      string
	BigQueryTable        string
	BigQueryHistoryTable string

	GCSBucket string

	CacheTTL time.Duration
	LogLevel string
}

func Load() (*Config, error) {
	cfg := &Config{
		Port:                 envOr("PORT", "8000"),
		GeminiModel:          envOr("GEMINI_MODEL", "gemini-2.0-flash"),
		EmbeddingModel:       envOr("EMBEDDING_MODEL", "text-embedding-004"),
		BigQueryProject:      os.Getenv("BIGQUERY_PROJECT"),
		BigQueryDataset:      envOr("BIGQUERY_DATASET", "transactions"),
		BigQueryTable:        envOr("BIGQUERY_TABLE", "user_datasets"),
		BigQueryHistoryTable: envOr("BIGQUERY_HISTORY_TABLE", "chat_history"),
		GCSBucket:            os.Getenv("GCS_BUCKET"),
		LogLevel:             envOr("LOG_LEVEL", "info"),
	}

	minutes := envOr("CACHE_TTL_MINUTES", "30")
	n, err := strconv.Atoi(minutes)
	if err != nil || n <= 0 {
		return nil, fmt.Errorf("Load: invalid CACHE_TTL_MINUTES %q", minutes)
	}
	cfg.CacheTTL = time.Duration(n) * time.Minute

	return cfg, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
