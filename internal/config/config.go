// Package config loads runtime settings from the environment, with a .env
// file in the working directory taken into account when present.
package config

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Defaults.
const (
	DefaultEmbeddingModel    = "bge-m3:latest"
	DefaultEmbeddingEndpoint = "http://localhost:11434/api/embeddings"
	DefaultEmbeddingDims     = 1024

	DefaultFileConcurrency      = 8
	DefaultEmbeddingConcurrency = 4

	DefaultEmbeddingCacheMax = 50000
)

// Config holds all runtime settings.
type Config struct {
	// Embedding provider.
	EmbeddingModel    string
	EmbeddingEndpoint string
	EmbeddingDims     int

	// Concurrency limits.
	FileConcurrency      int
	EmbeddingConcurrency int

	// EmbeddingCacheMax bounds the embedding cache, pruned LRU-first.
	EmbeddingCacheMax int

	// DataDir is where the chunk store and knowledge graph live.
	DataDir string
}

// Load reads configuration from the environment. A .env file in the current
// directory is merged in first without overriding already-set variables.
func Load() (*Config, error) {
	_ = godotenv.Load() // missing .env is fine

	cfg := &Config{
		EmbeddingModel:       getenv("EMBEDDING_MODEL", DefaultEmbeddingModel),
		EmbeddingEndpoint:    getenv("EMBEDDING_ENDPOINT", DefaultEmbeddingEndpoint),
		EmbeddingDims:        getenvInt("EMBEDDING_DIMENSIONS", DefaultEmbeddingDims),
		FileConcurrency:      getenvInt("FILE_CONCURRENCY", DefaultFileConcurrency),
		EmbeddingConcurrency: getenvInt("EMBEDDING_CONCURRENCY", DefaultEmbeddingConcurrency),
		EmbeddingCacheMax:    getenvInt("EMBEDDING_CACHE_MAX", DefaultEmbeddingCacheMax),
		DataDir:              os.Getenv("CODEINTEL_DATA_DIR"),
	}

	if cfg.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, err
		}
		cfg.DataDir = filepath.Join(home, ".code_intel_store")
	}
	return cfg, nil
}

// ChunkDBPath is the location of the chunk and vector store.
func (c *Config) ChunkDBPath() string {
	return filepath.Join(c.DataDir, "db", "chunks.db")
}

// GraphDBPath is the location of the knowledge graph store.
func (c *Config) GraphDBPath() string {
	return filepath.Join(c.DataDir, "db", "knowledge_graph.db")
}

func getenv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getenvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
