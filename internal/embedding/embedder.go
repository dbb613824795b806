package embedding

import (
	"context"
	"fmt"
	"strings"
)

// Embedder converts a batch of texts into vectors, one per text, in input order.
type Embedder interface {
	Name() string
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Config selects and configures the embedder implementation.
type Config struct {
	Provider  string
	URL       string
	Key       string
	Model     string
	BatchSize int
}

const (
	defaultOllamaURL = "http://localhost:11434"
	defaultOpenAIURL = "https://api.openai.com/v1"
)

// New assembles the embedder named by cfg.Provider.
func New(cfg Config) (Embedder, error) {
	switch strings.ToLower(cfg.Provider) {
	case "ollama", "":
		url := cfg.URL
		if url == "" {
			url = defaultOllamaURL
		}
		return NewOllamaEmbedder(cfg.Model, url, cfg.BatchSize), nil
	case "openai":
		url := cfg.URL
		if url == "" {
			url = defaultOpenAIURL
		}
		return NewOpenAIEmbedder(url, cfg.Key, cfg.Model, cfg.BatchSize), nil
	case "hash":
		return NewHashEmbedder(0), nil
	default:
		return nil, fmt.Errorf("unknown embedder: %s", cfg.Provider)
	}
}
