package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"

	"docchat/internal/chunker"
)

type LLM struct {
	Provider string `env:"PROVIDER" envDefault:"ollama"`
	URL      string `env:"URL" envDefault:"http://localhost:11434"`
	Model    string `env:"MODEL" envDefault:"llama3:8b"`
	Key      string `env:"KEY"`
}

type Embed struct {
	Provider  string `env:"PROVIDER" envDefault:"ollama"`
	URL       string `env:"URL" envDefault:"http://localhost:11434"`
	Model     string `env:"MODEL" envDefault:"all-minilm"`
	Key       string `env:"KEY"`
	BatchSize int    `env:"BATCH_SIZE" envDefault:"64"`
}

type Config struct {
	DataDir          string        `env:"DATA_DIR" envDefault:"./data"`
	IndexID          string        `env:"INDEX_ID" envDefault:"docs"`
	ChunkSize        int           `env:"CHUNK_SIZE" envDefault:"400"`
	SentenceSplitter string        `env:"SENTENCE_SPLITTER" envDefault:"punkt"`
	TopK             int           `env:"TOP_K" envDefault:"5"`
	JoinTimeout      time.Duration `env:"JOIN_TIMEOUT" envDefault:"5s"`
	CompressIndex    bool          `env:"COMPRESS_INDEX" envDefault:"true"`

	LLM   LLM   `envPrefix:"LLM_"`
	Embed Embed `envPrefix:"EMBED_"`

	RegistryFile string
}

// Init parses the environment into cfg and derives file locations.
func Init(cfg *Config) error {
	if err := env.Parse(cfg); err != nil {
		return fmt.Errorf("failed to parse env: %w", err)
	}
	cfg.RegistryFile = filepath.Join(cfg.DataDir, "registry.db")
	return cfg.Validate()
}

func (c *Config) Validate() error {
	if c.ChunkSize <= 0 {
		return fmt.Errorf("%w: CHUNK_SIZE must be positive, got %d", chunker.ErrInvalidConfiguration, c.ChunkSize)
	}
	if c.TopK <= 0 {
		return fmt.Errorf("TOP_K must be positive, got %d", c.TopK)
	}
	if c.IndexID == "" || strings.ContainsAny(c.IndexID, `/\`) {
		return fmt.Errorf("INDEX_ID %q is not a valid file name", c.IndexID)
	}
	switch strings.ToLower(c.LLM.Provider) {
	case "ollama", "openai":
	default:
		return fmt.Errorf("unknown LLM_PROVIDER: %s", c.LLM.Provider)
	}
	switch strings.ToLower(c.Embed.Provider) {
	case "ollama", "openai", "hash":
	default:
		return fmt.Errorf("unknown EMBED_PROVIDER: %s", c.Embed.Provider)
	}
	return nil
}
