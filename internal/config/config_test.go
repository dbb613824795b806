package config

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"docchat/internal/chunker"
)

func TestInit_Defaults(t *testing.T) {
	var cfg Config
	if err := Init(&cfg); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if cfg.ChunkSize != 400 || cfg.TopK != 5 || cfg.IndexID != "docs" {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.JoinTimeout != 5*time.Second || !cfg.CompressIndex {
		t.Errorf("unexpected defaults %+v", cfg)
	}
	if cfg.LLM.Model != "llama3:8b" || cfg.Embed.Provider != "ollama" || cfg.Embed.BatchSize != 64 {
		t.Errorf("unexpected provider defaults %+v %+v", cfg.LLM, cfg.Embed)
	}
	if cfg.RegistryFile != filepath.Join("./data", "registry.db") {
		t.Errorf("unexpected registry file %s", cfg.RegistryFile)
	}
}

func TestInit_FromEnv(t *testing.T) {
	t.Setenv("DATA_DIR", "/tmp/docchat")
	t.Setenv("CHUNK_SIZE", "50")
	t.Setenv("LLM_PROVIDER", "openai")
	t.Setenv("LLM_KEY", "secret")
	t.Setenv("EMBED_PROVIDER", "hash")
	t.Setenv("JOIN_TIMEOUT", "250ms")

	var cfg Config
	if err := Init(&cfg); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	if cfg.ChunkSize != 50 || cfg.LLM.Provider != "openai" || cfg.LLM.Key != "secret" || cfg.Embed.Provider != "hash" {
		t.Errorf("env not applied: %+v", cfg)
	}
	if cfg.JoinTimeout != 250*time.Millisecond {
		t.Errorf("unexpected join timeout %s", cfg.JoinTimeout)
	}
	if cfg.RegistryFile != "/tmp/docchat/registry.db" {
		t.Errorf("unexpected registry file %s", cfg.RegistryFile)
	}
}

func TestInit_RejectsBadValues(t *testing.T) {
	t.Setenv("CHUNK_SIZE", "0")
	var cfg Config
	if err := Init(&cfg); !errors.Is(err, chunker.ErrInvalidConfiguration) {
		t.Fatalf("expected ErrInvalidConfiguration, got %v", err)
	}

	cases := map[string]func(c *Config){
		"top k":    func(c *Config) { c.TopK = 0 },
		"index id": func(c *Config) { c.IndexID = "../x" },
		"llm":      func(c *Config) { c.LLM.Provider = "nope" },
		"embed":    func(c *Config) { c.Embed.Provider = "nope" },
	}
	for name, mutate := range cases {
		c := Config{ChunkSize: 10, TopK: 1, IndexID: "docs", LLM: LLM{Provider: "ollama"}, Embed: Embed{Provider: "ollama"}}
		mutate(&c)
		if err := c.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}
