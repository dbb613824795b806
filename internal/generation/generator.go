package generation

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

var ErrGeneration = errors.New("generation failed")

// Generator is a blocking token producer. Generate calls yield once per
// token, in order, and returns when the model has finished or failed.
type Generator interface {
	Generate(ctx context.Context, model, prompt string, yield func(token string)) error
}

type Config struct {
	Provider string
	URL      string
	Key      string
}

const (
	defaultOllamaURL = "http://localhost:11434"
	defaultOpenAIURL = "https://api.openai.com/v1"
)

// New assembles the generator named by cfg.Provider.
func New(cfg Config) (Generator, error) {
	switch strings.ToLower(cfg.Provider) {
	case "ollama", "":
		url := cfg.URL
		if url == "" {
			url = defaultOllamaURL
		}
		return NewOllama(url, cfg.Key), nil
	case "openai":
		url := cfg.URL
		if url == "" {
			url = defaultOpenAIURL
		}
		return NewOpenAI(url, cfg.Key), nil
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", cfg.Provider)
	}
}

// GeneratorFunc adapts a plain function to Generator.
type GeneratorFunc func(ctx context.Context, model, prompt string, yield func(string)) error

func (f GeneratorFunc) Generate(ctx context.Context, model, prompt string, yield func(string)) error {
	return f(ctx, model, prompt, yield)
}
