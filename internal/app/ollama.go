package app

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"

	"docchat/internal/config"
)

// ensureOllamaModels makes sure the Ollama server is up and every model
// that is served by it is present, pulling missing ones.
func ensureOllamaModels(ctx context.Context, cfg *config.Config) error {
	needed := map[string][]string{}
	if strings.EqualFold(cfg.LLM.Provider, "ollama") {
		needed[cfg.LLM.URL] = append(needed[cfg.LLM.URL], cfg.LLM.Model)
	}
	if strings.EqualFold(cfg.Embed.Provider, "ollama") {
		needed[cfg.Embed.URL] = append(needed[cfg.Embed.URL], cfg.Embed.Model)
	}

	for url, models := range needed {
		if err := ensureModels(ctx, url, models); err != nil {
			return err
		}
	}
	return nil
}

func ensureModels(ctx context.Context, baseURL string, models []string) error {
	type ollamaPullRequest struct {
		Name   string `json:"name"`
		Stream bool   `json:"stream"`
	}

	// 1. Check if Ollama is running and list local models
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/api/tags", nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil || resp.StatusCode != http.StatusOK {
		if resp != nil {
			resp.Body.Close()
		}
		return fmt.Errorf("ollama is not running or not reachable at %s", baseURL)
	}
	tags, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	// 2. Pull what is missing
	for _, model := range models {
		if bytes.Contains(tags, []byte(`"`+model)) {
			log.Printf("Model %s is available", model)
			continue
		}

		log.Printf("Model %s not found, pulling...", model)
		b, _ := json.Marshal(ollamaPullRequest{Name: model, Stream: false})
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/api/pull", bytes.NewBuffer(b))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		pullResp, err := http.DefaultClient.Do(req)
		if err != nil {
			return fmt.Errorf("failed to pull model %s: %w", model, err)
		}
		pullResp.Body.Close()
		if pullResp.StatusCode != http.StatusOK {
			return fmt.Errorf("failed to pull model %s: status %d", model, pullResp.StatusCode)
		}
		log.Printf("Model %s pulled successfully", model)
	}
	return nil
}
