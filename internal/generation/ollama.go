package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// Ollama streams completions from the native /api/generate endpoint.
type Ollama struct {
	url    string
	key    string
	client *http.Client
}

func NewOllama(url, key string) *Ollama {
	return &Ollama{url: url, key: key, client: &http.Client{}}
}

type ollamaChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

func (o *Ollama) Generate(ctx context.Context, model, prompt string, yield func(string)) error {
	reqBody := map[string]interface{}{
		"model":  model,
		"prompt": prompt,
		"stream": true,
	}
	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.url+"/api/generate", bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if o.key != "" {
		req.Header.Set("Authorization", "Bearer "+o.key)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("LLM returned status %d: %s", resp.StatusCode, string(body))
	}

	// one JSON object per line until done
	dec := json.NewDecoder(resp.Body)
	for {
		var chunk ollamaChunk
		if err := dec.Decode(&chunk); err != nil {
			if errors.Is(err, io.EOF) {
				return fmt.Errorf("stream ended before done: %w", io.ErrUnexpectedEOF)
			}
			return fmt.Errorf("failed to decode stream: %w", err)
		}
		if chunk.Error != "" {
			return fmt.Errorf("LLM error: %s", chunk.Error)
		}
		if chunk.Response != "" {
			yield(chunk.Response)
		}
		if chunk.Done {
			return nil
		}
	}
}
