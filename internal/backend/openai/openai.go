// Package openai implements the Backend interface against the OpenAI Chat
// Completions API or any endpoint compatible with it (vLLM, llama.cpp
// server, LiteLLM proxies).
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dialect-labs/crosstalk/internal/backend"
	"github.com/dialect-labs/crosstalk/internal/config"
)

const defaultBaseURL = "https://api.openai.com"

// Backend talks to an OpenAI-compatible chat completions endpoint.
type Backend struct {
	baseURL string
	apiKey  string
	model   string
	client  *http.Client
}

// New creates an OpenAI backend from config.
func New(cfg config.OpenAIConfig, timeout time.Duration) *Backend {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Backend{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  cfg.APIKey,
		model:   cfg.Model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return "openai" }

// BaseURL returns the endpoint base this backend targets.
func (b *Backend) BaseURL() string { return b.baseURL }

type chatRequest struct {
	Model       string            `json:"model"`
	Messages    []backend.Message `json:"messages"`
	Temperature float64           `json:"temperature"`
	Stream      bool              `json:"stream"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Exchange sends the messages to the chat completions endpoint and returns
// the model's reply text.
func (b *Backend) Exchange(ctx context.Context, messages []backend.Message) (string, error) {
	bodyBytes, err := json.Marshal(chatRequest{
		Model:       b.model,
		Messages:    messages,
		Temperature: 0.2,
		Stream:      false,
	})
	if err != nil {
		return "", fmt.Errorf("marshalling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.baseURL+"/v1/chat/completions", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating chat request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+b.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("chat failed (status %d): %s", resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from chat API")
	}
	return chatResp.Choices[0].Message.Content, nil
}

// Close is a no-op for the OpenAI backend.
func (b *Backend) Close() error { return nil }
