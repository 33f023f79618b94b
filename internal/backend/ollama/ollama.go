// Package ollama implements the Backend interface against an Ollama server.
//
// The chat endpoint is used directly (POST /api/chat) with streaming
// disabled, so one exchange maps to one HTTP round trip. The target host
// honors the OLLAMA_HOST environment variable, which is how batch workers
// are steered to their own GPU instance.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/dialect-labs/crosstalk/internal/backend"
	"github.com/dialect-labs/crosstalk/internal/config"
)

const defaultHost = "http://localhost:11434"

// Backend talks to a self-hosted Ollama server.
type Backend struct {
	host   string
	model  string
	client *http.Client
}

// New creates an Ollama backend from config. Host resolution order: the
// configured host, the OLLAMA_HOST environment variable, then localhost.
func New(cfg config.OllamaConfig, timeout time.Duration) *Backend {
	model := cfg.Model
	if model == "" {
		model = "llama3:8b"
	}
	return &Backend{
		host:   resolveHost(cfg.Host),
		model:  model,
		client: &http.Client{Timeout: timeout},
	}
}

// Name returns the backend identifier.
func (b *Backend) Name() string { return "ollama" }

// Host returns the resolved server address this backend targets.
func (b *Backend) Host() string { return b.host }

type chatRequest struct {
	Model    string            `json:"model"`
	Messages []backend.Message `json:"messages"`
	Stream   bool              `json:"stream"`
}

type chatResponse struct {
	Message struct {
		Content string `json:"content"`
	} `json:"message"`
}

// Exchange sends the messages to the Ollama chat endpoint and returns the
// model's reply text.
func (b *Backend) Exchange(ctx context.Context, messages []backend.Message) (string, error) {
	bodyBytes, err := json.Marshal(chatRequest{
		Model:    b.model,
		Messages: messages,
		Stream:   false,
	})
	if err != nil {
		return "", fmt.Errorf("marshalling chat request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.host+"/api/chat", bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("ollama chat request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("ollama chat failed (status %d): %s", resp.StatusCode, respBody)
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding chat response: %w", err)
	}
	if chatResp.Message.Content == "" {
		return "", fmt.Errorf("empty response from ollama")
	}
	return chatResp.Message.Content, nil
}

// Close is a no-op for the Ollama backend.
func (b *Backend) Close() error { return nil }

func resolveHost(configured string) string {
	host := configured
	if host == "" {
		host = os.Getenv("OLLAMA_HOST")
	}
	if host == "" {
		host = defaultHost
	}
	// OLLAMA_HOST is often a bare host:port.
	if !strings.Contains(host, "://") {
		host = "http://" + host
	}
	return strings.TrimRight(host, "/")
}
