// Package backend defines the interface to the text-generation model.
//
// A backend takes an ordered sequence of role-tagged messages and returns
// the model's raw text reply. Crosstalk ships with two backends: Ollama
// (self-hosted) and OpenAI-compatible chat endpoints (cloud or vLLM,
// llama.cpp server).
package backend

import "context"

// Message is one role-tagged turn in a model conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Backend is the interface to a text-generation model.
type Backend interface {
	// Name returns the backend identifier (e.g., "ollama", "openai").
	Name() string

	// Exchange sends the messages to the model and returns its raw text
	// reply. The reply is unstructured; callers coerce it themselves.
	Exchange(ctx context.Context, messages []Message) (string, error)

	// Close releases any resources held by the backend.
	Close() error
}
