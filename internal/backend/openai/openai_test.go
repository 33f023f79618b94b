package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dialect-labs/crosstalk/internal/backend"
	"github.com/dialect-labs/crosstalk/internal/config"
)

func newTestBackend(t *testing.T, handler http.HandlerFunc) *Backend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(config.OpenAIConfig{
		BaseURL: srv.URL,
		APIKey:  "sk-test",
		Model:   "gpt-4o-mini",
	}, 5*time.Second)
}

func TestExchange(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %q, want /v1/chat/completions", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("authorization = %q, want bearer token", got)
		}
		var req chatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		if req.Model != "gpt-4o-mini" {
			t.Errorf("model = %q, want gpt-4o-mini", req.Model)
		}
		if req.Temperature != 0.2 {
			t.Errorf("temperature = %v, want 0.2", req.Temperature)
		}
		if req.Stream {
			t.Error("stream = true, want false")
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"choices": [{"message": {"role": "assistant", "content": "done"}}]}`))
	})

	got, err := b.Exchange(context.Background(), []backend.Message{{Role: "user", Content: "hello"}})
	if err != nil {
		t.Fatalf("exchange: %v", err)
	}
	if got != "done" {
		t.Errorf("reply = %q, want %q", got, "done")
	}
}

func TestExchangeNoChoices(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": []}`))
	})

	_, err := b.Exchange(context.Background(), []backend.Message{{Role: "user", Content: "hello"}})
	if err == nil {
		t.Fatal("want error when no choices are returned")
	}
	if !strings.Contains(err.Error(), "no choices") {
		t.Errorf("error = %q", err)
	}
}

func TestExchangeHTTPError(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "invalid api key"}`, http.StatusUnauthorized)
	})

	_, err := b.Exchange(context.Background(), []backend.Message{{Role: "user", Content: "hello"}})
	if err == nil {
		t.Fatal("want error for non-200 status")
	}
	if !strings.Contains(err.Error(), "status 401") {
		t.Errorf("error %q should carry the status code", err)
	}
}

func TestDefaultBaseURL(t *testing.T) {
	b := New(config.OpenAIConfig{APIKey: "sk-test"}, time.Second)
	if b.BaseURL() != "https://api.openai.com" {
		t.Errorf("base url = %q, want default", b.BaseURL())
	}
}
