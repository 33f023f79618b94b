package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// emptyConfigFile returns a path to an empty yaml file so Load is pinned to
// a known file instead of searching the working directory.
func emptyConfigFile(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "crosstalk.yaml")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")

	cfg, err := Load(emptyConfigFile(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Backend != "ollama" {
		t.Errorf("backend = %q, want %q", cfg.Backend, "ollama")
	}
	if cfg.Ollama.Host != "" {
		t.Errorf("ollama.host = %q, want empty", cfg.Ollama.Host)
	}
	if cfg.Ollama.Model != "llama3:8b" {
		t.Errorf("ollama.model = %q, want %q", cfg.Ollama.Model, "llama3:8b")
	}
	if cfg.OpenAI.BaseURL != "https://api.openai.com" {
		t.Errorf("openai.base_url = %q, want %q", cfg.OpenAI.BaseURL, "https://api.openai.com")
	}
	if cfg.OpenAI.APIKey != "${OPENAI_API_KEY}" {
		t.Errorf("openai.api_key = %q, want unresolved placeholder", cfg.OpenAI.APIKey)
	}
	if cfg.OpenAI.Model != "gpt-4o-mini" {
		t.Errorf("openai.model = %q, want %q", cfg.OpenAI.Model, "gpt-4o-mini")
	}
	if cfg.BackendTimeout != 120*time.Second {
		t.Errorf("backend_timeout = %v, want 120s", cfg.BackendTimeout)
	}
	if cfg.Annotate.MaxAttempts != 3 {
		t.Errorf("annotate.max_attempts = %d, want 3", cfg.Annotate.MaxAttempts)
	}
	if cfg.Annotate.Window != 4 {
		t.Errorf("annotate.window = %d, want 4", cfg.Annotate.Window)
	}
	if cfg.Annotate.SampleUtterances != 6 {
		t.Errorf("annotate.sample_utterances = %d, want 6", cfg.Annotate.SampleUtterances)
	}
	if cfg.Batch.InputDir != "transcripts" {
		t.Errorf("batch.input_dir = %q, want %q", cfg.Batch.InputDir, "transcripts")
	}
	if cfg.Batch.OutputDir != "transcripts_annotated" {
		t.Errorf("batch.output_dir = %q, want %q", cfg.Batch.OutputDir, "transcripts_annotated")
	}
	if cfg.Server.HTTPPort != 8080 {
		t.Errorf("server.http_port = %d, want 8080", cfg.Server.HTTPPort)
	}
	if cfg.Server.GRPC.Enabled {
		t.Error("server.grpc.enabled = true, want false")
	}
	if cfg.Server.GRPC.Port != 50051 {
		t.Errorf("server.grpc.port = %d, want 50051", cfg.Server.GRPC.Port)
	}
	if cfg.Logging.Level != "info" || cfg.Logging.Format != "json" {
		t.Errorf("logging = %q/%q, want info/json", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
backend: openai
ollama:
  host: http://gpu-box:11434
  model: mistral:7b
openai:
  model: gpt-4o
backend_timeout: 30s
annotate:
  max_attempts: 5
  window: 2
batch:
  input_dir: raw
  output_dir: done
server:
  http_port: 9090
  grpc:
    enabled: true
    port: 6000
logging:
  level: debug
  format: text
`
	path := filepath.Join(t.TempDir(), "crosstalk.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if cfg.Backend != "openai" {
		t.Errorf("backend = %q, want %q", cfg.Backend, "openai")
	}
	if cfg.Ollama.Host != "http://gpu-box:11434" {
		t.Errorf("ollama.host = %q", cfg.Ollama.Host)
	}
	if cfg.Ollama.Model != "mistral:7b" {
		t.Errorf("ollama.model = %q", cfg.Ollama.Model)
	}
	if cfg.OpenAI.Model != "gpt-4o" {
		t.Errorf("openai.model = %q", cfg.OpenAI.Model)
	}
	if cfg.BackendTimeout != 30*time.Second {
		t.Errorf("backend_timeout = %v, want 30s", cfg.BackendTimeout)
	}
	if cfg.Annotate.MaxAttempts != 5 {
		t.Errorf("annotate.max_attempts = %d, want 5", cfg.Annotate.MaxAttempts)
	}
	if cfg.Annotate.Window != 2 {
		t.Errorf("annotate.window = %d, want 2", cfg.Annotate.Window)
	}
	if cfg.Batch.InputDir != "raw" || cfg.Batch.OutputDir != "done" {
		t.Errorf("batch dirs = %q/%q", cfg.Batch.InputDir, cfg.Batch.OutputDir)
	}
	if cfg.Server.HTTPPort != 9090 {
		t.Errorf("server.http_port = %d, want 9090", cfg.Server.HTTPPort)
	}
	if !cfg.Server.GRPC.Enabled || cfg.Server.GRPC.Port != 6000 {
		t.Errorf("server.grpc = %+v", cfg.Server.GRPC)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "text" {
		t.Errorf("logging = %q/%q, want debug/text", cfg.Logging.Level, cfg.Logging.Format)
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("CROSSTALK_OLLAMA_MODEL", "phi3:mini")
	t.Setenv("CROSSTALK_BACKEND_TIMEOUT", "45s")

	cfg, err := Load(emptyConfigFile(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Ollama.Model != "phi3:mini" {
		t.Errorf("ollama.model = %q, want env override %q", cfg.Ollama.Model, "phi3:mini")
	}
	if cfg.BackendTimeout != 45*time.Second {
		t.Errorf("backend_timeout = %v, want 45s", cfg.BackendTimeout)
	}
}

func TestAPIKeyEnvResolution(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test-123")

	cfg, err := Load(emptyConfigFile(t))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.OpenAI.APIKey != "sk-test-123" {
		t.Errorf("openai.api_key = %q, want resolved env value", cfg.OpenAI.APIKey)
	}
}

func TestResolveEnvRef(t *testing.T) {
	t.Setenv("CROSSTALK_TEST_SECRET", "shhh")
	t.Setenv("CROSSTALK_TEST_EMPTY", "")

	tests := []struct {
		in   string
		want string
	}{
		{"${CROSSTALK_TEST_SECRET}", "shhh"},
		{"plain-value", "plain-value"},
		{"${CROSSTALK_TEST_EMPTY}", "${CROSSTALK_TEST_EMPTY}"},
		{"${CROSSTALK_TEST_NEVER_SET_ANYWHERE}", "${CROSSTALK_TEST_NEVER_SET_ANYWHERE}"},
		{"${partial", "${partial"},
	}
	for _, tt := range tests {
		if got := resolveEnvRef(tt.in); got != tt.want {
			t.Errorf("resolveEnvRef(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"odd window", "annotate:\n  window: 3\n"},
		{"zero attempts", "annotate:\n  max_attempts: 0\n"},
		{"negative sample", "annotate:\n  sample_utterances: -1\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "crosstalk.yaml")
			if err := os.WriteFile(path, []byte(tt.content), 0o644); err != nil {
				t.Fatalf("writing config file: %v", err)
			}
			if _, err := Load(path); err == nil {
				t.Fatal("want validation error")
			}
		})
	}
}
