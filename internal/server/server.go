// Package server exposes the annotation pipeline as a long-running HTTP
// service, for callers that want single-document annotation without a batch
// run. It also serves the Swagger UI and the health endpoints Docker and
// Kubernetes probe.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/dialect-labs/crosstalk/internal/transcript"
)

// Annotator annotates one transcript in place.
type Annotator interface {
	Annotate(ctx context.Context, t *transcript.Transcript) error
}

// Server serves the HTTP annotation API.
type Server struct {
	port      int
	annotator Annotator
	ready     atomic.Bool
	server    *http.Server
}

// New creates an HTTP server on the given port.
func New(port int, annotator Annotator) *Server {
	return &Server{port: port, annotator: annotator}
}

// SetReady marks the service as ready to accept traffic.
func (s *Server) SetReady(ready bool) {
	s.ready.Store(ready)
}

func (s *Server) routes() *http.ServeMux {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /v1/annotate", s.handleAnnotate)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleHealth)

	// Swagger UI — serves the generated OpenAPI docs.
	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	return mux
}

// ListenAndServe starts the HTTP server. It blocks until the context is
// cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", s.port),
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	slog.Info("http server listening", "port", s.port)

	go func() {
		<-ctx.Done()
		slog.Info("http server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	if err := s.server.ListenAndServe(); err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// handleAnnotate processes a POST /v1/annotate request.
//
// @Summary     Annotate a dialogue transcript
// @Description Accepts one transcript document as JSON, runs the two-phase annotation pass
// @Description (interview classification, then per-utterance question/answer/interruption flags),
// @Description and returns the annotated document. Fields the pipeline does not own are preserved.
// @Tags        annotate
// @Accept      json
// @Produce     json
// @Param       transcript  body      object  true  "Transcript document with headline and utterances"
// @Success     200  {object}  object  "Annotated transcript"
// @Failure     400  {string}  string  "Invalid request body"
// @Failure     500  {string}  string  "Annotation aborted"
// @Router      /v1/annotate [post]
func (s *Server) handleAnnotate(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.NewString()
	w.Header().Set("X-Request-ID", requestID)
	log := slog.With("request_id", requestID)

	var t transcript.Transcript
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		http.Error(w, "invalid json: "+err.Error(), http.StatusBadRequest)
		return
	}

	startedAt := time.Now()
	if err := s.annotator.Annotate(r.Context(), &t); err != nil {
		log.Error("annotation aborted", "error", err)
		http.Error(w, "annotation error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	data, err := t.Encode()
	if err != nil {
		log.Error("encoding response failed", "error", err)
		http.Error(w, "encoding error: "+err.Error(), http.StatusInternalServerError)
		return
	}

	log.Info("transcript annotated",
		"utterances", len(t.Utterances),
		"is_interview", t.IsInterview,
		"duration", time.Since(startedAt))

	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write(data)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if !s.ready.Load() {
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "not_ready"})
		return
	}
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
