// Crosstalk annotates dialogue transcripts with conversational metadata
// (interview classification, question/answer/interruption flags) derived
// from a text-generation model.
//
// Usage:
//
//	crosstalk [flags]            batch-annotate a folder of transcripts
//	crosstalk -serve             run the HTTP annotation service
//	crosstalk --config /path/to/crosstalk.yaml
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/dialect-labs/crosstalk/docs"
	"github.com/dialect-labs/crosstalk/internal/annotate"
	"github.com/dialect-labs/crosstalk/internal/backend"
	"github.com/dialect-labs/crosstalk/internal/backend/ollama"
	"github.com/dialect-labs/crosstalk/internal/backend/openai"
	"github.com/dialect-labs/crosstalk/internal/batch"
	"github.com/dialect-labs/crosstalk/internal/config"
	"github.com/dialect-labs/crosstalk/internal/query"
	"github.com/dialect-labs/crosstalk/internal/server"
)

// version is set at build time via ldflags.
var version = "dev"

// @title       Crosstalk Annotation API
// @version     1.0
// @description Dialogue transcript annotation service: interview classification and per-utterance question/answer/interruption flags derived from a text-generation model.
// @BasePath    /
func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configFile := flag.String("config", "", "path to config file (e.g. configs/crosstalk.yaml)")
	serve := flag.Bool("serve", false, "run the HTTP annotation service instead of a batch run")
	inputDir := flag.String("input", "", "input folder of transcript JSON files (overrides config)")
	outputDir := flag.String("output", "", "output folder for annotated transcripts (overrides config)")
	start := flag.Int("start", 0, "start index of files to process")
	end := flag.Int("end", -1, "end index of files to process (exclusive, -1 means all)")
	flag.Parse()

	if *showVersion {
		fmt.Printf("crosstalk %s\n", version)
		os.Exit(0)
	}

	// Load configuration.
	cfg, err := config.Load(*configFile)
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Setup structured logging.
	config.SetupLogging(cfg.Logging)
	slog.Info("crosstalk starting", "version", version)

	// Create root context with signal handling for graceful shutdown.
	ctx, cancel := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize the model backend.
	var (
		b      backend.Backend
		target string
	)
	switch cfg.Backend {
	case "ollama":
		ob := ollama.New(cfg.Ollama, cfg.BackendTimeout)
		b, target = ob, ob.Host()
		slog.Info("using ollama backend", "host", ob.Host(), "model", cfg.Ollama.Model)
	case "openai":
		ob := openai.New(cfg.OpenAI, cfg.BackendTimeout)
		b, target = ob, ob.BaseURL()
		slog.Info("using openai backend", "base_url", ob.BaseURL(), "model", cfg.OpenAI.Model)
	default:
		slog.Error("unknown model backend", "backend", cfg.Backend)
		os.Exit(1)
	}
	defer b.Close()

	annotator := annotate.New(query.New(b, cfg.Annotate.MaxAttempts), annotate.Options{
		Window:           cfg.Annotate.Window,
		SampleUtterances: cfg.Annotate.SampleUtterances,
	})

	if *serve {
		runServe(ctx, cfg, annotator)
		return
	}

	bcfg := batch.Config{
		InputDir:  cfg.Batch.InputDir,
		OutputDir: cfg.Batch.OutputDir,
		Start:     *start,
		End:       *end,
		Target:    target,
	}
	if *inputDir != "" {
		bcfg.InputDir = *inputDir
	}
	if *outputDir != "" {
		bcfg.OutputDir = *outputDir
	}

	if err := batch.New(annotator, bcfg).Run(ctx); err != nil {
		slog.Error("batch run failed", "error", err)
		os.Exit(1)
	}
	slog.Info("crosstalk finished")
}

func runServe(ctx context.Context, cfg *config.Config, annotator *annotate.Annotator) {
	httpSrv := server.New(cfg.Server.HTTPPort, annotator)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := httpSrv.ListenAndServe(ctx); err != nil {
			slog.Error("http server failed", "error", err)
		}
	}()

	var grpcSrv *server.GRPCServer
	if cfg.Server.GRPC.Enabled {
		grpcSrv = server.NewGRPC(cfg.Server.GRPC.Port)
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := grpcSrv.ListenAndServe(ctx); err != nil {
				slog.Error("grpc server failed", "error", err)
			}
		}()
	}

	httpSrv.SetReady(true)
	if grpcSrv != nil {
		grpcSrv.SetServing(true)
	}
	slog.Info("crosstalk ready",
		"http_port", cfg.Server.HTTPPort,
		"grpc_enabled", cfg.Server.GRPC.Enabled)

	// Block until shutdown signal.
	<-ctx.Done()
	slog.Info("shutdown signal received, draining...")
	wg.Wait()
	slog.Info("crosstalk stopped")
}
