// Package batch drives annotation over a folder of transcript files.
//
// Parallelism happens at the process level: each worker is launched with a
// disjoint start/end file range (and typically its own OLLAMA_HOST), so no
// coordination is needed between workers. Within a worker, files are
// processed one at a time.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/dialect-labs/crosstalk/internal/transcript"
)

// Annotator annotates one transcript in place.
type Annotator interface {
	Annotate(ctx context.Context, t *transcript.Transcript) error
}

// Config holds the settings for one batch run.
type Config struct {
	InputDir  string
	OutputDir string

	// Start and End bound the slice of the sorted file list this worker
	// owns. End is exclusive; a negative End means "through the last
	// file".
	Start int
	End   int

	// Target is the backend address, logged in the worker banner so run
	// logs show which model instance this worker hit.
	Target string
}

// Driver walks the input folder and writes an annotated copy of each
// transcript to the output folder.
type Driver struct {
	annotator Annotator
	cfg       Config
}

// New creates a batch driver.
func New(annotator Annotator, cfg Config) *Driver {
	return &Driver{annotator: annotator, cfg: cfg}
}

// Run processes this worker's file range. Unreadable input files are
// skipped with an error log and produce no output; model failures degrade
// to all-false annotations inside the annotator. Run only fails on startup
// validation, output write errors, and context cancellation.
func (d *Driver) Run(ctx context.Context) error {
	if _, err := os.Stat(d.cfg.InputDir); err != nil {
		return fmt.Errorf("input folder %q: %w", d.cfg.InputDir, err)
	}
	if err := os.MkdirAll(d.cfg.OutputDir, 0o755); err != nil {
		return fmt.Errorf("creating output folder: %w", err)
	}

	files, err := listTranscripts(d.cfg.InputDir)
	if err != nil {
		return err
	}

	total := len(files)
	start, end := clampRange(d.cfg.Start, d.cfg.End, total)
	if start >= total {
		slog.Info("start index beyond available files, nothing to do",
			"start", d.cfg.Start, "total_files", total)
		return nil
	}
	files = files[start:end]

	log := slog.With("run_id", uuid.NewString())
	log.Info("worker configuration",
		"target", d.cfg.Target,
		"total_files", total,
		"range_start", start,
		"range_end", end,
		"batch_size", len(files))

	for idx, name := range files {
		if err := ctx.Err(); err != nil {
			return err
		}
		log.Info("processing file", "file", name, "index", idx+1, "batch_size", len(files))
		if err := d.processFile(ctx, log, name); err != nil {
			return err
		}
	}

	log.Info("batch complete", "files", len(files))
	return nil
}

func (d *Driver) processFile(ctx context.Context, log *slog.Logger, name string) error {
	t, err := transcript.Load(filepath.Join(d.cfg.InputDir, name))
	if err != nil {
		log.Error("skipping unreadable input file", "file", name, "error", err)
		return nil
	}

	if err := d.annotator.Annotate(ctx, t); err != nil {
		return err
	}

	outPath := filepath.Join(d.cfg.OutputDir, name)
	if err := t.WriteFile(outPath); err != nil {
		return fmt.Errorf("saving %s: %w", name, err)
	}
	log.Info("saved annotated transcript", "file", name, "output", outPath)
	return nil
}

// listTranscripts returns the .json file names in dir. os.ReadDir yields
// names in sorted order, which keeps range sharding stable across workers.
func listTranscripts(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("listing input folder: %w", err)
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		files = append(files, e.Name())
	}
	return files, nil
}

func clampRange(start, end, total int) (int, int) {
	if start < 0 {
		start = 0
	}
	if end < 0 || end > total {
		end = total
	}
	if end < start {
		end = start
	}
	return start, end
}
