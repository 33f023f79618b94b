// Package annotate derives conversational metadata for dialogue transcripts
// by querying a text-generation model.
//
// Annotation runs in two phases. Phase one classifies the whole transcript
// as interview or monologue from the headline and an utterance sample.
// Phase two walks the utterances strictly in order, classifying each one
// inside a bounded context window; an utterance that interrupted its
// predecessor retroactively flags that predecessor, which is why the pass
// cannot be parallelized within a transcript.
package annotate

import (
	"context"
	"log/slog"

	"github.com/dialect-labs/crosstalk/internal/backend"
	"github.com/dialect-labs/crosstalk/internal/extract"
	"github.com/dialect-labs/crosstalk/internal/query"
	"github.com/dialect-labs/crosstalk/internal/transcript"
)

// DefaultSampleUtterances bounds the transcript prefix shown to the
// interview classifier.
const DefaultSampleUtterances = 6

// Options configures an Annotator.
type Options struct {
	// Window selects the context-window shape: 2 or 4 slots. Anything
	// else falls back to the four-slot shape.
	Window int

	// SampleUtterances caps the prefix rendered into the interview
	// classification sample. Zero means the default.
	SampleUtterances int
}

// Annotator annotates transcripts in place using a query client.
type Annotator struct {
	client *query.Client
	wide   bool
	sample int
}

// New creates an annotator.
func New(client *query.Client, opts Options) *Annotator {
	sample := opts.SampleUtterances
	if sample <= 0 {
		sample = DefaultSampleUtterances
	}
	return &Annotator{
		client: client,
		wide:   opts.Window != 2,
		sample: sample,
	}
}

// Annotate mutates the transcript with the derived annotation fields. Model
// failures never abort the pass; the only error returned is context
// cancellation, checked between utterances so a shutdown signal stops the
// run promptly.
func (a *Annotator) Annotate(ctx context.Context, t *transcript.Transcript) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.SetInterview(a.classifyInterview(ctx, t))
	slog.Info("interview status determined", "is_interview", t.IsInterview)

	slog.Info("classifying utterances", "count", len(t.Utterances))
	for i, u := range t.Utterances {
		if err := ctx.Err(); err != nil {
			return err
		}

		w := BuildWindow(t.Utterances, i, a.wide)
		obj, ok := a.client.JSON(ctx, userMessage(w.Prompt()))
		if !ok {
			u.SetAnnotations(false, false)
			continue
		}

		u.SetAnnotations(extract.Bool(obj, "isQuestion"), extract.Bool(obj, "isAnswer"))
		if extract.Bool(obj, "didInterrupt") && i > 0 {
			t.Utterances[i-1].MarkInterrupted()
		}
	}
	return nil
}

// classifyInterview runs phase one. Monologue is the safer fallback, so any
// failure to get a usable boolean out of the model defaults to false.
func (a *Annotator) classifyInterview(ctx context.Context, t *transcript.Transcript) bool {
	prompt := interviewPrompt(t.Headline, interviewSample(t.Utterances, a.sample))
	obj, ok := a.client.JSON(ctx, userMessage(prompt))
	if ok {
		if v, isBool := obj["isInterview"].(bool); isBool {
			return v
		}
	}
	slog.Warn("interview status could not be determined, defaulting to false")
	return false
}

func userMessage(content string) []backend.Message {
	return []backend.Message{{Role: "user", Content: content}}
}
