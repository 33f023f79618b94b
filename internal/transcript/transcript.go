// Package transcript defines the dialogue transcript document model.
//
// Transcripts arrive as JSON documents produced by upstream collection jobs
// and routinely carry fields this pipeline knows nothing about. The codec
// keeps every input field verbatim and only adds or overwrites the
// annotation fields the pipeline owns (isInterview, isQuestion, isAnswer,
// isLastSentenceInterrupted). Everything else round-trips untouched.
package transcript

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
)

// UnknownSpeaker is the label used when an utterance has no speaker field.
const UnknownSpeaker = "Unknown"

// Utterance is one speaker turn in a transcript.
type Utterance struct {
	Speaker   string
	Sentences string

	// Annotation flags. IsQuestion and IsAnswer are emitted once the
	// utterance has been classified; Interrupted is emitted only when an
	// interruption was detected or the input already carried the field.
	IsQuestion  bool
	IsAnswer    bool
	Interrupted bool

	hasSpeaker     bool
	annotated      bool
	interruptedSet bool
	raw            map[string]json.RawMessage
}

// NewUtterance builds an utterance from scratch, as opposed to decoding one
// from an input document.
func NewUtterance(speaker, sentences string) *Utterance {
	u := &Utterance{
		Speaker:    speaker,
		Sentences:  sentences,
		hasSpeaker: true,
		raw:        make(map[string]json.RawMessage, 2),
	}
	u.raw["speaker"], _ = marshalCompact(speaker)
	u.raw["sentences"], _ = marshalCompact(sentences)
	return u
}

// SpeakerLabel returns the speaker name, or the "Unknown" sentinel when the
// input document had no speaker field at all. An empty speaker string on a
// present field is returned as-is.
func (u *Utterance) SpeakerLabel() string {
	if !u.hasSpeaker {
		return UnknownSpeaker
	}
	return u.Speaker
}

// SetAnnotations records the classification result for this utterance. After
// the call both flags are present on the marshalled output.
func (u *Utterance) SetAnnotations(isQuestion, isAnswer bool) {
	u.IsQuestion = isQuestion
	u.IsAnswer = isAnswer
	u.annotated = true
}

// MarkInterrupted flags this utterance's last sentence as cut off by the
// following speaker.
func (u *Utterance) MarkInterrupted() {
	u.Interrupted = true
	u.interruptedSet = true
}

// UnmarshalJSON decodes the known fields and retains every input field
// verbatim for re-emission.
func (u *Utterance) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	u.raw = m
	if v, ok := m["speaker"]; ok {
		u.hasSpeaker = true
		_ = json.Unmarshal(v, &u.Speaker)
	}
	if v, ok := m["sentences"]; ok {
		_ = json.Unmarshal(v, &u.Sentences)
	}
	if v, ok := m["isQuestion"]; ok {
		_ = json.Unmarshal(v, &u.IsQuestion)
	}
	if v, ok := m["isAnswer"]; ok {
		_ = json.Unmarshal(v, &u.IsAnswer)
	}
	if v, ok := m["isLastSentenceInterrupted"]; ok {
		_ = json.Unmarshal(v, &u.Interrupted)
	}
	return nil
}

// MarshalJSON re-emits the original fields plus the annotation fields owned
// by the pipeline.
func (u *Utterance) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(u.raw)+3)
	for k, v := range u.raw {
		out[k] = v
	}
	if u.annotated {
		out["isQuestion"] = jsonBool(u.IsQuestion)
		out["isAnswer"] = jsonBool(u.IsAnswer)
	}
	if u.interruptedSet {
		out["isLastSentenceInterrupted"] = jsonBool(u.Interrupted)
	}
	return marshalCompact(out)
}

// Transcript is one dialogue document: a headline, an ordered utterance
// sequence, and the derived interview flag.
type Transcript struct {
	Headline    string
	Utterances  []*Utterance
	IsInterview bool

	interviewSet  bool
	hasUtterances bool
	raw           map[string]json.RawMessage
}

// SetInterview records the transcript-level interview classification. The
// flag is emitted on output once set.
func (t *Transcript) SetInterview(v bool) {
	t.IsInterview = v
	t.interviewSet = true
}

// UnmarshalJSON decodes the known fields and retains every input field
// verbatim for re-emission.
func (t *Transcript) UnmarshalJSON(data []byte) error {
	var m map[string]json.RawMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return err
	}
	t.raw = m
	if v, ok := m["headline"]; ok {
		_ = json.Unmarshal(v, &t.Headline)
	}
	if v, ok := m["utterances"]; ok {
		t.hasUtterances = true
		if err := json.Unmarshal(v, &t.Utterances); err != nil {
			return fmt.Errorf("decoding utterances: %w", err)
		}
	}
	if v, ok := m["isInterview"]; ok {
		_ = json.Unmarshal(v, &t.IsInterview)
	}
	return nil
}

// MarshalJSON re-emits the original fields, the annotated utterance
// sequence, and the interview flag once it has been set. A document that
// never had an utterances field does not gain one.
func (t *Transcript) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.RawMessage, len(t.raw)+2)
	for k, v := range t.raw {
		out[k] = v
	}
	if t.hasUtterances || len(t.Utterances) > 0 {
		us, err := marshalCompact(t.Utterances)
		if err != nil {
			return nil, fmt.Errorf("encoding utterances: %w", err)
		}
		out["utterances"] = us
	}
	if t.interviewSet {
		out["isInterview"] = jsonBool(t.IsInterview)
	}
	return marshalCompact(out)
}

// Encode renders the transcript as two-space-indented JSON, the format the
// downstream analysis jobs consume.
func (t *Transcript) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(t); err != nil {
		return nil, fmt.Errorf("encoding transcript: %w", err)
	}
	return buf.Bytes(), nil
}

// Load reads and decodes a transcript document from disk.
func Load(path string) (*Transcript, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading transcript: %w", err)
	}
	var t Transcript
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("parsing transcript: %w", err)
	}
	return &t, nil
}

// WriteFile persists the transcript to disk in the indented output format.
func (t *Transcript) WriteFile(path string) error {
	data, err := t.Encode()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing transcript: %w", err)
	}
	return nil
}

func jsonBool(v bool) json.RawMessage {
	if v {
		return json.RawMessage("true")
	}
	return json.RawMessage("false")
}

// marshalCompact marshals without HTML escaping so transcript text is not
// rewritten as < escapes on round-trip.
func marshalCompact(v any) (json.RawMessage, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
