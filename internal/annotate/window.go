package annotate

import "github.com/dialect-labs/crosstalk/internal/transcript"

// absentSlot fills window slots that have no utterance behind them, so the
// classifier can tell "no such utterance" apart from an empty utterance.
const absentSlot = "N/A"

// Slot is one position in a context window.
type Slot struct {
	Speaker string
	Text    string
	// Present reports whether an utterance backs this slot. When false,
	// Speaker and Text carry the not-applicable sentinel.
	Present bool
}

func slotAt(us []*transcript.Utterance, i int) Slot {
	if i < 0 || i >= len(us) {
		return Slot{Speaker: absentSlot, Text: absentSlot}
	}
	return Slot{Speaker: us[i].SpeakerLabel(), Text: us[i].Sentences, Present: true}
}

// Window is the bounded set of neighboring utterances handed to the
// classifier alongside the target utterance. Wide selects the four-slot
// shape (pre-previous, previous, current, next); otherwise only the
// previous and current slots are rendered.
type Window struct {
	PrePrev Slot
	Prev    Slot
	Current Slot
	Next    Slot
	Wide    bool
}

// BuildWindow assembles the context window for the utterance at index i.
// Slots that fall outside the sequence carry the not-applicable sentinel.
func BuildWindow(us []*transcript.Utterance, i int, wide bool) Window {
	return Window{
		PrePrev: slotAt(us, i-2),
		Prev:    slotAt(us, i-1),
		Current: slotAt(us, i),
		Next:    slotAt(us, i+1),
		Wide:    wide,
	}
}
