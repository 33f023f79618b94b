package annotate

import (
	"fmt"
	"strings"

	"github.com/dialect-labs/crosstalk/internal/transcript"
)

// The prompt wording is load-bearing: it was tuned against llama3-class
// models and the classifier's accuracy degrades when the slot labels or
// rule phrasing change. Keep edits to these templates deliberate.

const interviewPromptTemplate = `You are an expert linguistic data processor. I am providing a sample of a transcript.

HEADLINE: %s
TRANSCRIPT SAMPLE:
%s

Your Task:
Analyze the text context and determine the "isInterview" status based on this rule:
- Set to true if the transcript represents a conversation/interview (Host vs Guest).
- Set to false if it is a monologue or report.

Return ONLY a valid JSON object, no markdown, no extra text:
{ "isInterview": true }`

const wideWindowPromptTemplate = `You are an expert linguistic data processor. Analyze this conversation flow centered on the CURRENT SPEAKER.

--- CONTEXT WINDOW ---
1. PRE-PREVIOUS SPEAKER (%s): "%s"
2. PREVIOUS SPEAKER (%s): "%s"

>>> 3. CURRENT SPEAKER (%s) [ANALYZE THIS]: "%s" <<<

4. NEXT SPEAKER (%s): "%s"
----------------------

Your Task:
Analyze the "CURRENT SPEAKER" text based on the surrounding context and return a JSON object with booleans updated correctly based on these rules:

1. "isQuestion": Set to true if the CURRENT SPEAKER is asking a question.
2. "isAnswer": Set to true if the CURRENT SPEAKER is responding to a question posed by the PREVIOUS or PRE-PREVIOUS speaker.
3. "didInterrupt": Set to true ONLY if the CURRENT SPEAKER cut off or interrupted the PREVIOUS SPEAKER (implying the PREVIOUS SPEAKER's sentence was left incomplete).

Return ONLY a valid JSON object. Do not write explanations.
Example format:
{
  "isQuestion": true,
  "isAnswer": false,
  "didInterrupt": false
}`

const narrowWindowPromptTemplate = `Analyze this conversation flow.

PREVIOUS SPEAKER (%s): "%s"
CURRENT SPEAKER (%s): "%s"

Task:
1. Is CURRENT SPEAKER asking a question? (isQuestion)
2. Is CURRENT SPEAKER answering a previous question? (isAnswer)
3. Did CURRENT SPEAKER interrupt? (didInterrupt)

Return ONLY a valid JSON object. Do not write explanations.
Example format:
{
  "isQuestion": true,
  "isAnswer": false,
  "didInterrupt": false
}`

// interviewPrompt renders the transcript-level classification prompt from
// the headline and the sample block.
func interviewPrompt(headline, sample string) string {
	return fmt.Sprintf(interviewPromptTemplate, headline, sample)
}

// interviewSample renders up to limit utterances as "Speaker X: text" lines
// for the interview-classification prompt.
func interviewSample(us []*transcript.Utterance, limit int) string {
	var sb strings.Builder
	for i, u := range us {
		if i >= limit {
			break
		}
		fmt.Fprintf(&sb, "Speaker %s: %s\n", u.SpeakerLabel(), u.Sentences)
	}
	return sb.String()
}

// Prompt renders the utterance-classification prompt for this window.
func (w Window) Prompt() string {
	if !w.Wide {
		return fmt.Sprintf(narrowWindowPromptTemplate,
			w.Prev.Speaker, w.Prev.Text,
			w.Current.Speaker, w.Current.Text)
	}
	return fmt.Sprintf(wideWindowPromptTemplate,
		w.PrePrev.Speaker, w.PrePrev.Text,
		w.Prev.Speaker, w.Prev.Text,
		w.Current.Speaker, w.Current.Text,
		w.Next.Speaker, w.Next.Text)
}
