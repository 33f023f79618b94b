// Package extract pulls a JSON object out of free-form model output.
//
// Generation models wrap their answers in conversational filler, markdown
// fences, and reasoning traces. Extraction layers three passes: strip
// <think> blocks, prefer a fenced code block, then fall back to the span
// between the first '{' and the last '}'. Failure at any layer yields
// "no result" rather than an error.
package extract

import (
	"encoding/json"
	"regexp"
	"strings"
)

var (
	thinkRE = regexp.MustCompile(`(?s)<think>.*?</think>`)
	fenceRE = regexp.MustCompile("(?s)```(?:json)?\\s*(\\{.*?\\})\\s*```")
)

// Object coerces raw model output into a JSON object. The second return
// value reports whether extraction succeeded; a false return is the normal
// outcome for unusable output, never a panic or error.
//
// A matched fence whose body fails to parse ends extraction immediately.
// Falling through to the brace scan there would risk gluing together
// fragments of unrelated objects, so the fence match is authoritative.
func Object(raw string) (map[string]any, bool) {
	cleaned := thinkRE.ReplaceAllString(raw, "")

	if m := fenceRE.FindStringSubmatch(cleaned); m != nil {
		return parseObject(m[1])
	}

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end <= start {
		return nil, false
	}
	return parseObject(cleaned[start : end+1])
}

func parseObject(s string) (map[string]any, bool) {
	var obj map[string]any
	if err := json.Unmarshal([]byte(s), &obj); err != nil {
		return nil, false
	}
	return obj, true
}

// Bool reads a boolean field from an extracted object, defaulting to false
// when the field is missing or not a boolean. Partial objects are accepted
// rather than rejected.
func Bool(obj map[string]any, field string) bool {
	v, ok := obj[field].(bool)
	return ok && v
}
