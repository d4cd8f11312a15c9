// Package extract pulls structured data out of free-form model replies.
// Model output is prose-first: JSON may arrive bare, wrapped in a fenced
// code block, or surrounded by reasoning text, and the final answer may be
// wrapped in a <response> span. Both "no fence" and "no span" are the
// common case, not errors.
package extract

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind classifies an extraction failure.
type Kind string

const (
	// KindMalformedOutput means the reply could not be parsed as the
	// expected structure at all.
	KindMalformedOutput Kind = "malformed_output"
	// KindMissingField means the structure parsed but lacks required
	// top-level keys.
	KindMissingField Kind = "missing_field"
)

// Error is a tagged extraction failure. Consumers branch on Kind and are
// expected to supply a fallback value for KindMalformedOutput.
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("extract: %s: %s: %v", e.Kind, e.Msg, e.Err)
	}
	return fmt.Sprintf("extract: %s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error { return e.Err }

const (
	responseOpen  = "<response>"
	responseClose = "</response>"
)

// ResponseSpan returns the text enclosed in the first <response> span,
// trimmed, discarding any reasoning outside it. When the span is absent the
// full reply is returned verbatim — the usual path for models that answer
// without the delimiter.
func ResponseSpan(raw string) string {
	start := strings.Index(raw, responseOpen)
	if start < 0 {
		return raw
	}
	rest := raw[start+len(responseOpen):]
	end := strings.Index(rest, responseClose)
	if end < 0 {
		return raw
	}
	return strings.TrimSpace(rest[:end])
}

// FencedJSON parses a JSON object from the reply. A fenced code block, with
// or without a language tag, is unwrapped first; otherwise the whole reply
// is parsed. Parse failures come back as *Error with KindMalformedOutput.
func FencedJSON(raw string) (map[string]any, error) {
	candidate := unfence(raw)

	var obj map[string]any
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil, &Error{Kind: KindMalformedOutput, Msg: "reply is not a JSON object", Err: err}
	}
	return obj, nil
}

// RequireKeys checks that every named top-level key is present in obj,
// returning a *Error with KindMissingField on the first absence.
func RequireKeys(obj map[string]any, keys ...string) error {
	for _, k := range keys {
		if _, ok := obj[k]; !ok {
			return &Error{Kind: KindMissingField, Msg: fmt.Sprintf("missing required key %q", k)}
		}
	}
	return nil
}

// unfence returns the content of the first fenced code block, or the input
// unchanged when no complete fence is found.
func unfence(raw string) string {
	start := strings.Index(raw, "```")
	if start < 0 {
		return strings.TrimSpace(raw)
	}
	rest := raw[start+3:]

	// Skip a language tag up to the first newline ("json", "JSON", ...).
	if nl := strings.IndexByte(rest, '\n'); nl >= 0 {
		tag := strings.TrimSpace(rest[:nl])
		if tag != "" && !strings.ContainsAny(tag, "{[") {
			rest = rest[nl+1:]
		}
	}

	end := strings.Index(rest, "```")
	if end < 0 {
		return strings.TrimSpace(raw)
	}
	return strings.TrimSpace(rest[:end])
}
