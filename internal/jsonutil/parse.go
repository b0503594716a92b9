// Package jsonutil handles the one formatting quirk the vision models are
// allowed: wrapping a JSON response in a markdown code fence. Anything beyond
// that (prose around the JSON, truncated objects) is treated as a malformed
// response; no partial recovery is attempted.
package jsonutil

import (
	"encoding/json"
	"strings"
)

// StripFence removes a single leading/trailing ```json ... ``` (or bare
// ```) code fence from text. Text without a fence is returned trimmed but
// otherwise unchanged.
func StripFence(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}

	lines := strings.Split(text, "\n")
	if len(lines) < 2 {
		return text
	}

	// Drop the opening fence line (``` or ```json).
	lines = lines[1:]

	// Drop the closing fence line if present.
	if strings.TrimSpace(lines[len(lines)-1]) == "```" {
		lines = lines[:len(lines)-1]
	}

	return strings.TrimSpace(strings.Join(lines, "\n"))
}

// Parse strips an optional code fence from raw model output and validates
// that the remainder is a single well-formed JSON value. It returns the
// unfenced JSON bytes ready for a typed json.Unmarshal.
func Parse(raw string) (json.RawMessage, error) {
	text := StripFence(raw)

	var probe any
	if err := json.Unmarshal([]byte(text), &probe); err != nil {
		return nil, err
	}
	return json.RawMessage(text), nil
}
