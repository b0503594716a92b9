package jsonutil

import "testing"

func TestStripFence(t *testing.T) {
	tests := map[string]struct {
		in   string
		want string
	}{
		"json fence":     {"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		"bare fence":     {"```\n{\"a\": 1}\n```", `{"a": 1}`},
		"no fence":       {"  {\"a\": 1}\n", `{"a": 1}`},
		"missing close":  {"```json\n{\"a\": 1}", `{"a": 1}`},
		"multiline body": {"```json\n{\n  \"a\": 1\n}\n```", "{\n  \"a\": 1\n}"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			if got := StripFence(tc.in); got != tc.want {
				t.Errorf("StripFence(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestParseFencedObject(t *testing.T) {
	raw, err := Parse("```json\n{\"clips\": []}\n```")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != `{"clips": []}` {
		t.Errorf("unexpected raw JSON: %s", raw)
	}
}

func TestParseRejectsProse(t *testing.T) {
	if _, err := Parse("Here is the JSON you asked for: {\"a\": 1}"); err == nil {
		t.Fatal("expected error for JSON embedded in prose")
	}
}

func TestParseRejectsTruncated(t *testing.T) {
	if _, err := Parse("{\"timestamp\": {\"start_seconds\": 5."); err == nil {
		t.Fatal("expected error for truncated JSON")
	}
}
