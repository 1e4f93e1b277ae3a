package scoring

import (
	"testing"
)

func TestParseFitScore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		raw    string
		expect int
	}{
		{name: "bare integer", raw: "87", expect: 87},
		{name: "bare float rounds", raw: "72.6", expect: 73},
		{name: "surrounding whitespace", raw: "  64 \n", expect: 64},
		{name: "json score field", raw: `{"score": 91}`, expect: 91},
		{name: "json response field", raw: `{"response": 42}`, expect: 42},
		{name: "score field wins over response", raw: `{"score": 80, "response": 10}`, expect: 80},
		{name: "string-typed score decodes weakly", raw: `{"score": "66"}`, expect: 66},
		{name: "code fenced number", raw: "```\n55\n```", expect: 55},
		{name: "json code fence", raw: "```json\n{\"score\": 77}\n```", expect: 77},
		{name: "clamped above range", raw: "250", expect: 100},
		{name: "clamped below range", raw: "-10", expect: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := ParseFitScore(tt.raw)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expect {
				t.Fatalf("expected %d, got %d", tt.expect, got)
			}
		})
	}
}

func TestParseFitScoreErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		raw  string
	}{
		{name: "empty", raw: ""},
		{name: "whitespace only", raw: "   \n"},
		{name: "prose", raw: "the candidate looks strong"},
		{name: "object without numeric field", raw: `{"verdict": "good"}`},
		{name: "non-numeric score", raw: `{"score": "very high"}`},
		{name: "array", raw: `[85]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			if _, err := ParseFitScore(tt.raw); err == nil {
				t.Fatalf("expected error for %q", tt.raw)
			}
		})
	}
}
