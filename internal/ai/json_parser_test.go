package ai

import (
	"encoding/json"
	"strings"
	"testing"
)

type testEstimate struct {
	Odds      float64 `json:"odds"`
	Cost      float64 `json:"cost"`
	Reasoning string  `json:"reasoning"`
}

func TestParse_DirectJSON(t *testing.T) {
	result := Parse[testEstimate](`{"odds": 0.7, "cost": 0.05, "reasoning": "cheap grep"}`)

	if !result.Success {
		t.Fatalf("Expected successful parse, got error: %s", result.Error)
	}
	if result.Data.Odds != 0.7 || result.Data.Cost != 0.05 {
		t.Errorf("Unexpected data: %+v", result.Data)
	}
}

func TestParse_EmptyInput(t *testing.T) {
	result := Parse[testEstimate]("   ")

	if result.Success {
		t.Error("Expected parse to fail on empty input")
	}
	if result.Error != "empty input" {
		t.Errorf("Expected 'empty input' error, got: %s", result.Error)
	}
}

func TestParse_WithCodeFences(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "json fence", input: "```json\n{\"odds\": 0.5, \"cost\": 0.1}\n```"},
		{name: "generic fence", input: "```\n{\"odds\": 0.5, \"cost\": 0.1}\n```"},
		{name: "no newlines", input: "```json{\"odds\": 0.5, \"cost\": 0.1}```"},
		{
			name:  "with preamble",
			input: "Here's my estimate:\n```json\n{\"odds\": 0.5, \"cost\": 0.1}\n```\nLet me know!",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse[testEstimate](tt.input)
			if !result.Success {
				t.Fatalf("Expected successful parse, got error: %s", result.Error)
			}
			if result.Data.Odds != 0.5 {
				t.Errorf("Expected odds 0.5, got %v", result.Data.Odds)
			}
		})
	}
}

func TestParse_Cleanup(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{name: "trailing comma in object", input: `{"odds": 0.5, "cost": 0.1,}`},
		{name: "trailing comma in array", input: `{"items": [1, 2, 3,]}`},
		{
			name: "nested trailing commas",
			input: `{
				"odds": 0.5,
				"nested": {
					"a": 1,
				},
			}`,
		},
		{name: "unquoted keys", input: `{odds: 0.5, cost: 0.1}`},
		{
			name: "line comments",
			input: `{
				// estimate follows
				"odds": 0.5, // fairly likely
				"cost": 0.1
			}`,
		},
		{
			name: "comment before closing brace",
			input: `{
				"odds": 0.5,
				"cost": 0.1, // cheap
			}`,
		},
		{name: "block comment", input: `{"odds": 0.5, /* rough */ "cost": 0.1}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Parse[map[string]any](tt.input)
			if !result.Success {
				t.Fatalf("Expected successful parse after cleanup, got error: %s", result.Error)
			}
		})
	}
}

func TestParse_KeepsURLsInStrings(t *testing.T) {
	input := "```json\n" + `{"experiments": [{"description": "hit the health endpoint", "command": "curl -s http://localhost:8080/health",}]}` + "\n```"

	result := Parse[experimentsResponse](input)
	if !result.Success {
		t.Fatalf("Expected successful parse, got error: %s", result.Error)
	}
	if got := result.Data.Experiments[0].Command; got != "curl -s http://localhost:8080/health" {
		t.Errorf("command was mangled: %q", got)
	}
}

func TestParse_MixedContent(t *testing.T) {
	input := `I brainstormed ten theories and kept the likely ones.

		{"theories": [{"description": "writer drops theme fonts", "odds": 0.6}]}

		Hope this helps.`

	result := Parse[theoriesResponse](input)
	if !result.Success {
		t.Fatalf("Expected successful parse from mixed content, got error: %s", result.Error)
	}
	if len(result.Data.Theories) != 1 {
		t.Errorf("Expected 1 theory, got %d", len(result.Data.Theories))
	}
}

func TestParse_ArrayInMixedContent(t *testing.T) {
	result := Parse[any]("Results: [1, 2, 3, 4, 5]\n\t\tDone.")

	if !result.Success {
		t.Fatalf("Expected successful parse from mixed content, got error: %s", result.Error)
	}
	arr, ok := result.Data.([]any)
	if !ok {
		t.Fatalf("Expected array, got %T", result.Data)
	}
	if len(arr) != 5 {
		t.Errorf("Expected 5 items, got %d", len(arr))
	}
}

func TestParse_DisableCleanup(t *testing.T) {
	result := Parse[map[string]any]("```json\n{\"test\": true}\n```", ParseOptions{DisableCleanup: true, Quiet: true})

	if result.Success {
		t.Error("Expected parse to fail with cleanup disabled")
	}
}

func TestParse_WithContext(t *testing.T) {
	result := Parse[map[string]any](`invalid json`, ParseOptions{Context: "estimate response", Quiet: true})

	if result.Success {
		t.Error("Expected parse to fail")
	}
	if !strings.HasPrefix(result.Error, "estimate response: ") {
		t.Errorf("Expected error to include context, got: %s", result.Error)
	}
	if result.OriginalText != "invalid json" {
		t.Errorf("Expected original text to be kept, got: %q", result.OriginalText)
	}
}

func TestParse_SizeLimit(t *testing.T) {
	big := `{"summary": "` + strings.Repeat("x", 200) + `"}`

	result := Parse[map[string]any](big, ParseOptions{MaxInputSize: 100, Quiet: true})
	if result.Success {
		t.Fatal("Expected parse to fail over the size limit")
	}
	if !strings.Contains(result.Error, "size limit") {
		t.Errorf("Expected size limit error, got: %s", result.Error)
	}

	unlimited := Parse[map[string]any](big, ParseOptions{MaxInputSize: -1})
	if !unlimited.Success {
		t.Errorf("Expected unlimited parse to succeed, got: %s", unlimited.Error)
	}
}

func TestRemoveCodeFences(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"```json\n{\"a\": 1}\n```", `{"a": 1}`},
		{"```\n[1]\n```", `[1]`},
		{"`{\"a\": 1}`", `{"a": 1}`},
		{`{"a": 1}`, `{"a": 1}`},
	}

	for _, tt := range tests {
		if got := removeCodeFences(tt.input); got != tt.expected {
			t.Errorf("removeCodeFences(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		hasMatch bool
	}{
		{name: "object in text", input: `Some text {"key": "value"} more text`, hasMatch: true},
		{name: "array in text", input: `Results: [1, 2, 3] end`, hasMatch: true},
		{name: "array of objects", input: `[{"id": 1}, {"id": 2}]`, hasMatch: true},
		{name: "no JSON", input: `Just plain text`, hasMatch: false},
		{name: "nested", input: `Text {"outer": {"inner": "value"}} end`, hasMatch: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := extractJSON(tt.input)

			if tt.hasMatch && result == "" {
				t.Fatal("Expected to extract JSON, got empty string")
			}
			if !tt.hasMatch && result != "" {
				t.Fatalf("Expected empty string, got: %s", result)
			}
			if result != "" {
				var parsed any
				if err := json.Unmarshal([]byte(result), &parsed); err != nil {
					t.Errorf("Extracted content is not valid JSON: %v\nExtracted: %s", err, result)
				}
			}
		})
	}

	if got := extractJSON(`[{"id": 1}, {"id": 2}]`); got != `[{"id": 1}, {"id": 2}]` {
		t.Errorf("array of objects cut short: %s", got)
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		input    string
		maxLen   int
		expected string
	}{
		{"hello", 10, "hello"},
		{"hello", 5, "hello"},
		{"hello world", 5, "hello..."},
		{"héllo", 2, "h..."},
	}

	for _, tt := range tests {
		if got := truncate(tt.input, tt.maxLen); got != tt.expected {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.input, tt.maxLen, got, tt.expected)
		}
	}
}
