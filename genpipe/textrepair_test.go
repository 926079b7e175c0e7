package genpipe

import (
	"encoding/json"
	"testing"
)

func TestRepairText(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    string
		changed bool
	}{
		{
			"already valid",
			`{"a": 1}`,
			`{"a": 1}`,
			false,
		},
		{
			"markdown fence",
			"```json\n{\"a\": 1}\n```",
			`{"a": 1}`,
			true,
		},
		{
			"prose preamble",
			`Here is the JSON you asked for: {"a": 1} Hope that helps!`,
			`{"a": 1}`,
			true,
		},
		{
			"trailing comma in object",
			`{"a": 1,}`,
			`{"a": 1}`,
			true,
		},
		{
			"trailing comma in array",
			`{"a": [1, 2,]}`,
			`{"a": [1, 2]}`,
			true,
		},
		{
			"missing closing brace",
			`{"a": {"b": 1}`,
			`{"a": {"b": 1}}`,
			true,
		},
		{
			"truncated array",
			`{"a": [1, 2`,
			`{"a": [1, 2]}`,
			true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, changed := RepairText(tt.in)
			if got != tt.want {
				t.Errorf("RepairText(%q) = %q, want %q", tt.in, got, tt.want)
			}
			if changed != tt.changed {
				t.Errorf("RepairText(%q) changed = %v, want %v", tt.in, changed, tt.changed)
			}
		})
	}
}

func TestRepairTextControlChars(t *testing.T) {
	in := "{\"text\": \"line one\nline two\"}"
	got, changed := RepairText(in)
	if !changed {
		t.Fatal("expected repair to change the input")
	}
	var v map[string]any
	if err := json.Unmarshal([]byte(got), &v); err != nil {
		t.Fatalf("repaired text is not valid JSON: %v\n%s", err, got)
	}
	if v["text"] != "line one\nline two" {
		t.Errorf("unexpected repaired value %q", v["text"])
	}
}

func TestRepairTextProducesParseableOutput(t *testing.T) {
	// Repairs compose: fence + trailing comma + missing brace.
	in := "```json\n{\"title\": \"Intro\", \"topics\": [\"go\", \"testing\",]\n```"
	got, _ := RepairText(in)
	var v map[string]any
	if err := json.Unmarshal([]byte(got), &v); err != nil {
		t.Fatalf("repaired text is not valid JSON: %v\n%s", err, got)
	}
	if v["title"] != "Intro" {
		t.Errorf("content lost during repair: %#v", v)
	}
}

func TestRepairTextNonJSON(t *testing.T) {
	got, _ := RepairText("I cannot help with that request.")
	var v any
	if err := json.Unmarshal([]byte(got), &v); err == nil {
		t.Errorf("expected prose to stay unparseable, got %q", got)
	}
}
