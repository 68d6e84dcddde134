package protocol

import (
	"encoding/json"
	"testing"
)

func TestOutputText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"json string", `"3 pods"`, "3 pods"},
		{"empty", ``, ""},
		{"object passthrough", `{"count":3}`, `{"count":3}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := OutputText(json.RawMessage(tt.raw)); got != tt.want {
				t.Errorf("OutputText(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestParseOutput(t *testing.T) {
	v, ok := ParseOutput(`{"todo": {"id": "1", "content": "check pods"}}`)
	if !ok {
		t.Fatal("well-formed JSON not parsed")
	}
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("parsed value is %T, want map", v)
	}
	if _, ok := m["todo"]; !ok {
		t.Error("todo key missing")
	}
}

func TestParseOutputSingleQuotes(t *testing.T) {
	v, ok := ParseOutput(`{'todo': {'id': '1', 'status': 'pending'}}`)
	if !ok {
		t.Fatal("single-quoted JSON should parse after quote substitution")
	}
	if _, ok := v.(map[string]any); !ok {
		t.Fatalf("parsed value is %T, want map", v)
	}
}

func TestParseOutputFallsBack(t *testing.T) {
	if _, ok := ParseOutput("3 pods are running"); ok {
		t.Error("plain text must not parse as structured output")
	}
	if _, ok := ParseOutput(""); ok {
		t.Error("empty string must not parse")
	}
	// Scalars are valid JSON but carry no structure.
	if _, ok := ParseOutput("42"); ok {
		t.Error("bare scalar must not be treated as structured output")
	}
}
