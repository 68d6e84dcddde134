package protocol

import (
	"encoding/json"
	"strings"

	"github.com/tidwall/gjson"
)

// OutputText extracts the human-readable text of a tool result payload.
// The server usually sends a JSON string, but older event shapes carry
// arbitrary JSON values; those are returned in compact serialized form.
func OutputText(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

// ParseOutput attempts to interpret a tool output string as structured
// JSON. Some server tools stringify their output with single quotes
// (Python repr style); those are retried with the quote style
// substituted. On any failure the caller should fall back to the raw
// string; this function never reports an error.
func ParseOutput(s string) (any, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, false
	}

	if gjson.Valid(s) {
		return parseJSON(s)
	}

	// Retry with single quotes swapped for double quotes. Crude, but
	// the fallback to the raw string keeps false negatives harmless.
	swapped := strings.ReplaceAll(s, "'", `"`)
	if gjson.Valid(swapped) {
		return parseJSON(swapped)
	}

	return nil, false
}

func parseJSON(s string) (any, bool) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, false
	}
	// A bare scalar parses as JSON but carries no structure worth
	// surfacing over the raw string.
	switch v.(type) {
	case map[string]any, []any:
		return v, true
	default:
		return nil, false
	}
}
