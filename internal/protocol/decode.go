package protocol

import (
	"encoding/json"
	"errors"
)

// ErrUnrecognizedFrame is returned for a frame that decodes as JSON but
// carries neither a type discriminator nor any recognizable bare field.
var ErrUnrecognizedFrame = errors.New("unrecognized frame shape")

// legacyFrame covers the older supervisor stream shapes that key the
// whole frame on a single field instead of a type discriminator.
type legacyFrame struct {
	Text     string `json:"text,omitempty"`
	ToolCall *struct {
		Tool      string          `json:"tool"`
		Arguments json.RawMessage `json:"arguments"`
		CallID    string          `json:"call_id"`
	} `json:"tool_call,omitempty"`
	ToolOutput *struct {
		CallID string          `json:"call_id"`
		Output json.RawMessage `json:"output"`
	} `json:"tool_output,omitempty"`
}

// DecodeEvent decodes one frame payload into a typed Event.
//
// Frames without a "type" discriminator are normalized rather than
// discarded: a bare session_id/trace_id announcement becomes an
// EventSession, a bare {"done": true} marker becomes an EventDone, a
// bare {"error": ...} becomes an EventError, and the legacy
// text/tool_call/tool_output shapes map onto their typed equivalents.
// Unknown "type" values pass through untouched so new server events
// degrade to no-ops instead of decode errors.
func DecodeEvent(data []byte) (*Event, error) {
	var ev Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if ev.Type != "" {
		return &ev, nil
	}

	switch {
	case ev.Done:
		ev.Type = EventDone
		if ev.Reason == "" {
			ev.Reason = ReasonDone
		}
	case ev.Err != "":
		ev.Type = EventError
	case ev.SessionID != "" || ev.TraceID != "":
		ev.Type = EventSession
	default:
		return decodeLegacy(data)
	}
	return &ev, nil
}

func decodeLegacy(data []byte) (*Event, error) {
	var lf legacyFrame
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, err
	}

	switch {
	case lf.Text != "":
		return &Event{Type: EventText, Content: lf.Text}, nil
	case lf.ToolCall != nil:
		return &Event{
			Type:      EventToolCallStart,
			Tool:      lf.ToolCall.Tool,
			Arguments: lf.ToolCall.Arguments,
			CallID:    lf.ToolCall.CallID,
		}, nil
	case lf.ToolOutput != nil:
		return &Event{
			Type:   EventToolCallEnd,
			CallID: lf.ToolOutput.CallID,
			Result: lf.ToolOutput.Output,
		}, nil
	}
	return nil, ErrUnrecognizedFrame
}
