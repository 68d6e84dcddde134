// Package session holds the per-conversation mutable state accumulated
// from one event stream: message parts in arrival order, todo list,
// usage counters and the completion flag. The stream driver is the sole
// writer; a Session is never shared across streams.
package session

import (
	"strings"

	"github.com/google/uuid"

	"github.com/agentkube/assistant/internal/protocol"
)

// PartType discriminates accumulated message parts.
type PartType string

const (
	PartText      PartType = "text"
	PartReasoning PartType = "reasoning"
	PartTool      PartType = "tool"
)

// Part is one ordered piece of the assistant's response. Text parts
// grow as chunks stream in; a tool part marks where a tool call
// interrupted the text.
type Part struct {
	ID      string   `json:"id"`
	Type    PartType `json:"type"`
	Content string   `json:"content,omitempty"`
	CallID  string   `json:"call_id,omitempty"`
	Tool    string   `json:"tool,omitempty"`
}

// Session is the state of one conversation stream.
type Session struct {
	id      string
	traceID string

	parts   []Part
	current *Part // text part currently being streamed

	todos *TodoList

	usage    protocol.TokenUsage
	hasUsage bool

	done bool
}

// New creates an empty session. The id is filled in from the server's
// first metadata frame when not known up front.
func New(id string) *Session {
	return &Session{id: id, todos: NewTodoList()}
}

// ID returns the server-assigned session id.
func (s *Session) ID() string { return s.id }

// TraceID returns the trace id announced by the server. The approval
// side channel keys on the session id even though its wire field is
// named trace_id.
func (s *Session) TraceID() string { return s.traceID }

// Apply folds one decoded event into the session state.
func (s *Session) Apply(ev *protocol.Event) {
	switch ev.Type {
	case protocol.EventSession:
		if ev.SessionID != "" {
			s.id = ev.SessionID
		}
		if ev.TraceID != "" {
			s.traceID = ev.TraceID
		}

	case protocol.EventText:
		if ev.Content == "" {
			return
		}
		if s.current == nil {
			s.current = &Part{ID: uuid.NewString(), Type: PartText}
		}
		s.current.Content += ev.Content

	case protocol.EventReasoningText:
		if ev.Content == "" {
			return
		}
		s.finalizeText()
		s.parts = append(s.parts, Part{
			ID:      uuid.NewString(),
			Type:    PartReasoning,
			Content: ev.Content,
		})

	case protocol.EventToolCallStart:
		s.finalizeText()
		s.parts = append(s.parts, Part{
			ID:     uuid.NewString(),
			Type:   PartTool,
			CallID: ev.CallID,
			Tool:   ev.Tool,
		})

	case protocol.EventUsage:
		if ev.Tokens != nil {
			s.usage = *ev.Tokens
			s.hasUsage = true
		}

	case protocol.EventDone:
		if ev.Tokens != nil {
			s.usage = *ev.Tokens
			s.hasUsage = true
		}

	default:
		s.todos.Apply(ev)
	}
}

// MarkDone sets the completion flag and reports whether this was the
// first terminal signal. Subsequent terminal signals are no-ops.
func (s *Session) MarkDone() bool {
	if s.done {
		return false
	}
	s.done = true
	return true
}

// Done reports whether a terminal signal has been observed.
func (s *Session) Done() bool { return s.done }

// Parts returns the accumulated parts in arrival order, including any
// text part still being streamed.
func (s *Session) Parts() []Part {
	out := make([]Part, len(s.parts), len(s.parts)+1)
	copy(out, s.parts)
	if s.current != nil && strings.TrimSpace(s.current.Content) != "" {
		out = append(out, *s.current)
	}
	return out
}

// Text returns the accumulated visible text.
func (s *Session) Text() string {
	var sb strings.Builder
	for _, p := range s.Parts() {
		if p.Type == PartText {
			sb.WriteString(p.Content)
		}
	}
	return sb.String()
}

// Reasoning returns the accumulated reasoning text, kept distinct from
// visible text.
func (s *Session) Reasoning() string {
	var sb strings.Builder
	for _, p := range s.Parts() {
		if p.Type == PartReasoning {
			sb.WriteString(p.Content)
		}
	}
	return sb.String()
}

// Usage returns the last reported token counts. ok is false until a
// usage event or a done event with embedded tokens arrives.
func (s *Session) Usage() (usage protocol.TokenUsage, ok bool) {
	return s.usage, s.hasUsage
}

// Todos returns the current todo list snapshot.
func (s *Session) Todos() []protocol.TodoItem {
	return s.todos.Items()
}

func (s *Session) finalizeText() {
	if s.current == nil {
		return
	}
	if strings.TrimSpace(s.current.Content) != "" {
		s.parts = append(s.parts, *s.current)
	}
	s.current = nil
}
