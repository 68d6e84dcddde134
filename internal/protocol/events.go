// Package protocol defines the wire types and frame grammar of the
// orchestrator's assistant event stream. All packages that touch the
// stream import from here.
package protocol

import "encoding/json"

// EventType discriminates stream events. The orchestrator keys every
// typed frame on a "type" field; frames without one are normalized
// during decode (see DecodeEvent).
type EventType string

const (
	EventIterationStart      EventType = "iteration_start"
	EventText                EventType = "text"
	EventReasoningText       EventType = "reasoning_text"
	EventToolCallStart       EventType = "tool_call_start"
	EventToolApprovalRequest EventType = "tool_approval_request"
	EventToolApproved        EventType = "tool_approved"
	EventToolDenied          EventType = "tool_denied"
	EventToolRedirected      EventType = "tool_redirected"
	EventToolTimeout         EventType = "tool_timeout"
	EventToolCallEnd         EventType = "tool_call_end"
	EventCustomComponent     EventType = "custom_component"
	EventPlanCreated         EventType = "plan_created"
	EventPlanUpdated         EventType = "plan_updated"
	EventTodoCreated         EventType = "todo.created"
	EventTodoUpdated         EventType = "todo.updated"
	EventTodoDeleted         EventType = "todo.deleted"
	EventTodoCleared         EventType = "todo.cleared"
	EventUserMessageInjected EventType = "user_message_injected"
	EventRedirectRequested   EventType = "redirect_requested"
	EventUserCancelled       EventType = "user_cancelled"
	EventUsage               EventType = "usage"
	EventDone                EventType = "done"
	EventError               EventType = "error"

	// EventSession is synthesized for the bare metadata frame the server
	// sends first ({"session_id": ..., "trace_id": ...}, no "type").
	EventSession EventType = "session"
)

// Approval scopes carried by tool_approved events.
const (
	ScopeOnce    = "once"
	ScopeSession = "session"
)

// Done reasons. ReasonStreamEnd is client-synthesized when the stream
// closes without an explicit done event or [DONE] sentinel.
const (
	ReasonCompleted     = "completed"
	ReasonError         = "error"
	ReasonMaxIterations = "max_iterations"
	ReasonDone          = "done"
	ReasonStreamEnd     = "stream_end"
)

// TokenUsage carries cumulative token counts from usage and done events.
type TokenUsage struct {
	Input  int `json:"input"`
	Output int `json:"output"`
	Total  int `json:"total"`
}

// TodoItem is one entry of the plan-tracking sub-protocol.
type TodoItem struct {
	ID       string `json:"id"`
	Content  string `json:"content"`
	Status   string `json:"status"`
	Priority string `json:"priority,omitempty"`
}

// Todo status values.
const (
	TodoPending    = "pending"
	TodoInProgress = "in_progress"
	TodoCompleted  = "completed"
	TodoCancelled  = "cancelled"
)

// Event is the tagged union decoded from one stream frame. Only the
// fields relevant to the event's Type are populated; payloads that are
// passed through verbatim (arguments, component props) stay raw.
type Event struct {
	Type EventType `json:"type,omitempty"`

	// Stream metadata (session frame, todo/plan events)
	SessionID string          `json:"session_id,omitempty"`
	TraceID   string          `json:"trace_id,omitempty"`
	Session   json.RawMessage `json:"session,omitempty"`

	// Agent loop
	Iteration int    `json:"iteration,omitempty"`
	Content   string `json:"content,omitempty"`

	// Tool lifecycle
	Tool           string          `json:"tool,omitempty"`
	Arguments      json.RawMessage `json:"arguments,omitempty"`
	CallID         string          `json:"call_id,omitempty"`
	Scope          string          `json:"scope,omitempty"`
	NewInstruction string          `json:"new_instruction,omitempty"`
	NewMessage     string          `json:"new_message,omitempty"`
	Result         json.RawMessage `json:"result,omitempty"`
	Success        *bool           `json:"success,omitempty"`

	// Custom UI components
	Component string          `json:"component,omitempty"`
	Props     json.RawMessage `json:"props,omitempty"`

	// Plan / todo tracking
	Todo       *TodoItem  `json:"todo,omitempty"`
	Todos      []TodoItem `json:"todos,omitempty"`
	TotalTodos int        `json:"total_todos,omitempty"`
	TodoCount  int        `json:"todo_count,omitempty"`

	// Accounting and terminal state
	Tokens  *TokenUsage `json:"tokens,omitempty"`
	Reason  string      `json:"reason,omitempty"`
	Message string      `json:"message,omitempty"`
	Err     string      `json:"error,omitempty"`
	Done    bool        `json:"done,omitempty"`

	Timestamp string `json:"timestamp,omitempty"`
}

// Succeeded reports the success flag of a tool_call_end event,
// defaulting to true when the server omitted it.
func (e *Event) Succeeded() bool {
	if e.Success == nil {
		return true
	}
	return *e.Success
}

// Terminal reports whether the event ends the stream.
func (e *Event) Terminal() bool {
	return e.Type == EventDone
}
