// Package toolcall tracks tool invocations through their lifecycle,
// pairing every terminal tool event with its originating start event by
// call id.
package toolcall

import (
	"encoding/json"
	"fmt"
	"sync"

	"github.com/agentkube/assistant/internal/protocol"
)

// State is the lifecycle state of a tool call.
type State string

const (
	StateStarted          State = "started"
	StateAwaitingApproval State = "awaiting_approval"
	StateApproved         State = "approved"
	StateDenied           State = "denied"
	StateRedirected       State = "redirected"
	StateTimedOut         State = "timed_out"
	StateCompleted        State = "completed"
)

// Call is the merged, render-ready record of one tool invocation.
type Call struct {
	CallID    string          `json:"call_id"`
	Tool      string          `json:"tool"`
	Arguments json.RawMessage `json:"arguments,omitempty"`
	State     State           `json:"state"`

	// Prompt is the human-readable approval prompt, set when the call
	// reaches AwaitingApproval.
	Prompt string `json:"prompt,omitempty"`
	// Scope is "once" or "session" once approved.
	Scope string `json:"scope,omitempty"`
	// Instruction carries the steering message of a redirect decision.
	// It is a replacement instruction for the agent, not a tool result.
	Instruction string `json:"instruction,omitempty"`

	Result *Result `json:"result,omitempty"`
}

// Result is the outcome attached once a call completes.
type Result struct {
	Output  string `json:"output"`
	Parsed  any    `json:"parsed,omitempty"`
	Success bool   `json:"success"`
}

// Anomaly reports a recoverable protocol violation observed while
// correlating events. Anomalies never abort the stream.
type Anomaly struct {
	CallID string
	Detail string
}

func (a *Anomaly) String() string {
	return fmt.Sprintf("call %s: %s", a.CallID, a.Detail)
}

// Correlator owns the pending-call table for the lifetime of one
// stream. It is created per Driver invocation and must never be shared
// across sessions.
type Correlator struct {
	mu      sync.RWMutex
	pending map[string]*Call
	records []*Call // every call ever seen, in first-seen order
}

// New creates an empty correlator.
func New() *Correlator {
	return &Correlator{pending: make(map[string]*Call)}
}

// Apply folds one stream event into the table. It returns the affected
// call record (nil for events that are not part of the tool lifecycle)
// and an anomaly report when the event violated the protocol.
func (c *Correlator) Apply(ev *protocol.Event) (*Call, *Anomaly) {
	switch ev.Type {
	case protocol.EventToolCallStart:
		return c.start(ev)
	case protocol.EventToolApprovalRequest:
		return c.transition(ev, StateAwaitingApproval)
	case protocol.EventToolApproved:
		return c.transition(ev, StateApproved)
	case protocol.EventToolDenied:
		return c.transition(ev, StateDenied)
	case protocol.EventToolRedirected:
		return c.transition(ev, StateRedirected)
	case protocol.EventToolTimeout:
		return c.transition(ev, StateTimedOut)
	case protocol.EventToolCallEnd:
		return c.complete(ev)
	}
	return nil, nil
}

func (c *Correlator) start(ev *protocol.Event) (*Call, *Anomaly) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if existing, ok := c.pending[ev.CallID]; ok {
		return existing, &Anomaly{CallID: ev.CallID, Detail: "duplicate tool_call_start"}
	}

	call := &Call{
		CallID:    ev.CallID,
		Tool:      ev.Tool,
		Arguments: ev.Arguments,
		State:     StateStarted,
	}
	c.insert(call)
	return call, nil
}

func (c *Correlator) transition(ev *protocol.Event, to State) (*Call, *Anomaly) {
	c.mu.Lock()
	defer c.mu.Unlock()

	call, ok := c.pending[ev.CallID]
	var anomaly *Anomaly
	if !ok {
		if anomaly = c.reject(ev.CallID, string(to)); anomaly != nil {
			return c.find(ev.CallID), anomaly
		}
		// Start was missed; synthesize rather than drop the transition.
		call = &Call{CallID: ev.CallID, Tool: ev.Tool, Arguments: ev.Arguments}
		c.insert(call)
		anomaly = &Anomaly{CallID: ev.CallID, Detail: string(to) + " without matching tool_call_start"}
	}

	call.State = to
	switch to {
	case StateAwaitingApproval:
		call.Prompt = ev.Message
	case StateApproved:
		call.Scope = ev.Scope
	case StateRedirected:
		call.Instruction = ev.NewInstruction
		// The server injects the steering message back into the agent
		// instead of completing a redirected call; no tool_call_end
		// will follow, so the entry leaves the pending table here.
		delete(c.pending, call.CallID)
	}
	return call, anomaly
}

func (c *Correlator) complete(ev *protocol.Event) (*Call, *Anomaly) {
	c.mu.Lock()
	defer c.mu.Unlock()

	call, ok := c.pending[ev.CallID]
	var anomaly *Anomaly
	if !ok {
		if anomaly = c.reject(ev.CallID, "tool_call_end"); anomaly != nil {
			return c.find(ev.CallID), anomaly
		}
		// Never silently discard a completion: synthesize a minimal
		// record from the end event alone.
		call = &Call{CallID: ev.CallID, Tool: ev.Tool, Arguments: ev.Arguments}
		c.insert(call)
		anomaly = &Anomaly{CallID: ev.CallID, Detail: "tool_call_end without matching tool_call_start"}
	}

	output := protocol.OutputText(ev.Result)
	res := &Result{Output: output, Success: ev.Succeeded()}
	if parsed, ok := protocol.ParseOutput(output); ok {
		res.Parsed = parsed
	}

	call.Result = res
	call.State = StateCompleted
	delete(c.pending, call.CallID)
	return call, anomaly
}

// reject reports events that target an id already in Completed state.
// A completed call never re-enters any other state.
func (c *Correlator) reject(callID, event string) *Anomaly {
	for _, r := range c.records {
		if r.CallID == callID && r.State == StateCompleted {
			return &Anomaly{CallID: callID, Detail: event + " for already-completed call"}
		}
	}
	return nil
}

func (c *Correlator) insert(call *Call) {
	c.pending[call.CallID] = call
	c.records = append(c.records, call)
}

func (c *Correlator) find(callID string) *Call {
	for _, r := range c.records {
		if r.CallID == callID {
			return r
		}
	}
	return nil
}

// Get returns the record for a call id.
func (c *Correlator) Get(callID string) (*Call, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	call := c.find(callID)
	return call, call != nil
}

// Calls returns every call observed on the stream, in first-seen order.
func (c *Correlator) Calls() []*Call {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Call, len(c.records))
	copy(out, c.records)
	return out
}

// Pending returns calls that have not reached a terminal state.
func (c *Correlator) Pending() []*Call {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]*Call, 0, len(c.pending))
	for _, r := range c.records {
		if _, ok := c.pending[r.CallID]; ok {
			out = append(out, r)
		}
	}
	return out
}

// Teardown empties the pending table and returns the entries that were
// still open. Leftover entries at stream end are reportable, not fatal.
func (c *Correlator) Teardown() []*Call {
	c.mu.Lock()
	defer c.mu.Unlock()

	var leftover []*Call
	for _, r := range c.records {
		if _, ok := c.pending[r.CallID]; ok {
			leftover = append(leftover, r)
		}
	}
	c.pending = make(map[string]*Call)
	return leftover
}
