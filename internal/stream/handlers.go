package stream

import (
	"encoding/json"

	"github.com/agentkube/assistant/internal/protocol"
	"github.com/agentkube/assistant/internal/toolcall"
)

// Handlers receives decoded events in frame order, one callback per
// event. Every field is optional: a nil handler is a no-op, never an
// error. Exactly one of OnDone, OnUserCancelled or OnError fires per
// Run invocation.
type Handlers struct {
	// OnSession fires for the metadata frame announcing the
	// server-assigned session and trace ids.
	OnSession func(sessionID, traceID string)

	OnIterationStart func(iteration int)
	OnText           func(content string)
	OnReasoningText  func(content string)

	// Tool lifecycle. Each callback receives the merged call record
	// maintained by the correlator.
	OnToolCallStart       func(call *toolcall.Call)
	OnToolApprovalRequest func(call *toolcall.Call, prompt string)
	OnToolApproved        func(call *toolcall.Call, scope string)
	OnToolDenied          func(call *toolcall.Call, message string)
	// OnToolRedirected surfaces the steering instruction injected back
	// into the agent; it is not a tool result.
	OnToolRedirected func(call *toolcall.Call, instruction string)
	OnToolTimeout    func(call *toolcall.Call)
	OnToolCallEnd    func(call *toolcall.Call)

	// OnCustomComponent passes through server-selected UI components
	// with their props verbatim.
	OnCustomComponent func(component string, props json.RawMessage, callID string)

	// OnTodosChanged fires after any todo or plan event with the
	// resulting list snapshot.
	OnTodosChanged func(todos []protocol.TodoItem)

	OnUserMessageInjected func(message string)
	OnUsage               func(usage protocol.TokenUsage)

	// OnErrorEvent reports a server-side agent error carried on the
	// stream. It is not terminal by itself; the server follows it with
	// a done event, and the driver synthesizes one otherwise.
	OnErrorEvent func(message string)

	// Terminal callbacks; exactly one fires per run.
	OnDone          func(reason string, usage *protocol.TokenUsage)
	OnUserCancelled func(message string)
	OnError         func(err error)

	// Recoverable local problems. Both default to debug logging.
	OnDecodeError func(frame []byte, err error)
	OnAnomaly     func(anomaly *toolcall.Anomaly)
}
