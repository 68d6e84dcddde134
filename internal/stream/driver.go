// Package stream drives an assistant chat turn end to end: it opens
// the event stream, decodes frames tolerantly, folds them into the
// session transcript and the tool-call correlator, and dispatches one
// typed callback per event in arrival order.
package stream

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/agentkube/assistant/internal/log"
	"github.com/agentkube/assistant/internal/orchestrator"
	"github.com/agentkube/assistant/internal/protocol"
	"github.com/agentkube/assistant/internal/session"
	"github.com/agentkube/assistant/internal/toolcall"
)

const abortNotifyTimeout = 3 * time.Second

// StopReason classifies how a run reached its terminal state.
const (
	StopDone      = "done"
	StopStreamEnd = "stream_end"
	StopCancelled = "cancelled"
	StopError     = "error"
)

// Result is the consolidated outcome of a single chat turn.
type Result struct {
	SessionID string
	TraceID   string

	// Parts is the ordered assistant transcript for this turn.
	Parts []session.Part
	Todos []protocol.TodoItem

	// Calls holds every tool call observed, completed or not.
	// Unfinished lists the subset still pending at teardown.
	Calls      []*toolcall.Call
	Unfinished []*toolcall.Call

	Usage    protocol.TokenUsage
	HasUsage bool

	// StopReason is one of the Stop* constants. Reason carries the
	// server's own done reason when one was sent.
	StopReason string
	Reason     string

	Events  int
	Elapsed time.Duration
}

// Text joins the assistant's visible text parts for this turn.
func (r *Result) Text() string {
	var b strings.Builder
	for _, p := range r.Parts {
		if p.Type == session.PartText {
			b.WriteString(p.Content)
		}
	}
	return b.String()
}

// Driver runs chat turns against a single orchestrator client. A
// Driver is stateless across runs and safe for sequential reuse.
type Driver struct {
	client *orchestrator.Client

	// NotifyAbort posts a best-effort server-side abort when a run is
	// cancelled locally, so the orchestrator can stop the agent loop
	// instead of streaming into a closed connection.
	NotifyAbort bool
}

func NewDriver(client *orchestrator.Client) *Driver {
	return &Driver{client: client}
}

// run carries the per-invocation state so the dispatch helpers do not
// thread five arguments through every call.
type run struct {
	sess     *session.Session
	calls    *toolcall.Correlator
	handlers Handlers
	events   int
	reason   string
	stop     string
	started  time.Time
}

// Run opens a chat stream for req and blocks until the turn reaches a
// terminal state: the server finishes, the stream ends, ctx is
// cancelled, or reading fails. The returned Result is non-nil whenever
// the stream was opened, including error and cancellation outcomes.
func (d *Driver) Run(ctx context.Context, req orchestrator.ChatRequest, h Handlers) (*Result, error) {
	r := &run{
		sess:     session.New(req.SessionID),
		calls:    toolcall.New(),
		handlers: h,
		started:  time.Now(),
	}

	body, err := d.client.OpenChat(ctx, req)
	if err != nil {
		if ctx.Err() != nil {
			// Cancelled before a single frame was read: the caller
			// gets the cancellation notice and nothing else.
			r.cancelled(ctx.Err().Error())
			return nil, ctx.Err()
		}
		r.failed(err)
		return nil, err
	}
	defer body.Close()

	scanner := protocol.NewFrameScanner(body)
	for !r.sess.Done() {
		if ctx.Err() != nil {
			r.cancelled("cancelled")
			d.notifyAbort(r.sess.ID())
			return r.result(), ctx.Err()
		}

		frame, err := scanner.Next()
		if err != nil {
			switch {
			case errors.Is(err, protocol.ErrSentinel):
				r.done(protocol.ReasonDone, nil)
			case errors.Is(err, io.EOF):
				r.done(protocol.ReasonStreamEnd, nil)
			case ctx.Err() != nil:
				// The read was unblocked by request-context
				// cancellation; report it as such, not as an error.
				r.cancelled("cancelled")
				d.notifyAbort(r.sess.ID())
				return r.result(), ctx.Err()
			default:
				r.failed(err)
				return r.result(), err
			}
			break
		}

		ev, err := protocol.DecodeEvent(frame)
		if err != nil {
			r.decodeError(frame, err)
			continue
		}
		r.events++
		r.apply(ev)
	}

	res := r.result()
	log.LogStreamDone(res.SessionID, res.StopReason, res.Elapsed, res.Events)
	return res, nil
}

// apply folds one event into the session and correlator state and
// dispatches the matching callback.
func (r *run) apply(ev *protocol.Event) {
	r.sess.Apply(ev)
	call, anomaly := r.calls.Apply(ev)
	if anomaly != nil {
		if r.handlers.OnAnomaly != nil {
			r.handlers.OnAnomaly(anomaly)
		} else if log.IsEnabled() {
			log.Logger().Warn("tool call anomaly",
				zap.String("call_id", anomaly.CallID),
				zap.String("detail", anomaly.Detail))
		}
	}

	h := r.handlers
	switch ev.Type {
	case protocol.EventSession:
		if h.OnSession != nil {
			h.OnSession(r.sess.ID(), r.sess.TraceID())
		}
	case protocol.EventIterationStart:
		if h.OnIterationStart != nil {
			h.OnIterationStart(ev.Iteration)
		}
	case protocol.EventText:
		if h.OnText != nil {
			h.OnText(ev.Content)
		}
	case protocol.EventReasoningText:
		if h.OnReasoningText != nil {
			h.OnReasoningText(ev.Content)
		}
	case protocol.EventToolCallStart:
		if h.OnToolCallStart != nil {
			h.OnToolCallStart(call)
		}
	case protocol.EventToolApprovalRequest:
		if h.OnToolApprovalRequest != nil {
			h.OnToolApprovalRequest(call, ev.Message)
		}
	case protocol.EventToolApproved:
		if h.OnToolApproved != nil {
			h.OnToolApproved(call, ev.Scope)
		}
	case protocol.EventToolDenied:
		if h.OnToolDenied != nil {
			h.OnToolDenied(call, ev.Message)
		}
	case protocol.EventToolRedirected:
		if h.OnToolRedirected != nil {
			h.OnToolRedirected(call, ev.NewInstruction)
		}
	case protocol.EventToolTimeout:
		if h.OnToolTimeout != nil {
			h.OnToolTimeout(call)
		}
	case protocol.EventToolCallEnd:
		if h.OnToolCallEnd != nil {
			h.OnToolCallEnd(call)
		}
	case protocol.EventCustomComponent:
		if h.OnCustomComponent != nil {
			h.OnCustomComponent(ev.Component, ev.Props, ev.CallID)
		}
	case protocol.EventPlanCreated, protocol.EventPlanUpdated,
		protocol.EventTodoCreated, protocol.EventTodoUpdated,
		protocol.EventTodoDeleted, protocol.EventTodoCleared:
		if h.OnTodosChanged != nil {
			h.OnTodosChanged(r.sess.Todos())
		}
	case protocol.EventUserMessageInjected:
		if h.OnUserMessageInjected != nil {
			h.OnUserMessageInjected(ev.Message)
		}
	case protocol.EventRedirectRequested:
		// Advisory: the injected message follows as its own event.
	case protocol.EventUsage:
		if ev.Tokens != nil && h.OnUsage != nil {
			h.OnUsage(*ev.Tokens)
		}
	case protocol.EventError:
		msg := ev.Message
		if msg == "" {
			msg = ev.Err
		}
		if h.OnErrorEvent != nil {
			h.OnErrorEvent(msg)
		} else if log.IsEnabled() {
			log.Logger().Warn("stream error event", zap.String("message", msg))
		}
	case protocol.EventUserCancelled:
		r.cancelled(ev.Message)
	case protocol.EventDone:
		r.done(ev.Reason, ev.Tokens)
	}
}

// done marks the run finished with the server's reason. First terminal
// signal wins; later ones are ignored.
func (r *run) done(reason string, tokens *protocol.TokenUsage) {
	if !r.sess.MarkDone() {
		return
	}
	if reason == "" {
		reason = protocol.ReasonDone
	}
	r.reason = reason
	r.stop = StopDone
	if reason == protocol.ReasonStreamEnd {
		r.stop = StopStreamEnd
	}
	if r.handlers.OnDone != nil {
		usage := tokens
		if usage == nil {
			if u, ok := r.sess.Usage(); ok {
				usage = &u
			}
		}
		r.handlers.OnDone(reason, usage)
	}
}

func (r *run) cancelled(message string) {
	if !r.sess.MarkDone() {
		return
	}
	r.reason = "cancelled"
	r.stop = StopCancelled
	if r.handlers.OnUserCancelled != nil {
		r.handlers.OnUserCancelled(message)
	}
}

func (r *run) failed(err error) {
	if !r.sess.MarkDone() {
		return
	}
	r.reason = err.Error()
	r.stop = StopError
	if r.handlers.OnError != nil {
		r.handlers.OnError(err)
	}
}

func (r *run) decodeError(frame []byte, err error) {
	if r.handlers.OnDecodeError != nil {
		r.handlers.OnDecodeError(frame, err)
		return
	}
	if log.IsEnabled() {
		log.Logger().Debug("undecodable frame",
			zap.ByteString("frame", frame), zap.Error(err))
	}
}

func (r *run) result() *Result {
	res := &Result{
		SessionID:  r.sess.ID(),
		TraceID:    r.sess.TraceID(),
		Parts:      r.sess.Parts(),
		Todos:      r.sess.Todos(),
		Calls:      r.calls.Calls(),
		Unfinished: r.calls.Teardown(),
		StopReason: r.stop,
		Reason:     r.reason,
		Events:     r.events,
		Elapsed:    time.Since(r.started),
	}
	if usage, ok := r.sess.Usage(); ok {
		res.Usage = usage
		res.HasUsage = true
	}
	return res
}

// notifyAbort tells the orchestrator to stop the agent loop after a
// local cancellation. Failures are logged and otherwise ignored; the
// local run is already over.
func (d *Driver) notifyAbort(sessionID string) {
	if !d.NotifyAbort || sessionID == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), abortNotifyTimeout)
	defer cancel()
	if err := d.client.Abort(ctx, sessionID); err != nil && log.IsEnabled() {
		log.Logger().Debug("abort notification failed",
			zap.String("session_id", sessionID), zap.Error(err))
	}
}
