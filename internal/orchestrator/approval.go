package orchestrator

import (
	"context"
	"errors"
	"net/http"

	"github.com/agentkube/assistant/internal/log"
)

// Decision is an out-of-band answer to a tool approval request.
type Decision string

const (
	DecisionApprove           Decision = "approve"
	DecisionApproveForSession Decision = "approve_for_session"
	DecisionDeny              Decision = "deny"
	DecisionRedirect          Decision = "redirect"
)

var (
	// ErrApprovalExpired means the approval window closed before the
	// decision arrived: the call timed out server-side or the id is
	// unknown. Callers typically show this differently from a generic
	// failure.
	ErrApprovalExpired = errors.New("approval window expired")

	// ErrRedirectNeedsMessage is the local precondition violation for a
	// redirect without a replacement instruction. Checked before any
	// network call.
	ErrRedirectNeedsMessage = errors.New("redirect decision requires a replacement instruction")

	// ErrDecisionAlreadySent guards the at-most-one-decision-per-call
	// discipline; the server does not guarantee idempotence.
	ErrDecisionAlreadySent = errors.New("a decision was already sent for this call")

	errInvalidDecision = errors.New("decision must be approve, approve_for_session, deny or redirect")
)

// ApprovalDecision answers one tool_approval_request.
type ApprovalDecision struct {
	// SessionID correlates the decision to the open stream. On the
	// wire this travels as trace_id; the server historically keys
	// approvals on the session id under that field name.
	SessionID string
	CallID    string
	Decision  Decision
	// Message carries the replacement instruction for redirect
	// decisions; required for those, ignored otherwise.
	Message string
}

type approvalPayload struct {
	TraceID  string `json:"trace_id"`
	CallID   string `json:"call_id"`
	Decision string `json:"decision"`
	Message  string `json:"message,omitempty"`
}

// Decide sends one approval decision over the side channel,
// independent of the open stream's connection. Exactly one decision is
// allowed per call id; repeats fail locally with
// ErrDecisionAlreadySent.
func (c *Client) Decide(ctx context.Context, d ApprovalDecision) error {
	if d.SessionID == "" || d.CallID == "" {
		return errors.New("approval decision requires session and call ids")
	}
	switch d.Decision {
	case DecisionApprove, DecisionApproveForSession, DecisionDeny:
	case DecisionRedirect:
		if d.Message == "" {
			return ErrRedirectNeedsMessage
		}
	default:
		return errInvalidDecision
	}

	key := d.SessionID + "/" + d.CallID
	c.mu.Lock()
	if _, dup := c.sent[key]; dup {
		c.mu.Unlock()
		return ErrDecisionAlreadySent
	}
	c.mu.Unlock()

	err := c.postJSON(ctx, "/chat/tool-approval", approvalPayload{
		TraceID:  d.SessionID,
		CallID:   d.CallID,
		Decision: string(d.Decision),
		Message:  d.Message,
	}, nil)

	var te *TransportError
	if errors.As(err, &te) && te.StatusCode == http.StatusNotFound {
		// The window is gone either way; block resends for this call.
		c.markSent(key)
		return ErrApprovalExpired
	}
	if err != nil {
		return err
	}

	c.markSent(key)
	log.LogApproval(d.SessionID, d.CallID, string(d.Decision))
	return nil
}

func (c *Client) markSent(key string) {
	c.mu.Lock()
	c.sent[key] = struct{}{}
	c.mu.Unlock()
}
