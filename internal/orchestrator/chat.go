package orchestrator

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

// ChatMessage is one entry of the prior conversation history sent with
// a chat request.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
	Name    string `json:"name,omitempty"`
}

// FileAttachment is a file included with the user's message.
type FileAttachment struct {
	Name    string `json:"name"`
	Content string `json:"content"`
}

// ReasoningEffort levels for models that expose it.
const (
	ReasoningLow    = "low"
	ReasoningMedium = "medium"
	ReasoningHigh   = "high"
)

// ChatRequest opens a conversation turn. SessionID resumes an existing
// session; when absent the server creates one and announces its id on
// the first frame of the stream.
type ChatRequest struct {
	Message         string         `json:"message"`
	ChatHistory     []ChatMessage  `json:"chat_history,omitempty"`
	Model           string         `json:"model,omitempty"`
	Prompt          string         `json:"prompt,omitempty"`
	Files           []FileAttachment `json:"files,omitempty"`
	KubeContext     string         `json:"kubecontext,omitempty"`
	KubeConfig      string         `json:"kubeconfig,omitempty"`
	Context         map[string]any `json:"context,omitempty"`
	SessionID       string         `json:"session_id,omitempty"`
	AutoApprove     bool           `json:"auto_approve,omitempty"`
	ReasoningEffort string         `json:"reasoning_effort,omitempty"`
}

// OpenChat posts a chat request and returns the raw event stream. The
// caller owns the returned body and must close it on every exit path.
// A non-success status fails fast with a TransportError before any
// event is produced.
func (c *Client) OpenChat(ctx context.Context, req ChatRequest) (io.ReadCloser, error) {
	if req.Message == "" {
		return nil, errors.New("chat request requires a message")
	}

	data, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url("/chat"), bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create chat request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "text/event-stream")
	httpReq.Header.Set("Cache-Control", "no-cache")
	c.applyHeaders(httpReq)

	resp, err := c.stream.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to open event stream: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		resp.Body.Close()
		return nil, &TransportError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return resp.Body, nil
}

// ErrNoActiveSession is returned by Abort when the server no longer
// tracks the session; it usually means the stream already completed.
var ErrNoActiveSession = errors.New("no active session")

// Abort asks the server to stop the agent loop for a session. The wire
// field is named trace_id but the server keys abort signals on the
// session id.
func (c *Client) Abort(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return errors.New("abort requires a session id")
	}

	err := c.postJSON(ctx, "/chat/abort", map[string]string{"trace_id": sessionID}, nil)
	var te *TransportError
	if errors.As(err, &te) && te.StatusCode == http.StatusNotFound {
		return ErrNoActiveSession
	}
	return err
}
