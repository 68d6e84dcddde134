package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// SessionTime carries creation and update timestamps as Unix seconds,
// the way the directory serves them.
type SessionTime struct {
	Created float64 `json:"created"`
	Updated float64 `json:"updated"`
}

// UpdatedAt converts the update timestamp to a time.Time.
func (t SessionTime) UpdatedAt() time.Time {
	return time.Unix(int64(t.Updated), 0)
}

// Session status values reported by the directory.
const (
	SessionIdle      = "idle"
	SessionBusy      = "busy"
	SessionCompleted = "completed"
)

// SessionInfo is one persisted session's metadata. The id is opaque;
// it exists to be resumed on a fresh stream or discarded.
type SessionInfo struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	Directory    string      `json:"directory,omitempty"`
	Status       string      `json:"status"`
	Time         SessionTime `json:"time"`
	ParentID     string      `json:"parent_id,omitempty"`
	Summary      string      `json:"summary,omitempty"`
	Model        string      `json:"model,omitempty"`
	MessageCount int         `json:"message_count,omitempty"`
}

// ErrSessionNotFound is returned for an unknown session id.
var ErrSessionNotFound = errors.New("session not found")

// ListSessions returns up to limit persisted sessions, newest first.
func (c *Client) ListSessions(ctx context.Context, limit int) ([]SessionInfo, error) {
	path := "/session"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}

	var out struct {
		Sessions []SessionInfo `json:"sessions"`
		Count    int           `json:"count"`
	}
	if err := c.getJSON(ctx, path, &out); err != nil {
		return nil, err
	}
	return out.Sessions, nil
}

// GetSession fetches one session's metadata.
func (c *Client) GetSession(ctx context.Context, id string) (*SessionInfo, error) {
	if id == "" {
		return nil, errors.New("session id is required")
	}

	var info SessionInfo
	err := c.getJSON(ctx, "/session/"+url.PathEscape(id), &info)
	var te *TransportError
	if errors.As(err, &te) && te.StatusCode == http.StatusNotFound {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// DeleteSession removes a session and its stored messages.
func (c *Client) DeleteSession(ctx context.Context, id string) error {
	if id == "" {
		return errors.New("session id is required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.url("/session/"+url.PathEscape(id)), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.applyHeaders(req)

	resp, err := c.rpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode == http.StatusNotFound {
		return ErrSessionNotFound
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &TransportError{StatusCode: resp.StatusCode}
	}
	return nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url(path), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	c.applyHeaders(req)

	resp, err := c.rpc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &TransportError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}
