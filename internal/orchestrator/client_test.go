package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestOpenChatStreamsBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orchestrator/api/chat" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.Header.Get("Accept") != "text/event-stream" {
			t.Errorf("Accept = %q", r.Header.Get("Accept"))
		}

		var req ChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("bad request body: %v", err)
		}
		if req.Message != "hi" || req.SessionID != "s-1" {
			t.Errorf("request = %+v", req)
		}

		w.Header().Set("Content-Type", "text/event-stream")
		io.WriteString(w, "data: {\"session_id\":\"s-1\"}\n\ndata: [DONE]\n")
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	body, err := c.OpenChat(context.Background(), ChatRequest{Message: "hi", SessionID: "s-1"})
	if err != nil {
		t.Fatalf("OpenChat failed: %v", err)
	}
	defer body.Close()

	data, _ := io.ReadAll(body)
	if !strings.Contains(string(data), "[DONE]") {
		t.Errorf("stream body = %q", data)
	}
}

func TestOpenChatFailsFastOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"model unavailable"}`, http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.OpenChat(context.Background(), ChatRequest{Message: "hi"})

	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected TransportError, got %v", err)
	}
	if te.StatusCode != http.StatusBadGateway {
		t.Errorf("status = %d", te.StatusCode)
	}
}

func TestOpenChatRequiresMessage(t *testing.T) {
	c := NewClient(Config{})
	if _, err := c.OpenChat(context.Background(), ChatRequest{}); err == nil {
		t.Fatal("expected error for empty message")
	}
}

func TestDecideSendsTraceIDAlias(t *testing.T) {
	var got approvalPayload
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orchestrator/api/chat/tool-approval" {
			t.Errorf("path = %q", r.URL.Path)
		}
		json.NewDecoder(r.Body).Decode(&got)
		io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	err := c.Decide(context.Background(), ApprovalDecision{
		SessionID: "s-1",
		CallID:    "call-a",
		Decision:  DecisionApprove,
	})
	if err != nil {
		t.Fatalf("Decide failed: %v", err)
	}
	// The wire field is trace_id but carries the session id.
	if got.TraceID != "s-1" || got.CallID != "call-a" || got.Decision != "approve" {
		t.Errorf("payload = %+v", got)
	}
}

func TestDecideRedirectRequiresMessageLocally(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("redirect without message must not reach the network")
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	err := c.Decide(context.Background(), ApprovalDecision{
		SessionID: "s-1",
		CallID:    "call-a",
		Decision:  DecisionRedirect,
	})
	if !errors.Is(err, ErrRedirectNeedsMessage) {
		t.Fatalf("expected ErrRedirectNeedsMessage, got %v", err)
	}
}

func TestDecideBlocksSecondDecision(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		io.WriteString(w, `{"success":true}`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	d := ApprovalDecision{SessionID: "s-1", CallID: "call-a", Decision: DecisionDeny}

	if err := c.Decide(context.Background(), d); err != nil {
		t.Fatalf("first decision failed: %v", err)
	}
	if err := c.Decide(context.Background(), d); !errors.Is(err, ErrDecisionAlreadySent) {
		t.Fatalf("expected ErrDecisionAlreadySent, got %v", err)
	}
	if calls != 1 {
		t.Errorf("server saw %d calls, want 1", calls)
	}
}

func TestDecideExpiredWindow(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"no pending approval"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	err := c.Decide(context.Background(), ApprovalDecision{
		SessionID: "s-1", CallID: "late", Decision: DecisionApprove,
	})
	if !errors.Is(err, ErrApprovalExpired) {
		t.Fatalf("expected ErrApprovalExpired, got %v", err)
	}
}

func TestAbortMapsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"gone"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if err := c.Abort(context.Background(), "s-1"); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("expected ErrNoActiveSession, got %v", err)
	}
}

func TestListSessions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/orchestrator/api/session" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("limit") != "10" {
			t.Errorf("limit = %q", r.URL.Query().Get("limit"))
		}
		io.WriteString(w, `{"sessions":[{"id":"s-1","title":"Pods check","status":"idle","time":{"created":1700000000,"updated":1700000100}}],"count":1}`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	sessions, err := c.ListSessions(context.Background(), 10)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 1 || sessions[0].ID != "s-1" || sessions[0].Status != SessionIdle {
		t.Errorf("sessions = %+v", sessions)
	}
	if sessions[0].Time.UpdatedAt().Unix() != 1700000100 {
		t.Errorf("updated at = %v", sessions[0].Time.UpdatedAt())
	}
}

func TestDeleteSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete {
			t.Errorf("method = %q", r.Method)
		}
		if r.URL.Path != "/orchestrator/api/session/s-1" {
			t.Errorf("path = %q", r.URL.Path)
		}
		io.WriteString(w, `{"status":"deleted","id":"s-1"}`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if err := c.DeleteSession(context.Background(), "s-1"); err != nil {
		t.Fatalf("DeleteSession failed: %v", err)
	}

	if err := c.DeleteSession(context.Background(), ""); err == nil {
		t.Error("empty id must be rejected")
	}
}

func TestDeleteSessionNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"detail":"missing"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	if err := c.DeleteSession(context.Background(), "ghost"); !errors.Is(err, ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}
