package session

import (
	"testing"

	"github.com/agentkube/assistant/internal/protocol"
)

func textEvent(content string) *protocol.Event {
	return &protocol.Event{Type: protocol.EventText, Content: content}
}

func TestTextAccumulation(t *testing.T) {
	s := New("")
	s.Apply(textEvent("Hello"))
	s.Apply(textEvent(", "))
	s.Apply(textEvent("world"))

	if got := s.Text(); got != "Hello, world" {
		t.Errorf("Text() = %q", got)
	}
	parts := s.Parts()
	if len(parts) != 1 || parts[0].Type != PartText {
		t.Errorf("chunks should merge into one streaming text part: %+v", parts)
	}
}

func TestToolCallSplitsTextParts(t *testing.T) {
	s := New("")
	s.Apply(textEvent("Checking pods."))
	s.Apply(&protocol.Event{Type: protocol.EventToolCallStart, Tool: "list_pods", CallID: "a1"})
	s.Apply(textEvent("All healthy."))

	parts := s.Parts()
	if len(parts) != 3 {
		t.Fatalf("parts = %d, want 3 (text, tool, text)", len(parts))
	}
	if parts[0].Type != PartText || parts[1].Type != PartTool || parts[2].Type != PartText {
		t.Errorf("part ordering wrong: %+v", parts)
	}
	if parts[1].CallID != "a1" || parts[1].Tool != "list_pods" {
		t.Errorf("tool part missing call metadata: %+v", parts[1])
	}
	if parts[0].ID == parts[2].ID {
		t.Error("parts must have distinct ids")
	}
}

func TestReasoningKeptDistinct(t *testing.T) {
	s := New("")
	s.Apply(&protocol.Event{Type: protocol.EventReasoningText, Content: "thinking..."})
	s.Apply(textEvent("answer"))

	if s.Reasoning() != "thinking..." {
		t.Errorf("Reasoning() = %q", s.Reasoning())
	}
	if s.Text() != "answer" {
		t.Errorf("Text() = %q", s.Text())
	}
}

func TestSessionMetadataFrame(t *testing.T) {
	s := New("")
	s.Apply(&protocol.Event{Type: protocol.EventSession, SessionID: "s-1", TraceID: "trace_x"})

	if s.ID() != "s-1" || s.TraceID() != "trace_x" {
		t.Errorf("ids = %q/%q", s.ID(), s.TraceID())
	}
}

func TestUsageLastWriteWins(t *testing.T) {
	s := New("")
	if _, ok := s.Usage(); ok {
		t.Error("usage should be absent before any usage event")
	}

	s.Apply(&protocol.Event{Type: protocol.EventUsage, Tokens: &protocol.TokenUsage{Input: 10, Output: 5, Total: 15}})
	s.Apply(&protocol.Event{Type: protocol.EventUsage, Tokens: &protocol.TokenUsage{Input: 20, Output: 9, Total: 29}})

	usage, ok := s.Usage()
	if !ok || usage.Total != 29 {
		t.Errorf("usage = %+v ok=%v, want total 29", usage, ok)
	}

	// done events can embed final counts too
	s.Apply(&protocol.Event{Type: protocol.EventDone, Reason: protocol.ReasonCompleted, Tokens: &protocol.TokenUsage{Input: 21, Output: 10, Total: 31}})
	usage, _ = s.Usage()
	if usage.Total != 31 {
		t.Errorf("done tokens not applied: %+v", usage)
	}
}

func TestMarkDoneFirstWins(t *testing.T) {
	s := New("")
	if !s.MarkDone() {
		t.Fatal("first MarkDone must return true")
	}
	if s.MarkDone() {
		t.Fatal("second MarkDone must be a no-op")
	}
	if !s.Done() {
		t.Error("Done() = false after MarkDone")
	}
}

func TestTodoLifecycle(t *testing.T) {
	s := New("")
	s.Apply(&protocol.Event{Type: protocol.EventTodoCreated, Todo: &protocol.TodoItem{ID: "1", Content: "check pods", Status: protocol.TodoPending}})
	s.Apply(&protocol.Event{Type: protocol.EventTodoCreated, Todo: &protocol.TodoItem{ID: "2", Content: "scan image", Status: protocol.TodoPending, Priority: "high"}})
	s.Apply(&protocol.Event{Type: protocol.EventTodoUpdated, Todo: &protocol.TodoItem{ID: "1", Status: protocol.TodoCompleted}})

	todos := s.Todos()
	if len(todos) != 2 {
		t.Fatalf("todos = %d, want 2", len(todos))
	}
	if todos[0].Status != protocol.TodoCompleted || todos[0].Content != "check pods" {
		t.Errorf("update lost fields: %+v", todos[0])
	}

	s.Apply(&protocol.Event{Type: protocol.EventTodoDeleted, Todo: &protocol.TodoItem{ID: "2"}})
	if got := len(s.Todos()); got != 1 {
		t.Errorf("delete not applied, %d items", got)
	}

	s.Apply(&protocol.Event{Type: protocol.EventTodoCleared})
	if got := len(s.Todos()); got != 0 {
		t.Errorf("clear not applied, %d items", got)
	}
}

func TestPlanSnapshotReplacesList(t *testing.T) {
	s := New("")
	s.Apply(&protocol.Event{Type: protocol.EventTodoCreated, Todo: &protocol.TodoItem{ID: "old", Content: "stale"}})
	s.Apply(&protocol.Event{Type: protocol.EventPlanCreated, Todos: []protocol.TodoItem{
		{ID: "1", Content: "investigate", Status: protocol.TodoInProgress},
		{ID: "2", Content: "report", Status: protocol.TodoPending},
	}})

	todos := s.Todos()
	if len(todos) != 2 || todos[0].ID != "1" {
		t.Errorf("plan snapshot did not replace list: %+v", todos)
	}
}
