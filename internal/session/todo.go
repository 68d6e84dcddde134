package session

import "github.com/agentkube/assistant/internal/protocol"

// TodoList mirrors the agent's plan as advisory UI state. Lifecycle
// events update single items; plan events replace the whole snapshot.
type TodoList struct {
	items []protocol.TodoItem
}

// NewTodoList creates an empty list.
func NewTodoList() *TodoList {
	return &TodoList{}
}

// Apply folds a todo or plan event into the list. Events of other
// types are ignored.
func (l *TodoList) Apply(ev *protocol.Event) {
	switch ev.Type {
	case protocol.EventTodoCreated:
		if ev.Todo == nil || ev.Todo.ID == "" {
			return
		}
		l.upsert(*ev.Todo)

	case protocol.EventTodoUpdated:
		if ev.Todo == nil || ev.Todo.ID == "" {
			return
		}
		l.upsert(*ev.Todo)

	case protocol.EventTodoDeleted:
		if ev.Todo == nil || ev.Todo.ID == "" {
			return
		}
		for i, item := range l.items {
			if item.ID == ev.Todo.ID {
				l.items = append(l.items[:i], l.items[i+1:]...)
				return
			}
		}

	case protocol.EventTodoCleared:
		l.items = nil

	case protocol.EventPlanCreated, protocol.EventPlanUpdated:
		if len(ev.Todos) > 0 {
			l.items = append([]protocol.TodoItem(nil), ev.Todos...)
		}
	}
}

func (l *TodoList) upsert(todo protocol.TodoItem) {
	for i, item := range l.items {
		if item.ID == todo.ID {
			// Keep fields the update omitted.
			if todo.Content == "" {
				todo.Content = item.Content
			}
			if todo.Status == "" {
				todo.Status = item.Status
			}
			if todo.Priority == "" {
				todo.Priority = item.Priority
			}
			l.items[i] = todo
			return
		}
	}
	l.items = append(l.items, todo)
}

// Items returns a copy of the current list.
func (l *TodoList) Items() []protocol.TodoItem {
	out := make([]protocol.TodoItem, len(l.items))
	copy(out, l.items)
	return out
}
