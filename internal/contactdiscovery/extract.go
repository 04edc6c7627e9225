// Package contactdiscovery extracts person-entities from domain events,
// scores and persists them, and re-emits updated ContactEvents (§4.F).
package contactdiscovery

import (
	"strings"
	"time"

	"github.com/arc-self/ingest-fabric/pkg/events"
)

// Extraction is one (email, optional name, event_type, timestamp,
// source_service) tuple pulled from a domain event.
type Extraction struct {
	Email         string
	Name          string
	EventType     string
	Timestamp     time.Time
	SourceService string
}

const (
	eventTypeEmail       = "email"
	eventTypeCalendar    = "calendar"
	eventTypeDocument    = "document"
	eventTypeTodoAssignee = "todo_assignee"
	eventTypeTodoCreator  = "todo_creator"
	eventTypeTodoShared   = "todo_shared"
)

// Extract produces the set of extraction tuples for e, per the rules in
// §4.F. ContactEvents (and every other kind not listed in the switch)
// yield nil. Service.Process does not handle ContactEvents in any other
// way either: an incoming ContactEvent does not update existing contacts.
func Extract(e events.Event) []Extraction {
	switch ev := e.(type) {
	case *events.EmailEvent:
		return extractEmail(ev)
	case *events.CalendarEvent:
		return extractCalendar(ev)
	case *events.DocumentEvent:
		return extractDocument(ev)
	case *events.TodoEvent:
		if !validTodoEvent(ev) {
			return nil
		}
		return extractTodo(ev)
	default:
		return nil
	}
}

func extractEmail(e *events.EmailEvent) []Extraction {
	ts := e.SyncTimestamp.Time
	var out []Extraction
	if addr := normalizeEmail(e.Email.FromAddress); addr != "" {
		out = append(out, Extraction{Email: addr, EventType: eventTypeEmail, Timestamp: ts, SourceService: e.SourceService})
	}
	for _, group := range [][]string{e.Email.ToAddresses, e.Email.CcAddresses, e.Email.BccAddresses} {
		for _, addr := range group {
			if a := normalizeEmail(addr); a != "" {
				out = append(out, Extraction{Email: a, EventType: eventTypeEmail, Timestamp: ts, SourceService: e.SourceService})
			}
		}
	}
	return out
}

func extractCalendar(e *events.CalendarEvent) []Extraction {
	ts := e.SyncTimestamp.Time
	var out []Extraction
	if addr := normalizeEmail(e.Calendar.Organizer); addr != "" {
		out = append(out, Extraction{Email: addr, EventType: eventTypeCalendar, Timestamp: ts, SourceService: e.SourceService})
	}
	for _, a := range e.Calendar.Attendees {
		if addr := normalizeEmail(a.Email); addr != "" {
			out = append(out, Extraction{Email: addr, Name: a.Name, EventType: eventTypeCalendar, Timestamp: ts, SourceService: e.SourceService})
		}
	}
	return out
}

func extractDocument(e *events.DocumentEvent) []Extraction {
	addr := normalizeEmail(e.Document.OwnerEmail)
	if addr == "" {
		return nil
	}
	return []Extraction{{Email: addr, EventType: eventTypeDocument, Timestamp: e.SyncTimestamp.Time, SourceService: e.SourceService}}
}

// validTodoEvent is the structural gate §4.F requires before extraction:
// required fields present and operation is one of create/update/delete.
func validTodoEvent(e *events.TodoEvent) bool {
	if e.UserID == "" || e.Todo.ID == "" {
		return false
	}
	switch e.Operation {
	case events.OperationCreate, events.OperationUpdate, events.OperationDelete:
		return true
	default:
		return false
	}
}

func extractTodo(e *events.TodoEvent) []Extraction {
	const sourceService = "todo_sync"
	ts := e.SyncTimestamp.Time
	var out []Extraction

	assignee := normalizeEmail(e.Todo.AssigneeEmail)
	if assignee != "" {
		out = append(out, Extraction{
			Email: assignee, Name: extractTodoAssigneeName(e),
			EventType: eventTypeTodoAssignee, Timestamp: ts, SourceService: sourceService,
		})
	}

	creator := normalizeEmail(e.Todo.CreatorEmail)
	if creator != "" && creator != assignee {
		out = append(out, Extraction{
			Email: creator, Name: extractTodoCreatorName(e),
			EventType: eventTypeTodoCreator, Timestamp: ts, SourceService: sourceService,
		})
	}

	out = append(out, extractTodoSharedContacts(e, ts, sourceService)...)
	return out
}

// extractTodoSharedContacts reads metadata.shared_with, a list of either
// plain email strings or {"email": ..., "name": ...} objects.
func extractTodoSharedContacts(e *events.TodoEvent, ts time.Time, sourceService string) []Extraction {
	raw, ok := e.Todo.Metadata["shared_with"]
	if !ok {
		return nil
	}
	items, ok := raw.([]any)
	if !ok {
		return nil
	}

	var out []Extraction
	for _, item := range items {
		switch v := item.(type) {
		case string:
			if addr := normalizeEmail(v); addr != "" {
				out = append(out, Extraction{Email: addr, EventType: eventTypeTodoShared, Timestamp: ts, SourceService: sourceService})
			}
		case map[string]any:
			email, _ := v["email"].(string)
			name, _ := v["name"].(string)
			if addr := normalizeEmail(email); addr != "" {
				out = append(out, Extraction{Email: addr, Name: name, EventType: eventTypeTodoShared, Timestamp: ts, SourceService: sourceService})
			}
		}
	}
	return out
}

// extractTodoAssigneeName looks up a display name from metadata first,
// then falls back to parsing a "assigned to: X" style prefix off the
// title — a fragile heuristic carried over from the originating system's
// scaffolding, kept only as a last resort.
func extractTodoAssigneeName(e *events.TodoEvent) string {
	if name, ok := e.Todo.Metadata["assignee_name"].(string); ok && name != "" {
		return name
	}
	return parseNamePrefix(e.Todo.Title, "assigned to:")
}

func extractTodoCreatorName(e *events.TodoEvent) string {
	if name, ok := e.Todo.Metadata["creator_name"].(string); ok && name != "" {
		return name
	}
	return parseNamePrefix(e.Todo.Title, "created by:")
}

func parseNamePrefix(title, prefix string) string {
	lower := strings.ToLower(title)
	idx := strings.Index(lower, prefix)
	if idx < 0 {
		return ""
	}
	rest := strings.TrimSpace(title[idx+len(prefix):])
	if end := strings.IndexAny(rest, ",;\n"); end >= 0 {
		rest = rest[:end]
	}
	return strings.TrimSpace(rest)
}

// normalizeEmail lowercases and validates that addr looks like an email
// (contains '@'); invalid or empty addresses are skipped per §4.F.
func normalizeEmail(addr string) string {
	addr = strings.ToLower(strings.TrimSpace(addr))
	if addr == "" || !strings.Contains(addr, "@") {
		return ""
	}
	return addr
}
