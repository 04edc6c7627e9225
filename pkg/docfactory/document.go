// Package docfactory converts a domain event into the canonical search
// backend document shape (§4.D). The factory is pure: no I/O, no mutation
// of its input.
package docfactory

import (
	"errors"
	"fmt"
	"time"

	"github.com/arc-self/ingest-fabric/pkg/events"
)

// ErrUnsupportedEvent is returned for an event the factory has no mapping
// for. Build has a case for every event type in pkg/events, so this is
// returned for an Event implementation defined outside pkg/events, or for a
// Kind added to pkg/events without a matching case here.
var ErrUnsupportedEvent = errors.New("docfactory: unsupported event")

// Document is the canonical, source-type-tagged record the factory
// produces, ready for an upsert into the search backend keyed by DocID.
type Document struct {
	DocID             string
	SourceType        string
	UserID            string
	Provider          string
	Title             string
	Content           string
	Sender            string
	Recipients        []string
	ThreadID          string
	Folder            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	Metadata          map[string]any
	ParentDocID       string
	FragmentSequence  *int
}

// Build dispatches e to the field mapping for its Kind, per the table in
// §4.D.
func Build(e events.Event) (Document, error) {
	switch ev := e.(type) {
	case *events.EmailEvent:
		return buildEmail(ev), nil
	case *events.CalendarEvent:
		return buildCalendar(ev), nil
	case *events.ContactEvent:
		return buildContact(ev), nil
	case *events.DocumentEvent:
		return buildDocument(ev), nil
	case *events.DocumentFragmentEvent:
		return buildFragment(ev), nil
	case *events.TodoEvent:
		return buildTodo(ev), nil
	case *events.TodoListEvent:
		return buildTodoList(ev), nil
	case *events.LLMChatEvent:
		return buildLLMChat(ev), nil
	case *events.ShipmentEvent:
		return buildShipment(ev), nil
	case *events.MeetingPollEvent:
		return buildPoll(ev), nil
	case *events.BookingEvent:
		return buildBooking(ev), nil
	default:
		return Document{}, fmt.Errorf("%w: kind %q", ErrUnsupportedEvent, e.Kind())
	}
}

func baseMetadata(op events.Operation, lastUpdated, syncTimestamp time.Time, batchID string) map[string]any {
	m := map[string]any{
		"operation":      string(op),
		"last_updated":   lastUpdated,
		"sync_timestamp": syncTimestamp,
	}
	if batchID != "" {
		m["batch_id"] = batchID
	}
	return m
}

func buildEmail(e *events.EmailEvent) Document {
	meta := baseMetadata(e.Operation, e.LastUpdated.Time, e.SyncTimestamp.Time, e.BatchID)
	meta["sync_type"] = e.SyncType
	meta["is_read"] = e.Email.IsRead
	meta["is_starred"] = e.Email.IsStarred
	meta["has_attachments"] = e.Email.HasAttachments
	meta["labels"] = e.Email.Labels
	meta["size_bytes"] = e.Email.SizeBytes
	meta["mime_type"] = e.Email.MimeType
	meta["headers"] = e.Email.Headers

	return Document{
		DocID:      e.Email.ID,
		SourceType: "email",
		UserID:     e.UserID,
		Provider:   e.Provider,
		Title:      e.Email.Subject,
		Content:    e.Email.Body,
		Sender:     e.Email.FromAddress,
		Recipients: e.Email.ToAddresses,
		ThreadID:   e.Email.ThreadID,
		UpdatedAt:  e.LastUpdated.Time,
		Metadata:   meta,
	}
}

func buildCalendar(e *events.CalendarEvent) Document {
	meta := baseMetadata(e.Operation, e.LastUpdated.Time, e.SyncTimestamp.Time, e.BatchID)
	meta["start"] = e.Calendar.Start.Time
	meta["end"] = e.Calendar.End.Time
	meta["all_day"] = e.Calendar.AllDay
	meta["status"] = e.Calendar.Status
	meta["visibility"] = e.Calendar.Visibility
	meta["location"] = e.Calendar.Location

	recipients := make([]string, 0, len(e.Calendar.Attendees))
	for _, a := range e.Calendar.Attendees {
		recipients = append(recipients, a.Email)
	}

	return Document{
		DocID:      e.Calendar.ID,
		SourceType: "calendar",
		UserID:     e.UserID,
		Provider:   e.Provider,
		Title:      e.Calendar.Title,
		Content:    e.Calendar.Description,
		Sender:     e.Calendar.Organizer,
		Recipients: recipients,
		Folder:     e.Calendar.CalendarID,
		UpdatedAt:  e.LastUpdated.Time,
		Metadata:   meta,
	}
}

func buildContact(e *events.ContactEvent) Document {
	meta := baseMetadata(e.Operation, e.LastUpdated.Time, e.SyncTimestamp.Time, e.BatchID)
	meta["given_name"] = e.Contact.GivenName
	meta["family_name"] = e.Contact.FamilyName
	meta["organizations"] = e.Contact.Organizations

	return Document{
		DocID:      e.Contact.ID,
		SourceType: "contact",
		UserID:     e.UserID,
		Provider:   e.Provider,
		Title:      e.Contact.DisplayName,
		Content:    e.Contact.Notes,
		Recipients: e.Contact.EmailAddresses,
		UpdatedAt:  e.LastUpdated.Time,
		Metadata:   meta,
	}
}

func buildDocument(e *events.DocumentEvent) Document {
	meta := baseMetadata(e.Operation, e.LastUpdated.Time, e.SyncTimestamp.Time, e.BatchID)
	meta["content_type"] = string(e.Document.ContentType)
	meta["permissions"] = e.Document.Permissions
	meta["tags"] = e.Document.Tags
	switch e.Document.ContentType {
	case events.ContentTypeWord:
		meta["word_count"] = e.Document.WordCount
		meta["page_count"] = e.Document.PageCount
	case events.ContentTypeSheet:
		meta["row_count"] = e.Document.RowCount
		meta["column_count"] = e.Document.ColumnCount
		meta["sheet_count"] = e.Document.SheetCount
	case events.ContentTypePresentation:
		meta["slide_count"] = e.Document.SlideCount
		meta["theme"] = e.Document.Theme
	}
	for k, v := range e.Document.Metadata {
		meta[k] = v
	}

	return Document{
		DocID:      e.Document.ID,
		SourceType: "document",
		UserID:     e.UserID,
		Provider:   e.Provider,
		Title:      e.Document.Title,
		Content:    e.Document.Content,
		Sender:     e.Document.OwnerEmail,
		UpdatedAt:  e.LastUpdated.Time,
		Metadata:   meta,
	}
}

func buildFragment(e *events.DocumentFragmentEvent) Document {
	meta := baseMetadata(e.Operation, e.LastUpdated.Time, e.SyncTimestamp.Time, e.BatchID)
	meta["fragment_type"] = string(e.Fragment.FragmentType)
	for k, v := range e.Fragment.Metadata {
		meta[k] = v
	}
	seq := e.Fragment.SequenceNumber

	return Document{
		DocID:            e.Fragment.ID,
		SourceType:       "document_fragment",
		UserID:           e.UserID,
		Provider:         e.Provider,
		Content:          e.Fragment.Content,
		Folder:           e.Fragment.ParentDocID,
		ParentDocID:      e.Fragment.ParentDocID,
		FragmentSequence: &seq,
		UpdatedAt:        e.LastUpdated.Time,
		Metadata:         meta,
	}
}

func buildTodo(e *events.TodoEvent) Document {
	meta := baseMetadata(e.Operation, e.LastUpdated.Time, e.SyncTimestamp.Time, e.BatchID)
	meta["status"] = e.Todo.Status
	meta["priority"] = e.Todo.Priority
	if e.Todo.DueDate != nil {
		meta["due_date"] = e.Todo.DueDate.Time
	}
	for k, v := range e.Todo.Metadata {
		meta[k] = v
	}

	var recipients []string
	if e.Todo.AssigneeEmail != "" {
		recipients = []string{e.Todo.AssigneeEmail}
	}

	return Document{
		DocID:      e.Todo.ID,
		SourceType: "todo",
		UserID:     e.UserID,
		Provider:   e.Provider,
		Title:      e.Todo.Title,
		Content:    e.Todo.Description,
		Sender:     e.Todo.CreatorEmail,
		Recipients: recipients,
		Folder:     e.Todo.ListID,
		UpdatedAt:  e.LastUpdated.Time,
		Metadata:   meta,
	}
}

func buildTodoList(e *events.TodoListEvent) Document {
	meta := baseMetadata(e.Operation, e.LastUpdated.Time, e.SyncTimestamp.Time, e.BatchID)
	meta["is_default"] = e.TodoList.IsDefault
	meta["shared_with"] = e.TodoList.SharedWith

	return Document{
		DocID:      e.TodoList.ID,
		SourceType: "todo_list",
		UserID:     e.UserID,
		Provider:   e.Provider,
		Title:      e.TodoList.Name,
		Content:    e.TodoList.Description,
		Sender:     e.TodoList.OwnerEmail,
		Recipients: e.TodoList.SharedWith,
		UpdatedAt:  e.LastUpdated.Time,
		Metadata:   meta,
	}
}

func buildLLMChat(e *events.LLMChatEvent) Document {
	return Document{
		DocID:      e.Message.ID,
		SourceType: "llm_chat",
		UserID:     e.UserID,
		Content:    e.Message.Content,
		Folder:     e.Message.ChatID,
		UpdatedAt:  e.Timestamp,
		Metadata:   map[string]any{"role": e.Message.Role, "model": e.Message.Model},
	}
}

func buildShipment(e *events.ShipmentEvent) Document {
	return Document{
		DocID:      e.ShipmentEvent.ID,
		SourceType: "shipment_event",
		UserID:     e.UserID,
		Content:    e.ShipmentEvent.Description,
		UpdatedAt:  e.Timestamp,
		Metadata: map[string]any{
			"shipment_id":   e.ShipmentEvent.ShipmentID,
			"carrier":       e.ShipmentEvent.Carrier,
			"tracking_code": e.ShipmentEvent.TrackingCode,
			"status":        e.ShipmentEvent.Status,
		},
	}
}

func buildPoll(e *events.MeetingPollEvent) Document {
	return Document{
		DocID:      e.Poll.ID,
		SourceType: "meeting_poll",
		UserID:     e.UserID,
		Content:    e.Poll.Question,
		Folder:     e.Poll.MeetingID,
		UpdatedAt:  e.Timestamp,
		Metadata:   map[string]any{"options": e.Poll.Options},
	}
}

func buildBooking(e *events.BookingEvent) Document {
	meta := map[string]any{}
	if e.Booking.Start != nil {
		meta["start"] = e.Booking.Start.Time
	}
	if e.Booking.End != nil {
		meta["end"] = e.Booking.End.Time
	}

	return Document{
		DocID:      e.Booking.ID,
		SourceType: "booking",
		UserID:     e.UserID,
		Content:    e.Booking.Purpose,
		Folder:     e.Booking.ResourceID,
		UpdatedAt:  e.Timestamp,
		Metadata:   meta,
	}
}
