package events

import (
	"encoding/json"
	"fmt"
)

// Topic names are the stable identifiers producers publish to and the
// subscription registry (pkg/registry) references. They never change shape
// independently of this file.
const (
	TopicEmails                  = "emails"
	TopicCalendars               = "calendars"
	TopicContacts                = "contacts"
	TopicWordDocuments           = "word_documents"
	TopicWordFragments           = "word_fragments"
	TopicSheetDocuments          = "sheet_documents"
	TopicSheetFragments          = "sheet_fragments"
	TopicPresentationDocuments   = "presentation_documents"
	TopicPresentationFragments   = "presentation_fragments"
	TopicTaskDocuments           = "task_documents"
	TopicTodos                   = "todos"
	TopicTodoLists               = "todo_lists"
	TopicLLMChats                = "llm_chats"
	TopicShipmentEvents          = "shipment_events"
	TopicMeetingPolls            = "meeting_polls"
	TopicBookings                = "bookings"
)

// Kind tags the set of event classes this module understands. The document
// factory (pkg/docfactory) switches over the concrete event types with one
// case per Kind — the replacement for the originating system's
// isinstance-chain duck typing. The compiler does not check that switch for
// completeness: an Event without a matching case gets
// docfactory.ErrUnsupportedEvent at runtime.
type Kind string

const (
	KindEmail     Kind = "email"
	KindCalendar  Kind = "calendar"
	KindContact   Kind = "contact"
	KindDocument  Kind = "document"
	KindFragment  Kind = "fragment"
	KindTodo      Kind = "todo"
	KindTodoList  Kind = "todo_list"
	KindLLMChat   Kind = "llm_chat"
	KindShipment  Kind = "shipment"
	KindPoll      Kind = "poll"
	KindBooking   Kind = "booking"
)

// Event is implemented by every one of the nine (plus two supplemented)
// domain payload variants. It exposes only what's common to all of them:
// its tag and a pointer to the mutable envelope fields for annotation.
type Event interface {
	Kind() Kind
	Meta() *Metadata
}

func (e *EmailEvent) Kind() Kind          { return KindEmail }
func (e *EmailEvent) Meta() *Metadata     { return &e.Metadata }

func (e *CalendarEvent) Kind() Kind       { return KindCalendar }
func (e *CalendarEvent) Meta() *Metadata  { return &e.Metadata }

func (e *ContactEvent) Kind() Kind        { return KindContact }
func (e *ContactEvent) Meta() *Metadata   { return &e.Metadata }

func (e *DocumentEvent) Kind() Kind       { return KindDocument }
func (e *DocumentEvent) Meta() *Metadata  { return &e.Metadata }

func (e *DocumentFragmentEvent) Kind() Kind      { return KindFragment }
func (e *DocumentFragmentEvent) Meta() *Metadata { return &e.Metadata }

func (e *TodoEvent) Kind() Kind           { return KindTodo }
func (e *TodoEvent) Meta() *Metadata      { return &e.Metadata }

func (e *TodoListEvent) Kind() Kind       { return KindTodoList }
func (e *TodoListEvent) Meta() *Metadata  { return &e.Metadata }

func (e *LLMChatEvent) Kind() Kind        { return KindLLMChat }
func (e *LLMChatEvent) Meta() *Metadata   { return &e.Metadata }

func (e *ShipmentEvent) Kind() Kind       { return KindShipment }
func (e *ShipmentEvent) Meta() *Metadata  { return &e.Metadata }

func (e *MeetingPollEvent) Kind() Kind      { return KindPoll }
func (e *MeetingPollEvent) Meta() *Metadata { return &e.Metadata }

func (e *BookingEvent) Kind() Kind        { return KindBooking }
func (e *BookingEvent) Meta() *Metadata   { return &e.Metadata }

// ValidationError is returned by Parse when the payload is missing a required
// field or the topic is unrecognized; per §7 this is non-retryable.
type ValidationError struct {
	Topic string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("events: validation error on topic %q: %v", e.Topic, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Parse decodes bytes published on topic into the matching Event
// implementation. It never partially constructs: any field-level error
// discards the partially-decoded value and returns a *ValidationError.
func Parse(topic string, data []byte) (Event, error) {
	newEvent := func() (Event, error) {
		switch topic {
		case TopicEmails:
			return &EmailEvent{}, nil
		case TopicCalendars:
			return &CalendarEvent{}, nil
		case TopicContacts:
			return &ContactEvent{}, nil
		case TopicWordDocuments, TopicSheetDocuments, TopicPresentationDocuments, TopicTaskDocuments:
			return &DocumentEvent{}, nil
		case TopicWordFragments, TopicSheetFragments, TopicPresentationFragments:
			return &DocumentFragmentEvent{}, nil
		case TopicTodos:
			return &TodoEvent{}, nil
		case TopicTodoLists:
			return &TodoListEvent{}, nil
		case TopicLLMChats:
			return &LLMChatEvent{}, nil
		case TopicShipmentEvents:
			return &ShipmentEvent{}, nil
		case TopicMeetingPolls:
			return &MeetingPollEvent{}, nil
		case TopicBookings:
			return &BookingEvent{}, nil
		default:
			return nil, fmt.Errorf("unknown topic %q", topic)
		}
	}

	ev, err := newEvent()
	if err != nil {
		return nil, &ValidationError{Topic: topic, Err: err}
	}

	if err := json.Unmarshal(data, ev); err != nil {
		return nil, &ValidationError{Topic: topic, Err: err}
	}

	if err := validate(topic, ev); err != nil {
		return nil, &ValidationError{Topic: topic, Err: err}
	}

	return ev, nil
}

// Serialize encodes an Event back to wire bytes. It is round-trip-stable
// with Parse: Parse(topic, Serialize(e)) reproduces e field-for-field,
// because timestamps always re-emit as RFC 3339 regardless of the form they
// were parsed from (see FlexTime).
func Serialize(e Event) ([]byte, error) {
	return json.Marshal(e)
}

// validate enforces event_id and source_service on every event; user_id,
// operation and provider only on the seven variants that implement
// envelopeFields (not llm chat, shipment, poll or booking); plus the one
// payload-level check (a non-empty entity id) that every variant shares.
func validate(topic string, e Event) error {
	meta := e.Meta()
	if meta.EventID == "" {
		return fmt.Errorf("missing event_id")
	}
	if meta.SourceService == "" {
		return fmt.Errorf("missing source_service")
	}

	type envelopeHolder interface {
		envelopeFields() (userID string, op Operation, provider string)
	}
	if h, ok := e.(envelopeHolder); ok {
		userID, op, provider := h.envelopeFields()
		if userID == "" {
			return fmt.Errorf("missing user_id")
		}
		if !op.valid() {
			return fmt.Errorf("invalid operation %q", op)
		}
		if provider == "" {
			return fmt.Errorf("missing provider")
		}
	}

	if id := entityID(e); id == "" {
		return fmt.Errorf("missing entity id for topic %q", topic)
	}

	return nil
}

func (e *EmailEvent) envelopeFields() (string, Operation, string) {
	return e.UserID, e.Operation, e.Provider
}
func (e *CalendarEvent) envelopeFields() (string, Operation, string) {
	return e.UserID, e.Operation, e.Provider
}
func (e *ContactEvent) envelopeFields() (string, Operation, string) {
	return e.UserID, e.Operation, e.Provider
}
func (e *DocumentEvent) envelopeFields() (string, Operation, string) {
	return e.UserID, e.Operation, e.Provider
}
func (e *DocumentFragmentEvent) envelopeFields() (string, Operation, string) {
	return e.UserID, e.Operation, e.Provider
}
func (e *TodoEvent) envelopeFields() (string, Operation, string) {
	return e.UserID, e.Operation, e.Provider
}
func (e *TodoListEvent) envelopeFields() (string, Operation, string) {
	return e.UserID, e.Operation, e.Provider
}

// entityID returns the payload's own primary identifier, used both for
// validation and by the idempotency kernel's key derivation.
func entityID(e Event) string {
	switch ev := e.(type) {
	case *EmailEvent:
		return ev.Email.ID
	case *CalendarEvent:
		return ev.Calendar.ID
	case *ContactEvent:
		return ev.Contact.ID
	case *DocumentEvent:
		return ev.Document.ID
	case *DocumentFragmentEvent:
		return ev.Fragment.ID
	case *TodoEvent:
		return ev.Todo.ID
	case *TodoListEvent:
		return ev.TodoList.ID
	case *LLMChatEvent:
		return ev.Message.ID
	case *ShipmentEvent:
		return ev.ShipmentEvent.ID
	case *MeetingPollEvent:
		return ev.Poll.ID
	case *BookingEvent:
		return ev.Booking.ID
	default:
		return ""
	}
}

// EntityID exposes entityID for callers outside the package (the
// idempotency kernel's key derivation uses it).
func EntityID(e Event) string { return entityID(e) }
