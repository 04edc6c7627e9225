package events

// Attendee is a single calendar-event participant.
type Attendee struct {
	Email          string `json:"email"`
	Name           string `json:"name,omitempty"`
	ResponseStatus string `json:"response_status,omitempty"`
	Optional       bool   `json:"optional,omitempty"`
}

// CalendarData is the normalized shape of a provider calendar event.
type CalendarData struct {
	ID               string     `json:"id"`
	Title            string     `json:"title"`
	Description      string     `json:"description,omitempty"`
	Start            FlexTime   `json:"start"`
	End              FlexTime   `json:"end"`
	AllDay           bool       `json:"all_day"`
	Organizer        string     `json:"organizer"`
	Attendees        []Attendee `json:"attendees,omitempty"`
	Location         string     `json:"location,omitempty"`
	Status           string     `json:"status,omitempty"`
	Visibility       string     `json:"visibility,omitempty"`
	Recurrence       string     `json:"recurrence,omitempty"`
	Reminders        []string   `json:"reminders,omitempty"`
	Attachments      []string   `json:"attachments,omitempty"`
	ProviderEventID  string     `json:"provider_event_id,omitempty"`
	CalendarID       string     `json:"calendar_id,omitempty"`
}

// CalendarEvent is the envelope specialized with a CalendarData payload.
type CalendarEvent struct {
	Envelope
	Calendar CalendarData `json:"calendar"`
}
