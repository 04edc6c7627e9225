package events

// LLMChatData is a single message in an internal chat session.
type LLMChatData struct {
	ID        string         `json:"id"`
	ChatID    string         `json:"chat_id"`
	Role      string         `json:"role,omitempty"`
	Content   string         `json:"content"`
	Model     string         `json:"model,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// LLMChatEvent is the envelope specialized with an LLMChatData payload.
type LLMChatEvent struct {
	Envelope
	Message LLMChatData `json:"message"`
}

// ShipmentEventData tracks a single carrier status update for a shipment.
type ShipmentEventData struct {
	ID           string         `json:"id"`
	ShipmentID   string         `json:"shipment_id"`
	Carrier      string         `json:"carrier,omitempty"`
	TrackingCode string         `json:"tracking_code,omitempty"`
	Status       string         `json:"status,omitempty"`
	Description  string         `json:"description,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
}

// ShipmentEvent is the envelope specialized with a ShipmentEventData payload.
type ShipmentEvent struct {
	Envelope
	ShipmentEvent ShipmentEventData `json:"shipment_event"`
}

// MeetingPollData is a scheduling poll for a proposed meeting.
type MeetingPollData struct {
	ID        string         `json:"id"`
	MeetingID string         `json:"meeting_id"`
	Question  string         `json:"question"`
	Options   []string       `json:"options,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// MeetingPollEvent is the envelope specialized with a MeetingPollData payload.
type MeetingPollEvent struct {
	Envelope
	Poll MeetingPollData `json:"poll"`
}

// BookingData is a reservation against a resource (room, equipment, …).
type BookingData struct {
	ID         string         `json:"id"`
	ResourceID string         `json:"resource_id"`
	Purpose    string         `json:"purpose,omitempty"`
	Start      *FlexTime      `json:"start,omitempty"`
	End        *FlexTime      `json:"end,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
}

// BookingEvent is the envelope specialized with a BookingData payload.
type BookingEvent struct {
	Envelope
	Booking BookingData `json:"booking"`
}
