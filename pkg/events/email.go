package events

// EmailData is the normalized shape of a provider email message.
type EmailData struct {
	ID                string            `json:"id"`
	ThreadID          string            `json:"thread_id,omitempty"`
	Subject           string            `json:"subject"`
	Body              string            `json:"body"`
	FromAddress       string            `json:"from_address"`
	ToAddresses       []string          `json:"to_addresses,omitempty"`
	CcAddresses       []string          `json:"cc_addresses,omitempty"`
	BccAddresses      []string          `json:"bcc_addresses,omitempty"`
	ReceivedDate      *FlexTime         `json:"received_date,omitempty"`
	SentDate          *FlexTime         `json:"sent_date,omitempty"`
	Labels            []string          `json:"labels,omitempty"`
	IsRead            bool              `json:"is_read"`
	IsStarred         bool              `json:"is_starred"`
	HasAttachments    bool              `json:"has_attachments"`
	Provider          string            `json:"provider,omitempty"`
	ProviderMessageID string            `json:"provider_message_id,omitempty"`
	SizeBytes         int64             `json:"size_bytes,omitempty"`
	MimeType          string            `json:"mime_type,omitempty"`
	Headers           map[string]string `json:"headers,omitempty"`
}

// EmailEvent is the envelope specialized with an EmailData payload.
type EmailEvent struct {
	Envelope
	Email    EmailData `json:"email"`
	SyncType string    `json:"sync_type,omitempty"`
}
