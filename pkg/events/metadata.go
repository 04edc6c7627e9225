// Package events defines the versioned, strongly-typed event schema shared
// by every producer and consumer in the ingestion fabric: the envelope
// (Metadata), the eleven domain payload variants, the Event union, and
// parse/serialize round-tripping.
package events

import (
	"time"

	"github.com/google/uuid"
)

// SourceVersion is the schema version stamped on every envelope this module
// produces. Consumers must accept any version they can parse; they are not
// required to reject payloads from a newer compatible minor version.
const SourceVersion = "1.0"

// Metadata is the immutable envelope carried by every event. It is
// constructed once at event creation and may only be mutated through the
// Add* annotation methods below — annotation is the sole permitted mutation
// per the event contract.
type Metadata struct {
	EventID       string            `json:"event_id"`
	Timestamp     time.Time         `json:"timestamp"`
	SourceService string            `json:"source_service"`
	SourceVersion string            `json:"source_version"`
	TraceID       string            `json:"trace_id,omitempty"`
	SpanID        string            `json:"span_id,omitempty"`
	ParentSpanID  string            `json:"parent_span_id,omitempty"`
	RequestID     string            `json:"request_id,omitempty"`
	UserID        string            `json:"user_id,omitempty"`
	CorrelationID string            `json:"correlation_id,omitempty"`
	Tags          map[string]string `json:"tags,omitempty"`
}

// NewMetadata stamps a fresh envelope for an event about to be published by
// sourceService. The event ID is a UUIDv7 so IDs sort roughly by creation
// time, matching the teacher's newUUID convention.
func NewMetadata(sourceService string) Metadata {
	id, _ := uuid.NewV7()
	return Metadata{
		EventID:       id.String(),
		Timestamp:     time.Now().UTC(),
		SourceService: sourceService,
		SourceVersion: SourceVersion,
	}
}

// AddTraceContext annotates the envelope with a distributed-trace triplet.
func (m *Metadata) AddTraceContext(traceID, spanID, parentSpanID string) {
	m.TraceID = traceID
	m.SpanID = spanID
	m.ParentSpanID = parentSpanID
}

// AddRequestContext annotates the envelope with the request that caused it.
func (m *Metadata) AddRequestContext(requestID, userID string) {
	m.RequestID = requestID
	if userID != "" {
		m.UserID = userID
	}
}

// AddCorrelationID annotates the envelope with a correlation id linking it
// to a broader batch or workflow.
func (m *Metadata) AddCorrelationID(correlationID string) {
	m.CorrelationID = correlationID
}

// AddTags merges additional free-form tags into the envelope, overwriting
// any existing key with the same name.
func (m *Metadata) AddTags(tags map[string]string) {
	if len(tags) == 0 {
		return
	}
	if m.Tags == nil {
		m.Tags = make(map[string]string, len(tags))
	}
	for k, v := range tags {
		m.Tags[k] = v
	}
}
