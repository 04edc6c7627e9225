// Package idempotency derives fingerprints for domain events and wraps
// processing in an at-most-once-effect guarantee over a TTL-keyed store,
// per §4.C.
package idempotency

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"github.com/arc-self/ingest-fabric/pkg/events"
)

// KeyLength is the fixed length of every derived key (P3).
const KeyLength = 32

// Strategy tags which derivation rule produced a key. KeyFor returns it
// alongside the key; no code in this module reads it, and keys are never
// regenerated.
type Strategy string

const (
	StrategyImmutable Strategy = "immutable"
	StrategyMutable   Strategy = "mutable"
	StrategyGeneric   Strategy = "generic"
)

// immutableKinds are event kinds whose create operation is treated as
// content-addressed: the same (provider, id, user) never legitimately
// recurs with different content.
var immutableKinds = map[events.Kind]bool{
	events.KindEmail:    true,
	events.KindLLMChat:  true,
	events.KindShipment: true,
}

// KeyFor derives the idempotency key for a single event, along with the
// strategy used, per the fingerprinting rules in §4.C:
//   - create on an immutable kind:    hash("provider:entity_id:user_id")
//   - update/delete (mutable):        hash("provider:entity_id:user_id:⌊last_updated⌋")
//   - fallback:                       hash("event_type:entity_id:user_id")
//
// A child event's batch_id never collapses its own key: each sibling in a
// batch still dedupes on its own create/update identity, so per-event
// processing and per-event counts (P6) are preserved. The
// "batch:batch_id[:correlation_id]" key is reserved exclusively for the
// aggregate record ProcessBatch writes — see BatchKey.
func KeyFor(e events.Event) (string, Strategy) {
	meta := e.Meta()
	entityID := events.EntityID(e)

	op, provider, lastUpdated, hasEnvelope := envelopeOf(e)
	if hasEnvelope {
		if op == events.OperationCreate && immutableKinds[e.Kind()] {
			components := fmt.Sprintf("%s:%s:%s", provider, entityID, meta.UserID)
			return hashKey(components), StrategyImmutable
		}
		if op == events.OperationUpdate || op == events.OperationDelete {
			components := fmt.Sprintf("%s:%s:%s:%d", provider, entityID, meta.UserID, lastUpdated)
			return hashKey(components), StrategyMutable
		}
		// create on a mutable kind (calendar, contact, document, todo, …)
		// still dedupes on content identity per (I1).
		components := fmt.Sprintf("%s:%s:%s", provider, entityID, meta.UserID)
		return hashKey(components), StrategyImmutable
	}

	components := fmt.Sprintf("%s:%s:%s", e.Kind(), entityID, meta.UserID)
	return hashKey(components), StrategyGeneric
}

// BatchKey derives the aggregate key recording success/error counts for a
// batch of events sharing batchID, optionally scoped by correlationID.
func BatchKey(batchID, correlationID string) string {
	components := "batch:" + batchID
	if correlationID != "" {
		components += ":" + correlationID
	}
	return hashKey(components)
}

func hashKey(components string) string {
	sum := sha256.Sum256([]byte(components))
	return hex.EncodeToString(sum[:])[:KeyLength]
}

// envelopeOf extracts the fields key derivation needs from the envelope.
// The four internal-tool variants (llm chat, shipment, poll, booking) also
// embed an Envelope but report ok=false here, so KeyFor keys them by the
// generic rule.
func envelopeOf(e events.Event) (op events.Operation, provider string, lastUpdatedEpoch int64, ok bool) {
	switch ev := e.(type) {
	case *events.EmailEvent:
		return ev.Operation, ev.Provider, ev.LastUpdated.EpochSeconds(), true
	case *events.CalendarEvent:
		return ev.Operation, ev.Provider, ev.LastUpdated.EpochSeconds(), true
	case *events.ContactEvent:
		return ev.Operation, ev.Provider, ev.LastUpdated.EpochSeconds(), true
	case *events.DocumentEvent:
		return ev.Operation, ev.Provider, ev.LastUpdated.EpochSeconds(), true
	case *events.DocumentFragmentEvent:
		return ev.Operation, ev.Provider, ev.LastUpdated.EpochSeconds(), true
	case *events.TodoEvent:
		return ev.Operation, ev.Provider, ev.LastUpdated.EpochSeconds(), true
	case *events.TodoListEvent:
		return ev.Operation, ev.Provider, ev.LastUpdated.EpochSeconds(), true
	default:
		return "", "", 0, false
	}
}

func batchIDOf(e events.Event) string {
	switch ev := e.(type) {
	case *events.EmailEvent:
		return ev.BatchID
	case *events.CalendarEvent:
		return ev.BatchID
	case *events.ContactEvent:
		return ev.BatchID
	case *events.DocumentEvent:
		return ev.BatchID
	case *events.DocumentFragmentEvent:
		return ev.BatchID
	case *events.TodoEvent:
		return ev.BatchID
	case *events.TodoListEvent:
		return ev.BatchID
	default:
		return ""
	}
}

// ValidateKeyFormat reports whether key is exactly KeyLength lowercase hex
// characters (P3).
func ValidateKeyFormat(key string) bool {
	if len(key) != KeyLength {
		return false
	}
	for _, r := range key {
		if !(r >= '0' && r <= '9') && !(r >= 'a' && r <= 'f') {
			return false
		}
	}
	return true
}
