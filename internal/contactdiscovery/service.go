package contactdiscovery

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/arc-self/ingest-fabric/pkg/adapters"
	"github.com/arc-self/ingest-fabric/pkg/events"
)

// Publisher re-emits the updated ContactEvent onto the contacts topic.
// Satisfied by *internal/natsclient.Client in production and a recording
// fake in tests.
type Publisher interface {
	Publish(ctx context.Context, topic string, data []byte) error
}

// Service runs the read-extract-score-persist-republish cycle for every
// event Extract yields tuples for (§4.F).
type Service struct {
	store     adapters.ContactStore
	publisher Publisher
	logger    *zap.Logger
}

// New constructs a Service. Republished ContactEvents carry
// "contact-discovery" as their Metadata source service.
func New(store adapters.ContactStore, publisher Publisher, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, publisher: publisher, logger: logger}
}

// Process extracts contact tuples from e, applies each against the store in
// turn, and republishes one ContactEvent per distinct email touched. It
// returns the number of contacts touched — the idempotency kernel records
// this as the processing result, not a transport acknowledgement.
func (s *Service) Process(ctx context.Context, e events.Event) (any, error) {
	extractions := Extract(e)
	if len(extractions) == 0 {
		return 0, nil
	}

	userID := ownerUserID(e)
	if userID == "" {
		return 0, fmt.Errorf("contactdiscovery: event %s carries no user_id", e.Kind())
	}

	touched := make(map[string]adapters.Contact)
	var order []string
	for _, x := range extractions {
		contact, err := s.applyExtraction(ctx, userID, x)
		if err != nil {
			return nil, fmt.Errorf("apply extraction for %s: %w", x.Email, err)
		}
		if _, seen := touched[x.Email]; !seen {
			order = append(order, x.Email)
		}
		touched[x.Email] = contact
	}
	for _, email := range order {
		if err := s.republish(ctx, touched[email]); err != nil {
			return nil, fmt.Errorf("republish contact %s: %w", email, err)
		}
	}
	return len(touched), nil
}

// applyExtraction performs the read-modify-write cycle for a single
// extraction tuple: find-or-create, bump counters, split a name if one
// wasn't already resolved, recompute relevance, persist.
func (s *Service) applyExtraction(ctx context.Context, userID string, x Extraction) (adapters.Contact, error) {
	contact, err := s.store.GetByEmail(ctx, userID, x.Email)
	now := x.Timestamp
	if now.IsZero() {
		now = time.Now()
	}

	switch {
	case err == nil:
		// existing contact: fall through to update below
	case isNotFound(err):
		contact = adapters.Contact{
			UserID:      userID,
			Email:       x.Email,
			EventCounts: map[string]int{},
			FirstSeen:   now,
		}
	default:
		return adapters.Contact{}, err
	}

	if contact.EventCounts == nil {
		contact.EventCounts = map[string]int{}
	}
	contact.EventCounts[x.EventType]++
	contact.TotalEventCount++
	contact.SourceServices = appendUnique(contact.SourceServices, x.SourceService)
	contact.LastSeen = now
	applyName(&contact, x.Name)
	contact.RelevanceScore = score(contact, now)

	if err := s.store.Upsert(ctx, contact); err != nil {
		return adapters.Contact{}, err
	}
	return contact, nil
}

func (s *Service) republish(ctx context.Context, c adapters.Contact) error {
	if s.publisher == nil {
		return nil
	}
	meta := events.NewMetadata("contact-discovery")
	ce := events.ContactEvent{
		Envelope: events.Envelope{
			Metadata:      meta,
			UserID:        c.UserID,
			Operation:     events.OperationUpdate,
			Provider:      "internal",
			LastUpdated:   events.FlexTime{Time: c.LastSeen},
			SyncTimestamp: events.FlexTime{Time: c.LastSeen},
		},
		Contact: events.ContactData{
			ID:             c.ID,
			DisplayName:    strings.TrimSpace(c.GivenName + " " + c.FamilyName),
			GivenName:      c.GivenName,
			FamilyName:     c.FamilyName,
			EmailAddresses: []string{c.Email},
			LastModified:   &events.FlexTime{Time: c.LastSeen},
		},
	}

	data, err := events.Serialize(&ce)
	if err != nil {
		return fmt.Errorf("serialize contact event: %w", err)
	}
	if err := s.publisher.Publish(ctx, events.TopicContacts, data); err != nil {
		s.logger.Warn("publish contact event failed", zap.String("email", c.Email), zap.Error(err))
		return err
	}
	return nil
}

// applyName fills contact's given/family name from a "First Last" style
// display name only if a name isn't already resolved — later sightings
// without a name must never blank out an earlier resolved one.
func applyName(c *adapters.Contact, name string) {
	name = strings.TrimSpace(name)
	if name == "" || c.GivenName != "" {
		return
	}
	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return
	case 1:
		c.GivenName = parts[0]
	default:
		c.GivenName = parts[0]
		c.FamilyName = strings.Join(parts[1:], " ")
	}
}

func appendUnique(services []string, service string) []string {
	for _, s := range services {
		if s == service {
			return services
		}
	}
	out := append(append([]string{}, services...), service)
	sort.Strings(out)
	return out
}

func isNotFound(err error) bool {
	return err == adapters.ErrContactNotFound
}

// ownerUserID reads the tenant key off whichever envelope-carrying event
// type e is; mirrors events.EntityID's per-kind switch.
func ownerUserID(e events.Event) string {
	switch ev := e.(type) {
	case *events.EmailEvent:
		return ev.UserID
	case *events.CalendarEvent:
		return ev.UserID
	case *events.DocumentEvent:
		return ev.UserID
	case *events.TodoEvent:
		return ev.UserID
	default:
		return ""
	}
}
