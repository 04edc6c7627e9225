package adapters

import (
	"context"

	"github.com/arc-self/ingest-fabric/pkg/events"
)

// Provider read clients abstract over token acquisition (the token
// manager is external) and pagination, normalizing a provider's raw
// response into exactly one payload record per provider entity with
// stable identifiers. Only the normalization contract is specified here;
// no concrete provider implementation (OAuth, wire formats) is in scope.

// MailReadClient lists and normalizes a provider's email messages.
type MailReadClient interface {
	ListMessages(ctx context.Context, userID string, pageToken string) (messages []events.EmailData, nextPageToken string, err error)
}

// CalendarReadClient lists and normalizes a provider's calendar events.
type CalendarReadClient interface {
	ListEvents(ctx context.Context, userID string, pageToken string) (calendarEvents []events.CalendarData, nextPageToken string, err error)
}

// FileReadClient lists and normalizes a provider's documents.
type FileReadClient interface {
	ListDocuments(ctx context.Context, userID string, pageToken string) (documents []events.DocumentData, nextPageToken string, err error)
}
