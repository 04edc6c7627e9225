package contactdiscovery

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/arc-self/ingest-fabric/pkg/adapters"
	"github.com/arc-self/ingest-fabric/pkg/events"
)

// fakeContactStore is an in-memory adapters.ContactStore for tests.
type fakeContactStore struct {
	mu       sync.Mutex
	contacts map[string]adapters.Contact
}

func newFakeContactStore() *fakeContactStore {
	return &fakeContactStore{contacts: map[string]adapters.Contact{}}
}

func key(userID, email string) string { return userID + "|" + email }

func (f *fakeContactStore) GetByEmail(_ context.Context, userID, email string) (adapters.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.contacts[key(userID, email)]
	if !ok {
		return adapters.Contact{}, adapters.ErrContactNotFound
	}
	return c, nil
}

func (f *fakeContactStore) Upsert(_ context.Context, c adapters.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts[key(c.UserID, c.Email)] = c
	return nil
}

func (f *fakeContactStore) ListByRelevance(_ context.Context, userID string, limit int) ([]adapters.Contact, error) {
	return nil, nil
}

func (f *fakeContactStore) Search(_ context.Context, userID, query string) ([]adapters.Contact, error) {
	return nil, nil
}

// fakePublisher records every published message.
type fakePublisher struct {
	mu        sync.Mutex
	published []struct {
		topic string
		data  []byte
	}
}

func (p *fakePublisher) Publish(_ context.Context, topic string, data []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, struct {
		topic string
		data  []byte
	}{topic, data})
	return nil
}

func (p *fakePublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.published)
}

func sampleEmail(t *testing.T, from string, to []string) *events.EmailEvent {
	t.Helper()
	return &events.EmailEvent{
		Envelope: events.Envelope{
			Metadata:      events.NewMetadata("gateway"),
			UserID:        "user-1",
			Operation:     events.OperationCreate,
			Provider:      "gmail",
			LastUpdated:   events.NewFlexTime(time.Now()),
			SyncTimestamp: events.NewFlexTime(time.Now()),
		},
		Email: events.EmailData{
			ID:          "m1",
			Subject:     "hi",
			Body:        "hello",
			FromAddress: from,
			ToAddresses: to,
		},
	}
}

func TestProcessCreatesContactAndRepublishes(t *testing.T) {
	store := newFakeContactStore()
	pub := &fakePublisher{}
	svc := New(store, pub, zaptest.NewLogger(t))

	e := sampleEmail(t, "Alice Smith <alice@example.com>", []string{"bob@example.com"})
	e.Email.FromAddress = "alice@example.com"

	n, err := svc.Process(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	c, err := store.GetByEmail(context.Background(), "user-1", "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, 1, c.TotalEventCount)
	assert.Equal(t, 1, c.EventCounts["email"])
	assert.Contains(t, c.SourceServices, "gateway")
	assert.Equal(t, 2, pub.count())
}

// P6: relevance recomputes on every sighting, not only on creation.
func TestProcessRecomputesRelevanceOnRepeatSighting(t *testing.T) {
	store := newFakeContactStore()
	pub := &fakePublisher{}
	svc := New(store, pub, zaptest.NewLogger(t))

	first := sampleEmail(t, "carol@example.com", nil)
	_, err := svc.Process(context.Background(), first)
	require.NoError(t, err)

	c1, err := store.GetByEmail(context.Background(), "user-1", "carol@example.com")
	require.NoError(t, err)
	firstScore := c1.RelevanceScore

	second := sampleEmail(t, "carol@example.com", nil)
	second.SyncTimestamp = events.NewFlexTime(time.Now().Add(time.Hour))
	_, err = svc.Process(context.Background(), second)
	require.NoError(t, err)

	c2, err := store.GetByEmail(context.Background(), "user-1", "carol@example.com")
	require.NoError(t, err)
	assert.Equal(t, 2, c2.TotalEventCount)
	assert.NotEqual(t, firstScore, c2.RelevanceScore)
}

func TestProcessNoExtractionsReturnsZeroWithoutError(t *testing.T) {
	store := newFakeContactStore()
	pub := &fakePublisher{}
	svc := New(store, pub, zaptest.NewLogger(t))

	e := sampleEmail(t, "", nil)
	n, err := svc.Process(context.Background(), e)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 0, pub.count())
}

// S6: an invalid todo event (missing id) must not be extracted from.
func TestInvalidTodoEventYieldsNoExtraction(t *testing.T) {
	e := &events.TodoEvent{
		Envelope: events.Envelope{
			Metadata:  events.NewMetadata("todo_sync"),
			UserID:    "user-1",
			Operation: events.OperationCreate,
		},
		Todo: events.TodoData{AssigneeEmail: "dana@example.com"},
	}
	assert.Empty(t, Extract(e))
}

func TestTodoExtractionIncludesAssigneeCreatorAndShared(t *testing.T) {
	e := &events.TodoEvent{
		Envelope: events.Envelope{
			Metadata:      events.NewMetadata("todo_sync"),
			UserID:        "user-1",
			Operation:     events.OperationCreate,
			SyncTimestamp: events.NewFlexTime(time.Now()),
		},
		Todo: events.TodoData{
			ID:            "t1",
			Title:         "assigned to: Erin Lee",
			AssigneeEmail: "erin@example.com",
			CreatorEmail:  "frank@example.com",
			Metadata: map[string]any{
				"shared_with": []any{
					"gail@example.com",
					map[string]any{"email": "hank@example.com", "name": "Hank Park"},
				},
			},
		},
	}

	ex := Extract(e)
	require.Len(t, ex, 4)
	assert.Equal(t, "erin@example.com", ex[0].Email)
	assert.Equal(t, "Erin Lee", ex[0].Name)
	assert.Equal(t, "frank@example.com", ex[1].Email)
	assert.Equal(t, "hank@example.com", ex[3].Email)
	assert.Equal(t, "Hank Park", ex[3].Name)
}
