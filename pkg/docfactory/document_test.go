package docfactory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-self/ingest-fabric/pkg/events"
)

func TestBuildEmailMapsFields(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	e := &events.EmailEvent{
		Envelope: events.Envelope{
			Metadata:      events.Metadata{EventID: "x"},
			UserID:        "u1",
			Operation:     events.OperationCreate,
			Provider:      "gmail",
			LastUpdated:   events.NewFlexTime(t1),
			SyncTimestamp: events.NewFlexTime(t1),
		},
		Email: events.EmailData{
			ID:          "e1",
			Subject:     "Hello",
			Body:        "Hi",
			FromAddress: "a@x.com",
			ToAddresses: []string{"b@y.com"},
		},
	}

	doc, err := Build(e)
	require.NoError(t, err)
	assert.Equal(t, "e1", doc.DocID)
	assert.Equal(t, "email", doc.SourceType)
	assert.Equal(t, "Hello", doc.Title)
	assert.Equal(t, "a@x.com", doc.Sender)
	assert.Equal(t, []string{"b@y.com"}, doc.Recipients)
}

func TestBuildFragmentCarriesParentAndSequence(t *testing.T) {
	e := &events.DocumentFragmentEvent{
		Envelope: events.Envelope{Metadata: events.Metadata{EventID: "x"}, UserID: "u1", Provider: "google"},
		Fragment: events.DocumentFragmentData{ID: "f1", ParentDocID: "d1", SequenceNumber: 2, Content: "chunk"},
	}

	doc, err := Build(e)
	require.NoError(t, err)
	assert.Equal(t, "d1", doc.ParentDocID)
	require.NotNil(t, doc.FragmentSequence)
	assert.Equal(t, 2, *doc.FragmentSequence)
}

type unsupportedEvent struct{ events.Metadata }

func (u *unsupportedEvent) Kind() events.Kind         { return "unsupported" }
func (u *unsupportedEvent) Meta() *events.Metadata    { return &u.Metadata }

func TestBuildUnsupportedEventKind(t *testing.T) {
	_, err := Build(&unsupportedEvent{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedEvent)
}
