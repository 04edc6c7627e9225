package idempotency

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/arc-self/ingest-fabric/pkg/events"
)

func emailEvent(userID, provider, id string, op events.Operation, lastUpdated time.Time) *events.EmailEvent {
	return &events.EmailEvent{
		Envelope: events.Envelope{
			Metadata:    events.Metadata{EventID: "x", SourceService: "office-service"},
			UserID:      userID,
			Operation:   op,
			Provider:    provider,
			LastUpdated: events.NewFlexTime(lastUpdated),
		},
		Email: events.EmailData{ID: id},
	}
}

func TestKeyForIdenticalFieldsProduceEqualKeys(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	a := emailEvent("u1", "gmail", "e1", events.OperationUpdate, t1)
	b := emailEvent("u1", "gmail", "e1", events.OperationUpdate, t1)

	keyA, _ := KeyFor(a)
	keyB, _ := KeyFor(b)
	assert.Equal(t, keyA, keyB)
}

func TestKeyForDifferingLastUpdatedProducesDifferentKey(t *testing.T) {
	t1 := time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2024, 1, 1, 11, 0, 0, 0, time.UTC)
	a := emailEvent("u1", "gmail", "e1", events.OperationUpdate, t1)
	b := emailEvent("u1", "gmail", "e1", events.OperationUpdate, t2)

	keyA, _ := KeyFor(a)
	keyB, _ := KeyFor(b)
	assert.NotEqual(t, keyA, keyB)
}

func TestKeyForLengthAndAlphabet(t *testing.T) {
	e := emailEvent("u1", "gmail", "e1", events.OperationCreate, time.Now())
	key, _ := KeyFor(e)
	assert.True(t, ValidateKeyFormat(key), "key %q must be 32 lowercase hex chars", key)
}

func TestValidateKeyFormatRejectsBadInput(t *testing.T) {
	assert.False(t, ValidateKeyFormat("too-short"))
	assert.False(t, ValidateKeyFormat("GGGGGGGGGGGGGGGGGGGGGGGGGGGGGGGG"))
}

func TestKeyForSiblingsInSameBatchGetDistinctKeys(t *testing.T) {
	now := time.Now()
	a := emailEvent("u1", "gmail", "e1", events.OperationCreate, now)
	a.BatchID = "batch-1"
	b := emailEvent("u1", "gmail", "e2", events.OperationCreate, now)
	b.BatchID = "batch-1"
	c := emailEvent("u1", "gmail", "e3", events.OperationCreate, now)
	c.BatchID = "batch-1"

	keyA, _ := KeyFor(a)
	keyB, _ := KeyFor(b)
	keyC, _ := KeyFor(c)

	assert.NotEqual(t, keyA, keyB)
	assert.NotEqual(t, keyB, keyC)
	assert.NotEqual(t, keyA, keyC)
	assert.NotEqual(t, keyA, BatchKey("batch-1", ""))
}
