package consumer

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/arc-self/ingest-fabric/pkg/events"
	"github.com/arc-self/ingest-fabric/pkg/idempotency"
)

type fakeMessage struct {
	data   []byte
	acked  int32
	nacked int32
	termed int32
}

func (m *fakeMessage) Data() []byte { return m.data }
func (m *fakeMessage) Ack() error   { atomic.AddInt32(&m.acked, 1); return nil }
func (m *fakeMessage) Nak() error   { atomic.AddInt32(&m.nacked, 1); return nil }
func (m *fakeMessage) Term() error  { atomic.AddInt32(&m.termed, 1); return nil }

func validEmailBytes(t *testing.T, id string) []byte {
	t.Helper()
	e := &events.EmailEvent{
		Envelope: events.Envelope{
			Metadata:      events.Metadata{EventID: "ev-" + id, SourceService: "office-service"},
			UserID:        "u1",
			Operation:     events.OperationCreate,
			Provider:      "gmail",
			LastUpdated:   events.NewFlexTime(time.Now()),
			SyncTimestamp: events.NewFlexTime(time.Now()),
		},
		Email: events.EmailData{ID: id, Subject: "s", Body: "b", FromAddress: "a@x.com"},
	}
	data, err := events.Serialize(e)
	require.NoError(t, err)
	return data
}

func newTestRuntime(t *testing.T, processor Processor) (*Runtime, topicBinding) {
	t.Helper()
	r := New("vespa_loader", nil, idempotency.New(idempotency.NewMemoryStore(), nil), zaptest.NewLogger(t))
	r.RegisterTopic(events.TopicEmails, processor)
	binding := r.bindings[0]
	r.stats = newStats([]string{events.TopicEmails})
	return r, binding
}

func TestHandleBatchAcksSuccessfulMessages(t *testing.T) {
	r, binding := newTestRuntime(t, func(ctx context.Context, e events.Event) (any, error) {
		return "ok", nil
	})

	msg := &fakeMessage{data: validEmailBytes(t, "e1")}
	r.handleBatch(context.Background(), binding, []Message{msg})

	assert.Equal(t, int32(1), msg.acked)
	assert.Equal(t, int32(0), msg.nacked)
}

func TestHandleBatchNacksParseFailures(t *testing.T) {
	r, binding := newTestRuntime(t, func(ctx context.Context, e events.Event) (any, error) {
		return nil, nil
	})

	msg := &fakeMessage{data: []byte(`not json`)}
	r.handleBatch(context.Background(), binding, []Message{msg})

	assert.Equal(t, int32(0), msg.acked)
	assert.Equal(t, int32(1), msg.nacked)
}

func TestHandleBatchNacksTransientProcessorError(t *testing.T) {
	r, binding := newTestRuntime(t, func(ctx context.Context, e events.Event) (any, error) {
		return nil, &TransientError{Err: assertErr}
	})

	msg := &fakeMessage{data: validEmailBytes(t, "e2")}
	r.handleBatch(context.Background(), binding, []Message{msg})

	assert.Equal(t, int32(0), msg.acked)
	assert.Equal(t, int32(1), msg.nacked)
}

func TestHandleBatchDedupesRedeliveredMessage(t *testing.T) {
	var calls int32
	r, binding := newTestRuntime(t, func(ctx context.Context, e events.Event) (any, error) {
		atomic.AddInt32(&calls, 1)
		return "ok", nil
	})

	data := validEmailBytes(t, "e3")
	r.handleBatch(context.Background(), binding, []Message{&fakeMessage{data: data}})
	r.handleBatch(context.Background(), binding, []Message{&fakeMessage{data: data}})

	assert.Equal(t, int32(1), calls)
}

var assertErr = errTransientForTest{}

type errTransientForTest struct{}

func (errTransientForTest) Error() string { return "sink unavailable" }
