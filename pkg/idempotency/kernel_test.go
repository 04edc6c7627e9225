package idempotency

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/arc-self/ingest-fabric/pkg/events"
)

func TestProcessInvokesFnAtMostOnceAcrossRedeliveries(t *testing.T) {
	k := New(NewMemoryStore(), nil)
	e := emailEvent("u1", "gmail", "e1", events.OperationCreate, time.Now())

	var calls int32
	fn := func(ctx context.Context) (any, error) {
		atomic.AddInt32(&calls, 1)
		return map[string]string{"doc_id": "e1"}, nil
	}

	for i := 0; i < 5; i++ {
		_, err := k.Process(context.Background(), e, fn)
		require.NoError(t, err)
	}

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestProcessSecondCallReturnsIdempotentHit(t *testing.T) {
	k := New(NewMemoryStore(), nil)
	e := emailEvent("u1", "gmail", "e1", events.OperationCreate, time.Now())

	fn := func(ctx context.Context) (any, error) { return "ok", nil }

	first, err := k.Process(context.Background(), e, fn)
	require.NoError(t, err)
	assert.False(t, first.Idempotent)

	second, err := k.Process(context.Background(), e, fn)
	require.NoError(t, err)
	assert.True(t, second.Idempotent)
}

func TestProcessBatchAggregatesCounts(t *testing.T) {
	k := New(NewMemoryStore(), nil)
	evs := []events.Event{
		emailEvent("u1", "gmail", "e1", events.OperationCreate, time.Now()),
		emailEvent("u1", "gmail", "e2", events.OperationCreate, time.Now()),
		emailEvent("u1", "gmail", "e3", events.OperationCreate, time.Now()),
	}
	for _, e := range evs {
		e.(*events.EmailEvent).BatchID = "bx"
	}

	var calls int32
	result, err := k.ProcessBatch(context.Background(), "bx", "", evs, func(ctx context.Context, e events.Event) (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, result.SuccessCount)
	assert.Equal(t, 0, result.ErrorCount)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls), "each sibling in the batch must be processed independently, not collapsed onto one key")
}
