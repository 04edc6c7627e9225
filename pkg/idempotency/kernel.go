package idempotency

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/arc-self/ingest-fabric/pkg/events"
)

// ProcessorFunc is the caller-supplied unit of work the kernel wraps.
// Its return value, if any, is recorded as the completed Result.
type ProcessorFunc func(ctx context.Context) (any, error)

// Result is returned from Process, reporting whether fn actually ran.
type Result struct {
	Key       string
	Idempotent bool // true if fn was NOT invoked because a completed record already existed
	Value      any
}

// Kernel wraps event processing in at-most-once-effect semantics over a
// Store (P4). It is the sole serialization point preventing duplicate
// side-effects for the same event key during a redelivery window (§4.E).
type Kernel struct {
	store  Store
	logger *zap.Logger
}

// New constructs a Kernel backed by store.
func New(store Store, logger *zap.Logger) *Kernel {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Kernel{store: store, logger: logger}
}

// Process derives e's idempotency key, claims it, and invokes fn at most
// once across arbitrarily many redeliveries within the key's TTL, once an
// invocation has completed without error. If an entry already completed
// for this key, fn is skipped and the stored result is returned with
// Idempotent=true; if the earlier attempt ended in error, fn runs again.
func (k *Kernel) Process(ctx context.Context, e events.Event, fn ProcessorFunc) (Result, error) {
	key, _ := KeyFor(e)
	meta := e.Meta()

	op, batchID := "", batchIDOf(e)
	if ev, _, _, ok := envelopeOf(e); ok {
		op = string(ev)
	}

	ttl := DefaultKeyTTL
	pending := Record{
		EventType: string(e.Kind()),
		UserID:    meta.UserID,
		Operation: op,
		BatchID:   batchID,
		StoredAt:  time.Now().UTC(),
		Status:    StatusProcessing,
	}

	won, err := k.store.Claim(ctx, key, pending, ttl)
	if err != nil {
		return Result{}, err
	}
	if !won {
		existing, err := k.store.Get(ctx, key)
		if err != nil {
			return Result{}, err
		}
		if existing.Status == StatusCompleted {
			var value any
			if len(existing.Result) > 0 {
				_ = json.Unmarshal(existing.Result, &value)
			}
			k.logger.Debug("idempotent hit", zap.String("key", key), zap.String("event_kind", string(e.Kind())))
			return Result{Key: key, Idempotent: true, Value: value}, nil
		}
		if existing.Status != StatusError {
			// A prior attempt is still "processing": return an error so the
			// message is nacked and the transport redelivers it once that
			// attempt settles, rather than reprocessing concurrently.
			return Result{Key: key}, fmt.Errorf("idempotency: key %s is still processing", key)
		}
		// A prior attempt ended in "error": take the key over and repeat
		// the attempt.
		if err := k.store.Put(ctx, key, pending, ttl); err != nil {
			return Result{}, err
		}
	}

	start := time.Now()
	value, procErr := fn(ctx)
	elapsed := time.Since(start).Seconds()
	now := time.Now().UTC()

	if procErr != nil {
		rec := pending
		rec.Status = StatusError
		rec.ProcessedAt = &now
		rec.ProcessingTimeSeconds = elapsed
		rec.Error = procErr.Error()
		rec.ErrorType = classifyErrorType(procErr)
		if err := k.store.Put(ctx, key, rec, ttl); err != nil {
			k.logger.Error("failed to record idempotency error state", zap.Error(err), zap.String("key", key))
		}
		return Result{Key: key}, procErr
	}

	resultBytes, _ := json.Marshal(value)
	rec := pending
	rec.Status = StatusCompleted
	rec.ProcessedAt = &now
	rec.ProcessingTimeSeconds = elapsed
	rec.Result = resultBytes
	if err := k.store.Put(ctx, key, rec, ttl); err != nil {
		k.logger.Error("failed to record idempotency completion", zap.Error(err), zap.String("key", key))
	}
	return Result{Key: key, Value: value}, nil
}

// BatchResult aggregates the outcome of ProcessBatch.
type BatchResult struct {
	Key          string
	SuccessCount int
	ErrorCount   int
}

// ProcessBatch processes each event in events under its own key via
// Process, then records an aggregate entry under the batch key with
// success/error counts.
func (k *Kernel) ProcessBatch(ctx context.Context, batchID, correlationID string, evs []events.Event, fn func(context.Context, events.Event) (any, error)) (BatchResult, error) {
	batchKey := BatchKey(batchID, correlationID)
	result := BatchResult{Key: batchKey}

	for _, e := range evs {
		_, err := k.Process(ctx, e, func(ctx context.Context) (any, error) {
			return fn(ctx, e)
		})
		if err != nil {
			result.ErrorCount++
			continue
		}
		result.SuccessCount++
	}

	summary, _ := json.Marshal(result)
	now := time.Now().UTC()
	_ = k.store.Put(ctx, batchKey, Record{
		EventType:   "batch",
		BatchID:     batchID,
		StoredAt:    now,
		Status:      StatusCompleted,
		ProcessedAt: &now,
		Result:      summary,
	}, DefaultKeyTTL)

	return result, nil
}

func classifyErrorType(err error) string {
	// A lightweight tag recorded alongside the error message; pkg/consumer's
	// classify() makes the actual retry decision. This only labels the
	// idempotency record for observability.
	return "processing_error"
}
