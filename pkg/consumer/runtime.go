// Package consumer is the generic typed Pub/Sub consumer runtime (§4.E):
// pull, per-topic micro-batch, bounded concurrent dispatch through the
// idempotency kernel, and ack/nack/term. Redelivery is capped at the
// subscription's MaxRetryAttempts; the runtime does not publish to a
// dead-letter topic, and registry.Config.DeadLetterTopic is not read.
package consumer

import (
	"context"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arc-self/ingest-fabric/internal/natsclient"
	"github.com/arc-self/ingest-fabric/pkg/events"
	"github.com/arc-self/ingest-fabric/pkg/idempotency"
	"github.com/arc-self/ingest-fabric/pkg/registry"
)

// batchTimeout is the §4.E batch-drain deadline when the buffer hasn't yet
// reached its configured batch size.
const batchTimeout = 5 * time.Second

// maxConcurrentDispatch bounds fan-out within one drained batch.
const maxConcurrentDispatch = 8

// Processor is the topic-specific unit of work a consumer dispatches a
// parsed event to. Its return value, if any, is recorded by the
// idempotency kernel as the completed result.
type Processor func(ctx context.Context, e events.Event) (any, error)

type topicBinding struct {
	topic     string
	processor Processor
	cfg       registry.Config
}

// Runtime is one consumer instance: a service name (resolving registry
// entries), a set of topics each bound to a processor, and the shared
// idempotency kernel all dispatched events pass through.
type Runtime struct {
	service string
	client  *natsclient.Client
	kernel  *idempotency.Kernel
	logger  *zap.Logger

	bindings []topicBinding
	stats    *Stats

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New constructs a Runtime for service, dispatching through kernel.
func New(service string, client *natsclient.Client, kernel *idempotency.Kernel, logger *zap.Logger) *Runtime {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Runtime{service: service, client: client, kernel: kernel, logger: logger}
}

// RegisterTopic binds topic to processor, resolving its subscription
// configuration from the registry.
func (r *Runtime) RegisterTopic(topic string, processor Processor) {
	r.bindings = append(r.bindings, topicBinding{
		topic:     topic,
		processor: processor,
		cfg:       registry.GetConfig(r.service, topic),
	})
}

// Start ensures every bound topic's subscription exists and begins pulling.
// It returns once every subscription is established; pulling continues in
// background goroutines until Stop is called or ctx is cancelled.
func (r *Runtime) Start(ctx context.Context) error {
	if len(r.bindings) == 0 {
		return nil
	}

	topics := make([]string, len(r.bindings))
	for i, b := range r.bindings {
		topics[i] = b.topic
	}
	r.stats = newStats(topics)

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	for _, binding := range r.bindings {
		sub, err := r.client.JS.PullSubscribe(
			natsclient.Subject(binding.topic),
			binding.cfg.SubscriptionName,
			nats.BindStream(natsclient.StreamIngestEvents),
			nats.AckWait(time.Duration(binding.cfg.AckDeadlineSeconds)*time.Second),
			nats.MaxDeliver(binding.cfg.MaxRetryAttempts),
		)
		if err != nil {
			cancel()
			return err
		}

		r.logger.Info("consumer subscription ready",
			zap.String("service", r.service),
			zap.String("topic", binding.topic),
			zap.String("subscription", binding.cfg.SubscriptionName),
		)

		r.wg.Add(1)
		go r.pumpTopic(runCtx, binding, natsSubscription{sub})
	}

	return nil
}

// Stop cancels all pulls and waits for in-flight dispatched work to
// complete before returning (P7): un-dispatched buffered messages are
// nacked, never acked.
func (r *Runtime) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	r.wg.Wait()
}

// Stats returns a snapshot of the runtime's operational counters.
func (r *Runtime) Stats() Snapshot {
	if r.stats == nil {
		return Snapshot{}
	}
	return r.stats.Snapshot()
}

func (r *Runtime) pumpTopic(ctx context.Context, binding topicBinding, sub Subscription) {
	defer r.wg.Done()

	var pending []Message
	firstBuffered := time.Time{}

	drain := func() {
		if len(pending) == 0 {
			return
		}
		batch := pending
		pending = nil
		firstBuffered = time.Time{}
		r.handleBatch(ctx, binding, batch)
	}

	for {
		select {
		case <-ctx.Done():
			// Cancellation: un-dispatched buffered messages are nacked,
			// never acked (P7).
			for _, m := range pending {
				_ = m.Nak()
			}
			return
		default:
		}

		fetchTimeout := batchTimeout
		if !firstBuffered.IsZero() {
			elapsed := time.Since(firstBuffered)
			if elapsed >= batchTimeout {
				drain()
				continue
			}
			fetchTimeout = batchTimeout - elapsed
		}

		msgs, err := sub.Fetch(ctx, binding.cfg.BatchSize-len(pending), fetchTimeout)
		if err != nil {
			// Timeout or context cancellation: check whether the pending
			// batch has aged out before looping again.
			if !firstBuffered.IsZero() && time.Since(firstBuffered) >= batchTimeout {
				drain()
			}
			continue
		}

		if len(pending) == 0 && len(msgs) > 0 {
			firstBuffered = time.Now()
		}
		pending = append(pending, msgs...)
		r.stats.setBuffer(binding.topic, len(pending))

		if len(pending) >= binding.cfg.BatchSize {
			drain()
		}
	}
}

// handleBatch decodes and dispatches one drained batch with bounded
// concurrency. It is exercised directly by tests with fake Messages, the
// same pure/impure split the teacher's processEvent/processMessage
// division uses.
func (r *Runtime) handleBatch(ctx context.Context, binding topicBinding, msgs []Message) {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentDispatch)

	for _, m := range msgs {
		m := m
		g.Go(func() error {
			r.dispatchOne(gctx, binding, m)
			return nil
		})
	}
	_ = g.Wait()

	r.stats.setBuffer(binding.topic, 0)
}

func (r *Runtime) dispatchOne(ctx context.Context, binding topicBinding, m Message) {
	e, err := events.Parse(binding.topic, m.Data())
	if err != nil {
		// Parse error: fatal per-message, nack without retry benefit (§7).
		r.stats.incErrors()
		r.logger.Warn("dropping unparseable message", zap.String("topic", binding.topic), zap.Error(err))
		_ = m.Nak()
		return
	}

	ctx = withTraceContext(ctx, e.Meta())

	result, err := r.kernel.Process(ctx, e, func(ctx context.Context) (any, error) {
		return binding.processor(ctx, e)
	})
	if err != nil {
		r.stats.incErrors()
		switch classify(err) {
		case ClassValidation:
			_ = m.Term()
		default:
			_ = m.Nak()
		}
		return
	}

	if result.Idempotent {
		r.logger.Debug("idempotent hit, skipping side effects", zap.String("topic", binding.topic), zap.String("key", result.Key))
	}

	r.stats.incProcessed()
	_ = m.Ack()
}

// withTraceContext reconstructs a remote span context from the event's
// trace/span IDs, if present, so processor-side spans link back to the
// producing request across the async transport boundary.
func withTraceContext(ctx context.Context, meta *events.Metadata) context.Context {
	if meta.TraceID == "" || meta.SpanID == "" {
		return ctx
	}
	traceID, err := trace.TraceIDFromHex(meta.TraceID)
	if err != nil {
		return ctx
	}
	spanID, err := trace.SpanIDFromHex(meta.SpanID)
	if err != nil {
		return ctx
	}
	remote := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
		Remote:     true,
	})
	return trace.ContextWithRemoteSpanContext(ctx, remote)
}
