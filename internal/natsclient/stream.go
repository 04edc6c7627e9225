package natsclient

import (
	"context"
	"errors"
	"fmt"

	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	// StreamIngestEvents is the durable stream capturing every domain
	// event topic in §6.
	StreamIngestEvents = "INGEST_EVENTS"
	// SubjectIngestEvents captures all topic-routed domain events; a
	// concrete topic maps to the subject "INGEST_EVENTS.<topic>".
	SubjectIngestEvents = "INGEST_EVENTS.>"
)

var streamSubjects = []string{SubjectIngestEvents}

// Subject returns the JetStream subject a given topic publishes and pulls
// under.
func Subject(topic string) string {
	return StreamIngestEvents + "." + topic
}

// ProvisionStreams idempotently ensures the INGEST_EVENTS JetStream stream
// exists with the correct subject filter. It creates the stream on first
// run and is a no-op if the stream already exists.
func (c *Client) ProvisionStreams() error {
	info, err := c.JS.StreamInfo(StreamIngestEvents)
	if err == nil {
		_ = info
		c.Log.Info("NATS stream already exists", zap.String("stream", StreamIngestEvents))
		return nil
	}

	if !errors.Is(err, nats.ErrStreamNotFound) {
		return fmt.Errorf("stream info: %w", err)
	}

	cfg := &nats.StreamConfig{
		Name:      StreamIngestEvents,
		Subjects:  streamSubjects,
		Storage:   nats.FileStorage,
		Retention: nats.LimitsPolicy,
	}

	if _, err := c.JS.AddStream(cfg); err != nil {
		return fmt.Errorf("create stream: %w", err)
	}

	c.Log.Info("NATS stream provisioned",
		zap.String("stream", StreamIngestEvents),
		zap.Strings("subjects", streamSubjects),
	)
	return nil
}

// Publish publishes data onto the JetStream subject for topic, satisfying
// any abstract Publisher interface a package (e.g. internal/contactdiscovery)
// declares over it without importing nats.go directly.
func (c *Client) Publish(ctx context.Context, topic string, data []byte) error {
	_, err := c.JS.Publish(Subject(topic), data, nats.Context(ctx))
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}
