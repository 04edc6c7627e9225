package consumer

import (
	"errors"

	"github.com/arc-self/ingest-fabric/pkg/events"
)

// Class is the error taxonomy the runtime distinguishes per §7.
type Class string

const (
	ClassValidation        Class = "validation"
	ClassTransientTransport Class = "transient_transport"
	ClassTransientSink      Class = "transient_sink"
	ClassIdempotentHit      Class = "idempotent_hit"
	ClassPermanentSink      Class = "permanent_sink"
	ClassFatalConfiguration Class = "fatal_configuration"
)

// TransientError marks a processor error as retryable (transient sink or
// transport failure); the runtime nacks for transport redelivery.
type TransientError struct{ Err error }

func (e *TransientError) Error() string { return "transient: " + e.Err.Error() }
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a processor error as rejected by the sink's own
// schema; redelivery will repeat the attempt until dead-lettered, but the
// idempotency kernel's "error" status lets a human see it happened.
type PermanentError struct{ Err error }

func (e *PermanentError) Error() string { return "permanent: " + e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// classify is the single point replacing the originating system's
// exception-type sniffing (§9): given a parse error or a processor error,
// it returns the taxonomy class the runtime needs to decide ack vs nack.
func classify(err error) Class {
	if err == nil {
		return ClassIdempotentHit
	}

	var verr *events.ValidationError
	if errors.As(err, &verr) {
		return ClassValidation
	}

	var transient *TransientError
	if errors.As(err, &transient) {
		return ClassTransientSink
	}

	var permanent *PermanentError
	if errors.As(err, &permanent) {
		return ClassPermanentSink
	}

	// Unclassified processor errors are treated as transient: safer to
	// retry a handful of times than to silently drop a write.
	return ClassTransientSink
}
