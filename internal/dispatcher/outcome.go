package dispatcher

import (
	"context"
	"errors"

	"tss/internal/gateway/broker"
	"tss/internal/intent"
	"tss/internal/store/records"
)

// Outcome is the terminal classification of one delivered message. There
// are only two: remove the message, or leave it for redelivery.
type Outcome int

const (
	// OutcomeAck removes the message from the queue. Used when the
	// result is determined, whether that result is success, an
	// intentional skip, or a definitive failure.
	OutcomeAck Outcome = iota

	// OutcomeRetry leaves the message for redelivery: the outcome is
	// unknown and a later attempt may land differently.
	OutcomeRetry
)

func (o Outcome) String() string {
	if o == OutcomeRetry {
		return "RETRY"
	}
	return "ACK"
}

// classify maps a processing error to the ack/retry decision. The whole
// decision table lives in this one switch: typed errors are determined
// outcomes and ack; anything unrecognized, including a processing
// timeout, has unknown side effects and retries. Order is load-bearing:
// a persistence failure acks even when a timeout caused it (the broker
// order stands), and the context check precedes the broker-error check
// because the gateway wraps transport causes, timeouts included.
func classify(err error) Outcome {
	if err == nil {
		return OutcomeAck
	}
	var ve *intent.ValidationError
	if errors.As(err, &ve) {
		return OutcomeAck
	}
	var pe *records.PersistenceError
	if errors.As(err, &pe) {
		// The broker order stands; redelivering would duplicate it.
		return OutcomeAck
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return OutcomeRetry
	}
	if broker.IsBrokerError(err) {
		return OutcomeAck
	}
	return OutcomeRetry
}
