package broker

import (
	"errors"
	"time"

	"github.com/ricirt/hello-game/internal/domain"
)

// Disposition is what a worker does with a delivery after handling it.
type Disposition int

const (
	Ack Disposition = iota
	Retry
	DeadLetter
)

func (d Disposition) String() string {
	switch d {
	case Ack:
		return "ack"
	case Retry:
		return "retry"
	case DeadLetter:
		return "dead_letter"
	default:
		return "unknown"
	}
}

// Decide maps the handler result for the given delivery attempt (1-based)
// to a disposition. Malformed messages are dead-lettered on first sight;
// every other failure is retried until attempt reaches maxDeliver.
func Decide(err error, attempt, maxDeliver int) Disposition {
	switch {
	case err == nil:
		return Ack
	case errors.Is(err, domain.ErrMalformedMessage):
		return DeadLetter
	case attempt >= maxDeliver:
		return DeadLetter
	default:
		return Retry
	}
}

// RetryDelay returns the redelivery delay for the given attempt (1-based).
//
//	attempt 1 → backoff[0]
//	attempt 2 → backoff[1]
//	attempt N ≥ len(backoff) → last backoff entry (clamped)
func RetryDelay(backoff []time.Duration, attempt int) time.Duration {
	if len(backoff) == 0 {
		return 0
	}
	idx := attempt - 1
	if idx < 0 {
		idx = 0
	}
	if idx >= len(backoff) {
		idx = len(backoff) - 1
	}
	return backoff[idx]
}
