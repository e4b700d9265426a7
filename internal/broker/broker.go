// Package broker connects the name pipeline to its message queue. It offers a
// NATS JetStream adapter for production and an in-memory broker with the same
// surface for local runs and tests.
package broker

import (
	"context"
	"errors"
	"time"

	"github.com/ricirt/hello-game/internal/domain"
)

// ErrSourceClosed is returned by Source.Next once the source has been
// stopped or its context cancelled.
var ErrSourceClosed = errors.New("message source closed")

// Message is one delivery of a queued name. Exactly one of Ack, Nak or Term
// should be called per delivery.
type Message interface {
	Data() []byte
	Metadata() domain.DeliveryMetadata
	Ack() error
	// Nak asks for redelivery after delay.
	Nak(delay time.Duration) error
	// Term stops redelivery of this message for good.
	Term() error
}

// Source hands out deliveries to consumer workers. Next blocks until a
// message is available and is safe for concurrent use.
type Source interface {
	Next(ctx context.Context) (Message, error)
}

// DeadLetterer records messages that will never be processed successfully.
type DeadLetterer interface {
	DeadLetter(ctx context.Context, rec DeadLetterRecord) error
}

// Failure types for dead-letter records.
const (
	FailureTypeMalformed = "malformed"
	FailureTypeExhausted = "exhausted"
)

// DeadLetterRecord is the JSON payload published to the dead-letter subject.
type DeadLetterRecord struct {
	MessageID       string    `json:"message_id"`
	Subject         string    `json:"subject,omitempty"`
	OriginalMessage []byte    `json:"original_message"`
	Attempts        int       `json:"attempts"`
	FailureType     string    `json:"failure_type"`
	LastError       string    `json:"last_error,omitempty"`
	PublishedAt     time.Time `json:"published_at"`
	LastAttemptAt   time.Time `json:"last_attempt_at"`
}
