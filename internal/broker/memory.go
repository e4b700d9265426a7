package broker

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nats-io/nuid"

	"github.com/ricirt/hello-game/internal/domain"
)

var errAlreadySettled = errors.New("message already acknowledged")

// MemoryBroker is an in-process queue with at-least-once redelivery.
//
// Fresh publishes and redeliveries sit on separate buffered channels.
// Next serves pending redeliveries before fresh messages using the
// double-select pattern, so a nak'd message is not starved behind a backlog.
type MemoryBroker struct {
	fresh     chan *memoryMessage
	redeliver chan *memoryMessage
	closed    chan struct{}
	closeOnce sync.Once

	mu          sync.Mutex
	acked       []string
	terminated  []string
	deadLetters []DeadLetterRecord
}

type memoryMessage struct {
	id          string
	data        []byte
	publishedAt time.Time
	deliveries  atomic.Int32
}

// NewMemoryBroker returns a broker holding up to buffer unconsumed messages.
func NewMemoryBroker(buffer int) *MemoryBroker {
	return &MemoryBroker{
		fresh:     make(chan *memoryMessage, buffer),
		redeliver: make(chan *memoryMessage, buffer),
		closed:    make(chan struct{}),
	}
}

// Publish enqueues a copy of data. It never blocks: a full buffer is
// reported as a transport error.
func (b *MemoryBroker) Publish(ctx context.Context, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPublishTimeout, err)
	}
	msg := &memoryMessage{
		id:          nuid.Next(),
		data:        append([]byte(nil), data...),
		publishedAt: time.Now().UTC(),
	}
	select {
	case <-b.closed:
		return "", fmt.Errorf("%w: broker closed", domain.ErrPublishTransport)
	default:
	}
	select {
	case b.fresh <- msg:
		return msg.id, nil
	default:
		return "", fmt.Errorf("%w: queue full", domain.ErrPublishTransport)
	}
}

// Next blocks until a delivery is available, ctx is cancelled or the broker is closed.
func (b *MemoryBroker) Next(ctx context.Context) (Message, error) {
	// Step 1: drain redeliveries before entering a fair wait.
	select {
	case msg := <-b.redeliver:
		return b.deliver(msg), nil
	default:
	}

	// Step 2: fair competition when no redelivery is pending.
	select {
	case msg := <-b.redeliver:
		return b.deliver(msg), nil
	case msg := <-b.fresh:
		return b.deliver(msg), nil
	case <-ctx.Done():
		return nil, ErrSourceClosed
	case <-b.closed:
		return nil, ErrSourceClosed
	}
}

func (b *MemoryBroker) deliver(msg *memoryMessage) *memoryDelivery {
	return &memoryDelivery{
		broker:  b,
		msg:     msg,
		attempt: int(msg.deliveries.Add(1)),
	}
}

// DeadLetter stores rec; see DeadLetters.
func (b *MemoryBroker) DeadLetter(_ context.Context, rec DeadLetterRecord) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deadLetters = append(b.deadLetters, rec)
	return nil
}

// Close stops all pending and future Next calls.
func (b *MemoryBroker) Close() {
	b.closeOnce.Do(func() { close(b.closed) })
}

// Acked returns the ids of acknowledged messages in acknowledgement order.
func (b *MemoryBroker) Acked() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.acked...)
}

// Terminated returns the ids of messages removed with Term.
func (b *MemoryBroker) Terminated() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.terminated...)
}

// DeadLetters returns every dead-letter record received so far.
func (b *MemoryBroker) DeadLetters() []DeadLetterRecord {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]DeadLetterRecord(nil), b.deadLetters...)
}

// Depth returns the number of messages waiting for delivery.
func (b *MemoryBroker) Depth() int {
	return len(b.fresh) + len(b.redeliver)
}

var (
	_ Source       = (*MemoryBroker)(nil)
	_ DeadLetterer = (*MemoryBroker)(nil)
)

type memoryDelivery struct {
	broker  *MemoryBroker
	msg     *memoryMessage
	attempt int
	settled atomic.Bool
}

func (d *memoryDelivery) Data() []byte { return d.msg.data }

func (d *memoryDelivery) Metadata() domain.DeliveryMetadata {
	return domain.DeliveryMetadata{
		MessageID:   d.msg.id,
		PublishedAt: d.msg.publishedAt,
		Attempt:     d.attempt,
	}
}

func (d *memoryDelivery) Ack() error {
	if !d.settled.CompareAndSwap(false, true) {
		return errAlreadySettled
	}
	d.broker.mu.Lock()
	d.broker.acked = append(d.broker.acked, d.msg.id)
	d.broker.mu.Unlock()
	return nil
}

func (d *memoryDelivery) Nak(delay time.Duration) error {
	if !d.settled.CompareAndSwap(false, true) {
		return errAlreadySettled
	}
	b, msg := d.broker, d.msg
	time.AfterFunc(delay, func() {
		select {
		case b.redeliver <- msg:
		case <-b.closed:
		}
	})
	return nil
}

func (d *memoryDelivery) Term() error {
	if !d.settled.CompareAndSwap(false, true) {
		return errAlreadySettled
	}
	d.broker.mu.Lock()
	d.broker.terminated = append(d.broker.terminated, d.msg.id)
	d.broker.mu.Unlock()
	return nil
}
