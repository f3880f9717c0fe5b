package notification

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

const deliveryTimeout = 5 * time.Second

// Dispatcher hands events to a Notifier on a background goroutine.
// Send never blocks; when the buffer is full the event is dropped with a warning.
type Dispatcher struct {
	next   Notifier
	logger *zap.Logger
	queue  chan Event

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

func NewDispatcher(next Notifier, buffer int, logger *zap.Logger) *Dispatcher {
	if buffer <= 0 {
		buffer = 1
	}
	d := &Dispatcher{
		next:   next,
		logger: logger,
		queue:  make(chan Event, buffer),
		done:   make(chan struct{}),
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	defer close(d.done)
	for event := range d.queue {
		ctx, cancel := context.WithTimeout(context.Background(), deliveryTimeout)
		if err := d.next.Notify(ctx, event); err != nil {
			d.logger.Warn("notification delivery failed",
				zap.String("type", string(event.Type)),
				zap.String("recipient", event.RecipientID),
				zap.Error(err))
		}
		cancel()
	}
}

// Notify satisfies Notifier so services can take either a Dispatcher or a plain notifier.
func (d *Dispatcher) Notify(_ context.Context, event Event) error {
	d.Send(event)
	return nil
}

// Send reports whether the event was queued.
func (d *Dispatcher) Send(event Event) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.logger.Warn("notification dropped after shutdown", zap.String("type", string(event.Type)))
		return false
	}

	select {
	case d.queue <- event:
		return true
	default:
		d.logger.Warn("notification buffer full, dropping event",
			zap.String("type", string(event.Type)),
			zap.String("recipient", event.RecipientID))
		return false
	}
}

// Close stops accepting events and waits until the queued ones are delivered
// or ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.queue)
	}
	d.mu.Unlock()

	select {
	case <-d.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
