package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/iliyamo/event-ticketing/internal/lib/logger/sl"
)

// Publisher sends a notification to the broker.
type Publisher interface {
	Publish(ctx context.Context, n Notification) error
}

// Dispatcher decouples the request path from the broker.  Enqueue only puts
// the notification on a buffered channel; a single worker publishes it.  When
// the buffer is full the notification is dropped and logged, so a slow or
// unreachable broker never delays a reservation.
type Dispatcher struct {
	log     *slog.Logger
	pub     Publisher
	timeout time.Duration

	mu      sync.RWMutex
	closed  bool
	inbox   chan Notification
	started sync.Once
	closeCh chan struct{}
}

func NewDispatcher(log *slog.Logger, pub Publisher, buf int, timeout time.Duration) *Dispatcher {
	if buf < 1 {
		buf = 1
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{
		log:     log.With(slog.String("component", "queue.Dispatcher")),
		pub:     pub,
		timeout: timeout,
		inbox:   make(chan Notification, buf),
		closeCh: make(chan struct{}),
	}
}

// Start launches the publishing worker.  Calling it more than once is a
// no-op.
func (d *Dispatcher) Start() {
	d.started.Do(func() {
		go func() {
			defer close(d.closeCh)
			for n := range d.inbox {
				d.publish(n)
			}
		}()
	})
}

// Enqueue hands n to the worker without blocking.  It reports false when
// the notification was dropped.
func (d *Dispatcher) Enqueue(n Notification) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if d.closed {
		d.log.Warn("notification dropped, dispatcher closed",
			slog.String("id", n.ID), slog.String("kind", string(n.Kind)))
		return false
	}
	select {
	case d.inbox <- n:
		return true
	default:
		d.log.Warn("notification dropped, buffer full",
			slog.String("id", n.ID),
			slog.String("kind", string(n.Kind)),
			slog.String("booking_reference", n.Reservation.BookingReference),
		)
		return false
	}
}

// Close stops accepting notifications and waits until the worker has
// published what is already buffered, or until ctx is done.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	if !d.closed {
		d.closed = true
		close(d.inbox)
	}
	d.mu.Unlock()

	d.Start()
	select {
	case <-d.closeCh:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("queue.Dispatcher.Close: %w", ctx.Err())
	}
}

func (d *Dispatcher) publish(n Notification) {
	const op = "queue.Dispatcher.publish"
	log := d.log.With(slog.String("op", op), slog.String("id", n.ID), slog.String("kind", string(n.Kind)))

	defer func() {
		if r := recover(); r != nil {
			log.Error("publisher panicked", slog.Any("panic", r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.pub.Publish(ctx, n); err != nil {
		log.Error("failed to publish notification", sl.Err(err))
		return
	}
	log.Debug("notification published")
}
