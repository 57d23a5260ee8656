package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/iliyamo/event-ticketing/internal/lib/logger/sl"
	"github.com/iliyamo/event-ticketing/internal/mail"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// ErrUndeliverable marks a message that can never be handled: a malformed
// body, an unknown kind or a recipient that no longer exists.  Such messages
// are dropped; every other failure is requeued.
var ErrUndeliverable = errors.New("undeliverable notification")

// RecipientLookup resolves the user a notification is addressed to.
type RecipientLookup interface {
	GetByID(ctx context.Context, id uint64) (model.User, error)
}

// Consumer reads notifications from RabbitMQ and emails the reservation
// owner.  Undeliverable messages are rejected without requeue so a poison
// message cannot spin the loop; transient failures go back on the queue.
type Consumer struct {
	log    *slog.Logger
	url    string
	queue  string
	from   string
	users  RecipientLookup
	mailer mail.Sender
}

func NewConsumer(log *slog.Logger, url, queue, from string, users RecipientLookup, mailer mail.Sender) *Consumer {
	return &Consumer{
		log:    log.With(slog.String("component", "queue.Consumer")),
		url:    url,
		queue:  queue,
		from:   from,
		users:  users,
		mailer: mailer,
	}
}

// Run connects to the broker and consumes until ctx is cancelled.  Dial
// failures and dropped connections are retried with exponential backoff
// capped at 30s.
func (c *Consumer) Run(ctx context.Context) {
	backoff := time.Second
	for {
		if ctx.Err() != nil {
			return
		}
		conn, err := amqp.Dial(c.url)
		if err != nil {
			c.log.Warn("failed to dial broker", sl.Err(err), slog.Duration("retry_in", backoff))
			if !sleep(ctx, backoff) {
				return
			}
			if backoff < 30*time.Second {
				backoff *= 2
			}
			continue
		}
		backoff = time.Second

		err = c.consume(ctx, conn)
		_ = conn.Close()
		if ctx.Err() != nil {
			return
		}
		c.log.Warn("consume loop ended, reconnecting", sl.Err(err))
		if !sleep(ctx, 2*time.Second) {
			return
		}
	}
}

func (c *Consumer) consume(ctx context.Context, conn *amqp.Connection) error {
	ch, err := conn.Channel()
	if err != nil {
		return fmt.Errorf("channel open: %w", err)
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(50, 0, false); err != nil {
		c.log.Warn("set QoS failed", sl.Err(err))
	}
	if err := declareQueue(ch, c.queue); err != nil {
		return err
	}

	msgs, err := ch.ConsumeWithContext(ctx, c.queue, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("queue consume: %w", err)
	}

	for d := range msgs {
		c.settle(d, c.Handle(ctx, d.Body))
	}
	return errors.New("deliveries channel closed")
}

// settle acks or nacks d according to the outcome of Handle.
func (c *Consumer) settle(d amqp.Delivery, err error) {
	log := c.log.With(slog.String("message_id", d.MessageId))
	switch {
	case err == nil:
		if ackErr := d.Ack(false); ackErr != nil {
			log.Warn("ack failed", sl.Err(ackErr))
		}
	case errors.Is(err, ErrUndeliverable):
		log.Error("dropping undeliverable message", sl.Err(err))
		if nackErr := d.Nack(false, false); nackErr != nil {
			log.Warn("nack failed", sl.Err(nackErr))
		}
	default:
		log.Warn("handle message failed, requeueing", sl.Err(err))
		if nackErr := d.Nack(false, true); nackErr != nil {
			log.Warn("nack failed", sl.Err(nackErr))
		}
	}
}

// Handle decodes one message body and sends the email for it.  Errors that
// wrap ErrUndeliverable will fail again on every redelivery.
func (c *Consumer) Handle(ctx context.Context, body []byte) error {
	const op = "queue.Consumer.Handle"

	var n Notification
	if err := json.Unmarshal(body, &n); err != nil {
		return fmt.Errorf("%s: unmarshal: %w: %v", op, ErrUndeliverable, err)
	}
	if n.Kind != KindReservationConfirmed && n.Kind != KindReservationCancelled {
		return fmt.Errorf("%s: %w: unknown kind %q", op, ErrUndeliverable, n.Kind)
	}

	user, err := c.users.GetByID(ctx, n.Reservation.UserID)
	if errors.Is(err, repository.ErrNotFound) {
		return fmt.Errorf("%s: recipient %d: %w", op, n.Reservation.UserID, ErrUndeliverable)
	}
	if err != nil {
		return fmt.Errorf("%s: recipient %d: %w", op, n.Reservation.UserID, err)
	}

	msg := mail.Message{
		From:    c.from,
		To:      user.Email,
		Subject: n.Subject(),
		Body:    emailBody(user, n),
	}
	if err := c.mailer.Send(ctx, msg); err != nil {
		return fmt.Errorf("%s: send: %w", op, err)
	}
	c.log.Info("notification delivered",
		slog.String("op", op),
		slog.String("id", n.ID),
		slog.String("kind", string(n.Kind)),
		slog.Uint64("reservation_id", n.Reservation.ID),
	)
	return nil
}

func emailBody(user model.User, n Notification) string {
	r := n.Reservation
	var b strings.Builder
	fmt.Fprintf(&b, "Hello %s,\n\n", user.Name)
	switch n.Kind {
	case KindReservationConfirmed:
		b.WriteString("Your reservation is confirmed.\n\n")
	case KindReservationCancelled:
		b.WriteString("Your reservation has been cancelled and the tickets were released.\n\n")
	}
	fmt.Fprintf(&b, "Booking reference: %s\n", r.BookingReference)
	fmt.Fprintf(&b, "Tickets: %d\n", r.NumberOfTickets)
	fmt.Fprintf(&b, "Total: %d.%02d\n", r.TotalPriceCents/100, r.TotalPriceCents%100)
	return b.String()
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
