// Package queue carries reservation notifications from the workflow to the
// mail sender.  The workflow hands a Notification to the in-process
// Dispatcher after commit; the Dispatcher publishes it to RabbitMQ and the
// Consumer turns it into an email.
package queue

import (
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// Kind identifies what happened to a reservation.
type Kind string

const (
	KindReservationConfirmed Kind = "reservation.confirmed"
	KindReservationCancelled Kind = "reservation.cancelled"
)

// Notification is the message published for every committed reservation
// change.  It carries a snapshot of the reservation so the consumer does not
// need to query the reservation store.
type Notification struct {
	ID          string            `json:"id"`
	Kind        Kind              `json:"kind"`
	OccurredAt  time.Time         `json:"occurredAt"`
	Reservation model.Reservation `json:"reservation"`
}

// NewNotification stamps a new message with a random id.
func NewNotification(kind Kind, res model.Reservation, at time.Time) Notification {
	return Notification{
		ID:          uuid.NewString(),
		Kind:        kind,
		OccurredAt:  at.UTC(),
		Reservation: res,
	}
}

// Subject returns the email subject line for the notification.
func (n Notification) Subject() string {
	switch n.Kind {
	case KindReservationConfirmed:
		return "Your reservation " + n.Reservation.BookingReference + " is confirmed"
	case KindReservationCancelled:
		return "Your reservation " + n.Reservation.BookingReference + " was cancelled"
	default:
		return "Reservation " + n.Reservation.BookingReference
	}
}
