package model

import "time"

// ReservationStatus is the lifecycle state of a reservation.  A reservation
// starts CONFIRMED and may move to CANCELLED exactly once.
type ReservationStatus string

const (
	ReservationStatusConfirmed ReservationStatus = "CONFIRMED"
	ReservationStatusCancelled ReservationStatus = "CANCELLED"
)

// Valid reports whether s is a known status.
func (s ReservationStatus) Valid() bool {
	return s == ReservationStatusConfirmed || s == ReservationStatusCancelled
}

// Reservation records a user's booking of a number of tickets for one event.
// The total price is a snapshot taken at booking time and is never
// recomputed.  Reservations are never deleted.
//
// Fields:
//  ID               – primary key identifier.
//  EventID          – event the tickets belong to.
//  UserID           – owner of the reservation.
//  NumberOfTickets  – count of tickets taken from the event ledger.
//  ReservationDate  – creation time in UTC.
//  TotalPriceCents  – NumberOfTickets × event price at booking time.
//  BookingReference – external, globally unique identifier.
//  Status           – CONFIRMED or CANCELLED.
//  CancelledAt      – set when the reservation is cancelled.
type Reservation struct {
	ID               uint64            `json:"id"`
	EventID          uint64            `json:"eventId"`
	UserID           uint64            `json:"userId"`
	NumberOfTickets  int               `json:"numberOfTickets"`
	ReservationDate  time.Time         `json:"reservationDate"`
	TotalPriceCents  int64             `json:"totalPriceCents"`
	BookingReference string            `json:"uniqueBookingReference"`
	Status           ReservationStatus `json:"status"`
	CancelledAt      *time.Time        `json:"cancelledAt,omitempty"`
}

// IsConfirmed reports whether documents may be produced for the reservation.
func (r Reservation) IsConfirmed() bool {
	return r.Status == ReservationStatusConfirmed
}

// OwnedBy reports whether userID owns the reservation.
func (r Reservation) OwnedBy(userID uint64) bool {
	return r.UserID == userID
}

// ReservationDetail is a reservation together with the event, venue and user
// it references.  Document generators render from it.
type ReservationDetail struct {
	Reservation Reservation `json:"reservation"`
	Event       Event       `json:"event"`
	Venue       Venue       `json:"venue"`
	User        User        `json:"user"`
}
