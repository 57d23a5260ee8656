package model

import "time"

// EventStatus is the publication state of an event.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "DRAFT"
	EventStatusPublished EventStatus = "PUBLISHED"
	EventStatusCancelled EventStatus = "CANCELLED"
)

// Event is the inventory unit tickets are reserved against.  TotalCapacity
// and AvailableTickets together form the inventory ledger of the event:
// 0 <= AvailableTickets <= TotalCapacity holds at all times, and only the
// reservation workflow changes AvailableTickets.
//
// Fields:
//  ID                  – primary key identifier.
//  VenueID             – venue hosting the event.
//  Name                – display name.
//  StartsAt, EndsAt    – schedule in UTC.
//  TotalCapacity       – fixed positive number of tickets.
//  AvailableTickets    – tickets not yet reserved.
//  Status              – DRAFT, PUBLISHED or CANCELLED.
//  PricePerTicketCents – ticket price in cents, never negative.
type Event struct {
	ID                  uint64      `json:"id"`
	VenueID             uint64      `json:"venueId"`
	Name                string      `json:"name"`
	StartsAt            time.Time   `json:"startsAt"`
	EndsAt              time.Time   `json:"endsAt"`
	TotalCapacity       int         `json:"totalCapacity"`
	AvailableTickets    int         `json:"availableTickets"`
	Status              EventStatus `json:"status"`
	PricePerTicketCents int64       `json:"pricePerTicketCents"`
}

// IsPublished reports whether reservations may be created for the event.
func (e Event) IsPublished() bool {
	return e.Status == EventStatusPublished
}

// CanSupply reports whether n tickets can be taken from the ledger.
func (e Event) CanSupply(n int) bool {
	return n > 0 && e.AvailableTickets >= n
}

// LedgerValid reports whether the ledger satisfies its bounds.
func (e Event) LedgerValid() bool {
	return e.TotalCapacity > 0 && e.AvailableTickets >= 0 && e.AvailableTickets <= e.TotalCapacity
}
