package document

import (
	"fmt"

	ics "github.com/arran4/golang-ical"

	"github.com/iliyamo/event-ticketing/internal/model"
)

const productID = "-//event-ticketing//reservations//EN"

// Calendar renders an iCalendar (RFC 5545) file holding the reserved event.
type Calendar struct{}

func NewCalendar() *Calendar { return &Calendar{} }

// RenderCalendar returns a VCALENDAR with one VEVENT whose UID is derived
// from the booking reference, so re-downloading updates rather than
// duplicates the entry in the user's calendar.
func (Calendar) RenderCalendar(d model.ReservationDetail) ([]byte, error) {
	if d.Reservation.BookingReference == "" {
		return nil, fmt.Errorf("document.Calendar: reservation %d has no booking reference", d.Reservation.ID)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)

	ev := cal.AddEvent(d.Reservation.BookingReference + "@event-ticketing")
	ev.SetDtStampTime(d.Reservation.ReservationDate.UTC())
	ev.SetStartAt(d.Event.StartsAt.UTC())
	ev.SetEndAt(d.Event.EndsAt.UTC())
	ev.SetSummary(d.Event.Name)
	ev.SetLocation(venueLine(d.Venue))
	ev.SetDescription(fmt.Sprintf("Booking reference %s, %d ticket(s)",
		d.Reservation.BookingReference, d.Reservation.NumberOfTickets))

	return []byte(cal.Serialize()), nil
}
