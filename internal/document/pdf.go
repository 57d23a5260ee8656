// Package document renders the customer-facing files of a reservation: a
// printable PDF ticket and an iCalendar entry for the event.
package document

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"

	"github.com/iliyamo/event-ticketing/internal/model"
)

const dateLayout = "Mon, 02 Jan 2006 15:04 MST"

// TicketPDF renders single-page A5 portrait tickets with the core Arial font.
type TicketPDF struct {
	// Compress toggles stream compression.  Tests turn it off to inspect the
	// generated text.
	Compress bool
}

func NewTicketPDF() *TicketPDF {
	return &TicketPDF{Compress: true}
}

// RenderTicket returns the PDF bytes for d.
func (t *TicketPDF) RenderTicket(d model.ReservationDetail) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A5", "")
	pdf.SetCompression(t.Compress)
	pdf.SetTitle("Ticket "+d.Reservation.BookingReference, true)
	pdf.SetCreator("event-ticketing", true)
	pdf.SetCreationDate(d.Reservation.ReservationDate)
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	pdf.AddPage()

	pdf.SetFont("Arial", "B", 22)
	pdf.CellFormat(0, 12, tr(d.Event.Name), "", 1, "L", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 12)
	line := func(label, value string) {
		pdf.SetFont("Arial", "B", 12)
		pdf.CellFormat(50, 8, tr(label), "", 0, "L", false, 0, "")
		pdf.SetFont("Arial", "", 12)
		pdf.CellFormat(0, 8, tr(value), "", 1, "L", false, 0, "")
	}
	line("Booking reference:", d.Reservation.BookingReference)
	line("Name:", d.User.Name)
	line("Venue:", venueLine(d.Venue))
	line("Starts:", d.Event.StartsAt.UTC().Format(dateLayout))
	line("Ends:", d.Event.EndsAt.UTC().Format(dateLayout))
	line("Tickets:", fmt.Sprintf("%d", d.Reservation.NumberOfTickets))
	line("Total paid:", formatCents(d.Reservation.TotalPriceCents))
	line("Reserved on:", d.Reservation.ReservationDate.UTC().Format(time.RFC3339))

	pdf.Ln(6)
	pdf.SetFont("Arial", "I", 9)
	pdf.MultiCell(0, 5, tr("Present this ticket at the entrance. One reference admits the number of guests shown above."), "", "L", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("document.TicketPDF: %w", err)
	}
	return buf.Bytes(), nil
}

func venueLine(v model.Venue) string {
	switch {
	case v.Address != "" && v.City != "":
		return v.Name + ", " + v.Address + ", " + v.City
	case v.City != "":
		return v.Name + ", " + v.City
	default:
		return v.Name
	}
}

func formatCents(c int64) string {
	return fmt.Sprintf("%d.%02d", c/100, c%100)
}
