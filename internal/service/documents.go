package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iliyamo/event-ticketing/internal/lib/logger/sl"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

type DetailStore interface {
	GetDetail(ctx context.Context, id uint64) (model.ReservationDetail, error)
}

type TicketRenderer interface {
	RenderTicket(d model.ReservationDetail) ([]byte, error)
}

type CalendarRenderer interface {
	RenderCalendar(d model.ReservationDetail) ([]byte, error)
}

// DocumentService produces the ticket and calendar file of a reservation.
// Documents exist only for confirmed reservations; a cancelled reservation
// never reaches a renderer.
type DocumentService struct {
	log      *slog.Logger
	store    DetailStore
	ticket   TicketRenderer
	calendar CalendarRenderer
}

func NewDocumentService(log *slog.Logger, store DetailStore, ticket TicketRenderer, calendar CalendarRenderer) *DocumentService {
	return &DocumentService{log: log, store: store, ticket: ticket, calendar: calendar}
}

// Ticket renders the PDF ticket.
func (s *DocumentService) Ticket(ctx context.Context, id, requesterID uint64, isAdmin bool) ([]byte, error) {
	const op = "service.DocumentService.Ticket"
	return s.render(ctx, op, id, requesterID, isAdmin, s.ticket.RenderTicket)
}

// Calendar renders the iCalendar file.
func (s *DocumentService) Calendar(ctx context.Context, id, requesterID uint64, isAdmin bool) ([]byte, error) {
	const op = "service.DocumentService.Calendar"
	return s.render(ctx, op, id, requesterID, isAdmin, s.calendar.RenderCalendar)
}

func (s *DocumentService) render(
	ctx context.Context,
	op string,
	id, requesterID uint64,
	isAdmin bool,
	renderFn func(model.ReservationDetail) ([]byte, error),
) ([]byte, error) {
	log := s.log.With(slog.String("op", op), slog.Uint64("reservation_id", id))

	d, err := s.store.GetDetail(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrReservationNotFound
		}
		log.Error("failed to load reservation", sl.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
	if !d.Reservation.OwnedBy(requesterID) && !isAdmin {
		return nil, ErrForbidden
	}
	if !d.Reservation.IsConfirmed() {
		return nil, ErrDocumentNotAvailable
	}

	out, err := renderFn(d)
	if err != nil {
		log.Error("failed to render document", sl.Err(err))
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
	return out, nil
}
