package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iliyamo/event-ticketing/internal/clock"
	"github.com/iliyamo/event-ticketing/internal/lib/logger/sl"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

// TxRunner opens the unit of work.  Store calls made with the context passed
// to fn join the transaction.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

type EventStore interface {
	GetByID(ctx context.Context, id uint64) (model.Event, error)
	GetForUpdate(ctx context.Context, id uint64) (model.Event, error)
	AdjustAvailableTickets(ctx context.Context, id uint64, delta int) error
}

type ReservationStore interface {
	Create(ctx context.Context, res *model.Reservation) error
	GetByID(ctx context.Context, id uint64) (model.Reservation, error)
	GetForUpdate(ctx context.Context, id uint64) (model.Reservation, error)
	MarkCancelled(ctx context.Context, id uint64, at time.Time) error
	List(ctx context.Context, filter model.ReservationFilter, page model.Page) ([]model.Reservation, int, error)
}

// Notifier accepts notifications after commit.  Enqueue must not block; it
// reports false when the notification was dropped.
type Notifier interface {
	Enqueue(n queue.Notification) bool
}

// ReservationOptions carries the policy knobs of the workflow.
type ReservationOptions struct {
	MaxTicketsPerReservation int
	ReferenceMaxAttempts     int
}

type CreateReservationInput struct {
	EventID         uint64
	UserID          uint64
	NumberOfTickets int
}

type CancelReservationInput struct {
	ReservationID uint64
	RequesterID   uint64
	IsAdmin       bool
}

// ReservationService is the reservation workflow engine.  It is safe for
// concurrent use: every change to an event's ledger happens inside one
// transaction that holds the event row lock.
type ReservationService struct {
	log          *slog.Logger
	tx           TxRunner
	events       EventStore
	reservations ReservationStore
	refs         ReferenceSource
	notifier     Notifier
	clock        clock.Clock
	opts         ReservationOptions
}

func NewReservationService(
	log *slog.Logger,
	tx TxRunner,
	events EventStore,
	reservations ReservationStore,
	refs ReferenceSource,
	notifier Notifier,
	clk clock.Clock,
	opts ReservationOptions,
) *ReservationService {
	if opts.MaxTicketsPerReservation < 1 {
		opts.MaxTicketsPerReservation = 10
	}
	if opts.ReferenceMaxAttempts < 1 {
		opts.ReferenceMaxAttempts = 5
	}
	return &ReservationService{
		log:          log,
		tx:           tx,
		events:       events,
		reservations: reservations,
		refs:         refs,
		notifier:     notifier,
		clock:        clk,
		opts:         opts,
	}
}

// Create reserves in.NumberOfTickets tickets for in.UserID.  The ledger
// decrement and the reservation insert commit together or not at all.
func (s *ReservationService) Create(ctx context.Context, in CreateReservationInput) (model.Reservation, error) {
	const op = "service.ReservationService.Create"

	log := s.log.With(
		slog.String("op", op),
		slog.Uint64("event_id", in.EventID),
		slog.Uint64("user_id", in.UserID),
		slog.Int("tickets", in.NumberOfTickets),
	)

	if in.NumberOfTickets < 1 || in.NumberOfTickets > s.opts.MaxTicketsPerReservation {
		return model.Reservation{}, ErrInvalidQuantity
	}

	var created model.Reservation
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		ev, err := s.events.GetForUpdate(ctx, in.EventID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrEventNotFound
			}
			return err
		}
		if !ev.IsPublished() {
			return ErrEventNotPublished
		}
		if !ev.CanSupply(in.NumberOfTickets) {
			return ErrInsufficientInventory
		}

		if err := s.events.AdjustAvailableTickets(ctx, ev.ID, -in.NumberOfTickets); err != nil {
			if errors.Is(err, repository.ErrConstraint) {
				return ErrInsufficientInventory
			}
			return err
		}

		res := model.Reservation{
			EventID:         ev.ID,
			UserID:          in.UserID,
			NumberOfTickets: in.NumberOfTickets,
			ReservationDate: s.clock.Now(),
			TotalPriceCents: int64(in.NumberOfTickets) * ev.PricePerTicketCents,
			Status:          model.ReservationStatusConfirmed,
		}
		if err := s.insertWithReference(ctx, log, &res); err != nil {
			return err
		}
		created = res
		return nil
	})
	if err != nil {
		return model.Reservation{}, s.fail(log, err)
	}

	log.Info("reservation created",
		slog.Uint64("reservation_id", created.ID),
		slog.String("booking_reference", created.BookingReference),
	)
	s.notify(log, queue.KindReservationConfirmed, created)
	return created, nil
}

// insertWithReference inserts res, drawing a fresh booking reference after
// every duplicate-key failure.  A failed insert does not abort the
// surrounding transaction.
func (s *ReservationService) insertWithReference(ctx context.Context, log *slog.Logger, res *model.Reservation) error {
	for attempt := 1; ; attempt++ {
		ref, err := s.refs.Next(res.EventID, res.UserID)
		if err != nil {
			return err
		}
		res.BookingReference = ref

		err = s.reservations.Create(ctx, res)
		if err == nil {
			return nil
		}
		if !errors.Is(err, repository.ErrDuplicate) {
			return err
		}
		if attempt >= s.opts.ReferenceMaxAttempts {
			return fmt.Errorf("booking reference still colliding after %d attempts: %w", attempt, err)
		}
		log.Warn("booking reference collision, retrying", slog.String("booking_reference", ref), slog.Int("attempt", attempt))
	}
}

// Cancel releases a confirmed reservation's tickets back to its event.
// Rows are locked in the same order as Create (event, then reservation).
func (s *ReservationService) Cancel(ctx context.Context, in CancelReservationInput) error {
	const op = "service.ReservationService.Cancel"

	log := s.log.With(
		slog.String("op", op),
		slog.Uint64("reservation_id", in.ReservationID),
		slog.Uint64("requester_id", in.RequesterID),
	)

	var cancelled model.Reservation
	err := s.tx.WithTx(ctx, func(ctx context.Context) error {
		cur, err := s.reservations.GetByID(ctx, in.ReservationID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrReservationNotFound
			}
			return err
		}
		if !cur.OwnedBy(in.RequesterID) && !in.IsAdmin {
			return ErrForbidden
		}
		if !cur.IsConfirmed() {
			return ErrAlreadyCancelled
		}

		ev, err := s.events.GetForUpdate(ctx, cur.EventID)
		if err != nil {
			return err
		}
		res, err := s.reservations.GetForUpdate(ctx, in.ReservationID)
		if err != nil {
			return err
		}
		// Another request may have cancelled it between the unlocked read
		// and the lock.
		if !res.IsConfirmed() {
			return ErrAlreadyCancelled
		}
		if ev.AvailableTickets+res.NumberOfTickets > ev.TotalCapacity {
			return fmt.Errorf("%w: event %d ledger would exceed capacity (%d + %d > %d)",
				ErrUnexpected, ev.ID, ev.AvailableTickets, res.NumberOfTickets, ev.TotalCapacity)
		}

		now := s.clock.Now()
		if err := s.reservations.MarkCancelled(ctx, res.ID, now); err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return ErrAlreadyCancelled
			}
			return err
		}
		if err := s.events.AdjustAvailableTickets(ctx, ev.ID, res.NumberOfTickets); err != nil {
			return err
		}

		res.Status = model.ReservationStatusCancelled
		res.CancelledAt = &now
		cancelled = res
		return nil
	})
	if err != nil {
		return s.fail(log, err)
	}

	log.Info("reservation cancelled", slog.Int("tickets_released", cancelled.NumberOfTickets))
	s.notify(log, queue.KindReservationCancelled, cancelled)
	return nil
}

// Get returns a reservation visible to the requester.
func (s *ReservationService) Get(ctx context.Context, id, requesterID uint64, isAdmin bool) (model.Reservation, error) {
	const op = "service.ReservationService.Get"

	res, err := s.reservations.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Reservation{}, ErrReservationNotFound
		}
		return model.Reservation{}, s.fail(s.log.With(slog.String("op", op)), err)
	}
	if !res.OwnedBy(requesterID) && !isAdmin {
		return model.Reservation{}, ErrForbidden
	}
	return res, nil
}

// ListMine lists the requester's own reservations, newest first.
func (s *ReservationService) ListMine(ctx context.Context, userID uint64, page model.Page) (model.ReservationPage, error) {
	const op = "service.ReservationService.ListMine"
	return s.list(ctx, op, model.ReservationFilter{UserID: userID}, page)
}

// List lists reservations across users.  Admin only; authorisation happens
// at the route.
func (s *ReservationService) List(ctx context.Context, filter model.ReservationFilter, page model.Page) (model.ReservationPage, error) {
	const op = "service.ReservationService.List"
	return s.list(ctx, op, filter, page)
}

// ListByEvent lists the reservations of one event.
func (s *ReservationService) ListByEvent(ctx context.Context, eventID uint64, page model.Page) (model.ReservationPage, error) {
	const op = "service.ReservationService.ListByEvent"

	if _, err := s.events.GetByID(ctx, eventID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.ReservationPage{}, ErrEventNotFound
		}
		return model.ReservationPage{}, s.fail(s.log.With(slog.String("op", op)), err)
	}
	return s.list(ctx, op, model.ReservationFilter{EventID: eventID}, page)
}

func (s *ReservationService) list(ctx context.Context, op string, filter model.ReservationFilter, page model.Page) (model.ReservationPage, error) {
	page = page.Normalize()
	items, total, err := s.reservations.List(ctx, filter, page)
	if err != nil {
		return model.ReservationPage{}, s.fail(s.log.With(slog.String("op", op)), err)
	}
	if items == nil {
		items = []model.Reservation{}
	}
	return model.ReservationPage{
		Items:    items,
		Page:     page.Number,
		PageSize: page.Size,
		Total:    total,
	}, nil
}

// fail maps store errors onto the service outcomes.  Unexpected errors are
// logged here so callers only log the outcome.
func (s *ReservationService) fail(log *slog.Logger, err error) error {
	switch {
	case isOutcome(err):
		if errors.Is(err, ErrUnexpected) {
			log.Error("reservation workflow failed", sl.Err(err))
		}
		return err
	case errors.Is(err, repository.ErrConflict):
		log.Warn("transaction conflict", sl.Err(err))
		return fmt.Errorf("%w: %v", ErrTransactionConflict, err)
	default:
		log.Error("reservation workflow failed", sl.Err(err))
		return fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
}

func (s *ReservationService) notify(log *slog.Logger, kind queue.Kind, res model.Reservation) {
	if s.notifier == nil {
		return
	}
	n := queue.NewNotification(kind, res, s.clock.Now())
	if !s.notifier.Enqueue(n) {
		log.Warn("notification not queued", slog.String("kind", string(kind)), slog.String("notification_id", n.ID))
	}
}
