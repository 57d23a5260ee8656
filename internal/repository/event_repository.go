package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// EventRepo reads events and mutates the inventory ledger.  The ledger is
// only ever changed through AdjustAvailableTickets inside a transaction that
// first locked the row with GetForUpdate.
type EventRepo struct {
	db *sql.DB
}

// NewEventRepo returns a new EventRepo bound to db.
func NewEventRepo(db *sql.DB) *EventRepo { return &EventRepo{db: db} }

const eventColumns = `id, venue_id, name, starts_at, ends_at, total_capacity, available_tickets, status, price_per_ticket_cents`

// ErrNoTransaction is returned by locking reads issued outside WithTx.
var ErrNoTransaction = errors.New("locking read requires a transaction")

// GetByID returns the event with the given id or ErrNotFound.
func (r *EventRepo) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	const op = "repository.EventRepo.GetByID"

	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ?`, id)
	ev, err := scanEvent(row)
	if err != nil {
		return model.Event{}, fmt.Errorf("%s: %w", op, translate(err))
	}
	return ev, nil
}

// GetForUpdate reads the event row and holds an exclusive row lock on it until
// the surrounding transaction ends.  Concurrent reservations for the same
// event queue up behind this lock; other events are unaffected.
func (r *EventRepo) GetForUpdate(ctx context.Context, id uint64) (model.Event, error) {
	const op = "repository.EventRepo.GetForUpdate"

	tx := txFromContext(ctx)
	if tx == nil {
		return model.Event{}, fmt.Errorf("%s: %w", op, ErrNoTransaction)
	}
	row := tx.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events WHERE id = ? FOR UPDATE`, id)
	ev, err := scanEvent(row)
	if err != nil {
		return model.Event{}, fmt.Errorf("%s: %w", op, translate(err))
	}
	return ev, nil
}

// AdjustAvailableTickets adds delta (negative to take tickets) to the event's
// available tickets.  The table's CHECK constraint rejects any result outside
// [0, total_capacity] with ErrConstraint.
func (r *EventRepo) AdjustAvailableTickets(ctx context.Context, id uint64, delta int) error {
	const op = "repository.EventRepo.AdjustAvailableTickets"

	tx := txFromContext(ctx)
	if tx == nil {
		return fmt.Errorf("%s: %w", op, ErrNoTransaction)
	}
	res, err := tx.ExecContext(ctx, `UPDATE events SET available_tickets = available_tickets + ? WHERE id = ?`, delta, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translate(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

func scanEvent(row rowScanner) (model.Event, error) {
	var ev model.Event
	var status string
	err := row.Scan(
		&ev.ID, &ev.VenueID, &ev.Name, &ev.StartsAt, &ev.EndsAt,
		&ev.TotalCapacity, &ev.AvailableTickets, &status, &ev.PricePerTicketCents,
	)
	if err != nil {
		return model.Event{}, err
	}
	ev.Status = model.EventStatus(status)
	ev.StartsAt = ev.StartsAt.UTC()
	ev.EndsAt = ev.EndsAt.UTC()
	return ev, nil
}
