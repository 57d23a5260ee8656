package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
)

// ReservationRepo persists reservations.  Reservations are inserted and
// cancelled inside the transaction that also adjusts the event ledger; they
// are never deleted.  All timestamps are stored in UTC.
type ReservationRepo struct {
	db *sql.DB
}

// NewReservationRepo returns a new ReservationRepo bound to the given database.
func NewReservationRepo(db *sql.DB) *ReservationRepo { return &ReservationRepo{db: db} }

const reservationColumns = `id, event_id, user_id, number_of_tickets, reservation_date, total_price_cents, booking_reference, status, cancelled_at`

// Create inserts res and populates its generated ID.  A booking reference
// that already exists yields ErrDuplicate; the transaction stays usable so
// the caller can retry with a fresh reference.
func (r *ReservationRepo) Create(ctx context.Context, res *model.Reservation) error {
	const op = "repository.ReservationRepo.Create"

	const q = `INSERT INTO reservations
		(event_id, user_id, number_of_tickets, reservation_date, total_price_cents, booking_reference, status)
		VALUES (?, ?, ?, ?, ?, ?, ?)`
	result, err := conn(ctx, r.db).ExecContext(ctx, q,
		res.EventID, res.UserID, res.NumberOfTickets, res.ReservationDate,
		res.TotalPriceCents, res.BookingReference, string(res.Status),
	)
	if err != nil {
		return fmt.Errorf("%s: %w", op, translate(err))
	}
	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	res.ID = uint64(id)
	return nil
}

// GetByID returns a reservation or ErrNotFound.
func (r *ReservationRepo) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	const op = "repository.ReservationRepo.GetByID"

	row := conn(ctx, r.db).QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ?`, id)
	res, err := scanReservation(row)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("%s: %w", op, translate(err))
	}
	return res, nil
}

// GetForUpdate reads the reservation and locks its row for the rest of the
// transaction.
func (r *ReservationRepo) GetForUpdate(ctx context.Context, id uint64) (model.Reservation, error) {
	const op = "repository.ReservationRepo.GetForUpdate"

	tx := txFromContext(ctx)
	if tx == nil {
		return model.Reservation{}, fmt.Errorf("%s: %w", op, ErrNoTransaction)
	}
	row := tx.QueryRowContext(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = ? FOR UPDATE`, id)
	res, err := scanReservation(row)
	if err != nil {
		return model.Reservation{}, fmt.Errorf("%s: %w", op, translate(err))
	}
	return res, nil
}

// MarkCancelled moves a CONFIRMED reservation to CANCELLED.  It returns
// ErrNotFound when no confirmed reservation with that id exists.
func (r *ReservationRepo) MarkCancelled(ctx context.Context, id uint64, at time.Time) error {
	const op = "repository.ReservationRepo.MarkCancelled"

	const q = `UPDATE reservations SET status = ?, cancelled_at = ? WHERE id = ? AND status = ?`
	result, err := conn(ctx, r.db).ExecContext(ctx, q,
		string(model.ReservationStatusCancelled), at.UTC(), id, string(model.ReservationStatusConfirmed))
	if err != nil {
		return fmt.Errorf("%s: %w", op, translate(err))
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if n == 0 {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	return nil
}

// List returns one page of reservations matching filter, newest first, and
// the total number of matches.
func (r *ReservationRepo) List(ctx context.Context, filter model.ReservationFilter, page model.Page) ([]model.Reservation, int, error) {
	const op = "repository.ReservationRepo.List"

	page = page.Normalize()
	where, args := filterClause(filter)

	var total int
	if err := conn(ctx, r.db).QueryRowContext(ctx, `SELECT COUNT(*) FROM reservations`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("%s: count: %w", op, translate(err))
	}

	q := `SELECT ` + reservationColumns + ` FROM reservations` + where +
		` ORDER BY reservation_date DESC, id DESC LIMIT ? OFFSET ?`
	rows, err := conn(ctx, r.db).QueryContext(ctx, q, append(args, page.Size, page.Offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, translate(err))
	}
	defer rows.Close()

	items := make([]model.Reservation, 0, page.Size)
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: scan: %w", op, err)
		}
		items = append(items, res)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return items, total, nil
}

// GetDetail loads a reservation together with its event, the event's venue
// and the owning user.
func (r *ReservationRepo) GetDetail(ctx context.Context, id uint64) (model.ReservationDetail, error) {
	const op = "repository.ReservationRepo.GetDetail"

	const q = `SELECT r.id, r.event_id, r.user_id, r.number_of_tickets, r.reservation_date,
	                  r.total_price_cents, r.booking_reference, r.status, r.cancelled_at,
	                  e.id, e.venue_id, e.name, e.starts_at, e.ends_at, e.total_capacity,
	                  e.available_tickets, e.status, e.price_per_ticket_cents,
	                  v.id, v.name, v.address, v.city,
	                  u.id, u.email, u.name, u.role
	           FROM reservations r
	           JOIN events e ON e.id = r.event_id
	           JOIN venues v ON v.id = e.venue_id
	           JOIN users u ON u.id = r.user_id
	           WHERE r.id = ?`

	var d model.ReservationDetail
	var resStatus, evStatus string
	var cancelledAt sql.NullTime
	err := conn(ctx, r.db).QueryRowContext(ctx, q, id).Scan(
		&d.Reservation.ID, &d.Reservation.EventID, &d.Reservation.UserID, &d.Reservation.NumberOfTickets,
		&d.Reservation.ReservationDate, &d.Reservation.TotalPriceCents, &d.Reservation.BookingReference,
		&resStatus, &cancelledAt,
		&d.Event.ID, &d.Event.VenueID, &d.Event.Name, &d.Event.StartsAt, &d.Event.EndsAt, &d.Event.TotalCapacity,
		&d.Event.AvailableTickets, &evStatus, &d.Event.PricePerTicketCents,
		&d.Venue.ID, &d.Venue.Name, &d.Venue.Address, &d.Venue.City,
		&d.User.ID, &d.User.Email, &d.User.Name, &d.User.Role,
	)
	if err != nil {
		return model.ReservationDetail{}, fmt.Errorf("%s: %w", op, translate(err))
	}
	d.Reservation.Status = model.ReservationStatus(resStatus)
	d.Reservation.ReservationDate = d.Reservation.ReservationDate.UTC()
	if cancelledAt.Valid {
		t := cancelledAt.Time.UTC()
		d.Reservation.CancelledAt = &t
	}
	d.Event.Status = model.EventStatus(evStatus)
	d.Event.StartsAt = d.Event.StartsAt.UTC()
	d.Event.EndsAt = d.Event.EndsAt.UTC()
	return d, nil
}

func filterClause(f model.ReservationFilter) (string, []any) {
	var conds []string
	var args []any
	if f.UserID != 0 {
		conds = append(conds, "user_id = ?")
		args = append(args, f.UserID)
	}
	if f.EventID != 0 {
		conds = append(conds, "event_id = ?")
		args = append(args, f.EventID)
	}
	if f.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(f.Status))
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (model.Reservation, error) {
	var res model.Reservation
	var status string
	var cancelledAt sql.NullTime
	err := row.Scan(
		&res.ID, &res.EventID, &res.UserID, &res.NumberOfTickets, &res.ReservationDate,
		&res.TotalPriceCents, &res.BookingReference, &status, &cancelledAt,
	)
	if err != nil {
		return model.Reservation{}, err
	}
	res.Status = model.ReservationStatus(status)
	res.ReservationDate = res.ReservationDate.UTC()
	if cancelledAt.Valid {
		t := cancelledAt.Time.UTC()
		res.CancelledAt = &t
	}
	return res, nil
}
