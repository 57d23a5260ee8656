package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

type inTxKey struct{}

// memStore is an in-memory TxRunner, EventStore and ReservationStore.
// Transactions are serialised on one mutex and roll back to a snapshot on
// error, which gives the same observable guarantees as the row lock.
type memStore struct {
	mu           sync.Mutex
	events       map[uint64]model.Event
	reservations map[uint64]model.Reservation
	refs         map[string]uint64
	nextID       uint64
}

func newMemStore(events ...model.Event) *memStore {
	m := &memStore{
		events:       make(map[uint64]model.Event),
		reservations: make(map[uint64]model.Reservation),
		refs:         make(map[string]uint64),
	}
	for _, ev := range events {
		m.events[ev.ID] = ev
	}
	return m
}

func inTx(ctx context.Context) bool { return ctx.Value(inTxKey{}) != nil }

func (m *memStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if inTx(ctx) {
		return fn(ctx)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	events := make(map[uint64]model.Event, len(m.events))
	for k, v := range m.events {
		events[k] = v
	}
	reservations := make(map[uint64]model.Reservation, len(m.reservations))
	for k, v := range m.reservations {
		reservations[k] = v
	}
	refs := make(map[string]uint64, len(m.refs))
	for k, v := range m.refs {
		refs[k] = v
	}
	nextID := m.nextID

	if err := fn(context.WithValue(ctx, inTxKey{}, true)); err != nil {
		m.events, m.reservations, m.refs, m.nextID = events, reservations, refs, nextID
		return err
	}
	return nil
}

func (m *memStore) lock(ctx context.Context) func() {
	if inTx(ctx) {
		return func() {}
	}
	m.mu.Lock()
	return m.mu.Unlock
}

func (m *memStore) GetByID(ctx context.Context, id uint64) (model.Event, error) {
	defer m.lock(ctx)()
	ev, ok := m.events[id]
	if !ok {
		return model.Event{}, fmt.Errorf("mem: %w", repository.ErrNotFound)
	}
	return ev, nil
}

func (m *memStore) GetForUpdate(ctx context.Context, id uint64) (model.Event, error) {
	if !inTx(ctx) {
		return model.Event{}, repository.ErrNoTransaction
	}
	return m.GetByID(ctx, id)
}

func (m *memStore) AdjustAvailableTickets(ctx context.Context, id uint64, delta int) error {
	if !inTx(ctx) {
		return repository.ErrNoTransaction
	}
	ev, ok := m.events[id]
	if !ok {
		return repository.ErrNotFound
	}
	ev.AvailableTickets += delta
	if !ev.LedgerValid() {
		return fmt.Errorf("mem: %w", repository.ErrConstraint)
	}
	m.events[id] = ev
	return nil
}

func (m *memStore) event(id uint64) model.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events[id]
}

func (m *memStore) reservationStore() *memReservations { return &memReservations{m} }

// memReservations is the ReservationStore view of memStore.  It is a
// separate type because both stores have a GetByID method.
type memReservations struct{ m *memStore }

func (r *memReservations) Create(ctx context.Context, res *model.Reservation) error {
	defer r.m.lock(ctx)()
	if _, dup := r.m.refs[res.BookingReference]; dup {
		return fmt.Errorf("mem: %w", repository.ErrDuplicate)
	}
	r.m.nextID++
	res.ID = r.m.nextID
	r.m.reservations[res.ID] = *res
	r.m.refs[res.BookingReference] = res.ID
	return nil
}

func (r *memReservations) GetByID(ctx context.Context, id uint64) (model.Reservation, error) {
	defer r.m.lock(ctx)()
	res, ok := r.m.reservations[id]
	if !ok {
		return model.Reservation{}, fmt.Errorf("mem: %w", repository.ErrNotFound)
	}
	return res, nil
}

func (r *memReservations) GetForUpdate(ctx context.Context, id uint64) (model.Reservation, error) {
	if !inTx(ctx) {
		return model.Reservation{}, repository.ErrNoTransaction
	}
	return r.GetByID(ctx, id)
}

func (r *memReservations) MarkCancelled(ctx context.Context, id uint64, at time.Time) error {
	defer r.m.lock(ctx)()
	res, ok := r.m.reservations[id]
	if !ok || res.Status != model.ReservationStatusConfirmed {
		return repository.ErrNotFound
	}
	res.Status = model.ReservationStatusCancelled
	res.CancelledAt = &at
	r.m.reservations[id] = res
	return nil
}

func (r *memReservations) List(ctx context.Context, f model.ReservationFilter, page model.Page) ([]model.Reservation, int, error) {
	defer r.m.lock(ctx)()
	var all []model.Reservation
	for _, res := range r.m.reservations {
		if f.UserID != 0 && res.UserID != f.UserID {
			continue
		}
		if f.EventID != 0 && res.EventID != f.EventID {
			continue
		}
		if f.Status != "" && res.Status != f.Status {
			continue
		}
		all = append(all, res)
	}
	sort.Slice(all, func(i, j int) bool {
		if !all[i].ReservationDate.Equal(all[j].ReservationDate) {
			return all[i].ReservationDate.After(all[j].ReservationDate)
		}
		return all[i].ID > all[j].ID
	})
	total := len(all)
	start := page.Offset()
	if start > total {
		start = total
	}
	end := start + page.Size
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (r *memReservations) GetDetail(ctx context.Context, id uint64) (model.ReservationDetail, error) {
	defer r.m.lock(ctx)()
	res, ok := r.m.reservations[id]
	if !ok {
		return model.ReservationDetail{}, fmt.Errorf("mem: %w", repository.ErrNotFound)
	}
	ev := r.m.events[res.EventID]
	return model.ReservationDetail{
		Reservation: res,
		Event:       ev,
		Venue:       model.Venue{ID: ev.VenueID, Name: "Arena"},
		User:        model.User{ID: res.UserID, Email: "user@example.com"},
	}, nil
}

func (r *memReservations) all() []model.Reservation {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()
	out := make([]model.Reservation, 0, len(r.m.reservations))
	for _, res := range r.m.reservations {
		out = append(out, res)
	}
	return out
}

type recordingNotifier struct {
	mu     sync.Mutex
	reject bool
	got    []queue.Notification
}

func (n *recordingNotifier) Enqueue(msg queue.Notification) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.reject {
		return false
	}
	n.got = append(n.got, msg)
	return true
}

func (n *recordingNotifier) kinds() []queue.Kind {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]queue.Kind, 0, len(n.got))
	for _, msg := range n.got {
		out = append(out, msg.Kind)
	}
	return out
}

// sequenceRefs hands out the given references in order, then repeats the
// last one.
type sequenceRefs struct {
	mu   sync.Mutex
	refs []string
}

func (s *sequenceRefs) Next(_, _ uint64) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref := s.refs[0]
	if len(s.refs) > 1 {
		s.refs = s.refs[1:]
	}
	return ref, nil
}
