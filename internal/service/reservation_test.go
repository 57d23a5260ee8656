package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/clock"
	"github.com/iliyamo/event-ticketing/internal/lib/logger/slogdiscard"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/queue"
	"github.com/iliyamo/event-ticketing/internal/repository"
)

var testNow = time.Date(2026, 6, 1, 10, 0, 0, 0, time.UTC)

func publishedEvent(id uint64, capacity int) model.Event {
	return model.Event{
		ID:                  id,
		VenueID:             1,
		Name:                fmt.Sprintf("Event %d", id),
		StartsAt:            testNow.Add(72 * time.Hour),
		EndsAt:              testNow.Add(75 * time.Hour),
		TotalCapacity:       capacity,
		AvailableTickets:    capacity,
		Status:              model.EventStatusPublished,
		PricePerTicketCents: 2500,
	}
}

type fixture struct {
	store    *memStore
	res      *memReservations
	notifier *recordingNotifier
	svc      *ReservationService
}

func newFixture(t *testing.T, refs ReferenceSource, events ...model.Event) *fixture {
	t.Helper()
	store := newMemStore(events...)
	f := &fixture{store: store, res: store.reservationStore(), notifier: &recordingNotifier{}}
	if refs == nil {
		refs = NewReferenceGenerator()
	}
	f.svc = NewReservationService(
		slogdiscard.NewDiscardLogger(),
		store, store, f.res, refs, f.notifier,
		clock.NewFixed(testNow),
		ReservationOptions{MaxTicketsPerReservation: 10, ReferenceMaxAttempts: 5},
	)
	return f
}

func TestCreate_Success(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, publishedEvent(1, 10), publishedEvent(2, 10))

	res, err := f.svc.Create(context.Background(), CreateReservationInput{EventID: 1, UserID: 7, NumberOfTickets: 3})
	require.NoError(t, err)

	assert.NotZero(t, res.ID)
	assert.Equal(t, uint64(1), res.EventID)
	assert.Equal(t, uint64(7), res.UserID)
	assert.Equal(t, 3, res.NumberOfTickets)
	assert.Equal(t, int64(7500), res.TotalPriceCents)
	assert.Equal(t, model.ReservationStatusConfirmed, res.Status)
	assert.Equal(t, testNow, res.ReservationDate)
	assert.True(t, ValidReference(res.BookingReference), res.BookingReference)

	assert.Equal(t, 7, f.store.event(1).AvailableTickets)
	assert.Equal(t, 10, f.store.event(2).AvailableTickets, "other events are untouched")
	assert.Equal(t, []queue.Kind{queue.KindReservationConfirmed}, f.notifier.kinds())
}

func TestCreate_Rejections(t *testing.T) {
	t.Parallel()

	draft := publishedEvent(2, 10)
	draft.Status = model.EventStatusDraft
	cancelled := publishedEvent(3, 10)
	cancelled.Status = model.EventStatusCancelled
	low := publishedEvent(4, 10)
	low.AvailableTickets = 2

	testCases := []struct {
		name    string
		in      CreateReservationInput
		wantErr error
	}{
		{"zero tickets", CreateReservationInput{EventID: 1, UserID: 7, NumberOfTickets: 0}, ErrInvalidQuantity},
		{"negative tickets", CreateReservationInput{EventID: 1, UserID: 7, NumberOfTickets: -1}, ErrInvalidQuantity},
		{"above cap", CreateReservationInput{EventID: 1, UserID: 7, NumberOfTickets: 11}, ErrInvalidQuantity},
		{"invalid quantity wins over unknown event", CreateReservationInput{EventID: 99, UserID: 7, NumberOfTickets: 0}, ErrInvalidQuantity},
		{"unknown event", CreateReservationInput{EventID: 99, UserID: 7, NumberOfTickets: 1}, ErrEventNotFound},
		{"draft event", CreateReservationInput{EventID: 2, UserID: 7, NumberOfTickets: 1}, ErrEventNotPublished},
		{"cancelled event", CreateReservationInput{EventID: 3, UserID: 7, NumberOfTickets: 1}, ErrEventNotPublished},
		{"not enough left", CreateReservationInput{EventID: 4, UserID: 7, NumberOfTickets: 3}, ErrInsufficientInventory},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, nil, publishedEvent(1, 10), draft, cancelled, low)

			_, err := f.svc.Create(context.Background(), tc.in)
			assert.ErrorIs(t, err, tc.wantErr)

			assert.Equal(t, 10, f.store.event(1).AvailableTickets)
			assert.Equal(t, 10, f.store.event(2).AvailableTickets)
			assert.Equal(t, 2, f.store.event(4).AvailableTickets)
			assert.Empty(t, f.res.all())
			assert.Empty(t, f.notifier.kinds())
		})
	}
}

func TestCreate_ExactlyAvailable(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, publishedEvent(1, 5))

	_, err := f.svc.Create(context.Background(), CreateReservationInput{EventID: 1, UserID: 7, NumberOfTickets: 5})
	require.NoError(t, err)
	assert.Equal(t, 0, f.store.event(1).AvailableTickets)

	_, err = f.svc.Create(context.Background(), CreateReservationInput{EventID: 1, UserID: 8, NumberOfTickets: 1})
	assert.ErrorIs(t, err, ErrInsufficientInventory)
}

func TestCreate_ConcurrentNeverOversells(t *testing.T) {
	t.Parallel()

	const capacity, requests = 20, 50
	f := newFixture(t, nil, publishedEvent(1, capacity), publishedEvent(2, capacity))

	var wg sync.WaitGroup
	var mu sync.Mutex
	var unexpected []error
	ok, soldOut := 0, 0
	bookingRefs := make(map[string]bool)
	start := make(chan struct{})
	for i := 0; i < requests; i++ {
		wg.Add(1)
		go func(user uint64) {
			defer wg.Done()
			<-start
			res, err := f.svc.Create(context.Background(), CreateReservationInput{EventID: 1, UserID: user, NumberOfTickets: 1})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
				bookingRefs[res.BookingReference] = true
			case errors.Is(err, ErrInsufficientInventory):
				soldOut++
			default:
				unexpected = append(unexpected, err)
			}
		}(uint64(i + 1))
	}
	close(start)
	wg.Wait()

	require.Empty(t, unexpected)
	assert.Equal(t, capacity, ok)
	assert.Equal(t, requests-capacity, soldOut)
	assert.Len(t, bookingRefs, capacity, "booking references are pairwise distinct")
	assert.Equal(t, 0, f.store.event(1).AvailableTickets)
	assert.Equal(t, capacity, f.store.event(2).AvailableTickets)
}

func TestCreate_ConcurrentConservesTickets(t *testing.T) {
	t.Parallel()

	const capacity = 37
	f := newFixture(t, nil, publishedEvent(1, capacity))

	var wg sync.WaitGroup
	var mu sync.Mutex
	reserved := 0
	for i := 0; i < 40; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			res, err := f.svc.Create(context.Background(), CreateReservationInput{EventID: 1, UserID: 1, NumberOfTickets: n})
			if err != nil {
				assert.ErrorIs(t, err, ErrInsufficientInventory)
				return
			}
			mu.Lock()
			reserved += res.NumberOfTickets
			mu.Unlock()
		}(i%4 + 1)
	}
	wg.Wait()

	ev := f.store.event(1)
	assert.True(t, ev.LedgerValid())
	assert.LessOrEqual(t, reserved, capacity)
	assert.Equal(t, capacity-reserved, ev.AvailableTickets)

	sum := 0
	for _, res := range f.res.all() {
		sum += res.NumberOfTickets
	}
	assert.Equal(t, reserved, sum)
}

func TestCreate_ReferenceCollisionRetries(t *testing.T) {
	t.Parallel()

	refs := &sequenceRefs{refs: []string{"TKT-AAAAAAAAAAAA", "TKT-AAAAAAAAAAAA", "TKT-BBBBBBBBBBBB"}}
	f := newFixture(t, refs, publishedEvent(1, 10))

	first, err := f.svc.Create(context.Background(), CreateReservationInput{EventID: 1, UserID: 7, NumberOfTickets: 1})
	require.NoError(t, err)
	second, err := f.svc.Create(context.Background(), CreateReservationInput{EventID: 1, UserID: 8, NumberOfTickets: 2})
	require.NoError(t, err)

	assert.Equal(t, "TKT-AAAAAAAAAAAA", first.BookingReference)
	assert.Equal(t, "TKT-BBBBBBBBBBBB", second.BookingReference)
	assert.Equal(t, 7, f.store.event(1).AvailableTickets)
}

func TestCreate_ReferenceAttemptsExhausted(t *testing.T) {
	t.Parallel()

	refs := &sequenceRefs{refs: []string{"TKT-AAAAAAAAAAAA"}}
	f := newFixture(t, refs, publishedEvent(1, 10))

	_, err := f.svc.Create(context.Background(), CreateReservationInput{EventID: 1, UserID: 7, NumberOfTickets: 1})
	require.NoError(t, err)

	_, err = f.svc.Create(context.Background(), CreateReservationInput{EventID: 1, UserID: 8, NumberOfTickets: 4})
	assert.ErrorIs(t, err, ErrUnexpected)

	assert.Equal(t, 9, f.store.event(1).AvailableTickets, "failed create is rolled back")
	assert.Len(t, f.res.all(), 1)
	assert.Len(t, f.notifier.kinds(), 1)
}

func TestCreate_NotifierDropDoesNotFail(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, publishedEvent(1, 10))
	f.notifier.reject = true

	res, err := f.svc.Create(context.Background(), CreateReservationInput{EventID: 1, UserID: 7, NumberOfTickets: 1})
	require.NoError(t, err)
	assert.NotZero(t, res.ID)

	require.NoError(t, f.svc.Cancel(context.Background(), CancelReservationInput{ReservationID: res.ID, RequesterID: 7}))
	assert.Equal(t, 10, f.store.event(1).AvailableTickets)
}

type conflictingTx struct{}

func (conflictingTx) WithTx(context.Context, func(context.Context) error) error {
	return fmt.Errorf("commit: %w", repository.ErrConflict)
}

func TestCreate_ConflictSurfacesAsTransactionConflict(t *testing.T) {
	t.Parallel()

	store := newMemStore(publishedEvent(1, 10))
	svc := NewReservationService(slogdiscard.NewDiscardLogger(), conflictingTx{}, store, store.reservationStore(),
		NewReferenceGenerator(), nil, clock.NewFixed(testNow), ReservationOptions{})

	_, err := svc.Create(context.Background(), CreateReservationInput{EventID: 1, UserID: 7, NumberOfTickets: 1})
	assert.ErrorIs(t, err, ErrTransactionConflict)

	err = svc.Cancel(context.Background(), CancelReservationInput{ReservationID: 1, RequesterID: 7})
	assert.ErrorIs(t, err, ErrTransactionConflict)
}

func TestCancel(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name        string
		requester   uint64
		isAdmin     bool
		reservation uint64
		precancel   bool
		wantErr     error
		wantAvail   int
	}{
		{name: "owner", requester: 7, reservation: 1, wantAvail: 10},
		{name: "admin cancels another user's reservation", requester: 1, isAdmin: true, reservation: 1, wantAvail: 10},
		{name: "not found", requester: 7, reservation: 42, wantErr: ErrReservationNotFound, wantAvail: 6},
		{name: "other user", requester: 8, reservation: 1, wantErr: ErrForbidden, wantAvail: 6},
		{name: "already cancelled", requester: 7, reservation: 1, precancel: true, wantErr: ErrAlreadyCancelled, wantAvail: 10},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newFixture(t, nil, publishedEvent(1, 10))
			res, err := f.svc.Create(context.Background(), CreateReservationInput{EventID: 1, UserID: 7, NumberOfTickets: 4})
			require.NoError(t, err)
			require.Equal(t, uint64(1), res.ID)
			if tc.precancel {
				require.NoError(t, f.svc.Cancel(context.Background(), CancelReservationInput{ReservationID: 1, RequesterID: 7}))
			}

			err = f.svc.Cancel(context.Background(), CancelReservationInput{
				ReservationID: tc.reservation,
				RequesterID:   tc.requester,
				IsAdmin:       tc.isAdmin,
			})
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
			} else {
				require.NoError(t, err)
				got, err := f.res.GetByID(context.Background(), 1)
				require.NoError(t, err)
				assert.Equal(t, model.ReservationStatusCancelled, got.Status)
				require.NotNil(t, got.CancelledAt)
				assert.Equal(t, testNow, *got.CancelledAt)
				assert.Equal(t, []queue.Kind{queue.KindReservationConfirmed, queue.KindReservationCancelled}, f.notifier.kinds())
			}
			assert.Equal(t, tc.wantAvail, f.store.event(1).AvailableTickets)
		})
	}
}

func TestCancel_ConcurrentReleasesOnce(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, publishedEvent(1, 10))
	res, err := f.svc.Create(context.Background(), CreateReservationInput{EventID: 1, UserID: 7, NumberOfTickets: 3})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var mu sync.Mutex
	ok, already := 0, 0
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := f.svc.Cancel(context.Background(), CancelReservationInput{ReservationID: res.ID, RequesterID: 7})
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				ok++
			} else if errors.Is(err, ErrAlreadyCancelled) {
				already++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, ok)
	assert.Equal(t, 9, already)
	assert.Equal(t, 10, f.store.event(1).AvailableTickets)
}

func TestCancel_LedgerOverflowAborts(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, publishedEvent(1, 10))
	res, err := f.svc.Create(context.Background(), CreateReservationInput{EventID: 1, UserID: 7, NumberOfTickets: 2})
	require.NoError(t, err)

	// Corrupt the ledger so the release would push it past capacity.
	f.store.mu.Lock()
	ev := f.store.events[1]
	ev.AvailableTickets = 9
	f.store.events[1] = ev
	f.store.mu.Unlock()

	err = f.svc.Cancel(context.Background(), CancelReservationInput{ReservationID: res.ID, RequesterID: 7})
	assert.ErrorIs(t, err, ErrUnexpected)

	got, err := f.res.GetByID(context.Background(), res.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ReservationStatusConfirmed, got.Status)
	assert.Equal(t, 9, f.store.event(1).AvailableTickets)
}

func TestReservationLifecycle_SoldOutThenCancel(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, publishedEvent(1, 10))
	docs := NewDocumentService(slogdiscard.NewDiscardLogger(), f.res, &stubRenderer{}, &stubRenderer{})
	ctx := context.Background()

	res, err := f.svc.Create(ctx, CreateReservationInput{EventID: 1, UserID: 7, NumberOfTickets: 10})
	require.NoError(t, err)
	assert.Equal(t, 0, f.store.event(1).AvailableTickets)

	_, err = f.svc.Create(ctx, CreateReservationInput{EventID: 1, UserID: 8, NumberOfTickets: 1})
	require.ErrorIs(t, err, ErrInsufficientInventory)

	pdf, err := docs.Ticket(ctx, res.ID, 7, false)
	require.NoError(t, err)
	assert.NotEmpty(t, pdf)

	require.NoError(t, f.svc.Cancel(ctx, CancelReservationInput{ReservationID: res.ID, RequesterID: 7}))
	assert.Equal(t, 10, f.store.event(1).AvailableTickets)

	_, err = docs.Ticket(ctx, res.ID, 7, false)
	assert.ErrorIs(t, err, ErrDocumentNotAvailable)
	_, err = docs.Calendar(ctx, res.ID, 7, false)
	assert.ErrorIs(t, err, ErrDocumentNotAvailable)
}

func TestGet(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, publishedEvent(1, 10))
	res, err := f.svc.Create(context.Background(), CreateReservationInput{EventID: 1, UserID: 7, NumberOfTickets: 1})
	require.NoError(t, err)

	got, err := f.svc.Get(context.Background(), res.ID, 7, false)
	require.NoError(t, err)
	assert.Equal(t, res.BookingReference, got.BookingReference)

	_, err = f.svc.Get(context.Background(), res.ID, 8, true)
	assert.NoError(t, err)

	_, err = f.svc.Get(context.Background(), res.ID, 8, false)
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = f.svc.Get(context.Background(), 404, 7, false)
	assert.ErrorIs(t, err, ErrReservationNotFound)
}

func TestListing(t *testing.T) {
	t.Parallel()

	f := newFixture(t, nil, publishedEvent(1, 50), publishedEvent(2, 50))
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		_, err := f.svc.Create(ctx, CreateReservationInput{EventID: 1, UserID: 7, NumberOfTickets: 1})
		require.NoError(t, err)
	}
	_, err := f.svc.Create(ctx, CreateReservationInput{EventID: 2, UserID: 8, NumberOfTickets: 1})
	require.NoError(t, err)

	t.Run("mine paginated newest first", func(t *testing.T) {
		page, err := f.svc.ListMine(ctx, 7, model.Page{Number: 1, Size: 2})
		require.NoError(t, err)
		assert.Equal(t, 5, page.Total)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, 2, page.PageSize)
		require.Len(t, page.Items, 2)
		assert.Equal(t, uint64(5), page.Items[0].ID)
		assert.Equal(t, uint64(4), page.Items[1].ID)

		last, err := f.svc.ListMine(ctx, 7, model.Page{Number: 3, Size: 2})
		require.NoError(t, err)
		require.Len(t, last.Items, 1)
		assert.Equal(t, uint64(1), last.Items[0].ID)
	})

	t.Run("defaults and empty result", func(t *testing.T) {
		page, err := f.svc.ListMine(ctx, 99, model.Page{})
		require.NoError(t, err)
		assert.Equal(t, 1, page.Page)
		assert.Equal(t, model.DefaultPageSize, page.PageSize)
		assert.NotNil(t, page.Items)
		assert.Empty(t, page.Items)
	})

	t.Run("admin filter", func(t *testing.T) {
		page, err := f.svc.List(ctx, model.ReservationFilter{UserID: 8}, model.Page{Size: 500})
		require.NoError(t, err)
		assert.Equal(t, model.MaxPageSize, page.PageSize)
		require.Len(t, page.Items, 1)
		assert.Equal(t, uint64(2), page.Items[0].EventID)
	})

	t.Run("by event", func(t *testing.T) {
		page, err := f.svc.ListByEvent(ctx, 1, model.Page{})
		require.NoError(t, err)
		assert.Equal(t, 5, page.Total)

		_, err = f.svc.ListByEvent(ctx, 404, model.Page{})
		assert.ErrorIs(t, err, ErrEventNotFound)
	})
}
