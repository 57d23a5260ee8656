package handler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/middleware"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/service"
)

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=ReservationWorkflow
type ReservationWorkflow interface {
	Create(ctx context.Context, in service.CreateReservationInput) (model.Reservation, error)
	Cancel(ctx context.Context, in service.CancelReservationInput) error
	Get(ctx context.Context, id, requesterID uint64, isAdmin bool) (model.Reservation, error)
	ListMine(ctx context.Context, userID uint64, page model.Page) (model.ReservationPage, error)
	List(ctx context.Context, filter model.ReservationFilter, page model.Page) (model.ReservationPage, error)
	ListByEvent(ctx context.Context, eventID uint64, page model.Page) (model.ReservationPage, error)
}

//go:generate go run github.com/vektra/mockery/v2@v2.51.1 --name=DocumentProvider
type DocumentProvider interface {
	Ticket(ctx context.Context, id, requesterID uint64, isAdmin bool) ([]byte, error)
	Calendar(ctx context.Context, id, requesterID uint64, isAdmin bool) ([]byte, error)
}

// ReservationHandler serves the /reservations routes.  Every route runs
// behind JWTAuth, so an Identity is always present.
type ReservationHandler struct {
	log        *slog.Logger
	svc        ReservationWorkflow
	docs       DocumentProvider
	maxRetries int
	backoff    time.Duration
}

func NewReservationHandler(log *slog.Logger, svc ReservationWorkflow, docs DocumentProvider, maxRetries int) *ReservationHandler {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &ReservationHandler{
		log:        log,
		svc:        svc,
		docs:       docs,
		maxRetries: maxRetries,
		backoff:    15 * time.Millisecond,
	}
}

type createReservationRequest struct {
	EventID         uint64 `json:"eventId" validate:"required,gt=0"`
	NumberOfTickets int    `json:"numberOfTickets"`
}

// Create handles POST /reservations.
func (h *ReservationHandler) Create(c echo.Context) error {
	const op = "handler.ReservationHandler.Create"

	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	}
	log := h.log.With(slog.String("op", op), slog.Uint64("user_id", id.UserID))

	var req createReservationRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_REQUEST", "failed to decode request")
	}
	if err := c.Validate(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "VALIDATION_ERROR", validationMessage(err))
	}

	var res model.Reservation
	err := h.retry(c.Request().Context(), func(ctx context.Context) error {
		var err error
		res, err = h.svc.Create(ctx, service.CreateReservationInput{
			EventID:         req.EventID,
			UserID:          id.UserID,
			NumberOfTickets: req.NumberOfTickets,
		})
		return err
	})
	if err != nil {
		return fail(c, log.With(slog.Uint64("event_id", req.EventID)), err)
	}
	return c.JSON(http.StatusCreated, res)
}

// Cancel handles POST /reservations/:id/cancel.
func (h *ReservationHandler) Cancel(c echo.Context) error {
	const op = "handler.ReservationHandler.Cancel"

	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	}
	resID, err := pathID(c, "id")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid reservation id")
	}
	log := h.log.With(slog.String("op", op), slog.Uint64("user_id", id.UserID), slog.Uint64("reservation_id", resID))

	err = h.retry(c.Request().Context(), func(ctx context.Context) error {
		return h.svc.Cancel(ctx, service.CancelReservationInput{
			ReservationID: resID,
			RequesterID:   id.UserID,
			IsAdmin:       id.IsAdmin(),
		})
	})
	if err != nil {
		return fail(c, log, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Get handles GET /reservations/:id.
func (h *ReservationHandler) Get(c echo.Context) error {
	const op = "handler.ReservationHandler.Get"

	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	}
	resID, err := pathID(c, "id")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid reservation id")
	}

	res, err := h.svc.Get(c.Request().Context(), resID, id.UserID, id.IsAdmin())
	if err != nil {
		return fail(c, h.log.With(slog.String("op", op)), err)
	}
	return c.JSON(http.StatusOK, res)
}

// ListMine handles GET /reservations/my-reservations.
func (h *ReservationHandler) ListMine(c echo.Context) error {
	const op = "handler.ReservationHandler.ListMine"

	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	}
	page, err := parsePage(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_PAGINATION", err.Error())
	}

	out, err := h.svc.ListMine(c.Request().Context(), id.UserID, page)
	if err != nil {
		return fail(c, h.log.With(slog.String("op", op)), err)
	}
	return c.JSON(http.StatusOK, out)
}

// List handles GET /reservations (admin).
func (h *ReservationHandler) List(c echo.Context) error {
	const op = "handler.ReservationHandler.List"

	page, err := parsePage(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_PAGINATION", err.Error())
	}
	var filter model.ReservationFilter
	if filter.UserID, err = queryID(c, "userId"); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_FILTER", "invalid userId")
	}
	if filter.EventID, err = queryID(c, "eventId"); err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_FILTER", "invalid eventId")
	}
	if s := c.QueryParam("status"); s != "" {
		filter.Status = model.ReservationStatus(s)
		if !filter.Status.Valid() {
			return errorJSON(c, http.StatusBadRequest, "INVALID_FILTER", "invalid status")
		}
	}

	out, err := h.svc.List(c.Request().Context(), filter, page)
	if err != nil {
		return fail(c, h.log.With(slog.String("op", op)), err)
	}
	return c.JSON(http.StatusOK, out)
}

// ListByEvent handles GET /reservations/event/:eventId (admin).
func (h *ReservationHandler) ListByEvent(c echo.Context) error {
	const op = "handler.ReservationHandler.ListByEvent"

	eventID, err := pathID(c, "eventId")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid event id")
	}
	page, err := parsePage(c)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_PAGINATION", err.Error())
	}

	out, err := h.svc.ListByEvent(c.Request().Context(), eventID, page)
	if err != nil {
		// On a read the missing event is the resource itself.
		if errors.Is(err, service.ErrEventNotFound) {
			return errorJSON(c, http.StatusNotFound, "EVENT_NOT_FOUND", service.ErrEventNotFound.Error())
		}
		return fail(c, h.log.With(slog.String("op", op)), err)
	}
	return c.JSON(http.StatusOK, out)
}

// Ticket handles GET /reservations/:id/ticket.
func (h *ReservationHandler) Ticket(c echo.Context) error {
	return h.document(c, "handler.ReservationHandler.Ticket", h.docs.Ticket, "application/pdf", "ticket-%d.pdf")
}

// Calendar handles GET /reservations/:id/calendar.
func (h *ReservationHandler) Calendar(c echo.Context) error {
	return h.document(c, "handler.ReservationHandler.Calendar", h.docs.Calendar, "text/calendar; charset=utf-8", "reservation-%d.ics")
}

func (h *ReservationHandler) document(
	c echo.Context,
	op string,
	render func(ctx context.Context, id, requesterID uint64, isAdmin bool) ([]byte, error),
	contentType, filename string,
) error {
	id, ok := middleware.IdentityFrom(c)
	if !ok {
		return errorJSON(c, http.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	}
	resID, err := pathID(c, "id")
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "INVALID_ID", "invalid reservation id")
	}

	out, err := render(c.Request().Context(), resID, id.UserID, id.IsAdmin())
	if err != nil {
		return fail(c, h.log.With(slog.String("op", op), slog.Uint64("reservation_id", resID)), err)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="`+filename+`"`, resID))
	return c.Blob(http.StatusOK, contentType, out)
}

// retry re-runs fn while it fails with a transaction conflict, at most
// h.maxRetries extra times.  Each run is a fresh transaction.
func (h *ReservationHandler) retry(ctx context.Context, fn func(ctx context.Context) error) error {
	var err error
	for attempt := 0; attempt <= h.maxRetries; attempt++ {
		if attempt > 0 {
			t := time.NewTimer(time.Duration(attempt) * h.backoff)
			select {
			case <-ctx.Done():
				t.Stop()
				return err
			case <-t.C:
			}
		}
		err = fn(ctx)
		if !errors.Is(err, service.ErrTransactionConflict) {
			return err
		}
	}
	return err
}

func pathID(c echo.Context, name string) (uint64, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// queryID parses an optional id filter.  Absent means zero.
func queryID(c echo.Context, name string) (uint64, error) {
	s := c.QueryParam(name)
	if s == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(s, 10, 64)
	if err != nil || id == 0 {
		return 0, errors.New("invalid id")
	}
	return id, nil
}

// parsePage reads page and pageSize.  Non-numeric input and page numbers
// beyond model.MaxPageNumber are rejected; everything else is clamped by
// model.Page.Normalize.
func parsePage(c echo.Context) (model.Page, error) {
	var p model.Page
	if s := c.QueryParam("page"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return model.Page{}, errors.New("page must be an integer")
		}
		if n > model.MaxPageNumber {
			return model.Page{}, fmt.Errorf("page must be at most %d", model.MaxPageNumber)
		}
		p.Number = n
	}
	if s := c.QueryParam("pageSize"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return model.Page{}, errors.New("pageSize must be an integer")
		}
		p.Size = n
	}
	return p.Normalize(), nil
}
