package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/lib/logger/sl"
	"github.com/iliyamo/event-ticketing/internal/service"
)

// ErrorResponse is the body of every non-2xx reply.  Error is meant for
// humans, Code for clients.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

var errorTable = []errorMapping{
	{service.ErrInvalidQuantity, http.StatusBadRequest, "INVALID_QUANTITY"},
	{service.ErrEventNotFound, http.StatusBadRequest, "EVENT_NOT_FOUND"},
	{service.ErrEventNotPublished, http.StatusBadRequest, "EVENT_NOT_PUBLISHED"},
	{service.ErrInsufficientInventory, http.StatusBadRequest, "INSUFFICIENT_INVENTORY"},
	{service.ErrReservationNotFound, http.StatusNotFound, "RESERVATION_NOT_FOUND"},
	{service.ErrForbidden, http.StatusForbidden, "FORBIDDEN"},
	{service.ErrAlreadyCancelled, http.StatusBadRequest, "ALREADY_CANCELLED"},
	{service.ErrDocumentNotAvailable, http.StatusConflict, "DOCUMENT_NOT_AVAILABLE"},
	{service.ErrTransactionConflict, http.StatusConflict, "TRANSACTION_CONFLICT"},
}

func errorJSON(c echo.Context, status int, code, msg string) error {
	return c.JSON(status, ErrorResponse{Error: msg, Code: code})
}

// fail writes the reply for a workflow error.  Only the sentinel's own
// message reaches the client; the wrapped detail is logged.
func fail(c echo.Context, log *slog.Logger, err error) error {
	for _, m := range errorTable {
		if errors.Is(err, m.target) {
			log.Info("request rejected", slog.String("code", m.code), sl.Err(err))
			return errorJSON(c, m.status, m.code, m.target.Error())
		}
	}
	log.Error("request failed", sl.Err(err))
	return errorJSON(c, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}
