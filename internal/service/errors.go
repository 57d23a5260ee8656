// Package service implements the reservation workflow.  Create and Cancel
// run as one unit of work against the event ledger and the reservation
// store; every outcome the caller can act on is one of the sentinels below.
package service

import "errors"

var (
	ErrInvalidQuantity       = errors.New("number of tickets is out of range")
	ErrEventNotFound         = errors.New("event not found")
	ErrEventNotPublished     = errors.New("event is not open for reservations")
	ErrInsufficientInventory = errors.New("not enough tickets available")
	ErrReservationNotFound   = errors.New("reservation not found")
	ErrForbidden             = errors.New("reservation belongs to another user")
	ErrAlreadyCancelled      = errors.New("reservation is already cancelled")
	ErrDocumentNotAvailable  = errors.New("documents are only available for confirmed reservations")
	ErrTransactionConflict   = errors.New("reservation conflicted with a concurrent request")
	ErrUnexpected            = errors.New("unexpected error")
)

// outcomes are returned to the caller unchanged.  Anything else is wrapped in
// ErrUnexpected.
var outcomes = []error{
	ErrInvalidQuantity,
	ErrEventNotFound,
	ErrEventNotPublished,
	ErrInsufficientInventory,
	ErrReservationNotFound,
	ErrForbidden,
	ErrAlreadyCancelled,
	ErrDocumentNotAvailable,
	ErrTransactionConflict,
	ErrUnexpected,
}

func isOutcome(err error) bool {
	for _, o := range outcomes {
		if errors.Is(err, o) {
			return true
		}
	}
	return false
}
