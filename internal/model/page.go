package model

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	// MaxPageNumber keeps (Number-1)*Size far below the int range.
	MaxPageNumber = 1_000_000
)

// Page selects a window of a listing.  Page numbers start at 1.
type Page struct {
	Number int
	Size   int
}

// Normalize clamps the page into its valid range.
func (p Page) Normalize() Page {
	if p.Number < 1 {
		p.Number = 1
	}
	if p.Number > MaxPageNumber {
		p.Number = MaxPageNumber
	}
	if p.Size < 1 {
		p.Size = DefaultPageSize
	}
	if p.Size > MaxPageSize {
		p.Size = MaxPageSize
	}
	return p
}

// Offset is the number of rows to skip.
func (p Page) Offset() int {
	return (p.Number - 1) * p.Size
}

// ReservationPage is one page of a reservation listing.
type ReservationPage struct {
	Items    []Reservation `json:"items"`
	Page     int           `json:"page"`
	PageSize int           `json:"pageSize"`
	Total    int           `json:"total"`
}

// ReservationFilter narrows the admin listing.  Zero values mean "any".
type ReservationFilter struct {
	UserID  uint64
	EventID uint64
	Status  ReservationStatus
}
