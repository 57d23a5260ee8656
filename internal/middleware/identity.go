package middleware

// identity.go holds the authenticated caller extracted by JWTAuth.  Handlers
// and the rate limiter read it back with IdentityFrom.

import (
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/event-ticketing/internal/model"
)

const identityKey = "identity"

// Identity is the verified caller of a request.
type Identity struct {
	UserID uint64
	Role   string
}

// IsAdmin reports whether the caller may act on other users' reservations.
func (i Identity) IsAdmin() bool {
	return i.Role == model.RoleAdmin
}

// SetIdentity stores id on the request context.
func SetIdentity(c echo.Context, id Identity) {
	c.Set(identityKey, id)
}

// IdentityFrom returns the caller stored by JWTAuth.
func IdentityFrom(c echo.Context) (Identity, bool) {
	id, ok := c.Get(identityKey).(Identity)
	return id, ok
}

// userID returns the caller id for rate-limit keys, "anon" when the request
// is not authenticated.
func userID(c echo.Context) string {
	if id, ok := IdentityFrom(c); ok {
		return strconv.FormatUint(id.UserID, 10)
	}
	return "anon"
}
