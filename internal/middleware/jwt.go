package middleware // middleware holds the echo middleware shared by all routes

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

var errBadSubject = errors.New("token subject is not a user id")

// JWTAuth returns an Echo middleware that validates an HS256 Bearer token and
// stores the caller's Identity (sub and role claims) on the context.  Any
// failure ends the request with 401.
func JWTAuth(secret string) echo.MiddlewareFunc {
	keyFunc := func(*jwt.Token) (interface{}, error) { return []byte(secret), nil }
	parser := jwt.NewParser(jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			auth := c.Request().Header.Get(echo.HeaderAuthorization)
			if !strings.HasPrefix(auth, "Bearer ") {
				return unauthorized(c, "missing bearer token")
			}
			raw := strings.TrimSpace(strings.TrimPrefix(auth, "Bearer "))

			claims := jwt.MapClaims{}
			tok, err := parser.ParseWithClaims(raw, claims, keyFunc)
			if err != nil || !tok.Valid {
				return unauthorized(c, "invalid token")
			}

			uid, err := subject(claims)
			if err != nil {
				return unauthorized(c, "invalid token subject")
			}
			role, _ := claims["role"].(string)

			SetIdentity(c, Identity{UserID: uid, Role: role})
			return next(c)
		}
	}
}

// subject accepts both string and numeric sub claims.
func subject(claims jwt.MapClaims) (uint64, error) {
	switch v := claims["sub"].(type) {
	case string:
		id, err := strconv.ParseUint(v, 10, 64)
		if err != nil || id == 0 {
			return 0, errBadSubject
		}
		return id, nil
	case float64:
		if v < 1 || v != float64(uint64(v)) {
			return 0, errBadSubject
		}
		return uint64(v), nil
	default:
		return 0, errBadSubject
	}
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"error": msg, "code": "UNAUTHORIZED"})
}
