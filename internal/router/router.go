package router // package router registers the HTTP routes of the API

import (
	"log/slog"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/middleware"
)

// Deps groups what the routes need.  Redis may be nil, in which case the
// rate limiter lets every request through.
type Deps struct {
	Log            *slog.Logger
	JWTSecret      string
	RequestTimeout time.Duration
	RateLimit      config.RateLimitConfig
	Redis          *redis.Client
	Health         *handler.HealthHandler
	Reservations   *handler.ReservationHandler
}

// RegisterRoutes registers the probes, which need no authentication.
func RegisterRoutes(e *echo.Echo, h *handler.HealthHandler) {
	e.GET("/healthz", h.Health)
	e.GET("/readyz", h.Ready)
}

// RegisterReservations registers the /reservations routes.  All of them
// require a valid access token; listing across users and events is limited
// to admins, and the write routes are rate limited.
func RegisterReservations(e *echo.Echo, d Deps) {
	limit := middleware.NewTokenBucket(d.Log, d.RateLimit, d.Redis)
	admin := middleware.RequireAdmin()
	h := d.Reservations

	g := e.Group("/reservations", middleware.JWTAuth(d.JWTSecret))

	g.POST("", h.Create, limit)
	g.GET("/my-reservations", h.ListMine)
	g.GET("", h.List, admin)
	g.GET("/event/:eventId", h.ListByEvent, admin)
	g.GET("/:id", h.Get)
	g.POST("/:id/cancel", h.Cancel, limit)
	g.GET("/:id/ticket", h.Ticket)
	g.GET("/:id/calendar", h.Calendar)
}

// New builds the echo instance with the shared middleware and every route.
func New(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()

	e.Use(echomw.RequestID())
	e.Use(middleware.RequestLogger(d.Log))
	e.Use(echomw.RecoverWithConfig(echomw.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			d.Log.Error("panic recovered", slog.String("path", c.Path()), slog.String("error", err.Error()), slog.String("stack", string(stack)))
			return err
		},
	}))
	if d.RequestTimeout > 0 {
		e.Use(echomw.ContextTimeout(d.RequestTimeout))
	}

	RegisterRoutes(e, d.Health)
	RegisterReservations(e, d)
	return e
}
