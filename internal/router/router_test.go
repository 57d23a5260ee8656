package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/event-ticketing/internal/config"
	"github.com/iliyamo/event-ticketing/internal/handler"
	"github.com/iliyamo/event-ticketing/internal/handler/mocks"
	"github.com/iliyamo/event-ticketing/internal/lib/logger/slogdiscard"
	"github.com/iliyamo/event-ticketing/internal/model"
	"github.com/iliyamo/event-ticketing/internal/utils"
)

const secret = "router-secret"

type okPinger struct{}

func (okPinger) PingContext(context.Context) error { return nil }

func newTestServer(t *testing.T, svc *mocks.ReservationWorkflow) *echo.Echo {
	t.Helper()
	log := slogdiscard.NewDiscardLogger()
	return New(Deps{
		Log:          log,
		JWTSecret:    secret,
		RateLimit:    config.RateLimitConfig{Enabled: false},
		Health:       handler.NewHealthHandler(okPinger{}),
		Reservations: handler.NewReservationHandler(log, svc, mocks.NewDocumentProvider(t), 0),
	})
}

func call(t *testing.T, e *echo.Echo, method, path string, userID uint64, role string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	if userID != 0 {
		tok, err := utils.NewAccessToken(secret, userID, role, 5)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+tok.Token)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRoutes(t *testing.T) {
	t.Parallel()

	svc := mocks.NewReservationWorkflow(t)
	svc.On("ListMine", mock.Anything, uint64(7), mock.Anything).
		Return(model.ReservationPage{Items: []model.Reservation{}, Page: 1, PageSize: 20}, nil).Once()
	svc.On("List", mock.Anything, mock.Anything, mock.Anything).
		Return(model.ReservationPage{Items: []model.Reservation{}, Page: 1, PageSize: 20}, nil).Once()

	e := newTestServer(t, svc)

	rec := call(t, e, http.MethodGet, "/healthz", 0, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(echo.HeaderXRequestID))

	assert.Equal(t, http.StatusOK, call(t, e, http.MethodGet, "/readyz", 0, "").Code)

	assert.Equal(t, http.StatusUnauthorized, call(t, e, http.MethodGet, "/reservations/my-reservations", 0, "").Code)
	assert.Equal(t, http.StatusOK, call(t, e, http.MethodGet, "/reservations/my-reservations", 7, model.RoleCustomer).Code)

	assert.Equal(t, http.StatusForbidden, call(t, e, http.MethodGet, "/reservations", 7, model.RoleCustomer).Code)
	assert.Equal(t, http.StatusForbidden, call(t, e, http.MethodGet, "/reservations/event/1", 7, model.RoleCustomer).Code)
	assert.Equal(t, http.StatusOK, call(t, e, http.MethodGet, "/reservations", 1, model.RoleAdmin).Code)
}
