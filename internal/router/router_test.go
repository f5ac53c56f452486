package router

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/handler"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/middleware"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/session"
)

type resolver map[string]*model.Session

func (r resolver) Resolve(_ context.Context, raw string) (*model.Session, error) {
	if s, ok := r[raw]; ok {
		return s, nil
	}
	return nil, session.ErrNoSession
}

func newServer() *echo.Echo {
	log := logrus.New()
	log.SetOutput(io.Discard)

	e := echo.New()
	e.HTTPErrorHandler = middleware.ErrorHandler(log)
	g := Guards{Sessions: resolver{
		"cust": {ID: "1", PrincipalID: 7, Role: model.RoleCustomer},
		"emp":  {ID: "2", PrincipalID: 20, Role: model.RoleEmployee},
		"boss": {ID: "3", PrincipalID: 21, Role: model.RoleManager},
	}}
	RegisterHealth(e)
	RegisterAuth(e, g, handler.NewAuthHandler(nil, false))
	RegisterCatalog(e, g, handler.NewCatalogHandler(nil))
	RegisterCustomer(e, g, handler.NewCheckoutHandler(nil), handler.NewCustomerHandler(nil))
	RegisterBackoffice(e, g, handler.NewBackofficeHandler(nil, nil, nil, log))
	return e
}

func TestRoleGuards(t *testing.T) {
	e := newServer()
	cases := []struct {
		method, path, token string
		code                int
	}{
		{http.MethodGet, "/healthz", "", 200},
		{http.MethodGet, "/v1/checkout", "", 401},
		{http.MethodGet, "/v1/checkout", "emp", 403},
		{http.MethodGet, "/v1/profile", "boss", 403},
		{http.MethodGet, "/v1/backoffice/bookings", "cust", 403},
		{http.MethodGet, "/v1/backoffice/rooms", "", 401},
		{http.MethodGet, "/v1/admin/employees", "emp", 403},
		{http.MethodDelete, "/v1/admin/employees/3", "cust", 403},
		{http.MethodPost, "/v1/auth/logout", "", 401},
	}
	for _, tc := range cases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		if tc.token != "" {
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+tc.token)
		}
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		assert.Equal(t, tc.code, rec.Code, "%s %s as %q", tc.method, tc.path, tc.token)
	}
}

func TestRoutesRegistered(t *testing.T) {
	e := newServer()
	have := map[string]bool{}
	for _, r := range e.Routes() {
		have[r.Method+" "+r.Path] = true
	}
	for _, want := range []string{
		"GET /v1/rooms", "GET /v1/rooms/:id/availability", "GET /v1/roomtypes",
		"POST /v1/checkout/submit", "PUT /v1/checkout/step",
		"GET /v1/my-bookings/:id", "PUT /v1/favorites/:roomId",
		"POST /v1/backoffice/bookings/:id/:action", "GET /v1/backoffice/bookings/export",
		"PUT /v1/admin/employees/:id", "GET /v1/gate", "POST /v1/backoffice/rooms/:id/release",
	} {
		assert.True(t, have[want], want)
	}
}
