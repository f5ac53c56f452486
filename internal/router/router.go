// Package router registers the HTTP routes of the BFF.
package router

import (
	"github.com/labstack/echo/v4"

	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/handler"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/middleware"
	"github.com/TakiyaYoru/HOTEL4L-sub000/internal/model"
)

// Guards are the cross-cutting middlewares routes pick from.
type Guards struct {
	Sessions middleware.Resolver
	// Cache wraps the public catalog reads.
	Cache echo.MiddlewareFunc
	// Limit wraps login, registration and checkout submission.
	Limit echo.MiddlewareFunc
}

func (g Guards) orPass(mw echo.MiddlewareFunc) echo.MiddlewareFunc {
	if mw == nil {
		return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	}
	return mw
}

// RegisterHealth exposes the liveness and readiness checks.
func RegisterHealth(e *echo.Echo, checks ...handler.Check) {
	e.GET("/healthz", handler.Health)
	e.GET("/readyz", handler.Ready(checks...))
}

// RegisterAuth registers login, registration, logout, /v1/me and the
// route gate.  The gate and /v1/me accept anonymous callers.
func RegisterAuth(e *echo.Echo, g Guards, a *handler.AuthHandler) {
	optional := middleware.SessionAuth(g.Sessions, false)
	required := middleware.SessionAuth(g.Sessions, true)
	limit := g.orPass(g.Limit)

	auth := e.Group("/v1/auth")
	auth.POST("/login", a.Login, limit)
	auth.POST("/register", a.Register, limit)
	auth.POST("/logout", a.Logout, required)

	e.GET("/v1/me", a.Me, required)
	e.GET("/v1/gate", a.Gate, optional)
}

// RegisterCatalog registers the public room pages.
func RegisterCatalog(e *echo.Echo, g Guards, h *handler.CatalogHandler) {
	cache := g.orPass(g.Cache)
	e.GET("/v1/rooms", h.ListRooms, cache)
	e.GET("/v1/rooms/:id", h.GetRoom, cache)
	e.GET("/v1/rooms/:id/availability", h.Availability)
	e.GET("/v1/roomtypes", h.RoomTypes, cache)
}

// RegisterCustomer registers the checkout and the customer's own pages.
func RegisterCustomer(e *echo.Echo, g Guards, co *handler.CheckoutHandler, me *handler.CustomerHandler) {
	cust := e.Group("/v1", middleware.SessionAuth(g.Sessions, true), middleware.RequireRole(model.RoleCustomer))

	cust.POST("/checkout", co.Start)
	cust.GET("/checkout", co.Get)
	cust.DELETE("/checkout", co.Cancel)
	cust.PUT("/checkout/guest", co.Guest)
	cust.PUT("/checkout/companions", co.Companions)
	cust.PUT("/checkout/payment", co.Payment)
	cust.PUT("/checkout/step", co.Step)
	cust.POST("/checkout/submit", co.Submit, g.orPass(g.Limit))

	cust.GET("/profile", me.Profile)
	cust.PUT("/profile", me.UpdateProfile)
	cust.GET("/my-bookings", me.MyBookings)
	cust.GET("/my-bookings/:id", me.MyBooking)
	cust.GET("/favorites", me.Favorites)
	cust.PUT("/favorites/:roomId", me.Star)
	cust.DELETE("/favorites/:roomId", me.Unstar)
}

// RegisterBackoffice registers the staff screens under /v1/backoffice and
// the manager-only employee admin under /v1/admin.
func RegisterBackoffice(e *echo.Echo, g Guards, h *handler.BackofficeHandler) {
	auth := middleware.SessionAuth(g.Sessions, true)

	staff := e.Group("/v1/backoffice", auth, middleware.RequireRole(model.RoleEmployee, model.RoleManager))
	staff.GET("/bookings", h.Bookings)
	staff.GET("/bookings/export", h.Export)
	staff.POST("/bookings/:id/:action", h.Transition)

	staff.GET("/rooms", h.Rooms)
	staff.POST("/rooms", h.CreateRoom)
	staff.PUT("/rooms/:id", h.UpdateRoom)
	staff.DELETE("/rooms/:id", h.DeleteRoom)
	staff.POST("/rooms/:id/release", h.ReleaseRoom)

	staff.GET("/roomtypes", h.RoomTypes)
	staff.POST("/roomtypes", h.CreateRoomType)
	staff.PUT("/roomtypes/:id", h.UpdateRoomType)
	staff.DELETE("/roomtypes/:id", h.DeleteRoomType)

	admin := e.Group("/v1/admin", auth, middleware.RequireRole(model.RoleManager))
	admin.GET("/employees", h.Employees)
	admin.POST("/employees", h.CreateEmployee)
	admin.PUT("/employees/:id", h.UpdateEmployee)
	admin.DELETE("/employees/:id", h.DeleteEmployee)
}
