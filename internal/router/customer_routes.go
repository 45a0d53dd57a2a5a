package router

import (
	"github.com/labstack/echo/v4"

	"github.com/parkwise/parking-reservation/internal/handler"
	"github.com/parkwise/parking-reservation/internal/middleware"
)

// RegisterCustomer registers customer-scoped endpoints under /v1.  All routes
// require a valid JWT and the CUSTOMER role.  Customers can book a spot in a
// lot, release their active reservation and view their own parking history.
func RegisterCustomer(e *echo.Echo, h *handler.CustomerHandler, jwtSecret string) {
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("CUSTOMER"),
	)
	// Note: GET /v1/lots and GET /v1/lots/:id/spots are registered on the
	// public router so that guests can check availability before signing in.
	// Customer-specific endpoints begin here.
	g.POST("/lots/:id/book", h.Book)
	g.POST("/reservations/:id/release", h.Release)
	g.GET("/my-reservations", h.ListReservations)

	// Reservation detail endpoint.  Ownership is validated in the handler,
	// so one customer can never read another customer's reservation.
	g.GET("/reservations/:id", h.GetReservation)
}
