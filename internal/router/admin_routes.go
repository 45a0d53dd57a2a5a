package router // router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"

	"github.com/parkwise/parking-reservation/internal/handler"    // admin handlers
	"github.com/parkwise/parking-reservation/internal/middleware" // JWT + role middlewares
)

// RegisterAdmin registers ADMIN-scoped endpoints under /v1.
// All routes require a valid JWT and ADMIN role.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	// Attach middlewares at group construction time for clarity.
	g := e.Group(
		"/v1",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)

	// ---- Lots ----
	g.POST("/lots", a.CreateLot)
	// NOTE: Listing lots is handled by the public browse API.  Admin‑scoped
	// list endpoints have been removed to avoid route conflicts with the
	// public /v1/lots handler.
	g.PUT("/lots/:id", a.UpdateLot)
	g.PATCH("/lots/:id", a.UpdateLot) // allow partial updates via PATCH as well
	g.DELETE("/lots/:id", a.DeleteLot)

	// ---- Dashboard ----
	// Spot board with occupant details; the public variant at
	// /v1/lots/:id/spots hides who is parked where.
	g.GET("/admin/lots/:id/spots", a.ListLotSpots)
	g.GET("/admin/users", a.ListUsers)
	g.GET("/admin/summary", a.Summary)
}
