// Package handler defines HTTP handlers for authenticated ADMIN
// operations.  This file implements the parking lot administration
// endpoints: creating a lot (which provisions its spots), editing a
// lot (which grows or shrinks the spot pool), deleting a lot, and the
// dashboard views an administrator uses to inspect spots and users.
package handler

import (
    "database/sql" // sentinel errors such as sql.ErrNoRows
    "errors"       // errors package for comparing sentinels
    "net/http"     // status code constants
    "strconv"      // string-to-integer conversion
    "strings"      // strings manipulates and trims text
    "time"         // running duration for occupied spots

    "github.com/labstack/echo/v4" // echo provides request/response handling

    "github.com/parkwise/parking-reservation/internal/repository" // repository exposes database models
)

// AdminHandler bundles repositories for administrators to manage lots
// and inspect the system.
type AdminHandler struct {
	LotRepo         *repository.LotRepo         // LotRepo provides lot persistence
	SpotRepo        *repository.SpotRepo        // SpotRepo provides spot persistence
	ReservationRepo *repository.ReservationRepo // ReservationRepo resolves occupants of spots
	UserRepo        *repository.UserRepo        // UserRepo lists customer accounts
}

// NewAdminHandler constructs a new AdminHandler and panics if any dependency is nil
func NewAdminHandler(lotRepo *repository.LotRepo, spotRepo *repository.SpotRepo, reservationRepo *repository.ReservationRepo, userRepo *repository.UserRepo) *AdminHandler {
	if lotRepo == nil || spotRepo == nil || reservationRepo == nil || userRepo == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{
		LotRepo:         lotRepo,
		SpotRepo:        spotRepo,
		ReservationRepo: reservationRepo,
		UserRepo:        userRepo,
	}
}

type lotAttrs struct {
	Name         *string  `json:"name"`
	Address      *string  `json:"address"`
	PostalCode   *string  `json:"postal_code"`
	PricePerHour *float64 `json:"price_per_hour"`
	MaxSpots     *uint32  `json:"max_spots"`
}

// CreateLot handles POST /v1/lots.  It validates the lot attributes
// (price must be positive, capacity non-negative), inserts the lot and
// provisions its initial batch of spots in the same transaction.
func (h *AdminHandler) CreateLot(c echo.Context) error {
	var body lotAttrs
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.Name == nil || strings.TrimSpace(*body.Name) == "" ||
		body.Address == nil || strings.TrimSpace(*body.Address) == "" ||
		body.PostalCode == nil || strings.TrimSpace(*body.PostalCode) == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, address and postal_code are required"})
	}
	if body.PricePerHour == nil || *body.PricePerHour <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_per_hour must be greater than zero"})
	}
	if body.MaxSpots == nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "max_spots is required"})
	}
	lot := &repository.Lot{
		Name:         strings.TrimSpace(*body.Name),
		Address:      strings.TrimSpace(*body.Address),
		PostalCode:   strings.TrimSpace(*body.PostalCode),
		PricePerHour: *body.PricePerHour,
		MaxSpots:     *body.MaxSpots,
	}
	ctx := c.Request().Context()
	tx, err := h.LotRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := h.LotRepo.CreateTx(ctx, tx, lot); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not create lot"})
	}
	if lot.MaxSpots > 0 {
		seq, err := h.LotRepo.ReserveLabelSeqTx(ctx, tx, lot.ID, lot.MaxSpots)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reserve spot labels"})
		}
		if err := h.SpotRepo.ProvisionTx(ctx, tx, lot.ID, seq, lot.MaxSpots); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create spots"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusCreated, echo.Map{
		"id":             lot.ID,
		"name":           lot.Name,
		"address":        lot.Address,
		"postal_code":    lot.PostalCode,
		"price_per_hour": lot.PricePerHour,
		"max_spots":      lot.MaxSpots,
	})
}

// UpdateLot handles PUT /v1/lots/:id.  Mutable fields are applied and,
// when the capacity changes, the spot pool is grown or shrunk inside
// the same transaction.  The lot row is locked first so a resize
// serializes against concurrent bookings in the lot.  Shrinking only
// ever removes Available spots; when too few are free the lot is left
// above its configured maximum and the response reports how many spots
// were actually removed.
func (h *AdminHandler) UpdateLot(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body lotAttrs
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.PricePerHour != nil && *body.PricePerHour <= 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "price_per_hour must be greater than zero"})
	}
	ctx := c.Request().Context()
	tx, err := h.LotRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	lot, err := h.LotRepo.GetForUpdateTx(ctx, tx, id)
	if err != nil {
		if errors.Is(err, repository.ErrLotNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "lot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "db error"})
	}
	if body.Name != nil && strings.TrimSpace(*body.Name) != "" {
		lot.Name = strings.TrimSpace(*body.Name)
	}
	if body.Address != nil && strings.TrimSpace(*body.Address) != "" {
		lot.Address = strings.TrimSpace(*body.Address)
	}
	if body.PostalCode != nil && strings.TrimSpace(*body.PostalCode) != "" {
		lot.PostalCode = strings.TrimSpace(*body.PostalCode)
	}
	if body.PricePerHour != nil {
		lot.PricePerHour = *body.PricePerHour
	}

	var removed uint32
	if body.MaxSpots != nil {
		newMax := *body.MaxSpots
		current, err := h.SpotRepo.CountByLotTx(ctx, tx, lot.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to count spots"})
		}
		switch {
		case newMax > current:
			grow := newMax - current
			seq, err := h.LotRepo.ReserveLabelSeqTx(ctx, tx, lot.ID, grow)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to reserve spot labels"})
			}
			if err := h.SpotRepo.ProvisionTx(ctx, tx, lot.ID, seq, grow); err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create spots"})
			}
		case newMax < current:
			removed, err = h.SpotRepo.ShrinkTx(ctx, tx, lot.ID, current-newMax)
			if err != nil {
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to remove spots"})
			}
		}
		lot.MaxSpots = newMax
	}
	if err := h.LotRepo.UpdateTx(ctx, tx, lot); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "could not update lot"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.JSON(http.StatusOK, echo.Map{
		"id":             lot.ID,
		"name":           lot.Name,
		"address":        lot.Address,
		"postal_code":    lot.PostalCode,
		"price_per_hour": lot.PricePerHour,
		"max_spots":      lot.MaxSpots,
		"spots_removed":  removed,
	})
}

// DeleteLot handles DELETE /v1/lots/:id.  A lot can only be removed
// while none of its spots is occupied; its spots are removed by the
// cascade and historical reservations survive with their spot
// reference nulled.  Returns 204 on success, 404 when the lot does
// not exist and 409 when a spot is still occupied.
func (h *AdminHandler) DeleteLot(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	tx, err := h.LotRepo.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to start transaction"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()
	if err := h.LotRepo.DeleteTx(ctx, tx, id); err != nil {
		switch {
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "lot not found"})
		case errors.Is(err, repository.ErrLotOccupied):
			return c.JSON(http.StatusConflict, echo.Map{"error": "cannot delete lot with occupied spots"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true
	return c.NoContent(http.StatusNoContent)
}

// adminSpotView is one row of the admin spot inspection endpoint.  For
// occupied spots the active reservation and its running duration are
// attached.
type adminSpotView struct {
	ID            uint64                      `json:"id"`
	Label         string                      `json:"label"`
	Status        string                      `json:"status"`
	Occupant      *repository.OccupantDetail  `json:"occupant,omitempty"`
	DurationHours *float64                    `json:"duration_hours,omitempty"`
}

// ListLotSpots handles GET /v1/admin/lots/:id/spots.  It returns every
// spot of the lot; occupied spots carry the occupying reservation and
// how long the vehicle has been parked so far.
func (h *AdminHandler) ListLotSpots(c echo.Context) error {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx := c.Request().Context()
	if _, err := h.LotRepo.GetByID(ctx, id); err != nil {
		if errors.Is(err, repository.ErrLotNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "lot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	spots, err := h.SpotRepo.ListByLot(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	occupants, err := h.ReservationRepo.ActiveBySpotForLot(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	now := time.Now().UTC()
	out := make([]adminSpotView, 0, len(spots))
	for _, s := range spots {
		v := adminSpotView{ID: s.ID, Label: s.Label, Status: s.Status}
		if occ, ok := occupants[s.ID]; ok {
			o := occ
			v.Occupant = &o
			if occ.StartedAt != nil {
				if t, parseErr := time.Parse(time.RFC3339, *occ.StartedAt); parseErr == nil {
					d := now.Sub(t).Hours()
					v.DurationHours = &d
				}
			}
		}
		out = append(out, v)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// ListUsers handles GET /v1/admin/users.  It returns all customer
// accounts without credential material.
func (h *AdminHandler) ListUsers(c echo.Context) error {
	users, err := h.UserRepo.ListCustomers(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	type userView struct {
		ID        uint64    `json:"id"`
		Email     string    `json:"email"`
		IsActive  bool      `json:"is_active"`
		CreatedAt time.Time `json:"created_at"`
	}
	out := make([]userView, 0, len(users))
	for _, u := range users {
		out = append(out, userView{ID: u.ID, Email: u.Email, IsActive: u.IsActive, CreatedAt: u.CreatedAt})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}

// Summary handles GET /v1/admin/summary.  It aggregates the dashboard
// counters: lots, spots by status and customer accounts.
func (h *AdminHandler) Summary(c echo.Context) error {
	ctx := c.Request().Context()
	lots, err := h.LotRepo.Count(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	totalSpots, err := h.SpotRepo.CountAll(ctx, "")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	occupied, err := h.SpotRepo.CountAll(ctx, "O")
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	customers, err := h.UserRepo.CountCustomers(ctx)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"total_lots":      lots,
		"total_spots":     totalSpots,
		"occupied_spots":  occupied,
		"available_spots": totalSpots - occupied,
		"total_users":     customers,
	})
}
