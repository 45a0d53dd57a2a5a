package handler

import (
    "context"  // detached context for post-commit event publishing
    "errors"   // for errors.Is comparisons
    "net/http" // HTTP status codes
    "strconv"  // parsing path parameters
    "strings"  // trimming request input
    "time"     // working with timestamps

    "github.com/labstack/echo/v4" // Echo web framework

    "github.com/parkwise/parking-reservation/internal/billing"            // fee computation
    "github.com/parkwise/parking-reservation/internal/queue"              // event payloads
    "github.com/parkwise/parking-reservation/internal/repository"         // repository layer
    publisher "github.com/parkwise/parking-reservation/internal/service"  // event publishing
)

// CustomerHandler groups repositories required to book and release
// parking spots and to list a customer's reservations.  All methods
// assume that JWT authentication and role validation has already been
// performed by middleware.  Methods may return 401 Unauthorized if the
// user ID cannot be extracted from the context.  Booking and release
// each run their read-check-then-write sequence inside a single
// transaction so concurrent requests against the same spot serialize
// on its row lock.
type CustomerHandler struct {
	LotRepo         *repository.LotRepo         // access to lots for existence checks and pricing
	SpotRepo        *repository.SpotRepo        // access to spots for allocation and status flips
	ReservationRepo *repository.ReservationRepo // access to reservations
}

// NewCustomerHandler constructs a new CustomerHandler with the provided
// repositories.  All dependencies must be non-nil.
func NewCustomerHandler(lotRepo *repository.LotRepo, spotRepo *repository.SpotRepo, reservationRepo *repository.ReservationRepo) *CustomerHandler {
	if lotRepo == nil || spotRepo == nil || reservationRepo == nil {
		panic("nil repository passed to NewCustomerHandler")
	}
	return &CustomerHandler{
		LotRepo:         lotRepo,
		SpotRepo:        spotRepo,
		ReservationRepo: reservationRepo,
	}
}

// Book handles POST /v1/lots/:id/book.  It allocates the first
// available spot of the lot to the calling customer: the user must not
// already be parked, and the lot must have a free spot.  The candidate
// spot is locked before the reservation insert and the status flip, so
// two concurrent bookings against the last free spot resolve to exactly
// one success and one "lot full" rejection.  Returns 201 Created with
// the reservation ID and spot label.
func (h *CustomerHandler) Book(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	lotID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || lotID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid lot id"})
	}
	var body struct {
		VehicleNumber string `json:"vehicle_number"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	vehicle := strings.TrimSpace(body.VehicleNumber)
	if vehicle == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "vehicle_number is required"})
	}
	ctx := c.Request().Context()
	// ensure lot exists
	lot, err := h.LotRepo.GetByID(ctx, lotID)
	if err != nil {
		if errors.Is(err, repository.ErrLotNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "lot not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
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
	// one active reservation per user
	if _, err := h.ReservationRepo.ActiveByUserTx(ctx, tx, userID); err == nil {
		return c.JSON(http.StatusConflict, echo.Map{"error": "you already have an active reservation"})
	} else if !errors.Is(err, repository.ErrNoActiveReservation) {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to check reservations"})
	}
	// lock the lowest-id free spot
	spot, err := h.SpotRepo.FirstAvailableTx(ctx, tx, lotID)
	if err != nil {
		if errors.Is(err, repository.ErrNoSpotAvailable) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "no available spots in this lot"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to find a spot"})
	}
	rec := &repository.ReservationRecord{
		SpotID:        &spot.ID,
		UserID:        userID,
		LotID:         spot.LotID,
		SpotLabel:     spot.Label,
		VehicleNumber: vehicle,
	}
	if err := h.ReservationRepo.CreateTx(ctx, tx, rec); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to create reservation"})
	}
	if err := h.SpotRepo.UpdateStatusTx(ctx, tx, spot.ID, "O"); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update spot status"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	bookedAt := ""
	if rec.StartedAt != nil {
		bookedAt = rec.StartedAt.UTC().Format(time.RFC3339)
	}
	// fire-and-forget: a broker outage must never fail the booking
	go func() {
		_ = publisher.PublishParkingBooked(context.Background(), queue.ParkingBookedEvent{
			ReservationID: rec.ID,
			UserID:        userID,
			LotID:         lot.ID,
			LotName:       lot.Name,
			SpotLabel:     spot.Label,
			VehicleNumber: vehicle,
			BookedAt:      bookedAt,
		})
	}()

	return c.JSON(http.StatusCreated, echo.Map{
		"reservation_id": rec.ID,
		"spot_id":        spot.ID,
		"spot_label":     spot.Label,
		"started_at":     bookedAt,
	})
}

// Release handles POST /v1/reservations/:id/release.  It closes the
// caller's active reservation and frees its spot.  The fee is the
// elapsed time at the lot's hourly price with a one-hour minimum,
// rounded half-up to two decimals.  Returns 200 OK with the elapsed
// hours and final cost, 403 when the reservation belongs to another
// user and 409 when it was already completed.
func (h *CustomerHandler) Release(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || resID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
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
	info, err := h.ReservationRepo.GetForUpdateTx(ctx, tx, resID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservation"})
	}
	if info.UserID != userID {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "forbidden"})
	}
	if info.Status != "ACTIVE" {
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already completed"})
	}
	if info.StartedAt == nil {
		// should be impossible given the creation contract; refuse to
		// invent a cost for a corrupt row
		return c.JSON(http.StatusConflict, echo.Map{"error": "reservation has no start timestamp"})
	}
	quote := billing.Compute(*info.StartedAt, time.Now().UTC(), info.PricePerHour)
	if err := h.ReservationRepo.CloseTx(ctx, tx, resID, quote.Cost); err != nil {
		if errors.Is(err, repository.ErrAlreadyCompleted) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "reservation already completed"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to close reservation"})
	}
	if info.SpotID != nil {
		if err := h.SpotRepo.UpdateStatusTx(ctx, tx, *info.SpotID, "A"); err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to update spot status"})
		}
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to commit transaction"})
	}
	committed = true

	go func() {
		_ = publisher.PublishParkingReleased(context.Background(), queue.ParkingReleasedEvent{
			ReservationID: resID,
			UserID:        userID,
			LotID:         info.LotID,
			SpotLabel:     info.SpotLabel,
			DurationHours: quote.Hours,
			Cost:          quote.Cost,
			ReleasedAt:    time.Now().UTC().Format(time.RFC3339),
		})
	}()

	return c.JSON(http.StatusOK, echo.Map{
		"reservation_id": resID,
		"duration_hours": quote.Hours,
		"cost":           quote.Cost,
	})
}

// ListReservations handles GET /v1/my-reservations.  It returns the
// caller's reservations with lot and spot details: the active one
// first, then completed ones ordered most recent first.  When no
// reservations exist, it returns an empty array.
func (h *CustomerHandler) ListReservations(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	ctx := c.Request().Context()
	details, err := h.ReservationRepo.ListByUser(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to load reservations"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items": details,
	})
}

// GetReservation handles GET /v1/reservations/:id.  It returns the
// details of a single reservation for the authenticated user.  When
// the reservation does not exist or belongs to another user, it
// responds with 404 (ownership is enforced in the repository query).
func (h *CustomerHandler) GetReservation(c echo.Context) error {
	userID, err := getUserID(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	resID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || resID == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid reservation id"})
	}
	ctx := c.Request().Context()
	detail, err := h.ReservationRepo.GetByIDForUser(ctx, resID, userID)
	if err != nil {
		if errors.Is(err, repository.ErrReservationNotFound) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "reservation not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to fetch reservation"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"item": detail,
	})
}
