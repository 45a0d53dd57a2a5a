package handler

import (
	"errors"   // sentinel comparisons
	"net/http" // status code constants
	"strconv"  // path parameter parsing

	"github.com/labstack/echo/v4" // echo web framework

	"github.com/parkwise/parking-reservation/internal/repository" // data access layer
)

// PublicHandler serves the unauthenticated browse endpoints: the lot
// directory with live availability counters and the per-lot spot
// status board.  Responses carry no customer data, which makes them
// safe to cache.
type PublicHandler struct {
	LotRepo  *repository.LotRepo  // LotRepo lists lots with availability
	SpotRepo *repository.SpotRepo // SpotRepo lists the spots of one lot
}

// NewPublicHandler constructs a new PublicHandler and panics if any dependency is nil
func NewPublicHandler(lotRepo *repository.LotRepo, spotRepo *repository.SpotRepo) *PublicHandler {
	if lotRepo == nil || spotRepo == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{LotRepo: lotRepo, SpotRepo: spotRepo}
}

// GetLots handles GET /v1/lots.  It returns every lot together with
// its free and total spot counts so a driver can pick a lot with room
// before booking.
func (h *PublicHandler) GetLots(c echo.Context) error {
	lots, err := h.LotRepo.ListWithAvailability(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": lots})
}

// spotStatusView is one entry of the public spot board.  Only the
// label and the A/O status are exposed.
type spotStatusView struct {
	ID     uint64 `json:"id"`
	Label  string `json:"label"`
	Status string `json:"status"`
}

// GetLotSpots handles GET /v1/lots/:id/spots.  It returns the status
// of every spot in the lot ordered by label sequence.  Returns 404
// when the lot does not exist.
func (h *PublicHandler) GetLotSpots(c echo.Context) error {
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
	out := make([]spotStatusView, 0, len(spots))
	for _, s := range spots {
		out = append(out, spotStatusView{ID: s.ID, Label: s.Label, Status: s.Status})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": out})
}
