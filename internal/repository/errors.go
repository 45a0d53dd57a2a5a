// Package repository defines error types that are reused across multiple
// repositories. These sentinel values allow higher layers such as
// handlers to distinguish between different failure scenarios. For
// example, ErrNoSpotAvailable indicates that a lot has no free spot
// left for a booking, while ErrLotOccupied signals that a lot cannot
// be deleted while any of its spots is still occupied.
package repository

import "errors"

// ErrLotNotFound is returned when a parking lot lookup yields no rows.
var ErrLotNotFound = errors.New("lot not found")

// ErrReservationNotFound is returned when a reservation lookup yields
// no rows.
var ErrReservationNotFound = errors.New("reservation not found")

// ErrNoSpotAvailable is returned by FirstAvailableTx when every spot
// in the lot is occupied. Handlers translate this into a "lot full"
// booking rejection.
var ErrNoSpotAvailable = errors.New("no spot available")

// ErrNoActiveReservation is returned when a user has no active
// reservation.
var ErrNoActiveReservation = errors.New("no active reservation")

// ErrAlreadyCompleted is returned when a release is attempted on a
// reservation that has already been completed.
var ErrAlreadyCompleted = errors.New("reservation already completed")

// ErrLotOccupied is returned when a lot deletion is attempted while at
// least one of its spots is occupied. Handlers should translate this
// into an HTTP 409 response.
var ErrLotOccupied = errors.New("lot has occupied spots")
