// Package queue defines message payloads exchanged over the message broker.
package queue

// ParkingBookedEvent is published when a spot is successfully allocated.
// It contains enough information for downstream consumers to log, notify, or
// trigger analytics without querying the primary database.
type ParkingBookedEvent struct {
	ReservationID uint64 `json:"reservation_id"`
	UserID        uint64 `json:"user_id"`
	LotID         uint64 `json:"lot_id"`
	LotName       string `json:"lot_name"`
	SpotLabel     string `json:"spot_label"`
	VehicleNumber string `json:"vehicle_number"`
	BookedAt      string `json:"booked_at"`
}

// ParkingReleasedEvent is published when a reservation is closed and its
// spot returned to the pool. DurationHours is the raw elapsed time and
// Cost the final billed amount.
type ParkingReleasedEvent struct {
	ReservationID uint64  `json:"reservation_id"`
	UserID        uint64  `json:"user_id"`
	LotID         uint64  `json:"lot_id"`
	SpotLabel     string  `json:"spot_label"`
	DurationHours float64 `json:"duration_hours"`
	Cost          float64 `json:"cost"`
	ReleasedAt    string  `json:"released_at"`
}
