package queue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFormatBookedLine(t *testing.T) {
	ev := ParkingBookedEvent{
		ReservationID: 11,
		UserID:        3,
		LotID:         2,
		LotName:       "Central Garage",
		SpotLabel:     "S004",
		VehicleNumber: "KA-01-AB-1234",
		BookedAt:      "2025-03-01T10:00:00Z",
	}
	line := formatBookedLine(ev)
	require.Equal(t,
		"[2025-03-01T10:00:00Z] Spot booked | reservation_id=11 | user_id=3 | lot_id=2 | lot=\"Central Garage\" | spot=S004 | vehicle=\"KA-01-AB-1234\"\n",
		line)
}

func TestFormatReleasedLine(t *testing.T) {
	ev := ParkingReleasedEvent{
		ReservationID: 11,
		UserID:        3,
		LotID:         2,
		SpotLabel:     "S004",
		DurationHours: 2.5,
		Cost:          25.0,
		ReleasedAt:    "2025-03-01T12:30:00Z",
	}
	line := formatReleasedLine(ev)
	require.Equal(t,
		"[2025-03-01T12:30:00Z] Spot released | reservation_id=11 | user_id=3 | lot_id=2 | spot=S004 | hours=2.50 | cost=25.00\n",
		line)
}
