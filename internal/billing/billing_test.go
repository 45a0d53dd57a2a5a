package billing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestComputeMinimumCharge(t *testing.T) {
	// 18 minutes parked still bills one full hour
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	now := start.Add(18 * time.Minute)

	q := Compute(start, now, 20.0)

	require.InDelta(t, 0.3, q.Hours, 1e-9)
	require.Equal(t, 20.0, q.Cost)
}

func TestComputeProportionalCharge(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	now := start.Add(2*time.Hour + 30*time.Minute)

	q := Compute(start, now, 10.0)

	require.InDelta(t, 2.5, q.Hours, 1e-9)
	require.Equal(t, 25.0, q.Cost)
}

func TestComputeExactHourBoundary(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	now := start.Add(time.Hour)

	q := Compute(start, now, 12.5)

	require.Equal(t, 1.0, q.Hours)
	require.Equal(t, 12.5, q.Cost)
}

func TestComputeClockSkew(t *testing.T) {
	// a start timestamp in the future must not produce a negative bill
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	now := start.Add(-5 * time.Minute)

	q := Compute(start, now, 15.0)

	require.Equal(t, 0.0, q.Hours)
	require.Equal(t, 15.0, q.Cost)
}

func TestRoundHalfUp(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want float64
	}{
		{"exact", 12.34, 12.34},
		{"half rounds up", 12.345, 12.35},
		{"below half rounds down", 12.344, 12.34},
		{"repeating fraction", 100.0 / 3.0, 33.33},
		{"whole number", 25.0, 25.0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, RoundHalfUp(tc.in))
		})
	}
}

func TestComputeRoundsFinalAmount(t *testing.T) {
	start := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	// 1h40m at 9.99/h = 16.65
	now := start.Add(100 * time.Minute)

	q := Compute(start, now, 9.99)

	require.Equal(t, 16.65, q.Cost)
}
