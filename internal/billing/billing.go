// Package billing computes parking fees.  The rules are deliberately
// small: time is billed per hour at the lot's rate, a one-hour minimum
// applies, and the final amount is rounded half-up to two decimals.
// Keeping the arithmetic here, away from handlers and SQL, makes the
// fee schedule testable without a database.
package billing

import (
    "math"
    "time"
)

// Quote is the outcome of pricing one parking stay.  Hours is the raw
// elapsed time in hours (never negative); Cost is the final amount
// after the minimum charge and rounding.
type Quote struct {
    Hours float64
    Cost  float64
}

// Compute prices the stay from startedAt to now at pricePerHour.
// Elapsed time is floored at zero so clock skew can never produce a
// negative bill, and every stay is charged at least one full hour.
func Compute(startedAt, now time.Time, pricePerHour float64) Quote {
    hours := now.Sub(startedAt).Hours()
    if hours < 0 {
        hours = 0
    }
    cost := hours * pricePerHour
    if cost < pricePerHour {
        cost = pricePerHour
    }
    return Quote{Hours: hours, Cost: RoundHalfUp(cost)}
}

// RoundHalfUp rounds an amount to two decimal places using standard
// round-half-up (0.005 rounds away from zero).
func RoundHalfUp(amount float64) float64 {
    return math.Floor(amount*100+0.5) / 100
}
