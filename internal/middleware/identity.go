package middleware

// identity.go defines helper functions shared across middleware files.
// currentUserID resolves the caller identity used in rate-limit keys
// from the claims JWTAuth stored in the Echo context.

import (
	"strconv"

	"github.com/labstack/echo/v4"
)

// currentUserID extracts a user identifier from the request context. It
// returns "anon" when no user is authenticated, so unauthenticated
// traffic shares one bucket per IP.
func currentUserID(c echo.Context) string {
	switch v := c.Get("user_id").(type) {
	case string:
		if v != "" {
			return v
		}
	case uint64:
		return strconv.FormatUint(v, 10)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return "anon"
}
