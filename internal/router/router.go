package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing
	"github.com/redis/go-redis/v9"

	"github.com/parkwise/parking-reservation/internal/config"     // cache configuration for public routes
	"github.com/parkwise/parking-reservation/internal/handler"    // import the handlers that implement business logic
	"github.com/parkwise/parking-reservation/internal/middleware" // import middleware for JWT authentication and role enforcement
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance.  Currently it exposes only a health check.
func RegisterRoutes(e *echo.Echo) {
	// Map the GET request at path "/healthz" to the Health handler.  This
	// endpoint can be used by load balancers or monitoring systems to verify
	// that the service is up and running.
	e.GET("/healthz", handler.Health)
}

// RegisterAuthWithLimiter registers all authentication‑related routes and
// applies the necessary middleware.  Unauthenticated operations live under
// /v1/auth, while protected endpoints live under /v1.  The token-bucket
// rate limiter guards the credential endpoints against brute forcing; it
// degrades to a pass-through when Redis is unavailable.
func RegisterAuthWithLimiter(e *echo.Echo, a *handler.AuthHandler, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	// Create a route group under the /v1/auth prefix for operations that do
	// not require an existing session (register, login, refresh).  Each of
	// these handlers is responsible for generating or exchanging tokens.
	g := e.Group("/v1/auth", middleware.NewTokenBucket(rlCfg, rdb))
	// Register a POST endpoint to handle user registration at /v1/auth/register.
	g.POST("/register", a.Register)
	// Register a POST endpoint to handle user login at /v1/auth/login.
	g.POST("/login", a.Login)
	// Register a POST endpoint to refresh access tokens at /v1/auth/refresh. This rotates the refresh token.
	g.POST("/refresh", a.Refresh)
	// Register a POST endpoint to issue a new access token without rotating the refresh token.
	g.POST("/refresh-access", a.RefreshAccess)
	// Logout does not require JWT authentication.  The handler accepts a
	// JSON body containing a `refresh_token` and invalidates that token.
	g.POST("/logout", a.Logout)

	// Create another group for routes that require a valid access token.  All
	// handlers registered on this group will execute the JWTAuth middleware
	// before being invoked.
	auth := e.Group("/v1")
	// Apply the JWTAuth middleware to the protected group using the provided secret.
	auth.Use(middleware.JWTAuth(jwtSecret))
	// Accept both roles on the shared endpoints; the middleware rejects
	// requests with missing or unknown roles.
	auth.Use(middleware.RequireRole("ADMIN", "CUSTOMER"))
	// Register a GET endpoint at /v1/me that returns the authenticated user's information.
	auth.GET("/me", a.Me)

	// Additionally map POST /v1/logout to the same handler so clients can
	// terminate a session with a refresh token in the body without a JWT.
	e.POST("/v1/logout", a.Logout)
}

// RegisterPublic registers unauthenticated browse endpoints on the provided
// Echo instance.  The PublicHandler returns sanitized availability data for
// parking lots and their spots.  These routes carry no customer data, so
// the Redis response cache is applied when a client is available; drivers
// polling the lot directory then hit Redis instead of MySQL.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cacheCfg config.CacheConfig, rdb *redis.Client) {
	cached := middleware.NewRedisCache(cacheCfg, rdb)
	// Lot directory with free/total spot counters
	e.GET("/v1/lots", p.GetLots, cached)
	// Per-lot spot status board
	e.GET("/v1/lots/:id/spots", p.GetLotSpots, cached)
}
