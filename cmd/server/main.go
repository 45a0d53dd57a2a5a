package main // Entry point package

import (
	"context" // context with timeout for the admin seed
	"log"     // Logging library
	"time"

	"github.com/joho/godotenv"    // .env loader for local development
	"github.com/labstack/echo/v4" // Echo web framework

	"github.com/parkwise/parking-reservation/internal/config"     // Internal config loader
	"github.com/parkwise/parking-reservation/internal/database"   // MySQL connection pool
	"github.com/parkwise/parking-reservation/internal/handler"    // HTTP handlers
	"github.com/parkwise/parking-reservation/internal/queue"      // background event consumer
	"github.com/parkwise/parking-reservation/internal/repository" // data access layer
	"github.com/parkwise/parking-reservation/internal/router"     // Internal router setup
)

func main() {
	// Load .env when present; real deployments set env vars directly.
	_ = godotenv.Load()

	cfg := config.Load() // Load environment config

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional; when unreachable the cache and rate limiter
	// middlewares turn into pass-throughs.
	rdb := config.NewRedisClient()
	if rdb == nil {
		log.Println("redis unavailable; response cache and rate limiting disabled")
	}

	userRepo := repository.NewUserRepo(db)
	tokenRepo := repository.NewTokenRepo(db)
	lotRepo := repository.NewLotRepo(db)
	spotRepo := repository.NewSpotRepo(db)
	reservationRepo := repository.NewReservationRepo(db)

	seedAdmin(cfg, userRepo)

	authHandler := handler.NewAuthHandler(cfg, userRepo, tokenRepo)
	publicHandler := handler.NewPublicHandler(lotRepo, spotRepo)
	customerHandler := handler.NewCustomerHandler(lotRepo, spotRepo, reservationRepo)
	adminHandler := handler.NewAdminHandler(lotRepo, spotRepo, reservationRepo, userRepo)

	e := echo.New() // Create Echo instance
	router.RegisterRoutes(e)
	router.RegisterPublic(e, publicHandler, config.LoadCacheConfig(), rdb)
	router.RegisterAuthWithLimiter(e, authHandler, cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)
	router.RegisterCustomer(e, customerHandler, cfg.JWTSecret)
	router.RegisterAdmin(e, adminHandler, cfg.JWTSecret)

	// Consume parking.booked / parking.released and append them to
	// logs/parking.log.  The consumer reconnects on broker failures.
	go func() {
		if err := queue.StartParkingConsumer(); err != nil {
			log.Printf("parking consumer stopped: %v", err)
		}
	}()

	addr := ":" + cfg.Port                                // Address string with port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env) // Print startup info

	if err := e.Start(addr); err != nil { // Start HTTP server
		log.Fatal(err) // Log and exit if server fails
	}
}

// seedAdmin creates the single ADMIN account from ADMIN_EMAIL and
// ADMIN_PASSWORD.  An already existing account is left untouched, so
// restarts are idempotent.  Admins are never created through the
// registration endpoint.
func seedAdmin(cfg config.Config, users *repository.UserRepo) {
	if cfg.AdminEmail == "" || cfg.AdminPassword == "" {
		log.Println("admin seed skipped: ADMIN_EMAIL/ADMIN_PASSWORD not set")
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	id, err := users.Create(ctx, cfg.AdminEmail, cfg.AdminPassword, "ADMIN", cfg.BcryptCost)
	switch {
	case err == nil:
		log.Printf("admin account seeded (id=%d)", id)
	case err == repository.ErrEmailExists:
		// already seeded on a previous start
	default:
		log.Fatalf("admin seed: %v", err)
	}
}
