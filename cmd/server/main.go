package main // Entry point package

import (
	"context"
	"log"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/adhamaliv/event-seat-booking/internal/config"
	"github.com/adhamaliv/event-seat-booking/internal/database"
	"github.com/adhamaliv/event-seat-booking/internal/handler"
	"github.com/adhamaliv/event-seat-booking/internal/middleware"
	"github.com/adhamaliv/event-seat-booking/internal/queue"
	"github.com/adhamaliv/event-seat-booking/internal/repository"
	"github.com/adhamaliv/event-seat-booking/internal/router"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional; a nil client disables caching and rate limiting.
	rdb := config.NewRedisClient()

	eventRepo := repository.NewEventRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	holdRepo := repository.NewSeatHoldRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	settingRepo := repository.NewSettingRepo(db)
	adminRepo := repository.NewAdminRepo(db)

	{
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		if err := settingRepo.EnsureDefaults(ctx); err != nil {
			log.Printf("settings: failed to seed defaults: %v", err)
		}
		cancel()
	}
	settingsCache := repository.NewSettingsCache(settingRepo, rdb, 5*time.Minute)

	authHandler := handler.NewAuthHandler(adminRepo, &cfg)
	publicHandler := handler.NewPublicHandler(eventRepo, seatRepo, settingsCache)
	bookingHandler := handler.NewBookingHandler(eventRepo, seatRepo, holdRepo, bookingRepo, settingsCache)
	adminEventHandler := handler.NewAdminEventHandler(eventRepo, seatRepo)
	settingsHandler := handler.NewSettingsHandler(settingRepo, settingsCache)

	cacheMW := middleware.NewRedisCache(config.LoadCacheConfig(), rdb)
	limiterMW := middleware.NewTokenBucket(config.LoadRateLimitConfig(), rdb)

	// Notification consumer; reconnects on its own and never stops the server.
	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking-consumer: stopped: %v", err)
		}
	}()

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterPublic(e, publicHandler, cacheMW)
	router.RegisterBooking(e, bookingHandler, limiterMW)
	router.RegisterAdmin(e, authHandler, adminEventHandler, settingsHandler, bookingHandler, cfg.JWTSecret)

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)
	if err := e.Start(addr); err != nil {
		log.Fatal(err)
	}
}
