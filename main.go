package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"hospitality-backoffice/config"
	"hospitality-backoffice/controllers"
	"hospitality-backoffice/routes"
	"hospitality-backoffice/services"
)

func newLogger(cfg config.AppConfig) *logrus.Logger {
	log := logrus.New()
	log.SetOutput(os.Stdout)
	if cfg.IsProduction() {
		log.SetFormatter(&logrus.JSONFormatter{})
	} else {
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}
	level, err := logrus.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = logrus.InfoLevel
	}
	log.SetLevel(level)
	return log
}

func main() {
	// Load .env (optional)
	envErr := godotenv.Load()

	cfg := config.Load()
	log := newLogger(cfg)
	if envErr != nil {
		log.Info(".env not found; continuing with environment variables")
	}

	db, err := config.OpenDatabase(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("database connect failed")
	}

	var cache services.Cache
	if rdb := config.NewRedisClient(); rdb != nil {
		cache = services.NewRedisCache(rdb, "backoffice:")
		log.Info("settings cache: redis")
	} else {
		cache = services.NewMemoryCache()
		log.Warn("redis unavailable; settings cache is in-process")
	}

	var events services.EventPublisher
	if cfg.RabbitURL != "" {
		events = services.NewAMQPPublisher(cfg.RabbitURL, log)
	} else {
		events = services.NewLogPublisher(log)
	}

	settings := services.NewSettingsStore(db, cache, log)
	if cfg.SeedDefault {
		seedCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		if err := config.SeedDatabase(seedCtx, db, log); err != nil {
			log.WithError(err).Fatal("seeding failed")
		}
		if err := settings.InitializeDefaults(seedCtx); err != nil {
			log.WithError(err).Fatal("settings defaults failed")
		}
		cancel()
	}

	currencies := services.NewCurrencyService(db, log)
	ledger := services.NewAvailabilityService(db, log)
	pricing := services.NewPricingService(db)
	bookings := services.NewBookingService(db, ledger, currencies, settings, events, log)
	invoices := services.NewInvoiceService(db, currencies, settings, events, log)
	reviews := services.NewReviewService(db, log)
	rooms := services.NewRoomService(db, settings, log)

	router := routes.SetupRouter(routes.Controllers{
		Currency:     controllers.NewCurrencyController(currencies),
		Room:         controllers.NewRoomController(rooms, ledger, pricing),
		Availability: controllers.NewAvailabilityController(ledger),
		Booking:      controllers.NewBookingController(bookings),
		Invoice:      controllers.NewInvoiceController(invoices),
		Review:       controllers.NewReviewController(reviews),
		Settings:     controllers.NewSettingsController(settings),
	}, log)

	addr := ":" + cfg.Port
	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadTimeout:       10 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.WithField("addr", addr).Info("server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Fatal("ListenAndServe failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Info("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.WithError(err).Fatal("server forced to shutdown")
	}

	log.Info("server stopped")
}
