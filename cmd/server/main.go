package main // Entry point package

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/database"
	"github.com/iliyamo/movie-ticket-booking/internal/gateway"
	"github.com/iliyamo/movie-ticket-booking/internal/handler"
	"github.com/iliyamo/movie-ticket-booking/internal/queue"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
	"github.com/iliyamo/movie-ticket-booking/internal/router"
	"github.com/iliyamo/movie-ticket-booking/internal/worker"
)

func main() {
	// Load .env if present; real environments set variables directly.
	_ = godotenv.Load()

	cfg := config.Load()

	db, err := database.Open(cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()

	// Redis is optional: a nil client disables rate limiting and caching.
	rdb := config.NewRedisClient()

	// Repositories.
	userRepo := repository.NewUserRepo(db)
	movieRepo := repository.NewMovieRepo(db)
	screenRepo := repository.NewScreenRepo(db)
	showRepo := repository.NewShowRepo(db)
	seatRepo := repository.NewSeatRepo(db)
	bookingRepo := repository.NewBookingRepo(db)
	paymentRepo := repository.NewPaymentRepo(db)
	ticketRepo := repository.NewTicketRepo(db)

	gw := gateway.NewClient(config.LoadGatewayConfig())

	// Handlers.
	authHandler := handler.NewAuthHandler(cfg, userRepo)
	publicHandler := handler.NewPublicHandler(movieRepo, screenRepo, showRepo, seatRepo)
	customerHandler := handler.NewCustomerHandler(cfg, gw, seatRepo, showRepo, bookingRepo, paymentRepo, ticketRepo, userRepo)
	paymentHandler := handler.NewPaymentHandler(cfg, gw, seatRepo, showRepo, movieRepo, screenRepo, bookingRepo, paymentRepo, ticketRepo)
	adminHandler := handler.NewAdminHandler(movieRepo, screenRepo, showRepo, seatRepo)

	e := echo.New()
	e.HideBanner = true
	router.RegisterRoutes(e)
	router.RegisterAuth(e, authHandler, cfg.JWTSecret)
	router.RegisterPublic(e, publicHandler, config.LoadCacheConfig(), rdb)
	router.RegisterCustomer(e, customerHandler, cfg.JWTSecret, config.LoadRateLimitConfig(), rdb)
	router.RegisterPayment(e, paymentHandler)
	router.RegisterAdmin(e, adminHandler, cfg.JWTSecret)

	// Background workers share one cancellable context tied to shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reclaimer := worker.NewReclaimer(
		worker.NewSQLStore(db, seatRepo, bookingRepo),
		cfg.SweepInterval,
		cfg.SweepBatch,
	)
	go reclaimer.Run(ctx)

	go func() {
		if err := queue.StartBookingConsumer(); err != nil {
			log.Printf("booking consumer exited: %v", err)
		}
	}()

	addr := ":" + cfg.Port
	log.Printf("listening on %s (env=%s)", addr, cfg.Env)

	go func() {
		if err := e.Start(addr); err != nil {
			log.Printf("server stopped: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
