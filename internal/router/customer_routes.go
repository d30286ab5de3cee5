package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/handler"
	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
)

// RegisterCustomer registers the booking-flow endpoints under /v1.  These
// accept either a Bearer token (user) or an X-Guest-Token header (guest);
// the HolderIdentity middleware resolves whichever is present into the
// holder identity every handler works with.  Hold and booking writes sit
// behind the Redis token bucket so one client cannot hammer the seat
// ledger.
func RegisterCustomer(e *echo.Echo, h *handler.CustomerHandler, jwtSecret string, rlCfg config.RateLimitConfig, rdb *redis.Client) {
	g := e.Group(
		"/v1",
		middleware.HolderIdentity(jwtSecret),
		middleware.NewTokenBucket(rlCfg, rdb),
	)
	g.POST("/shows/:id/hold", h.HoldSeats)
	g.DELETE("/shows/:id/hold", h.ReleaseSeats)
	g.POST("/bookings", h.CreateBooking)
	g.GET("/bookings/:id", h.GetBooking)
	g.GET("/my-bookings", h.MyBookings)
	g.POST("/bookings/:id/pay", h.InitiatePayment)
}

// RegisterPayment registers the gateway callback endpoints.  The gateway
// posts to these directly, so they carry no auth middleware; the success
// handler authenticates the event against the validator API instead.
func RegisterPayment(e *echo.Echo, p *handler.PaymentHandler) {
	g := e.Group("/v1/payments")
	g.POST("/success", p.Success)
	g.POST("/fail", p.Fail)
	g.POST("/cancel", p.Cancel)
	g.POST("/ipn", p.IPN)
}
