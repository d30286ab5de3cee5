// Package router wires HTTP routes to their handlers and middleware.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/handler"
	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
)

// RegisterRoutes registers routes that require no authentication beyond
// the health check.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
}

// RegisterAuth registers the authentication endpoints.  Register and login
// live under /v1/auth without middleware; /v1/me requires a valid access
// token.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	auth := e.Group("/v1", middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
}

// RegisterPublic registers the unauthenticated browse endpoints: the movie
// catalog, shows and per-show seat availability.  Responses may be cached
// in Redis; the cache middleware never covers the seat map, which must
// always reflect the live ledger.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, cacheCfg config.CacheConfig, rdb *redis.Client) {
	cached := e.Group("/v1", middleware.NewRedisCache(cacheCfg, rdb))
	cached.GET("/movies", p.ListMovies)
	cached.GET("/shows", p.ListShows)

	e.GET("/v1/shows/:id", p.GetShow)
	e.GET("/v1/shows/:id/seats", p.ShowSeats)
}
