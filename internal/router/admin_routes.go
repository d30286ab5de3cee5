package router

import (
	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/handler"
	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
)

// RegisterAdmin registers catalog management endpoints under /v1/admin.
// All routes require a valid JWT carrying the ADMIN role.
func RegisterAdmin(e *echo.Echo, h *handler.AdminHandler, jwtSecret string) {
	g := e.Group(
		"/v1/admin",
		middleware.JWTAuth(jwtSecret),
		middleware.RequireRole("ADMIN"),
	)
	g.POST("/movies", h.CreateMovie)
	g.POST("/screens", h.CreateScreen)
	g.POST("/shows", h.CreateShow)
	g.PATCH("/seats/:id", h.UpdateSeat)
	g.DELETE("/seats/:id", h.DeleteSeat)
}
