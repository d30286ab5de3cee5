package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
)

// PublicHandler serves the unauthenticated browse endpoints: the movie
// catalog, scheduled shows and per-show seat availability.
type PublicHandler struct {
	Movies  *repository.MovieRepo
	Screens *repository.ScreenRepo
	Shows   *repository.ShowRepo
	Seats   *repository.SeatRepo
}

func NewPublicHandler(movies *repository.MovieRepo, screens *repository.ScreenRepo, shows *repository.ShowRepo, seats *repository.SeatRepo) *PublicHandler {
	if movies == nil || screens == nil || shows == nil || seats == nil {
		panic("nil repository passed to NewPublicHandler")
	}
	return &PublicHandler{Movies: movies, Screens: screens, Shows: shows, Seats: seats}
}

type movieResp struct {
	ID          uint64 `json:"id"`
	Title       string `json:"title"`
	DurationMin uint32 `json:"duration_min"`
	Genre       string `json:"genre"`
	Language    string `json:"language"`
}

// ListMovies handles GET /v1/movies.
func (h *PublicHandler) ListMovies(c echo.Context) error {
	movies, err := h.Movies.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]movieResp, 0, len(movies))
	for _, m := range movies {
		out = append(out, movieResp{ID: m.ID, Title: m.Title, DurationMin: m.DurationMin, Genre: m.Genre, Language: m.Language})
	}
	return c.JSON(http.StatusOK, echo.Map{"movies": out})
}

type showResp struct {
	ID             uint64    `json:"id"`
	MovieID        uint64    `json:"movie_id"`
	ScreenID       uint64    `json:"screen_id"`
	StartsAt       time.Time `json:"starts_at"`
	EndsAt         time.Time `json:"ends_at"`
	BasePriceCents uint32    `json:"base_price_cents"`
	Status         string    `json:"status"`
}

// ListShows handles GET /v1/shows. An optional movie_id query parameter
// narrows the listing to one movie.
func (h *PublicHandler) ListShows(c echo.Context) error {
	shows, err := h.Shows.List(c.Request().Context())
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	var movieID uint64
	if raw := c.QueryParam("movie_id"); raw != "" {
		movieID, err = strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid movie_id"})
		}
	}
	out := make([]showResp, 0, len(shows))
	for _, s := range shows {
		if movieID != 0 && s.MovieID != movieID {
			continue
		}
		out = append(out, showResp{
			ID: s.ID, MovieID: s.MovieID, ScreenID: s.ScreenID,
			StartsAt: s.StartsAt, EndsAt: s.EndsAt,
			BasePriceCents: s.BasePriceCents, Status: s.Status,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{"shows": out})
}

// GetShow handles GET /v1/shows/:id.
func (h *PublicHandler) GetShow(c echo.Context) error {
	showID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	s, err := h.Shows.GetByID(c.Request().Context(), showID)
	if err != nil {
		if err == repository.ErrShowNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, showResp{
		ID: s.ID, MovieID: s.MovieID, ScreenID: s.ScreenID,
		StartsAt: s.StartsAt, EndsAt: s.EndsAt,
		BasePriceCents: s.BasePriceCents, Status: s.Status,
	})
}

type seatResp struct {
	ID         uint64 `json:"id"`
	RowLabel   string `json:"row_label"`
	SeatNumber uint32 `json:"seat_number"`
	Label      string `json:"label"`
	State      string `json:"state"` // AVAILABLE | HELD | BOOKED
}

// ShowSeats handles GET /v1/shows/:id/seats. The returned state is derived
// at read time: a seat with a lapsed hold is reported AVAILABLE even before
// the reclaimer has cleared the overlay, so the map never shows phantom
// holds. The snapshot is advisory; only a hold attempt is authoritative.
func (h *PublicHandler) ShowSeats(c echo.Context) error {
	showID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	ctx := c.Request().Context()
	show, err := h.Shows.GetByID(ctx, showID)
	if err != nil {
		if err == repository.ErrShowNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	seats, err := h.Seats.ListByShow(ctx, showID)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	now := time.Now().UTC()
	out := make([]seatResp, 0, len(seats))
	for i := range seats {
		s := &seats[i]
		state := model.SeatAvailable
		switch {
		case s.Status == model.SeatBooked:
			state = model.SeatBooked
		case s.IsActivelyHeld(now):
			state = "HELD"
		}
		out = append(out, seatResp{
			ID: s.ID, RowLabel: s.RowLabel, SeatNumber: s.SeatNumber,
			Label: s.Label(), State: state,
		})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"show_id":          show.ID,
		"base_price_cents": show.BasePriceCents,
		"seats":            out,
	})
}
