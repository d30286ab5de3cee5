package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
)

// AdminHandler bundles repositories for catalog management: movies,
// screens and shows.  Scheduling a show also generates its seat grid.
// Route protection (JWT + ADMIN role) is applied by middleware.
type AdminHandler struct {
	Movies  *repository.MovieRepo
	Screens *repository.ScreenRepo
	Shows   *repository.ShowRepo
	Seats   *repository.SeatRepo
}

func NewAdminHandler(movies *repository.MovieRepo, screens *repository.ScreenRepo, shows *repository.ShowRepo, seats *repository.SeatRepo) *AdminHandler {
	if movies == nil || screens == nil || shows == nil || seats == nil {
		panic("nil repository passed to NewAdminHandler")
	}
	return &AdminHandler{Movies: movies, Screens: screens, Shows: shows, Seats: seats}
}

// CreateMovie handles POST /v1/admin/movies.
func (h *AdminHandler) CreateMovie(c echo.Context) error {
	var body struct {
		Title       string `json:"title"`
		DurationMin uint32 `json:"duration_min"`
		Genre       string `json:"genre"`
		Language    string `json:"language"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Title = strings.TrimSpace(body.Title)
	if body.Title == "" || body.DurationMin == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "title and duration_min are required"})
	}
	m := model.Movie{
		Title:       body.Title,
		DurationMin: body.DurationMin,
		Genre:       strings.TrimSpace(body.Genre),
		Language:    strings.TrimSpace(body.Language),
	}
	if err := h.Movies.Create(c.Request().Context(), &m); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create movie failed"})
	}
	return c.JSON(http.StatusCreated, movieResp{
		ID: m.ID, Title: m.Title, DurationMin: m.DurationMin, Genre: m.Genre, Language: m.Language,
	})
}

// CreateScreen handles POST /v1/admin/screens.  The grid dimensions set
// here determine how many seats every show on this screen gets.
func (h *AdminHandler) CreateScreen(c echo.Context) error {
	var body struct {
		Name     string `json:"name"`
		SeatRows uint32 `json:"seat_rows"`
		SeatCols uint32 `json:"seat_cols"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.Name = strings.TrimSpace(body.Name)
	if body.Name == "" || body.SeatRows == 0 || body.SeatCols == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "name, seat_rows and seat_cols are required"})
	}
	if body.SeatRows > 100 || body.SeatCols > 100 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "grid dimensions out of range"})
	}
	s := model.Screen{Name: body.Name, SeatRows: body.SeatRows, SeatCols: body.SeatCols}
	if err := h.Screens.Create(c.Request().Context(), &s); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create screen failed"})
	}
	return c.JSON(http.StatusCreated, echo.Map{
		"id": s.ID, "name": s.Name, "seat_rows": s.SeatRows, "seat_cols": s.SeatCols,
	})
}

// CreateShow handles POST /v1/admin/shows.  The show row is written first,
// then one seat per grid cell of the screen is bulk-inserted for it.  Seat
// rows are labelled A, B, ... with seats numbered from 1 within each row.
func (h *AdminHandler) CreateShow(c echo.Context) error {
	var body struct {
		MovieID        uint64    `json:"movie_id"`
		ScreenID       uint64    `json:"screen_id"`
		StartsAt       time.Time `json:"starts_at"`
		EndsAt         time.Time `json:"ends_at"`
		BasePriceCents uint32    `json:"base_price_cents"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	if body.MovieID == 0 || body.ScreenID == 0 || body.BasePriceCents == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "movie_id, screen_id and base_price_cents are required"})
	}
	if !body.EndsAt.After(body.StartsAt) {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "ends_at must be after starts_at"})
	}
	ctx := c.Request().Context()

	if _, err := h.Movies.GetByID(ctx, body.MovieID); err != nil {
		if err == repository.ErrMovieNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "movie not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	screen, err := h.Screens.GetByID(ctx, body.ScreenID)
	if err != nil {
		if err == repository.ErrScreenNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "screen not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}

	show := model.Show{
		MovieID:        body.MovieID,
		ScreenID:       body.ScreenID,
		StartsAt:       body.StartsAt.UTC(),
		EndsAt:         body.EndsAt.UTC(),
		BasePriceCents: body.BasePriceCents,
		Status:         model.ShowScheduled,
	}
	if err := h.Shows.Create(ctx, &show); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create show failed"})
	}

	seats := make([]model.Seat, 0, int(screen.SeatRows)*int(screen.SeatCols))
	for row := 0; row < int(screen.SeatRows); row++ {
		label := indexToRowLabel(row)
		for col := 1; col <= int(screen.SeatCols); col++ {
			seats = append(seats, model.Seat{
				ShowID:     show.ID,
				ScreenID:   screen.ID,
				RowLabel:   label,
				SeatNumber: uint32(col),
				Status:     model.SeatAvailable,
			})
		}
	}
	if err := h.Seats.CreateBulk(ctx, seats); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "generate seats failed"})
	}

	return c.JSON(http.StatusCreated, echo.Map{
		"id":               show.ID,
		"movie_id":         show.MovieID,
		"screen_id":        show.ScreenID,
		"starts_at":        show.StartsAt,
		"ends_at":          show.EndsAt,
		"base_price_cents": show.BasePriceCents,
		"status":           show.Status,
		"seats_generated":  len(seats),
	})
}

// UpdateSeat handles PATCH /v1/admin/seats/:id, relabelling a seat.
func (h *AdminHandler) UpdateSeat(c echo.Context) error {
	seatID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	var body struct {
		RowLabel   string `json:"row_label"`
		SeatNumber uint32 `json:"seat_number"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	body.RowLabel = strings.ToUpper(strings.TrimSpace(body.RowLabel))
	if body.RowLabel == "" || body.SeatNumber == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "row_label and seat_number are required"})
	}
	err := h.Seats.Update(c.Request().Context(), seatID, body.RowLabel, body.SeatNumber)
	switch err {
	case nil:
		return c.JSON(http.StatusOK, echo.Map{"id": seatID, "row_label": body.RowLabel, "seat_number": body.SeatNumber})
	case repository.ErrSeatNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
	case repository.ErrSeatConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat cannot be modified"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}

// DeleteSeat handles DELETE /v1/admin/seats/:id.  Booked or held seats
// cannot be removed.
func (h *AdminHandler) DeleteSeat(c echo.Context) error {
	seatID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid seat id"})
	}
	err := h.Seats.Delete(c.Request().Context(), seatID)
	switch err {
	case nil:
		return c.NoContent(http.StatusNoContent)
	case repository.ErrSeatNotFound:
		return c.JSON(http.StatusNotFound, echo.Map{"error": "seat not found"})
	case repository.ErrSeatConflict:
		return c.JSON(http.StatusConflict, echo.Map{"error": "seat is booked or held"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
}
