package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/database"
	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
)

type bookingResp struct {
	ID              uint64    `json:"id"`
	ShowID          uint64    `json:"show_id"`
	SeatIDs         []uint64  `json:"seat_ids"`
	TotalPriceCents uint32    `json:"total_price_cents"`
	PaymentStatus   string    `json:"payment_status"`
	ExpiresAt       time.Time `json:"expires_at"`
	IsCancelled     bool      `json:"is_cancelled"`
	CreatedAt       time.Time `json:"created_at"`
}

func toBookingResp(b *model.Booking) bookingResp {
	return bookingResp{
		ID:              b.ID,
		ShowID:          b.ShowID,
		SeatIDs:         b.SeatIDs,
		TotalPriceCents: b.TotalPriceCents,
		PaymentStatus:   b.PaymentStatus,
		ExpiresAt:       b.ExpiresAt,
		IsCancelled:     b.IsCancelled,
		CreatedAt:       b.CreatedAt,
	}
}

// ownsBooking reports whether the caller's identity matches the booking's
// owner.  A user who presented a guest token also matches bookings made
// under that guest session.
func ownsBooking(holder model.Holder, b *model.Booking) bool {
	owner := b.Holder().Key()
	for _, key := range holder.MatchKeys() {
		if key == owner {
			return true
		}
	}
	return false
}

// CreateBooking handles POST /v1/bookings.  It places (or refreshes) holds
// on the requested seats and records a PENDING booking in the same
// transaction, so a booking can never reference seats the caller does not
// hold.  The price is computed server-side from the show's base price.
func (h *CustomerHandler) CreateBooking(c echo.Context) error {
	holder, err := middleware.CurrentHolder(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	var body struct {
		ShowID  uint64   `json:"show_id"`
		SeatIDs []uint64 `json:"seat_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	seatIDs := dedupeIDs(body.SeatIDs)
	if body.ShowID == 0 || len(seatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "show_id and seat_ids are required"})
	}
	ctx := c.Request().Context()

	show, err := h.Shows.GetByID(ctx, body.ShowID)
	if err != nil {
		if err == repository.ErrShowNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "show not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if show.Status != model.ShowScheduled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "show is not open for booking"})
	}

	booking := model.Booking{
		ShowID:          show.ID,
		ScreenID:        show.ScreenID,
		MovieID:         show.MovieID,
		SeatIDs:         seatIDs,
		TotalPriceCents: show.BasePriceCents * uint32(len(seatIDs)),
		ExpiresAt:       time.Now().UTC().Add(h.Cfg.HoldTTL),
	}
	switch holder.Kind() {
	case model.HolderUser:
		uid, err := strconv.ParseUint(holder.UserID(), 10, 64)
		if err != nil {
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
		}
		booking.UserID = &uid
	case model.HolderGuest:
		token := holder.GuestToken()
		booking.GuestToken = &token
	default:
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}

	var conflicted []uint64
	for attempt := 0; attempt < txRetries; attempt++ {
		tx, err := h.Seats.DB().BeginTx(ctx, nil)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		committed := false
		// Holding inside the booking transaction both claims free seats and
		// refreshes holds the caller already has, aligning the seat expiry
		// with the booking expiry.
		conflicted, err = h.Seats.HoldSeatsTx(ctx, tx, show.ID, seatIDs, holder, booking.ExpiresAt)
		if err == nil {
			err = h.Bookings.CreateTx(ctx, tx, &booking)
		}
		if err == nil {
			err = tx.Commit()
			committed = err == nil
		}
		if !committed {
			_ = tx.Rollback()
		}
		switch {
		case err == nil:
			return c.JSON(http.StatusCreated, toBookingResp(&booking))
		case err == repository.ErrSeatNotFound:
			return c.JSON(http.StatusNotFound, echo.Map{"error": "one or more seats not found for this show"})
		case err == repository.ErrSeatConflict:
			return c.JSON(http.StatusConflict, echo.Map{
				"error":             "some seats are not available",
				"unavailable_seats": conflicted,
			})
		case database.IsRetryable(err):
			continue
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
	}
	return c.JSON(http.StatusConflict, echo.Map{"error": "seats are contended, try again"})
}

// GetBooking handles GET /v1/bookings/:id.  Only the booking's owner may
// read it; others get a 404 rather than a 403, so booking IDs cannot be
// enumerated.
func (h *CustomerHandler) GetBooking(c echo.Context) error {
	holder, err := middleware.CurrentHolder(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	b, err := h.Bookings.GetByID(c.Request().Context(), bookingID)
	if err != nil {
		if err == repository.ErrBookingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !ownsBooking(holder, b) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	resp := toBookingResp(b)
	if b.PaymentStatus == model.PaymentPaid {
		ctx := c.Request().Context()
		tickets, err := h.Tickets.ListByBooking(ctx, b.ID)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		codes := make([]string, 0, len(tickets))
		for _, t := range tickets {
			codes = append(codes, t.Code)
		}
		out := echo.Map{"booking": resp, "ticket_codes": codes}
		if p, err := h.Payments.GetByBookingID(ctx, b.ID); err == nil && p != nil {
			out["payment"] = echo.Map{
				"amount_cents": p.AmountCents,
				"currency":     p.Currency,
				"card_type":    p.CardType,
				"card_issuer":  p.CardIssuer,
				"tran_date":    p.TranDate,
			}
		}
		return c.JSON(http.StatusOK, out)
	}
	return c.JSON(http.StatusOK, echo.Map{"booking": resp})
}

// MyBookings handles GET /v1/my-bookings, listing the caller's bookings
// newest first.
func (h *CustomerHandler) MyBookings(c echo.Context) error {
	holder, err := middleware.CurrentHolder(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookings, err := h.Bookings.ListByHolder(c.Request().Context(), holder)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	out := make([]bookingResp, 0, len(bookings))
	for i := range bookings {
		out = append(out, toBookingResp(&bookings[i]))
	}
	return c.JSON(http.StatusOK, echo.Map{"bookings": out})
}

// InitiatePayment handles POST /v1/bookings/:id/pay.  It creates a hosted
// checkout session with the gateway, stores the transaction reference on
// the booking and returns the redirect URL.  Re-initiating is allowed for
// any unpaid booking inside its window, including after a fail or cancel
// callback; a fresh session resets the booking to PENDING, and only the
// most recent session can confirm it.
func (h *CustomerHandler) InitiatePayment(c echo.Context) error {
	holder, err := middleware.CurrentHolder(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	bookingID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid booking id"})
	}
	var body struct {
		Email string `json:"email"`
	}
	_ = c.Bind(&body) // email is optional for guests

	ctx := c.Request().Context()
	b, err := h.Bookings.GetByID(ctx, bookingID)
	if err != nil {
		if err == repository.ErrBookingNotFound {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if !ownsBooking(holder, b) {
		return c.JSON(http.StatusNotFound, echo.Map{"error": "booking not found"})
	}
	if b.PaymentStatus == model.PaymentPaid {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking already paid"})
	}
	if !b.Payable(time.Now().UTC()) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "booking has expired"})
	}

	email := body.Email
	if email == "" && b.UserID != nil {
		if u, err := h.Users.GetByID(ctx, *b.UserID); err == nil {
			email = u.Email
		}
	}
	if email == "" {
		email = "guest@invalid"
	}

	session, err := h.Gateway.Initiate(ctx, b, email)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment gateway unavailable"})
	}
	if err := h.Bookings.SetTranID(ctx, b.ID, session.TranID); err != nil {
		if err == repository.ErrBookingNotFound {
			// Status changed between the read and the write.
			return c.JSON(http.StatusConflict, echo.Map{"error": "booking is no longer pending"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"tran_id":      session.TranID,
		"redirect_url": session.RedirectURL,
	})
}
