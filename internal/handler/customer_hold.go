package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/database"
	"github.com/iliyamo/movie-ticket-booking/internal/gateway"
	"github.com/iliyamo/movie-ticket-booking/internal/middleware"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
)

// CustomerHandler groups the dependencies for the customer booking flow:
// seat holds, reservation creation, booking lookup and payment initiation.
// Identity comes from the HolderIdentity middleware, so every method works
// for both authenticated users and guests.  Critical writes run inside a
// transaction; hold and reservation transactions are retried a bounded
// number of times when the store rejects them with a lock error.
type CustomerHandler struct {
	Cfg      config.Config
	Gateway  *gateway.Client
	Seats    *repository.SeatRepo
	Shows    *repository.ShowRepo
	Bookings *repository.BookingRepo
	Payments *repository.PaymentRepo
	Tickets  *repository.TicketRepo
	Users    *repository.UserRepo
}

// NewCustomerHandler constructs a CustomerHandler with the provided
// dependencies.  All of them must be non-nil.
func NewCustomerHandler(cfg config.Config, gw *gateway.Client, seats *repository.SeatRepo, shows *repository.ShowRepo, bookings *repository.BookingRepo, payments *repository.PaymentRepo, tickets *repository.TicketRepo, users *repository.UserRepo) *CustomerHandler {
	if gw == nil || seats == nil || shows == nil || bookings == nil || payments == nil || tickets == nil || users == nil {
		panic("nil dependency passed to NewCustomerHandler")
	}
	return &CustomerHandler{
		Cfg:      cfg,
		Gateway:  gw,
		Seats:    seats,
		Shows:    shows,
		Bookings: bookings,
		Payments: payments,
		Tickets:  tickets,
		Users:    users,
	}
}

// txRetries bounds how many times a hold or reservation transaction is
// re-run after a lock wait timeout or deadlock before giving up.
const txRetries = 3

// HoldSeats handles POST /v1/shows/:id/hold.  The request body carries a
// "seat_ids" array; on success all seats in the batch are held for the
// caller until now+HoldTTL and the expiry is returned.  The batch is
// all-or-nothing: if any seat is booked or live-held by someone else, no
// hold is placed and the offending seat IDs are reported with a 409.
// Re-holding seats the caller already holds refreshes the expiry.
func (h *CustomerHandler) HoldSeats(c echo.Context) error {
	holder, err := middleware.CurrentHolder(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
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
	if show.Status != model.ShowScheduled {
		return c.JSON(http.StatusConflict, echo.Map{"error": "show is not open for booking"})
	}

	var body struct {
		SeatIDs []uint64 `json:"seat_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	seatIDs := dedupeIDs(body.SeatIDs)
	if len(seatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
	}

	heldUntil := time.Now().UTC().Add(h.Cfg.HoldTTL)

	var conflicted []uint64
	for attempt := 0; attempt < txRetries; attempt++ {
		tx, err := h.Seats.DB().BeginTx(ctx, nil)
		if err != nil {
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
		}
		committed := false
		conflicted, err = h.Seats.HoldSeatsTx(ctx, tx, showID, seatIDs, holder, heldUntil)
		if err == nil {
			err = tx.Commit()
			committed = err == nil
		}
		if !committed {
			_ = tx.Rollback()
		}
		switch {
		case err == nil:
			return c.JSON(http.StatusCreated, echo.Map{
				"show_id":    showID,
				"seat_ids":   seatIDs,
				"held_until": heldUntil,
			})
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

// ReleaseSeats handles DELETE /v1/shows/:id/hold.  It clears the caller's
// holds on the given seats.  Releasing a seat the caller does not hold is
// not an error; the response reports how many were actually freed.
func (h *CustomerHandler) ReleaseSeats(c echo.Context) error {
	holder, err := middleware.CurrentHolder(c)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "unauthorized"})
	}
	showID, ok := pathID(c, "id")
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid show id"})
	}
	var body struct {
		SeatIDs []uint64 `json:"seat_ids"`
	}
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	seatIDs := dedupeIDs(body.SeatIDs)
	if len(seatIDs) == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "seat_ids is required"})
	}
	ctx := c.Request().Context()

	tx, err := h.Seats.DB().BeginTx(ctx, nil)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	released, err := h.Seats.ReleaseSeatsTx(ctx, tx, showID, seatIDs, holder)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	if err := tx.Commit(); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "database error"})
	}
	committed = true

	return c.JSON(http.StatusOK, echo.Map{"released": released})
}
