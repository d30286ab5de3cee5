package handler

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/gateway"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/queue"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
	queue_publisher "github.com/iliyamo/movie-ticket-booking/internal/service"
	"github.com/iliyamo/movie-ticket-booking/internal/utils"
)

// PaymentHandler receives the gateway's browser and server callbacks.
// These endpoints are unauthenticated (the gateway is the caller), so the
// success path trusts nothing from the request itself: the transaction is
// re-validated against the gateway's validator API and the settled amount
// and currency are checked against the booking before anything is written.
type PaymentHandler struct {
	Cfg      config.Config
	Gateway  *gateway.Client
	Seats    *repository.SeatRepo
	Shows    *repository.ShowRepo
	Movies   *repository.MovieRepo
	Screens  *repository.ScreenRepo
	Bookings *repository.BookingRepo
	Payments *repository.PaymentRepo
	Tickets  *repository.TicketRepo
}

func NewPaymentHandler(cfg config.Config, gw *gateway.Client, seats *repository.SeatRepo, shows *repository.ShowRepo, movies *repository.MovieRepo, screens *repository.ScreenRepo, bookings *repository.BookingRepo, payments *repository.PaymentRepo, tickets *repository.TicketRepo) *PaymentHandler {
	if gw == nil || seats == nil || shows == nil || movies == nil || screens == nil || bookings == nil || payments == nil || tickets == nil {
		panic("nil dependency passed to NewPaymentHandler")
	}
	return &PaymentHandler{
		Cfg:      cfg,
		Gateway:  gw,
		Seats:    seats,
		Shows:    shows,
		Movies:   movies,
		Screens:  screens,
		Bookings: bookings,
		Payments: payments,
		Tickets:  tickets,
	}
}

// redirect sends the customer's browser back to the frontend.  The gateway
// posts the callback as a form, so the answer is a 303 See Other.
func (h *PaymentHandler) redirect(c echo.Context, path string) error {
	return c.Redirect(http.StatusSeeOther, h.Cfg.ClientRoot+path)
}

// Success handles POST /v1/payments/success.  The flow is:
//
//  1. re-fetch the transaction from the validator API (VALID/VALIDATED only),
//  2. lock the booking row by tran_id,
//  3. if already PAID, stop: the callback was retried, nothing to do,
//  4. check exact amount and currency against the booking,
//  5. in one transaction: record the payment (unique val_id), flip the
//     booking to PAID, promote the held seats to BOOKED and issue tickets.
//
// Any failure before commit leaves the booking PENDING so the customer can
// retry inside the hold window.  After commit a booking.paid event is
// published; a broker failure there is logged and ignored.
func (h *PaymentHandler) Success(c echo.Context) error {
	tranID := c.FormValue("tran_id")
	valID := c.FormValue("val_id")
	if tranID == "" || valID == "" {
		return h.redirect(c, "/payment/fail?reason=missing_params")
	}
	ctx := c.Request().Context()

	v, err := h.Gateway.Validate(ctx, valID)
	if err != nil {
		log.Printf("payment: validation of %s failed: %v", valID, err)
		return h.redirect(c, "/payment/fail?reason=validation_failed")
	}
	if v.TranID != tranID {
		log.Printf("payment: val_id %s belongs to tran %s, callback claims %s", valID, v.TranID, tranID)
		return h.redirect(c, "/payment/fail?reason=validation_failed")
	}

	tx, err := h.Seats.DB().BeginTx(ctx, nil)
	if err != nil {
		return h.redirect(c, "/payment/fail?reason=server_error")
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	b, err := h.Bookings.GetByTranIDTx(ctx, tx, tranID)
	if err != nil {
		if err == repository.ErrBookingNotFound {
			return h.redirect(c, "/payment/fail?reason=unknown_transaction")
		}
		return h.redirect(c, "/payment/fail?reason=server_error")
	}
	if b.PaymentStatus == model.PaymentPaid {
		// Duplicate callback for a booking already confirmed.
		return h.redirect(c, "/payment/success?booking_id="+utoaParam(b.ID))
	}
	if !v.Matches(b.TotalPriceCents, h.Gateway.Currency()) {
		log.Printf("payment: booking %d expects %d %s, gateway settled %d %s",
			b.ID, b.TotalPriceCents, h.Gateway.Currency(), v.AmountCents, v.Currency)
		return h.redirect(c, "/payment/fail?reason=amount_mismatch")
	}

	payment := model.Payment{
		BookingID:   b.ID,
		ValID:       v.ValID,
		AmountCents: v.AmountCents,
		Currency:    v.Currency,
		CardType:    v.CardType,
		CardIssuer:  v.CardIssuer,
		TranDate:    v.TranDate,
	}
	if err := h.Payments.CreateTx(ctx, tx, &payment); err != nil {
		if err == repository.ErrDuplicatePayment {
			return h.redirect(c, "/payment/success?booking_id="+utoaParam(b.ID))
		}
		return h.redirect(c, "/payment/fail?reason=server_error")
	}
	if err := h.Bookings.MarkPaidTx(ctx, tx, b.ID, v.CardType); err != nil {
		if err == repository.ErrDuplicatePayment {
			return h.redirect(c, "/payment/success?booking_id="+utoaParam(b.ID))
		}
		return h.redirect(c, "/payment/fail?reason=server_error")
	}

	holder := b.Holder()
	if err := h.Seats.ConfirmBookedTx(ctx, tx, b.ShowID, b.SeatIDs, holder); err != nil {
		if err == repository.ErrHoldExpired {
			// The hold lapsed before the customer finished paying and the
			// seats may already belong to someone else.  The payment is not
			// recorded; refunding the gateway charge is an operator action.
			log.Printf("payment: booking %d paid after hold expiry, refusing confirmation", b.ID)
			return h.redirect(c, "/payment/fail?reason=hold_expired")
		}
		return h.redirect(c, "/payment/fail?reason=server_error")
	}

	tickets := make([]model.Ticket, 0, len(b.SeatIDs))
	for _, seatID := range b.SeatIDs {
		code, err := utils.RandomHex(16)
		if err != nil {
			return h.redirect(c, "/payment/fail?reason=server_error")
		}
		tickets = append(tickets, model.Ticket{
			BookingID: b.ID,
			SeatID:    seatID,
			ShowID:    b.ShowID,
			HolderKey: holder.Key(),
			Code:      code,
		})
	}
	if err := h.Tickets.CreateBulkTx(ctx, tx, tickets); err != nil {
		return h.redirect(c, "/payment/fail?reason=server_error")
	}

	if err := tx.Commit(); err != nil {
		return h.redirect(c, "/payment/fail?reason=server_error")
	}
	committed = true

	go h.publishPaid(b, tickets, v)

	return h.redirect(c, "/payment/success?booking_id="+utoaParam(b.ID))
}

// publishPaid assembles and publishes the booking.paid event.  Runs after
// commit on its own goroutine with a fresh context; failures only log.
func (h *PaymentHandler) publishPaid(b *model.Booking, tickets []model.Ticket, v *gateway.Validation) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	ev := queue.BookingPaidEvent{
		BookingID:        b.ID,
		HolderKey:        b.Holder().Key(),
		ShowID:           b.ShowID,
		TotalAmountCents: b.TotalPriceCents,
		TranID:           v.TranID,
		ValID:            v.ValID,
		PaidAt:           time.Now().UTC().Format(time.RFC3339),
	}
	for _, t := range tickets {
		ev.TicketCodes = append(ev.TicketCodes, t.Code)
	}
	if show, err := h.Shows.GetByID(ctx, b.ShowID); err == nil {
		ev.StartsAt = show.StartsAt.UTC().Format(time.RFC3339)
	}
	if movie, err := h.Movies.GetByID(ctx, b.MovieID); err == nil {
		ev.MovieTitle = movie.Title
	}
	if screen, err := h.Screens.GetByID(ctx, b.ScreenID); err == nil {
		ev.ScreenName = screen.Name
	}
	if seats, err := h.Seats.ListByShow(ctx, b.ShowID); err == nil {
		want := make(map[uint64]struct{}, len(b.SeatIDs))
		for _, id := range b.SeatIDs {
			want[id] = struct{}{}
		}
		for i := range seats {
			if _, ok := want[seats[i].ID]; ok {
				ev.SeatLabels = append(ev.SeatLabels, seats[i].Label())
			}
		}
	}
	if err := queue_publisher.PublishBookingPaid(ctx, ev); err != nil {
		log.Printf("payment: publish booking.paid for %d failed: %v", b.ID, err)
	}
}

// Fail handles POST /v1/payments/fail.  Only the booking status changes;
// the seats stay held so the customer can retry payment inside the hold
// window.  Reclaiming seats after the window is the sweep's job.
func (h *PaymentHandler) Fail(c echo.Context) error {
	h.recordOutcome(c, model.PaymentFailed)
	return h.redirect(c, "/payment/fail")
}

// Cancel handles POST /v1/payments/cancel, the customer backing out on the
// gateway page.  Same rules as Fail.
func (h *PaymentHandler) Cancel(c echo.Context) error {
	h.recordOutcome(c, model.PaymentCancelled)
	return h.redirect(c, "/payment/cancel")
}

// recordOutcome maps a fail or cancel callback onto the booking, if the
// transaction reference is known.  Errors only log: the redirect must
// happen regardless, and an unknown tran_id is not actionable here.
func (h *PaymentHandler) recordOutcome(c echo.Context, status string) {
	tranID := c.FormValue("tran_id")
	if tranID == "" {
		return
	}
	ctx := c.Request().Context()
	b, err := h.Bookings.GetByTranID(ctx, tranID)
	if err != nil {
		log.Printf("payment: %s callback for unknown tran %s", status, tranID)
		return
	}
	if err := h.Bookings.UpdateStatus(ctx, b.ID, status); err != nil {
		log.Printf("payment: record %s for booking %d: %v", status, b.ID, err)
	}
}

// IPN handles POST /v1/payments/ipn, the gateway's server-to-server
// notification.  Confirmation rides on the success callback; the IPN is
// acknowledged and logged so a lost browser redirect is at least visible
// in the logs for manual replay.  For known transactions the booking
// status and ticket count are logged too, which tells an operator at a
// glance whether confirmation actually completed.
func (h *PaymentHandler) IPN(c echo.Context) error {
	tranID := c.FormValue("tran_id")
	log.Printf("payment: ipn received tran_id=%s status=%s val_id=%s",
		tranID, c.FormValue("status"), c.FormValue("val_id"))
	if tranID != "" {
		ctx := c.Request().Context()
		if b, err := h.Bookings.GetByTranID(ctx, tranID); err == nil {
			n, err := h.Tickets.CountByBooking(ctx, b.ID)
			if err != nil {
				n = -1
			}
			log.Printf("payment: ipn booking %d status=%s tickets=%d", b.ID, b.PaymentStatus, n)
		}
	}
	return c.String(http.StatusOK, "ok")
}

// utoaParam formats a booking ID for a query string.
func utoaParam(n uint64) string {
	return strconv.FormatUint(n, 10)
}
