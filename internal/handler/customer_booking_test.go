package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/gateway"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
)

var bookingCols = []string{"id", "user_id", "guest_token", "show_id", "screen_id", "movie_id",
	"total_price_cents", "payment_status", "payment_method", "tran_id",
	"expires_at", "is_cancelled", "created_at", "updated_at"}

func newCustomerHandler(t *testing.T, gw *gateway.Client) (*CustomerHandler, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &CustomerHandler{
		Cfg:      config.Config{HoldTTL: 5 * time.Minute},
		Gateway:  gw,
		Seats:    repository.NewSeatRepo(db),
		Shows:    repository.NewShowRepo(db),
		Bookings: repository.NewBookingRepo(db),
		Payments: repository.NewPaymentRepo(db),
		Tickets:  repository.NewTicketRepo(db),
		Users:    repository.NewUserRepo(db),
	}, mock
}

func bookingCtx(method, target, id string, holder model.Holder) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	req := httptest.NewRequest(method, target, nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id)
	c.Set("holder", holder)
	return c, rec
}

// TestInitiatePaymentRetriesAfterFailedCallback covers the retry path: a
// fail callback marked the booking FAILED, the hold window has not lapsed,
// and initiating again must mint a fresh session and reset the booking to
// PENDING rather than answering 409.
func TestInitiatePaymentRetriesAfterFailedCallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"SUCCESS","GatewayPageURL":"https://pay.example/session/2"}`))
	}))
	defer srv.Close()
	gw := gateway.NewClient(config.GatewayConfig{
		StoreID: "store", StorePass: "pass",
		BaseURL: srv.URL, CallbackBase: "http://localhost:8080", Currency: "BDT",
	})
	h, mock := newCustomerHandler(t, gw)

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM bookings WHERE id").
		WillReturnRows(sqlmock.NewRows(bookingCols).
			AddRow(7, nil, "g1", 9, 2, 3, 50000, model.PaymentFailed, nil, "tran-1",
				now.Add(4*time.Minute), false, now, now))
	mock.ExpectQuery("SELECT seat_id FROM booking_seats").
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}).AddRow(11).AddRow(12))
	mock.ExpectExec("payment_status = 'PENDING', is_cancelled = 0").
		WillReturnResult(sqlmock.NewResult(0, 1))

	c, rec := bookingCtx(http.MethodPost, "/v1/bookings/7/pay", "7", model.GuestHolder("g1"))
	require.NoError(t, h.InitiatePayment(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "https://pay.example/session/2", body["redirect_url"])
	assert.NotEmpty(t, body["tran_id"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

// An already settled booking still answers 409 before any gateway call.
func TestInitiatePaymentRejectsPaidBooking(t *testing.T) {
	h, mock := newCustomerHandler(t, gateway.NewClient(config.GatewayConfig{Currency: "BDT"}))

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM bookings WHERE id").
		WillReturnRows(sqlmock.NewRows(bookingCols).
			AddRow(7, nil, "g1", 9, 2, 3, 50000, model.PaymentPaid, "VISA", "tran-1",
				now.Add(4*time.Minute), false, now, now))
	mock.ExpectQuery("SELECT seat_id FROM booking_seats").
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}).AddRow(11))

	c, rec := bookingCtx(http.MethodPost, "/v1/bookings/7/pay", "7", model.GuestHolder("g1"))
	require.NoError(t, h.InitiatePayment(c))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestGetBookingIncludesPaymentDetails checks the owner's view of a paid
// booking: ticket codes plus the settled payment record.
func TestGetBookingIncludesPaymentDetails(t *testing.T) {
	h, mock := newCustomerHandler(t, gateway.NewClient(config.GatewayConfig{Currency: "BDT"}))

	now := time.Now().UTC()
	mock.ExpectQuery("SELECT .+ FROM bookings WHERE id").
		WillReturnRows(sqlmock.NewRows(bookingCols).
			AddRow(7, nil, "g1", 9, 2, 3, 50000, model.PaymentPaid, "VISA", "tran-1",
				now.Add(-time.Minute), false, now, now))
	mock.ExpectQuery("SELECT seat_id FROM booking_seats").
		WillReturnRows(sqlmock.NewRows([]string{"seat_id"}).AddRow(11).AddRow(12))
	mock.ExpectQuery("SELECT .+ FROM tickets").
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "seat_id", "show_id", "holder_key", "code", "created_at"}).
			AddRow(1, 7, 11, 9, "guest:g1", "c0ffee11", now).
			AddRow(2, 7, 12, 9, "guest:g1", "c0ffee22", now))
	mock.ExpectQuery("SELECT .+ FROM payments").
		WillReturnRows(sqlmock.NewRows([]string{"id", "booking_id", "val_id", "amount_cents", "currency", "card_type", "card_issuer", "tran_date", "created_at"}).
			AddRow(1, 7, "val-1", 50000, "BDT", "VISA", "Test Bank", "2026-08-31 10:00:00", now))

	c, rec := bookingCtx(http.MethodGet, "/v1/bookings/7", "7", model.GuestHolder("g1"))
	require.NoError(t, h.GetBooking(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		TicketCodes []string               `json:"ticket_codes"`
		Payment     map[string]interface{} `json:"payment"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, []string{"c0ffee11", "c0ffee22"}, body.TicketCodes)
	assert.Equal(t, "VISA", body.Payment["card_type"])
	assert.EqualValues(t, 50000, body.Payment["amount_cents"])
	assert.Equal(t, "BDT", body.Payment["currency"])
	assert.NoError(t, mock.ExpectationsWereMet())
}
