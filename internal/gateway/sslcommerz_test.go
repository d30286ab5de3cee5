package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

func testClient(baseURL string) *Client {
	return NewClient(config.GatewayConfig{
		StoreID:      "teststore",
		StorePass:    "testpass",
		BaseURL:      baseURL,
		CallbackBase: "http://localhost:8080",
		Currency:     "BDT",
	})
}

func TestInitiateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "/gwprocess/v4/api.php", r.URL.Path)
		assert.Equal(t, "teststore", r.FormValue("store_id"))
		assert.Equal(t, "12.50", r.FormValue("total_amount"))
		assert.Equal(t, "BDT", r.FormValue("currency"))
		assert.NotEmpty(t, r.FormValue("tran_id"))
		assert.Equal(t, "http://localhost:8080/v1/payments/success", r.FormValue("success_url"))
		json.NewEncoder(w).Encode(map[string]string{
			"status":         "SUCCESS",
			"GatewayPageURL": "https://pay.example/session/1",
		})
	}))
	defer srv.Close()

	b := &model.Booking{TotalPriceCents: 1250}
	s, err := testClient(srv.URL).Initiate(context.Background(), b, "a@b.c")
	require.NoError(t, err)
	assert.Equal(t, "https://pay.example/session/1", s.RedirectURL)
	assert.NotEmpty(t, s.TranID)
}

func TestInitiateRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"status":       "FAILED",
			"failedreason": "store credentials invalid",
		})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Initiate(context.Background(), &model.Booking{}, "a@b.c")
	assert.ErrorIs(t, err, ErrGateway)
}

func TestValidateValid(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/validator/api/validationserverAPI.php", r.URL.Path)
		assert.Equal(t, "val-1", r.URL.Query().Get("val_id"))
		json.NewEncoder(w).Encode(map[string]string{
			"status":    "VALID",
			"tran_id":   "tran-1",
			"val_id":    "val-1",
			"amount":    "1200.00",
			"currency":  "BDT",
			"card_type": "VISA",
			"tran_date": time.Now().Format("2006-01-02 15:04:05"),
		})
	}))
	defer srv.Close()

	v, err := testClient(srv.URL).Validate(context.Background(), "val-1")
	require.NoError(t, err)
	assert.Equal(t, "VALID", v.Status)
	assert.Equal(t, "tran-1", v.TranID)
	assert.Equal(t, uint32(120000), v.AmountCents)
	assert.Equal(t, "BDT", v.Currency)
}

func TestValidateRejectedStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"status": "INVALID_TRANSACTION"})
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).Validate(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrValidationRejected)
}

func TestValidateEmptyValID(t *testing.T) {
	_, err := testClient("http://unused").Validate(context.Background(), "  ")
	assert.ErrorIs(t, err, ErrValidationRejected)
}

func TestMatchesExactAmountAndCurrency(t *testing.T) {
	v := &Validation{AmountCents: 1000, Currency: "BDT"}
	assert.True(t, v.Matches(1000, "BDT"))
	assert.True(t, v.Matches(1000, "bdt"))
	assert.False(t, v.Matches(999, "BDT"), "short payment must not match")
	assert.False(t, v.Matches(1001, "BDT"), "overpayment must not match")
	assert.False(t, v.Matches(1000, "USD"), "currency must match exactly")
}

func TestParseAmountCents(t *testing.T) {
	cases := []struct {
		in   string
		want uint32
		ok   bool
	}{
		{"1200.00", 120000, true},
		{"0.05", 5, true},
		{"7", 700, true},
		{"7.5", 750, true},
		{" 12.34 ", 1234, true},
		{".50", 50, true},
		{"42949672.95", 4294967295, true}, // largest total that fits 32 bits
		{"-1.00", 0, false},
		{"", 0, false},
		{"1.234", 0, false},
		{"abc", 0, false},
		{"42949672.96", 0, false}, // one cent past 32 bits must not wrap
		{"42949673.00", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmountCents(tc.in)
		if tc.ok {
			require.NoError(t, err, tc.in)
			assert.Equal(t, tc.want, got, tc.in)
		} else {
			assert.Error(t, err, tc.in)
		}
	}
}
