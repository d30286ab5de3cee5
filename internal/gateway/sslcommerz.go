// Package gateway implements the client for the external hosted-checkout
// payment provider (SSLCommerz-style API).  The core treats the provider
// as untrusted: a success callback is only believed after this client has
// re-fetched the transaction from the provider's validator API and the
// caller has checked amount and currency against the booking.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/iliyamo/movie-ticket-booking/internal/config"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// ErrGateway wraps any transport or protocol failure talking to the
// provider.  Handlers surface it as a payment failure while leaving the
// booking PENDING so the customer can retry inside the hold window.
var ErrGateway = errors.New("payment gateway error")

// ErrValidationRejected is returned when the validator API answers with a
// non-VALID status for the given validation ID.
var ErrValidationRejected = errors.New("payment validation rejected")

// Client talks to the payment provider.  BaseURL is configurable so tests
// can point it at a local server.
type Client struct {
	cfg  config.GatewayConfig
	http *http.Client
}

// NewClient builds a gateway client from configuration.
func NewClient(cfg config.GatewayConfig) *Client {
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 15 * time.Second},
	}
}

// Currency returns the settlement currency every session is created in.
func (c *Client) Currency() string { return c.cfg.Currency }

// Session is the result of initiating a hosted-checkout session.
type Session struct {
	TranID      string // transaction reference stored on the booking
	RedirectURL string // gateway page the customer is sent to
}

// initResponse mirrors the session-creation endpoint's JSON envelope.
type initResponse struct {
	Status         string `json:"status"`
	FailedReason   string `json:"failedreason"`
	GatewayPageURL string `json:"GatewayPageURL"`
}

// Initiate creates a checkout session for a booking.  The transaction
// reference is generated here (uuid) rather than by the provider so the
// booking row can store it before the customer ever reaches the gateway.
func (c *Client) Initiate(ctx context.Context, b *model.Booking, customerEmail string) (Session, error) {
	tranID := uuid.NewString()
	form := url.Values{
		"store_id":         {c.cfg.StoreID},
		"store_passwd":     {c.cfg.StorePass},
		"total_amount":     {formatAmount(b.TotalPriceCents)},
		"currency":         {c.cfg.Currency},
		"tran_id":          {tranID},
		"success_url":      {c.cfg.CallbackBase + "/v1/payments/success"},
		"fail_url":         {c.cfg.CallbackBase + "/v1/payments/fail"},
		"cancel_url":       {c.cfg.CallbackBase + "/v1/payments/cancel"},
		"ipn_url":          {c.cfg.CallbackBase + "/v1/payments/ipn"},
		"product_name":     {"Movie Ticket"},
		"product_category": {"Ticket"},
		"product_profile":  {"non-physical-goods"},
		"cus_email":        {customerEmail},
		"shipping_method":  {"NO"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.BaseURL+"/gwprocess/v4/api.php", strings.NewReader(form.Encode()))
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := c.http.Do(req)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()
	var ir initResponse
	if err := json.NewDecoder(resp.Body).Decode(&ir); err != nil {
		return Session{}, fmt.Errorf("%w: decode init response: %v", ErrGateway, err)
	}
	if !strings.EqualFold(ir.Status, "SUCCESS") || ir.GatewayPageURL == "" {
		return Session{}, fmt.Errorf("%w: session rejected: %s", ErrGateway, ir.FailedReason)
	}
	return Session{TranID: tranID, RedirectURL: ir.GatewayPageURL}, nil
}

// Validation is the provider's authoritative record of a transaction,
// fetched from the validator API.
type Validation struct {
	Status      string
	TranID      string
	ValID       string
	AmountCents uint32
	Currency    string
	CardType    string
	CardIssuer  string
	TranDate    string
}

// validatorResponse mirrors the validator API's JSON fields we consume.
// Amounts come back as decimal strings.
type validatorResponse struct {
	Status     string `json:"status"`
	TranDate   string `json:"tran_date"`
	TranID     string `json:"tran_id"`
	ValID      string `json:"val_id"`
	Amount     string `json:"amount"`
	Currency   string `json:"currency"`
	CardType   string `json:"card_type"`
	CardIssuer string `json:"card_issuer"`
}

// Validate re-fetches a transaction by validation ID.  Only VALID and
// VALIDATED statuses produce a result; anything else is
// ErrValidationRejected.
func (c *Client) Validate(ctx context.Context, valID string) (*Validation, error) {
	if strings.TrimSpace(valID) == "" {
		return nil, fmt.Errorf("%w: empty validation id", ErrValidationRejected)
	}
	q := url.Values{
		"val_id":       {valID},
		"store_id":     {c.cfg.StoreID},
		"store_passwd": {c.cfg.StorePass},
		"format":       {"json"},
		"v":            {"1"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		c.cfg.BaseURL+"/validator/api/validationserverAPI.php?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()
	var vr validatorResponse
	if err := json.NewDecoder(resp.Body).Decode(&vr); err != nil {
		return nil, fmt.Errorf("%w: decode validator response: %v", ErrGateway, err)
	}
	if !strings.EqualFold(vr.Status, "VALID") && !strings.EqualFold(vr.Status, "VALIDATED") {
		return nil, fmt.Errorf("%w: status %s", ErrValidationRejected, vr.Status)
	}
	cents, err := ParseAmountCents(vr.Amount)
	if err != nil {
		return nil, fmt.Errorf("%w: amount %q: %v", ErrGateway, vr.Amount, err)
	}
	return &Validation{
		Status:      strings.ToUpper(vr.Status),
		TranDate:    vr.TranDate,
		TranID:      vr.TranID,
		ValID:       vr.ValID,
		AmountCents: cents,
		Currency:    strings.ToUpper(strings.TrimSpace(vr.Currency)),
		CardType:    vr.CardType,
		CardIssuer:  vr.CardIssuer,
	}, nil
}

// Matches reports whether the validated transaction settles exactly the
// given amount in exactly the given currency.  The rule is strict
// equality on both; a generous overpayment is as suspect as a short one.
func (v *Validation) Matches(amountCents uint32, currency string) bool {
	return v.AmountCents == amountCents && v.Currency == strings.ToUpper(currency)
}

// formatAmount renders cents as the decimal string the provider expects.
func formatAmount(cents uint32) string {
	return fmt.Sprintf("%d.%02d", cents/100, cents%100)
}

// ParseAmountCents converts a provider decimal amount ("1200.00") into
// cents, rejecting more than two fraction digits, negative values and
// totals that do not fit in 32 bits.
func ParseAmountCents(s string) (uint32, error) {
	s = strings.TrimSpace(s)
	if s == "" || strings.HasPrefix(s, "-") {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	whole, frac := s, ""
	if i := strings.IndexByte(s, '.'); i >= 0 {
		whole, frac = s[:i], s[i+1:]
	}
	if len(frac) > 2 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	for len(frac) < 2 {
		frac += "0"
	}
	if whole == "" {
		whole = "0"
	}
	w, err := strconv.ParseUint(whole, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	f, err := strconv.ParseUint(frac, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	total := w*100 + f
	if total > math.MaxUint32 {
		return 0, fmt.Errorf("invalid amount %q", s)
	}
	return uint32(total), nil
}
