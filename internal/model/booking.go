package model

import "time"

// Payment status values for a booking.  PENDING bookings carry an expiry
// window; PAID is terminal and triggers ticket issuance; FAILED and
// CANCELLED record explicit gateway callbacks but do not release seats by
// themselves (the holder may still retry payment inside the hold window).
const (
	PaymentPending   = "PENDING"
	PaymentPaid      = "PAID"
	PaymentFailed    = "FAILED"
	PaymentCancelled = "CANCELLED"
)

// Booking records one attempt, successful or not, to purchase a set of
// seats for a show.  Exactly one of UserID and GuestToken is set; the pair
// is the persisted form of the Holder union.
//
// Fields:
//  ID              – primary key identifier.
//  UserID          – owning user (nil for guest bookings).
//  GuestToken      – owning guest session (nil for user bookings).
//  ShowID          – show being booked.
//  ScreenID        – screen of the show, denormalized.
//  MovieID         – movie of the show, denormalized.
//  SeatIDs         – seats covered by this booking (booking_seats rows).
//  TotalPriceCents – show base price times seat count.
//  PaymentStatus   – PENDING, PAID, FAILED or CANCELLED.
//  PaymentMethod   – gateway method tag, when known (nil before payment).
//  TranID          – external transaction reference (nil until initiated).
//  ExpiresAt       – when an unpaid booking stops being active.
//  IsCancelled     – set by an explicit cancel callback.
//  CreatedAt       – creation timestamp.
//  UpdatedAt       – last update timestamp.
type Booking struct {
	ID              uint64     // bookings.id
	UserID          *uint64    // bookings.user_id (nullable)
	GuestToken      *string    // bookings.guest_token (nullable)
	ShowID          uint64     // bookings.show_id
	ScreenID        uint64     // bookings.screen_id
	MovieID         uint64     // bookings.movie_id
	SeatIDs         []uint64   // booking_seats.seat_id
	TotalPriceCents uint32     // bookings.total_price_cents
	PaymentStatus   string     // bookings.payment_status
	PaymentMethod   *string    // bookings.payment_method (nullable)
	TranID          *string    // bookings.tran_id (nullable)
	ExpiresAt       time.Time  // bookings.expires_at
	IsCancelled     bool       // bookings.is_cancelled
	CreatedAt       time.Time  // bookings.created_at
	UpdatedAt       time.Time  // bookings.updated_at
}

// Holder reconstructs the owning identity from the persisted columns.
func (b *Booking) Holder() Holder {
	if b.UserID != nil {
		return UserHolder(utoa(*b.UserID))
	}
	if b.GuestToken != nil {
		return GuestHolder(*b.GuestToken)
	}
	return Holder{}
}

// Payable reports whether payment may still be initiated or retried: the
// booking is unpaid and its hold window has not lapsed.  FAILED and
// CANCELLED bookings stay payable inside the window, since an explicit
// gateway callback does not release the seats; the customer can come
// straight back from the gateway page and try again.
func (b *Booking) Payable(now time.Time) bool {
	return b.PaymentStatus != PaymentPaid && b.ExpiresAt.After(now)
}

// utoa formats a uint64 the same way itoa does for uint32.
func utoa(n uint64) string {
	if n == 0 {
		return "0"
	}
	var buf [20]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
