package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBookingPayable(t *testing.T) {
	now := time.Now().UTC()

	pending := Booking{PaymentStatus: PaymentPending, ExpiresAt: now.Add(time.Minute)}
	assert.True(t, pending.Payable(now))

	// A gateway fail or cancel callback does not release the seats, so the
	// booking must stay payable for the rest of its window.
	failed := Booking{PaymentStatus: PaymentFailed, ExpiresAt: now.Add(4 * time.Minute)}
	assert.True(t, failed.Payable(now), "failed attempt inside the hold window can be retried")

	cancelled := Booking{PaymentStatus: PaymentCancelled, ExpiresAt: now.Add(time.Minute), IsCancelled: true}
	assert.True(t, cancelled.Payable(now))

	paid := Booking{PaymentStatus: PaymentPaid, ExpiresAt: now.Add(time.Hour)}
	assert.False(t, paid.Payable(now), "paid bookings are settled, not payable")

	lapsedPending := Booking{PaymentStatus: PaymentPending, ExpiresAt: now.Add(-time.Second)}
	assert.False(t, lapsedPending.Payable(now))

	lapsedFailed := Booking{PaymentStatus: PaymentFailed, ExpiresAt: now.Add(-time.Second)}
	assert.False(t, lapsedFailed.Payable(now))
}

func TestBookingHolder(t *testing.T) {
	uid := uint64(42)
	b := Booking{UserID: &uid}
	assert.Equal(t, "user:42", b.Holder().Key())

	tok := "abc"
	g := Booking{GuestToken: &tok}
	assert.Equal(t, "guest:abc", g.Holder().Key())

	var orphan Booking
	assert.True(t, orphan.Holder().IsZero())
}
