package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func seatAt(status string, heldBy string, heldUntil time.Time) Seat {
	s := Seat{Status: status}
	if heldBy != "" {
		s.IsHeld = true
		s.HeldBy = &heldBy
		u := heldUntil
		s.HeldUntil = &u
	}
	return s
}

func TestSeatLabel(t *testing.T) {
	s := Seat{RowLabel: "B", SeatNumber: 7}
	assert.Equal(t, "B7", s.Label())

	s = Seat{RowLabel: "AA", SeatNumber: 12}
	assert.Equal(t, "AA12", s.Label())
}

func TestIsActivelyHeld(t *testing.T) {
	now := time.Now().UTC()

	live := seatAt(SeatAvailable, "user:1", now.Add(time.Minute))
	assert.True(t, live.IsActivelyHeld(now))

	lapsed := seatAt(SeatAvailable, "user:1", now.Add(-time.Second))
	assert.False(t, lapsed.IsActivelyHeld(now))

	// stale flag with no timestamp does not count as held
	stale := Seat{Status: SeatAvailable, IsHeld: true}
	assert.False(t, stale.IsActivelyHeld(now))

	free := Seat{Status: SeatAvailable}
	assert.False(t, free.IsActivelyHeld(now))
}

func TestAvailableTo(t *testing.T) {
	now := time.Now().UTC()

	t.Run("booked is never available", func(t *testing.T) {
		s := seatAt(SeatBooked, "", time.Time{})
		assert.False(t, s.AvailableTo("user:1", now))
	})

	t.Run("free seat is available to anyone", func(t *testing.T) {
		s := Seat{Status: SeatAvailable}
		assert.True(t, s.AvailableTo("user:1", now))
		assert.True(t, s.AvailableTo("guest:x", now))
	})

	t.Run("live hold is available only to its owner", func(t *testing.T) {
		s := seatAt(SeatAvailable, "guest:x", now.Add(time.Minute))
		assert.True(t, s.AvailableTo("guest:x", now))
		assert.False(t, s.AvailableTo("user:1", now))
	})

	t.Run("lapsed hold is available to anyone", func(t *testing.T) {
		s := seatAt(SeatAvailable, "guest:x", now.Add(-time.Minute))
		assert.True(t, s.AvailableTo("user:1", now))
	})
}
