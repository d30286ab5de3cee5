package model

import "time"

// Seat status values.  A hold is an overlay on top of the status, not a
// status of its own: seats only ever move AVAILABLE -> BOOKED, and an
// expired hold needs no separate write to make the seat sellable again.
const (
	SeatAvailable = "AVAILABLE"
	SeatBooked    = "BOOKED"
)

// Seat represents one physical seat instance for one specific show.  Seats
// are generated in bulk when a show is scheduled (one row per grid cell of
// the screen) and are never reused across shows.
//
// Fields:
//  ID         – primary key identifier.
//  ShowID     – show this seat instance belongs to.
//  ScreenID   – screen of the show, denormalized for query convenience.
//  RowLabel   – alphabetical row designation (A, B, ..., AA).
//  SeatNumber – seat position within the row.
//  Status     – AVAILABLE or BOOKED (terminal).
//  IsHeld     – whether a hold overlay was placed on the seat.
//  HeldBy     – holder key owning the hold (nil when not held).
//  HeldUntil  – hold expiry timestamp (nil when not held).
//  CreatedAt  – creation timestamp.
//  UpdatedAt  – last update timestamp.
type Seat struct {
	ID         uint64     // seats.id
	ShowID     uint64     // seats.show_id
	ScreenID   uint64     // seats.screen_id
	RowLabel   string     // seats.row_label
	SeatNumber uint32     // seats.seat_number
	Status     string     // seats.status
	IsHeld     bool       // seats.is_held
	HeldBy     *string    // seats.held_by (nullable)
	HeldUntil  *time.Time // seats.held_until (nullable)
	CreatedAt  time.Time  // seats.created_at
	UpdatedAt  time.Time  // seats.updated_at
}

// Label returns the human-readable seat label, e.g. "B7".
func (s *Seat) Label() string {
	return s.RowLabel + itoa(s.SeatNumber)
}

// IsActivelyHeld reports whether the seat carries a live hold at the given
// instant.  The timestamp is the source of truth: a stale IsHeld flag with a
// lapsed HeldUntil counts as not held.
func (s *Seat) IsActivelyHeld(now time.Time) bool {
	return s.IsHeld && s.HeldUntil != nil && s.HeldUntil.After(now)
}

// AvailableTo reports whether the given holder key may acquire or keep a hold
// on this seat at the given instant.  Booked seats are never available; a
// seat with a live hold is available only to the key that owns the hold.
func (s *Seat) AvailableTo(holderKey string, now time.Time) bool {
	if s.Status == SeatBooked {
		return false
	}
	if !s.IsActivelyHeld(now) {
		return true
	}
	return s.HeldBy != nil && *s.HeldBy == holderKey
}

// itoa is a minimal uint32 formatter used by Label; it keeps the model
// package free of strconv for a single conversion.
func itoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[i:])
}
