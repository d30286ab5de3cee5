package model

import "time"

// Ticket is issued once per (booking, seat) pair after payment confirmation.
// Tickets are created inside the confirmation transaction and never mutated.
//
// Fields:
//  ID        – primary key identifier.
//  BookingID – paid booking the ticket belongs to.
//  SeatID    – seat the ticket admits to.
//  ShowID    – show, denormalized for scanning without joins.
//  HolderKey – identity key of the purchaser at confirmation time.
//  Code      – opaque scannable code (unique).
//  CreatedAt – issuance timestamp.
type Ticket struct {
	ID        uint64    // tickets.id
	BookingID uint64    // tickets.booking_id
	SeatID    uint64    // tickets.seat_id
	ShowID    uint64    // tickets.show_id
	HolderKey string    // tickets.holder_key
	Code      string    // tickets.code
	CreatedAt time.Time // tickets.created_at
}
