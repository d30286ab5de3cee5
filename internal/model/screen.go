package model

import "time"

// Screen describes an auditorium and its seating grid.  The grid dimensions
// drive bulk seat generation when a show is scheduled on the screen.
//
// Fields:
//  ID        – primary key identifier.
//  Name      – unique screen name.
//  SeatRows  – number of seating rows.
//  SeatCols  – number of seats per row.
//  CreatedAt – creation timestamp.
type Screen struct {
	ID        uint64    // screens.id
	Name      string    // screens.name
	SeatRows  uint32    // screens.seat_rows
	SeatCols  uint32    // screens.seat_cols
	CreatedAt time.Time // screens.created_at
}
