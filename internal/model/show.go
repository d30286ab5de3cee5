package model

import "time"

// Show status values.
const (
	ShowScheduled = "SCHEDULED"
	ShowCancelled = "CANCELLED"
	ShowFinished  = "FINISHED"
)

// Show represents a scheduled screening of a movie on a particular screen.
// Scheduling a show generates one Seat row per cell of the screen's grid.
//
// Fields:
//  ID             – primary key identifier.
//  MovieID        – movie being screened.
//  ScreenID       – screen where the show takes place.
//  StartsAt       – when the show begins.
//  EndsAt         – when the show ends (after StartsAt).
//  BasePriceCents – per-seat price; booking total = base price × seat count.
//  Status         – SCHEDULED, CANCELLED or FINISHED.
//  CreatedAt      – creation timestamp.
//  UpdatedAt      – last update timestamp.
type Show struct {
	ID             uint64    // shows.id
	MovieID        uint64    // shows.movie_id
	ScreenID       uint64    // shows.screen_id
	StartsAt       time.Time // shows.starts_at
	EndsAt         time.Time // shows.ends_at
	BasePriceCents uint32    // shows.base_price_cents
	Status         string    // shows.status
	CreatedAt      time.Time // shows.created_at
	UpdatedAt      time.Time // shows.updated_at
}
