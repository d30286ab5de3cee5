package model

import "time"

// Movie is a catalog entry referenced by shows and bookings.
//
// Fields:
//  ID          – primary key identifier.
//  Title       – display title.
//  DurationMin – running time in minutes.
//  Genre       – free-form genre tag.
//  Language    – spoken language.
//  CreatedAt   – creation timestamp.
type Movie struct {
	ID          uint64    // movies.id
	Title       string    // movies.title
	DurationMin uint32    // movies.duration_min
	Genre       string    // movies.genre
	Language    string    // movies.language
	CreatedAt   time.Time // movies.created_at
}
