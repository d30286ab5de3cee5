// Package worker hosts background jobs that run alongside the HTTP server.
package worker

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
)

// Store is the persistence surface the reclaimer needs. It is satisfied by
// SQLStore in production and by fakes in tests.
type Store interface {
	// ListExpiredUnpaid returns pending bookings whose hold window lapsed.
	ListExpiredUnpaid(ctx context.Context, limit int) ([]model.Booking, error)
	// ReclaimBooking releases a lapsed booking's seats and removes the
	// booking record in one transaction.
	ReclaimBooking(ctx context.Context, b *model.Booking) error
	// ReclaimExpiredSeats clears any lapsed holds left directly on seat
	// rows, returning the number of seats freed.
	ReclaimExpiredSeats(ctx context.Context) (int64, error)
}

// SQLStore implements Store on top of the repositories.
type SQLStore struct {
	db       *sql.DB
	seats    *repository.SeatRepo
	bookings *repository.BookingRepo
}

// NewSQLStore wires a Store over the given database and repositories.
func NewSQLStore(db *sql.DB, seats *repository.SeatRepo, bookings *repository.BookingRepo) *SQLStore {
	return &SQLStore{db: db, seats: seats, bookings: bookings}
}

// ListExpiredUnpaid delegates to the booking repository.
func (s *SQLStore) ListExpiredUnpaid(ctx context.Context, limit int) ([]model.Booking, error) {
	return s.bookings.ListExpiredUnpaid(ctx, limit)
}

// ReclaimBooking deletes a lapsed booking and frees its seats inside a
// single transaction, so a crash mid-reclaim never leaves seats freed
// while the booking still points at them.  The guarded booking delete goes
// first: it takes the row lock the payment confirmation also takes, and
// when it matches nothing the booking got paid (or reclaimed) after being
// listed, so both the seat links and the seats must stay untouched.
func (s *SQLStore) ReclaimBooking(ctx context.Context, b *model.Booking) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	deleted, err := s.bookings.DeleteTx(ctx, tx, b.ID)
	if err != nil {
		return err
	}
	if !deleted {
		return nil
	}
	if err := s.seats.ReleaseForBookingTx(ctx, tx, b.SeatIDs); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ReclaimExpiredSeats delegates to the seat repository.
func (s *SQLStore) ReclaimExpiredSeats(ctx context.Context) (int64, error) {
	return s.seats.ReclaimExpired(ctx)
}

// Reclaimer periodically frees seats whose holds have lapsed. Two passes
// run on each tick: the booking sweep reclaims whole expired bookings, and
// the seat sweep clears stray lapsed holds that no booking references
// (abandoned pre-booking holds, or leftovers from a failed reclaim).
type Reclaimer struct {
	store    Store
	interval time.Duration
	batch    int
}

// NewReclaimer builds a reclaimer sweeping every interval, processing at
// most batch expired bookings per tick.
func NewReclaimer(store Store, interval time.Duration, batch int) *Reclaimer {
	if interval <= 0 {
		interval = time.Minute
	}
	if batch <= 0 {
		batch = 100
	}
	return &Reclaimer{store: store, interval: interval, batch: batch}
}

// Run sweeps once immediately, then on every tick until ctx is cancelled.
// The immediate sweep matters after a restart: holds that lapsed while the
// process was down are reclaimed before the server takes traffic for long.
func (r *Reclaimer) Run(ctx context.Context) {
	log.Printf("reclaimer: started, sweeping every %s", r.interval)
	r.Sweep(ctx)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Println("reclaimer: stopped")
			return
		case <-ticker.C:
			r.Sweep(ctx)
		}
	}
}

// Sweep performs one reclamation pass. Failures on individual bookings are
// logged and skipped; one poisoned row must not stall the whole sweep.
func (r *Reclaimer) Sweep(ctx context.Context) {
	expired, err := r.store.ListExpiredUnpaid(ctx, r.batch)
	if err != nil {
		log.Printf("reclaimer: list expired bookings: %v", err)
	} else {
		reclaimed := 0
		for i := range expired {
			b := &expired[i]
			if err := r.store.ReclaimBooking(ctx, b); err != nil {
				log.Printf("reclaimer: reclaim booking %d: %v", b.ID, err)
				continue
			}
			reclaimed++
		}
		if reclaimed > 0 {
			log.Printf("reclaimer: reclaimed %d expired booking(s)", reclaimed)
		}
	}

	freed, err := r.store.ReclaimExpiredSeats(ctx)
	if err != nil {
		log.Printf("reclaimer: seat sweep: %v", err)
		return
	}
	if freed > 0 {
		log.Printf("reclaimer: freed %d seat(s) with lapsed holds", freed)
	}
}
