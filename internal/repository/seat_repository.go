package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// SeatRepo owns the per-seat state machine: AVAILABLE seats, the hold
// overlay (is_held/held_by/held_until) and the terminal BOOKED status.
// All mutating batch operations are all-or-nothing and run inside a
// caller-provided transaction so that seat state and booking records move
// together.  Expiry comparisons always use the timestamp, never the
// is_held flag alone, so a lapsed hold needs no cleanup write before the
// seat can be acquired again.
type SeatRepo struct {
	db *sql.DB
}

// NewSeatRepo returns a new SeatRepo bound to the given database.
func NewSeatRepo(db *sql.DB) *SeatRepo { return &SeatRepo{db: db} }

// DB exposes the underlying handle so handlers can open transactions that
// span seats and bookings.
func (r *SeatRepo) DB() *sql.DB { return r.db }

const seatColumns = `id, show_id, screen_id, row_label, seat_number, status,
			   is_held, held_by, held_until, created_at, updated_at`

func scanSeat(row interface{ Scan(...interface{}) error }) (model.Seat, error) {
	var s model.Seat
	var heldBy sql.NullString
	var heldUntil sql.NullTime
	err := row.Scan(&s.ID, &s.ShowID, &s.ScreenID, &s.RowLabel, &s.SeatNumber,
		&s.Status, &s.IsHeld, &heldBy, &heldUntil, &s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		return model.Seat{}, err
	}
	if heldBy.Valid {
		v := heldBy.String
		s.HeldBy = &v
	}
	if heldUntil.Valid {
		t := heldUntil.Time
		s.HeldUntil = &t
	}
	return s, nil
}

// placeholders returns a "?, ?, ..." list of the given length.
func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?,", n), ",")
}

// CreateBulk inserts one seat row per entry in a single statement.  It is
// called when a show is scheduled, with one entry per cell of the screen
// grid.  Passing an empty slice has no effect and returns nil.
func (r *SeatRepo) CreateBulk(ctx context.Context, seats []model.Seat) error {
	if len(seats) == 0 {
		return nil
	}
	query := `INSERT INTO seats (show_id, screen_id, row_label, seat_number, status) VALUES `
	args := make([]interface{}, 0, len(seats)*5)
	for i, s := range seats {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, s.ShowID, s.ScreenID, s.RowLabel, s.SeatNumber, model.SeatAvailable)
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// ListByShow returns every seat of a show ordered by row and number.  The
// caller derives the public availability map (AVAILABLE/HELD/BOOKED) from
// the status and hold fields.
func (r *SeatRepo) ListByShow(ctx context.Context, showID uint64) ([]model.Seat, error) {
	q := `SELECT ` + seatColumns + ` FROM seats WHERE show_id = ? ORDER BY row_label, seat_number`
	rows, err := r.db.QueryContext(ctx, q, showID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	seats := make([]model.Seat, 0)
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// GetForShowTx loads the requested seats of a show with row locks
// (SELECT ... FOR UPDATE).  The returned slice may be shorter than the
// requested ID list when some IDs do not exist or belong to another show;
// callers compare lengths and fail with ErrSeatNotFound in that case.
func (r *SeatRepo) GetForShowTx(ctx context.Context, tx *sql.Tx, showID uint64, seatIDs []uint64) ([]model.Seat, error) {
	if len(seatIDs) == 0 {
		return []model.Seat{}, nil
	}
	q := `SELECT ` + seatColumns + ` FROM seats
			   WHERE show_id = ? AND id IN (` + placeholders(len(seatIDs)) + `) FOR UPDATE`
	args := make([]interface{}, 0, len(seatIDs)+1)
	args = append(args, showID)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	rows, err := tx.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var seats []model.Seat
	for rows.Next() {
		s, err := scanSeat(rows)
		if err != nil {
			return nil, err
		}
		seats = append(seats, s)
	}
	return seats, rows.Err()
}

// HoldSeatsTx attempts to place a hold for holder on every seat in the
// batch, expiring at heldUntil.  A seat can be held when it is not BOOKED
// and either carries no live hold or is already held by one of the
// holder's match keys; re-holding by the same holder refreshes the expiry.
// If any seat fails the test, nothing is written and the IDs of the
// offending seats are returned together with ErrSeatConflict; if any
// requested ID is missing from the show, ErrSeatNotFound is returned.
// The row locks taken here are what serializes two competing holders: the
// loser either blocks until the winner commits and then sees the live
// hold, or its transaction is rejected by the store and retried higher up.
func (r *SeatRepo) HoldSeatsTx(ctx context.Context, tx *sql.Tx, showID uint64, seatIDs []uint64, holder model.Holder, heldUntil time.Time) ([]uint64, error) {
	seats, err := r.GetForShowTx(ctx, tx, showID, seatIDs)
	if err != nil {
		return nil, err
	}
	if len(seats) != len(seatIDs) {
		return nil, ErrSeatNotFound
	}
	now := time.Now().UTC()
	var conflicted []uint64
	for i := range seats {
		available := false
		for _, key := range holder.MatchKeys() {
			if seats[i].AvailableTo(key, now) {
				available = true
				break
			}
		}
		if !available {
			conflicted = append(conflicted, seats[i].ID)
		}
	}
	if len(conflicted) > 0 {
		return conflicted, ErrSeatConflict
	}
	q := `UPDATE seats SET is_held = 1, held_by = ?, held_until = ?
			   WHERE show_id = ? AND id IN (` + placeholders(len(seatIDs)) + `)`
	args := make([]interface{}, 0, len(seatIDs)+3)
	args = append(args, holder.Key(), heldUntil.UTC(), showID)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	if n, err := res.RowsAffected(); err == nil && n != int64(len(seatIDs)) {
		// The connection reports matched rows (clientFoundRows), so a
		// same-holder refresh that writes identical values still counts
		// every seat.  Fewer matches means a row vanished despite the
		// locked read; abort so the whole batch stays untouched.
		return nil, ErrSeatConflict
	}
	return nil, nil
}

// ReleaseSeatsTx clears hold fields for seats currently held by one of the
// holder's match keys.  Seats held by someone else, booked, or not held at
// all are silently skipped; the operation is best-effort cleanup tolerant
// of stale client state.  It returns the number of seats released.
func (r *SeatRepo) ReleaseSeatsTx(ctx context.Context, tx *sql.Tx, showID uint64, seatIDs []uint64, holder model.Holder) (int64, error) {
	if len(seatIDs) == 0 {
		return 0, nil
	}
	keys := holder.MatchKeys()
	q := `UPDATE seats SET is_held = 0, held_by = NULL, held_until = NULL
			   WHERE show_id = ? AND status <> 'BOOKED'
				 AND id IN (` + placeholders(len(seatIDs)) + `)
				 AND held_by IN (` + placeholders(len(keys)) + `)`
	args := make([]interface{}, 0, len(seatIDs)+len(keys)+1)
	args = append(args, showID)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	for _, k := range keys {
		args = append(args, k)
	}
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// ConfirmBookedTx promotes held seats to BOOKED and clears the hold
// overlay.  Every seat must still carry a live hold owned by one of the
// holder's match keys; otherwise nothing is written and ErrHoldExpired is
// returned so the caller aborts the surrounding transaction.
func (r *SeatRepo) ConfirmBookedTx(ctx context.Context, tx *sql.Tx, showID uint64, seatIDs []uint64, holder model.Holder) error {
	if len(seatIDs) == 0 {
		return nil
	}
	keys := holder.MatchKeys()
	q := `UPDATE seats SET status = 'BOOKED', is_held = 0, held_by = NULL, held_until = NULL
			   WHERE show_id = ? AND status = 'AVAILABLE'
				 AND id IN (` + placeholders(len(seatIDs)) + `)
				 AND is_held = 1 AND held_until > UTC_TIMESTAMP()
				 AND held_by IN (` + placeholders(len(keys)) + `)`
	args := make([]interface{}, 0, len(seatIDs)+len(keys)+1)
	args = append(args, showID)
	for _, id := range seatIDs {
		args = append(args, id)
	}
	for _, k := range keys {
		args = append(args, k)
	}
	res, err := tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n != int64(len(seatIDs)) {
		return ErrHoldExpired
	}
	return nil
}

// ReleaseForBookingTx force-releases the given seats regardless of holder,
// resetting them to AVAILABLE with no hold fields.  Used by the expiry
// sweep when deleting a stale booking; BOOKED (paid) seats are never
// touched.
func (r *SeatRepo) ReleaseForBookingTx(ctx context.Context, tx *sql.Tx, seatIDs []uint64) error {
	if len(seatIDs) == 0 {
		return nil
	}
	q := `UPDATE seats SET status = 'AVAILABLE', is_held = 0, held_by = NULL, held_until = NULL
			   WHERE status <> 'BOOKED' AND id IN (` + placeholders(len(seatIDs)) + `)`
	args := make([]interface{}, 0, len(seatIDs))
	for _, id := range seatIDs {
		args = append(args, id)
	}
	_, err := tx.ExecContext(ctx, q, args...)
	return err
}

// ReclaimExpired clears the hold overlay on every seat whose hold timestamp
// has lapsed, independent of any owning booking.  It is the defense-in-depth
// pass of the expiry sweep and is safe to run at any frequency: the
// predicate only matches stale state.  It returns the number of seats
// reclaimed.
func (r *SeatRepo) ReclaimExpired(ctx context.Context) (int64, error) {
	const q = `UPDATE seats SET is_held = 0, held_by = NULL, held_until = NULL
			   WHERE is_held = 1 AND status <> 'BOOKED' AND held_until < UTC_TIMESTAMP()`
	res, err := r.db.ExecContext(ctx, q)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Update modifies the label fields of a seat outside the concurrency core
// (admin maintenance).  Booked seats cannot be relabelled.
func (r *SeatRepo) Update(ctx context.Context, seatID uint64, rowLabel string, seatNumber uint32) error {
	const q = `UPDATE seats SET row_label = ?, seat_number = ? WHERE id = ? AND status <> 'BOOKED'`
	res, err := r.db.ExecContext(ctx, q, rowLabel, seatNumber, seatID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSeatNotFound
	}
	return nil
}

// Delete removes a seat that is neither booked nor actively held.  It
// returns ErrSeatConflict when the seat is in use and ErrSeatNotFound when
// it does not exist.
func (r *SeatRepo) Delete(ctx context.Context, seatID uint64) error {
	const q = `DELETE FROM seats
			   WHERE id = ? AND status <> 'BOOKED'
				 AND (is_held = 0 OR held_until IS NULL OR held_until < UTC_TIMESTAMP())`
	res, err := r.db.ExecContext(ctx, q, seatID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		const check = `SELECT id FROM seats WHERE id = ?`
		var id uint64
		if scanErr := r.db.QueryRowContext(ctx, check, seatID).Scan(&id); scanErr == sql.ErrNoRows {
			return ErrSeatNotFound
		}
		return ErrSeatConflict
	}
	return nil
}
