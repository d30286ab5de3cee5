package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// BookingRepo provides persistence for bookings and their seat links.  A
// booking row plus its booking_seats rows are always written inside the
// same transaction as the seat holds they depend on; the repository only
// exposes Tx variants for the mutating paths that take part in the
// reservation and confirmation flows.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, user_id, guest_token, show_id, screen_id, movie_id,
			   total_price_cents, payment_status, payment_method, tran_id,
			   expires_at, is_cancelled, created_at, updated_at`

func scanBooking(row interface{ Scan(...interface{}) error }) (model.Booking, error) {
	var b model.Booking
	var userID sql.NullInt64
	var guestToken, method, tranID sql.NullString
	err := row.Scan(&b.ID, &userID, &guestToken, &b.ShowID, &b.ScreenID, &b.MovieID,
		&b.TotalPriceCents, &b.PaymentStatus, &method, &tranID,
		&b.ExpiresAt, &b.IsCancelled, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return model.Booking{}, err
	}
	if userID.Valid {
		v := uint64(userID.Int64)
		b.UserID = &v
	}
	if guestToken.Valid {
		v := guestToken.String
		b.GuestToken = &v
	}
	if method.Valid {
		v := method.String
		b.PaymentMethod = &v
	}
	if tranID.Valid {
		v := tranID.String
		b.TranID = &v
	}
	return b, nil
}

// CreateTx inserts a new PENDING booking and its booking_seats rows within
// the provided transaction, populating the generated ID on the passed
// booking.  Exactly one of UserID and GuestToken must be set; the CHECK is
// enforced here rather than left to handler validation so no code path can
// write an ownerless booking.
func (r *BookingRepo) CreateTx(ctx context.Context, tx *sql.Tx, b *model.Booking) error {
	if (b.UserID == nil) == (b.GuestToken == nil) {
		return ErrForbidden
	}
	const q = `INSERT INTO bookings
			   (user_id, guest_token, show_id, screen_id, movie_id,
				total_price_cents, payment_status, expires_at)
			   VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	var userID interface{}
	if b.UserID != nil {
		userID = *b.UserID
	}
	var guestToken interface{}
	if b.GuestToken != nil {
		guestToken = *b.GuestToken
	}
	result, err := tx.ExecContext(ctx, q, userID, guestToken, b.ShowID, b.ScreenID,
		b.MovieID, b.TotalPriceCents, model.PaymentPending, b.ExpiresAt.UTC())
	if err != nil {
		return err
	}
	id, err := result.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)
	b.PaymentStatus = model.PaymentPending
	if len(b.SeatIDs) == 0 {
		return nil
	}
	query := `INSERT INTO booking_seats (booking_id, seat_id) VALUES `
	args := make([]interface{}, 0, len(b.SeatIDs)*2)
	for i, sid := range b.SeatIDs {
		if i > 0 {
			query += ","
		}
		query += "(?, ?)"
		args = append(args, b.ID, sid)
	}
	_, err = tx.ExecContext(ctx, query, args...)
	return err
}

// seatIDsFor loads the seat IDs linked to a booking.
func (r *BookingRepo) seatIDsFor(ctx context.Context, q interface {
	QueryContext(context.Context, string, ...interface{}) (*sql.Rows, error)
}, bookingID uint64) ([]uint64, error) {
	rows, err := q.QueryContext(ctx, `SELECT seat_id FROM booking_seats WHERE booking_id = ?`, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var ids []uint64
	for rows.Next() {
		var id uint64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// GetByID returns a booking with its seat IDs populated, or
// ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, bookingID uint64) (*model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, bookingID))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if b.SeatIDs, err = r.seatIDsFor(ctx, r.db, b.ID); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetByTranID resolves a booking from the external transaction reference
// stored when payment was initiated.  Payment callbacks key on this.
func (r *BookingRepo) GetByTranID(ctx context.Context, tranID string) (*model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE tran_id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, tranID))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if b.SeatIDs, err = r.seatIDsFor(ctx, r.db, b.ID); err != nil {
		return nil, err
	}
	return &b, nil
}

// GetByTranIDTx is GetByTranID inside a transaction, locking the booking
// row so two concurrent success callbacks for the same transaction
// serialize on it.
func (r *BookingRepo) GetByTranIDTx(ctx context.Context, tx *sql.Tx, tranID string) (*model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE tran_id = ? FOR UPDATE`
	b, err := scanBooking(tx.QueryRowContext(ctx, q, tranID))
	if err == sql.ErrNoRows {
		return nil, ErrBookingNotFound
	}
	if err != nil {
		return nil, err
	}
	if b.SeatIDs, err = r.seatIDsFor(ctx, tx, b.ID); err != nil {
		return nil, err
	}
	return &b, nil
}

// ListByHolder returns all bookings owned by the given identity, newest
// first, with seat IDs populated.
func (r *BookingRepo) ListByHolder(ctx context.Context, holder model.Holder) ([]model.Booking, error) {
	var q string
	var arg interface{}
	switch holder.Kind() {
	case model.HolderUser:
		q = `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = ? ORDER BY created_at DESC`
		arg = holder.UserID()
	case model.HolderGuest:
		q = `SELECT ` + bookingColumns + ` FROM bookings WHERE guest_token = ? ORDER BY created_at DESC`
		arg = holder.GuestToken()
	default:
		return []model.Booking{}, nil
	}
	rows, err := r.db.QueryContext(ctx, q, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range bookings {
		if bookings[i].SeatIDs, err = r.seatIDsFor(ctx, r.db, bookings[i].ID); err != nil {
			return nil, err
		}
	}
	return bookings, nil
}

// SetTranID stores the gateway transaction reference when a payment
// session is initiated and resets the booking to PENDING, clearing an
// earlier FAILED or CANCELLED outcome so the attempt can be retried.
// Re-initiating overwrites the previous reference; only the latest session
// can confirm the booking.  PAID and expired bookings are never touched.
func (r *BookingRepo) SetTranID(ctx context.Context, bookingID uint64, tranID string) error {
	const q = `UPDATE bookings SET tran_id = ?, payment_status = 'PENDING', is_cancelled = 0
			   WHERE id = ? AND payment_status <> 'PAID' AND expires_at > UTC_TIMESTAMP()`
	res, err := r.db.ExecContext(ctx, q, tranID, bookingID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// MarkPaidTx flips an unpaid booking to PAID within the confirmation
// transaction.  The guard makes the transition single-shot even if two
// callbacks race past the earlier idempotency check.  FAILED and CANCELLED
// bookings can still be promoted: the validator API, not callback ordering,
// decides whether money settled.
func (r *BookingRepo) MarkPaidTx(ctx context.Context, tx *sql.Tx, bookingID uint64, method string) error {
	const q = `UPDATE bookings SET payment_status = 'PAID', payment_method = ?, is_cancelled = 0
			   WHERE id = ? AND payment_status <> 'PAID'`
	res, err := tx.ExecContext(ctx, q, method, bookingID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrDuplicatePayment
	}
	return nil
}

// UpdateStatus records an explicit fail or cancel callback.  This is a
// plain status write: seats stay held so the customer can retry payment
// inside the hold window; reclamation is the sweep's job.
func (r *BookingRepo) UpdateStatus(ctx context.Context, bookingID uint64, status string) error {
	q := `UPDATE bookings SET payment_status = ? WHERE id = ? AND payment_status <> 'PAID'`
	if status == model.PaymentCancelled {
		q = `UPDATE bookings SET payment_status = ?, is_cancelled = 1 WHERE id = ? AND payment_status <> 'PAID'`
	}
	res, err := r.db.ExecContext(ctx, q, status, bookingID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}

// ListExpiredUnpaid returns bookings whose expiry has passed without
// payment, seat IDs populated, oldest first.  The limit bounds a single
// sweep pass.
func (r *BookingRepo) ListExpiredUnpaid(ctx context.Context, limit int) ([]model.Booking, error) {
	q := `SELECT ` + bookingColumns + ` FROM bookings
			   WHERE payment_status <> 'PAID' AND expires_at < UTC_TIMESTAMP()
			   ORDER BY expires_at ASC LIMIT ?`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var bookings []model.Booking
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range bookings {
		if bookings[i].SeatIDs, err = r.seatIDsFor(ctx, r.db, bookings[i].ID); err != nil {
			return nil, err
		}
	}
	return bookings, nil
}

// DeleteTx removes an unpaid booking and its seat links within the
// provided transaction.  The guarded booking delete runs first: when it
// matches nothing (the booking got paid after being listed, or was already
// reclaimed) the seat links are left alone and false is returned so the
// caller skips the seat release as well.
func (r *BookingRepo) DeleteTx(ctx context.Context, tx *sql.Tx, bookingID uint64) (bool, error) {
	res, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ? AND payment_status <> 'PAID'`, bookingID)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM booking_seats WHERE booking_id = ?`, bookingID); err != nil {
		return false, err
	}
	return true, nil
}
