package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// TicketRepo persists issued tickets.  Tickets are write-once: they are
// created in bulk inside the payment confirmation transaction and only
// ever read afterwards.
type TicketRepo struct {
	db *sql.DB
}

// NewTicketRepo returns a TicketRepo bound to the given database.
func NewTicketRepo(db *sql.DB) *TicketRepo { return &TicketRepo{db: db} }

// CreateBulkTx inserts one ticket per entry in a single statement within
// the provided transaction.  Passing an empty slice has no effect.
func (r *TicketRepo) CreateBulkTx(ctx context.Context, tx *sql.Tx, tickets []model.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	query := `INSERT INTO tickets (booking_id, seat_id, show_id, holder_key, code) VALUES `
	args := make([]interface{}, 0, len(tickets)*5)
	for i, t := range tickets {
		if i > 0 {
			query += ","
		}
		query += "(?, ?, ?, ?, ?)"
		args = append(args, t.BookingID, t.SeatID, t.ShowID, t.HolderKey, t.Code)
	}
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}

// ListByBooking returns the tickets of a booking ordered by seat.
func (r *TicketRepo) ListByBooking(ctx context.Context, bookingID uint64) ([]model.Ticket, error) {
	const q = `SELECT id, booking_id, seat_id, show_id, holder_key, code, created_at
			   FROM tickets WHERE booking_id = ? ORDER BY seat_id`
	rows, err := r.db.QueryContext(ctx, q, bookingID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tickets := make([]model.Ticket, 0)
	for rows.Next() {
		var t model.Ticket
		if err := rows.Scan(&t.ID, &t.BookingID, &t.SeatID, &t.ShowID, &t.HolderKey, &t.Code, &t.CreatedAt); err != nil {
			return nil, err
		}
		tickets = append(tickets, t)
	}
	return tickets, rows.Err()
}

// CountByBooking returns how many tickets exist for a booking.  The IPN
// handler logs it so operators can see whether confirmation completed.
func (r *TicketRepo) CountByBooking(ctx context.Context, bookingID uint64) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tickets WHERE booking_id = ?`, bookingID).Scan(&n)
	return n, err
}
