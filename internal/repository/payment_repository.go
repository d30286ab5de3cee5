package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/movie-ticket-booking/internal/database"
	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// PaymentRepo persists settled gateway transactions.  The unique val_id
// column is the storage-level idempotency guard for success callbacks.
type PaymentRepo struct {
	db *sql.DB
}

// NewPaymentRepo returns a PaymentRepo bound to the given database.
func NewPaymentRepo(db *sql.DB) *PaymentRepo { return &PaymentRepo{db: db} }

// CreateTx inserts a payment record within the confirmation transaction.
// A duplicate validation ID returns ErrDuplicatePayment so the caller can
// treat a replayed callback as already processed.
func (r *PaymentRepo) CreateTx(ctx context.Context, tx *sql.Tx, p *model.Payment) error {
	const q = `INSERT INTO payments (booking_id, val_id, amount_cents, currency, card_type, card_issuer, tran_date)
			   VALUES (?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, q, p.BookingID, p.ValID, p.AmountCents, p.Currency, p.CardType, p.CardIssuer, p.TranDate)
	if err != nil {
		if database.IsDuplicateEntry(err) {
			return ErrDuplicatePayment
		}
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	p.ID = uint64(id)
	return nil
}

// GetByBookingID returns the payment settling a booking, or nil when the
// booking is unpaid.
func (r *PaymentRepo) GetByBookingID(ctx context.Context, bookingID uint64) (*model.Payment, error) {
	const q = `SELECT id, booking_id, val_id, amount_cents, currency, card_type, card_issuer, tran_date, created_at
			   FROM payments WHERE booking_id = ? LIMIT 1`
	var p model.Payment
	err := r.db.QueryRowContext(ctx, q, bookingID).Scan(&p.ID, &p.BookingID, &p.ValID,
		&p.AmountCents, &p.Currency, &p.CardType, &p.CardIssuer, &p.TranDate, &p.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}
