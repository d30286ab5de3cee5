package repository

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDeleteTxSkipsPaidBooking guards the sweep against racing a late
// confirmation: when the guarded booking delete matches nothing, the seat
// links must be left alone too.  The mock fails the test if the
// booking_seats delete is issued anyway.
func TestDeleteTxSkipsPaidBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM bookings").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	repo := NewBookingRepo(db)
	deleted, err := repo.DeleteTx(context.Background(), tx, 7)
	require.NoError(t, err)
	assert.False(t, deleted)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteTxRemovesSeatLinks(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM booking_seats").WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	repo := NewBookingRepo(db)
	deleted, err := repo.DeleteTx(context.Background(), tx, 7)
	require.NoError(t, err)
	assert.True(t, deleted)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestMarkPaidTxSingleShot checks the PAID transition is one-way: a second
// attempt matches no row and reports the duplicate instead of double
// confirming.
func TestMarkPaidTxSingleShot(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE bookings SET payment_status = 'PAID'").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE bookings SET payment_status = 'PAID'").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	repo := NewBookingRepo(db)
	require.NoError(t, repo.MarkPaidTx(context.Background(), tx, 7, "VISA"))
	err = repo.MarkPaidTx(context.Background(), tx, 7, "VISA")
	assert.ErrorIs(t, err, ErrDuplicatePayment)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestSetTranIDResetsOutcome checks that initiating a fresh payment
// session clears an earlier FAILED or CANCELLED outcome so the attempt can
// be retried inside the hold window.
func TestSetTranIDResetsOutcome(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("payment_status = 'PENDING', is_cancelled = 0").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewBookingRepo(db)
	require.NoError(t, repo.SetTranID(context.Background(), 7, "tran-2"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A PAID or lapsed booking matches nothing and the caller learns the
// session could not be attached.
func TestSetTranIDRefusesSettledBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("payment_status = 'PENDING', is_cancelled = 0").
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewBookingRepo(db)
	err = repo.SetTranID(context.Background(), 7, "tran-3")
	assert.ErrorIs(t, err, ErrBookingNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
