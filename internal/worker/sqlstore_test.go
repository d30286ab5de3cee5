package worker

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
	"github.com/iliyamo/movie-ticket-booking/internal/repository"
)

func newStore(t *testing.T) (*SQLStore, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewSQLStore(db, repository.NewSeatRepo(db), repository.NewBookingRepo(db)), mock
}

// TestReclaimBookingReleasesSeats covers the normal sweep path: the
// guarded booking delete succeeds, the seat links go with it and the seats
// are reset to available, all in one transaction.
func TestReclaimBookingReleasesSeats(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM bookings").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM booking_seats").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("UPDATE seats SET status = 'AVAILABLE'").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	b := &model.Booking{ID: 7, SeatIDs: []uint64{11, 12}}
	require.NoError(t, store.ReclaimBooking(context.Background(), b))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestReclaimBookingSkipsPaidBooking pins down the race with a late
// confirmation: a booking that turned PAID after being listed survives the
// sweep with its seat links and seats untouched.  The mock errors out if
// any statement beyond the guarded delete is issued.
func TestReclaimBookingSkipsPaidBooking(t *testing.T) {
	store, mock := newStore(t)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM bookings").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	b := &model.Booking{ID: 7, SeatIDs: []uint64{11, 12}}
	require.NoError(t, store.ReclaimBooking(context.Background(), b))
	assert.NoError(t, mock.ExpectationsWereMet())
}
