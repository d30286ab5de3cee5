package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

var seatCols = []string{"id", "show_id", "screen_id", "row_label", "seat_number", "status",
	"is_held", "held_by", "held_until", "created_at", "updated_at"}

// TestHoldSeatsTxConflictLeavesBatchUntouched exercises the all-or-nothing
// hold: when one seat of the batch carries a live hold owned by someone
// else, no UPDATE is issued at all and the offending seat is reported.
// The mock fails the test if any unexpected statement reaches the store.
func TestHoldSeatsTxConflictLeavesBatchUntouched(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	live := now.Add(3 * time.Minute)
	rows := sqlmock.NewRows(seatCols).
		AddRow(1, 9, 2, "A", 1, model.SeatAvailable, false, nil, nil, now, now).
		AddRow(2, 9, 2, "A", 2, model.SeatAvailable, true, "user:77", live, now, now).
		AddRow(3, 9, 2, "A", 3, model.SeatAvailable, false, nil, nil, now, now)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM seats").WillReturnRows(rows)
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	repo := NewSeatRepo(db)
	conflicted, err := repo.HoldSeatsTx(context.Background(), tx, 9, []uint64{1, 2, 3}, model.GuestHolder("g1"), live)
	assert.ErrorIs(t, err, ErrSeatConflict)
	assert.Equal(t, []uint64{2}, conflicted)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// A batch referencing a seat that does not exist for the show fails as a
// whole before any write.
func TestHoldSeatsTxMissingSeat(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	rows := sqlmock.NewRows(seatCols).
		AddRow(1, 9, 2, "A", 1, model.SeatAvailable, false, nil, nil, now, now)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM seats").WillReturnRows(rows)
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	repo := NewSeatRepo(db)
	_, err = repo.HoldSeatsTx(context.Background(), tx, 9, []uint64{1, 999}, model.GuestHolder("g1"), now.Add(time.Minute))
	assert.ErrorIs(t, err, ErrSeatNotFound)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestHoldSeatsTxSameHolderRefresh covers the idempotent re-hold: seats
// already held by the caller pass the availability check and the UPDATE
// counting every matched row succeeds, extending the expiry.
func TestHoldSeatsTxSameHolderRefresh(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now().UTC()
	live := now.Add(2 * time.Minute)
	rows := sqlmock.NewRows(seatCols).
		AddRow(1, 9, 2, "A", 1, model.SeatAvailable, true, "guest:g1", live, now, now).
		AddRow(2, 9, 2, "A", 2, model.SeatAvailable, true, "guest:g1", live, now, now)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .+ FROM seats").WillReturnRows(rows)
	mock.ExpectExec("UPDATE seats SET is_held = 1").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	repo := NewSeatRepo(db)
	conflicted, err := repo.HoldSeatsTx(context.Background(), tx, 9, []uint64{1, 2}, model.GuestHolder("g1"), now.Add(5*time.Minute))
	require.NoError(t, err)
	assert.Nil(t, conflicted)
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestConfirmBookedTxExpiredHold checks the confirmation guard: when the
// guarded UPDATE matches fewer rows than the batch (a hold lapsed, or the
// seat was reclaimed), ErrHoldExpired comes back so the caller aborts the
// surrounding transaction.
func TestConfirmBookedTxExpiredHold(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE seats SET status = 'BOOKED'").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	repo := NewSeatRepo(db)
	err = repo.ConfirmBookedTx(context.Background(), tx, 9, []uint64{1, 2}, model.GuestHolder("g1"))
	assert.ErrorIs(t, err, ErrHoldExpired)
	require.NoError(t, tx.Rollback())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestConfirmBookedTxAllHeld(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE seats SET status = 'BOOKED'").WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	repo := NewSeatRepo(db)
	require.NoError(t, repo.ConfirmBookedTx(context.Background(), tx, 9, []uint64{1, 2}, model.GuestHolder("g1")))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}
