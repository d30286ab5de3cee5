package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// fakeStore records reclaim calls and can fail selected bookings.
type fakeStore struct {
	expired    []model.Booking
	listErr    error
	failIDs    map[uint64]bool
	reclaimed  []uint64
	seatsFreed int64
	seatErr    error
	sweeps     int
}

func (f *fakeStore) ListExpiredUnpaid(ctx context.Context, limit int) ([]model.Booking, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	if limit < len(f.expired) {
		return f.expired[:limit], nil
	}
	return f.expired, nil
}

func (f *fakeStore) ReclaimBooking(ctx context.Context, b *model.Booking) error {
	if f.failIDs[b.ID] {
		return errors.New("lock wait timeout")
	}
	f.reclaimed = append(f.reclaimed, b.ID)
	return nil
}

func (f *fakeStore) ReclaimExpiredSeats(ctx context.Context) (int64, error) {
	f.sweeps++
	return f.seatsFreed, f.seatErr
}

func TestSweepReclaimsExpiredBookings(t *testing.T) {
	store := &fakeStore{
		expired: []model.Booking{{ID: 1}, {ID: 2}, {ID: 3}},
	}
	r := NewReclaimer(store, time.Minute, 100)
	r.Sweep(context.Background())

	assert.Equal(t, []uint64{1, 2, 3}, store.reclaimed)
	assert.Equal(t, 1, store.sweeps, "seat sweep runs once per pass")
}

func TestSweepIsolatesPerBookingFailures(t *testing.T) {
	store := &fakeStore{
		expired: []model.Booking{{ID: 1}, {ID: 2}, {ID: 3}},
		failIDs: map[uint64]bool{2: true},
	}
	r := NewReclaimer(store, time.Minute, 100)
	r.Sweep(context.Background())

	// booking 2 failed but 1 and 3 were still reclaimed
	assert.Equal(t, []uint64{1, 3}, store.reclaimed)
}

func TestSweepRunsSeatSweepEvenWhenListFails(t *testing.T) {
	store := &fakeStore{listErr: errors.New("db down")}
	r := NewReclaimer(store, time.Minute, 100)
	r.Sweep(context.Background())

	assert.Equal(t, 1, store.sweeps, "stray-hold sweep is independent of the booking sweep")
}

func TestSweepHonorsBatchLimit(t *testing.T) {
	store := &fakeStore{
		expired: []model.Booking{{ID: 1}, {ID: 2}, {ID: 3}},
	}
	r := NewReclaimer(store, time.Minute, 2)
	r.Sweep(context.Background())

	assert.Equal(t, []uint64{1, 2}, store.reclaimed)
}

func TestRunStopsOnContextCancel(t *testing.T) {
	store := &fakeStore{}
	r := NewReclaimer(store, 10*time.Millisecond, 10)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		r.Run(ctx)
		close(done)
	}()

	time.Sleep(35 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("reclaimer did not stop after cancel")
	}
	assert.GreaterOrEqual(t, store.sweeps, 2, "boot sweep plus at least one tick")
}

func TestNewReclaimerDefaults(t *testing.T) {
	r := NewReclaimer(&fakeStore{}, 0, 0)
	assert.Equal(t, time.Minute, r.interval)
	assert.Equal(t, 100, r.batch)
}
