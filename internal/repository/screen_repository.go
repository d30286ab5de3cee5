package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// ScreenRepo manages screens and their seating grid dimensions.
type ScreenRepo struct {
	db *sql.DB
}

// NewScreenRepo constructs a ScreenRepo with the given DB handle.
func NewScreenRepo(db *sql.DB) *ScreenRepo { return &ScreenRepo{db: db} }

// Create inserts a screen and assigns the generated ID back to the struct.
func (r *ScreenRepo) Create(ctx context.Context, s *model.Screen) error {
	const q = `INSERT INTO screens (name, seat_rows, seat_cols) VALUES (?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.Name, s.SeatRows, s.SeatCols)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	return nil
}

// GetByID retrieves a screen, returning ErrScreenNotFound when absent.
func (r *ScreenRepo) GetByID(ctx context.Context, id uint64) (*model.Screen, error) {
	const q = `SELECT id, name, seat_rows, seat_cols, created_at FROM screens WHERE id = ?`
	var s model.Screen
	err := r.db.QueryRowContext(ctx, q, id).Scan(&s.ID, &s.Name, &s.SeatRows, &s.SeatCols, &s.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrScreenNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}
