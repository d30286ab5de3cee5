package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/movie-ticket-booking/internal/model"
)

// ShowRepo manages persistence for shows.  A show is the unit seats hang
// off: scheduling one creates the seat grid, and booking flows validate
// the show before touching any seat.
type ShowRepo struct {
	db *sql.DB
}

// NewShowRepo constructs a ShowRepo with the given DB handle.
func NewShowRepo(db *sql.DB) *ShowRepo { return &ShowRepo{db: db} }

// DB exposes the underlying sql.DB so callers can begin transactions
// spanning multiple repositories.
func (r *ShowRepo) DB() *sql.DB { return r.db }

const showColumns = `id, movie_id, screen_id, starts_at, ends_at, base_price_cents, status, created_at, updated_at`

func scanShow(row interface{ Scan(...interface{}) error }) (model.Show, error) {
	var s model.Show
	err := row.Scan(&s.ID, &s.MovieID, &s.ScreenID, &s.StartsAt, &s.EndsAt,
		&s.BasePriceCents, &s.Status, &s.CreatedAt, &s.UpdatedAt)
	return s, err
}

// Create inserts a new show and assigns the generated ID back to the
// struct.  Status defaults to SCHEDULED in the database.
func (r *ShowRepo) Create(ctx context.Context, s *model.Show) error {
	const q = `INSERT INTO shows (movie_id, screen_id, starts_at, ends_at, base_price_cents) VALUES (?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, s.MovieID, s.ScreenID, s.StartsAt.UTC(), s.EndsAt.UTC(), s.BasePriceCents)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	s.ID = uint64(id)
	sel := `SELECT ` + showColumns + ` FROM shows WHERE id = ?`
	*s, err = scanShow(r.db.QueryRowContext(ctx, sel, s.ID))
	return err
}

// GetByID retrieves a show by its ID.  It returns ErrShowNotFound when no
// matching row exists.
func (r *ShowRepo) GetByID(ctx context.Context, id uint64) (*model.Show, error) {
	q := `SELECT ` + showColumns + ` FROM shows WHERE id = ?`
	s, err := scanShow(r.db.QueryRowContext(ctx, q, id))
	if err == sql.ErrNoRows {
		return nil, ErrShowNotFound
	}
	if err != nil {
		return nil, err
	}
	return &s, nil
}

// List returns all shows ordered by start time.  Used by the public browse
// endpoints; seat availability is served separately per show.
func (r *ShowRepo) List(ctx context.Context) ([]model.Show, error) {
	q := `SELECT ` + showColumns + ` FROM shows ORDER BY starts_at`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	shows := make([]model.Show, 0)
	for rows.Next() {
		s, err := scanShow(rows)
		if err != nil {
			return nil, err
		}
		shows = append(shows, s)
	}
	return shows, rows.Err()
}
