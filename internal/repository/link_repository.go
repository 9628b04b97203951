package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/linkboard/internal/model"
)

// LinkRepo provides data access to the links table.
type LinkRepo struct {
	db *sql.DB
}

// NewLinkRepo returns a new LinkRepo bound to the provided database.
func NewLinkRepo(db *sql.DB) *LinkRepo { return &LinkRepo{db: db} }

const linkColumns = `id, description, url, posted_by_id, created_at`

// Create inserts a link.  postedByID may be nil.
func (r *LinkRepo) Create(ctx context.Context, url, description string, postedByID *uint64) (model.Link, error) {
	var poster sql.NullInt64
	if postedByID != nil {
		poster = sql.NullInt64{Int64: int64(*postedByID), Valid: true}
	}
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO links (description, url, posted_by_id) VALUES (?, ?, ?)`,
		description, url, poster,
	)
	if err != nil {
		return model.Link{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Link{}, err
	}
	return r.GetByID(ctx, uint64(id))
}

// GetByID fetches a link by id or returns ErrNotFound.
func (r *LinkRepo) GetByID(ctx context.Context, id uint64) (model.Link, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+linkColumns+` FROM links WHERE id = ?`, id)
	l, err := scanLink(row)
	return l, notFound(err)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanLink(s rowScanner) (model.Link, error) {
	var (
		l      model.Link
		poster sql.NullInt64
	)
	if err := s.Scan(&l.ID, &l.Description, &l.URL, &poster, &l.CreatedAt); err != nil {
		return model.Link{}, err
	}
	if poster.Valid {
		id := uint64(poster.Int64)
		l.PostedByID = &id
	}
	return l, nil
}
