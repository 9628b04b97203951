package repository

import (
	"context"
	"database/sql"

	"github.com/iliyamo/linkboard/internal/model"
)

// VoteRepo provides data access to the votes table.  The table's
// UNIQUE(link_id, customer_id) key is what makes a vote at-most-once;
// Create relies on it instead of any locking.
type VoteRepo struct {
	db *sql.DB
}

// NewVoteRepo returns a new VoteRepo bound to the provided database.
func NewVoteRepo(db *sql.DB) *VoteRepo { return &VoteRepo{db: db} }

// Find returns the vote cast by customerID on linkID, or ErrNotFound.
func (r *VoteRepo) Find(ctx context.Context, customerID, linkID uint64) (model.Vote, error) {
	var v model.Vote
	err := r.db.QueryRowContext(ctx,
		`SELECT id, customer_id, link_id, created_at
		 FROM votes
		 WHERE link_id = ? AND customer_id = ?
		 LIMIT 1`,
		linkID, customerID,
	).Scan(&v.ID, &v.CustomerID, &v.LinkID, &v.CreatedAt)
	return v, notFound(err)
}

// Create inserts a vote.  When another request already inserted the same
// pair, the unique key rejects this insert and ErrDuplicate is returned.
func (r *VoteRepo) Create(ctx context.Context, customerID, linkID uint64) (model.Vote, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO votes (customer_id, link_id) VALUES (?, ?)`,
		customerID, linkID,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return model.Vote{}, ErrDuplicate
		}
		return model.Vote{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return model.Vote{}, err
	}
	var v model.Vote
	err = r.db.QueryRowContext(ctx,
		`SELECT id, customer_id, link_id, created_at FROM votes WHERE id = ?`, id,
	).Scan(&v.ID, &v.CustomerID, &v.LinkID, &v.CreatedAt)
	return v, notFound(err)
}

// ListByLink returns every vote on linkID, oldest first.
func (r *VoteRepo) ListByLink(ctx context.Context, linkID uint64) ([]model.Vote, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, customer_id, link_id, created_at
		 FROM votes
		 WHERE link_id = ?
		 ORDER BY id ASC`,
		linkID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	votes := []model.Vote{}
	for rows.Next() {
		var v model.Vote
		if err := rows.Scan(&v.ID, &v.CustomerID, &v.LinkID, &v.CreatedAt); err != nil {
			return nil, err
		}
		votes = append(votes, v)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return votes, nil
}
