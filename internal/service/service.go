// Package service holds the coordinators that mutate state on behalf of
// an authenticated customer and announce the result on the event bus.
package service

import (
	"context"

	"github.com/iliyamo/linkboard/internal/model"
	"github.com/iliyamo/linkboard/internal/repository"
)

// CustomerStore is the subset of repository.CustomerRepo the services use.
type CustomerStore interface {
	Create(ctx context.Context, name, email, passwordHash string) (model.Customer, error)
	GetByEmail(ctx context.Context, email string) (model.Customer, error)
	GetByID(ctx context.Context, id uint64) (model.Customer, error)
}

// LinkStore is the subset of repository.LinkRepo the services use.
type LinkStore interface {
	Create(ctx context.Context, url, description string, postedByID *uint64) (model.Link, error)
	GetByID(ctx context.Context, id uint64) (model.Link, error)
	Count(ctx context.Context, q repository.FeedQuery) (int64, error)
	List(ctx context.Context, q repository.FeedQuery) ([]model.Link, error)
}

// VoteStore is the subset of repository.VoteRepo the services use.
// Create must return repository.ErrDuplicate when the (customer, link)
// pair already exists, atomically with the insert.
type VoteStore interface {
	Find(ctx context.Context, customerID, linkID uint64) (model.Vote, error)
	Create(ctx context.Context, customerID, linkID uint64) (model.Vote, error)
	ListByLink(ctx context.Context, linkID uint64) ([]model.Vote, error)
}

// Recorder counts domain outcomes.  metrics.Collector implements it.
type Recorder interface {
	LinkPosted()
	VoteCast()
	DuplicateVote()
}

type nopRecorder struct{}

func (nopRecorder) LinkPosted()    {}
func (nopRecorder) VoteCast()      {}
func (nopRecorder) DuplicateVote() {}

func recorderOrNop(r Recorder) Recorder {
	if r == nil {
		return nopRecorder{}
	}
	return r
}
