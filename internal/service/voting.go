package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/iliyamo/linkboard/internal/apperr"
	"github.com/iliyamo/linkboard/internal/auth"
	"github.com/iliyamo/linkboard/internal/model"
	"github.com/iliyamo/linkboard/internal/pubsub"
	"github.com/iliyamo/linkboard/internal/repository"
)

// DuplicateVoteError names the link a customer already voted for.
type DuplicateVoteError struct {
	LinkID uint64
}

func (e *DuplicateVoteError) Error() string {
	return fmt.Sprintf("already voted for link: %d", e.LinkID)
}

var errVoteLoginRequired = errors.New("you must login in order to vote")

// VotingService records votes.  At most one vote per (customer, link)
// is guaranteed by the store's unique key; the pre-insert lookup only
// turns the common case into a cheap, friendly error.
type VotingService struct {
	links LinkStore
	votes VoteStore
	bus   *pubsub.Bus
	rec   Recorder
	log   *slog.Logger
}

func NewVotingService(links LinkStore, votes VoteStore, bus *pubsub.Bus, rec Recorder, log *slog.Logger) *VotingService {
	if log == nil {
		log = slog.Default()
	}
	return &VotingService{links: links, votes: votes, bus: bus, rec: recorderOrNop(rec), log: log}
}

// CastVote records the caller's vote on linkID and publishes VoteCreated.
// A second vote for the same link fails with kind DuplicateVote whether
// the lookup or the unique key caught it.
func (s *VotingService) CastVote(ctx context.Context, id auth.Identity, linkID uint64) (model.Vote, error) {
	const op = "service.CastVote"

	customer, ok := id.Customer()
	if !ok {
		return model.Vote{}, apperr.E(op, apperr.Unauthenticated, errVoteLoginRequired)
	}

	if _, err := s.links.GetByID(ctx, linkID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Vote{}, apperr.E(op, apperr.NotFound, errLinkNotFound)
		}
		return model.Vote{}, apperr.E(op, apperr.Internal, err)
	}

	_, err := s.votes.Find(ctx, customer.ID, linkID)
	switch {
	case err == nil:
		return model.Vote{}, s.duplicate(op, linkID)
	case !errors.Is(err, repository.ErrNotFound):
		return model.Vote{}, apperr.E(op, apperr.Internal, err)
	}

	vote, err := s.votes.Create(ctx, customer.ID, linkID)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return model.Vote{}, s.duplicate(op, linkID)
		}
		return model.Vote{}, apperr.E(op, apperr.Internal, err)
	}

	s.bus.NewVote.Publish(pubsub.VoteCreated{Vote: vote})
	s.rec.VoteCast()
	s.log.Info("vote cast",
		slog.Uint64("vote_id", vote.ID),
		slog.Uint64("link_id", linkID),
		slog.Uint64("customer_id", customer.ID))
	return vote, nil
}

func (s *VotingService) duplicate(op string, linkID uint64) error {
	s.rec.DuplicateVote()
	return apperr.E(op, apperr.DuplicateVote, &DuplicateVoteError{LinkID: linkID})
}

// VotesForLink lists the votes on a link.
func (s *VotingService) VotesForLink(ctx context.Context, linkID uint64) ([]model.Vote, error) {
	const op = "service.VotesForLink"

	if _, err := s.links.GetByID(ctx, linkID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.E(op, apperr.NotFound, errLinkNotFound)
		}
		return nil, apperr.E(op, apperr.Internal, err)
	}
	votes, err := s.votes.ListByLink(ctx, linkID)
	if err != nil {
		return nil, apperr.E(op, apperr.Internal, err)
	}
	return votes, nil
}
