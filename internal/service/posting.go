package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/iliyamo/linkboard/internal/apperr"
	"github.com/iliyamo/linkboard/internal/auth"
	"github.com/iliyamo/linkboard/internal/model"
	"github.com/iliyamo/linkboard/internal/pubsub"
	"github.com/iliyamo/linkboard/internal/repository"
)

const (
	defaultFeedTake = 20
	maxFeedTake     = 100
)

var (
	errURLRequired         = errors.New("url required")
	errDescriptionRequired = errors.New("description required")
	errLinkNotFound        = errors.New("link not found")
)

// Feed is one page of the link feed plus the total number of matches.
type Feed struct {
	Count int64        `json:"count"`
	Links []model.Link `json:"links"`
}

// PostingService creates links and serves the feed.
type PostingService struct {
	links LinkStore
	bus   *pubsub.Bus
	rec   Recorder
	log   *slog.Logger
}

func NewPostingService(links LinkStore, bus *pubsub.Bus, rec Recorder, log *slog.Logger) *PostingService {
	if log == nil {
		log = slog.Default()
	}
	return &PostingService{links: links, bus: bus, rec: recorderOrNop(rec), log: log}
}

// CreateLink stores a link owned by the caller and publishes LinkCreated.
// Anonymous callers are rejected before anything is written.
func (s *PostingService) CreateLink(ctx context.Context, id auth.Identity, url, description string) (model.Link, error) {
	const op = "service.CreateLink"

	customer, ok := id.Customer()
	if !ok {
		return model.Link{}, apperr.E(op, apperr.Unauthenticated, errLoginRequired)
	}
	url = strings.TrimSpace(url)
	description = strings.TrimSpace(description)
	if url == "" {
		return model.Link{}, apperr.E(op, apperr.Invalid, errURLRequired)
	}
	if description == "" {
		return model.Link{}, apperr.E(op, apperr.Invalid, errDescriptionRequired)
	}

	poster := customer.ID
	link, err := s.links.Create(ctx, url, description, &poster)
	if err != nil {
		return model.Link{}, apperr.E(op, apperr.Internal, err)
	}

	s.bus.NewLink.Publish(pubsub.LinkCreated{Link: link})
	s.rec.LinkPosted()
	s.log.Info("link posted", slog.Uint64("link_id", link.ID), slog.Uint64("customer_id", customer.ID))
	return link, nil
}

// Link returns a single link.
func (s *PostingService) Link(ctx context.Context, linkID uint64) (model.Link, error) {
	link, err := s.links.GetByID(ctx, linkID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.Link{}, apperr.E("service.Link", apperr.NotFound, errLinkNotFound)
		}
		return model.Link{}, apperr.E("service.Link", apperr.Internal, err)
	}
	return link, nil
}

// Feed returns the links matching q.  Take defaults to 20 and is capped
// at 100; negative Skip is treated as zero.
func (s *PostingService) Feed(ctx context.Context, q repository.FeedQuery) (Feed, error) {
	const op = "service.Feed"

	q.Filter = strings.TrimSpace(q.Filter)
	if q.Skip < 0 {
		q.Skip = 0
	}
	switch {
	case q.Take <= 0:
		q.Take = defaultFeedTake
	case q.Take > maxFeedTake:
		q.Take = maxFeedTake
	}

	total, err := s.links.Count(ctx, q)
	if err != nil {
		return Feed{}, apperr.E(op, apperr.Internal, err)
	}
	links, err := s.links.List(ctx, q)
	if err != nil {
		return Feed{}, apperr.E(op, apperr.Internal, err)
	}
	return Feed{Count: total, Links: links}, nil
}
