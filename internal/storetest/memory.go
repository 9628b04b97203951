// Package storetest provides an in-memory store that satisfies the
// service store interfaces.  Unique keys are enforced under one mutex,
// matching what the MySQL schema guarantees, so tests can exercise
// duplicate-insert races without a database.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/iliyamo/linkboard/internal/model"
	"github.com/iliyamo/linkboard/internal/repository"
)

type voteKey struct{ customerID, linkID uint64 }

// Store holds customers, links and votes.
type Store struct {
	mu        sync.Mutex
	now       func() time.Time
	customers []model.Customer
	links     []model.Link
	votes     []model.Vote
	voteIndex map[voteKey]int
	writes    int
}

func New() *Store {
	return &Store{now: time.Now, voteIndex: map[voteKey]int{}}
}

// Customers, Links and Votes expose typed views of the same store.
func (s *Store) Customers() *Customers { return &Customers{s} }
func (s *Store) Links() *Links         { return &Links{s} }
func (s *Store) Votes() *Votes         { return &Votes{s} }

// Writes counts successful inserts of any kind.
func (s *Store) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}

// VoteRows returns a copy of every stored vote.
func (s *Store) VoteRows() []model.Vote {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Vote(nil), s.votes...)
}

// LinkRows returns a copy of every stored link.
func (s *Store) LinkRows() []model.Link {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]model.Link(nil), s.links...)
}

type Customers struct{ s *Store }

func (c *Customers) Create(_ context.Context, name, email, passwordHash string) (model.Customer, error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, existing := range s.customers {
		if existing.Email == email {
			return model.Customer{}, repository.ErrDuplicate
		}
	}
	cust := model.Customer{
		ID:           uint64(len(s.customers) + 1),
		Name:         name,
		Email:        email,
		PasswordHash: passwordHash,
		CreatedAt:    s.now().UTC(),
	}
	s.customers = append(s.customers, cust)
	s.writes++
	return cust, nil
}

func (c *Customers) GetByEmail(_ context.Context, email string) (model.Customer, error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, cust := range s.customers {
		if cust.Email == email {
			return cust, nil
		}
	}
	return model.Customer{}, repository.ErrNotFound
}

func (c *Customers) GetByID(_ context.Context, id uint64) (model.Customer, error) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == 0 || id > uint64(len(s.customers)) || s.customers[id-1].ID == 0 {
		return model.Customer{}, repository.ErrNotFound
	}
	return s.customers[id-1], nil
}

// Delete removes a customer while keeping ids stable.
func (c *Customers) Delete(id uint64) {
	s := c.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == 0 || id > uint64(len(s.customers)) {
		return
	}
	s.customers[id-1] = model.Customer{}
}

type Links struct{ s *Store }

func (l *Links) Create(_ context.Context, url, description string, postedByID *uint64) (model.Link, error) {
	s := l.s
	s.mu.Lock()
	defer s.mu.Unlock()
	link := model.Link{
		ID:          uint64(len(s.links) + 1),
		Description: description,
		URL:         url,
		CreatedAt:   s.now().UTC(),
	}
	if postedByID != nil {
		id := *postedByID
		link.PostedByID = &id
	}
	s.links = append(s.links, link)
	s.writes++
	return link, nil
}

func (l *Links) GetByID(_ context.Context, id uint64) (model.Link, error) {
	s := l.s
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == 0 || id > uint64(len(s.links)) {
		return model.Link{}, repository.ErrNotFound
	}
	return s.links[id-1], nil
}

func (l *Links) matching(q repository.FeedQuery) []model.Link {
	f := strings.ToLower(q.Filter)
	out := []model.Link{}
	for _, link := range l.s.links {
		if f == "" || strings.Contains(strings.ToLower(link.Description), f) || strings.Contains(strings.ToLower(link.URL), f) {
			out = append(out, link)
		}
	}
	return out
}

func (l *Links) Count(_ context.Context, q repository.FeedQuery) (int64, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	return int64(len(l.matching(q))), nil
}

func (l *Links) List(_ context.Context, q repository.FeedQuery) ([]model.Link, error) {
	l.s.mu.Lock()
	defer l.s.mu.Unlock()
	out := l.matching(q)
	sort.SliceStable(out, func(i, j int) bool {
		for _, o := range q.OrderBy {
			var less, greater bool
			switch strings.ToLower(o.Field) {
			case "description":
				less, greater = out[i].Description < out[j].Description, out[i].Description > out[j].Description
			case "url":
				less, greater = out[i].URL < out[j].URL, out[i].URL > out[j].URL
			case "createdat":
				less, greater = out[i].CreatedAt.Before(out[j].CreatedAt), out[i].CreatedAt.After(out[j].CreatedAt)
			default:
				continue
			}
			if o.Desc {
				less, greater = greater, less
			}
			if less || greater {
				return less
			}
		}
		return out[i].ID < out[j].ID
	})
	if q.Skip >= len(out) {
		return []model.Link{}, nil
	}
	out = out[q.Skip:]
	if q.Take > 0 && q.Take < len(out) {
		out = out[:q.Take]
	}
	return out, nil
}

type Votes struct{ s *Store }

func (v *Votes) Find(_ context.Context, customerID, linkID uint64) (model.Vote, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.voteIndex[voteKey{customerID, linkID}]
	if !ok {
		return model.Vote{}, repository.ErrNotFound
	}
	return s.votes[i], nil
}

// Create enforces the (customer, link) unique key atomically.
func (v *Votes) Create(_ context.Context, customerID, linkID uint64) (model.Vote, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	key := voteKey{customerID, linkID}
	if _, ok := s.voteIndex[key]; ok {
		return model.Vote{}, repository.ErrDuplicate
	}
	vote := model.Vote{
		ID:         uint64(len(s.votes) + 1),
		CustomerID: customerID,
		LinkID:     linkID,
		CreatedAt:  s.now().UTC(),
	}
	s.voteIndex[key] = len(s.votes)
	s.votes = append(s.votes, vote)
	s.writes++
	return vote, nil
}

func (v *Votes) ListByLink(_ context.Context, linkID uint64) ([]model.Vote, error) {
	s := v.s
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []model.Vote{}
	for _, vote := range s.votes {
		if vote.LinkID == linkID {
			out = append(out, vote)
		}
	}
	return out, nil
}
