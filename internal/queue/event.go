// Package queue relays bus events to RabbitMQ and consumes them into an
// activity log.
package queue

import (
	"fmt"
	"time"

	"github.com/iliyamo/linkboard/internal/model"
)

// EventsQueue is the durable queue every activity event is routed to.
const EventsQueue = "linkboard.events"

const (
	TypeLinkCreated = "link.created"
	TypeVoteCreated = "vote.created"
)

// ActivityEvent is the broker message for a new link or vote.  It carries
// enough for downstream consumers to log or notify without querying the
// primary database.
type ActivityEvent struct {
	Type        string `json:"type"`
	LinkID      uint64 `json:"link_id"`
	VoteID      uint64 `json:"vote_id,omitempty"`
	CustomerID  uint64 `json:"customer_id,omitempty"` // poster or voter; 0 for links whose poster is gone
	URL         string `json:"url,omitempty"`
	Description string `json:"description,omitempty"`
	OccurredAt  string `json:"occurred_at"`
}

func LinkCreatedEvent(l model.Link) ActivityEvent {
	ev := ActivityEvent{
		Type:        TypeLinkCreated,
		LinkID:      l.ID,
		URL:         l.URL,
		Description: l.Description,
		OccurredAt:  l.CreatedAt.UTC().Format(time.RFC3339),
	}
	if l.PostedByID != nil {
		ev.CustomerID = *l.PostedByID
	}
	return ev
}

func VoteCreatedEvent(v model.Vote) ActivityEvent {
	return ActivityEvent{
		Type:       TypeVoteCreated,
		LinkID:     v.LinkID,
		VoteID:     v.ID,
		CustomerID: v.CustomerID,
		OccurredAt: v.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// LogLine renders the event as one line of the activity log.
func (e ActivityEvent) LogLine() string {
	switch e.Type {
	case TypeLinkCreated:
		return fmt.Sprintf("[%s] Link posted | link_id=%d | customer_id=%d | url=%q | description=%q\n",
			e.OccurredAt, e.LinkID, e.CustomerID, e.URL, e.Description)
	case TypeVoteCreated:
		return fmt.Sprintf("[%s] Vote cast | vote_id=%d | link_id=%d | customer_id=%d\n",
			e.OccurredAt, e.VoteID, e.LinkID, e.CustomerID)
	default:
		return fmt.Sprintf("[%s] Unknown event %q | link_id=%d\n", e.OccurredAt, e.Type, e.LinkID)
	}
}
