package queue

import (
	"context"
	"log/slog"
	"time"

	"github.com/iliyamo/linkboard/internal/pubsub"
)

// EventPublisher is implemented by *Publisher.
type EventPublisher interface {
	Publish(ctx context.Context, ev ActivityEvent) error
}

// Relay forwards every newLink and newVote event to the broker.  It is an
// ordinary bus subscriber: if the broker is slow, the relay's buffer
// drops its oldest events rather than slowing down posting or voting.
type Relay struct {
	bus     *pubsub.Bus
	pub     EventPublisher
	log     *slog.Logger
	timeout time.Duration
}

func NewRelay(bus *pubsub.Bus, pub EventPublisher, log *slog.Logger) *Relay {
	if log == nil {
		log = slog.Default()
	}
	return &Relay{bus: bus, pub: pub, log: log, timeout: 5 * time.Second}
}

// Run relays events until ctx ends or the bus closes.
func (r *Relay) Run(ctx context.Context) {
	links := r.bus.NewLink.Subscribe(ctx)
	defer links.Close()
	votes := r.bus.NewVote.Subscribe(ctx)
	defer votes.Close()

	r.log.Info("event relay started", slog.String("queue", EventsQueue))
	defer r.log.Info("event relay stopped",
		slog.Uint64("dropped_links", links.Dropped()),
		slog.Uint64("dropped_votes", votes.Dropped()))

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-links.C():
			if !ok {
				return
			}
			r.forward(ctx, LinkCreatedEvent(ev.Link))
		case ev, ok := <-votes.C():
			if !ok {
				return
			}
			r.forward(ctx, VoteCreatedEvent(ev.Vote))
		}
	}
}

func (r *Relay) forward(ctx context.Context, ev ActivityEvent) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	if err := r.pub.Publish(ctx, ev); err != nil {
		r.log.Warn("relay publish failed",
			slog.String("type", ev.Type), slog.Uint64("link_id", ev.LinkID), slog.Any("err", err))
	}
}
