// Package subscription binds a long-lived client session to bus
// channels and pushes each event, projected to its outward shape, to
// the client until either side goes away.
package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/iliyamo/linkboard/internal/apperr"
	"github.com/iliyamo/linkboard/internal/pubsub"
)

// DefaultHeartbeat is used when the Deliverer is built with a
// non-positive interval.
const DefaultHeartbeat = 15 * time.Second

// ErrBusClosed is returned by Deliver when the bus shuts down under a
// live subscription.
var ErrBusClosed = errors.New("event bus closed")

// Payload is what a client receives: the channel name and the link or
// vote record.
type Payload struct {
	Channel string
	Data    any
}

// Sink is the client side of a subscription, e.g. an SSE response.
type Sink interface {
	// Open is called once every requested channel is attached.
	Open() error
	Send(p Payload) error
	Heartbeat() error
}

// Deliverer attaches sinks to the bus.
type Deliverer struct {
	bus       *pubsub.Bus
	heartbeat time.Duration
	log       *slog.Logger
}

func NewDeliverer(bus *pubsub.Bus, heartbeat time.Duration, log *slog.Logger) *Deliverer {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeat
	}
	if log == nil {
		log = slog.Default()
	}
	return &Deliverer{bus: bus, heartbeat: heartbeat, log: log}
}

// ParseChannels turns a comma separated list into channel names.  An
// empty list selects every channel.
func (d *Deliverer) ParseChannels(raw string) ([]string, error) {
	known := d.bus.Channels()
	if strings.TrimSpace(raw) == "" {
		return known, nil
	}
	seen := map[string]bool{}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		name := strings.TrimSpace(part)
		if name == "" || seen[name] {
			continue
		}
		ok := false
		for _, k := range known {
			if k == name {
				ok = true
				break
			}
		}
		if !ok {
			return nil, apperr.E("subscription.ParseChannels", apperr.Invalid, fmt.Errorf("unknown channel %q", name))
		}
		seen[name] = true
		out = append(out, name)
	}
	if len(out) == 0 {
		return known, nil
	}
	return out, nil
}

// Deliver streams events from channels to sink.  It returns nil when ctx
// ends (client gone), ErrBusClosed on shutdown, or the sink's error when
// a write fails.  Subscriptions are released before it returns.
func (d *Deliverer) Deliver(ctx context.Context, channels []string, sink Sink) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		linkC <-chan pubsub.LinkCreated
		voteC <-chan pubsub.VoteCreated
	)
	for _, ch := range channels {
		switch ch {
		case pubsub.ChannelNewLink:
			sub := d.bus.NewLink.Subscribe(ctx)
			defer sub.Close()
			linkC = sub.C()
		case pubsub.ChannelNewVote:
			sub := d.bus.NewVote.Subscribe(ctx)
			defer sub.Close()
			voteC = sub.C()
		default:
			return apperr.E("subscription.Deliver", apperr.Invalid, fmt.Errorf("unknown channel %q", ch))
		}
	}
	if linkC == nil && voteC == nil {
		return apperr.E("subscription.Deliver", apperr.Invalid, errors.New("no channels requested"))
	}

	if err := sink.Open(); err != nil {
		return err
	}
	d.log.Debug("subscriber attached", slog.Any("channels", channels))

	ticker := time.NewTicker(d.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-linkC:
			if !ok {
				return closed(ctx)
			}
			if err := sink.Send(Payload{Channel: pubsub.ChannelNewLink, Data: ev.Link}); err != nil {
				return err
			}
		case ev, ok := <-voteC:
			if !ok {
				return closed(ctx)
			}
			if err := sink.Send(Payload{Channel: pubsub.ChannelNewVote, Data: ev.Vote}); err != nil {
				return err
			}
		case <-ticker.C:
			if err := sink.Heartbeat(); err != nil {
				return err
			}
		}
	}
}

// closed distinguishes a subscription released by ctx from one ended by
// the bus shutting down.
func closed(ctx context.Context) error {
	if ctx.Err() != nil {
		return nil
	}
	return ErrBusClosed
}
