package subscription

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/linkboard/internal/apperr"
	"github.com/iliyamo/linkboard/internal/model"
	"github.com/iliyamo/linkboard/internal/pubsub"
)

type recordingSink struct {
	opened     chan struct{}
	payloads   chan Payload
	heartbeats chan struct{}
	sendErr    error
	once       sync.Once
}

func newRecordingSink() *recordingSink {
	return &recordingSink{
		opened:     make(chan struct{}),
		payloads:   make(chan Payload, 16),
		heartbeats: make(chan struct{}, 16),
	}
}

func (s *recordingSink) Open() error {
	s.once.Do(func() { close(s.opened) })
	return nil
}

func (s *recordingSink) Send(p Payload) error {
	if s.sendErr != nil {
		return s.sendErr
	}
	s.payloads <- p
	return nil
}

func (s *recordingSink) Heartbeat() error {
	select {
	case s.heartbeats <- struct{}{}:
	default:
	}
	return nil
}

func waitOpen(t *testing.T, s *recordingSink) {
	t.Helper()
	select {
	case <-s.opened:
	case <-time.After(time.Second):
		t.Fatal("sink never opened")
	}
}

func nextPayload(t *testing.T, s *recordingSink) Payload {
	t.Helper()
	select {
	case p := <-s.payloads:
		return p
	case <-time.After(time.Second):
		t.Fatal("no payload delivered")
	}
	return Payload{}
}

func TestDeliver_ProjectsEvents(t *testing.T) {
	bus := pubsub.NewBus(8, nil)
	defer bus.Close()
	d := NewDeliverer(bus, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	sink := newRecordingSink()
	done := make(chan error, 1)
	go func() { done <- d.Deliver(ctx, bus.Channels(), sink) }()
	waitOpen(t, sink)

	link := model.Link{ID: 1, URL: "http://e.org", Description: "desc"}
	vote := model.Vote{ID: 2, LinkID: 1, CustomerID: 3}
	bus.NewLink.Publish(pubsub.LinkCreated{Link: link})
	bus.NewVote.Publish(pubsub.VoteCreated{Vote: vote})

	got := map[string]any{}
	for i := 0; i < 2; i++ {
		p := nextPayload(t, sink)
		got[p.Channel] = p.Data
	}
	assert.Equal(t, link, got[pubsub.ChannelNewLink])
	assert.Equal(t, vote, got[pubsub.ChannelNewVote])

	cancel()
	require.NoError(t, <-done)
	assert.Equal(t, 0, bus.NewLink.Subscribers())
	assert.Equal(t, 0, bus.NewVote.Subscribers())
}

func TestDeliver_OnlyRequestedChannels(t *testing.T) {
	bus := pubsub.NewBus(8, nil)
	defer bus.Close()
	d := NewDeliverer(bus, time.Hour, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := newRecordingSink()
	go func() { _ = d.Deliver(ctx, []string{pubsub.ChannelNewVote}, sink) }()
	waitOpen(t, sink)

	assert.Equal(t, 0, bus.NewLink.Subscribers())
	assert.Equal(t, 1, bus.NewVote.Subscribers())

	bus.NewLink.Publish(pubsub.LinkCreated{Link: model.Link{ID: 1}})
	bus.NewVote.Publish(pubsub.VoteCreated{Vote: model.Vote{ID: 5}})

	p := nextPayload(t, sink)
	assert.Equal(t, pubsub.ChannelNewVote, p.Channel)
}

func TestDeliver_SinkErrorReleasesSubscription(t *testing.T) {
	bus := pubsub.NewBus(8, nil)
	defer bus.Close()
	d := NewDeliverer(bus, time.Hour, nil)

	sink := newRecordingSink()
	sink.sendErr = errors.New("broken pipe")
	done := make(chan error, 1)
	go func() { done <- d.Deliver(context.Background(), []string{pubsub.ChannelNewLink}, sink) }()
	waitOpen(t, sink)

	bus.NewLink.Publish(pubsub.LinkCreated{Link: model.Link{ID: 1}})

	select {
	case err := <-done:
		assert.EqualError(t, err, "broken pipe")
	case <-time.After(time.Second):
		t.Fatal("Deliver did not return after a failed write")
	}
	assert.Equal(t, 0, bus.NewLink.Subscribers())
}

func TestDeliver_BusClose(t *testing.T) {
	bus := pubsub.NewBus(8, nil)
	d := NewDeliverer(bus, time.Hour, nil)

	sink := newRecordingSink()
	done := make(chan error, 1)
	go func() { done <- d.Deliver(context.Background(), bus.Channels(), sink) }()
	waitOpen(t, sink)

	bus.Close()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrBusClosed)
	case <-time.After(time.Second):
		t.Fatal("Deliver did not return after bus close")
	}
}

func TestDeliver_Heartbeat(t *testing.T) {
	bus := pubsub.NewBus(8, nil)
	defer bus.Close()
	d := NewDeliverer(bus, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sink := newRecordingSink()
	go func() { _ = d.Deliver(ctx, bus.Channels(), sink) }()

	select {
	case <-sink.heartbeats:
	case <-time.After(time.Second):
		t.Fatal("no heartbeat")
	}
}

func TestDeliver_UnknownChannel(t *testing.T) {
	bus := pubsub.NewBus(8, nil)
	defer bus.Close()
	d := NewDeliverer(bus, 0, nil)

	err := d.Deliver(context.Background(), []string{"newComment"}, newRecordingSink())
	assert.Equal(t, apperr.Invalid, apperr.KindOf(err))
	assert.Equal(t, 0, bus.NewLink.Subscribers())

	err = d.Deliver(context.Background(), nil, newRecordingSink())
	assert.Equal(t, apperr.Invalid, apperr.KindOf(err))
}

func TestParseChannels(t *testing.T) {
	bus := pubsub.NewBus(8, nil)
	defer bus.Close()
	d := NewDeliverer(bus, 0, nil)

	got, err := d.ParseChannels("")
	require.NoError(t, err)
	assert.Equal(t, []string{pubsub.ChannelNewLink, pubsub.ChannelNewVote}, got)

	got, err = d.ParseChannels(" newVote , newVote,")
	require.NoError(t, err)
	assert.Equal(t, []string{pubsub.ChannelNewVote}, got)

	_, err = d.ParseChannels("newLink,bogus")
	assert.Equal(t, apperr.Invalid, apperr.KindOf(err))
}
