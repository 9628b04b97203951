// Package pubsub is the in-process event bus.  Each named channel is a
// Topic typed to its payload; every subscriber gets its own bounded
// buffer so a slow reader never blocks a publisher.
package pubsub

import (
	"context"
	"sync"
	"sync/atomic"
)

// DefaultBuffer is used when a topic is created with a non-positive
// buffer size.
const DefaultBuffer = 64

// Recorder observes bus activity.  metrics.Collector implements it.
type Recorder interface {
	EventPublished(channel string, delivered int)
	EventDropped(channel string)
	SubscribersChanged(channel string, n int)
}

type nopRecorder struct{}

func (nopRecorder) EventPublished(string, int)     {}
func (nopRecorder) EventDropped(string)            {}
func (nopRecorder) SubscribersChanged(string, int) {}

// Topic fans events of type T out to its current subscribers.
//
// Backlog policy: each subscriber has a buffer of fixed size.  When it
// is full the oldest buffered event is discarded to make room, so the
// subscriber always sees the most recent events and Publish never waits.
type Topic[T any] struct {
	name   string
	buffer int
	rec    Recorder

	mu     sync.RWMutex
	subs   map[uint64]*Subscription[T]
	nextID uint64
	closed bool
}

// NewTopic creates a topic.  rec may be nil.
func NewTopic[T any](name string, buffer int, rec Recorder) *Topic[T] {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	if rec == nil {
		rec = nopRecorder{}
	}
	return &Topic[T]{
		name:   name,
		buffer: buffer,
		rec:    rec,
		subs:   make(map[uint64]*Subscription[T]),
	}
}

// Name returns the channel name.
func (t *Topic[T]) Name() string { return t.name }

// Subscribers returns the number of attached subscribers.
func (t *Topic[T]) Subscribers() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.subs)
}

// Publish delivers ev to every current subscriber.  It never blocks and
// is a no-op once the topic is closed.
func (t *Topic[T]) Publish(ev T) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.closed {
		return
	}
	delivered := 0
	for _, s := range t.subs {
		ok, drops := s.offer(ev)
		if ok {
			delivered++
		}
		for ; drops > 0; drops-- {
			t.rec.EventDropped(t.name)
		}
	}
	t.rec.EventPublished(t.name, delivered)
}

// Subscribe attaches a new subscriber that receives every event
// published from now on.  The subscription is released when ctx is done
// or Close is called, whichever happens first.  Subscribing to a closed
// topic returns an already closed subscription.
func (t *Topic[T]) Subscribe(ctx context.Context) *Subscription[T] {
	s := &Subscription[T]{
		topic: t,
		ch:    make(chan T, t.buffer),
	}

	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		s.once.Do(func() { close(s.ch) })
		return s
	}
	t.nextID++
	s.id = t.nextID
	t.subs[s.id] = s
	// Registered under the lock: if ctx is already done the callback
	// runs at once, and its remove blocks until we unlock.
	s.stop = context.AfterFunc(ctx, s.Close)
	n := len(t.subs)
	t.mu.Unlock()
	t.rec.SubscribersChanged(t.name, n)
	return s
}

// remove detaches s and closes its channel.  Holding the write lock
// guarantees no Publish is mid-send on the channel being closed.  s.stop
// is only read or written under t.mu.
func (t *Topic[T]) remove(s *Subscription[T]) {
	t.mu.Lock()
	stop := s.stop
	s.stop = nil
	_, ok := t.subs[s.id]
	if ok {
		delete(t.subs, s.id)
		close(s.ch)
	}
	n := len(t.subs)
	t.mu.Unlock()

	if stop != nil {
		stop()
	}
	if ok {
		t.rec.SubscribersChanged(t.name, n)
	}
}

// Close detaches and closes every subscription.  Later publishes are
// dropped and later subscriptions start closed.
func (t *Topic[T]) Close() {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	t.closed = true
	stops := make([]func() bool, 0, len(t.subs))
	for _, s := range t.subs {
		close(s.ch)
		if s.stop != nil {
			stops = append(stops, s.stop)
			s.stop = nil
		}
	}
	t.subs = make(map[uint64]*Subscription[T])
	t.mu.Unlock()
	t.rec.SubscribersChanged(t.name, 0)

	for _, stop := range stops {
		stop()
	}
}

// Subscription is one subscriber's view of a topic.
type Subscription[T any] struct {
	topic   *Topic[T]
	id      uint64
	ch      chan T
	once    sync.Once
	stop    func() bool // guarded by topic.mu
	dropped atomic.Uint64
}

// C returns the event stream.  It is closed when the subscription ends.
func (s *Subscription[T]) C() <-chan T { return s.ch }

// Dropped reports how many events were discarded for this subscriber.
func (s *Subscription[T]) Dropped() uint64 { return s.dropped.Load() }

// Close detaches the subscriber.  It is safe to call more than once and
// from any goroutine, including after the topic has closed.
func (s *Subscription[T]) Close() {
	s.once.Do(func() { s.topic.remove(s) })
}

// offer enqueues ev, evicting the oldest buffered event when full.  It
// reports whether ev was enqueued and how many events were discarded.
// The caller holds the topic read lock.
func (s *Subscription[T]) offer(ev T) (bool, int) {
	select {
	case s.ch <- ev:
		return true, 0
	default:
	}
	drops := 0
	select {
	case <-s.ch:
		drops++
	default:
	}
	select {
	case s.ch <- ev:
	default:
		// Another publisher refilled the slot first.
		drops++
		s.dropped.Add(uint64(drops))
		return false, drops
	}
	s.dropped.Add(uint64(drops))
	return true, drops
}
