// Package metrics collects Prometheus metrics for posting, voting and
// event delivery.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector implements service.Recorder and pubsub.Recorder.
type Collector struct {
	linksPosted     prometheus.Counter
	votesCast       prometheus.Counter
	duplicateVotes  prometheus.Counter
	eventsPublished *prometheus.CounterVec
	eventsDelivered *prometheus.CounterVec
	eventsDropped   *prometheus.CounterVec
	subscribers     *prometheus.GaugeVec
}

// NewCollector creates a Collector and registers its metrics on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		linksPosted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkboard_links_posted_total",
			Help: "Links created.",
		}),
		votesCast: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkboard_votes_cast_total",
			Help: "Votes recorded.",
		}),
		duplicateVotes: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkboard_duplicate_votes_total",
			Help: "Votes rejected because the customer already voted for the link.",
		}),
		eventsPublished: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkboard_events_published_total",
			Help: "Events published on the in-process bus.",
		}, []string{"channel"}),
		eventsDelivered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkboard_events_delivered_total",
			Help: "Events enqueued to subscribers.",
		}, []string{"channel"}),
		eventsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkboard_events_dropped_total",
			Help: "Events discarded because a subscriber buffer was full.",
		}, []string{"channel"}),
		subscribers: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "linkboard_subscribers",
			Help: "Live subscribers per channel.",
		}, []string{"channel"}),
	}

	reg.MustRegister(
		c.linksPosted,
		c.votesCast,
		c.duplicateVotes,
		c.eventsPublished,
		c.eventsDelivered,
		c.eventsDropped,
		c.subscribers,
	)
	return c
}

func (c *Collector) LinkPosted()    { c.linksPosted.Inc() }
func (c *Collector) VoteCast()      { c.votesCast.Inc() }
func (c *Collector) DuplicateVote() { c.duplicateVotes.Inc() }

// EventPublished records one publish and how many subscribers got it.
func (c *Collector) EventPublished(channel string, delivered int) {
	c.eventsPublished.WithLabelValues(channel).Inc()
	c.eventsDelivered.WithLabelValues(channel).Add(float64(delivered))
}

func (c *Collector) EventDropped(channel string) {
	c.eventsDropped.WithLabelValues(channel).Inc()
}

func (c *Collector) SubscribersChanged(channel string, n int) {
	c.subscribers.WithLabelValues(channel).Set(float64(n))
}

// Handler exposes the metrics gathered by g.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
