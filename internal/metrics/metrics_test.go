package metrics

import (
	"context"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/linkboard/internal/pubsub"
)

func scrape(t *testing.T, reg *prometheus.Registry) string {
	t.Helper()
	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	assert.Equal(t, 200, rec.Code)
	return rec.Body.String()
}

func TestCollector_DomainCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.LinkPosted()
	c.VoteCast()
	c.VoteCast()
	c.DuplicateVote()

	out := scrape(t, reg)
	assert.Contains(t, out, "linkboard_links_posted_total 1")
	assert.Contains(t, out, "linkboard_votes_cast_total 2")
	assert.Contains(t, out, "linkboard_duplicate_votes_total 1")
}

func TestCollector_AsBusRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	bus := pubsub.NewBus(1, c)
	defer bus.Close()

	sub := bus.NewLink.Subscribe(context.Background())
	assert.Contains(t, scrape(t, reg), `linkboard_subscribers{channel="newLink"} 1`)

	bus.NewLink.Publish(pubsub.LinkCreated{})
	bus.NewLink.Publish(pubsub.LinkCreated{})

	out := scrape(t, reg)
	assert.Contains(t, out, `linkboard_events_published_total{channel="newLink"} 2`)
	assert.Contains(t, out, `linkboard_events_delivered_total{channel="newLink"} 2`)
	assert.Contains(t, out, `linkboard_events_dropped_total{channel="newLink"} 1`)

	sub.Close()
	assert.Contains(t, scrape(t, reg), `linkboard_subscribers{channel="newLink"} 0`)
}

func TestNewCollector_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewCollector(reg)
	assert.Panics(t, func() { NewCollector(reg) })
}
