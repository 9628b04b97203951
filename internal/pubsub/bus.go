package pubsub

import "github.com/iliyamo/linkboard/internal/model"

// Channel names as exposed to subscribers.
const (
	ChannelNewLink = "newLink"
	ChannelNewVote = "newVote"
)

// LinkCreated is published on ChannelNewLink after a link is stored.
type LinkCreated struct {
	Link model.Link
}

// VoteCreated is published on ChannelNewVote after a vote is stored.
type VoteCreated struct {
	Vote model.Vote
}

// Bus groups the application's topics.  One Bus is built at startup and
// shared by reference; there is no package-level instance.
type Bus struct {
	NewLink *Topic[LinkCreated]
	NewVote *Topic[VoteCreated]
}

// NewBus creates every topic with the same per-subscriber buffer.
func NewBus(buffer int, rec Recorder) *Bus {
	return &Bus{
		NewLink: NewTopic[LinkCreated](ChannelNewLink, buffer, rec),
		NewVote: NewTopic[VoteCreated](ChannelNewVote, buffer, rec),
	}
}

// Channels lists the channel names in a stable order.
func (b *Bus) Channels() []string {
	return []string{ChannelNewLink, ChannelNewVote}
}

// Close closes all topics, ending every live subscription.
func (b *Bus) Close() {
	b.NewLink.Close()
	b.NewVote.Close()
}
