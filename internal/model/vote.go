package model

import "time"

// Vote joins a customer to a link.  The `votes` table carries a unique
// key on (link_id, customer_id) so a customer can vote for a link at
// most once, no matter how many requests race to insert.
type Vote struct {
	ID         uint64    `json:"id"`         // votes.id
	CustomerID uint64    `json:"customerId"` // votes.customer_id
	LinkID     uint64    `json:"linkId"`     // votes.link_id
	CreatedAt  time.Time `json:"createdAt"`  // votes.created_at
}
