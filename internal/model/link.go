package model

import "time"

// Link represents a posted resource in the `links` table.  PostedByID
// is nullable: a link survives its poster's account being removed.
//
// Fields:
//  ID          – primary key identifier.
//  Description – free-form text supplied by the poster.
//  URL         – the shared address.  Duplicates are allowed.
//  PostedByID  – customer who posted the link (nil when unknown).
//  CreatedAt   – timestamp of creation.
type Link struct {
	ID          uint64    `json:"id"`          // links.id
	Description string    `json:"description"` // links.description
	URL         string    `json:"url"`         // links.url
	PostedByID  *uint64   `json:"postedById"`  // links.posted_by_id (nullable)
	CreatedAt   time.Time `json:"createdAt"`   // links.created_at
}
