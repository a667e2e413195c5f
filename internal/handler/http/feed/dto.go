// Package feed provides the HTTP handlers behind /feeds and /discover:
// the subscription list, rename/move/pin update, unsubscribe, and
// discover-and-subscribe-in-one-call (§6.1).
package feed

import "time"

// subscriptionDTO is one row of GET /feeds.
type subscriptionDTO struct {
	ID           string    `json:"id"`
	FeedID       string    `json:"feed_id"`
	Title        string    `json:"title"`
	CanonicalURL string    `json:"canonical_url"`
	Website      string    `json:"website,omitempty"`
	FolderID     *string   `json:"folder_id,omitempty"`
	Pinned       bool      `json:"pinned"`
	UnreadCount  int       `json:"unread_count"`
	Status       string    `json:"status"`
	CreatedAt    time.Time `json:"created_at"`
}

// discoverResponseDTO is the JSON shape of POST /discover.
type discoverResponseDTO struct {
	Status       string `json:"status"`
	Subscription *subscriptionDTO `json:"subscription,omitempty"`
}
