// Package article provides the HTTP handlers behind /articles: the
// cursor-paginated feed, detail-with-implicit-mark-as-read, the
// read/bookmark/tag update, and the bulk mark-as-read endpoint (§6.1).
package article

import "time"

// listItemDTO is one row of GET /articles.
type listItemDTO struct {
	ID             string    `json:"id"`
	Title          string    `json:"title"`
	Author         string    `json:"author,omitempty"`
	Summary        string    `json:"summary,omitempty"`
	MediaURL       string    `json:"media_url,omitempty"`
	SourceTags     []string  `json:"source_tags,omitempty"`
	PublishedAt    time.Time `json:"published_at"`
	SubscriptionID string    `json:"subscription_id"`
	FeedID         string    `json:"feed_id"`
	IsRead         bool      `json:"is_read"`
	ReadLater      bool      `json:"read_later"`
}

// listResponseDTO is the envelope returned by GET /articles, carrying
// the opaque cursor for the next page.
type listResponseDTO struct {
	Data       []listItemDTO `json:"data"`
	NextCursor string        `json:"next_cursor,omitempty"`
}

// tagDTO is one tag attached to an article's detail view.
type tagDTO struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// detailDTO is the JSON shape of GET /articles/{id}.
type detailDTO struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Author      string    `json:"author,omitempty"`
	Summary     string    `json:"summary,omitempty"`
	Content     string    `json:"content,omitempty"`
	MediaURL    string    `json:"media_url,omitempty"`
	CanonicalURL string   `json:"canonical_url"`
	PublishedAt time.Time `json:"published_at"`
	IsRead      bool      `json:"is_read"`
	ReadLater   bool      `json:"read_later"`
	ReadAt      *time.Time `json:"read_at,omitempty"`
	Tags        []tagDTO  `json:"tags"`
}
