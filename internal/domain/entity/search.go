package entity

import "time"

// SearchResultType tags a UnifiedSearchHit with the per-type search it
// came from (§4.R Universal search).
type SearchResultType string

const (
	SearchResultArticle SearchResultType = "article"
	SearchResultFeed    SearchResultType = "feed"
	SearchResultTag     SearchResultType = "tag"
	SearchResultFolder  SearchResultType = "folder"
)

// FeedSearchHit is one row from a feed-subscription search, ranked by
// Relevance (prefix-match indicator + 0.5 × trigram similarity).
type FeedSearchHit struct {
	SubscriptionID string
	Title          string
	Website        string
	Active         bool
	Pinned         bool
	UnreadCount    int
	Relevance      float64
}

// TagSearchHit is one row from a tag search.
type TagSearchHit struct {
	ID           string
	Name         string
	ArticleCount int
	Relevance    float64
}

// FolderSearchHit is one row from a folder search.
type FolderSearchHit struct {
	ID          string
	Name        string
	UnreadCount int
	Pinned      bool
	Relevance   float64
}

// ArticleSearchHit is one row from an article search, scoped to the
// requesting user's UserArticle projection.
type ArticleSearchHit struct {
	ID          string
	Title       string
	Summary     string
	MediaURL    string
	PublishedAt time.Time
	IsRead      bool
	ReadLater   bool
	Relevance   float64
}

// SearchPage wraps one page of per-type search results with the
// total count needed for offset-based pagination (§4.R).
type SearchPage[T any] struct {
	Data    []T
	Total   int
	Limit   int
	Offset  int
	HasMore bool
}

// UnifiedSearchHit is one row of the universal search's merged,
// type-weighted result set. Data holds the type-specific hit; the
// weighted score that produced the ordering is not exposed (§4.R).
type UnifiedSearchHit struct {
	Type  SearchResultType
	ID    string
	Title string
	Data  any
}
