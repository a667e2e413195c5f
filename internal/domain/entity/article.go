package entity

import "time"

// MaxSummaryLength bounds Article.Summary per §3.
const MaxSummaryLength = 2000

// Article is the global, de-duplicated content item keyed by
// CanonicalURL. It is created once by the article processor (A) and
// never user-owned; UserArticle is the per-user projection.
type Article struct {
	ID               string
	CanonicalURL     string
	Title            string
	Author           string
	Summary          string
	Content          string // sanitized HTML, or "" when absent
	SourceTags       []string
	MediaURL         string
	PlatformMetadata map[string]any
	PublishedAt      time.Time
	CreatedAt        time.Time
}

// TruncateSummary clamps s to MaxSummaryLength runes, as the parser
// must before handing an EntryRecord's summary to the article
// processor.
func TruncateSummary(s string) string {
	r := []rune(s)
	if len(r) <= MaxSummaryLength {
		return s
	}
	return string(r[:MaxSummaryLength])
}

// ArticleSource links an Article to a Feed that has published it.
// Unique per (ArticleID, FeedID).
type ArticleSource struct {
	ArticleID string
	FeedID    string
}

// UserArticle is the per-user projection of an Article's read/bookmark
// state. Unique per (UserID, ArticleID).
type UserArticle struct {
	UserID     string
	ArticleID  string
	IsRead     bool
	ReadLater  bool
	ReadAt     *time.Time
}

// UserTag is a user-scoped tag name. Unique per (UserID, Name) after
// sanitization (see internal/usecase/tag).
type UserTag struct {
	ID           string
	UserID       string
	Name         string
	ArticleCount int
}

// ArticleTag links a UserArticle to a UserTag, scoped within one user.
type ArticleTag struct {
	UserID    string
	ArticleID string
	TagID     string
}

// ArticleListItem is one row of the cursor-paginated articles feed
// (§6.1 GET /articles): the global Article joined with the requesting
// user's UserArticle projection and the subscription it arrived
// through.
type ArticleListItem struct {
	ID             string
	Title          string
	Author         string
	Summary        string
	MediaURL       string
	SourceTags     []string
	PublishedAt    time.Time
	SubscriptionID string
	FeedID         string
	IsRead         bool
	ReadLater      bool
	ReadAt         *time.Time
}
