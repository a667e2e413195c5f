package entity

import "time"

// FeedType is the syndication format of a Feed, as reported by the
// parser (P).
type FeedType string

const (
	FeedTypeRSS  FeedType = "rss"
	FeedTypeAtom FeedType = "atom"
	FeedTypeRDF  FeedType = "rdf"
)

// FeedStatus is a derived (never persisted) health indicator computed
// from LastFetchedAt/LastErrorAt per §4.F.
type FeedStatus string

const (
	FeedStatusHealthy FeedStatus = "healthy"
	FeedStatusStale   FeedStatus = "stale"
	FeedStatusError   FeedStatus = "error"
)

// healthyWindow is how recent LastFetchedAt must be for a feed to be
// considered healthy rather than stale.
const healthyWindow = time.Hour

// Feed is the global, de-duplicated representation of one syndication
// endpoint. It is never user-owned; Subscription is the per-user join.
type Feed struct {
	ID             string
	CanonicalURL   string
	Title          string
	Description    string
	Language       string
	Website        string
	Type           FeedType
	LastFetchedAt  *time.Time
	LastUpdate     *time.Time
	LastError      string
	LastErrorAt    *time.Time
	ErrorCount     int
	Active         bool
	LatestArticles []string // ordered, most-recent-first, bounded article id list
	CreatedAt      time.Time
}

// Status derives the feed's health state per §4.F. It is computed on
// read, never stored.
func (f *Feed) Status(now time.Time) FeedStatus {
	hasError := f.LastErrorAt != nil
	hasFetch := f.LastFetchedAt != nil

	switch {
	case !hasError && !hasFetch:
		return FeedStatusStale
	case hasError && hasFetch:
		if f.LastErrorAt.After(*f.LastFetchedAt) {
			return FeedStatusError
		}
		if now.Sub(*f.LastFetchedAt) >= healthyWindow {
			return FeedStatusStale
		}
		return FeedStatusHealthy
	case hasError:
		return FeedStatusError
	default: // hasFetch only
		if now.Sub(*f.LastFetchedAt) < healthyWindow {
			return FeedStatusHealthy
		}
		return FeedStatusStale
	}
}

// MaxLatestArticles bounds how many article ids Feed.LatestArticles
// retains for fast subscribe-backfill.
const MaxLatestArticles = 50

// PushLatestArticle prepends an article id to LatestArticles, keeping
// it bounded and most-recent-first.
func (f *Feed) PushLatestArticle(articleID string) {
	for _, id := range f.LatestArticles {
		if id == articleID {
			return
		}
	}
	f.LatestArticles = append([]string{articleID}, f.LatestArticles...)
	if len(f.LatestArticles) > MaxLatestArticles {
		f.LatestArticles = f.LatestArticles[:MaxLatestArticles]
	}
}

// Subscription (UserFeed) is a user's link to a Feed, with per-user
// display attributes. Unique per (UserID, FeedID).
type Subscription struct {
	ID           string
	UserID       string
	FeedID       string
	TitleOverride string
	FolderID     *string
	Pinned       bool
	Active       bool
	UnreadCount  int
	ImportID     *string
	CreatedAt    time.Time
}

// DisplayTitle returns the user's override title if set, else the
// feed's own title.
func (s *Subscription) DisplayTitle(feedTitle string) string {
	if s.TitleOverride != "" {
		return s.TitleOverride
	}
	return feedTitle
}

// Folder bounds, per §6.6 MAX_FOLDER_DEPTH / MAX_FOLDERS_PER_PARENT.
const (
	MaxFolderDepth         = 9
	MaxFoldersPerParent    = 50
	MaxFolderNameLength    = 16
)

// Folder is a user-owned tree node grouping subscriptions.
type Folder struct {
	ID       string
	UserID   string
	Name     string
	ParentID *string
	Depth    int
	Pinned   bool
}
