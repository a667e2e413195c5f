// Package repository declares the storage-gateway (S) contracts that
// application services depend on. Concrete implementations live under
// internal/infra/adapter/postgres; tests may satisfy these interfaces
// with sqlmock-backed fakes (see internal/pkg/config test conventions).
package repository

import (
	"context"
	"time"

	"feedkeep/internal/domain/entity"
)

// TxRunner runs fn inside a single unit of work; nested calls on the
// same context reuse the active transaction. Satisfied by
// internal/infra/adapter/postgres.DB.
type TxRunner interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// UserRepository persists User rows and 1:1 UserPreferences.
type UserRepository interface {
	Create(ctx context.Context, u *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByUsername(ctx context.Context, normalizedUsername string) (*entity.User, error)
	CountUsers(ctx context.Context) (int, error)
	UpdatePasswordHash(ctx context.Context, userID, passwordHash string) error
	UpdateUsername(ctx context.Context, userID, username string) error
	GetPreferences(ctx context.Context, userID string) (*entity.UserPreferences, error)
	UpsertPreferences(ctx context.Context, prefs *entity.UserPreferences) error
}

// SessionRepository persists Session rows and enforces the
// per-user session cap (§4.H).
type SessionRepository interface {
	Create(ctx context.Context, s *entity.Session) error
	GetByID(ctx context.Context, id string) (*entity.Session, error)
	Touch(ctx context.Context, id string, lastUsed time.Time) error
	Delete(ctx context.Context, id string) error
	DeleteAllForUser(ctx context.Context, userID string) error
	ListForUser(ctx context.Context, userID string) ([]*entity.Session, error)
	ActiveCount(ctx context.Context, userID string) (int, error)
	OldestForUser(ctx context.Context, userID string) (*entity.Session, error)
}

// FeedRepository persists the global Feed table.
type FeedRepository interface {
	Create(ctx context.Context, f *entity.Feed) error
	GetByID(ctx context.Context, id string) (*entity.Feed, error)
	GetByCanonicalURL(ctx context.Context, canonicalURL string) (*entity.Feed, error)
	Update(ctx context.Context, f *entity.Feed) error
	ListActiveWithSubscribers(ctx context.Context, offset, limit int) ([]*entity.Feed, error)
	MarkOrphanedInactive(ctx context.Context) (int64, error)
	RecordFetchSuccess(ctx context.Context, feedID string, fetchedAt time.Time) error
	RecordFetchError(ctx context.Context, feedID string, errMsg string, at time.Time) error
}

// SubscriptionRepository persists the Subscription (UserFeed) join.
type SubscriptionRepository interface {
	Create(ctx context.Context, s *entity.Subscription) error
	GetByUserAndFeed(ctx context.Context, userID, feedID string) (*entity.Subscription, error)
	GetByID(ctx context.Context, id string) (*entity.Subscription, error)
	Update(ctx context.Context, s *entity.Subscription) error
	Delete(ctx context.Context, id string) error
	ListForUser(ctx context.Context, userID string, folderID *string) ([]*entity.Subscription, error)
	ListActiveSubscribersOfFeed(ctx context.Context, feedID string) ([]string, error)
	ListByImportID(ctx context.Context, userID, importID string) ([]*entity.Subscription, error)
	DeleteByImportID(ctx context.Context, userID, importID string) (int64, error)
	RecalculateUnreadCount(ctx context.Context, subscriptionID string) error
}

// FolderRepository persists the per-user Folder tree.
type FolderRepository interface {
	Create(ctx context.Context, f *entity.Folder) error
	GetByID(ctx context.Context, id string) (*entity.Folder, error)
	Update(ctx context.Context, f *entity.Folder) error
	Delete(ctx context.Context, id string) error
	ChildCount(ctx context.Context, parentID *string, userID string) (int, error)
	Tree(ctx context.Context, userID string) ([]*entity.Folder, error)
	IsDescendant(ctx context.Context, ancestorID, candidateID string) (bool, error)
}

// ArticleRepository persists the global Article table and its Feed
// links, with the row-locking upsert semantics §4.S/§4.A require.
type ArticleRepository interface {
	// LockOrCreate finds an Article by canonical URL under a row lock;
	// if absent it inserts the given Article. Returns the resolved
	// article and whether it was newly created. Implementations retry
	// once internally on a unique-violation race and on a
	// partition-missing error (creating the partition first).
	LockOrCreate(ctx context.Context, a *entity.Article) (resolved *entity.Article, created bool, err error)
	GetByID(ctx context.Context, id string) (*entity.Article, error)
	LinkSource(ctx context.Context, articleID, feedID string) (created bool, err error)
	HasSource(ctx context.Context, articleID, feedID string) (bool, error)
	EnsurePartitionsFor(ctx context.Context, publishedDates []time.Time) error
}

// ArticleFilter narrows the cursor-paginated articles feed (§6.1
// GET /articles). Zero-value slices/pointers mean "no filter on this
// field". Cursor is a decoded pagination.Decode result; nil means
// "start from the beginning".
type ArticleFilter struct {
	SubscriptionIDs []string
	TagIDs          []string
	FolderIDs       []string
	IsRead          *bool
	ReadLater       *bool
	Query           string
	FromDate        *time.Time
	ToDate          *time.Time
	Limit           int
	Cursor          map[string]any
}

// UserArticleRepository persists the per-user projection of Article
// state and its fan-out.
type UserArticleRepository interface {
	// FanOutForFeed inserts UserArticle rows (ON CONFLICT DO NOTHING)
	// for every active subscriber of feedID, for every article id
	// given.
	FanOutForFeed(ctx context.Context, feedID string, articleIDs []string) error
	Get(ctx context.Context, userID, articleID string) (*entity.UserArticle, error)
	Upsert(ctx context.Context, ua *entity.UserArticle) error
	DeleteForUserArticles(ctx context.Context, userID string, articleIDs []string) error
	ListUnreachable(ctx context.Context, userID string, feedID string, excludeFeedID string) ([]string, error)
	AutoMarkReadSweep(ctx context.Context) (int64, error)

	// ListForUser returns one page of the user's article feed under
	// filter, newest-published-first, plus the cursor for the next
	// page (nil once exhausted).
	ListForUser(ctx context.Context, userID string, filter ArticleFilter) ([]*entity.ArticleListItem, map[string]any, error)
}

// TagRepository persists UserTag and ArticleTag rows.
type TagRepository interface {
	GetOrCreate(ctx context.Context, userID, name string) (*entity.UserTag, error)
	GetByID(ctx context.Context, userID, tagID string) (*entity.UserTag, error)
	Rename(ctx context.Context, userID, tagID, newName string) error
	Delete(ctx context.Context, userID, tagID string) error
	ListForUser(ctx context.Context, userID string) ([]*entity.UserTag, error)
	LinkArticleTag(ctx context.Context, userID, articleID, tagID string) error
	UnlinkArticleTag(ctx context.Context, userID, articleID, tagID string) error
	TagsForArticle(ctx context.Context, userID, articleID string) ([]*entity.UserTag, error)
}

// SearchRepository runs the per-type tsvector+pg_trgm searches behind
// Search (R); each method returns one page plus the total match count
// for offset pagination.
type SearchRepository interface {
	SearchFeeds(ctx context.Context, userID, query string, limit, offset int) ([]*entity.FeedSearchHit, int, error)
	SearchTags(ctx context.Context, userID, query string, limit, offset int) ([]*entity.TagSearchHit, int, error)
	SearchFolders(ctx context.Context, userID, query string, limit, offset int) ([]*entity.FolderSearchHit, int, error)
	SearchArticles(ctx context.Context, userID, query string, limit, offset int) ([]*entity.ArticleSearchHit, int, error)
}

// OpmlRepository persists OpmlImport batch records.
type OpmlRepository interface {
	Create(ctx context.Context, o *entity.OpmlImport) error
	GetByID(ctx context.Context, id string) (*entity.OpmlImport, error)
	Update(ctx context.Context, o *entity.OpmlImport) error
}
