// Package feed implements the Feed lifecycle (F) component: create,
// discover+subscribe, scheduled refresh, and the two daily sweeps,
// adapted from the teacher's internal/usecase/fetch service shape
// (CrawlAllSources/CrawlStats, batched-source loop, slog + metrics
// reporting) and cmd/worker's cron wiring.
package feed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/infra/feedparse"
	"feedkeep/internal/infra/fetch"
	"feedkeep/internal/observability/metrics"
	"feedkeep/internal/repository"
	"feedkeep/internal/usecase/article"

	"github.com/google/uuid"
	"github.com/mmcdole/gofeed"
)

// Status is a per-feed outcome of one refresh attempt (§4.F cycle).
type Status string

const (
	StatusSuccess Status = "success"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
	StatusUnknown Status = "unknown"
)

// RefreshStats aggregates one scheduled-cycle run, mirroring the
// teacher's CrawlStats shape.
type RefreshStats struct {
	Feeds       int
	Success     int
	Skipped     int
	Error       int
	Unknown     int
	NewArticles int64
	Duration    time.Duration
}

// Service orchestrates feed creation and refresh.
type Service struct {
	Feeds     repository.FeedRepository
	Subs      repository.SubscriptionRepository
	Folders   repository.FolderRepository
	Articles  repository.ArticleRepository
	UserArts  repository.UserArticleRepository
	Tags      repository.TagRepository
	Fetcher   *fetch.Fetcher
	Processor *article.Processor
	Jobs      JobEnqueuer
	BatchSize int
}

// JobEnqueuer schedules the "URL unknown" branch of Discover, satisfied
// by internal/job.Publisher. Declared narrowly here, rather than
// importing internal/job directly, because the job package's Worker
// depends on Service to run the jobs it dequeues.
type JobEnqueuer interface {
	Enqueue(ctx context.Context, jobType entity.JobType, payload map[string]any) (string, error)
}

func New(
	feeds repository.FeedRepository,
	subs repository.SubscriptionRepository,
	folders repository.FolderRepository,
	articles repository.ArticleRepository,
	userArts repository.UserArticleRepository,
	tags repository.TagRepository,
	fetcher *fetch.Fetcher,
	processor *article.Processor,
	jobs JobEnqueuer,
	batchSize int,
) *Service {
	return &Service{
		Feeds: feeds, Subs: subs, Folders: folders, Articles: articles, UserArts: userArts, Tags: tags,
		Fetcher: fetcher, Processor: processor, Jobs: jobs, BatchSize: batchSize,
	}
}

// DiscoverOutcome reports what Discover ended up doing, for the HTTP
// handler to translate into the matching response shape.
type DiscoverOutcome string

const (
	OutcomeAlreadySubscribed DiscoverOutcome = "already-subscribed"
	OutcomeSubscribed        DiscoverOutcome = "subscribed"
	OutcomePending           DiscoverOutcome = "pending"
)

// CreateFeed fetches, parses, validates, and persists a brand-new Feed
// row, then runs the article processor once over its entries so
// Feed.LatestArticles is populated for subscribe-backfill (§4.F Create
// feed).
func (s *Service) CreateFeed(ctx context.Context, canonicalURL string) (*entity.Feed, error) {
	parsed, err := s.Fetcher.Fetch(ctx, canonicalURL)
	if err != nil {
		return nil, fmt.Errorf("fetch feed: %w", err)
	}
	if kind := feedparse.ValidateFeedStructure(parsed); kind != nil {
		return nil, &entity.UpstreamError{Kind: *kind}
	}

	meta := feedparse.ExtractFeedMeta(parsed)
	now := time.Now().UTC()
	f := &entity.Feed{
		ID:            uuid.NewString(),
		CanonicalURL:  canonicalURL,
		Title:         meta.Title,
		Description:   meta.Description,
		Language:      meta.Language,
		Website:       meta.Website,
		Type:          meta.Type,
		LastFetchedAt: &now,
		Active:        true,
		CreatedAt:     now,
	}
	if err := s.Feeds.Create(ctx, f); err != nil {
		return nil, fmt.Errorf("create feed: %w", err)
	}

	entries := entriesFrom(parsed)
	fetchedIDs, err := s.Processor.Process(ctx, f.ID, entries)
	if err != nil {
		return nil, fmt.Errorf("process initial entries: %w", err)
	}

	// Entries arrive in source (feed) order, which for virtually every
	// real-world feed is already most-recent-first; push in reverse so
	// the most recent entry ends up first in LatestArticles.
	for i := len(fetchedIDs) - 1; i >= 0; i-- {
		f.PushLatestArticle(fetchedIDs[i])
	}
	if err := s.Feeds.Update(ctx, f); err != nil {
		return nil, fmt.Errorf("persist latest articles: %w", err)
	}

	return f, nil
}

// Discover subscribes userID to canonicalURL, branching on whether the
// feed is already known and whether the user is already subscribed
// (§4.F Discover + subscribe). A nil Subscription accompanies
// OutcomePending, since feed creation is deferred to the worker.
func (s *Service) Discover(ctx context.Context, userID, canonicalURL string, folderID *string) (DiscoverOutcome, *entity.Subscription, error) {
	f, err := s.Feeds.GetByCanonicalURL(ctx, canonicalURL)
	if err != nil {
		var notFound *entity.NotFoundError
		if !errors.As(err, &notFound) {
			return "", nil, fmt.Errorf("look up feed: %w", err)
		}
		jobID, jobErr := s.Jobs.Enqueue(ctx, entity.JobTypeCreateAndSubscribe, map[string]any{
			"url":       canonicalURL,
			"user_id":   userID,
			"folder_id": derefOrZero(folderID),
		})
		if jobErr != nil {
			return "", nil, fmt.Errorf("enqueue create-and-subscribe job: %w", jobErr)
		}
		slog.Info("feed unknown, queued for creation", slog.String("job_id", jobID), slog.String("url", canonicalURL))
		return OutcomePending, nil, nil
	}

	existing, err := s.Subs.GetByUserAndFeed(ctx, userID, f.ID)
	if err == nil {
		s.moveToRequestedFolder(ctx, existing, folderID)
		return OutcomeAlreadySubscribed, existing, nil
	}
	var notFound *entity.NotFoundError
	if !errors.As(err, &notFound) {
		return "", nil, fmt.Errorf("look up subscription: %w", err)
	}

	sub := &entity.Subscription{
		ID:        uuid.NewString(),
		UserID:    userID,
		FeedID:    f.ID,
		FolderID:  folderID,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.Subs.Create(ctx, sub); err != nil {
		return "", nil, fmt.Errorf("create subscription: %w", err)
	}
	if err := s.Subs.RecalculateUnreadCount(ctx, sub.ID); err != nil {
		return "", nil, fmt.Errorf("recalculate unread count: %w", err)
	}
	if err := s.backfillLatestArticles(ctx, userID, f); err != nil {
		slog.Warn("backfill latest articles failed", slog.String("feed_id", f.ID), slog.Any("error", err))
	}
	return OutcomeSubscribed, sub, nil
}

// moveToRequestedFolder relocates an already-subscribed feed to
// folderID when it differs from the subscription's current folder. An
// invalid folder id is logged and the subscription is left in place
// (falls through to its current folder) rather than failing the whole
// discover request.
func (s *Service) moveToRequestedFolder(ctx context.Context, sub *entity.Subscription, folderID *string) {
	if folderID == nil || samePtr(sub.FolderID, folderID) {
		return
	}
	if _, err := s.Folders.GetByID(ctx, *folderID); err != nil {
		slog.Warn("discover: requested folder not found, leaving subscription in place",
			slog.String("subscription_id", sub.ID), slog.String("folder_id", *folderID), slog.Any("error", err))
		return
	}
	sub.FolderID = folderID
	if err := s.Subs.Update(ctx, sub); err != nil {
		slog.Warn("discover: failed to move subscription to requested folder",
			slog.String("subscription_id", sub.ID), slog.Any("error", err))
	}
}

// backfillLatestArticles seeds UserArticle rows (and their source tags)
// for a freshly-created Subscription from the feed's cached
// Feed.LatestArticles list.
func (s *Service) backfillLatestArticles(ctx context.Context, userID string, f *entity.Feed) error {
	if len(f.LatestArticles) == 0 {
		return nil
	}
	if err := s.UserArts.FanOutForFeed(ctx, f.ID, f.LatestArticles); err != nil {
		return fmt.Errorf("fan out user articles: %w", err)
	}
	for _, articleID := range f.LatestArticles {
		a, err := s.Articles.GetByID(ctx, articleID)
		if err != nil {
			continue
		}
		for _, name := range a.SourceTags {
			tag, err := s.Tags.GetOrCreate(ctx, userID, name)
			if err != nil {
				continue
			}
			_ = s.Tags.LinkArticleTag(ctx, userID, articleID, tag.ID)
		}
	}
	return nil
}

func samePtr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func derefOrZero(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// RefreshOne fetches, parses, and ingests one feed's current entries,
// updating its health bookkeeping (§4.F Refresh one feed).
func (s *Service) RefreshOne(ctx context.Context, f *entity.Feed) (newArticles int, err error) {
	now := time.Now().UTC()
	parsed, fetchErr := s.Fetcher.Fetch(ctx, f.CanonicalURL)
	if fetchErr != nil {
		return 0, s.recordFailure(ctx, f.ID, fetchErr, now)
	}
	if kind := feedparse.ValidateFeedStructure(parsed); kind != nil {
		return 0, s.recordFailure(ctx, f.ID, &entity.UpstreamError{Kind: *kind}, now)
	}

	entries := entriesFrom(parsed)
	fetchedIDs, err := s.Processor.Process(ctx, f.ID, entries)
	if err != nil {
		return 0, s.recordFailure(ctx, f.ID, err, now)
	}

	if err := s.Feeds.RecordFetchSuccess(ctx, f.ID, now); err != nil {
		return 0, fmt.Errorf("record fetch success: %w", err)
	}
	return len(fetchedIDs), nil
}

func (s *Service) recordFailure(ctx context.Context, feedID string, cause error, at time.Time) error {
	if err := s.Feeds.RecordFetchError(ctx, feedID, cause.Error(), at); err != nil {
		return fmt.Errorf("record fetch error: %w", err)
	}
	return cause
}

// RunRefreshCycle lists active feeds with at least one subscriber and
// refreshes them in batches of BatchSize (§4.F Scheduled refresh
// cycle), mirroring CrawlAllSources's aggregate-then-log shape.
func (s *Service) RunRefreshCycle(ctx context.Context) (*RefreshStats, error) {
	start := time.Now()
	stats := &RefreshStats{}

	offset := 0
	for {
		batch, err := s.Feeds.ListActiveWithSubscribers(ctx, offset, s.BatchSize)
		if err != nil {
			return stats, fmt.Errorf("list active feeds: %w", err)
		}
		if len(batch) == 0 {
			break
		}
		for _, f := range batch {
			stats.Feeds++
			status, newCount := s.refreshWithStatus(ctx, f)
			switch status {
			case StatusSuccess, StatusSkipped:
				stats.Success++
			case StatusError:
				stats.Error++
			default:
				stats.Unknown++
			}
			stats.NewArticles += int64(newCount)
		}
		offset += len(batch)
	}

	stats.Duration = time.Since(start)
	metrics.RecordFeedsProcessed(stats.Feeds)
	slog.Info("feed refresh cycle completed",
		slog.Int("feeds", stats.Feeds),
		slog.Int("success", stats.Success),
		slog.Int("skipped", stats.Skipped),
		slog.Int("error", stats.Error),
		slog.Int("unknown", stats.Unknown),
		slog.Int64("new_articles", stats.NewArticles),
		slog.Duration("duration", stats.Duration),
	)
	return stats, nil
}

func (s *Service) refreshWithStatus(ctx context.Context, f *entity.Feed) (Status, int) {
	n, err := s.RefreshOne(ctx, f)
	if err == nil {
		return StatusSuccess, n
	}
	var upErr *entity.UpstreamError
	if errors.As(err, &upErr) {
		slog.Warn("feed refresh failed", slog.String("feed_id", f.ID), slog.String("url", f.CanonicalURL), slog.Any("error", err))
		return StatusError, 0
	}
	slog.Warn("feed refresh failed with unexpected error", slog.String("feed_id", f.ID), slog.Any("error", err))
	return StatusUnknown, 0
}

// MarkOrphanedInactive runs the 02:00 daily sweep (§4.F).
func (s *Service) MarkOrphanedInactive(ctx context.Context) (int64, error) {
	return s.Feeds.MarkOrphanedInactive(ctx)
}

// AutoMarkReadSweep runs the 03:00 daily sweep (§4.F).
func (s *Service) AutoMarkReadSweep(ctx context.Context) (int64, error) {
	return s.UserArts.AutoMarkReadSweep(ctx)
}

// entriesFrom extracts every EntryRecord from a parsed feed; the §5
// truncation bound is enforced inside Processor.Process.
func entriesFrom(f *gofeed.Feed) []feedparse.EntryRecord {
	entries := make([]feedparse.EntryRecord, 0, len(f.Items))
	for _, item := range f.Items {
		entries = append(entries, feedparse.ExtractEntry(item))
	}
	return entries
}
