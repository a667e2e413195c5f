// Package article implements the Article processor (A) component,
// adapted from the teacher's internal/usecase/fetch service shape onto
// the per-user-projection data model, grounded step-for-step on
// original_source's article_processor.py (partition pre-creation,
// lock-or-create, fan-out, per-subscriber tagging).
package article

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/infra/feedparse"
	"feedkeep/internal/infra/sanitize"
	"feedkeep/internal/repository"
	"feedkeep/internal/service/auth"

	"github.com/google/uuid"
)

// Processor ingests a batch of parsed entries for one feed: dedup,
// upsert, fan-out, and per-subscriber tagging (§4.A).
type Processor struct {
	tx       repository.TxRunner
	articles repository.ArticleRepository
	userArts repository.UserArticleRepository
	tags     repository.TagRepository
	subs     repository.SubscriptionRepository
	cleaner  *sanitize.Cleaner
}

func NewProcessor(
	tx repository.TxRunner,
	articles repository.ArticleRepository,
	userArts repository.UserArticleRepository,
	tags repository.TagRepository,
	subs repository.SubscriptionRepository,
	cleaner *sanitize.Cleaner,
) *Processor {
	return &Processor{tx: tx, articles: articles, userArts: userArts, tags: tags, subs: subs, cleaner: cleaner}
}

// taggedArticle remembers (article_id, source_tags) for entries that
// turned out to be newly created, per §4.A step 2's "remember for
// tagging" note — tagging only ever applies to brand-new articles.
type taggedArticle struct {
	articleID string
	tags      []string
}

// Process runs the full §4.A algorithm for one feed's batch of
// entries, inside a single transaction. It returns the "all fetched"
// article ids in source order, for Feed.LatestArticles bookkeeping.
func (p *Processor) Process(ctx context.Context, feedID string, entries []feedparse.EntryRecord) ([]string, error) {
	if len(entries) > feedparse.MaxEntriesPerFeed {
		entries = entries[:feedparse.MaxEntriesPerFeed]
	}

	publishedDates := make([]time.Time, 0, len(entries))
	now := time.Now().UTC()
	for _, e := range entries {
		if e.PublishedAt != nil {
			publishedDates = append(publishedDates, *e.PublishedAt)
		}
	}
	if err := p.articles.EnsurePartitionsFor(ctx, publishedDates); err != nil {
		return nil, fmt.Errorf("ensure partitions: %w", err)
	}

	var fetchedIDs []string
	var newlyLinkedIDs []string
	var toTag []taggedArticle

	err := p.tx.WithTx(ctx, func(ctx context.Context) error {
		for _, e := range entries {
			if e.Link == "" {
				continue
			}
			canonicalURL := auth.NormalizeURL(e.Link)

			if e.PublishedAt != nil && e.PublishedAt.After(now) {
				continue
			}

			a := buildArticle(canonicalURL, e, p.cleaner)

			resolved, created, err := p.articles.LockOrCreate(ctx, a)
			if err != nil {
				return fmt.Errorf("lock or create article: %w", err)
			}

			fetchedIDs = append(fetchedIDs, resolved.ID)

			linked, err := p.articles.LinkSource(ctx, resolved.ID, feedID)
			if err != nil {
				return fmt.Errorf("link article source: %w", err)
			}
			if linked {
				newlyLinkedIDs = append(newlyLinkedIDs, resolved.ID)
			}

			if created {
				toTag = append(toTag, taggedArticle{articleID: resolved.ID, tags: e.Categories})
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := p.userArts.FanOutForFeed(ctx, feedID, fetchedIDs); err != nil {
		return nil, fmt.Errorf("fan out fetched articles: %w", err)
	}
	if err := p.userArts.FanOutForFeed(ctx, feedID, newlyLinkedIDs); err != nil {
		return nil, fmt.Errorf("fan out newly linked articles: %w", err)
	}

	if len(toTag) > 0 {
		if err := p.tagForSubscribers(ctx, feedID, toTag); err != nil {
			return nil, fmt.Errorf("tag new articles for subscribers: %w", err)
		}
	}

	return fetchedIDs, nil
}

// tagForSubscribers implements step 5: for each newly-created
// article's source tags, every active subscriber of the feed
// get-or-creates the tag and links it to their own UserArticle.
func (p *Processor) tagForSubscribers(ctx context.Context, feedID string, toTag []taggedArticle) error {
	if len(toTag) == 0 {
		return nil
	}
	subscriberIDs, err := p.subs.ListActiveSubscribersOfFeed(ctx, feedID)
	if err != nil {
		return fmt.Errorf("list active subscribers: %w", err)
	}
	if len(subscriberIDs) == 0 {
		return nil
	}

	for _, item := range toTag {
		for _, userID := range subscriberIDs {
			for _, name := range item.tags {
				tag, err := p.tags.GetOrCreate(ctx, userID, name)
				if err != nil {
					slog.Warn("get-or-create tag failed", slog.String("user_id", userID), slog.String("tag", name), slog.Any("error", err))
					continue
				}
				if err := p.tags.LinkArticleTag(ctx, userID, item.articleID, tag.ID); err != nil {
					slog.Warn("link article tag failed", slog.String("user_id", userID), slog.String("article_id", item.articleID), slog.Any("error", err))
				}
			}
		}
	}
	return nil
}

// buildArticle constructs the candidate Article row for an entry,
// running its content through the sanitizer and truncating the
// summary per §3's 2000-char bound.
func buildArticle(canonicalURL string, e feedparse.EntryRecord, cleaner *sanitize.Cleaner) *entity.Article {
	var content string
	var summary string
	if e.Content != "" {
		content = cleaner.Clean(e.Content)
		summary = entity.TruncateSummary(cleaner.HTMLToText(e.Content))
	}

	mediaURL := e.MediaURL
	if mediaURL == "" && e.Content != "" {
		_, img := cleaner.CleanHTMLContent(e.Content)
		mediaURL = img
	}

	publishedAt := time.Now().UTC()
	if e.PublishedAt != nil {
		publishedAt = *e.PublishedAt
	}

	return &entity.Article{
		ID:               uuid.NewString(),
		CanonicalURL:     canonicalURL,
		Title:            strings.TrimSpace(e.Title),
		Author:           e.Author,
		Summary:          summary,
		Content:          content,
		SourceTags:       e.Categories,
		MediaURL:         mediaURL,
		PlatformMetadata: e.PlatformMetadata,
		PublishedAt:      publishedAt,
	}
}
