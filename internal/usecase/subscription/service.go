// Package subscription implements the Subscription lifecycle (U)
// component: subscribe, unsubscribe with reachability-aware cleanup,
// and OPML-batch rollback, grounded on original_source's
// subscription_service.py reachability computation and the teacher's
// internal/usecase/fetch service shape for the service-struct idiom.
package subscription

import (
	"context"
	"fmt"
	"time"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/repository"

	"github.com/google/uuid"
)

// Service orchestrates Subscription creation/removal and the
// reachability-aware UserArticle cleanup that accompanies it.
type Service struct {
	tx       repository.TxRunner
	subs     repository.SubscriptionRepository
	feeds    repository.FeedRepository
	userArts repository.UserArticleRepository
	tags     repository.TagRepository
}

func New(
	tx repository.TxRunner,
	subs repository.SubscriptionRepository,
	feeds repository.FeedRepository,
	userArts repository.UserArticleRepository,
	tags repository.TagRepository,
) *Service {
	return &Service{tx: tx, subs: subs, feeds: feeds, userArts: userArts, tags: tags}
}

// Subscribe creates a Subscription row and recalculates its unread
// count (§4.U Subscribe). importID is non-nil when the subscription
// was created as part of an OPML import batch, so it can later be
// located by RollbackImport.
func (s *Service) Subscribe(ctx context.Context, userID, feedID string, folderID, importID *string) (*entity.Subscription, error) {
	sub := &entity.Subscription{
		ID:        uuid.NewString(),
		UserID:    userID,
		FeedID:    feedID,
		FolderID:  folderID,
		ImportID:  importID,
		Active:    true,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.subs.Create(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}
	if err := s.subs.RecalculateUnreadCount(ctx, sub.ID); err != nil {
		return nil, fmt.Errorf("recalculate unread count: %w", err)
	}
	return sub, nil
}

// SubscriptionFor returns userID's existing Subscription to feedID, if
// any, used by OPML import to detect duplicates before subscribing.
func (s *Service) SubscriptionFor(ctx context.Context, userID, feedID string) (*entity.Subscription, error) {
	return s.subs.GetByUserAndFeed(ctx, userID, feedID)
}

// ListForUser returns every active Subscription for userID, used by
// OPML export to enumerate the feeds to render.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]*entity.Subscription, error) {
	return s.subs.ListForUser(ctx, userID, nil)
}

// ListForUserInFolder returns every active Subscription for userID
// under folderID, or every subscription when folderID is nil (§6.1 GET
// /feeds).
func (s *Service) ListForUserInFolder(ctx context.Context, userID string, folderID *string) ([]*entity.Subscription, error) {
	return s.subs.ListForUser(ctx, userID, folderID)
}

// Get returns one Subscription, refusing to return a row that does not
// belong to userID.
func (s *Service) Get(ctx context.Context, userID, subscriptionID string) (*entity.Subscription, error) {
	sub, err := s.subs.GetByID(ctx, subscriptionID)
	if err != nil {
		return nil, err
	}
	if sub.UserID != userID {
		return nil, &entity.NotFoundError{Resource: "subscription", ID: subscriptionID}
	}
	return sub, nil
}

// Rename sets a per-user display title override for a subscription.
func (s *Service) Rename(ctx context.Context, userID, subscriptionID, title string) (*entity.Subscription, error) {
	sub, err := s.Get(ctx, userID, subscriptionID)
	if err != nil {
		return nil, err
	}
	sub.TitleOverride = title
	if err := s.subs.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("rename subscription: %w", err)
	}
	return sub, nil
}

// Move relocates a subscription to a different folder (nil promotes it
// to the root) and/or toggles its pinned flag. Nil pointers leave the
// corresponding field untouched.
func (s *Service) Move(ctx context.Context, userID, subscriptionID string, folderID *string, pinned *bool, folderSet bool) (*entity.Subscription, error) {
	sub, err := s.Get(ctx, userID, subscriptionID)
	if err != nil {
		return nil, err
	}
	if folderSet {
		sub.FolderID = folderID
	}
	if pinned != nil {
		sub.Pinned = *pinned
	}
	if err := s.subs.Update(ctx, sub); err != nil {
		return nil, fmt.Errorf("move subscription: %w", err)
	}
	return sub, nil
}

// UnsubscribeByID resolves subscriptionID's feed and delegates to
// Unsubscribe, so callers that only have the subscription id (e.g. the
// HTTP handler) don't need to look up the feed id themselves.
func (s *Service) UnsubscribeByID(ctx context.Context, userID, subscriptionID string) error {
	sub, err := s.Get(ctx, userID, subscriptionID)
	if err != nil {
		return err
	}
	return s.Unsubscribe(ctx, userID, subscriptionID, sub.FeedID)
}

// Unsubscribe removes a user's Subscription to feedID, cleaning up any
// UserArticle/ArticleTag rows for articles no longer reachable through
// any of the user's remaining feeds. The global Article is never
// deleted (§4.U Unsubscribe).
func (s *Service) Unsubscribe(ctx context.Context, userID, subscriptionID, feedID string) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		unreachable, err := s.userArts.ListUnreachable(ctx, userID, feedID, feedID)
		if err != nil {
			return fmt.Errorf("list unreachable articles: %w", err)
		}
		if len(unreachable) > 0 {
			if err := s.userArts.DeleteForUserArticles(ctx, userID, unreachable); err != nil {
				return fmt.Errorf("delete user articles: %w", err)
			}
		}
		if err := s.subs.Delete(ctx, subscriptionID); err != nil {
			return fmt.Errorf("delete subscription: %w", err)
		}
		return nil
	})
}

// RollbackImport undoes every Subscription created by one OPML import
// batch, applying the same reachability-aware cleanup per subscription
// before the bulk delete (§4.U Bulk OPML rollback, §4.O Rollback).
func (s *Service) RollbackImport(ctx context.Context, userID, importID string) error {
	return s.tx.WithTx(ctx, func(ctx context.Context) error {
		subs, err := s.subs.ListByImportID(ctx, userID, importID)
		if err != nil {
			return fmt.Errorf("list import subscriptions: %w", err)
		}
		for _, sub := range subs {
			unreachable, err := s.userArts.ListUnreachable(ctx, userID, sub.FeedID, sub.FeedID)
			if err != nil {
				return fmt.Errorf("list unreachable articles for feed %s: %w", sub.FeedID, err)
			}
			if len(unreachable) > 0 {
				if err := s.userArts.DeleteForUserArticles(ctx, userID, unreachable); err != nil {
					return fmt.Errorf("delete user articles for feed %s: %w", sub.FeedID, err)
				}
			}
		}
		if _, err := s.subs.DeleteByImportID(ctx, userID, importID); err != nil {
			return fmt.Errorf("delete import subscriptions: %w", err)
		}
		return nil
	})
}

// BackfillFromLatest seeds UserArticle rows (and their source tags) for
// a newly-created Subscription from the feed's cached
// Feed.LatestArticles list, used by the discover+subscribe "URL
// globally known, user not subscribed" branch (§4.F).
func (s *Service) BackfillFromLatest(ctx context.Context, userID string, f *entity.Feed, articleSourceTags map[string][]string) error {
	if len(f.LatestArticles) == 0 {
		return nil
	}
	if err := s.userArts.FanOutForFeed(ctx, f.ID, f.LatestArticles); err != nil {
		return fmt.Errorf("backfill user articles: %w", err)
	}
	for _, articleID := range f.LatestArticles {
		for _, name := range articleSourceTags[articleID] {
			tag, err := s.tags.GetOrCreate(ctx, userID, name)
			if err != nil {
				continue
			}
			_ = s.tags.LinkArticleTag(ctx, userID, articleID, tag.ID)
		}
	}
	return nil
}
