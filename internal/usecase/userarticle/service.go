// Package userarticle implements the per-user article projection (R)
// surfaced by GET/PUT /articles: detail lookup with implicit
// mark-as-read, read/bookmark/tag-set updates, and the bulk
// mark-as-read endpoint, orchestrating repository.ArticleRepository,
// UserArticleRepository, and the tag engine's SyncArticleTags.
package userarticle

import (
	"context"
	"fmt"
	"time"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/repository"
	"feedkeep/internal/usecase/tag"
)

// Detail is one article as rendered to its owning user: the global
// Article fields plus the caller's UserArticle projection and current
// tag set.
type Detail struct {
	Article *entity.Article
	State   *entity.UserArticle
	Tags    []*entity.UserTag
}

// Service orchestrates per-user article state.
type Service struct {
	articles repository.ArticleRepository
	userArts repository.UserArticleRepository
	tags     *tag.Service
}

func New(articles repository.ArticleRepository, userArts repository.UserArticleRepository, tags *tag.Service) *Service {
	return &Service{articles: articles, userArts: userArts, tags: tags}
}

// List returns one page of the user's article feed (§6.1 GET
// /articles).
func (s *Service) List(ctx context.Context, userID string, filter repository.ArticleFilter) ([]*entity.ArticleListItem, map[string]any, error) {
	return s.userArts.ListForUser(ctx, userID, filter)
}

// Get returns one article's detail for userID and marks it read as a
// side effect of viewing it (§6.1 GET /articles/{id}).
func (s *Service) Get(ctx context.Context, userID, articleID string) (*Detail, error) {
	a, err := s.articles.GetByID(ctx, articleID)
	if err != nil {
		return nil, err
	}
	state, err := s.userArts.Get(ctx, userID, articleID)
	if err != nil {
		return nil, err
	}
	if !state.IsRead {
		now := time.Now().UTC()
		state.IsRead = true
		state.ReadAt = &now
		if err := s.userArts.Upsert(ctx, state); err != nil {
			return nil, fmt.Errorf("mark article read: %w", err)
		}
	}
	tags, err := s.tags.TagsForArticle(ctx, userID, articleID)
	if err != nil {
		return nil, fmt.Errorf("load article tags: %w", err)
	}
	return &Detail{Article: a, State: state, Tags: tags}, nil
}

// Update applies an explicit read/bookmark/tag-set change (§6.1 PUT
// /articles/{id}). Nil pointers leave the corresponding field
// untouched; a nil tagIDs leaves the tag set untouched.
func (s *Service) Update(ctx context.Context, userID, articleID string, isRead, readLater *bool, tagIDs []string) (*entity.UserArticle, error) {
	state, err := s.userArts.Get(ctx, userID, articleID)
	if err != nil {
		return nil, err
	}
	if isRead != nil {
		state.IsRead = *isRead
		if *isRead {
			now := time.Now().UTC()
			state.ReadAt = &now
		} else {
			state.ReadAt = nil
		}
	}
	if readLater != nil {
		state.ReadLater = *readLater
	}
	if err := s.userArts.Upsert(ctx, state); err != nil {
		return nil, fmt.Errorf("update article state: %w", err)
	}
	if tagIDs != nil {
		if err := s.tags.SyncArticleTags(ctx, userID, articleID, tagIDs); err != nil {
			return nil, fmt.Errorf("sync article tags: %w", err)
		}
	}
	return state, nil
}

// markAsReadBatchSize bounds each page fetched while walking a bulk
// mark-as-read filter, so one request can't hold an unbounded result
// set in memory.
const markAsReadBatchSize = 500

// MarkAsRead applies is_read=true to every article matching filter,
// paging through the user's feed under it until exhausted (§6.1 POST
// /articles/mark-as-read). Returns the number of articles updated.
func (s *Service) MarkAsRead(ctx context.Context, userID string, filter repository.ArticleFilter) (int, error) {
	filter.Limit = markAsReadBatchSize
	filter.IsRead = boolPtr(false)

	var updated int
	for {
		items, next, err := s.userArts.ListForUser(ctx, userID, filter)
		if err != nil {
			return updated, fmt.Errorf("list articles for mark-as-read: %w", err)
		}
		if len(items) == 0 {
			break
		}
		now := time.Now().UTC()
		for _, item := range items {
			ua := &entity.UserArticle{UserID: userID, ArticleID: item.ID, IsRead: true, ReadLater: item.ReadLater, ReadAt: &now}
			if err := s.userArts.Upsert(ctx, ua); err != nil {
				return updated, fmt.Errorf("mark article %s read: %w", item.ID, err)
			}
			updated++
		}
		if next == nil {
			break
		}
		filter.Cursor = next
	}
	return updated, nil
}

func boolPtr(b bool) *bool { return &b }
