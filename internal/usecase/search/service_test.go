package search_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/usecase/search"
)

type stubSearchRepo struct {
	feeds    []*entity.FeedSearchHit
	tags     []*entity.TagSearchHit
	folders  []*entity.FolderSearchHit
	articles []*entity.ArticleSearchHit

	feedsErr error
}

func (s *stubSearchRepo) SearchFeeds(ctx context.Context, userID, query string, limit, offset int) ([]*entity.FeedSearchHit, int, error) {
	if s.feedsErr != nil {
		return nil, 0, s.feedsErr
	}
	return s.feeds, len(s.feeds), nil
}

func (s *stubSearchRepo) SearchTags(ctx context.Context, userID, query string, limit, offset int) ([]*entity.TagSearchHit, int, error) {
	return s.tags, len(s.tags), nil
}

func (s *stubSearchRepo) SearchFolders(ctx context.Context, userID, query string, limit, offset int) ([]*entity.FolderSearchHit, int, error) {
	return s.folders, len(s.folders), nil
}

func (s *stubSearchRepo) SearchArticles(ctx context.Context, userID, query string, limit, offset int) ([]*entity.ArticleSearchHit, int, error) {
	return s.articles, len(s.articles), nil
}

func TestUniversalSearch_WeightsAndOrdersAcrossTypes(t *testing.T) {
	repo := &stubSearchRepo{
		feeds:    []*entity.FeedSearchHit{{SubscriptionID: "f1", Title: "Go Weekly", Relevance: 1.5}},
		tags:     []*entity.TagSearchHit{{ID: "t1", Name: "golang", Relevance: 1.5}},
		folders:  []*entity.FolderSearchHit{{ID: "fo1", Name: "Go Stuff", Relevance: 1.5}},
		articles: []*entity.ArticleSearchHit{{ID: "a1", Title: "Go 1.25 released", Relevance: 0.9}},
	}
	svc := search.New(repo)

	hits, err := svc.UniversalSearch(context.Background(), "user-1", "go")
	require.NoError(t, err)
	require.Len(t, hits, 4)

	// Feed relevance 1.5 clamps to norm 1.0 * weight 2.0 = 2.0, the highest score.
	assert.Equal(t, entity.SearchResultFeed, hits[0].Type)
	// Single-item article set falls back to raw-relevance clamp (0.9) * weight 1.8 = 1.62.
	assert.Equal(t, entity.SearchResultArticle, hits[1].Type)
	// Folder: 1.5/1.5=1.0 * weight 1.5 = 1.5.
	assert.Equal(t, entity.SearchResultFolder, hits[2].Type)
	// Tag: 1.5/1.5=1.0 * weight 0.8 = 0.8, the lowest score.
	assert.Equal(t, entity.SearchResultTag, hits[3].Type)
}

func TestUniversalSearch_PerTypeFailureIsExcludedNotFatal(t *testing.T) {
	repo := &stubSearchRepo{
		feedsErr: errors.New("connection reset"),
		tags:     []*entity.TagSearchHit{{ID: "t1", Name: "golang", Relevance: 1.0}},
	}
	svc := search.New(repo)

	hits, err := svc.UniversalSearch(context.Background(), "user-1", "go")
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, entity.SearchResultTag, hits[0].Type)
}

func TestUniversalSearch_CapsAtTwenty(t *testing.T) {
	var articles []*entity.ArticleSearchHit
	for i := 0; i < 30; i++ {
		articles = append(articles, &entity.ArticleSearchHit{ID: "a", Title: "x", Relevance: float64(i)})
	}
	repo := &stubSearchRepo{articles: articles}
	svc := search.New(repo)

	hits, err := svc.UniversalSearch(context.Background(), "user-1", "x")
	require.NoError(t, err)
	assert.Len(t, hits, 20)
}

func TestSearchFeeds_WrapsPageWithHasMore(t *testing.T) {
	repo := &stubSearchRepo{
		feeds: []*entity.FeedSearchHit{{SubscriptionID: "f1"}, {SubscriptionID: "f2"}},
	}
	svc := search.New(repo)

	page, err := svc.SearchFeeds(context.Background(), "user-1", "go", 2, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Total)
	assert.False(t, page.HasMore)
}
