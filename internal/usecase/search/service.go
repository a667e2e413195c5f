// Package search implements Search (R): per-type subscription/tag/
// folder/article lookups plus a universal search that fans all four
// out in parallel and merges them into one type-weighted, ranked
// list.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"golang.org/x/sync/errgroup"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/repository"
)

const perTypeLimit = 10

const unifiedResultCap = 20

// typeWeight multiplies each type's normalized relevance before the
// universal-search merge, reproducing original_source's deliberately
// uneven per-type emphasis (articles and feeds outrank tags and
// folders in the blended list).
var typeWeight = map[entity.SearchResultType]float64{
	entity.SearchResultArticle: 1.8,
	entity.SearchResultFeed:    2.0,
	entity.SearchResultTag:     0.8,
	entity.SearchResultFolder:  1.5,
}

// Service wraps the per-type full-text/trigram search repository.
type Service struct {
	Repo repository.SearchRepository
}

func New(repo repository.SearchRepository) *Service {
	return &Service{Repo: repo}
}

func (s *Service) SearchFeeds(ctx context.Context, userID, query string, limit, offset int) (*entity.SearchPage[*entity.FeedSearchHit], error) {
	hits, total, err := s.Repo.SearchFeeds(ctx, userID, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("search feeds: %w", err)
	}
	return page(hits, total, limit, offset), nil
}

func (s *Service) SearchTags(ctx context.Context, userID, query string, limit, offset int) (*entity.SearchPage[*entity.TagSearchHit], error) {
	hits, total, err := s.Repo.SearchTags(ctx, userID, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("search tags: %w", err)
	}
	return page(hits, total, limit, offset), nil
}

func (s *Service) SearchFolders(ctx context.Context, userID, query string, limit, offset int) (*entity.SearchPage[*entity.FolderSearchHit], error) {
	hits, total, err := s.Repo.SearchFolders(ctx, userID, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("search folders: %w", err)
	}
	return page(hits, total, limit, offset), nil
}

func (s *Service) SearchArticles(ctx context.Context, userID, query string, limit, offset int) (*entity.SearchPage[*entity.ArticleSearchHit], error) {
	hits, total, err := s.Repo.SearchArticles(ctx, userID, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("search articles: %w", err)
	}
	return page(hits, total, limit, offset), nil
}

func page[T any](data []T, total, limit, offset int) *entity.SearchPage[T] {
	return &entity.SearchPage[T]{
		Data:    data,
		Total:   total,
		Limit:   limit,
		Offset:  offset,
		HasMore: offset+len(data) < total,
	}
}

// scored pairs a type-specific hit with the weighted score driving
// the unified ordering.
type scored struct {
	hit   *entity.UnifiedSearchHit
	score float64
}

// UniversalSearch fans the four per-type searches out concurrently,
// tolerating a per-type failure by logging and excluding that type
// rather than failing the whole request (§4.R). Each type's raw
// relevance is normalized onto [0,1] before weighting: articles use a
// true min-max over their own result set; feeds/tags/folders instead
// divide by a fixed 1.5 and clamp, matching original_source's
// asymmetric normalization rather than unifying it, since that
// asymmetry is intentional carried-over behavior, not a bug (Open
// Question #5).
func (s *Service) UniversalSearch(ctx context.Context, userID, query string) ([]*entity.UnifiedSearchHit, error) {
	var (
		feeds    []*entity.FeedSearchHit
		tags     []*entity.TagSearchHit
		folders  []*entity.FolderSearchHit
		articles []*entity.ArticleSearchHit
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		hits, _, err := s.Repo.SearchFeeds(gctx, userID, query, perTypeLimit, 0)
		if err != nil {
			slog.Warn("universal search: feed search failed", slog.Any("error", err))
			return nil
		}
		feeds = hits
		return nil
	})
	g.Go(func() error {
		hits, _, err := s.Repo.SearchTags(gctx, userID, query, perTypeLimit, 0)
		if err != nil {
			slog.Warn("universal search: tag search failed", slog.Any("error", err))
			return nil
		}
		tags = hits
		return nil
	})
	g.Go(func() error {
		hits, _, err := s.Repo.SearchFolders(gctx, userID, query, perTypeLimit, 0)
		if err != nil {
			slog.Warn("universal search: folder search failed", slog.Any("error", err))
			return nil
		}
		folders = hits
		return nil
	})
	g.Go(func() error {
		hits, _, err := s.Repo.SearchArticles(gctx, userID, query, perTypeLimit, 0)
		if err != nil {
			slog.Warn("universal search: article search failed", slog.Any("error", err))
			return nil
		}
		articles = hits
		return nil
	})
	_ = g.Wait()

	var merged []scored
	merged = append(merged, scoreClamped(feeds, entity.SearchResultFeed, func(h *entity.FeedSearchHit) (string, string, float64) {
		return h.SubscriptionID, h.Title, h.Relevance
	})...)
	merged = append(merged, scoreClamped(tags, entity.SearchResultTag, func(h *entity.TagSearchHit) (string, string, float64) {
		return h.ID, h.Name, h.Relevance
	})...)
	merged = append(merged, scoreClamped(folders, entity.SearchResultFolder, func(h *entity.FolderSearchHit) (string, string, float64) {
		return h.ID, h.Name, h.Relevance
	})...)
	merged = append(merged, scoreMinMax(articles, entity.SearchResultArticle, func(h *entity.ArticleSearchHit) (string, string, float64) {
		return h.ID, h.Title, h.Relevance
	})...)

	sort.SliceStable(merged, func(i, j int) bool { return merged[i].score > merged[j].score })
	if len(merged) > unifiedResultCap {
		merged = merged[:unifiedResultCap]
	}

	out := make([]*entity.UnifiedSearchHit, len(merged))
	for i, m := range merged {
		out[i] = m.hit
	}
	return out, nil
}

// scoreClamped applies original_source's feed/tag/folder
// normalization: raw relevance divided by 1.5, clamped to [0,1].
func scoreClamped[T any](hits []T, typ entity.SearchResultType, extract func(T) (id, title string, relevance float64)) []scored {
	out := make([]scored, 0, len(hits))
	for _, h := range hits {
		id, title, relevance := extract(h)
		norm := relevance / 1.5
		if norm < 0 {
			norm = 0
		}
		if norm > 1 {
			norm = 1
		}
		out = append(out, scored{
			hit:   &entity.UnifiedSearchHit{Type: typ, ID: id, Title: title, Data: h},
			score: norm * typeWeight[typ],
		})
	}
	return out
}

// scoreMinMax applies original_source's article normalization: true
// min-max over the set's own relevance values, falling back to the
// raw relevance clamped to [0,1] when the set has one item or a zero
// range.
func scoreMinMax[T any](hits []T, typ entity.SearchResultType, extract func(T) (id, title string, relevance float64)) []scored {
	if len(hits) == 0 {
		return nil
	}
	lo, hi := 0.0, 0.0
	for i, h := range hits {
		_, _, relevance := extract(h)
		if i == 0 {
			lo, hi = relevance, relevance
			continue
		}
		if relevance < lo {
			lo = relevance
		}
		if relevance > hi {
			hi = relevance
		}
	}

	out := make([]scored, 0, len(hits))
	for _, h := range hits {
		id, title, relevance := extract(h)
		var norm float64
		if hi == lo {
			norm = clamp01(relevance)
		} else {
			norm = (relevance - lo) / (hi - lo)
		}
		out = append(out, scored{
			hit:   &entity.UnifiedSearchHit{Type: typ, ID: id, Title: title, Data: h},
			score: norm * typeWeight[typ],
		})
	}
	return out
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
