package feed_test

import (
	"context"
	"testing"
	"time"

	"feedkeep/internal/domain/entity"
	"feedkeep/internal/usecase/feed"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFeedRepo implements repository.FeedRepository with just enough
// behavior for Discover's branching.
type stubFeedRepo struct {
	byURL map[string]*entity.Feed
}

func (s *stubFeedRepo) Create(_ context.Context, f *entity.Feed) error { return nil }
func (s *stubFeedRepo) GetByID(_ context.Context, id string) (*entity.Feed, error) {
	return nil, &entity.NotFoundError{Resource: "feed", ID: id}
}
func (s *stubFeedRepo) GetByCanonicalURL(_ context.Context, canonicalURL string) (*entity.Feed, error) {
	if f, ok := s.byURL[canonicalURL]; ok {
		return f, nil
	}
	return nil, &entity.NotFoundError{Resource: "feed", ID: canonicalURL}
}
func (s *stubFeedRepo) Update(_ context.Context, f *entity.Feed) error { return nil }
func (s *stubFeedRepo) ListActiveWithSubscribers(_ context.Context, _, _ int) ([]*entity.Feed, error) {
	return nil, nil
}
func (s *stubFeedRepo) MarkOrphanedInactive(_ context.Context) (int64, error) { return 0, nil }
func (s *stubFeedRepo) RecordFetchSuccess(_ context.Context, _ string, _ time.Time) error {
	return nil
}
func (s *stubFeedRepo) RecordFetchError(_ context.Context, _ string, _ string, _ time.Time) error {
	return nil
}

// stubSubRepo implements repository.SubscriptionRepository.
type stubSubRepo struct {
	byUserFeed map[string]*entity.Subscription
	created    *entity.Subscription
	updated    *entity.Subscription
}

func key(userID, feedID string) string { return userID + "\x00" + feedID }

func (s *stubSubRepo) Create(_ context.Context, sub *entity.Subscription) error {
	s.created = sub
	return nil
}
func (s *stubSubRepo) GetByUserAndFeed(_ context.Context, userID, feedID string) (*entity.Subscription, error) {
	if sub, ok := s.byUserFeed[key(userID, feedID)]; ok {
		return sub, nil
	}
	return nil, &entity.NotFoundError{Resource: "subscription"}
}
func (s *stubSubRepo) GetByID(_ context.Context, id string) (*entity.Subscription, error) {
	return nil, &entity.NotFoundError{Resource: "subscription", ID: id}
}
func (s *stubSubRepo) Update(_ context.Context, sub *entity.Subscription) error {
	s.updated = sub
	return nil
}
func (s *stubSubRepo) Delete(_ context.Context, _ string) error { return nil }
func (s *stubSubRepo) ListForUser(_ context.Context, _ string, _ *string) ([]*entity.Subscription, error) {
	return nil, nil
}
func (s *stubSubRepo) ListActiveSubscribersOfFeed(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}
func (s *stubSubRepo) ListByImportID(_ context.Context, _, _ string) ([]*entity.Subscription, error) {
	return nil, nil
}
func (s *stubSubRepo) DeleteByImportID(_ context.Context, _, _ string) (int64, error) {
	return 0, nil
}
func (s *stubSubRepo) RecalculateUnreadCount(_ context.Context, _ string) error { return nil }

// stubFolderRepo implements repository.FolderRepository.
type stubFolderRepo struct {
	byID map[string]*entity.Folder
}

func (s *stubFolderRepo) Create(_ context.Context, _ *entity.Folder) error { return nil }
func (s *stubFolderRepo) GetByID(_ context.Context, id string) (*entity.Folder, error) {
	if f, ok := s.byID[id]; ok {
		return f, nil
	}
	return nil, &entity.NotFoundError{Resource: "folder", ID: id}
}
func (s *stubFolderRepo) Update(_ context.Context, _ *entity.Folder) error { return nil }
func (s *stubFolderRepo) Delete(_ context.Context, _ string) error         { return nil }
func (s *stubFolderRepo) ChildCount(_ context.Context, _ *string, _ string) (int, error) {
	return 0, nil
}
func (s *stubFolderRepo) Tree(_ context.Context, _ string) ([]*entity.Folder, error) {
	return nil, nil
}
func (s *stubFolderRepo) IsDescendant(_ context.Context, _, _ string) (bool, error) {
	return false, nil
}

// stubArticleRepo implements repository.ArticleRepository.
type stubArticleRepo struct{}

func (s *stubArticleRepo) LockOrCreate(_ context.Context, a *entity.Article) (*entity.Article, bool, error) {
	return a, true, nil
}
func (s *stubArticleRepo) GetByID(_ context.Context, id string) (*entity.Article, error) {
	return &entity.Article{ID: id}, nil
}
func (s *stubArticleRepo) LinkSource(_ context.Context, _, _ string) (bool, error) { return true, nil }
func (s *stubArticleRepo) HasSource(_ context.Context, _, _ string) (bool, error)  { return false, nil }
func (s *stubArticleRepo) EnsurePartitionsFor(_ context.Context, _ []time.Time) error {
	return nil
}

// stubUserArtRepo implements repository.UserArticleRepository.
type stubUserArtRepo struct {
	fannedOutFeed string
}

func (s *stubUserArtRepo) FanOutForFeed(_ context.Context, feedID string, _ []string) error {
	s.fannedOutFeed = feedID
	return nil
}
func (s *stubUserArtRepo) Get(_ context.Context, _, _ string) (*entity.UserArticle, error) {
	return nil, nil
}
func (s *stubUserArtRepo) Upsert(_ context.Context, _ *entity.UserArticle) error { return nil }
func (s *stubUserArtRepo) DeleteForUserArticles(_ context.Context, _ string, _ []string) error {
	return nil
}
func (s *stubUserArtRepo) ListUnreachable(_ context.Context, _, _, _ string) ([]string, error) {
	return nil, nil
}
func (s *stubUserArtRepo) AutoMarkReadSweep(_ context.Context) (int64, error) { return 0, nil }

// stubTagRepo implements repository.TagRepository.
type stubTagRepo struct{}

func (s *stubTagRepo) GetOrCreate(_ context.Context, userID, name string) (*entity.UserTag, error) {
	return &entity.UserTag{ID: "tag-" + name, UserID: userID, Name: name}, nil
}
func (s *stubTagRepo) GetByID(_ context.Context, _, tagID string) (*entity.UserTag, error) {
	return &entity.UserTag{ID: tagID}, nil
}
func (s *stubTagRepo) Rename(_ context.Context, _, _, _ string) error { return nil }
func (s *stubTagRepo) Delete(_ context.Context, _, _ string) error    { return nil }
func (s *stubTagRepo) ListForUser(_ context.Context, _ string) ([]*entity.UserTag, error) {
	return nil, nil
}
func (s *stubTagRepo) LinkArticleTag(_ context.Context, _, _, _ string) error   { return nil }
func (s *stubTagRepo) UnlinkArticleTag(_ context.Context, _, _, _ string) error { return nil }
func (s *stubTagRepo) TagsForArticle(_ context.Context, _, _ string) ([]*entity.UserTag, error) {
	return nil, nil
}

// stubJobEnqueuer implements feed.JobEnqueuer.
type stubJobEnqueuer struct {
	enqueuedType    entity.JobType
	enqueuedPayload map[string]any
}

func (s *stubJobEnqueuer) Enqueue(_ context.Context, jobType entity.JobType, payload map[string]any) (string, error) {
	s.enqueuedType = jobType
	s.enqueuedPayload = payload
	return "job-1", nil
}

func newTestService(feeds *stubFeedRepo, subs *stubSubRepo, folders *stubFolderRepo, userArts *stubUserArtRepo, jobs *stubJobEnqueuer) *feed.Service {
	return feed.New(feeds, subs, folders, &stubArticleRepo{}, userArts, &stubTagRepo{}, nil, nil, jobs, 50)
}

func TestDiscover_UnknownURL_EnqueuesJobAndReturnsPending(t *testing.T) {
	feeds := &stubFeedRepo{byURL: map[string]*entity.Feed{}}
	subs := &stubSubRepo{byUserFeed: map[string]*entity.Subscription{}}
	folders := &stubFolderRepo{byID: map[string]*entity.Folder{}}
	jobs := &stubJobEnqueuer{}
	svc := newTestService(feeds, subs, folders, &stubUserArtRepo{}, jobs)

	outcome, sub, err := svc.Discover(context.Background(), "user-1", "https://example.com/feed.xml", nil)

	require.NoError(t, err)
	assert.Equal(t, feed.OutcomePending, outcome)
	assert.Nil(t, sub)
	assert.Equal(t, entity.JobTypeCreateAndSubscribe, jobs.enqueuedType)
	assert.Equal(t, "https://example.com/feed.xml", jobs.enqueuedPayload["url"])
	assert.Nil(t, subs.created)
}

func TestDiscover_KnownURL_NotSubscribed_CreatesSubscriptionAndBackfills(t *testing.T) {
	f := &entity.Feed{ID: "feed-1", CanonicalURL: "https://example.com/feed.xml", LatestArticles: []string{"art-1", "art-2"}}
	feeds := &stubFeedRepo{byURL: map[string]*entity.Feed{f.CanonicalURL: f}}
	subs := &stubSubRepo{byUserFeed: map[string]*entity.Subscription{}}
	folders := &stubFolderRepo{byID: map[string]*entity.Folder{}}
	userArts := &stubUserArtRepo{}
	jobs := &stubJobEnqueuer{}
	svc := newTestService(feeds, subs, folders, userArts, jobs)

	outcome, sub, err := svc.Discover(context.Background(), "user-1", f.CanonicalURL, nil)

	require.NoError(t, err)
	assert.Equal(t, feed.OutcomeSubscribed, outcome)
	require.NotNil(t, sub)
	assert.Equal(t, "user-1", sub.UserID)
	assert.Equal(t, f.ID, sub.FeedID)
	assert.Equal(t, f.ID, userArts.fannedOutFeed)
	assert.Empty(t, jobs.enqueuedType)
}

func TestDiscover_KnownURL_AlreadySubscribed_MovesToValidFolder(t *testing.T) {
	f := &entity.Feed{ID: "feed-1", CanonicalURL: "https://example.com/feed.xml"}
	currentFolder := "folder-old"
	existing := &entity.Subscription{ID: "sub-1", UserID: "user-1", FeedID: f.ID, FolderID: &currentFolder}
	feeds := &stubFeedRepo{byURL: map[string]*entity.Feed{f.CanonicalURL: f}}
	subs := &stubSubRepo{byUserFeed: map[string]*entity.Subscription{key("user-1", f.ID): existing}}
	newFolder := "folder-new"
	folders := &stubFolderRepo{byID: map[string]*entity.Folder{newFolder: {ID: newFolder, UserID: "user-1"}}}
	svc := newTestService(feeds, subs, folders, &stubUserArtRepo{}, &stubJobEnqueuer{})

	outcome, sub, err := svc.Discover(context.Background(), "user-1", f.CanonicalURL, &newFolder)

	require.NoError(t, err)
	assert.Equal(t, feed.OutcomeAlreadySubscribed, outcome)
	require.NotNil(t, sub)
	require.NotNil(t, subs.updated)
	assert.Equal(t, newFolder, *subs.updated.FolderID)
}

func TestDiscover_KnownURL_AlreadySubscribed_InvalidFolderLeavesSubscriptionInPlace(t *testing.T) {
	f := &entity.Feed{ID: "feed-1", CanonicalURL: "https://example.com/feed.xml"}
	currentFolder := "folder-old"
	existing := &entity.Subscription{ID: "sub-1", UserID: "user-1", FeedID: f.ID, FolderID: &currentFolder}
	feeds := &stubFeedRepo{byURL: map[string]*entity.Feed{f.CanonicalURL: f}}
	subs := &stubSubRepo{byUserFeed: map[string]*entity.Subscription{key("user-1", f.ID): existing}}
	folders := &stubFolderRepo{byID: map[string]*entity.Folder{}}
	svc := newTestService(feeds, subs, folders, &stubUserArtRepo{}, &stubJobEnqueuer{})

	missingFolder := "does-not-exist"
	outcome, sub, err := svc.Discover(context.Background(), "user-1", f.CanonicalURL, &missingFolder)

	require.NoError(t, err)
	assert.Equal(t, feed.OutcomeAlreadySubscribed, outcome)
	require.NotNil(t, sub)
	assert.Nil(t, subs.updated, "an invalid folder id must not trigger an update")
	assert.Equal(t, currentFolder, *existing.FolderID)
}
