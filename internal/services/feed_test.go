package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livingeulogy/eulogy-backend/internal/models"
)

type fakeFeedStore struct {
	mu sync.Mutex

	page    []models.FeedEulogy
	pageErr error

	likeRows    []uuid.UUID
	likeErr     error
	viewerRows  []uuid.UUID
	commentRows []uuid.UUID

	likeCalls    int
	viewerCalls  int
	commentCalls int
}

func (f *fakeFeedStore) PublicPage(ctx context.Context, limit uint64) ([]models.FeedEulogy, error) {
	return f.page, f.pageErr
}

func (f *fakeFeedStore) LikeRows(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.likeCalls++
	return f.likeRows, f.likeErr
}

func (f *fakeFeedStore) ViewerLikeRows(ctx context.Context, viewerID uuid.UUID, ids []uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.viewerCalls++
	return f.viewerRows, nil
}

func (f *fakeFeedStore) CommentRows(ctx context.Context, ids []uuid.UUID) ([]uuid.UUID, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commentCalls++
	return f.commentRows, nil
}

func feedEulogy(id uuid.UUID, recipient string) models.FeedEulogy {
	name := "Riya"
	return models.FeedEulogy{
		ID:            id,
		CreatedAt:     time.Now(),
		RecipientName: recipient,
		Content:       "You taught me more than you know.",
		ShareToken:    "tok-" + id.String()[:8],
		AuthorName:    &name,
	}
}

func TestBuildFeedEmptyPageSkipsEngagementQueries(t *testing.T) {
	store := &fakeFeedStore{}
	svc := NewFeedService(store)

	items, countsOK, err := svc.BuildFeed(context.Background(), nil)
	require.NoError(t, err)

	assert.NotNil(t, items)
	assert.Empty(t, items)
	assert.True(t, countsOK)

	// No membership query may run against an empty ID list.
	assert.Zero(t, store.likeCalls)
	assert.Zero(t, store.viewerCalls)
	assert.Zero(t, store.commentCalls)
}

func TestBuildFeedProjectsCounts(t *testing.T) {
	viewer := uuid.New()
	e1 := uuid.New()
	e2 := uuid.New()

	store := &fakeFeedStore{
		page:        []models.FeedEulogy{feedEulogy(e1, "Mom"), feedEulogy(e2, "Dad")},
		likeRows:    []uuid.UUID{e1, e1, e1, e2},
		viewerRows:  []uuid.UUID{e1},
		commentRows: []uuid.UUID{e1, e1},
	}
	svc := NewFeedService(store)

	items, countsOK, err := svc.BuildFeed(context.Background(), &viewer)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.True(t, countsOK)

	assert.Equal(t, 3, items[0].LikesCount)
	assert.Equal(t, 2, items[0].CommentsCount)
	assert.True(t, items[0].UserHasLiked)

	assert.Equal(t, 1, items[1].LikesCount)
	assert.Equal(t, 0, items[1].CommentsCount)
	assert.False(t, items[1].UserHasLiked)

	// Page order is preserved
	assert.Equal(t, "Mom", items[0].RecipientName)
	assert.Equal(t, "Dad", items[1].RecipientName)
}

func TestBuildFeedAnonymousViewerSkipsViewerJoin(t *testing.T) {
	e1 := uuid.New()
	store := &fakeFeedStore{
		page:     []models.FeedEulogy{feedEulogy(e1, "Mom")},
		likeRows: []uuid.UUID{e1},
	}
	svc := NewFeedService(store)

	items, countsOK, err := svc.BuildFeed(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.True(t, countsOK)
	assert.False(t, items[0].UserHasLiked)
	assert.Zero(t, store.viewerCalls)
	assert.Equal(t, 1, store.likeCalls)
}

func TestBuildFeedDegradesWhenEngagementQueryFails(t *testing.T) {
	viewer := uuid.New()
	e1 := uuid.New()
	store := &fakeFeedStore{
		page:        []models.FeedEulogy{feedEulogy(e1, "Mom")},
		likeErr:     errors.New("connection reset"),
		commentRows: []uuid.UUID{e1},
	}
	svc := NewFeedService(store)

	items, countsOK, err := svc.BuildFeed(context.Background(), &viewer)
	require.NoError(t, err)
	require.Len(t, items, 1)

	// Content survives, counters are zeroed and flagged untrustworthy.
	assert.False(t, countsOK)
	assert.Equal(t, "Mom", items[0].RecipientName)
	assert.Zero(t, items[0].LikesCount)
	assert.Zero(t, items[0].CommentsCount)
	assert.False(t, items[0].UserHasLiked)
}

func TestBuildFeedPageErrorAborts(t *testing.T) {
	store := &fakeFeedStore{pageErr: errors.New("relation does not exist")}
	svc := NewFeedService(store)

	items, _, err := svc.BuildFeed(context.Background(), nil)
	require.Error(t, err)
	assert.Nil(t, items)
}
