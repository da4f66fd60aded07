package services

import (
	"context"
	"database/sql"
	"log"

	sq "github.com/Masterminds/squirrel"
	"github.com/google/uuid"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/livingeulogy/eulogy-backend/internal/models"
)

// FeedPageSize is the fixed size of the public feed page.
const FeedPageSize = 20

// FeedStore is the query surface the aggregator needs. LikeRows,
// ViewerLikeRows and CommentRows return one eulogy ID per matching row;
// reduction into counts happens in the aggregator.
type FeedStore interface {
	PublicPage(ctx context.Context, limit uint64) ([]models.FeedEulogy, error)
	LikeRows(ctx context.Context, eulogyIDs []uuid.UUID) ([]uuid.UUID, error)
	ViewerLikeRows(ctx context.Context, viewerID uuid.UUID, eulogyIDs []uuid.UUID) ([]uuid.UUID, error)
	CommentRows(ctx context.Context, eulogyIDs []uuid.UUID) ([]uuid.UUID, error)
}

// FeedService builds the enriched public feed.
type FeedService struct {
	store FeedStore
}

func NewFeedService(store FeedStore) *FeedService {
	return &FeedService{store: store}
}

// BuildFeed returns the most recent public eulogies, each enriched with like
// count, comment count, and whether the viewer has liked it. viewerID is nil
// for anonymous viewers.
//
// The returned bool reports whether the engagement counts are trustworthy:
// when one of the count queries fails, items are still returned (content
// intact, counters zeroed) with false, so callers can mark counts unavailable
// instead of showing fake zeros.
func (s *FeedService) BuildFeed(ctx context.Context, viewerID *uuid.UUID) ([]models.FeedItem, bool, error) {
	page, err := s.store.PublicPage(ctx, FeedPageSize)
	if err != nil {
		return nil, false, errors.Wrap(err, "fetch feed page")
	}

	// Empty page: stop before any membership query. An empty IN filter would
	// match every row in the store, so this guard is load-bearing.
	if len(page) == 0 {
		return []models.FeedItem{}, true, nil
	}

	ids := make([]uuid.UUID, 0, len(page))
	for _, e := range page {
		ids = append(ids, e.ID)
	}

	// The three engagement queries run concurrently; completion order does
	// not matter, all must finish before projection.
	var (
		likeRows    []uuid.UUID
		viewerRows  []uuid.UUID
		commentRows []uuid.UUID
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		likeRows, err = s.store.LikeRows(gctx, ids)
		return err
	})
	if viewerID != nil {
		viewer := *viewerID
		g.Go(func() error {
			var err error
			viewerRows, err = s.store.ViewerLikeRows(gctx, viewer, ids)
			return err
		})
	}
	g.Go(func() error {
		var err error
		commentRows, err = s.store.CommentRows(gctx, ids)
		return err
	})

	countsAvailable := true
	if err := g.Wait(); err != nil {
		// Degrade rather than abort: the page itself loaded fine.
		log.Printf("feed: engagement queries failed: %v", err)
		countsAvailable = false
		likeRows, viewerRows, commentRows = nil, nil, nil
	}

	likeCounts := make(map[uuid.UUID]int, len(page))
	for _, id := range likeRows {
		likeCounts[id]++
	}
	commentCounts := make(map[uuid.UUID]int, len(page))
	for _, id := range commentRows {
		commentCounts[id]++
	}
	viewerLiked := make(map[uuid.UUID]struct{}, len(viewerRows))
	for _, id := range viewerRows {
		viewerLiked[id] = struct{}{}
	}

	items := make([]models.FeedItem, 0, len(page))
	for _, e := range page {
		_, hasLiked := viewerLiked[e.ID]
		items = append(items, models.FeedItem{
			FeedEulogy:    e,
			LikesCount:    likeCounts[e.ID],
			CommentsCount: commentCounts[e.ID],
			UserHasLiked:  hasLiked,
		})
	}

	return items, countsAvailable, nil
}

// PostgresFeedStore implements FeedStore on the shared PostgreSQL handle.
type PostgresFeedStore struct {
	db *sql.DB
}

func NewPostgresFeedStore(db *sql.DB) *PostgresFeedStore {
	return &PostgresFeedStore{db: db}
}

var psql = sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

func (s *PostgresFeedStore) PublicPage(ctx context.Context, limit uint64) ([]models.FeedEulogy, error) {
	query, args, err := psql.
		Select("e.id", "e.created_at", "e.recipient_name", "e.content", "e.is_anonymous", "e.share_token", "p.display_name").
		From("eulogies e").
		LeftJoin("profiles p ON p.id = e.author_id").
		Where(sq.Eq{"e.visibility": models.VisibilityPublic}).
		OrderBy("e.created_at DESC").
		Limit(limit).
		ToSql()
	if err != nil {
		return nil, errors.Wrap(err, "build feed page query")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var page []models.FeedEulogy
	for rows.Next() {
		var e models.FeedEulogy
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.RecipientName, &e.Content, &e.IsAnonymous, &e.ShareToken, &e.AuthorName); err != nil {
			return nil, err
		}
		page = append(page, e)
	}
	return page, rows.Err()
}

func (s *PostgresFeedStore) LikeRows(ctx context.Context, eulogyIDs []uuid.UUID) ([]uuid.UUID, error) {
	return s.eulogyIDRows(ctx, "likes", nil, eulogyIDs)
}

func (s *PostgresFeedStore) ViewerLikeRows(ctx context.Context, viewerID uuid.UUID, eulogyIDs []uuid.UUID) ([]uuid.UUID, error) {
	return s.eulogyIDRows(ctx, "likes", sq.Eq{"user_id": viewerID}, eulogyIDs)
}

func (s *PostgresFeedStore) CommentRows(ctx context.Context, eulogyIDs []uuid.UUID) ([]uuid.UUID, error) {
	return s.eulogyIDRows(ctx, "comments", nil, eulogyIDs)
}

func (s *PostgresFeedStore) eulogyIDRows(ctx context.Context, table string, extra sq.Eq, eulogyIDs []uuid.UUID) ([]uuid.UUID, error) {
	b := psql.
		Select("eulogy_id").
		From(table).
		Where(sq.Eq{"eulogy_id": eulogyIDs})
	if extra != nil {
		b = b.Where(extra)
	}
	query, args, err := b.ToSql()
	if err != nil {
		return nil, errors.Wrapf(err, "build %s membership query", table)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
