package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/livingeulogy/eulogy-backend/internal/models"
	"github.com/livingeulogy/eulogy-backend/internal/services"
)

var feedService *services.FeedService

// InitFeedService wires the feed aggregator used by GetFeed.
func InitFeedService(s *services.FeedService) {
	feedService = s
}

type FeedItemJSON struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	RecipientName string    `json:"recipient_name"`
	Content       string    `json:"content"`
	AuthorName    string    `json:"author_name"`
	IsAnonymous   bool      `json:"is_anonymous"`
	ShareToken    string    `json:"share_token"`
	ShareURL      string    `json:"share_url"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	UserHasLiked  bool      `json:"user_has_liked"`
}

type FeedResponse struct {
	Success         bool           `json:"success"`
	Message         string         `json:"message,omitempty"`
	Items           []FeedItemJSON `json:"items"`
	CountsAvailable bool           `json:"counts_available"`
}

// GetFeed returns the 20 most recent public eulogies enriched with engagement
// counters. The viewer is optional: a valid bearer token personalizes
// user_has_liked, anonymous viewers get false throughout.
func GetFeed(w http.ResponseWriter, r *http.Request) {
	var viewerID *uuid.UUID
	if id, ok := currentUser(r); ok {
		viewerID = &id
	}

	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	items, countsAvailable, err := feedService.BuildFeed(ctx, viewerID)
	if err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(FeedResponse{
			Success: false,
			Message: "Failed to load feed",
			Items:   []FeedItemJSON{},
		})
		return
	}

	out := make([]FeedItemJSON, 0, len(items))
	for _, item := range items {
		out = append(out, toFeedItemJSON(item))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(FeedResponse{
		Success:         true,
		Items:           out,
		CountsAvailable: countsAvailable,
	})
}

func toFeedItemJSON(item models.FeedItem) FeedItemJSON {
	authorName := "Anonymous"
	if !item.IsAnonymous && item.AuthorName != nil {
		authorName = *item.AuthorName
	}
	return FeedItemJSON{
		ID:            item.ID.String(),
		CreatedAt:     item.CreatedAt,
		RecipientName: item.RecipientName,
		Content:       item.Content,
		AuthorName:    authorName,
		IsAnonymous:   item.IsAnonymous,
		ShareToken:    item.ShareToken,
		ShareURL:      ShareURL(item.ShareToken),
		LikesCount:    item.LikesCount,
		CommentsCount: item.CommentsCount,
		UserHasLiked:  item.UserHasLiked,
	}
}
