package models

import (
	"time"

	"github.com/google/uuid"
)

// Visibility values for a eulogy. Default is private; public requires an
// explicit choice at creation.
const (
	VisibilityPrivate = "private"
	VisibilityPublic  = "public"
)

type Eulogy struct {
	ID             uuid.UUID  `json:"id"`
	CreatedAt      time.Time  `json:"created_at"`
	AuthorID       *uuid.UUID `json:"author_id,omitempty"`
	RecipientName  string     `json:"recipient_name"`
	RecipientEmail *string    `json:"recipient_email,omitempty"`
	Content        string     `json:"content"`
	Visibility     string     `json:"visibility"`
	IsAnonymous    bool       `json:"is_anonymous"`
	ShareToken     string     `json:"share_token"`
}

// FeedEulogy is a public eulogy row joined with its author's display name,
// as fetched for the feed page. AuthorName is nil for authorless rows.
type FeedEulogy struct {
	ID            uuid.UUID `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	RecipientName string    `json:"recipient_name"`
	Content       string    `json:"content"`
	IsAnonymous   bool      `json:"is_anonymous"`
	ShareToken    string    `json:"share_token"`
	AuthorName    *string   `json:"author_name,omitempty"`
}

// FeedItem is a FeedEulogy enriched with engagement counters for one viewer.
// It is derived on every fetch and never persisted.
type FeedItem struct {
	FeedEulogy
	LikesCount    int  `json:"likes_count"`
	CommentsCount int  `json:"comments_count"`
	UserHasLiked  bool `json:"user_has_liked"`
}
