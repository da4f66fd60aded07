// Package feedview is a client-side controller for the public feed: it holds
// the fetched feed items, applies optimistic like/unlike updates with
// rollback on failure, and suppresses stale fetch results across visibility
// sessions.
package feedview

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/pkg/errors"
)

// Status is the per-item like-toggle state.
type Status int

const (
	// StatusIdle means no like mutation is in flight for the item.
	StatusIdle Status = iota
	// StatusPending means a like mutation is in flight; further taps are no-ops.
	StatusPending
)

// Item is one enriched feed entry as held by the controller.
type Item struct {
	ID            string
	CreatedAt     time.Time
	RecipientName string
	Content       string
	AuthorName    string
	IsAnonymous   bool
	ShareToken    string
	LikesCount    int
	CommentsCount int
	UserHasLiked  bool
	Status        Status
}

// Notice is a transient user-facing message.
type Notice struct {
	Text string
	Kind string // "info", "error"
}

// Store is the remote feed surface the controller talks to.
type Store interface {
	// Feed returns the current feed page and whether engagement counts are
	// trustworthy.
	Feed(ctx context.Context) ([]Item, bool, error)
	Like(ctx context.Context, eulogyID string) error
	Unlike(ctx context.Context, eulogyID string) error
}

// toggled is the optimistic reducer: flag flipped, count adjusted by one,
// item marked pending. Pure; revert is the inverse flip.
func toggled(it Item) Item {
	if it.UserHasLiked {
		it.LikesCount--
	} else {
		it.LikesCount++
	}
	it.UserHasLiked = !it.UserHasLiked
	it.Status = StatusPending
	return it
}

// replaceItem rebuilds the whole slice with one entry swapped. The feed is
// always replaced wholesale, never patched in place.
func replaceItem(items []Item, updated Item) []Item {
	next := make([]Item, len(items))
	for i, it := range items {
		if it.ID == updated.ID {
			next[i] = updated
		} else {
			next[i] = it
		}
	}
	return next
}

// Controller owns the feed state for one viewer. One instance per signed-in
// session (or one anonymous instance), so the pending guard keyed by item ID
// alone is sufficient.
type Controller struct {
	store         Store
	authenticated bool
	notify        func(Notice)

	mu              sync.Mutex
	items           []Item
	pending         map[string]struct{} // item IDs with a mutation in flight
	loaded          bool
	countsAvailable bool
	visible         bool
	generation      uint64
}

// NewController returns a controller over store. authenticated tells whether
// the viewer may like posts. notify receives transient notices; nil is allowed.
func NewController(store Store, authenticated bool, notify func(Notice)) *Controller {
	if notify == nil {
		notify = func(Notice) {}
	}
	return &Controller{
		store:         store,
		authenticated: authenticated,
		notify:        notify,
		pending:       make(map[string]struct{}),
	}
}

// Enter marks the feed visible and fetches it. Call when the feed screen
// appears or regains focus.
func (c *Controller) Enter(ctx context.Context) error {
	c.mu.Lock()
	c.visible = true
	c.mu.Unlock()
	return c.Refresh(ctx)
}

// Leave marks the feed invisible. In-flight fetches started before Leave are
// discarded when they complete.
func (c *Controller) Leave() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.visible = false
	// Invalidate in-flight fetches
	c.generation++
}

// Refresh re-fetches the feed. Only the latest-issued fetch may install its
// result: each call takes a new generation number and a completion whose
// generation is no longer current is dropped, so an early fetch that returns
// late can never overwrite a newer one.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if !c.visible {
		c.mu.Unlock()
		return nil
	}
	c.generation++
	gen := c.generation
	c.mu.Unlock()

	items, countsOK, err := c.store.Feed(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.generation || !c.visible {
		return nil
	}
	c.loaded = true
	if err != nil {
		// Keep whatever is currently shown; the caller surfaces the notice.
		return errors.Wrap(err, "refresh feed")
	}
	// Fetched rows know nothing about in-flight mutations; re-mark them so
	// the pending state survives the install.
	for i := range items {
		if _, inFlight := c.pending[items[i].ID]; inFlight {
			items[i].Status = StatusPending
		}
	}
	c.items = items
	c.countsAvailable = countsOK
	return nil
}

// ToggleLike likes or unlikes the item, chosen by its pre-tap state. The
// optimistic update is applied before the store call and reverted exactly on
// failure. Taps on an item that is already pending, and taps by
// unauthenticated viewers, issue no mutation.
func (c *Controller) ToggleLike(ctx context.Context, itemID string) error {
	c.mu.Lock()
	if !c.authenticated {
		c.mu.Unlock()
		c.notify(Notice{Text: "Sign in to like posts", Kind: "info"})
		return nil
	}

	idx := c.indexOf(itemID)
	if idx < 0 {
		c.mu.Unlock()
		return errors.Errorf("unknown feed item %q", itemID)
	}
	if _, inFlight := c.pending[itemID]; inFlight {
		// Concurrent-tap suppression. The set lives outside the items slice,
		// so a refresh install while the mutation is in flight cannot re-arm
		// the item.
		c.mu.Unlock()
		return nil
	}
	c.pending[itemID] = struct{}{}

	pre := c.items[idx]
	c.items = replaceItem(c.items, toggled(pre))
	c.mu.Unlock()

	var err error
	if pre.UserHasLiked {
		err = c.store.Unlike(ctx, itemID)
	} else {
		err = c.store.Like(ctx, itemID)
	}

	c.mu.Lock()
	delete(c.pending, itemID)
	if i := c.indexOf(itemID); i >= 0 {
		cur := c.items[i]
		if err != nil && cur.UserHasLiked != pre.UserHasLiked {
			// Undo the optimistic flip. When the flag no longer differs from
			// the pre-tap value, a refresh installed authoritative rows
			// mid-flight and those are kept as-is.
			if cur.UserHasLiked {
				cur.LikesCount--
			} else {
				cur.LikesCount++
			}
			cur.UserHasLiked = pre.UserHasLiked
		}
		cur.Status = StatusIdle
		c.items = replaceItem(c.items, cur)
	}
	c.mu.Unlock()

	if err != nil {
		c.notify(Notice{Text: "Failed to update. Please try again.", Kind: "error"})
		return errors.Wrap(err, "toggle like")
	}
	return nil
}

// indexOf must be called with c.mu held.
func (c *Controller) indexOf(itemID string) int {
	for i, it := range c.items {
		if it.ID == itemID {
			return i
		}
	}
	return -1
}

// Items returns a copy of the current feed.
func (c *Controller) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Item, len(c.items))
	copy(out, c.items)
	return out
}

// Loaded reports whether at least one fetch has completed, so callers can
// distinguish "still loading" from "loaded, zero items".
func (c *Controller) Loaded() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loaded
}

// CountsAvailable reports whether the engagement counters of the current
// items are trustworthy.
func (c *Controller) CountsAvailable() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.countsAvailable
}

// DefaultBaseURL is the share-link origin used when none is supplied.
const DefaultBaseURL = "https://livingeulogy.io"

// ShareLink returns the externally resolvable URL for a share token:
// origin + "/view/" + token. An empty origin falls back to DefaultBaseURL.
func ShareLink(origin, shareToken string) string {
	if origin == "" {
		origin = DefaultBaseURL
	}
	return strings.TrimRight(origin, "/") + "/view/" + shareToken
}
