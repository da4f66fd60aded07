package feedview

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Client implements Store over the backend's REST API.
type Client struct {
	baseURL      string
	sessionToken string
	httpClient   *http.Client
}

// NewClient returns a Client for the API at baseURL. sessionToken may be
// empty for anonymous viewers.
func NewClient(baseURL, sessionToken string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		sessionToken: sessionToken,
		httpClient:   &http.Client{Timeout: 15 * time.Second},
	}
}

// Authenticated reports whether the client carries a session token.
func (c *Client) Authenticated() bool {
	return c.sessionToken != ""
}

type feedItemPayload struct {
	ID            string    `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	RecipientName string    `json:"recipient_name"`
	Content       string    `json:"content"`
	AuthorName    string    `json:"author_name"`
	IsAnonymous   bool      `json:"is_anonymous"`
	ShareToken    string    `json:"share_token"`
	LikesCount    int       `json:"likes_count"`
	CommentsCount int       `json:"comments_count"`
	UserHasLiked  bool      `json:"user_has_liked"`
}

type feedPayload struct {
	Success         bool              `json:"success"`
	Message         string            `json:"message"`
	Items           []feedItemPayload `json:"items"`
	CountsAvailable bool              `json:"counts_available"`
}

type statusPayload struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// Feed fetches the public feed page.
func (c *Client) Feed(ctx context.Context) ([]Item, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/feed", nil)
	if err != nil {
		return nil, false, err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, false, errors.Wrap(err, "fetch feed")
	}
	defer resp.Body.Close()

	var payload feedPayload
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, false, errors.Wrap(err, "decode feed")
	}
	if resp.StatusCode != http.StatusOK || !payload.Success {
		return nil, false, errors.Errorf("feed request failed: %s", statusMessage(resp.StatusCode, payload.Message))
	}

	items := make([]Item, 0, len(payload.Items))
	for _, p := range payload.Items {
		items = append(items, Item{
			ID:            p.ID,
			CreatedAt:     p.CreatedAt,
			RecipientName: p.RecipientName,
			Content:       p.Content,
			AuthorName:    p.AuthorName,
			IsAnonymous:   p.IsAnonymous,
			ShareToken:    p.ShareToken,
			LikesCount:    p.LikesCount,
			CommentsCount: p.CommentsCount,
			UserHasLiked:  p.UserHasLiked,
		})
	}
	return items, payload.CountsAvailable, nil
}

// Like records a like for the eulogy.
func (c *Client) Like(ctx context.Context, eulogyID string) error {
	return c.mutate(ctx, http.MethodPost, eulogyID)
}

// Unlike removes the viewer's like from the eulogy.
func (c *Client) Unlike(ctx context.Context, eulogyID string) error {
	return c.mutate(ctx, http.MethodDelete, eulogyID)
}

func (c *Client) mutate(ctx context.Context, method, eulogyID string) error {
	url := fmt.Sprintf("%s/api/eulogies/%s/like", c.baseURL, eulogyID)
	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		return err
	}
	c.authorize(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return errors.Wrap(err, "send like mutation")
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	var payload statusPayload
	json.NewDecoder(resp.Body).Decode(&payload)
	return errors.Errorf("like mutation failed: %s", statusMessage(resp.StatusCode, payload.Message))
}

func (c *Client) authorize(req *http.Request) {
	if c.sessionToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.sessionToken)
	}
}

func statusMessage(status int, message string) string {
	if message != "" {
		return message
	}
	return http.StatusText(status)
}
