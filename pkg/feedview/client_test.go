package feedview

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClientFeed(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/feed", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"success": true,
			"items": [{
				"id": "e1",
				"recipient_name": "Mom",
				"content": "Thank you for everything",
				"author_name": "Riya",
				"share_token": "tok123",
				"likes_count": 3,
				"comments_count": 2,
				"user_has_liked": true
			}],
			"counts_available": true
		}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sess-token")
	assert.True(t, c.Authenticated())

	items, countsOK, err := c.Feed(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Bearer sess-token", gotAuth)
	assert.True(t, countsOK)
	require.Len(t, items, 1)
	assert.Equal(t, "e1", items[0].ID)
	assert.Equal(t, "Mom", items[0].RecipientName)
	assert.Equal(t, 3, items[0].LikesCount)
	assert.Equal(t, 2, items[0].CommentsCount)
	assert.True(t, items[0].UserHasLiked)
	assert.Equal(t, StatusIdle, items[0].Status)
}

func TestClientFeedAnonymousOmitsAuthHeader(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		w.Write([]byte(`{"success": true, "items": [], "counts_available": true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "")
	assert.False(t, c.Authenticated())
	items, _, err := c.Feed(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestClientFeedServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success": false, "message": "Failed to load feed"}`))
	}))
	defer srv.Close()

	_, _, err := NewClient(srv.URL, "").Feed(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Failed to load feed")
}

func TestClientLikeAndUnlike(t *testing.T) {
	var methods []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/eulogies/e1/like", r.URL.Path)
		methods = append(methods, r.Method)
		if r.Method == http.MethodPost {
			w.WriteHeader(http.StatusCreated)
		}
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sess-token")
	require.NoError(t, c.Like(context.Background(), "e1"))
	require.NoError(t, c.Unlike(context.Background(), "e1"))
	assert.Equal(t, []string{http.MethodPost, http.MethodDelete}, methods)
}

func TestClientLikeFailureSurfacesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		w.Write([]byte(`{"success": false, "message": "Already liked"}`))
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "sess-token").Like(context.Background(), "e1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Already liked")
}
