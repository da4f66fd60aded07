package handlers

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsCrawler(t *testing.T) {
	crawlers := []string{
		"facebookexternalhit/1.1 (+http://www.facebook.com/externalhit_uatext.php)",
		"Twitterbot/1.0",
		"WhatsApp/2.23.20",
		"Mozilla/5.0 (compatible; LinkedInBot/1.0)",
		"Slackbot-LinkExpanding 1.0",
		"TelegramBot (like TwitterBot)",
		"Mozilla/5.0 (compatible; Discordbot/2.0)",
		"Mozilla/5.0 (compatible; Googlebot/2.1)",
	}
	for _, ua := range crawlers {
		assert.True(t, IsCrawler(ua), ua)
	}

	browsers := []string{
		"",
		"Mozilla/5.0 (iPhone; CPU iPhone OS 17_0 like Mac OS X) AppleWebKit/605.1.15",
		"Mozilla/5.0 (Windows NT 10.0; Win64; x64) Chrome/120.0",
		"curl/8.4.0",
	}
	for _, ua := range browsers {
		assert.False(t, IsCrawler(ua), ua)
	}
}

func TestTruncateContent(t *testing.T) {
	short := "A short message."
	assert.Equal(t, short, TruncateContent(short))

	exact := strings.Repeat("a", 200)
	assert.Equal(t, exact, TruncateContent(exact))

	long := strings.Repeat("b", 300)
	got := TruncateContent(long)
	assert.Len(t, []rune(got), 200)
	assert.True(t, strings.HasSuffix(got, "..."))
	assert.Equal(t, strings.Repeat("b", 197), strings.TrimSuffix(got, "..."))

	// Multi-byte content is cut on rune boundaries
	wide := strings.Repeat("é", 250)
	gotWide := TruncateContent(wide)
	assert.Len(t, []rune(gotWide), 200)
	assert.True(t, strings.HasSuffix(gotWide, "..."))
}

func TestSharePageRedirectsBrowsers(t *testing.T) {
	InitShareViews("http://localhost:3000")

	r := chi.NewRouter()
	r.Get("/view/{token}", SharePage)

	req := httptest.NewRequest(http.MethodGet, "/view/tok123", nil)
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0) Chrome/120.0")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusFound, rec.Code)
	assert.Equal(t, "http://localhost:3000/view/tok123", rec.Header().Get("Location"))
}
