package handlers

import (
	"context"
	"database/sql"
	"html/template"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/livingeulogy/eulogy-backend/internal/database"
)

var frontendURL string

// InitShareViews sets the SPA origin that non-crawler /view requests are
// redirected to.
func InitShareViews(url string) {
	frontendURL = url
}

// crawlerAgents are the social media crawler user agent markers that get
// pre-rendered OG meta HTML instead of the SPA.
var crawlerAgents = []string{
	"facebookexternalhit",
	"facebot",
	"twitterbot",
	"linkedinbot",
	"whatsapp",
	"slackbot",
	"telegrambot",
	"discord",
	"googlebot",
}

// IsCrawler reports whether the user agent belongs to a known social crawler.
func IsCrawler(userAgent string) bool {
	if userAgent == "" {
		return false
	}
	ua := strings.ToLower(userAgent)
	for _, agent := range crawlerAgents {
		if strings.Contains(ua, agent) {
			return true
		}
	}
	return false
}

// PreviewMaxChars is the preview truncation limit for OG descriptions.
const PreviewMaxChars = 200

// TruncateContent shortens s to at most PreviewMaxChars characters,
// appending "..." when it was cut.
func TruncateContent(s string) string {
	runes := []rune(s)
	if len(runes) <= PreviewMaxChars {
		return s
	}
	return string(runes[:PreviewMaxChars-3]) + "..."
}

type ogPage struct {
	Title       string
	Description string
	Preview     string
	URL         string
}

var ogTemplate = template.Must(template.New("og").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8">
  <meta name="viewport" content="width=device-width, initial-scale=1.0">
  <title>{{.Title}}</title>
  <meta name="title" content="{{.Title}}">
  <meta name="description" content="{{.Description}}">
  <meta property="og:type" content="article">
  <meta property="og:url" content="{{.URL}}">
  <meta property="og:title" content="{{.Title}}">
  <meta property="og:description" content="{{.Description}}">
  <meta property="og:site_name" content="Living Eulogy">
  <meta property="twitter:card" content="summary">
  <meta property="twitter:url" content="{{.URL}}">
  <meta property="twitter:title" content="{{.Title}}">
  <meta property="twitter:description" content="{{.Description}}">
</head>
<body>
  <h1>{{.Title}}</h1>
  <p>{{.Description}}</p>
  {{if .Preview}}<p>&quot;{{.Preview}}&quot;</p>{{end}}
  <a href="{{.URL}}">Read the full message on Living Eulogy</a>
</body>
</html>`))

var defaultOGPage = ogPage{
	Title:       "Living Eulogy",
	Description: "Share what matters, while it matters.",
}

// SharePage serves GET /view/{token}. Social crawlers get static HTML with
// meta tags built from the eulogy; everyone else is redirected to the SPA,
// which fetches the eulogy through the API.
func SharePage(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	if !IsCrawler(r.Header.Get("User-Agent")) {
		http.Redirect(w, r, frontendURL+"/view/"+token, http.StatusFound)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var (
		recipientName string
		content       string
		isAnonymous   bool
		displayName   sql.NullString
	)
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT e.recipient_name, e.content, e.is_anonymous, p.display_name
		FROM eulogies e
		LEFT JOIN profiles p ON p.id = e.author_id
		WHERE e.share_token = $1
	`, token).Scan(&recipientName, &content, &isAnonymous, &displayName)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err != nil {
		// Unknown token (or store error): default site tags
		ogTemplate.Execute(w, defaultOGPage)
		return
	}

	authorName := "Someone"
	if !isAnonymous && displayName.Valid {
		authorName = displayName.String
	}

	ogTemplate.Execute(w, ogPage{
		Title:       "A message for " + recipientName + " | Living Eulogy",
		Description: authorName + " wrote something meaningful for " + recipientName + ".",
		Preview:     TruncateContent(content),
		URL:         ShareURL(token),
	})
}
