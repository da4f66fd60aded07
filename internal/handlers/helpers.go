package handlers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/livingeulogy/eulogy-backend/internal/services"
)

// extractBearerToken returns the token from an "Authorization: Bearer <token>" header, or "".
func extractBearerToken(header string) string {
	if !strings.HasPrefix(header, "Bearer ") {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
}

// currentUser validates the request's session and returns the authenticated
// user's ID. Returns (uuid.Nil, false) when not authenticated.
func currentUser(r *http.Request) (uuid.UUID, bool) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token == "" {
		return uuid.Nil, false
	}
	userID, ok, err := services.ValidateSession(token)
	if err != nil || !ok {
		return uuid.Nil, false
	}
	return userID, true
}
