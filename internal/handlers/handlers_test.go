package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/livingeulogy/eulogy-backend/internal/config"
	"github.com/livingeulogy/eulogy-backend/internal/models"
	"github.com/livingeulogy/eulogy-backend/internal/services"
)

func TestExtractBearerToken(t *testing.T) {
	assert.Equal(t, "abc123", extractBearerToken("Bearer abc123"))
	assert.Equal(t, "abc123", extractBearerToken("Bearer abc123 "))
	assert.Equal(t, "", extractBearerToken(""))
	assert.Equal(t, "", extractBearerToken("abc123"))
	assert.Equal(t, "", extractBearerToken("Basic dXNlcjpwYXNz"))
}

// Unauthenticated requests are rejected before any store access, so these
// handlers are testable without a database.

func TestLikeEulogyRequiresAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/eulogies/abc/like", nil)
	rec := httptest.NewRecorder()
	LikeEulogy(rec, req)

	require.Equal(t, http.StatusUnauthorized, rec.Code)

	var resp LikeResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.False(t, resp.Success)
	assert.Equal(t, "Sign in to like posts", resp.Message)
}

func TestUnlikeEulogyRequiresAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/api/eulogies/abc/like", nil)
	rec := httptest.NewRecorder()
	UnlikeEulogy(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestCreateEulogyRequiresAuth(t *testing.T) {
	body := strings.NewReader(`{"recipient_name":"Mom","content":"hello"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/eulogies", body)
	rec := httptest.NewRecorder()
	CreateEulogy(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDeleteEulogyRequiresAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodDelete, "/api/eulogies/abc", nil)
	rec := httptest.NewRecorder()
	DeleteEulogy(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGetMyEulogiesRequiresAuth(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/eulogies/mine", nil)
	rec := httptest.NewRecorder()
	GetMyEulogies(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestShareURL(t *testing.T) {
	InitEulogyHandlers(&config.Config{PublicBaseURL: "https://livingeulogy.io"})
	assert.Equal(t, "https://livingeulogy.io/view/tok", ShareURL("tok"))
}

// fakeSender records outbound email without a network.
type fakeSender struct {
	sent   []services.EulogyEmail
	resets []string
	fail   bool
}

func (f *fakeSender) Enabled() bool { return true }

func (f *fakeSender) Send(ctx context.Context, msg services.EulogyEmail) error {
	f.sent = append(f.sent, msg)
	if f.fail {
		return errors.New("delivery failed")
	}
	return nil
}

func (f *fakeSender) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	f.resets = append(f.resets, to)
	if f.fail {
		return errors.New("delivery failed")
	}
	return nil
}

func TestNotifyRecipientSkipsWhenNoEmail(t *testing.T) {
	sender := &fakeSender{}
	msg := notifyRecipient(context.Background(), sender, services.EulogyEmail{
		RecipientName: "Mom",
		ShareURL:      "https://livingeulogy.io/view/tok",
	})
	assert.Equal(t, "Eulogy created successfully", msg)
	assert.Empty(t, sender.sent)
}

func TestNotifyRecipientSendsWhenEmailGiven(t *testing.T) {
	sender := &fakeSender{}
	msg := notifyRecipient(context.Background(), sender, services.EulogyEmail{
		RecipientEmail: "mom@example.com",
		RecipientName:  "Mom",
		SenderName:     "Riya",
		ShareURL:       "https://livingeulogy.io/view/tok",
	})
	assert.Equal(t, "Eulogy created successfully", msg)
	require.Len(t, sender.sent, 1)
	assert.Equal(t, "mom@example.com", sender.sent[0].RecipientEmail)
	assert.Equal(t, "Riya", sender.sent[0].SenderName)
}

func TestNotifyRecipientReportsDeliveryFailure(t *testing.T) {
	sender := &fakeSender{fail: true}
	msg := notifyRecipient(context.Background(), sender, services.EulogyEmail{
		RecipientEmail: "mom@example.com",
		RecipientName:  "Mom",
		ShareURL:       "https://livingeulogy.io/view/tok",
	})
	assert.Equal(t, "Eulogy created. Email failed to send.", msg)
	assert.Len(t, sender.sent, 1)
}

func TestForgotPasswordRejectsInvalidBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/auth/forgot-password", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	ForgotPassword(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestForgotPasswordGenericReplyForMalformedEmail(t *testing.T) {
	// Malformed addresses get the same reply as unknown ones, with no store
	// lookup and no email.
	body := strings.NewReader(`{"email":"not-an-address"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/forgot-password", body)
	rec := httptest.NewRecorder()
	ForgotPassword(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.True(t, resp.Success)
	assert.Equal(t, resetMessage, resp.Message)
}

func TestResetPasswordRejectsMissingToken(t *testing.T) {
	body := strings.NewReader(`{"token":"","password":"longenough"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/reset-password", body)
	rec := httptest.NewRecorder()
	ResetPassword(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	var resp AuthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, "Invalid or expired reset link", resp.Message)
}

func TestResetPasswordRejectsShortPassword(t *testing.T) {
	body := strings.NewReader(`{"token":"sometoken","password":"short"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/auth/reset-password", body)
	rec := httptest.NewRecorder()
	ResetPassword(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUserJSON(t *testing.T) {
	id := uuid.New()
	avatar := "https://img.example.com/a.png"
	u := models.User{ID: id, Email: "riya@example.com", CreatedAt: time.Now()}
	p := models.Profile{ID: id, DisplayName: "Riya", AvatarURL: &avatar}

	out := userJSON(u, p)
	assert.Equal(t, id.String(), out["id"])
	assert.Equal(t, "riya@example.com", out["email"])
	assert.Equal(t, "Riya", out["display_name"])
	assert.Equal(t, avatar, out["avatar_url"])

	p.AvatarURL = nil
	out = userJSON(u, p)
	_, ok := out["avatar_url"]
	assert.False(t, ok)
}
