package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmailSendPostsResendPayload(t *testing.T) {
	var got resendRequest
	var auth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewEmailService("re_test_key", srv.URL, "Living Eulogy <hello@livingeulogy.io>")
	err := svc.Send(context.Background(), EulogyEmail{
		RecipientEmail: "mom@example.com",
		RecipientName:  "Mom",
		SenderName:     "Riya",
		ShareURL:       "https://livingeulogy.io/view/abc",
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer re_test_key", auth)
	assert.Equal(t, "mom@example.com", got.To)
	assert.Equal(t, "Living Eulogy <hello@livingeulogy.io>", got.From)
	assert.Equal(t, "Mom, someone wants you to read this", got.Subject)
	assert.Contains(t, got.Text, "Riya took the time")
	assert.Contains(t, got.Text, "https://livingeulogy.io/view/abc")
	assert.Contains(t, got.HTML, "Read Your Message")
}

func TestEmailSendAnonymousFallbackName(t *testing.T) {
	var got resendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewEmailService("re_test_key", srv.URL, "hello@livingeulogy.io")
	err := svc.Send(context.Background(), EulogyEmail{
		RecipientEmail: "dad@example.com",
		RecipientName:  "Dad",
		ShareURL:       "https://livingeulogy.io/view/xyz",
	})
	require.NoError(t, err)
	assert.Contains(t, got.Text, "Someone who cares about you")
}

func TestEmailSendNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer srv.Close()

	svc := NewEmailService("re_test_key", srv.URL, "hello@livingeulogy.io")
	err := svc.Send(context.Background(), EulogyEmail{RecipientEmail: "x@example.com", RecipientName: "X"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "422")
}

func TestSendPasswordResetPostsResetLink(t *testing.T) {
	var got resendRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	svc := NewEmailService("re_test_key", srv.URL, "hello@livingeulogy.io")
	err := svc.SendPasswordReset(context.Background(), "riya@example.com", "https://livingeulogy.io/reset-password?token=abc")
	require.NoError(t, err)

	assert.Equal(t, "riya@example.com", got.To)
	assert.Equal(t, "Reset your Living Eulogy password", got.Subject)
	assert.Contains(t, got.Text, "https://livingeulogy.io/reset-password?token=abc")
	assert.Contains(t, got.HTML, "Reset Password")
}

func TestSendPasswordResetWithoutKeyIsError(t *testing.T) {
	svc := NewEmailService("", "https://api.resend.com/emails", "hello@livingeulogy.io")
	err := svc.SendPasswordReset(context.Background(), "riya@example.com", "https://livingeulogy.io/reset-password?token=abc")
	require.Error(t, err)
}

func TestEmailSendWithoutKeyIsError(t *testing.T) {
	svc := NewEmailService("", "https://api.resend.com/emails", "hello@livingeulogy.io")
	assert.False(t, svc.Enabled())
	err := svc.Send(context.Background(), EulogyEmail{RecipientEmail: "x@example.com"})
	require.Error(t, err)
}
