package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"html/template"
	"log"
	"net/http"
	"time"

	"github.com/livingeulogy/eulogy-backend/internal/database"
	"github.com/livingeulogy/eulogy-backend/internal/models"
)

// EulogyEmail is one notification: "someone wrote this for you, read it here".
type EulogyEmail struct {
	RecipientEmail string
	RecipientName  string
	SenderName     string
	ShareURL       string
}

// EmailService sends eulogy notifications through the Resend API and logs
// every attempt to the MongoDB email_log collection. Delivery failures are
// never fatal to the caller.
type EmailService struct {
	apiKey   string
	endpoint string
	from     string
	client   *http.Client
}

func NewEmailService(apiKey, endpoint, from string) *EmailService {
	return &EmailService{
		apiKey:   apiKey,
		endpoint: endpoint,
		from:     from,
		client:   &http.Client{Timeout: 10 * time.Second},
	}
}

// Enabled reports whether an API key is configured.
func (s *EmailService) Enabled() bool {
	return s.apiKey != ""
}

type resendRequest struct {
	From    string `json:"from"`
	To      string `json:"to"`
	Subject string `json:"subject"`
	Text    string `json:"text"`
	HTML    string `json:"html"`
}

// Send delivers the notification email. Returns nil on success; the attempt
// is logged either way.
func (s *EmailService) Send(ctx context.Context, msg EulogyEmail) error {
	err := s.send(ctx, msg)
	s.logAttempt(msg, err)
	return err
}

func (s *EmailService) send(ctx context.Context, msg EulogyEmail) error {
	if !s.Enabled() {
		return fmt.Errorf("email service not configured")
	}

	senderName := msg.SenderName
	if senderName == "" {
		senderName = "Someone who cares about you"
	}

	return s.post(ctx, resendRequest{
		From:    s.from,
		To:      msg.RecipientEmail,
		Subject: fmt.Sprintf("%s, someone wants you to read this", msg.RecipientName),
		Text: fmt.Sprintf(
			"Hi %s,\n\n%s took the time to write something meaningful about you — not for someday, but for right now.\n\n"+
				"They want you to know how much you matter while you're here to read it.\n\n"+
				"Read your message: %s\n\n—\nLiving Eulogy\nShare what matters, while it matters.",
			msg.RecipientName, senderName, msg.ShareURL),
		HTML: fmt.Sprintf(
			`<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto; padding: 40px 20px;">`+
				`<h1 style="color: #6366F1; text-align: center;">A Living Eulogy for You</h1>`+
				`<p style="font-size: 18px;">Hi %s,</p>`+
				`<p style="font-size: 16px; color: #64748B;">%s took the time to write something meaningful about you — not for someday, but for right now.</p>`+
				`<p style="font-size: 16px; color: #64748B;">They want you to know how much you matter while you're here to read it.</p>`+
				`<div style="margin: 36px 0; text-align: center;"><a href="%s" style="display: inline-block; background-color: #4F46E5; color: white; padding: 16px 32px; text-decoration: none; border-radius: 9999px; font-weight: 600;">Read Your Message</a></div>`+
				`<p style="font-size: 13px; color: #94A3B8; text-align: center;">Living Eulogy — Share what matters, while it matters.</p>`+
				`</div>`,
			template.HTMLEscapeString(msg.RecipientName), template.HTMLEscapeString(senderName), msg.ShareURL),
	})
}

// SendPasswordReset emails a password reset link. Reset attempts are not
// written to the delivery log.
func (s *EmailService) SendPasswordReset(ctx context.Context, to, resetURL string) error {
	if !s.Enabled() {
		return fmt.Errorf("email service not configured")
	}

	return s.post(ctx, resendRequest{
		From:    s.from,
		To:      to,
		Subject: "Reset your Living Eulogy password",
		Text: fmt.Sprintf(
			"We received a request to reset your password.\n\nReset it here: %s\n\n"+
				"The link expires in one hour. If you didn't ask for this, you can ignore this email.\n\n—\nLiving Eulogy",
			resetURL),
		HTML: fmt.Sprintf(
			`<div style="font-family: sans-serif; max-width: 600px; margin: 0 auto; padding: 40px 20px;">`+
				`<h1 style="color: #6366F1; text-align: center;">Reset your password</h1>`+
				`<p style="font-size: 16px; color: #64748B;">We received a request to reset your password.</p>`+
				`<div style="margin: 36px 0; text-align: center;"><a href="%s" style="display: inline-block; background-color: #4F46E5; color: white; padding: 16px 32px; text-decoration: none; border-radius: 9999px; font-weight: 600;">Reset Password</a></div>`+
				`<p style="font-size: 13px; color: #94A3B8; text-align: center;">The link expires in one hour. If you didn't ask for this, you can ignore this email.</p>`+
				`</div>`,
			resetURL),
	})
}

func (s *EmailService) post(ctx context.Context, payload resendRequest) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+s.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("resend returned status %d", resp.StatusCode)
	}
	return nil
}

// logAttempt records the attempt in MongoDB. Best effort; skipped when Mongo
// is not connected.
func (s *EmailService) logAttempt(msg EulogyEmail, sendErr error) {
	if database.MongoDB == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	record := models.EmailRecord{
		SentAt:         time.Now(),
		RecipientEmail: msg.RecipientEmail,
		RecipientName:  msg.RecipientName,
		SenderName:     msg.SenderName,
		ShareURL:       msg.ShareURL,
		Delivered:      sendErr == nil,
	}
	if sendErr != nil {
		record.Error = sendErr.Error()
	}

	if _, err := database.MongoDB.Collection("email_log").InsertOne(ctx, record); err != nil {
		log.Printf("email: failed to log delivery attempt: %v", err)
	}
}
