package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/livingeulogy/eulogy-backend/internal/config"
	"github.com/livingeulogy/eulogy-backend/internal/database"
	"github.com/livingeulogy/eulogy-backend/internal/models"
	"github.com/livingeulogy/eulogy-backend/internal/services"
	"github.com/livingeulogy/eulogy-backend/pkg/utils"
)

// MinContentChars is the minimum eulogy length.
const MinContentChars = 50

// emailSender is the outbound-email surface the handlers depend on.
type emailSender interface {
	Enabled() bool
	Send(ctx context.Context, msg services.EulogyEmail) error
	SendPasswordReset(ctx context.Context, to, resetURL string) error
}

var (
	emailService  emailSender
	publicBaseURL string
)

// InitEulogyHandlers wires the email service and share-link base URL.
func InitEulogyHandlers(cfg *config.Config) {
	emailService = services.NewEmailService(cfg.ResendAPIKey, cfg.ResendEndpoint, cfg.EmailFrom)
	publicBaseURL = cfg.PublicBaseURL
}

// ShareURL returns the externally resolvable link for a share token.
func ShareURL(token string) string {
	return publicBaseURL + "/view/" + token
}

type CreateEulogyRequest struct {
	RecipientName  string `json:"recipient_name"`
	RecipientEmail string `json:"recipient_email,omitempty"`
	Content        string `json:"content"`
	Visibility     string `json:"visibility,omitempty"`
	IsAnonymous    bool   `json:"is_anonymous"`
}

// OwnedEulogy is a eulogy as shown to its author.
type OwnedEulogy struct {
	models.Eulogy
	ShareURL string `json:"share_url"`
}

// ReceivedEulogy is a eulogy as shown to its recipient or a link holder:
// no visibility or recipient email, and the author reduced to a display name.
type ReceivedEulogy struct {
	ID            uuid.UUID `json:"id"`
	CreatedAt     time.Time `json:"created_at"`
	RecipientName string    `json:"recipient_name"`
	Content       string    `json:"content"`
	AuthorName    string    `json:"author_name"`
	ShareToken    string    `json:"share_token"`
	ShareURL      string    `json:"share_url"`
}

type EulogyResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Eulogy  interface{} `json:"eulogy,omitempty"`
}

type EulogyListResponse struct {
	Success  bool        `json:"success"`
	Message  string      `json:"message,omitempty"`
	Eulogies interface{} `json:"eulogies"`
}

// CreateEulogy creates a eulogy for the authenticated user. A share token is
// generated server-side; when a recipient email is given a notification is
// sent, and delivery failure does not fail the creation.
func CreateEulogy(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeEulogyError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	var req CreateEulogyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeEulogyError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	recipientName := strings.TrimSpace(req.RecipientName)
	content := strings.TrimSpace(req.Content)
	recipientEmail := strings.TrimSpace(req.RecipientEmail)

	if recipientName == "" {
		writeEulogyError(w, http.StatusBadRequest, "Recipient name is required")
		return
	}
	if len(content) < MinContentChars {
		writeEulogyError(w, http.StatusBadRequest, "Content must be at least 50 characters")
		return
	}
	if recipientEmail != "" && !utils.ValidateEmail(recipientEmail) {
		writeEulogyError(w, http.StatusBadRequest, "Please enter a valid email address")
		return
	}

	// Default is private; public requires the author's explicit choice.
	visibility := req.Visibility
	if visibility == "" {
		visibility = models.VisibilityPrivate
	}
	if visibility != models.VisibilityPrivate && visibility != models.VisibilityPublic {
		writeEulogyError(w, http.StatusBadRequest, "Visibility must be private or public")
		return
	}

	shareToken, err := utils.GenerateShareToken()
	if err != nil {
		http.Error(w, "Failed to generate share token", http.StatusInternalServerError)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	e := models.Eulogy{
		ID:            uuid.New(),
		CreatedAt:     time.Now(),
		AuthorID:      &userID,
		RecipientName: recipientName,
		Content:       content,
		Visibility:    visibility,
		IsAnonymous:   req.IsAnonymous,
		ShareToken:    shareToken,
	}
	if recipientEmail != "" {
		e.RecipientEmail = &recipientEmail
	}

	_, err = database.PostgresDB.ExecContext(ctx, `
		INSERT INTO eulogies (id, created_at, author_id, recipient_name, recipient_email, content, visibility, is_anonymous, share_token)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, e.ID, e.CreatedAt, e.AuthorID, e.RecipientName, e.RecipientEmail, e.Content, e.Visibility, e.IsAnonymous, e.ShareToken)
	if err != nil {
		writeEulogyError(w, http.StatusInternalServerError, "Failed to create eulogy")
		return
	}

	shareURL := ShareURL(e.ShareToken)

	senderName := "Someone"
	if recipientEmail != "" && !e.IsAnonymous {
		if name, err := authorDisplayName(ctx, userID); err == nil && name != "" {
			senderName = name
		}
	}
	message := notifyRecipient(r.Context(), emailService, services.EulogyEmail{
		RecipientEmail: recipientEmail,
		RecipientName:  e.RecipientName,
		SenderName:     senderName,
		ShareURL:       shareURL,
	})

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(EulogyResponse{
		Success: true,
		Message: message,
		Eulogy:  OwnedEulogy{Eulogy: e, ShareURL: shareURL},
	})
}

// notifyRecipient sends the creation notification when a recipient email was
// given and returns the response message. Delivery failure never fails the
// creation.
func notifyRecipient(ctx context.Context, sender emailSender, msg services.EulogyEmail) string {
	if msg.RecipientEmail == "" {
		return "Eulogy created successfully"
	}
	if err := sender.Send(ctx, msg); err != nil {
		log.Printf("eulogy notification email failed: %v", err)
		return "Eulogy created. Email failed to send."
	}
	return "Eulogy created successfully"
}

func authorDisplayName(ctx context.Context, userID uuid.UUID) (string, error) {
	var name string
	err := database.PostgresDB.QueryRowContext(ctx,
		"SELECT display_name FROM profiles WHERE id = $1", userID,
	).Scan(&name)
	return name, err
}

// GetMyEulogies returns the authenticated user's eulogies, newest first.
func GetMyEulogies(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeEulogyListError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT id, created_at, recipient_name, recipient_email, content, visibility, is_anonymous, share_token
		FROM eulogies
		WHERE author_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		writeEulogyListError(w, http.StatusInternalServerError, "Failed to fetch eulogies")
		return
	}
	defer rows.Close()

	eulogies := make([]OwnedEulogy, 0)
	for rows.Next() {
		var e models.Eulogy
		var recipientEmail sql.NullString
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.RecipientName, &recipientEmail, &e.Content, &e.Visibility, &e.IsAnonymous, &e.ShareToken); err != nil {
			writeEulogyListError(w, http.StatusInternalServerError, "Failed to fetch eulogies")
			return
		}
		if recipientEmail.Valid {
			e.RecipientEmail = &recipientEmail.String
		}
		eulogies = append(eulogies, OwnedEulogy{Eulogy: e, ShareURL: ShareURL(e.ShareToken)})
	}
	if err := rows.Err(); err != nil {
		writeEulogyListError(w, http.StatusInternalServerError, "Failed to fetch eulogies")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(EulogyListResponse{
		Success:  true,
		Eulogies: eulogies,
	})
}

// GetEulogiesForMe returns eulogies addressed to the authenticated user's
// email, newest first.
func GetEulogiesForMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeEulogyListError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var userEmail string
	if err := database.PostgresDB.QueryRowContext(ctx,
		"SELECT email FROM users WHERE id = $1", userID,
	).Scan(&userEmail); err != nil {
		writeEulogyListError(w, http.StatusInternalServerError, "Failed to fetch eulogies")
		return
	}

	rows, err := database.PostgresDB.QueryContext(ctx, `
		SELECT e.id, e.created_at, e.recipient_name, e.content, e.is_anonymous, e.share_token, p.display_name
		FROM eulogies e
		LEFT JOIN profiles p ON p.id = e.author_id
		WHERE LOWER(e.recipient_email) = $1
		ORDER BY e.created_at DESC
	`, utils.NormalizeEmail(userEmail))
	if err != nil {
		writeEulogyListError(w, http.StatusInternalServerError, "Failed to fetch eulogies")
		return
	}
	defer rows.Close()

	eulogies := make([]ReceivedEulogy, 0)
	for rows.Next() {
		var e ReceivedEulogy
		var isAnonymous bool
		var displayName sql.NullString
		if err := rows.Scan(&e.ID, &e.CreatedAt, &e.RecipientName, &e.Content, &isAnonymous, &e.ShareToken, &displayName); err != nil {
			writeEulogyListError(w, http.StatusInternalServerError, "Failed to fetch eulogies")
			return
		}
		e.AuthorName = "Someone special"
		if !isAnonymous && displayName.Valid {
			e.AuthorName = displayName.String
		}
		e.ShareURL = ShareURL(e.ShareToken)
		eulogies = append(eulogies, e)
	}
	if err := rows.Err(); err != nil {
		writeEulogyListError(w, http.StatusInternalServerError, "Failed to fetch eulogies")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(EulogyListResponse{
		Success:  true,
		Eulogies: eulogies,
	})
}

// DeleteEulogy deletes one of the authenticated user's eulogies.
func DeleteEulogy(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeEulogyError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	eulogyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeEulogyError(w, http.StatusBadRequest, "Invalid eulogy ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Only the author may delete; the filter enforces it.
	result, err := database.PostgresDB.ExecContext(ctx,
		"DELETE FROM eulogies WHERE id = $1 AND author_id = $2",
		eulogyID, userID,
	)
	if err != nil {
		writeEulogyError(w, http.StatusInternalServerError, "Failed to delete eulogy")
		return
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		writeEulogyError(w, http.StatusNotFound, "Eulogy not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(EulogyResponse{
		Success: true,
		Message: "Eulogy deleted",
	})
}

// ViewEulogyByToken returns a eulogy by its share token. No authentication:
// holding the link is the permission.
func ViewEulogyByToken(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")
	if token == "" {
		writeEulogyError(w, http.StatusBadRequest, "Invalid link")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var e ReceivedEulogy
	var isAnonymous bool
	var displayName sql.NullString
	err := database.PostgresDB.QueryRowContext(ctx, `
		SELECT e.id, e.created_at, e.recipient_name, e.content, e.is_anonymous, e.share_token, p.display_name
		FROM eulogies e
		LEFT JOIN profiles p ON p.id = e.author_id
		WHERE e.share_token = $1
	`, token).Scan(&e.ID, &e.CreatedAt, &e.RecipientName, &e.Content, &isAnonymous, &e.ShareToken, &displayName)
	if err == sql.ErrNoRows {
		writeEulogyError(w, http.StatusNotFound, "Eulogy not found or link has expired")
		return
	} else if err != nil {
		writeEulogyError(w, http.StatusInternalServerError, "Failed to fetch eulogy")
		return
	}

	e.AuthorName = "Someone who cares about you"
	if !isAnonymous && displayName.Valid {
		e.AuthorName = displayName.String
	}
	e.ShareURL = ShareURL(e.ShareToken)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(EulogyResponse{
		Success: true,
		Eulogy:  e,
	})
}

func writeEulogyError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(EulogyResponse{
		Success: false,
		Message: msg,
	})
}

func writeEulogyListError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(EulogyListResponse{
		Success:  false,
		Message:  msg,
		Eulogies: []map[string]interface{}{},
	})
}
