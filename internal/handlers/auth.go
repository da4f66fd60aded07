package handlers

import (
	"database/sql"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/livingeulogy/eulogy-backend/internal/database"
	"github.com/livingeulogy/eulogy-backend/internal/models"
	"github.com/livingeulogy/eulogy-backend/internal/services"
	"github.com/livingeulogy/eulogy-backend/pkg/utils"
)

type SignupRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type SigninRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Token    string `json:"token"`
	Password string `json:"password"`
}

type AuthResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message"`
	Token   string                 `json:"token,omitempty"`
	User    map[string]interface{} `json:"user,omitempty"`
}

// userJSON flattens the account and its profile into one response object.
func userJSON(u models.User, p models.Profile) map[string]interface{} {
	out := map[string]interface{}{
		"id":           u.ID.String(),
		"email":        u.Email,
		"display_name": p.DisplayName,
		"created_at":   u.CreatedAt,
	}
	if p.AvatarURL != nil {
		out["avatar_url"] = *p.AvatarURL
	}
	return out
}

// Signup creates a user plus their public profile and opens a session.
func Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	email := utils.NormalizeEmail(req.Email)
	if !utils.ValidateEmail(email) {
		writeAuthError(w, http.StatusBadRequest, "Please enter a valid email address")
		return
	}
	if len(req.Password) < 8 {
		writeAuthError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}
	displayName := strings.TrimSpace(req.DisplayName)
	if displayName == "" {
		writeAuthError(w, http.StatusBadRequest, "Display name is required")
		return
	}

	// Check if email already exists
	var existing string
	err := database.PostgresDB.QueryRow(
		"SELECT email FROM users WHERE LOWER(email) = $1",
		email,
	).Scan(&existing)
	if err == nil {
		writeAuthError(w, http.StatusConflict, "An account with this email already exists")
		return
	} else if err != sql.ErrNoRows {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	tx, err := database.PostgresDB.Begin()
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	userID := uuid.New()
	_, err = tx.Exec(`
		INSERT INTO users (id, email, password_hash, created_at)
		VALUES ($1, $2, $3, NOW())
	`, userID, email, hashedPassword)
	if err != nil {
		http.Error(w, "Failed to create user", http.StatusInternalServerError)
		return
	}

	_, err = tx.Exec(`
		INSERT INTO profiles (id, display_name, created_at)
		VALUES ($1, $2, NOW())
	`, userID, displayName)
	if err != nil {
		http.Error(w, "Failed to create profile", http.StatusInternalServerError)
		return
	}

	if err = tx.Commit(); err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	token, err := services.CreateSession(userID)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(AuthResponse{
		Success: true,
		Message: "Account created successfully",
		Token:   token,
		User: userJSON(
			models.User{ID: userID, Email: email, CreatedAt: time.Now()},
			models.Profile{ID: userID, DisplayName: displayName},
		),
	})
}

// Signin verifies credentials and opens a session.
func Signin(w http.ResponseWriter, r *http.Request) {
	var req SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	email := utils.NormalizeEmail(req.Email)

	var u models.User
	var p models.Profile
	err := database.PostgresDB.QueryRow(`
		SELECT u.id, u.password_hash, u.created_at, p.display_name
		FROM users u
		JOIN profiles p ON p.id = u.id
		WHERE LOWER(u.email) = $1
	`, email).Scan(&u.ID, &u.PasswordHash, &u.CreatedAt, &p.DisplayName)
	if err == sql.ErrNoRows {
		writeAuthError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	} else if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	ok, err := utils.VerifyPassword(req.Password, u.PasswordHash)
	if err != nil || !ok {
		writeAuthError(w, http.StatusUnauthorized, "Invalid email or password")
		return
	}

	token, err := services.CreateSession(u.ID)
	if err != nil {
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}
	u.Email = email
	p.ID = u.ID

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AuthResponse{
		Success: true,
		Message: "Signed in successfully",
		Token:   token,
		User:    userJSON(u, p),
	})
}

// resetMessage is returned by ForgotPassword whether or not the account
// exists, so the endpoint cannot be used to probe for registered emails.
const resetMessage = "If an account exists with this email, you will receive a password reset link."

// ForgotPassword issues a reset token and emails a reset link.
func ForgotPassword(w http.ResponseWriter, r *http.Request) {
	var req ForgotPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	email := utils.NormalizeEmail(req.Email)
	if !utils.ValidateEmail(email) {
		writeAuthOK(w, resetMessage)
		return
	}

	var userID uuid.UUID
	err := database.PostgresDB.QueryRow(
		"SELECT id FROM users WHERE LOWER(email) = $1", email,
	).Scan(&userID)
	if err == sql.ErrNoRows {
		writeAuthOK(w, resetMessage)
		return
	} else if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	token, err := utils.GenerateToken(32)
	if err != nil {
		http.Error(w, "Failed to generate reset token", http.StatusInternalServerError)
		return
	}

	_, err = database.PostgresDB.Exec(`
		INSERT INTO password_reset_tokens (user_id, token, expires_at)
		VALUES ($1, $2, NOW() + INTERVAL '1 hour')
	`, userID, token)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	resetURL := frontendURL + "/reset-password?token=" + token
	if err := emailService.SendPasswordReset(r.Context(), email, resetURL); err != nil {
		log.Printf("password reset email failed: %v", err)
	}

	writeAuthOK(w, resetMessage)
}

// ResetPassword consumes a reset token and sets a new password. All existing
// sessions and outstanding tokens for the user are invalidated.
func ResetPassword(w http.ResponseWriter, r *http.Request) {
	var req ResetPasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Token == "" {
		writeAuthError(w, http.StatusBadRequest, "Invalid or expired reset link")
		return
	}
	if len(req.Password) < 8 {
		writeAuthError(w, http.StatusBadRequest, "Password must be at least 8 characters")
		return
	}

	var userID uuid.UUID
	err := database.PostgresDB.QueryRow(`
		SELECT user_id FROM password_reset_tokens
		WHERE token = $1 AND used = FALSE AND expires_at > NOW()
	`, req.Token).Scan(&userID)
	if err == sql.ErrNoRows {
		writeAuthError(w, http.StatusBadRequest, "Invalid or expired reset link")
		return
	} else if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	hashedPassword, err := utils.HashPassword(req.Password)
	if err != nil {
		http.Error(w, "Failed to hash password", http.StatusInternalServerError)
		return
	}

	tx, err := database.PostgresDB.Begin()
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	if _, err = tx.Exec(
		"UPDATE users SET password_hash = $1 WHERE id = $2",
		hashedPassword, userID,
	); err != nil {
		http.Error(w, "Failed to update password", http.StatusInternalServerError)
		return
	}
	if _, err = tx.Exec(
		"UPDATE password_reset_tokens SET used = TRUE WHERE user_id = $1",
		userID,
	); err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if err = tx.Commit(); err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}

	services.InvalidateUserSessions(userID)

	writeAuthOK(w, "Password updated. Please sign in with your new password.")
}

// Signout invalidates the current session.
func Signout(w http.ResponseWriter, r *http.Request) {
	token := extractBearerToken(r.Header.Get("Authorization"))
	if token != "" {
		services.InvalidateSession(token)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AuthResponse{
		Success: true,
		Message: "Signed out",
	})
}

// GetMe returns the authenticated user's account and profile.
func GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeAuthError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	u := models.User{ID: userID}
	p := models.Profile{ID: userID}
	var avatarURL sql.NullString
	err := database.PostgresDB.QueryRow(`
		SELECT u.email, u.created_at, p.display_name, p.avatar_url
		FROM users u
		JOIN profiles p ON p.id = u.id
		WHERE u.id = $1
	`, userID).Scan(&u.Email, &u.CreatedAt, &p.DisplayName, &avatarURL)
	if err != nil {
		http.Error(w, "Database error", http.StatusInternalServerError)
		return
	}
	if avatarURL.Valid {
		p.AvatarURL = &avatarURL.String
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AuthResponse{
		Success: true,
		User:    userJSON(u, p),
	})
}

func writeAuthOK(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(AuthResponse{
		Success: true,
		Message: msg,
	})
}

func writeAuthError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(AuthResponse{
		Success: false,
		Message: msg,
	})
}
