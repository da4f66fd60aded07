package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/livingeulogy/eulogy-backend/internal/database"
	"github.com/livingeulogy/eulogy-backend/internal/models"
)

type LikeResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// uniqueViolation is the PostgreSQL error code for duplicate-key inserts.
const uniqueViolation = "23505"

// LikeEulogy records a like for the authenticated user on a public eulogy.
// The (user, eulogy) primary key rejects duplicates.
func LikeEulogy(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeLikeError(w, http.StatusUnauthorized, "Sign in to like posts")
		return
	}

	eulogyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeLikeError(w, http.StatusBadRequest, "Invalid eulogy ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	// Only public eulogies are likeable
	var visibility string
	err = database.PostgresDB.QueryRowContext(ctx,
		"SELECT visibility FROM eulogies WHERE id = $1", eulogyID,
	).Scan(&visibility)
	if err == sql.ErrNoRows {
		writeLikeError(w, http.StatusNotFound, "Eulogy not found")
		return
	} else if err != nil {
		writeLikeError(w, http.StatusInternalServerError, "Failed to update")
		return
	}
	if visibility != models.VisibilityPublic {
		writeLikeError(w, http.StatusForbidden, "This eulogy is not public")
		return
	}

	like := models.Like{UserID: userID, EulogyID: eulogyID, CreatedAt: time.Now()}
	_, err = database.PostgresDB.ExecContext(ctx,
		"INSERT INTO likes (user_id, eulogy_id, created_at) VALUES ($1, $2, $3)",
		like.UserID, like.EulogyID, like.CreatedAt,
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok && string(pqErr.Code) == uniqueViolation {
			writeLikeError(w, http.StatusConflict, "Already liked")
			return
		}
		writeLikeError(w, http.StatusInternalServerError, "Failed to update")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(LikeResponse{
		Success: true,
		Message: "Liked",
	})
}

// UnlikeEulogy removes the authenticated user's like. Delete-by-filter: no
// row is not an error state worth distinguishing for the client beyond 404.
func UnlikeEulogy(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeLikeError(w, http.StatusUnauthorized, "Sign in to like posts")
		return
	}

	eulogyID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeLikeError(w, http.StatusBadRequest, "Invalid eulogy ID")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := database.PostgresDB.ExecContext(ctx,
		"DELETE FROM likes WHERE user_id = $1 AND eulogy_id = $2",
		userID, eulogyID,
	)
	if err != nil {
		writeLikeError(w, http.StatusInternalServerError, "Failed to update")
		return
	}
	affected, _ := result.RowsAffected()
	if affected == 0 {
		writeLikeError(w, http.StatusNotFound, "Like not found")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(LikeResponse{
		Success: true,
		Message: "Unliked",
	})
}

func writeLikeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(LikeResponse{
		Success: false,
		Message: msg,
	})
}
