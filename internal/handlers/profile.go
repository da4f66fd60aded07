package handlers

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"

	"github.com/livingeulogy/eulogy-backend/internal/config"
	"github.com/livingeulogy/eulogy-backend/internal/database"
	"github.com/livingeulogy/eulogy-backend/internal/services"
)

var cloudinaryService *services.CloudinaryService

func InitCloudinaryService(cfg *config.Config) error {
	service, err := services.NewCloudinaryService(
		cfg.CloudinaryName,
		cfg.CloudinaryAPIKey,
		cfg.CloudinaryAPISecret,
	)
	if err != nil {
		return err
	}
	cloudinaryService = service
	return nil
}

type ProfileResponse struct {
	Success bool                   `json:"success"`
	Message string                 `json:"message,omitempty"`
	Profile map[string]interface{} `json:"profile,omitempty"`
}

// GetProfile returns the authenticated user's public profile.
func GetProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeProfileError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	var displayName string
	var avatarURL sql.NullString
	var createdAt time.Time
	err := database.PostgresDB.QueryRowContext(ctx,
		"SELECT display_name, avatar_url, created_at FROM profiles WHERE id = $1", userID,
	).Scan(&displayName, &avatarURL, &createdAt)
	if err != nil {
		writeProfileError(w, http.StatusInternalServerError, "Failed to fetch profile")
		return
	}

	profile := map[string]interface{}{
		"id":           userID.String(),
		"display_name": displayName,
		"created_at":   createdAt,
	}
	if avatarURL.Valid {
		profile["avatar_url"] = avatarURL.String
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ProfileResponse{
		Success: true,
		Profile: profile,
	})
}

// UploadAvatar uploads a profile picture to Cloudinary and stores its URL.
func UploadAvatar(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(r)
	if !ok {
		writeProfileError(w, http.StatusUnauthorized, "Authentication required")
		return
	}

	if cloudinaryService == nil {
		writeProfileError(w, http.StatusServiceUnavailable, "Avatar uploads are not available")
		return
	}

	// Parse multipart form (max 10MB)
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		writeProfileError(w, http.StatusBadRequest, "Failed to parse form")
		return
	}

	file, fileHeader, err := r.FormFile("file")
	if err != nil {
		writeProfileError(w, http.StatusBadRequest, "No file provided")
		return
	}
	defer file.Close()

	url, err := cloudinaryService.UploadAvatarFromHeader(r.Context(), fileHeader)
	if err != nil {
		writeProfileError(w, http.StatusInternalServerError, "Failed to upload avatar")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	if _, err := database.PostgresDB.ExecContext(ctx,
		"UPDATE profiles SET avatar_url = $1 WHERE id = $2", url, userID,
	); err != nil {
		writeProfileError(w, http.StatusInternalServerError, "Failed to save avatar")
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(ProfileResponse{
		Success: true,
		Message: "Avatar updated",
		Profile: map[string]interface{}{
			"id":         userID.String(),
			"avatar_url": url,
		},
	})
}

func writeProfileError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ProfileResponse{
		Success: false,
		Message: msg,
	})
}
