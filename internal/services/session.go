package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/livingeulogy/eulogy-backend/internal/database"
	"github.com/livingeulogy/eulogy-backend/pkg/utils"
)

const (
	// SessionDuration is 7 days
	SessionDuration = 7 * 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for sessions
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for user->session mapping
	UserSessionKeyPrefix = "user_session:"
)

// CreateSession creates a new session for a user and stores it in Redis.
// Any existing session for the user is invalidated first so the 7-day timer
// resets from the current login. Returns the session token.
func CreateSession(userID uuid.UUID) (string, error) {
	InvalidateUserSessions(userID)

	sessionToken, err := utils.GenerateToken(32)
	if err != nil {
		return "", err
	}

	ctx := context.Background()
	sessionKey := SessionKeyPrefix + sessionToken
	userSessionKey := UserSessionKeyPrefix + userID.String()

	if err := database.RedisClient.Set(ctx, sessionKey, userID.String(), SessionDuration).Err(); err != nil {
		return "", err
	}

	if err := database.RedisClient.Set(ctx, userSessionKey, sessionToken, SessionDuration).Err(); err != nil {
		return "", err
	}

	return sessionToken, nil
}

// ValidateSession checks if a session token is valid and returns the user ID
func ValidateSession(sessionToken string) (uuid.UUID, bool, error) {
	if sessionToken == "" {
		return uuid.Nil, false, nil
	}

	ctx := context.Background()
	sessionKey := SessionKeyPrefix + sessionToken

	userIDStr, err := database.RedisClient.Get(ctx, sessionKey).Result()
	if err != nil {
		return uuid.Nil, false, nil
	}

	userID, err := uuid.Parse(userIDStr)
	if err != nil {
		return uuid.Nil, false, err
	}

	return userID, true, nil
}

// InvalidateSession removes a session token from Redis
func InvalidateSession(sessionToken string) error {
	if sessionToken == "" {
		return nil
	}
	ctx := context.Background()
	return database.RedisClient.Del(ctx, SessionKeyPrefix+sessionToken).Err()
}

// InvalidateUserSessions removes any existing session for a user
func InvalidateUserSessions(userID uuid.UUID) {
	ctx := context.Background()
	userSessionKey := UserSessionKeyPrefix + userID.String()

	oldToken, err := database.RedisClient.Get(ctx, userSessionKey).Result()
	if err == nil && oldToken != "" {
		database.RedisClient.Del(ctx, SessionKeyPrefix+oldToken)
	}
	database.RedisClient.Del(ctx, userSessionKey)
}
