package models

import (
	"time"

	"github.com/google/uuid"
)

// Like is identified by (user, eulogy); the store enforces uniqueness.
type Like struct {
	UserID    uuid.UUID `json:"user_id"`
	EulogyID  uuid.UUID `json:"eulogy_id"`
	CreatedAt time.Time `json:"created_at"`
}
