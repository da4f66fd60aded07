package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EmailRecord is one outbound eulogy notification, logged to MongoDB.
type EmailRecord struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SentAt         time.Time          `bson:"sent_at" json:"sent_at"`
	RecipientEmail string             `bson:"recipient_email" json:"recipient_email"`
	RecipientName  string             `bson:"recipient_name" json:"recipient_name"`
	SenderName     string             `bson:"sender_name" json:"sender_name"`
	ShareURL       string             `bson:"share_url" json:"share_url"`
	Delivered      bool               `bson:"delivered" json:"delivered"`
	Error          string             `bson:"error,omitempty" json:"error,omitempty"`
}
