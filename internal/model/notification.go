package model

import (
	"time"

	"github.com/google/uuid"
)

// Notification is an inbox entry for a user
type Notification struct {
	ID        uuid.UUID `json:"id" db:"id"`
	UserID    uuid.UUID `json:"userId" db:"user_id"`
	Message   string    `json:"message" db:"message"`
	Read      bool      `json:"read" db:"read"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// MarkReadRequest represents the request to mark a user's notifications as read
type MarkReadRequest struct {
	UserID string `json:"userId"`
}

// NotificationListResponse lists unread notifications
type NotificationListResponse struct {
	Notifications []*Notification `json:"notifications"`
}
