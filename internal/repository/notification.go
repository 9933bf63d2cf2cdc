package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"account-ledger-api/internal/model"
)

const (
	createNotificationQuery = `
		INSERT INTO notifications (id, user_id, message, read, created_at)
		VALUES ($1, $2, $3, FALSE, clock_timestamp())
		RETURNING id, user_id, message, read, created_at
	`

	listUnreadQuery = `
		SELECT id, user_id, message, read, created_at
		FROM notifications
		WHERE user_id = $1 AND read = FALSE
		ORDER BY seq DESC
	`
)

// NotificationRepository handles the per-user notification inbox
type NotificationRepository struct {
	db *sql.DB
}

// NewNotificationRepository creates a new notification repository
func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// Create stores a new unread notification
func (r *NotificationRepository) Create(ctx context.Context, notification *model.Notification) (*model.Notification, error) {
	created := &model.Notification{}
	err := r.db.QueryRowContext(ctx, createNotificationQuery, notification.ID, notification.UserID, notification.Message).Scan(
		&created.ID,
		&created.UserID,
		&created.Message,
		&created.Read,
		&created.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	return created, nil
}

// ListUnread retrieves a user's unread notifications, newest first
func (r *NotificationRepository) ListUnread(ctx context.Context, userID uuid.UUID) ([]*model.Notification, error) {
	rows, err := r.db.QueryContext(ctx, listUnreadQuery, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get notifications: %w", err)
	}
	defer rows.Close()

	notifications := make([]*model.Notification, 0)
	for rows.Next() {
		notification := &model.Notification{}
		if err := rows.Scan(
			&notification.ID,
			&notification.UserID,
			&notification.Message,
			&notification.Read,
			&notification.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan notification: %w", err)
		}
		notifications = append(notifications, notification)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notifications: %w", err)
	}

	return notifications, nil
}

// MarkAllRead flips every unread notification of a user to read and returns how many changed
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID uuid.UUID) (int64, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications read: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
