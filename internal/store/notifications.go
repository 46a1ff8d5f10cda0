package store

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/starford/almanac/internal/apperr"
	"github.com/starford/almanac/internal/models"
)

// CreateNotification inserts n unless one with the same event and type
// already exists. It reports whether a row was written.
func (db *DB) CreateNotification(ctx context.Context, n models.Notification) (bool, error) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = db.now()
	}
	res, err := db.conn.ExecContext(ctx, `
		INSERT OR IGNORE INTO notifications (id, event_id, type, message, is_read, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, n.ID, n.EventID, n.Type, n.Message, n.IsRead, n.CreatedAt.UTC())
	if err != nil {
		return false, fmt.Errorf("store: insert notification: %w: %w", apperr.ErrStorage, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("store: insert notification: %w: %w", apperr.ErrStorage, err)
	}
	return affected > 0, nil
}

// ListNotifications returns every notification, newest first.
func (db *DB) ListNotifications(ctx context.Context) ([]models.Notification, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, event_id, type, message, is_read, created_at
		FROM notifications
		ORDER BY created_at DESC, id
	`)
	if err != nil {
		return nil, fmt.Errorf("store: list notifications: %w: %w", apperr.ErrStorage, err)
	}
	defer rows.Close()

	out := []models.Notification{}
	for rows.Next() {
		var n models.Notification
		if err := rows.Scan(&n.ID, &n.EventID, &n.Type, &n.Message, &n.IsRead, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("store: scan notification: %w: %w", apperr.ErrStorage, err)
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

// MarkNotificationRead flags a notification as read.
func (db *DB) MarkNotificationRead(ctx context.Context, id string) error {
	res, err := db.conn.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("store: mark notification: %w: %w", apperr.ErrStorage, err)
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("store: notification %s: %w", id, apperr.ErrNotFound)
	}
	return nil
}

// DeleteNotification removes a notification; a missing id is not an error.
func (db *DB) DeleteNotification(ctx context.Context, id string) error {
	if _, err := db.conn.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id); err != nil {
		return fmt.Errorf("store: delete notification: %w: %w", apperr.ErrStorage, err)
	}
	return nil
}
