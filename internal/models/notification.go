package models

import (
	"database/sql"
	"fmt"
	"time"
)

// Notification types — used as the `type` column in the notifications table.
const (
	NotifyPlanGenerated    = "plan_generated"
	NotifyAnalysisComplete = "analysis_complete"
	NotifyStreakMilestone  = "streak_milestone"
)

// Notification represents an in-app notification row.
type Notification struct {
	ID        int64
	UserID    int64
	Type      string
	Title     string
	Message   sql.NullString
	Link      sql.NullString
	Read      bool
	CreatedAt time.Time
}

// CreateNotification inserts a new notification. Returns the created notification.
func CreateNotification(db *sql.DB, userID int64, nType, title, message, link string) (*Notification, error) {
	var msgVal, linkVal sql.NullString
	if message != "" {
		msgVal = sql.NullString{String: message, Valid: true}
	}
	if link != "" {
		linkVal = sql.NullString{String: link, Valid: true}
	}

	row := db.QueryRow(
		`INSERT INTO notifications (user_id, type, title, message, link)
		 VALUES (?, ?, ?, ?, ?)
		 RETURNING id, user_id, type, title, message, link, read, created_at`,
		userID, nType, title, msgVal, linkVal,
	)

	n := &Notification{}
	err := row.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Link, &n.Read, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("models: create notification: %w", err)
	}
	return n, nil
}

// ListNotifications returns notifications for a user with pagination.
func ListNotifications(db *sql.DB, userID int64, limit, offset int) ([]*Notification, error) {
	rows, err := db.Query(
		`SELECT id, user_id, type, title, message, link, read, created_at
		 FROM notifications
		 WHERE user_id = ?
		 ORDER BY created_at DESC, id DESC
		 LIMIT ? OFFSET ?`,
		userID, limit, offset,
	)
	if err != nil {
		return nil, fmt.Errorf("models: list notifications for user %d: %w", userID, err)
	}
	defer rows.Close()

	var notifications []*Notification
	for rows.Next() {
		n := &Notification{}
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Title, &n.Message, &n.Link, &n.Read, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("models: scan notification: %w", err)
		}
		notifications = append(notifications, n)
	}
	return notifications, rows.Err()
}

// GetUnreadCount returns the number of unread notifications for a user.
func GetUnreadCount(db *sql.DB, userID int64) (int, error) {
	var count int
	err := db.QueryRow(
		`SELECT COUNT(*) FROM notifications WHERE user_id = ? AND read = 0`,
		userID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("models: get unread count for user %d: %w", userID, err)
	}
	return count, nil
}

// MarkAsRead marks a single notification as read, scoped to its owner.
func MarkAsRead(db *sql.DB, id, userID int64) error {
	result, err := db.Exec(
		`UPDATE notifications SET read = 1 WHERE id = ? AND user_id = ?`,
		id, userID,
	)
	if err != nil {
		return fmt.Errorf("models: mark notification %d as read: %w", id, err)
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteOldNotifications removes read notifications created before the cutoff.
// Returns the number of rows deleted.
func DeleteOldNotifications(db *sql.DB, cutoff time.Time) (int64, error) {
	result, err := db.Exec(
		`DELETE FROM notifications WHERE read = 1 AND created_at < ?`,
		sqliteTime(cutoff),
	)
	if err != nil {
		return 0, fmt.Errorf("models: delete old notifications: %w", err)
	}
	n, _ := result.RowsAffected()
	return n, nil
}
