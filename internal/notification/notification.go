// Package notification stores per-user in-app notifications.
package notification

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a notification does not exist for the user.
var ErrNotFound = errors.New("notification not found")

// Notification types.
const (
	TypeDemande      = "demande"
	TypeMessage      = "message"
	TypeStatut       = "statut"
	TypeIntervention = "intervention"
)

// Notification is a message shown to a single user.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Type      string    `json:"type"`
	Message   string    `json:"message"`
	Lien      string    `json:"lien,omitempty"`
	Lu        bool      `json:"lu"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository provides data access for notifications.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a notification repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Create stores a new unread notification.
func (r *Repository) Create(userID, typ, message, lien string) (*Notification, error) {
	if message == "" {
		return nil, fmt.Errorf("notification message is required")
	}

	id := uuid.NewString()
	if _, err := r.db.Exec(
		"INSERT INTO notifications (id, user_id, type, message, lien) VALUES (?, ?, ?, ?, ?)",
		id, userID, typ, message, lien,
	); err != nil {
		return nil, fmt.Errorf("inserting notification: %w", err)
	}

	var n Notification
	err := r.db.QueryRow(
		"SELECT id, user_id, type, message, lien, lu, created_at FROM notifications WHERE id = ?", id,
	).Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.Lien, &n.Lu, &n.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("reading back notification: %w", err)
	}
	return &n, nil
}

// ListByUser returns a user's notifications, newest first.
func (r *Repository) ListByUser(userID string, unreadOnly bool) ([]*Notification, error) {
	q := "SELECT id, user_id, type, message, lien, lu, created_at FROM notifications WHERE user_id = ?"
	if unreadOnly {
		q += " AND lu = 0"
	}
	q += " ORDER BY created_at DESC, rowid DESC"

	rows, err := r.db.Query(q, userID)
	if err != nil {
		return nil, fmt.Errorf("listing notifications: %w", err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			slog.Warn("closing rows", "error", err)
		}
	}()

	var list []*Notification
	for rows.Next() {
		var n Notification
		if err := rows.Scan(&n.ID, &n.UserID, &n.Type, &n.Message, &n.Lien, &n.Lu, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning notification: %w", err)
		}
		list = append(list, &n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating notifications: %w", err)
	}
	return list, nil
}

// MarkRead flags one of the user's notifications as read.
func (r *Repository) MarkRead(userID, id string) error {
	result, err := r.db.Exec("UPDATE notifications SET lu = 1 WHERE id = ? AND user_id = ?", id, userID)
	if err != nil {
		return fmt.Errorf("marking notification read: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return nil
}

// MarkAllRead flags every unread notification of the user as read.
func (r *Repository) MarkAllRead(userID string) (int64, error) {
	result, err := r.db.Exec("UPDATE notifications SET lu = 1 WHERE user_id = ? AND lu = 0", userID)
	if err != nil {
		return 0, fmt.Errorf("marking notifications read: %w", err)
	}
	return result.RowsAffected()
}

// UnreadCount returns how many unread notifications the user has.
func (r *Repository) UnreadCount(userID string) (int, error) {
	var count int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM notifications WHERE user_id = ? AND lu = 0", userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting notifications: %w", err)
	}
	return count, nil
}
