package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"corkboard-api/domain"
)

// CreateNotification writes a durable inbox entry. It never triggers live
// delivery; the caller publishes the matching event separately.
func (s *Storage) CreateNotification(ctx context.Context, userID, message string) (domain.Notification, error) {
	n := domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   message,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, message, seen, created_at) VALUES (?, ?, ?, 0, ?)`,
		n.ID, n.UserID, n.Message, n.CreatedAt)
	if err != nil {
		return domain.Notification{}, err
	}
	return n, nil
}

// ListNotifications pages through a user's inbox, newest first.
func (s *Storage) ListNotifications(ctx context.Context, userID string, page int) ([]domain.Notification, PageInfo, error) {
	page = normalizePage(page)
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM notifications WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, PageInfo{}, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, user_id, message, seen, created_at
		FROM notifications
		WHERE user_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`,
		userID, NotificationsPageSize, (page-1)*NotificationsPageSize)
	if err != nil {
		return nil, PageInfo{}, err
	}
	defer rows.Close()

	notifications := make([]domain.Notification, 0, NotificationsPageSize)
	for rows.Next() {
		var n domain.Notification
		var seen int
		if err := rows.Scan(&n.ID, &n.UserID, &n.Message, &seen, &n.CreatedAt); err != nil {
			return nil, PageInfo{}, err
		}
		n.Seen = seen != 0
		notifications = append(notifications, n)
	}
	return notifications, pageInfo(total, page, NotificationsPageSize), rows.Err()
}

// HasUnseen reports whether the user has at least one unseen notification.
func (s *Storage) HasUnseen(ctx context.Context, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM notifications WHERE user_id = ? AND seen = 0 LIMIT 1`, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// MarkSeen sets the seen flag on one notification. The flag is monotonic;
// marking an already-seen notification is a no-op, not an error.
func (s *Storage) MarkSeen(ctx context.Context, id, userID string) error {
	owner, err := s.notificationOwner(ctx, id)
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	_, err = s.db.ExecContext(ctx, `UPDATE notifications SET seen = 1 WHERE id = ?`, id)
	return err
}

// MarkAllSeen sets the seen flag on every notification of the user.
func (s *Storage) MarkAllSeen(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET seen = 1 WHERE user_id = ? AND seen = 0`, userID)
	return err
}

// DeleteNotification removes an inbox entry; only the owner may do so.
func (s *Storage) DeleteNotification(ctx context.Context, id, userID string) error {
	owner, err := s.notificationOwner(ctx, id)
	if err != nil {
		return err
	}
	if owner != userID {
		return ErrForbidden
	}
	_, err = s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = ?`, id)
	return err
}

func (s *Storage) notificationOwner(ctx context.Context, id string) (string, error) {
	var owner string
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id FROM notifications WHERE id = ?`, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return owner, nil
}
