package storage

import (
	"context"
	"time"

	"github.com/google/uuid"

	"corkboard-api/domain"
)

// AppendHistory writes one audit record. The trail is append-only; nothing
// in this package updates or deletes task_history rows. A failure here must
// be surfaced by the caller since the entry is the sole record of a
// destructive action.
func (s *Storage) AppendHistory(ctx context.Context, taskID, userID, action string) (domain.HistoryEntry, error) {
	entry := domain.HistoryEntry{
		ID:        uuid.NewString(),
		TaskID:    taskID,
		UserID:    userID,
		Action:    action,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO task_history (id, task_id, user_id, action, created_at) VALUES (?, ?, ?, ?, ?)`,
		entry.ID, entry.TaskID, entry.UserID, entry.Action, entry.CreatedAt)
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	return entry, nil
}

// ListHistory returns a task's audit trail, newest first.
func (s *Storage) ListHistory(ctx context.Context, taskID string) ([]domain.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, user_id, action, created_at
		FROM task_history
		WHERE task_id = ?
		ORDER BY created_at DESC, id DESC`, taskID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []domain.HistoryEntry
	for rows.Next() {
		var e domain.HistoryEntry
		if err := rows.Scan(&e.ID, &e.TaskID, &e.UserID, &e.Action, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
