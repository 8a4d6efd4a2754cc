package domain

import "time"

// Notification is a durable inbox entry for one user. Seen only ever moves
// false to true; nobody but the target user may mutate or delete the row.
type Notification struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Message   string    `json:"message"`
	Seen      bool      `json:"seen"`
	CreatedAt time.Time `json:"created_at"`
}

// HistoryEntry is one append-only audit record of an action against a task.
// It references the task by id without a foreign key so the trail survives
// deletion of the task and of the entity the action touched.
type HistoryEntry struct {
	ID        string    `json:"id"`
	TaskID    string    `json:"task_id"`
	UserID    string    `json:"user_id"`
	Action    string    `json:"action"`
	CreatedAt time.Time `json:"created_at"`
}
