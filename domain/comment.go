package domain

import "time"

// MaxCommentLength bounds the comment body.
const MaxCommentLength = 200

// Comment is free text attached to a task. The author is captured by email,
// not a user foreign key, so attribution survives profile changes and
// account deletion.
type Comment struct {
	ID          string    `json:"id"`
	TaskID      string    `json:"task_id"`
	Body        string    `json:"comment"`
	AuthorEmail string    `json:"user_email"`
	CreatedAt   time.Time `json:"created_at"`
}
