package domain

import "time"

// Status is a column on a board.
type Status struct {
	ID      string `json:"id"`
	BoardID string `json:"boardId"`
	Name    string `json:"name"`
}

// Task is a single board item, grouped under a status.
type Task struct {
	ID        string    `json:"id"`
	StatusID  string    `json:"statusId"`
	Name      string    `json:"name"`
	Archived  bool      `json:"archived"`
	CreatedAt time.Time `json:"createdAt"`
}

// TaskDetail is a task joined with the status and board containing it. The
// names feed notification text; BoardID is the authorization scope.
type TaskDetail struct {
	Task
	BoardID    string `json:"boardId"`
	BoardName  string `json:"boardName"`
	StatusName string `json:"statusName"`
}
