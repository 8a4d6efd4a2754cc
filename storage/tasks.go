package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"corkboard-api/domain"
)

// CreateStatus adds a column to a board.
func (s *Storage) CreateStatus(ctx context.Context, boardID, name string) (domain.Status, error) {
	status := domain.Status{ID: uuid.NewString(), BoardID: boardID, Name: name}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO statuses (id, board_id, name) VALUES (?, ?, ?)`,
		status.ID, status.BoardID, status.Name)
	if err != nil {
		return domain.Status{}, err
	}
	return status, nil
}

// FindStatus returns the status with the given id.
func (s *Storage) FindStatus(ctx context.Context, id string) (domain.Status, error) {
	var st domain.Status
	err := s.db.QueryRowContext(ctx,
		`SELECT id, board_id, name FROM statuses WHERE id = ?`, id).
		Scan(&st.ID, &st.BoardID, &st.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Status{}, ErrNotFound
	}
	if err != nil {
		return domain.Status{}, err
	}
	return st, nil
}

// CreateTask adds a task under a status.
func (s *Storage) CreateTask(ctx context.Context, statusID, name string) (domain.Task, error) {
	task := domain.Task{
		ID:        uuid.NewString(),
		StatusID:  statusID,
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, status_id, name, archived, created_at) VALUES (?, ?, ?, 0, ?)`,
		task.ID, task.StatusID, task.Name, task.CreatedAt)
	if err != nil {
		return domain.Task{}, err
	}
	return task, nil
}

// FindTask resolves a task together with the status and board containing it.
func (s *Storage) FindTask(ctx context.Context, id string) (domain.TaskDetail, error) {
	var t domain.TaskDetail
	var archived int
	err := s.db.QueryRowContext(ctx, `
		SELECT t.id, t.status_id, t.name, t.archived, t.created_at,
			s.name, b.id, b.name
		FROM tasks t
		JOIN statuses s ON s.id = t.status_id
		JOIN boards b ON b.id = s.board_id
		WHERE t.id = ?`, id).
		Scan(&t.ID, &t.StatusID, &t.Name, &archived, &t.CreatedAt,
			&t.StatusName, &t.BoardID, &t.BoardName)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.TaskDetail{}, ErrNotFound
	}
	if err != nil {
		return domain.TaskDetail{}, err
	}
	t.Archived = archived != 0
	return t, nil
}

// ListTasks pages through a status's tasks, newest first.
func (s *Storage) ListTasks(ctx context.Context, statusID string, page int) ([]domain.Task, PageInfo, error) {
	page = normalizePage(page)
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM tasks WHERE status_id = ?`, statusID).Scan(&total); err != nil {
		return nil, PageInfo{}, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status_id, name, archived, created_at
		FROM tasks
		WHERE status_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`,
		statusID, TasksPageSize, (page-1)*TasksPageSize)
	if err != nil {
		return nil, PageInfo{}, err
	}
	defer rows.Close()

	tasks := make([]domain.Task, 0, TasksPageSize)
	for rows.Next() {
		var t domain.Task
		var archived int
		if err := rows.Scan(&t.ID, &t.StatusID, &t.Name, &archived, &t.CreatedAt); err != nil {
			return nil, PageInfo{}, err
		}
		t.Archived = archived != 0
		tasks = append(tasks, t)
	}
	return tasks, pageInfo(total, page, TasksPageSize), rows.Err()
}
