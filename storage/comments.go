package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"corkboard-api/domain"
)

// CreateComment persists a comment authored by the given email.
func (s *Storage) CreateComment(ctx context.Context, taskID, body, authorEmail string) (domain.Comment, error) {
	comment := domain.Comment{
		ID:          uuid.NewString(),
		TaskID:      taskID,
		Body:        body,
		AuthorEmail: authorEmail,
		CreatedAt:   time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO comments (id, task_id, body, author_email, created_at) VALUES (?, ?, ?, ?, ?)`,
		comment.ID, comment.TaskID, comment.Body, comment.AuthorEmail, comment.CreatedAt)
	if err != nil {
		return domain.Comment{}, err
	}
	return comment, nil
}

// FindComment returns the comment with the given id.
func (s *Storage) FindComment(ctx context.Context, id string) (domain.Comment, error) {
	var c domain.Comment
	err := s.db.QueryRowContext(ctx,
		`SELECT id, task_id, body, author_email, created_at FROM comments WHERE id = ?`, id).
		Scan(&c.ID, &c.TaskID, &c.Body, &c.AuthorEmail, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Comment{}, ErrNotFound
	}
	if err != nil {
		return domain.Comment{}, err
	}
	return c, nil
}

// ListComments pages through a task's comments, newest first.
func (s *Storage) ListComments(ctx context.Context, taskID string, page int) ([]domain.Comment, PageInfo, error) {
	page = normalizePage(page)
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM comments WHERE task_id = ?`, taskID).Scan(&total); err != nil {
		return nil, PageInfo{}, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, task_id, body, author_email, created_at
		FROM comments
		WHERE task_id = ?
		ORDER BY created_at DESC, id DESC
		LIMIT ? OFFSET ?`,
		taskID, CommentsPageSize, (page-1)*CommentsPageSize)
	if err != nil {
		return nil, PageInfo{}, err
	}
	defer rows.Close()

	comments := make([]domain.Comment, 0, CommentsPageSize)
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.TaskID, &c.Body, &c.AuthorEmail, &c.CreatedAt); err != nil {
			return nil, PageInfo{}, err
		}
		comments = append(comments, c)
	}
	return comments, pageInfo(total, page, CommentsPageSize), rows.Err()
}

// DeleteComment removes a comment inside a scoped transaction. The delete is
// the only statement today; the transaction marks the extension point for
// anything that must later commit atomically with it.
func (s *Storage) DeleteComment(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if err := requireRow(res); err != nil {
		return err
	}
	return tx.Commit()
}
