package storage

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"

	"corkboard-api/domain"
)

// CreateBoard inserts a board and its owner membership in one transaction,
// so a board can never exist without its owner on the roster.
func (s *Storage) CreateBoard(ctx context.Context, name, ownerID string) (domain.Board, error) {
	board := domain.Board{
		ID:        uuid.NewString(),
		Name:      name,
		OwnerID:   ownerID,
		CreatedAt: time.Now().UTC(),
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Board{}, err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO boards (id, name, owner_id, archived, created_at) VALUES (?, ?, ?, 0, ?)`,
		board.ID, board.Name, board.OwnerID, board.CreatedAt); err != nil {
		return domain.Board{}, err
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO board_members (board_id, user_id, role, created_at) VALUES (?, ?, ?, ?)`,
		board.ID, board.OwnerID, domain.RoleOwner, board.CreatedAt); err != nil {
		return domain.Board{}, err
	}
	if err := tx.Commit(); err != nil {
		return domain.Board{}, err
	}
	return board, nil
}

// FindBoard returns the board with the given id.
func (s *Storage) FindBoard(ctx context.Context, id string) (domain.Board, error) {
	var b domain.Board
	var archived int
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, owner_id, archived, created_at FROM boards WHERE id = ?`, id).
		Scan(&b.ID, &b.Name, &b.OwnerID, &archived, &b.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Board{}, ErrNotFound
	}
	if err != nil {
		return domain.Board{}, err
	}
	b.Archived = archived != 0
	return b, nil
}

// ListBoardsForUser pages through the boards the user is a member of,
// newest first.
func (s *Storage) ListBoardsForUser(ctx context.Context, userID string, page int) ([]domain.Board, PageInfo, error) {
	page = normalizePage(page)
	var total int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM board_members WHERE user_id = ?`, userID).Scan(&total); err != nil {
		return nil, PageInfo{}, err
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT b.id, b.name, b.owner_id, b.archived, b.created_at
		FROM boards b
		JOIN board_members m ON m.board_id = b.id
		WHERE m.user_id = ?
		ORDER BY b.created_at DESC, b.id DESC
		LIMIT ? OFFSET ?`,
		userID, BoardsPageSize, (page-1)*BoardsPageSize)
	if err != nil {
		return nil, PageInfo{}, err
	}
	defer rows.Close()

	boards := make([]domain.Board, 0, BoardsPageSize)
	for rows.Next() {
		var b domain.Board
		var archived int
		if err := rows.Scan(&b.ID, &b.Name, &b.OwnerID, &archived, &b.CreatedAt); err != nil {
			return nil, PageInfo{}, err
		}
		b.Archived = archived != 0
		boards = append(boards, b)
	}
	return boards, pageInfo(total, page, BoardsPageSize), rows.Err()
}

// SetBoardArchived flips the archived flag.
func (s *Storage) SetBoardArchived(ctx context.Context, id string, archived bool) error {
	flag := 0
	if archived {
		flag = 1
	}
	res, err := s.db.ExecContext(ctx, `UPDATE boards SET archived = ? WHERE id = ?`, flag, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// DeleteBoard removes the board; memberships, statuses, tasks and comments
// go with it via cascading foreign keys. Task history stays.
func (s *Storage) DeleteBoard(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM boards WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return requireRow(res)
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
