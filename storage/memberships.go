package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"corkboard-api/domain"
)

// IsMember reports whether the user is on the board's roster. Absence is not
// an error; callers translate false into their own authorization failure.
func (s *Storage) IsMember(ctx context.Context, boardID, userID string) (bool, error) {
	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM board_members WHERE board_id = ? AND user_id = ?`, boardID, userID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// RoleOf returns the member's role, or ErrNotFound when not a member.
func (s *Storage) RoleOf(ctx context.Context, boardID, userID string) (domain.Role, error) {
	var role domain.Role
	err := s.db.QueryRowContext(ctx,
		`SELECT role FROM board_members WHERE board_id = ? AND user_id = ?`, boardID, userID).Scan(&role)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", err
	}
	return role, nil
}

// Members returns the user ids of everyone on the board's roster. It is
// queried at publish time, never cached, so membership changes are reflected
// on the very next event.
func (s *Storage) Members(ctx context.Context, boardID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM board_members WHERE board_id = ?`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// BoardMembers lists the roster joined with member profiles.
func (s *Storage) BoardMembers(ctx context.Context, boardID string) ([]domain.BoardMember, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT m.user_id, u.email, u.name, m.role
		FROM board_members m
		JOIN users u ON u.id = m.user_id
		WHERE m.board_id = ?
		ORDER BY m.created_at, m.user_id`, boardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []domain.BoardMember
	for rows.Next() {
		var m domain.BoardMember
		if err := rows.Scan(&m.UserID, &m.Email, &m.Name, &m.Role); err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// AddMember puts a user on the board's roster.
func (s *Storage) AddMember(ctx context.Context, boardID, userID string, role domain.Role) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO board_members (board_id, user_id, role, created_at) VALUES (?, ?, ?, ?)`,
		boardID, userID, role, time.Now().UTC())
	if err != nil && strings.Contains(err.Error(), "UNIQUE") {
		return ErrDuplicate
	}
	return err
}

// RemoveMember takes a user off the roster. From that point on the user is
// neither authorized for board actions nor a recipient of its events.
func (s *Storage) RemoveMember(ctx context.Context, boardID, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM board_members WHERE board_id = ? AND user_id = ?`, boardID, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}

// ChangeRole updates a member's role.
func (s *Storage) ChangeRole(ctx context.Context, boardID, userID string, role domain.Role) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE board_members SET role = ? WHERE board_id = ? AND user_id = ?`, role, boardID, userID)
	if err != nil {
		return err
	}
	return requireRow(res)
}
