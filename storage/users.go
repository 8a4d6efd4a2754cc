package storage

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"corkboard-api/domain"
)

// UpsertUser creates or refreshes the profile row for the given identity.
func (s *Storage) UpsertUser(ctx context.Context, id, email, name string) (domain.User, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, email, name, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET email = excluded.email, name = excluded.name`,
		id, email, name, now)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") {
			return domain.User{}, ErrDuplicate
		}
		return domain.User{}, err
	}
	return s.FindUser(ctx, id)
}

// FindUser returns the profile for the given user id.
func (s *Storage) FindUser(ctx context.Context, id string) (domain.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, created_at FROM users WHERE id = ?`, id))
}

// FindUserByEmail resolves an email address to a profile.
func (s *Storage) FindUserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, created_at FROM users WHERE email = ?`, email))
}

func (s *Storage) scanUser(row *sql.Row) (domain.User, error) {
	var u domain.User
	err := row.Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return u, nil
}
