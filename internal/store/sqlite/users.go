package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/bookshareapp/bookshare-server/internal/domain"
	"github.com/bookshareapp/bookshare-server/internal/store"
)

const userColumns = `id, created_at, updated_at, email, password_hash, first_name, last_name, last_login_at`

// scanUser scans a user row into a domain.User.
func scanUser(scanner interface{ Scan(dest ...any) error }) (*domain.User, error) {
	var u domain.User
	var id, createdAt, updatedAt string
	var lastLoginAt sql.NullString

	err := scanner.Scan(&id, &createdAt, &updatedAt, &u.Email, &u.PasswordHash,
		&u.FirstName, &u.LastName, &lastLoginAt)
	if err != nil {
		return nil, err
	}

	u.ID = domain.PrincipalID(id)
	if u.CreatedAt, err = parseTime(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if u.UpdatedAt, err = parseTime(updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	if lastLoginAt.Valid && lastLoginAt.String != "" {
		if u.LastLoginAt, err = parseTime(lastLoginAt.String); err != nil {
			return nil, fmt.Errorf("parse last_login_at: %w", err)
		}
	}
	return &u, nil
}

// CreateUser inserts a new user. The email is unique case-insensitively.
func (s *Store) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, created_at, updated_at, email, email_lower, password_hash, first_name, last_name, last_login_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.q.ExecContext(ctx, query,
		string(user.ID), formatTime(user.CreatedAt), formatTime(user.UpdatedAt),
		user.Email, strings.ToLower(user.Email), user.PasswordHash,
		user.FirstName, user.LastName, nullLoginTime(user.LastLoginAt))
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id domain.PrincipalID) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	user, err := scanUser(s.q.QueryRowContext(ctx, query, string(id)))
	if err == sql.ErrNoRows {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return user, nil
}

// GetUserByEmail retrieves a user by email, case-insensitively.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email_lower = ?`
	user, err := scanUser(s.q.QueryRowContext(ctx, query, strings.ToLower(email)))
	if err == sql.ErrNoRows {
		return nil, store.ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return user, nil
}

// UpdateUser updates a user's mutable fields.
func (s *Store) UpdateUser(ctx context.Context, user *domain.User) error {
	query := `
		UPDATE users
		SET updated_at = ?, email = ?, email_lower = ?, password_hash = ?,
		    first_name = ?, last_name = ?, last_login_at = ?
		WHERE id = ?`

	result, err := s.q.ExecContext(ctx, query,
		formatTime(user.UpdatedAt), user.Email, strings.ToLower(user.Email),
		user.PasswordHash, user.FirstName, user.LastName,
		nullLoginTime(user.LastLoginAt), string(user.ID))
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateEmail
		}
		return fmt.Errorf("update user: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if rows == 0 {
		return store.ErrUserNotFound
	}
	return nil
}

// nullLoginTime maps the zero time (never logged in) to NULL.
func nullLoginTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}
