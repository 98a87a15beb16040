package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"adminauth/internal/auth/models"
	"adminauth/pkg/platform/sentinel"
)

// PostgresStore persists admin user records in PostgreSQL.
// This store is pure I/O; status and credential rules belong in the service.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed user store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const uniqueViolation = "23505"

func (s *PostgresStore) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO admin_users (username, password_hash, full_name, role, status, last_login_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		user.Username,
		user.PasswordHash,
		user.FullName,
		string(user.Role),
		string(user.Status),
		user.LastLoginAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return sentinel.ErrConflict
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT username, password_hash, full_name, role, status, last_login_at
		FROM admin_users
		WHERE username = $1
	`
	u, err := scanUser(s.db.QueryRowContext(ctx, query, username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find user: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) ListAll(ctx context.Context) ([]*models.User, error) {
	query := `
		SELECT username, password_hash, full_name, role, status, last_login_at
		FROM admin_users
		ORDER BY username
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var out []*models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("list users: %w", err)
		}
		out = append(out, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) UpdateLastLogin(ctx context.Context, username string, at time.Time) error {
	return s.updateField(ctx,
		`UPDATE admin_users SET last_login_at = $2 WHERE username = $1`,
		username, at)
}

func (s *PostgresStore) UpdatePassword(ctx context.Context, username, passwordHash string) error {
	return s.updateField(ctx,
		`UPDATE admin_users SET password_hash = $2 WHERE username = $1`,
		username, passwordHash)
}

func (s *PostgresStore) UpdateStatus(ctx context.Context, username string, status models.Status) error {
	return s.updateField(ctx,
		`UPDATE admin_users SET status = $2 WHERE username = $1`,
		username, string(status))
}

func (s *PostgresStore) updateField(ctx context.Context, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u         models.User
		role      string
		status    string
		lastLogin sql.NullTime
	)
	if err := row.Scan(&u.Username, &u.PasswordHash, &u.FullName, &role, &status, &lastLogin); err != nil {
		return nil, err
	}
	u.Role = models.Role(role)
	u.Status = models.Status(status)
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLoginAt = &t
	}
	return &u, nil
}
