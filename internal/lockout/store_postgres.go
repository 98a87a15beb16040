package lockout

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"adminauth/pkg/requestcontext"
)

// PostgresStore persists attempt records in PostgreSQL so lockout state is
// shared across instances. Pure I/O; lock decisions belong in the service.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgres constructs a PostgreSQL-backed attempt store.
func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, identifier string) (*Attempt, error) {
	query := `
		SELECT identifier, failure_count, locked_until, last_failure_at
		FROM login_attempts
		WHERE identifier = $1
	`
	rec, err := scanAttempt(s.db.QueryRowContext(ctx, query, identifier))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get login attempt: %w", err)
	}
	return rec, nil
}

// RecordFailure atomically increments the failure counter with a single
// INSERT ... ON CONFLICT ... RETURNING so concurrent requests cannot bypass
// the lockout threshold.
func (s *PostgresStore) RecordFailure(ctx context.Context, identifier string) (*Attempt, error) {
	now := requestcontext.Now(ctx)
	query := `
		INSERT INTO login_attempts (identifier, failure_count, locked_until, last_failure_at)
		VALUES ($1, 1, NULL, $2)
		ON CONFLICT (identifier) DO UPDATE SET
			failure_count = login_attempts.failure_count + 1,
			last_failure_at = $2
		RETURNING identifier, failure_count, locked_until, last_failure_at
	`
	rec, err := scanAttempt(s.db.QueryRowContext(ctx, query, identifier, now))
	if err != nil {
		return nil, fmt.Errorf("record login failure: %w", err)
	}
	return rec, nil
}

func (s *PostgresStore) Update(ctx context.Context, record *Attempt) error {
	if record == nil {
		return fmt.Errorf("login attempt record is required")
	}
	query := `
		INSERT INTO login_attempts (identifier, failure_count, locked_until, last_failure_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (identifier) DO UPDATE SET
			failure_count = EXCLUDED.failure_count,
			locked_until = EXCLUDED.locked_until,
			last_failure_at = EXCLUDED.last_failure_at
	`
	_, err := s.db.ExecContext(ctx, query,
		record.Identifier,
		record.FailureCount,
		record.LockedUntil,
		record.LastFailureAt,
	)
	if err != nil {
		return fmt.Errorf("update login attempt: %w", err)
	}
	return nil
}

func (s *PostgresStore) Clear(ctx context.Context, identifier string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM login_attempts WHERE identifier = $1`, identifier)
	if err != nil {
		return fmt.Errorf("clear login attempt: %w", err)
	}
	return nil
}

func scanAttempt(row interface{ Scan(dest ...any) error }) (*Attempt, error) {
	var (
		rec         Attempt
		lockedUntil sql.NullTime
	)
	if err := row.Scan(&rec.Identifier, &rec.FailureCount, &lockedUntil, &rec.LastFailureAt); err != nil {
		return nil, err
	}
	if lockedUntil.Valid {
		t := lockedUntil.Time
		rec.LockedUntil = &t
	}
	return &rec, nil
}
