package postgres

import (
	"context"
	"database/sql"
	"fmt"
)

// schema is the full DDL for the auth service. Idempotent so it can run on
// every startup; there is no migration history to manage at this size.
const schema = `
CREATE TABLE IF NOT EXISTS admin_users (
	username      TEXT PRIMARY KEY,
	password_hash TEXT NOT NULL,
	full_name     TEXT NOT NULL DEFAULT '',
	role          TEXT NOT NULL,
	status        TEXT NOT NULL,
	last_login_at TIMESTAMPTZ
);

CREATE TABLE IF NOT EXISTS login_attempts (
	identifier      TEXT PRIMARY KEY,
	failure_count   INTEGER NOT NULL DEFAULT 0,
	locked_until    TIMESTAMPTZ,
	last_failure_at TIMESTAMPTZ NOT NULL
);
`

// EnsureSchema creates the auth tables if they do not exist.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}
