// Package db opens the application database and applies the embedded
// schema at startup.
package db

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP
);

CREATE TABLE IF NOT EXISTS user_roles (
	user_id TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	role    TEXT NOT NULL,
	PRIMARY KEY (user_id, role)
);

CREATE TABLE IF NOT EXISTS sessions (
	id              TEXT PRIMARY KEY,
	user_id         TEXT NOT NULL REFERENCES users(id),
	login_time      TIMESTAMP NOT NULL,
	expiration_time TIMESTAMP NOT NULL,
	logout_time     TIMESTAMP,
	ip_address      TEXT NOT NULL DEFAULT '',
	user_agent      TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS idx_sessions_user_login
	ON sessions (user_id, login_time DESC);

CREATE TABLE IF NOT EXISTS nations (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tank_classes (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL UNIQUE,
	created_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP
);

CREATE TABLE IF NOT EXISTS statuses (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL UNIQUE,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tanks (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL UNIQUE,
	tier          INTEGER NOT NULL,
	nation_id     TEXT NOT NULL REFERENCES nations(id),
	class_id      TEXT NOT NULL REFERENCES tank_classes(id),
	status_id     TEXT NOT NULL REFERENCES statuses(id),
	created_by    TEXT,
	updated_by    TEXT,
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP
);
`

// Open connects to the SQLite database at dsn, verifies the connection,
// and ensures the schema exists.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := Migrate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}

	return conn, nil
}

// Migrate applies the embedded schema. All statements are idempotent.
func Migrate(ctx context.Context, conn *sql.DB) error {
	if _, err := conn.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
