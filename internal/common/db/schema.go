package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"
)

var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id            UUID PRIMARY KEY,
		username      TEXT NOT NULL,
		email         TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		is_admin      BOOLEAN NOT NULL DEFAULT FALSE,
		joined_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_username_key ON users (LOWER(username))`,
	`CREATE UNIQUE INDEX IF NOT EXISTS users_email_key ON users (LOWER(email))`,

	`CREATE TABLE IF NOT EXISTS posts (
		id         UUID PRIMARY KEY,
		user_id    UUID NOT NULL REFERENCES users (id),
		content    TEXT NOT NULL CHECK (LENGTH(BTRIM(content)) > 0),
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS posts_user_created_idx ON posts (user_id, created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS posts_created_idx ON posts (created_at DESC, id DESC)`,

	`CREATE TABLE IF NOT EXISTS relationships (
		from_user_id UUID NOT NULL REFERENCES users (id),
		to_user_id   UUID NOT NULL REFERENCES users (id),
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT relationships_pkey PRIMARY KEY (from_user_id, to_user_id),
		CONSTRAINT relationships_no_self_follow CHECK (from_user_id <> to_user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS relationships_to_user_idx ON relationships (to_user_id)`,

	`CREATE TABLE IF NOT EXISTS refresh_tokens (
		id         UUID PRIMARY KEY,
		token_hash TEXT NOT NULL UNIQUE,
		user_id    UUID NOT NULL REFERENCES users (id),
		expires_at TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS refresh_tokens_user_idx ON refresh_tokens (user_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS revoked_tokens (
		jti        TEXT PRIMARY KEY,
		user_id    UUID NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL,
		revoked_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
}

// EnsureSchema creates the tables and indexes that do not exist yet.
func EnsureSchema(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schemaStatements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema: %w", err)
		}
	}
	return nil
}
