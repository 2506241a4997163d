// Package migrations applies the embedded relational schema in order. The
// statements are idempotent so Apply can run on every startup.
package migrations

import (
	"context"
	"database/sql"
	"fmt"
)

var statements = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id         TEXT PRIMARY KEY,
		name       TEXT NOT NULL UNIQUE,
		password   TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS books (
		isbn   TEXT PRIMARY KEY,
		title  TEXT NOT NULL,
		author TEXT NOT NULL,
		year   INTEGER NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS reviews (
		id         TEXT PRIMARY KEY,
		isbn       TEXT NOT NULL REFERENCES books (isbn),
		user_id    TEXT NOT NULL REFERENCES users (id),
		rating     INTEGER NOT NULL,
		review     TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
		CONSTRAINT reviews_user_isbn_key UNIQUE (user_id, isbn)
	)`,
	`CREATE INDEX IF NOT EXISTS reviews_isbn_idx ON reviews (isbn)`,
	`INSERT INTO books (isbn, title, author, year)
		VALUES ('1632168146', 'Memory', 'Doug Lloyd', 2015)
		ON CONFLICT (isbn) DO NOTHING`,
}

// Apply executes every migration statement against the handle.
func Apply(ctx context.Context, db *sql.DB) error {
	for i, stmt := range statements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migration %d: %w", i+1, err)
		}
	}
	return nil
}
