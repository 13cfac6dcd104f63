package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"
)

// Open opens the SQLite file at path, creating its directory if needed.
// Foreign keys are enabled on every connection so the movie cascades hold.
func Open(path string) (*sql.DB, error) {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}
	dsn := path + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)&_time_format=sqlite"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, db.Ping()
}

func Migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS users(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			email TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'user' CHECK(role IN ('user','admin')),
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS movies(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			title TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			added_by INTEGER NOT NULL REFERENCES users(id),
			created_at DATETIME NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS votes(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			movie_id INTEGER NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
			vote_type INTEGER NOT NULL CHECK(vote_type IN (-1,1)),
			created_at DATETIME NOT NULL,
			UNIQUE(user_id, movie_id)
		);`,
		`CREATE TABLE IF NOT EXISTS comments(
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id INTEGER NOT NULL REFERENCES users(id),
			movie_id INTEGER NOT NULL REFERENCES movies(id) ON DELETE CASCADE,
			body TEXT NOT NULL,
			created_at DATETIME NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_votes_movie ON votes(movie_id);`,
		`CREATE INDEX IF NOT EXISTS idx_comments_movie ON comments(movie_id, created_at);`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// Seed inserts the admin account unless a user with that email already
// exists. It reports whether a row was created and is safe to run on
// every boot.
func Seed(ctx context.Context, db *sql.DB, name, email, passwordHash string) (bool, error) {
	res, err := db.ExecContext(ctx,
		`INSERT OR IGNORE INTO users(name,email,password_hash,role,created_at) VALUES(?,?,?,'admin',?)`,
		name, strings.ToLower(strings.TrimSpace(email)), passwordHash, time.Now().UTC())
	if err != nil {
		return false, fmt.Errorf("seed admin: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
