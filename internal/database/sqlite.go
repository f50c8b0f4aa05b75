package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"

	"socialnet/internal/models"
)

// querier is satisfied by both *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Open connects to the SQLite database named by dsn and creates the schema.
// The pool is capped at one connection: SQLite has a single writer and the
// stores never hold a result set open while issuing another statement.
func Open(ctx context.Context, dsn string, log logrus.FieldLogger) (*sql.DB, error) {
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on&_busy_timeout=5000"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("error opening database: %w", err)
	}
	db.SetMaxOpenConns(1)

	if err = db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("error connecting to database: %w", err)
	}
	log.WithField("dsn", dsn).Info("connected to sqlite")

	if err := createTables(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	log.Debug("database tables created or already exist")
	return db, nil
}

func createTables(ctx context.Context, db *sql.DB) error {
	schema := `
	PRAGMA foreign_keys = ON;

	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE COLLATE NOCASE,
		username TEXT NOT NULL UNIQUE,
		password TEXT NOT NULL,
		profile_img TEXT NOT NULL,
		is_admin BOOLEAN NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS posts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		caption TEXT NOT NULL,
		img TEXT NOT NULL DEFAULT '',
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	-- One row per follow edge: follower lists and following lists are both read from here.
	CREATE TABLE IF NOT EXISTS follows (
		follower_id TEXT NOT NULL,
		followee_id TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (follower_id, followee_id),
		FOREIGN KEY (follower_id) REFERENCES users(id) ON DELETE CASCADE,
		FOREIGN KEY (followee_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS post_likes (
		post_id TEXT NOT NULL,
		user_id TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (post_id, user_id),
		FOREIGN KEY (post_id) REFERENCES posts(id) ON DELETE CASCADE,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		expires_at INTEGER NOT NULL, -- unix milliseconds
		created_at DATETIME NOT NULL,
		FOREIGN KEY (user_id) REFERENCES users(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_posts_user_created ON posts(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_follows_followee ON follows(followee_id);
	CREATE INDEX IF NOT EXISTS idx_post_likes_post ON post_likes(post_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);
	CREATE INDEX IF NOT EXISTS idx_sessions_expires ON sessions(expires_at);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("error creating tables: %w", err)
	}
	return nil
}

// withTx runs fn inside a transaction, committing on success and rolling
// back on any error.
func withTx(ctx context.Context, db *sql.DB, op string, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr(op+": begin", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return storeErr(op+": commit", err)
	}
	return nil
}

func storeErr(op string, err error) error {
	return &models.StoreError{Op: op, Err: err}
}

// uniqueViolation returns the "table.column" named by a UNIQUE constraint
// failure, or "" when err is something else.
func uniqueViolation(err error) string {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.ExtendedCode != sqlite3.ErrConstraintUnique {
		return ""
	}
	msg := sqliteErr.Error()
	if i := strings.LastIndex(msg, ": "); i >= 0 {
		return msg[i+2:]
	}
	return msg
}

// queryStrings collects a single string column. Rows are closed before it
// returns so callers can issue the next statement on the same connection.
func queryStrings(ctx context.Context, q querier, query string, args ...any) ([]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// queryPairs collects two string columns, grouping the second by the first.
func queryPairs(ctx context.Context, q querier, query string, args ...any) (map[string][]string, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string][]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = append(out[k], v)
	}
	return out, rows.Err()
}

func lookupUserID(ctx context.Context, q querier, username string) (string, error) {
	var id string
	err := q.QueryRowContext(ctx, "SELECT id FROM users WHERE username = ?", username).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return "", models.ErrUserNotFound
	}
	if err != nil {
		return "", storeErr("lookup user", err)
	}
	return id, nil
}

func userExists(ctx context.Context, q querier, id string) error {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM users WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrUserNotFound
	}
	if err != nil {
		return storeErr("lookup user", err)
	}
	return nil
}
