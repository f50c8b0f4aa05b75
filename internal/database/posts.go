package database

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"socialnet/internal/models"
)

const postSelect = `
	SELECT p.id, p.user_id, u.username, p.caption, p.img, p.created_at, p.updated_at
	FROM posts p JOIN users u ON u.id = p.user_id`

// PostStore persists posts and their likes.
type PostStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostStore(db *sql.DB) *PostStore {
	return &PostStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create inserts p owned by p.UserID. The owner's post list is read from
// posts.user_id, so the post is attached to its author by the same insert.
func (s *PostStore) Create(ctx context.Context, p *models.Post) error {
	if p.ID == "" {
		p.ID = uuid.NewString()
	}
	now := s.now()
	p.CreatedAt, p.UpdatedAt = now, now
	p.Likes = []string{}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO posts (id, user_id, caption, img, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
		p.ID, p.UserID, p.Caption, p.Img, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.ExtendedCode == sqlite3.ErrConstraintForeignKey {
			return models.ErrUserNotFound
		}
		return storeErr("insert post", err)
	}
	return nil
}

// FindByID returns the post with its like list.
func (s *PostStore) FindByID(ctx context.Context, id string) (*models.Post, error) {
	p, err := scanPost(s.db.QueryRowContext(ctx, postSelect+" WHERE p.id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrPostNotFound
	}
	if err != nil {
		return nil, storeErr("find post", err)
	}
	p.Likes, err = queryStrings(ctx, s.db, `
		SELECT u.username FROM post_likes l JOIN users u ON u.id = l.user_id
		WHERE l.post_id = ? ORDER BY l.rowid`, p.ID)
	if err != nil {
		return nil, storeErr("load likes", err)
	}
	return p, nil
}

// List returns all posts, newest first.
func (s *PostStore) List(ctx context.Context) ([]*models.Post, error) {
	return s.list(ctx, postSelect+" ORDER BY p.created_at DESC, p.rowid DESC")
}

// ListByUser returns the posts authored by userID, newest first.
func (s *PostStore) ListByUser(ctx context.Context, userID string) ([]*models.Post, error) {
	return s.list(ctx, postSelect+" WHERE p.user_id = ? ORDER BY p.created_at DESC, p.rowid DESC", userID)
}

func (s *PostStore) list(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	posts, err := s.scanPosts(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	likes, err := queryPairs(ctx, s.db, `
		SELECT l.post_id, u.username FROM post_likes l JOIN users u ON u.id = l.user_id
		ORDER BY l.rowid`)
	if err != nil {
		return nil, storeErr("load likes", err)
	}
	for _, p := range posts {
		p.Likes = orEmpty(likes[p.ID])
	}
	return posts, nil
}

func (s *PostStore) scanPosts(ctx context.Context, query string, args ...any) ([]*models.Post, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeErr("list posts", err)
	}
	defer rows.Close()

	posts := []*models.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, storeErr("scan post", err)
		}
		posts = append(posts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list posts", err)
	}
	return posts, nil
}

// Like adds actorUsername to the like list of postID. Liking twice is a
// no-op.
func (s *PostStore) Like(ctx context.Context, postID, actorUsername string) error {
	return withTx(ctx, s.db, "like", func(tx *sql.Tx) error {
		if err := postExists(ctx, tx, postID); err != nil {
			return err
		}
		userID, err := lookupUserID(ctx, tx, actorUsername)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO post_likes (post_id, user_id, created_at) VALUES (?, ?, ?)",
			postID, userID, s.now())
		if err != nil {
			return storeErr("insert like", err)
		}
		return nil
	})
}

// Unlike removes actorUsername from the like list of postID.
func (s *PostStore) Unlike(ctx context.Context, postID, actorUsername string) error {
	return withTx(ctx, s.db, "unlike", func(tx *sql.Tx) error {
		if err := postExists(ctx, tx, postID); err != nil {
			return err
		}
		userID, err := lookupUserID(ctx, tx, actorUsername)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"DELETE FROM post_likes WHERE post_id = ? AND user_id = ?", postID, userID)
		if err != nil {
			return storeErr("delete like", err)
		}
		return nil
	})
}

func postExists(ctx context.Context, q querier, id string) error {
	var one int
	err := q.QueryRowContext(ctx, "SELECT 1 FROM posts WHERE id = ?", id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ErrPostNotFound
	}
	if err != nil {
		return storeErr("lookup post", err)
	}
	return nil
}

func scanPost(row scanner) (*models.Post, error) {
	var p models.Post
	if err := row.Scan(&p.ID, &p.UserID, &p.Username, &p.Caption, &p.Img, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	return &p, nil
}
