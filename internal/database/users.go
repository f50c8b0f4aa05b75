package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"socialnet/internal/models"
)

const userColumns = "id, email, username, password, profile_img, is_admin, created_at, updated_at"

// UserStore is the credential store. It also owns the follow graph.
type UserStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db, now: func() time.Time { return time.Now().UTC() }}
}

// Create inserts u, filling in ID, timestamps and the default profile image.
// A duplicate email or username yields ErrEmailExists or ErrUsernameExists.
func (s *UserStore) Create(ctx context.Context, u *models.User) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.ProfileImg == "" {
		u.ProfileImg = models.DefaultProfileImg
	}
	now := s.now()
	u.CreatedAt, u.UpdatedAt = now, now
	u.Followers, u.Following, u.Posts = []string{}, []string{}, []string{}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO users ("+userColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		u.ID, u.Email, u.Username, u.PasswordHash, u.ProfileImg, u.IsAdmin, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		switch col := uniqueViolation(err); {
		case strings.HasSuffix(col, ".email"):
			return models.ErrEmailExists
		case strings.HasSuffix(col, ".username"):
			return models.ErrUsernameExists
		}
		return storeErr("insert user", err)
	}
	return nil
}

// FindByUsername returns the user with exactly this username.
func (s *UserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return s.findOne(ctx, "username = ?", username)
}

// FindByID returns the user with this ID.
func (s *UserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s *UserStore) findOne(ctx context.Context, where string, arg string) (*models.User, error) {
	row := s.db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE "+where, arg)
	u, err := scanUser(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, models.ErrUserNotFound
	}
	if err != nil {
		return nil, storeErr("find user", err)
	}
	if err := s.hydrate(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *UserStore) hydrate(ctx context.Context, u *models.User) error {
	var err error
	u.Followers, err = queryStrings(ctx, s.db, `
		SELECT u.username FROM follows f JOIN users u ON u.id = f.follower_id
		WHERE f.followee_id = ? ORDER BY f.rowid`, u.ID)
	if err != nil {
		return storeErr("load followers", err)
	}
	u.Following, err = queryStrings(ctx, s.db, `
		SELECT u.username FROM follows f JOIN users u ON u.id = f.followee_id
		WHERE f.follower_id = ? ORDER BY f.rowid`, u.ID)
	if err != nil {
		return storeErr("load following", err)
	}
	u.Posts, err = queryStrings(ctx, s.db,
		"SELECT id FROM posts WHERE user_id = ? ORDER BY created_at, rowid", u.ID)
	if err != nil {
		return storeErr("load user posts", err)
	}
	return nil
}

// List returns every user in registration order with their lists filled in.
func (s *UserStore) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.listBare(ctx)
	if err != nil {
		return nil, err
	}

	followers, err := queryPairs(ctx, s.db, `
		SELECT f.followee_id, u.username FROM follows f JOIN users u ON u.id = f.follower_id
		ORDER BY f.rowid`)
	if err != nil {
		return nil, storeErr("load followers", err)
	}
	following, err := queryPairs(ctx, s.db, `
		SELECT f.follower_id, u.username FROM follows f JOIN users u ON u.id = f.followee_id
		ORDER BY f.rowid`)
	if err != nil {
		return nil, storeErr("load following", err)
	}
	posts, err := queryPairs(ctx, s.db, "SELECT user_id, id FROM posts ORDER BY created_at, rowid")
	if err != nil {
		return nil, storeErr("load user posts", err)
	}

	for _, u := range users {
		u.Followers = orEmpty(followers[u.ID])
		u.Following = orEmpty(following[u.ID])
		u.Posts = orEmpty(posts[u.ID])
	}
	return users, nil
}

func (s *UserStore) listBare(ctx context.Context) ([]*models.User, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at, rowid")
	if err != nil {
		return nil, storeErr("list users", err)
	}
	defer rows.Close()

	users := []*models.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, storeErr("scan user", err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("list users", err)
	}
	return users, nil
}

// SetAdmin grants or revokes the admin flag.
func (s *UserStore) SetAdmin(ctx context.Context, username string, admin bool) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE users SET is_admin = ?, updated_at = ? WHERE username = ?", admin, s.now(), username)
	if err != nil {
		return storeErr("set admin", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("set admin", err)
	}
	if n == 0 {
		return models.ErrUserNotFound
	}
	return nil
}

// Follow records that actorID follows targetUsername. The edge is a single
// row, so the follower list of the target and the following list of the
// actor change together. Following twice is a no-op.
func (s *UserStore) Follow(ctx context.Context, actorID, targetUsername string) error {
	return withTx(ctx, s.db, "follow", func(tx *sql.Tx) error {
		targetID, err := lookupUserID(ctx, tx, targetUsername)
		if err != nil {
			return err
		}
		if targetID == actorID {
			return fmt.Errorf("%w: cannot follow yourself", models.ErrValidation)
		}
		if err := userExists(ctx, tx, actorID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"INSERT OR IGNORE INTO follows (follower_id, followee_id, created_at) VALUES (?, ?, ?)",
			actorID, targetID, s.now())
		if err != nil {
			return storeErr("insert follow", err)
		}
		return nil
	})
}

// Unfollow removes the edge from actorID to targetUsername if it exists.
func (s *UserStore) Unfollow(ctx context.Context, actorID, targetUsername string) error {
	return withTx(ctx, s.db, "unfollow", func(tx *sql.Tx) error {
		targetID, err := lookupUserID(ctx, tx, targetUsername)
		if err != nil {
			return err
		}
		if err := userExists(ctx, tx, actorID); err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			"DELETE FROM follows WHERE follower_id = ? AND followee_id = ?", actorID, targetID)
		if err != nil {
			return storeErr("delete follow", err)
		}
		return nil
	})
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUser(row scanner) (*models.User, error) {
	var u models.User
	err := row.Scan(&u.ID, &u.Email, &u.Username, &u.PasswordHash, &u.ProfileImg, &u.IsAdmin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
